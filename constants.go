package main

// Route constants
const (
	RouteRandomWord    = "/api/random-word"
	RouteSessionCreate = "/api/session/create"
	RouteSubmitAnswer  = "/api/session/submit-answer"
	RouteSessionEnd    = "/api/session/end"
	RouteLeaderboard   = "/api/leaderboard"
	RouteCheckUsername = "/api/check-username"
	RouteResetSession  = "/api/reset-session"
	RouteHealthz       = "/healthz"
)

// Leaderboard view constants
const (
	TopListSize = 10
)

// Response message constants
const (
	MessageSeenReset    = "Session reset. Seen words cleared."
	ErrorInternal       = "Internal server error."
	ErrorInvalidBody    = "Request body must be valid JSON."
	ErrorInvalidLevel   = "Level must be one of easy, medium or hard."
	ErrorMissingSession = "sessionId is required."
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)
