package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spellcheck/internal/types"
)

// randomWordHandler serves the next word for a level. It always answers
// with a word, degrading to local data when upstreams fail.
func (app *App) randomWordHandler(c *gin.Context) {
	level := types.ParseTier(c.Query("level"))
	term := app.Words.Next(c.Request.Context(), level)
	c.JSON(http.StatusOK, term)
}

// resetSessionHandler clears the global seen-word set.
func (app *App) resetSessionHandler(c *gin.Context) {
	app.Words.Reset()
	c.JSON(http.StatusOK, gin.H{"message": MessageSeenReset})
}

// leaderboardHandler returns the top entries of a level plus the caller's
// own standing when a sessionId is given.
func (app *App) leaderboardHandler(c *gin.Context) {
	level := types.ParseTier(c.Query("level"))
	resp := leaderboardResponse{
		Level:        level,
		Top10:        app.Board.Top(level, TopListSize),
		TotalPlayers: app.Sessions.CountAtLevel(level),
	}
	if view, ok := app.Sessions.UserView(level, c.Query("sessionId")); ok {
		resp.CurrentUser = &view
	}
	c.JSON(http.StatusOK, resp)
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := time.Since(app.StartTime)
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"env":        map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"buffers":    app.Words.BufferSizes(),
		"seen_words": app.Words.SeenCount(),
		"sessions":   app.Sessions.Len(),
		"uptime":     formatUptime(uptime),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrSessionNotFound):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		requestLogger(c.Request.Context()).Error("request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": ErrorInternal})
	}
}
