package main

import (
	"time"

	"spellcheck/internal/game"
	"spellcheck/internal/types"
	"spellcheck/internal/words"
)

type contextKey string

// App holds the process-wide word, session and leaderboard state.
type App struct {
	Words        *words.Service
	Buffer       *words.Buffer
	Sessions     *game.Store
	Board        *game.Leaderboard
	Config       Config
	IsProduction bool
	StartTime    time.Time
}

// Config is read from the environment at startup.
type Config struct {
	Port              string
	SessionTimeout    time.Duration
	SweepInterval     time.Duration
	WordFetchTimeout  time.Duration
	MetadataTimeout   time.Duration
	BufferTarget      int
	BufferLowWater    int
	ReplenishAttempts int
	ReplenishSample   int
	LeaderboardSize   int
	EasyMinFreq       float64
	MediumMinFreq     float64
	AudioURLTemplate  string
	DatamuseURL       string
	DictionaryURL     string
	UpstreamRPS       float64
	UpstreamBurst     int
}

type createSessionRequest struct {
	Username  string `json:"username"`
	Level     string `json:"level"`
	SessionID string `json:"sessionId"`
}

type createSessionResponse struct {
	SessionID    string     `json:"sessionId"`
	Username     string     `json:"username"`
	Level        types.Tier `json:"level"`
	Score        int        `json:"score"`
	Rank         int        `json:"rank"`
	TotalPlayers int        `json:"totalPlayers"`
}

type submitAnswerRequest struct {
	SessionID string `json:"sessionId"`
	Correct   bool   `json:"correct"`
}

type submitAnswerResponse struct {
	Score        int         `json:"score"`
	Rank         int         `json:"rank"`
	Trend        types.Trend `json:"trend"`
	TotalPlayers int         `json:"totalPlayers"`
}

type endSessionRequest struct {
	SessionID string `json:"sessionId"`
}

type leaderboardResponse struct {
	Level        types.Tier          `json:"level"`
	Top10        []types.RankedEntry `json:"top10"`
	CurrentUser  *types.UserView     `json:"currentUser"`
	TotalPlayers int                 `json:"totalPlayers"`
}
