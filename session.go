package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"spellcheck/internal/types"
)

// createSessionHandler starts a player session, reusing the caller's token
// on page refresh.
func (app *App) createSessionHandler(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %s", types.ErrValidation, ErrorInvalidBody))
		return
	}
	level, ok := types.LookupTier(req.Level)
	if !ok {
		respondError(c, fmt.Errorf("%w: %s", types.ErrValidation, ErrorInvalidLevel))
		return
	}

	res, err := app.Sessions.Create(req.Username, level, strings.TrimSpace(req.SessionID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, createSessionResponse{
		SessionID:    res.Session.ID,
		Username:     res.Session.Username,
		Level:        res.Session.Level,
		Score:        res.Session.Score,
		Rank:         res.Rank,
		TotalPlayers: res.TotalPlayers,
	})
}

// submitAnswerHandler records one answer and returns the new standing.
func (app *App) submitAnswerHandler(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %s", types.ErrValidation, ErrorInvalidBody))
		return
	}
	if req.SessionID == "" {
		respondError(c, fmt.Errorf("%w: %s", types.ErrValidation, ErrorMissingSession))
		return
	}

	res, err := app.Sessions.SubmitAnswer(req.SessionID, req.Correct)
	if err != nil {
		respondError(c, err)
		return
	}
	requestLogger(c.Request.Context()).Debug("answer submitted",
		"session", req.SessionID, "correct", req.Correct, "score", res.Score, "rank", res.Rank)
	c.JSON(http.StatusOK, submitAnswerResponse{
		Score:        res.Score,
		Rank:         res.Rank,
		Trend:        res.Trend,
		TotalPlayers: res.TotalPlayers,
	})
}

// endSessionHandler is called with a keepalive/beacon request on tab close,
// so the body is read as JSON whatever its content type. Unknown sessions
// are not an error.
func (app *App) endSessionHandler(c *gin.Context) {
	var req endSessionRequest
	if err := c.ShouldBindWith(&req, binding.JSON); err != nil {
		respondError(c, fmt.Errorf("%w: %s", types.ErrValidation, ErrorInvalidBody))
		return
	}
	if req.SessionID != "" {
		app.Sessions.End(req.SessionID)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// checkUsernameHandler reports whether a username is free in a level,
// ignoring the caller's own session.
func (app *App) checkUsernameHandler(c *gin.Context) {
	level := types.ParseTier(c.Query("level"))
	available, err := app.Sessions.CheckUsernameAvailable(c.Query("username"), level, c.Query("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !available {
		c.JSON(http.StatusConflict, gin.H{"available": false, "error": types.ErrConflict.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true})
}
