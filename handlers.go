package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"guessart/internal/hint"
)

// homeHandler renders the game page.
func (app *App) homeHandler(c *gin.Context) {
	app.getOrCreateSession(c)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":        PageTitle,
		"delayMs":      app.Config.displayDelay.Milliseconds(),
		"errorMessage": MessageGenericError,
	})
}

// startHandler loads a new random artwork for the session.
func (app *App) startHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := app.getOrCreateSession(c)
	s := app.getSession(ctx, sessionID)

	rec, gen, err := app.startGame(ctx, sessionID, s)
	if errors.Is(err, errStaleStart) {
		c.JSON(http.StatusConflict, errorResponse{Error: MessageGenericError, Stale: true})
		return
	}
	if err != nil {
		app.renderProviderError(c, "load artwork", err)
		return
	}

	c.JSON(http.StatusOK, startResponse{
		Generation:   gen,
		ImageURL:     rec.ImageURL,
		Alt:          rec.Alt,
		RevealAnswer: true,
	})
}

// hintHandler returns a hint for one word of the current title.
func (app *App) hintHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := app.getOrCreateSession(c)
	s := app.getSession(ctx, sessionID)

	rec, err := app.requestHint(ctx, sessionID, s)
	if err != nil {
		app.renderProviderError(c, "load hint", err)
		return
	}

	c.JSON(http.StatusOK, hintResponse{
		Hint:     rec.Text,
		FollowUp: hint.FollowUp,
		DelayMS:  app.Config.displayDelay.Milliseconds(),
	})
}

// answerHandler checks a guess. The answer is compared verbatim, so it is
// never trimmed or case-folded here.
func (app *App) answerHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := app.getOrCreateSession(c)
	s := app.getSession(ctx, sessionID)

	var req answerRequest
	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: MessageGenericError})
			return
		}
	} else {
		req.Answer = c.PostForm("answer")
	}

	verdict := app.checkAnswer(ctx, sessionID, s, req.Answer)
	c.JSON(http.StatusOK, answerResponse{
		Verdict: verdict.String(),
		Message: verdict.Message(),
		DelayMS: app.Config.displayDelay.Milliseconds(),
	})
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := time.Since(app.StartTime)
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   releaseVersion,
		"env":       app.Config.env(),
		"sessions":  app.sessionCount(),
		"uptime":    formatUptime(uptime),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// renderProviderError logs err and answers with the generic message. No
// upstream detail reaches the player.
func (app *App) renderProviderError(c *gin.Context, action string, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, hint.ErrNoArtwork) {
		status = http.StatusConflict
	}
	logError("%sFailed to %s: %v", reqPrefix(c.Request.Context()), action, err)
	c.JSON(status, errorResponse{Error: MessageGenericError})
}
