package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"guessart/internal/game"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || len(sessionID) < minSessionIDLen {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.Config.production
		c.SetCookie(SessionCookieName, sessionID, int(app.Config.cookieMaxAge.Seconds()), "/", "", secure, true)
		logInfo("%sCreated new session: %s", reqPrefix(c.Request.Context()), sessionID)
	}
	return sessionID
}

// getSession returns the session for sessionID, restoring it from disk or
// creating an empty one when it is not in memory.
func (app *App) getSession(ctx context.Context, sessionID string) *game.Session {
	app.SessionMutex.RLock()
	s, exists := app.Sessions[sessionID]
	app.SessionMutex.RUnlock()
	if exists {
		s.Touch()
		return s
	}

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	if s, exists = app.Sessions[sessionID]; exists {
		s.Touch()
		return s
	}
	if snap, err := loadSessionFromFile(app.Config.sessionDir, sessionID, app.Config.sessionTimeout); err == nil {
		s = game.Restore(snap)
		logInfo("%sRestored session %s from disk (%d title words)", reqPrefix(ctx), sessionID, len(snap.Title))
	} else {
		s = game.NewSession()
		logDebug("%sStarted empty session: %s", reqPrefix(ctx), sessionID)
	}
	app.Sessions[sessionID] = s
	return s
}

// saveSession writes the session snapshot to disk if persistence is enabled.
func (app *App) saveSession(sessionID string, s *game.Session) {
	if app.Config.sessionDir == "" {
		return
	}
	if err := saveSessionToFile(app.Config.sessionDir, sessionID, s.Snapshot()); err != nil {
		logWarn("Failed to persist session %s: %v", sessionID, err)
	}
}

// evictIdleSessions drops in-memory sessions unused for longer than maxAge
// and returns how many were removed.
func (app *App) evictIdleSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	idle := lo.PickBy(app.Sessions, func(_ string, s *game.Session) bool {
		return s.LastAccess().Before(cutoff)
	})
	for id := range idle {
		delete(app.Sessions, id)
	}
	return len(idle)
}

// flushSessions persists every in-memory session.
func (app *App) flushSessions() {
	app.SessionMutex.RLock()
	sessions := lo.Entries(app.Sessions)
	app.SessionMutex.RUnlock()
	for _, e := range sessions {
		if e.Value.Loaded() {
			app.saveSession(e.Key, e.Value)
		}
	}
	logInfo("Flushed %d sessions", len(sessions))
}

func (app *App) sessionCount() int {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return len(app.Sessions)
}

// runJanitor evicts idle sessions and expired snapshots until ctx is done.
func (app *App) runJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.evictIdleSessions(app.Config.sessionTimeout); n > 0 {
				logInfo("Evicted %d idle sessions", n)
			}
			if app.Config.sessionDir != "" {
				if err := cleanupOldSessions(app.Config.sessionDir, app.Config.sessionTimeout); err != nil {
					logWarn("Session cleanup failed: %v", err)
				}
			}
		}
	}
}
