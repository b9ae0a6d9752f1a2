package main

import (
	"context"
	"errors"

	"guessart/internal/game"
	"guessart/internal/types"
)

// errStaleStart is returned when a newer start request for the same session
// began while this one was in flight.
var errStaleStart = errors.New("superseded by a newer start request")

// startGame loads a new random artwork into the session. The session's
// generation is taken before the upstream call so that overlapping starts
// keep only the most recently started one.
func (app *App) startGame(ctx context.Context, sessionID string, s *game.Session) (types.ArtworkRecord, uint64, error) {
	gen := s.Begin()
	rec, err := app.Artworks.LoadRandomArtwork(ctx)
	if err != nil {
		return types.ArtworkRecord{}, gen, err
	}
	if !s.Commit(gen, rec.Title) {
		logInfo("%sDiscarding artwork %d for session %s: generation %d is stale", reqPrefix(ctx), rec.ID, sessionID, gen)
		return types.ArtworkRecord{}, gen, errStaleStart
	}
	logInfo("%sSession %s is now guessing artwork %d (generation %d)", reqPrefix(ctx), sessionID, rec.ID, gen)
	app.saveSession(sessionID, s)
	return rec, gen, nil
}

func (app *App) requestHint(ctx context.Context, sessionID string, s *game.Session) (types.HintRecord, error) {
	rec, err := app.Hints.LoadHint(ctx, s)
	if err != nil {
		return types.HintRecord{}, err
	}
	if rec.Fallback {
		logInfo("%sNo definition for %q, revealing it to session %s", reqPrefix(ctx), rec.Word, sessionID)
	} else {
		logInfo("%sServed definition of %q to session %s", reqPrefix(ctx), rec.Word, sessionID)
	}
	return rec, nil
}

func (app *App) checkAnswer(ctx context.Context, sessionID string, s *game.Session, input string) types.Verdict {
	verdict := game.CheckAnswer(s, input)
	logInfo("%sSession %s answered %q: %s", reqPrefix(ctx), sessionID, input, verdict)
	return verdict
}
