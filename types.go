package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"guessart/internal/game"
	"guessart/internal/types"
)

type artworkLoader interface {
	LoadRandomArtwork(ctx context.Context) (types.ArtworkRecord, error)
}

type hintLoader interface {
	LoadHint(ctx context.Context, s *game.Session) (types.HintRecord, error)
}

// App holds the server's dependencies and per-player state.
type App struct {
	Config    *Config
	Artworks  artworkLoader
	Hints     hintLoader
	Assets    *assetSet
	Logger    *zap.Logger
	StartTime time.Time

	Sessions     map[string]*game.Session
	SessionMutex sync.RWMutex

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex
}

// startResponse is returned by the start route.
type startResponse struct {
	Generation   uint64 `json:"generation"`
	ImageURL     string `json:"image_url"`
	Alt          string `json:"alt"`
	RevealAnswer bool   `json:"reveal_answer"`
}

type hintResponse struct {
	Hint     string `json:"hint"`
	FollowUp string `json:"follow_up"`
	DelayMS  int64  `json:"delay_ms"`
}

type answerResponse struct {
	Verdict string `json:"verdict"`
	Message string `json:"message"`
	DelayMS int64  `json:"delay_ms"`
}

type answerRequest struct {
	Answer string `json:"answer" form:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stale bool   `json:"stale,omitempty"`
}
