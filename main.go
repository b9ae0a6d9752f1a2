package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"guessart/internal/artwork"
	"guessart/internal/fetch"
	"guessart/internal/game"
	"guessart/internal/hint"
)

const releaseVersion = "1.0.0"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}

func run(ctx context.Context, cfg *Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logInfo("Starting Guess the Art v%s in %s mode", releaseVersion, cfg.env())

	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.production {
		gin.SetMode(gin.ReleaseMode)
	}
	return app.serve(ctx, app.newRouter())
}

// newApp wires the upstream clients and providers.
func newApp(cfg *Config, logger *zap.Logger) (*App, error) {
	assets, err := loadAssets(cfg.production)
	if err != nil {
		return nil, err
	}

	client := fetch.NewClient(fetch.WithTimeout(cfg.fetchTimeout))

	return &App{
		Config: cfg,
		Artworks: artwork.NewProvider(client,
			artwork.WithBaseURL(cfg.artBaseURL),
			artwork.WithMaxAttempts(cfg.maxAttempts),
			artwork.WithLogger(logger.Named("artwork")),
		),
		Hints:      hint.NewProvider(client, hint.WithBaseURL(cfg.dictionaryBaseURL)),
		Assets:     assets,
		Logger:     logger,
		StartTime:  time.Now(),
		Sessions:   make(map[string]*game.Session),
		LimiterMap: make(map[string]*rate.Limiter),
	}, nil
}

func (app *App) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware())
	if app.Config.verbose {
		router.Use(gin.Logger())
	}

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(app.cacheHeadersMiddleware(), app.securityHeadersMiddleware())
	router.SetHTMLTemplate(app.Assets.page)

	router.GET(RouteHome, app.homeHandler)
	router.GET(RouteStatic+"/*filepath", app.staticHandler)
	router.POST(RouteStart, app.rateLimitMiddleware(), app.startHandler)
	router.POST(RouteHint, app.rateLimitMiddleware(), app.hintHandler)
	router.POST(RouteAnswer, app.rateLimitMiddleware(), app.answerHandler)
	router.GET(RouteHealthz, app.healthzHandler)

	return router
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests and flushes sessions to disk.
func (app *App) serve(ctx context.Context, router *gin.Engine) error {
	srv := &http.Server{
		Addr:              app.Config.addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go app.runJanitor(janitorCtx, app.Config.sessionTimeout/2)

	errs := make(chan error, 1)
	go func() {
		logInfo("Server starting on http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logInfo("Shutdown signal received, shutting down server gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logWarn("HTTP server Shutdown: %v", err)
	}
	app.flushSessions()
	logInfo("Server shutdown complete")
	return nil
}
