package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"guessart/internal/artwork"
	"guessart/internal/hint"
)

type Config struct {
	artBaseURL        string
	bind              string
	cookieMaxAge      time.Duration
	dictionaryBaseURL string
	displayDelay      time.Duration
	fetchTimeout      time.Duration
	maxAttempts       uint
	port              int
	production        bool
	rateLimitBurst    int
	rateLimitRPS      int
	sessionDir        string
	sessionTimeout    time.Duration
	staticCacheAge    time.Duration
	verbose           bool
	version           bool
}

// defaultConfig mirrors the flag defaults, for callers that skip the CLI.
func defaultConfig() *Config {
	return &Config{
		artBaseURL:        artwork.DefaultBaseURL,
		bind:              "0.0.0.0",
		cookieMaxAge:      2 * time.Hour,
		dictionaryBaseURL: hint.DefaultBaseURL,
		displayDelay:      500 * time.Millisecond,
		fetchTimeout:      10 * time.Second,
		maxAttempts:       artwork.DefaultMaxAttempts,
		port:              8080,
		rateLimitBurst:    10,
		rateLimitRPS:      5,
		sessionDir:        "data/sessions",
		sessionTimeout:    2 * time.Hour,
		staticCacheAge:    5 * time.Minute,
	}
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxAttempts < 1 {
		return errors.New("--max-attempts must be at least 1")
	}
	if c.rateLimitRPS < 1 || c.rateLimitBurst < 1 {
		return fmt.Errorf("invalid rate limit (rps %d, burst %d): both must be positive", c.rateLimitRPS, c.rateLimitBurst)
	}
	if c.displayDelay < 0 {
		return fmt.Errorf("invalid display delay: %v", c.displayDelay)
	}
	if c.sessionTimeout <= 0 {
		return fmt.Errorf("invalid session timeout: %v", c.sessionTimeout)
	}
	if c.artBaseURL == "" || c.dictionaryBaseURL == "" {
		return errors.New("both --art-base-url and --dictionary-base-url are required")
	}
	return nil
}

func (c *Config) addr() string {
	return net.JoinHostPort(c.bind, strconv.Itoa(c.port))
}

func (c *Config) env() string {
	if c.production {
		return "production"
	}
	return "development"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GUESSART")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "guessart",
		Short:         "A trivia game: guess the title of a random artwork.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	def := defaultConfig()
	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.artBaseURL, "art-base-url", def.artBaseURL, "artwork API endpoint (env: GUESSART_ART_BASE_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", def.bind, "address to bind to (env: GUESSART_BIND)")
	fs.DurationVar(&cfg.cookieMaxAge, "cookie-max-age", def.cookieMaxAge, "lifetime of the session cookie (env: GUESSART_COOKIE_MAX_AGE)")
	fs.StringVar(&cfg.dictionaryBaseURL, "dictionary-base-url", def.dictionaryBaseURL, "dictionary API endpoint (env: GUESSART_DICTIONARY_BASE_URL)")
	fs.DurationVar(&cfg.displayDelay, "display-delay", def.displayDelay, "pause before hints and verdicts are shown (env: GUESSART_DISPLAY_DELAY)")
	fs.DurationVar(&cfg.fetchTimeout, "fetch-timeout", def.fetchTimeout, "timeout for upstream API requests (env: GUESSART_FETCH_TIMEOUT)")
	fs.UintVar(&cfg.maxAttempts, "max-attempts", def.maxAttempts, "identifiers tried when the artwork API answers 404 (env: GUESSART_MAX_ATTEMPTS)")
	fs.IntVarP(&cfg.port, "port", "p", def.port, "port to listen on (env: GUESSART_PORT)")
	fs.BoolVar(&cfg.production, "production", false, "enable production mode: minified assets, long static caching, secure cookies (env: GUESSART_PRODUCTION)")
	fs.IntVar(&cfg.rateLimitBurst, "rate-limit-burst", def.rateLimitBurst, "burst size per client (env: GUESSART_RATE_LIMIT_BURST)")
	fs.IntVar(&cfg.rateLimitRPS, "rate-limit-rps", def.rateLimitRPS, "sustained requests per second per client (env: GUESSART_RATE_LIMIT_RPS)")
	fs.StringVar(&cfg.sessionDir, "session-dir", def.sessionDir, "directory for session snapshots, empty to disable (env: GUESSART_SESSION_DIR)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", def.sessionTimeout, "time before idle sessions are dropped (env: GUESSART_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.staticCacheAge, "static-cache-age", def.staticCacheAge, "max-age for static assets in production (env: GUESSART_STATIC_CACHE_AGE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: GUESSART_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: GUESSART_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("guessart v{{.Version}}\n")

	return cmd
}
