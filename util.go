package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar = zap.NewNop().Sugar()

// newLogger builds the process logger and installs it for the log helpers.
func newLogger(cfg *Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.production {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if cfg.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	sugar = logger.Sugar()
	return logger, nil
}

// formatUptime returns a human-readable string for a duration.
func formatUptime(d time.Duration) string {
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())
	switch {
	case hours > 0:
		return fmt.Sprintf("%d hour%s, %d minute%s, %d second%s",
			hours, plural(hours),
			minutes, plural(minutes),
			seconds, plural(seconds))
	case minutes > 0:
		return fmt.Sprintf("%d minute%s, %d second%s",
			minutes, plural(minutes),
			seconds, plural(seconds))
	default:
		return fmt.Sprintf("%d second%s", seconds, plural(seconds))
	}
}

// plural returns "s" if n != 1, otherwise "".
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// reqPrefix returns a "[request_id=...] " prefix when ctx carries one.
func reqPrefix(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if reqID, _ := ctx.Value(requestIDKey).(string); reqID != "" {
		return "[request_id=" + reqID + "] "
	}
	return ""
}

func logDebug(format string, v ...any) {
	sugar.Debugf(format, v...)
}

func logInfo(format string, v ...any) {
	sugar.Infof(format, v...)
}

func logWarn(format string, v ...any) {
	sugar.Warnf(format, v...)
}

func logError(format string, v ...any) {
	sugar.Errorf(format, v...)
}
