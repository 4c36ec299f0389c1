package app

import (
	"io"
	"log/slog"

	"onboarding/internal/types"
)

// SlogAdapter wraps *slog.Logger to implement types.Logger. slog.Logger.With
// returns *slog.Logger rather than types.Logger, so an adapter is needed.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter adapts logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *SlogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *SlogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *SlogAdapter) With(args ...any) types.Logger {
	return &SlogAdapter{logger: a.logger.With(args...)}
}

// NewLogger builds the JSON logger every entry point writes to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
