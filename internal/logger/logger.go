// Package logger configures structured logging with log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps debug, info, warn and error to a slog level. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup returns a logger writing to w. format "text" gives colored
// human-readable output; anything else gives JSON.
func Setup(w io.Writer, format string, level slog.Level) *slog.Logger {
	if strings.EqualFold(format, "text") {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetupDefault installs a logger built by Setup as the slog default. A nil w
// means stdout.
func SetupDefault(w io.Writer, format, level string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := Setup(w, format, ParseLevel(level))
	slog.SetDefault(l)
	return l
}
