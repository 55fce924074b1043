// Package logging builds the zerolog loggers used across the service and
// carries them through context.Context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level and output format.
type Config struct {
	Level   string // trace|debug|info|warn|error
	Format  string // json|console|auto
	NoColor bool
}

// New builds a logger writing to w. Format "auto" picks console output when
// w is a terminal and JSON otherwise.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := ParseLevel(cfg.Level)

	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "" || format == "auto" {
		format = "json"
		if isTerminal(w) {
			format = "console"
		}
	}
	if format == "console" || format == "pretty" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: cfg.NoColor}
	}

	lg := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		lg = lg.With().Caller().Logger()
	}
	return lg
}

// ParseLevel falls back to info on unknown input.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
)

var nop = zerolog.Nop()

// WithLogger stores lg in ctx.
func WithLogger(ctx context.Context, lg zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, &lg)
}

// FromContext returns the context logger, or a no-op logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &nop
	}
	if lg, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && lg != nil {
		return lg
	}
	return &nop
}

// WithRequestID stores the id and tags the context logger with it.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, id)
	return WithLogger(ctx, FromContext(ctx).With().Str("request_id", id).Logger())
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
