// Package logger builds the application's slog logger and provides attribute
// helpers so log keys stay consistent across packages.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format of the log output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures New.
type Options struct {
	// Level: debug, info, warn, error.
	Level string

	// Format: text (development) or json (production).
	Format Format

	// Output defaults to os.Stdout.
	Output io.Writer

	// AddSource adds file:line to every record.
	AddSource bool
}

// DefaultOptions returns options for local development.
func DefaultOptions() Options {
	return Options{
		Level:  "info",
		Format: FormatText,
		Output: os.Stdout,
	}
}

// ParseLevel parses a level name. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if Format(strings.ToLower(string(opts.Format))) == FormatJSON {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}
	return slog.New(handler)
}

// Setup creates a logger and installs it as slog's default.
func Setup(opts Options) *slog.Logger {
	l := New(opts)
	slog.SetDefault(l)
	return l
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ─── context ───

type ctxKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// ─── attributes ───

func TelegramID(id int64) slog.Attr      { return slog.Int64("telegram_id", id) }
func Registrant(handle string) slog.Attr { return slog.String("registrant", handle) }
func Faculty(name string) slog.Attr      { return slog.String("faculty", name) }
func RequestID(id string) slog.Attr      { return slog.String("request_id", id) }
func Component(name string) slog.Attr    { return slog.String("component", name) }
func Latency(d time.Duration) slog.Attr  { return slog.Duration("latency", d) }
func SubmissionID(id int64) slog.Attr    { return slog.Int64("submission_id", id) }

// Err returns an "error" attribute; nil errors produce an empty attribute
// that slog drops.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
