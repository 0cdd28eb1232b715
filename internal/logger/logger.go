package logger

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var log *slog.Logger

func init() {
	log = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func SetLogger(l *slog.Logger) {
	log = l
}

// New returns a logger writing to w. Verbose mode enables debug records and
// tags every record with a short run id.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:  level,
		Prefix: "imgoptim",
	})

	l := slog.New(handler)
	if verbose {
		l = l.With("run", uuid.NewString()[:8])
	}
	return l
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}
