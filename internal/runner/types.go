package runner

import (
	"context"
	"io"

	"imgoptim/internal/engine"
	"imgoptim/internal/scanner"
	"imgoptim/pkg/sizefmt"
)

// Engine is the part of *engine.Engine the runner drives.
type Engine interface {
	Optimizable(path string) bool
	OptimizeFiles(ctx context.Context, paths []string, fn func(engine.Result) error) error
}

type Options struct {
	// NewEngine builds the engine once paths have been validated.
	NewEngine func() (Engine, error)
	Scan      scanner.Options
	Formatter sizefmt.Formatter
	// Out receives the report lines and the total.
	Out io.Writer
	// Updates, when set, receives progress deltas. It is closed when the
	// optimization phase ends.
	Updates chan<- ProgressUpdate
	// Discovered is called with the number of files found before
	// optimization starts.
	Discovered func(files int)
}

type Summary struct {
	Files     int
	Optimized int
	Failed    int
	SrcSize   int64
	DstSize   int64
}

// Saved is the number of bytes removed across all files.
func (s Summary) Saved() int64 {
	return s.SrcSize - s.DstSize
}

type ProgressUpdate struct {
	TotalDelta      int
	ProcessedDelta  int
	ErrorDelta      int
	BytesSavedDelta int64
}
