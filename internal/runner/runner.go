// Package runner drives one optimization run: discovery, optimization,
// in-place replacement and the size report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"imgoptim/internal/engine"
	"imgoptim/internal/logger"
	"imgoptim/internal/scanner"
	"imgoptim/pkg/sizefmt"
)

// ErrNoPaths is returned when the run has nothing to work on.
var ErrNoPaths = errors.New("no paths to optimize")

// Run optimizes every optimizable file under paths and writes the report to
// opts.Out. On a fatal error nothing is written.
func Run(ctx context.Context, paths []string, opts Options) (Summary, error) {
	var summary Summary
	if opts.Updates != nil {
		defer close(opts.Updates)
	}

	if len(paths) == 0 {
		return summary, ErrNoPaths
	}

	eng, err := opts.NewEngine()
	if err != nil {
		return summary, err
	}

	scan, err := scanner.New(opts.Scan, func(path, reason string) {
		logger.Warn(reason, "path", path)
	})
	if err != nil {
		return summary, err
	}

	files := scan.Scan(paths, eng.Optimizable)
	if opts.Discovered != nil {
		opts.Discovered(len(files))
	}
	publish(opts.Updates, ProgressUpdate{TotalDelta: len(files)})
	if len(files) == 0 {
		return summary, nil
	}

	var lines []string
	err = eng.OptimizeFiles(ctx, files, func(res engine.Result) error {
		src, dst := res.OriginalSize, res.OriginalSize
		update := ProgressUpdate{ProcessedDelta: 1}

		summary.Files++
		if res.Err != nil {
			// Failed files stay out of the totals.
			logger.Warn("optimization failed", "path", res.Path, "error", res.Err)
			summary.Failed++
			update.ErrorDelta = 1
			lines = append(lines, "------ "+opts.Formatter.Format(sizefmt.NotCounted)+"  "+res.Path)
			publish(opts.Updates, update)
			return nil
		}

		if res.Optimized() {
			if err := replaceFile(res.Candidate, res.Path); err != nil {
				return &engine.FatalError{Path: res.Path, Err: err}
			}
			dst = res.CandidateSize
			summary.Optimized++
			update.BytesSavedDelta = src - dst
		}

		summary.SrcSize += src
		summary.DstSize += dst
		lines = append(lines, Savings(opts.Formatter, src, dst)+"  "+res.Path)
		publish(opts.Updates, update)
		return nil
	})
	if err != nil {
		return summary, err
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString("Total: " + Savings(opts.Formatter, summary.SrcSize, summary.DstSize) + "\n")

	if _, err := fmt.Fprint(opts.Out, b.String()); err != nil {
		return summary, err
	}
	return summary, nil
}

// Savings renders the percentage saved and the byte delta, or a dashed
// placeholder when dst is not smaller than src.
func Savings(f sizefmt.Formatter, src, dst int64) string {
	if src <= 0 || dst >= src {
		return "------ " + sizefmt.Blank
	}
	percent := 100 - 100*float64(dst)/float64(src)
	return fmt.Sprintf("%5.2f%% %s", percent, f.FormatBytes(src-dst))
}

func publish(updates chan<- ProgressUpdate, update ProgressUpdate) {
	if updates != nil {
		updates <- update
	}
}
