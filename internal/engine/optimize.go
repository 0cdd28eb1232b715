package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"golang.org/x/sync/errgroup"

	"imgoptim/internal/logger"
	"imgoptim/pkg/imgutil"
)

// Result is the outcome of optimizing one file.
type Result struct {
	Path         string
	OriginalSize int64
	// Candidate is a temporary file smaller than the original, or empty
	// when no worker improved on it. It is removed once the callback
	// returns.
	Candidate     string
	CandidateSize int64
	// Err is a per-file failure. The run continues after it.
	Err error
}

// Optimized reports whether a smaller candidate was produced.
func (r Result) Optimized() bool {
	return r.Candidate != ""
}

// FatalError is a system-level failure that ends the whole run.
type FatalError struct {
	Path string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err should abort the run instead of being
// reported against a single file.
func IsFatal(err error) bool {
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return true
	}
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EROFS) ||
		errors.Is(err, fs.ErrPermission)
}

// OptimizeFiles optimizes paths concurrently and calls fn once per path
// with its result. Calls to fn are serialized in completion order. The
// first error from fn, or the first fatal error, stops the run and is
// returned.
func (e *Engine) OptimizeFiles(ctx context.Context, paths []string, fn func(Result) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.threads)

	results := make(chan Result)
	done := make(chan error, 1)

	go func() {
		for _, path := range paths {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				res, err := e.optimizeFile(gctx, path)
				if err != nil {
					return err
				}
				select {
				case results <- res:
					return nil
				case <-gctx.Done():
					removeCandidate(res)
					return nil
				}
			})
		}
		done <- g.Wait()
		close(results)
	}()

	var cbErr error
	for res := range results {
		if cbErr == nil {
			if cbErr = fn(res); cbErr != nil {
				cancel()
			}
		}
		removeCandidate(res)
	}

	waitErr := <-done
	switch {
	case cbErr != nil:
		return cbErr
	case waitErr != nil:
		return waitErr
	default:
		return ctx.Err()
	}
}

// optimizeFile passes path through every worker for its format, each
// worker reading the best candidate so far. A non-nil error is fatal.
func (e *Engine) optimizeFile(ctx context.Context, path string) (Result, error) {
	res := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return e.fileFailure(res, err)
	}
	res.OriginalSize = info.Size()

	kind, err := imgutil.SniffFile(path)
	if err != nil {
		return e.fileFailure(res, err)
	}

	best, bestSize := path, info.Size()
	for _, w := range e.workers[kind] {
		if err := ctx.Err(); err != nil {
			cleanupBest(best, path)
			return res, err
		}

		tmp, err := tempFile(kind)
		if err != nil {
			cleanupBest(best, path)
			return res, &FatalError{Path: path, Err: err}
		}

		produced, err := w.Optimize(ctx, best, tmp)
		if err != nil {
			os.Remove(tmp)
			if ctx.Err() != nil {
				cleanupBest(best, path)
				return res, ctx.Err()
			}
			if IsFatal(err) {
				cleanupBest(best, path)
				return res, &FatalError{Path: path, Err: err}
			}
			logger.Warn("worker failed", "worker", w.Bin(), "path", path, "error", err)
			continue
		}
		if !produced {
			os.Remove(tmp)
			continue
		}

		size := fileSize(tmp)
		if size <= 0 || size >= bestSize {
			os.Remove(tmp)
			continue
		}
		logger.Debug("worker improved file", "worker", w.Bin(), "path", path, "from", bestSize, "to", size)
		cleanupBest(best, path)
		best, bestSize = tmp, size
	}

	if best != path {
		res.Candidate = best
		res.CandidateSize = bestSize
	}
	return res, nil
}

func (e *Engine) fileFailure(res Result, err error) (Result, error) {
	if IsFatal(err) {
		return res, &FatalError{Path: res.Path, Err: err}
	}
	res.Err = err
	return res, nil
}

func tempFile(kind imgutil.Kind) (string, error) {
	f, err := os.CreateTemp("", "imgoptim-*"+kind.Ext())
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}

func cleanupBest(best, original string) {
	if best != original {
		os.Remove(best)
	}
}

func removeCandidate(res Result) {
	if res.Candidate != "" {
		os.Remove(res.Candidate)
	}
}
