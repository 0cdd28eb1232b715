// Package engine runs the worker chain over image files.
package engine

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"imgoptim/internal/config"
	"imgoptim/internal/logger"
	"imgoptim/internal/worker"
	"imgoptim/pkg/imgutil"
)

// ErrConfiguration marks inconsistent worker settings.
var ErrConfiguration = errors.New("configuration error")

// Options tunes engine construction.
type Options struct {
	// LookPath resolves external tools; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Engine optimizes files with the enabled workers.
type Engine struct {
	threads int
	workers map[imgutil.Kind][]worker.Worker
	info    []WorkerInfo
}

// WorkerInfo describes an enabled worker and its resolved options.
type WorkerInfo struct {
	Bin     string
	Formats []imgutil.Kind
	Options worker.Options
	// External is set for workers that run an installed tool.
	External bool
}

// New builds an engine from resolved settings and a worker catalog.
func New(s config.Settings, catalog []worker.Descriptor, opts Options) (*Engine, error) {
	for bin := range s.Workers {
		if _, ok := worker.Lookup(catalog, bin); !ok {
			return nil, fmt.Errorf("%w: unknown worker %q", ErrConfiguration, bin)
		}
	}

	env := worker.Env{Nice: s.Niceness(), LookPath: opts.LookPath}
	e := &Engine{
		threads: s.ThreadCount(),
		workers: make(map[imgutil.Kind][]worker.Worker),
	}

	for _, d := range catalog {
		setting := s.Workers[d.Bin]
		if !setting.Enabled() {
			logger.Debug("worker disabled", "worker", d.Bin)
			continue
		}
		if d.Lossy && !s.AllowLossy {
			logger.Debug("lossy worker skipped", "worker", d.Bin)
			continue
		}

		values, err := resolveOptions(d, setting.Options())
		if err != nil {
			return nil, err
		}

		w, err := d.New(values, env)
		if err != nil {
			if d.External && errors.Is(err, worker.ErrBinaryNotFound) {
				if !s.SkipMissingWorkers {
					logger.Warn("worker skipped, tool not installed", "worker", d.Bin)
				}
				continue
			}
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}

		for _, kind := range d.Formats {
			e.workers[kind] = append(e.workers[kind], w)
		}
		e.info = append(e.info, WorkerInfo{Bin: d.Bin, Formats: d.Formats, Options: values, External: d.External})
	}

	return e, nil
}

// Threads is the number of files optimized in parallel.
func (e *Engine) Threads() int {
	return e.threads
}

// Workers lists the enabled workers in run order.
func (e *Engine) Workers() []WorkerInfo {
	return e.info
}

// Optimizable reports whether path is a non-empty regular file of a format
// some enabled worker handles.
func (e *Engine) Optimizable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return false
	}
	kind, err := imgutil.SniffFile(path)
	if err != nil {
		return false
	}
	return len(e.workers[kind]) > 0
}

func resolveOptions(d worker.Descriptor, configured map[string]any) (worker.Options, error) {
	values := d.Defaults()

	names := make([]string, 0, len(configured))
	for name := range configured {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def, ok := d.Option(name)
		if !ok {
			return nil, fmt.Errorf("%w: worker %s has no option %q", ErrConfiguration, d.Bin, name)
		}
		v, err := coerce(def.Kind, configured[name])
		if err != nil {
			return nil, fmt.Errorf("%w: %s option %s: %w", ErrConfiguration, d.Bin, name, err)
		}
		values[name] = v
	}
	return values, nil
}

// coerce normalizes values that came from flags or YAML to the types the
// workers read: bool, int and []string.
func coerce(kind worker.OptionKind, value any) (any, error) {
	switch kind {
	case worker.KindBool, worker.KindOptionalBool:
		if value == nil && kind == worker.KindOptionalBool {
			return nil, nil
		}
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("expected a boolean, got %v", value)
	case worker.KindInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v == float64(int(v)) {
				return int(v), nil
			}
		}
		return nil, fmt.Errorf("expected an integer, got %v", value)
	case worker.KindList:
		switch v := value.(type) {
		case []string:
			return v, nil
		case string:
			return []string{v}, nil
		case []any:
			list := make([]string, 0, len(v))
			for _, item := range v {
				switch item.(type) {
				case string, int, bool, float64:
					list = append(list, fmt.Sprint(item))
				default:
					return nil, fmt.Errorf("expected a list of scalars, got %v", value)
				}
			}
			return list, nil
		}
		return nil, fmt.Errorf("expected a list, got %v", value)
	default:
		return nil, fmt.Errorf("unsupported option type %s", kind)
	}
}
