// Package config holds the run configuration: global settings plus one
// entry per optimizer worker. Fields left nil are unset, which lets
// configuration files and command-line flags be layered with Merge.
package config

import (
	"maps"
	"runtime"
	"slices"
)

// DefaultNice is the niceness external tools run with unless configured.
const DefaultNice = 10

// Limit is a numeric setting that can also be switched off, such as
// --threads N / --no-threads.
type Limit struct {
	N   int
	Off bool
}

// Config is a partial configuration. A nil field means "not set here".
type Config struct {
	Recursive          *bool
	Threads            *Limit
	Nice               *Limit
	Verbose            *bool
	AllowLossy         *bool
	SkipMissingWorkers *bool
	Progress           *bool
	Decimal            *bool
	ExcludeDirs        []string
	ExcludeFiles       []string

	Workers map[string]*WorkerSetting
}

// New returns an empty configuration.
func New() *Config {
	return &Config{Workers: make(map[string]*WorkerSetting)}
}

// Worker returns the entry for bin, creating an empty one if needed.
func (c *Config) Worker(bin string) *WorkerSetting {
	if c.Workers == nil {
		c.Workers = make(map[string]*WorkerSetting)
	}
	w, ok := c.Workers[bin]
	if !ok {
		w = &WorkerSetting{}
		c.Workers[bin] = w
	}
	return w
}

// Merge layers other on top of c. Set fields of other win; worker option
// mappings are merged key by key, a worker toggle replaces the entry.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	mergePtr(&c.Recursive, other.Recursive)
	mergePtr(&c.Threads, other.Threads)
	mergePtr(&c.Nice, other.Nice)
	mergePtr(&c.Verbose, other.Verbose)
	mergePtr(&c.AllowLossy, other.AllowLossy)
	mergePtr(&c.SkipMissingWorkers, other.SkipMissingWorkers)
	mergePtr(&c.Progress, other.Progress)
	mergePtr(&c.Decimal, other.Decimal)
	if other.ExcludeDirs != nil {
		c.ExcludeDirs = slices.Clone(other.ExcludeDirs)
	}
	if other.ExcludeFiles != nil {
		c.ExcludeFiles = slices.Clone(other.ExcludeFiles)
	}

	for bin, w := range other.Workers {
		target := c.Worker(bin)
		switch {
		case w.enabled != nil:
			target.SetEnabled(*w.enabled)
		case w.options != nil:
			target.EnsureOptions()
			for name, v := range w.options {
				target.Set(name, v)
			}
		}
	}
}

func mergePtr[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Settings is a fully resolved configuration.
type Settings struct {
	Recursive          bool
	Threads            Limit
	Nice               Limit
	Verbose            bool
	AllowLossy         bool
	SkipMissingWorkers bool
	Progress           bool
	Decimal            bool
	ExcludeDirs        []string
	ExcludeFiles       []string

	Workers map[string]*WorkerSetting
}

// Resolve fills unset fields with defaults.
func (c *Config) Resolve() Settings {
	s := Settings{
		Threads:      Limit{N: runtime.NumCPU()},
		Nice:         Limit{N: DefaultNice},
		Progress:     true,
		ExcludeDirs:  []string{".*"},
		ExcludeFiles: []string{".*"},
		Workers:      maps.Clone(c.Workers),
	}
	if s.Workers == nil {
		s.Workers = make(map[string]*WorkerSetting)
	}
	resolvePtr(&s.Recursive, c.Recursive)
	resolvePtr(&s.Threads, c.Threads)
	resolvePtr(&s.Nice, c.Nice)
	resolvePtr(&s.Verbose, c.Verbose)
	resolvePtr(&s.AllowLossy, c.AllowLossy)
	resolvePtr(&s.SkipMissingWorkers, c.SkipMissingWorkers)
	resolvePtr(&s.Progress, c.Progress)
	resolvePtr(&s.Decimal, c.Decimal)
	if c.ExcludeDirs != nil {
		s.ExcludeDirs = slices.Clone(c.ExcludeDirs)
	}
	if c.ExcludeFiles != nil {
		s.ExcludeFiles = slices.Clone(c.ExcludeFiles)
	}
	return s
}

func resolvePtr[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// ThreadCount is the number of files optimized in parallel.
func (s Settings) ThreadCount() int {
	if s.Threads.Off || s.Threads.N < 1 {
		return 1
	}
	return s.Threads.N
}

// Niceness is the niceness for external tools, 0 when disabled.
func (s Settings) Niceness() int {
	if s.Nice.Off {
		return 0
	}
	return s.Nice.N
}
