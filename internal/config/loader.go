package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	globalConfigName = "imgoptim.yml"
	localConfigName  = ".imgoptim.yml"
)

// ErrInvalid marks malformed configuration values.
var ErrInvalid = errors.New("invalid configuration")

// DefaultPaths returns the global and the working-directory config files,
// in the order they are merged.
func DefaultPaths() []string {
	var paths []string
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		}
	}
	if dir != "" {
		paths = append(paths, filepath.Join(dir, globalConfigName))
	}
	return append(paths, localConfigName)
}

// Load reads and merges the files at paths in order. Missing files are
// skipped unless required is set.
func Load(paths []string, required bool) (*Config, error) {
	cfg := New()
	for _, path := range paths {
		fileCfg, err := LoadFile(path)
		if err != nil {
			if !required && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		cfg.Merge(fileCfg)
	}
	return cfg, nil
}

// LoadFile parses a single YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error loading config from %s: %w", path, err)
	}

	cfg, err := FromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FromMap builds a configuration from decoded YAML. Unknown keys are taken
// to be worker entries; whether such a worker exists is checked when the
// engine is built.
func FromMap(raw map[string]any) (*Config, error) {
	cfg := New()
	// exclude goes first so exclude_dir and exclude_file can refine it.
	keys := slices.SortedFunc(maps.Keys(raw), func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == "exclude":
			return -1
		case b == "exclude":
			return 1
		}
		return strings.Compare(a, b)
	})
	for _, key := range keys {
		value := raw[key]
		var err error
		switch key {
		case "recursive":
			cfg.Recursive, err = boolValue(key, value)
		case "verbose":
			cfg.Verbose, err = boolValue(key, value)
		case "allow_lossy":
			cfg.AllowLossy, err = boolValue(key, value)
		case "skip_missing_workers":
			cfg.SkipMissingWorkers, err = boolValue(key, value)
		case "progress":
			cfg.Progress, err = boolValue(key, value)
		case "decimal":
			cfg.Decimal, err = boolValue(key, value)
		case "threads":
			cfg.Threads, err = limitValue(key, value)
		case "nice":
			cfg.Nice, err = limitValue(key, value)
		case "exclude_dir":
			cfg.ExcludeDirs, err = globsValue(key, value)
		case "exclude_file":
			cfg.ExcludeFiles, err = globsValue(key, value)
		case "exclude":
			cfg.ExcludeDirs, err = globsValue(key, value)
			cfg.ExcludeFiles = slices.Clone(cfg.ExcludeDirs)
		default:
			err = workerValue(cfg.Worker(key), key, value)
		}
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func boolValue(key string, value any) (*bool, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a boolean, got %v", ErrInvalid, key, value)
	}
	return &b, nil
}

func limitValue(key string, value any) (*Limit, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return nil, fmt.Errorf("%w: %s must be a number or false", ErrInvalid, key)
		}
		return &Limit{Off: true}, nil
	case int:
		return &Limit{N: v}, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a number or false, got %v", ErrInvalid, key, value)
	}
}

func globsValue(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []any:
		globs := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s entries must be strings, got %v", ErrInvalid, key, item)
			}
			globs = append(globs, s)
		}
		return globs, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a glob or a list of globs", ErrInvalid, key)
	}
}

func workerValue(w *WorkerSetting, key string, value any) error {
	switch v := value.(type) {
	case bool:
		w.SetEnabled(v)
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		w.EnsureOptions()
		for name, opt := range v {
			w.Set(name, opt)
		}
	default:
		return fmt.Errorf("%w: %s must be true, false or a mapping of options", ErrInvalid, key)
	}
	return nil
}
