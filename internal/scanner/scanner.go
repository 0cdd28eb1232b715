// Package scanner resolves command-line path arguments into the list of
// files to optimize.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"imgoptim/internal/logger"
)

const (
	ReasonNotOptimizable = "not an image or no optimizer for it"
	ReasonNotFile        = "not a file"
)

// Options controls discovery.
type Options struct {
	Recursive bool
	// ExcludeDirs and ExcludeFiles are globs matched against the base name
	// of entries found while recursing. Top-level arguments are never
	// excluded.
	ExcludeDirs  []string
	ExcludeFiles []string
}

// WarnFunc receives non-fatal problems with top-level arguments.
type WarnFunc func(path, reason string)

// Scanner finds optimizable files.
type Scanner struct {
	recursive bool
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
	warn      WarnFunc
}

// New compiles the exclude globs. warn may be nil.
func New(opts Options, warn WarnFunc) (*Scanner, error) {
	dirGlobs, err := compile(opts.ExcludeDirs)
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compile(opts.ExcludeFiles)
	if err != nil {
		return nil, err
	}
	if warn == nil {
		warn = func(string, string) {}
	}
	return &Scanner{recursive: opts.Recursive, dirGlobs: dirGlobs, fileGlobs: fileGlobs, warn: warn}, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude glob %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Scan returns the files to process, in argument order. A path named by two
// arguments is returned twice.
func (s *Scanner) Scan(paths []string, optimizable func(string) bool) []string {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		switch {
		case err == nil && info.Mode().IsRegular():
			if optimizable(path) {
				files = append(files, path)
			} else {
				s.warn(path, ReasonNotOptimizable)
			}
		case s.recursive && err == nil && info.IsDir():
			files = s.walk(path, files, optimizable)
		default:
			s.warn(path, ReasonNotFile)
		}
	}
	return files
}

func (s *Scanner) walk(root string, files []string, optimizable func(string) bool) []string {
	fsys := os.DirFS(root)
	_ = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Debug("skipping unreadable entry", "path", filepath.Join(root, path), "error", walkErr)
			if d != nil && d.IsDir() && path != "." {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != "." && matchAny(s.dirGlobs, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if matchAny(s.fileGlobs, d.Name()) {
			return nil
		}

		fullPath := filepath.Join(root, filepath.FromSlash(path))
		switch {
		case d.Type().IsRegular():
		case d.Type()&fs.ModeSymlink != 0:
			// Links to files are followed, links to directories are not.
			info, err := os.Stat(fullPath)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		default:
			return nil
		}
		if optimizable(fullPath) {
			files = append(files, fullPath)
		}
		return nil
	})
	return files
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
