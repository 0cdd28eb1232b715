package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type warning struct {
	path   string
	reason string
}

func newScanner(t *testing.T, opts Options) (*Scanner, *[]warning) {
	t.Helper()
	var warnings []warning
	s, err := New(opts, func(path, reason string) {
		warnings = append(warnings, warning{path, reason})
	})
	require.NoError(t, err)
	return s, &warnings
}

func isPNG(path string) bool {
	return strings.HasSuffix(path, ".png")
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestScanDirectoryWithoutRecursion(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.png"))

	s, warnings := newScanner(t, Options{})
	files := s.Scan([]string{dir}, isPNG)

	assert.Empty(t, files)
	require.Len(t, *warnings, 1)
	assert.Equal(t, warning{dir, ReasonNotFile}, (*warnings)[0])
}

func TestScanRecursive(t *testing.T) {
	dir := t.TempDir()
	want := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "nested", "b.png"),
		filepath.Join(dir, "nested", "deeper", "still", "c.png"),
	}
	for _, p := range want {
		touch(t, p)
	}
	touch(t, filepath.Join(dir, "nested", "notes.txt"))

	s, warnings := newScanner(t, Options{Recursive: true})
	files := s.Scan([]string{dir}, isPNG)

	assert.ElementsMatch(t, want, files)
	assert.Empty(t, *warnings)
}

func TestScanRegularFiles(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "a.png")
	text := filepath.Join(dir, "a.txt")
	touch(t, image)
	touch(t, text)

	s, warnings := newScanner(t, Options{Recursive: true})
	files := s.Scan([]string{text, image}, isPNG)

	assert.Equal(t, []string{image}, files)
	assert.Equal(t, []warning{{text, ReasonNotOptimizable}}, *warnings)
}

func TestScanMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	s, warnings := newScanner(t, Options{Recursive: true})
	files := s.Scan([]string{missing}, isPNG)

	assert.Empty(t, files)
	assert.Equal(t, []warning{{missing, ReasonNotFile}}, *warnings)
}

func TestScanPreservesArgumentOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	touch(t, filepath.Join(first, "z.png"))
	touch(t, filepath.Join(second, "a.png"))
	single := filepath.Join(second, "a.png")

	s, _ := newScanner(t, Options{Recursive: true})
	files := s.Scan([]string{first, second, single}, isPNG)

	assert.Equal(t, []string{
		filepath.Join(first, "z.png"),
		filepath.Join(second, "a.png"),
		single,
	}, files)
}

func TestScanExcludes(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "keep.png"))
	touch(t, filepath.Join(dir, ".git", "objects", "x.png"))
	touch(t, filepath.Join(dir, "node_modules", "pkg", "logo.png"))
	touch(t, filepath.Join(dir, ".hidden.png"))

	s, _ := newScanner(t, Options{
		Recursive:    true,
		ExcludeDirs:  []string{".*", "node_modules"},
		ExcludeFiles: []string{".*"},
	})
	files := s.Scan([]string{dir}, isPNG)

	assert.Equal(t, []string{filepath.Join(dir, "keep.png")}, files)
}

func TestScanHiddenRootIsNotExcluded(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".images")
	touch(t, filepath.Join(dir, "a.png"))

	s, _ := newScanner(t, Options{Recursive: true, ExcludeDirs: []string{".*"}})
	files := s.Scan([]string{dir}, isPNG)

	assert.Equal(t, []string{filepath.Join(dir, "a.png")}, files)
}

func TestScanRecursiveFollowsFileLinks(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "target.png")
	touch(t, target)
	touch(t, filepath.Join(outside, "sub", "hidden.png"))

	link := filepath.Join(dir, "nested", "link.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
	require.NoError(t, os.Symlink(target, link))
	require.NoError(t, os.Symlink(filepath.Join(outside, "sub"), filepath.Join(dir, "dirlink")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "gone.png"), filepath.Join(dir, "dangling.png")))

	s, warnings := newScanner(t, Options{Recursive: true})
	files := s.Scan([]string{dir}, isPNG)

	assert.Equal(t, []string{link}, files)
	assert.Empty(t, *warnings)
}
