package runner

import (
	"io"
	"os"
	"path/filepath"
)

// replaceFile overwrites dest with the content of candidate. The content is
// staged in a temp file next to dest carrying dest's mode, then renamed
// over it.
func replaceFile(candidate, dest string) error {
	destInfo, err := os.Stat(dest)
	if err != nil {
		return err
	}

	in, err := os.Open(candidate)
	if err != nil {
		return err
	}
	defer in.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".imgoptim-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(destInfo.Mode().Perm()); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if _, err := io.Copy(tmpFile, in); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return rename(tmpFile.Name(), dest)
}

func rename(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
