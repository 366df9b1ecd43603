package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirSaver writes exports into a directory. Files are written to a
// temporary name and renamed, so a failed download leaves nothing behind.
type DirSaver struct {
	Dir string
}

func (s DirSaver) Save(name, _ string, r io.Reader) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, filepath.Base(name))
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return dst, nil
}
