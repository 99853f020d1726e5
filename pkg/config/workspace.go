package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoWorkspace is returned by FindWorkspace when no directory up to the
// filesystem root contains a .jj directory.
var ErrNoWorkspace = errors.New("not a jj workspace (or any parent up to /)")

// FindWorkspace walks upward from dir and returns the first directory that
// contains a .jj directory.
func FindWorkspace(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("find workspace: abs path: %w", err)
	}

	cur := abs
	for {
		info, err := os.Stat(filepath.Join(cur, ".jj"))
		if err == nil && info.IsDir() {
			return cur, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", ErrNoWorkspace
		}
		cur = parent
	}
}
