/*
Package vcache persists the most recently computed version string in a
single-line text file (RELEASE-VERSION by convention).

The cache makes version computation survive environments where git
metadata is missing, such as an unpacked source tarball. Writes go
through a temporary file and an atomic rename so a concurrent reader
never observes a partially written value.
*/
package vcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Load when the cache file is absent or
// contains no version.
var ErrNotFound = errors.New("no cached version")

// Cache reads and writes the version cache file at Path.
type Cache struct {
	Path string
}

// Load returns the cached version string, trimmed of surrounding
// whitespace. Returns ErrNotFound if the file does not exist or holds
// only whitespace.
func (c Cache) Load() (string, error) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read version cache %s: %w", c.Path, err)
	}

	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// Store overwrites the cache file with version plus a trailing newline.
// The temp file lives in the same directory as the cache so the final
// rename stays on one filesystem.
func (c Cache) Store(version string) error {
	dir := filepath.Dir(c.Path)

	tmp, err := os.CreateTemp(dir, filepath.Base(c.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file in %s: %w", dir, err)
	}

	// CreateTemp makes the file 0600; the cache ships in sdists and is
	// read by packaging tools, so widen it before the rename.
	_, werr := tmp.WriteString(version + "\n")
	if werr == nil {
		werr = tmp.Chmod(0o644)
	}
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp.Name())
		if werr != nil {
			return fmt.Errorf("write version cache: %w", werr)
		}
		return fmt.Errorf("close temp cache file: %w", cerr)
	}

	if err := os.Rename(tmp.Name(), c.Path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace version cache %s: %w", c.Path, err)
	}
	return nil
}

// Clear removes the cache file. Missing files are not an error.
func (c Cache) Clear() error {
	if err := os.Remove(c.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove version cache %s: %w", c.Path, err)
	}
	return nil
}
