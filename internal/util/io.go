package util

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// EnsureDir creates dir and any missing parents on fs.
func EnsureDir(fs billy.Filesystem, dir string) error {
	return fs.MkdirAll(dir, 0755)
}

// Exists reports whether name exists on fs.
func Exists(fs billy.Filesystem, name string) bool {
	_, err := fs.Stat(name)
	return err == nil
}

// WriteFileAtomic writes data to name+".tmp" and renames it over name, so
// readers never observe a partially written file.
func WriteFileAtomic(fs billy.Filesystem, name string, data []byte) error {
	if err := EnsureDir(fs, path.Dir(name)); err != nil {
		return fmt.Errorf("create dir for %s: %w", name, err)
	}

	tmpPath := name + ".tmp"
	if err := util.WriteFile(fs, tmpPath, data, 0644); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := fs.Rename(tmpPath, name); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}
	return nil
}

// RemoveAll deletes name and everything below it. A missing path is not an
// error.
func RemoveAll(fs billy.Filesystem, name string) error {
	err := util.RemoveAll(fs, name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Remove deletes a single file, tolerating its absence.
func Remove(fs billy.Filesystem, name string) error {
	err := fs.Remove(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
