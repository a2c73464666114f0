// Package fileops reads and rewrites save files.
package fileops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/sizing"
)

// DefaultMaxSize bounds how much of a single save is read into memory.
const DefaultMaxSize = 512 << 20 // 512MB

// Sentinel errors for file operations.
var (
	// ErrBusy is returned when another process holds the file open for writing.
	ErrBusy = errors.New("cleaner: file is busy")

	// ErrTooLarge is returned when a file exceeds the configured size limit.
	ErrTooLarge = errors.New("cleaner: file too large")
)

// tempPattern keeps temporary names away from the save extension so the
// watcher never treats them as saves.
const tempPattern = ".modlist-cleaner-*.tmp"

// ReadFile reads the whole file at path, refusing files larger than maxSize.
// A maxSize of zero uses DefaultMaxSize.
func ReadFile(path string, maxSize uint64) ([]byte, fs.FileInfo, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}
	f, err := os.Open(path) //nolint:gosec // path comes from the watched tree
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%s: not a regular file", path)
	}
	data, err := sizing.ReadAllWithLimit(f, maxSize, ErrTooLarge)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}

// WriteFileAtomic writes data to a temp file next to target then renames it
// over target, so readers see either the old or the new content.
func WriteFileAtomic(target string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if perm != 0 {
		if err := os.Chmod(tmpPath, perm); err != nil {
			os.Remove(tmpPath)
			return err
		}
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// WriteFileInPlace truncates target and writes data into the same file.
// Unlike WriteFileAtomic, a crash mid-write can leave a truncated file.
func WriteFileInPlace(target string, data []byte) error {
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_TRUNC, 0) //nolint:gosec // path comes from the watched tree
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// IsTemp reports whether name looks like a temp file created by this package.
func IsTemp(name string) bool {
	ok, _ := filepath.Match(tempPattern, filepath.Base(name)) //nolint:errcheck // pattern is constant
	return ok
}
