package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File permissions
const (
	FileMode = 0600 // Owner read/write only
	DirMode  = 0700 // Owner read/write/execute only
)

// tempSuffix marks in-flight writes; Recover removes leftovers.
const tempSuffix = ".tmp"

// writeFileAtomic writes data to a temp file beside path, syncs it and
// renames it over path, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*"+tempSuffix)
	if err != nil {
		return fmt.Errorf("vault: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("vault: failed to write %s: %w", base, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("vault: failed to sync %s: %w", base, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("vault: failed to close %s: %w", base, err)
	}
	if err = os.Chmod(tmpPath, FileMode); err != nil {
		return fmt.Errorf("vault: failed to set permissions on %s: %w", base, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("vault: failed to replace %s: %w", base, err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes directory entries after a rename. Not every platform
// supports syncing a directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// removeIfExists deletes path and treats a missing file as success.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("vault: failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}

// fileExists reports whether path exists. Stat errors other than
// "not exist" are returned so callers never treat an unreadable path as free.
func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("vault: failed to stat %s: %w", filepath.Base(path), err)
}

// isTempFile reports whether a directory entry name was left by writeFileAtomic.
func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tempSuffix)
}
