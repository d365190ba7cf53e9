// Package fileutil provides filesystem helpers shared by the storage
// layers.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrEmptyPath indicates an empty destination path.
var ErrEmptyPath = errors.New("destination path is empty")

// WriteAtomic writes data to dst so that a reader sees either the old
// contents or the new contents, never a partial write. The data lands
// in a staging file beside the destination, is fsynced, and replaces
// the destination by rename.
func WriteAtomic(dst string, data []byte, perm os.FileMode) error {
	if dst == "" {
		return ErrEmptyPath
	}

	dir := filepath.Dir(dst)
	staging, err := os.CreateTemp(dir, filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating staging file: %w", err)
	}
	stagingPath := staging.Name()
	defer func() {
		_ = os.Remove(stagingPath)
	}()

	if err := writeAndSync(staging, data, perm); err != nil {
		_ = staging.Close()
		return err
	}
	if err := staging.Close(); err != nil {
		return fmt.Errorf("closing staging file: %w", err)
	}

	if err := os.Rename(stagingPath, dst); err != nil {
		return fmt.Errorf("renaming staging file: %w", err)
	}

	syncDir(dir)
	return nil
}

func writeAndSync(f *os.File, data []byte, perm os.FileMode) error {
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing staging file: %w", err)
	}
	if err := f.Chmod(perm); err != nil {
		return fmt.Errorf("setting staging file permissions: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing staging file: %w", err)
	}
	return nil
}

// syncDir makes the rename durable on filesystems that need the parent
// directory synced. The data itself is already on disk, so failures
// here are not reported.
func syncDir(dir string) {
	d, err := os.Open(dir) // #nosec G304 -- dir derives from a caller-validated path
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
