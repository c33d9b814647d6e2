// Package fsutil holds the durable write used for notebooks and the
// configuration file.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

// TempFilePrefix names in-flight writes. The leading dot keeps them out of
// note listings and the workspace watcher.
const TempFilePrefix = ".mindvault-tmp-"

// WriteFileAtomic replaces filename with data so that readers see either the
// old or the new content, never a torn file. The data and the directory entry
// are synced before it returns. An existing file keeps its permissions; perm
// applies to new files.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	if info, statErr := os.Stat(filename); statErr == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filename, err)
	}
	if err = tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", filename, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filename, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filename, err)
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("replace %s: %w", filename, err)
	}
	return syncDir(dir)
}

// syncDir persists the rename. Windows cannot open directories for sync and
// some filesystems reject it with EINVAL; both are treated as done.
func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) {
		return fmt.Errorf("sync %s: %w", dir, err)
	}
	return nil
}
