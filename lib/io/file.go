package iolib

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFileAtomic replaces path with data.
// Readers observe either the old or the new content, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmp := f.Name()

	// Rename below clears tmp on success.
	defer os.Remove(tmp)

	if _, err := WriteFull(f, data); err != nil {
		f.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Chmod(tmp, perm); err != nil {
		return errors.Wrap(err, "setting file mode")
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "replacing file")
	}

	syncDir(dir)
	return nil
}

func syncDir(path string) {
	d, err := os.Open(path)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
