// Package storage persists toolbrain state as plain YAML files under the
// base directory: learned weights, sessions, and conversations. Documents
// are written via temp-file-plus-rename so readers never observe a partial
// write.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/valter-silva-au/toolbrain/internal/core"
	"gopkg.in/yaml.v3"
)

// writeFileAtomic writes data to path by writing a sibling temp file and
// renaming it into place. The rename is atomic on POSIX filesystems.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return &core.StorageError{Op: "create temp", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &core.StorageError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &core.StorageError{Op: "close", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return &core.StorageError{Op: "chmod", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &core.StorageError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// saveYAMLAtomic marshals source and writes it atomically to path, creating
// the parent directory if needed.
func saveYAMLAtomic(path string, source interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &core.StorageError{Op: "mkdir", Path: path, Err: err}
	}
	data, err := yaml.Marshal(source)
	if err != nil {
		return &core.StorageError{Op: "marshal", Path: path, Err: err}
	}
	return writeFileAtomic(path, data, 0o600)
}

// loadYAML reads path into target. A missing file leaves target at its zero
// value and returns nil.
func loadYAML(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &core.StorageError{Op: "read", Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return &core.StorageError{Op: "unmarshal", Path: path, Err: err}
	}
	return nil
}

// flockFile takes an exclusive flock on path, creating it if missing, and
// returns an unlock func.
func flockFile(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	// syscall.Flock is Unix-specific. On Windows, this will compile but may not work.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
