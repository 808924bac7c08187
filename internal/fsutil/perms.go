// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package fsutil provides filesystem helpers for the key store.
// Key material is owner-only (0600 files, 0700 dirs) and every write is
// published atomically under a single-writer lock.
package fsutil

import (
	"fmt"
	"os"
)

// KeyDirPerm is the permission mode for key directories.
const KeyDirPerm os.FileMode = 0700

// KeyFilePerm is the permission mode for key files.
const KeyFilePerm os.FileMode = 0600

// MkdirAll creates a directory and all parents with owner-only permissions.
// Unlike os.MkdirAll, this explicitly sets permissions on the leaf after
// creation to bypass umask restrictions.
func MkdirAll(path string) error {
	if err := os.MkdirAll(path, KeyDirPerm); err != nil {
		return err
	}
	return os.Chmod(path, KeyDirPerm)
}

// EnsureDir creates path with owner-only permissions if it does not exist.
// An existing directory is left exactly as it is.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	case os.IsNotExist(err):
		return MkdirAll(path)
	default:
		return err
	}
}
