// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrLocked indicates another writer holds the target's lock.
	ErrLocked = errors.New("file is locked by another writer")

	// ErrFileTooLarge indicates a file above the caller's read limit.
	ErrFileTooLarge = errors.New("file too large")
)

// lockRetryDelay is how often a blocked writer retries the lock.
const lockRetryDelay = 50 * time.Millisecond

// LockPath returns the lock file guarding path.
func LockPath(path string) string {
	return path + ".lock"
}

// Lock takes the exclusive write lock for path, waiting until ctx is done.
// The returned function releases it.
func Lock(ctx context.Context, path string) (unlock func() error, err error) {
	fl := flock.New(LockPath(path), flock.SetPermissions(KeyFilePerm))
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return fl.Unlock, nil
}

// WriteFileAtomic writes data to path so that readers see either the old
// content or the new content, never a partial file. The data goes to a
// temp file in the same directory which is synced, chmodded and renamed
// over path; the directory is then synced. The temp file is removed on
// every failure path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpName, err := writeTemp(path, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to publish %s: %w", path, err)
	}
	return syncDir(filepath.Dir(path))
}

// WriteFileExclusive is WriteFileAtomic for a path that must not exist yet.
// The complete temp file is hard-linked to path, which fails with an
// os.ErrExist error instead of replacing a file published in the meantime.
func WriteFileExclusive(path string, data []byte, perm os.FileMode) error {
	tmpName, err := writeTemp(path, data, perm)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmpName) }()

	if err := os.Link(tmpName, path); err != nil {
		return fmt.Errorf("failed to publish %s: %w", path, err)
	}
	return syncDir(filepath.Dir(path))
}

// writeTemp writes data to a synced temp file next to path and returns its name.
func writeTemp(path string, data []byte, perm os.FileMode) (_ string, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(perm); err != nil {
		return "", fmt.Errorf("failed to set permissions on temp file: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return tmpName, nil
}

// WriteFileLocked takes path's lock and then writes it atomically.
func WriteFileLocked(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	unlock, err := Lock(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()
	return WriteFileAtomic(path, data, perm)
}

// CreateFileLocked takes path's lock and publishes data only if path does
// not exist yet. Two writers racing for the same new path cannot both win.
func CreateFileLocked(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	unlock, err := Lock(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()
	return WriteFileExclusive(path, data, perm)
}

// ReadFileLimited reads path, failing with ErrFileTooLarge above limit bytes.
func ReadFileLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, path, limit)
	}
	return data, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory for sync: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync directory: %w", err)
	}
	return nil
}
