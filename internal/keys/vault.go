// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package keys

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modnet/modkey/internal/crypto"
	"github.com/modnet/modkey/internal/fsutil"
	"github.com/modnet/modkey/internal/keygen"
	"github.com/modnet/modkey/internal/ss58"
	"github.com/modnet/modkey/internal/util"
)

// MaxKeyFileSize bounds what Load will read.
const MaxKeyFileSize = 1 << 20

var (
	// ErrFileTooLarge indicates a key file above MaxKeyFileSize.
	ErrFileTooLarge = fsutil.ErrFileTooLarge

	// ErrLocked indicates another Persist holds the target path.
	ErrLocked = fsutil.ErrLocked
)

// Seal encrypts k's full record (secret included) under password.
func Seal(k *KeyMaterial, password []byte, params crypto.KDFParams) ([]byte, error) {
	plaintext, err := json.Marshal(k.DisplayForm(true))
	if err != nil {
		return nil, fmt.Errorf("failed to encode key record: %w", err)
	}
	defer crypto.ZeroBytes(plaintext)

	blob, err := crypto.EncryptWithParams(plaintext, password, params)
	if err != nil {
		return nil, err
	}
	return blob.Marshal()
}

// Open decrypts a sealed key file and validates the record inside it.
// It returns either complete, consistent material or an error.
func Open(data, password []byte) (*KeyMaterial, error) {
	plaintext, err := crypto.DecryptJSON(data, password)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroBytes(plaintext)

	var rec DisplayForm
	if err := json.Unmarshal(plaintext, &rec); err != nil {
		return nil, fmt.Errorf("%w: key record: %v", crypto.ErrMalformedBlob, err)
	}
	if rec.Network == "" {
		rec.Network = ss58.DefaultNetwork
	}
	pub, err := ss58.AccountIDFromHex(rec.PublicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: key record public key: %w", crypto.ErrMalformedBlob, err)
	}
	k, err := New(keygen.Scheme(rec.Scheme), rec.Network, rec.SecretPhrase, pub, rec.SS58Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", crypto.ErrMalformedBlob, err)
	}
	return k, nil
}

// Persist seals k and publishes it at path, replacing any existing file.
// Only one writer may hold the path at a time; the file appears under its
// final name only when complete. A missing parent directory is created
// owner-only; an existing one is not touched.
func Persist(ctx context.Context, k *KeyMaterial, path string, password []byte, params crypto.KDFParams) error {
	return persist(ctx, k, path, password, params, fsutil.WriteFileLocked)
}

// PersistNew is Persist for a path that must not exist yet. It fails with
// an os.ErrExist error rather than replace a key file, even one published
// by a concurrent writer.
func PersistNew(ctx context.Context, k *KeyMaterial, path string, password []byte, params crypto.KDFParams) error {
	return persist(ctx, k, path, password, params, fsutil.CreateFileLocked)
}

type publishFunc func(ctx context.Context, path string, data []byte, perm os.FileMode) error

func persist(ctx context.Context, k *KeyMaterial, path string, password []byte, params crypto.KDFParams, publish publishFunc) error {
	data, err := Seal(k, password, params)
	if err != nil {
		return err
	}
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := publish(ctx, path, data, fsutil.KeyFilePerm); err != nil {
		return err
	}
	util.Logger.Debug("persisted key", "path", path, "key", k)
	return nil
}

// Load reads and opens the key file at path.
func Load(path string, password []byte) (*KeyMaterial, error) {
	data, err := fsutil.ReadFileLimited(path, MaxKeyFileSize)
	if err != nil {
		return nil, err
	}
	k, err := Open(data, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	util.Logger.Debug("loaded key", "path", path, "key", k)
	return k, nil
}
