// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/modnet/modkey/internal/fsutil"
	"github.com/modnet/modkey/internal/keygen"
)

// keyFileTimeLayout is the timestamp prefix of generated key file names.
const keyFileTimeLayout = "20060102-150405"

var (
	validRole   = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)
	keyFileName = regexp.MustCompile(`^(\d{8}-\d{6})-([a-z0-9][a-z0-9_]*)-(sr25519|ed25519)\.json$`)
)

// KeyFileName returns "<YYYYMMDD-HHMMSS>-<role>-<scheme>.json" for t in UTC.
func KeyFileName(role string, scheme keygen.Scheme, t time.Time) (string, error) {
	if !validRole.MatchString(role) {
		return "", fmt.Errorf("invalid key role %q (lowercase letters, digits and _ only)", role)
	}
	if _, err := keygen.ParseScheme(string(scheme)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s.json", t.UTC().Format(keyFileTimeLayout), role, scheme), nil
}

// KeyFileInfo describes a key file found in a store directory. Role,
// Scheme and Created are zero for files not named by KeyFileName.
type KeyFileInfo struct {
	Path    string
	Role    string
	Scheme  keygen.Scheme
	Created time.Time
}

// Store is a directory of sealed key files.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Ensure creates the store directory if needed and forces it owner-only.
func (s *Store) Ensure() error {
	if err := fsutil.MkdirAll(s.dir); err != nil {
		return fmt.Errorf("failed to create keys directory: %w", err)
	}
	return nil
}

// NewPath returns a fresh key file path for role and scheme.
func (s *Store) NewPath(role string, scheme keygen.Scheme, now time.Time) (string, error) {
	name, err := KeyFileName(role, scheme, now)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// List returns the *.json files in the store, newest first. A missing
// directory is an empty store.
func (s *Store) List() ([]KeyFileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keys directory: %w", err)
	}

	var infos []KeyFileInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		info := KeyFileInfo{Path: filepath.Join(s.dir, name)}
		if m := keyFileName.FindStringSubmatch(name); m != nil {
			if t, err := time.Parse(keyFileTimeLayout, m[1]); err == nil {
				info.Created = t
				info.Role = m[2]
				info.Scheme = keygen.Scheme(m[3])
			}
		}
		infos = append(infos, info)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].Created.Equal(infos[j].Created) {
			return infos[i].Created.After(infos[j].Created)
		}
		return infos[i].Path < infos[j].Path
	})
	return infos, nil
}
