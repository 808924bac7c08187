// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package keys

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modnet/modkey/internal/crypto"
	"github.com/modnet/modkey/internal/fsutil"
	"github.com/modnet/modkey/internal/keygen"
	"github.com/modnet/modkey/internal/testutil"
)

func devMaterial(t *testing.T) *KeyMaterial {
	t.Helper()
	src := &testutil.FakeSource{}
	pair, err := src.DeriveFromPhrase(context.Background(), testutil.DevPhrase, keygen.SchemeSr25519, "substrate")
	if err != nil {
		t.Fatal(err)
	}
	k, err := FromPair(pair)
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestPersistLoadRoundTrip(t *testing.T) {
	k := devMaterial(t)
	path := filepath.Join(t.TempDir(), "keys", "node.json")
	password := []byte("hunter2")

	if err := Persist(context.Background(), k, path, password, testutil.FastKDF); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	got, err := Load(path, password)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.DisplayForm(true) != k.DisplayForm(true) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got.DisplayForm(true), k.DisplayForm(true))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != fsutil.KeyFilePerm {
		t.Errorf("key file mode = %04o, want %04o", perm, fsutil.KeyFilePerm)
	}
	dirInfo, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if perm := dirInfo.Mode().Perm(); perm != fsutil.KeyDirPerm {
		t.Errorf("key dir mode = %04o, want %04o", perm, fsutil.KeyDirPerm)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestPersistedFileHidesPhrase(t *testing.T) {
	k := devMaterial(t)
	path := filepath.Join(t.TempDir(), "k.json")
	if err := Persist(context.Background(), k, path, []byte("pw"), testutil.FastKDF); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "bottom") || strings.Contains(string(data), k.Address()) {
		t.Error("key file contains plaintext record fields")
	}
	if !crypto.IsEncrypted(data) {
		t.Error("key file should be a vault blob")
	}
}

func TestLoadWrongPassword(t *testing.T) {
	k := devMaterial(t)
	path := filepath.Join(t.TempDir(), "k.json")
	if err := Persist(context.Background(), k, path, []byte("right"), testutil.FastKDF); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, []byte("wrong")); !errors.Is(err, crypto.ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestPersistOverwrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "k.json")
	first := devMaterial(t)
	if err := Persist(ctx, first, path, []byte("pw"), testutil.FastKDF); err != nil {
		t.Fatal(err)
	}

	pair, err := (&testutil.FakeSource{}).DeriveFromPhrase(ctx, "another phrase", keygen.SchemeEd25519, "kusama")
	if err != nil {
		t.Fatal(err)
	}
	second, err := FromPair(pair)
	if err != nil {
		t.Fatal(err)
	}
	if err := Persist(ctx, second, path, []byte("pw"), testutil.FastKDF); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path, []byte("pw"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Address() != second.Address() || got.Network() != "kusama" {
		t.Errorf("overwrite did not take effect: %v", got)
	}
}

// sealRecord encrypts an arbitrary record, bypassing KeyMaterial validation.
func sealRecord(t *testing.T, rec any) []byte {
	t.Helper()
	plaintext, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	blob, err := crypto.EncryptWithParams(plaintext, []byte("pw"), testutil.FastKDF)
	if err != nil {
		t.Fatal(err)
	}
	data, err := blob.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestOpenRejectsInconsistentRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  any
	}{
		{"address for other key", DisplayForm{Scheme: "sr25519", Network: "substrate", PublicKeyHex: testutil.AliceHex, SS58Address: testutil.BobAddress}},
		{"bad public key", DisplayForm{Scheme: "sr25519", Network: "substrate", PublicKeyHex: "0x1234", SS58Address: testutil.AliceAddress}},
		{"bad scheme", DisplayForm{Scheme: "rsa", Network: "substrate", PublicKeyHex: testutil.AliceHex, SS58Address: testutil.AliceAddress}},
		{"network mismatch", DisplayForm{Scheme: "sr25519", Network: "polkadot", PublicKeyHex: testutil.AliceHex, SS58Address: testutil.AliceAddress}},
		{"not an object", []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(sealRecord(t, tt.rec), []byte("pw")); !errors.Is(err, crypto.ErrMalformedBlob) {
				t.Errorf("expected ErrMalformedBlob, got %v", err)
			}
		})
	}
}

func TestOpenDefaultsNetwork(t *testing.T) {
	data := sealRecord(t, map[string]string{
		"scheme":         "sr25519",
		"public_key_hex": testutil.AliceHex,
		"ss58_address":   testutil.AliceAddress,
	})
	k, err := Open(data, []byte("pw"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if k.Network() != "substrate" || k.HasSecret() {
		t.Errorf("unexpected material %#v", k)
	}
}

func TestLoadLimits(t *testing.T) {
	dir := t.TempDir()

	big := filepath.Join(dir, "big.json")
	if err := os.WriteFile(big, make([]byte, MaxKeyFileSize+1), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(big, []byte("pw")); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("oversized file: got %v", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.json"), []byte("pw")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}

	junk := testutil.TempFile(t, []byte("not json"))
	if _, err := Load(junk, []byte("pw")); !errors.Is(err, crypto.ErrMalformedBlob) {
		t.Errorf("junk file: got %v", err)
	}
}

func TestPersistRespectsLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k.json")

	unlock, err := fsutil.Lock(context.Background(), path)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = Persist(ctx, devMaterial(t), path, []byte("pw"), testutil.FastKDF)
	if !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked while another writer holds the lock, got %v", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("locked Persist should not publish a file")
	}

	if err := unlock(); err != nil {
		t.Fatal(err)
	}
	if err := Persist(context.Background(), devMaterial(t), path, []byte("pw"), testutil.FastKDF); err != nil {
		t.Errorf("Persist after unlock failed: %v", err)
	}
}

func TestPersistLeavesExistingDirMode(t *testing.T) {
	shared := filepath.Join(t.TempDir(), "shared")
	if err := os.Mkdir(shared, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(shared, 0755); err != nil {
		t.Fatal(err)
	}

	if err := Persist(context.Background(), devMaterial(t), filepath.Join(shared, "key.json"), []byte("pw"), testutil.FastKDF); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	info, err := os.Stat(shared)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0755 {
		t.Errorf("parent dir mode changed from 0755 to %04o", perm)
	}
}

func TestPersistNewRefusesExisting(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys", "k.json")
	first := devMaterial(t)
	if err := PersistNew(ctx, first, path, []byte("pw"), testutil.FastKDF); err != nil {
		t.Fatalf("PersistNew failed: %v", err)
	}

	pair, err := (&testutil.FakeSource{}).DeriveFromPhrase(ctx, "another phrase", keygen.SchemeEd25519, "substrate")
	if err != nil {
		t.Fatal(err)
	}
	second, err := FromPair(pair)
	if err != nil {
		t.Fatal(err)
	}
	if err := PersistNew(ctx, second, path, []byte("pw"), testutil.FastKDF); !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected os.ErrExist, got %v", err)
	}

	got, err := Load(path, []byte("pw"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Address() != first.Address() {
		t.Error("PersistNew replaced an existing key file")
	}
}
