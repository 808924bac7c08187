// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package keys

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/modnet/modkey/internal/keygen"
	"github.com/modnet/modkey/internal/testutil"
)

func TestFromGeneratedOrDerivedDispatch(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		input      string
		wantCall   string
		wantSecret bool
	}{
		{"phrase", testutil.DevPhrase, "derive", true},
		{"hex public key", testutil.AliceHex, "inspect", false},
		{"ss58 address", testutil.AliceAddress, "inspect", false},
		{"padded hex", "  " + testutil.BobHex + "\n", "inspect", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &testutil.FakeSource{}
			k, err := NewManager(src).FromGeneratedOrDerived(ctx, tt.input, keygen.SchemeSr25519, "substrate")
			if err != nil {
				t.Fatalf("FromGeneratedOrDerived failed: %v", err)
			}
			calls := src.Calls()
			if len(calls) != 1 || calls[0] != tt.wantCall {
				t.Errorf("source calls = %v, want [%s]", calls, tt.wantCall)
			}
			if k.HasSecret() != tt.wantSecret {
				t.Errorf("HasSecret = %v, want %v", k.HasSecret(), tt.wantSecret)
			}
		})
	}
}

func TestFromGeneratedOrDerivedPublicKey(t *testing.T) {
	k, err := NewManager(&testutil.FakeSource{}).FromGeneratedOrDerived(context.Background(), testutil.AliceAddress, keygen.SchemeSr25519, "polkadot")
	if err != nil {
		t.Fatal(err)
	}
	if k.PublicKeyHex() != testutil.AliceHex || k.Prefix() != 0 {
		t.Errorf("got %s prefix %d", k.PublicKeyHex(), k.Prefix())
	}
}

func TestManagerRejectsInconsistentSource(t *testing.T) {
	ctx := context.Background()
	m := NewManager(&testutil.FakeSource{BadAddress: true})

	if _, err := m.Generate(ctx, keygen.SchemeSr25519, "substrate"); !errors.Is(err, ErrInconsistentKey) {
		t.Errorf("Generate: expected ErrInconsistentKey, got %v", err)
	}
	if _, err := m.FromGeneratedOrDerived(ctx, testutil.AliceHex, keygen.SchemeSr25519, "substrate"); !errors.Is(err, ErrInconsistentKey) {
		t.Errorf("inspect: expected ErrInconsistentKey, got %v", err)
	}
}

func TestManagerPropagatesSourceErrors(t *testing.T) {
	m := NewManager(&testutil.FakeSource{Err: keygen.ErrSourceUnavailable})
	if _, err := m.Generate(context.Background(), keygen.SchemeSr25519, "substrate"); !errors.Is(err, keygen.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestManagerPersistLoad(t *testing.T) {
	ctx := context.Background()
	src := &testutil.FakeSource{}
	m := NewManager(src, WithKDFParams(testutil.FastKDF))
	if m.Source() != src {
		t.Error("Source() should return the configured source")
	}

	k, err := m.Generate(ctx, keygen.SchemeEd25519, "kusama")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "gen.json")
	if err := m.Persist(ctx, k, path, []byte("pw")); err != nil {
		t.Fatal(err)
	}
	got, err := m.Load(path, []byte("pw"))
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayForm(true) != k.DisplayForm(true) {
		t.Error("manager round trip mismatch")
	}
}
