// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package testutil

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/modnet/modkey/internal/keygen"
	"github.com/modnet/modkey/internal/ss58"
)

// FakeSource is a deterministic keygen.Source. Public keys are
// blake2b-256(scheme ":" phrase), so equal inputs give equal keys.
type FakeSource struct {
	// Err, when set, is returned by every call.
	Err error
	// BadAddress makes every returned address encode a different key.
	BadAddress bool

	mu    sync.Mutex
	calls []string
	seq   int
}

var _ keygen.Source = (*FakeSource)(nil)

// Name implements keygen.Source.
func (f *FakeSource) Name() string { return "fake" }

// Calls returns the operations invoked so far.
func (f *FakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeSource) record(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	f.seq++
	return f.seq
}

// Generate implements keygen.Source.
func (f *FakeSource) Generate(ctx context.Context, scheme keygen.Scheme, network string) (*keygen.Pair, error) {
	n := f.record("generate")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.pair(fmt.Sprintf("fake phrase number %d", n), scheme, network)
}

// DeriveFromPhrase implements keygen.Source.
func (f *FakeSource) DeriveFromPhrase(ctx context.Context, phrase string, scheme keygen.Scheme, network string) (*keygen.Pair, error) {
	f.record("derive")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.pair(phrase, scheme, network)
}

// InspectPublic implements keygen.Source.
func (f *FakeSource) InspectPublic(ctx context.Context, pub ss58.AccountID, scheme keygen.Scheme, network string) (string, error) {
	f.record("inspect")
	if f.Err != nil {
		return "", f.Err
	}
	return f.address(pub, network)
}

func (f *FakeSource) pair(phrase string, scheme keygen.Scheme, network string) (*keygen.Pair, error) {
	if _, err := keygen.ParseScheme(string(scheme)); err != nil {
		return nil, err
	}
	pub := ss58.AccountID(blake2b.Sum256([]byte(string(scheme) + ":" + phrase)))
	addr, err := f.address(pub, network)
	if err != nil {
		return nil, err
	}
	return &keygen.Pair{Scheme: scheme, Network: network, Phrase: phrase, PublicKey: pub, Address: addr}, nil
}

func (f *FakeSource) address(pub ss58.AccountID, network string) (string, error) {
	prefix, err := ss58.PrefixForNetwork(network)
	if err != nil {
		return "", err
	}
	if f.BadAddress {
		pub[0] ^= 0xFF
	}
	return ss58.Encode(prefix, pub)
}
