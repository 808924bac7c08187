// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package keys

import (
	"context"
	"strings"

	"github.com/modnet/modkey/internal/crypto"
	"github.com/modnet/modkey/internal/keygen"
	"github.com/modnet/modkey/internal/ss58"
)

// Manager builds key material through a keypair source and moves it
// to and from the vault.
type Manager struct {
	source keygen.Source
	kdf    crypto.KDFParams
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithKDFParams overrides the scrypt costs used by Persist.
func WithKDFParams(p crypto.KDFParams) ManagerOption {
	return func(m *Manager) { m.kdf = p }
}

// NewManager returns a Manager using source.
func NewManager(source keygen.Source, opts ...ManagerOption) *Manager {
	m := &Manager{source: source, kdf: crypto.DefaultKDFParams}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Source returns the keypair source.
func (m *Manager) Source() keygen.Source { return m.source }

// FromGeneratedOrDerived builds material from either a public key (0x hex
// or SS58 address) or a secret phrase.
func (m *Manager) FromGeneratedOrDerived(ctx context.Context, secretOrPublic string, scheme keygen.Scheme, network string) (*KeyMaterial, error) {
	input := strings.TrimSpace(secretOrPublic)

	if ss58.IsHexAccountID(input) || ss58.Valid(input) {
		pub, err := ss58.ParsePublicKey(input)
		if err != nil {
			return nil, err
		}
		addr, err := m.source.InspectPublic(ctx, pub, scheme, network)
		if err != nil {
			return nil, err
		}
		return New(scheme, network, "", pub, addr)
	}

	pair, err := m.source.DeriveFromPhrase(ctx, input, scheme, network)
	if err != nil {
		return nil, err
	}
	return FromPair(pair)
}

// Generate creates fresh material with a new secret phrase.
func (m *Manager) Generate(ctx context.Context, scheme keygen.Scheme, network string) (*KeyMaterial, error) {
	pair, err := m.source.Generate(ctx, scheme, network)
	if err != nil {
		return nil, err
	}
	return FromPair(pair)
}

// Persist seals k under password and publishes it at path.
func (m *Manager) Persist(ctx context.Context, k *KeyMaterial, path string, password []byte) error {
	return Persist(ctx, k, path, password, m.kdf)
}

// PersistNew seals k at path, failing if a file already exists there.
func (m *Manager) PersistNew(ctx context.Context, k *KeyMaterial, path string, password []byte) error {
	return PersistNew(ctx, k, path, password, m.kdf)
}

// Load opens the key file at path.
func (m *Manager) Load(path string, password []byte) (*KeyMaterial, error) {
	return Load(path, password)
}
