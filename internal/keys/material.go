// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package keys owns the in-memory key record: how it is built from a
// keypair source, rendered for display and sealed to disk.
package keys

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/modnet/modkey/internal/keygen"
	"github.com/modnet/modkey/internal/ss58"
)

// ErrInconsistentKey indicates an address that does not encode the public
// key under the network's prefix.
var ErrInconsistentKey = errors.New("inconsistent key material")

// KeyMaterial is an immutable key record. The secret phrase is optional and
// present only for generated or phrase-derived keys.
type KeyMaterial struct {
	scheme    keygen.Scheme
	network   string
	prefix    uint16
	phrase    string
	publicKey ss58.AccountID
	address   string
}

// New validates and builds a KeyMaterial. The address must decode to
// publicKey under network's SS58 prefix.
func New(scheme keygen.Scheme, network, phrase string, publicKey ss58.AccountID, address string) (*KeyMaterial, error) {
	scheme, err := keygen.ParseScheme(string(scheme))
	if err != nil {
		return nil, err
	}
	prefix, err := ss58.PrefixForNetwork(network)
	if err != nil {
		return nil, err
	}

	gotPrefix, gotID, err := ss58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: address %q: %w", ErrInconsistentKey, address, err)
	}
	if gotID != publicKey {
		return nil, fmt.Errorf("%w: address %s does not encode public key %s", ErrInconsistentKey, address, publicKey.Hex())
	}
	if gotPrefix != prefix {
		return nil, fmt.Errorf("%w: address prefix %d does not match network %s (%d)", ErrInconsistentKey, gotPrefix, network, prefix)
	}

	return &KeyMaterial{
		scheme:    scheme,
		network:   network,
		prefix:    prefix,
		phrase:    phrase,
		publicKey: publicKey,
		address:   address,
	}, nil
}

// FromPair builds a KeyMaterial from a source result.
func FromPair(p *keygen.Pair) (*KeyMaterial, error) {
	return New(p.Scheme, p.Network, p.Phrase, p.PublicKey, p.Address)
}

func (k *KeyMaterial) Scheme() keygen.Scheme     { return k.scheme }
func (k *KeyMaterial) Network() string           { return k.network }
func (k *KeyMaterial) Prefix() uint16            { return k.prefix }
func (k *KeyMaterial) PublicKey() ss58.AccountID { return k.publicKey }
func (k *KeyMaterial) PublicKeyHex() string      { return k.publicKey.Hex() }
func (k *KeyMaterial) Address() string           { return k.address }
func (k *KeyMaterial) HasSecret() bool           { return k.phrase != "" }

// SecretPhrase returns the phrase, or "" for public-only material.
func (k *KeyMaterial) SecretPhrase() string { return k.phrase }

// DisplayForm is the JSON shape printed by the CLI and sealed into key files.
type DisplayForm struct {
	Scheme       string `json:"scheme"`
	Network      string `json:"network"`
	PublicKeyHex string `json:"public_key_hex"`
	SS58Address  string `json:"ss58_address"`
	SecretPhrase string `json:"secret_phrase,omitempty"`
}

// DisplayForm renders k. The secret phrase is included only when
// includeSecret is true.
func (k *KeyMaterial) DisplayForm(includeSecret bool) DisplayForm {
	d := DisplayForm{
		Scheme:       string(k.scheme),
		Network:      k.network,
		PublicKeyHex: k.publicKey.Hex(),
		SS58Address:  k.address,
	}
	if includeSecret {
		d.SecretPhrase = k.phrase
	}
	return d
}

// String never includes the secret phrase.
func (k *KeyMaterial) String() string {
	return fmt.Sprintf("%s key %s on %s", k.scheme, k.address, k.network)
}

// GoString keeps %#v from dumping the unexported phrase.
func (k *KeyMaterial) GoString() string {
	return fmt.Sprintf("keys.KeyMaterial{scheme:%q, network:%q, address:%q, secret:%t}", k.scheme, k.network, k.address, k.HasSecret())
}

// LogValue implements slog.LogValuer without the secret phrase.
func (k *KeyMaterial) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("scheme", string(k.scheme)),
		slog.String("network", k.network),
		slog.String("address", k.address),
		slog.Bool("has_secret", k.HasSecret()),
	)
}
