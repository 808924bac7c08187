// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package keygen

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	schnorrkel "github.com/ChainSafe/go-schnorrkel"

	"github.com/modnet/modkey/internal/crypto"
	"github.com/modnet/modkey/internal/mnemonic"
	"github.com/modnet/modkey/internal/ss58"
)

// NativeName is the registry name of the in-process source.
const NativeName = "native"

func init() {
	Register(NativeName, func(Options) Source { return NativeSource{} })
}

// NativeSource derives keys in-process the same way subkey does for a bare
// phrase: phrase entropy -> mini-secret -> sr25519 (Ed25519 expansion) or
// ed25519 seed. Derivation junctions are not supported.
type NativeSource struct{}

// Name implements Source.
func (NativeSource) Name() string { return NativeName }

// Generate implements Source.
func (s NativeSource) Generate(ctx context.Context, scheme Scheme, network string) (*Pair, error) {
	phrase, err := mnemonic.Generate()
	if err != nil {
		return nil, err
	}
	return s.DeriveFromPhrase(ctx, phrase, scheme, network)
}

// DeriveFromPhrase implements Source.
func (NativeSource) DeriveFromPhrase(ctx context.Context, phrase string, scheme Scheme, network string) (*Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := ParseScheme(string(scheme)); err != nil {
		return nil, err
	}

	mini, err := mnemonic.MiniSecret(phrase, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedPhrase, err)
	}
	defer crypto.ZeroBytes(mini)

	pub, err := PublicFromSeed(scheme, mini)
	if err != nil {
		return nil, err
	}
	addr, err := addressFor(pub, network)
	if err != nil {
		return nil, err
	}

	return &Pair{
		Scheme:    scheme,
		Network:   network,
		Phrase:    mnemonic.Normalize(phrase),
		PublicKey: pub,
		Address:   addr,
	}, nil
}

// InspectPublic implements Source. The key must be a valid point for scheme.
func (NativeSource) InspectPublic(ctx context.Context, publicKey ss58.AccountID, scheme Scheme, network string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidatePublicKey(scheme, publicKey); err != nil {
		return "", err
	}
	return addressFor(publicKey, network)
}

// PublicFromSeed returns the public key for a 32-byte mini-secret.
func PublicFromSeed(scheme Scheme, seed []byte) (ss58.AccountID, error) {
	var pub ss58.AccountID
	if len(seed) != mnemonic.MiniSecretSize {
		return pub, fmt.Errorf("seed must be %d bytes, got %d", mnemonic.MiniSecretSize, len(seed))
	}

	switch scheme {
	case SchemeSr25519:
		var raw [mnemonic.MiniSecretSize]byte
		copy(raw[:], seed)
		defer crypto.ZeroBytes(raw[:])

		msk, err := schnorrkel.NewMiniSecretKeyFromRaw(raw)
		if err != nil {
			return pub, fmt.Errorf("sr25519 mini secret: %w", err)
		}
		pub = msk.Public().Encode()
	case SchemeEd25519:
		priv := ed25519.NewKeyFromSeed(seed)
		defer crypto.ZeroBytes(priv)
		copy(pub[:], priv.Public().(ed25519.PublicKey))
	default:
		return pub, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return pub, nil
}

// ValidatePublicKey checks that pub decodes as a point for scheme:
// a ristretto255 element for sr25519, an edwards25519 point for ed25519.
func ValidatePublicKey(scheme Scheme, pub ss58.AccountID) error {
	switch scheme {
	case SchemeSr25519:
		var pk schnorrkel.PublicKey
		if err := pk.Decode(pub); err != nil {
			return fmt.Errorf("%w: not a ristretto255 point: %v", ErrInvalidPublicKey, err)
		}
	case SchemeEd25519:
		if _, err := new(edwards25519.Point).SetBytes(pub[:]); err != nil {
			return fmt.Errorf("%w: not an edwards25519 point: %v", ErrInvalidPublicKey, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return nil
}
