// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package keygen provides the keypair sources that turn a scheme and network
// into key material: either the external subkey tool or an in-process
// implementation. Callers treat a Source as a trusted oracle and only carry
// what it returns.
package keygen

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/modnet/modkey/internal/ss58"
)

var (
	// ErrSourceUnavailable indicates the keypair source cannot be invoked
	// (for example the subkey binary is missing from PATH).
	ErrSourceUnavailable = errors.New("keypair source unavailable")

	// ErrUnsupportedScheme indicates a scheme other than sr25519 or ed25519.
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrUnsupportedPhrase indicates a secret the source cannot derive from.
	ErrUnsupportedPhrase = errors.New("unsupported secret phrase")

	// ErrInvalidPublicKey indicates bytes that are not a point of the scheme's curve.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrUnknownSource indicates a source name with no registered factory.
	ErrUnknownSource = errors.New("unknown keypair source")
)

// Scheme is a signature scheme tag.
type Scheme string

const (
	SchemeSr25519 Scheme = "sr25519"
	SchemeEd25519 Scheme = "ed25519"
)

// Schemes lists the supported schemes.
var Schemes = []Scheme{SchemeSr25519, SchemeEd25519}

// ParseScheme validates a scheme name.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeSr25519:
		return SchemeSr25519, nil
	case SchemeEd25519:
		return SchemeEd25519, nil
	default:
		return "", fmt.Errorf("%w: %q (want sr25519 or ed25519)", ErrUnsupportedScheme, s)
	}
}

// Pair is what a Source returns for a generated or derived key.
// Phrase is empty when the pair was built from a public key alone.
type Pair struct {
	Scheme    Scheme
	Network   string
	Phrase    string
	PublicKey ss58.AccountID
	Address   string
}

// Source is the keypair oracle.
type Source interface {
	// Name returns the registry name of the source (e.g. "subkey").
	Name() string

	// Generate creates a fresh keypair with a new secret phrase.
	Generate(ctx context.Context, scheme Scheme, network string) (*Pair, error)

	// DeriveFromPhrase derives the public key and address of phrase.
	DeriveFromPhrase(ctx context.Context, phrase string, scheme Scheme, network string) (*Pair, error)

	// InspectPublic renders the address of a public key on network.
	InspectPublic(ctx context.Context, publicKey ss58.AccountID, scheme Scheme, network string) (string, error)
}

// Options configures sources created through the registry.
type Options struct {
	// SubkeyPath is the subkey binary name or path.
	SubkeyPath string
	// Timeout bounds a single subprocess invocation.
	Timeout time.Duration
}

// Factory builds a Source from Options.
type Factory func(opts Options) Source

type sourceRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var registry = &sourceRegistry{
	factories: make(map[string]Factory),
}

// Register makes a source available under name.
// Duplicate registrations are silently ignored.
func Register(name string, factory Factory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.factories[name]; exists {
		return
	}
	registry.factories[name] = factory
}

// Open builds the source registered under name.
func Open(name string, opts Options) (Source, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownSource, name, strings.Join(Names(), ", "))
	}
	return factory(opts), nil
}

// Names returns the registered source names, sorted.
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func addressFor(pub ss58.AccountID, network string) (string, error) {
	prefix, err := ss58.PrefixForNetwork(network)
	if err != nil {
		return "", err
	}
	return ss58.Encode(prefix, pub)
}
