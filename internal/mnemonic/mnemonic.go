// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package mnemonic handles BIP-39 secret phrases and the Substrate
// mini-secret derived from them.
package mnemonic

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// EntropyBits is the entropy of generated phrases (12 words).
	EntropyBits = 128

	// MiniSecretSize is the length of a Substrate mini-secret (seed).
	MiniSecretSize = 32

	pbkdf2Rounds = 2048
	seedLen      = 64
)

var (
	// ErrInvalidPhrase indicates a phrase that fails BIP-39 word list or checksum validation.
	ErrInvalidPhrase = errors.New("invalid secret phrase")

	// ErrDerivationPath indicates a secret URI carrying "/" or "//" junctions
	// or a "///" password suffix, which only an external key tool can resolve.
	ErrDerivationPath = errors.New("secret phrase has derivation path")
)

// Generate returns a fresh 12-word English phrase from crypto/rand entropy.
func Generate() (string, error) {
	entropy, err := bip39.NewEntropy(EntropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to encode mnemonic: %w", err)
	}
	return phrase, nil
}

// Normalize collapses runs of whitespace and lowercases the phrase.
func Normalize(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}

// Validate checks that phrase is a plain BIP-39 phrase.
func Validate(phrase string) error {
	if HasDerivationPath(phrase) {
		return ErrDerivationPath
	}
	if !bip39.IsMnemonicValid(Normalize(phrase)) {
		return ErrInvalidPhrase
	}
	return nil
}

// HasDerivationPath reports whether s looks like a secret URI rather than a bare phrase.
func HasDerivationPath(s string) bool {
	return strings.Contains(s, "/")
}

// MiniSecret derives the 32-byte Substrate seed for phrase.
//
// Unlike BIP-39 seeds, Substrate stretches the phrase's entropy rather than
// its words: PBKDF2-HMAC-SHA512(entropy, "mnemonic"+password, 2048) and
// keeps the first 32 bytes. Caller should zero the result when done.
func MiniSecret(phrase, password string) ([]byte, error) {
	if err := Validate(phrase); err != nil {
		return nil, err
	}
	entropy, err := bip39.EntropyFromMnemonic(Normalize(phrase))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhrase, err)
	}
	seed := pbkdf2.Key(entropy, []byte("mnemonic"+password), pbkdf2Rounds, seedLen, sha512.New)

	mini := make([]byte, MiniSecretSize)
	copy(mini, seed[:MiniSecretSize])
	for i := range seed {
		seed[i] = 0
	}
	for i := range entropy {
		entropy[i] = 0
	}
	return mini, nil
}
