// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package testutil provides reusable test infrastructure and utilities.
package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/modnet/modkey/internal/crypto"
	"github.com/modnet/modkey/internal/ss58"
)

// FastKDF keeps scrypt cheap in tests that do not exercise the defaults.
var FastKDF = crypto.KDFParams{N: 1 << 4, R: 8, P: 1}

// Well-known development accounts.
const (
	AliceHex     = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	AliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	BobHex       = "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"
	BobAddress   = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"

	// DevPhrase is the Substrate development phrase.
	DevPhrase = "bottom drive obey lake curtain smoke basket hold race lonely fit walk"
)

// AccountID returns a deterministic account id for index.
func AccountID(index int) ss58.AccountID {
	var id ss58.AccountID
	id[0] = byte(index)
	id[1] = byte(index >> 8)
	id[31] = 0xA5
	return id
}

// Address returns the substrate (prefix 42) address of AccountID(index).
func Address(index int) string {
	return ss58.MustEncode(42, AccountID(index))
}

// TempFile creates a temporary file with the given content, returning the path.
// The file is automatically cleaned up when the test completes.
func TempFile(t *testing.T, content []byte) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "testfile-*")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write(content); err != nil {
		_ = tmpFile.Close()
		t.Fatalf("Failed to write temp file: %v", err)
	}
	_ = tmpFile.Close()
	return tmpFile.Name()
}

// AssertError checks that an error matches expected criteria.
func AssertError(t *testing.T, err error, shouldError bool, msgContains string) {
	t.Helper()

	if !shouldError {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		return
	}
	if err == nil {
		t.Error("Expected an error but got nil")
		return
	}
	if msgContains != "" && !strings.Contains(err.Error(), msgContains) {
		t.Errorf("Error message %q should contain %q", err.Error(), msgContains)
	}
}
