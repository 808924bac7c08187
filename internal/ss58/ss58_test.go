// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package ss58

import (
	"bytes"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

const (
	aliceHex = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	bobHex   = "0x8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"
)

func mustHex(t *testing.T, s string) AccountID {
	t.Helper()
	id, err := AccountIDFromHex(s)
	if err != nil {
		t.Fatalf("AccountIDFromHex(%q): %v", s, err)
	}
	return id
}

func randomID(t *testing.T) AccountID {
	t.Helper()
	var id AccountID
	if _, err := rand.Read(id[:]); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return id
}

// TestKnownVectors checks well-known dev account addresses.
func TestKnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		pubHex string
		prefix uint16
		want   string
	}{
		{"alice substrate", aliceHex, 42, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"},
		{"bob substrate", bobHex, 42, "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"},
		{"alice polkadot", aliceHex, 0, "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"},
		{"bob polkadot", bobHex, 0, "14E5nqKAp3oAJcmzgZhUD2RcptBeUBScxKHgJKU4HPNcKVf3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := mustHex(t, tt.pubHex)

			got, err := Encode(tt.prefix, id)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode = %s, want %s", got, tt.want)
			}

			prefix, decoded, err := Decode(tt.want)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if prefix != tt.prefix {
				t.Errorf("prefix = %d, want %d", prefix, tt.prefix)
			}
			if decoded != id {
				t.Errorf("account id = %s, want %s", decoded.Hex(), id.Hex())
			}
		})
	}
}

// TestRoundTrip covers single-byte and two-byte prefixes with random payloads.
func TestRoundTrip(t *testing.T) {
	prefixes := []uint16{0, 1, 2, 42, 63, 64, 65, 127, 128, 255, 256, 1284, 4095, 8191, MaxPrefix}

	for _, prefix := range prefixes {
		for i := 0; i < 8; i++ {
			id := randomID(t)
			addr, err := Encode(prefix, id)
			if err != nil {
				t.Fatalf("Encode(%d): %v", prefix, err)
			}
			gotPrefix, gotID, err := Decode(addr)
			if err != nil {
				t.Fatalf("Decode(%s) for prefix %d: %v", addr, prefix, err)
			}
			if gotPrefix != prefix || gotID != id {
				t.Fatalf("round trip mismatch for prefix %d: got (%d, %s), want (%d, %s)",
					prefix, gotPrefix, gotID.Hex(), prefix, id.Hex())
			}
		}
	}
}

func TestEncodePrefixBytes(t *testing.T) {
	tests := []struct {
		prefix uint16
		want   []byte
	}{
		{0, []byte{0x00}},
		{42, []byte{0x2a}},
		{63, []byte{0x3f}},
		{64, []byte{0x50, 0x00}},
		{255, []byte{0x7f, 0xc0}},
		{MaxPrefix, []byte{0x7f, 0xff}},
	}
	for _, tt := range tests {
		got, err := encodePrefix(tt.prefix)
		if err != nil {
			t.Fatalf("encodePrefix(%d): %v", tt.prefix, err)
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("encodePrefix(%d) = %x, want %x", tt.prefix, got, tt.want)
		}
	}
}

func TestEncodeRejectsOversizedPrefix(t *testing.T) {
	_, err := Encode(MaxPrefix+1, AccountID{})
	if !errors.Is(err, ErrUnknownPrefix) {
		t.Fatalf("expected ErrUnknownPrefix, got %v", err)
	}
}

// TestChecksumSensitivity replaces every character of a valid address with a
// different alphabet character; none of the mutations may decode.
func TestChecksumSensitivity(t *testing.T) {
	const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

	addr := MustEncode(42, mustHex(t, aliceHex))
	for i := range addr {
		idx := strings.IndexByte(alphabet, addr[i])
		if idx < 0 {
			t.Fatalf("address char %q not in alphabet", addr[i])
		}
		mutated := addr[:i] + string(alphabet[(idx+1)%len(alphabet)]) + addr[i+1:]

		_, _, err := Decode(mutated)
		if err == nil {
			t.Fatalf("mutation at %d (%s) decoded successfully", i, mutated)
		}
		// Past the leading character the length and prefix stay intact, so
		// only the checksum can catch the change.
		if i > 0 && !errors.Is(err, ErrInvalidChecksum) {
			t.Errorf("mutation at %d: expected ErrInvalidChecksum, got %v", i, err)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	alice := mustHex(t, aliceHex)
	valid := MustEncode(42, alice)
	raw, err := base58.Decode(valid)
	if err != nil {
		t.Fatalf("base58.Decode: %v", err)
	}

	tooShort := base58.Encode(raw[:len(raw)-1])
	tooLong := base58.Encode(append(append([]byte{}, raw...), 0x00))
	badPrefix := append([]byte{0x80}, raw[1:]...)

	nonCanonical := []byte{0x40, 0x00} // two-byte form of prefix 0
	nonCanonical = append(nonCanonical, alice[:]...)
	nonCanonical = append(nonCanonical, 0x00, 0x00)

	tests := []struct {
		name string
		addr string
		want error
	}{
		{"empty", "", ErrInvalidEncoding},
		{"not base58", "0OIl" + valid[4:], ErrInvalidEncoding},
		{"truncated", tooShort, ErrInvalidLength},
		{"extended", tooLong, ErrInvalidLength},
		{"reserved prefix", base58.Encode(badPrefix), ErrUnknownPrefix},
		{"non-canonical prefix", base58.Encode(nonCanonical), ErrUnknownPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.addr)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode(%q) error = %v, want %v", tt.addr, err, tt.want)
			}
		})
	}
}

func TestParsePublicKey(t *testing.T) {
	alice := mustHex(t, aliceHex)

	fromHex, err := ParsePublicKey(aliceHex)
	if err != nil || fromHex != alice {
		t.Fatalf("ParsePublicKey(hex) = %s, %v", fromHex.Hex(), err)
	}

	fromAddr, err := ParsePublicKey("15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5")
	if err != nil || fromAddr != alice {
		t.Fatalf("ParsePublicKey(ss58) = %s, %v", fromAddr.Hex(), err)
	}

	if _, err := ParsePublicKey("0x1234"); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("short hex: expected ErrInvalidLength, got %v", err)
	}

	if !IsHexAccountID(aliceHex) {
		t.Error("IsHexAccountID should accept a 32-byte hex id")
	}
	if IsHexAccountID("bottom drive obey lake curtain smoke basket hold race lonely fit walk") {
		t.Error("IsHexAccountID should reject a phrase")
	}
}

func TestPrefixForNetwork(t *testing.T) {
	tests := []struct {
		name    string
		want    uint16
		wantErr error
	}{
		{"substrate", 42, nil},
		{"Polkadot", 0, nil},
		{" kusama ", 2, nil},
		{"1284", 1284, nil},
		{"99999", 0, ErrUnknownPrefix},
		{"nosuchnet", 0, ErrUnknownNetwork},
	}
	for _, tt := range tests {
		got, err := PrefixForNetwork(tt.name)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PrefixForNetwork(%q) error = %v, want %v", tt.name, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("PrefixForNetwork(%q) = %d, %v; want %d", tt.name, got, err, tt.want)
		}
	}

	if got := NetworkForPrefix(42); got != "substrate" {
		t.Errorf("NetworkForPrefix(42) = %q", got)
	}
	if got := NetworkForPrefix(1337); got != "1337" {
		t.Errorf("NetworkForPrefix(1337) = %q", got)
	}
}

func TestUnknownNetworkListsKnownNames(t *testing.T) {
	_, err := PrefixForNetwork("nosuchnet")
	if err == nil || !strings.Contains(err.Error(), "plasm, polkadot, substrate") {
		t.Errorf("error should list known networks: %v", err)
	}
	names := Networks()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Networks not sorted: %v", names)
		}
	}
}
