// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package ss58 implements the SS58 address format used by Substrate chains.
//
// An address is base58(prefix || account id || checksum), where the prefix
// identifies the network and the checksum is the leading bytes of
// BLAKE2b-512("SS58PRE" || prefix || account id).
package ss58

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// AccountIDLen is the only payload length this codec supports.
	AccountIDLen = 32

	// MaxPrefix is the largest network prefix representable in two bytes.
	MaxPrefix = 16383

	checksumLen = 2
)

var checksumPreimage = []byte("SS58PRE")

// Decode errors.
var (
	ErrInvalidChecksum = errors.New("ss58: invalid checksum")
	ErrInvalidLength   = errors.New("ss58: invalid length")
	ErrUnknownPrefix   = errors.New("ss58: unknown prefix")
	ErrInvalidEncoding = errors.New("ss58: invalid base58 encoding")
)

// AccountID is a raw 32-byte account identifier (public key or derived id).
type AccountID [AccountIDLen]byte

// Hex returns the 0x-prefixed lowercase hex form.
func (a AccountID) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Compare orders account ids bytewise.
func (a AccountID) Compare(b AccountID) int {
	return bytes.Compare(a[:], b[:])
}

// AccountIDFromBytes copies b into an AccountID. b must be exactly 32 bytes.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDLen {
		return id, fmt.Errorf("%w: account id must be %d bytes, got %d", ErrInvalidLength, AccountIDLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// AccountIDFromHex parses a 0x-prefixed (or bare) 64 digit hex string.
func AccountIDFromHex(s string) (AccountID, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return AccountID{}, fmt.Errorf("invalid hex account id: %w", err)
	}
	return AccountIDFromBytes(raw)
}

// IsHexAccountID reports whether s looks like a 0x-prefixed 32-byte hex id.
func IsHexAccountID(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") || len(s) != 2+2*AccountIDLen {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// ParsePublicKey accepts either a 0x-hex account id or an SS58 address
// (any network) and returns the raw account id.
func ParsePublicKey(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") {
		return AccountIDFromHex(s)
	}
	_, id, err := Decode(s)
	return id, err
}

// Encode renders id as an SS58 address for the given network prefix.
func Encode(prefix uint16, id AccountID) (string, error) {
	pre, err := encodePrefix(prefix)
	if err != nil {
		return "", err
	}

	body := make([]byte, 0, len(pre)+AccountIDLen+checksumLen)
	body = append(body, pre...)
	body = append(body, id[:]...)

	sum := checksum(body)
	body = append(body, sum[:checksumLen]...)

	return base58.Encode(body), nil
}

// MustEncode is Encode for prefixes known to be valid at compile time.
func MustEncode(prefix uint16, id AccountID) string {
	addr, err := Encode(prefix, id)
	if err != nil {
		panic(err)
	}
	return addr
}

// Decode parses an SS58 address and returns its network prefix and account id.
func Decode(addr string) (uint16, AccountID, error) {
	var id AccountID

	addr = strings.TrimSpace(addr)
	if addr == "" {
		return 0, id, fmt.Errorf("%w: empty address", ErrInvalidEncoding)
	}
	data, err := base58.Decode(addr)
	if err != nil {
		return 0, id, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(data) < 2 {
		return 0, id, fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(data))
	}

	prefixLen, prefix, err := decodePrefix(data)
	if err != nil {
		return 0, id, err
	}

	// Only 32-byte payloads are supported, which always carry a 2-byte checksum.
	if len(data) != prefixLen+AccountIDLen+checksumLen {
		return 0, id, fmt.Errorf("%w: %d bytes with %d-byte prefix", ErrInvalidLength, len(data), prefixLen)
	}

	body := data[:len(data)-checksumLen]
	sum := checksum(body)
	if !bytes.Equal(sum[:checksumLen], data[len(data)-checksumLen:]) {
		return 0, id, ErrInvalidChecksum
	}

	copy(id[:], body[prefixLen:])
	return prefix, id, nil
}

// Valid reports whether addr decodes cleanly.
func Valid(addr string) bool {
	_, _, err := Decode(addr)
	return err == nil
}

func checksum(body []byte) [blake2b.Size]byte {
	buf := make([]byte, 0, len(checksumPreimage)+len(body))
	buf = append(buf, checksumPreimage...)
	buf = append(buf, body...)
	return blake2b.Sum512(buf)
}

// encodePrefix returns the one or two byte prefix encoding.
// Prefixes 64..16383 pack the low six bits of the low byte into the first
// byte (tagged 0b01) and the remaining bits into the second.
func encodePrefix(prefix uint16) ([]byte, error) {
	switch {
	case prefix < 64:
		return []byte{byte(prefix)}, nil
	case prefix <= MaxPrefix:
		first := byte((prefix&0x00FC)>>2) | 0x40
		second := byte(prefix>>8) | byte((prefix&0x0003)<<6)
		return []byte{first, second}, nil
	default:
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrUnknownPrefix, prefix, MaxPrefix)
	}
}

func decodePrefix(data []byte) (int, uint16, error) {
	switch b := data[0]; {
	case b < 64:
		return 1, uint16(b), nil
	case b < 128:
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0x3F
		prefix := uint16(lower) | uint16(upper)<<8
		if prefix < 64 {
			// Non-canonical: small prefixes must use the single-byte form.
			return 0, 0, fmt.Errorf("%w: non-canonical two-byte prefix %d", ErrUnknownPrefix, prefix)
		}
		return 2, prefix, nil
	default:
		return 0, 0, fmt.Errorf("%w: leading byte 0x%02x", ErrUnknownPrefix, b)
	}
}
