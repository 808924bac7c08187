// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package multisig derives the deterministic account id of an m-of-n
// multisig from its signer set and threshold.
package multisig

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math"
	"slices"

	"golang.org/x/crypto/blake2b"

	"github.com/modnet/modkey/internal/ss58"
)

var (
	// ErrInvalidThreshold indicates threshold outside 1..len(signers).
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrSignerDecode indicates a signer string that is neither SS58 nor hex.
	ErrSignerDecode = errors.New("signer decode failed")

	// ErrDuplicateSigner indicates the same account appears twice in the signer set.
	ErrDuplicateSigner = errors.New("duplicate signer")
)

// Encoding selects the hash preimage layout.
type Encoding int

const (
	// EncodingGenesis hashes "modlpy/utilisig" || sorted signers || u16le(threshold).
	// This is the layout the Modnet genesis tooling has always used for the sudo key.
	EncodingGenesis Encoding = iota

	// EncodingPallet hashes "modlpy/utilisuba" || compact(len) || sorted signers || u16le(threshold),
	// the SCALE encoding pallet-multisig uses for multi_account_id.
	EncodingPallet
)

var (
	genesisTag = []byte("modlpy/utilisig")
	palletTag  = []byte("modlpy/utilisuba")
)

// String returns the flag spelling of e.
func (e Encoding) String() string {
	switch e {
	case EncodingGenesis:
		return "genesis"
	case EncodingPallet:
		return "pallet"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// ParseEncoding parses "genesis" or "pallet".
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "genesis":
		return EncodingGenesis, nil
	case "pallet":
		return EncodingPallet, nil
	default:
		return 0, fmt.Errorf("unknown multisig encoding %q (want genesis or pallet)", s)
	}
}

// Account is a derived multisig account.
type Account struct {
	ID        ss58.AccountID
	Address   string
	Prefix    uint16
	Threshold int
	Encoding  Encoding
	// Signers in canonical (sorted) order.
	Signers []ss58.AccountID
}

// IDHex returns the 0x-prefixed account id.
func (a *Account) IDHex() string {
	return "0x" + hex.EncodeToString(a.ID[:])
}

// AccountID computes the multisig account id for signers and threshold
// using EncodingGenesis. The result does not depend on the order of signers.
func AccountID(signers []ss58.AccountID, threshold int) (ss58.AccountID, error) {
	sorted, err := canonicalSigners(signers, threshold)
	if err != nil {
		return ss58.AccountID{}, err
	}
	return hashSigners(EncodingGenesis, sorted, threshold), nil
}

// Derive computes the multisig account id and renders it for prefix.
func Derive(signers []ss58.AccountID, threshold int, prefix uint16) (*Account, error) {
	return DeriveWith(EncodingGenesis, signers, threshold, prefix)
}

// DeriveWith is Derive with an explicit preimage encoding.
func DeriveWith(enc Encoding, signers []ss58.AccountID, threshold int, prefix uint16) (*Account, error) {
	if enc != EncodingGenesis && enc != EncodingPallet {
		return nil, fmt.Errorf("unknown multisig encoding %d", int(enc))
	}
	sorted, err := canonicalSigners(signers, threshold)
	if err != nil {
		return nil, err
	}
	id := hashSigners(enc, sorted, threshold)

	addr, err := ss58.Encode(prefix, id)
	if err != nil {
		return nil, err
	}

	return &Account{
		ID:        id,
		Address:   addr,
		Prefix:    prefix,
		Threshold: threshold,
		Encoding:  enc,
		Signers:   sorted,
	}, nil
}

// DeriveFromAddresses parses each signer (SS58 address of any network, or
// 0x hex) and derives the multisig account.
func DeriveFromAddresses(enc Encoding, signers []string, threshold int, prefix uint16) (*Account, error) {
	ids, err := ParseSigners(signers)
	if err != nil {
		return nil, err
	}
	return DeriveWith(enc, ids, threshold, prefix)
}

// ParseSigners decodes signer strings, reporting the first failure by position.
func ParseSigners(signers []string) ([]ss58.AccountID, error) {
	ids := make([]ss58.AccountID, 0, len(signers))
	for i, s := range signers {
		id, err := ss58.ParsePublicKey(s)
		if err != nil {
			return nil, fmt.Errorf("%w: signer %d (%q): %w", ErrSignerDecode, i+1, s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func canonicalSigners(signers []ss58.AccountID, threshold int) ([]ss58.AccountID, error) {
	if threshold < 1 || threshold > len(signers) {
		return nil, fmt.Errorf("%w: %d of %d signers", ErrInvalidThreshold, threshold, len(signers))
	}
	if threshold > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d does not fit in u16", ErrInvalidThreshold, threshold)
	}

	sorted := slices.Clone(signers)
	slices.SortFunc(sorted, ss58.AccountID.Compare)

	// On chain the signatories must be strictly ascending, so a set with a
	// repeated signer derives an account that can never be approved from.
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSigner, sorted[i].Hex())
		}
	}
	return sorted, nil
}

func hashSigners(enc Encoding, sorted []ss58.AccountID, threshold int) ss58.AccountID {
	h, _ := blake2b.New256(nil) // errors only for keys longer than 64 bytes

	if enc == EncodingPallet {
		h.Write(palletTag)
		writeCompact(h, uint32(len(sorted)))
	} else {
		h.Write(genesisTag)
	}
	for _, s := range sorted {
		h.Write(s[:])
	}
	var thr [2]byte
	binary.LittleEndian.PutUint16(thr[:], uint16(threshold))
	h.Write(thr[:])

	var id ss58.AccountID
	copy(id[:], h.Sum(nil))
	return id
}

// writeCompact writes n in SCALE compact form (modes 0-2; n < 2^30).
func writeCompact(h hash.Hash, n uint32) {
	switch {
	case n < 1<<6:
		h.Write([]byte{byte(n << 2)})
	case n < 1<<14:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(n<<2|0b01))
		h.Write(b[:])
	default:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], n<<2|0b10)
		h.Write(b[:])
	}
}
