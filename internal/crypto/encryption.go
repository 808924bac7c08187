// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	// BlobVersion is the only envelope version this package reads or writes.
	BlobVersion = 1

	// KDFScrypt is the only supported key derivation function.
	KDFScrypt = "scrypt"

	saltLen  = 16
	nonceLen = 12
	keyLen   = 32 // AES-256
	tagLen   = 16

	// Upper bounds on parameters read from a blob, so a crafted file cannot
	// demand unbounded memory or CPU during key derivation.
	maxScryptN = 1 << 20
	maxScryptR = 32
	maxScryptP = 16

	// scrypt allocates 128*N*r bytes and does work proportional to N*r*p.
	// The defaults use 16 MiB and N*r*p = 2^17.
	maxScryptMemory = 256 << 20
	maxScryptWork   = 1 << 22
)

// DefaultKDFParams are the scrypt costs used for every new blob.
var DefaultKDFParams = KDFParams{N: 1 << 14, R: 8, P: 1}

// Vault errors
var (
	// ErrAuthenticationFailed covers both a wrong password and a modified
	// ciphertext; the two cases are deliberately indistinguishable.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUnsupportedKDF indicates a blob whose kdf is not scrypt.
	ErrUnsupportedKDF = errors.New("unsupported kdf")

	// ErrUnsupportedVersion indicates a blob with an unknown envelope version.
	ErrUnsupportedVersion = errors.New("unsupported blob version")

	// ErrMalformedBlob indicates missing or structurally invalid fields.
	ErrMalformedBlob = errors.New("malformed blob")
)

// KDFParams holds the scrypt cost parameters stored in a blob.
type KDFParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// Validate checks the parameters against the accepted ranges.
func (p KDFParams) Validate() error {
	if p.N < 2 || p.N > maxScryptN || p.N&(p.N-1) != 0 {
		return fmt.Errorf("%w: scrypt n=%d must be a power of two in [2, %d]", ErrMalformedBlob, p.N, maxScryptN)
	}
	if p.R < 1 || p.R > maxScryptR {
		return fmt.Errorf("%w: scrypt r=%d out of range [1, %d]", ErrMalformedBlob, p.R, maxScryptR)
	}
	if p.P < 1 || p.P > maxScryptP {
		return fmt.Errorf("%w: scrypt p=%d out of range [1, %d]", ErrMalformedBlob, p.P, maxScryptP)
	}
	// Individual bounds keep these products well inside int64.
	if mem := int64(128) * int64(p.N) * int64(p.R); mem > maxScryptMemory {
		return fmt.Errorf("%w: scrypt n=%d r=%d needs %d MiB (limit %d MiB)", ErrMalformedBlob, p.N, p.R, mem>>20, maxScryptMemory>>20)
	}
	if work := int64(p.N) * int64(p.R) * int64(p.P); work > maxScryptWork {
		return fmt.Errorf("%w: scrypt n*r*p=%d exceeds %d", ErrMalformedBlob, work, maxScryptWork)
	}
	return nil
}

// EncryptedKeyBlob is a self-describing password-encrypted record:
// everything needed for decryption except the password is stored inline.
type EncryptedKeyBlob struct {
	Version    int
	KDF        string
	Salt       []byte
	Params     KDFParams
	Nonce      []byte
	Ciphertext []byte // includes the 16-byte GCM tag
}

// blobJSON is the on-disk form. Pointer fields distinguish absent from zero.
type blobJSON struct {
	Version    *int       `json:"version"`
	KDF        *string    `json:"kdf"`
	Salt       *string    `json:"salt"`
	Params     *KDFParams `json:"params"`
	Nonce      *string    `json:"nonce"`
	Ciphertext *string    `json:"ciphertext"`
}

// MarshalJSON emits the blob with base64-encoded binary fields.
func (b *EncryptedKeyBlob) MarshalJSON() ([]byte, error) {
	salt := base64.StdEncoding.EncodeToString(b.Salt)
	nonce := base64.StdEncoding.EncodeToString(b.Nonce)
	ct := base64.StdEncoding.EncodeToString(b.Ciphertext)
	params := b.Params
	return json.Marshal(blobJSON{
		Version:    &b.Version,
		KDF:        &b.KDF,
		Salt:       &salt,
		Params:     &params,
		Nonce:      &nonce,
		Ciphertext: &ct,
	})
}

// Marshal returns the indented JSON form written to key files.
func (b *EncryptedKeyBlob) Marshal() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// ParseBlob decodes and validates the JSON form of a blob.
// Unknown versions and KDFs fail closed rather than falling back to defaults.
func ParseBlob(data []byte) (*EncryptedKeyBlob, error) {
	var raw blobJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}

	if raw.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedBlob)
	}
	if *raw.Version != BlobVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *raw.Version)
	}
	if raw.KDF == nil {
		return nil, fmt.Errorf("%w: missing kdf", ErrMalformedBlob)
	}
	if *raw.KDF != KDFScrypt {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKDF, *raw.KDF)
	}
	if raw.Params == nil {
		return nil, fmt.Errorf("%w: missing params", ErrMalformedBlob)
	}

	salt, err := decodeField("salt", raw.Salt)
	if err != nil {
		return nil, err
	}
	nonce, err := decodeField("nonce", raw.Nonce)
	if err != nil {
		return nil, err
	}
	ciphertext, err := decodeField("ciphertext", raw.Ciphertext)
	if err != nil {
		return nil, err
	}

	blob := &EncryptedKeyBlob{
		Version:    *raw.Version,
		KDF:        *raw.KDF,
		Salt:       salt,
		Params:     *raw.Params,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}
	if err := blob.validate(); err != nil {
		return nil, err
	}
	return blob, nil
}

func decodeField(name string, v *string) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedBlob, name)
	}
	b, err := base64.StdEncoding.DecodeString(*v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64: %v", ErrMalformedBlob, name, err)
	}
	return b, nil
}

func (b *EncryptedKeyBlob) validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil blob", ErrMalformedBlob)
	}
	if b.Version != BlobVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, b.Version)
	}
	if b.KDF != KDFScrypt {
		return fmt.Errorf("%w: %q", ErrUnsupportedKDF, b.KDF)
	}
	if err := b.Params.Validate(); err != nil {
		return err
	}
	if len(b.Salt) != saltLen {
		return fmt.Errorf("%w: salt must be %d bytes, got %d", ErrMalformedBlob, saltLen, len(b.Salt))
	}
	if len(b.Nonce) != nonceLen {
		return fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrMalformedBlob, nonceLen, len(b.Nonce))
	}
	if len(b.Ciphertext) < tagLen {
		return fmt.Errorf("%w: ciphertext shorter than authentication tag", ErrMalformedBlob)
	}
	return nil
}

// DeriveKey derives the AES-256 key from password and salt with scrypt.
// Caller is responsible for zeroing the returned key when done.
func DeriveKey(password, salt []byte, params KDFParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	key, err := scrypt.Key(password, salt, params.N, params.R, params.P, keyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: scrypt: %v", ErrMalformedBlob, err)
	}
	return key, nil
}

// Encrypt seals plaintext under a key derived from password.
// Every call draws a fresh salt and nonce.
func Encrypt(plaintext, password []byte) (*EncryptedKeyBlob, error) {
	return EncryptWithParams(plaintext, password, DefaultKDFParams)
}

// EncryptWithParams is Encrypt with explicit scrypt costs.
func EncryptWithParams(plaintext, password []byte, params KDFParams) (*EncryptedKeyBlob, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := DeriveKey(password, salt, params)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &EncryptedKeyBlob{
		Version:    BlobVersion,
		KDF:        KDFScrypt,
		Salt:       salt,
		Params:     params,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Decrypt re-derives the key from the blob's own salt and parameters and
// opens the ciphertext. Caller should zero the returned plaintext.
func Decrypt(blob *EncryptedKeyBlob, password []byte) ([]byte, error) {
	if err := blob.validate(); err != nil {
		return nil, err
	}

	key, err := DeriveKey(password, blob.Salt, blob.Params)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// DecryptJSON parses a serialized blob and decrypts it.
func DecryptJSON(data, password []byte) ([]byte, error) {
	blob, err := ParseBlob(data)
	if err != nil {
		return nil, err
	}
	return Decrypt(blob, password)
}

// IsEncrypted reports whether data parses as a version 1 blob.
func IsEncrypted(data []byte) bool {
	var probe struct {
		Version int    `json:"version"`
		KDF     string `json:"kdf"`
	}
	return json.Unmarshal(data, &probe) == nil && probe.Version == BlobVersion && probe.KDF != ""
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
