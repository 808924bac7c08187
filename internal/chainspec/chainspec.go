// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package chainspec patches a node-generated chain specification with the
// network's authorities, sudo key, boot nodes and telemetry endpoint.
// Everything outside the patched fields is carried through untouched.
package chainspec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/modnet/modkey/internal/fsutil"
	"github.com/modnet/modkey/internal/ss58"
)

const (
	// MaxSpecSize bounds what Load will read (64 MB).
	MaxSpecSize = 64 << 20

	// SpecFilePerm is the mode of written chainspecs; they hold no secrets.
	SpecFilePerm os.FileMode = 0644

	// authorityPrefix is used when rendering hex authorities.
	authorityPrefix = 42
)

var (
	// ErrUnexpectedLayout indicates a spec without genesis.runtimeGenesis.patch.
	ErrUnexpectedLayout = errors.New("unexpected chainspec layout; cannot find genesis.runtimeGenesis.patch")

	// ErrInvalidAuthority indicates an authority or sudo value that is neither
	// a 0x public key nor a decodable SS58 address.
	ErrInvalidAuthority = errors.New("invalid authority")
)

// Spec is a parsed chain specification. Numbers are kept as json.Number so
// u128 balances survive a round trip.
type Spec struct {
	root map[string]any
}

// Parse decodes a chainspec document.
func Parse(data []byte) (*Spec, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse chainspec: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrUnexpectedLayout)
	}
	return &Spec{root: root}, nil
}

// Load reads and parses the chainspec at path.
func Load(path string) (*Spec, error) {
	data, err := fsutil.ReadFileLimited(path, MaxSpecSize)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal returns the spec as 2-space indented JSON with a trailing newline.
func (s *Spec) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s.root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode chainspec: %w", err)
	}
	return append(data, '\n'), nil
}

// Write publishes the spec at path atomically under the path's write lock.
func (s *Spec) Write(ctx context.Context, path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return fsutil.WriteFileLocked(ctx, path, data, SpecFilePerm)
}

// Get returns the value at a dotted path (e.g. "genesis.runtimeGenesis.patch.sudo.key").
func (s *Spec) Get(path string) (any, bool) {
	var cur any = s.root
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Patch lists the fields to set. Empty fields are left as they are.
type Patch struct {
	// Aura authorities (sr25519), SS58 or 0x hex.
	Aura []string
	// Grandpa authorities (ed25519), SS58 or 0x hex; each gets weight 1.
	Grandpa []string
	// Sudo account, SS58 or 0x hex.
	Sudo string
	// BootNodes are libp2p multiaddrs ending in /p2p/<peer id>.
	BootNodes []string
	// Telemetry is a telemetry submit URL, recorded with verbosity 0.
	Telemetry string
}

// Result reports what Patch applied.
type Result struct {
	Aura             []string `json:"aura,omitempty"`
	Grandpa          []string `json:"grandpa,omitempty"`
	Sudo             string   `json:"sudo,omitempty"`
	BootNodes        []string `json:"boot_nodes,omitempty"`
	SkippedBootNodes []string `json:"skipped_boot_nodes,omitempty"`
	Telemetry        string   `json:"telemetry,omitempty"`
}

// Patch applies p. Authority inputs are validated before anything is
// modified, so a failed Patch leaves the spec unchanged. Invalid boot
// nodes are skipped and reported rather than failing the patch.
func (s *Spec) Patch(p Patch) (*Result, error) {
	patch, err := s.patchRoot()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if res.Aura, err = authorities(p.Aura); err != nil {
		return nil, fmt.Errorf("aura: %w", err)
	}
	if res.Grandpa, err = authorities(p.Grandpa); err != nil {
		return nil, fmt.Errorf("grandpa: %w", err)
	}
	if p.Sudo != "" {
		if res.Sudo, err = AuthorityAddress(p.Sudo); err != nil {
			return nil, fmt.Errorf("sudo: %w", err)
		}
	}
	res.BootNodes, res.SkippedBootNodes = FilterBootNodes(p.BootNodes)
	res.Telemetry = strings.TrimSpace(p.Telemetry)

	if len(res.Aura) > 0 {
		list := make([]any, len(res.Aura))
		for i, a := range res.Aura {
			list[i] = a
		}
		section(patch, "aura")["authorities"] = list
	}
	if len(res.Grandpa) > 0 {
		list := make([]any, len(res.Grandpa))
		for i, g := range res.Grandpa {
			list[i] = []any{g, json.Number("1")}
		}
		section(patch, "grandpa")["authorities"] = list
	}
	if res.Sudo != "" {
		section(patch, "sudo")["key"] = res.Sudo
	}
	if len(res.BootNodes) > 0 {
		list := make([]any, len(res.BootNodes))
		for i, b := range res.BootNodes {
			list[i] = b
		}
		s.root["bootNodes"] = list
	}
	if res.Telemetry != "" {
		s.root["telemetryEndpoints"] = []any{[]any{res.Telemetry, json.Number("0")}}
	}
	return res, nil
}

func (s *Spec) patchRoot() (map[string]any, error) {
	v, ok := s.Get("genesis.runtimeGenesis.patch")
	if !ok {
		return nil, ErrUnexpectedLayout
	}
	patch, ok := v.(map[string]any)
	if !ok || len(patch) == 0 {
		return nil, ErrUnexpectedLayout
	}
	return patch, nil
}

// section returns m[name] as an object, creating or replacing it as needed.
func section(m map[string]any, name string) map[string]any {
	if sub, ok := m[name].(map[string]any); ok {
		return sub
	}
	sub := make(map[string]any)
	m[name] = sub
	return sub
}

func authorities(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		addr, err := AuthorityAddress(v)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// AuthorityAddress renders an authority input as SS58. A 0x public key is
// encoded with the generic substrate prefix; an SS58 address is checked and
// returned unchanged.
func AuthorityAddress(v string) (string, error) {
	s := strings.TrimSpace(v)
	if ss58.IsHexAccountID(s) {
		id, err := ss58.AccountIDFromHex(s)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %w", ErrInvalidAuthority, v, err)
		}
		return ss58.Encode(authorityPrefix, id)
	}
	if _, _, err := ss58.Decode(s); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidAuthority, v, err)
	}
	return s, nil
}

// FilterBootNodes trims the inputs, drops blanks and splits the rest into
// multiaddrs that parse and carry a /p2p/ peer id, and everything else.
func FilterBootNodes(nodes []string) (valid, skipped []string) {
	for _, n := range nodes {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if ValidBootNode(n) {
			valid = append(valid, n)
		} else {
			skipped = append(skipped, n)
		}
	}
	return valid, skipped
}

// ValidBootNode reports whether s is a multiaddr with a /p2p/ component.
func ValidBootNode(s string) bool {
	addr, err := ma.NewMultiaddr(s)
	if err != nil {
		return false
	}
	_, err = addr.ValueForProtocol(ma.P_P2P)
	return err == nil
}
