// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package keygen

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/modnet/modkey/internal/ss58"
	"github.com/modnet/modkey/internal/util"
)

const (
	// SubkeyName is the registry name of the subkey-backed source.
	SubkeyName = "subkey"

	// DefaultSubkeyTimeout bounds one subkey invocation.
	DefaultSubkeyTimeout = 30 * time.Second
)

func init() {
	Register(SubkeyName, func(opts Options) Source { return NewSubkeySource(opts.SubkeyPath, opts.Timeout) })
}

// SubkeySource shells out to Substrate's subkey tool.
type SubkeySource struct {
	path    string
	timeout time.Duration
}

// NewSubkeySource returns a source running the subkey binary at path
// (looked up on PATH when it has no separator). Zero values pick defaults.
func NewSubkeySource(path string, timeout time.Duration) *SubkeySource {
	if path == "" {
		path = "subkey"
	}
	if timeout <= 0 {
		timeout = DefaultSubkeyTimeout
	}
	return &SubkeySource{path: path, timeout: timeout}
}

// Name implements Source.
func (s *SubkeySource) Name() string { return SubkeyName }

// Generate implements Source.
func (s *SubkeySource) Generate(ctx context.Context, scheme Scheme, network string) (*Pair, error) {
	if _, err := ParseScheme(string(scheme)); err != nil {
		return nil, err
	}
	out, err := s.run(ctx, "generate", "--scheme", string(scheme), "--network", network)
	if err != nil {
		return nil, err
	}
	fields, err := parseSubkeyOutput(out)
	if err != nil {
		return nil, err
	}
	if fields.secretPhrase == "" {
		return nil, fmt.Errorf("subkey generate: no secret phrase in output")
	}
	return fields.pair(scheme, network, fields.secretPhrase)
}

// DeriveFromPhrase implements Source.
func (s *SubkeySource) DeriveFromPhrase(ctx context.Context, phrase string, scheme Scheme, network string) (*Pair, error) {
	if _, err := ParseScheme(string(scheme)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(phrase) == "" {
		return nil, fmt.Errorf("%w: empty phrase", ErrUnsupportedPhrase)
	}
	out, err := s.run(ctx, "inspect", "--scheme", string(scheme), "--network", network, phrase)
	if err != nil {
		return nil, err
	}
	fields, err := parseSubkeyOutput(out)
	if err != nil {
		return nil, err
	}
	return fields.pair(scheme, network, phrase)
}

// InspectPublic implements Source.
func (s *SubkeySource) InspectPublic(ctx context.Context, publicKey ss58.AccountID, scheme Scheme, network string) (string, error) {
	if _, err := ParseScheme(string(scheme)); err != nil {
		return "", err
	}
	out, err := s.run(ctx, "inspect", "--network", network, "--public", "--scheme", string(scheme), publicKey.Hex())
	if err != nil {
		return "", err
	}
	fields, err := parseSubkeyOutput(out)
	if err != nil {
		return "", err
	}
	return fields.ss58Address, nil
}

// run executes subkey with args. The secret phrase may appear in args, so
// only the subcommand name is logged.
func (s *SubkeySource) run(ctx context.Context, args ...string) (string, error) {
	bin, err := exec.LookPath(s.path)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found: %v", ErrSourceUnavailable, s.path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	util.Logger.Debug("running subkey", "binary", bin, "subcommand", args[0])
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("subkey %s timed out after %s", args[0], s.timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("subkey %s failed (exit %d): %s", args[0], exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return stdout.String(), nil
}

type subkeyFields struct {
	secretPhrase string
	publicKeyHex string
	ss58Address  string
}

// parseSubkeyOutput extracts the labelled fields subkey prints, e.g.
//
//	Secret phrase:       bottom drive obey ...
//	Public key (hex):    0x46ebddef...
//	SS58 Address:        5DfhGyQd...
func parseSubkeyOutput(out string) (*subkeyFields, error) {
	f := &subkeyFields{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "secret phrase":
			f.secretPhrase = value
		case "public key (hex)":
			f.publicKeyHex = value
		case "ss58 address":
			f.ss58Address = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading subkey output: %w", err)
	}
	if f.publicKeyHex == "" || f.ss58Address == "" {
		return nil, fmt.Errorf("unexpected subkey output: missing public key or SS58 address")
	}
	return f, nil
}

func (f *subkeyFields) pair(scheme Scheme, network, phrase string) (*Pair, error) {
	pub, err := ss58.AccountIDFromHex(f.publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("subkey public key %q: %w", f.publicKeyHex, err)
	}
	return &Pair{
		Scheme:    scheme,
		Network:   network,
		Phrase:    phrase,
		PublicKey: pub,
		Address:   f.ss58Address,
	}, nil
}
