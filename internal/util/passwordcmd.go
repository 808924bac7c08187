// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package util

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

const (
	// passwordCommandTimeout bounds a single helper invocation.
	passwordCommandTimeout = 5 * time.Second

	// maxPasswordOutputBytes caps the helper's stdout (8 KB).
	maxPasswordOutputBytes = 8 * 1024
)

// PasswordCommand is an external helper that prints the vault password,
// letting key-save and key-load run without a terminal.
//
// The helper is invoked as `argv[0] read argv[1:]...` with only Env in its
// environment. Output contract:
//   - exactly one trailing newline (or CRLF) is stripped
//   - NUL bytes and empty output are rejected
//   - "base64:" and "hex:" prefixes are decoded
type PasswordCommand struct {
	Argv []string
	Env  map[string]string
}

// Validate checks argv[0] is an absolute path to an executable that is not
// group- or world-writable.
func (c *PasswordCommand) Validate() error {
	_, err := c.resolve()
	return err
}

// Read runs the helper and returns the password. The caller must zero it.
func (c *PasswordCommand) Read(ctx context.Context) ([]byte, error) {
	bin, err := c.resolve()
	if err != nil {
		return nil, err
	}

	args := append([]string{"read"}, c.Argv[1:]...)

	ctx, cancel := context.WithTimeout(ctx, passwordCommandTimeout)
	defer cancel()

	// Own process group so a shell helper's children die with it on timeout.
	cmd := exec.Command(bin, args...) //nolint:gosec // validated above
	cmd.Env = c.environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdin = nil
	// stderr may carry secrets from a misbehaving helper
	cmd.Stderr = io.Discard

	var stdout bytes.Buffer
	defer zeroBuffer(&stdout)
	lw := &limitedWriter{w: &stdout, remaining: maxPasswordOutputBytes}
	cmd.Stdout = lw

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("password_command_argv: failed to start: %w", err)
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	select {
	case err = <-waitDone:
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-waitDone
		return nil, fmt.Errorf("password_command_argv: %w", ctx.Err())
	}
	if err != nil {
		return nil, fmt.Errorf("password_command_argv: command failed: %w", err)
	}
	if lw.truncated {
		return nil, fmt.Errorf("password_command_argv: stdout exceeded %d bytes", maxPasswordOutputBytes)
	}

	out := stdout.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
		if n := len(out); n > 0 && out[n-1] == '\r' {
			out = out[:n-1]
		}
	}
	if len(out) == 0 {
		return nil, errors.New("password_command_argv: command produced empty output")
	}
	if bytes.IndexByte(out, 0) >= 0 {
		return nil, errors.New("password_command_argv: output contains NUL bytes")
	}
	return decodePasswordOutput(out)
}

func (c *PasswordCommand) resolve() (string, error) {
	if c == nil || len(c.Argv) == 0 {
		return "", errors.New("password_command_argv: must be non-empty")
	}
	bin := c.Argv[0]
	if !filepath.IsAbs(bin) {
		return "", fmt.Errorf("password_command_argv: argv[0] must be an absolute path, got %q", bin)
	}

	info, err := os.Stat(bin)
	if err != nil {
		return "", fmt.Errorf("password_command_argv: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("password_command_argv: %s is a directory", bin)
	}
	perm := info.Mode().Perm()
	if perm&0111 == 0 {
		return "", fmt.Errorf("password_command_argv: %s is not executable (mode %04o)", bin, perm)
	}
	if perm&0022 != 0 {
		return "", fmt.Errorf("password_command_argv: %s is group or world writable (mode %04o)", bin, perm)
	}
	return bin, nil
}

// environ builds the helper environment; the process env is never inherited.
func (c *PasswordCommand) environ() []string {
	env := make([]string, 0, len(c.Env))
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// decodePasswordOutput returns a fresh slice; the input is left for the caller to zero.
func decodePasswordOutput(out []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(out, []byte("base64:")):
		enc := out[len("base64:"):]
		dec := make([]byte, base64.StdEncoding.DecodedLen(len(enc)))
		n, err := base64.StdEncoding.Decode(dec, enc)
		if err != nil {
			zeroBytes(dec)
			return nil, fmt.Errorf("password_command_argv: invalid base64 output: %w", err)
		}
		return dec[:n], nil
	case bytes.HasPrefix(out, []byte("hex:")):
		enc := out[len("hex:"):]
		dec := make([]byte, hex.DecodedLen(len(enc)))
		n, err := hex.Decode(dec, enc)
		if err != nil {
			zeroBytes(dec)
			return nil, fmt.Errorf("password_command_argv: invalid hex output: %w", err)
		}
		return dec[:n], nil
	default:
		return bytes.Clone(out), nil
	}
}

// limitedWriter accepts at most remaining bytes and records overflow.
type limitedWriter struct {
	w         io.Writer
	remaining int
	truncated bool
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if len(p) > l.remaining {
		l.truncated = true
		p = p[:l.remaining]
	}
	n, err := l.w.Write(p)
	l.remaining -= n
	if err != nil {
		return n, err
	}
	if l.truncated {
		return n, errors.New("output limit exceeded")
	}
	return n, nil
}

func zeroBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}

func zeroBuffer(buf *bytes.Buffer) {
	zeroBytes(buf.Bytes())
	buf.Reset()
}
