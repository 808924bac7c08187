// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/modnet/modkey/internal/crypto"
	"github.com/modnet/modkey/internal/keygen"
	"github.com/modnet/modkey/internal/keys"
	"github.com/modnet/modkey/internal/output"
	"github.com/modnet/modkey/internal/security"
	"github.com/modnet/modkey/internal/util"
)

// Replaced in tests.
var (
	harden = hardenProcess
	now    = time.Now
)

// app carries what every command needs: configuration, the keypair source
// and where output goes.
type app struct {
	dataDir string
	cfg     util.Config

	manager *keys.Manager
	store   *keys.Store
	sink    output.Sink

	stdin       io.Reader
	stdinReader *bufio.Reader
	stdout      io.Writer
	stderr      io.Writer
}

func newApp(dataDir string, stdin io.Reader, stdout, stderr io.Writer, jsonOut bool) *app {
	styled := false
	if f, ok := stdout.(*os.File); ok && f == os.Stdout && !jsonOut {
		styled = util.SupportsColor()
	}
	return &app{
		dataDir: dataDir,
		cfg:     util.DefaultConfig(),
		sink:    output.New(stdout, stderr, styled),
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// load reads config.yaml and opens the configured keypair source.
func (a *app) load() error {
	cfg, err := util.LoadConfig(a.dataDir)
	if err != nil {
		return err
	}
	source, err := keygen.Open(cfg.KeygenSource, keygen.Options{
		SubkeyPath: cfg.SubkeyPath,
		Timeout:    cfg.SubkeyTimeout(),
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.manager = keys.NewManager(source)
	a.store = keys.NewStore(cfg.KeysDir)
	util.Debug("loaded config", "data_dir", a.dataDir, "keygen_source", source.Name(), "network", cfg.Network)
	return nil
}

// hardenProcess runs before any secret is read. Core dumps must be
// disabled; memory locking is best effort.
func hardenProcess() error {
	report, err := security.Harden()
	if err != nil {
		return err
	}
	if report.MemoryLockErr != nil {
		util.Debug("memory not locked", "error", report.MemoryLockErr)
	}
	return nil
}

// readLine reads one line from stdin without the trailing newline.
func (a *app) readLine() (string, error) {
	if a.stdinReader == nil {
		a.stdinReader = bufio.NewReader(a.stdin)
	}
	line, err := a.stdinReader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecretArg resolves a --phrase value; "-" reads it from stdin so the
// phrase stays out of the process list.
func (a *app) readSecretArg(v string) (string, error) {
	if v != "-" {
		return v, nil
	}
	line, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("failed to read phrase from stdin: %w", err)
	}
	if strings.TrimSpace(line) == "" {
		return "", fmt.Errorf("empty phrase on stdin")
	}
	return line, nil
}

// password resolves the vault password: --password, then the configured
// password command, then a terminal prompt (confirmed when confirm is set),
// then a line from stdin. The caller must Destroy the result.
func (a *app) password(ctx context.Context, flagValue string, confirm bool) (*crypto.Password, error) {
	if flagValue != "" {
		util.Logger.Warn("password given on the command line; it may be visible to other users")
		return crypto.NewPassword([]byte(flagValue)), nil
	}

	if pc := a.cfg.PasswordCommand(); pc != nil {
		pw, err := pc.Read(ctx)
		if err != nil {
			return nil, err
		}
		defer crypto.ZeroBytes(pw)
		return crypto.NewPassword(pw), nil
	}

	if f, ok := a.stdin.(*os.File); ok && util.IsTerminal(f) {
		return a.promptPassword(f, confirm)
	}

	line, err := a.readLine()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if line == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}
	return crypto.NewPassword([]byte(line)), nil
}

func (a *app) promptPassword(f *os.File, confirm bool) (*crypto.Password, error) {
	fd := int(f.Fd()) // #nosec G115 - file descriptors are small integers

	fmt.Fprint(a.stderr, "Enter password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(a.stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	defer crypto.ZeroBytes(first)
	if len(first) == 0 {
		return nil, fmt.Errorf("password cannot be empty")
	}

	if confirm {
		fmt.Fprint(a.stderr, "Confirm password: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(a.stderr)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		defer crypto.ZeroBytes(second)
		if string(first) != string(second) {
			return nil, fmt.Errorf("passwords do not match")
		}
	}
	return crypto.NewPassword(first), nil
}

// persist seals k at path under pw.
func (a *app) persist(ctx context.Context, k *keys.KeyMaterial, path string, pw *crypto.Password) error {
	return pw.Use(func(b []byte) error {
		return a.manager.Persist(ctx, k, path, b)
	})
}

// saveToStore persists k under a fresh name in the keys directory. The
// name is claimed exclusively, so a concurrent save never overwrites it.
func (a *app) saveToStore(ctx context.Context, k *keys.KeyMaterial, role string, pw *crypto.Password) (string, error) {
	path, err := a.store.NewPath(role, k.Scheme(), now())
	if err != nil {
		return "", usagef("%v", err)
	}
	if err := a.store.Ensure(); err != nil {
		return "", err
	}
	err = pw.Use(func(b []byte) error {
		return a.manager.PersistNew(ctx, k, path, b)
	})
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("key file %s already exists", path)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
