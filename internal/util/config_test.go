// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Network != "substrate" || cfg.SS58Prefix != 42 {
		t.Errorf("unexpected network defaults: %+v", cfg)
	}
	if cfg.KeygenSource != "subkey" || cfg.SubkeyPath != "subkey" {
		t.Errorf("unexpected keygen defaults: %+v", cfg)
	}
	if cfg.KeysDir != filepath.Join(dir, "keys") {
		t.Errorf("KeysDir = %q, want %q", cfg.KeysDir, filepath.Join(dir, "keys"))
	}
	if cfg.PasswordCommand() != nil {
		t.Error("no password command should be configured by default")
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
network: polkadot
ss58_prefix: 0
keygen_source: native
keys_dir: /srv/modnet/keys
subkey_timeout_seconds: 5
password_command_argv: ["bin/pass", "vault"]
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Network != "polkadot" {
		t.Errorf("Network = %q", cfg.Network)
	}
	if cfg.SS58Prefix != 0 {
		t.Errorf("explicit ss58_prefix 0 should override the default, got %d", cfg.SS58Prefix)
	}
	if cfg.KeygenSource != "native" {
		t.Errorf("KeygenSource = %q", cfg.KeygenSource)
	}
	if cfg.KeysDir != "/srv/modnet/keys" {
		t.Errorf("absolute keys_dir should be kept, got %q", cfg.KeysDir)
	}
	if cfg.SubkeyTimeout().Seconds() != 5 {
		t.Errorf("SubkeyTimeout = %v", cfg.SubkeyTimeout())
	}
	// untouched fields keep defaults
	if cfg.SubkeyPath != "subkey" {
		t.Errorf("SubkeyPath = %q", cfg.SubkeyPath)
	}
	pc := cfg.PasswordCommand()
	if pc == nil || pc.Argv[0] != filepath.Join(dir, "bin/pass") || pc.Argv[1] != "vault" {
		t.Errorf("password command not resolved against data dir: %+v", pc)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown network", "network: notachain\n", "network"},
		{"prefix too large", "ss58_prefix: 20000\n", "ss58_prefix"},
		{"negative prefix", "ss58_prefix: -1\n", "ss58_prefix"},
		{"bad source", "keygen_source: ledger\n", "keygen_source"},
		{"zero timeout", "subkey_timeout_seconds: 0\n", "subkey_timeout_seconds"},
		{"empty subkey path", "subkey_path: \"\"\n", "subkey_path"},
		{"invalid yaml", "network: [unclosed\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)
			_, err := LoadConfig(dir)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should mention %q", err, tt.field)
			}
		})
	}
}

func TestGetDataDir(t *testing.T) {
	t.Setenv(DataDirEnv, "/from/env")

	if got := GetDataDir("/from/flag"); got != "/from/flag" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := GetDataDir(""); got != "/from/env" {
		t.Errorf("env should be used without flag, got %q", got)
	}

	t.Setenv(DataDirEnv, "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := GetDataDir(""); got != filepath.Join(home, ".modnet") {
		t.Errorf("default = %q, want %q", got, filepath.Join(home, ".modnet"))
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("keys", "/data"); got != "/data/keys" {
		t.Errorf("relative: %q", got)
	}
	if got := ResolvePath("/abs/keys", "/data"); got != "/abs/keys" {
		t.Errorf("absolute: %q", got)
	}
	if got := ResolvePath("", "/data"); got != "" {
		t.Errorf("empty: %q", got)
	}
	if home, err := os.UserHomeDir(); err == nil {
		if got := ResolvePath("~/k", "/data"); got != filepath.Join(home, "k") {
			t.Errorf("tilde: %q", got)
		}
	}
}

func TestDisplayConfig(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	DisplayConfig(&buf, dir)
	out := buf.String()
	for _, want := range []string{"Network:       substrate", "Keygen source: subkey", "(prompt)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
