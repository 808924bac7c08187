// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package util

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// helperScript writes an executable shell script and returns its path.
func helperScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helper.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0700); err != nil {
		t.Fatalf("write helper: %v", err)
	}
	return path
}

func TestPasswordCommandRead(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"raw with newline", `printf 'hunter2\n'`, "hunter2"},
		{"raw crlf", `printf 'hunter2\r\n'`, "hunter2"},
		{"keeps inner spaces", `printf ' pass word \n'`, " pass word "},
		{"base64", `printf 'base64:aHVudGVyMg==\n'`, "hunter2"},
		{"hex", `printf 'hex:68756e74657232'`, "hunter2"},
		{"verb passed first", `printf '%s-%s' "$1" "$2"`, "read-vault"},
		{"env is explicit", `printf '%s' "$VAULT_PW"`, "from-env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := &PasswordCommand{
				Argv: []string{helperScript(t, tt.body), "vault"},
				Env:  map[string]string{"VAULT_PW": "from-env"},
			}
			got, err := pc.Read(context.Background())
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Read = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPasswordCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty output", `printf '\n'`, "empty output"},
		{"nonzero exit", `exit 3`, "command failed"},
		{"bad base64", `printf 'base64:!!!'`, "invalid base64"},
		{"nul byte", `printf 'a\000b'`, "NUL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := &PasswordCommand{Argv: []string{helperScript(t, tt.body)}}
			_, err := pc.Read(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestPasswordCommandValidate(t *testing.T) {
	if err := (&PasswordCommand{}).Validate(); err == nil {
		t.Error("empty argv should be rejected")
	}
	if err := (&PasswordCommand{Argv: []string{"relative/helper"}}).Validate(); err == nil {
		t.Error("relative argv[0] should be rejected")
	}

	path := helperScript(t, "true")
	if err := os.Chmod(path, 0777); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if err := (&PasswordCommand{Argv: []string{path}}).Validate(); err == nil {
		t.Error("world-writable helper should be rejected")
	}

	if err := os.Chmod(path, 0600); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if err := (&PasswordCommand{Argv: []string{path}}).Validate(); err == nil {
		t.Error("non-executable helper should be rejected")
	}
}
