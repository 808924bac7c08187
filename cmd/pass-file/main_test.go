// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"write", path}, strings.NewReader("hunter2\nignored\n"), &stdout, &stderr); code != 0 {
		t.Fatalf("write exit %d: %s", code, stderr.String())
	}
	if stdout.String() != "hunter2\n" {
		t.Errorf("write echoed %q", stdout.String())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("password file mode = %04o", info.Mode().Perm())
	}

	stdout.Reset()
	if code := run([]string{"read", path}, nil, &stdout, &stderr); code != 0 {
		t.Fatalf("read exit %d: %s", code, stderr.String())
	}
	if stdout.String() != "hunter2" {
		t.Errorf("read = %q", stdout.String())
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		args  []string
		stdin string
		code  int
	}{
		{"no args", nil, "", 2},
		{"missing file", []string{"read"}, "", 2},
		{"unknown verb", []string{"erase", filepath.Join(dir, "p")}, "", 2},
		{"read missing", []string{"read", filepath.Join(dir, "absent")}, "", 1},
		{"write empty", []string{"write", filepath.Join(dir, "p")}, "\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, strings.NewReader(tt.stdin), &stdout, &stderr); code != tt.code {
				t.Errorf("exit = %d, want %d (stderr %q)", code, tt.code, stderr.String())
			}
			if stdout.Len() != 0 {
				t.Errorf("unexpected stdout %q", stdout.String())
			}
		})
	}
}
