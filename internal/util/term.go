// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors are small integers
}

// SupportsColor reports whether stdout is a terminal that understands ANSI colors.
func SupportsColor() bool {
	if !IsTerminal(os.Stdout) {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	termEnv := os.Getenv("TERM")
	return termEnv != "" && termEnv != "dumb"
}
