// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package util

import (
	"io"
	"log/slog"
	"os"
)

// DebugEnv enables debug logging when set to any non-empty value.
const DebugEnv = "MODKEY_DEBUG"

// Logger is the process-wide logger. It writes to stderr so that stdout
// carries only structured command output.
var Logger = newLogger(os.Stderr, os.Getenv(DebugEnv) != "")

// SetLogOutput redirects the global logger, keeping the current level policy.
func SetLogOutput(w io.Writer) {
	Logger = newLogger(w, os.Getenv(DebugEnv) != "")
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		// Drop the timestamp for cleaner CLI output
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler)
}

// Debug logs a debug message (only shown when MODKEY_DEBUG is set)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
