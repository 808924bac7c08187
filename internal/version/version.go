// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package version provides build version information for modkey.
// Values are injected at build time via -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set at build time via -ldflags.
// Example: go build -ldflags "-X github.com/modnet/modkey/internal/version.Version=0.3.0"
var (
	// Version is the semantic version (e.g., "0.3.0" or "0.3.0-dev")
	Version = "dev"

	// GitCommit is the git commit hash (short form)
	GitCommit = "unknown"

	// BuildTime is the build timestamp in RFC3339 format
	BuildTime = "unknown"
)

// commit falls back to the VCS revision recorded by the Go toolchain.
func commit() string {
	if GitCommit != "unknown" {
		return GitCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return GitCommit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return GitCommit
}

// String returns a formatted version string suitable for --version output.
func String() string {
	return fmt.Sprintf("modkey %s (commit: %s, built: %s, %s/%s)",
		Version, commit(), BuildTime, runtime.GOOS, runtime.GOARCH)
}
