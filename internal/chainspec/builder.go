// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package chainspec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/modnet/modkey/internal/util"
)

// DefaultBuildTimeout bounds one build-spec invocation.
const DefaultBuildTimeout = 2 * time.Minute

// ErrNodeUnavailable indicates the node binary cannot be run.
var ErrNodeUnavailable = errors.New("node binary unavailable")

// Builder runs a node binary's build-spec subcommand.
type Builder struct {
	NodeBin string
	Timeout time.Duration
}

// Base returns the plain chainspec the node generates for chainID.
func (b *Builder) Base(ctx context.Context, chainID string) (*Spec, error) {
	out, err := b.run(ctx, "build-spec", "--chain", chainID)
	if err != nil {
		return nil, err
	}
	return Parse(out)
}

// Raw converts the plain spec at plainPath to its raw (storage) form.
func (b *Builder) Raw(ctx context.Context, plainPath string) ([]byte, error) {
	return b.run(ctx, "build-spec", "--chain", plainPath, "--raw")
}

func (b *Builder) run(ctx context.Context, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(b.NodeBin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNodeUnavailable, b.NodeBin, err)
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultBuildTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	util.Logger.Debug("running node", "binary", bin, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %s", strings.Join(args, " "), timeout)
		}
		return nil, fmt.Errorf("command failed: %s %s: %w\n%s", bin, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
