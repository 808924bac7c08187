// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modnet/modkey/internal/chainspec"
	"github.com/modnet/modkey/internal/fsutil"
	"github.com/modnet/modkey/internal/multisig"
)

// sudoPrefix is the SS58 prefix of a sudo multisig computed from --signer.
const sudoPrefix = 42

type chainspecOutput struct {
	Out    string `json:"out"`
	RawOut string `json:"raw_out,omitempty"`
	*chainspec.Result
}

func cmdChainspec(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("chainspec")
	in := fs.String("in", "", "Plain chainspec to patch")
	node := fs.String("node", "", "Node binary used to build the base (and raw) spec")
	chainID := fs.String("chain-id", "modnet-testnet", "Chain id passed to build-spec with --node")
	out := fs.String("out", "", "Where to write the patched plain spec (required)")
	rawOut := fs.String("raw-out", "", "Where to write the raw spec (requires --node)")
	var aura, grandpa, signers, bootNodes stringList
	fs.Var(&aura, "aura", "Aura authority, SS58 or 0x hex; repeatable")
	fs.Var(&grandpa, "grandpa", "GRANDPA authority, SS58 or 0x hex; repeatable")
	sudo := fs.String("sudo", "", "Sudo account, SS58 or 0x hex")
	fs.Var(&signers, "signer", "Signer of a multisig sudo account; repeatable")
	threshold := fs.Int("threshold", 0, "Multisig threshold when using --signer")
	fs.Var(&bootNodes, "bootnode", "Boot node multiaddr ending in /p2p/<peer id>; repeatable")
	telemetry := fs.String("telemetry", "", "Telemetry submit URL")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}

	switch {
	case *out == "":
		return usagef("--out is required")
	case (*in == "") == (*node == ""):
		return usagef("exactly one of --in or --node is required")
	case *rawOut != "" && *node == "":
		return usagef("--raw-out requires --node")
	case len(aura) == 0 || len(grandpa) == 0:
		return usagef("--aura and --grandpa are required")
	case (*sudo == "") == (len(signers) == 0):
		return usagef("exactly one of --sudo or --signer is required")
	case len(signers) > 0 && *threshold == 0:
		return usagef("--threshold is required with --signer")
	}

	builder := &chainspec.Builder{NodeBin: *node}

	var spec *chainspec.Spec
	var err error
	if *in != "" {
		spec, err = chainspec.Load(*in)
	} else {
		a.sink.Notice("Building base spec for %s", *chainID)
		spec, err = builder.Base(ctx, *chainID)
	}
	if err != nil {
		return err
	}

	sudoKey := *sudo
	if len(signers) > 0 {
		acct, err := multisig.DeriveFromAddresses(multisig.EncodingGenesis, signers, *threshold, sudoPrefix)
		if err != nil {
			return err
		}
		sudoKey = acct.Address
		a.sink.Notice("Computed sudo multisig: %s", sudoKey)
	}

	res, err := spec.Patch(chainspec.Patch{
		Aura:      aura,
		Grandpa:   grandpa,
		Sudo:      sudoKey,
		BootNodes: bootNodes,
		Telemetry: *telemetry,
	})
	if err != nil {
		return err
	}
	if len(res.SkippedBootNodes) > 0 {
		a.sink.Notice("Skipping invalid bootnode multiaddr(s): %s", strings.Join(res.SkippedBootNodes, ", "))
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := spec.Write(ctx, *out); err != nil {
		return err
	}

	result := chainspecOutput{Out: *out, Result: res}
	if *rawOut != "" {
		a.sink.Notice("Building raw spec -> %s", *rawOut)
		raw, err := builder.Raw(ctx, *out)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(*rawOut), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := fsutil.WriteFileLocked(ctx, *rawOut, raw, chainspec.SpecFilePerm); err != nil {
			return err
		}
		result.RawOut = *rawOut
	}
	return a.sink.Emit(result)
}
