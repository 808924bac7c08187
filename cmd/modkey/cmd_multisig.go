// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package main

import (
	"context"
	"flag"
	"strings"

	"github.com/modnet/modkey/internal/multisig"
	"github.com/modnet/modkey/internal/ss58"
)

type multisigOutput struct {
	AccountID  string   `json:"account_id"`
	Address    string   `json:"address"`
	Threshold  int      `json:"threshold"`
	SS58Prefix uint16   `json:"ss58_prefix"`
	Encoding   string   `json:"encoding"`
	Signers    []string `json:"signers"`
}

func cmdMultisig(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("multisig")
	var signers stringList
	fs.Var(&signers, "signer", "Signer SS58 address or 0x public key; repeat for each signer")
	threshold := fs.Int("threshold", 0, "Approvals required (1..number of signers)")
	prefix := fs.Int("ss58-prefix", a.cfg.SS58Prefix, "SS58 prefix of the derived address")
	encoding := fs.String("encoding", multisig.EncodingGenesis.String(), "Account id layout: genesis or pallet")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}

	if len(signers) == 0 {
		return usagef("at least one --signer is required")
	}
	if !flagSet(fs, "threshold") {
		return usagef("--threshold is required")
	}
	p, err := parsePrefix(*prefix)
	if err != nil {
		return err
	}
	enc, err := multisig.ParseEncoding(*encoding)
	if err != nil {
		return usagef("--encoding: %v", err)
	}

	acct, err := multisig.DeriveFromAddresses(enc, signers, *threshold, p)
	if err != nil {
		return err
	}
	return a.sink.Emit(newMultisigOutput(acct))
}

func newMultisigOutput(acct *multisig.Account) multisigOutput {
	out := multisigOutput{
		AccountID:  acct.IDHex(),
		Address:    acct.Address,
		Threshold:  acct.Threshold,
		SS58Prefix: acct.Prefix,
		Encoding:   acct.Encoding.String(),
	}
	for _, s := range acct.Signers {
		out.Signers = append(out.Signers, s.Hex())
	}
	return out
}

func parsePrefix(p int) (uint16, error) {
	if p < 0 || p > ss58.MaxPrefix {
		return 0, usagef("ss58 prefix %d out of range 0..%d", p, ss58.MaxPrefix)
	}
	return uint16(p), nil
}

type ss58Output struct {
	Address      string `json:"ss58_address"`
	Prefix       uint16 `json:"prefix"`
	Network      string `json:"network"`
	PublicKeyHex string `json:"public_key_hex"`
}

func cmdSS58(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return usagef("ss58 needs a subcommand: encode or decode")
	}

	switch args[0] {
	case "encode":
		fs := a.newFlagSet("ss58")
		prefix := fs.Int("prefix", -1, "SS58 prefix (overrides --network)")
		network := fs.String("network", a.cfg.Network, "Network name")
		if err := a.parse(fs, args[1:], true); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return usagef("ss58 encode takes exactly one public key")
		}

		var p uint16
		var err error
		if *prefix >= 0 {
			if p, err = parsePrefix(*prefix); err != nil {
				return err
			}
		} else if p, err = ss58.PrefixForNetwork(*network); err != nil {
			return err
		}

		id, err := ss58.ParsePublicKey(fs.Arg(0))
		if err != nil {
			return err
		}
		addr, err := ss58.Encode(p, id)
		if err != nil {
			return err
		}
		return a.sink.Emit(ss58Output{Address: addr, Prefix: p, Network: ss58.NetworkForPrefix(p), PublicKeyHex: id.Hex()})

	case "decode":
		fs := a.newFlagSet("ss58")
		if err := a.parse(fs, args[1:], true); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return usagef("ss58 decode takes exactly one address")
		}
		p, id, err := ss58.Decode(fs.Arg(0))
		if err != nil {
			return err
		}
		return a.sink.Emit(ss58Output{Address: strings.TrimSpace(fs.Arg(0)), Prefix: p, Network: ss58.NetworkForPrefix(p), PublicKeyHex: id.Hex()})

	default:
		return usagef("unknown ss58 subcommand %q (want encode or decode)", args[0])
	}
}

// flagSet reports whether name was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
