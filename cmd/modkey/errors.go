// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/modnet/modkey/internal/chainspec"
	"github.com/modnet/modkey/internal/crypto"
	"github.com/modnet/modkey/internal/keygen"
	"github.com/modnet/modkey/internal/keys"
	"github.com/modnet/modkey/internal/multisig"
	"github.com/modnet/modkey/internal/ss58"
)

// usageError marks a command-line mistake (exit code 2).
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// errorKinds maps sentinels to the names printed after "Error:".
// Wrapping sentinels come before the ones they may wrap.
var errorKinds = []struct {
	err  error
	kind string
}{
	{multisig.ErrInvalidThreshold, "InvalidThreshold"},
	{multisig.ErrSignerDecode, "SignerDecodeError"},
	{multisig.ErrDuplicateSigner, "DuplicateSigner"},
	{crypto.ErrAuthenticationFailed, "AuthenticationFailed"},
	{crypto.ErrUnsupportedKDF, "UnsupportedKdf"},
	{crypto.ErrUnsupportedVersion, "UnsupportedVersion"},
	{crypto.ErrMalformedBlob, "MalformedBlob"},
	{keygen.ErrSourceUnavailable, "KeypairSourceUnavailable"},
	{keygen.ErrUnsupportedScheme, "UnsupportedScheme"},
	{keygen.ErrUnsupportedPhrase, "UnsupportedPhrase"},
	{keygen.ErrInvalidPublicKey, "InvalidPublicKey"},
	{keygen.ErrUnknownSource, "UnknownSource"},
	{keys.ErrInconsistentKey, "InconsistentKey"},
	{keys.ErrFileTooLarge, "FileTooLarge"},
	{keys.ErrLocked, "Locked"},
	{chainspec.ErrUnexpectedLayout, "UnexpectedLayout"},
	{chainspec.ErrInvalidAuthority, "InvalidAuthority"},
	{chainspec.ErrNodeUnavailable, "NodeUnavailable"},
	{ss58.ErrInvalidChecksum, "InvalidChecksum"},
	{ss58.ErrInvalidLength, "InvalidLength"},
	{ss58.ErrUnknownPrefix, "UnknownPrefix"},
	{ss58.ErrInvalidEncoding, "InvalidEncoding"},
	{ss58.ErrUnknownNetwork, "UnknownNetwork"},
}

func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// newFlagSet returns a subcommand flag set that reports errors instead of exiting.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		if c, ok := lookupCommand(name); ok {
			fmt.Fprintf(a.stderr, "Usage: modkey %s\n\n", c.usage)
		}
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args, rejecting stray positional arguments unless
// positional is true.
func (a *app) parse(fs *flag.FlagSet, args []string, positional bool) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &usageError{msg: err.Error()}
	}
	if !positional && fs.NArg() > 0 {
		return usagef("unexpected argument %q", fs.Arg(0))
	}
	return nil
}
