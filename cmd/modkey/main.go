// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// modkey generates, inspects and stores Modnet keys, derives multisig
// accounts and patches chainspecs for new networks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/modnet/modkey/internal/util"
	"github.com/modnet/modkey/internal/version"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// command is one modkey subcommand.
type command struct {
	name    string
	usage   string
	summary string
	// noConfig commands run even when config.yaml is invalid.
	noConfig bool
	run      func(ctx context.Context, a *app, args []string) error
}

func commandTable() []command {
	return []command{
		{name: "gen", usage: "gen [--scheme sr25519|ed25519] [--network N] [--save [--role R]] [--no-secret]", summary: "Generate a new keypair", run: cmdGen},
		{name: "gen-all", usage: "gen-all [--network N] [--save] [--no-secret]", summary: "Generate the aura (sr25519) and grandpa (ed25519) keys", run: cmdGenAll},
		{name: "inspect", usage: "inspect --public 0x..|SS58 [--scheme S] [--network N]", summary: "Render a public key's address", run: cmdInspect},
		{name: "derive", usage: "derive (--phrase P|- | --public 0x..) [--scheme S] [--network N] [--with-secret]", summary: "Derive a key from a secret phrase or public key", run: cmdDerive},
		{name: "multisig", usage: "multisig --signer A --signer B ... --threshold T [--ss58-prefix 42] [--encoding genesis|pallet]", summary: "Derive a multisig account", run: cmdMultisig},
		{name: "key-save", usage: "key-save (--phrase P|- | --public 0x..) [--scheme S] [--network N] [--out PATH | --role R] [--password P]", summary: "Encrypt a key into a key file", run: cmdKeySave},
		{name: "key-load", usage: "key-load --file PATH [--password P] [--with-secret]", summary: "Decrypt and show a key file", run: cmdKeyLoad},
		{name: "key-list", usage: "key-list", summary: "List key files in the keys directory", run: cmdKeyList},
		{name: "chainspec", usage: "chainspec (--in PATH | --node BIN [--chain-id ID]) --out PATH [--raw-out PATH] --aura A --grandpa G (--sudo S | --signer .. --threshold T) [--bootnode MA]... [--telemetry URL]", summary: "Patch a chainspec with authorities, sudo and boot nodes", run: cmdChainspec},
		{name: "ss58", usage: "ss58 encode [--prefix N | --network N] <0x public key> | ss58 decode <address>", summary: "Encode or decode SS58 addresses", run: cmdSS58},
		{name: "config", usage: "config", summary: "Show the effective configuration", noConfig: true, run: cmdConfig},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commandTable() {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "modkey - Modnet key vault and address tool\n\n")
	fmt.Fprintf(w, "Usage:\n")
	for _, c := range commandTable() {
		fmt.Fprintf(w, "  modkey [-d path] [--json] %s\n", c.usage)
	}
	fmt.Fprintf(w, "\nCommands:\n")
	for _, c := range commandTable() {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nOptions:\n")
	fmt.Fprintf(w, "  -d path     Data directory (or set %s; default ~/.modnet)\n", util.DataDirEnv)
	fmt.Fprintf(w, "  --json      Emit JSON even when stdout is a terminal\n")
	fmt.Fprintf(w, "  --version   Print version and exit\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  modkey gen --scheme sr25519 --save --role aura\n")
	fmt.Fprintf(w, "  modkey derive --phrase - --scheme ed25519 < phrase.txt\n")
	fmt.Fprintf(w, "  modkey multisig --signer 5Grw... --signer 5FHn... --signer 5FLS... --threshold 2\n")
	fmt.Fprintf(w, "  modkey key-load --file ~/.modnet/keys/20260101-120000-aura-sr25519.json\n")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one modkey invocation and returns its exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	util.SetLogOutput(stderr)

	// Handle early-exit flags before any other processing
	for _, arg := range args {
		if arg == "--version" || arg == "-version" {
			fmt.Fprintln(stdout, version.String())
			return exitOK
		}
	}

	fs := flag.NewFlagSet("modkey", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }
	dataDir := fs.String("d", "", "Data directory (or set "+util.DataDirEnv+")")
	jsonOut := fs.Bool("json", false, "Emit JSON even when stdout is a terminal")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return exitUsage
	}
	if rest[0] == "help" {
		printUsage(stdout)
		return exitOK
	}

	cmd, ok := lookupCommand(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", rest[0])
		printUsage(stderr)
		return exitUsage
	}

	resolvedDataDir := util.GetDataDir(*dataDir)
	if resolvedDataDir == "" {
		fmt.Fprintln(stderr, "Error: Could not determine data directory")
		fmt.Fprintf(stderr, "Use -d <path> or set %s environment variable\n", util.DataDirEnv)
		return exitError
	}

	a := newApp(resolvedDataDir, stdin, stdout, stderr, *jsonOut)
	if !cmd.noConfig {
		if err := a.load(); err != nil {
			return report(stderr, cmd.name, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return report(stderr, cmd.name, cmd.run(ctx, a, rest[1:]))
}

// report prints err and maps it to an exit code.
func report(stderr io.Writer, name string, err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if c, ok := lookupCommand(name); ok {
			fmt.Fprintf(stderr, "Usage: modkey %s\n", c.usage)
		}
		return exitUsage
	}

	if kind := errorKind(err); kind != "" {
		fmt.Fprintf(stderr, "Error: %s: %v\n", kind, err)
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitError
}
