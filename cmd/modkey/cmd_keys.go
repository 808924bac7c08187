// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package main

import (
	"context"
	"flag"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/modnet/modkey/internal/crypto"
	"github.com/modnet/modkey/internal/keygen"
	"github.com/modnet/modkey/internal/keys"
	"github.com/modnet/modkey/internal/ss58"
)

// keyOutput is a key's display form plus where it was saved.
type keyOutput struct {
	keys.DisplayForm
	Path string `json:"path,omitempty"`
}

// defaultRole names saved keys after the consensus role each scheme fills.
func defaultRole(s keygen.Scheme) string {
	if s == keygen.SchemeEd25519 {
		return "grandpa"
	}
	return "aura"
}

func parseScheme(s string) (keygen.Scheme, error) {
	scheme, err := keygen.ParseScheme(s)
	if err != nil {
		return "", usagef("--scheme: %v", err)
	}
	return scheme, nil
}

func cmdGen(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("gen")
	scheme := fs.String("scheme", string(keygen.SchemeSr25519), "Signature scheme: sr25519 or ed25519")
	network := fs.String("network", a.cfg.Network, "Network name or SS58 prefix")
	save := fs.Bool("save", false, "Encrypt the key into the keys directory")
	role := fs.String("role", "", "Role used in the key file name (default aura or grandpa by scheme)")
	password := fs.String("password", "", "Vault password (visible to other users; prefer the prompt)")
	noSecret := fs.Bool("no-secret", false, "Do not print the secret phrase")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}

	s, err := parseScheme(*scheme)
	if err != nil {
		return err
	}
	if err := harden(); err != nil {
		return err
	}

	var pw *crypto.Password
	if *save {
		if pw, err = a.password(ctx, *password, true); err != nil {
			return err
		}
		defer pw.Destroy()
	}

	k, err := a.manager.Generate(ctx, s, *network)
	if err != nil {
		return err
	}
	out := keyOutput{DisplayForm: k.DisplayForm(!*noSecret)}

	if *save {
		r := *role
		if r == "" {
			r = defaultRole(s)
		}
		if out.Path, err = a.saveToStore(ctx, k, r, pw); err != nil {
			return err
		}
		a.sink.Notice("Saved %s key to %s", s, out.Path)
	}
	return a.sink.Emit(out)
}

type genAllOutput struct {
	Aura    keyOutput `json:"aura"`
	Grandpa keyOutput `json:"grandpa"`
}

func cmdGenAll(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("gen-all")
	network := fs.String("network", a.cfg.Network, "Network name or SS58 prefix")
	save := fs.Bool("save", false, "Encrypt both keys into the keys directory")
	password := fs.String("password", "", "Vault password (visible to other users; prefer the prompt)")
	noSecret := fs.Bool("no-secret", false, "Do not print the secret phrases")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}
	if err := harden(); err != nil {
		return err
	}

	var pw *crypto.Password
	if *save {
		var err error
		if pw, err = a.password(ctx, *password, true); err != nil {
			return err
		}
		defer pw.Destroy()
	}

	var aura, grandpa *keys.KeyMaterial
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		k, err := a.manager.Generate(gctx, keygen.SchemeSr25519, *network)
		aura = k
		return err
	})
	g.Go(func() error {
		k, err := a.manager.Generate(gctx, keygen.SchemeEd25519, *network)
		grandpa = k
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out := genAllOutput{
		Aura:    keyOutput{DisplayForm: aura.DisplayForm(!*noSecret)},
		Grandpa: keyOutput{DisplayForm: grandpa.DisplayForm(!*noSecret)},
	}
	if *save {
		var err error
		if out.Aura.Path, err = a.saveToStore(ctx, aura, "aura", pw); err != nil {
			return err
		}
		if out.Grandpa.Path, err = a.saveToStore(ctx, grandpa, "grandpa", pw); err != nil {
			return err
		}
		a.sink.Notice("Saved keys to %s", a.store.Dir())
	}
	return a.sink.Emit(out)
}

func cmdInspect(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("inspect")
	public := fs.String("public", "", "Public key as 0x hex or SS58 address (required)")
	scheme := fs.String("scheme", string(keygen.SchemeSr25519), "Signature scheme: sr25519 or ed25519")
	network := fs.String("network", a.cfg.Network, "Network name or SS58 prefix")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}
	if *public == "" {
		return usagef("--public is required")
	}
	if !ss58.IsHexAccountID(*public) && !ss58.Valid(*public) {
		return usagef("--public must be a 0x-prefixed 32-byte hex key or an SS58 address")
	}
	s, err := parseScheme(*scheme)
	if err != nil {
		return err
	}

	k, err := a.manager.FromGeneratedOrDerived(ctx, *public, s, *network)
	if err != nil {
		return err
	}
	return a.sink.Emit(k.DisplayForm(false))
}

// materialFlags are the --phrase/--public inputs shared by derive and key-save.
type materialFlags struct {
	phrase  *string
	public  *string
	scheme  *string
	network *string
}

func (a *app) addMaterialFlags(fs *flag.FlagSet) materialFlags {
	return materialFlags{
		phrase:  fs.String("phrase", "", "Secret phrase, or - to read it from stdin"),
		public:  fs.String("public", "", "Public key as 0x hex or SS58 address"),
		scheme:  fs.String("scheme", string(keygen.SchemeSr25519), "Signature scheme: sr25519 or ed25519"),
		network: fs.String("network", a.cfg.Network, "Network name or SS58 prefix"),
	}
}

// material builds key material from whichever of --phrase/--public was given.
func (a *app) material(ctx context.Context, f materialFlags) (*keys.KeyMaterial, error) {
	if (*f.phrase == "") == (*f.public == "") {
		return nil, usagef("exactly one of --phrase or --public is required")
	}
	s, err := parseScheme(*f.scheme)
	if err != nil {
		return nil, err
	}

	input := *f.public
	if *f.phrase != "" {
		if err := harden(); err != nil {
			return nil, err
		}
		if input, err = a.readSecretArg(*f.phrase); err != nil {
			return nil, err
		}
	}
	return a.manager.FromGeneratedOrDerived(ctx, input, s, *f.network)
}

func cmdDerive(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("derive")
	mf := a.addMaterialFlags(fs)
	withSecret := fs.Bool("with-secret", false, "Include the secret phrase in the output")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}

	k, err := a.material(ctx, mf)
	if err != nil {
		return err
	}
	return a.sink.Emit(k.DisplayForm(*withSecret))
}

func cmdKeySave(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("key-save")
	mf := a.addMaterialFlags(fs)
	out := fs.String("out", "", "Key file path (default: a new file in the keys directory)")
	role := fs.String("role", "", "Role used in the key file name when --out is not given")
	password := fs.String("password", "", "Vault password (visible to other users; prefer the prompt)")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}
	if *out != "" && *role != "" {
		return usagef("--out and --role are mutually exclusive")
	}

	k, err := a.material(ctx, mf)
	if err != nil {
		return err
	}

	pw, err := a.password(ctx, *password, true)
	if err != nil {
		return err
	}
	defer pw.Destroy()

	result := keyOutput{DisplayForm: k.DisplayForm(false)}
	if *out != "" {
		if err := a.persist(ctx, k, *out, pw); err != nil {
			return err
		}
		result.Path = *out
	} else {
		r := *role
		if r == "" {
			r = defaultRole(k.Scheme())
		}
		if result.Path, err = a.saveToStore(ctx, k, r, pw); err != nil {
			return err
		}
	}
	a.sink.Notice("Saved %s key to %s", k.Scheme(), result.Path)
	return a.sink.Emit(result)
}

func cmdKeyLoad(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("key-load")
	file := fs.String("file", "", "Key file path (required)")
	password := fs.String("password", "", "Vault password (visible to other users; prefer the prompt)")
	withSecret := fs.Bool("with-secret", false, "Include the secret phrase in the output")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}
	if *file == "" {
		return usagef("--file is required")
	}
	if err := harden(); err != nil {
		return err
	}

	pw, err := a.password(ctx, *password, false)
	if err != nil {
		return err
	}
	defer pw.Destroy()

	var k *keys.KeyMaterial
	err = pw.Use(func(b []byte) error {
		var err error
		k, err = a.manager.Load(*file, b)
		return err
	})
	if err != nil {
		return err
	}
	return a.sink.Emit(keyOutput{DisplayForm: k.DisplayForm(*withSecret), Path: *file})
}

type keyFileOutput struct {
	Path    string `json:"path"`
	Role    string `json:"role,omitempty"`
	Scheme  string `json:"scheme,omitempty"`
	Created string `json:"created,omitempty"`
}

func cmdKeyList(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("key-list")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}

	infos, err := a.store.List()
	if err != nil {
		return err
	}
	list := make([]keyFileOutput, 0, len(infos))
	for _, info := range infos {
		out := keyFileOutput{Path: info.Path, Role: info.Role, Scheme: string(info.Scheme)}
		if !info.Created.IsZero() {
			out.Created = info.Created.UTC().Format(time.RFC3339)
		}
		list = append(list, out)
	}
	if len(list) == 0 {
		a.sink.Notice("No key files in %s", a.store.Dir())
	}
	return a.sink.Emit(list)
}
