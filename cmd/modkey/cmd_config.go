// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package main

import (
	"context"

	"github.com/modnet/modkey/internal/util"
)

func cmdConfig(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("config")
	if err := a.parse(fs, args, false); err != nil {
		return err
	}
	util.DisplayConfig(a.stdout, a.dataDir)
	return nil
}
