// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package ss58

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownNetwork is returned for network names missing from the registry.
var ErrUnknownNetwork = errors.New("ss58: unknown network")

// DefaultNetwork is the generic Substrate network used by dev and test chains.
const DefaultNetwork = "substrate"

// networks maps the names accepted by the key tool to their registered prefixes.
var networks = map[string]uint16{
	"polkadot":   0,
	"kusama":     2,
	"plasm":      5,
	"edgeware":   7,
	"karura":     8,
	"acala":      10,
	"centrifuge": 36,
	"substrate":  42,
}

// PrefixForNetwork resolves a network name (or a decimal prefix) to its prefix.
func PrefixForNetwork(name string) (uint16, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if p, ok := networks[name]; ok {
		return p, nil
	}
	if n, err := strconv.ParseUint(name, 10, 16); err == nil {
		if n > MaxPrefix {
			return 0, fmt.Errorf("%w: %d exceeds %d", ErrUnknownPrefix, n, MaxPrefix)
		}
		return uint16(n), nil
	}
	return 0, fmt.Errorf("%w: %q (known: %s)", ErrUnknownNetwork, name, strings.Join(Networks(), ", "))
}

// NetworkForPrefix returns the registered name for prefix, or its decimal
// form when the prefix is not in the registry.
func NetworkForPrefix(prefix uint16) string {
	for name, p := range networks {
		if p == prefix {
			return name
		}
	}
	return strconv.FormatUint(uint64(prefix), 10)
}

// Networks returns the registered network names, sorted.
func Networks() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
