// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// configdoc generates markdown documentation from Go struct tags.
// Usage: go run ./cmd/configdoc > doc/CONFIG_REFERENCE.md
package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/modnet/modkey/internal/util"
)

// EnvVar represents an environment variable configuration
type EnvVar struct {
	Name        string
	Description string
}

var envVars = []EnvVar{
	{util.DataDirEnv, "Data directory (config.yaml and keys/); overridden by `-d`"},
	{util.DebugEnv, "Set to any value to enable debug logging on stderr"},
	{"NO_COLOR", "Set to any value to disable styled output"},
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		fmt.Println("Usage: go run ./cmd/configdoc > doc/CONFIG_REFERENCE.md")
		fmt.Println()
		fmt.Println("Generates markdown documentation from Go struct tags.")
		return
	}
	render(os.Stdout)
}

func render(w io.Writer) {
	fmt.Fprintln(w, "# Configuration Reference")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Auto-generated from Go struct tags. Do not edit manually.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "---")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## modkey Configuration")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: `%s` in the data directory (`-d`, `%s`, or `%s`)\n", util.ConfigFileName, util.DataDirEnv, util.DefaultDataDir)
	fmt.Fprintln(w)
	printStructTable(w, reflect.TypeOf(util.Config{}), "")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Environment Variables")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Variable | Description |")
	fmt.Fprintln(w, "|----------|-------------|")
	for _, env := range envVars {
		fmt.Fprintf(w, "| `%s` | %s |\n", env.Name, env.Description)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "### Password Precedence")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "For key-save and key-load:")
	fmt.Fprintln(w, "1. `--password` flag (visible in the process list)")
	fmt.Fprintln(w, "2. `password_command_argv` config option (headless mode)")
	fmt.Fprintln(w, "3. Interactive prompt when stdin is a terminal")
	fmt.Fprintln(w, "4. First line of stdin")
}

func printStructTable(w io.Writer, t reflect.Type, prefix string) {
	if prefix == "" {
		fmt.Fprintln(w, "| Field | Type | Default | Description |")
		fmt.Fprintln(w, "|-------|------|---------|-------------|")
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag := field.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		fieldName := strings.Split(tag, ",")[0]
		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		if field.Type.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct {
			desc := field.Tag.Get("description")
			if desc == "" {
				desc = "(nested config block)"
			}
			fmt.Fprintf(w, "| `%s` | object | (none) | %s |\n", fieldName, desc)
			printStructTable(w, field.Type.Elem(), fieldName)
			continue
		}

		desc := field.Tag.Get("description")
		if desc == "" {
			desc = "(no description)"
		}

		def := field.Tag.Get("default")
		switch def {
		case "":
			def = "(none)"
		case `""`:
			def = "(empty string)"
		}

		fmt.Fprintf(w, "| `%s` | %s | `%s` | %s |\n", fieldName, formatType(field.Type), def, desc)
	}
}

func formatType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "[]" + formatType(t.Elem())
	case reflect.Map:
		return "map[" + formatType(t.Key()) + "]" + formatType(t.Elem())
	case reflect.Ptr:
		return "*" + formatType(t.Elem())
	default:
		return t.String()
	}
}
