// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// pass-file is a password command helper that keeps the vault password in
// a plaintext file. It speaks the modkey password command protocol:
//
//	pass-file read  <file>   prints the password stored in file
//	pass-file write <file>   stores the first line of stdin in file (mode 0600)
//	                         and prints it back for round-trip verification
//
// INSECURE / DEV ONLY: the password is stored in plaintext.
//
// Usage in config.yaml:
//
//	password_command_argv: ["/path/to/pass-file", "/path/to/password-file"]
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/modnet/modkey/internal/fsutil"
)

// maxPasswordFileSize matches the helper output cap modkey enforces.
const maxPasswordFileSize = 8 * 1024

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "Usage: pass-file <read|write> <password-file>")
		return 2
	}
	verb, path := args[0], args[1]

	switch verb {
	case "read":
		data, err := fsutil.ReadFileLimited(path, maxPasswordFileSize)
		if err != nil {
			fmt.Fprintf(stderr, "pass-file: %v\n", err)
			return 1
		}
		_, _ = stdout.Write(data)

	case "write":
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			fmt.Fprintf(stderr, "pass-file: read stdin: %v\n", err)
			return 1
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			fmt.Fprintln(stderr, "pass-file: empty password")
			return 1
		}
		if err := fsutil.WriteFileLocked(context.Background(), path, []byte(password), fsutil.KeyFilePerm); err != nil {
			fmt.Fprintf(stderr, "pass-file: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, password)

	default:
		fmt.Fprintf(stderr, "pass-file: unknown verb %q (expected read or write)\n", verb)
		return 2
	}
	return 0
}
