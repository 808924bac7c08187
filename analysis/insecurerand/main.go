// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package main implements a static analyzer that detects insecure random number usage.
//
// Phrase generation, vault salts and nonces must come from crypto/rand, so
// the packages that produce or handle them may not import math/rand.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Directories that should never use math/rand
var criticalDirs = []string{
	"internal/crypto",
	"internal/keygen",
	"internal/keys",
	"internal/mnemonic",
	"internal/multisig",
	"internal/ss58",
}

var mathRandImportPattern = regexp.MustCompile(`"math/rand(/v2)?"`)

var cryptoRandImportPattern = regexp.MustCompile(`"crypto/rand"`)

// Calls that only exist on math/rand
var mathRandOnlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rand\.Seed`),
	regexp.MustCompile(`rand\.Intn\(`),
	regexp.MustCompile(`rand\.Int31`),
	regexp.MustCompile(`rand\.Int63`),
	regexp.MustCompile(`rand\.Float`),
	regexp.MustCompile(`rand\.Perm`),
	regexp.MustCompile(`rand\.Shuffle`),
	regexp.MustCompile(`rand\.NewSource`),
}

type finding struct {
	file    string
	line    int
	content string
	reason  string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: insecurerand <repo-root>")
		os.Exit(2)
	}
	findings, checked, err := analyze(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	report(os.Stdout, findings, checked)
	if len(findings) > 0 {
		os.Exit(1)
	}
}

// analyze scans the critical directories under root.
func analyze(root string) ([]finding, int, error) {
	var findings []finding
	var filesChecked int

	for _, dir := range criticalDirs {
		dirPath := filepath.Join(root, dir)
		if _, err := os.Stat(dirPath); os.IsNotExist(err) {
			continue
		}

		err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			filesChecked++
			fileFindings, err := checkFile(path)
			if err != nil {
				return err
			}
			findings = append(findings, fileFindings...)
			return nil
		})
		if err != nil {
			return nil, filesChecked, fmt.Errorf("walking %s: %w", dir, err)
		}
	}
	return findings, filesChecked, nil
}

func report(w io.Writer, findings []finding, filesChecked int) {
	fmt.Fprintf(w, "Insecure Random Analysis\n")
	fmt.Fprintf(w, "========================\n")
	fmt.Fprintf(w, "Files checked: %d\n", filesChecked)
	fmt.Fprintf(w, "Critical directories: %v\n\n", criticalDirs)

	if len(findings) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}

	fmt.Fprintf(w, "Potential issues: %d\n\n", len(findings))
	for _, f := range findings {
		fmt.Fprintf(w, "%s:%d\n", f.file, f.line)
		fmt.Fprintf(w, "  Line: %s\n", strings.TrimSpace(f.content))
		fmt.Fprintf(w, "  Issue: %s\n\n", f.reason)
	}
}

func checkFile(path string) ([]finding, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var findings []finding
	hasCryptoRand := false
	for i, line := range lines {
		if mathRandImportPattern.MatchString(line) {
			findings = append(findings, finding{
				file:    path,
				line:    i + 1,
				content: line,
				reason:  "math/rand import in security-critical directory - use crypto/rand instead",
			})
		}
		if cryptoRandImportPattern.MatchString(line) {
			hasCryptoRand = true
		}
	}

	// An aliased import still shows up through its call sites.
	if !hasCryptoRand {
		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "//") {
				continue
			}
			for _, pat := range mathRandOnlyPatterns {
				if pat.MatchString(line) {
					findings = append(findings, finding{
						file:    path,
						line:    i + 1,
						content: line,
						reason:  "math/rand function in security-critical code without crypto/rand import",
					})
					break
				}
			}
		}
	}
	return findings, nil
}
