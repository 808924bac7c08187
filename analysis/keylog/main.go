// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package main implements a static analyzer that detects secret phrases,
// passwords and seeds passed to logging, printing or error formatting calls.
//
// Secrets reach the user only through the output sink (DisplayForm with the
// secret explicitly requested); any other print of a secret-named value is
// reported.
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

// Calls whose arguments end up on a terminal, in a log, or in an error string.
var outputCallPattern = regexp.MustCompile(`\b(fmt\.(Print|Println|Printf|Fprint|Fprintln|Fprintf|Sprintf|Errorf)|log\.\w+|Logger\.(Debug|Info|Warn|Error)|Notice)\(`)

// Identifiers that name secret material.
var secretIdentPattern = regexp.MustCompile(`(?i)\b\w*(phrase|password|passwd|seed|minisecret|secretkey|privkey)\w*\b`)

// Identifiers that contain a secret word but carry no secret.
var safeIdentPattern = regexp.MustCompile(`(?i)(public|command|argv|env|path|file|flag|count|size|err)`)

// Size queries reveal nothing about the value.
var lenCallPattern = regexp.MustCompile(`\b(len|cap)\([^)]*\)`)

// Files that intentionally print a secret to the user.
var exemptFiles = map[string]string{
	"cmd/pass-file/main.go": "password command helper prints the password by protocol",
}

type finding struct {
	file    string
	line    int
	content string
	reason  string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: keylog <repo-root>")
		os.Exit(2)
	}
	findings, checked, err := analyze(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error walking directory: %v\n", err)
		os.Exit(2)
	}
	report(os.Stdout, findings, checked)
	if len(findings) > 0 {
		os.Exit(1)
	}
}

func analyze(root string) ([]finding, int, error) {
	var findings []finding
	var filesChecked int

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if path != root && (base == "vendor" || base == "analysis" || strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		if _, ok := exemptFiles[filepath.ToSlash(rel)]; ok {
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
	return findings, filesChecked, err
}

func report(w io.Writer, findings []finding, filesChecked int) {
	fmt.Fprintf(w, "Secret Logging Analysis\n")
	fmt.Fprintf(w, "=======================\n")
	fmt.Fprintf(w, "Files checked: %d\n\n", filesChecked)

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

	var findings []finding
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		if reason := checkLine(line); reason != "" {
			findings = append(findings, finding{file: path, line: lineNum, content: line, reason: reason})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return findings, nil
}

// checkLine returns a reason when line passes a secret-named value to an
// output call. String literal contents are ignored, so help text is fine.
func checkLine(line string) string {
	loc := outputCallPattern.FindStringIndex(line)
	if loc == nil {
		return ""
	}
	args := lenCallPattern.ReplaceAllString(stripStringLiterals(line[loc[1]:]), "")
	for _, ident := range secretIdentPattern.FindAllString(args, -1) {
		if !safeIdentPattern.MatchString(ident) {
			return fmt.Sprintf("secret-named value %q passed to output call", ident)
		}
	}
	return ""
}

// stripStringLiterals removes the contents of interpreted and raw string
// literals, keeping the code around them.
func stripStringLiterals(line string) string {
	var out strings.Builder
	var quote rune
	escaped := false

	for _, ch := range line {
		switch {
		case quote == 0:
			if ch == '"' || ch == '`' {
				quote = ch
				continue
			}
			out.WriteRune(ch)
		case escaped:
			escaped = false
		case ch == '\\' && quote == '"':
			escaped = true
		case ch == quote:
			quote = 0
			out.WriteRune(' ')
		}
	}
	return out.String()
}
