// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package output renders command results. Core packages return values;
// only the CLI decides how they reach the user.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sink receives command results and progress notices.
type Sink interface {
	// Emit writes one result value.
	Emit(v any) error
	// Notice writes a human-oriented status line. It never goes to the
	// result stream, so piped JSON stays parseable.
	Notice(format string, args ...any)
}

// New returns a StyledSink when styled is true (stdout is a terminal),
// otherwise a JSONSink. Notices go to notices.
func New(out, notices io.Writer, styled bool) Sink {
	if styled {
		return NewStyledSink(out, notices)
	}
	return NewJSONSink(out, notices)
}

// JSONSink writes each result as 2-space indented JSON.
type JSONSink struct {
	out     io.Writer
	notices io.Writer
}

// NewJSONSink returns a JSONSink.
func NewJSONSink(out, notices io.Writer) *JSONSink {
	return &JSONSink{out: out, notices: notices}
}

// Emit implements Sink.
func (s *JSONSink) Emit(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Notice implements Sink.
func (s *JSONSink) Notice(format string, args ...any) {
	if s.notices != nil {
		fmt.Fprintf(s.notices, format+"\n", args...)
	}
}

// StyledSink prints results as indented "key: value" lines with colored
// keys and values. Field order follows the value's JSON encoding.
type StyledSink struct {
	out     io.Writer
	notices io.Writer

	key    lipgloss.Style
	str    lipgloss.Style
	scalar lipgloss.Style
	null   lipgloss.Style
	notice lipgloss.Style
}

// NewStyledSink returns a StyledSink. Color support is detected from out.
func NewStyledSink(out, notices io.Writer) *StyledSink {
	r := lipgloss.NewRenderer(out)
	return &StyledSink{
		out:     out,
		notices: notices,
		key:     r.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
		str:     r.NewStyle().Foreground(lipgloss.Color("42")),
		scalar:  r.NewStyle().Foreground(lipgloss.Color("214")),
		null:    r.NewStyle().Foreground(lipgloss.Color("241")),
		notice:  lipgloss.NewRenderer(notices).NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Emit implements Sink.
func (s *StyledSink) Emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	var b strings.Builder
	if err := s.writeValue(&b, data, 0, true); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	if _, err := io.WriteString(s.out, b.String()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Notice implements Sink.
func (s *StyledSink) Notice(format string, args ...any) {
	if s.notices != nil {
		fmt.Fprintln(s.notices, s.notice.Render(fmt.Sprintf(format, args...)))
	}
}

func (s *StyledSink) writeValue(b *strings.Builder, raw json.RawMessage, depth int, top bool) error {
	switch kindOf(raw) {
	case '{':
		return s.writeObject(b, raw, depth)
	case '[':
		return s.writeArray(b, raw, depth)
	default:
		if top {
			b.WriteString(s.renderScalar(raw))
			b.WriteByte('\n')
		}
		return nil
	}
}

func (s *StyledSink) writeObject(b *strings.Builder, raw json.RawMessage, depth int) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return err
		}

		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(s.key.Render(key))
		b.WriteByte(':')
		if isNested(val) {
			b.WriteByte('\n')
			if err := s.writeValue(b, val, depth+1, false); err != nil {
				return err
			}
			continue
		}
		b.WriteByte(' ')
		b.WriteString(s.renderScalar(val))
		b.WriteByte('\n')
	}
	return nil
}

func (s *StyledSink) writeArray(b *strings.Builder, raw json.RawMessage, depth int) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	for _, item := range items {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- ")
		if isNested(item) {
			b.WriteByte('\n')
			if err := s.writeValue(b, item, depth+1, false); err != nil {
				return err
			}
			continue
		}
		b.WriteString(s.renderScalar(item))
		b.WriteByte('\n')
	}
	return nil
}

func (s *StyledSink) renderScalar(raw json.RawMessage) string {
	switch kindOf(raw) {
	case '"':
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			return s.str.Render(str)
		}
	case 'n':
		return s.null.Render("null")
	case '{':
		return "{}"
	case '[':
		return "[]"
	}
	return s.scalar.Render(string(bytes.TrimSpace(raw)))
}

// isNested reports whether raw is a non-empty object or array.
func isNested(raw json.RawMessage) bool {
	switch kindOf(raw) {
	case '{', '[':
		t := bytes.TrimSpace(raw)
		return len(bytes.TrimSpace(t[1:len(t)-1])) > 0
	}
	return false
}

func kindOf(raw json.RawMessage) byte {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return 0
	}
	return t[0]
}
