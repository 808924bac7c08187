// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package crypto

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

func TestZeroBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"single byte", []byte{0xFF}},
		{"derived key", bytes.Repeat([]byte{0xAB}, keyLen)},
		{"large buffer", bytes.Repeat([]byte{0xEF}, 4096)},
		{"empty", []byte{}},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ZeroBytes(tt.data)
			for i, b := range tt.data {
				if b != 0 {
					t.Fatalf("byte %d not zeroed: %#x", i, b)
				}
			}
		})
	}
}

func TestPasswordCopiesInput(t *testing.T) {
	src := []byte("hunter2")
	p := NewPassword(src)
	ZeroBytes(src)

	err := p.Use(func(b []byte) error {
		if string(b) != "hunter2" {
			return fmt.Errorf("got %q", b)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Use: %v", err)
	}
}

func TestPasswordDestroy(t *testing.T) {
	p := NewPassword([]byte("hunter2"))
	if p.Empty() {
		t.Fatal("new password should not be empty")
	}

	var inner []byte
	_ = p.Use(func(b []byte) error { inner = b; return nil })
	p.Destroy()

	if !p.Empty() {
		t.Error("destroyed password should be empty")
	}
	for _, b := range inner {
		if b != 0 {
			t.Fatal("Destroy did not zero the backing array")
		}
	}
	if got := fmt.Sprintf("%v", p); got != "[REDACTED]" {
		t.Errorf("String() = %q", got)
	}
}

func TestPasswordConcurrentUse(t *testing.T) {
	p := NewPassword([]byte("pw"))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Use(func(b []byte) error { _ = len(b); return nil })
		}()
	}
	wg.Wait()
	p.Destroy()
}
