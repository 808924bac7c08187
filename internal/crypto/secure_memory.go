// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package crypto

import (
	"crypto/subtle"
	"runtime"
	"sync"
)

// ZeroBytes overwrites b with zeros in a way the compiler will not elide.
func ZeroBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	runtime.KeepAlive(b)
}

// Password holds a vault password outside of Go's immutable strings so it
// can be wiped once the vault operation finishes.
type Password struct {
	mu   sync.RWMutex
	data []byte
}

// NewPassword copies b; the caller may zero its own slice afterwards.
func NewPassword(b []byte) *Password {
	data := make([]byte, len(b))
	copy(data, b)
	return &Password{data: data}
}

// Use calls fn with the password bytes. fn must not retain the slice.
func (p *Password) Use(fn func([]byte) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fn(p.data)
}

// Empty reports whether the password has no bytes (or was destroyed).
func (p *Password) Empty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.data) == 0
}

// Destroy zeroes the password. The Password must not be used afterwards.
func (p *Password) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	ZeroBytes(p.data)
	p.data = nil
}

// String never reveals the password.
func (p *Password) String() string {
	return "[REDACTED]"
}
