// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

// Package security applies process-level protections before secret
// phrases or vault passwords are held in memory.
package security

import (
	"fmt"
	"os"
	"syscall"
)

// LockMemory attempts to lock all memory pages to prevent swapping to disk
func LockMemory() error {
	if err := syscall.Mlockall(syscall.MCL_CURRENT | syscall.MCL_FUTURE); err != nil {
		return fmt.Errorf("mlockall failed: %w (grant with: sudo setcap cap_ipc_lock+ep %s)", err, os.Args[0])
	}
	return nil
}

// DisableCoreDumps prevents core dumps which could leak secret phrases
func DisableCoreDumps() error {
	var rlimit syscall.Rlimit
	rlimit.Max = 0
	rlimit.Cur = 0
	if err := syscall.Setrlimit(syscall.RLIMIT_CORE, &rlimit); err != nil {
		return fmt.Errorf("failed to disable core dumps: %w", err)
	}
	return nil
}

// Report is the outcome of Harden.
type Report struct {
	CoreDumpsDisabled bool
	MemoryLocked      bool
	// MemoryLockErr is set when mlock was refused; it does not fail Harden.
	MemoryLockErr error
}

// Harden disables core dumps and makes a best-effort attempt to lock
// memory. Only a failure to disable core dumps is returned as an error;
// unprivileged users commonly cannot mlock.
func Harden() (Report, error) {
	var r Report
	if err := DisableCoreDumps(); err != nil {
		return r, err
	}
	r.CoreDumpsDisabled = true

	if err := LockMemory(); err != nil {
		r.MemoryLockErr = err
		return r, nil
	}
	r.MemoryLocked = true
	return r, nil
}
