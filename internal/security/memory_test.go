// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 Modnet Authors

package security

import (
	"syscall"
	"testing"
)

func TestDisableCoreDumps(t *testing.T) {
	var before syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_CORE, &before); err != nil {
		t.Skipf("getrlimit unavailable: %v", err)
	}

	if err := DisableCoreDumps(); err != nil {
		t.Fatalf("DisableCoreDumps failed: %v", err)
	}

	var after syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_CORE, &after); err != nil {
		t.Fatal(err)
	}
	if after.Cur != 0 || after.Max != 0 {
		t.Errorf("RLIMIT_CORE = %+v, want 0/0", after)
	}
}

func TestHardenReportsMemoryLock(t *testing.T) {
	r, err := Harden()
	if err != nil {
		t.Fatalf("Harden failed: %v", err)
	}
	if !r.CoreDumpsDisabled {
		t.Error("core dumps should be disabled")
	}
	if r.MemoryLocked == (r.MemoryLockErr != nil) {
		t.Errorf("inconsistent report: locked=%v err=%v", r.MemoryLocked, r.MemoryLockErr)
	}
	if r.MemoryLocked {
		_ = syscall.Munlockall()
	}
}
