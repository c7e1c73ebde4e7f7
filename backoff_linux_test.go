//go:build linux

package rtsync

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func threadCPUTime(t *testing.T) time.Duration {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_THREAD, &ru); err != nil {
		t.Fatalf("getrusage: %v", err)
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}

// A long wait must burn only the spin budget (~1 ms) of CPU time; the
// remainder is spent sleeping.
func TestWaitCPUBudget(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var flag atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		flag.Store(true)
	}()

	before := threadCPUTime(t)
	Wait(flag.Load)
	burned := threadCPUTime(t) - before

	// Nominal spin budget is ~1 ms; allow generous headroom for predicate
	// cost and scheduler noise so the test stays stable on loaded machines.
	if burned > 20*time.Millisecond {
		t.Fatalf("burned %v of CPU over a 50ms wait (spin budget blown)", burned)
	}
}
