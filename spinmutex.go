package rtsync

import "sync/atomic"

// SpinMutex is a test-and-set mutex whose Lock spins with progressive
// backoff instead of parking the goroutine in the runtime. Suitable for
// critical sections that are short and never suspend; elsewhere prefer
// sync.Mutex.
//
// The zero value is an unlocked mutex. A SpinMutex must not be copied
// after first use. It implements sync.Locker.
type SpinMutex struct {
	noCopy noCopy
	locked atomic.Bool
}

// Lock acquires the mutex, spinning until it is free.
func (m *SpinMutex) Lock() {
	Wait(func() bool {
		return m.locked.CompareAndSwap(false, true)
	})
}

// TryLock attempts to acquire the mutex without waiting.
func (m *SpinMutex) TryLock() bool {
	return m.locked.CompareAndSwap(false, true)
}

// Unlock releases the mutex. It is a run-time error if the mutex was
// not locked.
func (m *SpinMutex) Unlock() {
	if !m.locked.CompareAndSwap(true, false) {
		panic("unlock of unlocked SpinMutex")
	}
}
