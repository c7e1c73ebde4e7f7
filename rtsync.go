// Package rtsync provides low-latency synchronization primitives for
// coordinating a hard-real-time goroutine (e.g. an audio callback) with
// ordinary goroutines.
//
// The building blocks are a platform-tuned CPU spin hint (Pause), a
// progressive-backoff wait on an arbitrary predicate (Wait), an
// epoch-based reclaim object with wait-free readers (RCU), two spin
// notifier variants (SpinCond, SpinSem), a spin mutex and a seqlock.
//
// Readers of an RCU never block and never allocate. Writers may block
// other writers but never block readers. Only amd64 and arm64 are
// supported; other architectures fail to build.
package rtsync

// noCopy is embedded into types that must not be copied after first use.
// go vet's copylocks check reports copies of any struct containing it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
