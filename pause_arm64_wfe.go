//go:build arm64 && rtsync_wfe

package rtsync

// PauseNanos is the nominal duration of a single Pause in nanoseconds.
// WFE parks the core until the event register is set, around 1333 ns on
// typical armv8 cores.
const PauseNanos = 1333

// WFE pauses are three orders of magnitude longer than an amd64 PAUSE,
// so the bursts are short and the long burst is dropped: three phases
// already spin for roughly a third of a millisecond.
const (
	spinPhase1Iters = 2
	spinPhase2Iters = 10
	spinPhase3Iters = 25
	spinPhase3Burst = 10
	spinPhase4Iters = 0
	spinPhase4Burst = 0
)

// Pause executes WFE, parking the core until the next event. It does not
// yield the OS thread and never enters the kernel.
//
//go:noescape
//go:nosplit
func Pause()
