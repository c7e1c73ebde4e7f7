//go:build arm64 && !rtsync_wfe

package rtsync

// PauseNanos is the nominal duration of a single Pause in nanoseconds.
// ISB flushes the pipeline and takes on the order of 10 ns on typical
// armv8 cores. Build with the rtsync_wfe tag to use WFE instead, which
// parks the core for roughly a microsecond per hint.
const PauseNanos = 10

// ISB is ~3.5x shorter than an amd64 PAUSE, so the long burst is scaled
// up to keep the pre-sleep spin budget near one millisecond.
const (
	spinPhase1Iters = 5
	spinPhase2Iters = 10
	spinPhase3Iters = 50
	spinPhase3Burst = 10
	spinPhase4Iters = 20
	spinPhase4Burst = 5000
)

// Pause executes ISB SY, hinting that the core is in a spin-wait loop.
// It does not yield the OS thread and never enters the kernel.
//
//go:noescape
//go:nosplit
func Pause()
