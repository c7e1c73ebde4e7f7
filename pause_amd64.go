//go:build amd64

package rtsync

// PauseNanos is the nominal duration of a single Pause in nanoseconds,
// as benchmarked on recent Intel cores.
const PauseNanos = 35

// Spin-phase schedule for Wait. Iterations per phase and PAUSE count per
// iteration, tuned so spinning totals roughly one millisecond on a 3 GHz
// core before Wait escalates to sleeping.
const (
	spinPhase1Iters = 5
	spinPhase2Iters = 10
	spinPhase3Iters = 50
	spinPhase3Burst = 10
	spinPhase4Iters = 20
	spinPhase4Burst = 500
)

// Pause executes the PAUSE instruction. When executing a spin-wait loop,
// processors suffer a severe performance penalty when exiting the loop
// because they detect a possible memory order violation. Pause hints to
// the processor that the code sequence is a spin-wait loop, which avoids
// the violation in most situations. It does not yield the OS thread and
// never enters the kernel.
//
//go:noescape
//go:nosplit
func Pause()
