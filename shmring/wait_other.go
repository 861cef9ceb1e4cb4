//go:build !linux

package shmring

import (
	"sync/atomic"
	"time"
)

// pollInterval bounds wake latency on platforms without a wait-on-word
// primitive. 1ms keeps worst-case added latency well under a display tick.
const pollInterval = time.Millisecond

// waitOnWord polls the word at addr until it changes away from old or the
// timeout elapses. The futex fast path exists only on linux; everywhere else
// a bounded sleep loop honors the same contract.
func waitOnWord(addr *uint32, old uint32, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for atomic.LoadUint32(addr) == old {
		if !time.Now().Before(deadline) {
			return
		}
		time.Sleep(pollInterval)
	}
}

// wakeWord is a no-op under the polling scheme; sleepers notice the store on
// their next poll.
func wakeWord(_ *uint32) {}
