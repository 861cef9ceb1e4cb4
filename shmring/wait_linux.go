//go:build linux

package shmring

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Futex operation codes from <linux/futex.h>; golang.org/x/sys/unix exports
// SYS_FUTEX but not the op constants.
const (
	futexWait = 0
	futexWake = 1
)

// waitOnWord parks the calling thread until the word at addr no longer holds
// old, another context wakes it, or timeout elapses. Spurious wakeups are
// fine; every caller re-checks state in a loop. Uses a shared (non-private)
// futex so the region can be mapped by more than one process.
func waitOnWord(addr *uint32, old uint32, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWait),
		uintptr(old),
		uintptr(unsafe.Pointer(&ts)),
		0, 0)
}

// wakeWord wakes every waiter parked on the word at addr.
func wakeWord(addr *uint32) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWake),
		uintptr(int32(1<<31-1)),
		0, 0, 0)
}
