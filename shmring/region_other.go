//go:build !linux

package shmring

import "unsafe"

// allocRegion allocates a word-aligned heap region. Without a portable
// shared-mapping primitive the region is process-local, which covers the
// in-process producer/consumer arrangement; both sides attach to the same
// slice.
func allocRegion(size int) ([]byte, func() error, error) {
	words := make([]uint32, (size+3)/4)
	mem := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
	return mem, func() error { return nil }, nil
}
