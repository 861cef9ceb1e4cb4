//go:build linux

package shmring

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// allocRegion maps an anonymous shared-memory region of the given size via
// memfd+mmap, so the same physical pages can back both the producer and
// consumer views (including across a fork). Returns the mapping and an
// unmap closer.
func allocRegion(size int) ([]byte, func() error, error) {
	fd, err := unix.MemfdCreate("framegate-ring", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, nil, fmt.Errorf("memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, nil, fmt.Errorf("ftruncate: %w", err)
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, nil, fmt.Errorf("mmap: %w", err)
	}
	// The mapping keeps the pages alive; the descriptor is no longer needed.
	unix.Close(fd)
	return mem, func() error { return unix.Munmap(mem) }, nil
}
