// Package shmring implements the single-producer/single-consumer shared-memory
// slot protocol that carries video frames from the decoder to the render
// pipeline. All cross-context coordination happens through atomic operations
// on 32-bit words inside one contiguous byte region; there is no lock.
package shmring

import (
	"errors"
	"fmt"
	"unsafe"
)

// Version is the protocol version stamped into the control block. Attach
// refuses a region carrying any other value.
const Version uint32 = 1

// Slot states. A slot cycles EMPTY → WRITING → READY → READING → EMPTY,
// every transition made by compare-and-swap on the slot's state word, so
// exactly one side owns a slot's data bytes at a time.
const (
	slotEmpty uint32 = iota
	slotWriting
	slotReady
	slotReading
)

// Control block layout: eight u32 words at the start of the region.
const (
	wordWriteIdx = iota
	wordReadIdx
	wordShutdown
	wordSlotCount
	wordSlotSize
	wordMetaOff
	wordDataOff
	wordVersion

	headerWords = 8
	headerBytes = headerWords * 4
)

// Metadata table: three u32 words per slot.
const (
	metaLen = iota
	metaNumber
	metaState

	metaWordsPerSlot = 3
	metaBytesPerSlot = metaWordsPerSlot * 4
)

var (
	// ErrVersionMismatch is returned by Attach when the control block was
	// written by an incompatible protocol version.
	ErrVersionMismatch = errors.New("shmring: protocol version mismatch")
	// ErrBadLayout is returned when the control block's geometry is invalid
	// or inconsistent with the region size.
	ErrBadLayout = errors.New("shmring: invalid region layout")
)

// RegionSize returns the byte size of a region laid out for cfg.
func RegionSize(cfg Config) int {
	return headerBytes + int(cfg.SlotCount)*metaBytesPerSlot + int(cfg.SlotCount)*int(cfg.SlotSize)
}

// validateConfig rejects geometries the protocol cannot operate on. Two
// slots is the floor: with fewer, producer and consumer would contend for
// the same slot under normal operation.
func validateConfig(cfg Config) error {
	if cfg.SlotCount < minSlotCount {
		return fmt.Errorf("%w: slot count %d, need at least %d", ErrBadLayout, cfg.SlotCount, minSlotCount)
	}
	if cfg.SlotSize == 0 {
		return fmt.Errorf("%w: zero slot size", ErrBadLayout)
	}
	return nil
}

// wordAt returns the u32 word at the given byte offset of mem. Offsets are
// 4-aligned by construction; Attach verifies the base address alignment.
func wordAt(mem []byte, off uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&mem[off]))
}
