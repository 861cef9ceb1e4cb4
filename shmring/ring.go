package shmring

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"
)

// DefaultTimeout is the read-side blocking budget when the caller has no
// opinion: long enough to park instead of spin, short enough that shutdown
// and seeks stay responsive.
const DefaultTimeout = 100 * time.Millisecond

// claimAttempts bounds how many wait-and-resweep rounds a read-side claim
// makes before reporting no frame.
const claimAttempts = 3

// indexRetries bounds the CAS loop that advances a shared index. The index
// is a probe hint, not ground truth (a sweep always covers every slot), so
// giving up after a bounded number of attempts is benign.
const indexRetries = 8

// Ring is one producer-or-consumer view over a shared slot region. The
// protocol is strictly single producer, single consumer: nothing here
// polices multiple concurrent readers or writers, that is a contract
// requirement on callers.
type Ring struct {
	mem       []byte
	slotCount uint32
	slotSize  uint32
	metaOff   uint32
	dataOff   uint32
	closer    func() error

	// frameCounter is producer-local, incremented per Write and stored in
	// the slot metadata so diagnostics can spot gaps.
	frameCounter uint32
}

// Create allocates and initializes a fresh shared region for cfg and returns
// the producer-side view. Geometry is fixed for the life of the region;
// growing means creating a new region via ComputeConfig and migrating.
func Create(cfg Config) (*Ring, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	mem, closer, err := allocRegion(RegionSize(cfg))
	if err != nil {
		return nil, fmt.Errorf("shmring: allocate region: %w", err)
	}

	metaOff := uint32(headerBytes)
	dataOff := metaOff + cfg.SlotCount*metaBytesPerSlot

	atomic.StoreUint32(wordAt(mem, wordWriteIdx*4), 0)
	atomic.StoreUint32(wordAt(mem, wordReadIdx*4), 0)
	atomic.StoreUint32(wordAt(mem, wordShutdown*4), 0)
	atomic.StoreUint32(wordAt(mem, wordSlotCount*4), cfg.SlotCount)
	atomic.StoreUint32(wordAt(mem, wordSlotSize*4), cfg.SlotSize)
	atomic.StoreUint32(wordAt(mem, wordMetaOff*4), metaOff)
	atomic.StoreUint32(wordAt(mem, wordDataOff*4), dataOff)
	atomic.StoreUint32(wordAt(mem, wordVersion*4), Version)

	return &Ring{
		mem:       mem,
		slotCount: cfg.SlotCount,
		slotSize:  cfg.SlotSize,
		metaOff:   metaOff,
		dataOff:   dataOff,
		closer:    closer,
	}, nil
}

// Attach wraps an existing region (the consumer side of a Create, or a
// region handed over from another process). Protocol violations here are
// construction-time failures, never deferred.
func Attach(mem []byte) (*Ring, error) {
	if len(mem) < headerBytes {
		return nil, fmt.Errorf("%w: region %d bytes, need %d header bytes", ErrBadLayout, len(mem), headerBytes)
	}
	if uintptr(unsafe.Pointer(&mem[0]))%4 != 0 {
		return nil, fmt.Errorf("%w: region base not word-aligned", ErrBadLayout)
	}
	if v := atomic.LoadUint32(wordAt(mem, wordVersion*4)); v != Version {
		return nil, fmt.Errorf("%w: region version %d, this build speaks %d", ErrVersionMismatch, v, Version)
	}

	slotCount := atomic.LoadUint32(wordAt(mem, wordSlotCount*4))
	slotSize := atomic.LoadUint32(wordAt(mem, wordSlotSize*4))
	if err := validateConfig(Config{SlotCount: slotCount, SlotSize: slotSize}); err != nil {
		return nil, err
	}

	metaOff := atomic.LoadUint32(wordAt(mem, wordMetaOff*4))
	dataOff := atomic.LoadUint32(wordAt(mem, wordDataOff*4))
	if metaOff < headerBytes || dataOff < metaOff+slotCount*metaBytesPerSlot {
		return nil, fmt.Errorf("%w: table offsets overlap (meta %d, data %d)", ErrBadLayout, metaOff, dataOff)
	}
	if uint64(dataOff)+uint64(slotCount)*uint64(slotSize) > uint64(len(mem)) {
		return nil, fmt.Errorf("%w: region %d bytes too small for %d slots of %d", ErrBadLayout, len(mem), slotCount, slotSize)
	}

	return &Ring{
		mem:       mem,
		slotCount: slotCount,
		slotSize:  slotSize,
		metaOff:   metaOff,
		dataOff:   dataOff,
	}, nil
}

// Bytes exposes the raw region so it can be handed to the other side for
// Attach.
func (r *Ring) Bytes() []byte { return r.mem }

// SlotSize returns the fixed per-slot payload capacity.
func (r *Ring) SlotSize() int { return int(r.slotSize) }

// Close releases the region mapping on the creating side. Attached views
// have nothing to release.
func (r *Ring) Close() error {
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c()
}

func (r *Ring) word(idx int) *uint32 {
	return wordAt(r.mem, uint32(idx)*4)
}

func (r *Ring) metaWord(slot uint32, field int) *uint32 {
	return wordAt(r.mem, r.metaOff+slot*metaBytesPerSlot+uint32(field)*4)
}

func (r *Ring) slotData(slot uint32) []byte {
	off := r.dataOff + slot*r.slotSize
	return r.mem[off : off+r.slotSize : off+r.slotSize]
}

// IsShutdown reports whether SignalShutdown has been observed.
func (r *Ring) IsShutdown() bool {
	return atomic.LoadUint32(r.word(wordShutdown)) != 0
}

// SignalShutdown sets the shutdown flag and wakes every slot's waiters so
// blocked consumers exit instead of hanging. Idempotent; after it is
// observed, all read-family calls return no-frame immediately.
func (r *Ring) SignalShutdown() {
	atomic.StoreUint32(r.word(wordShutdown), 1)
	for slot := uint32(0); slot < r.slotCount; slot++ {
		wakeWord(r.metaWord(slot, metaState))
	}
}

// Write copies payload into a free slot and publishes it. It returns false
// only when payload exceeds the slot size; a full ring is not a failure.
//
// When a full sweep finds no EMPTY slot, Write reclaims the first READY slot
// instead: the oldest unread frame is evicted so a stalled consumer never
// blocks the producer.
func (r *Ring) Write(payload []byte) bool {
	if uint32(len(payload)) > r.slotSize {
		return false
	}

	slot := r.claimWritable()
	copy(r.slotData(slot), payload)
	atomic.StoreUint32(r.metaWord(slot, metaLen), uint32(len(payload)))
	r.frameCounter++
	atomic.StoreUint32(r.metaWord(slot, metaNumber), r.frameCounter)

	r.advanceIndex(wordWriteIdx, slot)

	// Publish last: the READY store is what transfers slot ownership, so
	// every byte above must land first.
	atomic.StoreUint32(r.metaWord(slot, metaState), slotReady)
	wakeWord(r.metaWord(slot, metaState))
	return true
}

// claimWritable returns a slot held in WRITING. The single-producer contract
// guarantees termination: at most one slot is READING at a time, so a sweep
// over EMPTY then READY slots can only come up dry transiently.
func (r *Ring) claimWritable() uint32 {
	for {
		start := atomic.LoadUint32(r.word(wordWriteIdx))
		for i := uint32(0); i < r.slotCount; i++ {
			slot := (start + i) % r.slotCount
			if atomic.CompareAndSwapUint32(r.metaWord(slot, metaState), slotEmpty, slotWriting) {
				return slot
			}
		}
		// Ring full: evict the oldest unread frame.
		for i := uint32(0); i < r.slotCount; i++ {
			slot := (start + i) % r.slotCount
			if atomic.CompareAndSwapUint32(r.metaWord(slot, metaState), slotReady, slotWriting) {
				return slot
			}
		}
		runtime.Gosched()
	}
}

// advanceIndex moves the shared index at word past the consumed slot. Only
// the exact expected value is advanced: if the index moved at all, a
// concurrent drain (borrow-then-bypass-read) already got there, and that
// counts as success. Retrying further could move the index backward across
// the wrap.
func (r *Ring) advanceIndex(word int, slot uint32) {
	next := (slot + 1) % r.slotCount
	ptr := r.word(word)
	for i := 0; i < indexRetries; i++ {
		cur := atomic.LoadUint32(ptr)
		if cur != slot {
			return
		}
		if atomic.CompareAndSwapUint32(ptr, slot, next) {
			return
		}
	}
}

// claimReadable returns a slot held in READING, sweeping from the shared
// read index and parking on the read-index slot's state word between
// attempts. Reports no-frame on timeout or shutdown.
func (r *Ring) claimReadable(timeout time.Duration) (uint32, bool) {
	deadline := time.Now().Add(timeout)
	for attempt := 0; attempt < claimAttempts; attempt++ {
		if r.IsShutdown() {
			return 0, false
		}
		start := atomic.LoadUint32(r.word(wordReadIdx))
		for i := uint32(0); i < r.slotCount; i++ {
			slot := (start + i) % r.slotCount
			if atomic.CompareAndSwapUint32(r.metaWord(slot, metaState), slotReady, slotReading) {
				return slot, true
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, false
		}
		slot := atomic.LoadUint32(r.word(wordReadIdx)) % r.slotCount
		state := r.metaWord(slot, metaState)
		if cur := atomic.LoadUint32(state); cur != slotReady {
			waitOnWord(state, cur, remaining)
		}
		if r.IsShutdown() {
			return 0, false
		}
	}
	return 0, false
}

// releaseSlot returns a consumed slot to EMPTY and advances the read index
// past it.
func (r *Ring) releaseSlot(slot uint32) {
	atomic.StoreUint32(r.metaWord(slot, metaState), slotEmpty)
	r.advanceIndex(wordReadIdx, slot)
}

// validFrameLen guards against corrupted metadata before any data bytes are
// touched: a frame longer than the slot would read out of bounds.
func (r *Ring) validFrameLen(n uint32) bool {
	return n > 0 && n <= r.slotSize
}

// Read claims the next ready frame and returns a private copy of its bytes.
// A corrupt length releases the slot and reports no-frame rather than
// reading out-of-bounds memory. Returns no-frame on timeout or shutdown.
func (r *Ring) Read(timeout time.Duration) ([]byte, bool) {
	slot, ok := r.claimReadable(timeout)
	if !ok {
		return nil, false
	}
	n := atomic.LoadUint32(r.metaWord(slot, metaLen))
	if !r.validFrameLen(n) {
		r.releaseSlot(slot)
		return nil, false
	}
	out := make([]byte, n)
	copy(out, r.slotData(slot)[:n])
	r.releaseSlot(slot)
	return out, true
}

// ReadInto is Read without the allocation: the frame is copied into dst and
// its length returned. A frame larger than dst counts as failed validation;
// the slot is still released and skipped, so one poisoned slot cannot wedge
// the consumer.
func (r *Ring) ReadInto(dst []byte, timeout time.Duration) (int, bool) {
	slot, ok := r.claimReadable(timeout)
	if !ok {
		return 0, false
	}
	n := atomic.LoadUint32(r.metaWord(slot, metaLen))
	if !r.validFrameLen(n) || n > uint32(len(dst)) {
		r.releaseSlot(slot)
		return 0, false
	}
	copy(dst, r.slotData(slot)[:n])
	r.releaseSlot(slot)
	return int(n), true
}

// BorrowedFrame is a zero-copy view into a slot held in READING. The slot
// stays off-limits to the producer until Release, so the bytes are stable
// for exactly that window.
type BorrowedFrame struct {
	Bytes    []byte
	ring     *Ring
	slot     uint32
	released atomic.Bool
}

// Release returns the slot to the ring. Idempotent: the second and later
// calls are no-ops.
func (b *BorrowedFrame) Release() {
	if !b.released.CompareAndSwap(false, true) {
		return
	}
	b.ring.releaseSlot(b.slot)
}

// Borrow claims the next ready frame as a live view into shared memory,
// skipping the copy entirely. The preferred path for a renderer that can
// consume straight from the region, provided it finishes before Release.
func (r *Ring) Borrow(timeout time.Duration) (*BorrowedFrame, bool) {
	slot, ok := r.claimReadable(timeout)
	if !ok {
		return nil, false
	}
	n := atomic.LoadUint32(r.metaWord(slot, metaLen))
	if !r.validFrameLen(n) {
		r.releaseSlot(slot)
		return nil, false
	}
	return &BorrowedFrame{
		Bytes: r.slotData(slot)[:n],
		ring:  r,
		slot:  slot,
	}, true
}

// SlotInfo is one slot's metadata snapshot.
type SlotInfo struct {
	Len    uint32
	Number uint32
	State  uint32
}

// State is a point-in-time diagnostic snapshot of the control block and
// metadata table, for logging. Values are individually atomic, not a
// consistent cut.
type State struct {
	WriteIdx uint32
	ReadIdx  uint32
	Shutdown bool
	Slots    []SlotInfo
}

// State snapshots the ring for diagnostics.
func (r *Ring) State() State {
	s := State{
		WriteIdx: atomic.LoadUint32(r.word(wordWriteIdx)),
		ReadIdx:  atomic.LoadUint32(r.word(wordReadIdx)),
		Shutdown: r.IsShutdown(),
		Slots:    make([]SlotInfo, r.slotCount),
	}
	for slot := uint32(0); slot < r.slotCount; slot++ {
		s.Slots[slot] = SlotInfo{
			Len:    atomic.LoadUint32(r.metaWord(slot, metaLen)),
			Number: atomic.LoadUint32(r.metaWord(slot, metaNumber)),
			State:  atomic.LoadUint32(r.metaWord(slot, metaState)),
		}
	}
	return s
}
