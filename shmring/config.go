package shmring

// Sizing policy constants. Slot size grows with the observed frame size
// (plus headroom, rounded to the alignment) but never past the per-slot cap,
// and the slot count shrinks as slots grow so the whole region stays inside
// the total budget with at least double-buffering.
const (
	sizeHeadroomDivisor = 4         // 25% headroom over the observed frame size
	slotAlignment       = 2 << 20   // slots round up to 2 MiB
	maxSlotSize         = 64 << 20  // hard per-slot cap
	maxTotalBytes       = 128 << 20 // hard cap on slotCount*slotSize
	minSlotCount        = 2
)

// Config is the slot geometry of a ring region, fixed at creation.
type Config struct {
	SlotCount uint32
	SlotSize  uint32
}

// DefaultConfig is the base geometry before any frame has been observed:
// eight slots of 8 MiB, enough for stride-padded 1080p RGBA.
func DefaultConfig() Config {
	return Config{SlotCount: 8, SlotSize: 8 << 20}
}

// ComputeConfig derives the geometry for frames of requiredBytes, starting
// from base. Slot size never shrinks below base and never exceeds the
// per-slot cap; slot count never exceeds base and is floored at two, so the
// total footprint stays within the budget for any input.
func ComputeConfig(requiredBytes uint64, base Config) Config {
	padded := requiredBytes + requiredBytes/sizeHeadroomDivisor
	aligned := (padded + slotAlignment - 1) / slotAlignment * slotAlignment

	slotSize := aligned
	if slotSize > maxSlotSize {
		slotSize = maxSlotSize
	}
	if slotSize < uint64(base.SlotSize) {
		slotSize = uint64(base.SlotSize)
	}
	if slotSize == 0 {
		slotSize = slotAlignment
	}

	slotCount := uint64(base.SlotCount)
	if most := maxTotalBytes / slotSize; most < slotCount {
		slotCount = most
	}
	if slotCount < minSlotCount {
		slotCount = minSlotCount
	}

	return Config{SlotCount: uint32(slotCount), SlotSize: uint32(slotSize)}
}
