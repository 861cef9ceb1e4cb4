package frame

// Frame-number sequencing over wrapping 32-bit counters.
//
// Producer frame numbers are monotone but reset on seeks, and they wrap. A
// naive candidate < latest comparison both mishandles wraparound and cannot
// tell "slightly out of order, keep playback smooth" from "user scrubbed
// backward, must redraw". The stale window is the boundary between the two.

// ForwardDelta returns how far candidate is ahead of reference in wrapping
// 32-bit space.
func ForwardDelta(candidate, reference uint32) uint32 {
	return candidate - reference
}

// IsNewer reports whether candidate is ahead of reference by less than half
// the number space, the standard sequence-number wraparound comparison.
func IsNewer(candidate, reference uint32) bool {
	d := ForwardDelta(candidate, reference)
	return d != 0 && d < 1<<31
}

// ShouldDrop classifies candidate against the last accepted reference:
// duplicates drop, forward progress always keeps, and backward candidates
// drop only when within staleWindow; further back is a legitimate seek.
func ShouldDrop(candidate, reference, staleWindow uint32) bool {
	if candidate == reference {
		return true
	}
	if IsNewer(candidate, reference) {
		return false
	}
	return ForwardDelta(reference, candidate) <= staleWindow
}

// Ref is an optional frame-number reference. The zero value means "unset",
// as after a playback reset or before the first frame.
type Ref struct {
	Number uint32
	Valid  bool
}

// Order is the outcome of a sequencing decision: whether to draw the
// candidate, the reference to carry forward, and how many drops to count.
type Order struct {
	Accept bool
	Latest Ref
	Drops  int
}

// DecideOrder applies ShouldDrop with the edge cases around missing values:
// no candidate accepts trivially and keeps the reference, the first frame
// ever seeds it, and an accepted candidate becomes the new reference.
func DecideOrder(candidate, latest Ref, staleWindow uint32) Order {
	if !candidate.Valid {
		return Order{Accept: true, Latest: latest}
	}
	if !latest.Valid {
		return Order{Accept: true, Latest: candidate}
	}
	if ShouldDrop(candidate.Number, latest.Number, staleWindow) {
		return Order{Accept: false, Latest: latest, Drops: 1}
	}
	return Order{Accept: true, Latest: candidate}
}
