package render

import "testing"

func TestQueueEvictsOldestPastLimit(t *testing.T) {
	t.Parallel()
	q := newFrameQueue(3)
	evicted := 0
	for n := uint32(1); n <= 5; n++ {
		evicted += q.push([]byte{byte(n)}, n)
	}
	if evicted != 2 {
		t.Errorf("evicted = %d, want 2", evicted)
	}
	if q.len() != 3 {
		t.Errorf("queue length = %d, want 3", q.len())
	}

	payload, number, ok, dropped := q.takeNewest()
	if !ok || number != 5 || payload[0] != 5 {
		t.Errorf("takeNewest = (%v, %d), want frame 5", ok, number)
	}
	if dropped != 2 {
		t.Errorf("dropped alongside = %d, want 2", dropped)
	}
	if q.len() != 0 {
		t.Errorf("queue not drained, %d left", q.len())
	}
}

func TestQueueNewestWinsAcrossWrap(t *testing.T) {
	t.Parallel()
	q := newFrameQueue(2)
	q.push(nil, 0xFFFFFFFE)
	q.push(nil, 0xFFFFFFFF)
	q.push(nil, 1) // wrapped, but newest

	_, number, ok, _ := q.takeNewest()
	if !ok || number != 1 {
		t.Errorf("takeNewest = (%v, %d), want wrapped frame 1", ok, number)
	}
}

func TestQueueEmptyTake(t *testing.T) {
	t.Parallel()
	q := newFrameQueue(2)
	if _, _, ok, _ := q.takeNewest(); ok {
		t.Error("takeNewest on empty queue reported a frame")
	}
}

func TestQueueReset(t *testing.T) {
	t.Parallel()
	q := newFrameQueue(2)
	q.push(nil, 1)
	q.reset()
	if q.len() != 0 {
		t.Errorf("length after reset = %d, want 0", q.len())
	}
}
