package render

import "github.com/framegate/framegate/frame"

// frameQueue is the small bounded buffer of decoded-but-not-yet-drawn
// payloads used while the renderer mode is still pending. It prefers the
// newest frame by frame number, never strict arrival order: pushing past
// capacity evicts the oldest queued frame, and draining hands back only the
// newest.
type frameQueue struct {
	limit  int
	frames []queuedFrame
}

type queuedFrame struct {
	payload []byte // private copy, trailer included
	number  uint32
}

func newFrameQueue(limit int) *frameQueue {
	return &frameQueue{limit: limit}
}

// push copies nothing; the caller hands over ownership of payload. Returns
// how many queued frames were evicted to stay within the bound.
func (q *frameQueue) push(payload []byte, number uint32) int {
	q.frames = append(q.frames, queuedFrame{payload: payload, number: number})
	evicted := 0
	for len(q.frames) > q.limit {
		oldest := 0
		for i := 1; i < len(q.frames); i++ {
			if frame.IsNewer(q.frames[oldest].number, q.frames[i].number) {
				oldest = i
			}
		}
		q.frames = append(q.frames[:oldest], q.frames[oldest+1:]...)
		evicted++
	}
	return evicted
}

// takeNewest drains the queue, returning the newest payload by frame number
// and the count of older frames discarded alongside it.
func (q *frameQueue) takeNewest() (payload []byte, number uint32, ok bool, dropped int) {
	if len(q.frames) == 0 {
		return nil, 0, false, 0
	}
	newest := 0
	for i := 1; i < len(q.frames); i++ {
		if frame.IsNewer(q.frames[i].number, q.frames[newest].number) {
			newest = i
		}
	}
	payload, number = q.frames[newest].payload, q.frames[newest].number
	dropped = len(q.frames) - 1
	q.frames = q.frames[:0]
	return payload, number, true, dropped
}

func (q *frameQueue) reset() {
	q.frames = q.frames[:0]
}

func (q *frameQueue) len() int { return len(q.frames) }
