package render

import (
	"sync"
	"testing"
)

// recordingSurface captures Present calls for assertions. Safe for use from
// the pipeline goroutine.
type recordingSurface struct {
	mu       sync.Mutex
	width    int
	height   int
	presents int
	lastPix  []byte
	lastW    int
	lastH    int
}

func newRecordingSurface(width, height int) *recordingSurface {
	return &recordingSurface{width: width, height: height}
}

func (s *recordingSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *recordingSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

func (s *recordingSurface) Present(pix []byte, width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presents++
	s.lastPix = append(s.lastPix[:0], pix...)
	s.lastW, s.lastH = width, height
}

func (s *recordingSurface) snapshot() (presents, w, h int, pix []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presents, s.lastW, s.lastH, append([]byte(nil), s.lastPix...)
}

func TestSoftwareRendererRequiresInit(t *testing.T) {
	t.Parallel()
	r := NewSoftwareRenderer()
	if err := r.RenderRGBA(nil, 1, 1, 4); err == nil {
		t.Error("RenderRGBA before Init should fail")
	}
	if err := r.Init(nil); err == nil {
		t.Error("Init(nil) should fail")
	}
}

func TestSoftwareRendererTightStridePassesThrough(t *testing.T) {
	t.Parallel()
	surface := newRecordingSurface(2, 2)
	r := NewSoftwareRenderer()
	if err := r.Init(surface); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	pix := []byte{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}
	if err := r.RenderRGBA(pix, 2, 2, 8); err != nil {
		t.Fatalf("RenderRGBA failed: %v", err)
	}
	presents, w, h, got := surface.snapshot()
	if presents != 1 || w != 2 || h != 2 {
		t.Errorf("Present called %d times at %dx%d, want once at 2x2", presents, w, h)
	}
	if len(got) != len(pix) || got[0] != 1 || got[15] != 16 {
		t.Errorf("presented pixels differ from input")
	}
}

func TestSoftwareRendererNormalizesPaddedStride(t *testing.T) {
	t.Parallel()
	surface := newRecordingSurface(1, 2)
	r := NewSoftwareRenderer()
	if err := r.Init(surface); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// 1x2 with stride 8: 4 pixel bytes then 4 padding bytes per row.
	pix := []byte{
		1, 2, 3, 4, 0xEE, 0xEE, 0xEE, 0xEE,
		5, 6, 7, 8, 0xEE, 0xEE, 0xEE, 0xEE,
	}
	if err := r.RenderRGBA(pix, 1, 2, 8); err != nil {
		t.Fatalf("RenderRGBA failed: %v", err)
	}
	_, _, _, got := surface.snapshot()
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if len(got) != len(want) {
		t.Fatalf("presented %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("presented[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSoftwareRendererNV12(t *testing.T) {
	t.Parallel()
	surface := newRecordingSurface(2, 2)
	r := NewSoftwareRenderer()
	if err := r.Init(surface); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// Uniform video-white NV12.
	pix := []byte{235, 235, 235, 235, 128, 128}
	if err := r.RenderNV12(pix, 2, 2, 2); err != nil {
		t.Fatalf("RenderNV12 failed: %v", err)
	}
	_, w, h, got := surface.snapshot()
	if w != 2 || h != 2 || len(got) != 16 {
		t.Fatalf("presented %d bytes at %dx%d, want 16 at 2x2", len(got), w, h)
	}
	for px := 0; px < 4; px++ {
		o := px * 4
		if got[o] != 255 || got[o+1] != 255 || got[o+2] != 255 || got[o+3] != 255 {
			t.Errorf("pixel %d = (%d,%d,%d,%d), want white", px, got[o], got[o+1], got[o+2], got[o+3])
		}
	}
}
