package render

import (
	"errors"

	"github.com/framegate/framegate/frame"
)

// SoftwareRenderer is the pixel-buffer fallback path: all conversion and
// stride normalization happens on the CPU before handing contiguous RGBA to
// the surface. It works against any Surface, which is what makes it the
// universal fallback when the GPU path refuses to initialize.
type SoftwareRenderer struct {
	surface Surface

	// buf is the cached conversion target, grown to the largest frame seen
	// so steady-state rendering allocates nothing.
	buf []byte
}

// NewSoftwareRenderer returns an uninitialized software renderer.
func NewSoftwareRenderer() *SoftwareRenderer {
	return &SoftwareRenderer{}
}

var errNotInitialized = errors.New("render: renderer not initialized")

// Init binds the renderer to its surface.
func (r *SoftwareRenderer) Init(surface Surface) error {
	if surface == nil {
		return errors.New("render: nil surface")
	}
	r.surface = surface
	return nil
}

// RenderRGBA presents an RGBA frame, copying row-by-row only when the
// stride is padded.
func (r *SoftwareRenderer) RenderRGBA(pix []byte, width, height, stride int) error {
	if r.surface == nil {
		return errNotInitialized
	}
	if stride == width*4 {
		r.surface.Present(pix, width, height)
		return nil
	}
	out := r.scratch(width * height * 4)
	frame.NormalizeStride(pix, width, height, stride, out)
	r.surface.Present(out, width, height)
	return nil
}

// RenderNV12 converts to RGBA on the CPU and presents.
func (r *SoftwareRenderer) RenderNV12(pix []byte, width, height, yStride int) error {
	if r.surface == nil {
		return errNotInitialized
	}
	out := r.scratch(width * height * 4)
	lumaLen := yStride * height
	if lumaLen > len(pix) {
		lumaLen = len(pix)
	}
	frame.NV12ToRGBA(pix[:lumaLen], pix[lumaLen:], width, height, yStride, out)
	r.surface.Present(out, width, height)
	return nil
}

// Dispose drops the surface binding and cached buffers.
func (r *SoftwareRenderer) Dispose() {
	r.surface = nil
	r.buf = nil
}

func (r *SoftwareRenderer) scratch(n int) []byte {
	if cap(r.buf) < n {
		r.buf = make([]byte, n)
	}
	return r.buf[:n]
}
