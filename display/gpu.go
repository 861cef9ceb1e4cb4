package display

import (
	"errors"
	"fmt"

	"github.com/framegate/framegate/frame"
	"github.com/framegate/framegate/render"
)

// GPURenderer renders through a Window's texture-upload path. Init refuses
// a surface that is not a GPU window, and refuses to start when no capable
// display is available, which lets the pipeline fall back to software.
type GPURenderer struct {
	win *Window
	buf []byte
}

// NewGPURenderer returns an uninitialized GPU renderer candidate.
func NewGPURenderer() *GPURenderer {
	return &GPURenderer{}
}

// Init binds to the window surface, refusing anything else.
func (g *GPURenderer) Init(surface render.Surface) error {
	win, ok := surface.(*Window)
	if !ok {
		return fmt.Errorf("display: surface %T is not a GPU window", surface)
	}
	if !Supported() {
		return errors.New("display: no GPU-capable display available")
	}
	g.win = win
	return nil
}

// RenderRGBA uploads an RGBA frame, normalizing padded strides into the
// cached staging buffer first since the texture upload wants packed rows.
func (g *GPURenderer) RenderRGBA(pix []byte, width, height, stride int) error {
	if g.win == nil {
		return errors.New("display: gpu renderer not initialized")
	}
	if stride == width*4 {
		g.win.Present(pix, width, height)
		return nil
	}
	out := g.scratch(width * height * 4)
	frame.NormalizeStride(pix, width, height, stride, out)
	g.win.Present(out, width, height)
	return nil
}

// RenderNV12 converts to RGBA into the staging buffer, then uploads. The
// texture path takes packed RGBA only, so the color conversion runs on the
// CPU even on the GPU path.
func (g *GPURenderer) RenderNV12(pix []byte, width, height, yStride int) error {
	if g.win == nil {
		return errors.New("display: gpu renderer not initialized")
	}
	out := g.scratch(width * height * 4)
	lumaLen := yStride * height
	if lumaLen > len(pix) {
		lumaLen = len(pix)
	}
	frame.NV12ToRGBA(pix[:lumaLen], pix[lumaLen:], width, height, yStride, out)
	g.win.Present(out, width, height)
	return nil
}

// Dispose drops the window binding and staging buffer.
func (g *GPURenderer) Dispose() {
	g.win = nil
	g.buf = nil
}

func (g *GPURenderer) scratch(n int) []byte {
	if cap(g.buf) < n {
		g.buf = make([]byte, n)
	}
	return g.buf[:n]
}
