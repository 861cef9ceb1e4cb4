package render

// Surface is an exclusive drawing target handed to the pipeline via
// InitCanvas. Present receives tightly packed RGBA for the full frame.
type Surface interface {
	Size() (int, int)
	Resize(width, height int)
	Present(pix []byte, width, height int)
}

// Renderer turns frame pixels into output on a surface. Implementations may
// consume stride-padded rows and NV12 planes directly; anything they cannot
// express natively they normalize themselves so callers stay layout-agnostic.
type Renderer interface {
	Init(surface Surface) error
	RenderRGBA(pix []byte, width, height, stride int) error
	RenderNV12(pix []byte, width, height, yStride int) error
	Dispose()
}
