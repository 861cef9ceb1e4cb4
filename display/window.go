// Package display provides the GPU presentation surface: an ebiten-backed
// window whose draw tick uploads the latest frame as a texture. It is linked
// only by binaries that actually open a window, so headless builds and tests
// of the render pipeline never touch the GPU stack.
package display

import (
	"context"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// Window is an exclusive drawing surface backed by an ebiten window. It
// implements render.Surface; Present stores the frame and the vsync-driven
// Draw callback uploads it.
type Window struct {
	ctx   context.Context
	title string

	mu     sync.Mutex
	pix    []byte
	width  int
	height int
	dirty  bool

	tex *ebiten.Image
}

// NewWindow creates a window surface with an initial size. The window does
// not appear until Run is called.
func NewWindow(title string, width, height int) *Window {
	return &Window{
		title:  title,
		width:  width,
		height: height,
		pix:    make([]byte, width*height*4),
	}
}

// Size returns the current frame dimensions.
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Resize resizes the backing frame. The stored image no longer matches, so
// the surface shows black until the next Present.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width, w.height = width, height
	w.pix = make([]byte, width*height*4)
	w.dirty = true
}

// Present stores a tightly packed RGBA frame for the next draw tick. Called
// from the pipeline goroutine; the copy decouples it from the draw loop.
func (w *Window) Present(pix []byte, width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if width != w.width || height != w.height {
		w.width, w.height = width, height
		w.pix = make([]byte, width*height*4)
	}
	copy(w.pix, pix)
	w.dirty = true
}

// Run opens the window and blocks in the ebiten game loop until ctx is
// cancelled or the user closes the window. Must run on the main goroutine.
func (w *Window) Run(ctx context.Context) error {
	w.ctx = ctx
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(w); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}

// Update implements ebiten.Game; it only watches for cancellation.
func (w *Window) Update() error {
	if w.ctx != nil {
		select {
		case <-w.ctx.Done():
			return ebiten.Termination
		default:
		}
	}
	return nil
}

// Draw implements ebiten.Game: upload the latest frame when it changed, then
// blit it scaled to the window.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	if w.tex == nil || w.tex.Bounds().Dx() != w.width || w.tex.Bounds().Dy() != w.height {
		w.tex = ebiten.NewImage(w.width, w.height)
		w.dirty = true
	}
	if w.dirty {
		w.tex.WritePixels(w.pix)
		w.dirty = false
	}
	w.mu.Unlock()

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(sw)/float64(w.width), float64(sh)/float64(w.height))
	screen.DrawImage(w.tex, op)
}

// Layout implements ebiten.Game.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		return 1, 1
	}
	return outsideWidth, outsideHeight
}
