package render

import "github.com/framegate/framegate/shmring"

// Mode is the renderer selection state. It resolves exactly once, at surface
// initialization: frames arriving earlier wait in the pending queue, and a
// GPU initialization failure degrades to software for the lifetime of the
// surface.
type Mode int

const (
	ModePending Mode = iota
	ModeGPU
	ModeSoftware
)

func (m Mode) String() string {
	switch m {
	case ModeGPU:
		return "gpu"
	case ModeSoftware:
		return "software"
	}
	return "pending"
}

// Command is a control message into the pipeline. All cross-context
// signaling is plain data; no error value ever crosses this boundary.
type Command interface{ isCommand() }

// InitCanvas hands the pipeline exclusive ownership of a drawing surface and
// triggers the one-shot renderer mode resolution.
type InitCanvas struct{ Surface Surface }

// InitSharedBuffer attaches the shared frame ring the pipeline drains.
type InitSharedBuffer struct{ Ring *shmring.Ring }

// Resize resizes the backing surface; the last frame is redrawn when its
// dimensions still match, otherwise the surface clears to black.
type Resize struct{ Width, Height int }

// ResetFrameState clears sequencing and timing state on a seek or stream
// restart, so the next frame is accepted unconditionally.
type ResetFrameState struct{}

// Cleanup tears the pipeline down: the scheduling loop stops, held frames
// are released, and the renderer is disposed.
type Cleanup struct{}

func (InitCanvas) isCommand()       {}
func (InitSharedBuffer) isCommand() {}
func (Resize) isCommand()           {}
func (ResetFrameState) isCommand()  {}
func (Cleanup) isCommand()          {}

// Event is a notification out of the pipeline, mirrored after the command
// set: delivery is best-effort and never blocks the scheduling loop.
type Event interface{ isEvent() }

// Ready signals that the surface is initialized and a renderer selected.
type Ready struct{}

// ModeChanged reports the resolved (or degraded) renderer mode.
type ModeChanged struct{ Mode Mode }

// FrameRendered reports a presented frame and its dimensions.
type FrameRendered struct{ Width, Height int }

// RequestFrame asks the producer to resend because nothing has arrived.
type RequestFrame struct{}

// RenderError carries a non-fatal failure as plain text.
type RenderError struct{ Message string }

func (Ready) isEvent()         {}
func (ModeChanged) isEvent()   {}
func (FrameRendered) isEvent() {}
func (RequestFrame) isEvent()  {}
func (RenderError) isEvent()   {}
