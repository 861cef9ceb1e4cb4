// Package render is the consumer side of the frame transport: it drains the
// shared ring each display tick, filters stale and out-of-order frames,
// normalizes pixel layout, and draws the freshest frame through whichever
// renderer the surface supports.
package render

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/framegate/framegate/frame"
	"github.com/framegate/framegate/shmring"
)

const (
	// defaultTickInterval approximates one display refresh at 60Hz.
	defaultTickInterval = 16 * time.Millisecond

	// defaultQueueLimit bounds the copy-path frame queue.
	defaultQueueLimit = 5

	// defaultDrainLimit bounds ready-slot draining per tick: enough to skip
	// a burst to its newest frame, small enough to keep ticks flat.
	defaultDrainLimit = 8

	// requestAfterTicks is how many consecutive empty ticks pass before the
	// pipeline asks the producer to resend, when nothing has ever arrived.
	requestAfterTicks = 30
)

// Config configures a Pipeline. The zero value is usable: software-only
// rendering, 60Hz ticks, defaults for every bound.
type Config struct {
	// GPU is the optional GPU renderer candidate. When nil, or when its
	// Init fails against the surface, the pipeline runs the software path.
	GPU Renderer

	// StaleWindow is the backward frame-number distance treated as decoder
	// jitter rather than a seek. Zero means frame.DefaultStaleWindow.
	StaleWindow uint32

	TickInterval time.Duration
	QueueLimit   int
	DrainLimit   int
}

// Stats is a point-in-time snapshot of pipeline counters.
type Stats struct {
	FramesRendered int64
	FramesDropped  int64
	Seeks          int64
	DecodeErrors   int64
}

// Pipeline owns the consumer-side scheduling loop. All state below is
// confined to the Run goroutine; the outside world talks to it through
// Commands and listens on Events.
type Pipeline struct {
	log *slog.Logger
	cfg Config

	cmds   chan Command
	events chan Event

	mode    Mode
	active  Renderer
	surface Surface
	ring    *shmring.Ring
	pending *frameQueue

	// latest is the reference frame number for sequencing; unset until the
	// first accepted frame and after ResetFrameState.
	latest frame.Ref

	// Presentation-time anchor, re-established whenever a seek is detected
	// so pacing is not corrupted by the jump.
	playbackStart         time.Time
	playbackStartTargetNs uint64

	// Cached copy of the last drawn frame, for redraw on a matching resize.
	lastPix    []byte
	lastFrame  frame.Frame
	haveLast   bool
	idleTicks  int
	requested  bool

	framesRendered atomic.Int64
	framesDropped  atomic.Int64
	seeks          atomic.Int64
	decodeErrors   atomic.Int64
}

// New creates a Pipeline with cfg's defaults filled in. Run must be called
// for anything to happen.
func New(cfg Config) *Pipeline {
	if cfg.StaleWindow == 0 {
		cfg.StaleWindow = frame.DefaultStaleWindow
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = defaultQueueLimit
	}
	if cfg.DrainLimit <= 0 {
		cfg.DrainLimit = defaultDrainLimit
	}
	return &Pipeline{
		log:     slog.With("component", "render"),
		cfg:     cfg,
		cmds:    make(chan Command, 8),
		events:  make(chan Event, 16),
		mode:    ModePending,
		pending: newFrameQueue(cfg.QueueLimit),
	}
}

// Commands is the control channel into the pipeline.
func (p *Pipeline) Commands() chan<- Command { return p.cmds }

// Events is the notification channel out of the pipeline. Events are dropped
// rather than ever blocking the scheduling loop; listeners that care should
// keep draining.
func (p *Pipeline) Events() <-chan Event { return p.events }

// Mode returns the last resolved renderer mode. Only meaningful to callers
// that have already seen a ModeChanged event.
func (p *Pipeline) Mode() Mode { return p.mode }

// Stats snapshots the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		FramesRendered: p.framesRendered.Load(),
		FramesDropped:  p.framesDropped.Load(),
		Seeks:          p.seeks.Load(),
		DecodeErrors:   p.decodeErrors.Load(),
	}
}

// Run drives the scheduling loop until ctx is cancelled or a Cleanup command
// arrives. One iteration per tick; the loop itself never blocks on the ring
// since draining uses zero-timeout borrows, and an idle pipeline with no
// buffer attached parks on the command channel alone.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.TickInterval)
	defer ticker.Stop()
	defer p.teardown()

	for {
		// With no buffer attached there is nothing to poll; sleep on
		// commands only until an init or resize wakes the loop.
		var tick <-chan time.Time
		if p.ring != nil {
			tick = ticker.C
		}

		select {
		case <-ctx.Done():
			return nil
		case cmd := <-p.cmds:
			if _, ok := cmd.(Cleanup); ok {
				p.log.Info("cleanup requested")
				return nil
			}
			p.handle(cmd)
		case <-tick:
			p.tick()
		}
	}
}

func (p *Pipeline) handle(cmd Command) {
	switch c := cmd.(type) {
	case InitCanvas:
		p.initCanvas(c.Surface)
	case InitSharedBuffer:
		p.ring = c.Ring
		p.idleTicks = 0
		p.requested = false
		p.log.Info("shared buffer attached", "slotSize", c.Ring.SlotSize())
	case Resize:
		p.resize(c.Width, c.Height)
	case ResetFrameState:
		p.resetFrameState()
	}
}

// initCanvas resolves the renderer mode, exactly once per surface: the GPU
// candidate gets first refusal, and failure degrades permanently to the
// software path. Frames buffered while pending are flushed to the winner.
func (p *Pipeline) initCanvas(surface Surface) {
	p.surface = surface

	if p.cfg.GPU != nil {
		if err := p.cfg.GPU.Init(surface); err == nil {
			p.mode = ModeGPU
			p.active = p.cfg.GPU
		} else {
			p.log.Warn("gpu renderer init failed, falling back to software", "error", err)
		}
	}
	if p.active == nil {
		sw := NewSoftwareRenderer()
		if err := sw.Init(surface); err != nil {
			p.emit(RenderError{Message: err.Error()})
			return
		}
		p.mode = ModeSoftware
		p.active = sw
	}

	p.log.Info("renderer selected", "mode", p.mode.String())
	p.emit(ModeChanged{Mode: p.mode})
	p.emit(Ready{})

	if payload, _, ok, dropped := p.pending.takeNewest(); ok {
		p.framesDropped.Add(int64(dropped))
		p.presentPayload(payload)
	}
}

// tick is one scheduling iteration: drain the ring to its newest ready
// frame, run it through sequencing, and draw or buffer it.
func (p *Pipeline) tick() {
	if p.ring == nil {
		return
	}
	if p.ring.IsShutdown() {
		return
	}

	borrowed, f, ok := p.drain()
	if !ok {
		p.idle()
		return
	}
	p.idleTicks = 0

	if p.mode == ModePending {
		// Mode unresolved: keep a private copy, the shared slot must go
		// back to the producer now.
		payload := make([]byte, len(borrowed.Bytes))
		copy(payload, borrowed.Bytes)
		borrowed.Release()
		p.framesDropped.Add(int64(p.pending.push(payload, f.Number)))
		return
	}

	p.present(f)
	borrowed.Release()
}

// drain borrows up to DrainLimit ready slots and keeps only the newest by
// frame number, releasing the rest immediately. This bounds per-tick work
// while guaranteeing the freshest frame wins a burst.
func (p *Pipeline) drain() (*shmring.BorrowedFrame, frame.Frame, bool) {
	var (
		newest   *shmring.BorrowedFrame
		newestFr frame.Frame
		have     bool
	)
	for i := 0; i < p.cfg.DrainLimit; i++ {
		b, ok := p.ring.Borrow(0)
		if !ok {
			break
		}
		f, err := frame.Parse(b.Bytes)
		if err != nil {
			p.decodeErrors.Add(1)
			p.log.Debug("dropping malformed frame", "error", err)
			p.emit(RenderError{Message: err.Error()})
			b.Release()
			continue
		}
		if !have || frame.IsNewer(f.Number, newestFr.Number) {
			if have {
				newest.Release()
				p.framesDropped.Add(1)
			}
			newest, newestFr, have = b, f, true
			continue
		}
		b.Release()
		p.framesDropped.Add(1)
	}
	return newest, newestFr, have
}

// present runs sequencing and, on accept, draws the frame and updates the
// reference number and timing anchor.
func (p *Pipeline) present(f frame.Frame) {
	ord := frame.DecideOrder(frame.Ref{Number: f.Number, Valid: true}, p.latest, p.cfg.StaleWindow)
	if !ord.Accept {
		p.framesDropped.Add(int64(ord.Drops))
		p.log.Debug("dropping stale frame", "number", f.Number, "latest", p.latest.Number)
		return
	}

	// A frame that is not the immediate successor of the last one rendered
	// means playback jumped; re-anchor pacing so the jump does not skew it.
	if p.latest.Valid && f.Number != p.latest.Number+1 {
		p.playbackStart = time.Now()
		p.playbackStartTargetNs = f.TargetTimeNs
		p.seeks.Add(1)
		p.log.Debug("seek detected, timing re-anchored", "from", p.latest.Number, "to", f.Number)
	} else if !p.latest.Valid {
		p.playbackStart = time.Now()
		p.playbackStartTargetNs = f.TargetTimeNs
	}

	if err := p.draw(f); err != nil {
		p.decodeErrors.Add(1)
		p.emit(RenderError{Message: err.Error()})
		return
	}

	p.latest = ord.Latest
	p.framesRendered.Add(1)
	p.emit(FrameRendered{Width: f.Width, Height: f.Height})
}

// presentPayload parses a privately owned payload (pending-queue flush) and
// feeds it through present.
func (p *Pipeline) presentPayload(payload []byte) {
	f, err := frame.Parse(payload)
	if err != nil {
		p.decodeErrors.Add(1)
		p.emit(RenderError{Message: err.Error()})
		return
	}
	p.present(f)
}

func (p *Pipeline) draw(f frame.Frame) error {
	var err error
	switch f.Format {
	case frame.FormatNV12:
		err = p.active.RenderNV12(f.Pix, f.Width, f.Height, f.Stride)
	default:
		err = p.active.RenderRGBA(f.Pix, f.Width, f.Height, f.Stride)
	}
	if err != nil {
		return err
	}

	// Keep a private copy for redraw after a same-size resize. f.Pix may be
	// a shared-memory view about to be released.
	p.lastPix = append(p.lastPix[:0], f.Pix...)
	p.lastFrame = f
	p.lastFrame.Pix = nil
	p.haveLast = true
	return nil
}

// idle counts empty ticks; once nothing has arrived for long enough and no
// frame was ever drawn, ask the producer to resend (once per attach/reset).
func (p *Pipeline) idle() {
	p.idleTicks++
	if p.idleTicks >= requestAfterTicks && !p.requested && !p.latest.Valid {
		p.requested = true
		p.emit(RequestFrame{})
	}
}

// resize grows the surface and either redraws the last frame (dimensions
// unchanged) or clears to black.
func (p *Pipeline) resize(width, height int) {
	if p.surface == nil {
		return
	}
	p.surface.Resize(width, height)

	if p.haveLast && p.active != nil && p.lastFrame.Width == width && p.lastFrame.Height == height {
		f := p.lastFrame
		f.Pix = p.lastPix
		if err := p.draw(f); err != nil {
			p.emit(RenderError{Message: err.Error()})
		}
		return
	}
	p.surface.Present(make([]byte, width*height*4), width, height)
}

// resetFrameState clears sequencing and timing so the next frame is accepted
// unconditionally. The controller issues it around seeks and restarts.
func (p *Pipeline) resetFrameState() {
	p.latest = frame.Ref{}
	p.playbackStart = time.Time{}
	p.playbackStartTargetNs = 0
	p.pending.reset()
	p.haveLast = false
	p.idleTicks = 0
	p.requested = false
}

// teardown releases everything the loop owns on the way out.
func (p *Pipeline) teardown() {
	p.pending.reset()
	if p.active != nil {
		p.active.Dispose()
		p.active = nil
	}
	p.lastPix = nil
	p.haveLast = false
	p.resetTo(ModePending)
}

func (p *Pipeline) resetTo(m Mode) {
	p.mode = m
	p.latest = frame.Ref{}
	p.playbackStart = time.Time{}
	p.playbackStartTargetNs = 0
}

// emit delivers an event without ever blocking the scheduling loop.
func (p *Pipeline) emit(e Event) {
	select {
	case p.events <- e:
	default:
		p.log.Debug("event dropped, listener not draining")
	}
}
