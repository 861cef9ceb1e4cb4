// Command framegate runs the frame transport end to end in one process: a
// synthetic producer writes timestamped frames into a shared ring, and the
// render pipeline drains and presents them, in a window when a display is
// available or headless otherwise.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/framegate/framegate/display"
	"github.com/framegate/framegate/frame"
	"github.com/framegate/framegate/render"
	"github.com/framegate/framegate/shmring"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	width := envInt("WIDTH", 1280)
	height := envInt("HEIGHT", 720)
	fps := envInt("FPS", 30)
	format := frame.FormatRGBA
	if envOr("FORMAT", "rgba") == "nv12" {
		format = frame.FormatNV12
	}
	windowed := display.Supported() && os.Getenv("HEADLESS") == ""

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	maxPayload := frame.PixelBytes(format, strideFor(format, width), height) + frame.TrailerSizeNV12
	cfg := shmring.ComputeConfig(uint64(maxPayload), shmring.DefaultConfig())
	ring, err := shmring.Create(cfg)
	if err != nil {
		slog.Error("failed to create shared ring", "error", err)
		os.Exit(1)
	}
	defer ring.Close()

	// The consumer gets its own view over the same region, as it would when
	// the two sides live in different contexts.
	view, err := shmring.Attach(ring.Bytes())
	if err != nil {
		slog.Error("failed to attach consumer view", "error", err)
		os.Exit(1)
	}

	slog.Info("framegate starting",
		"version", version,
		"size", fmt.Sprintf("%dx%d", width, height),
		"format", format.String(),
		"fps", fps,
		"slots", len(ring.State().Slots),
		"slot_bytes", ring.SlotSize(),
		"windowed", windowed,
	)

	pipeCfg := render.Config{}
	var win *display.Window
	if windowed {
		win = display.NewWindow("framegate", width, height)
		pipeCfg.GPU = display.NewGPURenderer()
	}
	pipe := render.New(pipeCfg)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return pipe.Run(ctx) })

	g.Go(func() error {
		logEvents(ctx, pipe)
		return nil
	})

	g.Go(func() error {
		produce(ctx, ring, format, width, height, fps)
		ring.SignalShutdown()
		return nil
	})

	g.Go(func() error {
		logStats(ctx, pipe, ring)
		return nil
	})

	pipe.Commands() <- render.InitSharedBuffer{Ring: view}
	if windowed {
		pipe.Commands() <- render.InitCanvas{Surface: win}
	} else {
		pipe.Commands() <- render.InitCanvas{Surface: newOffscreen(width, height)}
	}

	if windowed {
		// The GUI event loop owns the main goroutine; everything else is on
		// the errgroup. Closing the window cancels the group.
		err = win.Run(ctx)
		cancel()
	}
	if gerr := g.Wait(); gerr != nil && err == nil {
		err = gerr
	}
	if err != nil {
		slog.Error("shutting down with error", "error", err)
		os.Exit(1)
	}
	slog.Info("framegate stopped")
}

// produce writes synthetic moving-gradient frames into the ring at the target
// rate until ctx is cancelled. Every ~10 seconds it jumps the frame number
// forward to exercise the consumer's seek handling.
func produce(ctx context.Context, ring *shmring.Ring, format frame.Format, width, height, fps int) {
	log := slog.With("component", "producer")
	interval := time.Second / time.Duration(fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	stride := strideFor(format, width)
	pixLen := frame.PixelBytes(format, stride, height)
	payload := make([]byte, 0, pixLen+frame.TrailerSizeNV12)
	number := uint32(0)
	seekEvery := uint32(fps * 10)

	for tick := 0; ; tick++ {
		select {
		case <-ctx.Done():
			log.Info("producer stopping", "frames", number)
			return
		case <-ticker.C:
		}

		number++
		if seekEvery > 0 && number%seekEvery == 0 {
			number += 1000
			log.Debug("injecting seek", "number", number)
		}

		payload = payload[:pixLen]
		paintGradient(payload, format, width, height, stride, tick)
		payload = frame.AppendTrailer(payload, frame.Frame{
			Format:       format,
			Width:        width,
			Height:       height,
			Stride:       stride,
			Number:       number,
			TargetTimeNs: uint64(number) * uint64(interval.Nanoseconds()),
		})
		if !ring.Write(payload) {
			log.Error("frame exceeds slot size, dropping", "bytes", len(payload))
		}
	}
}

// paintGradient fills pix with a phase-shifted gradient so motion is visible.
func paintGradient(pix []byte, format frame.Format, width, height, stride, phase int) {
	if format == frame.FormatNV12 {
		for y := 0; y < height; y++ {
			row := pix[y*stride:]
			for x := 0; x < width; x++ {
				row[x] = byte(16 + (x+y+phase*3)%220)
			}
		}
		uv := pix[stride*height:]
		for y := 0; y < (height+1)/2; y++ {
			row := uv[y*stride:]
			for x := 0; x+1 < width; x += 2 {
				row[x] = byte(128 + (x+phase)%64)
				row[x+1] = byte(128 - (y+phase)%64)
			}
		}
		return
	}
	for y := 0; y < height; y++ {
		row := pix[y*stride:]
		for x := 0; x < width; x++ {
			o := x * 4
			row[o] = byte((x + phase*4) % 256)
			row[o+1] = byte((y + phase*2) % 256)
			row[o+2] = byte((x + y) % 256)
			row[o+3] = 255
		}
	}
}

func strideFor(format frame.Format, width int) int {
	if format == frame.FormatNV12 {
		return width
	}
	return width * 4
}

// logEvents drains pipeline events until ctx is cancelled.
func logEvents(ctx context.Context, pipe *render.Pipeline) {
	log := slog.With("component", "events")
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-pipe.Events():
			switch e := ev.(type) {
			case render.Ready:
				log.Info("pipeline ready")
			case render.ModeChanged:
				log.Info("renderer mode resolved", "mode", e.Mode.String())
			case render.RequestFrame:
				log.Info("pipeline requested a frame resend")
			case render.RenderError:
				log.Warn("render error", "message", e.Message)
			case render.FrameRendered:
				log.Debug("frame rendered", "size", fmt.Sprintf("%dx%d", e.Width, e.Height))
			}
		}
	}
}

// logStats reports pipeline and ring counters every 5 seconds.
func logStats(ctx context.Context, pipe *render.Pipeline, ring *shmring.Ring) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := pipe.Stats()
			rs := ring.State()
			slog.Info("stats",
				"rendered", st.FramesRendered,
				"dropped", st.FramesDropped,
				"seeks", st.Seeks,
				"decode_errors", st.DecodeErrors,
				"write_idx", rs.WriteIdx,
				"read_idx", rs.ReadIdx,
			)
		}
	}
}

// offscreen is the surface used when no display is available: frames are
// consumed and discarded, which still exercises the whole transport.
type offscreen struct {
	width  int
	height int
}

func newOffscreen(width, height int) *offscreen {
	return &offscreen{width: width, height: height}
}

func (o *offscreen) Size() (int, int) { return o.width, o.height }

func (o *offscreen) Resize(width, height int) {
	o.width, o.height = width, height
}

func (o *offscreen) Present(pix []byte, width, height int) {
	o.width, o.height = width, height
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid value", "key", key, "value", v)
		return def
	}
	return n
}
