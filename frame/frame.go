// Package frame defines the frame payload format that flows through the
// framegate transport, from the producer's trailer serialization through the
// consumer-side parse, sequencing, and pixel normalization steps.
package frame

// Format identifies the pixel layout of a frame payload.
type Format int

const (
	// FormatRGBA is tightly or stride-padded 8-bit RGBA, one plane.
	FormatRGBA Format = iota
	// FormatNV12 is 4:2:0 YUV with an interleaved UV plane at the luma stride.
	FormatNV12
)

func (f Format) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	case FormatNV12:
		return "nv12"
	}
	return "unknown"
}

// Trailer sizes and the NV12 tag. Every payload ends in a fixed-layout
// little-endian trailer; the last four bytes distinguish the two layouts:
// NV12 trailers end in the "NV12" FourCC, anything else parses as RGBA.
const (
	TrailerSizeRGBA = 24
	TrailerSizeNV12 = 28

	// MagicNV12 is the FourCC "NV12" read as a little-endian u32, so the
	// final payload bytes spell N, V, 1, 2 on the wire.
	MagicNV12 uint32 = 0x3231564E
)

// DefaultStaleWindow is the backward frame-number distance below which an
// out-of-order frame is treated as decoder jitter and dropped rather than as
// an intentional seek (~1 second at 30fps).
const DefaultStaleWindow uint32 = 30

// Frame is one parsed video frame: geometry and timing from the trailer plus
// a view of the pixel bytes. Pix aliases the payload it was parsed from; it
// is only valid for as long as the caller owns those bytes.
type Frame struct {
	Format       Format
	Width        int
	Height       int
	Stride       int // row stride in bytes (luma stride for NV12)
	Number       uint32
	TargetTimeNs uint64
	Pix          []byte
}
