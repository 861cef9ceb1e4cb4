package frame

import (
	"encoding/binary"
	"fmt"
)

// Trailer field offsets, relative to the start of the trailer. Both layouts
// share the first 24 bytes; NV12 appends the format magic.
//
//	RGBA (24B): [stride:u32][height:u32][width:u32][number:u32][targetNs:u64]
//	NV12 (28B): [yStride:u32][height:u32][width:u32][number:u32][targetNs:u64][magic:u32]
const (
	trailerOffStride = 0
	trailerOffHeight = 4
	trailerOffWidth  = 8
	trailerOffNumber = 12
	trailerOffTarget = 16
	trailerOffMagic  = 24
)

// maxDimension bounds width and height during parsing. Anything larger than
// 16k pixels per side is corrupt metadata, not a real frame.
const maxDimension = 16384

// Parse reads the fixed-layout trailer at the tail of payload and returns the
// decoded frame. The returned Pix slice aliases payload.
//
// Validation is deliberately strict: a frame whose declared geometry does not
// fit inside the payload is rejected rather than read, since the payload may
// be a live view into shared memory.
func Parse(payload []byte) (Frame, error) {
	if len(payload) < TrailerSizeRGBA {
		return Frame{}, fmt.Errorf("payload too short for trailer: %d bytes", len(payload))
	}

	var f Frame
	var trailerSize int
	if binary.LittleEndian.Uint32(payload[len(payload)-4:]) == MagicNV12 && len(payload) >= TrailerSizeNV12 {
		f.Format = FormatNV12
		trailerSize = TrailerSizeNV12
	} else {
		f.Format = FormatRGBA
		trailerSize = TrailerSizeRGBA
	}

	t := payload[len(payload)-trailerSize:]
	f.Stride = int(binary.LittleEndian.Uint32(t[trailerOffStride:]))
	f.Height = int(binary.LittleEndian.Uint32(t[trailerOffHeight:]))
	f.Width = int(binary.LittleEndian.Uint32(t[trailerOffWidth:]))
	f.Number = binary.LittleEndian.Uint32(t[trailerOffNumber:])
	f.TargetTimeNs = binary.LittleEndian.Uint64(t[trailerOffTarget:])

	if f.Width <= 0 || f.Height <= 0 || f.Width > maxDimension || f.Height > maxDimension {
		return Frame{}, fmt.Errorf("implausible dimensions %dx%d", f.Width, f.Height)
	}

	var minStride int
	switch f.Format {
	case FormatRGBA:
		minStride = f.Width * 4
	case FormatNV12:
		minStride = f.Width
	}
	if f.Stride < minStride {
		return Frame{}, fmt.Errorf("%s stride %d below minimum %d for width %d",
			f.Format, f.Stride, minStride, f.Width)
	}

	pixLen := PixelBytes(f.Format, f.Stride, f.Height)
	if uint64(pixLen)+uint64(trailerSize) > uint64(len(payload)) {
		return Frame{}, fmt.Errorf("%s payload %d bytes, need %d pixel bytes + %d trailer",
			f.Format, len(payload), pixLen, trailerSize)
	}

	f.Pix = payload[:pixLen]
	return f, nil
}

// PixelBytes returns the pixel byte count implied by a format, stride, and
// height: stride*height for RGBA, luma plane plus half-height UV plane for NV12.
func PixelBytes(format Format, stride, height int) int {
	if format == FormatNV12 {
		return stride*height + stride*((height+1)/2)
	}
	return stride * height
}

// AppendTrailer serializes the trailer for f onto dst and returns the
// extended slice. The producer builds a payload as pixel bytes followed by
// this trailer; f.Pix is not consulted.
func AppendTrailer(dst []byte, f Frame) []byte {
	var buf [TrailerSizeNV12]byte
	binary.LittleEndian.PutUint32(buf[trailerOffStride:], uint32(f.Stride))
	binary.LittleEndian.PutUint32(buf[trailerOffHeight:], uint32(f.Height))
	binary.LittleEndian.PutUint32(buf[trailerOffWidth:], uint32(f.Width))
	binary.LittleEndian.PutUint32(buf[trailerOffNumber:], f.Number)
	binary.LittleEndian.PutUint64(buf[trailerOffTarget:], f.TargetTimeNs)
	if f.Format == FormatNV12 {
		binary.LittleEndian.PutUint32(buf[trailerOffMagic:], MagicNV12)
		return append(dst, buf[:TrailerSizeNV12]...)
	}
	return append(dst, buf[:TrailerSizeRGBA]...)
}
