package frame

// NV12ToRGBA converts an NV12 frame (luma plane followed by an interleaved
// UV plane at the same stride) into tightly packed RGBA. dst must hold
// width*height*4 bytes.
//
// Integer BT.601 limited-range conversion, matching the reference CPU
// converter bit for bit so GPU and software paths agree.
func NV12ToRGBA(y, uv []byte, width, height, yStride int, dst []byte) {
	for row := 0; row < height; row++ {
		yRow := row * yStride
		uvRow := (row / 2) * yStride
		outRow := row * width * 4

		for col := 0; col < width; col++ {
			yIdx := yRow + col
			uvIdx := uvRow + (col/2)*2

			lum := int32(0)
			if yIdx < len(y) {
				lum = int32(y[yIdx])
			}
			cb, cr := int32(128), int32(128)
			if uvIdx+1 < len(uv) {
				cb = int32(uv[uvIdx])
				cr = int32(uv[uvIdx+1])
			}

			c := lum - 16
			d := cb - 128
			e := cr - 128

			out := outRow + col*4
			dst[out] = clampU8((298*c + 409*e + 128) >> 8)
			dst[out+1] = clampU8((298*c - 100*d - 208*e + 128) >> 8)
			dst[out+2] = clampU8((298*c + 516*d + 128) >> 8)
			dst[out+3] = 255
		}
	}
}

// ConvertNV12 converts a parsed NV12 frame into tightly packed RGBA,
// splitting the planes at the trailer-declared stride. dst must hold
// width*height*4 bytes.
func ConvertNV12(f Frame, dst []byte) {
	lumaLen := f.Stride * f.Height
	if lumaLen > len(f.Pix) {
		lumaLen = len(f.Pix)
	}
	NV12ToRGBA(f.Pix[:lumaLen], f.Pix[lumaLen:], f.Width, f.Height, f.Stride, dst)
}

// NormalizeStride copies stride-padded RGBA rows into a contiguous
// width*height*4 buffer. When the source is already tight the rows copy
// through unchanged; callers should skip the copy in that case.
func NormalizeStride(pix []byte, width, height, stride int, dst []byte) {
	rowBytes := width * 4
	for row := 0; row < height; row++ {
		copy(dst[row*rowBytes:(row+1)*rowBytes], pix[row*stride:row*stride+rowBytes])
	}
}

func clampU8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
