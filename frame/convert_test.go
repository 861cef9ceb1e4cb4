package frame

import (
	"bytes"
	"testing"
)

// solidNV12 builds a 2x2 NV12 frame with uniform Y, U, V.
func solidNV12(y, u, v byte) (luma, uv []byte) {
	return []byte{y, y, y, y}, []byte{u, v}
}

func TestNV12ToRGBAKnownColors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		y, u, v byte
		r, g, b byte
	}{
		{"video black", 16, 128, 128, 0, 0, 0},
		{"video white", 235, 128, 128, 255, 255, 255},
		{"pure red", 81, 90, 240, 255, 0, 0},
		{"mid gray", 126, 128, 128, 128, 128, 128},
	}
	for _, tc := range cases {
		luma, uv := solidNV12(tc.y, tc.u, tc.v)
		dst := make([]byte, 2*2*4)
		NV12ToRGBA(luma, uv, 2, 2, 2, dst)
		for px := 0; px < 4; px++ {
			o := px * 4
			if dst[o] != tc.r || dst[o+1] != tc.g || dst[o+2] != tc.b || dst[o+3] != 255 {
				t.Errorf("%s: pixel %d = (%d,%d,%d,%d), want (%d,%d,%d,255)",
					tc.name, px, dst[o], dst[o+1], dst[o+2], dst[o+3], tc.r, tc.g, tc.b)
			}
		}
	}
}

func TestNV12ToRGBAClampsOutOfRange(t *testing.T) {
	t.Parallel()
	// Y below the limited-range floor must clamp to 0, never wrap.
	luma, uv := solidNV12(0, 128, 128)
	dst := make([]byte, 2*2*4)
	NV12ToRGBA(luma, uv, 2, 2, 2, dst)
	if dst[0] != 0 || dst[1] != 0 || dst[2] != 0 {
		t.Errorf("sub-black pixel = (%d,%d,%d), want (0,0,0)", dst[0], dst[1], dst[2])
	}
}

func TestNV12ToRGBATruncatedPlanesUseNeutralChroma(t *testing.T) {
	t.Parallel()
	// Missing UV bytes read as neutral chroma, missing Y as zero; the
	// converter must stay in bounds either way.
	dst := make([]byte, 4*2*4)
	NV12ToRGBA([]byte{128, 128}, nil, 4, 2, 4, dst)
	for px := 0; px < 8; px++ {
		if dst[px*4+3] != 255 {
			t.Fatalf("pixel %d alpha = %d, want 255", px, dst[px*4+3])
		}
	}
}

func TestConvertNV12SplitsPlanesAtStride(t *testing.T) {
	t.Parallel()
	width, height, stride := 2, 2, 4 // padded luma rows
	pix := make([]byte, PixelBytes(FormatNV12, stride, height))
	for i := 0; i < stride*height; i++ {
		pix[i] = 235 // luma plane, padding included
	}
	for i := stride * height; i < len(pix); i += 2 {
		pix[i] = 128
		pix[i+1] = 128
	}
	f := Frame{Format: FormatNV12, Width: width, Height: height, Stride: stride, Pix: pix}

	dst := make([]byte, width*height*4)
	ConvertNV12(f, dst)
	for px := 0; px < width*height; px++ {
		o := px * 4
		if dst[o] != 255 || dst[o+1] != 255 || dst[o+2] != 255 {
			t.Errorf("pixel %d = (%d,%d,%d), want white", px, dst[o], dst[o+1], dst[o+2])
		}
	}
}

func TestNormalizeStride(t *testing.T) {
	t.Parallel()
	width, height, stride := 2, 2, 12 // 8 pixel bytes + 4 padding per row
	pix := make([]byte, stride*height)
	for row := 0; row < height; row++ {
		for i := 0; i < width*4; i++ {
			pix[row*stride+i] = byte(row*10 + i)
		}
		for i := width * 4; i < stride; i++ {
			pix[row*stride+i] = 0xEE // padding must not leak through
		}
	}

	dst := make([]byte, width*height*4)
	NormalizeStride(pix, width, height, stride, dst)

	want := []byte{
		0, 1, 2, 3, 4, 5, 6, 7,
		10, 11, 12, 13, 14, 15, 16, 17,
	}
	if !bytes.Equal(dst, want) {
		t.Errorf("NormalizeStride = %v, want %v", dst, want)
	}
}
