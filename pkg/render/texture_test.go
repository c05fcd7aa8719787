package render

import "testing"

func TestNewTextureRGBA(t *testing.T) {
	pix := []byte{
		1, 2, 3, 4, 5, 6, 7, 8, // bottom row
		9, 10, 11, 12, 13, 14, 15, 16, // top row
	}
	tex := NewTextureRGBA(2, 2, pix)

	if got := tex.GetPixel(0, 0); got != (Color{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
	if got := tex.GetPixel(1, 1); got != (Color{R: 13, G: 14, B: 15, A: 16}) {
		t.Errorf("pixel (1,1) = %v", got)
	}

	short := NewTextureRGBA(2, 2, pix[:6])
	if got := short.GetPixel(1, 0); got != (Color{}) {
		t.Errorf("pixel past short data = %v, want zero", got)
	}
}

func TestTextureSampleNearest(t *testing.T) {
	tex := NewTexture(2, 2)
	tex.FilterMode = FilterNearest
	a, b, c, d := RGB(1, 0, 0), RGB(2, 0, 0), RGB(3, 0, 0), RGB(4, 0, 0)
	tex.Pixels = []Color{a, b, c, d}

	tests := []struct {
		name string
		u, v float64
		want Color
	}{
		{"t=0 is the first row", 0.25, 0.25, a},
		{"right of first row", 0.75, 0.25, b},
		{"t=1 side", 0.25, 0.75, c},
		{"wraps", 1.75, -0.25, d},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tex.Sample(tc.u, tc.v); got != tc.want {
				t.Errorf("Sample(%v,%v) = %v, want %v", tc.u, tc.v, got, tc.want)
			}
		})
	}
}

func TestTextureSampleClamp(t *testing.T) {
	tex := NewTexture(2, 1)
	tex.FilterMode = FilterNearest
	tex.WrapU, tex.WrapV = WrapClamp, WrapClamp
	tex.Pixels = []Color{RGB(10, 0, 0), RGB(20, 0, 0)}

	if got := tex.Sample(5, 0); got != RGB(20, 0, 0) {
		t.Errorf("Sample past the right edge = %v, want the last texel", got)
	}
	if got := tex.Sample(-5, 0); got != RGB(10, 0, 0) {
		t.Errorf("Sample past the left edge = %v, want the first texel", got)
	}
}

func TestTextureSampleBilinear(t *testing.T) {
	tex := NewTexture(2, 1)
	tex.WrapU, tex.WrapV = WrapClamp, WrapClamp
	tex.Pixels = []Color{RGB(0, 0, 0), RGB(200, 200, 200)}

	// Halfway between the two texel centers.
	got := tex.Sample(0.5, 0.5)
	if got.R < 99 || got.R > 101 {
		t.Errorf("bilinear midpoint = %v, want about 100", got)
	}
}

func TestSolidTexture(t *testing.T) {
	c := RGB(7, 8, 9)
	tex := NewSolidTexture(c)
	for _, uv := range [][2]float64{{0, 0}, {0.5, 0.5}, {0.99, 0.01}, {3.2, -1.7}} {
		if got := tex.Sample(uv[0], uv[1]); got != c {
			t.Errorf("Sample(%v) = %v, want %v", uv, got, c)
		}
	}
	if got := (&Texture{}).Sample(0.5, 0.5); got != (Color{}) {
		t.Errorf("empty texture sample = %v", got)
	}
}
