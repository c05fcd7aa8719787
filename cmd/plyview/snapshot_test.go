package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/plyview/pkg/render"
)

const quadPLY = `ply
format ascii 1.0
comment test quad
element vertex 4
property float x
property float y
property float z
property float u
property float v
element face 2
property list uchar int vertex_indices
end_header
-1 -1 0 0 0
1 -1 0 1 0
1 1 0 1 1
-1 1 0 0 1
3 0 1 2
3 0 2 3
`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// solidBMP encodes a w x h 32-bit BMP of one color.
func solidBMP(w, h int, c color.RGBA) []byte {
	size := w * h * 4
	b := make([]byte, 54+size)
	copy(b, "BM")
	binary.LittleEndian.PutUint32(b[0x02:], uint32(len(b)))
	binary.LittleEndian.PutUint32(b[0x0A:], 54)
	binary.LittleEndian.PutUint32(b[0x0E:], 40)
	binary.LittleEndian.PutUint32(b[0x12:], uint32(w))
	binary.LittleEndian.PutUint32(b[0x16:], uint32(h))
	binary.LittleEndian.PutUint16(b[0x1A:], 1)
	binary.LittleEndian.PutUint16(b[0x1C:], 32)
	binary.LittleEndian.PutUint32(b[0x1E:], 3)
	binary.LittleEndian.PutUint32(b[0x22:], uint32(size))
	for i := 54; i < len(b); i += 4 {
		b[i], b[i+1], b[i+2], b[i+3] = c.B, c.G, c.R, c.A
	}
	return b
}

func TestParseKeyScript(t *testing.T) {
	tests := []struct {
		script  string
		want    []render.KeyState
		wantErr bool
	}{
		{script: "", want: nil},
		{script: "w", want: []render.KeyState{{Forward: true}}},
		{script: "W:2, left:1", want: []render.KeyState{
			{Forward: true}, {Forward: true}, {TurnLeft: true},
		}},
		{script: "w+a:1,s:0,down", want: []render.KeyState{
			{Forward: true, Left: true}, {LookDown: true},
		}},
		{script: "q:1", wantErr: true},
		{script: "w:x", wantErr: true},
		{script: "w:-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			got, err := parseKeyScript(tt.script)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d frames, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("frame %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestImageFormat(t *testing.T) {
	for path, want := range map[string]string{
		"a.png":      "png",
		"dir/B.BMP":  "bmp",
		"shot.webp":  "webp",
		"shot.jpg":   "",
		"no-ext":     "",
		"x.png.tiff": "",
	} {
		got, err := imageFormat(path)
		if got != want || (err != nil) != (want == "") {
			t.Errorf("imageFormat(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
}

func TestEncodeImageDecodes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 10, 120, 240, 255
	}
	for _, format := range []string{"png", "bmp", "webp"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := encodeImage(&buf, src, format); err != nil {
				t.Fatalf("encode: %v", err)
			}
			img, got, err := image.Decode(&buf)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != format {
				t.Errorf("decoded as %q", got)
			}
			if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 4 {
				t.Errorf("bounds = %v", b)
			}
			r, g, b, _ := img.At(3, 2).RGBA()
			if r>>8 != 10 || g>>8 != 120 || b>>8 != 240 {
				t.Errorf("pixel = %d,%d,%d", r>>8, g>>8, b>>8)
			}
		})
	}
	if err := encodeImage(&bytes.Buffer{}, src, "gif"); err == nil {
		t.Error("gif encoded")
	}
}

func TestDownsample(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			c := color.RGBA{0, 0, 0, 255}
			if x >= 4 {
				c = color.RGBA{255, 255, 255, 255}
			}
			src.SetRGBA(x, y, c)
		}
	}
	dst := downsample(src, 4, 4)
	if b := dst.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("bounds = %v", b)
	}
	if c := dst.RGBAAt(0, 2); c.R > 16 {
		t.Errorf("left edge = %v, want near black", c)
	}
	if c := dst.RGBAAt(3, 2); c.R < 239 {
		t.Errorf("right edge = %v, want near white", c)
	}
}

func TestSnapshotCommand(t *testing.T) {
	dir := t.TempDir()
	red := color.RGBA{220, 30, 30, 255}
	mesh := writeFile(t, dir, "quad.ply", []byte(quadPLY))
	tex := writeFile(t, dir, "quad.bmp", solidBMP(4, 4, red))
	out := filepath.Join(dir, "shot.png")

	cmd := newSnapshotCmd()
	cmd.SetArgs([]string{
		"--width", "40", "--height", "30", "--supersample", "2",
		"--bg", "0,0,0", "--keys", "s:2",
		"-o", out, mesh + ":" + tex,
	})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("bounds = %v, want 40x30", b)
	}
	r, g, b, _ := img.At(20, 15).RGBA()
	if d := int(r>>8) - int(red.R); d < -3 || d > 3 || g>>8 > 40 || b>>8 > 40 {
		t.Errorf("center = %d,%d,%d, want about %v", r>>8, g>>8, b>>8, red)
	}
	r, g, b, _ = img.At(0, 0).RGBA()
	if r>>8 > 3 || g>>8 > 3 || b>>8 > 3 {
		t.Errorf("corner = %d,%d,%d, want background", r>>8, g>>8, b>>8)
	}
}

func TestSnapshotRejectsBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"-o", "shot.gif", "mesh.ply"},
		{"--supersample", "9", "mesh.ply"},
		{"--keys", "jump:3", "mesh.ply"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			cmd := newSnapshotCmd()
			cmd.SetArgs(args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			if err := cmd.ExecuteContext(context.Background()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
