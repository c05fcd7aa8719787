package render

import (
	"errors"
	"image/color"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
)

func TestFramebufferClear(t *testing.T) {
	fb := NewFramebuffer(7, 5) // not a power of two
	c := RGB(1, 2, 3)
	fb.Clear(c)
	for i, p := range fb.Pixels {
		if p != c {
			t.Fatalf("pixel %d = %v, want %v", i, p, c)
		}
	}
}

func TestFramebufferBounds(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.SetPixel(-1, 0, ColorWhite)
	fb.SetPixel(4, 4, ColorWhite)
	if got := fb.GetPixel(10, 10); got != (color.RGBA{}) {
		t.Errorf("out of bounds GetPixel = %v", got)
	}
	fb.SetPixel(3, 2, ColorWhite)
	if fb.GetPixel(3, 2) != ColorWhite {
		t.Error("SetPixel did not store the color")
	}
}

func TestFramebufferResize(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	fb.Resize(4, 3)
	if fb.Width != 4 || fb.Height != 3 || len(fb.Pixels) != 12 {
		t.Errorf("after Resize: %dx%d with %d pixels", fb.Width, fb.Height, len(fb.Pixels))
	}
	fb.Resize(20, 20)
	if len(fb.Pixels) != 400 {
		t.Errorf("after growing: %d pixels", len(fb.Pixels))
	}
}

func TestFramebufferDrawLine(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	fb.DrawLine(0, 0, 9, 9, ColorWhite)
	for i := range 10 {
		if fb.GetPixel(i, i) != ColorWhite {
			t.Errorf("diagonal pixel %d not set", i)
		}
	}
}

func TestFramebufferToImage(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb.SetPixel(1, 0, RGB(10, 20, 30))
	img := fb.ToImage()
	if got := img.RGBAAt(1, 0); got != RGB(10, 20, 30) {
		t.Errorf("image pixel = %v", got)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Errorf("image bounds = %v", img.Bounds())
	}
}

func TestFramebufferDrawHalfBlocks(t *testing.T) {
	fb := NewFramebuffer(3, 4)
	top, bottom := RGB(255, 0, 0), RGB(0, 0, 255)
	fb.SetPixel(1, 2, top)
	fb.SetPixel(1, 3, bottom)

	scr := uv.NewScreenBuffer(3, 2)
	fb.Draw(scr, uv.Rect(0, 0, 3, 2))

	cell := scr.CellAt(1, 1)
	if cell == nil || cell.Content != "▀" {
		t.Fatalf("cell = %+v, want a half block", cell)
	}
	if cell.Style.Fg != top || cell.Style.Bg != bottom {
		t.Errorf("cell colors = %v/%v, want %v/%v", cell.Style.Fg, cell.Style.Bg, top, bottom)
	}
	// Transparent pixels leave the terminal color alone.
	if c := scr.CellAt(0, 0); c.Style.Fg != nil {
		t.Errorf("transparent pixel got fg %v", c.Style.Fg)
	}
}

type fakeDisplay struct {
	drawn    uv.Drawable
	displays int
	err      error
}

func (d *fakeDisplay) Draw(v uv.Drawable) { d.drawn = v }
func (d *fakeDisplay) Display() error {
	d.displays++
	return d.err
}

func TestTerminalRenderer(t *testing.T) {
	disp := &fakeDisplay{}
	r := NewTerminalRenderer(disp, 80, 24)

	if w, h := r.FramebufferSize(); w != 80 || h != 48 {
		t.Errorf("FramebufferSize() = %dx%d, want 80x48", w, h)
	}
	r.Resize(100, 30)
	if w, h := r.FramebufferSize(); w != 100 || h != 60 {
		t.Errorf("after Resize FramebufferSize() = %dx%d, want 100x60", w, h)
	}

	fb := NewFramebuffer(100, 60)
	r.Render(fb)
	if disp.drawn != uv.Drawable(fb) {
		t.Error("Render did not hand the framebuffer to the display")
	}
	if err := r.Flush(); err != nil || disp.displays != 1 {
		t.Errorf("Flush() = %v after %d displays", err, disp.displays)
	}

	disp.err = errors.New("tty gone")
	if err := r.Flush(); !errors.Is(err, disp.err) {
		t.Errorf("Flush() = %v, want the display error", err)
	}
}
