package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// buildBMP assembles a 32 bpp BMP. dataPos and imageSize are written as
// given, so zero exercises the derivation path. pad extra bytes sit between
// the header and the pixel data.
func buildBMP(w, h int, dataPos, imageSize uint32, pad int, pix []byte) []byte {
	hdr := make([]byte, HeaderSize)
	hdr[0], hdr[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(hdr[0x02:], uint32(HeaderSize+pad+len(pix)))
	binary.LittleEndian.PutUint32(hdr[offDataPos:], dataPos)
	binary.LittleEndian.PutUint32(hdr[0x0E:], 40)
	binary.LittleEndian.PutUint32(hdr[offWidth:], uint32(w))
	binary.LittleEndian.PutUint32(hdr[offHeight:], uint32(h))
	binary.LittleEndian.PutUint16(hdr[0x1A:], 1)
	binary.LittleEndian.PutUint16(hdr[0x1C:], 32)
	binary.LittleEndian.PutUint32(hdr[offBitfields:], biBitfields)
	binary.LittleEndian.PutUint32(hdr[offImageSize:], imageSize)

	var buf bytes.Buffer
	buf.Write(hdr)
	buf.Write(make([]byte, pad))
	buf.Write(pix)
	return buf.Bytes()
}

// bgraPixels returns w*h pixels with distinct B, G, R, A bytes.
func bgraPixels(w, h int) []byte {
	pix := make([]byte, w*h*4)
	for i := range w * h {
		pix[i*4+0] = byte(10 + i) // B
		pix[i*4+1] = byte(20 + i) // G
		pix[i*4+2] = byte(30 + i) // R
		pix[i*4+3] = 255
	}
	return pix
}

func TestDecodeSwapsRedAndBlue(t *testing.T) {
	raw := bgraPixels(3, 2)
	data := buildBMP(3, 2, HeaderSize, uint32(len(raw)), 0, raw)

	pb, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if pb.Width != 3 || pb.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", pb.Width, pb.Height)
	}
	if len(pb.Pix) != 3*2*4 {
		t.Fatalf("len(Pix) = %d, want %d", len(pb.Pix), 3*2*4)
	}
	for i := 0; i < len(raw); i += 4 {
		if pb.Pix[i] != raw[i+2] || pb.Pix[i+2] != raw[i] {
			t.Errorf("pixel %d: got %v, want bytes 0 and 2 of %v swapped", i/4, pb.Pix[i:i+4], raw[i:i+4])
		}
		if pb.Pix[i+1] != raw[i+1] || pb.Pix[i+3] != raw[i+3] {
			t.Errorf("pixel %d: bytes 1 and 3 changed: got %v from %v", i/4, pb.Pix[i:i+4], raw[i:i+4])
		}
	}
}

func TestDecodeHeaderDerivation(t *testing.T) {
	tests := []struct {
		name          string
		dataPos       uint32
		imageSize     uint32
		wantDataPos   uint32
		wantImageSize uint32
	}{
		{"both populated", 54, 4 * 4 * 4, 54, 64},
		{"zero image size", 54, 0, 54, 64},
		{"zero data offset", 0, 64, 54, 64},
		{"both zero", 0, 0, 54, 64},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := buildBMP(4, 4, tc.dataPos, tc.imageSize, 0, bgraPixels(4, 4))
			h, err := DecodeHeader(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("DecodeHeader() error = %v", err)
			}
			if h.DataOffset != tc.wantDataPos {
				t.Errorf("DataOffset = %d, want %d", h.DataOffset, tc.wantDataPos)
			}
			if h.ImageSize != tc.wantImageSize {
				t.Errorf("ImageSize = %d, want %d", h.ImageSize, tc.wantImageSize)
			}
			if h.Width != 4 || h.Height != 4 {
				t.Errorf("size = %dx%d, want 4x4", h.Width, h.Height)
			}
		})
	}
}

func TestDecodeSkipsToDataOffset(t *testing.T) {
	raw := bgraPixels(2, 2)
	const pad = 16
	data := buildBMP(2, 2, HeaderSize+pad, 0, pad, raw)

	pb, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if pb.Pix[0] != raw[2] || pb.Pix[2] != raw[0] {
		t.Errorf("first pixel = %v, padding was not skipped", pb.Pix[:4])
	}
}

func TestDecodeFormatErrors(t *testing.T) {
	good := buildBMP(1, 1, 0, 0, 0, bgraPixels(1, 1))

	badMagic := bytes.Clone(good)
	badMagic[0] = 'X'

	notBitfields := bytes.Clone(good)
	binary.LittleEndian.PutUint32(notBitfields[offBitfields:], 0)

	negative := bytes.Clone(good)
	binary.LittleEndian.PutUint32(negative[offHeight:], uint32(0xFFFFFFFF))

	zeroWidth := buildBMP(0, 4, 0, 0, 0, nil)

	// 65536*16384*4 is 2^32, one past what the image size field can hold.
	overflow := buildBMP(65536, 16384, 0, 0, 0, nil)

	undersized := buildBMP(2, 2, 0, 8, 0, bgraPixels(2, 2))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", good[:20]},
		{"bad magic", badMagic},
		{"24 bpp", notBitfields},
		{"top-down", negative},
		{"zero width", zeroWidth},
		{"derived size overflows", overflow},
		{"image size below pixel count", undersized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tc.data))
			var fe FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Decode() error = %v (%T), want FormatError", err, err)
			}
		})
	}
}

func TestDecodeTruncatedPixels(t *testing.T) {
	data := buildBMP(4, 4, 0, 0, 0, bgraPixels(2, 2))

	_, err := Decode(bytes.NewReader(data))
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Decode() error = %v, want IOError", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error %v does not wrap io.ErrUnexpectedEOF", err)
	}
}

func TestDecodeHugeImageSizeOnShortFile(t *testing.T) {
	// The header claims 4 GiB of pixels but the file ends after it.
	data := buildBMP(32768, 32767, 0, 0xFFFFFFFF, 0, bgraPixels(1, 1))

	pb, err := Decode(bytes.NewReader(data))
	if pb != nil {
		t.Fatal("Decode() returned a buffer for a truncated file")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Decode() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDecodeTrimsExtraImageBytes(t *testing.T) {
	raw := append(bgraPixels(2, 1), 1, 2, 3, 4)
	data := buildBMP(2, 1, 0, uint32(len(raw)), 0, raw)

	pb, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(pb.Pix) != 2*1*4 {
		t.Errorf("len(Pix) = %d, want 8", len(pb.Pix))
	}
}

func TestDecodeFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.bmp")

	pb, err := DecodeFile(path)
	if pb != nil {
		t.Errorf("DecodeFile() returned a buffer for a missing file")
	}
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("DecodeFile() error = %v, want IOError", err)
	}
	if ioErr.Path != path {
		t.Errorf("IOError.Path = %q, want %q", ioErr.Path, path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error %v does not wrap fs.ErrNotExist", err)
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.bmp")
	if err := os.WriteFile(path, buildBMP(2, 1, 0, 0, 0, bgraPixels(2, 1)), 0o644); err != nil {
		t.Fatal(err)
	}

	pb, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	if pb.Width != 2 || pb.Height != 1 || len(pb.Pix) != 8 {
		t.Errorf("got %dx%d with %d bytes, want 2x1 with 8", pb.Width, pb.Height, len(pb.Pix))
	}
}

func TestImageFlipsRows(t *testing.T) {
	// Bottom row red, top row blue.
	pb := &PixelBuffer{Width: 1, Height: 2, Pix: []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}}

	img := pb.Image()
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("top pixel = %v, want blue", got)
	}
	if got := img.RGBAAt(0, 1); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("bottom pixel = %v, want red", got)
	}

	back := FromImage(img)
	if !bytes.Equal(back.Pix, pb.Pix) {
		t.Errorf("FromImage(Image()) = %v, want %v", back.Pix, pb.Pix)
	}
}
