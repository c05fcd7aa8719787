// Package bmp decodes uncompressed 32-bit BMP files into RGBA pixel buffers
// ready for texture upload.
//
// Only the layout written by common image editors for 32 bpp bitmaps is
// accepted: a 54-byte header, the "BM" signature and a compression field of
// BI_BITFIELDS (3). Pixel rows are kept in file order, which for BMP is
// bottom-up and matches the row order glTexImage2D expects.
package bmp

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
)

// HeaderSize is the size of the fixed BMP file + info header.
const HeaderSize = 54

// Field offsets within the 54-byte header.
const (
	offMagic     = 0x00
	offDataPos   = 0x0A
	offWidth     = 0x12
	offHeight    = 0x16
	offBitfields = 0x1E
	offImageSize = 0x22
)

// biBitfields is the compression value 32 bpp files carry.
const biBitfields = 3

// A FormatError reports that the input is not a BMP this package can decode.
type FormatError string

func (e FormatError) Error() string { return "bmp: invalid format: " + string(e) }

// An IOError reports a failure to open or read a BMP file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return "bmp: " + e.Op + ": " + e.Err.Error()
	}
	return "bmp: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// Header holds the fields read from the fixed header.
type Header struct {
	DataOffset uint32 // byte offset of the pixel data, 54 when the file leaves it zero
	ImageSize  uint32 // pixel data size in bytes, width*height*4 when the file leaves it zero
	Width      int
	Height     int
}

// PixelBuffer is a width x height x 4 RGBA buffer, row-major, no padding.
// Row 0 is the bottom row of the picture.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// DecodeFile opens path and decodes it as a 32-bit BMP.
func DecodeFile(path string) (*PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	pb, err := Decode(bufio.NewReader(f))
	var ioErr *IOError
	if errors.As(err, &ioErr) && ioErr.Path == "" {
		ioErr.Path = path
	}
	return pb, err
}

// DecodeHeader reads and validates the 54-byte header, deriving the data
// offset and image size when the file leaves them zero.
func DecodeHeader(r io.Reader) (Header, error) {
	var b [HeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, FormatError("header shorter than 54 bytes")
		}
		return Header{}, &IOError{Op: "read header", Err: err}
	}
	return parseHeader(b[:])
}

func parseHeader(b []byte) (Header, error) {
	if b[offMagic] != 'B' || b[offMagic+1] != 'M' {
		return Header{}, FormatError("missing BM signature")
	}
	if v := binary.LittleEndian.Uint32(b[offBitfields:]); v != biBitfields {
		return Header{}, FormatError(fmt.Sprintf("not a 32 bpp bitmap (compression field %d)", v))
	}

	h := Header{
		DataOffset: binary.LittleEndian.Uint32(b[offDataPos:]),
		ImageSize:  binary.LittleEndian.Uint32(b[offImageSize:]),
		Width:      int(int32(binary.LittleEndian.Uint32(b[offWidth:]))),
		Height:     int(int32(binary.LittleEndian.Uint32(b[offHeight:]))),
	}
	if h.Width <= 0 || h.Height <= 0 {
		return Header{}, FormatError(fmt.Sprintf("bad dimensions %dx%d", h.Width, h.Height))
	}

	want := uint64(h.Width) * uint64(h.Height) * 4
	if want > math.MaxUint32 {
		return Header{}, FormatError(fmt.Sprintf("%dx%d pixels do not fit in a 32-bit image size", h.Width, h.Height))
	}
	if h.ImageSize == 0 {
		h.ImageSize = uint32(want)
	}
	if uint64(h.ImageSize) < want {
		return Header{}, FormatError(fmt.Sprintf("image size %d too small for %dx%d pixels", h.ImageSize, h.Width, h.Height))
	}
	if h.DataOffset == 0 {
		h.DataOffset = HeaderSize
	}
	if h.DataOffset < HeaderSize {
		return Header{}, FormatError(fmt.Sprintf("data offset %d inside header", h.DataOffset))
	}
	return h, nil
}

// Decode reads a 32-bit BMP from r and returns its pixels converted from
// BGRA to RGBA.
func Decode(r io.Reader) (*PixelBuffer, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}

	if skip := int64(h.DataOffset) - HeaderSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, &IOError{Op: "skip to pixel data", Err: noEOF(err)}
		}
	}

	// The buffer grows with the data actually present, so a header claiming
	// gigabytes costs nothing when the file is short.
	pix, err := io.ReadAll(io.LimitReader(r, int64(h.ImageSize)))
	if err != nil {
		return nil, &IOError{Op: "read pixel data", Err: err}
	}
	if len(pix) < int(h.ImageSize) {
		return nil, &IOError{Op: "read pixel data", Err: io.ErrUnexpectedEOF}
	}
	pix = pix[:h.Width*h.Height*4]

	swapRedBlue(pix)

	return &PixelBuffer{Width: h.Width, Height: h.Height, Pix: pix}, nil
}

// swapRedBlue swaps bytes 0 and 2 of every 4-byte pixel in place.
func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Image returns a top-down copy of the buffer suitable for display or encoding.
func (p *PixelBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	stride := p.Width * 4
	for y := range p.Height {
		src := p.row(p.Height - 1 - y)
		copy(img.Pix[y*img.Stride:y*img.Stride+stride], src)
	}
	return img
}

// FromImage converts any image into a bottom-up RGBA PixelBuffer.
func FromImage(img image.Image) *PixelBuffer {
	b := img.Bounds()
	p := &PixelBuffer{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    make([]byte, b.Dx()*b.Dy()*4),
	}
	for y := range p.Height {
		row := p.row(p.Height - 1 - y)
		for x := range p.Width {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// RGBA returns 16-bit values, scale to 8-bit
			row[x*4+0] = uint8(r >> 8)
			row[x*4+1] = uint8(g >> 8)
			row[x*4+2] = uint8(bl >> 8)
			row[x*4+3] = uint8(a >> 8)
		}
	}
	return p
}

// row returns the bytes of row y.
func (p *PixelBuffer) row(y int) []byte {
	stride := p.Width * 4
	return p.Pix[y*stride : (y+1)*stride]
}
