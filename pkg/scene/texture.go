package scene

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	xbmp "golang.org/x/image/bmp"

	"github.com/taigrr/plyview/pkg/bmp"
)

// White is the 1x1 texture used by meshes that have none.
func White() *bmp.PixelBuffer {
	return &bmp.PixelBuffer{Width: 1, Height: 1, Pix: []byte{255, 255, 255, 255}}
}

// LoadTexture decodes an image file into a bottom-up pixel buffer.
// 32-bit BMPs go through package bmp. With strict unset, BMPs it rejects
// (24-bit, top-down) are retried with the general BMP decoder. PNG, JPEG,
// TGA and WebP files are converted.
func LoadTexture(path string, strict bool) (*bmp.PixelBuffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		pix, err := bmp.DecodeFile(path)
		var fe bmp.FormatError
		if err == nil || strict || !errors.As(err, &fe) {
			return pix, err
		}
		img, ferr := decodeFile(path, xbmp.Decode)
		if ferr != nil {
			return nil, err
		}
		return bmp.FromImage(img), nil
	case ".tga":
		img, err := decodeFile(path, tga.Decode)
		if err != nil {
			return nil, err
		}
		return bmp.FromImage(img), nil
	default:
		img, err := decodeFile(path, func(r io.Reader) (image.Image, error) {
			img, _, err := image.Decode(r)
			return img, err
		})
		if err != nil {
			return nil, err
		}
		return bmp.FromImage(img), nil
	}
}

func decodeFile(path string, decode func(io.Reader) (image.Image, error)) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &bmp.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	img, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", path, err)
	}
	return img, nil
}

// textureCache decodes each texture path once, however many meshes share
// it. It is safe for concurrent use.
type textureCache struct {
	strict bool

	mu    sync.Mutex
	items map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	pix  *bmp.PixelBuffer
	err  error
}

func newTextureCache(strict bool) *textureCache {
	return &textureCache{strict: strict, items: map[string]*cacheEntry{}}
}

func (c *textureCache) get(path string) (*bmp.PixelBuffer, error) {
	c.mu.Lock()
	e, ok := c.items[path]
	if !ok {
		e = &cacheEntry{}
		c.items[path] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.pix, e.err = LoadTexture(path, c.strict)
	})
	return e.pix, e.err
}

func (c *textureCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
