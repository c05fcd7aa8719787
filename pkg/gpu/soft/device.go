// Package soft implements gpu.Device on the CPU rasterizer in package
// render. It interprets the built-in shaders' contract directly: attribute
// location 0 is the object-space position, location 1 is the texture
// coordinate, the MVP uniform transforms positions to clip space and the
// sampler uniform selects the texture unit.
package soft

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/taigrr/plyview/pkg/gpu"
	"github.com/taigrr/plyview/pkg/math3d"
	"github.com/taigrr/plyview/pkg/render"
)

// ErrInvalidHandle is recorded when a call names an object that does not
// exist or has the wrong kind.
var ErrInvalidHandle = errors.New("invalid handle")

// ErrInvalidOperation is recorded when a call is not allowed in the current
// state, such as drawing with no program in use.
var ErrInvalidOperation = errors.New("invalid operation")

const maxTextureUnits = 16

// Stats counts the work done since the last Clear.
type Stats struct {
	Draws     int // DrawElements calls that reached the rasterizer
	Culled    int // DrawElements calls rejected by the frustum test
	Triangles int // triangles that produced at least one fragment or line
}

type program struct {
	mat4s map[string]math3d.Mat4
	ints  map[string]int
}

type buffer struct {
	size    int // components per vertex, 0 for index buffers
	floats  []float32
	indices []uint32
}

type vertexArray struct {
	attribs  map[uint32]gpu.Handle
	elements gpu.Handle
	bounds   render.AABB
}

// Device is a software gpu.Device drawing into a framebuffer.
type Device struct {
	fb   *render.Framebuffer
	rast *render.Rasterizer

	next     gpu.Handle
	programs map[gpu.Handle]*program
	arrays   map[gpu.Handle]*vertexArray
	buffers  map[gpu.Handle]*buffer
	textures map[gpu.Handle]*render.Texture

	curProgram gpu.Handle
	curArray   gpu.Handle
	units      [maxTextureUnits]gpu.Handle

	wireframe bool
	err       error
	stats     Stats

	// WireColor is the line color used in wireframe mode.
	WireColor render.Color
}

// New creates a device with a width x height framebuffer.
func New(width, height int) *Device {
	fb := render.NewFramebuffer(width, height)
	return &Device{
		fb:        fb,
		rast:      render.NewRasterizer(fb),
		programs:  map[gpu.Handle]*program{},
		arrays:    map[gpu.Handle]*vertexArray{},
		buffers:   map[gpu.Handle]*buffer{},
		textures:  map[gpu.Handle]*render.Texture{},
		WireColor: render.ColorWire,
	}
}

// Framebuffer returns the color buffer the device draws into.
func (d *Device) Framebuffer() *render.Framebuffer {
	return d.fb
}

// Rasterizer returns the rasterizer, for settings such as back-face culling.
func (d *Device) Rasterizer() *render.Rasterizer {
	return d.rast
}

// Resize changes the framebuffer size. Contents are discarded.
func (d *Device) Resize(width, height int) {
	if width == d.fb.Width && height == d.fb.Height {
		return
	}
	d.fb.Resize(width, height)
	d.rast.Resize()
}

// Clear fills the color buffer with c, resets the depth buffer and starts
// a new Stats frame.
func (d *Device) Clear(c render.Color) {
	d.fb.Clear(c)
	d.rast.ClearDepth()
	d.stats = Stats{}
}

// Stats returns the counters accumulated since the last Clear.
func (d *Device) Stats() Stats {
	return d.stats
}

// Err returns the first error recorded since the previous call and clears
// it, the way glGetError does.
func (d *Device) Err() error {
	err := d.err
	d.err = nil
	return err
}

func (d *Device) fail(err error, format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("soft: %s: %w", fmt.Sprintf(format, args...), err)
	}
}

func (d *Device) alloc() gpu.Handle {
	d.next++
	return d.next
}

// NewProgram accepts any pair of sources that both declare main. The
// pipeline itself is fixed.
func (d *Device) NewProgram(vertexSrc, fragmentSrc string) (gpu.Handle, error) {
	if !strings.Contains(vertexSrc, "main") {
		return 0, errors.New("soft: vertex shader has no main")
	}
	if !strings.Contains(fragmentSrc, "main") {
		return 0, errors.New("soft: fragment shader has no main")
	}
	h := d.alloc()
	d.programs[h] = &program{mat4s: map[string]math3d.Mat4{}, ints: map[string]int{}}
	return h, nil
}

func (d *Device) UseProgram(p gpu.Handle) {
	if p != 0 && d.programs[p] == nil {
		d.fail(ErrInvalidHandle, "use program %d", p)
		return
	}
	d.curProgram = p
}

func (d *Device) DeleteProgram(p gpu.Handle) {
	if d.programs[p] == nil {
		d.fail(ErrInvalidHandle, "delete program %d", p)
		return
	}
	delete(d.programs, p)
	if d.curProgram == p {
		d.curProgram = 0
	}
}

func (d *Device) SetUniformMat4(p gpu.Handle, name string, m math3d.Mat4) {
	prog := d.programs[p]
	if prog == nil {
		d.fail(ErrInvalidHandle, "uniform %s of program %d", name, p)
		return
	}
	prog.mat4s[name] = m
}

func (d *Device) SetUniformInt(p gpu.Handle, name string, v int) {
	prog := d.programs[p]
	if prog == nil {
		d.fail(ErrInvalidHandle, "uniform %s of program %d", name, p)
		return
	}
	prog.ints[name] = v
}

func (d *Device) NewVertexArray() gpu.Handle {
	h := d.alloc()
	d.arrays[h] = &vertexArray{attribs: map[uint32]gpu.Handle{}}
	return h
}

func (d *Device) BindVertexArray(vao gpu.Handle) {
	if vao != 0 && d.arrays[vao] == nil {
		d.fail(ErrInvalidHandle, "bind vertex array %d", vao)
		return
	}
	d.curArray = vao
}

func (d *Device) DeleteVertexArray(vao gpu.Handle) {
	if d.arrays[vao] == nil {
		d.fail(ErrInvalidHandle, "delete vertex array %d", vao)
		return
	}
	delete(d.arrays, vao)
	if d.curArray == vao {
		d.curArray = 0
	}
}

func (d *Device) NewVertexBuffer(location uint32, size int, data []float32) gpu.Handle {
	va := d.arrays[d.curArray]
	if va == nil {
		d.fail(ErrInvalidOperation, "vertex buffer with no vertex array bound")
		return 0
	}
	if size <= 0 || len(data)%size != 0 {
		d.fail(ErrInvalidOperation, "vertex buffer of %d floats with %d components", len(data), size)
		return 0
	}
	h := d.alloc()
	d.buffers[h] = &buffer{size: size, floats: slices.Clone(data)}
	va.attribs[location] = h
	if location == gpu.PositionLocation && size == 3 {
		va.bounds = render.AABBFromPositions(data)
	}
	return h
}

func (d *Device) NewIndexBuffer(indices []uint32) gpu.Handle {
	va := d.arrays[d.curArray]
	if va == nil {
		d.fail(ErrInvalidOperation, "index buffer with no vertex array bound")
		return 0
	}
	h := d.alloc()
	d.buffers[h] = &buffer{indices: slices.Clone(indices)}
	va.elements = h
	return h
}

func (d *Device) DeleteBuffer(b gpu.Handle) {
	if d.buffers[b] == nil {
		d.fail(ErrInvalidHandle, "delete buffer %d", b)
		return
	}
	delete(d.buffers, b)
}

// NewTexture stores the pixels with repeat wrapping and bilinear filtering,
// the GL_REPEAT and GL_LINEAR defaults of the GL device.
func (d *Device) NewTexture(width, height int, rgba []byte) gpu.Handle {
	if width <= 0 || height <= 0 || len(rgba) < width*height*4 {
		d.fail(ErrInvalidOperation, "texture %dx%d from %d bytes", width, height, len(rgba))
		return 0
	}
	h := d.alloc()
	d.textures[h] = render.NewTextureRGBA(width, height, rgba)
	return h
}

func (d *Device) BindTexture(unit int, tex gpu.Handle) {
	if unit < 0 || unit >= maxTextureUnits {
		d.fail(ErrInvalidOperation, "texture unit %d", unit)
		return
	}
	if tex != 0 && d.textures[tex] == nil {
		d.fail(ErrInvalidHandle, "bind texture %d", tex)
		return
	}
	d.units[unit] = tex
}

func (d *Device) DeleteTexture(tex gpu.Handle) {
	if d.textures[tex] == nil {
		d.fail(ErrInvalidHandle, "delete texture %d", tex)
		return
	}
	delete(d.textures, tex)
	for i, t := range d.units {
		if t == tex {
			d.units[i] = 0
		}
	}
}

// Texture returns the texture object for h, or nil.
func (d *Device) Texture(h gpu.Handle) *render.Texture {
	return d.textures[h]
}

func (d *Device) SetWireframe(on bool) {
	d.wireframe = on
}
