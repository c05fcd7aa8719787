//go:build gl

// Package glgpu implements gpu.Device on an OpenGL 4.1 core context, and
// opens that context in a GLFW window. Build with -tags gl.
package glgpu

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/taigrr/plyview/pkg/gpu"
	"github.com/taigrr/plyview/pkg/math3d"
)

// Device issues GL calls on the context current on the calling thread.
type Device struct {
	// uniform locations per program, looked up once
	uniforms map[gpu.Handle]map[string]int32
}

// NewDevice loads the GL function pointers for the current context and sets
// the fixed state: depth testing on, faces of both windings drawn.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("glgpu: init: %w", err)
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return &Device{uniforms: map[gpu.Handle]map[string]int32{}}, nil
}

// Version returns the GL_VERSION string of the context.
func (d *Device) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// Clear clears color and depth.
func (d *Device) Clear(r, g, b float32) {
	gl.ClearColor(r, g, b, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Viewport sets the drawable area in framebuffer pixels.
func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Err drains the GL error queue and reports the first error, if any.
func (d *Device) Err() error {
	first := uint32(gl.NO_ERROR)
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == gl.NO_ERROR {
			first = code
		}
	}
	if first == gl.NO_ERROR {
		return nil
	}
	return fmt.Errorf("glgpu: GL error 0x%04x", first)
}

func (d *Device) NewProgram(vertexSrc, fragmentSrc string) (gpu.Handle, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	defer gl.DeleteShader(vert)
	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}
	defer gl.DeleteShader(frag)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", strings.TrimRight(log, "\x00"))
	}
	return gpu.Handle(prog), nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	if !strings.HasSuffix(src, "\x00") {
		src += "\x00"
	}
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (d *Device) UseProgram(p gpu.Handle) {
	gl.UseProgram(uint32(p))
}

func (d *Device) DeleteProgram(p gpu.Handle) {
	delete(d.uniforms, p)
	gl.DeleteProgram(uint32(p))
}

func (d *Device) location(p gpu.Handle, name string) int32 {
	locs := d.uniforms[p]
	if locs == nil {
		locs = map[string]int32{}
		d.uniforms[p] = locs
	}
	loc, ok := locs[name]
	if !ok {
		loc = gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
		locs[name] = loc
	}
	return loc
}

// SetUniformMat4 uploads m through mgl32, which shares GL's column-major
// layout. The program must be in use.
func (d *Device) SetUniformMat4(p gpu.Handle, name string, m math3d.Mat4) {
	mat := mgl32.Mat4(m.Float32())
	gl.UniformMatrix4fv(d.location(p, name), 1, false, &mat[0])
}

func (d *Device) SetUniformInt(p gpu.Handle, name string, v int) {
	gl.Uniform1i(d.location(p, name), int32(v))
}

func (d *Device) NewVertexArray() gpu.Handle {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return gpu.Handle(vao)
}

func (d *Device) BindVertexArray(vao gpu.Handle) {
	gl.BindVertexArray(uint32(vao))
}

func (d *Device) DeleteVertexArray(vao gpu.Handle) {
	v := uint32(vao)
	gl.DeleteVertexArrays(1, &v)
}

func (d *Device) NewVertexBuffer(location uint32, size int, data []float32) gpu.Handle {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
	gl.EnableVertexAttribArray(location)
	gl.VertexAttribPointer(location, int32(size), gl.FLOAT, false, int32(size*4), gl.PtrOffset(0))
	return gpu.Handle(vbo)
}

func (d *Device) NewIndexBuffer(indices []uint32) gpu.Handle {
	var ibo uint32
	gl.GenBuffers(1, &ibo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ibo)
	if len(indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	}
	return gpu.Handle(ibo)
}

func (d *Device) DeleteBuffer(b gpu.Handle) {
	v := uint32(b)
	gl.DeleteBuffers(1, &v)
}

// NewTexture uploads RGBA pixels with linear filtering and repeat wrapping.
// Rows are bottom first, which is GL's own order.
func (d *Device) NewTexture(width, height int, rgba []byte) gpu.Handle {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(width), int32(height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return gpu.Handle(tex)
}

func (d *Device) BindTexture(unit int, tex gpu.Handle) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

func (d *Device) DeleteTexture(tex gpu.Handle) {
	v := uint32(tex)
	gl.DeleteTextures(1, &v)
}

func (d *Device) DrawElements(count int) {
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, nil)
}

func (d *Device) SetWireframe(on bool) {
	if on {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

var _ gpu.Device = (*Device)(nil)
