package gpu

import (
	"errors"
	"fmt"

	"github.com/taigrr/plyview/pkg/bmp"
	"github.com/taigrr/plyview/pkg/math3d"
	"github.com/taigrr/plyview/pkg/models"
)

// Mesh is a decoded mesh and texture resident on a device. It owns every
// handle it creates and releases them in Close.
type Mesh struct {
	dev Device

	program  Handle
	vao      Handle
	position Handle
	texCoord Handle
	index    Handle
	texture  Handle

	triangles int
	boundsMin math3d.Vec3
	boundsMax math3d.Vec3
	closed    bool
}

// New uploads mesh and pix to dev. Positions go to attribute location 0 and
// texture coordinates to location 1; the pixel buffer becomes the texture
// sampled on unit 0. If any step fails, the handles created so far are
// deleted before the error is returned.
func New(dev Device, mesh *models.Mesh, pix *bmp.PixelBuffer) (*Mesh, error) {
	if dev == nil {
		return nil, errors.New("gpu: nil device")
	}
	if mesh == nil {
		return nil, errors.New("gpu: nil mesh")
	}
	if pix == nil {
		return nil, errors.New("gpu: nil pixel buffer")
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("gpu: %s: %w", mesh.Name, err)
	}
	if pix.Width <= 0 || pix.Height <= 0 {
		return nil, fmt.Errorf("gpu: empty %dx%d texture", pix.Width, pix.Height)
	}
	if len(pix.Pix) < pix.Width*pix.Height*4 {
		return nil, fmt.Errorf("gpu: pixel buffer has %d bytes, want %d", len(pix.Pix), pix.Width*pix.Height*4)
	}

	m := &Mesh{
		dev:       dev,
		triangles: mesh.TriangleCount(),
		boundsMin: mesh.BoundsMin,
		boundsMax: mesh.BoundsMax,
	}

	prog, err := dev.NewProgram(VertexShader, FragmentShader)
	if err != nil {
		return nil, fmt.Errorf("gpu: program: %w", err)
	}
	m.program = prog
	dev.UseProgram(prog)
	dev.SetUniformInt(prog, UniformTexture, 0)

	m.vao = dev.NewVertexArray()
	dev.BindVertexArray(m.vao)
	m.position = dev.NewVertexBuffer(PositionLocation, 3, mesh.Positions())
	m.texCoord = dev.NewVertexBuffer(TexCoordLocation, 2, mesh.TexCoords())
	m.index = dev.NewIndexBuffer(mesh.Indices())
	dev.BindVertexArray(0)

	m.texture = dev.NewTexture(pix.Width, pix.Height, pix.Pix)

	if err := deviceErr(dev); err != nil {
		m.release()
		return nil, fmt.Errorf("gpu: upload %s: %w", mesh.Name, err)
	}
	return m, nil
}

// Draw renders the mesh with transform as the MVP matrix.
func (m *Mesh) Draw(transform math3d.Mat4) {
	if m.closed {
		return
	}
	m.dev.UseProgram(m.program)
	m.dev.BindVertexArray(m.vao)
	m.dev.SetUniformMat4(m.program, UniformMVP, transform)
	m.dev.BindTexture(0, m.texture)
	m.dev.DrawElements(m.triangles * 3)
	m.dev.BindVertexArray(0)
}

// TriangleCount returns the number of uploaded triangles.
func (m *Mesh) TriangleCount() int {
	return m.triangles
}

// Bounds returns the object-space bounding box of the mesh.
func (m *Mesh) Bounds() (min, max math3d.Vec3) {
	return m.boundsMin, m.boundsMax
}

// Close deletes the device objects. It is safe to call more than once.
func (m *Mesh) Close() error {
	if m.closed {
		return nil
	}
	m.release()
	return deviceErr(m.dev)
}

func (m *Mesh) release() {
	m.closed = true
	if m.texture != 0 {
		m.dev.DeleteTexture(m.texture)
	}
	for _, b := range []Handle{m.position, m.texCoord, m.index} {
		if b != 0 {
			m.dev.DeleteBuffer(b)
		}
	}
	if m.vao != 0 {
		m.dev.DeleteVertexArray(m.vao)
	}
	if m.program != 0 {
		m.dev.DeleteProgram(m.program)
	}
	m.texture, m.position, m.texCoord, m.index, m.vao, m.program = 0, 0, 0, 0, 0, 0
}
