// Package gpu uploads meshes and textures to a graphics device and draws
// them. The Device interface is shaped after the OpenGL calls a textured
// mesh needs, so the same upload and draw code runs on a real GL context
// (package glgpu) or on the software rasterizer (package soft).
package gpu

import "github.com/taigrr/plyview/pkg/math3d"

// Handle names a device object: program, vertex array, buffer or texture.
// The zero Handle names nothing.
type Handle uint32

// Attribute locations used by the built-in shaders.
const (
	PositionLocation = 0 // vec3 aPos
	TexCoordLocation = 1 // vec2 aTexCoords
)

// Device is a current rendering context. Calls are made from a single
// goroutine, the one that owns the context.
type Device interface {
	// NewProgram compiles and links a shader program.
	NewProgram(vertexSrc, fragmentSrc string) (Handle, error)
	UseProgram(p Handle)
	DeleteProgram(p Handle)

	// SetUniformMat4 sets a mat4 uniform of p. The matrix is column-major.
	SetUniformMat4(p Handle, name string, m math3d.Mat4)
	// SetUniformInt sets an int uniform of p, such as a sampler unit.
	SetUniformInt(p Handle, name string, v int)

	NewVertexArray() Handle
	// BindVertexArray makes vao current; 0 unbinds.
	BindVertexArray(vao Handle)
	DeleteVertexArray(vao Handle)

	// NewVertexBuffer uploads static float data and attaches it to the bound
	// vertex array at location, size components per vertex.
	NewVertexBuffer(location uint32, size int, data []float32) Handle
	// NewIndexBuffer uploads static triangle indices and attaches them to
	// the bound vertex array.
	NewIndexBuffer(indices []uint32) Handle
	DeleteBuffer(b Handle)

	// NewTexture uploads width*height RGBA pixels, bottom row first.
	NewTexture(width, height int, rgba []byte) Handle
	BindTexture(unit int, tex Handle)
	DeleteTexture(tex Handle)

	// DrawElements draws count indices of the bound vertex array as
	// triangles.
	DrawElements(count int)
	// SetWireframe switches between filled and outlined triangles.
	SetWireframe(on bool)
}

// ErrorReporter is implemented by devices that record failures of calls
// that cannot return an error, the way glGetError does.
type ErrorReporter interface {
	Err() error
}

func deviceErr(dev Device) error {
	if r, ok := dev.(ErrorReporter); ok {
		return r.Err()
	}
	return nil
}
