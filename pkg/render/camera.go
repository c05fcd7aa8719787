package render

import (
	"math"

	"github.com/taigrr/plyview/pkg/math3d"
)

// Default camera parameters.
const (
	DefaultFOV       = 45.0 // degrees
	DefaultNear      = 0.1
	DefaultFar       = 100.0
	DefaultSpeed     = 0.05 // world units per frame
	DefaultTurnSpeed = 0.02 // radians per frame
)

// maxPitch keeps the front vector away from the up vector.
const maxPitch = 89 * math.Pi / 180

// KeyState is the set of movement keys held during one frame.
type KeyState struct {
	Forward, Back bool // W, S
	Left, Right   bool // A, D

	TurnLeft, TurnRight bool
	LookUp, LookDown    bool
}

// Any reports whether any key is held.
func (k KeyState) Any() bool {
	return k != KeyState{}
}

// Camera is a first-person camera: a position plus front and up
// directions, with a perspective projection.
type Camera struct {
	Position math3d.Vec3
	Front    math3d.Vec3 // unit view direction
	Up       math3d.Vec3

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	Speed     float64 // distance moved per frame while a key is held
	TurnSpeed float64 // radians turned per frame while a key is held
}

// NewCamera creates a camera at (0,0,3) looking down -Z, with a 45 degree
// field of view and an 800x600 aspect ratio.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 0, 3),
		Front:       math3d.V3(0, 0, -1),
		Up:          math3d.Up(),
		FOV:         math3d.Radians(DefaultFOV),
		AspectRatio: 800.0 / 600.0,
		Near:        DefaultNear,
		Far:         DefaultFar,
		Speed:       DefaultSpeed,
		TurnSpeed:   DefaultTurnSpeed,
	}
}

// SetAspectRatio sets the aspect ratio from a surface size.
func (c *Camera) SetAspectRatio(width, height int) {
	if width > 0 && height > 0 {
		c.AspectRatio = float64(width) / float64(height)
	}
}

// Right returns the unit vector to the camera's right.
func (c *Camera) Right() math3d.Vec3 {
	return c.Front.Cross(c.Up).Normalize()
}

// ProcessInput applies one frame of held keys. W/S move along the front
// vector and A/D strafe along the right vector, each by Speed; opposite keys
// cancel out.
func (c *Camera) ProcessInput(keys KeyState) {
	if keys.Forward {
		c.Position = c.Position.Add(c.Front.Scale(c.Speed))
	}
	if keys.Back {
		c.Position = c.Position.Sub(c.Front.Scale(c.Speed))
	}
	if keys.Left {
		c.Position = c.Position.Sub(c.Right().Scale(c.Speed))
	}
	if keys.Right {
		c.Position = c.Position.Add(c.Right().Scale(c.Speed))
	}

	var yaw, pitch float64
	if keys.TurnLeft {
		yaw -= c.TurnSpeed
	}
	if keys.TurnRight {
		yaw += c.TurnSpeed
	}
	if keys.LookUp {
		pitch += c.TurnSpeed
	}
	if keys.LookDown {
		pitch -= c.TurnSpeed
	}
	if yaw != 0 || pitch != 0 {
		c.Turn(yaw, pitch)
	}
}

// Turn rotates the view direction by yaw (positive turns right) and pitch
// (positive looks up), in radians. Pitch is clamped short of straight up or
// down.
func (c *Camera) Turn(yaw, pitch float64) {
	f := c.Front.Normalize()
	curPitch := math.Asin(math.Max(-1, math.Min(1, f.Y)))
	curYaw := math.Atan2(f.Z, f.X)

	newPitch := math.Max(-maxPitch, math.Min(maxPitch, curPitch+pitch))
	newYaw := curYaw + yaw

	c.Front = math3d.V3(
		math.Cos(newYaw)*math.Cos(newPitch),
		math.Sin(newPitch),
		math.Sin(newYaw)*math.Cos(newPitch),
	).Normalize()
}

// ViewMatrix returns LookAt(position, position+front, up).
func (c *Camera) ViewMatrix() math3d.Mat4 {
	return math3d.LookAt(c.Position, c.Position.Add(c.Front), c.Up)
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	return math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
}

// ViewProjectionMatrix returns projection * view. Multiply a model matrix on
// the right to get the MVP.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// Frustum returns the current view frustum in world space.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}
