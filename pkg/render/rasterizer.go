package render

import (
	"math"

	"github.com/taigrr/plyview/pkg/math3d"
)

// ClipVertex is a vertex after the vertex stage: a clip-space position and
// the texture coordinate to interpolate across the triangle.
type ClipVertex struct {
	Pos math3d.Vec4
	UV  math3d.Vec2
}

// Rasterizer draws clip-space primitives into a framebuffer with a depth
// buffer. Front faces are counter-clockwise in normalized device
// coordinates, as in GL.
type Rasterizer struct {
	fb      *Framebuffer
	zbuffer []float64 // Depth buffer (1D array, row-major)

	// CullBackFaces skips clockwise triangles. Off by default, like GL.
	CullBackFaces bool
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{fb: fb}
	r.Resize()
	return r
}

// Framebuffer returns the target framebuffer.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// Resize resizes the rasterizer's buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
	r.ClearDepth()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// Depth returns the stored depth at (x, y), or MaxFloat64 when nothing has
// been drawn there.
func (r *Rasterizer) Depth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // Screen coordinates
	Z    float64 // NDC depth (for Z-buffer)
	InvW float64 // 1/w for perspective-correct interpolation
	UV   math3d.Vec2
}

// toScreen performs the perspective divide and viewport transform.
func (r *Rasterizer) toScreen(v ClipVertex) screenVertex {
	invW := 1.0 / v.Pos.W
	return screenVertex{
		X:    (v.Pos.X*invW + 1) * 0.5 * float64(r.Width()),
		Y:    (1 - v.Pos.Y*invW) * 0.5 * float64(r.Height()), // Y flipped
		Z:    v.Pos.Z * invW,
		InvW: invW,
		UV:   v.UV,
	}
}

// nearDist is the signed distance to the GL near plane (z = -w) in clip space.
func nearDist(p math3d.Vec4) float64 {
	return p.Z + p.W
}

// minW keeps clipped vertices away from the w = 0 singularity.
const minW = 1e-6

func lerpClip(a, b ClipVertex, t float64) ClipVertex {
	return ClipVertex{Pos: a.Pos.Lerp(b.Pos, t), UV: a.UV.Lerp(b.UV, t)}
}

// clipNear clips a triangle against the near plane (Sutherland-Hodgman).
// The result is a convex polygon of 0, 3 or 4 vertices.
func clipNear(in [3]ClipVertex, out *[4]ClipVertex) int {
	n := 0
	for i := range 3 {
		a, b := in[i], in[(i+1)%3]
		da, db := nearDist(a.Pos), nearDist(b.Pos)
		aIn := da >= 0 && a.Pos.W > minW
		bIn := db >= 0 && b.Pos.W > minW

		if aIn {
			out[n] = a
			n++
		}
		if aIn != bIn && n < 4 {
			t := da / (da - db)
			out[n] = lerpClip(a, b, t)
			n++
		}
	}
	if n < 3 {
		return 0
	}
	return n
}

// DrawTriangle rasterizes a clip-space triangle with perspective-correct UV
// interpolation, sampling tex for color (white when tex is nil). Triangles
// crossing the near plane are clipped. It reports whether any part of the
// triangle survived clipping and culling.
func (r *Rasterizer) DrawTriangle(v [3]ClipVertex, tex *Texture) bool {
	if r.fb == nil {
		return false
	}

	// Trivial cases first: fully in front of the near plane, or fully behind.
	inside := 0
	for i := range 3 {
		if nearDist(v[i].Pos) >= 0 && v[i].Pos.W > minW {
			inside++
		}
	}
	switch inside {
	case 0:
		return false
	case 3:
		return r.rasterize(r.toScreen(v[0]), r.toScreen(v[1]), r.toScreen(v[2]), tex)
	}

	var poly [4]ClipVertex
	n := clipNear(v, &poly)
	drawn := false
	for i := 1; i+1 < n; i++ {
		if r.rasterize(r.toScreen(poly[0]), r.toScreen(poly[i]), r.toScreen(poly[i+1]), tex) {
			drawn = true
		}
	}
	return drawn
}

// rasterize fills a screen-space triangle using edge functions with
// incremental updates.
func (r *Rasterizer) rasterize(s0, s1, s2 screenVertex, tex *Texture) bool {
	// Screen Y points down, so counter-clockwise in NDC has negative area here.
	cross := (s1.X-s0.X)*(s2.Y-s0.Y) - (s1.Y-s0.Y)*(s2.X-s0.X)
	if cross == 0 {
		return false
	}
	if cross > 0 && r.CullBackFaces {
		return false
	}
	if cross < 0 {
		s1, s2 = s2, s1
		cross = -cross
	}

	// Bounding box (clamped to screen)
	minX := int(math.Max(0, math.Floor(min(s0.X, s1.X, s2.X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max(s0.X, s1.X, s2.X))))
	minY := int(math.Max(0, math.Floor(min(s0.Y, s1.Y, s2.Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max(s0.Y, s1.Y, s2.Y))))

	if minX > maxX || minY > maxY {
		return true
	}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	A0, B0, C0 := edgeCoeffs(s1.X, s1.Y, s2.X, s2.Y)
	A1, B1, C1 := edgeCoeffs(s2.X, s2.Y, s0.X, s0.Y)
	A2, B2, C2 := edgeCoeffs(s0.X, s0.Y, s1.X, s1.Y)
	invArea := 1.0 / cross

	// Evaluate edge functions at the first pixel center of the bounding box
	px := float64(minX) + 0.5
	py := float64(minY) + 0.5

	w0Row := A0*px + B0*py + C0
	w1Row := A1*px + B1*py + C1
	w2Row := A2*px + B2*py + C2

	width := r.Width()
	zbuffer := r.zbuffer
	pixels := r.fb.Pixels

	for y := minY; y <= maxY; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		rowOffset := y * width

		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				bc0 := w0 * invArea
				bc1 := w1 * invArea
				bc2 := w2 * invArea

				z := bc0*s0.Z + bc1*s1.Z + bc2*s2.Z
				idx := rowOffset + x
				if z >= -1 && z <= 1 && z < zbuffer[idx] {
					c := ColorWhite
					if tex != nil {
						// Interpolate UV/w and 1/w, then divide to get correct UV
						pw0 := bc0 * s0.InvW
						pw1 := bc1 * s1.InvW
						pw2 := bc2 * s2.InvW
						invOneOverW := 1.0 / (pw0 + pw1 + pw2)
						u := (pw0*s0.UV.X + pw1*s1.UV.X + pw2*s2.UV.X) * invOneOverW
						v := (pw0*s0.UV.Y + pw1*s1.UV.Y + pw2*s2.UV.Y) * invOneOverW
						c = tex.Sample(u, v)
					}
					zbuffer[idx] = z
					pixels[idx] = c
				}
			}

			// Step in X direction
			w0 += A0
			w1 += A1
			w2 += A2
		}

		// Step in Y direction
		w0Row += B0
		w1Row += B1
		w2Row += B2
	}
	return true
}

// edgeCoeffs returns A, B, C for the edge function
// edge(x,y) = A*x + B*y + C, which is positive left of the edge.
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1 // dy
	B = x1 - x0 // -dx
	C = x0*y1 - x1*y0
	return
}

// DrawLine draws a depth-tested clip-space line segment, clipped against
// the near plane.
func (r *Rasterizer) DrawLine(a, b math3d.Vec4, c Color) {
	if r.fb == nil {
		return
	}
	da, db := nearDist(a), nearDist(b)
	aIn := da >= 0 && a.W > minW
	bIn := db >= 0 && b.W > minW
	switch {
	case !aIn && !bIn:
		return
	case !aIn:
		a = a.Lerp(b, da/(da-db))
	case !bIn:
		b = b.Lerp(a, db/(db-da))
	}
	if a.W <= minW || b.W <= minW {
		return
	}

	s0 := r.toScreen(ClipVertex{Pos: a})
	s1 := r.toScreen(ClipVertex{Pos: b})
	if !clipSegment(&s0, &s1, float64(r.Width()), float64(r.Height())) {
		return
	}
	x0, y0 := int(math.Floor(s0.X)), int(math.Floor(s0.Y))
	x1, y1 := int(math.Floor(s1.X)), int(math.Floor(s1.Y))
	steps := max(abs(x1-x0), abs(y1-y0))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	width, height := r.Width(), r.Height()

	for i := 0; ; i++ {
		if x0 >= 0 && x0 < width && y0 >= 0 && y0 < height {
			t := 0.0
			if steps > 0 {
				t = float64(i) / float64(steps)
			}
			z := s0.Z + (s1.Z-s0.Z)*t
			idx := y0*width + x0
			if z >= -1 && z <= 1 && z <= r.zbuffer[idx] {
				r.zbuffer[idx] = z
				r.fb.Pixels[idx] = c
			}
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// clipSegment trims a screen-space segment to [0,w) x [0,h) using
// Liang-Barsky. Depth is trimmed along with the position. It returns false
// when nothing is left.
func clipSegment(a, b *screenVertex, w, h float64) bool {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	t0, t1 := 0.0, 1.0
	// Each pair is (p, q) for the constraint t*p <= q.
	for _, pq := range [4][2]float64{
		{-dx, a.X},
		{dx, w - 1e-9 - a.X},
		{-dy, a.Y},
		{dy, h - 1e-9 - a.Y},
	} {
		p, q := pq[0], pq[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}
		t := q / p
		if p < 0 {
			t0 = max(t0, t)
		} else {
			t1 = min(t1, t)
		}
		if t0 > t1 {
			return false
		}
	}
	ax, ay, az := a.X, a.Y, a.Z
	a.X, a.Y, a.Z = ax+dx*t0, ay+dy*t0, az+dz*t0
	b.X, b.Y, b.Z = ax+dx*t1, ay+dy*t1, az+dz*t1
	return true
}
