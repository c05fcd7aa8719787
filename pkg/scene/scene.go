// Package scene loads the meshes named by a config, uploads them to a
// device and draws them from a first-person camera every frame.
package scene

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/plyview/pkg/bmp"
	"github.com/taigrr/plyview/pkg/config"
	"github.com/taigrr/plyview/pkg/gpu"
	"github.com/taigrr/plyview/pkg/math3d"
	"github.com/taigrr/plyview/pkg/models"
	"github.com/taigrr/plyview/pkg/render"
)

// MeshInfo describes one uploaded mesh.
type MeshInfo struct {
	Path      string
	Texture   string // "" when the texture came from the mesh file or is the white fallback
	Vertices  int
	Triangles int
	TexWidth  int
	TexHeight int
}

// Scene is a set of uploaded meshes sharing one camera and model matrix.
type Scene struct {
	Camera *render.Camera
	// Model is applied to every mesh. The identity by default.
	Model math3d.Mat4

	dev       gpu.Device
	meshes    []*gpu.Mesh
	info      []MeshInfo
	wireframe bool
}

type decoded struct {
	mesh *models.Mesh
	pix  *bmp.PixelBuffer
	info MeshInfo
}

// Load decodes every mesh and texture of cfg in parallel, then uploads them
// to dev on the calling goroutine, which must own the device. Textures
// shared by several meshes are decoded once. If any step fails, meshes
// already uploaded are closed.
func Load(ctx context.Context, dev gpu.Device, cfg config.Config) (*Scene, error) {
	if len(cfg.Meshes) == 0 {
		return nil, errors.New("scene: no meshes")
	}

	out := make([]decoded, len(cfg.Meshes))
	cache := newTextureCache(cfg.Strict)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, entry := range cfg.Meshes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := decode(entry, cfg.Strict, cache)
			if err != nil {
				return fmt.Errorf("scene: %s: %w", entry.Mesh, err)
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Scene{
		Camera: NewCamera(cfg),
		Model:  math3d.Identity(),
		dev:    dev,
	}
	for _, d := range out {
		m, err := gpu.New(dev, d.mesh, d.pix)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("scene: upload %s: %w", d.info.Path, err)
		}
		s.meshes = append(s.meshes, m)
		s.info = append(s.info, d.info)
	}
	return s, nil
}

func decode(entry config.Mesh, strict bool, cache *textureCache) (decoded, error) {
	var (
		mesh     *models.Mesh
		embedded *bmp.PixelBuffer
		err      error
	)
	switch strings.ToLower(filepath.Ext(entry.Mesh)) {
	case ".glb", ".gltf":
		m, img, gerr := models.LoadGLBWithTexture(entry.Mesh)
		mesh, err = m, gerr
		if img != nil {
			embedded = bmp.FromImage(img)
		}
	default:
		mesh, err = models.Load(entry.Mesh, &models.PLYDecoder{Strict: strict})
	}
	if err != nil {
		return decoded{}, err
	}

	pix := embedded
	if entry.Texture != "" {
		if pix, err = cache.get(entry.Texture); err != nil {
			return decoded{}, err
		}
	}
	if pix == nil {
		pix = White()
	}

	return decoded{
		mesh: mesh,
		pix:  pix,
		info: MeshInfo{
			Path:      entry.Mesh,
			Texture:   entry.Texture,
			Vertices:  mesh.VertexCount(),
			Triangles: mesh.TriangleCount(),
			TexWidth:  pix.Width,
			TexHeight: pix.Height,
		},
	}, nil
}

// NewCamera builds the initial camera from cfg. The aspect ratio follows
// the configured surface size.
func NewCamera(cfg config.Config) *render.Camera {
	c := cfg.Camera
	cam := render.NewCamera()
	cam.Position = math3d.V3(c.Position[0], c.Position[1], c.Position[2])
	if c.Front != ([3]float64{}) {
		cam.Front = math3d.V3(c.Front[0], c.Front[1], c.Front[2]).Normalize()
	}
	if c.Up != ([3]float64{}) {
		cam.Up = math3d.V3(c.Up[0], c.Up[1], c.Up[2]).Normalize()
	}
	if c.FOV > 0 {
		cam.FOV = math3d.Radians(c.FOV)
	}
	if c.Near > 0 {
		cam.Near = c.Near
	}
	if c.Far > cam.Near {
		cam.Far = c.Far
	}
	if c.Speed > 0 {
		cam.Speed = c.Speed
	}
	cam.SetAspectRatio(cfg.Width, cfg.Height)
	return cam
}

// Meshes describes the uploaded meshes in config order.
func (s *Scene) Meshes() []MeshInfo {
	return s.info
}

// TriangleCount returns the total number of triangles in the scene.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, m := range s.meshes {
		n += m.TriangleCount()
	}
	return n
}

// Bounds returns the box containing every mesh, before the model matrix.
func (s *Scene) Bounds() render.AABB {
	var box render.AABB
	for i, m := range s.meshes {
		lo, hi := m.Bounds()
		if i == 0 {
			box = render.NewAABB(lo, hi)
			continue
		}
		box = box.Union(render.NewAABB(lo, hi))
	}
	return box
}

// SetWireframe switches every later draw between filled and outlined.
func (s *Scene) SetWireframe(on bool) {
	s.wireframe = on
	s.dev.SetWireframe(on)
}

// ToggleWireframe flips the wireframe setting.
func (s *Scene) ToggleWireframe() {
	s.SetWireframe(!s.wireframe)
}

// Wireframe reports whether outlines are drawn.
func (s *Scene) Wireframe() bool {
	return s.wireframe
}

// Frame runs one iteration of the render loop body: apply the held keys to
// the camera, then draw.
func (s *Scene) Frame(keys render.KeyState) {
	s.Camera.ProcessInput(keys)
	s.Draw()
}

// Draw computes projection * view * model once and draws every mesh with it.
func (s *Scene) Draw() {
	mvp := s.Camera.ViewProjectionMatrix().Mul(s.Model)
	for _, m := range s.meshes {
		m.Draw(mvp)
	}
}

// Close releases every mesh. Errors are joined.
func (s *Scene) Close() error {
	var errs []error
	for _, m := range s.meshes {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.meshes = nil
	return errors.Join(errs...)
}
