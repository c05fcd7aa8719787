// Package config loads the scene description: window settings, the initial
// camera and the list of mesh/texture pairs to draw.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Camera holds the initial camera placement and projection.
type Camera struct {
	Position [3]float64 `json:"position"`
	Front    [3]float64 `json:"front"`
	Up       [3]float64 `json:"up"`
	FOV      float64    `json:"fov"` // degrees
	Near     float64    `json:"near"`
	Far      float64    `json:"far"`
	Speed    float64    `json:"speed"` // units per frame
}

// Mesh pairs a mesh file with its texture. An empty texture uses the
// image embedded in a glTF file, or plain white.
type Mesh struct {
	Mesh    string `json:"mesh"`
	Texture string `json:"texture,omitempty"`
}

// Config is the complete scene description.
type Config struct {
	Title      string   `json:"title"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	FPS        int      `json:"fps"`
	Background [3]uint8 `json:"background"`
	Camera     Camera   `json:"camera"`
	Meshes     []Mesh   `json:"meshes"`
	Strict     bool     `json:"strict"`
}

// Default returns the built-in scene: Link's house in an 800x600 window
// titled "My Room", viewed from (0,0,3) looking down -Z.
func Default() Config {
	return Config{
		Title:      "My Room",
		Width:      800,
		Height:     600,
		FPS:        60,
		Background: [3]uint8{51, 77, 77},
		Camera: Camera{
			Position: [3]float64{0, 0, 3},
			Front:    [3]float64{0, 0, -1},
			Up:       [3]float64{0, 1, 0},
			FOV:      45,
			Near:     0.1,
			Far:      100,
			Speed:    0.05,
		},
		Meshes: []Mesh{
			{Mesh: "LinksHouse/table.ply", Texture: "LinksHouse/table.bmp"},
			{Mesh: "LinksHouse/walls.ply", Texture: "LinksHouse/walls.bmp"},
		},
	}
}

// Load reads a JSON config file over the defaults. Fields missing from the
// file keep their default values. Relative mesh and texture paths are
// resolved against the directory of the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	cfg.Meshes = nil
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Meshes == nil {
		cfg.Meshes = Default().Meshes
	}

	dir := filepath.Dir(path)
	for i := range cfg.Meshes {
		cfg.Meshes[i].Mesh = resolvePath(dir, cfg.Meshes[i].Mesh)
		cfg.Meshes[i].Texture = resolvePath(dir, cfg.Meshes[i].Texture)
	}
	return cfg, nil
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Flags holds command-line values that override the file. Zero values
// leave the file's setting alone.
type Flags struct {
	Title      string
	Width      int
	Height     int
	FPS        int
	Background string // "R,G,B"
	Speed      float64
	Strict     bool
	Meshes     []Mesh
}

// Resolve applies flags over c and fills anything still unset with the
// defaults. It fails on a malformed background color or an empty scene.
func (c *Config) Resolve(flags Flags) error {
	if flags.Title != "" {
		c.Title = flags.Title
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.Speed > 0 {
		c.Camera.Speed = flags.Speed
	}
	if flags.Strict {
		c.Strict = true
	}
	if len(flags.Meshes) > 0 {
		c.Meshes = flags.Meshes
	}
	if flags.Background != "" {
		bg, err := ParseColor(flags.Background)
		if err != nil {
			return err
		}
		c.Background = bg
	}

	def := Default()
	if c.Title == "" {
		c.Title = def.Title
	}
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.FPS <= 0 {
		c.FPS = def.FPS
	}
	cam := &c.Camera
	if cam.Front == ([3]float64{}) {
		cam.Front = def.Camera.Front
	}
	if cam.Up == ([3]float64{}) {
		cam.Up = def.Camera.Up
	}
	if cam.FOV <= 0 || cam.FOV >= 180 {
		cam.FOV = def.Camera.FOV
	}
	if cam.Near <= 0 {
		cam.Near = def.Camera.Near
	}
	if cam.Far <= cam.Near {
		cam.Far = max(def.Camera.Far, cam.Near*2)
	}
	if cam.Speed <= 0 {
		cam.Speed = def.Camera.Speed
	}

	if len(c.Meshes) == 0 {
		return errors.New("config: no meshes")
	}
	for i, m := range c.Meshes {
		if m.Mesh == "" {
			return fmt.Errorf("config: mesh %d has no path", i)
		}
	}
	return nil
}

// ParseColor parses "R,G,B" with components in 0-255.
func ParseColor(s string) ([3]uint8, error) {
	var out [3]uint8
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("config: color %q: want R,G,B", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return out, fmt.Errorf("config: color %q: %w", s, err)
		}
		out[i] = uint8(v)
	}
	return out, nil
}

// ParseMeshArg parses a "mesh.ply[:texture.bmp]" command-line argument.
func ParseMeshArg(arg string) Mesh {
	// Split on the last colon that is followed by a path, leaving Windows
	// drive letters alone.
	if i := strings.LastIndex(arg, ":"); i > 1 {
		return Mesh{Mesh: arg[:i], Texture: arg[i+1:]}
	}
	return Mesh{Mesh: arg}
}
