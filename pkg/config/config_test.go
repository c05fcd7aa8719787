package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Title != "My Room" || cfg.Width != 800 || cfg.Height != 600 {
		t.Errorf("window = %q %dx%d, want \"My Room\" 800x600", cfg.Title, cfg.Width, cfg.Height)
	}
	if cfg.Camera.Position != [3]float64{0, 0, 3} || cfg.Camera.Front != [3]float64{0, 0, -1} {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.Camera.Speed != 0.05 {
		t.Errorf("speed = %v, want 0.05", cfg.Camera.Speed)
	}
	if len(cfg.Meshes) != 2 {
		t.Errorf("meshes = %d, want 2", len(cfg.Meshes))
	}
	c := cfg
	if err := c.Resolve(Flags{}); err != nil {
		t.Errorf("default config does not resolve: %v", err)
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	path := writeConfig(t, `{
		"title": "Attic",
		"fps": 30,
		"meshes": [
			{"mesh": "room/floor.ply", "texture": "room/floor.bmp"},
			{"mesh": "/abs/lamp.glb"}
		]
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dir := filepath.Dir(path)

	if cfg.Title != "Attic" || cfg.FPS != 30 {
		t.Errorf("title/fps = %q/%d", cfg.Title, cfg.FPS)
	}
	if cfg.Width != 800 {
		t.Errorf("width = %d, want default 800", cfg.Width)
	}
	want := []Mesh{
		{Mesh: filepath.Join(dir, "room/floor.ply"), Texture: filepath.Join(dir, "room/floor.bmp")},
		{Mesh: "/abs/lamp.glb"},
	}
	if len(cfg.Meshes) != len(want) {
		t.Fatalf("meshes = %v", cfg.Meshes)
	}
	for i := range want {
		if cfg.Meshes[i] != want[i] {
			t.Errorf("mesh %d = %+v, want %+v", i, cfg.Meshes[i], want[i])
		}
	}
}

func TestLoadWithoutMeshesKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"fps": 24}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Meshes) != 2 {
		t.Errorf("meshes = %v, want the default pair", cfg.Meshes)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: err = %v, want fs.ErrNotExist", err)
	}
	if _, err := Load(writeConfig(t, `{"width": "wide"}`)); err == nil {
		t.Error("bad JSON: expected error")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		flags   Flags
		check   func(t *testing.T, c Config)
		wantErr bool
	}{
		{
			name:  "flags override",
			cfg:   Default(),
			flags: Flags{Width: 320, Height: 200, FPS: 10, Background: "1, 2,3", Speed: 0.5, Strict: true},
			check: func(t *testing.T, c Config) {
				if c.Width != 320 || c.Height != 200 || c.FPS != 10 {
					t.Errorf("size/fps = %dx%d@%d", c.Width, c.Height, c.FPS)
				}
				if c.Background != [3]uint8{1, 2, 3} {
					t.Errorf("background = %v", c.Background)
				}
				if c.Camera.Speed != 0.5 || !c.Strict {
					t.Errorf("speed/strict = %v/%v", c.Camera.Speed, c.Strict)
				}
			},
		},
		{
			name: "zero values get defaults",
			cfg:  Config{Meshes: []Mesh{{Mesh: "a.ply"}}},
			check: func(t *testing.T, c Config) {
				if c.Title != "My Room" || c.Width != 800 || c.FPS != 60 {
					t.Errorf("got %q %d %d", c.Title, c.Width, c.FPS)
				}
				if c.Camera.FOV != 45 || c.Camera.Near != 0.1 || c.Camera.Far != 100 {
					t.Errorf("projection = %+v", c.Camera)
				}
				if c.Camera.Up != [3]float64{0, 1, 0} {
					t.Errorf("up = %v", c.Camera.Up)
				}
			},
		},
		{
			name:  "mesh flags replace the list",
			cfg:   Default(),
			flags: Flags{Meshes: []Mesh{{Mesh: "cube.ply", Texture: "cube.bmp"}}},
			check: func(t *testing.T, c Config) {
				if len(c.Meshes) != 1 || c.Meshes[0].Mesh != "cube.ply" {
					t.Errorf("meshes = %v", c.Meshes)
				}
			},
		},
		{name: "bad color", cfg: Default(), flags: Flags{Background: "red"}, wantErr: true},
		{name: "color out of range", cfg: Default(), flags: Flags{Background: "0,0,300"}, wantErr: true},
		{name: "no meshes", cfg: Config{}, wantErr: true},
		{name: "empty mesh path", cfg: Config{Meshes: []Mesh{{Texture: "t.bmp"}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cfg
			err := c.Resolve(tt.flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestParseMeshArg(t *testing.T) {
	tests := []struct {
		arg  string
		want Mesh
	}{
		{"table.ply", Mesh{Mesh: "table.ply"}},
		{"table.ply:table.bmp", Mesh{Mesh: "table.ply", Texture: "table.bmp"}},
		{"dir/a.ply:dir/a.png", Mesh{Mesh: "dir/a.ply", Texture: "dir/a.png"}},
		{`C:\room.glb`, Mesh{Mesh: `C:\room.glb`}},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			if got := ParseMeshArg(tt.arg); got != tt.want {
				t.Errorf("ParseMeshArg(%q) = %+v, want %+v", tt.arg, got, tt.want)
			}
		})
	}
}
