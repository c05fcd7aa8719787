package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/taigrr/plyview/pkg/bmp"
	"github.com/taigrr/plyview/pkg/math3d"
	"github.com/taigrr/plyview/pkg/models"
	"github.com/taigrr/plyview/pkg/scene"
)

var (
	inspectTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	inspectKey    = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	inspectValue  = lipgloss.NewStyle().Padding(0, 1)
	inspectBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	inspectError  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func newInspectCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "inspect file...",
		Short: "Describe meshes and textures without opening a window",
		Long: "inspect prints what plyview reads from each file: the PLY header and decoded\n" +
			"counts, the BMP header, glTF mesh counts or image dimensions.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				r, err := inspectFile(path, strict)
				if err != nil {
					failed++
					lipgloss.Fprintln(cmd.OutOrStdout(), inspectTitle.Render(path))
					lipgloss.Fprintln(cmd.OutOrStdout(), inspectError.Render(err.Error()))
					continue
				}
				lipgloss.Fprintln(cmd.OutOrStdout(), r.render())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be read", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject malformed PLY and BMP files instead of reading what parses")
	return cmd
}

// report is what inspect found out about one file.
type report struct {
	path string
	kind string
	rows [][2]string
}

func (r *report) add(key, value string) {
	r.rows = append(r.rows, [2]string{key, value})
}

func (r *report) addInt(key string, v int) {
	r.add(key, strconv.Itoa(v))
}

// value returns the first value recorded under key.
func (r *report) value(key string) (string, bool) {
	for _, row := range r.rows {
		if row[0] == key {
			return row[1], true
		}
	}
	return "", false
}

func (r *report) render() string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(inspectBorder).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return inspectKey
			}
			return inspectValue
		})
	for _, row := range r.rows {
		t.Row(row[0], row[1])
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		inspectTitle.Render(fmt.Sprintf("%s (%s)", r.path, r.kind)),
		t.Render(),
	)
}

// inspectFile reads path with the decoder plyview would use for it.
func inspectFile(path string, strict bool) (*report, error) {
	r := &report{path: path}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ply":
		return r, inspectPLY(r, path, strict)
	case ".glb", ".gltf":
		return r, inspectGLTF(r, path)
	case ".bmp":
		return r, inspectBMP(r, path, strict)
	case ".png", ".jpg", ".jpeg", ".tga":
		return r, inspectImage(r, path, strings.TrimPrefix(ext, "."), strict)
	default:
		return nil, fmt.Errorf("%s: unsupported file type %q", path, ext)
	}
}

func inspectPLY(r *report, path string, strict bool) error {
	r.kind = "PLY mesh"
	dec := models.PLYDecoder{Strict: strict}
	m, h, err := dec.Load(path)
	if err != nil {
		return err
	}

	r.add("format", strings.TrimSpace(h.Format+" "+h.Version))
	if h.VertexCount >= 0 {
		r.addInt("declared vertices", h.VertexCount)
	} else {
		r.add("declared vertices", "none")
	}
	r.addInt("declared faces", h.FaceCount)
	r.add("vertex properties", strings.Join(h.Properties, " "))
	for _, c := range h.Comments {
		r.add("comment", c)
	}
	addMesh(r, m)
	return nil
}

func inspectGLTF(r *report, path string) error {
	r.kind = "glTF mesh"
	m, img, err := models.LoadGLBWithTexture(path)
	if err != nil {
		return err
	}
	addMesh(r, m)
	if img != nil {
		b := img.Bounds()
		r.add("embedded texture", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
	} else {
		r.add("embedded texture", "none")
	}
	return nil
}

func addMesh(r *report, m *models.Mesh) {
	r.addInt("vertices", m.VertexCount())
	r.addInt("triangles", m.TriangleCount())
	if m.VertexCount() == 0 {
		return
	}
	m.CalculateBounds()
	r.add("bounds min", formatVec(m.BoundsMin))
	r.add("bounds max", formatVec(m.BoundsMax))
	r.add("size", formatVec(m.Size()))
}

func inspectBMP(r *report, path string, strict bool) error {
	r.kind = "BMP image"
	f, err := os.Open(path)
	if err != nil {
		return &bmp.IOError{Op: "open", Path: path, Err: err}
	}
	h, err := bmp.DecodeHeader(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	r.add("size", fmt.Sprintf("%dx%d", h.Width, h.Height))
	r.add("data offset", strconv.FormatUint(uint64(h.DataOffset), 10))
	r.add("image size", strconv.FormatUint(uint64(h.ImageSize), 10))

	_, err = bmp.DecodeFile(path)
	var fe bmp.FormatError
	switch {
	case err == nil:
		r.add("pixels", "32-bit, decoded")
	case errors.As(err, &fe) && !strict:
		if _, ferr := scene.LoadTexture(path, false); ferr != nil {
			return ferr
		}
		r.add("pixels", "converted ("+string(fe)+")")
	default:
		return err
	}
	return nil
}

func inspectImage(r *report, path, format string, strict bool) error {
	r.kind = strings.ToUpper(format) + " image"
	pix, err := scene.LoadTexture(path, strict)
	if err != nil {
		return err
	}
	r.add("size", fmt.Sprintf("%dx%d", pix.Width, pix.Height))
	return nil
}

func formatVec(v math3d.Vec3) string {
	return fmt.Sprintf("%.3f %.3f %.3f", v.X, v.Y, v.Z)
}
