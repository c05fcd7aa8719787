package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/spf13/cobra"
	xbmp "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/taigrr/plyview/pkg/render"
)

// maxSupersample bounds --supersample; 4 already means 16 samples a pixel.
const maxSupersample = 4

func newSnapshotCmd() *cobra.Command {
	var (
		opts   sceneOptions
		output string
		ss     int
		script string
	)
	cmd := &cobra.Command{
		Use:   "snapshot [mesh.ply[:texture.bmp]...]",
		Short: "Render one frame of the scene to an image file",
		Long: "snapshot renders the scene off screen and writes it as PNG, BMP or WebP,\n" +
			"chosen by the output extension. --keys walks the camera first, e.g.\n" +
			"--keys w:40,left:10 holds W for 40 frames and then the left arrow for 10.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := imageFormat(output)
			if err != nil {
				return err
			}
			if ss < 1 || ss > maxSupersample {
				return fmt.Errorf("--supersample must be between 1 and %d", maxSupersample)
			}
			frames, err := parseKeyScript(script)
			if err != nil {
				return err
			}
			cfg, err := opts.load(args)
			if err != nil {
				return err
			}

			dev, s, err := loadSoftScene(cmd.Context(), cfg, cfg.Width*ss, cfg.Height*ss)
			if err != nil {
				return err
			}
			defer closeScene(s)

			for _, keys := range frames {
				s.Camera.ProcessInput(keys)
			}
			dev.Clear(background(cfg))
			s.Draw()
			if err := dev.Err(); err != nil {
				return fmt.Errorf("draw: %w", err)
			}
			st := dev.Stats()
			debugf("drew %d meshes (%d culled), %d triangles", st.Draws, st.Culled, st.Triangles)

			var img image.Image = dev.Framebuffer().ToImage()
			if ss > 1 {
				img = downsample(img, cfg.Width, cfg.Height)
			}
			if err := writeImage(output, img, format); err != nil {
				return err
			}
			debugf("wrote %s", output)
			return nil
		},
	}
	opts.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "snapshot.png", "image to write (.png, .bmp or .webp)")
	cmd.Flags().IntVar(&ss, "supersample", 1, "render at N times the size and scale down")
	cmd.Flags().StringVar(&script, "keys", "", "camera keys to replay before the shot, as key:frames pairs")
	return cmd
}

// parseKeyScript turns "w:40,left:10" into one KeyState per frame. Keys are
// the ones the terminal surface uses: w, a, s, d and the arrow names. A key
// without a count is held for one frame, and "+" joins keys held together,
// as in "w+a:10".
func parseKeyScript(script string) ([]render.KeyState, error) {
	var frames []render.KeyState
	for step := range strings.SplitSeq(script, ",") {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		names, count, found := strings.Cut(step, ":")
		n := 1
		if found {
			var err error
			if n, err = strconv.Atoi(count); err != nil || n < 0 {
				return nil, fmt.Errorf("keys: bad frame count in %q", step)
			}
		}
		var keys render.KeyState
		for name := range strings.SplitSeq(names, "+") {
			a, ok := actionNamed(strings.ToLower(strings.TrimSpace(name)))
			if !ok {
				return nil, fmt.Errorf("keys: unknown key %q", name)
			}
			setAction(&keys, a)
		}
		for range n {
			frames = append(frames, keys)
		}
	}
	return frames, nil
}

func actionNamed(name string) (action, bool) {
	for a, names := range keyNames {
		for _, n := range names {
			if n == name {
				return action(a), true
			}
		}
	}
	return 0, false
}

func setAction(k *render.KeyState, a action) {
	switch a {
	case actForward:
		k.Forward = true
	case actBack:
		k.Back = true
	case actLeft:
		k.Left = true
	case actRight:
		k.Right = true
	case actTurnLeft:
		k.TurnLeft = true
	case actTurnRight:
		k.TurnRight = true
	case actLookUp:
		k.LookUp = true
	case actLookDown:
		k.LookDown = true
	}
}

// downsample scales src to width x height with a Catmull-Rom filter.
func downsample(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// imageFormat picks the encoder for path by extension.
func imageFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".bmp", ".webp":
		return ext[1:], nil
	default:
		return "", fmt.Errorf("cannot write %q images (use .png, .bmp or .webp)", ext)
	}
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return xbmp.Encode(w, img)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
}

func writeImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encodeImage(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
