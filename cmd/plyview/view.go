package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/taigrr/plyview/pkg/config"
	"github.com/taigrr/plyview/pkg/gpu/soft"
	"github.com/taigrr/plyview/pkg/render"
	"github.com/taigrr/plyview/pkg/scene"
)

// Surfaces a scene can be viewed on.
const (
	surfaceWindow   = "window"
	surfaceTerminal = "terminal"
	surfaceGL       = "gl"
)

func newViewCmd() *cobra.Command {
	var (
		opts    sceneOptions
		surface string
	)
	cmd := &cobra.Command{
		Use:   "view [mesh.ply[:texture.bmp]...]",
		Short: "Open the scene in a window or in the terminal",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(args)
			if err != nil {
				return err
			}
			switch surface {
			case surfaceWindow:
				return runWindow(cmd.Context(), cfg)
			case surfaceTerminal:
				return runTerminal(cmd.Context(), cfg)
			case surfaceGL:
				return runGL(cmd.Context(), cfg)
			default:
				return fmt.Errorf("unknown surface %q (use %s, %s or %s)", surface, surfaceWindow, surfaceTerminal, surfaceGL)
			}
		},
	}
	opts.register(cmd.Flags())
	cmd.Flags().StringVarP(&surface, "surface", "s", surfaceWindow, "where to draw: window, terminal or gl (needs -tags gl)")
	return cmd
}

// loadSoftScene creates a software device of the configured size and
// loads the scene onto it.
func loadSoftScene(ctx context.Context, cfg config.Config, width, height int) (*soft.Device, *scene.Scene, error) {
	dev := soft.New(width, height)
	s, err := scene.Load(ctx, dev, cfg)
	if err != nil {
		return nil, nil, err
	}
	logScene(s)
	return dev, s, nil
}

func logScene(s *scene.Scene) {
	for _, m := range s.Meshes() {
		tex := m.Texture
		if tex == "" {
			tex = "(built in)"
		}
		debugf("loaded %s: %d vertices, %d triangles, texture %s %dx%d",
			m.Path, m.Vertices, m.Triangles, tex, m.TexWidth, m.TexHeight)
	}
	debugf("scene ready: %d meshes, %d triangles", len(s.Meshes()), s.TriangleCount())
}

func closeScene(s *scene.Scene) {
	if err := s.Close(); err != nil {
		log.Printf("close scene: %v", err)
	}
}

func background(cfg config.Config) render.Color {
	return render.RGB(cfg.Background[0], cfg.Background[1], cfg.Background[2])
}
