//go:build gl

package main

import (
	"context"
	"log"

	"github.com/taigrr/plyview/pkg/config"
	"github.com/taigrr/plyview/pkg/gpu/glgpu"
	"github.com/taigrr/plyview/pkg/scene"
)

// runGL draws the scene with OpenGL in a GLFW window, the way the scene was
// first meant to be shown.
func runGL(ctx context.Context, cfg config.Config) error {
	win, err := glgpu.OpenWindow(cfg.Width, cfg.Height, cfg.Title)
	if err != nil {
		return err
	}
	defer win.Close()

	dev, err := glgpu.NewDevice()
	if err != nil {
		return err
	}
	debugf("OpenGL %s", dev.Version())

	s, err := scene.Load(ctx, dev, cfg)
	if err != nil {
		return err
	}
	defer closeScene(s)
	logScene(s)

	bg := background(cfg)
	r, g, b := float32(bg.R)/255, float32(bg.G)/255, float32(bg.B)/255

	for !win.ShouldClose() && ctx.Err() == nil {
		if win.WireframeToggled() {
			s.ToggleWireframe()
		}
		w, h := win.FramebufferSize()
		dev.Viewport(w, h)
		dev.Clear(r, g, b)
		s.Frame(win.Keys())
		if err := dev.Err(); err != nil {
			log.Printf("frame: %v", err)
		}

		win.SwapBuffers()
		win.PollEvents()
	}
	return nil
}
