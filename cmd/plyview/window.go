package main

import (
	"context"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/taigrr/plyview/pkg/config"
	"github.com/taigrr/plyview/pkg/gpu/soft"
	"github.com/taigrr/plyview/pkg/render"
	"github.com/taigrr/plyview/pkg/scene"
)

// runWindow renders on the software device and presents each frame in a
// fixed-size desktop window. It blocks until the window closes, Esc is
// pressed or ctx is done.
func runWindow(ctx context.Context, cfg config.Config) error {
	dev, s, err := loadSoftScene(ctx, cfg, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer closeScene(s)

	g := &windowGame{
		ctx:   ctx,
		dev:   dev,
		scene: s,
		bg:    background(cfg),
		pix:   make([]byte, cfg.Width*cfg.Height*4),
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetTPS(cfg.FPS)
	return ebiten.RunGame(g)
}

type windowGame struct {
	ctx   context.Context
	dev   *soft.Device
	scene *scene.Scene
	bg    render.Color
	pix   []byte
}

func (g *windowGame) Update() error {
	if g.ctx.Err() != nil || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		g.scene.ToggleWireframe()
	}

	g.dev.Clear(g.bg)
	g.scene.Frame(windowKeys())
	return g.dev.Err()
}

func (g *windowGame) Draw(screen *ebiten.Image) {
	g.dev.Framebuffer().CopyTo(g.pix)
	screen.WritePixels(g.pix)
}

func (g *windowGame) Layout(_, _ int) (int, int) {
	fb := g.dev.Framebuffer()
	return fb.Width, fb.Height
}

func windowKeys() render.KeyState {
	return render.KeyState{
		Forward:   ebiten.IsKeyPressed(ebiten.KeyW),
		Back:      ebiten.IsKeyPressed(ebiten.KeyS),
		Left:      ebiten.IsKeyPressed(ebiten.KeyA),
		Right:     ebiten.IsKeyPressed(ebiten.KeyD),
		TurnLeft:  ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		TurnRight: ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		LookUp:    ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		LookDown:  ebiten.IsKeyPressed(ebiten.KeyArrowDown),
	}
}
