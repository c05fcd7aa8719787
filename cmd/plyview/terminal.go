package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/plyview/pkg/config"
	"github.com/taigrr/plyview/pkg/render"
)

// runTerminal renders on the software device and presents the frames in
// the terminal with half blocks, two pixels per cell. The surface follows
// the terminal size rather than the configured width and height.
func runTerminal(ctx context.Context, cfg config.Config) error {
	term := uv.DefaultTerminal()

	cols, rows, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	presenter := render.NewTerminalRenderer(term, cols, rows)
	fbWidth, fbHeight := presenter.FramebufferSize()

	dev, s, err := loadSoftScene(ctx, cfg, fbWidth, fbHeight)
	if err != nil {
		return err
	}
	defer closeScene(s)

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	restoreLog := quietLog()
	defer restoreLog()

	term.EnterAltScreen()
	term.HideCursor()
	if err := term.Resize(cols, rows); err != nil {
		return fmt.Errorf("resize terminal: %w", err)
	}

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	title := cfg.Title
	if len(cfg.Meshes) == 1 {
		title = filepath.Base(cfg.Meshes[0].Mesh)
	}
	overlay := newHUD(title, s.TriangleCount())
	keys := newHeldKeys(cfg.FPS)
	bg := background(cfg)
	frame := time.Second / time.Duration(cfg.FPS)
	events := term.Events()

	for {
		// Drain input before drawing so the frame sees every press.
	drain:
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				switch ev := ev.(type) {
				case uv.WindowSizeEvent:
					cols, rows = ev.Width, ev.Height
					term.Erase()
					if err := term.Resize(cols, rows); err != nil {
						return fmt.Errorf("resize terminal: %w", err)
					}
					presenter.Resize(cols, rows)
					fbWidth, fbHeight = presenter.FramebufferSize()
					dev.Resize(fbWidth, fbHeight)
					s.Camera.SetAspectRatio(fbWidth, fbHeight)
				case uv.KeyPressEvent:
					switch {
					case ev.MatchString("esc", "ctrl+c", "q"):
						return nil
					case ev.MatchString("x", "X"):
						s.ToggleWireframe()
					case ev.MatchString("?", "shift+/"):
						overlay.show = !overlay.show
					default:
						keys.handle(ev)
					}
				default:
					keys.handle(ev)
				}
			default:
				break drain
			}
		}

		start := time.Now()
		dev.Clear(bg)
		s.Frame(keys.step())
		if err := dev.Err(); err != nil {
			return fmt.Errorf("draw: %w", err)
		}

		presenter.Render(dev.Framebuffer())
		overlay.tick(start)
		term.Draw(overlay.overlay(s.Wireframe()))
		if err := presenter.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}

		if elapsed := time.Since(start); elapsed < frame {
			time.Sleep(frame - elapsed)
		}
	}
}
