package main

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
)

var (
	hudBase  = lipgloss.NewStyle().Background(lipgloss.Color("#000000"))
	hudFPS   = hudBase.Foreground(lipgloss.Color("10"))
	hudTitle = hudBase.Foreground(lipgloss.Color("15")).Bold(true)
	hudTris  = hudBase.Foreground(lipgloss.Color("14")).Bold(true)
	hudMode  = hudBase.Foreground(lipgloss.Color("15"))
	hudHint  = hudBase.Foreground(lipgloss.Color("11")).Faint(true)
)

// hud is a one-line overlay with the frame rate, the scene title, the
// triangle count and the wireframe state, drawn over the top terminal row.
type hud struct {
	title     string
	triangles int
	show      bool

	fps     float64
	frames  int
	fpsTime time.Time
}

func newHUD(title string, triangles int) *hud {
	return &hud{title: title, triangles: triangles, fpsTime: time.Now()}
}

// tick counts a frame and refreshes the FPS figure once a second.
func (h *hud) tick(now time.Time) {
	h.frames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.frames) / elapsed.Seconds()
		h.frames = 0
		h.fpsTime = now
	}
}

// line renders the overlay text for a terminal cols cells wide.
func (h *hud) line(cols int, wireframe bool) string {
	check := "[ ]"
	if wireframe {
		check = "[x]"
	}
	left := hudFPS.Render(fmt.Sprintf(" %.0f FPS ", h.fps)) +
		hudTitle.Render(" "+h.title+" ") +
		hudTris.Render(fmt.Sprintf(" %d tris ", h.triangles)) +
		hudMode.Render(" "+check+" wireframe ")
	hint := hudHint.Render(" ? hides ")

	pad := cols - lipgloss.Width(left) - lipgloss.Width(hint)
	if pad < 0 {
		return left
	}
	return left + hudBase.Width(pad).Render("") + hint
}

// overlay returns a drawable that paints the HUD on the first row of the
// area it is given. It draws nothing while the HUD is hidden.
func (h *hud) overlay(wireframe bool) uv.Drawable {
	return uv.DrawableFunc(func(scr uv.Screen, area uv.Rectangle) {
		if !h.show || area.Dy() == 0 {
			return
		}
		row := uv.Rect(area.Min.X, area.Min.Y, area.Dx(), 1)
		uv.NewStyledString(h.line(area.Dx(), wireframe)).Draw(scr, row)
	})
}
