//go:build gl

package glgpu

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/taigrr/plyview/pkg/render"
)

func init() {
	// GLFW event handling must run on the main thread.
	runtime.LockOSThread()
}

// Window is a GLFW window with a current OpenGL 4.1 core context.
type Window struct {
	win        *glfw.Window
	toggleWire bool
}

// OpenWindow initializes GLFW and opens a width x height window with a
// non-resizable core profile context made current on the calling thread.
func OpenWindow(width, height int, title string) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glgpu: glfw init: %w", err)
	}
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glgpu: create window: %w", err)
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(1)

	w := &Window{win: win}
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			win.SetShouldClose(true)
		case glfw.KeyX:
			w.toggleWire = true
		}
	})
	return w, nil
}

// FramebufferSize returns the drawable size in pixels, which differs from
// the window size on high-DPI displays.
func (w *Window) FramebufferSize() (int, int) {
	return w.win.GetFramebufferSize()
}

// Keys returns the movement keys currently held.
func (w *Window) Keys() render.KeyState {
	down := func(k glfw.Key) bool { return w.win.GetKey(k) == glfw.Press }
	return render.KeyState{
		Forward:   down(glfw.KeyW),
		Back:      down(glfw.KeyS),
		Left:      down(glfw.KeyA),
		Right:     down(glfw.KeyD),
		TurnLeft:  down(glfw.KeyLeft),
		TurnRight: down(glfw.KeyRight),
		LookUp:    down(glfw.KeyUp),
		LookDown:  down(glfw.KeyDown),
	}
}

// WireframeToggled reports whether X was pressed since the last call.
func (w *Window) WireframeToggled() bool {
	t := w.toggleWire
	w.toggleWire = false
	return t
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.win.ShouldClose()
}

// SetShouldClose asks the loop to stop.
func (w *Window) SetShouldClose(v bool) {
	w.win.SetShouldClose(v)
}

// SwapBuffers presents the frame.
func (w *Window) SwapBuffers() {
	w.win.SwapBuffers()
}

// PollEvents processes pending window and key events.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	w.win.Destroy()
	glfw.Terminate()
}
