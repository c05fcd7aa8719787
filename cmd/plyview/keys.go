package main

import (
	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/plyview/pkg/render"
)

// action is a camera control bound to a key.
type action int

const (
	actForward action = iota
	actBack
	actLeft
	actRight
	actTurnLeft
	actTurnRight
	actLookUp
	actLookDown
	numActions
)

// keyNames lists the key strings for each action, as matched by
// uv.Key.MatchString.
var keyNames = [numActions][]string{
	actForward:   {"w", "W"},
	actBack:      {"s", "S"},
	actLeft:      {"a", "A"},
	actRight:     {"d", "D"},
	actTurnLeft:  {"left"},
	actTurnRight: {"right"},
	actLookUp:    {"up"},
	actLookDown:  {"down"},
}

func actionFor(k uv.Key) (action, bool) {
	for a, names := range keyNames {
		if k.MatchString(names...) {
			return action(a), true
		}
	}
	return 0, false
}

// heldThreshold is the pressure above which a key counts as held.
const heldThreshold = 0.5

// heldKeys turns terminal key presses into held-key state. Most terminals
// send no release events, only auto-repeated presses, so every press sets
// the key's pressure to 1 and a critically damped spring pulls it back to
// 0. The key stays held while repeats keep arriving, and for a few hundred
// milliseconds after the last one. A release event, when the terminal sends
// one, drops the pressure at once.
type heldKeys struct {
	spring   harmonica.Spring
	pressure [numActions]float64
	velocity [numActions]float64
}

func newHeldKeys(fps int) *heldKeys {
	// Frequency 4.0 keeps a key above the threshold through the typical
	// 250-500ms auto-repeat delay.
	return &heldKeys{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (h *heldKeys) press(a action) {
	h.pressure[a], h.velocity[a] = 1, 0
}

func (h *heldKeys) release(a action) {
	h.pressure[a], h.velocity[a] = 0, 0
}

// handle applies a key event and reports whether it was a camera key.
func (h *heldKeys) handle(ev uv.Event) bool {
	switch ev := ev.(type) {
	case uv.KeyPressEvent:
		if a, ok := actionFor(uv.Key(ev)); ok {
			h.press(a)
			return true
		}
	case uv.KeyReleaseEvent:
		if a, ok := actionFor(uv.Key(ev)); ok {
			h.release(a)
			return true
		}
	}
	return false
}

// step returns the keys held this frame and advances the decay by one frame.
func (h *heldKeys) step() render.KeyState {
	held := func(a action) bool { return h.pressure[a] > heldThreshold }
	keys := render.KeyState{
		Forward:   held(actForward),
		Back:      held(actBack),
		Left:      held(actLeft),
		Right:     held(actRight),
		TurnLeft:  held(actTurnLeft),
		TurnRight: held(actTurnRight),
		LookUp:    held(actLookUp),
		LookDown:  held(actLookDown),
	}
	for a := range h.pressure {
		h.pressure[a], h.velocity[a] = h.spring.Update(h.pressure[a], h.velocity[a], 0)
	}
	return keys
}
