package main

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type fakeWindow struct {
	cursor  mgl32.Vec2
	keys    map[glfw.Key]bool
	buttons map[glfw.MouseButton]bool
	reads   map[glfw.Key]int
	now     float64
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		keys:    map[glfw.Key]bool{},
		buttons: map[glfw.MouseButton]bool{},
		reads:   map[glfw.Key]int{},
	}
}

func (w *fakeWindow) GetCursorPos() (x, y float64) {
	return float64(w.cursor[0]), float64(w.cursor[1])
}

func (w *fakeWindow) GetKey(key glfw.Key) glfw.Action {
	w.reads[key]++
	if w.keys[key] {
		return glfw.Press
	}
	return glfw.Release
}

func (w *fakeWindow) GetMouseButton(button glfw.MouseButton) glfw.Action {
	if w.buttons[button] {
		return glfw.Press
	}
	return glfw.Release
}

func (w *fakeWindow) clock() float64 { return w.now }

// step advances the clock by dt and polls.
func (w *fakeWindow) step(in *Input, dt float64) {
	w.now += dt
	in.Poll()
}

func TestInputFirstFrameHasTime(t *testing.T) {
	win := newFakeWindow()
	win.now = 3
	in := newInput(win, win.clock, false)
	assert.InDelta(t, 1./60., in.FrameTime(), 1e-6)

	win.step(in, 0.25)
	assert.InDelta(t, 0.25, in.FrameTime(), 1e-6)
}

func TestInputQuitOnlyOnPress(t *testing.T) {
	win := newFakeWindow()
	in := newInput(win, win.clock, false)
	assert.False(t, in.Quit())

	win.keys[glfw.KeyEscape] = true
	win.step(in, 0.1)
	assert.True(t, in.Quit())
	win.step(in, 0.1)
	assert.False(t, in.Quit(), "held escape")

	// escape held since startup is not a press
	in = newInput(win, win.clock, false)
	assert.False(t, in.Quit())
}

func TestInputDragSkipsPressFrame(t *testing.T) {
	win := newFakeWindow()
	in := newInput(win, win.clock, false)

	win.cursor = mgl32.Vec2{100, 50}
	win.buttons[glfw.MouseButtonRight] = true
	win.step(in, 0.1)
	_, ok := in.Drag()
	assert.False(t, ok)

	win.cursor = mgl32.Vec2{110, 70}
	win.step(in, 0.1)
	delta, ok := in.Drag()
	assert.True(t, ok)
	assert.Equal(t, mgl32.Vec2{10, 20}, delta)

	win.buttons[glfw.MouseButtonRight] = false
	win.step(in, 0.1)
	_, ok = in.Drag()
	assert.False(t, ok)
}

func TestInputReadsFlyKeysOnlyWhenFlying(t *testing.T) {
	win := newFakeWindow()
	win.keys[glfw.KeyW] = true
	win.keys[glfw.KeyD] = true

	in := newInput(win, win.clock, false)
	assert.Equal(t, mgl32.Vec3{}, in.FlyDirection())
	assert.Zero(t, win.reads[glfw.KeyW])

	in = newInput(win, win.clock, true)
	dir := in.FlyDirection()
	assert.InDelta(t, 1, dir.Len(), 1e-6)
	assert.Greater(t, dir.X(), float32(0))
	assert.Less(t, dir.Z(), float32(0))
	assert.Equal(t, 1, win.reads[glfw.KeyW])

	// opposite keys cancel
	win.keys[glfw.KeyA] = true
	win.keys[glfw.KeyS] = true
	win.step(in, 0.1)
	assert.Equal(t, mgl32.Vec3{}, in.FlyDirection())
}

func TestControlCameraEscapeQuits(t *testing.T) {
	win := newFakeWindow()
	in := newInput(win, win.clock, false)
	win.keys[glfw.KeyEscape] = true
	win.step(in, 0.1)
	assert.True(t, ControlCamera(in, NewCamera(1280, 720), DefaultConfig().Input))
}

func TestControlCameraLooksWhileDragging(t *testing.T) {
	cfg := DefaultConfig().Input
	cam := NewCamera(1280, 720)
	win := newFakeWindow()
	in := newInput(win, win.clock, false)

	win.cursor = mgl32.Vec2{10, 20}
	win.step(in, 0.1)
	assert.False(t, ControlCamera(in, cam, cfg))
	assert.Equal(t, mgl32.Vec3{0, 180, 0}, cam.Orientation, "no drag, no look")

	// the press frame only records the cursor position
	win.buttons[glfw.MouseButtonRight] = true
	win.cursor = mgl32.Vec2{30, 60}
	win.step(in, 0.1)
	ControlCamera(in, cam, cfg)
	assert.Equal(t, mgl32.Vec3{0, 180, 0}, cam.Orientation)

	win.cursor = mgl32.Vec2{40, 80}
	win.step(in, 0.1)
	ControlCamera(in, cam, cfg)
	assert.InDelta(t, 20*cfg.LookSensitivity, cam.Orientation[0], 1e-5)
	assert.InDelta(t, 180+10*cfg.LookSensitivity, cam.Orientation[1], 1e-5)
}

func TestControlCameraFlyIsOptional(t *testing.T) {
	cfg := DefaultConfig().Input
	cam := NewCamera(1280, 720)
	win := newFakeWindow()
	win.keys[glfw.KeyW] = true

	in := newInput(win, win.clock, false)
	win.step(in, 0.5)
	ControlCamera(in, cam, cfg)
	assert.Equal(t, mgl32.Vec3{0, 0, -10}, cam.Position)

	cfg.Fly = true
	in = newInput(win, win.clock, true)
	win.step(in, 0.5)
	ControlCamera(in, cam, cfg)
	assert.InDelta(t, -10+0.5*cfg.FlySpeed, cam.Position.Z(), 1e-4)
}
