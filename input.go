package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// flyKeys map to the camera axes: forward is -z, up is +y.
var flyKeys = [...]struct {
	key  glfw.Key
	axis mgl32.Vec3
}{
	{glfw.KeyW, mgl32.Vec3{0, 0, -1}},
	{glfw.KeyS, mgl32.Vec3{0, 0, 1}},
	{glfw.KeyA, mgl32.Vec3{-1, 0, 0}},
	{glfw.KeyD, mgl32.Vec3{1, 0, 0}},
	{glfw.KeySpace, mgl32.Vec3{0, 1, 0}},
	{glfw.KeyLeftControl, mgl32.Vec3{0, -1, 0}},
}

// inputSource is the part of a glfw window the demo polls.
type inputSource interface {
	GetCursorPos() (x, y float64)
	GetKey(key glfw.Key) glfw.Action
	GetMouseButton(button glfw.MouseButton) glfw.Action
}

type inputFrame struct {
	time   float32
	cursor mgl32.Vec2
	escape bool
	drag   bool
	fly    mgl32.Vec3
}

// Input keeps the current and previous poll of the few controls the viewer reacts to.
type Input struct {
	src   inputSource
	clock func() float64
	fly   bool

	curr, prev inputFrame
}

// NewInput polls win once. Fly keys are only read when fly is set.
func NewInput(win *glfw.Window, fly bool) *Input {
	return newInput(win, glfw.GetTime, fly)
}

func newInput(src inputSource, clock func() float64, fly bool) *Input {
	in := &Input{src: src, clock: clock, fly: fly}
	in.Poll()
	in.prev = in.curr
	// a zero time delta would stall the first frame's movement
	in.prev.time -= 1. / 60.
	return in
}

// Poll reads the source. Call once per frame after glfw.PollEvents.
func (in *Input) Poll() {
	x, y := in.src.GetCursorPos()
	next := inputFrame{
		time:   float32(in.clock()),
		cursor: mgl32.Vec2{float32(x), float32(y)},
		escape: in.src.GetKey(glfw.KeyEscape) != glfw.Release,
		drag:   in.src.GetMouseButton(glfw.MouseButtonRight) != glfw.Release,
	}
	if in.fly {
		for _, k := range flyKeys {
			if in.src.GetKey(k.key) != glfw.Release {
				next.fly = next.fly.Add(k.axis)
			}
		}
	}
	in.prev, in.curr = in.curr, next
}

func (in *Input) FrameTime() float32 {
	return in.curr.time - in.prev.time
}

// Quit reports an escape press on this frame.
func (in *Input) Quit() bool {
	return in.curr.escape && !in.prev.escape
}

// Drag returns the cursor travel while the right button stays held. The press
// frame reports nothing since its previous cursor position predates the drag.
func (in *Input) Drag() (mgl32.Vec2, bool) {
	if !in.curr.drag || !in.prev.drag {
		return mgl32.Vec2{}, false
	}
	return in.curr.cursor.Sub(in.prev.cursor), true
}

// FlyDirection is the unit camera-space direction of the held fly keys, or zero.
func (in *Input) FlyDirection() mgl32.Vec3 {
	if in.curr.fly.LenSqr() == 0 {
		return mgl32.Vec3{}
	}
	return in.curr.fly.Normalize()
}

// ControlCamera applies mouse look while the right button is held and optional WASD flight.
// It reports whether the window should close.
func ControlCamera(in *Input, cam *Camera, cfg InputConfig) (quit bool) {
	if in.Quit() {
		return true
	}

	if delta, ok := in.Drag(); ok {
		cam.Look(delta, cfg.LookSensitivity)
	}

	if dir := in.FlyDirection(); cfg.Fly && dir.LenSqr() != 0 {
		cam.Fly(dir.Mul(in.FrameTime() * cfg.FlySpeed))
	}

	cam.UpdateViewMatrix()
	return false
}
