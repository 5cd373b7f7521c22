package main

import (
	"pbr-demo/libutil"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	Position mgl32.Vec3
	// pitch, yaw, roll in degrees
	Orientation mgl32.Vec3
	// in degrees
	VerticalFov       float32
	ViewportDimension mgl32.Vec2
	ClippingPlanes    mgl32.Vec2
	ViewMatrix        mgl32.Mat4
	ProjectionMatrix  mgl32.Mat4
}

// NewCamera looks down +Z from in front of the sphere grid.
func NewCamera(width, height int) *Camera {
	cam := &Camera{
		Position:          mgl32.Vec3{0, 0, -10},
		Orientation:       mgl32.Vec3{0, 180, 0},
		VerticalFov:       45,
		ViewportDimension: mgl32.Vec2{float32(width), float32(height)},
		ClippingPlanes:    mgl32.Vec2{0.1, 100},
	}
	cam.UpdateProjectionMatrix()
	cam.UpdateViewMatrix()
	return cam
}

func (cam *Camera) UpdateViewMatrix() {
	r := cam.Quaternion()
	t := mgl32.Translate3D(-cam.Position[0], -cam.Position[1], -cam.Position[2])
	cam.ViewMatrix = r.Mat4().Mul4(t)
}

func (cam *Camera) UpdateProjectionMatrix() {
	w, h := cam.ViewportDimension[0], cam.ViewportDimension[1]
	if h == 0 {
		// minimized
		return
	}
	n, f := cam.ClippingPlanes[0], cam.ClippingPlanes[1]
	cam.ProjectionMatrix = mgl32.Perspective(cam.VerticalFov*libutil.Deg2Rad, w/h, n, f)
}

func (cam *Camera) Quaternion() mgl32.Quat {
	return mgl32.AnglesToQuat(cam.Orientation[0]*libutil.Deg2Rad, cam.Orientation[1]*libutil.Deg2Rad, cam.Orientation[2]*libutil.Deg2Rad, mgl32.XYZ)
}

// Look turns the camera by a cursor delta. Pitch is limited to straight up and down.
func (cam *Camera) Look(delta mgl32.Vec2, sensitivity float32) {
	cam.Orientation[0] = libutil.Clamp(cam.Orientation[0]+delta[1]*sensitivity, -90, 90)
	cam.Orientation[1] += delta[0] * sensitivity
}

func (cam *Camera) Fly(vec mgl32.Vec3) {
	r := cam.Quaternion()
	cam.Position = cam.Position.Add(r.Conjugate().Rotate(vec))
}

// Forward is the viewing direction in world space.
func (cam *Camera) Forward() mgl32.Vec3 {
	return cam.Quaternion().Conjugate().Rotate(mgl32.Vec3{0, 0, -1})
}
