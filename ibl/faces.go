package ibl

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CubeFaceBasis is the camera orientation that renders one cube map face.
type CubeFaceBasis struct {
	Direction mgl32.Vec3
	Up        mgl32.Vec3
}

// CubeFaceBases is indexed by CubeMapFace, which matches GL_TEXTURE_CUBE_MAP_POSITIVE_X + i
// and the array layer of the cube view.
// Up is -Y for the side faces because GL cube map t coordinates grow downwards.
var CubeFaceBases = [6]CubeFaceBasis{
	CubeMapPositiveX: {Direction: mgl32.Vec3{1, 0, 0}, Up: mgl32.Vec3{0, -1, 0}},
	CubeMapNegativeX: {Direction: mgl32.Vec3{-1, 0, 0}, Up: mgl32.Vec3{0, -1, 0}},
	CubeMapPositiveY: {Direction: mgl32.Vec3{0, 1, 0}, Up: mgl32.Vec3{0, 0, 1}},
	CubeMapNegativeY: {Direction: mgl32.Vec3{0, -1, 0}, Up: mgl32.Vec3{0, 0, -1}},
	CubeMapPositiveZ: {Direction: mgl32.Vec3{0, 0, 1}, Up: mgl32.Vec3{0, -1, 0}},
	CubeMapNegativeZ: {Direction: mgl32.Vec3{0, 0, -1}, Up: mgl32.Vec3{0, -1, 0}},
}

const (
	captureNear = 0.1
	captureFar  = 100.0
)

// FaceView looks from the origin along the face direction.
func FaceView(face CubeMapFace) mgl32.Mat4 {
	b := CubeFaceBases[face]
	return mgl32.LookAtV(mgl32.Vec3{}, b.Direction, b.Up)
}

// CaptureProjection covers exactly one cube face.
func CaptureProjection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(90), 1, captureNear, captureFar)
}
