package ibl

import "github.com/go-gl/mathgl/mgl32"

// PassState is the part of the pipeline state the irradiance pass changes.
// It is comparable, so callers can check that a pass left it untouched.
type PassState struct {
	DepthTest       bool
	DepthWrite      bool
	CullFace        bool
	Viewport        [4]int
	DrawFramebuffer uint32
}

// FaceTarget holds six renderable faces that share one array texture.
type FaceTarget interface {
	Size() int
	Release()
}

// CubeMap is a cube sampleable view of a finished FaceTarget.
// Releasing it releases the target it was created from.
type CubeMap interface {
	Size() int
	Levels() int
	Layers() int
	Download() (*IblEnv, error)
	Release()
}

// Device is a rendering context able to run the irradiance pass.
type Device[T FaceTarget, C CubeMap] interface {
	PassState() PassState
	RestorePassState(state PassState)
	// BeginPass binds the convolution program, the environment and the cube geometry
	// and disables depth testing, depth writes and face culling.
	BeginPass()
	CreateFaceTarget(size int) (T, error)
	// BindFaceTarget makes the face the only colour target and sets the viewport to cover it.
	BindFaceTarget(target T, face CubeMapFace)
	Clear(color mgl32.Vec4)
	DrawCube(view, projection mgl32.Mat4)
	CreateCubeView(target T) (C, error)
}
