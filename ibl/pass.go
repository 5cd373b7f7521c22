package ibl

import (
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

const DefaultIrradianceSize = 64

type PassOptions struct {
	// Size is the edge length of each face in texels. Zero means DefaultIrradianceSize.
	Size int
	// ClearColor is written to every face before it is drawn. The zero value means opaque black.
	ClearColor mgl32.Vec4
}

func (opts PassOptions) withDefaults() PassOptions {
	if opts.Size == 0 {
		opts.Size = DefaultIrradianceSize
	}
	if opts.ClearColor == (mgl32.Vec4{}) {
		opts.ClearColor = mgl32.Vec4{0, 0, 0, 1}
	}
	return opts
}

// RunIrradiancePass renders the convolved environment into six faces and returns them as one cube map.
// The device state seen by PassState is the same after the call as before it, on every path.
// Either a complete cube map or an error is returned, never both.
func RunIrradiancePass[T FaceTarget, C CubeMap](dev Device[T, C], opts PassOptions) (cube C, err error) {
	opts = opts.withDefaults()
	start := time.Now()

	prev := dev.PassState()
	defer dev.RestorePassState(prev)

	dev.BeginPass()

	target, err := dev.CreateFaceTarget(opts.Size)
	if err != nil {
		return cube, &ResourceCreationError{Resource: "irradiance face target", Err: err}
	}

	projection := CaptureProjection()
	for face := CubeMapPositiveX; face <= CubeMapNegativeZ; face++ {
		slog.Debug("irradiance pass", "size", opts.Size, "face", face)
		dev.BindFaceTarget(target, face)
		dev.Clear(opts.ClearColor)
		dev.DrawCube(FaceView(face), projection)
	}

	cube, err = dev.CreateCubeView(target)
	if err != nil {
		target.Release()
		var zero C
		return zero, &ResourceCreationError{Resource: "irradiance cube view", Err: err}
	}

	slog.Info("irradiance map ready", "size", opts.Size, "elapsed", time.Since(start))
	return cube, nil
}
