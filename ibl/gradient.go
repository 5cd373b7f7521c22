package ibl

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// GradientSky describes a procedural environment: zenith to horizon above the horizon,
// a flat ground colour below it.
type GradientSky struct {
	Zenith    mgl32.Vec3
	Horizon   mgl32.Vec3
	Ground    mgl32.Vec3
	Intensity float32
}

func DefaultGradientSky() GradientSky {
	return GradientSky{
		Zenith:    mgl32.Vec3{0.25, 0.45, 0.85},
		Horizon:   mgl32.Vec3{0.9, 0.85, 0.75},
		Ground:    mgl32.Vec3{0.2, 0.18, 0.16},
		Intensity: 1,
	}
}

func (sky GradientSky) Sample(y float32) mgl32.Vec3 {
	if y < 0 {
		return sky.Ground.Mul(sky.Intensity)
	}
	y = math32.Min(y, 1)
	return sky.Horizon.Mul(1 - y).Add(sky.Zenith.Mul(y)).Mul(sky.Intensity)
}

// Bake renders the sky into a cube map environment with faces of the given size.
func (sky GradientSky) Bake(size int) *IblEnv {
	data := make([]float32, 6*size*size*3)
	forEachCubeMapPixel(size, func(face CubeMapFace, u, v int, x, y, z float32, i int) {
		_, ny, _ := normalize(x, y, z)
		c := sky.Sample(ny)
		data[i*3+0] = c[0]
		data[i*3+1] = c[1]
		data[i*3+2] = c[2]
	})
	return NewIblEnv(data, size)
}
