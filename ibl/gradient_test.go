package ibl_test

import (
	"testing"

	"pbr-demo/ibl"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestGradientSkySample(t *testing.T) {
	sky := ibl.GradientSky{
		Zenith:    mgl32.Vec3{0, 0, 1},
		Horizon:   mgl32.Vec3{1, 0, 0},
		Ground:    mgl32.Vec3{0, 1, 0},
		Intensity: 2,
	}
	assert.Equal(t, mgl32.Vec3{0, 0, 2}, sky.Sample(1))
	assert.Equal(t, mgl32.Vec3{0, 0, 2}, sky.Sample(3))
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, sky.Sample(0))
	assert.Equal(t, mgl32.Vec3{1, 0, 1}, sky.Sample(0.5))
	assert.Equal(t, mgl32.Vec3{0, 2, 0}, sky.Sample(-0.1))
}

func TestGradientSkyBake(t *testing.T) {
	sky := ibl.DefaultGradientSky()
	env := sky.Bake(8)
	assert.Equal(t, 8, env.Size)

	// the centre of +Y is close to the zenith, -Y is all ground
	r, g, b := env.Sample(0, 1, 0)
	assert.True(t, mgl32.Vec3{r, g, b}.ApproxEqualThreshold(sky.Zenith, 0.1), "zenith %v", mgl32.Vec3{r, g, b})
	for i, c := range env.Face(ibl.CubeMapNegativeY) {
		assert.Equal(t, sky.Ground[i%3], c)
	}

	// side faces brighten from the top row down to the horizon
	_, _, topB := env.Texel(ibl.CubeMapPositiveX, 4, 0)
	_, _, midB := env.Texel(ibl.CubeMapPositiveX, 4, 3)
	assert.Greater(t, topB, midB)
}
