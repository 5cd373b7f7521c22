package ibl_test

import (
	"testing"

	"pbr-demo/ibl"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffuseKernelSamples(t *testing.T) {
	for _, quality := range []int{1, 4, ibl.DefaultKernelQuality} {
		samples := ibl.KernelSamples(ibl.DiffuseKernel(quality))
		require.Len(t, samples, (quality+1)*4*quality)

		for i, s := range samples {
			length := math32.Sqrt(s[0]*s[0] + s[1]*s[1] + s[2]*s[2])
			assert.InDelta(t, 1, length, 1e-5, "sample %d", i)
			assert.GreaterOrEqual(t, s[2], float32(0), "sample %d below the hemisphere", i)
			assert.Greater(t, s[3], float32(0), "sample %d", i)
		}

		// the outermost ring stays near the horizon
		last := samples[len(samples)-1]
		assert.Less(t, last[2], math32.Cos(math32.Pi/2*float32(quality)/float32(quality+1)))
	}
}

// A cosine weighted hemisphere has a mean cos(theta) of 2/3. Coarse kernels must
// not lean towards the normal.
func TestDiffuseKernelMeanCosine(t *testing.T) {
	for _, quality := range []int{1, 2, 4, 8, ibl.DefaultKernelQuality, 64} {
		var sum, total float32
		for _, s := range ibl.KernelSamples(ibl.DiffuseKernel(quality)) {
			sum += s[2] * s[3]
			total += s[3]
		}
		assert.InDelta(t, 2.0/3.0, sum/total, 0.015, "quality %d", quality)
	}
}

// Six flat faces lit along +X: low quality kernels stay close to a fine one.
func TestDiffuseKernelConvergesAcrossQuality(t *testing.T) {
	convolveX := func(quality int) mgl32.Vec3 {
		dev := ibl.NewSoftwareDevice(faceColorEnv(8), ibl.DiffuseKernel(quality))
		cube, err := runPass(dev, 1)
		require.NoError(t, err)
		defer cube.Release()
		env, err := cube.Download()
		require.NoError(t, err)
		r, g, b := env.Texel(ibl.CubeMapPositiveX, 0, 0)
		return mgl32.Vec3{r, g, b}
	}

	reference := convolveX(128)
	assert.InDelta(t, 0.78, reference[0], 0.02)
	for _, quality := range []int{8, 16, ibl.DefaultKernelQuality} {
		got := convolveX(quality)
		for c := 0; c < 3; c++ {
			assert.InDelta(t, reference[c], got[c], 0.03, "quality %d channel %d", quality, c)
		}
	}
}

func TestDiffuseKernelClampsQuality(t *testing.T) {
	assert.Equal(t, 1, ibl.DiffuseKernel(0).Quality)
	assert.Equal(t, 1, ibl.DiffuseKernel(-3).Quality)
	assert.Equal(t, 7, ibl.DiffuseKernel(7).Quality)
}

func TestPassThroughKernel(t *testing.T) {
	samples := ibl.KernelSamples(ibl.PassThroughKernel())
	require.Len(t, samples, 1)
	assert.Equal(t, [4]float32{0, 0, 1, 1}, samples[0])
}

func TestKernelDefines(t *testing.T) {
	assert.Equal(t, map[string]string{"QUALITY": "12"}, ibl.DiffuseKernel(12).Defines())
	assert.Equal(t, map[string]string{"QUALITY": "0"}, ibl.PassThroughKernel().Defines())
}
