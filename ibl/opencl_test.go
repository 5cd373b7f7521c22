package ibl_test

import (
	"testing"

	"pbr-demo/ibl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClDiffuseConvolverMatchesSoftware(t *testing.T) {
	conv, err := ibl.NewClDiffuseConvolver(ibl.DeviceTypeGPU, 8)
	if err != nil {
		t.Skipf("no opencl device: %v", err)
	}
	defer conv.Release()

	src := ibl.DefaultGradientSky().Bake(32)
	result, err := conv.Convolve(src, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Size)

	sw := ibl.NewSwDiffuseConvolver(8)
	expected, err := sw.Convolve(src, 8)
	require.NoError(t, err)

	saveResultIbl("cl_irradiance", result)
	assert.InDeltaSlice(t, expected.Concat(), result.Concat(), 0.01)

	_, err = conv.Convolve(src, 0)
	assert.Error(t, err)
}
