package ibl_test

import (
	"errors"
	"fmt"
	"testing"

	"pbr-demo/ibl"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// recordingDevice logs the calls the pass makes and can fail resource creation.
type recordingDevice struct {
	*ibl.SoftwareDevice
	calls      []string
	failTarget bool
	failView   bool
	target     *ibl.SoftwareFaceTarget
}

func newRecordingDevice(env *ibl.IblEnv, kernel ibl.Kernel) *recordingDevice {
	return &recordingDevice{SoftwareDevice: ibl.NewSoftwareDevice(env, kernel)}
}

func (d *recordingDevice) BeginPass() {
	d.calls = append(d.calls, "begin")
	d.SoftwareDevice.BeginPass()
}

func (d *recordingDevice) CreateFaceTarget(size int) (*ibl.SoftwareFaceTarget, error) {
	d.calls = append(d.calls, "target")
	if d.failTarget {
		return nil, errInjected
	}
	target, err := d.SoftwareDevice.CreateFaceTarget(size)
	d.target = target
	return target, err
}

func (d *recordingDevice) BindFaceTarget(target *ibl.SoftwareFaceTarget, face ibl.CubeMapFace) {
	d.calls = append(d.calls, fmt.Sprintf("bind %v", face))
	d.SoftwareDevice.BindFaceTarget(target, face)
}

func (d *recordingDevice) Clear(color mgl32.Vec4) {
	d.calls = append(d.calls, "clear")
	d.SoftwareDevice.Clear(color)
}

func (d *recordingDevice) DrawCube(view, projection mgl32.Mat4) {
	d.calls = append(d.calls, "draw")
	d.SoftwareDevice.DrawCube(view, projection)
}

func (d *recordingDevice) CreateCubeView(target *ibl.SoftwareFaceTarget) (*ibl.SoftwareCubeMap, error) {
	d.calls = append(d.calls, "view")
	if d.failView {
		return nil, errInjected
	}
	return d.SoftwareDevice.CreateCubeView(target)
}

func runPass(dev ibl.Device[*ibl.SoftwareFaceTarget, *ibl.SoftwareCubeMap], size int) (*ibl.SoftwareCubeMap, error) {
	return ibl.RunIrradiancePass[*ibl.SoftwareFaceTarget, *ibl.SoftwareCubeMap](dev, ibl.PassOptions{Size: size})
}

// demoState is the state the demo leaves behind between frames.
var demoState = ibl.PassState{
	DepthTest:       true,
	DepthWrite:      true,
	CullFace:        true,
	Viewport:        [4]int{0, 0, 1280, 720},
	DrawFramebuffer: 0,
}

func TestIrradiancePassDrawSequence(t *testing.T) {
	dev := newRecordingDevice(uniformEnv(4, 1), ibl.DiffuseKernel(2))
	cube, err := runPass(dev, 4)
	require.NoError(t, err)
	defer cube.Release()

	expected := []string{"begin", "target"}
	for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
		expected = append(expected, fmt.Sprintf("bind %v", f), "clear", "draw")
	}
	expected = append(expected, "view")
	assert.Equal(t, expected, dev.calls)
}

func TestIrradiancePassWritesEveryFace(t *testing.T) {
	dev := ibl.NewSoftwareDevice(faceColorEnv(4), ibl.DiffuseKernel(4))
	cube, err := runPass(dev, 8)
	require.NoError(t, err)
	defer cube.Release()

	assert.Equal(t, 8, cube.Size())
	assert.Equal(t, 1, cube.Levels())
	assert.Equal(t, 6, cube.Layers())

	env, err := cube.Download()
	require.NoError(t, err)
	for f := 0; f < 6; f++ {
		for i, c := range env.Faces[f] {
			require.False(t, math32.IsNaN(c) || math32.IsInf(c, 0), "face %v value %d", ibl.CubeMapFace(f), i)
			require.Greater(t, c+1e-6, float32(0), "face %v value %d", ibl.CubeMapFace(f), i)
		}
	}

	// every direction still samples as a finite colour
	r, g, b := env.Sample(0.3, -0.8, 0.5)
	assert.False(t, math32.IsNaN(r+g+b))
}

func TestIrradiancePassClearsWithOpaqueBlack(t *testing.T) {
	dev := ibl.NewSoftwareDevice(uniformEnv(2, 1), ibl.PassThroughKernel())
	target, err := dev.CreateFaceTarget(2)
	require.NoError(t, err)
	dev.BindFaceTarget(target, ibl.CubeMapPositiveY)
	dev.Clear(mgl32.Vec4{0, 0, 0, 1})

	cube, err := dev.CreateCubeView(target)
	require.NoError(t, err)
	env, err := cube.Download()
	require.NoError(t, err)
	for _, c := range env.Face(ibl.CubeMapPositiveY) {
		assert.Equal(t, float32(0), c)
	}
}

func TestPassThroughKeepsFaceOrientation(t *testing.T) {
	dev := ibl.NewSoftwareDevice(faceColorEnv(4), ibl.PassThroughKernel())
	cube, err := runPass(dev, 4)
	require.NoError(t, err)
	defer cube.Release()

	env, err := cube.Download()
	require.NoError(t, err)
	for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
		for v := 0; v < 4; v++ {
			for u := 0; u < 4; u++ {
				r, g, b := env.Texel(f, u, v)
				assert.InDelta(t, faceColors[f][0], r, 1e-4, "face %v texel %d,%d", f, u, v)
				assert.InDelta(t, faceColors[f][1], g, 1e-4, "face %v texel %d,%d", f, u, v)
				assert.InDelta(t, faceColors[f][2], b, 1e-4, "face %v texel %d,%d", f, u, v)
			}
		}
	}
}

func TestPassThroughReproducesEnvironment(t *testing.T) {
	const size = 8
	src := ibl.NewIblEnv(randomFloats(6*size*size*3, 0, 4), size)
	dev := ibl.NewSoftwareDevice(src, ibl.PassThroughKernel())
	cube, err := runPass(dev, size)
	require.NoError(t, err)
	defer cube.Release()

	env, err := cube.Download()
	require.NoError(t, err)
	assert.InDeltaSlice(t, src.Concat(), env.Concat(), 1e-3)
}

func TestIrradiancePassIsIdempotent(t *testing.T) {
	src := ibl.DefaultGradientSky().Bake(8)

	var results []*ibl.IblEnv
	for i := 0; i < 2; i++ {
		cube, err := runPass(ibl.NewSoftwareDevice(src, ibl.DiffuseKernel(4)), 4)
		require.NoError(t, err)
		env, err := cube.Download()
		require.NoError(t, err)
		cube.Release()
		results = append(results, env)
	}

	assert.Equal(t, results[0].Concat(), results[1].Concat())
}

func TestUniformEnvironmentConvolvesToItself(t *testing.T) {
	for _, value := range []float32{1, 0.25, 7} {
		dev := ibl.NewSoftwareDevice(uniformEnv(4, value), ibl.DiffuseKernel(8))
		cube, err := runPass(dev, 4)
		require.NoError(t, err)
		env, err := cube.Download()
		require.NoError(t, err)
		cube.Release()

		for i, c := range env.Concat() {
			require.InDelta(t, value, c, float64(value)*1e-4, "value %d", i)
		}
	}
}

// A sky of 1 over a ground of 0 lights an upward normal fully, a downward normal
// not at all and a horizontal normal by half.
func TestHalfSpaceIrradiance(t *testing.T) {
	sky := ibl.GradientSky{
		Zenith:    mgl32.Vec3{1, 1, 1},
		Horizon:   mgl32.Vec3{1, 1, 1},
		Ground:    mgl32.Vec3{0, 0, 0},
		Intensity: 1,
	}
	dev := ibl.NewSoftwareDevice(sky.Bake(32), ibl.DiffuseKernel(8))
	cube, err := runPass(dev, 1)
	require.NoError(t, err)
	defer cube.Release()

	env, err := cube.Download()
	require.NoError(t, err)

	expected := [6]float32{0.5, 0.5, 1, 0, 0.5, 0.5}
	for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
		r, _, _ := env.Texel(f, 0, 0)
		assert.InDelta(t, expected[f], r, 0.02, "face %v", f)
	}
}

func TestIrradiancePassRestoresState(t *testing.T) {
	dev := newRecordingDevice(uniformEnv(2, 1), ibl.DiffuseKernel(1))
	dev.RestorePassState(demoState)

	cube, err := runPass(dev, 2)
	require.NoError(t, err)
	defer cube.Release()

	assert.Equal(t, demoState, dev.PassState())
}

func TestIrradiancePassRestoresStateOnFailure(t *testing.T) {
	t.Run("face target", func(t *testing.T) {
		dev := newRecordingDevice(uniformEnv(2, 1), ibl.DiffuseKernel(1))
		dev.RestorePassState(demoState)
		dev.failTarget = true

		cube, err := runPass(dev, 2)
		assert.Nil(t, cube)
		assert.ErrorIs(t, err, errInjected)
		assert.Equal(t, demoState, dev.PassState())
		assert.NotContains(t, dev.calls, "draw")
	})

	t.Run("cube view", func(t *testing.T) {
		dev := newRecordingDevice(uniformEnv(2, 1), ibl.DiffuseKernel(1))
		dev.RestorePassState(demoState)
		dev.failView = true

		cube, err := runPass(dev, 2)
		assert.Nil(t, cube)
		assert.ErrorIs(t, err, errInjected)
		assert.Equal(t, demoState, dev.PassState())
		require.NotNil(t, dev.target)
		assert.True(t, ibl.TargetReleased(dev.target), "face target leaked")
	})
}

func TestIrradiancePassRejectsBadSize(t *testing.T) {
	for _, size := range []int{-1, ibl.DefaultSoftwareMaxTextureSize + 1} {
		dev := ibl.NewSoftwareDevice(uniformEnv(2, 1), ibl.DiffuseKernel(1))
		before := dev.PassState()

		cube, err := runPass(dev, size)
		assert.Nil(t, cube)

		var resErr *ibl.ResourceCreationError
		require.ErrorAs(t, err, &resErr, "size %d", size)
		assert.Equal(t, "irradiance face target", resErr.Resource)
		assert.NotNil(t, errors.Unwrap(err))
		assert.Equal(t, before, dev.PassState())
	}
}

func TestIrradiancePassDefaultSize(t *testing.T) {
	dev := ibl.NewSoftwareDevice(uniformEnv(2, 1), ibl.PassThroughKernel())
	cube, err := runPass(dev, 0)
	require.NoError(t, err)
	defer cube.Release()
	assert.Equal(t, ibl.DefaultIrradianceSize, cube.Size())
}

func TestReleasedCubeMap(t *testing.T) {
	dev := ibl.NewSoftwareDevice(uniformEnv(2, 1), ibl.PassThroughKernel())
	cube, err := runPass(dev, 2)
	require.NoError(t, err)

	cube.Release()
	cube.Release()
	_, err = cube.Download()
	assert.Error(t, err)
}

func TestSwDiffuseConvolver(t *testing.T) {
	conv := ibl.NewSwDiffuseConvolver(4)
	defer conv.Release()

	result, err := conv.Convolve(uniformEnv(4, 2), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Size)
	for _, c := range result.Concat() {
		require.InDelta(t, 2, c, 2e-4)
	}

	_, err = conv.Convolve(uniformEnv(4, 2), -4)
	assert.Error(t, err)
}
