package ibl

import (
	_ "embed"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/Qendolin/go-opencl/cl"
	"golang.org/x/exp/slices"
)

//go:embed convolve.cl
var openclConvolveSrc string

type clCore struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
}

func (core *clCore) release() {
	if core.program != nil {
		core.program.Release()
	}
	if core.queue != nil {
		core.queue.Release()
	}
	if core.context != nil {
		core.context.Release()
	}
}

type clDiffuseConvolver struct {
	clCore
	kernel  *cl.Kernel
	samples *cl.MemObject
}

type DeviceType = cl.DeviceType

const (
	DeviceTypeCPU         = DeviceType(cl.DeviceTypeCPU)
	DeviceTypeGPU         = DeviceType(cl.DeviceTypeGPU)
	DeviceTypeAccelerator = DeviceType(cl.DeviceTypeAccelerator)
)

// rankClDevices orders devices by preference, then by compute units times clock, fastest first.
func rankClDevices(devices []*cl.Device, preferred DeviceType) {
	slices.SortStableFunc(devices, func(a, b *cl.Device) int {
		if a.Type() == preferred && b.Type() != preferred {
			return -1
		}
		if a.Type() != preferred && b.Type() == preferred {
			return 1
		}

		aPower := a.MaxComputeUnits() * a.MaxClockFrequency()
		bPower := b.MaxComputeUnits() * b.MaxClockFrequency()

		return bPower - aPower
	})
}

func newClCore(preferredDevice DeviceType, programs ...string) (core *clCore, err error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, err
	}

	var devices []*cl.Device
	for _, p := range platforms {
		devs, err := p.GetDevices(cl.DeviceTypeAll)
		if err != nil {
			continue
		}
		devices = append(devices, devs...)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no opencl devices found")
	}

	rankClDevices(devices, preferredDevice)
	device := devices[0]
	slog.Info("using opencl device", "name", device.Name(), "type", device.Type())

	core = &clCore{}
	defer func() {
		if err != nil {
			core.release()
		}
	}()

	core.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, err
	}

	core.queue, err = core.context.CreateCommandQueue(device, 0)
	if err != nil {
		return nil, err
	}

	core.program, err = core.context.CreateProgramWithSource(programs)
	if err != nil {
		return nil, err
	}
	if err = core.program.BuildProgram(nil, ""); err != nil {
		return nil, err
	}

	return core, nil
}

// NewClDiffuseConvolver evaluates the same sample set as the GL and software devices.
func NewClDiffuseConvolver(preferredDevice DeviceType, quality int) (conv Convolver, err error) {
	core, err := newClCore(preferredDevice, openclConvolveSrc)
	if err != nil {
		return nil, &ResourceCreationError{Resource: "opencl context", Err: err}
	}

	result := &clDiffuseConvolver{clCore: *core}
	defer func() {
		if err != nil {
			result.Release()
		}
	}()

	result.kernel, err = core.program.CreateKernel("convolve_diffuse")
	if err != nil {
		return nil, &ResourceCreationError{Resource: "opencl kernel", Err: err}
	}

	samples := DiffuseKernel(quality).samples()
	result.samples, err = core.context.CreateBuffer(cl.MemReadOnly|cl.MemCopyHostPtr, len(samples)*int(unsafe.Sizeof(samples[0])), unsafe.Pointer(&samples[0]))
	if err != nil {
		return nil, &ResourceCreationError{Resource: "opencl sample buffer", Err: err}
	}

	if err = result.kernel.SetArgBuffer(4, result.samples); err != nil {
		return nil, err
	}
	if err = result.kernel.SetArgInt32(5, int32(len(samples))); err != nil {
		return nil, err
	}

	return result, nil
}

func (conv *clDiffuseConvolver) Convolve(env *IblEnv, size int) (*IblEnv, error) {
	if size <= 0 {
		return nil, &ResourceCreationError{Resource: "opencl destination image", Err: fmt.Errorf("invalid face size %d", size)}
	}

	srcImage, err := iblEnvToClImage(env, conv.context)
	if err != nil {
		return nil, &ResourceCreationError{Resource: "opencl source image", Err: err}
	}
	defer srcImage.Release()

	dstImage, err := conv.context.CreateImage(cl.MemWriteOnly, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRGBA,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:      cl.MemObjectTypeImage2DArray,
		Width:     size,
		Height:    size,
		ArraySize: 6,
	}, size*size*6*4*4, nil)
	if err != nil {
		return nil, &ResourceCreationError{Resource: "opencl destination image", Err: err}
	}
	defer dstImage.Release()

	if err := conv.kernel.SetArgBuffer(0, srcImage); err != nil {
		return nil, err
	}
	if err := conv.kernel.SetArgBuffer(1, dstImage); err != nil {
		return nil, err
	}
	if err := conv.kernel.SetArgInt32(2, int32(size)); err != nil {
		return nil, err
	}
	if err := conv.kernel.SetArgFloat32(3, 1.0/float32(size)); err != nil {
		return nil, err
	}

	localWorkSize := []int{8, 8, 1}
	globalWorkSize := []int{roundUpKernelSize(localWorkSize[0], size), roundUpKernelSize(localWorkSize[1], size), 6}

	if _, err := conv.queue.EnqueueNDRangeKernel(conv.kernel, []int{0, 0, 0}, globalWorkSize, localWorkSize, nil); err != nil {
		return nil, err
	}

	result := make([]float32, size*size*6*4)
	if _, err := conv.queue.EnqueueReadImage(dstImage, true, [3]int{}, [3]int{size, size, 6}, 0, 0, unsafe.Pointer(&result[0]), nil); err != nil {
		return nil, err
	}

	// compact RGBA to RGB
	for i := 0; i < len(result)/4; i++ {
		result[i*3+0] = result[i*4+0]
		result[i*3+1] = result[i*4+1]
		result[i*3+2] = result[i*4+2]
	}

	return NewIblEnv(result[:size*size*6*3], size), nil
}

func (conv *clDiffuseConvolver) Release() {
	if conv.kernel != nil {
		conv.kernel.Release()
		conv.kernel = nil
	}
	if conv.samples != nil {
		conv.samples.Release()
		conv.samples = nil
	}
	conv.clCore.release()
	conv.clCore = clCore{}
}

func roundUpKernelSize(groupSize, globalSize int) int {
	r := globalSize % groupSize
	if r == 0 {
		return globalSize
	}
	return globalSize + groupSize - r
}

func iblEnvToClImage(env *IblEnv, ctx *cl.Context) (*cl.MemObject, error) {
	bpp := 4 * 4
	texels := env.Size * env.Size * 6

	rgbaData := make([]float32, texels*4)
	rgbData := env.Concat()
	for i := 0; i < texels; i++ {
		rgbaData[i*4+0] = rgbData[i*3+0]
		rgbaData[i*4+1] = rgbData[i*3+1]
		rgbaData[i*4+2] = rgbData[i*3+2]
		rgbaData[i*4+3] = 1.0
	}

	return ctx.CreateImage(cl.MemReadOnly|cl.MemCopyHostPtr, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRGBA,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:      cl.MemObjectTypeImage2DArray,
		Width:     env.Size,
		Height:    env.Size,
		ArraySize: 6,
	}, texels*bpp, unsafe.Pointer(&rgbaData[0]))
}
