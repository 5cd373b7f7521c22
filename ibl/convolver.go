package ibl

// Convolver bakes an irradiance environment offline.
type Convolver interface {
	Convolve(env *IblEnv, size int) (*IblEnv, error)
	Release()
}

type swDiffuseConvolver struct {
	kernel Kernel
}

// NewSwDiffuseConvolver runs the irradiance pass on a SoftwareDevice.
func NewSwDiffuseConvolver(quality int) Convolver {
	return &swDiffuseConvolver{
		kernel: DiffuseKernel(quality),
	}
}

func (conv *swDiffuseConvolver) Convolve(env *IblEnv, size int) (*IblEnv, error) {
	dev := NewSoftwareDevice(env, conv.kernel)
	cube, err := RunIrradiancePass[*SoftwareFaceTarget, *SoftwareCubeMap](dev, PassOptions{Size: size})
	if err != nil {
		return nil, err
	}
	defer cube.Release()
	return cube.Download()
}

func (conv *swDiffuseConvolver) Release() {
}
