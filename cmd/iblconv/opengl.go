package main

import (
	"unsafe"

	"pbr-demo/ibl"
	"pbr-demo/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glConvolver runs the irradiance pass in a hidden window's context.
type glConvolver struct {
	win     *glfw.Window
	quality int
}

func newGlConvolver(quality int) (conv ibl.Convolver, err error) {
	if err := glfw.Init(); err != nil {
		return nil, &ibl.ResourceCreationError{Resource: "glfw", Err: err}
	}
	defer func() {
		if err != nil {
			glfw.Terminate()
		}
	}()

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	win, err := glfw.CreateWindow(1, 1, "iblconv", nil, nil)
	if err != nil {
		return nil, &ibl.ResourceCreationError{Resource: "opengl context", Err: err}
	}
	win.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	if err != nil {
		win.Destroy()
		return nil, &ibl.ResourceCreationError{Resource: "opengl functions", Err: err}
	}
	libgl.Init()
	libgl.State.Enable(libgl.SeamlessCubemap)

	return &glConvolver{win: win, quality: quality}, nil
}

func (conv *glConvolver) Convolve(env *ibl.IblEnv, size int) (*ibl.IblEnv, error) {
	source, err := ibl.UploadEnvironment(env)
	if err != nil {
		return nil, err
	}
	defer source.Delete()

	dev, err := ibl.NewGlDevice(ibl.GlDeviceOptions{
		Environment: source,
		Kernel:      ibl.DiffuseKernel(conv.quality),
	})
	if err != nil {
		return nil, err
	}
	defer dev.Release()

	cube, err := ibl.RunIrradiancePass[*ibl.GlFaceTarget, *ibl.GlCubeMap](dev, ibl.PassOptions{Size: size})
	if err != nil {
		return nil, err
	}
	defer cube.Release()
	return cube.Download()
}

func (conv *glConvolver) Release() {
	conv.win.Destroy()
	glfw.Terminate()
}
