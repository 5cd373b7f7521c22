package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"unsafe"

	"pbr-demo/ibl"
	"pbr-demo/libgl"
	"pbr-demo/libscn"
	"pbr-demo/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	im "github.com/inkyblackness/imgui-go/v4"
)

const lightGizmoRadius = 0.5

func main() {
	cfg, err := ParseArgs(os.Args[0], os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level, _ := cfg.Log.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	runtime.LockOSThread()
	if err := run(cfg); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	var loadErr *ibl.AssetLoadError
	var createErr *ibl.ResourceCreationError
	switch {
	case errors.As(err, &loadErr):
		slog.Error("could not load asset", "path", loadErr.Path, "err", loadErr.Err)
	case errors.As(err, &createErr):
		slog.Error("could not create gpu resource", "resource", createErr.Resource, "err", createErr.Err)
	default:
		slog.Error("fatal error", "err", err)
	}
	os.Exit(1)
}

func createWindow(cfg WindowConfig) (*glfw.Window, error) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	if cfg.CompatibilityProfile {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCompatProfile)
	} else {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	}
	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, err
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
		return nil, err
	}
	return win, nil
}

func run(cfg Config) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	win, err := createWindow(cfg.Window)
	if err != nil {
		return err
	}
	defer win.Destroy()

	libgl.Init()
	libgl.EnableDebugLog()
	libgl.State.Enable(libgl.SeamlessCubemap)
	slog.Info("created context", "renderer", gl.GoStr(gl.GetString(gl.RENDERER)), "vendor", libgl.GlEnv.Vendor)

	resources := &libutil.ReleaseGroup{}
	defer resources.Release()

	pack := libscn.NewDirPack()
	if err := pack.AddIndexFile(cfg.Assets.Index); err != nil {
		return err
	}

	envSource, err := LoadEnvironment(pack, cfg.IBL)
	if err != nil {
		return err
	}
	env, err := NewEnvironmentResources(envSource, cfg.IBL)
	if err != nil {
		return err
	}
	resources.AddFunc(env.Release)

	sky, err := NewSkyResources(pack)
	if err != nil {
		return err
	}
	resources.AddFunc(sky.Release)

	materials, err := NewMaterialResources(pack, cfg)
	if err != nil {
		return err
	}
	resources.AddFunc(materials.Release)

	imguiShader, err := pack.LoadShaderPipeline("imgui")
	if err != nil {
		return err
	}
	gui, err := NewImGui(win, imguiShader)
	if err != nil {
		imguiShader.Delete()
		return err
	}
	resources.AddFunc(gui.Delete)

	directShader, err := pack.LoadShaderPipeline("direct")
	if err != nil {
		return err
	}
	dd, err := NewDirectBuffer(directShader)
	if err != nil {
		directShader.Delete()
		return err
	}
	resources.AddFunc(dd.Delete)

	fbWidth, fbHeight := win.GetFramebufferSize()
	cam := NewCamera(fbWidth, fbHeight)
	input := NewInput(win, cfg.Input.Fly)
	panel := NewPanel(cfg)

	for !win.ShouldClose() {
		glfw.PollEvents()
		input.Poll()

		if w, h := win.GetFramebufferSize(); w != fbWidth || h != fbHeight {
			fbWidth, fbHeight = w, h
			cam.ViewportDimension = mgl32.Vec2{float32(w), float32(h)}
			cam.UpdateProjectionMatrix()
			libgl.State.ViewportRect = [4]int{0, 0, w, h}
		}

		inputCfg := cfg.Input
		if gui.WantsMouse() {
			// dragging a widget must not turn the camera
			inputCfg.LookSensitivity = 0
		}
		if ControlCamera(input, cam, inputCfg) {
			win.SetShouldClose(true)
		}

		libgl.State.SetRaster(libgl.State.DefaultRaster())
		libgl.State.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		frame := Frame{
			View:           cam.ViewMatrix,
			Projection:     cam.ProjectionMatrix,
			CameraPosition: cam.Position,
			LightColor:     panel.LightColor,
			Textured:       panel.Textured,
		}

		materials.Draw(frame, env.Irradiance.Texture())

		if panel.ShowLights {
			dd.Shaded()
			dd.Light(frame.LightColor)
			for _, pos := range LightPositions {
				dd.UvSphere(pos, lightGizmoRadius)
			}
			dd.Unshaded()
			dd.Draw(frame.ViewProjection(), frame.CameraPosition)
		}

		sky.Draw(frame, env.Source)

		im.NewFrame()
		panel.Build(cam)
		if panel.GridChanged {
			if err := materials.SetGrid(panel.Grid); err != nil {
				slog.Error("could not update sphere grid", "err", err)
			}
		}
		if panel.Rebake {
			if err := env.Rebake(panel.IBL); err != nil {
				slog.Error("rebake failed", "err", err)
				panel.Status = err.Error()
			} else {
				slog.Info("rebaked irradiance", "size", panel.IBL.Size, "quality", panel.IBL.Quality)
				panel.Status = fmt.Sprintf("baked %dx%d at quality %d", panel.IBL.Size, panel.IBL.Size, panel.IBL.Quality)
			}
		}
		gui.Draw(win)

		win.SwapBuffers()
	}
	return nil
}
