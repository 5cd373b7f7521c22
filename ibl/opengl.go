package ibl

import (
	_ "embed"
	"errors"
	"fmt"

	"pbr-demo/libgl"
	"pbr-demo/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed capture.vert
var captureVertSrc string

//go:embed irradiance.frag
var irradianceFragSrc string

// irradiance needs more range than 8 bits but not full floats
const irradianceFormat = gl.RGBA16F

var errZeroName = errors.New("driver returned object name 0")

type GlDeviceOptions struct {
	// Environment must be a cube map texture.
	Environment libgl.UnboundTexture
	// Cube defaults to NewUnitCube.
	Cube   []mgl32.Vec3
	Kernel Kernel
}

// GlDevice runs the irradiance pass with OpenGL 4.5. It must be used on the thread owning the context.
type GlDevice struct {
	env         libgl.UnboundTexture
	sampler     libgl.UnboundSampler
	shader      libgl.UnboundShaderPipeline
	cubeVao     libgl.UnboundVertexArray
	cubeVbo     libgl.UnboundBuffer
	vertexCount int

	bound *GlFaceTarget
	face  CubeMapFace
}

func NewGlDevice(opts GlDeviceOptions) (dev *GlDevice, err error) {
	if opts.Environment == nil || opts.Environment.Type() != gl.TEXTURE_CUBE_MAP {
		return nil, &ResourceCreationError{Resource: "irradiance device", Err: fmt.Errorf("environment must be a cube map")}
	}
	if opts.Cube == nil {
		opts.Cube = NewUnitCube()
	}

	cleanup := []libutil.Deleter{}
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i].Delete()
			}
		}
	}()

	sampler := libgl.NewSampler()
	cleanup = append(cleanup, sampler)
	if sampler.Id() == 0 {
		return nil, &ResourceCreationError{Resource: "environment sampler", Err: errZeroName}
	}
	sampler.WrapMode(gl.REPEAT, gl.REPEAT, gl.REPEAT)
	sampler.FilterMode(gl.LINEAR, gl.LINEAR)

	shader := libgl.NewPipeline()
	cleanup = append(cleanup, shader)
	shader.SetDebugLabel("irradiance")
	vsh := libgl.NewShader(captureVertSrc, gl.VERTEX_SHADER)
	cleanup = append(cleanup, vsh)
	if err := vsh.Compile(); err != nil {
		return nil, &ResourceCreationError{Resource: "irradiance vertex program", Err: err}
	}
	shader.Attach(vsh, gl.VERTEX_SHADER_BIT)
	fsh := libgl.NewShader(irradianceFragSrc, gl.FRAGMENT_SHADER)
	cleanup = append(cleanup, fsh)
	if err := fsh.CompileWith(opts.Kernel.Defines()); err != nil {
		return nil, &ResourceCreationError{Resource: "irradiance fragment program", Err: err}
	}
	shader.Attach(fsh, gl.FRAGMENT_SHADER_BIT)
	vsh.SetUniform("u_projection_mat", CaptureProjection())

	cubeVao := libgl.NewVertexArray()
	cleanup = append(cleanup, cubeVao)
	cubeVbo := libgl.NewBuffer()
	cleanup = append(cleanup, cubeVbo)
	cubeVbo.Allocate(opts.Cube, 0)
	cubeVao.Layout(0, 0, 3, gl.FLOAT, false, 0)
	cubeVao.BindBuffer(0, cubeVbo, 0, 3*4)

	if err := libgl.CheckError("irradiance device setup"); err != nil {
		return nil, &ResourceCreationError{Resource: "irradiance device", Err: err}
	}

	return &GlDevice{
		env:         opts.Environment,
		sampler:     sampler,
		shader:      shader,
		cubeVao:     cubeVao,
		cubeVbo:     cubeVbo,
		vertexCount: len(opts.Cube),
	}, nil
}

func (dev *GlDevice) PassState() PassState {
	r := libgl.State.Raster()
	return PassState{
		DepthTest:       r.DepthTest,
		DepthWrite:      r.DepthWrite,
		CullFace:        r.CullFace,
		Viewport:        r.Viewport,
		DrawFramebuffer: r.DrawFramebuffer,
	}
}

func (dev *GlDevice) RestorePassState(state PassState) {
	libgl.State.SetCapability(libgl.DepthTest, state.DepthTest)
	libgl.State.DepthMask(state.DepthWrite)
	libgl.State.SetCapability(libgl.CullFace, state.CullFace)
	v := state.Viewport
	libgl.State.Viewport(v[0], v[1], v[2], v[3])
	libgl.State.BindDrawFramebuffer(state.DrawFramebuffer)
	dev.bound = nil
}

func (dev *GlDevice) BeginPass() {
	dev.shader.Bind()
	dev.env.Bind(0)
	dev.sampler.Bind(0)
	dev.cubeVao.Bind()
	libgl.State.Disable(libgl.DepthTest)
	libgl.State.DepthMask(false)
	libgl.State.Disable(libgl.CullFace)
}

// faceTargetFault, when set, is consulted after each face is attached.
var faceTargetFault func(t *GlFaceTarget, face CubeMapFace) error

func (dev *GlDevice) CreateFaceTarget(size int) (*GlFaceTarget, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid face size %d", size)
	}
	if max := libgl.GlEnv.Features.MaxTextureSize; max > 0 && size > max {
		return nil, fmt.Errorf("face size %d exceeds the maximum texture size %d", size, max)
	}

	target := &GlFaceTarget{size: size}
	if err := target.build(); err != nil {
		target.Release()
		return nil, err
	}
	return target, nil
}

// build creates the array, the views and the framebuffers. On error the
// objects created so far stay in t for the caller to release.
func (t *GlFaceTarget) build() error {
	t.array = libgl.NewTexture(gl.TEXTURE_2D_ARRAY)
	if t.array.Id() == 0 {
		return errZeroName
	}
	t.array.SetDebugLabel("irradiance faces")
	t.array.Allocate(1, irradianceFormat, t.size, t.size, 6)
	if err := libgl.CheckError("allocate irradiance faces"); err != nil {
		return err
	}

	for i := range t.views {
		face := CubeMapFace(i)
		view := t.array.CreateView(gl.TEXTURE_2D, irradianceFormat, 0, 0, i, i)
		t.views[i] = view
		if view.Id() == 0 {
			return errZeroName
		}

		fbo := libgl.NewFramebuffer()
		t.fbos[i] = fbo
		if fbo.Id() == 0 {
			return errZeroName
		}
		fbo.SetDebugLabel(fmt.Sprintf("irradiance %v", face))
		fbo.AttachTexture(0, view)
		fbo.BindTargets(0)
		if err := fbo.Check(gl.DRAW_FRAMEBUFFER); err != nil {
			return fmt.Errorf("face %v: %w", face, err)
		}
		if faceTargetFault != nil {
			if err := faceTargetFault(t, face); err != nil {
				return fmt.Errorf("face %v: %w", face, err)
			}
		}
	}

	return libgl.CheckError("create irradiance face views")
}

func (dev *GlDevice) BindFaceTarget(target *GlFaceTarget, face CubeMapFace) {
	dev.bound = target
	dev.face = face
	target.fbos[face].Bind(gl.DRAW_FRAMEBUFFER)
	libgl.State.Viewport(0, 0, target.size, target.size)
}

func (dev *GlDevice) Clear(color mgl32.Vec4) {
	if dev.bound == nil {
		return
	}
	dev.bound.fbos[dev.face].ClearColor(0, color)
}

func (dev *GlDevice) DrawCube(view, projection mgl32.Mat4) {
	vsh := dev.shader.Get(gl.VERTEX_SHADER)
	vsh.SetUniform("u_view_mat", view)
	vsh.SetUniform("u_projection_mat", projection)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(dev.vertexCount))
}

func (dev *GlDevice) CreateCubeView(target *GlFaceTarget) (*GlCubeMap, error) {
	if target == nil || target.array == nil || target.array.Id() == 0 {
		return nil, errReleased
	}
	view := target.array.CreateView(gl.TEXTURE_CUBE_MAP, irradianceFormat, 0, 0, 0, 5)
	if view.Id() == 0 {
		return nil, errZeroName
	}
	if err := libgl.CheckError("create irradiance cube view"); err != nil {
		view.Delete()
		return nil, err
	}
	view.SetDebugLabel("irradiance")
	return &GlCubeMap{view: view, target: target}, nil
}

func (dev *GlDevice) Release() {
	dev.cubeVao.Delete()
	dev.cubeVbo.Delete()
	dev.sampler.Delete()
	dev.shader.Delete()
}

// GlFaceTarget is a 6 layer array texture with one framebuffer per layer.
type GlFaceTarget struct {
	size  int
	array libgl.UnboundTexture
	views [6]libgl.UnboundTexture
	fbos  [6]libgl.UnboundFramebuffer
}

func (t *GlFaceTarget) Size() int {
	return t.size
}

func (t *GlFaceTarget) Release() {
	for i := range t.fbos {
		if t.fbos[i] != nil {
			t.fbos[i].Delete()
		}
		if t.views[i] != nil {
			t.views[i].Delete()
		}
	}
	if t.array != nil {
		t.array.Delete()
	}
}

type GlCubeMap struct {
	view   libgl.UnboundTexture
	target *GlFaceTarget
}

// Texture is the cube map view for binding in shading passes.
func (c *GlCubeMap) Texture() libgl.UnboundTexture {
	return c.view
}

func (c *GlCubeMap) Size() int {
	return c.target.size
}

func (c *GlCubeMap) Levels() int {
	return c.view.Levels()
}

func (c *GlCubeMap) Layers() int {
	return c.view.Depth()
}

// Download reads all faces back as RGB floats.
func (c *GlCubeMap) Download() (*IblEnv, error) {
	size := c.target.size
	data := make([]float32, 6*size*size*3)
	if err := c.target.array.Download(0, gl.RGB, data); err != nil {
		return nil, err
	}
	return NewIblEnv(data, size), nil
}

func (c *GlCubeMap) Release() {
	c.view.Delete()
	c.target.Release()
}

// UploadEnvironment creates an immutable RGB16F cube map from env.
func UploadEnvironment(env *IblEnv) (libgl.UnboundTexture, error) {
	tex := libgl.NewTexture(gl.TEXTURE_CUBE_MAP)
	if tex.Id() == 0 {
		return nil, &ResourceCreationError{Resource: "environment cube map", Err: errZeroName}
	}
	tex.SetDebugLabel("environment")
	tex.Allocate(1, gl.RGB16F, env.Size, env.Size, 6)
	tex.Load(0, env.Size, env.Size, 6, gl.RGB, env.Concat())
	if err := libgl.CheckError("upload environment"); err != nil {
		tex.Delete()
		return nil, &ResourceCreationError{Resource: "environment cube map", Err: err}
	}
	return tex, nil
}
