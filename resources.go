package main

import (
	"errors"
	"fmt"
	"log/slog"

	"pbr-demo/ibl"
	"pbr-demo/libgl"
	"pbr-demo/libscn"
	"pbr-demo/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	gradientSize   = 128
	irradianceUnit = 4
	sphereRings    = 32
	sphereSegments = 64
)

// LightPositions are the four point lights in front of the grid.
var LightPositions = []mgl32.Vec3{
	{-10, 10, -10},
	{10, 10, -10},
	{-10, -10, -10},
	{10, -10, -10},
}

// Frame holds the per frame inputs shared by the passes.
type Frame struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	CameraPosition mgl32.Vec3
	LightColor     mgl32.Vec3
	Textured       bool
}

func (f Frame) ViewProjection() mgl32.Mat4 {
	return f.Projection.Mul4(f.View)
}

// EnvironmentResources owns the environment cube map and the irradiance map convolved from it.
type EnvironmentResources struct {
	Source     libgl.UnboundTexture
	Irradiance *ibl.GlCubeMap
}

// LoadEnvironment reads the configured hdri, or bakes the gradient sky when none is set.
func LoadEnvironment(pack *libscn.DirPack, cfg IBLConfig) (*ibl.IblEnv, error) {
	if cfg.Environment == "" {
		slog.Info("using gradient sky environment")
		return ibl.DefaultGradientSky().Bake(gradientSize), nil
	}
	return pack.LoadHdri(cfg.Environment)
}

// NewEnvironmentResources uploads env and runs the irradiance pass on it.
func NewEnvironmentResources(env *ibl.IblEnv, cfg IBLConfig) (res *EnvironmentResources, err error) {
	group := &libutil.ReleaseGroup{}
	defer group.ReleaseOnError(&err)

	source, err := ibl.UploadEnvironment(env)
	if err != nil {
		return nil, err
	}
	group.Add(source)

	irradiance, err := convolveEnvironment(source, cfg)
	if err != nil {
		return nil, err
	}

	group.Disown()
	return &EnvironmentResources{
		Source:     source,
		Irradiance: irradiance,
	}, nil
}

func convolveEnvironment(source libgl.UnboundTexture, cfg IBLConfig) (*ibl.GlCubeMap, error) {
	dev, err := ibl.NewGlDevice(ibl.GlDeviceOptions{
		Environment: source,
		Kernel:      ibl.DiffuseKernel(cfg.Quality),
	})
	if err != nil {
		return nil, err
	}
	defer dev.Release()

	return ibl.RunIrradiancePass[*ibl.GlFaceTarget, *ibl.GlCubeMap](dev, ibl.PassOptions{Size: cfg.Size})
}

// Rebake convolves the source again. The old map is kept if the pass fails.
func (res *EnvironmentResources) Rebake(cfg IBLConfig) error {
	irradiance, err := convolveEnvironment(res.Source, cfg)
	if err != nil {
		return fmt.Errorf("could not rebake irradiance: %w", err)
	}
	res.Irradiance.Release()
	res.Irradiance = irradiance
	return nil
}

func (res *EnvironmentResources) Release() {
	if res.Irradiance != nil {
		res.Irradiance.Release()
		res.Irradiance = nil
	}
	if res.Source != nil {
		res.Source.Delete()
		res.Source = nil
	}
}

// SkyResources draws an environment cube map behind the scene.
type SkyResources struct {
	Shader      libgl.UnboundShaderPipeline
	Sampler     libgl.UnboundSampler
	CubeVao     libgl.UnboundVertexArray
	CubeVbo     libgl.UnboundBuffer
	vertexCount int
}

func NewSkyResources(pack *libscn.DirPack) (res *SkyResources, err error) {
	group := &libutil.ReleaseGroup{}
	defer group.ReleaseOnError(&err)

	shader, err := pack.LoadShaderPipeline("sky")
	if err != nil {
		return nil, err
	}
	group.Add(shader)

	sampler := libgl.NewSampler()
	group.Add(sampler)
	sampler.FilterMode(gl.LINEAR, gl.LINEAR)
	sampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)

	cube := ibl.NewUnitCube()
	vbo := libgl.NewBuffer()
	group.Add(vbo)
	vbo.SetDebugLabel("sky cube")
	vbo.Allocate(cube, 0)
	vao := libgl.NewVertexArray()
	group.Add(vao)
	vao.SetDebugLabel("sky cube")
	vao.Layout(0, 0, 3, gl.FLOAT, false, 0)
	vao.BindBuffer(0, vbo, 0, 3*4)

	if err := libgl.CheckError("create sky"); err != nil {
		return nil, &ibl.ResourceCreationError{Resource: "sky", Err: err}
	}

	group.Disown()
	return &SkyResources{
		Shader:      shader,
		Sampler:     sampler,
		CubeVao:     vao,
		CubeVbo:     vbo,
		vertexCount: len(cube),
	}, nil
}

// Draw renders the sky at the far plane. It must come after the opaque geometry.
func (sky *SkyResources) Draw(frame Frame, env libgl.UnboundTexture) {
	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 2, -1, gl.Str("Draw Sky\x00"))
	defer gl.PopDebugGroup()

	// the view without its translation
	view := frame.View.Mat3().Mat4()

	libgl.State.DepthFunc(libgl.DepthFuncLEqual)
	libgl.State.CullFront()

	sky.Shader.Bind()
	sky.Shader.Get(gl.VERTEX_SHADER).SetUniform("u_view_mat", view)
	sky.Shader.Get(gl.VERTEX_SHADER).SetUniform("u_projection_mat", frame.Projection)
	env.Bind(0)
	sky.Sampler.Bind(0)
	sky.CubeVao.Bind()
	gl.DrawArrays(gl.TRIANGLES, 0, int32(sky.vertexCount))

	libgl.State.DepthFunc(libgl.DepthFuncLess)
	libgl.State.CullBack()
}

func (sky *SkyResources) Release() {
	sky.CubeVao.Delete()
	sky.CubeVbo.Delete()
	sky.Sampler.Delete()
	sky.Shader.Delete()
}

// MaterialResources owns the sphere batch, its material and the PBR program.
type MaterialResources struct {
	Shader            libgl.UnboundShaderPipeline
	Sampler           libgl.UnboundSampler
	IrradianceSampler libgl.UnboundSampler
	Batch             *libscn.RenderBatch
	Material          *libscn.Material
	mesh              string
}

// NewMaterialResources loads the sphere mesh and material. A procedural sphere and
// a constant material stand in when the pack does not provide them.
func NewMaterialResources(pack *libscn.DirPack, cfg Config) (res *MaterialResources, err error) {
	group := &libutil.ReleaseGroup{}
	defer group.ReleaseOnError(&err)

	shader, err := pack.LoadShaderPipeline("pbr")
	if err != nil {
		return nil, err
	}
	group.Add(shader)

	mesh, material, err := loadSphereAssets(pack, cfg.Assets)
	if err != nil {
		return nil, err
	}
	group.Add(material)

	sampler := libgl.NewSampler()
	group.Add(sampler)
	sampler.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)
	sampler.WrapMode(gl.REPEAT, gl.REPEAT, 0)
	sampler.AnisotropicFilter(cfg.Render.Anisotropy)

	irradianceSampler := libgl.NewSampler()
	group.Add(irradianceSampler)
	irradianceSampler.FilterMode(gl.LINEAR, gl.LINEAR)
	irradianceSampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)

	batch, err := libscn.NewRenderBatch()
	if err != nil {
		return nil, &ibl.ResourceCreationError{Resource: "render batch", Err: err}
	}
	group.Add(batch)
	batch.Upload(mesh)
	batch.AddMaterial(material)

	res = &MaterialResources{
		Shader:            shader,
		Sampler:           sampler,
		IrradianceSampler: irradianceSampler,
		Batch:             batch,
		Material:          material,
		mesh:              mesh.Name,
	}
	if err := res.SetGrid(cfg.Grid); err != nil {
		return nil, err
	}

	group.Disown()
	return res, nil
}

func loadSphereAssets(pack *libscn.DirPack, cfg AssetsConfig) (*libscn.Mesh, *libscn.Material, error) {
	if cfg.Model != "" {
		model, err := pack.LoadModel(cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		return model.Mesh, model.Material, nil
	}

	mesh, err := pack.LoadMesh(cfg.Mesh)
	if errors.Is(err, libscn.ErrNotRegistered) {
		slog.Warn("sphere mesh not in pack, using a procedural sphere", "mesh", cfg.Mesh)
		mesh, err = libscn.NewUVSphere(cfg.Mesh, sphereRings, sphereSegments), nil
	}
	if err != nil {
		return nil, nil, err
	}

	material, err := pack.LoadMaterial(cfg.Material)
	if errors.Is(err, libscn.ErrNotRegistered) {
		slog.Warn("material not in pack, using constant textures", "material", cfg.Material)
		material, err = constantMaterialImages(cfg.Material).Upload()
	}
	if err != nil {
		return nil, nil, err
	}
	return mesh, material, nil
}

func constantMaterialImages(name string) *libscn.MaterialImages {
	return &libscn.MaterialImages{
		Name:      name,
		Albedo:    libscn.ConstantImage([4]float32{0.85, 0.74, 0.60, 1}),
		Normal:    libscn.ConstantImage([4]float32{0.5, 0.5, 1, 1}),
		Metallic:  libscn.ConstantImage([4]float32{1, 1, 1, 1}),
		Roughness: libscn.ConstantImage([4]float32{1, 1, 1, 1}),
	}
}

// SetGrid replaces the sphere instances.
func (res *MaterialResources) SetGrid(grid GridConfig) error {
	res.Batch.ClearInstances()
	entities := grid.SphereGrid(res.mesh, res.Material.Name).Entities()
	if err := res.Batch.AddEntities(entities); err != nil {
		return err
	}
	res.Batch.GenerateDrawCommands()
	return nil
}

func (res *MaterialResources) Draw(frame Frame, irradiance libgl.UnboundTexture) {
	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 1, -1, gl.Str("Draw Spheres\x00"))
	defer gl.PopDebugGroup()

	vert := res.Shader.Get(gl.VERTEX_SHADER)
	frag := res.Shader.Get(gl.FRAGMENT_SHADER)
	res.Shader.Bind()
	vert.SetUniform("u_view_projection_mat", frame.ViewProjection())
	frag.SetUniform("u_camera_position", frame.CameraPosition)
	frag.SetUniform("u_textured", frame.Textured)
	frag.SetUniform("u_light_positions", LightPositions)
	frag.SetUniform("u_light_color", frame.LightColor)

	irradiance.Bind(irradianceUnit)
	res.IrradianceSampler.Bind(irradianceUnit)

	res.Batch.Bind()
	for i := range res.Batch.Materials {
		slice := &res.Batch.Materials[i]
		mat := slice.Material
		for unit, tex := range []libgl.UnboundTexture{mat.Albedo, mat.Normal, mat.Metallic, mat.Roughness} {
			tex.Bind(unit)
			res.Sampler.Bind(unit)
		}
		res.Batch.DrawMaterial(slice)
	}
}

func (res *MaterialResources) Release() {
	res.Batch.Delete()
	res.Material.Delete()
	res.IrradianceSampler.Delete()
	res.Sampler.Delete()
	res.Shader.Delete()
}
