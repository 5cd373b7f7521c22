package libscn

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pbr-demo/ibl"
	"pbr-demo/libgl"
	"pbr-demo/libio"
	"pbr-demo/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/exp/slices"
	_ "golang.org/x/image/tiff"
)

var ErrNotRegistered = errors.New("not registered in this pack")

type AssetIndex struct {
	Materials []string `json:"materials"`
	Textures  []string `json:"textures"`
	Meshes    []string `json:"meshes"`
	Models    []string `json:"models"`
	Shaders   []string `json:"shaders"`
	Hdris     []string `json:"hdris"`
}

type ModelDesc struct {
	Mesh     string `json:"mesh"`
	Material string `json:"material"`
}

// MaterialDesc names the texture files of a material relative to the description.
// A missing texture is replaced by a 1x1 texture of its factor.
type MaterialDesc struct {
	Albedo          string      `json:"albedo"`
	Normal          string      `json:"normal"`
	Metallic        string      `json:"metallic"`
	Roughness       string      `json:"roughness"`
	AlbedoFactor    *[3]float32 `json:"albedo_factor"`
	MetallicFactor  *float32    `json:"metallic_factor"`
	RoughnessFactor *float32    `json:"roughness_factor"`
}

type ShaderPipelineDesc struct {
	Vertex   string `json:"vertex"`
	Fragment string `json:"fragment"`
}

// DirPack maps asset names to files. The name of a file is its base name up to the first dot.
type DirPack struct {
	MeshIndex     map[string]string
	ModelIndex    map[string]string
	MaterialIndex map[string]string
	TextureIndex  map[string]string
	ShaderIndex   map[string]string
	HdriIndex     map[string]string
}

func NewDirPack() *DirPack {
	return &DirPack{
		MeshIndex:     map[string]string{},
		ModelIndex:    map[string]string{},
		MaterialIndex: map[string]string{},
		TextureIndex:  map[string]string{},
		ShaderIndex:   map[string]string{},
		HdriIndex:     map[string]string{},
	}
}

func (pack *DirPack) AddIndexFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return &ibl.AssetLoadError{Path: name, Err: err}
	}
	defer file.Close()

	if err := pack.AddIndex(file, path.Dir(filepath.ToSlash(name))); err != nil {
		return &ibl.AssetLoadError{Path: name, Err: err}
	}
	return nil
}

func (pack *DirPack) AddIndex(r io.Reader, root string) error {
	index := AssetIndex{}
	if err := json.NewDecoder(r).Decode(&index); err != nil {
		return fmt.Errorf("could not unmarshal asset index: %w", err)
	}

	root = path.Clean(root)
	kinds := []struct {
		patterns []string
		index    map[string]string
	}{
		{index.Materials, pack.MaterialIndex},
		{index.Meshes, pack.MeshIndex},
		{index.Models, pack.ModelIndex},
		{index.Shaders, pack.ShaderIndex},
		{index.Hdris, pack.HdriIndex},
		{index.Textures, pack.TextureIndex},
	}
	for _, kind := range kinds {
		if err := addAllMatches(root, kind.patterns, kind.index); err != nil {
			return err
		}
	}

	return nil
}

func addAllMatches(root string, patterns []string, index map[string]string) error {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(path.Join(root, pattern))
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			match = filepath.ToSlash(match)

			name, _, _ := strings.Cut(path.Base(match), ".")
			index[name] = match
		}
	}
	return nil
}

// Names lists the names of an index in order.
func Names(index map[string]string) []string {
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookup(index map[string]string, kind, name string) (string, error) {
	filename, ok := index[name]
	if !ok {
		return "", &ibl.AssetLoadError{Path: name, Err: fmt.Errorf("%s %w", kind, ErrNotRegistered)}
	}
	return filename, nil
}

func readJson(filename string, v any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return &ibl.AssetLoadError{Path: filename, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ibl.AssetLoadError{Path: filename, Err: fmt.Errorf("could not unmarshal: %w", err)}
	}
	return nil
}

type Model struct {
	Mesh     *Mesh
	Material *Material
}

// LoadModelImages reads a model's mesh and material images without touching the GL.
func (pack *DirPack) LoadModelImages(name string) (*Mesh, *MaterialImages, error) {
	filename, err := lookup(pack.ModelIndex, "model", name)
	if err != nil {
		return nil, nil, err
	}

	modelDesc := ModelDesc{}
	if err := readJson(filename, &modelDesc); err != nil {
		return nil, nil, err
	}

	mesh, err := pack.LoadMesh(modelDesc.Mesh)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load mesh %q for model %q: %w", modelDesc.Mesh, filename, err)
	}
	images, err := pack.LoadMaterialImages(modelDesc.Material)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load material %q for model %q: %w", modelDesc.Material, filename, err)
	}
	return mesh, images, nil
}

func (pack *DirPack) LoadModel(name string) (*Model, error) {
	mesh, images, err := pack.LoadModelImages(name)
	if err != nil {
		return nil, err
	}
	material, err := images.Upload()
	if err != nil {
		return nil, err
	}
	return &Model{
		Mesh:     mesh,
		Material: material,
	}, nil
}

func (pack *DirPack) LoadShaderPipeline(name string) (pipeline libgl.UnboundShaderPipeline, err error) {
	filename, err := lookup(pack.ShaderIndex, "shader pipeline", name)
	if err != nil {
		return nil, err
	}

	shaderDesc := ShaderPipelineDesc{}
	if err := readJson(filename, &shaderDesc); err != nil {
		return nil, err
	}

	group := &libutil.ReleaseGroup{}
	defer group.ReleaseOnError(&err)

	root := path.Dir(filename)
	stages := []struct {
		file  string
		stage int
		bit   int
	}{
		{shaderDesc.Vertex, gl.VERTEX_SHADER, gl.VERTEX_SHADER_BIT},
		{shaderDesc.Fragment, gl.FRAGMENT_SHADER, gl.FRAGMENT_SHADER_BIT},
	}

	pipeline = libgl.NewPipeline()
	group.Add(pipeline)
	pipeline.SetDebugLabel(name)
	for _, s := range stages {
		sh, err := pack.LoadShader(path.Join(root, s.file), s.stage)
		if err != nil {
			return nil, fmt.Errorf("shader pipeline %q: %w", name, err)
		}
		group.Add(sh)
		if err := sh.Compile(); err != nil {
			return nil, &ibl.AssetLoadError{Path: path.Join(root, s.file), Err: err}
		}
		pipeline.Attach(sh, s.bit)
	}

	group.Disown()
	return pipeline, nil
}

func (pack *DirPack) LoadShader(filename string, stage int) (libgl.ShaderProgram, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, &ibl.AssetLoadError{Path: filename, Err: err}
	}

	return libgl.NewShader(string(src), stage), nil
}

// MaterialImages are the decoded textures of a material, not yet uploaded.
type MaterialImages struct {
	Name      string
	Albedo    *libio.IntImage
	Normal    *libio.IntImage
	Metallic  *libio.IntImage
	Roughness *libio.IntImage
}

func (pack *DirPack) LoadMaterialImages(name string) (*MaterialImages, error) {
	filename, err := lookup(pack.MaterialIndex, "material", name)
	if err != nil {
		return nil, err
	}

	desc := MaterialDesc{}
	if err := readJson(filename, &desc); err != nil {
		return nil, err
	}

	albedoFactor := [3]float32{0.85, 0.74, 0.60}
	if desc.AlbedoFactor != nil {
		albedoFactor = *desc.AlbedoFactor
	}
	var metallicFactor, roughnessFactor float32 = 0, 0.5
	if desc.MetallicFactor != nil {
		metallicFactor = *desc.MetallicFactor
	}
	if desc.RoughnessFactor != nil {
		roughnessFactor = *desc.RoughnessFactor
	}

	root := path.Dir(filename)
	images := &MaterialImages{Name: name}
	slots := []struct {
		kind     string
		file     string
		dst      **libio.IntImage
		constant [4]float32
	}{
		{"albedo", desc.Albedo, &images.Albedo, [4]float32{albedoFactor[0], albedoFactor[1], albedoFactor[2], 1}},
		{"normal", desc.Normal, &images.Normal, [4]float32{0.5, 0.5, 1, 1}},
		{"metallic", desc.Metallic, &images.Metallic, [4]float32{metallicFactor, metallicFactor, metallicFactor, 1}},
		{"roughness", desc.Roughness, &images.Roughness, [4]float32{roughnessFactor, roughnessFactor, roughnessFactor, 1}},
	}
	for _, slot := range slots {
		if slot.file == "" {
			*slot.dst = ConstantImage(slot.constant)
			continue
		}
		img, err := pack.LoadTextureImage(path.Join(root, slot.file))
		if err != nil {
			return nil, fmt.Errorf("could not load %s texture for material %q: %w", slot.kind, filename, err)
		}
		*slot.dst = img
	}

	return images, nil
}

// ConstantImage is a 1x1 RGBA image of a color in [0, 1].
func ConstantImage(c [4]float32) *libio.IntImage {
	pix := make([]uint8, 4)
	for i := range pix {
		pix[i] = uint8(libutil.Clamp(c[i], 0, 1)*255 + 0.5)
	}
	return libio.NewIntImage(pix, 4, 1, 1)
}

type Material struct {
	Name      string
	Albedo    libgl.UnboundTexture
	Normal    libgl.UnboundTexture
	Metallic  libgl.UnboundTexture
	Roughness libgl.UnboundTexture
}

func (mat *Material) Delete() {
	for _, tex := range []libgl.UnboundTexture{mat.Albedo, mat.Normal, mat.Metallic, mat.Roughness} {
		if tex != nil {
			tex.Delete()
		}
	}
	mat.Albedo, mat.Normal, mat.Metallic, mat.Roughness = nil, nil, nil, nil
}

// Upload creates mipmapped textures. Albedo is stored as sRGB.
func (images *MaterialImages) Upload() (mat *Material, err error) {
	group := &libutil.ReleaseGroup{}
	defer group.ReleaseOnError(&err)

	upload := func(kind string, img *libio.IntImage, format uint32) (libgl.UnboundTexture, error) {
		img = img.ToChannels(4, 0xff)
		tex := libgl.NewTexture(gl.TEXTURE_2D)
		group.Add(tex)
		if tex.Id() == 0 {
			return nil, &ibl.ResourceCreationError{Resource: kind + " texture", Err: errors.New("driver returned object name 0")}
		}
		tex.SetDebugLabel(images.Name + " " + kind)
		tex.Allocate(0, format, img.Width, img.Height, 0)
		tex.Load(0, img.Width, img.Height, 0, gl.RGBA, img.Pix)
		tex.GenerateMipmap()
		if err := libgl.CheckError("upload " + kind + " texture"); err != nil {
			return nil, &ibl.ResourceCreationError{Resource: kind + " texture", Err: err}
		}
		return tex, nil
	}

	mat = &Material{Name: images.Name}
	if mat.Albedo, err = upload("albedo", images.Albedo, gl.SRGB8_ALPHA8); err != nil {
		return nil, err
	}
	if mat.Normal, err = upload("normal", images.Normal, gl.RGBA8); err != nil {
		return nil, err
	}
	if mat.Metallic, err = upload("metallic", images.Metallic, gl.RGBA8); err != nil {
		return nil, err
	}
	if mat.Roughness, err = upload("roughness", images.Roughness, gl.RGBA8); err != nil {
		return nil, err
	}

	group.Disown()
	return mat, nil
}

func (pack *DirPack) LoadMaterial(name string) (*Material, error) {
	images, err := pack.LoadMaterialImages(name)
	if err != nil {
		return nil, err
	}
	return images.Upload()
}

func (pack *DirPack) LoadTexture(name string) (*libio.IntImage, error) {
	filename, err := lookup(pack.TextureIndex, "texture", name)
	if err != nil {
		return nil, err
	}
	return pack.LoadTextureImage(filename)
}

// LoadTextureImage decodes png, jpeg or tiff into RGBA with the origin at the bottom left.
func (pack *DirPack) LoadTextureImage(filename string) (*libio.IntImage, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ibl.AssetLoadError{Path: filename, Err: err}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &ibl.AssetLoadError{Path: filename, Err: err}
	}
	return libio.FromImage(img), nil
}

// LoadMesh reads .obj, .geo and lz4 compressed .geo files.
func (pack *DirPack) LoadMesh(name string) (*Mesh, error) {
	filename, err := lookup(pack.MeshIndex, "mesh", name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ibl.AssetLoadError{Path: filename, Err: err}
	}
	defer file.Close()

	var mesh *Mesh
	switch {
	case strings.HasSuffix(filename, ".obj"):
		mesh, err = DecodeObj(file, name)
	case strings.HasSuffix(filename, ".lz4"):
		mesh, err = DecodeMesh(lz4.NewReader(file))
	default:
		mesh, err = DecodeMesh(file)
	}
	if err != nil {
		return nil, &ibl.AssetLoadError{Path: filename, Err: err}
	}

	// instances refer to meshes by their pack name
	mesh.Name = name
	return mesh, nil
}

func (pack *DirPack) LoadHdri(name string) (*ibl.IblEnv, error) {
	filename, err := lookup(pack.HdriIndex, "hdri", name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ibl.AssetLoadError{Path: filename, Err: err}
	}
	defer file.Close()

	var src io.Reader = file
	if strings.HasSuffix(filename, ".lz4") {
		src = lz4.NewReader(file)
	}

	env, err := ibl.DecodeIblEnv(src)
	if err != nil {
		return nil, &ibl.AssetLoadError{Path: filename, Err: err}
	}

	return env, nil
}
