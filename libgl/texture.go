package libgl

import (
	"fmt"
	"log"
	"math"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type texture struct {
	glId           uint32
	dimensions     uint32
	internalFormat uint32
	levels         int
	width          int32
	height         int32
	depth          int32
}

type UnboundTexture interface {
	LabeledGlObject
	Id() uint32
	Type() uint32
	Width() int
	Height() int
	Depth() int
	Levels() int
	Bind(unit int) BoundTexture
	Allocate(levels int, internalFormat uint32, width, height, depth int)
	Load(level int, width, height, depth int, format uint32, data any)
	Download(level int, format uint32, data any) error
	MipmapLevels(base, max int)
	CreateView(dimensions, internalFormat uint32, minLevel, maxLevel, minLayer, maxLayer int) UnboundTexture
	GenerateMipmap()
	Delete()
}

type BoundTexture interface {
	UnboundTexture
}

func NewTexture(dimensions uint32) UnboundTexture {
	var id uint32
	gl.CreateTextures(dimensions, 1, &id)
	if GlEnv.UseIntelTextureBindingFix {
		GlEnv.IntelTextureBindingTargets[id] = dimensions
	}
	return &texture{
		glId:       id,
		dimensions: dimensions,
	}
}

func (tex *texture) Dimensions() int {
	switch tex.dimensions {
	case gl.TEXTURE_1D, gl.TEXTURE_BUFFER:
		return 1
	case gl.TEXTURE_3D, gl.TEXTURE_2D_ARRAY, gl.TEXTURE_CUBE_MAP, gl.TEXTURE_CUBE_MAP_ARRAY:
		return 3
	case gl.TEXTURE_2D, gl.TEXTURE_1D_ARRAY:
		return 2
	default:
		gl.DebugMessageInsert(gl.DEBUG_SOURCE_APPLICATION, gl.DEBUG_TYPE_ERROR, 1, gl.DEBUG_SEVERITY_MEDIUM, -1, gl.Str(fmt.Sprintf("invalid texture dimension for texture %d: %04x\x00", tex.glId, tex.dimensions)))
		return 0
	}
}

func (tex *texture) Id() uint32 {
	return tex.glId
}

func (tex *texture) Type() uint32 {
	return tex.dimensions
}

func (tex *texture) Width() int {
	return int(tex.width)
}

func (tex *texture) Height() int {
	return int(tex.height)
}

// Depth is the layer count for array and cube textures.
func (tex *texture) Depth() int {
	return int(tex.depth)
}

func (tex *texture) Levels() int {
	return tex.levels
}

func (tex *texture) SetDebugLabel(label string) {
	setObjectLabel(gl.TEXTURE, tex.glId, label)
}

func (tex *texture) Bind(unit int) BoundTexture {
	State.BindTextureUnit(unit, tex.glId)
	return BoundTexture(tex)
}

// Delete releases the texture name. Calling it again is a no-op.
func (tex *texture) Delete() {
	if tex.glId == 0 {
		return
	}
	State.ForgetTexture(tex.glId)
	if GlEnv.UseIntelTextureBindingFix {
		delete(GlEnv.IntelTextureBindingTargets, tex.glId)
	}
	gl.DeleteTextures(1, &tex.glId)
	tex.glId = 0
}

// CreateView creates a texture view sharing this texture's storage.
// minLayer and maxLayer are inclusive.
func (tex *texture) CreateView(dimensions, internalFormat uint32, minLevel, maxLevel, minLayer, maxLayer int) UnboundTexture {
	var viewId uint32
	// views need a name that has never been bound, CreateTextures would give it a target already
	gl.GenTextures(1, &viewId)
	if internalFormat == 0 {
		internalFormat = tex.internalFormat
	}
	gl.TextureView(viewId, dimensions, tex.glId, internalFormat, uint32(minLevel), uint32(maxLevel-minLevel+1), uint32(minLayer), uint32(maxLayer-minLayer+1))
	if GlEnv.UseIntelTextureBindingFix {
		GlEnv.IntelTextureBindingTargets[viewId] = dimensions
	}
	return &texture{
		glId:           viewId,
		dimensions:     dimensions,
		internalFormat: internalFormat,
		levels:         maxLevel - minLevel + 1,
		width:          tex.width,
		height:         tex.height,
		depth:          int32(maxLayer - minLayer + 1),
	}
}

// Allocate creates immutable storage. A levels value of 0 allocates a full mip chain.
func (tex *texture) Allocate(levels int, internalFormat uint32, width, height, depth int) {
	if levels == 0 {
		max := math.Max(float64(width), float64(height))
		if tex.dimensions == gl.TEXTURE_3D {
			max = math.Max(max, float64(depth))
		}
		levels = int(math.Log2(max)) + 1
	}
	tex.levels = levels
	tex.internalFormat = internalFormat
	tex.width = int32(width)
	tex.height = int32(height)
	tex.depth = int32(depth)
	switch tex.Dimensions() {
	case 1:
		gl.TextureStorage1D(tex.glId, int32(levels), internalFormat, int32(width))
	case 2:
		gl.TextureStorage2D(tex.glId, int32(levels), internalFormat, int32(width), int32(height))
	case 3:
		if tex.dimensions == gl.TEXTURE_CUBE_MAP {
			// cube storage is specified as 2D, the six faces are implied
			gl.TextureStorage2D(tex.glId, int32(levels), internalFormat, int32(width), int32(height))
			tex.depth = 6
			return
		}
		gl.TextureStorage3D(tex.glId, int32(levels), internalFormat, int32(width), int32(height), int32(depth))
	}
}

func (tex *texture) Load(level int, width, height, depth int, format uint32, data any) {
	dataType, _ := getGlType(data)
	switch tex.Dimensions() {
	case 1:
		gl.TextureSubImage1D(tex.glId, int32(level), 0, int32(width), format, dataType, Pointer(data))
	case 2:
		gl.TextureSubImage2D(tex.glId, int32(level), 0, 0, int32(width), int32(height), format, dataType, Pointer(data))
	case 3:
		gl.TextureSubImage3D(tex.glId, int32(level), 0, 0, 0, int32(width), int32(height), int32(depth), format, dataType, Pointer(data))
	}
}

// Download reads a whole mip level into data, which must be a slice large enough to hold it.
func (tex *texture) Download(level int, format uint32, data any) error {
	dataType, _ := getGlType(data)
	size, err := byteSize(data)
	if err != nil {
		return err
	}
	gl.GetTextureImage(tex.glId, int32(level), format, dataType, int32(size), Pointer(data))
	return CheckError("glGetTextureImage")
}

func (tex *texture) GenerateMipmap() {
	gl.GenerateTextureMipmap(tex.glId)
}

func (tex *texture) MipmapLevels(base, max int) {
	gl.TextureParameteri(tex.glId, gl.TEXTURE_BASE_LEVEL, int32(base))
	gl.TextureParameteri(tex.glId, gl.TEXTURE_MAX_LEVEL, int32(max))
}

func getGlType(data any) (glType uint32, float bool) {
	switch data.(type) {
	case byte, []byte, *byte:
		return gl.UNSIGNED_BYTE, false
	case int8, []int8, *int8:
		return gl.BYTE, false
	case int16, []int16, *int16:
		return gl.SHORT, false
	case uint16, []uint16, *uint16:
		return gl.UNSIGNED_SHORT, false
	case int32, []int32, *int32:
		return gl.INT, false
	case uint32, []uint32, *uint32:
		return gl.UNSIGNED_INT, false
	case float32, []float32, *float32, mgl32.Vec2, []mgl32.Vec2, mgl32.Vec3, []mgl32.Vec3, mgl32.Vec4, []mgl32.Vec4:
		return gl.FLOAT, true
	case float64, []float64, *float64:
		return gl.DOUBLE, true
	}
	log.Panicf("invalid type: %T", data)
	return 0, false
}

func byteSize(data any) (int, error) {
	switch d := data.(type) {
	case []byte:
		return len(d), nil
	case []uint16:
		return len(d) * 2, nil
	case []float32:
		return len(d) * 4, nil
	case []uint32:
		return len(d) * 4, nil
	case []mgl32.Vec3:
		return len(d) * 12, nil
	case []mgl32.Vec4:
		return len(d) * 16, nil
	}
	return 0, fmt.Errorf("unsupported download buffer type %T", data)
}

type sampler struct {
	glId uint32
}

type UnboundSampler interface {
	Id() uint32
	Bind(unit int) BoundSampler
	FilterMode(min, mag int32)
	WrapMode(s, t, r int32)
	AnisotropicFilter(quality float32)
	LodBias(bias float32)
	Delete()
}

type BoundSampler interface {
	UnboundSampler
}

func NewSampler() UnboundSampler {
	var id uint32
	gl.CreateSamplers(1, &id)
	return &sampler{
		glId: id,
	}
}

func (s *sampler) Id() uint32 {
	return s.glId
}

func (s *sampler) Bind(unit int) BoundSampler {
	State.BindSampler(unit, s.glId)
	return BoundSampler(s)
}

func (s *sampler) Delete() {
	if s.glId == 0 {
		return
	}
	for i, id := range State.SamplerUnits {
		if id == s.glId {
			State.SamplerUnits[i] = 0
		}
	}
	gl.DeleteSamplers(1, &s.glId)
	s.glId = 0
}

func (s *sampler) FilterMode(min, mag int32) {
	if min != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (sampler *sampler) WrapMode(s, t, r int32) {
	if s != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_T, t)
	}
	if r != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_R, r)
	}
}

// AnisotropicFilter clamps quality to what the device supports.
func (sampler *sampler) AnisotropicFilter(quality float32) {
	if GlEnv != nil && GlEnv.Features.MaxTextureMaxAnisotropy > 0 && quality > GlEnv.Features.MaxTextureMaxAnisotropy {
		quality = GlEnv.Features.MaxTextureMaxAnisotropy
	}
	gl.SamplerParameterf(sampler.glId, gl.TEXTURE_MAX_ANISOTROPY, quality)
}

func (sampler *sampler) LodBias(bias float32) {
	gl.SamplerParameterf(sampler.glId, gl.TEXTURE_LOD_BIAS, bias)
}
