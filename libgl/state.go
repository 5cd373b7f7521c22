package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

type Capability uint32

const (
	DepthTest   Capability = gl.DEPTH_TEST
	Blend       Capability = gl.BLEND
	ScissorTest Capability = gl.SCISSOR_TEST
	CullFace    Capability = gl.CULL_FACE
	DepthClamp  Capability = gl.DEPTH_CLAMP
	// only tracked so the debug callback can be toggled through the state manager
	DebugOutput            Capability = gl.DEBUG_OUTPUT
	DebugOutputSynchronous Capability = gl.DEBUG_OUTPUT_SYNCHRONOUS
	SeamlessCubemap        Capability = gl.TEXTURE_CUBE_MAP_SEAMLESS
)

type BlendFactor uint32

const (
	BlendZero             BlendFactor = gl.ZERO
	BlendOne              BlendFactor = gl.ONE
	BlendSrcAlpha         BlendFactor = gl.SRC_ALPHA
	BlendOneMinusSrcAlpha BlendFactor = gl.ONE_MINUS_SRC_ALPHA
)

type BlendEquation uint32

const (
	BlendFuncAdd BlendEquation = gl.FUNC_ADD
	BlendMax     BlendEquation = gl.MAX
)

type DepthFunc uint32

const (
	DepthFuncNever   DepthFunc = gl.NEVER
	DepthFuncLess    DepthFunc = gl.LESS
	DepthFuncLEqual  DepthFunc = gl.LEQUAL
	DepthFuncGreater DepthFunc = gl.GREATER
	DepthFuncEqual   DepthFunc = gl.EQUAL
	DepthFuncAlways  DepthFunc = gl.ALWAYS
)

type StateManager struct {
	Caps                              map[Capability]bool
	TextureUnits, SamplerUnits        []uint32
	DrawFramebuffer, ReadFramebuffer  uint32
	ArrayBuffer, DrawIndirectBuffer   uint32
	ElementArrayBuffer                uint32
	ProgramPipeline, VertexArray      uint32
	ActiveTextureUnit                 int
	ViewportRect, ScissorRect         [4]int
	BlendFactorSrc, BlendFactorDst    BlendFactor
	BlendEquationMode                 BlendEquation
	DepthFuncFn                       DepthFunc
	DepthWriteMask                    bool
	CullFaceMask                      uint32
	ClearColorRGBA                    [4]float32
	PolygonModeFront, PolygonModeBack uint32
}

// RasterState is the subset of the pipeline state that render passes
// commonly change and must hand back unchanged.
type RasterState struct {
	DepthTest       bool
	DepthWrite      bool
	CullFace        bool
	DepthFunc       DepthFunc
	CullFaceMask    uint32
	Viewport        [4]int
	DrawFramebuffer uint32
}

var State *StateManager

// NewStateManager returns a manager whose cache matches the initial GL
// context state, so redundant calls are filtered from the start.
func NewStateManager() *StateManager {
	return &StateManager{
		Caps:              map[Capability]bool{},
		TextureUnits:      make([]uint32, 32),
		SamplerUnits:      make([]uint32, 32),
		DepthFuncFn:       DepthFuncLess,
		DepthWriteMask:    true,
		CullFaceMask:      gl.BACK,
		BlendFactorSrc:    BlendOne,
		BlendFactorDst:    BlendZero,
		BlendEquationMode: BlendFuncAdd,
		PolygonModeFront:  gl.FILL,
		PolygonModeBack:   gl.FILL,
	}
}

func (s *StateManager) Raster() RasterState {
	return RasterState{
		DepthTest:       s.Caps[DepthTest],
		DepthWrite:      s.DepthWriteMask,
		CullFace:        s.Caps[CullFace],
		DepthFunc:       s.DepthFuncFn,
		CullFaceMask:    s.CullFaceMask,
		Viewport:        s.ViewportRect,
		DrawFramebuffer: s.DrawFramebuffer,
	}
}

func (s *StateManager) SetRaster(r RasterState) {
	s.SetCapability(DepthTest, r.DepthTest)
	s.SetCapability(CullFace, r.CullFace)
	s.DepthMask(r.DepthWrite)
	s.DepthFunc(r.DepthFunc)
	if r.CullFaceMask != 0 && r.CullFaceMask != s.CullFaceMask {
		gl.CullFace(r.CullFaceMask)
		s.CullFaceMask = r.CullFaceMask
	}
	s.Viewport(r.Viewport[0], r.Viewport[1], r.Viewport[2], r.Viewport[3])
	s.BindDrawFramebuffer(r.DrawFramebuffer)
}

// DefaultRaster is what the main pass expects on entry to every frame.
func (s *StateManager) DefaultRaster() RasterState {
	return RasterState{
		DepthTest:       true,
		DepthWrite:      true,
		CullFace:        true,
		DepthFunc:       DepthFuncLess,
		CullFaceMask:    gl.BACK,
		Viewport:        s.ViewportRect,
		DrawFramebuffer: 0,
	}
}

func (s *StateManager) Enable(cap Capability) {
	if s.Caps[cap] {
		return
	}
	gl.Enable(uint32(cap))
	s.Caps[cap] = true
}

func (s *StateManager) Disable(cap Capability) {
	if !s.Caps[cap] {
		return
	}
	gl.Disable(uint32(cap))
	s.Caps[cap] = false
}

func (s *StateManager) SetCapability(cap Capability, enabled bool) {
	if enabled {
		s.Enable(cap)
	} else {
		s.Disable(cap)
	}
}

// SetEnabled enables exactly the given capabilities and disables every other tracked one.
func (s *StateManager) SetEnabled(caps ...Capability) {
	want := map[Capability]bool{}
	for _, c := range caps {
		want[c] = true
	}
	for c, v := range s.Caps {
		if v && !want[c] && c != DebugOutput && c != DebugOutputSynchronous && c != SeamlessCubemap {
			s.Disable(c)
		}
	}
	for c := range want {
		s.Enable(c)
	}
}

func (s *StateManager) CullFront() {
	if s.CullFaceMask == gl.FRONT {
		return
	}
	gl.CullFace(gl.FRONT)
	s.CullFaceMask = gl.FRONT
}

func (s *StateManager) CullBack() {
	if s.CullFaceMask == gl.BACK {
		return
	}
	gl.CullFace(gl.BACK)
	s.CullFaceMask = gl.BACK
}

func (s *StateManager) BlendFunc(sfactor, dfactor BlendFactor) {
	if s.BlendFactorSrc == sfactor && s.BlendFactorDst == dfactor {
		return
	}
	gl.BlendFunc(uint32(sfactor), uint32(dfactor))
	s.BlendFactorSrc = sfactor
	s.BlendFactorDst = dfactor
}

func (s *StateManager) BlendEquation(mode BlendEquation) {
	if s.BlendEquationMode == mode {
		return
	}
	gl.BlendEquation(uint32(mode))
	s.BlendEquationMode = mode
}

func (s *StateManager) DepthFunc(fn DepthFunc) {
	if s.DepthFuncFn == fn || fn == 0 {
		return
	}
	gl.DepthFunc(uint32(fn))
	s.DepthFuncFn = fn
}

func (s *StateManager) DepthMask(flag bool) {
	if s.DepthWriteMask == flag {
		return
	}
	gl.DepthMask(flag)
	s.DepthWriteMask = flag
}

func (s *StateManager) PolygonMode(face, mode uint32) {
	if face == gl.FRONT_AND_BACK && (s.PolygonModeFront != mode || s.PolygonModeBack != mode) {
		gl.PolygonMode(face, mode)
		s.PolygonModeBack = mode
		s.PolygonModeFront = mode
	} else if face == gl.FRONT && s.PolygonModeFront != mode {
		gl.PolygonMode(face, mode)
		s.PolygonModeFront = mode
	} else if face == gl.BACK && s.PolygonModeBack != mode {
		gl.PolygonMode(face, mode)
		s.PolygonModeBack = mode
	}
}

func (s *StateManager) BindTextureUnit(unit int, texture uint32) {
	if s.TextureUnits[unit] == texture {
		return
	}
	if GlEnv.UseIntelTextureBindingFix {
		s.ActiveTexture(unit)
		if texture == 0 {
			s.TextureUnits[unit] = texture
			return
		}
		gl.BindTexture(GlEnv.IntelTextureBindingTargets[texture], texture)
		s.TextureUnits[unit] = texture
		return
	}
	gl.BindTextureUnit(uint32(unit), texture)
	s.TextureUnits[unit] = texture
}

// ForgetTexture drops a deleted texture from the unit cache so a later
// texture reusing the same name is bound again.
func (s *StateManager) ForgetTexture(texture uint32) {
	for i, t := range s.TextureUnits {
		if t == texture {
			s.TextureUnits[i] = 0
		}
	}
}

func (s *StateManager) ActiveTexture(unit int) {
	if s.ActiveTextureUnit == unit {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	s.ActiveTextureUnit = unit
}

func (s *StateManager) BindSampler(unit int, sampler uint32) {
	if s.SamplerUnits[unit] == sampler {
		return
	}
	gl.BindSampler(uint32(unit), sampler)
	s.SamplerUnits[unit] = sampler
}

func (s *StateManager) BindBuffer(target uint32, buffer uint32) {
	switch target {
	case gl.ARRAY_BUFFER:
		if s.ArrayBuffer == buffer {
			return
		}
		s.ArrayBuffer = buffer
	case gl.ELEMENT_ARRAY_BUFFER:
		if s.ElementArrayBuffer == buffer {
			return
		}
		s.ElementArrayBuffer = buffer
	case gl.DRAW_INDIRECT_BUFFER:
		if s.DrawIndirectBuffer == buffer {
			return
		}
		s.DrawIndirectBuffer = buffer
	}
	gl.BindBuffer(target, buffer)
}

func (s *StateManager) BindFramebuffer(target, framebuffer uint32) {
	if target == gl.DRAW_FRAMEBUFFER {
		s.BindDrawFramebuffer(framebuffer)
	} else if target == gl.READ_FRAMEBUFFER {
		s.BindReadFramebuffer(framebuffer)
	} else {
		if framebuffer == s.DrawFramebuffer && framebuffer == s.ReadFramebuffer {
			return
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer)
		s.DrawFramebuffer = framebuffer
		s.ReadFramebuffer = framebuffer
	}
}

func (s *StateManager) BindDrawFramebuffer(framebuffer uint32) {
	if s.DrawFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, framebuffer)
	s.DrawFramebuffer = framebuffer
}

func (s *StateManager) BindReadFramebuffer(framebuffer uint32) {
	if s.ReadFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, framebuffer)
	s.ReadFramebuffer = framebuffer
}

func (s *StateManager) BindProgramPipeline(pipeline uint32) {
	if s.ProgramPipeline == pipeline {
		return
	}
	gl.BindProgramPipeline(pipeline)
	s.ProgramPipeline = pipeline
}

func (s *StateManager) BindVertexArray(array uint32) {
	if s.VertexArray == array {
		return
	}
	gl.BindVertexArray(array)
	s.VertexArray = array
}

func (s *StateManager) Viewport(x, y, w, h int) {
	if s.ViewportRect[0] == x && s.ViewportRect[1] == y && s.ViewportRect[2] == w && s.ViewportRect[3] == h {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	s.ViewportRect = [4]int{x, y, w, h}
}

func (s *StateManager) Scissor(x, y, w, h int) {
	if s.ScissorRect[0] == x && s.ScissorRect[1] == y && s.ScissorRect[2] == w && s.ScissorRect[3] == h {
		return
	}
	gl.Scissor(int32(x), int32(y), int32(w), int32(h))
	s.ScissorRect = [4]int{x, y, w, h}
}

func (s *StateManager) ClearColor(r, g, b, a float32) {
	if s.ClearColorRGBA[0] == r && s.ClearColorRGBA[1] == g && s.ClearColorRGBA[2] == b && s.ClearColorRGBA[3] == a {
		return
	}
	gl.ClearColor(r, g, b, a)
	s.ClearColorRGBA = [4]float32{r, g, b, a}
}
