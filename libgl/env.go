package libgl

import (
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
)

var GlEnv *Environment

type Environment struct {
	Vendor                     string
	Renderer                   string
	UseIntelTextureBindingFix  bool
	IntelTextureBindingTargets map[uint32]uint32
	Features                   Features
}

type Features struct {
	MaxTextureSize          int
	MaxArrayTextureLayers   int
	MaxTextureMaxAnisotropy float32
}

const (
	VendorIntel   = "intel"
	VendorNvidia  = "nvidia"
	VendorAmd     = "ati"
	VendorUnknown = "unknown"
)

// Init queries the current context and resets the global state cache.
// It must be called once per context, on the thread that owns it.
func Init() {
	GlEnv = QueryEnvironment()
	State = NewStateManager()
	var vp [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &vp[0])
	State.ViewportRect = [4]int{int(vp[0]), int(vp[1]), int(vp[2]), int(vp[3])}
}

func QueryEnvironment() *Environment {
	vendor := strings.ToLower(gl.GoStr(gl.GetString(gl.VENDOR)))
	switch {
	case strings.Contains(vendor, "intel"):
		vendor = VendorIntel
	case strings.Contains(vendor, "nvidia"):
		vendor = VendorNvidia
	case strings.Contains(vendor, "ati ") || strings.Contains(vendor, "amd"):
		vendor = VendorAmd
	default:
		vendor = VendorUnknown
	}

	features := Features{}
	var maxSize, maxLayers int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
	gl.GetIntegerv(gl.MAX_ARRAY_TEXTURE_LAYERS, &maxLayers)
	features.MaxTextureSize = int(maxSize)
	features.MaxArrayTextureLayers = int(maxLayers)
	gl.GetFloatv(gl.MAX_TEXTURE_MAX_ANISOTROPY, &features.MaxTextureMaxAnisotropy)

	return &Environment{
		Vendor:                     vendor,
		Renderer:                   gl.GoStr(gl.GetString(gl.RENDERER)),
		UseIntelTextureBindingFix:  vendor == VendorIntel,
		IntelTextureBindingTargets: map[uint32]uint32{},
		Features:                   features,
	}
}
