package ibl

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const DefaultSoftwareMaxTextureSize = 16384

var errReleased = errors.New("resource already released")

type SoftwareLimits struct {
	MaxTextureSize int
}

// SoftwareDevice rasterises the irradiance pass on the CPU.
// It follows the same draw sequence as the GL device and is used for tests and headless tools.
type SoftwareDevice struct {
	Limits SoftwareLimits

	env     *IblEnv
	samples []sample
	state   PassState
	nextId  uint32

	bound *SoftwareFaceTarget
	face  CubeMapFace
}

// NewSoftwareDevice starts in the state a freshly created GL context would be in,
// except that depth testing, depth writes and back face culling are enabled, as the demo sets them.
func NewSoftwareDevice(env *IblEnv, kernel Kernel) *SoftwareDevice {
	return &SoftwareDevice{
		Limits:  SoftwareLimits{MaxTextureSize: DefaultSoftwareMaxTextureSize},
		env:     env,
		samples: kernel.samples(),
		state: PassState{
			DepthTest:  true,
			DepthWrite: true,
			CullFace:   true,
		},
	}
}

func (dev *SoftwareDevice) PassState() PassState {
	return dev.state
}

func (dev *SoftwareDevice) RestorePassState(state PassState) {
	dev.state = state
	if state.DrawFramebuffer == 0 || dev.bound == nil || !dev.bound.owns(state.DrawFramebuffer) {
		dev.bound = nil
	}
}

func (dev *SoftwareDevice) BeginPass() {
	dev.state.DepthTest = false
	dev.state.DepthWrite = false
	dev.state.CullFace = false
}

func (dev *SoftwareDevice) CreateFaceTarget(size int) (*SoftwareFaceTarget, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid face size %d", size)
	}
	if size > dev.Limits.MaxTextureSize {
		return nil, fmt.Errorf("face size %d exceeds the maximum texture size %d", size, dev.Limits.MaxTextureSize)
	}

	// each face gets its own framebuffer name, like the GL target
	baseId := dev.nextId + 1
	dev.nextId += 6

	target := &SoftwareFaceTarget{
		size:   size,
		baseId: baseId,
	}
	for i := range target.faces {
		target.faces[i] = make([]float32, size*size*4)
	}
	return target, nil
}

func (dev *SoftwareDevice) BindFaceTarget(target *SoftwareFaceTarget, face CubeMapFace) {
	dev.bound = target
	dev.face = face
	dev.state.DrawFramebuffer = target.baseId + uint32(face)
	dev.state.Viewport = [4]int{0, 0, target.size, target.size}
}

func (dev *SoftwareDevice) Clear(color mgl32.Vec4) {
	if dev.bound == nil || dev.bound.released {
		return
	}
	pix := dev.bound.faces[dev.face]
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = color[0]
		pix[i+1] = color[1]
		pix[i+2] = color[2]
		pix[i+3] = color[3]
	}
}

// DrawCube shades every texel of the bound face. The direction of a texel is its centre
// un-projected through the inverse view projection, which is what the interpolated cube
// position of the GL vertex shader yields.
func (dev *SoftwareDevice) DrawCube(view, projection mgl32.Mat4) {
	if dev.bound == nil || dev.bound.released {
		return
	}
	size := dev.bound.size
	pix := dev.bound.faces[dev.face]
	inv := projection.Mul4(view).Inv()

	for v := 0; v < size; v++ {
		// row 0 is the bottom of the viewport
		ndcY := (2.0*float32(v)+1.0)/float32(size) - 1.0
		for u := 0; u < size; u++ {
			ndcX := (2.0*float32(u)+1.0)/float32(size) - 1.0
			p := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, 0, 1})
			x, y, z := normalize(p[0]/p[3], p[1]/p[3], p[2]/p[3])

			r, g, b := convolve(dev.env, dev.samples, x, y, z)
			i := (v*size + u) * 4
			pix[i+0] = r
			pix[i+1] = g
			pix[i+2] = b
			pix[i+3] = 1
		}
	}
}

func (dev *SoftwareDevice) CreateCubeView(target *SoftwareFaceTarget) (*SoftwareCubeMap, error) {
	if target == nil || target.released {
		return nil, errReleased
	}
	return &SoftwareCubeMap{target: target}, nil
}

type SoftwareFaceTarget struct {
	size     int
	baseId   uint32
	faces    [6][]float32
	released bool
}

func (t *SoftwareFaceTarget) Size() int {
	return t.size
}

func (t *SoftwareFaceTarget) Release() {
	if t.released {
		return
	}
	t.released = true
	t.faces = [6][]float32{}
}

func (t *SoftwareFaceTarget) owns(framebuffer uint32) bool {
	return framebuffer >= t.baseId && framebuffer < t.baseId+6
}

type SoftwareCubeMap struct {
	target *SoftwareFaceTarget
}

func (c *SoftwareCubeMap) Size() int {
	return c.target.size
}

func (c *SoftwareCubeMap) Levels() int {
	return 1
}

func (c *SoftwareCubeMap) Layers() int {
	return 6
}

// Download drops the alpha channel.
func (c *SoftwareCubeMap) Download() (*IblEnv, error) {
	if c.target.released {
		return nil, errReleased
	}
	size := c.target.size
	data := make([]float32, 6*size*size*3)
	for f, face := range c.target.faces {
		dst := data[f*size*size*3:]
		for i := 0; i < size*size; i++ {
			dst[i*3+0] = face[i*4+0]
			dst[i*3+1] = face[i*4+1]
			dst[i*3+2] = face[i*4+2]
		}
	}
	return NewIblEnv(data, size), nil
}

func (c *SoftwareCubeMap) Release() {
	c.target.Release()
}
