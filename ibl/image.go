package ibl

import "fmt"

const MagicNumberIBLENV = 0x78b85411

type CubeMapFace int

const (
	CubeMapPositiveX = CubeMapFace(iota)
	CubeMapNegativeX
	CubeMapPositiveY
	CubeMapNegativeY
	CubeMapPositiveZ
	CubeMapNegativeZ
)

var cubeMapFaceNames = [6]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}

func (f CubeMapFace) String() string {
	if f < 0 || int(f) >= len(cubeMapFaceNames) {
		return fmt.Sprintf("CubeMapFace(%d)", int(f))
	}
	return cubeMapFaceNames[f]
}

type IblEnvVersion uint32

const (
	IblEnvVersion1_001_000 = IblEnvVersion(1_001_000)
)

type IblEnvCompression uint32

const (
	IblEnvCompressionNone = IblEnvCompression(iota)
	IblEnvCompressionLZ4Fast
	IblEnvCompressionLZ4
)

type IblEnvHeader struct {
	Check       uint32
	Version     IblEnvVersion
	Compression IblEnvCompression
	Size        uint32
}

// IblEnv is a single level RGB float cube map.
// Each face is row major and row 0 is t = 0 of the cube map lookup.
type IblEnv struct {
	Faces [6][]float32
	Size  int
	data  []float32
}

// NewIblEnv wraps data, which must hold 6*size*size RGB texels in face order.
func NewIblEnv(data []float32, size int) *IblEnv {
	o := size * size * 3
	if len(data) < 6*o {
		panic(fmt.Errorf("ibl env of size %d needs %d floats, got %d", size, 6*o, len(data)))
	}

	env := &IblEnv{
		Size: size,
		data: data[: 6*o : 6*o],
	}
	for i := range env.Faces {
		env.Faces[i] = data[i*o : (i+1)*o : (i+1)*o]
	}
	return env
}

// Concat returns all faces as one contiguous slice. It aliases the faces.
func (env *IblEnv) Concat() []float32 {
	return env.data
}

func (env *IblEnv) Face(face CubeMapFace) []float32 {
	return env.Faces[face]
}

func (env *IblEnv) Clone() *IblEnv {
	data := make([]float32, len(env.data))
	copy(data, env.data)
	return NewIblEnv(data, env.Size)
}

// Sample looks up dir with the GL cube map rule and filters bilinearly inside the face.
func (env *IblEnv) Sample(x, y, z float32) (r, g, b float32) {
	face, u, v := sampleCubeMap(x, y, z)
	return sampleBilinear(env.Size, env.Size, 3, env.Faces[face], u, v)
}

// Texel returns the texel at column u, row v of a face.
func (env *IblEnv) Texel(face CubeMapFace, u, v int) (r, g, b float32) {
	i := (v*env.Size + u) * 3
	f := env.Faces[face]
	return f[i], f[i+1], f[i+2]
}
