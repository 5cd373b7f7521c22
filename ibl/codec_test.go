package ibl_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"pbr-demo/ibl"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertRgbeClose allows the error of an 8 bit mantissa relative to the brightest channel.
func assertRgbeClose(t *testing.T, expected, actual []float32, components int) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := 0; i < len(expected); i += components {
		max := math32.Max(expected[i], math32.Max(expected[i+1], expected[i+2]))
		for c := 0; c < 3; c++ {
			require.InDelta(t, expected[i+c], actual[i+c], float64(max/128)+1e-6, "texel %d channel %d", i/components, c)
		}
	}
}

func TestRgbeChunkRoundTrip(t *testing.T) {
	data := randomFloats(3*1024, 0, 100)
	buf := make([]byte, 1024*4)
	n := ibl.EncodeRgbeChunk(3, data, buf)
	require.Equal(t, len(buf), n)

	result := make([]float32, len(data))
	n = ibl.DecodeRgbeChunk(3, buf, result)
	require.Equal(t, len(data), n)
	assertRgbeClose(t, data, result, 3)
}

func TestRgbeChunkAlpha(t *testing.T) {
	data := []float32{1, 0.5, 0.25, 0.1, 8, 4, 2, 0.9}
	buf := make([]byte, 8)
	ibl.EncodeRgbeChunk(4, data, buf)

	result := make([]float32, 8)
	ibl.DecodeRgbeChunk(4, buf, result)
	assertRgbeClose(t, data, result, 4)
	assert.Equal(t, float32(1), result[3])
	assert.Equal(t, float32(1), result[7])
}

func TestRgbeChunkTinyValuesAreZero(t *testing.T) {
	buf := []byte{9, 9, 9, 9}
	ibl.EncodeRgbeChunk(3, []float32{1e-33, 0, -1}, buf)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)

	result := []float32{5, 5, 5}
	ibl.DecodeRgbeChunk(3, buf, result)
	assert.Equal(t, []float32{0, 0, 0}, result)
}

func TestRgbeExactValues(t *testing.T) {
	buf := make([]byte, 4)
	ibl.EncodeRgbeChunk(3, []float32{1, 0.5, 0}, buf)
	// 1 = 0.5 * 2^1
	assert.Equal(t, []byte{128, 64, 0, 129}, buf)

	result := make([]float32, 3)
	ibl.DecodeRgbeChunk(3, buf, result)
	assert.Equal(t, []float32{1, 0.5, 0}, result)
}

// The streaming codec works in chunks, so the input spans several of them.
func TestRgbeStreamMatchesBytes(t *testing.T) {
	for _, hasAlpha := range []bool{false, true} {
		components := 3
		if hasAlpha {
			components = 4
		}
		data := randomFloats(components*10_000, 0, 10)

		buf := &bytes.Buffer{}
		require.NoError(t, ibl.EncodeRgbe(buf, data, hasAlpha))
		encoded, err := ibl.EncodeRgbeBytes(data, hasAlpha)
		require.NoError(t, err)
		require.Equal(t, encoded, buf.Bytes())

		streamed, err := ibl.DecodeRgbe(bytes.NewReader(encoded), hasAlpha)
		require.NoError(t, err)
		decoded, err := ibl.DecodeRgbeBytes(encoded, hasAlpha)
		require.NoError(t, err)
		assert.Equal(t, decoded, streamed)
		assertRgbeClose(t, data, decoded, components)
	}
}

func TestRgbeRejectsPartialTexels(t *testing.T) {
	_, err := ibl.EncodeRgbeBytes(make([]float32, 4), false)
	assert.Error(t, err)
	assert.Error(t, ibl.EncodeRgbe(&bytes.Buffer{}, make([]float32, 5), true))

	_, err = ibl.DecodeRgbeBytes(make([]byte, 6), false)
	assert.Error(t, err)
	_, err = ibl.DecodeRgbe(bytes.NewReader(make([]byte, 6)), false)
	assert.Error(t, err)
}

func TestIblEnvRoundTrip(t *testing.T) {
	const size = 16
	src := ibl.NewIblEnv(randomFloats(6*size*size*3, 0, 50), size)

	tests := []struct {
		name        string
		option      ibl.EncodeOption
		compression ibl.IblEnvCompression
	}{
		{"none", ibl.OptCompress(-1), ibl.IblEnvCompressionNone},
		{"fast", ibl.OptCompress(0), ibl.IblEnvCompressionLZ4Fast},
		{"level 1", ibl.OptCompress(1), ibl.IblEnvCompressionLZ4},
		{"level 20", ibl.OptCompress(20), ibl.IblEnvCompressionLZ4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, ibl.EncodeIblEnv(buf, src, tt.option))

			header := ibl.IblEnvHeader{}
			require.NoError(t, binary.Read(bytes.NewReader(buf.Bytes()), binary.LittleEndian, &header))
			assert.Equal(t, uint32(ibl.MagicNumberIBLENV), header.Check)
			assert.Equal(t, ibl.IblEnvVersion1_001_000, header.Version)
			assert.Equal(t, tt.compression, header.Compression)
			assert.Equal(t, uint32(size), header.Size)

			env, err := ibl.DecodeIblEnvBytes(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, size, env.Size)
			assertRgbeClose(t, src.Concat(), env.Concat(), 3)
		})
	}
}

func TestOptCompressTwice(t *testing.T) {
	err := ibl.EncodeIblEnv(&bytes.Buffer{}, uniformEnv(1, 1), ibl.OptCompress(0), ibl.OptCompress(1))
	assert.Error(t, err)
}

func encodeHeader(t *testing.T, header ibl.IblEnvHeader, payload []byte) []byte {
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, header))
	buf.Write(payload)
	return buf.Bytes()
}

func TestDecodeIblEnvRejectsBadHeaders(t *testing.T) {
	valid := ibl.IblEnvHeader{
		Check:       ibl.MagicNumberIBLENV,
		Version:     ibl.IblEnvVersion1_001_000,
		Compression: ibl.IblEnvCompressionNone,
		Size:        1,
	}
	payload := make([]byte, 6*4)

	_, err := ibl.DecodeIblEnvBytes(encodeHeader(t, valid, payload))
	require.NoError(t, err)

	badMagic := valid
	badMagic.Check = 0xdeadbeef
	_, err = ibl.DecodeIblEnvBytes(encodeHeader(t, badMagic, payload))
	assert.ErrorIs(t, err, ibl.ErrCorruptHeader)

	badVersion := valid
	badVersion.Version = 1_000_000
	_, err = ibl.DecodeIblEnvBytes(encodeHeader(t, badVersion, payload))
	assert.ErrorIs(t, err, ibl.ErrUnsupportedVersion)

	badCompression := valid
	badCompression.Compression = 7
	_, err = ibl.DecodeIblEnvBytes(encodeHeader(t, badCompression, payload))
	assert.ErrorIs(t, err, ibl.ErrUnsupportedCompression)

	badSize := valid
	badSize.Size = 0
	_, err = ibl.DecodeIblEnvBytes(encodeHeader(t, badSize, payload))
	assert.ErrorIs(t, err, ibl.ErrCorruptHeader)

	badSize.Size = 1 << 20
	_, err = ibl.DecodeIblEnvBytes(encodeHeader(t, badSize, payload))
	assert.ErrorIs(t, err, ibl.ErrCorruptHeader)
}

func TestDecodeIblEnvTruncated(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, ibl.EncodeIblEnv(buf, uniformEnv(4, 1)))

	_, err := ibl.DecodeIblEnvBytes(buf.Bytes()[:buf.Len()-5])
	assert.Error(t, err)

	_, err = ibl.DecodeIblEnvBytes(buf.Bytes()[:6])
	assert.Error(t, err)
}

func TestIblEnv(t *testing.T) {
	assert.Panics(t, func() { ibl.NewIblEnv(make([]float32, 10), 2) })

	env := ibl.NewIblEnv(randomFloats(6*2*2*3, 0, 1), 2)
	clone := env.Clone()
	assert.Equal(t, env.Concat(), clone.Concat())
	clone.Faces[ibl.CubeMapNegativeY][0] = 42
	assert.NotEqual(t, float32(42), env.Faces[ibl.CubeMapNegativeY][0])
	assert.Equal(t, float32(42), clone.Concat()[3*2*2*3])

	r, g, b := env.Texel(ibl.CubeMapPositiveZ, 1, 0)
	face := env.Face(ibl.CubeMapPositiveZ)
	assert.Equal(t, []float32{face[3], face[4], face[5]}, []float32{r, g, b})
}
