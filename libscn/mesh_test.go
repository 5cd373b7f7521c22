package libscn_test

import (
	"bytes"
	"testing"

	"pbr-demo/libio"
	"pbr-demo/libscn"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeGeo(t *testing.T, name string, vertices []libscn.GeoVertex, indices []uint32, wide bool) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	bw := libio.NewBinaryWriter(buf)
	bw.WriteRef(libscn.GeoHeader{
		Check:       libscn.MagicNumberGEO,
		NameLength:  uint32(len(name)),
		VertexCount: uint32(len(vertices)),
		IndexCount:  uint32(len(indices)),
	})
	bw.WriteBytes([]byte(name))
	bw.WriteRef(vertices)
	if wide {
		bw.WriteRef(indices)
	} else {
		shorts := make([]uint16, len(indices))
		for i, v := range indices {
			shorts[i] = uint16(v)
		}
		bw.WriteRef(shorts)
		if len(shorts)%2 == 1 {
			bw.WriteBytes([]byte{0, 0})
		}
	}
	require.NoError(t, bw.Err)
	return buf.Bytes()
}

var triangleVertices = []libscn.GeoVertex{
	{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Uv: mgl32.Vec2{0, 0}},
	{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, Uv: mgl32.Vec2{1, 0}},
	{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, Uv: mgl32.Vec2{0, 1}},
}

func TestDecodeMeshShortIndices(t *testing.T) {
	data := encodeGeo(t, "tri", triangleVertices, []uint32{0, 1, 2}, false)

	mesh, err := libscn.DecodeMesh(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "tri", mesh.Name)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	require.Len(t, mesh.Vertices, 3)
	assert.Equal(t, mgl32.Vec2{1, 0}, mesh.Vertices[1].Uv)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, mesh.Vertices[2].Normal)
	assert.InDelta(t, 1, mesh.Vertices[0].Tangent.X(), 1e-5)
	assert.InDelta(t, 1, mesh.Vertices[0].Bitangent.Y(), 1e-5)
}

func TestDecodeMeshWideIndices(t *testing.T) {
	indices := make([]uint32, 0xffff)
	for i := range indices {
		indices[i] = uint32(i % 3)
	}
	data := encodeGeo(t, "many", triangleVertices, indices, true)

	mesh, err := libscn.DecodeMesh(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, mesh.Indices, 0xffff)
	assert.Equal(t, uint32(2), mesh.Indices[0xfffe])
}

func TestDecodeMeshRejectsCorruptInput(t *testing.T) {
	valid := encodeGeo(t, "tri", triangleVertices, []uint32{0, 1, 2}, false)

	badMagic := bytes.Clone(valid)
	badMagic[0] ^= 0xff
	_, err := libscn.DecodeMesh(bytes.NewReader(badMagic))
	assert.ErrorContains(t, err, "corrupt")

	_, err = libscn.DecodeMesh(bytes.NewReader(valid[:len(valid)-3]))
	assert.Error(t, err)

	_, err = libscn.DecodeMesh(bytes.NewReader(nil))
	assert.Error(t, err)

	outOfRange := encodeGeo(t, "tri", triangleVertices, []uint32{0, 1, 3}, false)
	_, err = libscn.DecodeMesh(bytes.NewReader(outOfRange))
	assert.ErrorContains(t, err, "out of range")

	notTriangles := encodeGeo(t, "line", triangleVertices, []uint32{0, 1}, false)
	_, err = libscn.DecodeMesh(bytes.NewReader(notTriangles))
	assert.ErrorContains(t, err, "triangle list")
}

func TestComputeTangentsSkipsDegenerateUvs(t *testing.T) {
	mesh := &libscn.Mesh{
		Vertices: []libscn.Vertex{
			{Position: mgl32.Vec3{0, 0, 0}},
			{Position: mgl32.Vec3{1, 0, 0}},
			{Position: mgl32.Vec3{0, 1, 0}},
		},
		Indices: []uint32{0, 1, 2},
	}
	mesh.ComputeTangents()
	for _, v := range mesh.Vertices {
		assert.Equal(t, mgl32.Vec3{}, v.Tangent)
		assert.Equal(t, mgl32.Vec3{}, v.Bitangent)
	}
}
