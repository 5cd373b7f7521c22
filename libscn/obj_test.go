package libscn_test

import (
	"strings"
	"testing"

	"pbr-demo/libscn"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadObj = `# unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl none
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestDecodeObjTriangulatesQuads(t *testing.T) {
	mesh, err := libscn.DecodeObj(strings.NewReader(quadObj), "quad")
	require.NoError(t, err)

	assert.Equal(t, "quad", mesh.Name)
	assert.Len(t, mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)

	for _, v := range mesh.Vertices {
		assert.Equal(t, mgl32.Vec3{0, 0, 1}, v.Normal)
		assert.InDelta(t, 1, v.Tangent.X(), 1e-5)
		assert.InDelta(t, 1, v.Bitangent.Y(), 1e-5)
	}
	assert.Equal(t, mgl32.Vec2{1, 1}, mesh.Vertices[2].Uv)
}

func TestDecodeObjNegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	mesh, err := libscn.DecodeObj(strings.NewReader(src), "tri")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, mesh.Vertices[1].Position)
}

func TestDecodeObjSharesCorners(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1 2 3
f 3 2 4
`
	mesh, err := libscn.DecodeObj(strings.NewReader(src), "pair")
	require.NoError(t, err)
	assert.Len(t, mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, mesh.Indices)
}

func TestDecodeObjComputesNormals(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	mesh, err := libscn.DecodeObj(strings.NewReader(src), "tri")
	require.NoError(t, err)
	for _, v := range mesh.Vertices {
		assert.InDelta(t, 1, v.Normal.Z(), 1e-5)
	}
}

func TestDecodeObjErrors(t *testing.T) {
	cases := map[string]string{
		"no faces":       "v 0 0 0\n",
		"index zero":     "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n",
		"out of range":   "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
		"bad uv":         "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/1 3/1\n",
		"short vertex":   "v 0 0\n",
		"bad float":      "v 0 x 0\n",
		"two corners":    "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"not an integer": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf a 2 3\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := libscn.DecodeObj(strings.NewReader(src), name)
			assert.Error(t, err)
		})
	}
}
