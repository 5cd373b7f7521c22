package libscn_test

import (
	"testing"

	"pbr-demo/libscn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUVSphereShape(t *testing.T) {
	mesh := libscn.NewUVSphere("sphere", 8, 16)
	assert.Equal(t, "sphere", mesh.Name)
	assert.Len(t, mesh.Vertices, 9*17)
	// two triangles per quad, minus one per quad on each pole row
	assert.Len(t, mesh.Indices, (8*16*2-2*16)*3)

	for _, v := range mesh.Vertices {
		assert.InDelta(t, 1, v.Position.Len(), 1e-5)
		assert.Equal(t, v.Position, v.Normal)
	}
}

func TestUVSphereWindsOutwards(t *testing.T) {
	mesh := libscn.NewUVSphere("sphere", 6, 12)
	for i := 0; i < len(mesh.Indices); i += 3 {
		a := mesh.Vertices[mesh.Indices[i]].Position
		b := mesh.Vertices[mesh.Indices[i+1]].Position
		c := mesh.Vertices[mesh.Indices[i+2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		require.Greater(t, n.Len(), float32(0), "triangle %d is degenerate", i/3)
		centroid := a.Add(b).Add(c)
		assert.Greater(t, n.Dot(centroid), float32(0), "triangle %d faces inwards", i/3)
	}
}

func TestUVSphereClampsResolution(t *testing.T) {
	mesh := libscn.NewUVSphere("tiny", 0, 0)
	assert.Len(t, mesh.Vertices, 3*4)
	assert.NotEmpty(t, mesh.Indices)
}
