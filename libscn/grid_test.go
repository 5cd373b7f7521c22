package libscn_test

import (
	"testing"

	"pbr-demo/libscn"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSphereGridPositions(t *testing.T) {
	entities := libscn.DefaultSphereGrid().Entities()
	require.Len(t, entities, 5)

	xs := []float32{6, 3, 0, -3, -6}
	for i, e := range entities {
		assert.InDelta(t, xs[i], e.Transform.Position.X(), 1e-5)
		assert.InDelta(t, -2, e.Transform.Position.Y(), 1e-5)
		assert.InDelta(t, 0, e.Transform.Position.Z(), 1e-5)
		assert.Equal(t, mgl32.Vec3{2, 2, 2}, e.Transform.Scale)
		assert.Equal(t, "sphere", e.Mesh)
		assert.Equal(t, "sphere", e.Material)
	}
}

func TestSphereGridParameterRanges(t *testing.T) {
	grid := libscn.DefaultSphereGrid()
	grid.Rows = 3
	grid.MetallicRange = [2]float32{1, 0}
	grid.RoughnessRange = [2]float32{0, 1}

	entities := grid.Entities()
	require.Len(t, entities, 15)

	// rows are centred on the origin
	assert.InDelta(t, 1, entities[0].Transform.Position.Y(), 1e-5)
	assert.InDelta(t, -2, entities[5].Transform.Position.Y(), 1e-5)
	assert.InDelta(t, -5, entities[10].Transform.Position.Y(), 1e-5)

	assert.InDelta(t, 1, entities[0].Metallic, 1e-5)
	assert.InDelta(t, 0.5, entities[5].Metallic, 1e-5)
	assert.InDelta(t, 0, entities[10].Metallic, 1e-5)

	// roughness is clamped to the minimum
	assert.InDelta(t, libscn.MinRoughness, entities[0].Roughness, 1e-5)
	assert.InDelta(t, 0.5, entities[2].Roughness, 1e-5)
	assert.InDelta(t, 1, entities[4].Roughness, 1e-5)
}

func TestSphereGridSingleColumn(t *testing.T) {
	grid := libscn.DefaultSphereGrid()
	grid.Columns = 1

	entities := grid.Entities()
	require.Len(t, entities, 1)
	assert.InDelta(t, 0, entities[0].Transform.Position.X(), 1e-5)
	assert.InDelta(t, grid.RoughnessRange[0], entities[0].Roughness, 1e-5)
}

func TestEmptySphereGrid(t *testing.T) {
	grid := libscn.DefaultSphereGrid()
	grid.Rows = 0
	assert.Empty(t, grid.Entities())
}

func TestTransformMatrix(t *testing.T) {
	tr := libscn.NewTransform(mgl32.Vec3{1, 2, 3}, 2)
	tr.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})

	p := tr.Matrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	// scaled to 2, rotated onto -Z, then translated
	assert.InDelta(t, 1, p.X(), 1e-5)
	assert.InDelta(t, 2, p.Y(), 1e-5)
	assert.InDelta(t, 1, p.Z(), 1e-5)
}

func TestEntityInstanceAttributes(t *testing.T) {
	e := libscn.Entity{
		Transform: libscn.NewTransform(mgl32.Vec3{4, 0, 0}, 1),
		Metallic:  0.25,
		Roughness: 0.75,
	}
	attr := e.InstanceAttributes()
	assert.Equal(t, mgl32.Translate3D(4, 0, 0), attr.ModelMatrix)
	assert.Equal(t, float32(0.25), attr.Metallic)
	assert.Equal(t, float32(0.75), attr.Roughness)
}
