package libscn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateDrawCommandsGroupsByMaterial(t *testing.T) {
	locations := []MeshLocation{
		{BaseVertex: 0, BaseIndex: 0, Indices: 36},
		{BaseVertex: 24, BaseIndex: 36, Indices: 960},
	}
	materials := []MaterialSlice{
		{instances: []MeshInstance{{MeshIndex: 1, AttributeIndex: 0}, {MeshIndex: 0, AttributeIndex: 2}}},
		{instances: []MeshInstance{}},
		{instances: []MeshInstance{{MeshIndex: 1, AttributeIndex: 1}}},
	}

	commands := generateDrawCommands(nil, materials, locations)

	assert.Equal(t, []DrawElementsIndirectCommand{
		{Count: 960, InstanceCount: 1, FirstIndex: 36, BaseVertex: 24, BaseInstance: 0},
		{Count: 36, InstanceCount: 1, FirstIndex: 0, BaseVertex: 0, BaseInstance: 2},
		{Count: 960, InstanceCount: 1, FirstIndex: 36, BaseVertex: 24, BaseInstance: 1},
	}, commands)

	assert.Equal(t, 0, materials[0].ElementOffset)
	assert.Equal(t, 2, materials[0].ElementCount)
	assert.Equal(t, 2*DrawCommandSize, materials[1].ElementOffset)
	assert.Equal(t, 0, materials[1].ElementCount)
	assert.Equal(t, 2*DrawCommandSize, materials[2].ElementOffset)
	assert.Equal(t, 1, materials[2].ElementCount)
}

func TestGenerateDrawCommandsReusesSlice(t *testing.T) {
	locations := []MeshLocation{{Indices: 3}}
	materials := []MaterialSlice{{instances: []MeshInstance{{}}}}

	first := generateDrawCommands(nil, materials, locations)
	second := generateDrawCommands(first[:0], materials, locations)
	assert.Same(t, &first[0], &second[0])
	assert.Len(t, second, 1)
}

func TestLayoutSizes(t *testing.T) {
	assert.Equal(t, 4, ElementIndexSize)
	assert.Equal(t, 20, DrawCommandSize)
	assert.Equal(t, 14*4, VertexSize)
	assert.Equal(t, 18*4, InstanceAttributesSize)
}
