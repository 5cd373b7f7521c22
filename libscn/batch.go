package libscn

import (
	"fmt"
	"log/slog"
	"unsafe"

	"pbr-demo/libgl"
	"pbr-demo/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// RenderBatch holds all meshes in shared buffers and draws them with one indirect call per material.
type RenderBatch struct {
	VertexArray        libgl.UnboundVertexArray
	AttributesBuffer   libgl.UnboundBuffer
	VertexBuffer       libgl.UnboundBuffer
	ElementBuffer      libgl.UnboundBuffer
	CommandBuffer      libgl.UnboundBuffer
	TotalCommandRange  [2]int
	Materials          []MaterialSlice
	MaterialIndex      map[string]int
	meshLocations      []MeshLocation
	meshIndex          map[string]int
	attributesPosition int
	vertexPosition     int
	elementPosition    int
	commands           []DrawElementsIndirectCommand
}

type MeshLocation struct {
	BaseVertex int32
	// BaseIndex is the first index in the element buffer, in indices, not bytes
	BaseIndex uint32
	Indices   uint32
}

type MaterialSlice struct {
	Material      *Material
	ElementOffset int
	ElementCount  int
	instances     []MeshInstance
}

// InstanceAttributes is the per instance vertex data, see the layout in NewRenderBatch.
type InstanceAttributes struct {
	ModelMatrix mgl32.Mat4
	Metallic    float32
	Roughness   float32
}

type MeshInstance struct {
	MeshIndex      int
	AttributeIndex int
}

type DrawElementsIndirectCommand struct {
	Count         uint32
	InstanceCount uint32
	FirstIndex    uint32 // The offset for the first index of the mesh in the ebo
	BaseVertex    int32  // The offset for the first vertex of the mesh in the vbo
	BaseInstance  uint32
}

func NewRenderBatch() (batch *RenderBatch, err error) {
	group := &libutil.ReleaseGroup{}
	defer group.ReleaseOnError(&err)

	vertices := libgl.NewBuffer()
	group.Add(vertices)
	vertices.SetDebugLabel("batch vertices")
	vertices.AllocateEmpty(64*1024*VertexSize, gl.DYNAMIC_STORAGE_BIT)

	elements := libgl.NewBuffer()
	group.Add(elements)
	elements.SetDebugLabel("batch elements")
	elements.AllocateEmpty(256*1024*ElementIndexSize, gl.DYNAMIC_STORAGE_BIT)

	attributes := libgl.NewBuffer()
	group.Add(attributes)
	attributes.SetDebugLabel("batch instance attributes")
	attributes.AllocateEmpty(InstanceAttributesSize*256, gl.DYNAMIC_STORAGE_BIT)

	commands := libgl.NewBuffer()
	group.Add(commands)
	commands.SetDebugLabel("batch draw commands")
	commands.AllocateEmpty(DrawCommandSize*256, gl.DYNAMIC_STORAGE_BIT)

	vao := libgl.NewVertexArray()
	group.Add(vao)
	vao.SetDebugLabel("batch")
	vao.Layout(0, 0, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Position)))
	vao.Layout(0, 1, 2, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Uv)))
	vao.Layout(0, 2, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Normal)))
	vao.Layout(0, 3, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Bitangent)))
	vao.Layout(0, 4, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Tangent)))

	vao.Layout(1, 5, 4, gl.FLOAT, false, 0*int(unsafe.Sizeof(mgl32.Vec4{})))
	vao.Layout(1, 6, 4, gl.FLOAT, false, 1*int(unsafe.Sizeof(mgl32.Vec4{})))
	vao.Layout(1, 7, 4, gl.FLOAT, false, 2*int(unsafe.Sizeof(mgl32.Vec4{})))
	vao.Layout(1, 8, 4, gl.FLOAT, false, 3*int(unsafe.Sizeof(mgl32.Vec4{})))
	// metallic, roughness
	vao.Layout(1, 9, 2, gl.FLOAT, false, int(unsafe.Offsetof(InstanceAttributes{}.Metallic)))
	vao.AttribDivisor(1, 1)

	vao.BindBuffer(0, vertices, 0, VertexSize)
	vao.BindBuffer(1, attributes, 0, InstanceAttributesSize)
	vao.BindElementBuffer(elements)

	if err := libgl.CheckError("create render batch"); err != nil {
		return nil, err
	}

	group.Disown()
	return &RenderBatch{
		VertexBuffer:     vertices,
		ElementBuffer:    elements,
		AttributesBuffer: attributes,
		VertexArray:      vao,
		CommandBuffer:    commands,
		Materials:        []MaterialSlice{},
		MaterialIndex:    map[string]int{},
		meshLocations:    []MeshLocation{},
		meshIndex:        map[string]int{},
	}, nil
}

func (batch *RenderBatch) Upload(mesh *Mesh) {
	verticesSize := len(mesh.Vertices) * VertexSize
	if batch.VertexBuffer.Grow(batch.vertexPosition + verticesSize) {
		batch.VertexArray.BindBuffer(0, batch.VertexBuffer, 0, VertexSize)
	}
	batch.VertexBuffer.Write(batch.vertexPosition, mesh.Vertices)
	location := MeshLocation{
		BaseVertex: int32(batch.vertexPosition / VertexSize),
	}
	batch.vertexPosition += verticesSize

	indicesSize := len(mesh.Indices) * ElementIndexSize
	if batch.ElementBuffer.Grow(batch.elementPosition + indicesSize) {
		batch.VertexArray.BindElementBuffer(batch.ElementBuffer)
	}
	batch.ElementBuffer.Write(batch.elementPosition, mesh.Indices)
	location.BaseIndex = uint32(batch.elementPosition / ElementIndexSize)
	location.Indices = uint32(len(mesh.Indices))
	batch.elementPosition += indicesSize

	batch.meshLocations = append(batch.meshLocations, location)
	batch.meshIndex[mesh.Name] = len(batch.meshLocations) - 1
}

func (batch *RenderBatch) AddMaterial(material *Material) {
	slice := MaterialSlice{
		Material:  material,
		instances: []MeshInstance{},
	}
	batch.Materials = append(batch.Materials, slice)
	batch.MaterialIndex[material.Name] = len(batch.Materials) - 1
}

// Add appends an instance. Mesh and material must have been added before.
func (batch *RenderBatch) Add(mesh, material string, attributes InstanceAttributes) error {
	meshIndex, ok := batch.meshIndex[mesh]
	if !ok {
		return fmt.Errorf("mesh %q is not contained in this batch", mesh)
	}
	materialIndex, ok := batch.MaterialIndex[material]
	if !ok {
		return fmt.Errorf("material %q is not contained in this batch", material)
	}

	vbo := batch.AttributesBuffer
	if vbo.Grow(batch.attributesPosition + InstanceAttributesSize) {
		batch.VertexArray.BindBuffer(1, vbo, 0, InstanceAttributesSize)
	}
	vbo.Write(batch.attributesPosition, []InstanceAttributes{attributes})
	mBatch := &batch.Materials[materialIndex]
	mBatch.instances = append(mBatch.instances, MeshInstance{
		MeshIndex:      meshIndex,
		AttributeIndex: batch.attributesPosition / InstanceAttributesSize,
	})

	batch.attributesPosition += InstanceAttributesSize
	return nil
}

// AddEntities adds one instance per entity.
func (batch *RenderBatch) AddEntities(entities []Entity) error {
	for _, e := range entities {
		if err := batch.Add(e.Mesh, e.Material, e.InstanceAttributes()); err != nil {
			return err
		}
	}
	return nil
}

// ClearInstances drops all instances but keeps meshes and materials.
func (batch *RenderBatch) ClearInstances() {
	for i := range batch.Materials {
		batch.Materials[i].instances = batch.Materials[i].instances[:0]
	}
	batch.attributesPosition = 0
}

func (batch *RenderBatch) ByMaterial(material string) *MaterialSlice {
	return &batch.Materials[batch.MaterialIndex[material]]
}

func (batch *RenderBatch) GenerateDrawCommands() {
	batch.commands = generateDrawCommands(batch.commands[:0], batch.Materials, batch.meshLocations)

	if len(batch.commands) == 0 {
		batch.TotalCommandRange = [2]int{}
		return
	}
	if batch.CommandBuffer.Grow(len(batch.commands) * DrawCommandSize) {
		slog.Debug("grew draw command buffer", "commands", len(batch.commands))
	}
	batch.CommandBuffer.Write(0, batch.commands)
	batch.TotalCommandRange = [2]int{0, len(batch.commands)}
}

// generateDrawCommands appends one command per instance, grouped by material.
// Each material slice records the byte offset and count of its commands.
func generateDrawCommands(commands []DrawElementsIndirectCommand, materials []MaterialSlice, locations []MeshLocation) []DrawElementsIndirectCommand {
	for i := range materials {
		slice := &materials[i]
		slice.ElementOffset = len(commands) * DrawCommandSize
		slice.ElementCount = len(slice.instances)
		for _, instance := range slice.instances {
			loc := locations[instance.MeshIndex]
			commands = append(commands, DrawElementsIndirectCommand{
				Count:         loc.Indices,
				InstanceCount: 1,
				FirstIndex:    loc.BaseIndex,
				BaseVertex:    loc.BaseVertex,
				BaseInstance:  uint32(instance.AttributeIndex),
			})
		}
	}
	return commands
}

// Bind prepares the vertex array and the indirect buffer for DrawMaterial.
func (batch *RenderBatch) Bind() {
	batch.VertexArray.Bind()
	batch.CommandBuffer.Bind(gl.DRAW_INDIRECT_BUFFER)
}

func (batch *RenderBatch) DrawMaterial(slice *MaterialSlice) {
	if slice.ElementCount == 0 {
		return
	}
	gl.MultiDrawElementsIndirect(gl.TRIANGLES, gl.UNSIGNED_INT, gl.PtrOffset(slice.ElementOffset), int32(slice.ElementCount), 0)
}

func (batch *RenderBatch) Delete() {
	batch.VertexArray.Delete()
	batch.VertexBuffer.Delete()
	batch.ElementBuffer.Delete()
	batch.AttributesBuffer.Delete()
	batch.CommandBuffer.Delete()
}
