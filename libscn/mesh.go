package libscn

import (
	"fmt"
	"io"
	"unsafe"

	"pbr-demo/libio"

	"github.com/go-gl/mathgl/mgl32"
)

const MagicNumberGEO = 0xc9dae18c

type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
}

type Vertex struct {
	Position  mgl32.Vec3
	Uv        mgl32.Vec2
	Normal    mgl32.Vec3
	Bitangent mgl32.Vec3
	Tangent   mgl32.Vec3
}

const ElementIndexSize = int(unsafe.Sizeof(uint32(0)))
const InstanceAttributesSize = int(unsafe.Sizeof(InstanceAttributes{}))
const VertexSize = int(unsafe.Sizeof(Vertex{}))
const DrawCommandSize = int(unsafe.Sizeof(DrawElementsIndirectCommand{}))

type GeoHeader struct {
	Check       uint32
	NameLength  uint32
	VertexCount uint32
	IndexCount  uint32
}

// GeoVertex is the vertex layout of .geo files, tangents are derived on load.
type GeoVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Uv       mgl32.Vec2
}

// DecodeMesh reads the .geo format: a header, the name, the vertices and then the indices.
// Fewer than 0xffff indices are stored as uint16, padded to 4 bytes.
func DecodeMesh(r io.Reader) (mesh *Mesh, err error) {
	var br *libio.BinaryReader
	var ok bool

	if br, ok = r.(*libio.BinaryReader); !ok {
		br = libio.NewBinaryReader(r)

		defer func() {
			if br.Err != nil {
				if err == nil {
					err = br.Err
				} else {
					err = fmt.Errorf("%v: %w", err, br.Err)
				}
			}
		}()
	}

	header := GeoHeader{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected mesh header; byte 0x%08x", br.LastIndex)
	}

	if header.Check != MagicNumberGEO {
		return nil, fmt.Errorf("mesh header is corrupt; byte 0x%08x", br.LastIndex)
	}

	name := make([]byte, header.NameLength)
	if !br.ReadRef(&name) {
		return nil, fmt.Errorf("expected %d bytes for object name; byte 0x%08x", header.NameLength, br.LastIndex)
	}

	fileVertices := make([]GeoVertex, header.VertexCount)
	if !br.ReadRef(&fileVertices) {
		return nil, fmt.Errorf("expected %d mesh vertices; name %q, byte 0x%08x", header.VertexCount, name, br.LastIndex)
	}

	indices := make([]uint32, header.IndexCount)
	if header.IndexCount < 0xffff {
		shorts := make([]uint16, header.IndexCount)
		if !br.ReadRef(&shorts) {
			return nil, fmt.Errorf("expected %d mesh indices; name %q, byte 0x%08x", header.IndexCount, name, br.LastIndex)
		}
		if header.IndexCount%2 == 1 && !br.ReadBytes(2) {
			return nil, fmt.Errorf("expected index padding; name %q, byte 0x%08x", name, br.LastIndex)
		}
		for i, v := range shorts {
			indices[i] = uint32(v)
		}
	} else if !br.ReadRef(&indices) {
		return nil, fmt.Errorf("expected %d mesh indices; name %q, byte 0x%08x", header.IndexCount, name, br.LastIndex)
	}

	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("mesh %q has %d indices, not a triangle list", name, len(indices))
	}

	vertices := make([]Vertex, len(fileVertices))
	for i, v := range fileVertices {
		vertices[i] = Vertex{
			Position: v.Position,
			Uv:       v.Uv,
			Normal:   v.Normal,
		}
	}
	for _, i := range indices {
		if int(i) >= len(vertices) {
			return nil, fmt.Errorf("mesh %q index %d out of range", name, i)
		}
	}

	mesh = &Mesh{
		Name:     string(name),
		Vertices: vertices,
		Indices:  indices,
	}
	mesh.ComputeTangents()
	return mesh, nil
}

// ComputeTangents accumulates the tangent and bitangent of every triangle on its vertices
// and normalizes the sums.
func (mesh *Mesh) ComputeTangents() {
	vertices := mesh.Vertices
	for i := range vertices {
		vertices[i].Tangent = mgl32.Vec3{}
		vertices[i].Bitangent = mgl32.Vec3{}
	}

	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		i0, i1, i2 := mesh.Indices[i+0], mesh.Indices[i+1], mesh.Indices[i+2]
		v0, v1, v2 := vertices[i0], vertices[i1], vertices[i2]

		dPos01, dPos02 := v1.Position.Sub(v0.Position), v2.Position.Sub(v0.Position)
		dUV01, dUV02 := v1.Uv.Sub(v0.Uv), v2.Uv.Sub(v0.Uv)

		det := dUV01[0]*dUV02[1] - dUV02[0]*dUV01[1]
		if det == 0 {
			// degenerate uvs
			continue
		}
		f := 1 / det

		tan := dPos01.Mul(dUV02[1]).Sub(dPos02.Mul(dUV01[1])).Mul(f)
		bitan := dPos02.Mul(dUV01[0]).Sub(dPos01.Mul(dUV02[0])).Mul(f)

		for _, vi := range [3]uint32{i0, i1, i2} {
			vertices[vi].Tangent = vertices[vi].Tangent.Add(tan)
			vertices[vi].Bitangent = vertices[vi].Bitangent.Add(bitan)
		}
	}

	for i := range vertices {
		if vertices[i].Tangent.Len() > 0 {
			vertices[i].Tangent = vertices[i].Tangent.Normalize()
		}
		if vertices[i].Bitangent.Len() > 0 {
			vertices[i].Bitangent = vertices[i].Bitangent.Normalize()
		}
	}
}
