package libscn

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// NewUVSphere builds a unit sphere with rings latitude bands and segments longitude bands.
// The seam column is duplicated so uvs wrap cleanly. Triangles wind counter-clockwise from outside.
func NewUVSphere(name string, rings, segments int) *Mesh {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}

	mesh := &Mesh{
		Name:     name,
		Vertices: make([]Vertex, 0, (rings+1)*(segments+1)),
		Indices:  make([]uint32, 0, rings*segments*6),
	}

	for lat := 0; lat <= rings; lat++ {
		theta := math32.Pi * float32(lat) / float32(rings)
		sinTheta, cosTheta := math32.Sincos(theta)
		for lon := 0; lon <= segments; lon++ {
			phi := 2 * math32.Pi * float32(lon) / float32(segments)
			sinPhi, cosPhi := math32.Sincos(phi)
			p := mgl32.Vec3{sinTheta * cosPhi, cosTheta, sinTheta * sinPhi}
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Position: p,
				Normal:   p,
				Uv:       mgl32.Vec2{float32(lon) / float32(segments), 1 - float32(lat)/float32(rings)},
			})
		}
	}

	stride := uint32(segments + 1)
	for lat := 0; lat < rings; lat++ {
		for lon := 0; lon < segments; lon++ {
			a := uint32(lat)*stride + uint32(lon)
			b := a + stride
			c := a + 1
			d := b + 1
			// the pole rows collapse one triangle of each quad
			if lat != 0 {
				mesh.Indices = append(mesh.Indices, a, c, b)
			}
			if lat != rings-1 {
				mesh.Indices = append(mesh.Indices, c, d, b)
			}
		}
	}

	mesh.ComputeTangents()
	return mesh
}
