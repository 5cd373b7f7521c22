package ibl

import "github.com/go-gl/mathgl/mgl32"

// NewUnitCube returns the 36 positions of a cube spanning [-1, 1] as a non-indexed triangle list.
// Triangles wind counter-clockwise when seen from outside.
func NewUnitCube() []mgl32.Vec3 {
	faces := [6][3]mgl32.Vec3{
		// normal, u, v with u x v = normal
		{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	}
	corners := [6][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]mgl32.Vec3, 0, 36)
	for _, f := range faces {
		n, u, v := f[0], f[1], f[2]
		for _, c := range corners {
			vertices = append(vertices, n.Add(u.Mul(c[0])).Add(v.Mul(c[1])))
		}
	}
	return vertices
}
