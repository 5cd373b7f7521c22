package libscn

import (
	"pbr-demo/libutil"

	"github.com/go-gl/mathgl/mgl32"
)

// MinRoughness keeps the specular lobe from collapsing to a point.
const MinRoughness = 0.05

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform(position mgl32.Vec3, scale float32) Transform {
	return Transform{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{scale, scale, scale},
	}
}

// Matrix is translation * rotation * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	translation := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	scale := mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	return translation.Mul4(t.Rotation.Normalize().Mat4()).Mul4(scale)
}

// Entity places a mesh with a material. Mesh and material are names in a RenderBatch, the entity does not own them.
type Entity struct {
	Transform Transform
	Mesh      string
	Material  string
	Metallic  float32
	Roughness float32
}

func (e Entity) WorldMatrix() mgl32.Mat4 {
	return e.Transform.Matrix()
}

func (e Entity) InstanceAttributes() InstanceAttributes {
	return InstanceAttributes{
		ModelMatrix: e.WorldMatrix(),
		Metallic:    e.Metallic,
		Roughness:   e.Roughness,
	}
}

// SphereGrid lays out spheres in rows and columns facing -Z.
// Metallic varies over the rows and roughness over the columns.
type SphereGrid struct {
	Rows           int
	Columns        int
	Spacing        float32
	Scale          float32
	Origin         mgl32.Vec3
	MetallicRange  [2]float32
	RoughnessRange [2]float32
	Mesh           string
	Material       string
}

func DefaultSphereGrid() SphereGrid {
	return SphereGrid{
		Rows:           1,
		Columns:        5,
		Spacing:        3,
		Scale:          2,
		Origin:         mgl32.Vec3{0, -2, 0},
		MetallicRange:  [2]float32{0.9, 0.1},
		RoughnessRange: [2]float32{MinRoughness, 1},
		Mesh:           "sphere",
		Material:       "sphere",
	}
}

// Entities returns Rows*Columns entities, row by row. Columns run right to left from the camera's view.
func (g SphereGrid) Entities() []Entity {
	if g.Rows <= 0 || g.Columns <= 0 {
		return nil
	}

	entities := make([]Entity, 0, g.Rows*g.Columns)
	halfWidth := float32(g.Columns-1) / 2 * g.Spacing
	halfHeight := float32(g.Rows-1) / 2 * g.Spacing

	for row := 0; row < g.Rows; row++ {
		metallic := libutil.Lerp(g.MetallicRange[0], g.MetallicRange[1], gridFraction(row, g.Rows))
		y := g.Origin[1] + halfHeight - float32(row)*g.Spacing
		for col := 0; col < g.Columns; col++ {
			roughness := libutil.Lerp(g.RoughnessRange[0], g.RoughnessRange[1], gridFraction(col, g.Columns))
			x := g.Origin[0] + halfWidth - float32(col)*g.Spacing
			entities = append(entities, Entity{
				Transform: NewTransform(mgl32.Vec3{x, y, g.Origin[2]}, g.Scale),
				Mesh:      g.Mesh,
				Material:  g.Material,
				Metallic:  libutil.Clamp(metallic, 0, 1),
				Roughness: libutil.Clamp(roughness, MinRoughness, 1),
			})
		}
	}
	return entities
}

func gridFraction(i, n int) float32 {
	if n <= 1 {
		return 0
	}
	return float32(i) / float32(n-1)
}
