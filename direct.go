package main

import (
	"pbr-demo/libgl"
	"pbr-demo/libutil"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// 3 floats position + 3 floats color + 3 floats normal
const directVertexSize = (3 + 3 + 3) * 4

// DirectBuffer collects immediate mode triangles and draws them in one call, used for the light gizmos.
type DirectBuffer struct {
	vao       libgl.UnboundVertexArray
	vbo       libgl.UnboundBuffer
	shader    libgl.UnboundShaderPipeline
	data      []float32
	color     mgl32.Vec3
	shaded    bool
	autoShade bool
	normal    mgl32.Vec3
}

func NewDirectBuffer(shader libgl.UnboundShaderPipeline) (db *DirectBuffer, err error) {
	group := &libutil.ReleaseGroup{}
	defer group.ReleaseOnError(&err)

	vao := libgl.NewVertexArray()
	group.Add(vao)
	vao.SetDebugLabel("direct")
	vao.Layout(0, 0, 3, gl.FLOAT, false, 0)
	vao.Layout(0, 1, 3, gl.FLOAT, false, 3*4)
	vao.Layout(0, 2, 3, gl.FLOAT, false, 6*4)
	vbo := libgl.NewBuffer()
	group.Add(vbo)
	vbo.SetDebugLabel("direct")
	vbo.AllocateEmpty(64*1024, gl.DYNAMIC_STORAGE_BIT)
	vao.BindBuffer(0, vbo, 0, directVertexSize)

	if err := libgl.CheckError("create direct buffer"); err != nil {
		return nil, err
	}

	group.Disown()
	return &DirectBuffer{
		vao:    vao,
		vbo:    vbo,
		shader: shader,
		data:   []float32{},
		color:  mgl32.Vec3{1, 1, 1},
	}, nil
}

func (db *DirectBuffer) Shaded() {
	db.shaded = true
}

func (db *DirectBuffer) Unshaded() {
	db.shaded = false
}

func (db *DirectBuffer) Color(r, g, b float32) {
	db.color = mgl32.Vec3{r, g, b}
}

// Light normalizes an HDR light colour so its brightest channel is 1.
func (db *DirectBuffer) Light(c mgl32.Vec3) {
	max := math32.Max(math32.Max(c[0], c[1]), c[2])
	if max <= 0 {
		db.Color(0, 0, 0)
		return
	}
	db.Color(c[0]/max, c[1]/max, c[2]/max)
}

func (db *DirectBuffer) Vert(pos mgl32.Vec3) {
	var normal mgl32.Vec3
	if db.shaded {
		normal = db.normal
	}
	db.data = append(db.data, pos[0], pos[1], pos[2], db.color[0], db.color[1], db.color[2], normal[0], normal[1], normal[2])
}

// A--B
// | /
// C
func (db *DirectBuffer) Tri(a, b, c mgl32.Vec3) {
	if db.shaded && db.autoShade {
		ab := b.Sub(a)
		ac := c.Sub(a)
		if n := ab.Cross(ac); n.Len() > 0 {
			db.normal = n.Normalize()
		}
	}
	db.Vert(a)
	db.Vert(c)
	db.Vert(b)
}

// A--B
// |  |
// C--D
func (db *DirectBuffer) Quad(a, b, c, d mgl32.Vec3) {
	db.Tri(a, b, c)
	db.Tri(d, c, b)
}

func (db *DirectBuffer) sides(r float32) int {
	return 24 + int(0.6*r)
}

// UvSphere appends a sphere around c with radius r.
func (db *DirectBuffer) UvSphere(c mgl32.Vec3, r float32) {
	db.autoShade = true
	defer func() { db.autoShade = false }()

	rings, segments := db.sides(r)/2, db.sides(r)
	dTheta := math32.Pi / float32(rings)
	dPhi := -2 * math32.Pi / float32(segments)

	prevRing := make([]mgl32.Vec3, segments)
	currRing := make([]mgl32.Vec3, segments)

	for ring := 0; ring <= rings; ring++ {
		sinTheta, cosTheta := math32.Sincos(float32(ring) * dTheta)
		for segment := 0; segment < segments; segment++ {
			sinPhi, cosPhi := math32.Sincos(float32(segment) * dPhi)
			currRing[segment] = c.Add(mgl32.Vec3{sinTheta * cosPhi, cosTheta, sinTheta * sinPhi}.Mul(r))
			if ring > 0 && segment > 0 {
				db.Quad(currRing[segment-1], currRing[segment], prevRing[segment-1], prevRing[segment])
			}
		}
		if ring > 0 {
			db.Quad(currRing[segments-1], currRing[0], prevRing[segments-1], prevRing[0])
		}
		currRing, prevRing = prevRing, currRing
	}
}

// VertexCount is the number of buffered vertices.
func (db *DirectBuffer) VertexCount() int {
	return len(db.data) / 9
}

func (db *DirectBuffer) Draw(viewProj mgl32.Mat4, camPos mgl32.Vec3) {
	if len(db.data) == 0 {
		return
	}
	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 3, -1, gl.Str("Draw Direct\x00"))
	defer gl.PopDebugGroup()

	if db.vbo.Grow(len(db.data) * 4) {
		db.vao.BindBuffer(0, db.vbo, 0, directVertexSize)
	}
	db.vbo.Write(0, db.data)

	// winding of the generated triangles is not consistent
	prevRaster := libgl.State.Raster()
	libgl.State.Disable(libgl.CullFace)
	defer libgl.State.SetRaster(prevRaster)

	db.vao.Bind()
	db.shader.Bind()
	db.shader.Get(gl.VERTEX_SHADER).SetUniform("u_view_projection_mat", viewProj)
	db.shader.Get(gl.FRAGMENT_SHADER).SetUniform("u_camera_position", camPos)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(db.VertexCount()))

	db.Clear()
}

func (db *DirectBuffer) Clear() {
	db.data = db.data[:0]
}

func (db *DirectBuffer) Delete() {
	db.vao.Delete()
	db.vbo.Delete()
	db.shader.Delete()
}
