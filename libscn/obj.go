package libscn

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// objDecoder reads the geometry subset of Wavefront OBJ: v, vt, vn and f lines.
// Polygons are triangulated as fans. Materials, groups and smoothing are ignored.
type objDecoder struct {
	positions []mgl32.Vec3
	uvs       []mgl32.Vec2
	normals   []mgl32.Vec3

	mesh  *Mesh
	index map[objCorner]uint32
	line  int
}

// objCorner refers to a position, uv and normal. Missing uvs and normals are -1.
type objCorner struct {
	position, uv, normal int
}

// DecodeObj reads an OBJ file into an indexed mesh. Corners sharing all three indices share a vertex.
func DecodeObj(r io.Reader, name string) (*Mesh, error) {
	dec := &objDecoder{
		mesh:  &Mesh{Name: name},
		index: map[objCorner]uint32{},
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		dec.line++
		if err := dec.parseLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", dec.line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(dec.mesh.Indices) == 0 {
		return nil, errors.New("obj has no faces")
	}

	if len(dec.normals) == 0 {
		dec.mesh.computeFlatNormals()
	}
	dec.mesh.ComputeTangents()
	return dec.mesh, nil
}

func (dec *objDecoder) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		dec.positions = append(dec.positions, mgl32.Vec3{v[0], v[1], v[2]})
	case "vt":
		v, err := parseFloats(fields[1:], 2)
		if err != nil {
			return fmt.Errorf("texture coordinate: %w", err)
		}
		dec.uvs = append(dec.uvs, mgl32.Vec2{v[0], v[1]})
	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return fmt.Errorf("normal: %w", err)
		}
		dec.normals = append(dec.normals, mgl32.Vec3{v[0], v[1], v[2]})
	case "f":
		return dec.parseFace(fields[1:])
	case "o", "g", "s", "usemtl", "mtllib":
	default:
		slog.Debug("obj field not supported", "field", fields[0], "line", dec.line)
	}
	return nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	result := make([]float32, n)
	for i := range result {
		val, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		result[i] = float32(val)
	}
	return result, nil
}

// f v1[/vt1][/vn1] v2[/vt2][/vn2] v3[/vt3][/vn3] ...
func (dec *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face with %d corners", len(fields))
	}

	corners := make([]uint32, len(fields))
	for i, f := range fields {
		parts := strings.Split(f, "/")

		corner := objCorner{position: -1, uv: -1, normal: -1}
		var err error
		if corner.position, err = resolveObjIndex(parts[0], len(dec.positions)); err != nil {
			return fmt.Errorf("face position: %w", err)
		}
		if len(parts) > 1 && parts[1] != "" {
			if corner.uv, err = resolveObjIndex(parts[1], len(dec.uvs)); err != nil {
				return fmt.Errorf("face uv: %w", err)
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if corner.normal, err = resolveObjIndex(parts[2], len(dec.normals)); err != nil {
				return fmt.Errorf("face normal: %w", err)
			}
		}
		corners[i] = dec.vertex(corner)
	}

	// fan around the first corner
	for i := 2; i < len(corners); i++ {
		dec.mesh.Indices = append(dec.mesh.Indices, corners[0], corners[i-1], corners[i])
	}
	return nil
}

// resolveObjIndex converts a 1-based index, or a negative one relative to the end, to 0-based.
func resolveObjIndex(field string, count int) (int, error) {
	val, err := strconv.Atoi(field)
	if err != nil {
		return 0, err
	}

	var i int
	switch {
	case val > 0:
		i = val - 1
	case val < 0:
		i = count + val
	default:
		return 0, errors.New("index 0")
	}

	if i < 0 || i >= count {
		return 0, fmt.Errorf("index %d out of range [1, %d]", val, count)
	}
	return i, nil
}

func (dec *objDecoder) vertex(corner objCorner) uint32 {
	if i, ok := dec.index[corner]; ok {
		return i
	}

	v := Vertex{Position: dec.positions[corner.position]}
	if corner.uv >= 0 {
		v.Uv = dec.uvs[corner.uv]
	}
	if corner.normal >= 0 {
		v.Normal = dec.normals[corner.normal]
	}

	i := uint32(len(dec.mesh.Vertices))
	dec.mesh.Vertices = append(dec.mesh.Vertices, v)
	dec.index[corner] = i
	return i
}

// computeFlatNormals sums the face normals on shared vertices.
func (mesh *Mesh) computeFlatNormals() {
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		i0, i1, i2 := mesh.Indices[i+0], mesh.Indices[i+1], mesh.Indices[i+2]
		a, b, c := mesh.Vertices[i0].Position, mesh.Vertices[i1].Position, mesh.Vertices[i2].Position
		n := b.Sub(a).Cross(c.Sub(a))
		for _, vi := range [3]uint32{i0, i1, i2} {
			mesh.Vertices[vi].Normal = mesh.Vertices[vi].Normal.Add(n)
		}
	}
	for i := range mesh.Vertices {
		if mesh.Vertices[i].Normal.Len() > 0 {
			mesh.Vertices[i].Normal = mesh.Vertices[i].Normal.Normalize()
		}
	}
}
