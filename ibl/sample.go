package ibl

import (
	"github.com/chewxy/math32"
)

// Based on: https://www.gamedev.net/forums/topic/687535-implementing-a-cube-map-lookup-function/5337472/
// Cube map face reference: https://www.khronos.org/opengl/wiki_opengl/images/CubeMapAxes.png
func sampleCubeMap(rx, ry, rz float32) (face CubeMapFace, u, v float32) {
	ax := math32.Abs(rx)
	ay := math32.Abs(ry)
	az := math32.Abs(rz)

	// this normalizes the uvs
	var uvfac float32

	if ax >= ay && ax >= az {
		if rx >= 0 {
			face = CubeMapPositiveX
			u = -rz
		} else {
			face = CubeMapNegativeX
			u = rz
		}
		uvfac = 0.5 / ax
		v = -ry
	} else if ay >= ax && ay >= az {
		if ry >= 0 {
			face = CubeMapPositiveY
			v = rz
		} else {
			face = CubeMapNegativeY
			v = -rz
		}
		uvfac = 0.5 / ay
		u = rx
	} else {
		if rz >= 0 {
			face = CubeMapPositiveZ
			u = rx
		} else {
			face = CubeMapNegativeZ
			u = -rx
		}
		uvfac = 0.5 / az
		v = -ry
	}

	u = u*uvfac + 0.5
	v = v*uvfac + 0.5

	return
}

// sampleBilinear filters inside one face, clamping at its edges.
func sampleBilinear(w, h int, channels int, pix []float32, u, v float32) (r, g, b float32) {
	// -0.5 to adjust for the pixel center offset
	u = u*float32(w) - 0.5
	v = v*float32(h) - 0.5
	ufloor := math32.Floor(u)
	vfloor := math32.Floor(v)
	ufrac, vfrac := u-ufloor, v-vfloor
	u0, v0 := int(ufloor), int(vfloor)
	u1, v1 := u0+1, v0+1

	u0, u1 = clampIndex(u0, w), clampIndex(u1, w)
	v0, v1 = clampIndex(v0, h), clampIndex(v1, h)

	rowstride := channels * w

	o00 := v0*rowstride + u0*channels
	o10 := v0*rowstride + u1*channels
	o01 := v1*rowstride + u0*channels
	o11 := v1*rowstride + u1*channels

	lerp := func(c int) float32 {
		h0 := pix[o00+c]*(1.0-ufrac) + pix[o10+c]*ufrac
		h1 := pix[o01+c]*(1.0-ufrac) + pix[o11+c]*ufrac
		return h0*(1.0-vfrac) + h1*vfrac
	}

	return lerp(0), lerp(1), lerp(2)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// texelDirection is the unnormalized direction through the centre of texel (u, v) of a face,
// the inverse of sampleCubeMap.
func texelDirection(face CubeMapFace, u, v, size int) (x, y, z float32) {
	// (2x+1)/r - 1 gives the pixel centre in [-1, 1]
	s := (2.0*float32(u)+1.0)/float32(size) - 1.0
	t := (2.0*float32(v)+1.0)/float32(size) - 1.0

	switch face {
	case CubeMapPositiveX:
		return 1, -t, -s
	case CubeMapNegativeX:
		return -1, -t, s
	case CubeMapPositiveY:
		return s, 1, t
	case CubeMapNegativeY:
		return s, -1, -t
	case CubeMapPositiveZ:
		return s, -t, 1
	default:
		return -s, -t, -1
	}
}

// forEachCubeMapPixel visits every texel in face order, row by row.
// i is the texel index into a concatenated face array.
func forEachCubeMapPixel(size int, cb func(face CubeMapFace, u, v int, x, y, z float32, i int)) {
	i := 0
	for face := CubeMapPositiveX; face <= CubeMapNegativeZ; face++ {
		for v := 0; v < size; v++ {
			for u := 0; u < size; u++ {
				x, y, z := texelDirection(face, u, v, size)
				cb(face, u, v, x, y, z, i)
				i++
			}
		}
	}
}

func normalize(x, y, z float32) (float32, float32, float32) {
	len := math32.Sqrt(x*x + y*y + z*z)
	return x / len, y / len, z / len
}

func cross(ax, ay, az, bx, by, bz float32) (float32, float32, float32) {
	x := ay*bz - az*by
	y := az*bx - ax*bz
	z := ax*by - ay*bx
	return x, y, z
}

func transform(vx, vy, vz, xx, xy, xz, yx, yy, yz, zx, zy, zz float32) (float32, float32, float32) {
	x := (vx * xx) + (vy * yx) + (vz * zx)
	y := (vx * xy) + (vy * yy) + (vz * zy)
	z := (vx * xz) + (vy * yz) + (vz * zz)
	return x, y, z
}
