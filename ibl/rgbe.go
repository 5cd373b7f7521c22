package ibl

import (
	"math"
)

// encodeRgbeChunk packs components floats per texel into 4 bytes (Ward's shared exponent format).
// Only the first three components are encoded, alpha is dropped.
// It returns the number of bytes written.
func encodeRgbeChunk(components int, data []float32, buf []byte) int {
	texels := len(data) / components
	// bounds check
	_ = buf[texels*4-1]

	for i := 0; i < texels; i++ {
		r, g, b := data[i*components+0], data[i*components+1], data[i*components+2]
		o := buf[i*4 : i*4+4 : i*4+4]

		v := r
		if g > v {
			v = g
		}
		if b > v {
			v = b
		}

		if v < 1e-32 {
			o[0], o[1], o[2], o[3] = 0, 0, 0, 0
			continue
		}

		m, e := math.Frexp(float64(v))
		scale := float32(m * 256.0 / float64(v))
		o[0] = rgbeMantissa(r * scale)
		o[1] = rgbeMantissa(g * scale)
		o[2] = rgbeMantissa(b * scale)
		o[3] = byte(e + 128)
	}

	return texels * 4
}

func rgbeMantissa(f float32) byte {
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return byte(f)
}

// decodeRgbeChunk is the inverse of encodeRgbeChunk. With 4 components alpha is set to 1.
// It returns the number of floats written.
func decodeRgbeChunk(components int, data []byte, buf []float32) int {
	texels := len(data) / 4
	if texels == 0 {
		return 0
	}
	// bounds check
	_ = buf[texels*components-1]

	for i := 0; i < texels; i++ {
		in := data[i*4 : i*4+4 : i*4+4]
		out := buf[i*components : i*components+components]

		if in[3] == 0 {
			out[0], out[1], out[2] = 0, 0, 0
		} else {
			f := float32(math.Ldexp(1.0, int(in[3])-(128+8)))
			out[0] = float32(in[0]) * f
			out[1] = float32(in[1]) * f
			out[2] = float32(in[2]) * f
		}
		if components == 4 {
			out[3] = 1
		}
	}

	return texels * components
}
