package ibl

import (
	"strconv"

	"github.com/chewxy/math32"
)

const DefaultKernelQuality = 32

// Kernel selects the integrand the convolution program evaluates per texel.
type Kernel struct {
	// Quality 0 takes a single sample along the normal.
	Quality int
}

// DiffuseKernel is a cosine weighted hemisphere convolution with quality+1 rings of 4*quality segments.
func DiffuseKernel(quality int) Kernel {
	if quality < 1 {
		quality = 1
	}
	return Kernel{Quality: quality}
}

// PassThroughKernel copies the environment along the normal.
func PassThroughKernel() Kernel {
	return Kernel{Quality: 0}
}

// Defines are the preprocessor overrides for irradiance.frag.
func (k Kernel) Defines() map[string]string {
	return map[string]string{
		"QUALITY": strconv.Itoa(k.Quality),
	}
}

type sample struct {
	// z is 'up'
	x, y, z float32
	weight  float32
}

func (k Kernel) samples() []sample {
	return generateDiffuseConvolutionSamples(k.Quality)
}

// quality >= 0
func generateDiffuseConvolutionSamples(quality int) []sample {
	if quality <= 0 {
		// only one sample directly upwards
		return []sample{{x: 0, y: 0, z: 1, weight: 1}}
	}

	rings := quality + 1
	segments := quality * 4

	dPhi := (2.0 * math32.Pi) / float32(segments)
	dTheta := (math32.Pi / 2.0) / float32(rings)

	samples := make([]sample, rings*segments)
	i := 0
	for ring := 0; ring < rings; ring++ {
		theta := (float32(ring) + 0.5) * dTheta
		sinTheta, cosTheta := math32.Sincos(theta)
		for segment := 0; segment < segments; segment++ {
			phi := (float32(segment) + 0.5) * dPhi
			sinPhi, cosPhi := math32.Sincos(phi)
			samples[i] = sample{
				x:      sinTheta * cosPhi,
				y:      sinTheta * sinPhi,
				z:      cosTheta,
				weight: cosTheta * sinTheta,
			}
			i++
		}
	}

	return samples
}

// tangentFrame builds an orthonormal basis around n, which must be normalized.
func tangentFrame(nx, ny, nz float32) (tx, ty, tz, bx, by, bz float32) {
	var upx, upy, upz float32 = 0.0, 1.0, 0.0
	if math32.Abs(ny) >= 0.999 {
		upx, upy, upz = 0.0, 0.0, 1.0
	}

	// tangent = cross(up, normal)
	tx, ty, tz = normalize(cross(upx, upy, upz, nx, ny, nz))
	// bitangent = cross(normal, tangent)
	bx, by, bz = normalize(cross(nx, ny, nz, tx, ty, tz))
	return
}

// convolve integrates env around the normalized direction n with the given samples.
// The result is normalized by the total weight.
func convolve(env *IblEnv, samples []sample, nx, ny, nz float32) (r, g, b float32) {
	tx, ty, tz, bx, by, bz := tangentFrame(nx, ny, nz)

	var totalWeight float32
	for _, s := range samples {
		dx, dy, dz := transform(s.x, s.y, s.z, tx, ty, tz, bx, by, bz, nx, ny, nz)
		if dx == 0.0 && dy == 0.0 && dz == 0.0 {
			continue
		}

		sr, sg, sb := env.Sample(dx, dy, dz)
		r += sr * s.weight
		g += sg * s.weight
		b += sb * s.weight
		totalWeight += s.weight
	}

	if totalWeight == 0 {
		return 0, 0, 0
	}
	return r / totalWeight, g / totalWeight, b / totalWeight
}
