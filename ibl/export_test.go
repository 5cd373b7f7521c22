package ibl

var (
	SampleCubeMap   = sampleCubeMap
	TexelDirection  = texelDirection
	EncodeRgbeChunk = encodeRgbeChunk
	DecodeRgbeChunk = decodeRgbeChunk
)

// KernelSamples returns x, y, z and weight of every sample.
func KernelSamples(k Kernel) [][4]float32 {
	samples := k.samples()
	result := make([][4]float32, len(samples))
	for i, s := range samples {
		result[i] = [4]float32{s.x, s.y, s.z, s.weight}
	}
	return result
}

func TargetReleased(t *SoftwareFaceTarget) bool {
	return t.released
}

func SetFaceTargetFault(fn func(t *GlFaceTarget, face CubeMapFace) error) {
	faceTargetFault = fn
}

// FaceTargetNames returns the array name followed by each view and framebuffer name.
func FaceTargetNames(t *GlFaceTarget) (array uint32, views, fbos []uint32) {
	array = t.array.Id()
	for i := range t.views {
		if t.views[i] != nil {
			views = append(views, t.views[i].Id())
		}
		if t.fbos[i] != nil {
			fbos = append(fbos, t.fbos[i].Id())
		}
	}
	return
}
