package libutil

import "math"

const (
	Rad2Deg = float32(180 / math.Pi)
	Deg2Rad = float32(math.Pi / 180)
)

type Deleter interface {
	Delete()
}

// DeleterFunc adapts a plain function to the Deleter interface.
type DeleterFunc func()

func (fn DeleterFunc) Delete() {
	fn()
}

func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func Clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func MaxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}
