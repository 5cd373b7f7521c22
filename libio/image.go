package libio

import (
	goimg "image"
	"image/color"

	"github.com/chewxy/math32"
)

type image struct {
	Channels      int
	Width, Height int
}

// Calculates the tuple index into the images data.
//
// Note that the origin (0,0) is in the bottom left, as opposed to Go's top left origin
func (img *image) Index(x, y int) int {
	return x*img.Channels + y*img.Channels*img.Width
}

func (img *image) Count() int {
	return img.Width * img.Height
}

type IntImage struct {
	image
	Pix []uint8
}

func NewIntImage(pix []uint8, channels int, width, height int) *IntImage {
	return &IntImage{
		Pix: pix,
		image: image{
			Channels: channels,
			Width:    width,
			Height:   height,
		},
	}
}

// FromImage converts any Go image to 8-bit RGBA with a bottom left origin, ready for upload.
func FromImage(src goimg.Image) *IntImage {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := NewIntImage(make([]uint8, w*h*4), 4, w, h)

	for y := 0; y < h; y++ {
		// flipped vertically
		row := (h - y - 1) * w * 4
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := row + x*4
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = c.A
		}
	}

	return dst
}

func (img *IntImage) ToChannels(nr int, defaults ...uint8) *IntImage {
	dst := toChannels(img.Channels, nr, img.Count(), img.Pix, defaults...)

	return NewIntImage(dst, nr, img.Width, img.Height)
}

func toChannels[P ~[]E, E any](srcCh, dstCh int, count int, pix P, defaults ...E) P {
	if srcCh == dstCh {
		return pix
	}

	if len(defaults) < dstCh {
		defaults = append(defaults, make([]E, dstCh-len(defaults))...)
	}

	dst := make([]E, count*dstCh)
	common := srcCh
	if dstCh < common {
		common = dstCh
	}

	for i := 0; i < count; i++ {
		for c := 0; c < common; c++ {
			dst[i*dstCh+c] = pix[i*srcCh+c]
		}
		for c := common; c < dstCh; c++ {
			dst[i*dstCh+c] = defaults[c]
		}
	}

	return dst
}

// ToRGBA converts back to a Go image, undoing the vertical flip.
func (img *IntImage) ToRGBA() *goimg.RGBA {
	rgba := goimg.NewRGBA(goimg.Rect(0, 0, img.Width, img.Height))

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (x + y*img.Width) * img.Channels
			// flipped vertically
			j := (x + (img.Height-y-1)*img.Width) * 4
			for c := 0; c < img.Channels && c < 4; c++ {
				rgba.Pix[j+c] = img.Pix[i+c]
			}
			if img.Channels == 1 {
				rgba.Pix[j+1] = img.Pix[i]
				rgba.Pix[j+2] = img.Pix[i]
			}
			if img.Channels < 4 {
				rgba.Pix[j+3] = 0xff
			}
		}
	}

	return rgba
}

type FloatImage struct {
	image
	Pix []float32
}

func NewFloatImage(pix []float32, channels int, width, height int) *FloatImage {
	return &FloatImage{
		Pix: pix,
		image: image{
			Channels: channels,
			Width:    width,
			Height:   height,
		},
	}
}

func (img *FloatImage) ToChannels(nr int, defaults ...float32) *FloatImage {
	dst := toChannels(img.Channels, nr, img.Count(), img.Pix, defaults...)

	return NewFloatImage(dst, nr, img.Width, img.Height)
}

// ToIntImage maps HDR values to 8 bits. With reinhard set, x/(1+x) is applied before gamma.
func (img *FloatImage) ToIntImage(gamma, scale float32, reinhard bool) *IntImage {
	pix := make([]uint8, len(img.Pix))

	for i, v := range img.Pix {
		if reinhard {
			v = v / (1 + v)
		}
		pix[i] = uint8(tonemap(v, 1.0/gamma, scale)*0xff + 0.5)
	}

	return NewIntImage(pix, img.Channels, img.Width, img.Height)
}

func tonemap(value, gamma, scale float32) float32 {
	if !(value > 0) {
		return 0
	}
	value = math32.Pow(value, gamma) * scale
	return math32.Min(value, 1.0)
}
