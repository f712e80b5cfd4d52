package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/lucasb-eyer/go-colorful"
)

// Rec. 709 luma weights applied to gamma-encoded RGB.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// ToGray converts img to an 8-bit grayscale image with bounds at (0,0).
// Grayscale input is copied; other color models are converted to luma.
// Fully transparent pixels become white, matching blank paper.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+w], src.Pix[i:i+w])
		}
	case *image.NRGBA:
		parallel.Line(h, func(start, end int) {
			for y := start; y < end; y++ {
				i := src.PixOffset(b.Min.X, b.Min.Y+y)
				for x := 0; x < w; x++ {
					p := src.Pix[i+x*4 : i+x*4+4]
					out.Pix[y*out.Stride+x] = luma(color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
				}
			}
		})
	default:
		parallel.Line(h, func(start, end int) {
			for y := start; y < end; y++ {
				for x := 0; x < w; x++ {
					out.Pix[y*out.Stride+x] = luma(img.At(b.Min.X+x, b.Min.Y+y))
				}
			}
		})
	}
	return out
}

func luma(c color.Color) uint8 {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return White
	}
	v := math.Round(255 * (lumaR*cf.R + lumaG*cf.G + lumaB*cf.B))
	return uint8(math.Max(0, math.Min(255, v)))
}

// NewUniform returns a w x h gray image filled with v.
func NewUniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	if v != 0 {
		for i := range img.Pix {
			img.Pix[i] = v
		}
	}
	return img
}
