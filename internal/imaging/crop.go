package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// Crop extracts a rectangular region from a page. The region is clipped to
// the image bounds and the result has its origin at (0,0).
func Crop(img *image.Gray, r image.Rectangle) *image.Gray {
	return fromNRGBA(imaging.Crop(img, r))
}

// CropWindow copies the region r out of img without clipping. It returns
// false when r is not entirely inside img, so callers scanning many small
// windows can skip positions that fall off the page.
func CropWindow(img *image.Gray, r geometry.Rect) (*image.Gray, bool) {
	ir := r.ImageRect()
	if !ir.In(img.Bounds()) {
		return nil, false
	}
	out := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		i := img.PixOffset(r.Left, r.Top+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Width], img.Pix[i:i+r.Width])
	}
	return out, true
}

// Rotate180 returns a copy of img rotated by 180 degrees.
func Rotate180(img *image.Gray) *image.Gray {
	return fromNRGBA(imaging.Rotate180(img))
}

// ResizeToFit scales img to fit within maxWidth x maxHeight, preserving the
// aspect ratio, using Lanczos resampling.
func ResizeToFit(img *image.Gray, maxWidth, maxHeight int) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	aspect := float64(w) / float64(h)
	newWidth, newHeight := maxWidth, maxHeight
	if aspect > 1 {
		newHeight = int(math.Ceil(float64(maxWidth) / aspect))
	} else {
		newWidth = int(math.Ceil(float64(maxHeight) * aspect))
	}
	return fromNRGBA(imaging.Resize(img, newWidth, newHeight, imaging.Lanczos))
}

// FitToleranceRatio is how far, per axis, an image may differ from the
// expected canvas before MaybeResizeToFit resizes it.
const FitToleranceRatio = 0.05

// MaybeResizeToFit resizes img to the canvas size only when either axis is
// off by more than FitToleranceRatio. The second result reports whether a
// resize happened.
func MaybeResizeToFit(img *image.Gray, width, height int) (*image.Gray, bool) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	xErr := math.Abs(1 - float64(width)/float64(w))
	yErr := math.Abs(1 - float64(height)/float64(h))
	if xErr <= FitToleranceRatio && yErr <= FitToleranceRatio {
		return img, false
	}
	return ResizeToFit(img, width, height), true
}

// fromNRGBA collapses the output of the imaging library back to grayscale.
// Gray input stays neutral, so the red channel carries the luma.
func fromNRGBA(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		i := src.PixOffset(b.Min.X, b.Min.Y+y)
		row := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range row {
			row[x] = src.Pix[i+x*4]
		}
	}
	return out
}
