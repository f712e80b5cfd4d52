package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/anthonynsimon/bild/parallel"
)

// Binarized pixel values.
const (
	Black uint8 = 0
	White uint8 = 255
)

// OtsuLevel computes the threshold that maximizes the between-class variance
// of the image histogram. Pixels at or below the level are foreground.
// A uniform image yields 0.
func OtsuLevel(img *image.Gray) uint8 {
	bins := histogram.NewRGBAHistogram(img).R.Bins

	var total, sumAll float64
	for level, count := range bins {
		total += float64(count)
		sumAll += float64(level) * float64(count)
	}

	var (
		sumBackground    float64
		weightBackground float64
		bestVariance     float64
		bestLevel        int
	)
	for level, count := range bins {
		weightBackground += float64(count)
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}
		sumBackground += float64(level) * float64(count)
		meanBackground := sumBackground / weightBackground
		meanForeground := (sumAll - sumBackground) / weightForeground
		diff := meanBackground - meanForeground
		variance := weightBackground * weightForeground * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			bestLevel = level
		}
	}
	return uint8(bestLevel)
}

// Binarize maps pixels above threshold to White and all others to Black.
func Binarize(img *image.Gray, threshold uint8) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	binarizeRows := func(start, end int) {
		for y := start; y < end; y++ {
			src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := out.Pix[y*out.Stride:]
			for x := 0; x < w; x++ {
				if src[x] > threshold {
					dst[x] = White
				} else {
					dst[x] = Black
				}
			}
		}
	}
	// bubble-sized windows run inline
	if w*h < parallelMinPixels {
		binarizeRows(0, h)
	} else {
		parallel.Line(h, binarizeRows)
	}
	return out
}

// parallelMinPixels is the image size below which row-parallel helpers run
// on the calling goroutine.
const parallelMinPixels = 64 * 1024

// IsForeground reports whether a luma value counts as ink at threshold.
func IsForeground(v, threshold uint8) bool {
	return v <= threshold
}
