package imaging

import (
	"fmt"
	"image"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// CountedPixels is the result of examining a region for pixels that match
// some criterion.
type CountedPixels struct {
	// Examined is the number of pixels in the region of interest.
	Examined int `json:"examined"`

	// Matched is the number of examined pixels that met the criterion.
	Matched int `json:"matched"`
}

// Ratio returns Matched / Examined, or 0 when nothing was examined.
func (c CountedPixels) Ratio() float64 {
	if c.Examined == 0 {
		return 0
	}
	return float64(c.Matched) / float64(c.Examined)
}

// Add sums two counts.
func (c CountedPixels) Add(other CountedPixels) CountedPixels {
	return CountedPixels{Examined: c.Examined + other.Examined, Matched: c.Matched + other.Matched}
}

func mustSameSize(a, b *image.Gray, op string) {
	if a.Bounds().Size() != b.Bounds().Size() {
		panic(fmt.Sprintf("imaging: %s of mismatched sizes %v and %v", op, a.Bounds().Size(), b.Bounds().Size()))
	}
}

// Diff highlights where compare is darker than base. Each output pixel is
// White minus how much darker compare is at that position, so unchanged or
// lighter pixels are White. Both images must be the same size.
//
// Diffing a binarized window against an all-white base yields the window's
// ink; diffing a template against a window yields the ink the template does
// not account for.
func Diff(base, compare *image.Gray) *image.Gray {
	mustSameSize(base, compare, "diff")

	bb, cb := base.Bounds(), compare.Bounds()
	w, h := bb.Dx(), bb.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		bRow := base.Pix[base.PixOffset(bb.Min.X, bb.Min.Y+y):]
		cRow := compare.Pix[compare.PixOffset(cb.Min.X, cb.Min.Y+y):]
		oRow := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			var d uint8
			if bRow[x] > cRow[x] {
				d = bRow[x] - cRow[x]
			}
			oRow[x] = White - d
		}
	}
	return out
}

// CountPixels counts the pixels equal to v.
func CountPixels(img *image.Gray, v uint8) CountedPixels {
	b := img.Bounds()
	counted := CountedPixels{Examined: b.Dx() * b.Dy()}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] == v {
				counted.Matched++
			}
		}
	}
	return counted
}

// CountForegroundPixels counts pixels of r (clipped to the image) whose luma
// is at or below threshold.
func CountForegroundPixels(img *image.Gray, r geometry.Rect, threshold uint8) CountedPixels {
	clipped := r.ImageRect().Intersect(img.Bounds())
	var counted CountedPixels
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		row := img.Pix[img.PixOffset(clipped.Min.X, y):]
		for x := 0; x < clipped.Dx(); x++ {
			counted.Examined++
			if row[x] <= threshold {
				counted.Matched++
			}
		}
	}
	return counted
}

// CountForegroundInQuadrilateral counts the pixels whose centers fall inside
// q and whose luma is at or below threshold.
func CountForegroundInQuadrilateral(img *image.Gray, q geometry.Quadrilateral, threshold uint8) CountedPixels {
	bounds := q.Bounds()
	ib := img.Bounds()
	var counted CountedPixels
	for y := bounds.Top; y < bounds.Bottom(); y++ {
		if y < ib.Min.Y || y >= ib.Max.Y {
			continue
		}
		for x := bounds.Left; x < bounds.Right(); x++ {
			if x < ib.Min.X || x >= ib.Max.X {
				continue
			}
			if !q.ContainsPoint(geometry.Pt(float64(x)+0.5, float64(y)+0.5)) {
				continue
			}
			counted.Examined++
			if img.GrayAt(x, y).Y <= threshold {
				counted.Matched++
			}
		}
	}
	return counted
}

// MatchTemplate returns how closely img matches template: 1.0 for identical
// images and 0.0 for exact inverses. It panics when the sizes differ.
func MatchTemplate(img, template *image.Gray) float64 {
	mustSameSize(img, template, "template match")

	ib, tb := img.Bounds(), template.Bounds()
	w, h := ib.Dx(), ib.Dy()
	var diff int
	for y := 0; y < h; y++ {
		iRow := img.Pix[img.PixOffset(ib.Min.X, ib.Min.Y+y):]
		tRow := template.Pix[template.PixOffset(tb.Min.X, tb.Min.Y+y):]
		for x := 0; x < w; x++ {
			diff += absDiff(iRow[x], tRow[x])
		}
	}
	return 1 - float64(diff)/float64(w*h)/255
}

// Bleed spreads every pixel equal to v into its four direct neighbours.
func Bleed(img *image.Gray, v uint8) *image.Gray {
	src := ToGray(img)
	out := ToGray(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src.Pix[y*src.Stride+x] != v {
				continue
			}
			if x > 0 {
				out.Pix[y*out.Stride+x-1] = v
			}
			if x < w-1 {
				out.Pix[y*out.Stride+x+1] = v
			}
			if y > 0 {
				out.Pix[(y-1)*out.Stride+x] = v
			}
			if y < h-1 {
				out.Pix[(y+1)*out.Stride+x] = v
			}
		}
	}
	return out
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
