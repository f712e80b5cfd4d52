package imaging

import "image"

// RenderOval draws a black elliptical outline of the given stroke width on a
// white w x h canvas. With filled set the interior is black as well. It is
// used to synthesize an empty bubble template when none is supplied.
func RenderOval(w, h, stroke int, filled bool) *image.Gray {
	img := NewUniform(w, h, White)
	cx, cy := float64(w)/2, float64(h)/2
	outerA, outerB := float64(w)/2, float64(h)/2
	innerA, innerB := outerA-float64(stroke), outerB-float64(stroke)

	inside := func(px, py, a, b float64) bool {
		if a <= 0 || b <= 0 {
			return false
		}
		dx, dy := (px-cx)/a, (py-cy)/b
		return dx*dx+dy*dy <= 1
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			if !inside(px, py, outerA, outerB) {
				continue
			}
			if filled || !inside(px, py, innerA, innerB) {
				img.Pix[y*img.Stride+x] = Black
			}
		}
	}
	return img
}

// FillRect paints r (clipped to the image) with v.
func FillRect(img *image.Gray, r image.Rectangle, v uint8) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			row[x] = v
		}
	}
}

// Paste copies src onto dst with its top-left corner at (left, top),
// darkening only: each destination pixel keeps the smaller luma.
func Paste(dst, src *image.Gray, left, top int) {
	sb := src.Bounds()
	for y := 0; y < sb.Dy(); y++ {
		dy := top + y
		if dy < 0 || dy >= dst.Bounds().Max.Y {
			continue
		}
		for x := 0; x < sb.Dx(); x++ {
			dx := left + x
			if dx < 0 || dx >= dst.Bounds().Max.X {
				continue
			}
			v := src.Pix[src.PixOffset(sb.Min.X+x, sb.Min.Y+y)]
			i := dst.PixOffset(dx, dy)
			dst.Pix[i] = min(dst.Pix[i], v)
		}
	}
}
