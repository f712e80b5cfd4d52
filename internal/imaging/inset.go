package imaging

import "image"

// DefaultInsetRatio is the fraction of a row or column that must be lighter
// than the threshold for it to count as part of the scanned document.
const DefaultInsetRatio = 0.1

// Inset is a set of pixel offsets from the edges of an image.
type Inset struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Rect returns the region of an image of the given size left after
// removing the inset.
func (in Inset) Rect(width, height int) image.Rectangle {
	return image.Rect(in.Left, in.Top, width-in.Right, height-in.Bottom)
}

// IsZero reports whether the inset removes nothing.
func (in Inset) IsZero() bool {
	return in == Inset{}
}

// FindScannedDocumentInset finds the dark scanner background around a
// document. Each edge of the returned inset is the first row or column, from
// that side, with more than minRatio of its pixels above threshold. It returns
// false when some side has no such row or column.
func FindScannedDocumentInset(img *image.Gray, threshold uint8, minRatio float64) (Inset, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Inset{}, false
	}
	minRow := int(float64(w) * minRatio)
	minCol := int(float64(h) * minRatio)

	rowIsDocument := func(y int) bool {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		n := 0
		for x := 0; x < w; x++ {
			if row[x] > threshold {
				n++
			}
		}
		return n > minRow
	}
	colIsDocument := func(x int) bool {
		n := 0
		for y := 0; y < h; y++ {
			if img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)] > threshold {
				n++
			}
		}
		return n > minCol
	}

	top, bottom, left, right := -1, -1, -1, -1
	for y := 0; y < h; y++ {
		if rowIsDocument(y) {
			top = y
			break
		}
	}
	for y := h - 1; y >= 0; y-- {
		if rowIsDocument(y) {
			bottom = h - 1 - y
			break
		}
	}
	for x := 0; x < w; x++ {
		if colIsDocument(x) {
			left = x
			break
		}
	}
	for x := w - 1; x >= 0; x-- {
		if colIsDocument(x) {
			right = w - 1 - x
			break
		}
	}

	if top < 0 || bottom < 0 || left < 0 || right < 0 {
		return Inset{}, false
	}
	return Inset{Top: top, Bottom: bottom, Left: left, Right: right}, true
}
