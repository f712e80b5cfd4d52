package geometry

import (
	"fmt"
	"image"
)

// Rect is an axis-aligned pixel rectangle. Width and Height are always
// positive; Right and Bottom are inclusive pixel coordinates.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRect builds a rectangle from its top-left corner and size.
// It panics when either dimension is not positive, since a zero-sized
// rectangle can only come from a programming error.
func NewRect(left, top, width, height int) Rect {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("geometry: invalid rect size %dx%d", width, height))
	}
	return Rect{Left: left, Top: top, Width: width, Height: height}
}

// RectFromPoints builds the rectangle spanning two inclusive corners.
func RectFromPoints(topLeft, bottomRight image.Point) Rect {
	return NewRect(topLeft.X, topLeft.Y, bottomRight.X-topLeft.X+1, bottomRight.Y-topLeft.Y+1)
}

// RectFromImage converts image bounds (exclusive Max) into a Rect.
func RectFromImage(r image.Rectangle) Rect {
	return NewRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// Right is the inclusive x coordinate of the rightmost column.
func (r Rect) Right() int { return r.Left + r.Width - 1 }

// Bottom is the inclusive y coordinate of the bottom row.
func (r Rect) Bottom() int { return r.Top + r.Height - 1 }

// TopLeft returns the inclusive top-left corner.
func (r Rect) TopLeft() image.Point { return image.Pt(r.Left, r.Top) }

// BottomRight returns the inclusive bottom-right corner.
func (r Rect) BottomRight() image.Point { return image.Pt(r.Right(), r.Bottom()) }

// Area is Width x Height.
func (r Rect) Area() int { return r.Width * r.Height }

// Center returns the midpoint between the inclusive edges.
func (r Rect) Center() Point {
	return Point{
		X: float64(r.Left) + float64(r.Right()-r.Left)/2,
		Y: float64(r.Top) + float64(r.Bottom()-r.Top)/2,
	}
}

// ImageRect converts to image.Rectangle with an exclusive Max.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// Offset translates the rectangle.
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Width: r.Width, Height: r.Height}
}

// Contains reports whether the pixel (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x <= r.Right() && y >= r.Top && y <= r.Bottom()
}

// ContainsPoint reports whether p lies within the inclusive edges of r.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= float64(r.Left) && p.X <= float64(r.Right()) &&
		p.Y >= float64(r.Top) && p.Y <= float64(r.Bottom())
}

// Intersect returns the overlap of r and other, or false when they do not
// share a pixel.
func (r Rect) Intersect(other Rect) (Rect, bool) {
	left := max(r.Left, other.Left)
	top := max(r.Top, other.Top)
	right := min(r.Right(), other.Right())
	bottom := min(r.Bottom(), other.Bottom())
	if left > right || top > bottom {
		return Rect{}, false
	}
	return RectFromPoints(image.Pt(left, top), image.Pt(right, bottom)), true
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	left := min(r.Left, other.Left)
	top := min(r.Top, other.Top)
	right := max(r.Right(), other.Right())
	bottom := max(r.Bottom(), other.Bottom())
	return RectFromPoints(image.Pt(left, top), image.Pt(right, bottom))
}

// Edges returns the four sides of r as segments in clockwise order
// starting with the top edge.
func (r Rect) Edges() [4]Segment {
	tl := Pt(float64(r.Left), float64(r.Top))
	tr := Pt(float64(r.Right()), float64(r.Top))
	br := Pt(float64(r.Right()), float64(r.Bottom()))
	bl := Pt(float64(r.Left), float64(r.Bottom()))
	return [4]Segment{
		{Start: tl, End: tr},
		{Start: tr, End: br},
		{Start: br, End: bl},
		{Start: bl, End: tl},
	}
}

// IntersectsSegment reports whether the bounded segment s touches r, either
// by crossing one of its edges or by lying entirely inside it.
func (r Rect) IntersectsSegment(s Segment) bool {
	if r.ContainsPoint(s.Start) || r.ContainsPoint(s.End) {
		return true
	}
	for _, edge := range r.Edges() {
		if _, ok := s.Intersection(edge, true); ok {
			return true
		}
	}
	return false
}

// BoundingRect returns the smallest rectangle containing every rect.
// The second result is false for an empty slice.
func BoundingRect(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	out := rects[0]
	for _, r := range rects[1:] {
		out = out.Union(r)
	}
	return out, true
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.Left, r.Top, r.Width, r.Height)
}
