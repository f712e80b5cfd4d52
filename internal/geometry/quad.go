package geometry

import (
	"image"
	"math"
)

// Quadrilateral is a four-cornered region in pixel space, typically the
// image of a grid-unit rectangle through a timing mark grid.
type Quadrilateral struct {
	TopLeft     Point `json:"topLeft"`
	TopRight    Point `json:"topRight"`
	BottomRight Point `json:"bottomRight"`
	BottomLeft  Point `json:"bottomLeft"`
}

// Corners returns the corners in clockwise order starting at the top left.
func (q Quadrilateral) Corners() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// Bounds returns the integer rectangle enclosing all four corners.
func (q Quadrilateral) Bounds() Rect {
	c := q.Corners()
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := minX, minY
	for _, p := range c[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	tl := image.Pt(int(math.Floor(minX)), int(math.Floor(minY)))
	br := image.Pt(int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	return RectFromPoints(tl, br)
}

// ContainsPoint reports whether p lies inside the quadrilateral. Corners
// may wind in either direction; p is inside when it is on the same side of
// every edge.
func (q Quadrilateral) ContainsPoint(p Point) bool {
	c := q.Corners()
	var pos, neg bool
	for i := range c {
		a, b := c[i], c[(i+1)%len(c)]
		cross := b.Sub(a).Cross(p.Sub(a))
		if cross > 0 {
			pos = true
		} else if cross < 0 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}
