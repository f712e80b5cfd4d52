package timingmark

import (
	"image"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// Span is an inclusive range of rows within one pixel column.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of rows covered.
func (s Span) Len() int { return s.End - s.Start + 1 }

// Overlaps reports whether the spans share at least one row.
func (s Span) Overlaps(other Span) bool {
	return s.Start <= other.End && other.Start <= s.End
}

// Shape is a blob under construction: its leftmost column plus one span per
// column, left to right.
type Shape struct {
	X     int    `json:"x"`
	Spans []Span `json:"spans"`
}

// Left is the leftmost column.
func (s Shape) Left() int { return s.X }

// Right is the rightmost column (inclusive).
func (s Shape) Right() int { return s.X + len(s.Spans) - 1 }

// Width is the number of columns.
func (s Shape) Width() int { return len(s.Spans) }

// MedianTop is the median first row across columns.
func (s Shape) MedianTop() int {
	tops := make([]int, len(s.Spans))
	for i, sp := range s.Spans {
		tops[i] = sp.Start
	}
	return medianInt(tops)
}

// MedianBottom is the median last row across columns.
func (s Shape) MedianBottom() int {
	bottoms := make([]int, len(s.Spans))
	for i, sp := range s.Spans {
		bottoms[i] = sp.End
	}
	return medianInt(bottoms)
}

// Bounds returns the bounding rectangle of the raw spans.
func (s Shape) Bounds() geometry.Rect {
	top, bottom := s.Spans[0].Start, s.Spans[0].End
	for _, sp := range s.Spans[1:] {
		top = min(top, sp.Start)
		bottom = max(bottom, sp.End)
	}
	return geometry.RectFromPoints(image.Pt(s.Left(), top), image.Pt(s.Right(), bottom))
}

// smoothingWindow is the number of neighbouring columns considered when
// smoothing a shape's top and bottom edges.
const smoothingWindow = 8

// SmoothedBounds returns the bounding rectangle after passing the top and
// bottom edges through a running median, which removes narrow bumps left by
// debris touching the mark.
func (s Shape) SmoothedBounds() geometry.Rect {
	n := len(s.Spans)
	tops := make([]float64, n)
	bottoms := make([]float64, n)
	for i, sp := range s.Spans {
		tops[i] = float64(sp.Start)
		bottoms[i] = float64(sp.End)
	}
	tops = medianFilter(tops, smoothingWindow)
	bottoms = medianFilter(bottoms, smoothingWindow)

	top, bottom := tops[0], bottoms[0]
	for i := 1; i < n; i++ {
		top = min(top, tops[i])
		bottom = max(bottom, bottoms[i])
	}
	if bottom < top {
		return s.Bounds()
	}
	return geometry.RectFromPoints(image.Pt(s.Left(), int(top)), image.Pt(s.Right(), int(bottom)))
}

func medianFilter(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	half := window / 2
	buf := make([]float64, 0, window+1)
	for i := range values {
		lo, hi := max(0, i-half), min(len(values), i+half)
		if hi <= lo {
			hi = lo + 1
		}
		buf = append(buf[:0], values[lo:hi]...)
		sort.Float64s(buf)
		out[i] = stat.Quantile(0.5, stat.Empirical, buf, nil)
	}
	return out
}

func medianInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}

// ShapeListBuilder joins vertical slices of foreground pixels into shapes.
//
// Slices may be added in any column order, including concurrently produced
// batches replayed in arbitrary order: a slice joins a shape that ends in the
// column to its left, a shape that starts in the column to its right, or both,
// in which case the two shapes are fused.
type ShapeListBuilder struct {
	geometry paper.Geometry
	shapes   []Shape
}

// NewShapeListBuilder creates an empty builder.
func NewShapeListBuilder(g paper.Geometry) *ShapeListBuilder {
	return &ShapeListBuilder{geometry: g}
}

// AddSlice adds the foreground run rows of column x.
func (b *ShapeListBuilder) AddSlice(x int, rows Span) {
	left, right := -1, -1
	for i, s := range b.shapes {
		if right < 0 && s.X == x+1 && s.Spans[0].Overlaps(rows) {
			right = i
		}
		if left < 0 && s.X+len(s.Spans) == x && s.Spans[len(s.Spans)-1].Overlaps(rows) {
			left = i
		}
	}

	switch {
	case left >= 0 && right >= 0:
		merged := &b.shapes[left]
		merged.Spans = append(merged.Spans, rows)
		merged.Spans = append(merged.Spans, b.shapes[right].Spans...)
		b.shapes = slices.Delete(b.shapes, right, right+1)
	case left >= 0:
		b.shapes[left].Spans = append(b.shapes[left].Spans, rows)
	case right >= 0:
		s := &b.shapes[right]
		s.X = x
		s.Spans = slices.Insert(s.Spans, 0, rows)
	default:
		b.shapes = append(b.shapes, Shape{X: x, Spans: []Span{rows}})
	}
}

// CombineAdjacentShapes merges shapes split by a small horizontal gap, such
// as a mark interrupted by a thin scan line. A shape is merged into the
// closest shape to its left within maxXGap columns whose median top and
// bottom are within maxYOffset rows, and only when the merged width is closer
// to the expected timing mark width than either part.
func (b *ShapeListBuilder) CombineAdjacentShapes(maxXGap, maxYOffset int) {
	shapes := b.shapes
	sort.SliceStable(shapes, func(i, j int) bool { return shapes[i].X < shapes[j].X })

	expectedWidth := int(b.geometry.TimingMarkWidthPixels())
	widthError := func(w int) int { return absInt(w - expectedWidth) }

	var combined []Shape
	for _, shape := range shapes {
		top, bottom := shape.MedianTop(), shape.MedianBottom()

		best := -1
		bestGap, bestOffset := 0, 0
		for i, s := range combined {
			if shape.Left() <= s.Right() {
				continue
			}
			gap := shape.Left() - s.Right() - 1
			topOffset := absInt(top - s.MedianTop())
			bottomOffset := absInt(bottom - s.MedianBottom())
			if gap > maxXGap || topOffset > maxYOffset || bottomOffset > maxYOffset {
				continue
			}
			offset := topOffset + bottomOffset
			if best < 0 || gap < bestGap || (gap == bestGap && offset < bestOffset) {
				best, bestGap, bestOffset = i, gap, offset
			}
		}

		if best >= 0 {
			leftShape := &combined[best]
			mergedWidth := shape.Right() - leftShape.Left() + 1
			if widthError(mergedWidth) < widthError(shape.Width()) &&
				widthError(mergedWidth) < widthError(leftShape.Width()) {
				fill := leftShape.Spans[len(leftShape.Spans)-1]
				for x := leftShape.Right() + 1; x < shape.Left(); x++ {
					leftShape.Spans = append(leftShape.Spans, fill)
				}
				leftShape.Spans = append(leftShape.Spans, shape.Spans...)
				continue
			}
		}
		combined = append(combined, shape)
	}
	b.shapes = combined
}

// Shapes returns the shapes built so far ordered by leftmost column, then by
// first row, so that the result does not depend on slice insertion order.
func (b *ShapeListBuilder) Shapes() []Shape {
	out := slices.Clone(b.shapes)
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Spans[0].Start < out[j].Spans[0].Start
	})
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
