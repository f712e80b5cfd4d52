package timingmark

import (
	"image"
	"math"
	"slices"
	"sort"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// Grid maps grid coordinates to pixel positions through the four borders
// of timing marks found on a page.
//
// Grid coordinates are in timing mark units: (0, 0) is the top left corner
// mark and (width-1, height-1) the bottom right one. Positions strictly
// inside the grid are where bubbles are printed.
type Grid struct {
	Geometry paper.Geometry `json:"geometry"`

	TopLeftCorner     geometry.Point `json:"topLeftCorner"`
	TopRightCorner    geometry.Point `json:"topRightCorner"`
	BottomLeftCorner  geometry.Point `json:"bottomLeftCorner"`
	BottomRightCorner geometry.Point `json:"bottomRightCorner"`

	TopMarks    []CandidateTimingMark `json:"topMarks"`
	BottomMarks []CandidateTimingMark `json:"bottomMarks"`
	LeftMarks   []CandidateTimingMark `json:"leftMarks"`
	RightMarks  []CandidateTimingMark `json:"rightMarks"`
}

// Marks returns the marks along border b.
func (g *Grid) Marks(b Border) []CandidateTimingMark {
	switch b {
	case Top:
		return g.TopMarks
	case Bottom:
		return g.BottomMarks
	case Left:
		return g.LeftMarks
	}
	return g.RightMarks
}

// AssembleGrid checks that four borders agree with each other and with the
// expected grid size, then builds the grid from them.
func AssembleGrid(g paper.Geometry, top, bottom, left, right BestFit) (*Grid, error) {
	counts := []struct {
		fit      BestFit
		expected int
	}{
		{top, g.GridSize.Width},
		{bottom, g.GridSize.Width},
		{left, g.GridSize.Height},
		{right, g.GridSize.Height},
	}
	for _, c := range counts {
		if len(c.fit.Marks) != c.expected {
			return nil, &GridError{
				Reason:   ReasonWrongMarkCount,
				Border:   c.fit.Border,
				Expected: c.expected,
				Actual:   len(c.fit.Marks),
			}
		}
		if c.expected < 2 {
			return nil, &GridError{Reason: ReasonMissingCorner, Border: c.fit.Border}
		}
	}

	first := func(f BestFit) CandidateTimingMark { return f.Marks[0] }
	last := func(f BestFit) CandidateTimingMark { return f.Marks[len(f.Marks)-1] }

	corners := []struct {
		border Border
		a, b   CandidateTimingMark
	}{
		{Top, first(top), first(left)},
		{Top, last(top), first(right)},
		{Bottom, first(bottom), last(left)},
		{Bottom, last(bottom), last(right)},
	}
	for _, c := range corners {
		if _, ok := c.a.Rect.Intersect(c.b.Rect); !ok {
			return nil, &GridError{Reason: ReasonCornerMismatch, Border: c.border}
		}
	}

	line := func(f BestFit) geometry.Segment { return geometry.Seg(first(f).Center(), last(f).Center()) }
	intersect := func(b Border, h, v BestFit) (geometry.Point, error) {
		p, ok := geometry.IntersectionOfLines(line(h), line(v))
		if !ok || !p.IsFinite() {
			return geometry.Point{}, &GridError{Reason: ReasonDegenerateBorder, Border: b}
		}
		return p, nil
	}

	grid := &Grid{
		Geometry:    g,
		TopMarks:    slices.Clone(top.Marks),
		BottomMarks: slices.Clone(bottom.Marks),
		LeftMarks:   slices.Clone(left.Marks),
		RightMarks:  slices.Clone(right.Marks),
	}
	var err error
	if grid.TopLeftCorner, err = intersect(Top, top, left); err != nil {
		return nil, err
	}
	if grid.TopRightCorner, err = intersect(Top, top, right); err != nil {
		return nil, err
	}
	if grid.BottomLeftCorner, err = intersect(Bottom, bottom, left); err != nil {
		return nil, err
	}
	if grid.BottomRightCorner, err = intersect(Bottom, bottom, right); err != nil {
		return nil, err
	}
	return grid, nil
}

// PointForLocation returns the pixel center of grid position (column,
// row). Fractional coordinates are interpolated. The row selects a point
// between the left and right border marks of that row, and the column
// places the result proportionally along the line joining them. The
// second result is false for positions outside the grid.
func (g *Grid) PointForLocation(column, row float64) (geometry.Point, bool) {
	size := g.Geometry.GridSize
	if column < 0 || row < 0 || column >= float64(size.Width) || row >= float64(size.Height) || size.Width < 2 {
		return geometry.Point{}, false
	}

	before, after := int(math.Floor(row)), int(math.Ceil(row))
	if after >= len(g.LeftMarks) || after >= len(g.RightMarks) {
		return geometry.Point{}, false
	}
	t := row - float64(before)

	interpolate := func(marks []CandidateTimingMark) geometry.Rect {
		r := marks[before].Rect
		r.Top += int(t * float64(marks[after].Rect.Top-r.Top))
		return r
	}
	left, right := interpolate(g.LeftMarks), interpolate(g.RightMarks)

	horizontal := geometry.Seg(left.Center(), right.Center())
	fraction := column / float64(size.Width-1)
	return horizontal.WithLength(horizontal.Length() * fraction).End, true
}

// QuadForArea maps a rectangle of grid units, with its top left corner at
// (column, row), to the pixel quadrilateral joining the mapped corners.
func (g *Grid) QuadForArea(column, row, width, height float64) (geometry.Quadrilateral, bool) {
	tl, ok1 := g.PointForLocation(column, row)
	tr, ok2 := g.PointForLocation(column+width, row)
	br, ok3 := g.PointForLocation(column+width, row+height)
	bl, ok4 := g.PointForLocation(column, row+height)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return geometry.Quadrilateral{}, false
	}
	return geometry.Quadrilateral{TopLeft: tl, TopRight: tr, BottomRight: br, BottomLeft: bl}, true
}

// Rotate180 returns the grid as it would be found in an image of the given
// size turned upside down. Borders swap places and every border is
// re-sorted by position.
func (g *Grid) Rotate180(width, height int) *Grid {
	rot := rotator180{width: width, height: height}
	rotate := func(marks []CandidateTimingMark, byLeft bool) []CandidateTimingMark {
		out := make([]CandidateTimingMark, len(marks))
		for i, m := range marks {
			out[i] = CandidateTimingMark{Rect: rot.rect(m.Rect), Scores: m.Scores}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if byLeft {
				return out[i].Rect.Left < out[j].Rect.Left
			}
			return out[i].Rect.Top < out[j].Rect.Top
		})
		return out
	}
	return &Grid{
		Geometry:          g.Geometry,
		TopLeftCorner:     rot.point(g.BottomRightCorner),
		TopRightCorner:    rot.point(g.BottomLeftCorner),
		BottomLeftCorner:  rot.point(g.TopRightCorner),
		BottomRightCorner: rot.point(g.TopLeftCorner),
		TopMarks:          rotate(g.BottomMarks, true),
		BottomMarks:       rotate(g.TopMarks, true),
		LeftMarks:         rotate(g.RightMarks, false),
		RightMarks:        rotate(g.LeftMarks, false),
	}
}

type rotator180 struct{ width, height int }

func (r rotator180) pixel(p image.Point) image.Point {
	return image.Pt(r.width-1-p.X, r.height-1-p.Y)
}

func (r rotator180) rect(rect geometry.Rect) geometry.Rect {
	return geometry.RectFromPoints(r.pixel(rect.BottomRight()), r.pixel(rect.TopLeft()))
}

func (r rotator180) point(p geometry.Point) geometry.Point {
	return geometry.Pt(float64(r.width-1)-p.X, float64(r.height-1)-p.Y)
}

// ScaleForBorder compares the median distance between neighbouring mark
// centers along b with the expected distance. A value of 1 means the page
// was scanned at the expected size. The second result is false when the
// border has fewer than two marks.
func (g *Grid) ScaleForBorder(b Border) (float64, bool) {
	marks := g.Marks(b)
	distances := make([]float64, 0, len(marks))
	for i := 1; i < len(marks); i++ {
		distances = append(distances, marks[i-1].Center().Distance(marks[i].Center()))
	}
	actual, ok := median(distances)
	if !ok {
		return 0, false
	}
	expected := g.Geometry.VerticalCenterToCenter()
	if b.IsHorizontal() {
		expected = g.Geometry.HorizontalCenterToCenter()
	}
	return actual / expected, true
}

// ScaleForAxis compares the median distance between matching marks on
// opposing borders with the expected distance. Horizontal measures left to
// right, Vertical top to bottom.
func (g *Grid) ScaleForAxis(a Axis) (float64, bool) {
	from, to := g.LeftMarks, g.RightMarks
	expected := g.Geometry.LeftToRightCenterToCenter()
	if a == Vertical {
		from, to = g.TopMarks, g.BottomMarks
		expected = g.Geometry.TopToBottomCenterToCenter()
	}
	n := min(len(from), len(to))
	distances := make([]float64, n)
	for i := range n {
		distances[i] = from[i].Center().Distance(to[i].Center())
	}
	actual, ok := median(distances)
	if !ok {
		return 0, false
	}
	return actual / expected, true
}

func median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2, true
	}
	return sorted[n/2], true
}

// BottomPresence reports, for each bottom border position, whether a mark
// is printed there: more than half of the expected rectangle's area must be
// foreground at threshold. Parts of a rectangle outside the image count as
// blank.
func (g *Grid) BottomPresence(img *image.Gray, threshold uint8) []bool {
	return Presence(img, threshold, g.BottomMarks)
}

// Presence applies the BottomPresence test to arbitrary marks.
func Presence(img *image.Gray, threshold uint8, marks []CandidateTimingMark) []bool {
	out := make([]bool, len(marks))
	for i, m := range marks {
		ink := imaging.CountForegroundPixels(img, m.Rect, threshold)
		out[i] = ink.Matched > m.Rect.Area()/2
	}
	return out
}
