package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// parallelEpsilon is the determinant magnitude below which two lines are
// treated as parallel.
const parallelEpsilon = 1e-9

// Segment is a directed line segment.
type Segment struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Seg is shorthand for Segment{Start: start, End: end}.
func Seg(start, end Point) Segment {
	return Segment{Start: start, End: end}
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

// Vector returns End - Start.
func (s Segment) Vector() Point {
	return s.End.Sub(s.Start)
}

// Angle returns the direction of the segment in radians, in (-π, π].
func (s Segment) Angle() float64 {
	v := s.Vector()
	return math.Atan2(v.Y, v.X)
}

// WithLength returns a segment with the same start and direction but the
// given length.
func (s Segment) WithLength(length float64) Segment {
	angle := s.Angle()
	return Segment{
		Start: s.Start,
		End:   s.Start.Add(Pt(length*math.Cos(angle), length*math.Sin(angle))),
	}
}

// PointAt returns Start + t*(End-Start).
func (s Segment) PointAt(t float64) Point {
	return s.Start.Add(s.Vector().Scale(t))
}

// Intersection returns the point where s and other cross. With bounded set,
// the point must lie on both segments; otherwise the carrier lines are
// intersected. Parallel or degenerate segments never intersect.
func (s Segment) Intersection(other Segment, bounded bool) (Point, bool) {
	p1, p2 := s.Start, s.End
	p3, p4 := other.Start, other.End

	d := (p4.Y-p3.Y)*(p2.X-p1.X) - (p4.X-p3.X)*(p2.Y-p1.Y)
	if math.Abs(d) < parallelEpsilon {
		return Point{}, false
	}

	ua := ((p4.X-p3.X)*(p1.Y-p3.Y) - (p4.Y-p3.Y)*(p1.X-p3.X)) / d
	ub := ((p2.X-p1.X)*(p1.Y-p3.Y) - (p2.Y-p1.Y)*(p1.X-p3.X)) / d
	if bounded && (ua < 0 || ua > 1 || ub < 0 || ub > 1) {
		return Point{}, false
	}
	return s.PointAt(ua), true
}

// IntersectionOfLines solves for the crossing point of the infinite lines
// carrying a and b. It returns false when the lines are parallel or either
// segment has zero length.
func IntersectionOfLines(a, b Segment) (Point, bool) {
	va, vb := a.Vector(), b.Vector()
	// a.Start + t*va = b.Start + u*vb
	m := mat.NewDense(2, 2, []float64{
		va.X, -vb.X,
		va.Y, -vb.Y,
	})
	if math.Abs(mat.Det(m)) < parallelEpsilon {
		return Point{}, false
	}
	rhs := mat.NewVecDense(2, []float64{b.Start.X - a.Start.X, b.Start.Y - a.Start.Y})
	var tu mat.VecDense
	if err := tu.SolveVec(m, rhs); err != nil {
		return Point{}, false
	}
	p := a.PointAt(tu.AtVec(0))
	if !p.IsFinite() {
		return Point{}, false
	}
	return p, true
}

// ExtendWithinRect stretches the carrier line of s so that it spans r,
// keeping the original direction. The second result is false when s has no
// length or its carrier line misses r.
func (s Segment) ExtendWithinRect(r Rect) (Segment, bool) {
	v := s.Vector()
	if math.Hypot(v.X, v.Y) < parallelEpsilon {
		return s, false
	}

	// Liang-Barsky clipping of the infinite line against r.
	tMin, tMax := math.Inf(-1), math.Inf(1)
	clip := func(origin, dir, lo, hi float64) bool {
		if math.Abs(dir) < parallelEpsilon {
			return origin >= lo && origin <= hi
		}
		t0 := (lo - origin) / dir
		t1 := (hi - origin) / dir
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math.Max(tMin, t0)
		tMax = math.Min(tMax, t1)
		return tMin <= tMax
	}

	if !clip(s.Start.X, v.X, float64(r.Left), float64(r.Right())) {
		return s, false
	}
	if !clip(s.Start.Y, v.Y, float64(r.Top), float64(r.Bottom())) {
		return s, false
	}
	return Segment{Start: s.PointAt(tMin), End: s.PointAt(tMax)}, true
}

// ExtendWithinPoints extends s to the bounding box of points.
func (s Segment) ExtendWithinPoints(points []Point) (Segment, bool) {
	if len(points) == 0 {
		return s, false
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	bounds := Rect{
		Left:   int(math.Floor(minX)),
		Top:    int(math.Floor(minY)),
		Width:  int(math.Ceil(maxX)) - int(math.Floor(minX)) + 1,
		Height: int(math.Ceil(maxY)) - int(math.Floor(minY)) + 1,
	}
	return s.ExtendWithinRect(bounds)
}
