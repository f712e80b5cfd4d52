package timingmark

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// Thresholds controls which candidates a border line may pass through.
type Thresholds struct {
	// AnchorMark is the minimum mark score for a candidate to define a
	// line through itself and another anchor.
	AnchorMark float64
	// MaxAnchors bounds the number of anchors tried per border.
	MaxAnchors int
	// MaxAngleDeviation is the largest allowed difference, in radians,
	// between a line and the border's expected direction.
	MaxAngleDeviation float64

	Interior Scores
	Exterior Scores
}

// DefaultThresholds returns the thresholds used for printed ballots.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AnchorMark:        0.8,
		MaxAnchors:        20,
		MaxAngleDeviation: geometry.Degrees(5),
		Interior:          Scores{Mark: 0.7, Padding: 0.7},
		Exterior:          Scores{Mark: 0.33, Padding: 0.33},
	}
}

// BestFit is the line accepted as a border and the marks along it, ordered
// by position along the border.
type BestFit struct {
	Border  Border                `json:"border"`
	Segment geometry.Segment      `json:"segment"`
	Marks   []CandidateTimingMark `json:"marks"`
}

// anchors picks the highest scoring candidates eligible to define a line.
// The result is sorted by position along the border, ties broken by score.
// MaxAnchors bounds how many are kept, and the cut is made by score before
// the position sort.
func anchors(b Border, candidates []CandidateTimingMark, t Thresholds) []CandidateTimingMark {
	var out []CandidateTimingMark
	for _, c := range candidates {
		if c.Scores.Mark >= t.AnchorMark {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scores.Mark != out[j].Scores.Mark {
			return out[i].Scores.Mark > out[j].Scores.Mark
		}
		return lessByPosition(b, out[i], out[j])
	})
	if t.MaxAnchors > 0 && len(out) > t.MaxAnchors {
		out = out[:t.MaxAnchors]
	}

	// sort by position, tie-break by score
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := position(b, out[i]), position(b, out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i].Scores.Mark > out[j].Scores.Mark
	})
	return out
}

func lessByPosition(b Border, x, y CandidateTimingMark) bool {
	px, py := position(b, x), position(b, y)
	if px != py {
		return px < py
	}
	if b.IsHorizontal() {
		return x.Rect.Top < y.Rect.Top
	}
	return x.Rect.Left < y.Rect.Left
}

func sortByPosition(b Border, marks []CandidateTimingMark) {
	sort.SliceStable(marks, func(i, j int) bool { return lessByPosition(b, marks[i], marks[j]) })
}

// line is one attempted border: the extended segment and the candidates it
// passes through, in position order.
type line struct {
	segment geometry.Segment
	marks   []CandidateTimingMark
}

// lines calls yield for every anchor pair whose line runs in the border's
// direction, in anchor order, until yield returns false.
func lines(b Border, candidates []CandidateTimingMark, t Thresholds, yield func(line) bool) {
	rects := make([]geometry.Rect, len(candidates))
	for i, c := range candidates {
		rects[i] = c.Rect
	}
	bounds, ok := geometry.BoundingRect(rects)
	if !ok {
		return
	}

	as := anchors(b, candidates, t)
	for i := range as {
		for j := i + 1; j < len(as); j++ {
			seg := geometry.Seg(as[i].Center(), as[j].Center())
			if geometry.AngleDiff(seg.Angle(), b.ExpectedAngle()) > t.MaxAngleDeviation {
				continue
			}
			extended, ok := seg.ExtendWithinRect(bounds)
			if !ok {
				continue
			}
			var marks []CandidateTimingMark
			for _, c := range candidates {
				if c.Rect.IntersectsSegment(extended) {
					marks = append(marks, c)
				}
			}
			sortByPosition(b, marks)
			if !yield(line{segment: extended, marks: marks}) {
				return
			}
		}
	}
}

// acceptable reports whether every mark clears its threshold: the first and
// last marks use the exterior thresholds, the rest the interior ones.
func acceptable(marks []CandidateTimingMark, t Thresholds) bool {
	for i, m := range marks {
		limit := t.Interior
		if i == 0 || i == len(marks)-1 {
			limit = t.Exterior
		}
		if !m.Scores.Passes(limit.Mark, limit.Padding) {
			return false
		}
	}
	return true
}

// FindBestFit returns the first line, in anchor order, that passes through
// exactly expected acceptable candidates. It returns a *BorderNotFoundError
// listing every line tried when there is none.
func FindBestFit(b Border, candidates []CandidateTimingMark, expected int, t Thresholds) (BestFit, error) {
	var (
		found BestFit
		ok    bool
		tried []geometry.Segment
	)
	lines(b, candidates, t, func(l line) bool {
		tried = append(tried, l.segment)
		if len(l.marks) == expected && acceptable(l.marks, t) {
			found, ok = BestFit{Border: b, Segment: l.segment, Marks: l.marks}, true
			return false
		}
		return true
	})
	if !ok {
		return BestFit{}, &BorderNotFoundError{Border: b, Expected: expected, Segments: tried}
	}
	return found, nil
}

// FindBestFitBestEffort returns the line through the most candidates, up to
// expected, preferring higher mean scores among lines of equal count. Marks
// are not held to the acceptance thresholds. It fails only when no line
// can be formed at all.
func FindBestFitBestEffort(b Border, candidates []CandidateTimingMark, expected int, t Thresholds) (BestFit, error) {
	var (
		best      BestFit
		bestScore float64
		ok        bool
		tried     []geometry.Segment
	)
	lines(b, candidates, t, func(l line) bool {
		tried = append(tried, l.segment)
		if len(l.marks) > expected {
			return true
		}
		score := meanScore(l.marks)
		if !ok || len(l.marks) > len(best.Marks) || (len(l.marks) == len(best.Marks) && score > bestScore) {
			best, bestScore, ok = BestFit{Border: b, Segment: l.segment, Marks: l.marks}, score, true
		}
		return true
	})
	if !ok {
		return BestFit{}, &BorderNotFoundError{Border: b, Expected: expected, Segments: tried}
	}
	return best, nil
}

func meanScore(marks []CandidateTimingMark) float64 {
	if len(marks) == 0 {
		return 0
	}
	var sum float64
	for _, m := range marks {
		sum += m.Scores.Mean()
	}
	return sum / float64(len(marks))
}

// InferMissingMarks walks from seg.Start toward seg.End in steps of
// spacing pixels and returns exactly count marks. At each step the closest
// existing mark within half a step is used, and the walk resumes from its
// center; otherwise a mark of the expected size is synthesized at the
// current point and scored against img.
func InferMissingMarks(
	img *image.Gray,
	threshold uint8,
	g paper.Geometry,
	b Border,
	seg geometry.Segment,
	existing []CandidateTimingMark,
	spacing float64,
	count int,
) []CandidateTimingMark {
	step := seg.WithLength(spacing).Vector()
	w, h := g.TimingMarkWidthPixels(), g.TimingMarkHeightPixels()

	out := make([]CandidateTimingMark, 0, count)
	current := seg.Start
	for len(out) < count {
		closest, distance := -1, math.Inf(1)
		for i, m := range existing {
			if d := m.Center().Distance(current); d < distance {
				closest, distance = i, d
			}
		}

		if closest >= 0 && distance <= spacing/2 {
			mark := existing[closest]
			out = append(out, mark)
			current = mark.Center().Add(step)
			continue
		}

		r := geometry.Rect{
			Left:   int(math.Round(current.X - w/2)),
			Top:    int(math.Round(current.Y - h/2)),
			Width:  int(math.Round(w)),
			Height: int(math.Round(h)),
		}
		out = append(out, CandidateTimingMark{Rect: r, Scores: ScoreCandidate(img, threshold, g, b, r)})
		current = current.Add(step)
	}
	return out
}
