package scoring

import (
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/timingmark"
)

// DefaultSearchRadius is how far, in pixels along each axis, the bubble
// search looks from the expected center.
const DefaultSearchRadius = 7

// Options configures bubble scoring.
type Options struct {
	SearchRadius int

	// Workers bounds how many positions are scored at once. Zero means
	// GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the default search radius with one worker per
// CPU.
func DefaultOptions() Options {
	return Options{SearchRadius: DefaultSearchRadius}
}

// GridLocation is a position on one side of a sheet, in grid units.
type GridLocation struct {
	Side   election.Side `json:"side"`
	Column float64       `json:"column"`
	Row    float64       `json:"row"`
}

// ScoredBubbleMark is the best match for a bubble near its expected
// position.
type ScoredBubbleMark struct {
	Location       GridLocation  `json:"location"`
	MatchScore     float64       `json:"matchScore"`
	FillScore      float64       `json:"fillScore"`
	ExpectedBounds geometry.Rect `json:"expectedBounds"`
	MatchedBounds  geometry.Rect `json:"matchedBounds"`
}

// ScoredPosition pairs a grid position with its score. Mark is nil when
// the position could not be mapped onto the page or its search window
// fell entirely outside the image.
type ScoredPosition struct {
	Position election.GridPosition `json:"gridPosition"`
	Mark     *ScoredBubbleMark     `json:"mark"`
}

// ExpectedBounds centers a template sized rectangle on center.
func ExpectedBounds(center geometry.Point, width, height int) geometry.Rect {
	return geometry.Rect{
		Left:   int(math.Round(center.X - float64(width)/2)),
		Top:    int(math.Round(center.Y - float64(height)/2)),
		Width:  width,
		Height: height,
	}
}

// ScoreBubbleMark searches every offset within radius of center for the
// window that best matches tmpl. Ties keep the first offset in row major
// order from the top left. The second result is false when no window fits
// inside img.
func ScoreBubbleMark(img *image.Gray, threshold uint8, tmpl *Template, center geometry.Point, loc GridLocation, radius int) (ScoredBubbleMark, bool) {
	w, h := tmpl.Size()
	expected := ExpectedBounds(center, w, h)

	var (
		best       *image.Gray
		bestBounds geometry.Rect
		bestMatch  = -1.0
	)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			bounds := expected.Offset(dx, dy)
			window, ok := imaging.CropWindow(img, bounds)
			if !ok {
				continue
			}
			bin := imaging.Binarize(window, threshold)
			if match := imaging.MatchTemplate(bin, tmpl.img); match > bestMatch {
				best, bestBounds, bestMatch = bin, bounds, match
			}
		}
	}
	if best == nil {
		return ScoredBubbleMark{}, false
	}

	fill := imaging.CountPixels(imaging.Diff(tmpl.img, best), imaging.Black).Ratio()
	return ScoredBubbleMark{
		Location:       loc,
		MatchScore:     bestMatch,
		FillScore:      fill,
		ExpectedBounds: expected,
		MatchedBounds:  bestBounds,
	}, true
}

// ScoreBubbleMarks scores the bubble of every position, write-ins
// included. Results keep the order of positions and do not depend on how
// the work was scheduled.
func ScoreBubbleMarks(img *image.Gray, threshold uint8, tmpl *Template, grid *timingmark.Grid, positions []election.GridPosition, opts Options) []ScoredPosition {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]ScoredPosition, len(positions))
	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, p := range positions {
		eg.Go(func() error {
			out[i] = ScoredPosition{Position: p}
			center, ok := grid.PointForLocation(p.Column, p.Row)
			if !ok {
				return nil
			}
			loc := GridLocation{Side: p.Side, Column: p.Column, Row: p.Row}
			if mark, ok := ScoreBubbleMark(img, threshold, tmpl, center, loc, opts.SearchRadius); ok {
				out[i].Mark = &mark
			}
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// ScoredPositionArea is the ink coverage of a write-in area.
type ScoredPositionArea struct {
	Position election.GridPosition  `json:"gridPosition"`
	Shape    geometry.Quadrilateral `json:"shape"`
	Score    float64                `json:"score"`
}

// ScoreWriteInAreas scores the write-in positions among positions that
// carry an area. Areas that do not map onto the grid are left out.
func ScoreWriteInAreas(img *image.Gray, threshold uint8, grid *timingmark.Grid, positions []election.GridPosition) []ScoredPositionArea {
	var out []ScoredPositionArea
	for _, p := range positions {
		if p.Type != election.PositionWriteIn || p.WriteInArea == nil {
			continue
		}
		a := p.WriteInArea
		quad, ok := grid.QuadForArea(a.X, a.Y, a.Width, a.Height)
		if !ok {
			continue
		}
		ink := imaging.CountForegroundInQuadrilateral(img, quad, threshold)
		out = append(out, ScoredPositionArea{Position: p, Shape: quad, Score: ink.Ratio()})
	}
	return out
}
