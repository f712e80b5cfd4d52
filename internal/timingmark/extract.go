package timingmark

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// Search band depths, in timing mark sizes past the content area edge.
const (
	sideBandMarkWidths  = 3
	topBandMarkHeights  = 10
	maxCombineGapRatio  = 0.5
	maxCombineYOffRatio = 0.25
)

// SearchBand returns the strip along border b that is scanned for timing
// marks in an image of the given size. The strip covers the margin plus a
// few mark sizes into the page. The second result is false when the strip
// is empty.
func SearchBand(g paper.Geometry, b Border, width, height int) (image.Rectangle, bool) {
	sideDepth := g.ContentArea.Left + int(math.Ceil(sideBandMarkWidths*g.TimingMarkWidthPixels()))
	topDepth := g.ContentArea.Top + int(math.Ceil(topBandMarkHeights*g.TimingMarkHeightPixels()))

	var r image.Rectangle
	switch b {
	case Top:
		r = image.Rect(0, 0, width, topDepth)
	case Bottom:
		r = image.Rect(0, height-topDepth, width, height)
	case Left:
		r = image.Rect(0, 0, sideDepth, height)
	case Right:
		r = image.Rect(width-sideDepth, 0, width, height)
	}
	r = r.Intersect(image.Rect(0, 0, width, height))
	return r, !r.Empty()
}

// ExtractShapes finds foreground blobs within band whose column runs are
// about as tall as a timing mark.
func ExtractShapes(img *image.Gray, threshold uint8, g paper.Geometry, band image.Rectangle) []Shape {
	band = band.Intersect(img.Bounds())
	if band.Empty() {
		return nil
	}

	minRun := int(math.Floor(g.TimingMarkHeightPixels() * 0.75))
	maxRun := int(math.Round(g.TimingMarkHeightPixels() * 1.5))

	// each column's runs are owned by that column's index
	runs := make([][]Span, band.Dx())
	parallel.Line(band.Dx(), func(start, end int) {
		for i := start; i < end; i++ {
			runs[i] = columnRuns(img, threshold, band.Min.X+i, band.Min.Y, band.Max.Y, minRun, maxRun)
		}
	})

	builder := NewShapeListBuilder(g)
	for i, column := range runs {
		for _, run := range column {
			builder.AddSlice(band.Min.X+i, run)
		}
	}
	builder.CombineAdjacentShapes(
		int(g.TimingMarkHeightPixels()*maxCombineGapRatio),
		int(g.TimingMarkHeightPixels()*maxCombineYOffRatio),
	)
	return builder.Shapes()
}

// columnRuns returns the maximal foreground runs in column x between rows
// top (inclusive) and bottom (exclusive) whose length is in [minRun, maxRun].
func columnRuns(img *image.Gray, threshold uint8, x, top, bottom, minRun, maxRun int) []Span {
	var out []Span
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if n := end - start; n >= minRun && n <= maxRun {
			out = append(out, Span{Start: start, End: end - 1})
		}
		start = -1
	}
	for y := top; y < bottom; y++ {
		if img.Pix[img.PixOffset(x, y)] <= threshold {
			if start < 0 {
				start = y
			}
			continue
		}
		flush(y)
	}
	flush(bottom)
	return out
}

// ExtractCandidates finds and scores the candidate timing marks along
// border b. Shapes that fail the timing mark size check, or that sit exactly
// on a corner of the image, are dropped. An empty band yields no candidates.
func ExtractCandidates(img *image.Gray, threshold uint8, g paper.Geometry, b Border) []CandidateTimingMark {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	band, ok := SearchBand(g, b, w, h)
	if !ok {
		return nil
	}

	var candidates []CandidateTimingMark
	for _, shape := range ExtractShapes(img, threshold, g, band) {
		r := shape.SmoothedBounds()
		if !g.CouldBeTimingMark(r) || touchesImageCorner(r, w, h) {
			continue
		}
		candidates = append(candidates, CandidateTimingMark{
			Rect:   r,
			Scores: ScoreCandidate(img, threshold, g, b, r),
		})
	}
	return candidates
}

func touchesImageCorner(r geometry.Rect, w, h int) bool {
	atLeft, atRight := r.Left <= 0, r.Right() >= w-1
	atTop, atBottom := r.Top <= 0, r.Bottom() >= h-1
	return (atLeft || atRight) && (atTop || atBottom)
}
