package timingmark

import (
	"image"
	"math"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// ScoreCandidate rates a candidate rectangle found along border b.
//
// The mark score is the ink ratio of the binarized rectangle, computed as
// the black share of its diff against blank paper. The padding score is the
// ink-free share of the two gaps beside the rectangle along the border: left
// and right for horizontal borders, above and below for vertical ones. Gap
// thickness is half the expected spacing between marks, capped at the mark
// height; pixels outside the image are ignored.
func ScoreCandidate(img *image.Gray, threshold uint8, g paper.Geometry, b Border, r geometry.Rect) Scores {
	return Scores{
		Mark:    markScore(img, threshold, r),
		Padding: paddingScore(img, threshold, g, b, r),
	}
}

func markScore(img *image.Gray, threshold uint8, r geometry.Rect) float64 {
	window, ok := imaging.CropWindow(img, r)
	if !ok {
		clipped, ok := r.Intersect(geometry.RectFromImage(img.Bounds()))
		if !ok {
			return 0
		}
		window, _ = imaging.CropWindow(img, clipped)
	}
	binarized := imaging.Binarize(window, threshold)
	blank := imaging.NewUniform(window.Bounds().Dx(), window.Bounds().Dy(), imaging.White)
	ink := imaging.Diff(blank, binarized)
	return imaging.CountPixels(ink, imaging.Black).Ratio()
}

func paddingScore(img *image.Gray, threshold uint8, g paper.Geometry, b Border, r geometry.Rect) float64 {
	var spacing float64
	if b.IsHorizontal() {
		spacing = g.HorizontalCenterToCenter() - g.TimingMarkWidthPixels()
	} else {
		spacing = g.VerticalCenterToCenter() - g.TimingMarkHeightPixels()
	}
	thickness := max(1, int(math.Min(spacing/2, g.TimingMarkHeightPixels())))

	var margins [2]geometry.Rect
	if b.IsHorizontal() {
		margins[0] = geometry.Rect{Left: r.Left - thickness, Top: r.Top, Width: thickness, Height: r.Height}
		margins[1] = geometry.Rect{Left: r.Right() + 1, Top: r.Top, Width: thickness, Height: r.Height}
	} else {
		margins[0] = geometry.Rect{Left: r.Left, Top: r.Top - thickness, Width: r.Width, Height: thickness}
		margins[1] = geometry.Rect{Left: r.Left, Top: r.Bottom() + 1, Width: r.Width, Height: thickness}
	}

	var counted imaging.CountedPixels
	for _, m := range margins {
		counted = counted.Add(imaging.CountForegroundPixels(img, m, threshold))
	}
	if counted.Examined == 0 {
		return 1
	}
	return 1 - counted.Ratio()
}
