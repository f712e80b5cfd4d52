// Package paper describes the scanned ballot card formats and derives the
// pixel geometry that timing mark detection expects for each of them.
package paper

import (
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// Size identifies a supported ballot paper size.
type Size string

// Supported paper sizes. The custom sizes are 8.5" wide with the given
// height in inches.
const (
	Letter   Size = "letter"
	Legal    Size = "legal"
	Custom17 Size = "custom-8.5x17"
	Custom19 Size = "custom-8.5x19"
	Custom22 Size = "custom-8.5x22"
)

// Dimensions returns the paper size in inches.
func (s Size) Dimensions() (width, height float64) {
	switch s {
	case Letter:
		return 8.5, 11
	case Legal:
		return 8.5, 14
	case Custom17:
		return 8.5, 17
	case Custom19:
		return 8.5, 19
	case Custom22:
		return 8.5, 22
	}
	return 0, 0
}

// ParseSize accepts the canonical names plus a few shorthands
// ("custom-17", "custom17").
func ParseSize(s string) (Size, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "letter":
		return Letter, nil
	case "legal":
		return Legal, nil
	case "custom-8.5x17", "custom-17", "custom17":
		return Custom17, nil
	case "custom-8.5x19", "custom-19", "custom19":
		return Custom19, nil
	case "custom-8.5x22", "custom-22", "custom22":
		return Custom22, nil
	}
	return "", fmt.Errorf("unknown paper size %q", s)
}

// Inset is a set of margins in inches.
type Inset struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

const (
	// ScanPixelsPerInch is the resolution scanned ballot cards are expected at.
	ScanPixelsPerInch = 200

	// TimingMarkWidth and TimingMarkHeight are the printed timing mark
	// dimensions in inches.
	TimingMarkWidth  = 3.0 / 16.0
	TimingMarkHeight = 1.0 / 16.0

	columnsPerInch = 4
	rowsPerInch    = 4
)

// ScanMargins are the printed margins around the timing mark border:
// 12pt top and bottom, 5mm left and right.
var ScanMargins = Inset{
	Top:    1.0 / 6.0,
	Bottom: 1.0 / 6.0,
	Left:   5.0 / 25.4,
	Right:  5.0 / 25.4,
}

// Info is a paper size together with its scan margins and resolution.
type Info struct {
	Size          Size  `json:"size"`
	Margins       Inset `json:"margins"`
	PixelsPerInch int   `json:"pixelsPerInch"`
}

// Scanned returns the scanning info for a paper size.
func Scanned(size Size) Info {
	return Info{Size: size, Margins: ScanMargins, PixelsPerInch: ScanPixelsPerInch}
}

// ScannedAll returns the scanning info for every supported paper size.
func ScannedAll() []Info {
	return []Info{
		Scanned(Letter),
		Scanned(Legal),
		Scanned(Custom17),
		Scanned(Custom19),
		Scanned(Custom22),
	}
}

// GridSize is a grid dimension in timing mark units.
type GridSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Geometry is the expected layout of a ballot card at scan resolution.
// It depends only on Info and may be shared between interpretations.
type Geometry struct {
	PaperSize     Size          `json:"ballotPaperSize"`
	PixelsPerInch int           `json:"pixelsPerInch"`
	CanvasWidth   float64       `json:"canvasWidthInches"`
	CanvasHeight  float64       `json:"canvasHeightInches"`
	ContentArea   geometry.Rect `json:"contentArea"`

	TimingMarkWidth   float64 `json:"timingMarkWidthInches"`
	TimingMarkHeight  float64 `json:"timingMarkHeightInches"`
	VerticalSpacing   float64 `json:"timingMarkVerticalSpacing"`
	HorizontalSpacing float64 `json:"timingMarkHorizontalSpacing"`

	GridSize GridSize `json:"gridSize"`
}

// ComputeGeometry derives the pixel layout for info.
func (info Info) ComputeGeometry() Geometry {
	width, height := info.Size.Dimensions()
	ppi := float64(info.PixelsPerInch)
	m := info.Margins

	contentWidth := width - m.Left - m.Right
	contentHeight := height - m.Top - m.Bottom
	content := geometry.Rect{
		Left:   int(m.Left * ppi),
		Top:    int(m.Top * ppi),
		Width:  int(math.Round(contentWidth * ppi)),
		Height: int(math.Round(contentHeight * ppi)),
	}

	grid := GridSize{
		Width:  int(columnsPerInch * width),
		Height: int(rowsPerInch*height) - 3,
	}

	return Geometry{
		PaperSize:         info.Size,
		PixelsPerInch:     info.PixelsPerInch,
		CanvasWidth:       width,
		CanvasHeight:      height,
		ContentArea:       content,
		TimingMarkWidth:   TimingMarkWidth,
		TimingMarkHeight:  TimingMarkHeight,
		VerticalSpacing:   (contentHeight - float64(grid.Height)*TimingMarkHeight) / float64(grid.Height-1),
		HorizontalSpacing: (contentWidth - float64(grid.Width)*TimingMarkWidth) / float64(grid.Width-1),
		GridSize:          grid,
	}
}

func (g Geometry) px(inches float64) float64 {
	return inches * float64(g.PixelsPerInch)
}

// CanvasWidthPixels is the expected image width.
func (g Geometry) CanvasWidthPixels() float64 { return g.px(g.CanvasWidth) }

// CanvasHeightPixels is the expected image height.
func (g Geometry) CanvasHeightPixels() float64 { return g.px(g.CanvasHeight) }

// CanvasSize returns the expected image size rounded to whole pixels.
func (g Geometry) CanvasSize() (width, height int) {
	return int(math.Round(g.CanvasWidthPixels())), int(math.Round(g.CanvasHeightPixels()))
}

// TimingMarkWidthPixels is the expected timing mark width.
func (g Geometry) TimingMarkWidthPixels() float64 { return g.px(g.TimingMarkWidth) }

// TimingMarkHeightPixels is the expected timing mark height.
func (g Geometry) TimingMarkHeightPixels() float64 { return g.px(g.TimingMarkHeight) }

// HorizontalCenterToCenter is the distance between the centers of
// horizontally adjacent timing marks.
func (g Geometry) HorizontalCenterToCenter() float64 {
	return g.px(g.HorizontalSpacing + g.TimingMarkWidth)
}

// VerticalCenterToCenter is the distance between the centers of vertically
// adjacent timing marks.
func (g Geometry) VerticalCenterToCenter() float64 {
	return g.px(g.VerticalSpacing + g.TimingMarkHeight)
}

// LeftToRightCenterToCenter is the distance between the centers of a left
// border mark and the matching right border mark.
func (g Geometry) LeftToRightCenterToCenter() float64 {
	return g.px((g.HorizontalSpacing + g.TimingMarkWidth) * float64(g.GridSize.Width-1))
}

// TopToBottomCenterToCenter is the distance between the centers of a top
// border mark and the matching bottom border mark.
func (g Geometry) TopToBottomCenterToCenter() float64 {
	return g.px((g.VerticalSpacing + g.TimingMarkHeight) * float64(g.GridSize.Height-1))
}

// CouldBeTimingMark reports whether a rectangle is within tolerance of the
// expected timing mark size.
func (g Geometry) CouldBeTimingMark(r geometry.Rect) bool {
	w, h := g.TimingMarkWidthPixels(), g.TimingMarkHeightPixels()
	minW, maxW := int(math.Floor(w*0.75)), int(math.Round(w*1.5))
	minH, maxH := int(math.Floor(h*0.75)), int(math.Round(h*1.5))
	return r.Width >= minW && r.Width <= maxW && r.Height >= minH && r.Height <= maxH
}

// Ranges of relative size error accepted by MatchImageSize. Width varies
// little since it is across the scan direction; height can stretch.
const (
	minWidthError  = -0.05
	maxWidthError  = 0.05
	minHeightError = -0.05
	maxHeightError = 0.15
)

// MatchImageSize picks the paper whose canvas best matches an image of the
// given size, preferring the smallest height error.
func MatchImageSize(width, height int, candidates []Info) (Info, bool) {
	var (
		best      Info
		bestError float64
		found     bool
	)
	for _, info := range candidates {
		g := info.ComputeGeometry()
		ew, eh := g.CanvasWidthPixels(), g.CanvasHeightPixels()
		widthError := (float64(width) - ew) / ew
		heightError := (float64(height) - eh) / eh
		if widthError < minWidthError || widthError >= maxWidthError {
			continue
		}
		if heightError < minHeightError || heightError >= maxHeightError {
			continue
		}
		if !found || heightError < bestError {
			best, bestError, found = info, heightError, true
		}
	}
	return best, found
}
