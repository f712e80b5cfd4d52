package timingmark

import (
	"image"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// BorderReport summarizes the search along one border.
type BorderReport struct {
	Border     Border          `json:"border"`
	Expected   int             `json:"expected"`
	Candidates int             `json:"candidates"`
	Strategy   Strategy        `json:"strategy,omitempty"`
	Marks      []geometry.Rect `json:"marks"`
	Error      string          `json:"error,omitempty"`
}

// Corners are the centers of the four corner marks.
type Corners struct {
	TopLeft     geometry.Point `json:"topLeft"`
	TopRight    geometry.Point `json:"topRight"`
	BottomLeft  geometry.Point `json:"bottomLeft"`
	BottomRight geometry.Point `json:"bottomRight"`
}

// Report describes a grid search for display. Failed searches still report
// what each border found.
type Report struct {
	GridSize        paper.GridSize `json:"gridSize"`
	Borders         []BorderReport `json:"borders"`
	Corners         *Corners       `json:"corners,omitempty"`
	HorizontalScale float64        `json:"horizontalScale,omitempty"`
	VerticalScale   float64        `json:"verticalScale,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// Analyze searches img like FindGrid and reports the outcome of every
// border. The grid is nil when the search failed; Report.Error says why.
func Analyze(img *image.Gray, threshold uint8, g paper.Geometry, opts Options) (Report, *Grid) {
	searches := SearchBorders(img, threshold, g, opts)
	report := Report{GridSize: g.GridSize, Borders: make([]BorderReport, 0, len(searches))}
	for _, s := range searches {
		br := BorderReport{
			Border:     s.Border,
			Expected:   s.Expected,
			Candidates: len(s.Candidates),
			Strategy:   s.Strategy,
			Marks:      make([]geometry.Rect, len(s.Fit.Marks)),
		}
		for i, m := range s.Fit.Marks {
			br.Marks[i] = m.Rect
		}
		if s.Err != nil {
			br.Error = s.Err.Error()
		}
		report.Borders = append(report.Borders, br)
	}

	grid, err := GridFromSearches(g, searches)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}
	report.Corners = &Corners{
		TopLeft:     grid.TopLeftCorner,
		TopRight:    grid.TopRightCorner,
		BottomLeft:  grid.BottomLeftCorner,
		BottomRight: grid.BottomRightCorner,
	}
	report.HorizontalScale, _ = grid.ScaleForAxis(Horizontal)
	report.VerticalScale, _ = grid.ScaleForAxis(Vertical)
	return report, grid
}
