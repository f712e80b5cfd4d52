package interpret

import (
	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/scoring"
	"github.com/ironsheep/ballot-interpreter/internal/timingmark"
)

// OptionLayout is where an option was printed on the page.
type OptionLayout struct {
	OptionID string        `json:"optionId"`
	Bounds   geometry.Rect `json:"bounds"`
}

// ContestLayout is the pixel region covered by a contest's options.
type ContestLayout struct {
	ContestID string         `json:"contestId"`
	Bounds    geometry.Rect  `json:"bounds"`
	Options   []OptionLayout `json:"options"`
}

// ContestLayouts maps each contest's positions onto the page. Bubbles take
// the template's size and write-ins also cover their area. Contests are
// listed in order of first appearance. It returns false if any position
// lies outside the grid.
func ContestLayouts(grid *timingmark.Grid, positions []election.GridPosition, bubbleWidth, bubbleHeight int) ([]ContestLayout, bool) {
	var layouts []ContestLayout
	index := map[string]int{}

	for _, p := range positions {
		center, ok := grid.PointForLocation(p.Column, p.Row)
		if !ok {
			return nil, false
		}
		bounds := scoring.ExpectedBounds(center, bubbleWidth, bubbleHeight)
		if a := p.WriteInArea; p.Type == election.PositionWriteIn && a != nil {
			quad, ok := grid.QuadForArea(a.X, a.Y, a.Width, a.Height)
			if !ok {
				return nil, false
			}
			bounds = bounds.Union(quad.Bounds())
		}

		i, seen := index[p.ContestID]
		if !seen {
			i = len(layouts)
			index[p.ContestID] = i
			layouts = append(layouts, ContestLayout{ContestID: p.ContestID, Bounds: bounds})
		}
		c := &layouts[i]
		c.Bounds = c.Bounds.Union(bounds)
		c.Options = append(c.Options, OptionLayout{OptionID: p.ID(), Bounds: bounds})
	}
	return layouts, true
}
