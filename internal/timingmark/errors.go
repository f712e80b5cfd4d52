package timingmark

import (
	"fmt"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// BorderNotFoundError reports that no line along a border passed through
// the expected number of acceptable candidates. Segments lists every line
// that was tried.
type BorderNotFoundError struct {
	Border   Border             `json:"border"`
	Expected int                `json:"expected"`
	Segments []geometry.Segment `json:"segments"`
}

func (e *BorderNotFoundError) Error() string {
	return fmt.Sprintf("no %s border with %d timing marks found (%d lines tried)",
		e.Border, e.Expected, len(e.Segments))
}

// GridErrorReason classifies a grid assembly failure.
type GridErrorReason string

const (
	ReasonWrongMarkCount   GridErrorReason = "wrong-mark-count"
	ReasonMissingCorner    GridErrorReason = "missing-corner"
	ReasonCornerMismatch   GridErrorReason = "corner-mismatch"
	ReasonDegenerateBorder GridErrorReason = "degenerate-border"
)

// GridError reports why four borders could not be assembled into a grid.
type GridError struct {
	Reason   GridErrorReason `json:"reason"`
	Border   Border          `json:"border"`
	Expected int             `json:"expected,omitempty"`
	Actual   int             `json:"actual,omitempty"`
}

func (e *GridError) Error() string {
	switch e.Reason {
	case ReasonWrongMarkCount:
		return fmt.Sprintf("%s border has %d timing marks, expected %d", e.Border, e.Actual, e.Expected)
	case ReasonMissingCorner:
		return fmt.Sprintf("%s border has no corner timing mark", e.Border)
	case ReasonCornerMismatch:
		return fmt.Sprintf("%s border corner marks do not match the adjacent borders", e.Border)
	}
	return fmt.Sprintf("%s border is degenerate", e.Border)
}
