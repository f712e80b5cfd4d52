package timingmark

import (
	"fmt"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
)

// Border identifies one edge of the timing mark grid.
type Border int

const (
	Top Border = iota
	Bottom
	Left
	Right
)

// Borders lists every border in a stable order.
var Borders = [4]Border{Top, Bottom, Left, Right}

func (b Border) String() string {
	switch b {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Border(%d)", int(b))
}

// MarshalText implements encoding.TextMarshaler.
func (b Border) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// ParseBorder is the inverse of Border.String.
func ParseBorder(s string) (Border, error) {
	for _, b := range Borders {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown border %q", s)
}

// IsHorizontal reports whether the border runs left to right.
func (b Border) IsHorizontal() bool {
	return b == Top || b == Bottom
}

// ExpectedAngle is the direction of the border line in radians.
func (b Border) ExpectedAngle() float64 {
	if b.IsHorizontal() {
		return 0
	}
	return geometry.Degrees(90)
}

// Axis distinguishes pairs of opposing borders.
type Axis int

const (
	// Horizontal measures between the left and right borders.
	Horizontal Axis = iota
	// Vertical measures between the top and bottom borders.
	Vertical
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Scores rates how much a candidate looks like a printed timing mark. Both
// values are in [0, 1].
type Scores struct {
	// Mark is the fraction of the candidate's pixels that are ink.
	Mark float64 `json:"mark"`

	// Padding is the fraction of the gaps beside the candidate, along its
	// border, that are free of ink.
	Padding float64 `json:"padding"`
}

// Mean averages the two scores.
func (s Scores) Mean() float64 {
	return (s.Mark + s.Padding) / 2
}

// Passes reports whether both scores reach their minimums.
func (s Scores) Passes(minMark, minPadding float64) bool {
	return s.Mark >= minMark && s.Padding >= minPadding
}

// CandidateTimingMark is a scored region that might be a timing mark.
type CandidateTimingMark struct {
	Rect   geometry.Rect `json:"rect"`
	Scores Scores        `json:"scores"`
}

// Center returns the center of the candidate's rectangle.
func (c CandidateTimingMark) Center() geometry.Point {
	return c.Rect.Center()
}

// position is the coordinate along the border direction.
func position(b Border, c CandidateTimingMark) int {
	if b.IsHorizontal() {
		return c.Rect.Left
	}
	return c.Rect.Top
}
