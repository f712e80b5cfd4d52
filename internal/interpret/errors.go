package interpret

import (
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/ballot-interpreter/internal/election"
)

// ErrorKind classifies an interpretation failure.
type ErrorKind string

const (
	KindBorderInsetNotFound            ErrorKind = "border-inset-not-found"
	KindUnexpectedDimensions           ErrorKind = "unexpected-dimensions"
	KindMismatchedBallotCardGeometries ErrorKind = "mismatched-ballot-card-geometries"
	KindVerticalStreaksDetected        ErrorKind = "vertical-streaks-detected"
	KindMissingTimingMarks             ErrorKind = "missing-timing-marks"
	KindInvalidScale                   ErrorKind = "invalid-scale"
	KindInvalidCardMetadata            ErrorKind = "invalid-card-metadata"
	KindInvalidQRCodeMetadata          ErrorKind = "invalid-qr-code-metadata"
	KindMismatchedPrecincts            ErrorKind = "mismatched-precincts"
	KindMismatchedBallotStyles         ErrorKind = "mismatched-ballot-styles"
	KindNonConsecutivePageNumbers      ErrorKind = "non-consecutive-page-numbers"
	KindMissingGridLayout              ErrorKind = "missing-grid-layout"
	KindInvalidElection                ErrorKind = "invalid-election"
	KindCouldNotComputeLayout          ErrorKind = "could-not-compute-layout"
)

// Error is an interpretation failure. Only the fields relevant to Kind are
// set. Label names the side that failed, if any.
type Error struct {
	Kind          ErrorKind     `json:"type"`
	Label         string        `json:"label,omitempty"`
	Side          election.Side `json:"side,omitempty"`
	Dimensions    image.Point   `json:"dimensions,omitempty"`
	Scale         float64       `json:"scale,omitempty"`
	XCoordinates  []int         `json:"xCoordinates,omitempty"`
	BallotStyleID string        `json:"ballotStyleId,omitempty"`
	Values        []string      `json:"values,omitempty"`
	Message       string        `json:"message,omitempty"`
	Err           error         `json:"-"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Label != "" {
		fmt.Fprintf(&b, " on %s", e.Label)
	}
	switch e.Kind {
	case KindUnexpectedDimensions:
		fmt.Fprintf(&b, ": %dx%d", e.Dimensions.X, e.Dimensions.Y)
	case KindInvalidScale:
		fmt.Fprintf(&b, ": %.3f", e.Scale)
	case KindVerticalStreaksDetected:
		fmt.Fprintf(&b, " at x=%v", e.XCoordinates)
	case KindMissingGridLayout:
		fmt.Fprintf(&b, ": ballot style %q", e.BallotStyleID)
	case KindCouldNotComputeLayout:
		fmt.Fprintf(&b, ": %s", e.Side)
	}
	if len(e.Values) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Values, " vs "))
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }
