// Package orientation works out which way up a scanned ballot page is and
// turns upside down pages upright.
//
// Timing mark metadata is only valid when read from the physical bottom of
// a page, so a page whose bottom row fails to decode while its top row,
// read backwards, succeeds must have been scanned upside down. Pages with
// a QR code use the half of the page the code was found in instead.
package orientation

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
	"github.com/ironsheep/ballot-interpreter/internal/qrcode"
	"github.com/ironsheep/ballot-interpreter/internal/timingmark"
)

// Orientation is how a page was fed through the scanner.
type Orientation string

const (
	Portrait         Orientation = "portrait"
	PortraitReversed Orientation = "portrait-reversed"
)

// FromQRCode infers orientation from where the QR code was found. Upright
// pages carry it in their bottom half.
func FromQRCode(d qrcode.Detected) Orientation {
	if d.Region == qrcode.RegionTop {
		return PortraitReversed
	}
	return Portrait
}

// TimingMarkResult is the metadata read from a page's timing marks and the
// orientation it was read in.
type TimingMarkResult struct {
	Metadata    metadata.TimingMarkMetadata `json:"metadata"`
	Orientation Orientation                 `json:"orientation"`
}

// FromTimingMarks decodes the bottom row of grid. If that fails the top row
// is tried in reverse, which is where the bottom row of an upside down page
// ends up. When neither decodes the error for the upright reading is
// returned.
func FromTimingMarks(img *image.Gray, threshold uint8, grid *timingmark.Grid, enc metadata.Encoding) (TimingMarkResult, error) {
	md, err := metadata.DecodeBottomRow(enc, grid.BottomPresence(img, threshold))
	if err == nil {
		return TimingMarkResult{Metadata: md, Orientation: Portrait}, nil
	}
	var ambiguous *metadata.AmbiguousMetadataError
	if errors.As(err, &ambiguous) {
		return TimingMarkResult{}, err
	}

	top := timingmark.Presence(img, threshold, grid.TopMarks)
	slices.Reverse(top)
	if reversed, rerr := metadata.DecodeBottomRow(enc, top); rerr == nil {
		return TimingMarkResult{Metadata: reversed, Orientation: PortraitReversed}, nil
	}
	return TimingMarkResult{}, err
}

// Page is a prepared page image and the grid found on it.
type Page struct {
	Image     *image.Gray
	Threshold uint8
	Grid      *timingmark.Grid
}

// Normalize turns a PortraitReversed page upright. The grid is searched for
// again on the rotated pixels rather than rotated along with them.
func Normalize(p Page, o Orientation, g paper.Geometry, opts timingmark.Options) (Page, error) {
	if o != PortraitReversed {
		return p, nil
	}
	rotated := imaging.Rotate180(p.Image)
	grid, err := timingmark.FindGrid(rotated, p.Threshold, g, opts)
	if err != nil {
		return Page{}, fmt.Errorf("find timing marks after rotation: %w", err)
	}
	return Page{Image: rotated, Threshold: p.Threshold, Grid: grid}, nil
}
