package interpret

import (
	"image"

	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
	"github.com/ironsheep/ballot-interpreter/internal/orientation"
	"github.com/ironsheep/ballot-interpreter/internal/qrcode"
	"github.com/ironsheep/ballot-interpreter/internal/timingmark"
)

// PageTimingMarks is the timing mark search on a single prepared page.
type PageTimingMarks struct {
	Page   *Page             `json:"page"`
	Report timingmark.Report `json:"timingMarks"`
	Grid   *timingmark.Grid  `json:"-"`
}

// InspectTimingMarks prepares img and reports the grid search on it. A
// failed search is not an error; see Report.Error.
func InspectTimingMarks(label string, img *image.Gray, opts Options) (PageTimingMarks, error) {
	page, err := PreparePage(label, img, opts.PaperSizes(), opts.logger())
	if err != nil {
		return PageTimingMarks{}, err
	}
	report, grid := timingmark.Analyze(page.Image, page.Threshold, page.Geometry, opts.TimingMarkOptions())
	return PageTimingMarks{Page: page, Report: report, Grid: grid}, nil
}

// PageTimingMarkMetadata is the metadata decoded from one page's timing marks.
type PageTimingMarkMetadata struct {
	Label       string                      `json:"label"`
	Side        election.Side               `json:"side"`
	Orientation orientation.Orientation     `json:"orientation"`
	Metadata    metadata.TimingMarkMetadata `json:"metadata"`
	BottomRow   metadata.BitString          `json:"bottomRow"`
}

// DecodeTimingMarkMetadata reads the timing mark metadata of a single page
// regardless of the election's metadata encoding.
func DecodeTimingMarkMetadata(label string, img *image.Gray, opts Options) (PageTimingMarkMetadata, error) {
	page, err := PreparePage(label, img, opts.PaperSizes(), opts.logger())
	if err != nil {
		return PageTimingMarkMetadata{}, err
	}

	tmOpts := opts.TimingMarkOptions()
	tmOpts.MetadataBorders = true
	grid, err := timingmark.FindGrid(page.Image, page.Threshold, page.Geometry, tmOpts)
	if err != nil {
		return PageTimingMarkMetadata{}, &Error{Kind: KindMissingTimingMarks, Label: label, Err: err}
	}

	res, err := orientation.FromTimingMarks(page.Image, page.Threshold, grid, opts.MetadataEncoding())
	if err != nil {
		return PageTimingMarkMetadata{}, &Error{Kind: KindInvalidCardMetadata, Label: label, Err: err}
	}
	return PageTimingMarkMetadata{
		Label:       label,
		Side:        res.Metadata.Side(),
		Orientation: res.Orientation,
		Metadata:    res.Metadata,
		BottomRow:   grid.BottomPresence(page.Image, page.Threshold),
	}, nil
}

// PageQRCode is the QR code found on one page.
type PageQRCode struct {
	Label       string                  `json:"label"`
	Data        []byte                  `json:"data"`
	Bounds      image.Rectangle         `json:"bounds"`
	Region      qrcode.Region           `json:"region"`
	Orientation orientation.Orientation `json:"orientation"`

	// Metadata is set when an election was given and the data decoded
	// against it. DecodeError holds the failure otherwise.
	Metadata    *metadata.QRMetadata `json:"metadata,omitempty"`
	DecodeError string               `json:"decodeError,omitempty"`
}

// InspectQRCode finds the QR code on img without preparing the page. When e
// is not nil the payload is decoded as ballot metadata; a payload that does
// not decode is reported, not returned as an error.
func InspectQRCode(label string, img image.Image, e *election.Election) (PageQRCode, error) {
	detected, err := qrcode.Detect(img)
	if err != nil {
		return PageQRCode{}, err
	}
	out := PageQRCode{
		Label:       label,
		Data:        detected.Bytes,
		Bounds:      detected.Bounds,
		Region:      detected.Region,
		Orientation: orientation.FromQRCode(detected),
	}
	if e != nil {
		md, err := metadata.DecodeQR(detected.Bytes, e)
		if err != nil {
			out.DecodeError = err.Error()
		} else {
			out.Metadata = &md
		}
	}
	return out, nil
}
