package interpret

import (
	"fmt"
	"log/slog"

	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
	"github.com/ironsheep/ballot-interpreter/internal/orientation"
	"github.com/ironsheep/ballot-interpreter/internal/qrcode"
	"github.com/ironsheep/ballot-interpreter/internal/timingmark"
)

// PageMetadata is the identity read from one side. Exactly one of QRCode
// and TimingMarks is set.
type PageMetadata struct {
	QRCode      *metadata.QRMetadata        `json:"qrCode,omitempty"`
	TimingMarks metadata.TimingMarkMetadata `json:"timingMarks,omitempty"`

	// Inferred is set when this side's QR code could not be read and its
	// metadata was derived from the other side.
	Inferred bool `json:"inferred,omitempty"`
}

// cardMetadata is what the two sides say about the card as a whole.
type cardMetadata struct {
	ballotStyleID string
	precinctID    string
	sheetNumber   int
	pages         [2]PageMetadata
	orientations  [2]orientation.Orientation
	// front is the index of the side that is the front of the sheet
	front int
}

var labels = [2]string{SideALabel, SideBLabel}

// ReadQRCode finds and decodes the QR code on one side.
func ReadQRCode(p *Page, e *election.Election) (metadata.QRMetadata, orientation.Orientation, error) {
	detected, err := qrcode.Detect(p.Image)
	if err != nil {
		return metadata.QRMetadata{}, "", err
	}
	md, err := metadata.DecodeQR(detected.Bytes, e)
	if err != nil {
		return metadata.QRMetadata{}, "", err
	}
	return md, orientation.FromQRCode(detected), nil
}

func qrCardMetadata(pages [2]*Page, opts Options, log *slog.Logger) (cardMetadata, error) {
	type read struct {
		md metadata.QRMetadata
		o  orientation.Orientation
	}
	reads, errs := pair(pages[0], pages[1], func(p *Page) (read, error) {
		md, o, err := ReadQRCode(p, opts.Election)
		return read{md, o}, err
	})

	var card cardMetadata
	switch {
	case errs[0] != nil && errs[1] != nil:
		return card, &Error{Kind: KindInvalidQRCodeMetadata, Label: SideALabel, Err: errs[0]}
	case errs[0] != nil || errs[1] != nil:
		missing := 0
		if errs[1] != nil {
			missing = 1
		}
		found := 1 - missing
		log.Warn("inferring metadata for side without a readable QR code",
			"label", labels[missing], "error", errs[missing])
		reads[missing] = read{
			md: metadata.InferMissingPageMetadata(reads[found].md),
			o:  reads[found].o,
		}
		card.pages[missing].Inferred = true
	}

	a, b := reads[0].md, reads[1].md
	if a.PrecinctID != b.PrecinctID {
		return card, &Error{Kind: KindMismatchedPrecincts, Values: []string{a.PrecinctID, b.PrecinctID}}
	}
	if a.BallotStyleID != b.BallotStyleID {
		return card, &Error{Kind: KindMismatchedBallotStyles, Values: []string{a.BallotStyleID, b.BallotStyleID}}
	}
	if a.PageNumber.Opposite() != b.PageNumber {
		return card, &Error{
			Kind:   KindNonConsecutivePageNumbers,
			Values: []string{fmt.Sprint(a.PageNumber), fmt.Sprint(b.PageNumber)},
		}
	}

	for i := range reads {
		md := reads[i].md
		card.pages[i].QRCode = &md
		card.orientations[i] = reads[i].o
	}
	card.ballotStyleID = a.BallotStyleID
	card.precinctID = a.PrecinctID
	card.sheetNumber = a.PageNumber.SheetNumber()
	if !a.PageNumber.IsFront() {
		card.front = 1
	}
	return card, nil
}

func timingMarkCardMetadata(pages [2]*Page, grids [2]*timingmark.Grid, opts Options) (cardMetadata, error) {
	enc := opts.MetadataEncoding()
	results, errs := pair(0, 1, func(i int) (orientation.TimingMarkResult, error) {
		return orientation.FromTimingMarks(pages[i].Image, pages[i].Threshold, grids[i], enc)
	})

	var card cardMetadata
	for i, err := range errs {
		if err != nil {
			return card, &Error{Kind: KindInvalidCardMetadata, Label: labels[i], Err: err}
		}
	}

	var front metadata.Front
	switch a, b := results[0].Metadata, results[1].Metadata; {
	case a.Side() == election.Front && b.Side() == election.Back:
		front = a.(metadata.Front)
	case a.Side() == election.Back && b.Side() == election.Front:
		front = b.(metadata.Front)
		card.front = 1
	default:
		return card, &Error{
			Kind:    KindInvalidCardMetadata,
			Values:  []string{string(a.Side()), string(b.Side())},
			Message: "expected one front and one back",
		}
	}

	for i, r := range results {
		card.pages[i].TimingMarks = r.Metadata
		card.orientations[i] = r.Orientation
	}
	card.ballotStyleID = election.TimingMarkBallotStyleID(front.CardNumber)
	if p, ok := opts.Election.PrecinctAt(front.BatchOrPrecinctNumber); ok {
		card.precinctID = p.ID
	}
	card.sheetNumber = 1
	return card, nil
}
