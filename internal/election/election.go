// Package election reads the parts of an election definition that ballot
// interpretation depends on: precincts, ballot styles, the paper layout and
// the grid position of every ballot option.
package election

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// MetadataEncoding names how a ballot card identifies itself.
type MetadataEncoding string

const (
	// EncodingQRCode cards carry a QR code with the page metadata.
	EncodingQRCode MetadataEncoding = "qr-code"
	// EncodingTimingMarks cards encode metadata in the bottom timing mark row.
	EncodingTimingMarks MetadataEncoding = "timing-marks"
)

// Election is an election definition.
type Election struct {
	Title        string        `json:"title"`
	Precincts    []Precinct    `json:"precincts"`
	BallotStyles []BallotStyle `json:"ballotStyles"`
	BallotLayout BallotLayout  `json:"ballotLayout"`
	GridLayouts  []GridLayout  `json:"gridLayouts,omitempty"`
}

// Precinct is a voting precinct.
type Precinct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BallotStyle is a ballot variant and the precincts that use it.
type BallotStyle struct {
	ID        string   `json:"id"`
	Precincts []string `json:"precincts"`
	Districts []string `json:"districts"`
}

// BallotLayout describes the printed cards.
type BallotLayout struct {
	PaperSize        paper.Size       `json:"paperSize"`
	MetadataEncoding MetadataEncoding `json:"metadataEncoding,omitempty"`
}

// Side is a face of a ballot sheet.
type Side string

const (
	Front Side = "front"
	Back  Side = "back"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Front {
		return Back
	}
	return Front
}

// GridPositionType distinguishes bubbles from write-in areas.
type GridPositionType string

const (
	PositionOption  GridPositionType = "option"
	PositionWriteIn GridPositionType = "write-in"
)

// GridRect is an area in grid units.
type GridRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// GridPosition places a contest option's bubble on the timing mark grid.
type GridPosition struct {
	Type         GridPositionType `json:"type"`
	SheetNumber  int              `json:"sheetNumber"`
	Side         Side             `json:"side"`
	Column       float64          `json:"column"`
	Row          float64          `json:"row"`
	ContestID    string           `json:"contestId"`
	OptionID     string           `json:"optionId,omitempty"`
	WriteInIndex int              `json:"writeInIndex,omitempty"`
	WriteInArea  *GridRect        `json:"writeInArea,omitempty"`
}

// ID identifies the option the position belongs to.
func (p GridPosition) ID() string {
	if p.Type == PositionWriteIn {
		return fmt.Sprintf("write-in-%d", p.WriteInIndex)
	}
	return p.OptionID
}

// GridLayout lists the grid positions of one ballot style.
type GridLayout struct {
	BallotStyleID string         `json:"ballotStyleId"`
	GridPositions []GridPosition `json:"gridPositions"`
}

// Load reads an election definition from a JSON file.
func Load(path string) (*Election, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open election: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads an election definition from JSON and validates it.
func Decode(r io.Reader) (*Election, error) {
	var e Election
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("failed to decode election: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Validate checks the references between precincts, styles and layouts.
func (e *Election) Validate() error {
	if e.BallotLayout.PaperSize == "" {
		e.BallotLayout.PaperSize = paper.Letter
	}
	if w, _ := e.BallotLayout.PaperSize.Dimensions(); w == 0 {
		return fmt.Errorf("invalid election: unknown paper size %q", e.BallotLayout.PaperSize)
	}
	switch e.BallotLayout.MetadataEncoding {
	case "":
		e.BallotLayout.MetadataEncoding = EncodingQRCode
	case EncodingQRCode, EncodingTimingMarks:
	default:
		return fmt.Errorf("invalid election: unknown metadata encoding %q", e.BallotLayout.MetadataEncoding)
	}

	precincts := make(map[string]bool, len(e.Precincts))
	for _, p := range e.Precincts {
		if precincts[p.ID] {
			return fmt.Errorf("invalid election: duplicate precinct %q", p.ID)
		}
		precincts[p.ID] = true
	}
	styles := make(map[string]bool, len(e.BallotStyles))
	for _, s := range e.BallotStyles {
		if styles[s.ID] {
			return fmt.Errorf("invalid election: duplicate ballot style %q", s.ID)
		}
		styles[s.ID] = true
		for _, p := range s.Precincts {
			if !precincts[p] {
				return fmt.Errorf("invalid election: ballot style %q references unknown precinct %q", s.ID, p)
			}
		}
	}
	for _, l := range e.GridLayouts {
		if !styles[l.BallotStyleID] {
			return fmt.Errorf("invalid election: grid layout references unknown ballot style %q", l.BallotStyleID)
		}
		for _, p := range l.GridPositions {
			if p.Side != Front && p.Side != Back {
				return fmt.Errorf("invalid election: grid position %q has side %q", p.ID(), p.Side)
			}
			if p.Type != PositionOption && p.Type != PositionWriteIn {
				return fmt.Errorf("invalid election: grid position %q has type %q", p.ID(), p.Type)
			}
		}
	}
	return nil
}

// PrecinctAt returns the precinct at index i.
func (e *Election) PrecinctAt(i int) (Precinct, bool) {
	if i < 0 || i >= len(e.Precincts) {
		return Precinct{}, false
	}
	return e.Precincts[i], true
}

// BallotStyleAt returns the ballot style at index i.
func (e *Election) BallotStyleAt(i int) (BallotStyle, bool) {
	if i < 0 || i >= len(e.BallotStyles) {
		return BallotStyle{}, false
	}
	return e.BallotStyles[i], true
}

// PrecinctIndex returns the index of the precinct with the given ID.
func (e *Election) PrecinctIndex(id string) (int, bool) {
	for i, p := range e.Precincts {
		if p.ID == id {
			return i, true
		}
	}
	return 0, false
}

// BallotStyleIndex returns the index of the ballot style with the given ID.
func (e *Election) BallotStyleIndex(id string) (int, bool) {
	for i, s := range e.BallotStyles {
		if s.ID == id {
			return i, true
		}
	}
	return 0, false
}

// GridLayout returns the layout of the given ballot style.
func (e *Election) GridLayout(ballotStyleID string) (*GridLayout, bool) {
	for i := range e.GridLayouts {
		if e.GridLayouts[i].BallotStyleID == ballotStyleID {
			return &e.GridLayouts[i], true
		}
	}
	return nil, false
}

// PositionsFor returns the grid positions printed on one side of a sheet.
func (l *GridLayout) PositionsFor(sheetNumber int, side Side) []GridPosition {
	var out []GridPosition
	for _, p := range l.GridPositions {
		if p.SheetNumber == sheetNumber && p.Side == side {
			out = append(out, p)
		}
	}
	return out
}

// TimingMarkBallotStyleID is the ballot style ID that a timing mark encoded
// card number refers to.
func TimingMarkBallotStyleID(cardNumber int) string {
	return fmt.Sprintf("card-number-%d", cardNumber)
}
