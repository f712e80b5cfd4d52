package interpret

import (
	"fmt"
	"image"

	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/orientation"
	"github.com/ironsheep/ballot-interpreter/internal/scoring"
	"github.com/ironsheep/ballot-interpreter/internal/timingmark"
)

// InterpretedPage is the result for one side of a card.
type InterpretedPage struct {
	Label          string                       `json:"label"`
	Side           election.Side                `json:"side"`
	Grid           *timingmark.Grid             `json:"grid"`
	Metadata       PageMetadata                 `json:"metadata"`
	Orientation    orientation.Orientation      `json:"orientation"`
	Marks          []scoring.ScoredPosition     `json:"marks"`
	WriteIns       []scoring.ScoredPositionArea `json:"writeIns,omitempty"`
	ContestLayouts []ContestLayout              `json:"contestLayouts"`

	// NormalizedImage is the upright page binarized at its threshold.
	NormalizedImage *image.Gray `json:"-"`
}

// InterpretedCard is the result for a whole sheet.
type InterpretedCard struct {
	BallotStyleID string          `json:"ballotStyleId"`
	PrecinctID    string          `json:"precinctId,omitempty"`
	SheetNumber   int             `json:"sheetNumber"`
	Front         InterpretedPage `json:"front"`
	Back          InterpretedPage `json:"back"`
}

type labeled struct {
	label string
	img   *image.Gray
}

// Interpret reads both sides of a ballot card. sideA and sideB may be given
// in either order and either way up.
func Interpret(sideA, sideB *image.Gray, opts Options) (*InterpretedCard, error) {
	log := opts.logger()
	if opts.Election == nil {
		return nil, &Error{Kind: KindInvalidElection, Message: "no election definition"}
	}

	prepared, errs := pair(labeled{SideALabel, sideA}, labeled{SideBLabel, sideB}, func(l labeled) (*Page, error) {
		return PreparePage(l.label, l.img, opts.PaperSizes(), log)
	})
	if err := firstError(errs); err != nil {
		return nil, err
	}
	pages := [2]*Page{prepared[0], prepared[1]}

	if pages[0].Geometry != pages[1].Geometry {
		return nil, &Error{
			Kind:   KindMismatchedBallotCardGeometries,
			Values: []string{string(pages[0].Paper.Size), string(pages[1].Paper.Size)},
		}
	}

	if opts.VerticalStreakDetection {
		for _, p := range pages {
			if xs := imaging.DetectVerticalStreaks(p.Image, p.Threshold); len(xs) > 0 {
				return nil, &Error{Kind: KindVerticalStreaksDetected, Label: p.Label, XCoordinates: xs}
			}
		}
	}

	tmOpts := opts.TimingMarkOptions()
	grids, errs := pair(pages[0], pages[1], func(p *Page) (*timingmark.Grid, error) {
		grid, err := timingmark.FindGrid(p.Image, p.Threshold, p.Geometry, tmOpts)
		if err != nil {
			return nil, &Error{Kind: KindMissingTimingMarks, Label: p.Label, Err: err}
		}
		return grid, nil
	})
	if err := firstError(errs); err != nil {
		return nil, err
	}

	if opts.MinimumDetectedScale > 0 {
		for i, grid := range grids {
			scale, ok := grid.ScaleForAxis(timingmark.Horizontal)
			if ok && scale < opts.MinimumDetectedScale {
				return nil, &Error{Kind: KindInvalidScale, Label: labels[i], Scale: scale}
			}
		}
	}

	var (
		card cardMetadata
		err  error
	)
	if opts.usesTimingMarkMetadata() {
		card, err = timingMarkCardMetadata(pages, grids, opts)
	} else {
		card, err = qrCardMetadata(pages, opts, log)
	}
	if err != nil {
		return nil, err
	}

	normalized, errs := pair(0, 1, func(i int) (orientation.Page, error) {
		p := orientation.Page{Image: pages[i].Image, Threshold: pages[i].Threshold, Grid: grids[i]}
		if card.orientations[i] == orientation.PortraitReversed {
			log.Info("rotating upside down page", "label", labels[i])
		}
		out, err := orientation.Normalize(p, card.orientations[i], pages[i].Geometry, tmOpts)
		if err != nil {
			return out, &Error{Kind: KindMissingTimingMarks, Label: labels[i], Err: err}
		}
		return out, nil
	})
	if err := firstError(errs); err != nil {
		return nil, err
	}

	if len(opts.Election.GridLayouts) == 0 {
		return nil, &Error{Kind: KindInvalidElection, Message: "election has no grid layouts"}
	}
	layout, ok := opts.Election.GridLayout(card.ballotStyleID)
	if !ok {
		return nil, &Error{Kind: KindMissingGridLayout, BallotStyleID: card.ballotStyleID}
	}

	order := [2]int{card.front, 1 - card.front}
	sides := [2]election.Side{election.Front, election.Back}
	tmpl := opts.template()

	results, errs := pair(0, 1, func(j int) (InterpretedPage, error) {
		i, side := order[j], sides[j]
		page := normalized[i]
		positions := layout.PositionsFor(card.sheetNumber, side)

		w, h := tmpl.Size()
		contests, ok := ContestLayouts(page.Grid, positions, w, h)
		if !ok {
			return InterpretedPage{}, &Error{Kind: KindCouldNotComputeLayout, Label: labels[i], Side: side}
		}

		out := InterpretedPage{
			Label:           labels[i],
			Side:            side,
			Grid:            page.Grid,
			Metadata:        card.pages[i],
			Orientation:     card.orientations[i],
			Marks:           scoring.ScoreBubbleMarks(page.Image, page.Threshold, tmpl, page.Grid, positions, opts.Scoring),
			ContestLayouts:  contests,
			NormalizedImage: imaging.Binarize(page.Image, page.Threshold),
		}
		if opts.ScoreWriteIns {
			out.WriteIns = scoring.ScoreWriteInAreas(page.Image, page.Threshold, page.Grid, positions)
		}
		log.Debug("scored page", "label", out.Label, "side", side,
			"positions", len(positions), "marks", len(out.Marks), "writeIns", len(out.WriteIns))
		return out, nil
	})
	if err := firstError(errs); err != nil {
		return nil, err
	}

	return &InterpretedCard{
		BallotStyleID: card.ballotStyleID,
		PrecinctID:    card.precinctID,
		SheetNumber:   card.sheetNumber,
		Front:         results[0],
		Back:          results[1],
	}, nil
}

// InterpretFiles loads two scans and interprets them.
func InterpretFiles(sideAPath, sideBPath string, opts Options) (*InterpretedCard, error) {
	paths := [2]string{sideAPath, sideBPath}
	imgs, errs := pair(0, 1, func(i int) (*image.Gray, error) {
		img, err := imaging.LoadGray(paths[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", labels[i], err)
		}
		return img, nil
	})
	if err := firstError(errs); err != nil {
		return nil, err
	}
	return Interpret(imgs[0], imgs[1], opts)
}
