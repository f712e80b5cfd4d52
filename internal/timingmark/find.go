package timingmark

import (
	"errors"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

// Strategy names how a border's marks were found.
type Strategy string

const (
	StrategyExact      Strategy = "exact"
	StrategyBestEffort Strategy = "best-effort"
	StrategyInferred   Strategy = "inferred"
)

// Options configures FindGrid.
type Options struct {
	Thresholds Thresholds

	// BestEffort retries a border with FindBestFitBestEffort when the exact
	// search fails.
	BestEffort bool

	// MetadataBorders marks the top and bottom borders as carrying data in
	// the presence or absence of marks. A horizontal border that fails the
	// exact search has its marks inferred at every expected position between
	// the corner marks of the side borders.
	MetadataBorders bool

	// Logger receives search diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the exact search with default thresholds.
func DefaultOptions() Options {
	return Options{Thresholds: DefaultThresholds()}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// BorderSearch is the outcome of searching one border.
type BorderSearch struct {
	Border     Border                `json:"border"`
	Expected   int                   `json:"expected"`
	Candidates []CandidateTimingMark `json:"candidates"`
	Strategy   Strategy              `json:"strategy,omitempty"`
	Fit        BestFit               `json:"fit"`
	Err        error                 `json:"-"`
}

// ExpectedMarkCount is the number of marks on border b.
func ExpectedMarkCount(g paper.Geometry, b Border) int {
	if b.IsHorizontal() {
		return g.GridSize.Width
	}
	return g.GridSize.Height
}

// SearchBorders extracts candidates and runs the best-fit search for each
// border concurrently. Results are indexed like Borders.
func SearchBorders(img *image.Gray, threshold uint8, g paper.Geometry, opts Options) [4]BorderSearch {
	log := opts.logger()
	var results [4]BorderSearch

	var eg errgroup.Group
	for i, b := range Borders {
		eg.Go(func() error {
			results[i] = searchBorder(img, threshold, g, b, opts, log)
			return nil
		})
	}
	_ = eg.Wait()

	if opts.MetadataBorders {
		left, right := results[2], results[3]
		for _, i := range []int{0, 1} {
			if results[i].Strategy == StrategyExact && results[i].Err == nil {
				continue
			}
			results[i] = inferMetadataBorder(img, threshold, g, results[i], left, right, log)
		}
	}
	return results
}

func searchBorder(img *image.Gray, threshold uint8, g paper.Geometry, b Border, opts Options, log *slog.Logger) BorderSearch {
	s := BorderSearch{
		Border:     b,
		Expected:   ExpectedMarkCount(g, b),
		Candidates: ExtractCandidates(img, threshold, g, b),
	}

	s.Fit, s.Err = FindBestFit(b, s.Candidates, s.Expected, opts.Thresholds)
	s.Strategy = StrategyExact

	if s.Err != nil && opts.MetadataBorders && b.IsHorizontal() {
		// the row carries data; the marks found seed the inference
		s.Fit, s.Err = FindBestFitBestEffort(b, s.Candidates, s.Expected, opts.Thresholds)
		s.Strategy = StrategyBestEffort
		return s
	}
	if s.Err != nil && opts.BestEffort {
		log.Warn("exact border search failed, falling back to best effort",
			"border", b, "candidates", len(s.Candidates), "error", s.Err)
		s.Fit, s.Err = FindBestFitBestEffort(b, s.Candidates, s.Expected, opts.Thresholds)
		s.Strategy = StrategyBestEffort
	}
	if s.Err == nil {
		log.Debug("border found", "border", b, "strategy", s.Strategy, "marks", len(s.Fit.Marks))
	}
	return s
}

// inferMetadataBorder fills in every expected position of horizontal border
// s, walking between the matching corner marks of the side borders.
func inferMetadataBorder(img *image.Gray, threshold uint8, g paper.Geometry, s, left, right BorderSearch, log *slog.Logger) BorderSearch {
	if left.Err != nil || right.Err != nil {
		// the side border errors are reported on their own
		return s
	}

	pick := func(marks []CandidateTimingMark) CandidateTimingMark {
		if s.Border == Top {
			return marks[0]
		}
		return marks[len(marks)-1]
	}
	start, end := pick(left.Fit.Marks), pick(right.Fit.Marks)

	var existing []CandidateTimingMark
	if s.Err == nil {
		existing = s.Fit.Marks
	}
	existing = append([]CandidateTimingMark{start, end}, existing...)

	seg := geometry.Seg(start.Center(), end.Center())
	marks := InferMissingMarks(img, threshold, g, s.Border, seg, existing, g.HorizontalCenterToCenter(), s.Expected)
	log.Debug("inferred metadata border", "border", s.Border, "found", len(s.Fit.Marks), "marks", len(marks))

	s.Fit = BestFit{Border: s.Border, Segment: seg, Marks: marks}
	s.Strategy = StrategyInferred
	s.Err = nil
	return s
}

// FindGrid locates the four borders of img and assembles them into a grid.
// Border failures are joined in Borders order.
func FindGrid(img *image.Gray, threshold uint8, g paper.Geometry, opts Options) (*Grid, error) {
	results := SearchBorders(img, threshold, g, opts)
	return GridFromSearches(g, results)
}

// GridFromSearches assembles the results of SearchBorders.
func GridFromSearches(g paper.Geometry, results [4]BorderSearch) (*Grid, error) {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return AssembleGrid(g, results[0].Fit, results[1].Fit, results[2].Fit, results[3].Fit)
}
