package interpret

import (
	"log/slog"

	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
	"github.com/ironsheep/ballot-interpreter/internal/scoring"
	"github.com/ironsheep/ballot-interpreter/internal/timingmark"
)

// Labels identify the two input images before front and back are known.
const (
	SideALabel = "side A"
	SideBLabel = "side B"
)

// Options configures Interpret.
type Options struct {
	Election *election.Election

	// BubbleTemplate is matched against every bubble. Nil uses the
	// prepared default template.
	BubbleTemplate *scoring.Template

	// Papers lists the paper sizes scans may be printed on. Nil allows
	// every supported size.
	Papers []paper.Info

	VerticalStreakDetection bool
	ScoreWriteIns           bool

	// MinimumDetectedScale rejects sides whose left to right timing mark
	// distance is scaled below it. Zero disables the check.
	MinimumDetectedScale float64

	TimingMarks timingmark.Options
	Scoring     scoring.Options

	// Encoding describes timing mark metadata for elections that use it.
	Encoding metadata.Encoding

	Logger *slog.Logger
}

// DefaultOptions returns options for interpreting ballots of e.
func DefaultOptions(e *election.Election) Options {
	return Options{
		Election:    e,
		TimingMarks: timingmark.DefaultOptions(),
		Scoring:     scoring.DefaultOptions(),
		Encoding:    metadata.AccuvoteEncoding,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// PaperSizes returns the paper sizes scans are matched against.
func (o Options) PaperSizes() []paper.Info {
	if o.Papers != nil {
		return o.Papers
	}
	return paper.ScannedAll()
}

func (o Options) template() *scoring.Template {
	if o.BubbleTemplate != nil {
		return o.BubbleTemplate
	}
	return defaultTemplate
}

var defaultTemplate = scoring.PrepareTemplate(scoring.DefaultBubbleTemplate())

func (o Options) usesTimingMarkMetadata() bool {
	return o.Election != nil && o.Election.BallotLayout.MetadataEncoding == election.EncodingTimingMarks
}

// TimingMarkOptions returns the grid search options with thresholds
// defaulted and metadata borders always enabled for timing mark elections.
func (o Options) TimingMarkOptions() timingmark.Options {
	opts := o.TimingMarks
	if opts.Thresholds == (timingmark.Thresholds{}) {
		opts.Thresholds = timingmark.DefaultThresholds()
	}
	opts.MetadataBorders = opts.MetadataBorders || o.usesTimingMarkMetadata()
	if opts.Logger == nil {
		opts.Logger = o.Logger
	}
	return opts
}

// MetadataEncoding returns Encoding, or the Accuvote encoding when unset.
func (o Options) MetadataEncoding() metadata.Encoding {
	if len(o.Encoding.EnderCode) == 0 {
		return metadata.AccuvoteEncoding
	}
	return o.Encoding
}
