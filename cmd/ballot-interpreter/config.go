package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/peterbourgon/ff/v4"

	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/interpret"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
	"github.com/ironsheep/ballot-interpreter/internal/scoring"
)

// envPrefix is prepended to upper-cased flag names to form environment
// variable names, e.g. BALLOT_INTERPRETER_ELECTION.
const envPrefix = "BALLOT_INTERPRETER"

// config holds the flags shared by every subcommand.
type config struct {
	fs *ff.FlagSet

	election       *string
	bubbleTemplate *string
	paper          *string
	streaks        *bool
	writeIns       *bool
	minimumScale   *float64
	bestEffort     *bool
	workers        *int
	logLevel       *string
	logFormat      *string
	configFile     *string
}

func newConfig() *config {
	fs := ff.NewFlagSet("ballot-interpreter")
	return &config{
		fs:             fs,
		election:       fs.StringLong("election", "", "election definition JSON file"),
		bubbleTemplate: fs.StringLong("bubble-template", "", "bubble template image (default: built in)"),
		paper:          fs.StringLong("paper", "auto", "only accept this paper size, or auto for any supported size"),
		streaks:        fs.BoolLong("vertical-streak-detection", "reject scans with vertical streaks"),
		writeIns:       fs.BoolLong("score-write-ins", "score write-in areas"),
		minimumScale:   fs.Float64Long("minimum-scale", 0, "reject sides scanned below this scale (0 disables)"),
		bestEffort:     fs.BoolLong("best-effort-borders", "retry failed borders with the best-effort search"),
		workers:        fs.IntLong("workers", 0, "bubble scoring workers per side (default: GOMAXPROCS)"),
		logLevel:       fs.StringLong("log-level", "info", "log level: debug, info, warn or error"),
		logFormat:      fs.StringLong("log-format", "text", "log format: text or json"),
		configFile:     fs.StringLong("config", "", "config file with one 'flag value' per line"),
	}
}

// parseOptions are the ff options every command is parsed with.
func parseOptions() []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix(envPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	}
}

func (c *config) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*c.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", *c.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(*c.logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", *c.logFormat)
}

// interpretOptions builds interpreter options from the flags. The election
// is loaded only when --election is set; requireElection makes it mandatory.
func (c *config) interpretOptions(log *slog.Logger, requireElection bool) (interpret.Options, error) {
	var e *election.Election
	switch {
	case *c.election != "":
		var err error
		if e, err = election.Load(*c.election); err != nil {
			return interpret.Options{}, err
		}
	case requireElection:
		return interpret.Options{}, fmt.Errorf("--election is required")
	}

	opts := interpret.DefaultOptions(e)
	opts.Logger = log
	opts.VerticalStreakDetection = *c.streaks
	opts.ScoreWriteIns = *c.writeIns
	opts.MinimumDetectedScale = *c.minimumScale
	opts.TimingMarks.BestEffort = *c.bestEffort
	opts.TimingMarks.Logger = log
	opts.Scoring.Workers = *c.workers

	if *c.bubbleTemplate != "" {
		tmpl, err := scoring.LoadTemplate(*c.bubbleTemplate)
		if err != nil {
			return interpret.Options{}, err
		}
		opts.BubbleTemplate = tmpl
	}

	if *c.paper != "" && *c.paper != "auto" {
		size, err := paper.ParseSize(*c.paper)
		if err != nil {
			return interpret.Options{}, err
		}
		opts.Papers = []paper.Info{paper.Scanned(size)}
	}
	return opts, nil
}
