package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/ballot-interpreter/internal/ballottest"
	"github.com/ironsheep/ballot-interpreter/internal/paper"
)

const testElection = "../../internal/election/testdata/election.json"

func writeCard(t *testing.T, c ballottest.Card) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, c.Render()); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func runArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_Version(t *testing.T) {
	out, err := runArgs(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "ballot-interpreter "+Version) {
		t.Errorf("output: got %q", out)
	}
}

func TestRun_MissingSubcommand(t *testing.T) {
	if _, err := runArgs(t); err == nil {
		t.Fatal("expected error without a subcommand")
	}
}

func TestRun_TimingMarks(t *testing.T) {
	path := writeCard(t, ballottest.Card{})

	out, err := runArgs(t, "timing-marks", "--log-level", "error", path)
	if err != nil {
		t.Fatalf("timing-marks: %v", err)
	}

	var got struct {
		Page struct {
			Paper struct {
				Size string `json:"size"`
			} `json:"paper"`
		} `json:"page"`
		TimingMarks struct {
			Corners *struct{} `json:"corners"`
		} `json:"timingMarks"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Page.Paper.Size != "letter" {
		t.Errorf("paper: got %q", got.Page.Paper.Size)
	}
	if got.TimingMarks.Corners == nil {
		t.Error("expected grid corners")
	}
}

func TestRun_TimingMarks_WrongArgs(t *testing.T) {
	if _, err := runArgs(t, "timing-marks"); err == nil {
		t.Fatal("expected error without an image")
	}
}

func TestRun_PaperFromEnvironment(t *testing.T) {
	path := writeCard(t, ballottest.Card{})
	t.Setenv("BALLOT_INTERPRETER_PAPER", "tabloid")

	_, err := runArgs(t, "timing-marks", path)
	if err == nil || !strings.Contains(err.Error(), "unknown paper size") {
		t.Fatalf("expected paper size error, got %v", err)
	}
}

func TestRun_InterpretRequiresElection(t *testing.T) {
	path := writeCard(t, ballottest.Card{})
	_, err := runArgs(t, "interpret", path, path)
	if err == nil || !strings.Contains(err.Error(), "--election") {
		t.Fatalf("expected missing election error, got %v", err)
	}
}

func TestRun_InterpretReportsErrorKind(t *testing.T) {
	// no metadata in the bottom row
	path := writeCard(t, ballottest.Card{})
	out, err := runArgs(t, "interpret", "--election", testElection, path, path)
	if err == nil {
		t.Fatal("expected interpretation error")
	}

	var got struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Error.Type == "" {
		t.Errorf("error kind missing from %s", out)
	}
}

func TestConfig_Logger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "text", false},
		{"debug", "json", false},
		{"WARN", "JSON", false},
		{"loud", "text", true},
		{"info", "xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			c := newConfig()
			*c.logLevel, *c.logFormat = tt.level, tt.format
			log, err := c.logger(&bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && log == nil {
				t.Error("nil logger")
			}
		})
	}
}

func TestConfig_InterpretOptions(t *testing.T) {
	c := newConfig()
	*c.election = testElection
	*c.paper = "legal"
	*c.writeIns = true
	*c.bestEffort = true
	*c.minimumScale = 0.98

	opts, err := c.interpretOptions(nil, true)
	if err != nil {
		t.Fatalf("interpretOptions: %v", err)
	}
	if opts.Election == nil {
		t.Fatal("election not loaded")
	}
	if len(opts.Papers) != 1 || opts.Papers[0].Size != paper.Legal {
		t.Errorf("papers: got %+v", opts.Papers)
	}
	if !opts.ScoreWriteIns || !opts.TimingMarks.BestEffort || opts.MinimumDetectedScale != 0.98 {
		t.Errorf("flags not applied: %+v", opts)
	}

	*c.bubbleTemplate = "/nonexistent/template.png"
	if _, err := c.interpretOptions(nil, true); err == nil {
		t.Error("expected error for a missing bubble template")
	}
}
