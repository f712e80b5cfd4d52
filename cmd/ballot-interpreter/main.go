package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/interpret"
	"github.com/ironsheep/ballot-interpreter/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			printVersion(os.Stdout)
			return
		}
	}

	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, ff.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ballot-interpreter %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
}

// run parses args and executes the selected command. Results go to stdout,
// logs to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := newConfig()
	root := newRootCommand(c, stdout, stderr)

	if err := root.Parse(args, parseOptions()...); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		return err
	}
	return root.Run(ctx)
}

func newRootCommand(c *config, stdout, stderr io.Writer) *ff.Command {
	// setup builds the logger and interpreter options once flags are parsed
	setup := func(requireElection bool) (*slog.Logger, interpret.Options, error) {
		log, err := c.logger(stderr)
		if err != nil {
			return nil, interpret.Options{}, err
		}
		opts, err := c.interpretOptions(log, requireElection)
		if err != nil {
			return nil, interpret.Options{}, err
		}
		return log, opts, nil
	}

	interpretCmd := &ff.Command{
		Name:      "interpret",
		Usage:     "ballot-interpreter interpret --election ELECTION SIDE_A SIDE_B",
		ShortHelp: "interpret both sides of a ballot card",
		Flags:     ff.NewFlagSet("interpret").SetParent(c.fs),
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("interpret: expected 2 images, got %d", len(args))
			}
			_, opts, err := setup(true)
			if err != nil {
				return err
			}
			card, err := interpret.InterpretFiles(args[0], args[1], opts)
			if err != nil {
				var ie *interpret.Error
				if errors.As(err, &ie) {
					// callers parse the error kind from stdout
					_ = writeJSON(stdout, map[string]*interpret.Error{"error": ie})
				}
				return err
			}
			return writeJSON(stdout, card)
		},
	}

	timingMarksCmd := &ff.Command{
		Name:      "timing-marks",
		Usage:     "ballot-interpreter timing-marks [--paper PAPER] IMAGE",
		ShortHelp: "report the timing mark grid search on one page",
		Flags:     ff.NewFlagSet("timing-marks").SetParent(c.fs),
		Exec: func(ctx context.Context, args []string) error {
			img, err := loadOne("timing-marks", args)
			if err != nil {
				return err
			}
			_, opts, err := setup(false)
			if err != nil {
				return err
			}
			got, err := interpret.InspectTimingMarks(args[0], img, opts)
			if err != nil {
				return err
			}
			return writeJSON(stdout, got)
		},
	}

	metadataCmd := &ff.Command{
		Name:      "metadata",
		Usage:     "ballot-interpreter metadata IMAGE",
		ShortHelp: "decode the metadata printed on one page",
		LongHelp: "Decodes the bottom timing mark row, or the QR code when --election " +
			"names an election that uses QR code metadata.",
		Flags: ff.NewFlagSet("metadata").SetParent(c.fs),
		Exec: func(ctx context.Context, args []string) error {
			img, err := loadOne("metadata", args)
			if err != nil {
				return err
			}
			_, opts, err := setup(false)
			if err != nil {
				return err
			}
			e := opts.Election
			if e != nil && e.BallotLayout.MetadataEncoding == election.EncodingQRCode {
				got, err := interpret.InspectQRCode(args[0], img, e)
				if err != nil {
					return err
				}
				return writeJSON(stdout, got)
			}
			got, err := interpret.DecodeTimingMarkMetadata(args[0], img, opts)
			if err != nil {
				return err
			}
			return writeJSON(stdout, got)
		},
	}

	serveCmd := &ff.Command{
		Name:      "serve",
		Usage:     "ballot-interpreter serve [--election ELECTION]",
		ShortHelp: "run the MCP tool server on stdin/stdout",
		Flags:     ff.NewFlagSet("serve").SetParent(c.fs),
		Exec: func(ctx context.Context, args []string) error {
			log, opts, err := setup(false)
			if err != nil {
				return err
			}
			log.Debug("starting server", "version", Version, "buildTime", BuildTime, "commit", GitCommit)
			srv := server.New(server.Options{Interpret: opts, Version: Version, Logger: log})
			return srv.Run()
		},
	}

	versionCmd := &ff.Command{
		Name:      "version",
		ShortHelp: "print build information",
		Flags:     ff.NewFlagSet("version").SetParent(c.fs),
		Exec: func(ctx context.Context, args []string) error {
			printVersion(stdout)
			return nil
		},
	}

	return &ff.Command{
		Name:      "ballot-interpreter",
		Usage:     "ballot-interpreter [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "find timing marks, read metadata and score bubbles on scanned ballots",
		Flags:     c.fs,
		Subcommands: []*ff.Command{
			interpretCmd,
			timingMarksCmd,
			metadataCmd,
			serveCmd,
			versionCmd,
		},
		Exec: func(ctx context.Context, args []string) error {
			return fmt.Errorf("missing subcommand")
		},
	}
}

func loadOne(cmd string, args []string) (*image.Gray, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expected 1 image, got %d", cmd, len(args))
	}
	return imaging.LoadGray(args[0])
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
