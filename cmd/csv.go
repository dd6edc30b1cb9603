package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/okrejci/worthy"
)

type csvCmd struct {
	outputFile string
}

func (*csvCmd) Name() string     { return "csv" }
func (*csvCmd) Synopsis() string { return "exports the net-worth history of all snapshots as CSV" }
func (*csvCmd) Usage() string {
	return `wt csv [-o <output_file>]

  Exports one (Timestamp, Total) row per stored snapshot. By default the
  output goes to the configured csv_output path, or to stdout when none
  is configured.

Usage Examples:
# Export the history to stdout.
$ wt csv -o -

`
}

func (c *csvCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputFile, "o", "", "Output file. \"-\" writes to stdout.")
}

func (c *csvCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	target := c.outputFile
	if target == "" {
		target = cfg.CSVOutput
	}

	if target == "" || target == "-" {
		if err := worthy.ExportCSV(os.Stdout, cfg.DatedJSONOutput); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	path, err := worthy.ExpandPath(target, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	out, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not create %q: %v\n", path, err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	if err := worthy.ExportCSV(out, cfg.DatedJSONOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "History exported to %s\n", path)
	return subcommands.ExitSuccess
}
