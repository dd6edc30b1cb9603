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

type modelCmd struct {
	snapshotFile string
}

func (*modelCmd) Name() string { return "model" }
func (*modelCmd) Synopsis() string {
	return "re-runs the projection table from a stored snapshot, without network access"
}
func (*modelCmd) Usage() string {
	return `wt model [-s <snapshot_file>]

  Replays the valuation and the financial-independence projection from a
  stored snapshot. By default the latest snapshot is used, so modelling
  parameters can be tweaked in the configuration and re-applied without
  refetching anything.

Usage Examples:
# Model from the latest snapshot.
$ wt model

`
}

func (c *modelCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.snapshotFile, "s", "", "Snapshot file to model from. Defaults to the latest one.")
}

func (c *modelCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	var s *worthy.Snapshot
	if c.snapshotFile != "" {
		s, err = worthy.LoadSnapshot(c.snapshotFile)
	} else {
		s, err = worthy.LatestSnapshot(cfg.DatedJSONOutput)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load snapshot: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "Modelling from snapshot of %s\n", s.Timestamp.Format(time.RFC3339))
	return renderSnapshot(logger, cfg, s, time.Now())
}
