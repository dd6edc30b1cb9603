package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/okrejci/worthy"
)

type configCmd struct{}

func (*configCmd) Name() string     { return "config" }
func (*configCmd) Synopsis() string { return "validates and summarizes the configuration" }
func (*configCmd) Usage() string {
	return `wt config

  Loads the configuration, validates it, and prints a summary of what a
  snapshot run would do. Secrets are not printed.

`
}

func (*configCmd) SetFlags(f *flag.FlagSet) {}

func (*configCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	fmt.Printf("common currency: %s\n", cfg.Base())
	fmt.Printf("snapshot output: %s\n", orNone(cfg.DatedJSONOutput))
	fmt.Printf("csv output:      %s\n", orNone(cfg.CSVOutput))

	fmt.Printf("sources (%d):\n", len(cfg.Sources))
	for _, id := range sortedIDs(cfg.Sources) {
		s := cfg.Sources[id]
		switch s.Type {
		case worthy.SourceHardcoded:
			fmt.Printf("  %s: %s, %d assets\n", id, s.Type, len(s.Assets))
		default:
			fmt.Printf("  %s: %s\n", id, s.Type)
		}
	}

	fmt.Printf("converters (%d):\n", len(cfg.Converters))
	for _, id := range sortedIDs(cfg.Converters) {
		fmt.Printf("  %s: %s\n", id, cfg.Converters[id].Type)
	}

	fmt.Printf("modelling: %d yields x %d goals, horizon %v years\n",
		len(cfg.Modelling.YearlyYields), len(cfg.Modelling.MonthlyTargets), cfg.Modelling.HorizonYears)
	if cfg.CFireSim != nil {
		fmt.Printf("cfiresim: retirement %d-%d\n", cfg.CFireSim.RetirementYear, cfg.CFireSim.RetirementEndYear)
	}
	return subcommands.ExitSuccess
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
