package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/okrejci/worthy"
	"github.com/okrejci/worthy/cfiresim"
	"github.com/okrejci/worthy/renderer"
)

type snapshotCmd struct {
	publish bool
	noSave  bool
}

func (*snapshotCmd) Name() string { return "snapshot" }
func (*snapshotCmd) Synopsis() string {
	return "fetches holdings and rates, values them and stores a dated snapshot"
}
func (*snapshotCmd) Usage() string {
	return `wt snapshot [-publish] [-no-save]

  Fetches holdings from every configured source and exchange rates from
  every configured converter, values everything in the common currency,
  prints the financial-independence projection table, and stores a dated
  JSON snapshot next to the previous runs.

Usage Examples:
# Take a snapshot and store it.
$ wt snapshot

# Take a snapshot and post the valuation to cFIREsim.
$ wt snapshot -publish

`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.publish, "publish", false, "Post the valuation to cFIREsim after snapshotting.")
	f.BoolVar(&c.noSave, "no-save", false, "Do not store the snapshot on disk.")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	now := time.Now()
	sources := takeSourceSnapshots(ctx, logger, cfg)

	s := worthy.NewSnapshot(now, sources, nil, worthy.Asset{})
	held := make([]worthy.Denomination, 0)
	for _, a := range s.Assets() {
		held = append(held, a.Denomination)
	}
	s.Converters = takeConverterSnapshots(ctx, logger, cfg, held)

	if status := renderSnapshot(logger, cfg, s, now); status != subcommands.ExitSuccess {
		return status
	}

	if !c.noSave && cfg.DatedJSONOutput != "" {
		path, err := worthy.SaveSnapshot(cfg.DatedJSONOutput, s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not save snapshot: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(os.Stderr, "Snapshot saved to %s\n", path)
	}

	if c.publish {
		if err := publish(ctx, logger, cfg, s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not publish to cFIREsim: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// renderSnapshot values the snapshot in the base denomination, fills in
// its total and prints the projection table. Shared with the model
// command, which replays a stored snapshot.
func renderSnapshot(logger *zap.Logger, cfg *worthy.Config, s *worthy.Snapshot, now time.Time) subcommands.ExitStatus {
	base := cfg.Base()
	total, factors, unconvertible := worthy.Valuation(logger, s.Rates(), base, s.Assets())
	s.Total = total

	for _, a := range unconvertible {
		fmt.Fprintf(os.Stderr, "Warning: no conversion to %s for %s, excluded from the total\n", base, a)
	}

	md, err := renderer.FiTable(total, cfg.Modelling, base, factors, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not render the projection: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

// publish posts the valuation to cFIREsim per the cfiresim config block.
func publish(ctx context.Context, logger *zap.Logger, cfg *worthy.Config, s *worthy.Snapshot) error {
	cf := cfg.CFireSim
	if cf == nil {
		return fmt.Errorf("no cfiresim block in the configuration")
	}

	base := cfg.Base()
	factors := worthy.InCommonCurrency(logger, s.Rates(), base)

	portfolio, err := sumSources(s, cf.Portfolio, factors)
	if err != nil {
		return err
	}

	sim := cfiresim.Simulation{
		RetirementYear:             cf.RetirementYear,
		RetirementEndYear:          cf.RetirementEndYear,
		InitialYearlySpending:      cf.InitialYearlySpending,
		PortfolioValue:             portfolio,
		SocialSecurityStartYear:    cf.SocialSecurity.StartYear,
		SocialSecurityMonthlyValue: cf.SocialSecurity.MonthlyAmount,
	}
	for _, adj := range cf.Adjustments {
		yearly, err := sumSources(s, adj.Source, factors)
		if err != nil {
			return err
		}
		sim.Adjustments = append(sim.Adjustments, cfiresim.Adjustment{
			Label:         adj.Name,
			StartYear:     adj.Year,
			AmountPerYear: yearly,
		})
	}

	client := &cfiresim.Client{Logger: logger.Named("cfiresim")}
	result, err := client.Run(ctx, sim)
	if err != nil {
		return err
	}
	for _, line := range result.Stats {
		fmt.Println(line)
	}
	fmt.Printf("Simulation: %s\n", result.URL)
	return nil
}

// sumSources values the holdings of the named sources in the base
// denomination. Unknown source ids and inconvertible holdings are errors
// here: a silently wrong number posted to a simulator is worse than none.
func sumSources(s *worthy.Snapshot, ids []string, factors map[worthy.Denomination]decimal.Decimal) (decimal.Decimal, error) {
	byID := make(map[string]worthy.SourceSnapshot, len(s.Sources))
	for _, ss := range s.Sources {
		byID[ss.ID] = ss
	}

	sum := decimal.Zero
	for _, id := range ids {
		ss, ok := byID[id]
		if !ok {
			return decimal.Zero, fmt.Errorf("unknown source id %q", id)
		}
		for _, a := range ss.Assets {
			factor, ok := factors[a.Denomination]
			if !ok {
				return decimal.Zero, fmt.Errorf("source %q: no conversion for %s", id, a.Denomination)
			}
			sum = sum.Add(a.Amount.Mul(factor))
		}
	}
	return sum, nil
}
