// Package cmd implements the CLI application to track net worth.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/okrejci/worthy"
	"github.com/okrejci/worthy/ibflex"
	"github.com/okrejci/worthy/quote"
)

// Commands lists all subcommands; a main package registers them in order.
var Commands = []subcommands.Command{
	&snapshotCmd{},
	&modelCmd{},
	&csvCmd{},
	&configCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configPath = flag.String("config", "", "Path to config.yaml. Defaults to the user config dir.")

// loadApp loads the configuration and builds the logger from it.
func loadApp() (*worthy.Config, *zap.Logger, error) {
	path := *configPath
	if path == "" {
		var err error
		if path, err = worthy.DefaultConfigPath(); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := worthy.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// sortedIDs iterates config maps in a stable order.
func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// takeSourceSnapshots fetches holdings from every configured source. A
// failing source logs an error and contributes an empty snapshot instead
// of aborting the run; the other sources are still worth recording.
func takeSourceSnapshots(ctx context.Context, logger *zap.Logger, cfg *worthy.Config) []worthy.SourceSnapshot {
	var snapshots []worthy.SourceSnapshot
	for _, id := range sortedIDs(cfg.Sources) {
		sc := cfg.Sources[id]
		assets, rates, err := takeSourceSnapshot(ctx, logger, sc)
		if err != nil {
			logger.Error("source failed, recording it empty",
				zap.String("source", id), zap.Error(err))
		}
		snapshots = append(snapshots, worthy.SourceSnapshot{
			ID:     id,
			Name:   sc.Name,
			Type:   sc.Type,
			Assets: assets,
			Rates:  rates,
		})
	}
	return snapshots
}

func takeSourceSnapshot(ctx context.Context, logger *zap.Logger, sc worthy.SourceConfig) ([]worthy.Asset, []worthy.ExchangeRate, error) {
	switch sc.Type {
	case worthy.SourceHardcoded:
		var assets []worthy.Asset
		for _, a := range sc.Assets {
			asset, err := a.Asset()
			if err != nil {
				return nil, nil, err
			}
			assets = append(assets, asset)
		}
		return assets, nil, nil

	case worthy.SourceIBFlex:
		client := &ibflex.Client{
			Config: ibflex.Config{
				Token:        sc.Token,
				QueryID:      sc.QueryID,
				BaseCurrency: sc.BaseCurrency,
			},
			Logger: logger.Named("ibflex"),
		}
		return client.TakeSnapshot(ctx)

	default:
		return nil, nil, fmt.Errorf("unknown source type %q", sc.Type)
	}
}

// takeConverterSnapshots asks every configured rate provider to observe
// the denominations currently held, against the base. Like sources, a
// failing provider logs and yields an empty snapshot.
func takeConverterSnapshots(ctx context.Context, logger *zap.Logger, cfg *worthy.Config, denominations []worthy.Denomination) []worthy.ConverterSnapshot {
	base := cfg.Base()
	var snapshots []worthy.ConverterSnapshot
	for _, id := range sortedIDs(cfg.Converters) {
		cc := cfg.Converters[id]
		converter, err := newConverter(logger, cc)
		if err != nil {
			logger.Error("converter misconfigured", zap.String("converter", id), zap.Error(err))
			snapshots = append(snapshots, worthy.ConverterSnapshot{ID: id, Type: cc.Type})
			continue
		}
		rates, err := converter.TakeSnapshot(ctx, denominations, base)
		if err != nil {
			logger.Error("converter failed, recording it empty",
				zap.String("converter", id), zap.Error(err))
		}
		snapshots = append(snapshots, worthy.ConverterSnapshot{ID: id, Type: cc.Type, Rates: rates})
	}
	return snapshots
}

func newConverter(logger *zap.Logger, cc worthy.ConverterConfig) (quote.Converter, error) {
	switch cc.Type {
	case worthy.ConverterFixer:
		return &quote.Fixer{APIKey: cc.APIKey, Logger: logger.Named("fixer")}, nil
	case worthy.ConverterCurrencyLayer:
		return &quote.CurrencyLayer{APIKey: cc.APIKey, Logger: logger.Named("currencylayer")}, nil
	case worthy.ConverterAlphaVantage:
		return &quote.AlphaVantage{APIKey: cc.APIKey, Logger: logger.Named("alphavantage")}, nil
	default:
		return nil, fmt.Errorf("unknown converter type %q", cc.Type)
	}
}
