package worthy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Source and converter kinds are closed sets: every adapter maps to the
// same normalized Asset/ExchangeRate shape the core consumes, so there is
// no open-ended plugin dispatch anywhere.
const (
	SourceHardcoded = "hardcoded"
	SourceIBFlex    = "ibflex"

	ConverterFixer         = "fixer"
	ConverterCurrencyLayer = "currencylayer"
	ConverterAlphaVantage  = "alphavantage"
)

// Config holds the whole configuration of a worthy run, loaded from
// config.yaml in the user config dir.
type Config struct {
	// CommonCurrency is the base denomination code everything is valued in.
	CommonCurrency string `mapstructure:"common_currency"`

	// DatedJSONOutput is the snapshot path template; "%s" is replaced with
	// the run's RFC 3339 timestamp. Snapshots of previous runs are globbed
	// from its directory.
	DatedJSONOutput string `mapstructure:"dated_json_output"`
	// CSVOutput is the CSV export path template, "%s" replaced as above.
	CSVOutput string `mapstructure:"csv_output"`

	Sources    map[string]SourceConfig    `mapstructure:"sources"`
	Converters map[string]ConverterConfig `mapstructure:"converters"`

	Modelling ModellingConfig `mapstructure:"modelling"`
	CFireSim  *CFireSimConfig `mapstructure:"cfiresim"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SourceConfig declares one holdings source.
type SourceConfig struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`

	// ibflex
	Token        string `mapstructure:"token"`
	QueryID      string `mapstructure:"query_id"`
	BaseCurrency string `mapstructure:"base_currency"`

	// hardcoded
	Assets []AssetConfig `mapstructure:"assets"`
}

// ConverterConfig declares one exchange-rate provider.
type ConverterConfig struct {
	Type   string `mapstructure:"type"`
	APIKey string `mapstructure:"api_key"`
}

// AssetConfig is the YAML shape of an asset; amounts are strings so they
// parse into exact decimals instead of going through a float.
type AssetConfig struct {
	Amount string `mapstructure:"amount"`
	Kind   string `mapstructure:"kind"`
	Symbol string `mapstructure:"symbol"`
}

// Asset parses the config shape into the core value type.
func (a AssetConfig) Asset() (Asset, error) {
	amount, err := decimal.NewFromString(a.Amount)
	if err != nil {
		return Asset{}, fmt.Errorf("invalid asset amount %q: %w", a.Amount, err)
	}
	d, err := NewDenomination(a.Kind, a.Symbol)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Amount: amount, Denomination: d}, nil
}

// ModellingConfig drives the financial-independence table: one column per
// assumed yearly yield, one row per monthly spending goal.
type ModellingConfig struct {
	YearlyYields   []float64     `mapstructure:"yearly_yields"`
	MonthlyTargets []AssetConfig `mapstructure:"monthly_targets"`
	MonthlySaving  AssetConfig   `mapstructure:"monthly_saving"`
	// HorizonYears is how many more years to model for, i.e. the assumed
	// remaining lifetime.
	HorizonYears float64 `mapstructure:"horizon_years"`
}

// CFireSimConfig drives the optional posting of the valuation to the
// cFIREsim retirement simulator.
type CFireSimConfig struct {
	RetirementYear        int      `mapstructure:"retirement_year"`
	RetirementEndYear     int      `mapstructure:"retirement_end_year"`
	InitialYearlySpending int      `mapstructure:"initial_yearly_spending"`
	Portfolio             []string `mapstructure:"portfolio"` // source ids summed into the portfolio value

	SocialSecurity struct {
		StartYear     int `mapstructure:"start_year"`
		MonthlyAmount int `mapstructure:"monthly_amount"`
	} `mapstructure:"social_security"`

	Adjustments []struct {
		Name   string   `mapstructure:"name"`
		Year   int      `mapstructure:"year"`
		Source []string `mapstructure:"source"`
	} `mapstructure:"adjustments"`
}

// LoggingConfig holds logging options.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// NewLogger builds a zap logger from the logging configuration.
func (c LoggingConfig) NewLogger() (*zap.Logger, error) {
	var level zapcore.Level
	switch c.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info", "":
		level = zapcore.InfoLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level %q", c.Level)
	}

	var cfg zap.Config
	switch c.Format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// DefaultConfigPath is config.yaml under the user config dir.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "worthy", "config.yaml"), nil
}

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cannot read config %q: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the parts of the configuration that would otherwise fail
// deep inside a run.
func (c *Config) Validate() error {
	if c.CommonCurrency == "" {
		return fmt.Errorf("common_currency is required")
	}
	for id, s := range c.Sources {
		switch s.Type {
		case SourceHardcoded:
			for _, a := range s.Assets {
				if _, err := a.Asset(); err != nil {
					return fmt.Errorf("source %q: %w", id, err)
				}
			}
		case SourceIBFlex:
			if s.Token == "" || s.QueryID == "" {
				return fmt.Errorf("source %q: ibflex requires token and query_id", id)
			}
			if s.BaseCurrency == "" {
				return fmt.Errorf("source %q: ibflex requires base_currency", id)
			}
		default:
			return fmt.Errorf("source %q: unknown type %q", id, s.Type)
		}
	}
	for id, conv := range c.Converters {
		switch conv.Type {
		case ConverterFixer, ConverterCurrencyLayer, ConverterAlphaVantage:
			if conv.APIKey == "" {
				return fmt.Errorf("converter %q: api_key is required", id)
			}
		default:
			return fmt.Errorf("converter %q: unknown type %q", id, conv.Type)
		}
	}
	for _, t := range c.Modelling.MonthlyTargets {
		if _, err := t.Asset(); err != nil {
			return fmt.Errorf("modelling.monthly_targets: %w", err)
		}
	}
	if c.Modelling.MonthlySaving.Amount != "" {
		if _, err := c.Modelling.MonthlySaving.Asset(); err != nil {
			return fmt.Errorf("modelling.monthly_saving: %w", err)
		}
	}
	if c.Modelling.HorizonYears < 0 {
		return fmt.Errorf("modelling.horizon_years must not be negative")
	}
	return nil
}

// Base returns the base denomination everything is valued in.
func (c *Config) Base() Denomination { return NewCurrency(c.CommonCurrency) }
