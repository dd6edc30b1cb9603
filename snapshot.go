package worthy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// This file persists one dated JSON snapshot per run, in a way that is
// still human-readable and git-friendly. A snapshot freezes everything a
// later run needs to re-model without network access: per-source assets,
// per-converter rates, and the computed total.

// SourceSnapshot is one source's holdings at snapshot time. IBFlex
// statements also surface mark prices and fx rates as observations.
type SourceSnapshot struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Assets []Asset        `json:"assets"`
	Rates  []ExchangeRate `json:"rates,omitempty"`
}

// ConverterSnapshot is one rate provider's observations at snapshot time.
type ConverterSnapshot struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Rates []ExchangeRate `json:"rates"`
}

// Snapshot is the persisted record of one run.
type Snapshot struct {
	ID         string              `json:"id"`
	Timestamp  time.Time           `json:"timestamp"`
	Sources    []SourceSnapshot    `json:"sources"`
	Converters []ConverterSnapshot `json:"converters"`
	Total      Asset               `json:"total"`
}

// NewSnapshot stamps a fresh snapshot with a unique id.
func NewSnapshot(now time.Time, sources []SourceSnapshot, converters []ConverterSnapshot, total Asset) *Snapshot {
	return &Snapshot{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Sources:    sources,
		Converters: converters,
		Total:      total,
	}
}

// Assets returns every holding across all sources, aggregated per
// denomination so the valuation sees one amount per holding kind.
func (s *Snapshot) Assets() []Asset {
	byDenomination := make(map[Denomination]decimal.Decimal)
	order := make([]Denomination, 0)
	for _, ss := range s.Sources {
		for _, a := range ss.Assets {
			if _, ok := byDenomination[a.Denomination]; !ok {
				order = append(order, a.Denomination)
			}
			byDenomination[a.Denomination] = byDenomination[a.Denomination].Add(a.Amount)
		}
	}
	assets := make([]Asset, 0, len(order))
	for _, d := range order {
		assets = append(assets, Asset{Amount: byDenomination[d], Denomination: d})
	}
	return assets
}

// Rates returns every observation across all converters and sources, as
// one flat sequence regardless of provider.
func (s *Snapshot) Rates() []ExchangeRate {
	var rates []ExchangeRate
	for _, cs := range s.Converters {
		rates = append(rates, cs.Rates...)
	}
	for _, ss := range s.Sources {
		rates = append(rates, ss.Rates...)
	}
	return rates
}

// jrate is the persisted shape of an observation.
type jrate struct {
	Source          Denomination    `json:"source"`
	Target          Denomination    `json:"target"`
	TargetPerSource decimal.Decimal `json:"target_per_source"`
}

func (r ExchangeRate) MarshalJSON() ([]byte, error) {
	return json.Marshal(jrate{Source: r.From, Target: r.To, TargetPerSource: r.Rate})
}

func (r *ExchangeRate) UnmarshalJSON(b []byte) error {
	var j jrate
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	parsed, err := NewExchangeRate(j.Source, j.Target, j.TargetPerSource)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ExpandPath expands a leading ~ and substitutes the snapshot timestamp
// for "%s" in an output path template.
func ExpandPath(template string, now time.Time) (string, error) {
	path := template
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return strings.ReplaceAll(path, "%s", now.Format(time.RFC3339)), nil
}

// SaveSnapshot writes the snapshot to the path template and returns the
// resolved path.
func SaveSnapshot(template string, s *Snapshot) (string, error) {
	path, err := ExpandPath(template, s.Timestamp)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write snapshot %q: %w", path, err)
	}
	return path, nil
}

// LoadSnapshot reads one snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	return &s, nil
}

// SnapshotPaths lists all stored snapshots next to the path template,
// sorted ascending. RFC 3339 names sort chronologically, so the last
// entry is the latest run.
func SnapshotPaths(template string) ([]string, error) {
	dir, err := ExpandPath(filepath.Dir(template), time.Time{})
	if err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// LatestSnapshot loads the most recent stored snapshot.
func LatestSnapshot(template string) (*Snapshot, error) {
	paths, err := SnapshotPaths(template)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no snapshots found for %q", template)
	}
	return LoadSnapshot(paths[len(paths)-1])
}
