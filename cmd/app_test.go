package cmd

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/okrejci/worthy"
)

func TestTakeSourceSnapshotHardcoded(t *testing.T) {
	sc := worthy.SourceConfig{
		Type: worthy.SourceHardcoded,
		Assets: []worthy.AssetConfig{
			{Amount: "25000", Kind: "currency", Symbol: "CZK"},
			{Amount: "0.5", Kind: "cryptocurrency", Symbol: "BTC"},
		},
	}
	assets, rates, err := takeSourceSnapshot(context.Background(), zap.NewNop(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 0 {
		t.Errorf("hardcoded source produced rates: %v", rates)
	}
	if len(assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(assets))
	}
	if !assets[0].Equal(worthy.A(25000, worthy.NewCurrency("CZK"))) {
		t.Errorf("assets[0] = %s, want 25000 CZK", assets[0])
	}
}

func TestTakeSourceSnapshotUnknownType(t *testing.T) {
	_, _, err := takeSourceSnapshot(context.Background(), zap.NewNop(), worthy.SourceConfig{Type: "teleport"})
	if err == nil {
		t.Error("want error for an unknown source type")
	}
}

func TestNewConverterDispatch(t *testing.T) {
	for _, typ := range []string{worthy.ConverterFixer, worthy.ConverterCurrencyLayer, worthy.ConverterAlphaVantage} {
		c, err := newConverter(zap.NewNop(), worthy.ConverterConfig{Type: typ, APIKey: "k"})
		if err != nil {
			t.Fatalf("newConverter(%s): %v", typ, err)
		}
		if c == nil {
			t.Errorf("newConverter(%s) = nil", typ)
		}
	}

	if _, err := newConverter(zap.NewNop(), worthy.ConverterConfig{Type: "oracle"}); err == nil {
		t.Error("want error for an unknown converter type")
	}
}

func TestSumSources(t *testing.T) {
	czk := worthy.NewCurrency("CZK")
	usd := worthy.NewCurrency("USD")
	s := &worthy.Snapshot{
		Sources: []worthy.SourceSnapshot{
			{ID: "bank", Assets: []worthy.Asset{worthy.A(1000, czk)}},
			{ID: "broker", Assets: []worthy.Asset{worthy.A(10, usd)}},
		},
	}
	factors := map[worthy.Denomination]decimal.Decimal{
		czk: decimal.NewFromInt(1),
		usd: decimal.NewFromInt(20),
	}

	got, err := sumSources(s, []string{"bank", "broker"}, factors)
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.NewFromInt(1200); !got.Equal(want) {
		t.Errorf("sum = %s, want %s", got, want)
	}

	if _, err := sumSources(s, []string{"mattress"}, factors); err == nil {
		t.Error("want error for an unknown source id")
	}

	delete(factors, usd)
	if _, err := sumSources(s, []string{"broker"}, factors); err == nil {
		t.Error("want error for a holding without a conversion factor")
	}
}
