package worthy

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAssetAdd(t *testing.T) {
	got := A(1000, czk).Add(A(234, czk))
	if want := A(1234, czk); !got.Equal(want) {
		t.Errorf("Add = %s, want %s", got, want)
	}
}

func TestAssetAddMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("adding EUR to a stock must panic")
		}
	}()
	A(1, eur).Add(A(1, tsl))
}

func TestAssetString(t *testing.T) {
	tests := []struct {
		a    Asset
		want string
	}{
		{A(decimal.RequireFromString("1234.56"), eur), "€1,234.56"},
		{A(decimal.RequireFromString("10.5"), tsl), "10.5 stock:TSLA"},
		{A(decimal.RequireFromString("0.25"), btc), "0.25 cryptocurrency:BTC"},
	}
	for _, tc := range tests {
		if got := tc.a.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestExchangeRateRejectsNonPositive(t *testing.T) {
	if _, err := NewExchangeRate(usd, czk, decimal.Zero); err == nil {
		t.Error("want error for zero rate")
	}
	if _, err := NewExchangeRate(usd, czk, decimal.NewFromInt(-1)); err == nil {
		t.Error("want error for negative rate")
	}
	if _, err := NewExchangeRate(usd, czk, decimal.NewFromInt(30)); err != nil {
		t.Errorf("valid rate rejected: %v", err)
	}
}
