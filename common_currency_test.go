package worthy

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	czk = NewCurrency("CZK")
	usd = NewCurrency("USD")
	eur = NewCurrency("EUR")
	pln = NewCurrency("PLN")
	btc = NewCryptocurrency("BTC")
	tsl = NewStock("TSLA")
)

func rate(t *testing.T, from, to Denomination, r float64) ExchangeRate {
	t.Helper()
	er, err := NewExchangeRate(from, to, decimal.NewFromFloat(r))
	if err != nil {
		t.Fatal(err)
	}
	return er
}

func TestInCommonCurrencySingleHop(t *testing.T) {
	// 1 USD = 30 CZK
	rates := []ExchangeRate{rate(t, usd, czk, 30)}
	factors := InCommonCurrency(zap.NewNop(), rates, czk)

	if got := factors[usd]; !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("factor[USD] = %s, want 30", got)
	}
	if got := factors[czk]; !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("factor[CZK] = %s, want 1", got)
	}
}

func TestInCommonCurrencyChain(t *testing.T) {
	// 1 BTC = 2 EUR, 1 EUR = 3 PLN: composed, 1 BTC = 6 PLN.
	rates := []ExchangeRate{
		rate(t, btc, eur, 2),
		rate(t, eur, pln, 3),
	}
	factors := InCommonCurrency(zap.NewNop(), rates, pln)

	if got := factors[btc]; !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("factor[BTC] = %s, want 6", got)
	}
	if got := factors[eur]; !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("factor[EUR] = %s, want 3", got)
	}
}

func TestInCommonCurrencyReciprocal(t *testing.T) {
	// The observation points away from the base; the synthetic reverse
	// edge makes CZK reachable anyway.
	rates := []ExchangeRate{rate(t, usd, czk, 30)}
	factors := InCommonCurrency(zap.NewNop(), rates, usd)

	want := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(30), 28)
	if got := factors[czk]; !got.Equal(want) {
		t.Errorf("factor[CZK] = %s, want %s", got, want)
	}
}

func TestInCommonCurrencyUnreachable(t *testing.T) {
	// TSLA has no path to the base; it must be absent, not zero.
	rates := []ExchangeRate{
		rate(t, usd, czk, 30),
		rate(t, tsl, eur, 200), // EUR island, disconnected from CZK
	}
	factors := InCommonCurrency(zap.NewNop(), rates, czk)

	if _, ok := factors[tsl]; ok {
		t.Errorf("factor[TSLA] present, want absent")
	}
	if _, ok := factors[eur]; ok {
		t.Errorf("factor[EUR] present, want absent")
	}
	if got := factors[usd]; !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("factor[USD] = %s, want 30", got)
	}
}

func TestInCommonCurrencyBaseAbsent(t *testing.T) {
	rates := []ExchangeRate{rate(t, usd, eur, 0.9)}
	factors := InCommonCurrency(zap.NewNop(), rates, czk)

	if len(factors) != 1 {
		t.Fatalf("got %d factors, want only the base", len(factors))
	}
	if got := factors[czk]; !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("factor[CZK] = %s, want 1", got)
	}
}

func TestInCommonCurrencyEmpty(t *testing.T) {
	factors := InCommonCurrency(zap.NewNop(), nil, czk)
	if got := factors[czk]; !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("factor[CZK] = %s, want 1", got)
	}
}

func TestInCommonCurrencyParallelEdgesKeepsBest(t *testing.T) {
	// Two providers disagree on the same pair; relaxation keeps the
	// conservative (smaller) factor whichever observation comes first.
	orders := [][]ExchangeRate{
		{rate(t, usd, czk, 30), rate(t, usd, czk, 31)},
		{rate(t, usd, czk, 31), rate(t, usd, czk, 30)},
	}
	for _, rates := range orders {
		factors := InCommonCurrency(zap.NewNop(), rates, czk)
		if got := factors[usd]; !got.Equal(decimal.NewFromInt(30)) {
			t.Errorf("factor[USD] = %s, want 30", got)
		}
		if got := factors[czk]; !got.Equal(decimal.NewFromInt(1)) {
			t.Errorf("factor[CZK] = %s, want 1", got)
		}
	}
}

func TestInCommonCurrencyDeterministic(t *testing.T) {
	// A consistent rate set must value identically regardless of the
	// order observations arrive in.
	rates := []ExchangeRate{
		rate(t, usd, czk, 30),
		rate(t, eur, czk, 24),
		rate(t, btc, eur, 2),
	}
	want := InCommonCurrency(zap.NewNop(), rates, czk)

	shuffled := []ExchangeRate{rates[2], rates[0], rates[1]}
	got := InCommonCurrency(zap.NewNop(), shuffled, czk)

	if len(got) != len(want) {
		t.Fatalf("got %d factors, want %d", len(got), len(want))
	}
	for d, w := range want {
		if !got[d].Equal(w) {
			t.Errorf("factor[%s] = %s, want %s", d, got[d], w)
		}
	}
}

func TestInCommonCurrencyInconsistentCycle(t *testing.T) {
	// EUR -> USD -> CZK -> EUR with a round-trip product of 1.25; the
	// valuation still resolves, best-effort.
	rates := []ExchangeRate{
		rate(t, eur, usd, 1.0),
		rate(t, usd, czk, 25),
		rate(t, czk, eur, 0.05),
	}
	factors := InCommonCurrency(zap.NewNop(), rates, czk)

	if _, ok := factors[eur]; !ok {
		t.Errorf("factor[EUR] missing despite being connected")
	}
	if got := factors[czk]; !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("factor[CZK] = %s, want 1", got)
	}
}

func TestValuation(t *testing.T) {
	rates := []ExchangeRate{
		rate(t, usd, czk, 30),
		rate(t, tsl, usd, 200),
	}
	holdings := []Asset{
		A(1000, czk),
		A(10, usd),
		A(2, tsl),
		A(1, btc), // no path, excluded
	}

	total, factors, unconvertible := Valuation(zap.NewNop(), rates, czk, holdings)

	// 1000 + 10*30 + 2*200*30 = 13300
	if want := decimal.NewFromInt(13300); !total.Amount.Equal(want) {
		t.Errorf("total = %s, want %s", total.Amount, want)
	}
	if total.Denomination != czk {
		t.Errorf("total denomination = %s, want CZK", total.Denomination)
	}
	if got := factors[tsl]; !got.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("factor[TSLA] = %s, want 6000", got)
	}
	if len(unconvertible) != 1 || unconvertible[0].Denomination != btc {
		t.Errorf("unconvertible = %v, want the BTC holding", unconvertible)
	}
}
