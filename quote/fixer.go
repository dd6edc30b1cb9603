package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/okrejci/worthy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const fixerBaseURL = "https://data.fixer.io/api"

// Fixer fetches fiat exchange rates from fixer.io, all quoted against the
// base in a single "latest" call. It only speaks fiat currencies; other
// denominations are skipped.
type Fixer struct {
	APIKey  string
	BaseURL string // defaults to the fixer.io API, overridable in tests
	Client  *http.Client
	Logger  *zap.Logger
}

func (f *Fixer) TakeSnapshot(ctx context.Context, denominations []worthy.Denomination, base worthy.Denomination) ([]worthy.ExchangeRate, error) {
	symbols := currencyCodes(denominations, base)
	if len(symbols) == 0 {
		return nil, nil
	}

	baseURL := f.BaseURL
	if baseURL == "" {
		baseURL = fixerBaseURL
	}
	addr := fmt.Sprintf("%s/latest?access_key=%s&base=%s&symbols=%s",
		baseURL, url.QueryEscape(f.APIKey), url.QueryEscape(base.Symbol()), strings.Join(symbols, ","))

	var jobj any
	if err := jwget(ctx, f.client(), addr, &jobj); err != nil {
		return nil, fmt.Errorf("fixer: %w", err)
	}
	if success, err := jpath(jobj, "$.success"); err != nil || success != true {
		return nil, fmt.Errorf("fixer: unsuccessful response (%v)", jobj)
	}

	jrates, err := jpath(jobj, "$.rates")
	if err != nil {
		return nil, fmt.Errorf("fixer: %w", err)
	}
	rateMap, ok := jrates.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("fixer: rates is not an object")
	}

	var rates []worthy.ExchangeRate
	for _, symbol := range sortedKeys(rateMap) {
		value, ok := rateMap[symbol].(float64)
		if !ok {
			f.Logger.Warn("fixer: skipping non-numeric rate", zap.String("symbol", symbol))
			continue
		}
		// 1 base = value symbol
		r, err := worthy.NewExchangeRate(base, worthy.NewCurrency(symbol), decimal.NewFromFloat(value))
		if err != nil {
			f.Logger.Warn("fixer: skipping invalid rate", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		rates = append(rates, r)
	}
	return rates, nil
}

func (f *Fixer) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return Daily()
}

// currencyCodes filters the fiat currency codes out of a denomination
// set, excluding the base itself.
func currencyCodes(denominations []worthy.Denomination, base worthy.Denomination) []string {
	var codes []string
	for _, d := range denominations {
		if d.IsCurrency() && d != base {
			codes = append(codes, d.Symbol())
		}
	}
	sort.Strings(codes)
	return codes
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
