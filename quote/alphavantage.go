package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okrejci/worthy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantage fetches exchange rates from alphavantage.co, one pair per
// request. Its CURRENCY_EXCHANGE_RATE endpoint covers both fiat and
// cryptocurrencies, so it picks up what Fixer and CurrencyLayer cannot;
// stock tickers are skipped.
type AlphaVantage struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger
}

func (a *AlphaVantage) TakeSnapshot(ctx context.Context, denominations []worthy.Denomination, base worthy.Denomination) ([]worthy.ExchangeRate, error) {
	baseURL := a.BaseURL
	if baseURL == "" {
		baseURL = alphaVantageBaseURL
	}

	var rates []worthy.ExchangeRate
	for _, d := range denominations {
		if d.Kind() == worthy.Stock || d == base {
			continue
		}
		rate, err := a.exchangeRate(ctx, baseURL, d, base)
		if err != nil {
			// Throttling ("missing exchange rate data") happens on too
			// many requests in too short a time; one failed pair must not
			// lose the others.
			a.Logger.Warn("alphavantage: pair failed", zap.Stringer("from", d), zap.Error(err))
			continue
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

func (a *AlphaVantage) exchangeRate(ctx context.Context, baseURL string, from, to worthy.Denomination) (worthy.ExchangeRate, error) {
	addr := fmt.Sprintf("%s/query?function=CURRENCY_EXCHANGE_RATE&from_currency=%s&to_currency=%s&apikey=%s",
		baseURL, url.QueryEscape(from.Symbol()), url.QueryEscape(to.Symbol()), url.QueryEscape(a.APIKey))

	var jobj any
	if err := jwget(ctx, a.client(), addr, &jobj); err != nil {
		return worthy.ExchangeRate{}, err
	}

	jval, err := jpath(jobj, `$["Realtime Currency Exchange Rate"]["5. Exchange Rate"]`)
	if err != nil {
		return worthy.ExchangeRate{}, fmt.Errorf("missing exchange rate data: %w", err)
	}
	s, ok := jval.(string)
	if !ok {
		return worthy.ExchangeRate{}, fmt.Errorf("exchange rate is not a string: %v", jval)
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return worthy.ExchangeRate{}, fmt.Errorf("invalid exchange rate %q: %w", s, err)
	}
	return worthy.NewExchangeRate(from, to, value)
}

func (a *AlphaVantage) client() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return Daily()
}
