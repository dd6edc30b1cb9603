package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/okrejci/worthy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const currencyLayerBaseURL = "https://api.currencylayer.com"

// CurrencyLayer fetches fiat exchange rates from currencylayer.com. Its
// "live" endpoint quotes every requested currency against a single source
// currency, with quote keys like "USDCZK".
type CurrencyLayer struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger
}

func (c *CurrencyLayer) TakeSnapshot(ctx context.Context, denominations []worthy.Denomination, base worthy.Denomination) ([]worthy.ExchangeRate, error) {
	currencies := currencyCodes(denominations, base)
	if len(currencies) == 0 {
		return nil, nil
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = currencyLayerBaseURL
	}
	addr := fmt.Sprintf("%s/live?access_key=%s&source=%s&currencies=%s",
		baseURL, url.QueryEscape(c.APIKey), url.QueryEscape(base.Symbol()), strings.Join(currencies, ","))

	var jobj any
	if err := jwget(ctx, c.client(), addr, &jobj); err != nil {
		return nil, fmt.Errorf("currencylayer: %w", err)
	}
	if success, err := jpath(jobj, "$.success"); err != nil || success != true {
		return nil, fmt.Errorf("currencylayer: unsuccessful response (%v)", jobj)
	}

	jquotes, err := jpath(jobj, "$.quotes")
	if err != nil {
		return nil, fmt.Errorf("currencylayer: %w", err)
	}
	quotes, ok := jquotes.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("currencylayer: quotes is not an object")
	}

	source := base.Symbol()
	var rates []worthy.ExchangeRate
	for _, pair := range sortedKeys(quotes) {
		symbol, found := strings.CutPrefix(pair, source)
		if !found || symbol == source {
			continue
		}
		value, ok := quotes[pair].(float64)
		if !ok {
			c.Logger.Warn("currencylayer: skipping non-numeric quote", zap.String("pair", pair))
			continue
		}
		// 1 source = value symbol
		r, err := worthy.NewExchangeRate(base, worthy.NewCurrency(symbol), decimal.NewFromFloat(value))
		if err != nil {
			c.Logger.Warn("currencylayer: skipping invalid quote", zap.String("pair", pair), zap.Error(err))
			continue
		}
		rates = append(rates, r)
	}
	return rates, nil
}

func (c *CurrencyLayer) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return Daily()
}
