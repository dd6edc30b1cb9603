// Package ibflex takes holdings snapshots from Interactive Brokers Flex
// Queries. The Flex protocol is two-phased: a SendRequest call returns a
// reference code plus a statement URL, and the statement is then fetched
// from that URL, retrying while the server is still generating it.
package ibflex

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okrejci/worthy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	endpoint   = "https://gdcdyn.interactivebrokers.com/Universal/servlet/FlexStatementService.SendRequest"
	apiVersion = "3"
)

// Config identifies one Flex Query.
type Config struct {
	// Token is the Flex Web Service token.
	Token string
	// QueryID selects the stored Flex Query to run.
	QueryID string
	// BaseCurrency is the account's base currency, the one fxRateToBase
	// values are quoted against. Used as a fallback when the statement
	// does not carry its own.
	BaseCurrency string
}

// Client runs Flex Queries against the Interactive Brokers service.
type Client struct {
	Config

	Endpoint   string        // defaults to the IB Flex service, overridable in tests
	HTTP       *http.Client  // defaults to http.DefaultClient
	RetryDelay time.Duration // pause between statement fetch attempts, default 1s
	Logger     *zap.Logger
}

const maxRetries = 5

// FlexError is an error response from the Flex service, e.g. "1004
// Statement is incomplete at this time. Please try again shortly."
type FlexError struct {
	Code    int
	Message string
}

func (e *FlexError) Error() string { return fmt.Sprintf("flex error: %d %s", e.Code, e.Message) }

// IsRetriable reports whether the error means the statement is still
// being generated and a later fetch may succeed.
func (e *FlexError) IsRetriable() bool {
	switch e.Code {
	case 1004, 1009, 1019:
		// the service also reuses these codes for terminal problems; the
		// message disambiguates.
		return e.Message == "" || containsTryAgain(e.Message)
	}
	return false
}

func containsTryAgain(message string) bool {
	return strings.Contains(message, "Please try again shortly")
}

// statementResponse is stage one of the protocol.
type statementResponse struct {
	XMLName   xml.Name `xml:"FlexStatementResponse"`
	Timestamp string   `xml:"timestamp,attr"`
	Status    string   `xml:"Status"`

	// on success
	ReferenceCode string `xml:"ReferenceCode"`
	URL           string `xml:"Url"`

	// on failure
	ErrorCode    int    `xml:"ErrorCode"`
	ErrorMessage string `xml:"ErrorMessage"`
}

// queryResponse is stage two: the statement itself, or a Flex error. No
// XMLName pin: the statement comes as <FlexQueryResponse> but "not ready
// yet" errors keep the stage-one <FlexStatementResponse> root.
type queryResponse struct {
	Type string `xml:"type,attr"`

	ErrorCode    int    `xml:"ErrorCode"`
	ErrorMessage string `xml:"ErrorMessage"`

	FlexStatements *flexStatements `xml:"FlexStatements"`
}

type flexStatements struct {
	Count      int             `xml:"count,attr"`
	Statements []FlexStatement `xml:"FlexStatement"`
}

// FlexStatement is one account's statement.
type FlexStatement struct {
	AccountID     string `xml:"accountId,attr"`
	FromDate      string `xml:"fromDate,attr"`
	ToDate        string `xml:"toDate,attr"`
	Period        string `xml:"period,attr"`
	WhenGenerated string `xml:"whenGenerated,attr"`

	AccountInformation struct {
		Currency string `xml:"currency,attr"`
	} `xml:"AccountInformation"`

	OpenPositions struct {
		Positions []OpenPosition `xml:"OpenPosition"`
	} `xml:"OpenPositions"`
}

// OpenPosition is one holding line. The Flex XML carries everything as
// attributes; numeric fields stay strings until validation parses them
// into exact decimals.
type OpenPosition struct {
	AccountID     string `xml:"accountId,attr"`
	AcctAlias     string `xml:"acctAlias,attr"`
	Currency      string `xml:"currency,attr"`
	AssetCategory string `xml:"assetCategory,attr"`
	Symbol        string `xml:"symbol,attr"`
	Description   string `xml:"description,attr"`
	Multiplier    string `xml:"multiplier,attr"`
	FxRateToBase  string `xml:"fxRateToBase,attr"`
	ISIN          string `xml:"isin,attr"`
	MarkPrice     string `xml:"markPrice,attr"`
	Position      string `xml:"position,attr"`
	Side          string `xml:"side,attr"`
	LevelOfDetail string `xml:"levelOfDetail,attr"`
	Issuer        string `xml:"issuer,attr"`
	Expiry        string `xml:"expiry,attr"`
	PutCall       string `xml:"putCall,attr"`
}

// TakeSnapshot runs the configured Flex Query and converts its open
// positions into stock assets plus the rate observations (mark prices,
// fx-to-base rates) the statement carries along.
func (c *Client) TakeSnapshot(ctx context.Context) (assets []worthy.Asset, rates []worthy.ExchangeRate, err error) {
	ref, stmtURL, err := c.sendRequest(ctx)
	if err != nil {
		return nil, nil, err
	}

	for attempt := 0; ; attempt++ {
		stmts, err := c.fetchStatement(ctx, stmtURL, ref)
		if err == nil {
			return c.convert(stmts)
		}
		ferr, ok := err.(*FlexError)
		if !ok || !ferr.IsRetriable() || attempt >= maxRetries {
			return nil, nil, err
		}
		c.Logger.Info("statement not ready, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
		delay := c.RetryDelay
		if delay == 0 {
			delay = time.Second
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *Client) sendRequest(ctx context.Context) (referenceCode, statementURL string, err error) {
	addr, err := flexURL(c.endpoint(), c.Token, c.QueryID)
	if err != nil {
		return "", "", err
	}

	var resp statementResponse
	if err := c.xmlGet(ctx, addr, &resp); err != nil {
		return "", "", fmt.Errorf("ibflex send request: %w", err)
	}
	if resp.Status != "Success" {
		return "", "", &FlexError{Code: resp.ErrorCode, Message: resp.ErrorMessage}
	}
	return resp.ReferenceCode, resp.URL, nil
}

func (c *Client) fetchStatement(ctx context.Context, statementURL, referenceCode string) ([]FlexStatement, error) {
	addr, err := flexURL(statementURL, c.Token, referenceCode)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := c.xmlGet(ctx, addr, &resp); err != nil {
		return nil, fmt.Errorf("ibflex fetch statement: %w", err)
	}
	if resp.FlexStatements == nil {
		if resp.ErrorCode == 0 && resp.ErrorMessage == "" {
			return nil, fmt.Errorf("ibflex: response carries neither statements nor an error")
		}
		return nil, &FlexError{Code: resp.ErrorCode, Message: resp.ErrorMessage}
	}
	return resp.FlexStatements.Statements, nil
}

// flexURL appends the t/q/v parameters both protocol stages share.
func flexURL(base, token, query string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("t", token)
	q.Set("q", query)
	q.Set("v", apiVersion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) xmlGet(ctx context.Context, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status %v", resp.Status)
	}
	return xml.NewDecoder(resp.Body).Decode(data)
}

// convert maps open positions into core assets and rate observations.
// Only plain long stock summary lines are supported; anything fancier
// (options, shorts, per-lot detail) is rejected loudly rather than valued
// wrong.
func (c *Client) convert(statements []FlexStatement) (assets []worthy.Asset, rates []worthy.ExchangeRate, err error) {
	for _, stmt := range statements {
		base := stmt.AccountInformation.Currency
		if base == "" {
			base = c.BaseCurrency
		}
		fxSeen := make(map[string]decimal.Decimal)

		for _, p := range stmt.OpenPositions.Positions {
			if p.Multiplier != "1" {
				return nil, nil, fmt.Errorf("position %s: multiplier %q not supported", p.Symbol, p.Multiplier)
			}
			if p.AssetCategory != "STK" {
				return nil, nil, fmt.Errorf("position %s: only stocks supported, got %q", p.Symbol, p.AssetCategory)
			}
			if p.PutCall != "" || p.Issuer != "" || p.Expiry != "" || p.LevelOfDetail != "SUMMARY" {
				return nil, nil, fmt.Errorf("position %s: unexpected fields populated", p.Symbol)
			}
			if p.Side != "Long" {
				return nil, nil, fmt.Errorf("position %s: only Long positions supported", p.Symbol)
			}

			position, err := decimal.NewFromString(p.Position)
			if err != nil {
				return nil, nil, fmt.Errorf("position %s: invalid position %q: %w", p.Symbol, p.Position, err)
			}
			markPrice, err := decimal.NewFromString(p.MarkPrice)
			if err != nil {
				return nil, nil, fmt.Errorf("position %s: invalid mark price %q: %w", p.Symbol, p.MarkPrice, err)
			}
			fxRate, err := decimal.NewFromString(p.FxRateToBase)
			if err != nil {
				return nil, nil, fmt.Errorf("position %s: invalid fx rate %q: %w", p.Symbol, p.FxRateToBase, err)
			}

			if existing, ok := fxSeen[p.Currency]; ok {
				if !existing.Equal(fxRate) {
					return nil, nil, fmt.Errorf("inconsistent fx rate for %s: %s vs %s", p.Currency, existing, fxRate)
				}
			} else {
				fxSeen[p.Currency] = fxRate
				if base != "" && p.Currency != base {
					fx, err := worthy.NewExchangeRate(worthy.NewCurrency(p.Currency), worthy.NewCurrency(base), fxRate)
					if err != nil {
						return nil, nil, err
					}
					rates = append(rates, fx)
				}
			}

			c.Logger.Debug("open position",
				zap.String("symbol", p.Symbol),
				zap.String("description", p.Description),
				zap.String("position", p.Position),
				zap.String("markPrice", p.MarkPrice),
				zap.String("currency", p.Currency))

			assets = append(assets, worthy.Asset{Amount: position, Denomination: worthy.NewStock(p.Symbol)})
			mark, err := worthy.NewExchangeRate(worthy.NewStock(p.Symbol), worthy.NewCurrency(p.Currency), markPrice)
			if err != nil {
				return nil, nil, err
			}
			rates = append(rates, mark)
		}
	}
	return assets, rates, nil
}

func (c *Client) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return endpoint
}
