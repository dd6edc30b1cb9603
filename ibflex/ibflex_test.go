package ibflex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/okrejci/worthy"
)

const statementXML = `<FlexQueryResponse queryName="TestFlexQuery" type="AF">
<FlexStatements count="1">
<FlexStatement accountId="U99999" fromDate="20210215" toDate="20210215" period="LastBusinessDay" whenGenerated="20210216;175211">
<AccountInformation accountId="U99999" currency="CHF" name="John Doe" />
<OpenPositions>
<OpenPosition accountId="U99999" acctAlias="" currency="USD" fxRateToBase="0.8903" assetCategory="STK" symbol="ABCD" description="Abcd Stock" isin="US12345" issuer="" multiplier="1" expiry="" putCall="" position="1111" markPrice="11.11" side="Long" levelOfDetail="SUMMARY" />
<OpenPosition accountId="U99999" acctAlias="" currency="USD" fxRateToBase="0.8903" assetCategory="STK" symbol="EFGH" description="Efgh Stock" isin="US12346" issuer="" multiplier="1" expiry="" putCall="" position="1112" markPrice="22.22" side="Long" levelOfDetail="SUMMARY" />
</OpenPositions>
</FlexStatement>
</FlexStatements>
</FlexQueryResponse>`

const notReadyXML = `<FlexStatementResponse timestamp='16 February, 2021 05:16 PM EST'>
<Status>Warn</Status>
<ErrorCode>1019</ErrorCode>
<ErrorMessage>Statement generation in progress. Please try again shortly.</ErrorMessage>
</FlexStatementResponse>`

// testServer speaks both protocol stages: SendRequest hands out a
// reference code and the statement URL, GetStatement serves whatever
// statementHandler returns.
func testServer(t *testing.T, statementHandler func(attempt int) string) *httptest.Server {
	t.Helper()
	attempt := 0
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("t") != "t0ken" || q.Get("q") != "123456" || q.Get("v") != "3" {
			t.Errorf("unexpected send request query %q", r.URL.RawQuery)
		}
		fmt.Fprintf(w, `<FlexStatementResponse timestamp='16 February, 2021 04:50 PM EST'>
<Status>Success</Status>
<ReferenceCode>1234567890</ReferenceCode>
<Url>%s/stmt</Url>
</FlexStatementResponse>`, srv.URL)
	})
	mux.HandleFunc("/stmt", func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query(); q.Get("t") != "t0ken" || q.Get("q") != "1234567890" {
			t.Errorf("unexpected statement request query %q", r.URL.RawQuery)
		}
		attempt++
		fmt.Fprint(w, statementHandler(attempt))
	})
	srv = httptest.NewServer(mux)
	return srv
}

func testClient(srv *httptest.Server) *Client {
	return &Client{
		Config:     Config{Token: "t0ken", QueryID: "123456", BaseCurrency: "EUR"},
		Endpoint:   srv.URL + "/send",
		HTTP:       srv.Client(),
		RetryDelay: time.Millisecond,
		Logger:     zap.NewNop(),
	}
}

func TestTakeSnapshot(t *testing.T) {
	srv := testServer(t, func(int) string { return statementXML })
	defer srv.Close()

	assets, rates, err := testClient(srv).TakeSnapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(assets) != 2 {
		t.Fatalf("got %d assets, want 2: %v", len(assets), assets)
	}
	if !assets[0].Equal(worthy.A(1111, worthy.NewStock("ABCD"))) {
		t.Errorf("assets[0] = %s, want 1111 ABCD", assets[0])
	}
	if !assets[1].Equal(worthy.A(1112, worthy.NewStock("EFGH"))) {
		t.Errorf("assets[1] = %s, want 1112 EFGH", assets[1])
	}

	// one fx observation for USD (not repeated for the second position)
	// plus one mark price per stock; the statement's own currency wins
	// over the configured fallback
	if len(rates) != 3 {
		t.Fatalf("got %d rates, want 3: %v", len(rates), rates)
	}
	fx := rates[0]
	if fx.From != worthy.NewCurrency("USD") || fx.To != worthy.NewCurrency("CHF") {
		t.Errorf("rates[0] = %s, want USD -> CHF", fx)
	}
	if !fx.Rate.Equal(decimal.RequireFromString("0.8903")) {
		t.Errorf("fx rate = %s, want 0.8903", fx.Rate)
	}
	mark := rates[1]
	if mark.From != worthy.NewStock("ABCD") || mark.To != worthy.NewCurrency("USD") {
		t.Errorf("rates[1] = %s, want stock:ABCD -> USD", mark)
	}
	if !mark.Rate.Equal(decimal.RequireFromString("11.11")) {
		t.Errorf("mark price = %s, want 11.11", mark.Rate)
	}
}

func TestTakeSnapshotRetriesUntilReady(t *testing.T) {
	srv := testServer(t, func(attempt int) string {
		if attempt < 3 {
			return notReadyXML
		}
		return statementXML
	})
	defer srv.Close()

	assets, _, err := testClient(srv).TakeSnapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(assets) != 2 {
		t.Errorf("got %d assets after retries, want 2", len(assets))
	}
}

func TestTakeSnapshotGivesUpAfterMaxRetries(t *testing.T) {
	srv := testServer(t, func(int) string { return notReadyXML })
	defer srv.Close()

	_, _, err := testClient(srv).TakeSnapshot(context.Background())
	ferr, ok := err.(*FlexError)
	if !ok {
		t.Fatalf("err = %v, want a FlexError", err)
	}
	if ferr.Code != 1019 {
		t.Errorf("code = %d, want 1019", ferr.Code)
	}
}

func TestSendRequestFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/send", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<FlexStatementResponse timestamp='16 February, 2021 05:16 PM EST'>
<Status>Fail</Status>
<ErrorCode>1020</ErrorCode>
<ErrorMessage>Invalid request or unable to validate request.</ErrorMessage>
</FlexStatementResponse>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, _, err := testClient(srv).TakeSnapshot(context.Background())
	ferr, ok := err.(*FlexError)
	if !ok {
		t.Fatalf("err = %v, want a FlexError", err)
	}
	if ferr.Code != 1020 || ferr.IsRetriable() {
		t.Errorf("got %v, want non-retriable 1020", ferr)
	}
}

func TestFlexErrorIsRetriable(t *testing.T) {
	tests := []struct {
		code    int
		message string
		want    bool
	}{
		{1004, "Statement is incomplete at this time. Please try again shortly.", true},
		{1009, "Statement generation in progress. Please try again shortly.", true},
		{1019, "Statement generation in progress. Please try again shortly.", true},
		{1019, "Statement generation has failed.", false},
		{1020, "Invalid request or unable to validate request.", false},
	}
	for _, tc := range tests {
		e := &FlexError{Code: tc.code, Message: tc.message}
		if got := e.IsRetriable(); got != tc.want {
			t.Errorf("IsRetriable(%d, %q) = %v, want %v", tc.code, tc.message, got, tc.want)
		}
	}
}

func TestConvertRejectsUnsupportedPositions(t *testing.T) {
	base := OpenPosition{
		Currency:      "USD",
		AssetCategory: "STK",
		Symbol:        "ABCD",
		Multiplier:    "1",
		FxRateToBase:  "0.89",
		MarkPrice:     "11.11",
		Position:      "10",
		Side:          "Long",
		LevelOfDetail: "SUMMARY",
	}
	tests := []struct {
		name   string
		mutate func(*OpenPosition)
	}{
		{"option multiplier", func(p *OpenPosition) { p.Multiplier = "100" }},
		{"non-stock category", func(p *OpenPosition) { p.AssetCategory = "OPT" }},
		{"short side", func(p *OpenPosition) { p.Side = "Short" }},
		{"lot detail", func(p *OpenPosition) { p.LevelOfDetail = "LOT" }},
		{"option fields", func(p *OpenPosition) { p.PutCall = "C" }},
		{"bad position number", func(p *OpenPosition) { p.Position = "ten" }},
	}

	c := &Client{Logger: zap.NewNop()}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mutate(&p)
			stmt := FlexStatement{}
			stmt.AccountInformation.Currency = "CHF"
			stmt.OpenPositions.Positions = []OpenPosition{p}

			if _, _, err := c.convert([]FlexStatement{stmt}); err == nil {
				t.Error("want error")
			}
		})
	}
}

func TestConvertRejectsInconsistentFxRates(t *testing.T) {
	a := OpenPosition{
		Currency: "USD", AssetCategory: "STK", Symbol: "ABCD", Multiplier: "1",
		FxRateToBase: "0.89", MarkPrice: "11.11", Position: "10", Side: "Long", LevelOfDetail: "SUMMARY",
	}
	b := a
	b.Symbol = "EFGH"
	b.FxRateToBase = "0.90"

	stmt := FlexStatement{}
	stmt.AccountInformation.Currency = "CHF"
	stmt.OpenPositions.Positions = []OpenPosition{a, b}

	c := &Client{Logger: zap.NewNop()}
	if _, _, err := c.convert([]FlexStatement{stmt}); err == nil {
		t.Error("want error for two fx rates on the same currency")
	}
}
