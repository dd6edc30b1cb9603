// Package cfiresim posts a valuation to the cFIREsim retirement simulator
// (historical-cycles simulation) and extracts the headline success-rate
// lines from its response. The service speaks a Django form wired to a
// browser UI, so the request carries the full form with mostly constant
// fields and the reply embeds the statistics as an HTML fragment.
package cfiresim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const baseURL = "https://www.cfiresim.com"

// the simulator validates the token against the form, not a session.
const csrfMiddlewareToken = "eFBajFh8XEERVEK6yuI00J4R1qWjonS4xv417X4toibJYzGc220Y36dEcFGcvFZr"

// Client posts simulations to cFIREsim.
type Client struct {
	BaseURL string // overridable in tests
	HTTP    *http.Client
	Logger  *zap.Logger
}

// Adjustment is one pension-like yearly addition to the simulated plan.
type Adjustment struct {
	Label         string
	StartYear     int
	AmountPerYear decimal.Decimal
}

// maxAdjustments is the size of the adjustment formset the simulator
// expects; every slot must be posted, filled or blank.
const maxAdjustments = 10

// Simulation is the variable part of the form; everything else is posted
// with the simulator's defaults.
type Simulation struct {
	RetirementYear        int
	RetirementEndYear     int
	InitialYearlySpending int
	PortfolioValue        decimal.Decimal

	// SocialSecurityMonthlyValue is posted into the annual-value field
	// with the frequency toggle set to monthly.
	SocialSecurityStartYear    int
	SocialSecurityMonthlyValue int

	Adjustments []Adjustment
}

// Result is what the simulator reports back.
type Result struct {
	// Stats are the headline lines of the statistics table, e.g.
	// "95.12% - Failed 4 of 82 total cycles."
	Stats []string
	// URL is the shareable link to the simulation.
	URL string
}

// Run posts the simulation and parses the reply.
func (c *Client) Run(ctx context.Context, sim Simulation) (*Result, error) {
	form := defaultForm()
	form.Set("retirement_year", strconv.Itoa(sim.RetirementYear))
	form.Set("retirement_end_year", strconv.Itoa(sim.RetirementEndYear))
	form.Set("initial_yearly_spending", strconv.Itoa(sim.InitialYearlySpending))
	form.Set("ss_start_year", strconv.Itoa(sim.SocialSecurityStartYear))
	form.Set("ss_annual_value", strconv.Itoa(sim.SocialSecurityMonthlyValue))
	form.Set("portfolio_value", sim.PortfolioValue.Floor().String())
	if len(sim.Adjustments) > maxAdjustments {
		return nil, fmt.Errorf("cfiresim: at most %d adjustments, got %d", maxAdjustments, len(sim.Adjustments))
	}
	setAdjustments(form, sim.Adjustments)

	base := c.BaseURL
	if base == "" {
		base = baseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/calculator/get_simulation", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cfiresim: http status %v", resp.Status)
	}

	var body struct {
		Stats        string `json:"stats"`
		TrackingUUID string `json:"tracking_uuid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("cfiresim: parsing response: %w", err)
	}

	stats, err := parseStats(body.Stats)
	if err != nil {
		return nil, fmt.Errorf("cfiresim: parsing stats fragment: %w", err)
	}
	return &Result{Stats: stats, URL: base + "/" + body.TrackingUUID}, nil
}

// parseStats pulls the row-header cell texts out of the statistics table
// fragment (the cells carry scope="row").
func parseStats(fragment string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	var stats []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" && hasAttr(n, "scope", "row") {
			if text := strings.TrimSpace(textContent(n)); text != "" {
				stats = append(stats, text)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return stats, nil
}

func hasAttr(n *html.Node, key, value string) bool {
	for _, a := range n.Attr {
		if a.Key == key && a.Val == value {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(textContent(child))
	}
	return b.String()
}

// defaultForm is the constant bulk of the simulation form: all-equities
// historical simulation with CPI inflation, no floors or ceilings.
func defaultForm() url.Values {
	form := url.Values{}
	for _, kv := range [][2]string{
		{"csrfmiddlewaretoken", csrfMiddlewareToken},
		{"data_method", "historical_all"},
		{"single_simulation_year", "1966"},
		{"historical_data_start_year", "1900"},
		{"historical_data_end_year", "1980"},
		{"constant_market_growth", "7.50"},
		{"spending_plan", "inflation_adjusted"},
		{"inflation_type", "cpi"},
		{"inflation_flat_rate", "3.10"},
		{"guyton_exceeds", "20"},
		{"guyton_cut", "10"},
		{"guyton_fall", "20"},
		{"guyton_raise", "10"},
		{"yearly_spending_percent_of_portfolio", "4"},
		{"z_value", "0.50"},
		{"vpw_rate_of_return", "4.30"},
		{"vpw_future_value", "0"},
		{"hebeler_age_at_retirement", "0"},
		{"hebeler_weighted_rmd", "50"},
		{"hebeler_weighted_cpi", "50"},
		{"cape_yield_multiplier", "0.50"},
		{"cape_constant_adjustment", "1.00"},
		{"spending_floor_type", "none"},
		{"spending_floor_value", "0"},
		{"spending_ceiling_type", "none"},
		{"spending_ceiling_value", "0"},
		{"investigate_initial_yearly_spending_threshold", "95"},
		{"equities", "100"},
		{"bonds", "0"},
		{"fees", "0.18"},
		{"rebalance_annually", "on"},
		{"gold", "0"},
		{"cash", "0"},
		{"growth_of_cash", "0.25"},
		{"keep_allocation_constant", "on"},
		{"change_allocation_start_year", "2031"},
		{"target_equities", "50"},
		{"target_bonds", "50"},
		{"change_allocation_end_year", "2041"},
		{"target_gold", "0"},
		{"target_cash", "0"},
		{"ss_frequency_toggle", "monthly"},
		{"ss_end_year", "2100"},
		{"ss_spouse_frequency_toggle", "annual"},
		{"ss_spouse_annual_value", "0"},
		{"ss_spouse_start_year", "2036"},
		{"ss_spouse_end_year", "2100"},
		{"form-TOTAL_FORMS", "10"},
		{"form-INITIAL_FORMS", "0"},
		{"form-MIN_NUM_FORMS", "0"},
		{"form-MAX_NUM_FORMS", "1000"},
	} {
		form.Set(kv[0], kv[1])
	}
	return form
}

// setAdjustments fills the adjustment formset: the leading slots are the
// real adjustments (pensions starting at their year), and the remaining
// slots stay blank income rows the formset requires anyway.
func setAdjustments(form url.Values, adjs []Adjustment) {
	for i, adj := range adjs {
		form.Set(fmt.Sprintf("form-%d-label", i), adj.Label)
		form.Set(fmt.Sprintf("form-%d-adjustment_type", i), "pension")
		form.Set(fmt.Sprintf("form-%d-inflation_adjusted", i), "on")
		form.Set(fmt.Sprintf("form-%d-inflation_type", i), "cpi")
		form.Set(fmt.Sprintf("form-%d-start_year", i), strconv.Itoa(adj.StartYear))
		form.Set(fmt.Sprintf("form-%d-amount_per_year", i), adj.AmountPerYear.Floor().String())
	}

	for i := len(adjs); i <= maxAdjustments; i++ {
		for _, kv := range [][2]string{
			{"label", ""},
			{"amount_per_year", ""},
			{"adjustment_type", "income"},
			{"recurring", "on"},
			{"inflation_adjusted", "on"},
			{"start_year", "2021"},
			{"end_year", "2100"},
			{"inflation_type", "cpi"},
		} {
			form.Set(fmt.Sprintf("form-%d-%s", i, kv[0]), kv[1])
		}
	}
}
