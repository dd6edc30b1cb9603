package worthy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ExchangeRate is one directed observation: 1 unit of From is worth Rate
// units of To. Observations carry no timestamp; one valuation run treats
// all of them as a simultaneous snapshot.
type ExchangeRate struct {
	From Denomination
	To   Denomination
	Rate decimal.Decimal
}

// NewExchangeRate validates and builds an observation. A zero or negative
// rate is a data error on that single observation: callers filter it out,
// they do not abort the run.
func NewExchangeRate(from, to Denomination, rate decimal.Decimal) (ExchangeRate, error) {
	if !rate.IsPositive() {
		return ExchangeRate{}, fmt.Errorf("exchange rate %s -> %s must be strictly positive, got %s", from, to, rate)
	}
	return ExchangeRate{From: from, To: to, Rate: rate}, nil
}

func (r ExchangeRate) String() string {
	return fmt.Sprintf("1 %s = %s %s", r.From, r.Rate, r.To)
}
