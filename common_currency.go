package worthy

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InCommonCurrency turns a flat list of exchange-rate observations into a
// conversion factor table: 1 unit of each denomination is worth factor
// units of base. Denominations with no conversion path to base are absent
// from the table, never mapped to zero or infinity. The base itself always
// maps to 1, even when no observation mentions it.
//
// Inconsistent rate sets (cycles whose composed product is not 1) are
// logged and solved best-effort; see bellmanFord.
func InCommonCurrency(logger *zap.Logger, rates []ExchangeRate, base Denomination) map[Denomination]decimal.Decimal {
	g := newConversionGraph(rates)

	source, ok := g.index[base]
	if !ok {
		// No observation touches the base: nothing but the base itself
		// is convertible.
		if len(rates) > 0 {
			logger.Warn("base denomination absent from rate observations", zap.Stringer("base", base))
		}
		return map[Denomination]decimal.Decimal{base: decimal.NewFromInt(1)}
	}

	dist, _ := bellmanFord(logger, &g.graph, source, multiply{})

	factors := make(map[Denomination]decimal.Decimal, len(g.nodes))
	for i, d := range g.nodes {
		if v, finite := dist[i].Decimal(); finite {
			factors[d] = v
		}
	}
	// An inconsistent cycle through the base can drag its own distance
	// below the identity; the base is worth 1 of itself regardless.
	factors[base] = decimal.NewFromInt(1)
	return factors
}

// Valuation values holdings in the base denomination. Holdings whose
// denomination has no conversion factor are collected into unconvertible
// and excluded from the total rather than aborting: one missing rate must
// not blank out the whole net-worth report. Callers are expected to
// display unconvertible separately.
func Valuation(logger *zap.Logger, rates []ExchangeRate, base Denomination, holdings []Asset) (total Asset, factors map[Denomination]decimal.Decimal, unconvertible []Asset) {
	factors = InCommonCurrency(logger, rates, base)

	amount := decimal.Zero
	for _, h := range holdings {
		factor, ok := factors[h.Denomination]
		if !ok {
			logger.Warn("holding not connected to base denomination",
				zap.Stringer("denomination", h.Denomination),
				zap.String("amount", h.Amount.String()))
			unconvertible = append(unconvertible, h)
			continue
		}
		amount = amount.Add(h.Amount.Mul(factor))
	}
	return Asset{Amount: amount, Denomination: base}, factors, unconvertible
}
