package worthy

import "github.com/shopspring/decimal"

// Weight is a conversion cost: either a finite exact decimal, or the
// infinite sentinel marking a node unreachable from the source. Infinite
// compares greater than every finite value and absorbs under combination.
type Weight struct {
	value    decimal.Decimal
	infinite bool
}

// Infinite is the unreachable sentinel.
var Infinite = Weight{infinite: true}

// Finite wraps a numeric value as a finite weight.
func Finite[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Weight {
	return Weight{value: newDecimal(value)}
}

func (w Weight) IsInfinite() bool { return w.infinite }

// Decimal returns the finite value; ok is false for the infinite sentinel.
func (w Weight) Decimal() (_ decimal.Decimal, ok bool) {
	return w.value, !w.infinite
}

func (w Weight) String() string {
	if w.infinite {
		return "∞"
	}
	return w.value.String()
}

// Measure is the cost algebra the shortest-path solver runs over. Textbook
// Bellman-Ford hardcodes {0, +∞, +, <}; supplying the algebra instead lets
// the same relaxation loop compose conversion rates, where the identity is
// 1 and combining two path legs multiplies them.
type Measure[W any] interface {
	// Zero is the identity element, seeding the source distance.
	Zero() W
	// Infinite is the absorbing sentinel for unreached nodes.
	Infinite() W
	IsInfinite(W) bool
	// Combine extends a path by one edge.
	Combine(a, b W) W
	Less(a, b W) bool
}

// multiply is the Measure for conversion factors.
type multiply struct{}

func (multiply) Zero() Weight             { return Finite(1) }
func (multiply) Infinite() Weight         { return Infinite }
func (multiply) IsInfinite(w Weight) bool { return w.infinite }

func (multiply) Combine(a, b Weight) Weight {
	if a.infinite || b.infinite {
		return Infinite
	}
	return Weight{value: a.value.Mul(b.value)}
}

func (multiply) Less(a, b Weight) bool {
	switch {
	case a.infinite:
		return false
	case b.infinite:
		return true
	default:
		return a.value.LessThan(b.value)
	}
}
