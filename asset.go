package worthy

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unreachable")
	}
}

// Asset is a quantity of a holding: an exact decimal amount of one
// denomination. It is an immutable value type; amounts use base-10 decimal
// arithmetic because they represent money.
type Asset struct {
	Amount       decimal.Decimal `json:"amount"`
	Denomination Denomination    `json:"denomination"`
}

// A builds an asset from any numeric amount.
func A[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](amount T, d Denomination) Asset {
	return Asset{Amount: newDecimal(amount), Denomination: d}
}

// Add returns the asset with n added. Panics on denomination mismatch, the
// same way adding EUR to AAPL shares should never have been reachable.
func (a Asset) Add(n Asset) Asset {
	if a.Denomination != n.Denomination {
		panic("denomination mismatch: " + a.Denomination.String() + " != " + n.Denomination.String())
	}
	return Asset{Amount: a.Amount.Add(n.Amount), Denomination: a.Denomination}
}

func (a Asset) Equal(n Asset) bool {
	return a.Denomination == n.Denomination && a.Amount.Equal(n.Amount)
}

// currency returns the full go-money currency for a fiat asset.
func (a Asset) currency() money.Currency {
	// to get a never nil currency we go through the money constructor
	return *money.New(0, a.Denomination.Symbol()).Currency()
}

// String formats fiat amounts with their currency formatter ("€1,234.56");
// other denominations keep the full decimal amount and a kind prefix.
func (a Asset) String() string {
	if !a.Denomination.IsCurrency() {
		return fmt.Sprintf("%s %s", a.Amount, a.Denomination)
	}
	cur := a.currency()
	dec := a.Amount.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}
