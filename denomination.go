package worthy

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates what a Denomination measures.
type Kind string

const (
	// Currency is an ISO-4217-like fiat currency code, e.g. "EUR".
	Currency Kind = "currency"
	// Cryptocurrency is a crypto symbol, e.g. "BTC".
	Cryptocurrency Kind = "cryptocurrency"
	// Stock is an equity ticker, e.g. "TSLA".
	Stock Kind = "stock"
)

// Denomination identifies a unit of value: a fiat currency, a
// cryptocurrency, or a stock ticker. It is an immutable comparable value
// type; identity is the (kind, symbol) pair, so it can serve directly as a
// map key and as a graph node.
type Denomination struct {
	kind   Kind
	symbol string
}

// NewCurrency returns the denomination for a fiat currency code.
func NewCurrency(code string) Denomination { return Denomination{Currency, code} }

// NewCryptocurrency returns the denomination for a cryptocurrency symbol.
func NewCryptocurrency(symbol string) Denomination { return Denomination{Cryptocurrency, symbol} }

// NewStock returns the denomination for an equity ticker.
func NewStock(ticker string) Denomination { return Denomination{Stock, ticker} }

func (d Denomination) Kind() Kind     { return d.kind }
func (d Denomination) Symbol() string { return d.symbol }

// IsCurrency reports whether the denomination is a fiat currency.
func (d Denomination) IsCurrency() bool { return d.kind == Currency }

func (d Denomination) String() string {
	if d.kind == Currency {
		return d.symbol
	}
	return fmt.Sprintf("%s:%s", d.kind, d.symbol)
}

// jdenomination is the persisted shape, shared by snapshots and config.
type jdenomination struct {
	Kind   string `json:"kind"`
	Symbol string `json:"symbol"`
}

func (d Denomination) MarshalJSON() ([]byte, error) {
	return json.Marshal(jdenomination{Kind: string(d.kind), Symbol: d.symbol})
}

func (d *Denomination) UnmarshalJSON(b []byte) error {
	var j jdenomination
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	parsed, err := NewDenomination(j.Kind, j.Symbol)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewDenomination builds a denomination from its persisted (kind, symbol)
// pair, rejecting unknown kinds and empty symbols.
func NewDenomination(kind, symbol string) (Denomination, error) {
	if symbol == "" {
		return Denomination{}, fmt.Errorf("denomination symbol is empty")
	}
	switch Kind(kind) {
	case Currency, Cryptocurrency, Stock:
		return Denomination{Kind(kind), symbol}, nil
	}
	return Denomination{}, fmt.Errorf("unknown denomination kind %q", kind)
}
