package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"go-rate-matrix/amount"
)

// Asset a tradeable asset: a currency or a token.
// Assets are owned by the caller, the rate matrix only keeps references to them.
type Asset struct {
	// Symbol identifies the asset, e.g. "USD" or "BTC"
	Symbol string

	// Basis the smallest representable increment of the asset, e.g. 0.01
	Basis decimal.Decimal

	// Scale number of decimals used when displaying amounts
	Scale int32
}

var ErrEmptySymbol = errors.New("empty asset symbol")

// NewAsset constructs a valid Asset
func NewAsset(symbol string, basis decimal.Decimal, scale int32) (*Asset, error) {
	a := &Asset{Symbol: symbol, Basis: basis, Scale: scale}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// MustAsset is like NewAsset but panics on invalid input. Intended for fixed tables of known assets.
func MustAsset(symbol string, basis string, scale int32) *Asset {
	a, err := NewAsset(symbol, decimal.RequireFromString(basis), scale)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Asset) Validate() error {
	if a.Symbol == "" {
		return ErrEmptySymbol
	}
	if !a.Basis.IsPositive() {
		return fmt.Errorf("asset %v: %w", a.Symbol, amount.ErrInvalidBasis)
	}
	return nil
}

func (a *Asset) String() string {
	if a == nil {
		return "<nil>"
	}
	return a.Symbol
}

// Quote a directly observed rate: 1 Base = Rate Quote
type Quote struct {
	Base  *Asset
	Quote *Asset
	Rate  decimal.Decimal
}

// Exchanged result of a conversion
type Exchanged struct {
	// Rate 1 from = Rate to
	Rate amount.Amount

	// Original the converted amount, in the from asset
	Original amount.Amount

	// Amount the result, in the to asset
	Amount amount.Amount
}
