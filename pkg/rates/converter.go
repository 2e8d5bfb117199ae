package rates

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownToken = errors.New("unknown token")
	ErrInvalidRate  = errors.New("invalid rate")
	ErrNilTable     = errors.New("rate table is nil")
)

// Converter values token quantities in INR. It only reads its table.
type Converter struct {
	table Table
}

// NewConverter wraps a rate table
func NewConverter(table Table) (*Converter, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	return &Converter{table: table}, nil
}

// RateOf returns the INR price of one whole token. Missing symbols fail with
// ErrUnknownToken instead of yielding a zero rate.
func (c *Converter) RateOf(symbol string) (decimal.Decimal, error) {
	rate, ok := c.table.Rate(symbol)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownToken, symbol)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s for %q", ErrInvalidRate, rate, symbol)
	}
	return rate, nil
}

// ToINR returns amount × rate for the token
func (c *Converter) ToINR(amount decimal.Decimal, symbol string) (decimal.Decimal, error) {
	rate, err := c.RateOf(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}
