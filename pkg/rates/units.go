package rates

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrPrecisionLoss = errors.New("amount exceeds token precision")
)

// ParseAmount parses a user-entered decimal quantity; it must be positive
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be greater than 0", ErrInvalidAmount)
	}
	return amount, nil
}

// ToBaseUnits scales amount by the token's decimals. Amounts with more
// fractional digits than the token supports are rejected, never rounded.
func (t Token) ToBaseUnits(amount decimal.Decimal) (*big.Int, error) {
	scaled := amount.Shift(t.Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", ErrPrecisionLoss, amount, t.Decimals)
	}
	return scaled.BigInt(), nil
}

// FromBaseUnits converts a smallest-unit integer back to whole tokens
func (t Token) FromBaseUnits(value *big.Int) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -t.Decimals)
}

// FormatAddress shortens an address to 0x1234...abcd form
func FormatAddress(address string, length int) string {
	if address == "" {
		return ""
	}
	if length <= 0 {
		length = 4
	}
	if len(address) <= 2+2*length {
		return address
	}
	return address[:2+length] + "..." + address[len(address)-length:]
}

// FormatBalance renders a decimal balance string with fixed places
func FormatBalance(balance string, places int32) string {
	if balance == "" {
		return "0"
	}
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return "0"
	}
	return d.StringFixed(places)
}
