package utils

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

var (
	ErrNegative      = errors.New("negative value")
	ErrTooPrecise    = errors.New("more fractional digits than token decimals")
	ErrNotANumber    = errors.New("not a decimal number")
	ErrEmptyQuantity = errors.New("empty value")
	ErrOutOfRange    = errors.New("value does not fit in uint256")
)

// Decimal digits of the largest uint256.
var maxUint256Digits = int64(len(math.MaxBig256.String()))

// ParseUnits scales a human readable decimal string to integer base units.
func ParseUnits(value string, decimals int32) (*big.Int, error) {
	if value == "" {
		return nil, ErrEmptyQuantity
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotANumber, value)
	}
	if d.IsNegative() {
		return nil, ErrNegative
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	// bound the exponent before scaling; Shift materialises every digit
	coefficientDigits := int64(len(d.Coefficient().String()))
	shift := int64(d.Exponent()) + int64(decimals)
	if coefficientDigits+shift > maxUint256Digits {
		return nil, ErrOutOfRange
	}
	if shift < -coefficientDigits-maxUint256Digits {
		return nil, ErrTooPrecise
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrTooPrecise
	}
	amount := scaled.BigInt()
	if amount.Cmp(math.MaxBig256) > 0 {
		return nil, ErrOutOfRange
	}
	return amount, nil
}

// FormatUnits renders base units as a human readable decimal string.
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ApplySlippage returns amount reduced by the fractional tolerance, rounded down.
func ApplySlippage(amount *big.Int, tolerance decimal.Decimal) *big.Int {
	keep := decimal.NewFromInt(1).Sub(tolerance)
	return decimal.NewFromBigInt(amount, 0).Mul(keep).Floor().BigInt()
}
