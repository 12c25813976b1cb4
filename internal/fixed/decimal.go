// Package fixed implements the exchange program's on-chain fixed-point decimal.
//
// A Decimal is an unsigned integer Val interpreted as Val / 10^Scale. Every
// conversion truncates toward zero and is checked against the u64 range the
// account layout stores.
package fixed

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// PriceScale is the scale asset prices are stored at.
const PriceScale uint8 = 8

var (
	ErrOverflow = errors.New("fixed: overflow")
	ErrNegative = errors.New("fixed: negative result")
)

var maxVal = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// Decimal is the borsh layout {val: u64, scale: u8}.
type Decimal struct {
	Val   uint64 `json:"val"`
	Scale uint8  `json:"scale"`
}

func New(val uint64, scale uint8) Decimal { return Decimal{Val: val, Scale: scale} }

func FromPrice(v uint64) Decimal { return Decimal{Val: v, Scale: PriceScale} }

// FromDecimal rescales an arbitrary-precision value, truncating extra digits.
func FromDecimal(d decimal.Decimal, scale uint8) (Decimal, error) {
	v, err := toUint64(d.Shift(int32(scale)).Truncate(0))
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Val: v, Scale: scale}, nil
}

// Decimal returns the exact arbitrary-precision value.
func (d Decimal) Decimal() decimal.Decimal {
	return fromUint64(d.Val).Shift(-int32(d.Scale))
}

func (d Decimal) String() string { return d.Decimal().StringFixed(int32(d.Scale)) }

func (d Decimal) IsZero() bool { return d.Val == 0 }

// ToScale changes precision; lowering it truncates.
func (d Decimal) ToScale(scale uint8) (Decimal, error) {
	return FromDecimal(d.Decimal(), scale)
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func toUint64(d decimal.Decimal) (uint64, error) {
	if d.Sign() < 0 {
		return 0, ErrNegative
	}
	if d.GreaterThan(maxVal) {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, d.String())
	}
	return d.BigInt().Uint64(), nil
}
