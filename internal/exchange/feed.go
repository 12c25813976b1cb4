package exchange

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/K-Pomian/synthetify-protocol/internal/fixed"
)

// PriceFeed is the part of an oracle price account the exchange consumes.
// The real price is Price * 10^Expo.
type PriceFeed struct {
	Price int64
	Expo  int32
	Conf  uint64
}

// NewPriceFeed scales a human price into the feed's integer representation.
func NewPriceFeed(price decimal.Decimal, expo int32) (PriceFeed, error) {
	raw := price.Shift(-expo)
	if !raw.IsInteger() {
		return PriceFeed{}, fmt.Errorf("price %s not representable with expo %d", price, expo)
	}
	if raw.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || raw.IsNegative() {
		return PriceFeed{}, fmt.Errorf("price %s out of range for expo %d", price, expo)
	}
	return PriceFeed{Price: raw.IntPart(), Expo: expo}, nil
}

// Decimal returns the feed price as an exact decimal.
func (f PriceFeed) Decimal() decimal.Decimal {
	return decimal.New(f.Price, f.Expo)
}

// AssetPrice converts the feed into the exchange's stored price scale.
func (f PriceFeed) AssetPrice() (fixed.Decimal, error) {
	if f.Price < 0 {
		return fixed.Decimal{}, fmt.Errorf("negative feed price %d", f.Price)
	}
	return fixed.FromDecimal(f.Decimal(), fixed.PriceScale)
}
