package fixed

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToScale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    Decimal
		scale uint8
		want  uint64
	}{
		{name: "increase precision", in: New(42, 2), scale: 3, want: 420},
		{name: "decrease precision", in: New(42, 2), scale: 1, want: 4},
		{name: "decrease over value", in: New(123, 4), scale: 0, want: 0},
		{name: "usd to price scale", in: New(1_000_000, 6), scale: PriceScale, want: 100_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.ToScale(tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.scale, got.Scale)
			assert.Equal(t, tt.want, got.Val)
		})
	}
}

func TestToScaleOverflow(t *testing.T) {
	_, err := New(math.MaxUint64, 0).ToScale(1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestFromDecimal(t *testing.T) {
	d, err := FromDecimal(decimal.RequireFromString("36.123456789"), PriceScale)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_612_345_678), d.Val)
	assert.True(t, d.Decimal().Equal(decimal.RequireFromString("36.12345678")))

	_, err = FromDecimal(decimal.NewFromInt(-1), 0)
	assert.ErrorIs(t, err, ErrNegative)
}

func TestString(t *testing.T) {
	assert.Equal(t, "50000.00000000", FromPrice(50_000*100_000_000).String())
	assert.Equal(t, "0.05", New(5, 2).String())
	assert.True(t, FromPrice(0).IsZero())
}
