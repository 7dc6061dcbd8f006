package decimalx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompact(t *testing.T) {
	testCases := []struct {
		name string
		in   decimal.Decimal
		want string
	}{
		{name: "small", in: decimal.RequireFromString("999.456"), want: "999.46"},
		{name: "thousand", in: decimal.NewFromInt(1500), want: "1.50K"},
		{name: "million", in: decimal.NewFromInt(250_000_000), want: "250.00M"},
		{name: "billion", in: decimal.RequireFromString("12345678901"), want: "12.35B"},
		{name: "negative", in: decimal.NewFromInt(-2_000_000), want: "-2.00M"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compact(tc.in))
		})
	}
}

func TestMean(t *testing.T) {
	assert.True(t, Mean(nil).IsZero())
	ds := []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(6)}
	assert.True(t, Mean(ds).Equal(decimal.NewFromInt(3)))
}

func TestFromString(t *testing.T) {
	d, err := FromString("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = FromString("0.0001")
	require.NoError(t, err)
	assert.Equal(t, "0.0001", d.String())

	_, err = FromString("abc")
	assert.Error(t, err)
}
