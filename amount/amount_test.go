package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFromDecimal(t *testing.T) {
	type args struct {
		value    string
		basis    string
		rounding Rounding
	}
	tests := []struct {
		name string
		args args
		want int64
	}{
		{"exact", args{"1.23", "0.01", RoundHalfEven}, 123},
		{"half even down, cents", args{"0.125", "0.01", RoundHalfEven}, 12},
		{"half even up, cents", args{"0.135", "0.01", RoundHalfEven}, 14},
		{"half even down, units", args{"2.5", "1", RoundHalfEven}, 2},
		{"half even up, units", args{"3.5", "1", RoundHalfEven}, 4},
		{"half even negative", args{"-2.5", "1", RoundHalfEven}, -2},
		{"half even negative odd", args{"-3.5", "1", RoundHalfEven}, -4},
		{"half even satoshi", args{"0.000000025", "0.00000001", RoundHalfEven}, 2},
		{"half even satoshi odd", args{"0.000000035", "0.00000001", RoundHalfEven}, 4},
		{"half even thousands", args{"2500", "1000", RoundHalfEven}, 2},
		{"half even non decimal basis", args{"1.25", "0.5", RoundHalfEven}, 2},
		{"above half", args{"0.1251", "0.01", RoundHalfEven}, 13},
		{"below half", args{"0.1349", "0.01", RoundHalfEven}, 13},
		{"half up", args{"0.125", "0.01", RoundHalfUp}, 13},
		{"half up negative", args{"-0.125", "0.01", RoundHalfUp}, -13},
		{"down", args{"0.129", "0.01", RoundDown}, 12},
		{"down negative", args{"-0.129", "0.01", RoundDown}, -12},
		{"zero", args{"0", "0.01", RoundHalfEven}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromDecimal(d(tt.args.value), d(tt.args.basis), tt.args.rounding)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Count)
			assert.True(t, d(tt.args.basis).Equal(got.Basis))
		})
	}
}

func TestFromDecimal_InvalidBasis(t *testing.T) {
	_, err := FromDecimal(d("1"), d("0"), RoundHalfEven)
	assert.ErrorIs(t, err, ErrInvalidBasis)

	_, err = FromDecimal(d("1"), d("-0.01"), RoundHalfEven)
	assert.ErrorIs(t, err, ErrInvalidBasis)
}

func TestFromDecimal_Overflow(t *testing.T) {
	_, err := FromDecimal(d("1e30"), d("1"), RoundHalfEven)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestOne(t *testing.T) {
	one, err := One(d("0.01"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), one.Count)
	assert.True(t, one.Decimal().Equal(d("1")))

	one, err = One(d("0.00000001"))
	require.NoError(t, err)
	assert.Equal(t, int64(100000000), one.Count)
}

func TestInvert(t *testing.T) {
	tests := []struct {
		name   string
		amount Amount
		target string
		want   int64
	}{
		{"exact", Amount{80, d("0.01")}, "0.01", 125},
		{"repeating", Amount{90, d("0.01")}, "0.0001", 11111},
		{"one third", Amount{3, d("1")}, "0.01", 33},
		{"tie to even", Amount{8, d("1")}, "0.01", 12},
		{"tie to even coarse", Amount{8, d("1")}, "0.1", 1},
		{"negative", Amount{-80, d("0.01")}, "0.01", -125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Invert(tt.amount, d(tt.target), DefaultRounding)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Count)
			assert.True(t, d(tt.target).Equal(got.Basis))
		})
	}
}

func TestInvert_Zero(t *testing.T) {
	_, err := Invert(Amount{0, d("0.01")}, d("0.01"), DefaultRounding)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestInvert_InvalidBasis(t *testing.T) {
	_, err := Invert(Amount{1, d("0.01")}, d("0"), DefaultRounding)
	assert.ErrorIs(t, err, ErrInvalidBasis)
}

func TestTimes(t *testing.T) {
	got, err := Times(Amount{95, d("0.01")}, Amount{125, d("0.01")}, DefaultRounding)
	require.NoError(t, err)
	assert.True(t, got.Equal(Amount{119, d("0.01")}), got.String())

	// precision follows the first operand
	got, err = Times(Amount{12500, d("0.0001")}, Amount{95, d("0.01")}, DefaultRounding)
	require.NoError(t, err)
	assert.True(t, got.Equal(Amount{11875, d("0.0001")}), got.String())

	// 0.5 * 0.25 = 0.125 -> 0.12
	got, err = Times(Amount{50, d("0.01")}, Amount{25, d("0.01")}, DefaultRounding)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Count)
}

func TestAmount_Equal(t *testing.T) {
	a := Amount{100, d("0.01")}
	b := Amount{1, d("1")}

	assert.False(t, a.Equal(b))
	assert.Equal(t, 0, a.Cmp(b))
	assert.True(t, a.Equal(Amount{100, d("0.010")}))
	assert.Equal(t, "100@0.01", a.String())
}

func TestAmount_ToBasis(t *testing.T) {
	got, err := Amount{125, d("0.01")}.ToBasis(d("0.1"), DefaultRounding)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Count)
}

func TestAmount_IsZero(t *testing.T) {
	assert.True(t, Amount{0, d("0.01")}.IsZero())
	assert.False(t, Amount{1, d("0.01")}.IsZero())
}
