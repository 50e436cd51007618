package amount

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidBasis   = errors.New("basis must be positive")
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("count overflows int64")
)

// Rounding policy applied when a value falls between two representable counts
type Rounding int

const (
	// RoundHalfEven rounds ties to the even count (banker's rounding)
	RoundHalfEven Rounding = iota
	// RoundHalfUp rounds ties away from zero
	RoundHalfUp
	// RoundDown truncates toward zero
	RoundDown
)

// DefaultRounding is the policy shared by every rate computation.
const DefaultRounding = RoundHalfEven

func (r Rounding) String() string {
	switch r {
	case RoundHalfEven:
		return "half_even"
	case RoundHalfUp:
		return "half_up"
	case RoundDown:
		return "down"
	default:
		return fmt.Sprintf("rounding(%d)", int(r))
	}
}

var (
	two      = decimal.NewFromInt(2)
	maxCount = decimal.NewFromInt(math.MaxInt64)
	minCount = decimal.NewFromInt(math.MinInt64)
)

// Amount a quantity expressed as an integer count of a basis increment.
// The value of an Amount is Count * Basis.
type Amount struct {
	Count int64
	Basis decimal.Decimal
}

// FromDecimal converts value to the nearest count of basis under rounding
func FromDecimal(value decimal.Decimal, basis decimal.Decimal, rounding Rounding) (Amount, error) {
	if !basis.IsPositive() {
		return Amount{}, fmt.Errorf("from decimal [%v]: %w", basis, ErrInvalidBasis)
	}
	count, err := roundQuotient(value, basis, rounding)
	if err != nil {
		return Amount{}, fmt.Errorf("from decimal [%v / %v]: %w", value, basis, err)
	}
	return Amount{Count: count, Basis: basis}, nil
}

// One returns exactly 1 expressed in basis
func One(basis decimal.Decimal) (Amount, error) {
	return FromDecimal(decimal.NewFromInt(1), basis, DefaultRounding)
}

// Invert computes 1/a rounded into targetBasis
func Invert(a Amount, targetBasis decimal.Decimal, rounding Rounding) (Amount, error) {
	if a.IsZero() {
		return Amount{}, fmt.Errorf("invert [%v]: %w", a, ErrDivisionByZero)
	}
	if !targetBasis.IsPositive() {
		return Amount{}, fmt.Errorf("invert [%v]: %w", targetBasis, ErrInvalidBasis)
	}
	// 1/(count*basis) = n*targetBasis  =>  n = 1/(count*basis*targetBasis)
	den := a.Decimal().Mul(targetBasis)
	count, err := roundQuotient(decimal.NewFromInt(1), den, rounding)
	if err != nil {
		return Amount{}, fmt.Errorf("invert [%v]: %w", a, err)
	}
	return Amount{Count: count, Basis: targetBasis}, nil
}

// Times computes a*b rounded into a's basis.
// The multiplicand a always defines the precision of the result.
func Times(a Amount, b Amount, rounding Rounding) (Amount, error) {
	if !a.Basis.IsPositive() {
		return Amount{}, fmt.Errorf("times [%v]: %w", a, ErrInvalidBasis)
	}
	count, err := roundQuotient(a.Decimal().Mul(b.Decimal()), a.Basis, rounding)
	if err != nil {
		return Amount{}, fmt.Errorf("times [%v * %v]: %w", a, b, err)
	}
	return Amount{Count: count, Basis: a.Basis}, nil
}

// ToBasis re-expresses a in another basis
func (a Amount) ToBasis(basis decimal.Decimal, rounding Rounding) (Amount, error) {
	return FromDecimal(a.Decimal(), basis, rounding)
}

func (a Amount) IsZero() bool {
	return a.Count == 0
}

// Decimal returns the exact value of the amount
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(a.Count).Mul(a.Basis)
}

// Equal compares count and basis. Amounts of different bases are never equal,
// even when their values are.
func (a Amount) Equal(other Amount) bool {
	return a.Count == other.Count && a.Basis.Equal(other.Basis)
}

// Cmp compares the values of a and other, regardless of basis
func (a Amount) Cmp(other Amount) int {
	return a.Decimal().Cmp(other.Decimal())
}

func (a Amount) String() string {
	return fmt.Sprintf("%d@%v", a.Count, a.Basis)
}

// roundQuotient returns num/den rounded to an integer.
// The tie is decided on the exact remainder so no intermediate rounding happens.
func roundQuotient(num, den decimal.Decimal, rounding Rounding) (int64, error) {
	if den.IsZero() {
		return 0, ErrDivisionByZero
	}
	q, r := num.QuoRem(den, 0)
	if !r.IsZero() {
		away := false
		switch rounding {
		case RoundHalfEven:
			c := r.Abs().Mul(two).Cmp(den.Abs())
			away = c > 0 || (c == 0 && !q.Mod(two).IsZero())
		case RoundHalfUp:
			away = r.Abs().Mul(two).Cmp(den.Abs()) >= 0
		case RoundDown:
		default:
			return 0, fmt.Errorf("unsupported rounding %v", rounding)
		}
		if away {
			q = q.Add(decimal.NewFromInt(int64(num.Sign() * den.Sign())))
		}
	}
	if q.GreaterThan(maxCount) || q.LessThan(minCount) {
		return 0, ErrOverflow
	}
	return q.IntPart(), nil
}
