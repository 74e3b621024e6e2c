// Package fixed provides the unsigned fixed-point integers used for asset
// amounts, share balances, rates and indexes.
//
// Amounts are integers in the asset's minor unit. Rates and indexes are
// scaled by RAY (1e27). All arithmetic is done on 256-bit words; inputs
// accepted by Parse are bounded by MaxAmount so that products with a RAY
// scaled factor cannot overflow.
package fixed

import (
	"errors"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalid  = errors.New("fixed: invalid unsigned integer")
	ErrTooLarge = errors.New("fixed: value exceeds maximum amount")
)

// MaxAmount bounds every externally supplied value (1e36).
var MaxAmount = MustParse("1000000000000000000000000000000000000")

// Int is an immutable unsigned 256-bit integer. The zero value is 0.
type Int struct{ v uint256.Int }

func New(x uint64) Int {
	var out Int
	out.v.SetUint64(x)
	return out
}

func Zero() Int { return Int{} }

// Parse reads a base-10 unsigned integer. Signs, separators and
// surrounding whitespace are rejected.
func Parse(s string) (Int, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return Int{}, ErrInvalid
	}
	var out Int
	if err := out.v.SetFromDecimal(s); err != nil {
		return Int{}, ErrTooLarge
	}
	if out.Cmp(MaxAmount) > 0 {
		return Int{}, ErrTooLarge
	}
	return out, nil
}

// MustParse is Parse for constants.
func MustParse(s string) Int {
	var out Int
	if err := out.v.SetFromDecimal(s); err != nil {
		panic("fixed: bad constant " + s)
	}
	return out
}

func (a Int) Add(b Int) Int {
	var out Int
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow {
		panic("fixed: addition overflow")
	}
	return out
}

// Sub panics when b > a; callers compare first.
func (a Int) Sub(b Int) Int {
	var out Int
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		panic("fixed: subtraction underflow")
	}
	return out
}

func (a Int) Mul(b Int) Int {
	var out Int
	if _, overflow := out.v.MulOverflow(&a.v, &b.v); overflow {
		panic("fixed: multiplication overflow")
	}
	return out
}

// Div floors; division by zero yields zero.
func (a Int) Div(b Int) Int {
	var out Int
	out.v.Div(&a.v, &b.v)
	return out
}

// MulDiv returns floor(a*b/d) with a 512-bit intermediate. A zero divisor
// yields zero.
func (a Int) MulDiv(b, d Int) Int {
	if d.IsZero() {
		return Int{}
	}
	var out Int
	if _, overflow := out.v.MulDivOverflow(&a.v, &b.v, &d.v); overflow {
		panic("fixed: mul-div overflow")
	}
	return out
}

// MulDivUp is MulDiv rounded toward positive infinity.
func (a Int) MulDivUp(b, d Int) Int {
	out := a.MulDiv(b, d)
	if d.IsZero() {
		return out
	}
	var rem uint256.Int
	if !rem.MulMod(&a.v, &b.v, &d.v).IsZero() {
		out.v.AddUint64(&out.v, 1)
	}
	return out
}

func (a Int) Cmp(b Int) int { return a.v.Cmp(&b.v) }
func (a Int) Lt(b Int) bool { return a.v.Lt(&b.v) }
func (a Int) Gt(b Int) bool { return a.v.Gt(&b.v) }
func (a Int) Eq(b Int) bool { return a.v.Eq(&b.v) }
func (a Int) IsZero() bool { return a.v.IsZero() }
func (a Int) Uint64() uint64 { return a.v.Uint64() }
func (a Int) IsUint64() bool { return a.v.IsUint64() }
func (a Int) String() string { return a.v.Dec() }

func Min(a, b Int) Int {
	if a.Lt(b) {
		return a
	}
	return b
}

func Max(a, b Int) Int {
	if a.Gt(b) {
		return a
	}
	return b
}

// Decimal shifts a by -exp decimal places, e.g. Decimal(6) turns a
// 6-decimal minor-unit amount into whole units.
func (a Int) Decimal(exp int32) decimal.Decimal {
	return decimal.NewFromBigInt(a.v.ToBig(), -exp)
}
