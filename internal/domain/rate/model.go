// Package rate implements the kinked, utilization-driven interest rate
// curve. Every value is a RAY scaled ratio.
package rate

import (
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
)

// Year is the accrual denominator for annual rates.
const Year = 365 * 24 * time.Hour

var yearSeconds = fixed.New(uint64(Year / time.Second))

// Params are static market configuration; they are never mutated at runtime.
type Params struct {
	BaseRate           fixed.Int
	Slope1             fixed.Int
	Slope2             fixed.Int
	OptimalUtilization fixed.Int
	ReserveFactor      fixed.Int
}

// ParamsFromBps builds Params from basis points (200 = 2%).
func ParamsFromBps(base, slope1, slope2, optimal, reserve uint64) Params {
	return Params{
		BaseRate:           fixed.FromBps(base),
		Slope1:             fixed.FromBps(slope1),
		Slope2:             fixed.FromBps(slope2),
		OptimalUtilization: fixed.FromBps(optimal),
		ReserveFactor:      fixed.FromBps(reserve),
	}
}

// Reference is base 2%, slope1 4%, slope2 75%, kink at 80%, reserve 10%.
func Reference() Params { return ParamsFromBps(200, 400, 7500, 8000, 1000) }

type Rates struct {
	Utilization fixed.Int
	BorrowAPR   fixed.Int
	SupplyAPY   fixed.Int
}

type Model struct{ p Params }

func NewModel(p Params) Model { return Model{p: p} }

func (m Model) Params() Params { return m.p }

// Utilization is borrows/deposits, zero when nothing is deposited.
func (m Model) Utilization(deposits, borrows fixed.Int) fixed.Int {
	if deposits.IsZero() || borrows.IsZero() {
		return fixed.Zero()
	}
	u := fixed.Ratio(borrows, deposits)
	return fixed.Min(u, fixed.RAY)
}

func (m Model) BorrowAPR(deposits, borrows fixed.Int) fixed.Int {
	return m.borrowAPRAt(m.Utilization(deposits, borrows))
}

func (m Model) borrowAPRAt(u fixed.Int) fixed.Int {
	opt := m.p.OptimalUtilization
	if opt.IsZero() {
		return m.p.BaseRate.Add(m.p.Slope1.MulDiv(u, fixed.RAY))
	}
	if u.Cmp(opt) <= 0 {
		return m.p.BaseRate.Add(m.p.Slope1.MulDiv(u, opt))
	}
	kinked := m.p.BaseRate.Add(m.p.Slope1)
	if !fixed.RAY.Gt(opt) {
		return kinked
	}
	excess := u.Sub(opt)
	return kinked.Add(m.p.Slope2.MulDiv(excess, fixed.RAY.Sub(opt)))
}

// Rates evaluates the curve once for both sides of the market.
func (m Model) Rates(deposits, borrows fixed.Int) Rates {
	u := m.Utilization(deposits, borrows)
	apr := m.borrowAPRAt(u)
	keep := fixed.Zero()
	if fixed.RAY.Gt(m.p.ReserveFactor) {
		keep = fixed.RAY.Sub(m.p.ReserveFactor)
	}
	supply := apr.MulDiv(u, fixed.RAY).MulDiv(keep, fixed.RAY)
	return Rates{Utilization: u, BorrowAPR: apr, SupplyAPY: supply}
}

// GrowthFactor is RAY + apr*elapsed/Year, the per-step multiplier applied
// to the borrow index. Non-positive elapsed time gives RAY.
func GrowthFactor(apr fixed.Int, elapsed time.Duration) fixed.Int {
	if elapsed <= 0 || apr.IsZero() {
		return fixed.RAY
	}
	secs := fixed.New(uint64(elapsed / time.Second))
	return fixed.RAY.Add(apr.MulDiv(secs, yearSeconds))
}
