package pool

import (
	"fmt"
	"time"

	"github.com/andreolf/clawloan/internal/domain/rate"
	"github.com/andreolf/clawloan/pkg/fixed"
)

// Every mutating method validates first and only then writes, so a
// returned error leaves both the pool and the position untouched.

// Accrue compounds the borrow index for the whole seconds elapsed since
// LastUpdated at the rate implied by current utilization.
func (p *Pool) Accrue(m rate.Model, now time.Time) {
	if p.BorrowIndex.IsZero() {
		p.BorrowIndex = fixed.RAY
	}
	elapsed := now.Sub(p.LastUpdated).Truncate(time.Second)
	if elapsed <= 0 {
		return
	}
	apr := m.BorrowAPR(p.TotalDeposits, p.TotalBorrows)
	p.BorrowIndex = fixed.Max(p.BorrowIndex, fixed.RayMul(p.BorrowIndex, rate.GrowthFactor(apr, elapsed)))
	p.LastUpdated = p.LastUpdated.Add(elapsed)
}

// Available is the liquidity not lent out.
func (p *Pool) Available() fixed.Int {
	if !p.TotalDeposits.Gt(p.TotalBorrows) {
		return fixed.Zero()
	}
	return p.TotalDeposits.Sub(p.TotalBorrows)
}

func (p *Pool) Utilization(m rate.Model) fixed.Int {
	return m.Utilization(p.TotalDeposits, p.TotalBorrows)
}

func (p *Pool) Rates(m rate.Model) rate.Rates {
	return m.Rates(p.TotalDeposits, p.TotalBorrows)
}

// ValueOf is the position's claim on deposits: shares*deposits/totalShares.
func (p *Pool) ValueOf(pos *Position) fixed.Int {
	return pos.Shares.MulDiv(p.TotalDeposits, p.TotalShares)
}

// SharesFor previews how many shares a deposit of amount would mint.
func (p *Pool) SharesFor(amount fixed.Int) fixed.Int {
	if p.TotalShares.IsZero() {
		return amount
	}
	return amount.MulDiv(p.TotalShares, p.TotalDeposits)
}

func (p *Pool) Deposit(pos *Position, amount fixed.Int) (fixed.Int, error) {
	if !p.Active {
		return fixed.Zero(), ErrInactive
	}
	if amount.IsZero() {
		return fixed.Zero(), ErrInvalidAmount
	}
	shares := p.SharesFor(amount)
	if shares.IsZero() {
		return fixed.Zero(), fmt.Errorf("%w: deposit mints no shares", ErrInvalidAmount)
	}

	p.settleRewards(pos)
	p.TotalDeposits = p.TotalDeposits.Add(amount)
	p.TotalShares = p.TotalShares.Add(shares)
	pos.Shares = pos.Shares.Add(shares)
	pos.Deposited = pos.Deposited.Add(amount)
	p.syncRewardDebt(pos)
	return shares, nil
}

func (p *Pool) Withdraw(pos *Position, shares fixed.Int) (fixed.Int, error) {
	if !p.Active {
		return fixed.Zero(), ErrInactive
	}
	if shares.IsZero() {
		return fixed.Zero(), ErrInvalidAmount
	}
	if shares.Gt(pos.Shares) {
		return fixed.Zero(), ErrInsufficientShares
	}
	amount := shares.MulDiv(p.TotalDeposits, p.TotalShares)
	if amount.Gt(p.Available()) {
		return fixed.Zero(), ErrInsufficientLiquidity
	}
	if amount.IsZero() {
		return fixed.Zero(), fmt.Errorf("%w: shares redeem for nothing", ErrInvalidAmount)
	}

	p.settleRewards(pos)
	p.TotalDeposits = p.TotalDeposits.Sub(amount)
	p.TotalShares = p.TotalShares.Sub(shares)
	pos.Shares = pos.Shares.Sub(shares)
	pos.Withdrawn = pos.Withdrawn.Add(amount)
	p.syncRewardDebt(pos)
	return amount, nil
}

// Lend moves amount out of available liquidity into borrows.
func (p *Pool) Lend(amount fixed.Int) error {
	if !p.Active {
		return ErrInactive
	}
	if amount.IsZero() {
		return ErrInvalidAmount
	}
	if amount.Gt(p.Available()) {
		return ErrInsufficientLiquidity
	}
	p.TotalBorrows = p.TotalBorrows.Add(amount)
	return nil
}

// Split is how a repayment's interest is divided.
type Split struct {
	Reserve         fixed.Int
	DepositIncrease fixed.Int
}

// SplitInterest skims interest*reserveFactor (floored) to reserves.
func SplitInterest(interest, reserveFactor fixed.Int) Split {
	reserve := interest.MulDiv(reserveFactor, fixed.RAY)
	return Split{Reserve: reserve, DepositIncrease: interest.Sub(reserve)}
}

// Settle books a repaid loan: principal leaves borrows, interest is split
// between reserves and lenders.
func (p *Pool) Settle(principal, interest, reserveFactor fixed.Int) (Split, error) {
	if principal.Gt(p.TotalBorrows) {
		return Split{}, fmt.Errorf("settle %s exceeds total borrows %s", principal, p.TotalBorrows)
	}
	s := SplitInterest(interest, reserveFactor)
	p.TotalBorrows = p.TotalBorrows.Sub(principal)
	p.TotalDeposits = p.TotalDeposits.Add(s.DepositIncrease)
	p.TotalReserves = p.TotalReserves.Add(s.Reserve)
	return s, nil
}

// Loss records how a defaulted principal was absorbed.
type Loss struct {
	FromReserves fixed.Int
	FromDeposits fixed.Int
}

// WriteOff removes a defaulted principal from borrows. Reserves absorb the
// loss first, lenders the remainder. A write-off that consumes every
// deposit while shares remain deactivates the pool.
func (p *Pool) WriteOff(principal fixed.Int) (Loss, error) {
	if principal.Gt(p.TotalBorrows) {
		return Loss{}, fmt.Errorf("write-off %s exceeds total borrows %s", principal, p.TotalBorrows)
	}
	fromReserves := fixed.Min(principal, p.TotalReserves)
	fromDeposits := principal.Sub(fromReserves)

	p.TotalBorrows = p.TotalBorrows.Sub(principal)
	p.TotalReserves = p.TotalReserves.Sub(fromReserves)
	p.TotalDeposits = p.TotalDeposits.Sub(fromDeposits)
	if p.TotalDeposits.IsZero() && !p.TotalShares.IsZero() {
		p.Active = false
	}
	return Loss{FromReserves: fromReserves, FromDeposits: fromDeposits}, nil
}

// DistributeReward adds amount to the reward pool and, when shares exist,
// raises the reward index so every share earns amount/totalShares.
func (p *Pool) DistributeReward(amount fixed.Int) {
	if amount.IsZero() {
		return
	}
	p.RewardPool = p.RewardPool.Add(amount)
	if p.TotalShares.IsZero() {
		return
	}
	p.RewardIndex = p.RewardIndex.Add(fixed.Ratio(amount, p.TotalShares))
}

// PendingRewards is what the position could claim right now.
func (p *Pool) PendingRewards(pos *Position) fixed.Int {
	return pos.PendingRewards.Add(p.unsettled(pos))
}

func (p *Pool) ClaimRewards(pos *Position) (fixed.Int, error) {
	amount := p.PendingRewards(pos)
	if amount.IsZero() {
		return fixed.Zero(), ErrNoRewards
	}
	if amount.Gt(p.RewardPool) {
		return fixed.Zero(), ErrRewardPoolInsufficient
	}
	p.RewardPool = p.RewardPool.Sub(amount)
	pos.PendingRewards = fixed.Zero()
	p.syncRewardDebt(pos)
	return amount, nil
}

func (p *Pool) unsettled(pos *Position) fixed.Int {
	accrued := pos.Shares.MulDiv(p.RewardIndex, fixed.RAY)
	if !accrued.Gt(pos.RewardDebt) {
		return fixed.Zero()
	}
	return accrued.Sub(pos.RewardDebt)
}

func (p *Pool) settleRewards(pos *Position) {
	pos.PendingRewards = pos.PendingRewards.Add(p.unsettled(pos))
}

// syncRewardDebt rounds up while accrual rounds down, so the pending
// amounts of all positions never add up to more than was distributed.
func (p *Pool) syncRewardDebt(pos *Position) {
	pos.RewardDebt = pos.Shares.MulDivUp(p.RewardIndex, fixed.RAY)
}

// CheckInvariants reports the first broken ledger invariant.
func (p *Pool) CheckInvariants() error {
	if p.TotalBorrows.Gt(p.TotalDeposits) {
		return fmt.Errorf("total borrows %s exceed total deposits %s", p.TotalBorrows, p.TotalDeposits)
	}
	if p.TotalShares.IsZero() != p.TotalDeposits.IsZero() && p.Active {
		return fmt.Errorf("share supply %s inconsistent with deposits %s", p.TotalShares, p.TotalDeposits)
	}
	if p.BorrowIndex.Lt(fixed.RAY) {
		return fmt.Errorf("borrow index %s below RAY", p.BorrowIndex)
	}
	return nil
}
