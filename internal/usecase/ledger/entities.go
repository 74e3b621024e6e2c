package ledger

import (
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
)

type DepositInput struct {
	LenderID string    `json:"lender_id"`
	Amount   fixed.Int `json:"amount"`
}

type WithdrawInput struct {
	LenderID string    `json:"lender_id"`
	Shares   fixed.Int `json:"shares"`
}

type DepositResult struct {
	Shares   fixed.Int    `json:"shares"`
	Position PositionView `json:"position"`
}

type WithdrawResult struct {
	Amount   fixed.Int    `json:"amount"`
	Position PositionView `json:"position"`
}

type ClaimResult struct {
	Amount fixed.Int `json:"amount"`
}

type PositionView struct {
	LenderID       string    `json:"lender_id"`
	Shares         fixed.Int `json:"shares"`
	Value          fixed.Int `json:"value"`
	PendingRewards fixed.Int `json:"pending_rewards"`
	Deposited      fixed.Int `json:"deposited"`
	Withdrawn      fixed.Int `json:"withdrawn"`
	Earnings       fixed.Int `json:"earnings"`
	PoolSharePct   string    `json:"pool_share_pct"`
}

// Stats is the read-only pool snapshot. Ratios are RAY scaled; the *Pct
// fields render them as percentages and Display holds whole-unit amounts.
type Stats struct {
	PoolID       string    `json:"pool_id"`
	Asset        string    `json:"asset"`
	Active       bool      `json:"active"`
	TVL          fixed.Int `json:"tvl"`
	TotalBorrows fixed.Int `json:"total_borrows"`
	Available    fixed.Int `json:"available"`
	TotalShares  fixed.Int `json:"total_shares"`
	Reserves     fixed.Int `json:"reserves"`
	RewardPool   fixed.Int `json:"reward_pool"`
	Utilization  fixed.Int `json:"utilization"`
	BorrowAPR    fixed.Int `json:"borrow_apr"`
	SupplyAPY    fixed.Int `json:"supply_apy"`
	BorrowIndex  fixed.Int `json:"borrow_index"`
	ActiveLoans  int64     `json:"active_loans"`

	UtilizationPct string `json:"utilization_pct"`
	BorrowAPRPct   string `json:"borrow_apr_pct"`
	SupplyAPYPct   string `json:"supply_apy_pct"`

	Display DisplayAmounts `json:"display"`

	AsOf time.Time `json:"as_of"`
}

type DisplayAmounts struct {
	TVL          string `json:"tvl"`
	TotalBorrows string `json:"total_borrows"`
	Available    string `json:"available"`
	Reserves     string `json:"reserves"`
	RewardPool   string `json:"reward_pool"`
}
