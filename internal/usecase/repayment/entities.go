package repayment

import "github.com/andreolf/clawloan/pkg/fixed"

type RepayInput struct {
	BotID  string    `json:"bot_id"`
	Amount fixed.Int `json:"amount"`
}

type RepayWithProfitInput struct {
	BotID        string    `json:"bot_id"`
	RepayAmount  fixed.Int `json:"repay_amount"`
	ProfitAmount fixed.Int `json:"profit_amount"`
}

type RepayResult struct {
	LoanID      string    `json:"loan_id"`
	Principal   fixed.Int `json:"principal"`
	Interest    fixed.Int `json:"interest"`
	TotalRepaid fixed.Int `json:"total_repaid"`
	// Reserve and DepositIncrease split Interest.
	Reserve         fixed.Int `json:"reserve"`
	DepositIncrease fixed.Int `json:"deposit_increase"`
	// Excess is what was offered beyond the amount owed; it is not booked.
	Excess       fixed.Int `json:"excess"`
	ProfitShared fixed.Int `json:"profit_shared"`
}

type LiquidationResult struct {
	LoanID            string    `json:"loan_id"`
	BotID             string    `json:"bot_id"`
	Principal         fixed.Int `json:"principal"`
	FromReserves      fixed.Int `json:"from_reserves"`
	FromDeposits      fixed.Int `json:"from_deposits"`
	AlreadyLiquidated bool      `json:"already_liquidated"`
	PoolDeactivated   bool      `json:"pool_deactivated"`
}

type SweepResult struct {
	Scanned    int                 `json:"scanned"`
	Liquidated []LiquidationResult `json:"liquidated"`
}
