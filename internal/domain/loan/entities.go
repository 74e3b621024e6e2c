package loan

import (
	"errors"
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
)

var (
	ErrNotFound              = errors.New("loan not found")
	ErrNoActiveLoan          = errors.New("no active loan found for this bot")
	ErrDuplicateActive       = errors.New("bot already has an active loan")
	ErrInsufficientRepayment = errors.New("insufficient repayment amount")
	ErrClosed                = errors.New("loan is already closed")
	ErrNotOverdue            = errors.New("loan is not overdue")
	ErrInvalidTransition     = errors.New("invalid loan state transition")
)

// DefaultTerm is how long a loan may stay active before it can be liquidated.
const DefaultTerm = 7 * 24 * time.Hour

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusRepaid    Status = "REPAID"
	StatusDefaulted Status = "DEFAULTED"
)

// Table: loans. At most one ACTIVE row per (pool, bot); closed rows are immutable.
type Loan struct {
	ID     uint64 `gorm:"primaryKey;column:id" json:"-"`
	LoanID string `gorm:"column:loan_id;size:32;not null;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	PoolID string `gorm:"column:pool_id;size:32;not null;index:idx_loans_pool_status" json:"pool_id"`
	BotID  string `gorm:"column:bot_id;size:32;not null;index:idx_loans_bot_status" json:"bot_id"`

	Principal fixed.Int `gorm:"column:principal;type:varchar(80);not null" json:"principal"`
	// InterestIndex is the pool borrow index right after origination accrual.
	InterestIndex fixed.Int `gorm:"column:interest_index;type:varchar(80);not null" json:"interest_index"`
	// Repaid is what the loan settled for (principal + interest); zero when defaulted.
	Repaid fixed.Int `gorm:"column:repaid;type:varchar(80);not null" json:"repaid"`

	Status          Status     `gorm:"column:status;size:16;not null;index:idx_loans_bot_status;index:idx_loans_pool_status" json:"status"`
	StartTime       time.Time  `gorm:"column:start_time;not null" json:"start_time"`
	LastAccruedTime time.Time  `gorm:"column:last_accrued_time;not null" json:"last_accrued_time"`
	DueTime         time.Time  `gorm:"column:due_time;not null;index" json:"due_time"`
	ClosedAt        *time.Time `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Owed is principal scaled by the index ratio since origination.
type Owed struct {
	Principal fixed.Int `json:"principal"`
	Interest  fixed.Int `json:"interest"`
	Total     fixed.Int `json:"total"`
}

// OwedAt computes principal * borrowIndex / interestIndex (floored). Interest
// depends only on the index delta, never on wall-clock time.
func (l *Loan) OwedAt(borrowIndex fixed.Int) Owed {
	total := l.Principal
	if !l.InterestIndex.IsZero() && borrowIndex.Gt(l.InterestIndex) {
		total = l.Principal.MulDiv(borrowIndex, l.InterestIndex)
	}
	return Owed{Principal: l.Principal, Interest: total.Sub(l.Principal), Total: total}
}

func (l *Loan) IsActive() bool { return l.Status == StatusActive }

func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsActive() && !now.Before(l.DueTime)
}

// Close moves an ACTIVE loan to a terminal status.
func (l *Loan) Close(status Status, repaid fixed.Int, now time.Time) error {
	if !l.IsActive() {
		return ErrClosed
	}
	if status != StatusRepaid && status != StatusDefaulted {
		return ErrInvalidTransition
	}
	at := now.UTC()
	l.Status = status
	l.Repaid = repaid
	l.LastAccruedTime = at
	l.ClosedAt = &at
	return nil
}
