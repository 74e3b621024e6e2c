package loan

import (
	"time"

	domain "github.com/andreolf/clawloan/internal/domain/loan"
	"github.com/andreolf/clawloan/pkg/fixed"
)

type BorrowInput struct {
	BotID  string    `json:"bot_id"`
	Amount fixed.Int `json:"amount"`
}

type BorrowResult struct {
	Loan LoanDTO `json:"loan"`
	// Limit is the ceiling the amount was checked against.
	Limit fixed.Int `json:"limit"`
	Tier  string    `json:"tier"`
}

type LoanDTO struct {
	LoanID        string        `json:"loan_id"`
	PoolID        string        `json:"pool_id"`
	BotID         string        `json:"bot_id"`
	Status        domain.Status `json:"status"`
	Principal     fixed.Int     `json:"principal"`
	InterestIndex fixed.Int     `json:"interest_index"`
	// Owed is filled for ACTIVE loans only.
	Owed      *domain.Owed `json:"owed,omitempty"`
	Repaid    fixed.Int    `json:"repaid"`
	StartTime time.Time    `json:"start_time"`
	DueTime   time.Time    `json:"due_time"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
	Overdue   bool         `json:"overdue"`
}

func toDTO(l *domain.Loan, owed *domain.Owed, now time.Time) LoanDTO {
	return LoanDTO{
		LoanID:        l.LoanID,
		PoolID:        l.PoolID,
		BotID:         l.BotID,
		Status:        l.Status,
		Principal:     l.Principal,
		InterestIndex: l.InterestIndex,
		Owed:          owed,
		Repaid:        l.Repaid,
		StartTime:     l.StartTime,
		DueTime:       l.DueTime,
		ClosedAt:      l.ClosedAt,
		Overdue:       l.IsOverdue(now),
	}
}
