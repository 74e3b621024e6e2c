package loan

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// Returns gorm.ErrRecordNotFound when the bot has no ACTIVE loan.
	GetActiveByBotID(ctx context.Context, poolID, botID string) (*Loan, error)
	// Both list newest first within one pool.
	ListByBotID(ctx context.Context, poolID, botID string, limit int) ([]Loan, error)
	ListAll(ctx context.Context, poolID string, limit int) ([]Loan, error)
	ListOverdue(ctx context.Context, poolID string, now time.Time) ([]Loan, error)
	CountActive(ctx context.Context, poolID string) (int64, error)
	Save(ctx context.Context, l *Loan) error
}
