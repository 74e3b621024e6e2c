package loanmock

import (
	"context"
	"time"

	domain "github.com/andreolf/clawloan/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return context.Canceled; unset writes are no-ops.
type Repo struct {
	CreateFn           func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn      func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetActiveByBotIDFn func(ctx context.Context, poolID, botID string) (*domain.Loan, error)
	ListByBotIDFn      func(ctx context.Context, poolID, botID string, limit int) ([]domain.Loan, error)
	ListAllFn          func(ctx context.Context, poolID string, limit int) ([]domain.Loan, error)
	ListOverdueFn      func(ctx context.Context, poolID string, now time.Time) ([]domain.Loan, error)
	CountActiveFn      func(ctx context.Context, poolID string) (int64, error)
	SaveFn             func(ctx context.Context, l *domain.Loan) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetActiveByBotID(ctx context.Context, poolID, botID string) (*domain.Loan, error) {
	if m.GetActiveByBotIDFn != nil {
		return m.GetActiveByBotIDFn(ctx, poolID, botID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBotID(ctx context.Context, poolID, botID string, limit int) ([]domain.Loan, error) {
	if m.ListByBotIDFn != nil {
		return m.ListByBotIDFn(ctx, poolID, botID, limit)
	}
	return nil, nil
}

func (m *Repo) ListAll(ctx context.Context, poolID string, limit int) ([]domain.Loan, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx, poolID, limit)
	}
	return nil, nil
}

func (m *Repo) ListOverdue(ctx context.Context, poolID string, now time.Time) ([]domain.Loan, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, poolID, now)
	}
	return nil, nil
}

func (m *Repo) CountActive(ctx context.Context, poolID string) (int64, error) {
	if m.CountActiveFn != nil {
		return m.CountActiveFn(ctx, poolID)
	}
	return 0, nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}
