package botmock

import (
	"context"

	domain "github.com/andreolf/clawloan/internal/domain/bot"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn         func(ctx context.Context, b *domain.Bot) error
	GetByBotIDFn     func(ctx context.Context, botID string) (*domain.Bot, error)
	ListByOperatorFn func(ctx context.Context, operator string) ([]domain.Bot, error)
	SaveFn           func(ctx context.Context, b *domain.Bot) error
	GetPermissionFn  func(ctx context.Context, botID string) (*domain.Permission, error)
	SavePermissionFn func(ctx context.Context, p *domain.Permission) error
}

func (m *Repo) Create(ctx context.Context, b *domain.Bot) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, b)
	}
	return nil
}

func (m *Repo) GetByBotID(ctx context.Context, botID string) (*domain.Bot, error) {
	if m.GetByBotIDFn != nil {
		return m.GetByBotIDFn(ctx, botID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByOperator(ctx context.Context, operator string) ([]domain.Bot, error) {
	if m.ListByOperatorFn != nil {
		return m.ListByOperatorFn(ctx, operator)
	}
	return nil, nil
}

func (m *Repo) Save(ctx context.Context, b *domain.Bot) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, b)
	}
	return nil
}

func (m *Repo) GetPermission(ctx context.Context, botID string) (*domain.Permission, error) {
	if m.GetPermissionFn != nil {
		return m.GetPermissionFn(ctx, botID)
	}
	return nil, context.Canceled
}

func (m *Repo) SavePermission(ctx context.Context, p *domain.Permission) error {
	if m.SavePermissionFn != nil {
		return m.SavePermissionFn(ctx, p)
	}
	return nil
}
