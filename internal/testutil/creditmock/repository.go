package creditmock

import (
	"context"

	domain "github.com/andreolf/clawloan/internal/domain/credit"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	GetByBotIDFn func(ctx context.Context, botID string) (*domain.Profile, error)
	SaveFn       func(ctx context.Context, p *domain.Profile) error
	ListTopFn    func(ctx context.Context, limit int) ([]domain.Profile, error)
}

func (m *Repo) GetByBotID(ctx context.Context, botID string) (*domain.Profile, error) {
	if m.GetByBotIDFn != nil {
		return m.GetByBotIDFn(ctx, botID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, p *domain.Profile) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	return nil
}

func (m *Repo) ListTop(ctx context.Context, limit int) ([]domain.Profile, error) {
	if m.ListTopFn != nil {
		return m.ListTopFn(ctx, limit)
	}
	return nil, nil
}
