package poolmock

import (
	"context"

	domain "github.com/andreolf/clawloan/internal/domain/pool"
)

var (
	_ domain.Repository         = (*Repo)(nil)
	_ domain.PositionRepository = (*PositionRepo)(nil)
)

type Repo struct {
	CreateFn               func(ctx context.Context, p *domain.Pool) error
	GetByPoolIDFn          func(ctx context.Context, poolID string) (*domain.Pool, error)
	GetByPoolIDForUpdateFn func(ctx context.Context, poolID string) (*domain.Pool, error)
	SaveFn                 func(ctx context.Context, p *domain.Pool) error
}

func (m *Repo) Create(ctx context.Context, p *domain.Pool) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByPoolID(ctx context.Context, poolID string) (*domain.Pool, error) {
	if m.GetByPoolIDFn != nil {
		return m.GetByPoolIDFn(ctx, poolID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByPoolIDForUpdate(ctx context.Context, poolID string) (*domain.Pool, error) {
	if m.GetByPoolIDForUpdateFn != nil {
		return m.GetByPoolIDForUpdateFn(ctx, poolID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, p *domain.Pool) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	return nil
}

type PositionRepo struct {
	GetFn        func(ctx context.Context, poolID, lenderID string) (*domain.Position, error)
	SaveFn       func(ctx context.Context, pos *domain.Position) error
	ListByPoolFn func(ctx context.Context, poolID string) ([]domain.Position, error)
}

func (m *PositionRepo) Get(ctx context.Context, poolID, lenderID string) (*domain.Position, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, poolID, lenderID)
	}
	return nil, context.Canceled
}

func (m *PositionRepo) Save(ctx context.Context, pos *domain.Position) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, pos)
	}
	return nil
}

func (m *PositionRepo) ListByPool(ctx context.Context, poolID string) ([]domain.Position, error) {
	if m.ListByPoolFn != nil {
		return m.ListByPoolFn(ctx, poolID)
	}
	return nil, nil
}
