package activitymock

import (
	"context"

	domain "github.com/andreolf/clawloan/internal/domain/activity"
)

var _ domain.Repository = (*Repo)(nil)

// Repo records created events unless CreateFn overrides it.
type Repo struct {
	CreateFn func(ctx context.Context, e *domain.Event) error
	ListFn   func(ctx context.Context, q domain.Query) ([]domain.Event, error)

	Created []domain.Event
}

func (m *Repo) Create(ctx context.Context, e *domain.Event) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	m.Created = append(m.Created, *e)
	return nil
}

func (m *Repo) List(ctx context.Context, q domain.Query) ([]domain.Event, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, q)
	}
	return nil, nil
}
