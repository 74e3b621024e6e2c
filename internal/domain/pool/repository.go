package pool

import "context"

type Repository interface {
	Create(ctx context.Context, p *Pool) error
	GetByPoolID(ctx context.Context, poolID string) (*Pool, error)
	// Row-locks the pool for the rest of the transaction.
	GetByPoolIDForUpdate(ctx context.Context, poolID string) (*Pool, error)
	Save(ctx context.Context, p *Pool) error
}

type PositionRepository interface {
	// Returns gorm.ErrRecordNotFound when the lender never deposited.
	Get(ctx context.Context, poolID, lenderID string) (*Position, error)
	Save(ctx context.Context, pos *Position) error
	ListByPool(ctx context.Context, poolID string) ([]Position, error)
}
