package activity

import "context"

type Query struct {
	PoolID string
	// Kinds restricts the result; empty means every kind.
	Kinds []Kind
	Actor string
	Limit int
}

type Repository interface {
	Create(ctx context.Context, e *Event) error

	// List returns matching events newest first.
	List(ctx context.Context, q Query) ([]Event, error)
}
