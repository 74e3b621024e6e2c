package uow

import (
	"context"

	"github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/internal/domain/bot"
	"github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/loan"
	"github.com/andreolf/clawloan/internal/domain/pool"
)

// Repos are bound to one transaction.
type Repos struct {
	Pools     pool.Repository
	Positions pool.PositionRepository
	Loans     loan.Repository
	Credits   credit.Repository
	Bots      bot.Repository
	Activity  activity.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinPoolTx serializes against every other mutation of the same pool:
	// the pool row is locked first and passed in. A missing pool yields
	// pool.ErrUninitialized. Returning an error rolls everything back.
	WithinPoolTx(ctx context.Context, poolID string, fn func(r Repos, p *pool.Pool) error) error
}
