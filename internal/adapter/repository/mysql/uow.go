package mysql

import (
	"context"
	"errors"
	"sync"

	"github.com/andreolf/clawloan/internal/domain/pool"
	"github.com/andreolf/clawloan/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct {
	db    *gorm.DB
	locks poolLocks
}

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Pools:     &PoolRepository{db: tx},
		Positions: &PositionRepository{db: tx},
		Loans:     &LoanRepository{db: tx},
		Credits:   &CreditRepository{db: tx},
		Bots:      &BotRepository{db: tx},
		Activity:  &ActivityRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinPoolTx(ctx context.Context, poolID string, fn func(r uow.Repos, p *pool.Pool) error) error {
	// The in-process lock orders writers before they reach the database, so
	// drivers without row locks (SQLite) still run one pool mutation at a time.
	unlock := u.locks.lock(poolID)
	defer unlock()

	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the pool row up-front; every mutation reads it first
		p, err := r.Pools.GetByPoolIDForUpdate(ctx, poolID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pool.ErrUninitialized
			}
			return err
		}
		return fn(r, p)
	})
}

// poolLocks hands out one mutex per pool id.
type poolLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *poolLocks) lock(key string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	m, ok := l.m[key]
	if !ok {
		m = &sync.Mutex{}
		l.m[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
