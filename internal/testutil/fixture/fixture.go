// Package fixture wires an in-memory engine for usecase tests.
package fixture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andreolf/clawloan/internal/adapter/repository/mysql"
	"github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/internal/domain/bot"
	"github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/pool"
	"github.com/andreolf/clawloan/internal/domain/uow"
	"github.com/andreolf/clawloan/internal/testutil/testdb"
	"github.com/andreolf/clawloan/pkg/fixed"
	"github.com/andreolf/clawloan/pkg/id"

	"gorm.io/gorm"
)

const PoolID = "main"

var Start = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type Env struct {
	DB    *gorm.DB
	UoW   *mysql.GormUoW
	Clock *Clock
}

// New returns an engine with an empty, initialized pool.
func New(t *testing.T) *Env {
	t.Helper()
	e := NewEmpty(t)
	if err := mysql.NewPoolRepository(e.DB).Create(context.Background(), pool.New(PoolID, "USDC", 6, Start)); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	return e
}

// NewEmpty returns an engine without a pool row.
func NewEmpty(t *testing.T) *Env {
	t.Helper()
	db := testdb.Open(t, mysql.Models()...)
	return &Env{DB: db, UoW: mysql.NewGormUoW(db), Clock: NewClock(Start)}
}

func (e *Env) Pool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := mysql.NewPoolRepository(e.DB).GetByPoolID(context.Background(), PoolID)
	if err != nil {
		t.Fatalf("load pool: %v", err)
	}
	return p
}

// Fund deposits amount for lender straight through the ledger.
func (e *Env) Fund(t *testing.T, lender string, amount fixed.Int) {
	t.Helper()
	ctx := context.Background()
	err := e.UoW.WithinPoolTx(ctx, PoolID, func(r uow.Repos, p *pool.Pool) error {
		pos, err := r.Positions.Get(ctx, PoolID, lender)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pos, err = pool.NewPosition(PoolID, lender), nil
		}
		if err != nil {
			return err
		}
		if _, err := p.Deposit(pos, amount); err != nil {
			return err
		}
		if err := r.Positions.Save(ctx, pos); err != nil {
			return err
		}
		return r.Pools.Save(ctx, p)
	})
	if err != nil {
		t.Fatalf("fund %s: %v", lender, err)
	}
}

// AddBot registers an active bot whose owner allows maxSpend until ttl from now.
func (e *Env) AddBot(t *testing.T, maxSpend fixed.Int, ttl time.Duration) string {
	t.Helper()
	ctx := context.Background()
	repo := mysql.NewBotRepository(e.DB)
	b := &bot.Bot{BotID: id.NewID32(), Name: "bot", OperatorAddress: "0xoperator", Active: true}
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("create bot: %v", err)
	}
	perm := &bot.Permission{
		BotID:    b.BotID,
		MaxSpend: maxSpend,
		Expiry:   e.Clock.Now().Add(ttl),
		Status:   bot.PermissionActive,
	}
	if err := repo.SavePermission(ctx, perm); err != nil {
		t.Fatalf("save permission: %v", err)
	}
	return b.BotID
}

// SetHistory stores a credit profile with the given on-time repayments and defaults.
func (e *Env) SetHistory(t *testing.T, botID string, successful, defaults int) {
	t.Helper()
	p := credit.NewProfile(botID)
	for i := 0; i < successful; i++ {
		p.RecordLoanOpened(fixed.Zero())
		p.RecordRepayment(true, fixed.Zero())
	}
	for i := 0; i < defaults; i++ {
		p.RecordLoanOpened(fixed.Zero())
		p.RecordRepayment(false, fixed.Zero())
	}
	if err := mysql.NewCreditRepository(e.DB).Save(context.Background(), p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
}

func (e *Env) Profile(t *testing.T, botID string) *credit.Profile {
	t.Helper()
	p, err := mysql.NewCreditRepository(e.DB).GetByBotID(context.Background(), botID)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return p
}

// Events returns the pool's recorded activity, newest first.
func (e *Env) Events(t *testing.T, kinds ...activity.Kind) []activity.Event {
	t.Helper()
	out, err := mysql.NewActivityRepository(e.DB).List(context.Background(), activity.Query{PoolID: PoolID, Kinds: kinds})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	return out
}
