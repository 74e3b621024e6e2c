package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/internal/domain/pool"
	"github.com/andreolf/clawloan/internal/domain/rate"
	"github.com/andreolf/clawloan/internal/domain/uow"
	"github.com/andreolf/clawloan/internal/infrastructure/metrics"
	"github.com/andreolf/clawloan/pkg/fixed"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	PoolID   string
	Asset    string
	Decimals int32
	Model    rate.Model
	Now      func() time.Time
	Logger   *zap.Logger
	Metrics  *metrics.Engine
}

// Usecase is the lender side of the pool: deposits, withdrawals, rewards
// and the read-only pool snapshot.
type Usecase struct {
	uow uow.UnitOfWork
	cfg Config
	log *zap.Logger
}

func NewUsecase(tx uow.UnitOfWork, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, cfg: cfg, log: log.With(zap.String("pool_id", cfg.PoolID))}
}

func (u *Usecase) now() time.Time { return u.cfg.Now().UTC() }

// EnsurePool creates the pool row on first start and is a no-op afterwards.
func (u *Usecase) EnsurePool(ctx context.Context) (*pool.Pool, error) {
	var out *pool.Pool
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Pools.GetByPoolID(ctx, u.cfg.PoolID)
		if err == nil {
			out = p
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		p = pool.New(u.cfg.PoolID, u.cfg.Asset, u.cfg.Decimals, u.now())
		if err := r.Pools.Create(ctx, p); err != nil {
			return err
		}
		u.log.Info("pool created", zap.String("asset", p.Asset))
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Deposit(ctx context.Context, in DepositInput) (*DepositResult, error) {
	if in.LenderID == "" {
		return nil, fmt.Errorf("%w: lender id required", pool.ErrInvalidAmount)
	}
	if in.Amount.IsZero() {
		return nil, pool.ErrInvalidAmount
	}

	var (
		res  *DepositResult
		snap *pool.Pool
	)
	err := u.uow.WithinPoolTx(ctx, u.cfg.PoolID, func(r uow.Repos, p *pool.Pool) error {
		p.Accrue(u.cfg.Model, u.now())
		pos, err := u.position(ctx, r, in.LenderID)
		if err != nil {
			return err
		}
		shares, err := p.Deposit(pos, in.Amount)
		if err != nil {
			return err
		}
		if err := u.persist(ctx, r, p, pos); err != nil {
			return err
		}
		ev := activity.New(u.cfg.PoolID, activity.KindDeposit, in.LenderID, in.Amount, u.now())
		ev.Shares = shares
		if err := r.Activity.Create(ctx, ev); err != nil {
			return err
		}
		res = &DepositResult{Shares: shares, Position: viewOf(p, pos)}
		snap = p
		return nil
	})
	u.cfg.Metrics.ObserveOperation("deposit", err)
	if err != nil {
		return nil, err
	}
	u.published(snap)
	u.log.Info("deposit",
		zap.String("lender_id", in.LenderID),
		zap.Stringer("amount", in.Amount),
		zap.Stringer("shares", res.Shares))
	return res, nil
}

func (u *Usecase) Withdraw(ctx context.Context, in WithdrawInput) (*WithdrawResult, error) {
	if in.LenderID == "" {
		return nil, fmt.Errorf("%w: lender id required", pool.ErrInvalidAmount)
	}
	if in.Shares.IsZero() {
		return nil, pool.ErrInvalidAmount
	}

	var (
		res  *WithdrawResult
		snap *pool.Pool
	)
	err := u.uow.WithinPoolTx(ctx, u.cfg.PoolID, func(r uow.Repos, p *pool.Pool) error {
		p.Accrue(u.cfg.Model, u.now())
		pos, err := r.Positions.Get(ctx, u.cfg.PoolID, in.LenderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pool.ErrInsufficientShares
		}
		if err != nil {
			return err
		}
		amount, err := p.Withdraw(pos, in.Shares)
		if err != nil {
			return err
		}
		if err := u.persist(ctx, r, p, pos); err != nil {
			return err
		}
		ev := activity.New(u.cfg.PoolID, activity.KindWithdraw, in.LenderID, amount, u.now())
		ev.Shares = in.Shares
		if err := r.Activity.Create(ctx, ev); err != nil {
			return err
		}
		res = &WithdrawResult{Amount: amount, Position: viewOf(p, pos)}
		snap = p
		return nil
	})
	u.cfg.Metrics.ObserveOperation("withdraw", err)
	if err != nil {
		return nil, err
	}
	u.published(snap)
	u.log.Info("withdraw",
		zap.String("lender_id", in.LenderID),
		zap.Stringer("shares", in.Shares),
		zap.Stringer("amount", res.Amount))
	return res, nil
}

func (u *Usecase) ClaimRewards(ctx context.Context, lenderID string) (*ClaimResult, error) {
	var res *ClaimResult
	err := u.uow.WithinPoolTx(ctx, u.cfg.PoolID, func(r uow.Repos, p *pool.Pool) error {
		p.Accrue(u.cfg.Model, u.now())
		pos, err := r.Positions.Get(ctx, u.cfg.PoolID, lenderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pool.ErrNoRewards
		}
		if err != nil {
			return err
		}
		amount, err := p.ClaimRewards(pos)
		if err != nil {
			return err
		}
		if err := u.persist(ctx, r, p, pos); err != nil {
			return err
		}
		if err := r.Activity.Create(ctx, activity.New(u.cfg.PoolID, activity.KindClaim, lenderID, amount, u.now())); err != nil {
			return err
		}
		res = &ClaimResult{Amount: amount}
		return nil
	})
	u.cfg.Metrics.ObserveOperation("claim_rewards", err)
	if err != nil {
		return nil, err
	}
	u.log.Info("rewards claimed", zap.String("lender_id", lenderID), zap.Stringer("amount", res.Amount))
	return res, nil
}

// Position reports a lender's claim. A lender that never deposited has a
// zero position rather than an error.
func (u *Usecase) Position(ctx context.Context, lenderID string) (*PositionView, error) {
	var out PositionView
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := u.loadPool(ctx, r)
		if err != nil {
			return err
		}
		pos, err := r.Positions.Get(ctx, u.cfg.PoolID, lenderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pos = pool.NewPosition(u.cfg.PoolID, lenderID)
		} else if err != nil {
			return err
		}
		out = viewOf(p, pos)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats accrues a copy of the pool to now; nothing is written.
func (u *Usecase) Stats(ctx context.Context) (*Stats, error) {
	var out *Stats
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := u.loadPool(ctx, r)
		if err != nil {
			return err
		}
		view := *p
		now := u.now()
		view.Accrue(u.cfg.Model, now)

		active, err := r.Loans.CountActive(ctx, u.cfg.PoolID)
		if err != nil {
			return err
		}
		out = statsOf(&view, view.Rates(u.cfg.Model), active, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reconcile checks that the positions on record hold exactly the pool's
// share supply.
func (u *Usecase) Reconcile(ctx context.Context) error {
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := u.loadPool(ctx, r)
		if err != nil {
			return err
		}
		positions, err := r.Positions.ListByPool(ctx, u.cfg.PoolID)
		if err != nil {
			return err
		}
		held := fixed.Zero()
		for i := range positions {
			held = held.Add(positions[i].Shares)
		}
		if held.Cmp(p.TotalShares) != 0 {
			u.log.Error("share supply mismatch",
				zap.Stringer("held", held),
				zap.Stringer("total_shares", p.TotalShares),
				zap.Int("positions", len(positions)))
			return fmt.Errorf("%w: positions hold %s, pool %s", pool.ErrShareMismatch, held, p.TotalShares)
		}
		return nil
	})
}

func (u *Usecase) loadPool(ctx context.Context, r uow.Repos) (*pool.Pool, error) {
	p, err := r.Pools.GetByPoolID(ctx, u.cfg.PoolID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pool.ErrUninitialized
	}
	return p, err
}

func (u *Usecase) position(ctx context.Context, r uow.Repos, lenderID string) (*pool.Position, error) {
	pos, err := r.Positions.Get(ctx, u.cfg.PoolID, lenderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pool.NewPosition(u.cfg.PoolID, lenderID), nil
	}
	return pos, err
}

func (u *Usecase) persist(ctx context.Context, r uow.Repos, p *pool.Pool, pos *pool.Position) error {
	if err := p.CheckInvariants(); err != nil {
		return err
	}
	if err := r.Positions.Save(ctx, pos); err != nil {
		return err
	}
	return r.Pools.Save(ctx, p)
}

func (u *Usecase) published(p *pool.Pool) {
	u.cfg.Metrics.ObservePool(p, p.Utilization(u.cfg.Model))
}

func viewOf(p *pool.Pool, pos *pool.Position) PositionView {
	value := p.ValueOf(pos)
	v := PositionView{
		LenderID:       pos.LenderID,
		Shares:         pos.Shares,
		Value:          value,
		PendingRewards: p.PendingRewards(pos),
		Deposited:      pos.Deposited,
		Withdrawn:      pos.Withdrawn,
		PoolSharePct:   "0.00",
	}
	// value plus what already left, less what went in; a loss reads as zero
	if out := value.Add(pos.Withdrawn); out.Cmp(pos.Deposited) > 0 {
		v.Earnings = out.Sub(pos.Deposited)
	}
	if !p.TotalShares.IsZero() {
		v.PoolSharePct = fixed.Percent(fixed.Ratio(pos.Shares, p.TotalShares), 2)
	}
	return v
}

func statsOf(p *pool.Pool, rates rate.Rates, activeLoans int64, now time.Time) *Stats {
	units := func(v fixed.Int) string { return v.Decimal(p.Decimals).String() }
	return &Stats{
		PoolID:         p.PoolID,
		Asset:          p.Asset,
		Active:         p.Active,
		TVL:            p.TotalDeposits,
		TotalBorrows:   p.TotalBorrows,
		Available:      p.Available(),
		TotalShares:    p.TotalShares,
		Reserves:       p.TotalReserves,
		RewardPool:     p.RewardPool,
		Utilization:    rates.Utilization,
		BorrowAPR:      rates.BorrowAPR,
		SupplyAPY:      rates.SupplyAPY,
		BorrowIndex:    p.BorrowIndex,
		ActiveLoans:    activeLoans,
		UtilizationPct: fixed.Percent(rates.Utilization, 2),
		BorrowAPRPct:   fixed.Percent(rates.BorrowAPR, 2),
		SupplyAPYPct:   fixed.Percent(rates.SupplyAPY, 2),
		Display: DisplayAmounts{
			TVL:          units(p.TotalDeposits),
			TotalBorrows: units(p.TotalBorrows),
			Available:    units(p.Available()),
			Reserves:     units(p.TotalReserves),
			RewardPool:   units(p.RewardPool),
		},
		AsOf: now,
	}
}
