package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/internal/domain/bot"
	"github.com/andreolf/clawloan/internal/domain/credit"
	domain "github.com/andreolf/clawloan/internal/domain/loan"
	"github.com/andreolf/clawloan/internal/domain/pool"
	"github.com/andreolf/clawloan/internal/domain/rate"
	"github.com/andreolf/clawloan/internal/domain/uow"
	"github.com/andreolf/clawloan/internal/infrastructure/metrics"
	"github.com/andreolf/clawloan/pkg/fixed"
	"github.com/andreolf/clawloan/pkg/id"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	PoolID  string
	Model   rate.Model
	Tiers   credit.Table
	Term    time.Duration
	Now     func() time.Time
	Logger  *zap.Logger
	Metrics *metrics.Engine
}

type Usecase struct {
	uow uow.UnitOfWork
	cfg Config
	log *zap.Logger
}

func NewUsecase(tx uow.UnitOfWork, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Term <= 0 {
		cfg.Term = domain.DefaultTerm
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, cfg: cfg, log: log}
}

// Borrow opens a loan for a bot. The pool lock is held from the duplicate
// check through the insert, so two concurrent calls for one bot cannot both
// pass it.
func (u *Usecase) Borrow(ctx context.Context, in BorrowInput) (*BorrowResult, error) {
	if in.Amount.IsZero() {
		return nil, pool.ErrInvalidAmount
	}

	var (
		res  *BorrowResult
		snap *pool.Pool
	)
	err := u.uow.WithinPoolTx(ctx, u.cfg.PoolID, func(r uow.Repos, p *pool.Pool) error {
		now := u.cfg.Now().UTC()

		b, err := r.Bots.GetByBotID(ctx, in.BotID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bot.ErrNotFound
		}
		if err != nil {
			return err
		}
		if !b.Active {
			return bot.ErrInactive
		}
		perm, err := r.Bots.GetPermission(ctx, in.BotID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			perm = nil
		case err != nil:
			return err
		}
		if err := perm.Check(now); err != nil {
			return err
		}

		p.Accrue(u.cfg.Model, now)

		if active, err := r.Loans.GetActiveByBotID(ctx, u.cfg.PoolID, in.BotID); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateActive, active.LoanID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		profile, err := loadProfile(ctx, r, in.BotID)
		if err != nil {
			return err
		}
		limit := fixed.Min(perm.MaxSpend, u.cfg.Tiers.Limit(profile.Tier))
		if in.Amount.Gt(limit) {
			return fmt.Errorf("%w: %s > %s", credit.ErrLimitExceeded, in.Amount, limit)
		}

		if err := p.Lend(in.Amount); err != nil {
			return err
		}
		l := &domain.Loan{
			LoanID:          id.NewID32(),
			PoolID:          u.cfg.PoolID,
			BotID:           in.BotID,
			Principal:       in.Amount,
			InterestIndex:   p.BorrowIndex,
			Status:          domain.StatusActive,
			StartTime:       now,
			LastAccruedTime: now,
			DueTime:         now.Add(u.cfg.Term),
		}
		profile.RecordLoanOpened(in.Amount)

		if err := p.CheckInvariants(); err != nil {
			return err
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		if err := r.Credits.Save(ctx, profile); err != nil {
			return err
		}
		if err := r.Pools.Save(ctx, p); err != nil {
			return err
		}
		ev := activity.New(u.cfg.PoolID, activity.KindBorrow, in.BotID, in.Amount, now)
		ev.LoanID = l.LoanID
		if err := r.Activity.Create(ctx, ev); err != nil {
			return err
		}

		owed := l.OwedAt(p.BorrowIndex)
		res = &BorrowResult{Loan: toDTO(l, &owed, now), Limit: limit, Tier: profile.Tier.String()}
		snap = p
		return nil
	})
	u.cfg.Metrics.ObserveOperation("borrow", err)
	if err != nil {
		return nil, err
	}
	u.cfg.Metrics.ObservePool(snap, snap.Utilization(u.cfg.Model))
	u.log.Info("loan opened",
		zap.String("loan_id", res.Loan.LoanID),
		zap.String("bot_id", in.BotID),
		zap.Stringer("principal", in.Amount),
		zap.String("tier", res.Tier))
	return res, nil
}

// Status is the bot's ACTIVE loan with what it owes right now. The pool
// is accrued on a copy and nothing is written.
func (u *Usecase) Status(ctx context.Context, botID string) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetActiveByBotID(ctx, u.cfg.PoolID, botID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNoActiveLoan
		}
		if err != nil {
			return err
		}
		idx, now, err := u.currentIndex(ctx, r)
		if err != nil {
			return err
		}
		owed := l.OwedAt(idx)
		dto := toDTO(l, &owed, now)
		out = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns a bot's loans newest first, or the latest loans across all
// bots when botID is empty.
func (u *Usecase) List(ctx context.Context, botID string, limit int) ([]LoanDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var (
			loans []domain.Loan
			err   error
		)
		if botID != "" {
			loans, err = r.Loans.ListByBotID(ctx, u.cfg.PoolID, botID, limit)
		} else {
			loans, err = r.Loans.ListAll(ctx, u.cfg.PoolID, limit)
		}
		if err != nil {
			return err
		}
		idx, now, err := u.currentIndex(ctx, r)
		if err != nil {
			return err
		}
		out = make([]LoanDTO, 0, len(loans))
		for i := range loans {
			l := &loans[i]
			var owed *domain.Owed
			if l.IsActive() {
				o := l.OwedAt(idx)
				owed = &o
			}
			out = append(out, toDTO(l, owed, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) currentIndex(ctx context.Context, r uow.Repos) (fixed.Int, time.Time, error) {
	now := u.cfg.Now().UTC()
	p, err := r.Pools.GetByPoolID(ctx, u.cfg.PoolID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fixed.Zero(), now, pool.ErrUninitialized
	}
	if err != nil {
		return fixed.Zero(), now, err
	}
	view := *p
	view.Accrue(u.cfg.Model, now)
	return view.BorrowIndex, now, nil
}

func loadProfile(ctx context.Context, r uow.Repos, botID string) (*credit.Profile, error) {
	p, err := r.Credits.GetByBotID(ctx, botID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return credit.NewProfile(botID), nil
	}
	return p, err
}
