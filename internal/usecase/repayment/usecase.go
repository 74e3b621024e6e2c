package repayment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/loan"
	"github.com/andreolf/clawloan/internal/domain/pool"
	"github.com/andreolf/clawloan/internal/domain/rate"
	"github.com/andreolf/clawloan/internal/domain/uow"
	"github.com/andreolf/clawloan/internal/infrastructure/metrics"
	"github.com/andreolf/clawloan/pkg/fixed"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	PoolID         string
	Model          rate.Model
	ProfitShareBps uint64
	Now            func() time.Time
	Logger         *zap.Logger
	Metrics        *metrics.Engine
}

// Usecase settles loans: full repayment, repayment with a profit share,
// and liquidation of overdue loans.
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
	return &Usecase{uow: tx, cfg: cfg, log: log}
}

func (u *Usecase) Repay(ctx context.Context, in RepayInput) (*RepayResult, error) {
	res, err := u.settle(ctx, "repay", in.BotID, in.Amount, fixed.Zero())
	if err != nil {
		return nil, err
	}
	return res, nil
}

// RepayWithProfit settles like Repay and additionally routes
// profit*ProfitShareBps/10000 to the lenders' reward pool.
func (u *Usecase) RepayWithProfit(ctx context.Context, in RepayWithProfitInput) (*RepayResult, error) {
	res, err := u.settle(ctx, "repay_with_profit", in.BotID, in.RepayAmount, in.ProfitAmount)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *Usecase) settle(ctx context.Context, op, botID string, amount, profit fixed.Int) (*RepayResult, error) {
	if amount.IsZero() {
		return nil, pool.ErrInvalidAmount
	}

	var (
		res  *RepayResult
		snap *pool.Pool
	)
	err := u.uow.WithinPoolTx(ctx, u.cfg.PoolID, func(r uow.Repos, p *pool.Pool) error {
		now := u.cfg.Now().UTC()
		p.Accrue(u.cfg.Model, now)

		l, err := r.Loans.GetActiveByBotID(ctx, u.cfg.PoolID, botID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return loan.ErrNoActiveLoan
		}
		if err != nil {
			return err
		}
		owed := l.OwedAt(p.BorrowIndex)
		if amount.Lt(owed.Total) {
			return fmt.Errorf("%w: owed %s, offered %s", loan.ErrInsufficientRepayment, owed.Total, amount)
		}
		profile, err := loadProfile(ctx, r, botID)
		if err != nil {
			return err
		}

		split, err := p.Settle(owed.Principal, owed.Interest, u.cfg.Model.Params().ReserveFactor)
		if err != nil {
			return err
		}
		shared := fixed.BpsOf(profit, u.cfg.ProfitShareBps)
		p.DistributeReward(shared)
		if err := l.Close(loan.StatusRepaid, owed.Total, now); err != nil {
			return err
		}
		profile.RecordRepayment(true, owed.Total)

		if err := p.CheckInvariants(); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Credits.Save(ctx, profile); err != nil {
			return err
		}
		if err := r.Pools.Save(ctx, p); err != nil {
			return err
		}
		ev := activity.New(u.cfg.PoolID, activity.KindRepay, botID, owed.Total, now)
		ev.LoanID = l.LoanID
		ev.Interest = owed.Interest
		if err := r.Activity.Create(ctx, ev); err != nil {
			return err
		}

		res = &RepayResult{
			LoanID:          l.LoanID,
			Principal:       owed.Principal,
			Interest:        owed.Interest,
			TotalRepaid:     owed.Total,
			Reserve:         split.Reserve,
			DepositIncrease: split.DepositIncrease,
			Excess:          amount.Sub(owed.Total),
			ProfitShared:    shared,
		}
		snap = p
		return nil
	})
	u.cfg.Metrics.ObserveOperation(op, err)
	if err != nil {
		return nil, err
	}
	u.cfg.Metrics.ObservePool(snap, snap.Utilization(u.cfg.Model))
	u.log.Info("loan repaid",
		zap.String("loan_id", res.LoanID),
		zap.String("bot_id", botID),
		zap.Stringer("principal", res.Principal),
		zap.Stringer("interest", res.Interest),
		zap.Stringer("profit_shared", res.ProfitShared))
	return res, nil
}

// Liquidate defaults an overdue loan and writes its principal off.
// Liquidating a loan that is already DEFAULTED reports it and changes nothing.
func (u *Usecase) Liquidate(ctx context.Context, loanID string) (*LiquidationResult, error) {
	var (
		res  *LiquidationResult
		snap *pool.Pool
	)
	err := u.uow.WithinPoolTx(ctx, u.cfg.PoolID, func(r uow.Repos, p *pool.Pool) error {
		now := u.cfg.Now().UTC()

		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && l.PoolID != u.cfg.PoolID) {
			return loan.ErrNotFound
		}
		if err != nil {
			return err
		}
		switch l.Status {
		case loan.StatusDefaulted:
			res = &LiquidationResult{LoanID: l.LoanID, BotID: l.BotID, Principal: l.Principal, AlreadyLiquidated: true}
			return nil
		case loan.StatusRepaid:
			return loan.ErrClosed
		}
		if !l.IsOverdue(now) {
			return fmt.Errorf("%w: due %s", loan.ErrNotOverdue, l.DueTime.Format(time.RFC3339))
		}
		profile, err := loadProfile(ctx, r, l.BotID)
		if err != nil {
			return err
		}

		p.Accrue(u.cfg.Model, now)
		wasActive := p.Active
		loss, err := p.WriteOff(l.Principal)
		if err != nil {
			return err
		}
		if err := l.Close(loan.StatusDefaulted, fixed.Zero(), now); err != nil {
			return err
		}
		profile.RecordRepayment(false, fixed.Zero())

		if err := p.CheckInvariants(); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Credits.Save(ctx, profile); err != nil {
			return err
		}
		if err := r.Pools.Save(ctx, p); err != nil {
			return err
		}
		ev := activity.New(u.cfg.PoolID, activity.KindLiquidate, l.BotID, l.Principal, now)
		ev.LoanID = l.LoanID
		if err := r.Activity.Create(ctx, ev); err != nil {
			return err
		}

		res = &LiquidationResult{
			LoanID:          l.LoanID,
			BotID:           l.BotID,
			Principal:       l.Principal,
			FromReserves:    loss.FromReserves,
			FromDeposits:    loss.FromDeposits,
			PoolDeactivated: wasActive && !p.Active,
		}
		snap = p
		return nil
	})
	u.cfg.Metrics.ObserveOperation("liquidate", err)
	if err != nil {
		return nil, err
	}
	if res.AlreadyLiquidated {
		return res, nil
	}
	u.cfg.Metrics.ObservePool(snap, snap.Utilization(u.cfg.Model))
	log := u.log.With(zap.String("loan_id", res.LoanID), zap.String("bot_id", res.BotID))
	log.Warn("loan liquidated",
		zap.Stringer("principal", res.Principal),
		zap.Stringer("from_reserves", res.FromReserves),
		zap.Stringer("from_deposits", res.FromDeposits))
	if res.PoolDeactivated {
		log.Error("pool deactivated: deposits exhausted by write-off")
	}
	return res, nil
}

// SweepOverdue liquidates every ACTIVE loan past its due time, one
// transaction per loan. Loans settled concurrently are skipped; other
// failures are joined into the returned error after the sweep finishes.
func (u *Usecase) SweepOverdue(ctx context.Context) (*SweepResult, error) {
	var due []loan.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		due, err = r.Loans.ListOverdue(ctx, u.cfg.PoolID, u.cfg.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &SweepResult{Scanned: len(due), Liquidated: []LiquidationResult{}}
	var errs []error
	for i := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := u.Liquidate(ctx, due[i].LoanID)
		switch {
		case err == nil && !res.AlreadyLiquidated:
			out.Liquidated = append(out.Liquidated, *res)
		case err == nil, errors.Is(err, loan.ErrClosed), errors.Is(err, loan.ErrNotOverdue):
		default:
			errs = append(errs, fmt.Errorf("liquidate %s: %w", due[i].LoanID, err))
		}
	}
	return out, errors.Join(errs...)
}

func loadProfile(ctx context.Context, r uow.Repos, botID string) (*credit.Profile, error) {
	p, err := r.Credits.GetByBotID(ctx, botID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return credit.NewProfile(botID), nil
	}
	return p, err
}
