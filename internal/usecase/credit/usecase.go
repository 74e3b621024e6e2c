package credit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/andreolf/clawloan/internal/domain/bot"
	domain "github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/uow"
	"github.com/andreolf/clawloan/internal/infrastructure/cache"
	"github.com/andreolf/clawloan/pkg/fixed"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultLeaderboardTTL   = 60 * time.Second
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type Config struct {
	Tiers          domain.Table
	LeaderboardTTL time.Duration
	Now            func() time.Time
	Logger         *zap.Logger
}

type Usecase struct {
	uow   uow.UnitOfWork
	cache *cache.JSONCache
	cfg   Config
	log   *zap.Logger
}

// NewUsecase wires the credit read models. A nil cache disables
// leaderboard caching.
func NewUsecase(tx uow.UnitOfWork, c *cache.JSONCache, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.LeaderboardTTL <= 0 {
		cfg.LeaderboardTTL = defaultLeaderboardTTL
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, cache: c, cfg: cfg, log: log}
}

// Profile is a bot's credit standing. A bot that never borrowed has a NEW
// profile; the permission limit is zero unless the owner's grant is live.
func (u *Usecase) Profile(ctx context.Context, botID string) (*ProfileView, error) {
	var out *ProfileView
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Bots.GetByBotID(ctx, botID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bot.ErrNotFound
			}
			return err
		}
		p, err := r.Credits.GetByBotID(ctx, botID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			p = domain.NewProfile(botID)
		case err != nil:
			return err
		}

		permLimit := fixed.Zero()
		perm, err := r.Bots.GetPermission(ctx, botID)
		switch {
		case err == nil:
			if perm.Check(u.cfg.Now().UTC()) == nil {
				permLimit = perm.MaxSpend
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		tierLimit := u.cfg.Tiers.Limit(p.Tier)
		out = &ProfileView{
			BotID: p.BotID,
			Tier:  p.Tier.String(),
			Score: p.Score,
			Limits: Limits{
				Tier:       tierLimit,
				Permission: permLimit,
				Effective:  fixed.Min(tierLimit, permLimit),
			},
			TotalLoans:           p.TotalLoans,
			SuccessfulRepayments: p.SuccessfulRepayments,
			EffectiveRepayments:  p.Effective(),
			Defaults:             p.Defaults,
			CurrentStreak:        p.CurrentStreak,
			LongestStreak:        p.LongestStreak,
			TotalBorrowed:        p.TotalBorrowed,
			TotalRepaid:          p.TotalRepaid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Leaderboard ranks bots by score. Results are cached briefly; a cache
// failure falls through to the database.
func (u *Usecase) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	key := "leaderboard:" + strconv.Itoa(limit)

	if u.cache != nil {
		var cached []LeaderboardEntry
		hit, err := u.cache.Get(ctx, key, &cached)
		if err != nil {
			u.log.Warn("leaderboard cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	var out []LeaderboardEntry
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		top, err := r.Credits.ListTop(ctx, limit)
		if err != nil {
			return err
		}
		out = make([]LeaderboardEntry, 0, len(top))
		for i, p := range top {
			out = append(out, LeaderboardEntry{
				Rank:                 i + 1,
				BotID:                p.BotID,
				Tier:                 p.Tier.String(),
				Score:                p.Score,
				SuccessfulRepayments: p.SuccessfulRepayments,
				Defaults:             p.Defaults,
				LongestStreak:        p.LongestStreak,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, key, out, u.cfg.LeaderboardTTL); err != nil {
			u.log.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	return out, nil
}
