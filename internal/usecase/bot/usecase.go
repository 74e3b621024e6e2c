package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/andreolf/clawloan/internal/domain/bot"
	"github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/uow"
	"github.com/andreolf/clawloan/pkg/fixed"
	"github.com/andreolf/clawloan/pkg/id"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	DefaultMaxSpend fixed.Int
	DefaultTTL      time.Duration
	Now             func() time.Time
	Logger          *zap.Logger
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
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 30 * 24 * time.Hour
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, cfg: cfg, log: log}
}

// Register creates an active bot together with its owner permission and an
// empty credit profile.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*BotView, error) {
	name := strings.TrimSpace(in.Name)
	operator := strings.TrimSpace(in.OperatorAddress)
	if name == "" || operator == "" {
		return nil, domain.ErrInvalid
	}
	now := u.cfg.Now().UTC()

	maxSpend := u.cfg.DefaultMaxSpend
	if in.MaxSpend != nil {
		maxSpend = *in.MaxSpend
	}
	expiry := now.Add(u.cfg.DefaultTTL)
	if in.Expiry != nil {
		expiry = in.Expiry.UTC()
	}
	if err := validGrant(maxSpend, expiry, now); err != nil {
		return nil, err
	}

	b := &domain.Bot{
		BotID:           id.NewID32(),
		Name:            name,
		Description:     in.Description,
		OperatorAddress: operator,
		MetadataHash:    in.MetadataHash,
		Active:          true,
	}
	perm := &domain.Permission{
		BotID:    b.BotID,
		MaxSpend: maxSpend,
		Expiry:   expiry,
		Status:   domain.PermissionActive,
	}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Bots.Create(ctx, b); err != nil {
			return err
		}
		if err := r.Bots.SavePermission(ctx, perm); err != nil {
			return err
		}
		return r.Credits.Save(ctx, credit.NewProfile(b.BotID))
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("bot registered",
		zap.String("bot_id", b.BotID),
		zap.String("operator", operator),
		zap.Stringer("max_spend", maxSpend),
		zap.Time("expiry", expiry),
	)
	return &BotView{Bot: *b, Permission: perm}, nil
}

func (u *Usecase) Get(ctx context.Context, botID string) (*BotView, error) {
	var out *BotView
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		b, err := getBot(ctx, r, botID)
		if err != nil {
			return err
		}
		perm, err := r.Bots.GetPermission(ctx, botID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			perm = nil
		case err != nil:
			return err
		}
		out = &BotView{Bot: *b, Permission: perm}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns bots for one operator, or every bot when operator is empty.
func (u *Usecase) List(ctx context.Context, operator string) ([]domain.Bot, error) {
	var out []domain.Bot
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		out, err = r.Bots.ListByOperator(ctx, strings.TrimSpace(operator))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePermission replaces the cap and expiry and re-activates a revoked grant.
func (u *Usecase) UpdatePermission(ctx context.Context, in PermissionInput) (*domain.Permission, error) {
	now := u.cfg.Now().UTC()
	expiry := in.Expiry.UTC()
	if err := validGrant(in.MaxSpend, expiry, now); err != nil {
		return nil, err
	}

	var out *domain.Permission
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := getBot(ctx, r, in.BotID); err != nil {
			return err
		}
		perm, err := r.Bots.GetPermission(ctx, in.BotID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			perm = &domain.Permission{BotID: in.BotID}
		case err != nil:
			return err
		}
		perm.MaxSpend = in.MaxSpend
		perm.Expiry = expiry
		perm.Status = domain.PermissionActive
		if err := r.Bots.SavePermission(ctx, perm); err != nil {
			return err
		}
		out = perm
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("permission updated",
		zap.String("bot_id", in.BotID),
		zap.Stringer("max_spend", in.MaxSpend),
		zap.Time("expiry", expiry),
	)
	return out, nil
}

// Revoke stops the bot from opening new loans. Open loans are unaffected.
func (u *Usecase) Revoke(ctx context.Context, botID string) (*domain.Permission, error) {
	var out *domain.Permission
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := getBot(ctx, r, botID); err != nil {
			return err
		}
		perm, err := r.Bots.GetPermission(ctx, botID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNoActivePermission
		}
		if err != nil {
			return err
		}
		perm.Status = domain.PermissionRevoked
		if err := r.Bots.SavePermission(ctx, perm); err != nil {
			return err
		}
		out = perm
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("permission revoked", zap.String("bot_id", botID))
	return out, nil
}

// Deactivate retires a bot. It can still repay, but cannot borrow again.
func (u *Usecase) Deactivate(ctx context.Context, botID string) (*domain.Bot, error) {
	var out *domain.Bot
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		b, err := getBot(ctx, r, botID)
		if err != nil {
			return err
		}
		if !b.Active {
			out = b
			return nil
		}
		b.Active = false
		if err := r.Bots.Save(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("bot deactivated", zap.String("bot_id", botID))
	return out, nil
}

func getBot(ctx context.Context, r uow.Repos, botID string) (*domain.Bot, error) {
	b, err := r.Bots.GetByBotID(ctx, botID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func validGrant(maxSpend fixed.Int, expiry, now time.Time) error {
	if maxSpend.IsZero() || !expiry.After(now) {
		return domain.ErrInvalid
	}
	return nil
}
