package activity

import (
	"context"

	domain "github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/internal/domain/uow"

	"go.uber.org/zap"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

type Config struct {
	PoolID string
	Logger *zap.Logger
}

type Usecase struct {
	uow uow.UnitOfWork
	cfg Config
	log *zap.Logger
}

func NewUsecase(tx uow.UnitOfWork, cfg Config) *Usecase {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, cfg: cfg, log: log}
}

// Feed lists the pool's recent events newest first.
func (u *Usecase) Feed(ctx context.Context, in FeedInput) ([]EventDTO, error) {
	kinds, err := in.Filter.Kinds()
	if err != nil {
		return nil, err
	}
	limit := in.Limit
	switch {
	case limit <= 0:
		limit = defaultFeedLimit
	case limit > maxFeedLimit:
		limit = maxFeedLimit
	}

	var out []EventDTO
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		events, err := r.Activity.List(ctx, domain.Query{
			PoolID: u.cfg.PoolID,
			Kinds:  kinds,
			Actor:  in.Actor,
			Limit:  limit,
		})
		if err != nil {
			return err
		}
		out = make([]EventDTO, 0, len(events))
		for _, e := range events {
			out = append(out, toDTO(e))
		}
		return nil
	})
	if err != nil {
		u.log.Error("activity feed", zap.String("filter", string(in.Filter)), zap.Error(err))
		return nil, err
	}
	return out, nil
}
