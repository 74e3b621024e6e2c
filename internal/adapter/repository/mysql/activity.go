package mysql

import (
	"context"

	activityDomain "github.com/andreolf/clawloan/internal/domain/activity"

	"gorm.io/gorm"
)

type ActivityRepository struct{ db *gorm.DB }

func NewActivityRepository(db *gorm.DB) *ActivityRepository { return &ActivityRepository{db: db} }

func (r *ActivityRepository) Create(ctx context.Context, e *activityDomain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *ActivityRepository) List(ctx context.Context, q activityDomain.Query) ([]activityDomain.Event, error) {
	var out []activityDomain.Event
	tx := r.db.WithContext(ctx).Where("pool_id = ?", q.PoolID)
	if len(q.Kinds) > 0 {
		tx = tx.Where("kind IN ?", q.Kinds)
	}
	if q.Actor != "" {
		tx = tx.Where("actor = ?", q.Actor)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	res := tx.Order("created_at DESC, id DESC").Find(&out)
	return out, res.Error
}
