package mysql

import (
	"context"

	creditDomain "github.com/andreolf/clawloan/internal/domain/credit"

	"gorm.io/gorm"
)

type CreditRepository struct{ db *gorm.DB }

func NewCreditRepository(db *gorm.DB) *CreditRepository { return &CreditRepository{db: db} }

func (r *CreditRepository) GetByBotID(ctx context.Context, botID string) (*creditDomain.Profile, error) {
	var out creditDomain.Profile
	res := r.db.WithContext(ctx).Where("bot_id = ?", botID).First(&out)
	return &out, res.Error
}

func (r *CreditRepository) Save(ctx context.Context, p *creditDomain.Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *CreditRepository) ListTop(ctx context.Context, limit int) ([]creditDomain.Profile, error) {
	var out []creditDomain.Profile
	res := r.db.WithContext(ctx).
		Order("score DESC, successful_repayments DESC, id ASC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}
