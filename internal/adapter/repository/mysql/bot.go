package mysql

import (
	"context"

	botDomain "github.com/andreolf/clawloan/internal/domain/bot"

	"gorm.io/gorm"
)

type BotRepository struct{ db *gorm.DB }

func NewBotRepository(db *gorm.DB) *BotRepository { return &BotRepository{db: db} }

func (r *BotRepository) Create(ctx context.Context, b *botDomain.Bot) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BotRepository) Save(ctx context.Context, b *botDomain.Bot) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BotRepository) GetByBotID(ctx context.Context, botID string) (*botDomain.Bot, error) {
	var out botDomain.Bot
	res := r.db.WithContext(ctx).Where("bot_id = ?", botID).First(&out)
	return &out, res.Error
}

func (r *BotRepository) ListByOperator(ctx context.Context, operator string) ([]botDomain.Bot, error) {
	var out []botDomain.Bot
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if operator != "" {
		q = q.Where("operator_address = ?", operator)
	}
	res := q.Find(&out)
	return out, res.Error
}

func (r *BotRepository) GetPermission(ctx context.Context, botID string) (*botDomain.Permission, error) {
	var out botDomain.Permission
	res := r.db.WithContext(ctx).Where("bot_id = ?", botID).First(&out)
	return &out, res.Error
}

func (r *BotRepository) SavePermission(ctx context.Context, p *botDomain.Permission) error {
	return r.db.WithContext(ctx).Save(p).Error
}
