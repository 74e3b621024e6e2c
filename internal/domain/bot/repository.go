package bot

import "context"

type Repository interface {
	Create(ctx context.Context, b *Bot) error
	GetByBotID(ctx context.Context, botID string) (*Bot, error)
	ListByOperator(ctx context.Context, operator string) ([]Bot, error)
	Save(ctx context.Context, b *Bot) error

	// Returns gorm.ErrRecordNotFound when the owner never granted one.
	GetPermission(ctx context.Context, botID string) (*Permission, error)
	SavePermission(ctx context.Context, p *Permission) error
}
