package credit

import "context"

type Repository interface {
	// Returns gorm.ErrRecordNotFound for a borrower without history.
	GetByBotID(ctx context.Context, botID string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	// Highest score first; ties broken by successful repayments.
	ListTop(ctx context.Context, limit int) ([]Profile, error)
}
