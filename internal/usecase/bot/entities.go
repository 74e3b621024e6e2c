package bot

import (
	"time"

	domain "github.com/andreolf/clawloan/internal/domain/bot"
	"github.com/andreolf/clawloan/pkg/fixed"
)

type RegisterInput struct {
	Name            string
	Description     string
	OperatorAddress string
	MetadataHash    string
	// Nil takes the configured default.
	MaxSpend *fixed.Int
	Expiry   *time.Time
}

type PermissionInput struct {
	BotID    string
	MaxSpend fixed.Int
	Expiry   time.Time
}

type BotView struct {
	domain.Bot
	Permission *domain.Permission `json:"permission,omitempty"`
}
