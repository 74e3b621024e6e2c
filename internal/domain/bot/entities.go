package bot

import (
	"errors"
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
)

var (
	ErrNotFound           = errors.New("bot not found")
	ErrInactive           = errors.New("bot is not active")
	ErrNoActivePermission = errors.New("no active permissions for this bot")
	ErrPermissionExpired  = errors.New("bot permission expired")
	ErrInvalid            = errors.New("invalid bot or permission data")
)

// Table: bots. An agent identity registered by an operator.
type Bot struct {
	ID              uint64    `gorm:"primaryKey;column:id" json:"-"`
	BotID           string    `gorm:"column:bot_id;size:32;not null;uniqueIndex:ux_bots_bot_id" json:"bot_id"`
	Name            string    `gorm:"column:name;size:128;not null" json:"name"`
	Description     string    `gorm:"column:description;type:text" json:"description,omitempty"`
	OperatorAddress string    `gorm:"column:operator_address;size:64;not null;index" json:"operator_address"`
	MetadataHash    string    `gorm:"column:metadata_hash;size:128" json:"metadata_hash,omitempty"`
	Active          bool      `gorm:"column:active;not null" json:"active"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Bot) TableName() string { return "bots" }

type PermissionStatus string

const (
	PermissionActive  PermissionStatus = "ACTIVE"
	PermissionRevoked PermissionStatus = "REVOKED"
)

// Table: permissions. The owner-set spend cap for one bot.
type Permission struct {
	ID        uint64           `gorm:"primaryKey;column:id" json:"-"`
	BotID     string           `gorm:"column:bot_id;size:32;not null;uniqueIndex:ux_permissions_bot_id" json:"bot_id"`
	MaxSpend  fixed.Int        `gorm:"column:max_spend;type:varchar(80);not null" json:"max_spend"`
	Expiry    time.Time        `gorm:"column:expiry;not null" json:"expiry"`
	Status    PermissionStatus `gorm:"column:status;size:16;not null" json:"status"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Permission) TableName() string { return "permissions" }

// Check reports whether the permission allows borrowing at now.
func (p *Permission) Check(now time.Time) error {
	if p == nil || p.Status != PermissionActive {
		return ErrNoActivePermission
	}
	if !now.Before(p.Expiry) {
		return ErrPermissionExpired
	}
	return nil
}
