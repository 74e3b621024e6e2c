package pool

import (
	"errors"
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
)

var (
	ErrUninitialized          = errors.New("pool not initialized")
	ErrInactive               = errors.New("pool is not active")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientLiquidity  = errors.New("insufficient liquidity in pool")
	ErrInsufficientShares     = errors.New("insufficient shares")
	ErrNoRewards              = errors.New("no rewards to claim")
	ErrRewardPoolInsufficient = errors.New("reward pool cannot cover claim")
	ErrShareMismatch          = errors.New("position shares do not match pool share supply")
)

// Table: pools. One row per asset market.
type Pool struct {
	ID       uint64 `gorm:"primaryKey;column:id" json:"-"`
	PoolID   string `gorm:"column:pool_id;size:32;not null;uniqueIndex:ux_pools_pool_id" json:"pool_id"`
	Asset    string `gorm:"column:asset;size:16;not null" json:"asset"`
	Decimals int32  `gorm:"column:decimals;not null" json:"decimals"`
	Active   bool   `gorm:"column:active;not null" json:"active"`

	TotalDeposits fixed.Int `gorm:"column:total_deposits;type:varchar(80);not null" json:"total_deposits"`
	TotalBorrows  fixed.Int `gorm:"column:total_borrows;type:varchar(80);not null" json:"total_borrows"`
	TotalShares   fixed.Int `gorm:"column:total_shares;type:varchar(80);not null" json:"total_shares"`
	TotalReserves fixed.Int `gorm:"column:total_reserves;type:varchar(80);not null" json:"total_reserves"`
	// BorrowIndex starts at RAY and never decreases.
	BorrowIndex fixed.Int `gorm:"column:borrow_index;type:varchar(80);not null" json:"borrow_index"`
	RewardPool  fixed.Int `gorm:"column:reward_pool;type:varchar(80);not null" json:"reward_pool"`
	RewardIndex fixed.Int `gorm:"column:reward_index;type:varchar(80);not null" json:"reward_index"`

	LastUpdated time.Time `gorm:"column:last_updated;not null" json:"last_updated"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Pool) TableName() string { return "pools" }

// New returns an empty, active pool whose index starts at RAY.
func New(poolID, asset string, decimals int32, now time.Time) *Pool {
	return &Pool{
		PoolID:      poolID,
		Asset:       asset,
		Decimals:    decimals,
		Active:      true,
		BorrowIndex: fixed.RAY,
		LastUpdated: now.UTC(),
	}
}

// Table: positions. Zero shares is a valid terminal state; rows are never deleted.
type Position struct {
	ID       uint64 `gorm:"primaryKey;column:id" json:"-"`
	PoolID   string `gorm:"column:pool_id;size:32;not null;uniqueIndex:ux_positions_pool_lender" json:"pool_id"`
	LenderID string `gorm:"column:lender_id;size:64;not null;uniqueIndex:ux_positions_pool_lender" json:"lender_id"`

	Shares         fixed.Int `gorm:"column:shares;type:varchar(80);not null" json:"shares"`
	RewardDebt     fixed.Int `gorm:"column:reward_debt;type:varchar(80);not null" json:"reward_debt"`
	PendingRewards fixed.Int `gorm:"column:pending_rewards;type:varchar(80);not null" json:"pending_rewards"`
	Deposited      fixed.Int `gorm:"column:deposited;type:varchar(80);not null" json:"deposited"`
	Withdrawn      fixed.Int `gorm:"column:withdrawn;type:varchar(80);not null" json:"withdrawn"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Position) TableName() string { return "positions" }

func NewPosition(poolID, lenderID string) *Position {
	return &Position{PoolID: poolID, LenderID: lenderID}
}
