package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
	"github.com/andreolf/clawloan/pkg/id"
)

var ErrUnknownFilter = errors.New("unknown activity filter")

type Kind string

const (
	KindDeposit   Kind = "deposit"
	KindWithdraw  Kind = "withdraw"
	KindClaim     Kind = "claim"
	KindBorrow    Kind = "borrow"
	KindRepay     Kind = "repay"
	KindLiquidate Kind = "liquidate"
)

// Filter groups kinds the way the feed is browsed: lender side or bot side.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterSupply Filter = "supply"
	FilterBorrow Filter = "borrow"
)

// Kinds returns the kinds a filter selects; nil means every kind.
func (f Filter) Kinds() ([]Kind, error) {
	switch f {
	case FilterAll, "":
		return nil, nil
	case FilterSupply:
		return []Kind{KindDeposit, KindWithdraw, KindClaim}, nil
	case FilterBorrow:
		return []Kind{KindBorrow, KindRepay, KindLiquidate}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, string(f))
	}
}

// Table: activity_events. One row per committed ledger operation, written in
// the same transaction as the state change it describes.
type Event struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	EventID   string    `gorm:"column:event_id;size:32;not null;uniqueIndex:ux_activity_event_id" json:"event_id"`
	PoolID    string    `gorm:"column:pool_id;size:32;not null;index:ix_activity_pool_created,priority:1" json:"pool_id"`
	Kind      Kind      `gorm:"column:kind;size:16;not null;index" json:"kind"`
	// Actor is the lender id for supply events and the bot id otherwise.
	Actor     string    `gorm:"column:actor;size:64;not null;index" json:"actor"`
	LoanID    string    `gorm:"column:loan_id;size:32" json:"loan_id,omitempty"`
	Amount    fixed.Int `gorm:"column:amount;type:varchar(80);not null" json:"amount"`
	Shares    fixed.Int `gorm:"column:shares;type:varchar(80);not null" json:"shares"`
	Interest  fixed.Int `gorm:"column:interest;type:varchar(80);not null" json:"interest"`
	// CreatedAt is the engine clock at commit, not the row insert time.
	CreatedAt time.Time `gorm:"column:created_at;not null;index:ix_activity_pool_created,priority:2" json:"created_at"`
}

func (Event) TableName() string { return "activity_events" }

// New stamps an event with a fresh public id.
func New(poolID string, kind Kind, actor string, amount fixed.Int, at time.Time) *Event {
	return &Event{
		EventID:   id.NewID32(),
		PoolID:    poolID,
		Kind:      kind,
		Actor:     actor,
		Amount:    amount,
		CreatedAt: at.UTC(),
	}
}
