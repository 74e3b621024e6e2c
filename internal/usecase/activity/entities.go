package activity

import (
	"time"

	domain "github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/pkg/fixed"
)

type FeedInput struct {
	Filter domain.Filter
	Actor  string
	Limit  int
}

type EventDTO struct {
	EventID   string      `json:"event_id"`
	Kind      domain.Kind `json:"kind"`
	Actor     string      `json:"actor"`
	LoanID    string      `json:"loan_id,omitempty"`
	Amount    fixed.Int   `json:"amount"`
	Shares    *fixed.Int  `json:"shares,omitempty"`
	Interest  *fixed.Int  `json:"interest,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func toDTO(e domain.Event) EventDTO {
	out := EventDTO{
		EventID:   e.EventID,
		Kind:      e.Kind,
		Actor:     e.Actor,
		LoanID:    e.LoanID,
		Amount:    e.Amount,
		CreatedAt: e.CreatedAt.UTC(),
	}
	if !e.Shares.IsZero() {
		s := e.Shares
		out.Shares = &s
	}
	if !e.Interest.IsZero() {
		i := e.Interest
		out.Interest = &i
	}
	return out
}
