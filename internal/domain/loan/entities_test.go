package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/andreolf/clawloan/pkg/fixed"
)

func TestOwedAt_IndexRatio(t *testing.T) {
	i0 := fixed.RAY
	l := &Loan{Principal: fixed.New(500_000000), InterestIndex: i0, Status: StatusActive}

	owed := l.OwedAt(fixed.FromBps(10_200))
	if !owed.Total.Eq(fixed.New(510_000000)) || !owed.Interest.Eq(fixed.New(10_000000)) {
		t.Fatalf("owed = %+v", owed)
	}

	// origination at a non-unit index gives the same answer for the same ratio
	i1 := fixed.FromBps(13_000)
	l2 := &Loan{Principal: fixed.New(500_000000), InterestIndex: i1, Status: StatusActive}
	owed2 := l2.OwedAt(i1.MulDiv(fixed.New(102), fixed.New(100)))
	if !owed2.Total.Eq(owed.Total) {
		t.Fatalf("owed at scaled origin = %s, want %s", owed2.Total, owed.Total)
	}
}

func TestOwedAt_NoInterestWithoutIndexGrowth(t *testing.T) {
	l := &Loan{Principal: fixed.New(42), InterestIndex: fixed.RAY}
	if owed := l.OwedAt(fixed.RAY); !owed.Interest.IsZero() || !owed.Total.Eq(fixed.New(42)) {
		t.Fatalf("owed = %+v", owed)
	}
}

func TestClose_TerminalStatesAreImmutable(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	l := &Loan{Principal: fixed.New(1), InterestIndex: fixed.RAY, Status: StatusActive, DueTime: now.Add(DefaultTerm)}

	if err := l.Close(StatusActive, fixed.Zero(), now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if err := l.Close(StatusRepaid, fixed.New(1), now); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if l.ClosedAt == nil || !l.ClosedAt.Equal(now) {
		t.Fatalf("ClosedAt = %v", l.ClosedAt)
	}
	if err := l.Close(StatusDefaulted, fixed.Zero(), now); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if l.Status != StatusRepaid {
		t.Fatalf("status = %s", l.Status)
	}
}

func TestIsOverdue(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	l := &Loan{Status: StatusActive, StartTime: start, DueTime: start.Add(DefaultTerm)}
	if l.IsOverdue(start.Add(DefaultTerm - time.Second)) {
		t.Fatal("overdue before term")
	}
	if !l.IsOverdue(start.Add(DefaultTerm)) {
		t.Fatal("not overdue at term")
	}
	l.Status = StatusRepaid
	if l.IsOverdue(start.Add(30 * DefaultTerm)) {
		t.Fatal("closed loan reported overdue")
	}
}
