package mysql

import (
	"context"
	"testing"
	"time"

	domain "github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/pkg/fixed"
	"github.com/andreolf/clawloan/pkg/id"
)

func TestActivityRepository_ListFilters(t *testing.T) {
	db := openTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	seed := []struct {
		pool  string
		kind  domain.Kind
		actor string
	}{
		{"main", domain.KindDeposit, "alice"},
		{"main", domain.KindBorrow, "bot-1"},
		{"main", domain.KindRepay, "bot-1"},
		{"main", domain.KindWithdraw, "alice"},
		{"other", domain.KindDeposit, "alice"},
	}
	for i, s := range seed {
		e := &domain.Event{
			EventID:   id.NewID32(),
			PoolID:    s.pool,
			Kind:      s.kind,
			Actor:     s.actor,
			Amount:    fixed.New(uint64(i + 1)),
			CreatedAt: testNow.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	all, err := repo.List(ctx, domain.Query{PoolID: "main"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].Kind != domain.KindWithdraw || all[3].Kind != domain.KindDeposit {
		t.Fatalf("want 4 newest-first events, got %+v", all)
	}
	if !all[0].Amount.Eq(fixed.New(4)) || !all[0].Interest.IsZero() {
		t.Fatalf("amounts not round-tripped: %+v", all[0])
	}

	kinds, _ := domain.FilterBorrow.Kinds()
	borrow, err := repo.List(ctx, domain.Query{PoolID: "main", Kinds: kinds})
	if err != nil {
		t.Fatalf("list borrow: %v", err)
	}
	if len(borrow) != 2 || borrow[0].Kind != domain.KindRepay {
		t.Fatalf("borrow filter = %+v", borrow)
	}

	mine, err := repo.List(ctx, domain.Query{PoolID: "main", Actor: "alice", Limit: 1})
	if err != nil {
		t.Fatalf("list actor: %v", err)
	}
	if len(mine) != 1 || mine[0].Kind != domain.KindWithdraw {
		t.Fatalf("actor filter = %+v", mine)
	}
}
