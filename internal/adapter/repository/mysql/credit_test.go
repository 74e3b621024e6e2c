package mysql

import (
	"context"
	"errors"
	"testing"

	creditDomain "github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/pkg/fixed"

	"gorm.io/gorm"
)

func TestCreditRepository_SaveAndRank(t *testing.T) {
	db := openTestDB(t)
	repo := NewCreditRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByBotID(ctx, "ghost"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}

	strong := creditDomain.NewProfile("strong")
	for i := 0; i < 6; i++ {
		strong.RecordLoanOpened(fixed.New(1))
		strong.RecordRepayment(true, fixed.New(1))
	}
	weak := creditDomain.NewProfile("weak")
	weak.RecordLoanOpened(fixed.New(1))
	weak.RecordRepayment(false, fixed.Zero())
	fresh := creditDomain.NewProfile("fresh")

	for _, p := range []*creditDomain.Profile{weak, fresh, strong} {
		if err := repo.Save(ctx, p); err != nil {
			t.Fatalf("Save %s: %v", p.BotID, err)
		}
	}

	got, err := repo.GetByBotID(ctx, "strong")
	if err != nil {
		t.Fatalf("GetByBotID: %v", err)
	}
	if got.Tier != creditDomain.TierSilver || got.LongestStreak != 6 {
		t.Fatalf("unexpected profile: %+v", got)
	}

	top, err := repo.ListTop(ctx, 2)
	if err != nil {
		t.Fatalf("ListTop: %v", err)
	}
	if len(top) != 2 || top[0].BotID != "strong" || top[1].BotID != "fresh" {
		t.Fatalf("ranking = %+v", top)
	}
}
