package credit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andreolf/clawloan/internal/domain/bot"
	domain "github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/uow"
	"github.com/andreolf/clawloan/internal/infrastructure/cache"
	"github.com/andreolf/clawloan/internal/testutil/creditmock"
	"github.com/andreolf/clawloan/internal/testutil/fixture"
	"github.com/andreolf/clawloan/internal/testutil/uowmock"
	"github.com/andreolf/clawloan/pkg/fixed"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const month = 30 * 24 * time.Hour

func units(n uint64) fixed.Int { return fixed.New(n * 1_000000) }

func newUsecase(env *fixture.Env, c *cache.JSONCache) *Usecase {
	return NewUsecase(env.UoW, c, Config{Tiers: domain.DefaultTable(), Now: env.Clock.Now})
}

func TestProfile_TierTransition(t *testing.T) {
	env := fixture.New(t)
	botID := env.AddBot(t, units(1000), month)
	env.SetHistory(t, botID, 6, 0)
	uc := newUsecase(env, nil)
	ctx := context.Background()

	v, err := uc.Profile(ctx, botID)
	require.NoError(t, err)
	require.Equal(t, "SILVER", v.Tier)
	require.Equal(t, units(200), v.Limits.Tier)
	require.Equal(t, units(1000), v.Limits.Permission)
	require.Equal(t, units(200), v.Limits.Effective)
	require.Equal(t, int64(500+60+30), v.Score)

	demoted := env.AddBot(t, units(1000), month)
	env.SetHistory(t, demoted, 6, 1)
	v, err = uc.Profile(ctx, demoted)
	require.NoError(t, err)
	require.Equal(t, "BRONZE", v.Tier)
	require.Equal(t, units(50), v.Limits.Effective)
	require.Equal(t, uint64(1), v.EffectiveRepayments)
	require.Equal(t, uint64(0), v.CurrentStreak)
}

func TestProfile_FreshBotAndPermissionBound(t *testing.T) {
	env := fixture.New(t)
	botID := env.AddBot(t, units(5), time.Hour)
	uc := newUsecase(env, nil)
	ctx := context.Background()

	v, err := uc.Profile(ctx, botID)
	require.NoError(t, err)
	require.Equal(t, "NEW", v.Tier)
	require.Equal(t, int64(500), v.Score)
	require.Equal(t, units(5), v.Limits.Effective, "owner cap below the $10 tier ceiling")

	env.Clock.Advance(time.Hour)
	v, err = uc.Profile(ctx, botID)
	require.NoError(t, err)
	require.True(t, v.Limits.Permission.IsZero(), "expired grant contributes nothing")
	require.True(t, v.Limits.Effective.IsZero())

	if _, err := uc.Profile(ctx, "ghost"); !errors.Is(err, bot.ErrNotFound) {
		t.Fatalf("want bot.ErrNotFound, got %v", err)
	}
}

func TestLeaderboard_CachesAndFallsBack(t *testing.T) {
	env := fixture.New(t)
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	uc := newUsecase(env, cache.NewJSONCache(rdb, "clawloan:"))
	ctx := context.Background()

	env.SetHistory(t, "aaaa", 10, 0)
	env.SetHistory(t, "bbbb", 2, 0)
	env.SetHistory(t, "cccc", 1, 1)

	board, err := uc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, board, 2)
	require.Equal(t, "aaaa", board[0].BotID)
	require.Equal(t, 1, board[0].Rank)
	require.Equal(t, "bbbb", board[1].BotID)
	require.True(t, s.Exists("clawloan:leaderboard:2"))

	// a new leader is invisible until the entry expires
	env.SetHistory(t, "dddd", 40, 0)
	board, err = uc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "aaaa", board[0].BotID)

	s.FastForward(61 * time.Second)
	board, err = uc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "dddd", board[0].BotID)

	// redis down: served from the database
	s.Close()
	board, err = uc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "dddd", board[0].BotID)
}

func TestLeaderboard_ClampsLimit(t *testing.T) {
	var got int
	repos := uow.Repos{Credits: &creditmock.Repo{
		ListTopFn: func(_ context.Context, limit int) ([]domain.Profile, error) {
			got = limit
			return nil, nil
		},
	}}
	uc := NewUsecase(uowmock.Over(repos, nil), nil, Config{Tiers: domain.DefaultTable()})

	_, err := uc.Leaderboard(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, defaultLeaderboardLimit, got)

	_, err = uc.Leaderboard(context.Background(), 5000)
	require.NoError(t, err)
	require.Equal(t, maxLeaderboardLimit, got)
}

func TestLeaderboard_RepoError(t *testing.T) {
	boom := errors.New("db down")
	repos := uow.Repos{Credits: &creditmock.Repo{
		ListTopFn: func(context.Context, int) ([]domain.Profile, error) { return nil, boom },
	}}
	uc := NewUsecase(uowmock.Over(repos, nil), nil, Config{})
	if _, err := uc.Leaderboard(context.Background(), 3); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}

