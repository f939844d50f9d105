package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/provider"
	"github.com/draftnight/draftnight-server/internal/provider/providertest"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCachedScheduleMemoizesWithinTTL(t *testing.T) {
	fake := &providertest.Fake{}
	fake.SetGames(models.LeagueNBA, "2026-01-15", []models.Game{{ID: "g1", League: models.LeagueNBA}})

	clock := clockwork.NewFakeClock()
	cached := provider.NewCached(fake, time.Minute, time.Minute, clock, zaptest.NewLogger(t))

	ctx := context.Background()
	_, err := cached.Schedule(ctx, models.LeagueNBA, "2026-01-15")
	require.NoError(t, err)
	_, err = cached.Schedule(ctx, models.LeagueNBA, "2026-01-15")
	require.NoError(t, err)
	require.Equal(t, 1, fake.CallCount("schedule"), "second call within TTL must hit the cache")

	clock.Advance(2 * time.Minute)
	_, err = cached.Schedule(ctx, models.LeagueNBA, "2026-01-15")
	require.NoError(t, err)
	require.Equal(t, 2, fake.CallCount("schedule"), "expired entry must refetch")
}

func TestCachedScheduleServesStaleOnError(t *testing.T) {
	fake := &providertest.Fake{}
	fake.SetGames(models.LeagueNHL, "2026-01-15", []models.Game{{ID: "g9", League: models.LeagueNHL}})

	clock := clockwork.NewFakeClock()
	cached := provider.NewCached(fake, time.Minute, time.Minute, clock, zaptest.NewLogger(t))

	ctx := context.Background()
	games, err := cached.Schedule(ctx, models.LeagueNHL, "2026-01-15")
	require.NoError(t, err)
	require.Len(t, games, 1)

	clock.Advance(2 * time.Minute)
	fake.Errs = map[string]error{"schedule": errors.New("upstream down")}

	games, err = cached.Schedule(ctx, models.LeagueNHL, "2026-01-15")
	require.NoError(t, err, "stale data must be served instead of the error")
	require.Equal(t, "g9", games[0].ID)
}

func TestCachedGameLogReturnsCopies(t *testing.T) {
	fake := &providertest.Fake{
		Logs: map[string][]provider.GameLogEntry{
			"a1": {{
				GameID: "g1", Date: "2026-01-15",
				Line: models.StatLine{
					League: models.LeagueNBA,
					Role:   models.RoleNBA,
					NBA:    &models.NBAStats{Points: 20},
				},
			}},
		},
	}

	clock := clockwork.NewFakeClock()
	cached := provider.NewCached(fake, time.Minute, time.Minute, clock, zaptest.NewLogger(t))

	ctx := context.Background()
	first, err := cached.GameLog(ctx, models.LeagueNBA, "a1")
	require.NoError(t, err)
	first[0].Line.NBA.Points = 999

	second, err := cached.GameLog(ctx, models.LeagueNBA, "a1")
	require.NoError(t, err)
	require.Equal(t, 1, fake.CallCount("gamelog"), "second call within TTL must hit the cache")
	require.Equal(t, 20.0, second[0].Line.NBA.Points, "caller mutation must not reach the cache")
}

func TestCachedScheduleReturnsCopies(t *testing.T) {
	fake := &providertest.Fake{}
	fake.SetGames(models.LeagueNBA, "2026-01-15", []models.Game{{ID: "g1", State: models.GameScheduled}})

	clock := clockwork.NewFakeClock()
	cached := provider.NewCached(fake, time.Minute, time.Minute, clock, zaptest.NewLogger(t))

	ctx := context.Background()
	first, err := cached.Schedule(ctx, models.LeagueNBA, "2026-01-15")
	require.NoError(t, err)
	first[0].State = models.GameFinal

	second, err := cached.Schedule(ctx, models.LeagueNBA, "2026-01-15")
	require.NoError(t, err)
	require.Equal(t, models.GameScheduled, second[0].State, "caller mutation must not reach the cache")
}
