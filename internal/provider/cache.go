package provider

import (
	"context"
	"sync"
	"time"

	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type scheduleEntry struct {
	games     []models.Game
	fetchedAt time.Time
}

type gameLogEntry struct {
	entries   []GameLogEntry
	fetchedAt time.Time
}

// Cached memoizes Schedule and GameLog with short TTLs to bound upstream
// call volume; the other calls pass through untouched since live stats must
// always be fresh. On a failed refresh it serves the last good value, so a
// provider outage degrades to stale data instead of an error.
type Cached struct {
	Provider

	scheduleTTL time.Duration
	gameLogTTL  time.Duration
	clock       clockwork.Clock
	log         *zap.Logger

	mu        sync.Mutex
	schedules map[string]scheduleEntry // key: league|date
	gameLogs  map[string]gameLogEntry  // key: league|athleteID
}

func NewCached(inner Provider, scheduleTTL, gameLogTTL time.Duration, clock clockwork.Clock, log *zap.Logger) *Cached {
	return &Cached{
		Provider:    inner,
		scheduleTTL: scheduleTTL,
		gameLogTTL:  gameLogTTL,
		clock:       clock,
		log:         log,
		schedules:   make(map[string]scheduleEntry),
		gameLogs:    make(map[string]gameLogEntry),
	}
}

func (c *Cached) Schedule(ctx context.Context, league models.League, date string) ([]models.Game, error) {
	key := string(league) + "|" + date

	c.mu.Lock()
	entry, ok := c.schedules[key]
	c.mu.Unlock()
	if ok && c.clock.Since(entry.fetchedAt) < c.scheduleTTL {
		return models.CloneGames(entry.games), nil
	}

	games, err := c.Provider.Schedule(ctx, league, date)
	if err != nil {
		if ok {
			c.log.Warn("schedule refresh failed, serving stale",
				zap.String("league", string(league)),
				zap.String("date", date),
				zap.Error(err))
			return models.CloneGames(entry.games), nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.schedules[key] = scheduleEntry{games: models.CloneGames(games), fetchedAt: c.clock.Now()}
	c.mu.Unlock()
	return games, nil
}

func (c *Cached) GameLog(ctx context.Context, league models.League, athleteID string) ([]GameLogEntry, error) {
	key := string(league) + "|" + athleteID

	c.mu.Lock()
	entry, ok := c.gameLogs[key]
	c.mu.Unlock()
	if ok && c.clock.Since(entry.fetchedAt) < c.gameLogTTL {
		return cloneGameLog(entry.entries), nil
	}

	entries, err := c.Provider.GameLog(ctx, league, athleteID)
	if err != nil {
		if ok {
			c.log.Warn("game log refresh failed, serving stale",
				zap.String("athlete_id", athleteID),
				zap.Error(err))
			return cloneGameLog(entry.entries), nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.gameLogs[key] = gameLogEntry{entries: cloneGameLog(entries), fetchedAt: c.clock.Now()}
	c.mu.Unlock()
	return entries, nil
}

func cloneGameLog(entries []GameLogEntry) []GameLogEntry {
	out := make([]GameLogEntry, len(entries))
	for i, e := range entries {
		out[i] = e
		out[i].Line = e.Line.Clone()
	}
	return out
}
