// Package pool builds the nightly draftable-player universe: one shared,
// immutable entry per calendar date, constructed at most once no matter how
// many lobbies ask for it concurrently.
package pool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/provider"
	"github.com/draftnight/draftnight-server/internal/scoring"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Config tunes build behavior. Zero values get sane defaults from New.
type Config struct {
	// TopPerTeam trims each (team, game) group to its best N projections.
	TopPerTeam map[models.League]int
	// BatchSize bounds how many season-average fetches run in parallel.
	BatchSize int
	// BatchDelay spaces enrichment batches to respect provider rate limits.
	BatchDelay time.Duration
}

// Entry is one date's built pool. Immutable once stored; hand-outs are deep
// copies.
type Entry struct {
	Date    string
	Players map[models.League][]models.Athlete
	Games   []models.Game
	BuiltAt time.Time
}

// Snapshot is the deep copy a lobby receives: games plus the merged player
// list sorted by projection descending (the order auto-pick walks).
type Snapshot struct {
	Date    string
	BuiltAt time.Time
	Games   []models.Game
	Players []models.Athlete
}

// Diag is the observability view of one cache entry.
type Diag struct {
	Date         string                `json:"date"`
	BuiltAt      time.Time             `json:"builtAt"`
	GameCount    int                   `json:"gameCount"`
	PlayerCounts map[models.League]int `json:"playerCounts"`
	InFlight     bool                  `json:"inFlight"`
}

type Builder struct {
	provider provider.Provider
	rules    scoring.Rules
	clock    clockwork.Clock
	log      *zap.Logger
	cfg      Config

	group    singleflight.Group
	mu       sync.Mutex
	entries  map[string]*Entry
	building map[string]bool
}

func New(p provider.Provider, rules scoring.Rules, clock clockwork.Clock, log *zap.Logger, cfg Config) *Builder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.TopPerTeam == nil {
		cfg.TopPerTeam = map[models.League]int{models.LeagueNBA: 9, models.LeagueNHL: 12}
	}
	return &Builder{
		provider: p,
		rules:    rules,
		clock:    clock,
		log:      log,
		cfg:      cfg,
		entries:  make(map[string]*Entry),
		building: make(map[string]bool),
	}
}

// Pool returns a deep copy of the date's pool, building it first if needed.
// Concurrent callers for an unbuilt date share one build; a failed build
// leaves no entry behind, so the next caller retries from scratch.
func (b *Builder) Pool(ctx context.Context, date string) (*Snapshot, error) {
	b.mu.Lock()
	entry := b.entries[date]
	b.mu.Unlock()
	if entry != nil {
		return entry.snapshot(), nil
	}

	v, err, _ := b.group.Do(date, func() (any, error) {
		// Another caller may have finished while we queued on the group.
		b.mu.Lock()
		if cached := b.entries[date]; cached != nil {
			b.mu.Unlock()
			return cached, nil
		}
		b.building[date] = true
		b.mu.Unlock()
		defer func() {
			b.mu.Lock()
			delete(b.building, date)
			b.mu.Unlock()
		}()

		built, err := b.build(ctx, date)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.entries[date] = built
		b.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry).snapshot(), nil
}

func (b *Builder) build(ctx context.Context, date string) (*Entry, error) {
	start := b.clock.Now()
	futureDate := date > start.Format("2006-01-02")

	var games []models.Game
	var athletes []models.Athlete
	scheduleFailures := 0

	for _, league := range models.Leagues() {
		leagueGames, err := b.provider.Schedule(ctx, league, date)
		if err != nil {
			b.log.Warn("schedule fetch failed during pool build",
				zap.String("league", string(league)),
				zap.String("date", date),
				zap.Error(err))
			scheduleFailures++
			continue
		}
		for _, g := range leagueGames {
			games = append(games, g)
			if g.Terminal() && !futureDate {
				continue
			}
			roster, err := b.provider.Roster(ctx, g)
			if err != nil {
				b.log.Warn("roster fetch failed, game excluded from pool",
					zap.String("game_id", g.ID),
					zap.Error(err))
				continue
			}
			athletes = append(athletes, roster...)
		}
	}
	if scheduleFailures == len(models.Leagues()) {
		return nil, fmt.Errorf("pool build %s: schedules unavailable for both leagues", date)
	}

	b.enrich(ctx, athletes)
	athletes = b.trim(athletes)

	byLeague := make(map[models.League][]models.Athlete)
	for _, a := range athletes {
		byLeague[a.League] = append(byLeague[a.League], a)
	}
	for league, list := range byLeague {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Projected > list[j].Projected })
		assignTiers(list)
		byLeague[league] = list
	}

	b.log.Info("pool built",
		zap.String("date", date),
		zap.Int("games", len(games)),
		zap.Int("nba_players", len(byLeague[models.LeagueNBA])),
		zap.Int("nhl_players", len(byLeague[models.LeagueNHL])),
		zap.Duration("took", b.clock.Since(start)))

	return &Entry{Date: date, Players: byLeague, Games: games, BuiltAt: b.clock.Now()}, nil
}

// enrich fills season averages and projections in rate-limited parallel
// batches. Individual failures leave the athlete at zero projection.
func (b *Builder) enrich(ctx context.Context, athletes []models.Athlete) {
	for offset := 0; offset < len(athletes); offset += b.cfg.BatchSize {
		if offset > 0 && b.cfg.BatchDelay > 0 {
			b.clock.Sleep(b.cfg.BatchDelay)
		}
		end := offset + b.cfg.BatchSize
		if end > len(athletes) {
			end = len(athletes)
		}

		var g errgroup.Group
		for i := offset; i < end; i++ {
			i := i
			g.Go(func() error {
				a := &athletes[i]
				avg, err := b.provider.SeasonAverages(ctx, a.League, a.ID)
				if err != nil {
					b.log.Debug("season averages unavailable",
						zap.String("athlete_id", a.ID),
						zap.Error(err))
					return nil
				}
				a.Averages = avg
				a.Projected = scoring.Score(b.rules, avg)
				return nil
			})
		}
		_ = g.Wait()
	}
}

// trim keeps the top-N projections per (team, game) group.
func (b *Builder) trim(athletes []models.Athlete) []models.Athlete {
	groups := make(map[string][]models.Athlete)
	for _, a := range athletes {
		key := a.Team + "|" + a.GameID
		groups[key] = append(groups[key], a)
	}

	var kept []models.Athlete
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Projected > group[j].Projected })
		limit := b.cfg.TopPerTeam[group[0].League]
		if limit > 0 && len(group) > limit {
			group = group[:limit]
		}
		kept = append(kept, group...)
	}
	return kept
}

// assignTiers labels a projection-sorted league slice by percentile rank:
// top 10% S, next 20% A, next 30% B, remainder C.
func assignTiers(sorted []models.Athlete) {
	n := len(sorted)
	for i := range sorted {
		pct := float64(i) / float64(n)
		switch {
		case pct < 0.10:
			sorted[i].Tier = "S"
		case pct < 0.30:
			sorted[i].Tier = "A"
		case pct < 0.60:
			sorted[i].Tier = "B"
		default:
			sorted[i].Tier = "C"
		}
	}
}

func (e *Entry) snapshot() *Snapshot {
	snap := &Snapshot{
		Date:    e.Date,
		BuiltAt: e.BuiltAt,
		Games:   models.CloneGames(e.Games),
	}
	for _, list := range e.Players {
		for _, a := range list {
			snap.Players = append(snap.Players, a.Clone())
		}
	}
	sort.SliceStable(snap.Players, func(i, j int) bool {
		return snap.Players[i].Projected > snap.Players[j].Projected
	})
	return snap
}

// Sweep refreshes game states for every cached date and deletes entries
// whose games have all gone final. Run periodically by the server.
func (b *Builder) Sweep(ctx context.Context) {
	b.mu.Lock()
	dates := make([]string, 0, len(b.entries))
	for date := range b.entries {
		dates = append(dates, date)
	}
	b.mu.Unlock()

	for _, date := range dates {
		states := make(map[string]models.GameState)
		for _, league := range models.Leagues() {
			games, err := b.provider.Schedule(ctx, league, date)
			if err != nil {
				continue
			}
			for _, g := range games {
				states[g.ID] = g.State
			}
		}

		b.mu.Lock()
		entry := b.entries[date]
		if entry == nil {
			b.mu.Unlock()
			continue
		}
		done := true
		for _, g := range entry.Games {
			state, ok := states[g.ID]
			if !ok {
				state = g.State
			}
			if state != models.GameFinal {
				done = false
				break
			}
		}
		if done {
			delete(b.entries, date)
			b.log.Info("pool entry expired, all games final", zap.String("date", date))
		}
		b.mu.Unlock()
	}
}

// Diagnostics returns the per-date cache state for the observability
// endpoint, sorted by date.
func (b *Builder) Diagnostics() []Diag {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Diag, 0, len(b.entries)+len(b.building))
	for date, entry := range b.entries {
		counts := make(map[models.League]int, len(entry.Players))
		for league, list := range entry.Players {
			counts[league] = len(list)
		}
		out = append(out, Diag{
			Date:         date,
			BuiltAt:      entry.BuiltAt,
			GameCount:    len(entry.Games),
			PlayerCounts: counts,
		})
	}
	for date, active := range b.building {
		if active && b.entries[date] == nil {
			out = append(out, Diag{Date: date, InFlight: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
