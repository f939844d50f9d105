// Package provider talks to the external stats provider for both leagues and
// fronts it with short-TTL caches. Everything downstream treats provider
// failures as degradable: empty or stale data, never lobby-visible errors.
package provider

import (
	"context"

	"github.com/draftnight/draftnight-server/internal/models"
)

// GameLogEntry is one recent game's stat line for an athlete.
type GameLogEntry struct {
	GameID string          `json:"gameId"`
	Date   string          `json:"date"`
	Line   models.StatLine `json:"line"`
}

// Provider is the external data contract the engine consumes. Implementations
// must be safe for concurrent use.
type Provider interface {
	// Schedule returns the league's games on a YYYY-MM-DD date.
	Schedule(ctx context.Context, league models.League, date string) ([]models.Game, error)
	// Roster returns the athletes expected to appear in a game, without
	// season averages.
	Roster(ctx context.Context, game models.Game) ([]models.Athlete, error)
	// SeasonAverages returns the athlete's per-game averages for the season.
	SeasonAverages(ctx context.Context, league models.League, athleteID string) (models.StatLine, error)
	// LiveBoxScore returns current stat lines keyed by athlete ID. Athletes
	// who have not appeared yet may be absent.
	LiveBoxScore(ctx context.Context, game models.Game) (map[string]models.StatLine, error)
	// GameLog returns the athlete's most recent game lines, newest first.
	GameLog(ctx context.Context, league models.League, athleteID string) ([]GameLogEntry, error)
}
