// Package providertest provides a scripted in-memory Provider for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/provider"
)

// Fake is a Provider backed by fixture maps. Zero value is usable. All
// methods count their calls so tests can assert call volume.
type Fake struct {
	mu sync.Mutex

	Games     map[string][]models.Game              // league|date
	Rosters   map[string][]models.Athlete           // gameID
	Averages  map[string]models.StatLine            // athleteID
	BoxScores map[string]map[string]models.StatLine // gameID
	Logs      map[string][]provider.GameLogEntry    // athleteID

	// Errs maps a method name ("schedule", "roster", "averages", "boxscore",
	// "gamelog") to an error every call to it should return.
	Errs map[string]error

	Calls map[string]int
}

func (f *Fake) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[method]++
	return f.Errs[method]
}

// CallCount returns how many times a method has been invoked.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *Fake) Schedule(_ context.Context, league models.League, date string) ([]models.Game, error) {
	if err := f.record("schedule"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.CloneGames(f.Games[string(league)+"|"+date]), nil
}

func (f *Fake) Roster(_ context.Context, game models.Game) ([]models.Athlete, error) {
	if err := f.record("roster"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	roster := make([]models.Athlete, 0, len(f.Rosters[game.ID]))
	for _, a := range f.Rosters[game.ID] {
		roster = append(roster, a.Clone())
	}
	return roster, nil
}

func (f *Fake) SeasonAverages(_ context.Context, league models.League, athleteID string) (models.StatLine, error) {
	if err := f.record("averages"); err != nil {
		return models.StatLine{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if line, ok := f.Averages[athleteID]; ok {
		return line.Clone(), nil
	}
	return models.ZeroStatLine(league, models.RoleForPosition(league, "")), nil
}

func (f *Fake) LiveBoxScore(_ context.Context, game models.Game) (map[string]models.StatLine, error) {
	if err := f.record("boxscore"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.StatLine, len(f.BoxScores[game.ID]))
	for id, line := range f.BoxScores[game.ID] {
		out[id] = line.Clone()
	}
	return out, nil
}

func (f *Fake) GameLog(_ context.Context, _ models.League, athleteID string) ([]provider.GameLogEntry, error) {
	if err := f.record("gamelog"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]provider.GameLogEntry, 0, len(f.Logs[athleteID]))
	for _, e := range f.Logs[athleteID] {
		e.Line = e.Line.Clone()
		out = append(out, e)
	}
	return out, nil
}

// SetGames replaces the schedule fixture for a league and date.
func (f *Fake) SetGames(league models.League, date string, games []models.Game) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Games == nil {
		f.Games = make(map[string][]models.Game)
	}
	f.Games[string(league)+"|"+date] = models.CloneGames(games)
}
