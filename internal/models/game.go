package models

import "time"

// GameState is the provider-reported lifecycle of a real-world game.
type GameState string

const (
	GameScheduled GameState = "scheduled"
	GameLive      GameState = "live"
	GameFinal     GameState = "final"
)

// Game is a normalized provider game for either league.
type Game struct {
	ID        string    `json:"id"`
	League    League    `json:"league"`
	HomeCode  string    `json:"homeCode"`
	HomeName  string    `json:"homeName"`
	AwayCode  string    `json:"awayCode"`
	AwayName  string    `json:"awayName"`
	StartTime time.Time `json:"startTime"`
	State     GameState `json:"state"`
	Status    string    `json:"status"` // human string, e.g. "7:00 PM ET", "End 3rd"
}

// Terminal reports whether the game can no longer produce new stats.
func (g Game) Terminal() bool { return g.State == GameFinal }

// CloneGames copies a game slice.
func CloneGames(games []Game) []Game {
	out := make([]Game, len(games))
	copy(out, games)
	return out
}
