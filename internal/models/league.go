package models

// League identifies one of the two supported leagues.
type League string

const (
	LeagueNBA League = "nba"
	LeagueNHL League = "nhl"
)

// Role distinguishes stat schemas within a league. NBA has a single role;
// NHL splits skaters and goalies.
type Role string

const (
	RoleNBA    Role = "nba"
	RoleSkater Role = "skater"
	RoleGoalie Role = "goalie"
)

// ParseLeague validates a wire league string.
func ParseLeague(s string) (League, bool) {
	switch League(s) {
	case LeagueNBA, LeagueNHL:
		return League(s), true
	}
	return "", false
}

// Leagues lists every supported league in a stable order.
func Leagues() []League { return []League{LeagueNBA, LeagueNHL} }

// RoleForPosition maps a provider position string to the stat role used for
// scoring. Goalies are the only position with their own schema.
func RoleForPosition(league League, position string) Role {
	if league == LeagueNBA {
		return RoleNBA
	}
	if position == "G" {
		return RoleGoalie
	}
	return RoleSkater
}

type DraftType string

const (
	DraftSnake  DraftType = "snake"
	DraftLinear DraftType = "linear"
)
