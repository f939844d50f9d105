package models

// Settings are the host-controlled draft parameters for one lobby.
type Settings struct {
	DraftType      DraftType      `json:"draftType"`
	TimePerPickSec int            `json:"timePerPickSec"`
	Leagues        []League       `json:"leagues"`
	SlotsPerLeague map[League]int `json:"slotsPerLeague"`
	Date           string         `json:"date"` // pool date, YYYY-MM-DD
}

// DefaultSettings mirrors what a freshly created room starts with.
func DefaultSettings(date string) Settings {
	return Settings{
		DraftType:      DraftSnake,
		TimePerPickSec: 30,
		Leagues:        []League{LeagueNBA, LeagueNHL},
		SlotsPerLeague: map[League]int{LeagueNBA: 3, LeagueNHL: 2},
		Date:           date,
	}
}

// RosterSize is the total number of picks each player makes.
func (s Settings) RosterSize() int {
	total := 0
	for _, league := range s.Leagues {
		total += s.SlotsPerLeague[league]
	}
	return total
}

// Clone deep-copies the slot map so lobbies can tweak settings independently.
func (s Settings) Clone() Settings {
	out := s
	out.Leagues = append([]League(nil), s.Leagues...)
	out.SlotsPerLeague = make(map[League]int, len(s.SlotsPerLeague))
	for k, v := range s.SlotsPerLeague {
		out.SlotsPerLeague[k] = v
	}
	return out
}
