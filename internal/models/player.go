package models

// Athlete is one draftable entry in a date's player pool: a real player in
// one of that date's games, enriched with season averages and a projection.
type Athlete struct {
	ID        string   `json:"id"`
	League    League   `json:"league"`
	Name      string   `json:"name"`
	Team      string   `json:"team"`
	Position  string   `json:"position"`
	GameID    string   `json:"gameId"`
	Averages  StatLine `json:"averages"`
	Projected float64  `json:"projected"`
	Tier      string   `json:"tier"`
}

// Clone returns a deep copy, including the nested stat bag.
func (a Athlete) Clone() Athlete {
	out := a
	out.Averages = a.Averages.Clone()
	return out
}

// CloneAthletes deep-copies a pool slice.
func CloneAthletes(athletes []Athlete) []Athlete {
	out := make([]Athlete, len(athletes))
	for i, a := range athletes {
		out[i] = a.Clone()
	}
	return out
}

// Pick is a drafted athlete owned by one lobby player. Live holds the
// current box-score line, overwritten on every scoring poll.
type Pick struct {
	Athlete Athlete  `json:"athlete"`
	Live    StatLine `json:"live"`
	Score   float64  `json:"score"`
}

// NewPick converts a pool athlete into a roster pick with a zeroed live line.
func NewPick(a Athlete) *Pick {
	role := RoleForPosition(a.League, a.Position)
	return &Pick{Athlete: a.Clone(), Live: ZeroStatLine(a.League, role)}
}

// Clone returns a deep copy with no shared stat bags.
func (p Pick) Clone() Pick {
	out := p
	out.Athlete = p.Athlete.Clone()
	out.Live = p.Live.Clone()
	return out
}
