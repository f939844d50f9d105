package models

// NBAStats is the per-game stat bag for an NBA player.
type NBAStats struct {
	Points   float64 `json:"pts"`
	Rebounds float64 `json:"reb"`
	Assists  float64 `json:"ast"`
	Steals   float64 `json:"stl"`
	Blocks   float64 `json:"blk"`
	Turnover float64 `json:"tov"`
}

// SkaterStats is the per-game stat bag for an NHL skater.
type SkaterStats struct {
	Goals   float64 `json:"goals"`
	Assists float64 `json:"assists"`
	Shots   float64 `json:"sog"`
	Hits    float64 `json:"hits"`
	Blocks  float64 `json:"blocks"`
}

// GoalieStats is the per-game stat bag for an NHL goalie.
type GoalieStats struct {
	Saves        float64 `json:"saves"`
	GoalsAgainst float64 `json:"goalsAgainst"`
	Win          bool    `json:"win"`
}

// StatLine is a tagged union over the three stat schemas. Exactly one of the
// pointer fields is non-nil, selected by League and Role.
type StatLine struct {
	League League       `json:"league"`
	Role   Role         `json:"role"`
	NBA    *NBAStats    `json:"nba,omitempty"`
	Skater *SkaterStats `json:"skater,omitempty"`
	Goalie *GoalieStats `json:"goalie,omitempty"`
}

// ZeroStatLine returns an empty stat line for the given league and role.
// Used when season-average enrichment fails and as the starting live line.
func ZeroStatLine(league League, role Role) StatLine {
	s := StatLine{League: league, Role: role}
	switch role {
	case RoleSkater:
		s.Skater = &SkaterStats{}
	case RoleGoalie:
		s.Goalie = &GoalieStats{}
	default:
		s.NBA = &NBAStats{}
	}
	return s
}

// Clone returns a copy that shares no memory with the receiver.
func (s StatLine) Clone() StatLine {
	out := StatLine{League: s.League, Role: s.Role}
	if s.NBA != nil {
		v := *s.NBA
		out.NBA = &v
	}
	if s.Skater != nil {
		v := *s.Skater
		out.Skater = &v
	}
	if s.Goalie != nil {
		v := *s.Goalie
		out.Goalie = &v
	}
	return out
}
