// Package scoring converts raw stat lines into fantasy points. It is pure:
// the same stat line always scores the same, whether it holds season
// averages (projections) or live box-score numbers.
package scoring

import (
	"math"

	"github.com/draftnight/draftnight-server/internal/models"
)

// Rules is the full coefficient and bonus table, exported so the HTTP layer
// can serve it to clients verbatim.
type Rules struct {
	NBA struct {
		Points   float64 `json:"pts"`
		Rebounds float64 `json:"reb"`
		Assists  float64 `json:"ast"`
		Steals   float64 `json:"stl"`
		Blocks   float64 `json:"blk"`
		Turnover float64 `json:"tov"`

		DoubleDoubleBonus float64 `json:"doubleDoubleBonus"`
		TripleDoubleBonus float64 `json:"tripleDoubleBonus"`
	} `json:"nba"`
	Skater struct {
		Goals   float64 `json:"goals"`
		Assists float64 `json:"assists"`
		Shots   float64 `json:"sog"`
		Hits    float64 `json:"hits"`
		Blocks  float64 `json:"blocks"`
	} `json:"skater"`
	Goalie struct {
		Saves        float64 `json:"saves"`
		GoalsAgainst float64 `json:"goalsAgainst"`
		Win          float64 `json:"win"`

		SaveBonusThreshold float64 `json:"saveBonusThreshold"`
		SaveBonus          float64 `json:"saveBonus"`
	} `json:"goalie"`
}

// DefaultRules returns the fixed production coefficient table.
func DefaultRules() Rules {
	var r Rules
	r.NBA.Points = 1.0
	r.NBA.Rebounds = 1.2
	r.NBA.Assists = 1.5
	r.NBA.Steals = 3.0
	r.NBA.Blocks = 3.0
	r.NBA.Turnover = -1.0
	r.NBA.DoubleDoubleBonus = 1.5
	r.NBA.TripleDoubleBonus = 3.0

	r.Skater.Goals = 8.0
	r.Skater.Assists = 5.0
	r.Skater.Shots = 1.5
	r.Skater.Hits = 1.0
	r.Skater.Blocks = 1.3

	r.Goalie.Saves = 0.7
	r.Goalie.GoalsAgainst = -3.0
	r.Goalie.Win = 4.0
	r.Goalie.SaveBonusThreshold = 35
	r.Goalie.SaveBonus = 3.0
	return r
}

// Score computes fantasy points for a stat line under the given rules,
// rounded to one decimal.
func Score(r Rules, s models.StatLine) float64 {
	var total float64
	switch {
	case s.NBA != nil:
		n := s.NBA
		total = n.Points*r.NBA.Points +
			n.Rebounds*r.NBA.Rebounds +
			n.Assists*r.NBA.Assists +
			n.Steals*r.NBA.Steals +
			n.Blocks*r.NBA.Blocks +
			n.Turnover*r.NBA.Turnover
		// Double-double pays once; a triple-double pays again on top.
		switch doubleDigitCategories(n) {
		case 0, 1:
		case 2:
			total += r.NBA.DoubleDoubleBonus
		default:
			total += r.NBA.DoubleDoubleBonus + r.NBA.TripleDoubleBonus
		}
	case s.Skater != nil:
		k := s.Skater
		total = k.Goals*r.Skater.Goals +
			k.Assists*r.Skater.Assists +
			k.Shots*r.Skater.Shots +
			k.Hits*r.Skater.Hits +
			k.Blocks*r.Skater.Blocks
	case s.Goalie != nil:
		g := s.Goalie
		total = g.Saves*r.Goalie.Saves + g.GoalsAgainst*r.Goalie.GoalsAgainst
		if g.Win {
			total += r.Goalie.Win
		}
		if g.Saves >= r.Goalie.SaveBonusThreshold {
			total += r.Goalie.SaveBonus
		}
	}
	return Round1(total)
}

func doubleDigitCategories(n *models.NBAStats) int {
	count := 0
	for _, v := range []float64{n.Points, n.Rebounds, n.Assists, n.Steals, n.Blocks} {
		if v >= 10 {
			count++
		}
	}
	return count
}

// Round1 rounds to one decimal place, the precision every score in the
// system is reported at.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
