package lobby

import (
	"time"

	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/scoring"
	"github.com/draftnight/draftnight-server/internal/types"
	"go.uber.org/zap"
)

// startLive begins the scoring loop: an immediate poll so clients see data
// right away, then a steady interval.
func (l *Lobby) startLive() {
	l.startPoll()
	l.schedulePolling(l.deps.PollInterval, false)
}

func (l *Lobby) schedulePolling(interval time.Duration, slow bool) {
	l.pollTask.Cancel()
	l.slowPolling = slow
	l.pollTask = l.deps.Sched.Every(interval, func() {
		select {
		case l.inbox <- pollTick{}:
		case <-l.ctx.Done():
		}
	})
}

// startPoll kicks off one stats fetch outside the loop. Results come back as
// a statsUpdate message; fetch failures degrade to whatever data arrives.
func (l *Lobby) startPoll() {
	if l.phase != PhaseLive {
		return
	}

	games := l.pickedGames()
	date := l.settings.Date
	leagues := append([]models.League(nil), l.settings.Leagues...)

	go func() {
		stats := make(map[string]models.StatLine)
		for _, g := range games {
			lines, err := l.deps.Provider.LiveBoxScore(l.ctx, g)
			if err != nil {
				l.deps.Log.Warn("box score fetch failed",
					zap.String("code", l.code),
					zap.String("game_id", g.ID),
					zap.Error(err))
				continue
			}
			for id, line := range lines {
				stats[id] = line
			}
		}

		// Game states ride the cheap cached schedule call so status strings
		// stay current without another box-score-priced request.
		states := make(map[string]models.Game)
		for _, league := range leagues {
			scheduled, err := l.deps.Provider.Schedule(l.ctx, league, date)
			if err != nil {
				continue
			}
			for _, g := range scheduled {
				states[g.ID] = g
			}
		}

		select {
		case l.inbox <- statsUpdate{stats: stats, games: states}:
		case <-l.ctx.Done():
		}
	}()
}

func (l *Lobby) applyStats(msg statsUpdate) {
	if l.phase != PhaseLive {
		return
	}

	for i, g := range l.games {
		if fresh, ok := msg.games[g.ID]; ok {
			l.games[i].State = fresh.State
			l.games[i].Status = fresh.Status
		}
	}

	for _, p := range l.players {
		total := 0.0
		for _, pick := range p.Roster {
			if line, ok := msg.stats[pick.Athlete.ID]; ok {
				pick.Live = line
			}
			pick.Score = scoring.Score(l.deps.Rules, pick.Live)
			total += pick.Score
		}
		p.Score = scoring.Round1(total)
	}

	if l.allPickedGamesFinal() {
		l.finishScoring()
		return
	}

	l.broadcast(types.ServerMessage{Type: types.EvtScoreUpdate, Data: types.ScoreUpdate{
		Phase:   string(l.phase),
		Players: l.playerViews(),
		Games:   models.CloneGames(l.games),
	}})
	l.adjustCadence()
}

// adjustCadence slows polling to the pre-game interval while nothing has
// started, and restores the normal one once any game is underway. Switching
// recreates the interval task instead of skipping ticks.
func (l *Lobby) adjustCadence() {
	started := false
	for _, g := range l.pickedGames() {
		if g.State != models.GameScheduled {
			started = true
			break
		}
	}
	switch {
	case !started && !l.slowPolling:
		l.deps.Log.Info("all games pre-game, slowing poll cadence", zap.String("code", l.code))
		l.schedulePolling(l.deps.SlowPollInterval, true)
	case started && l.slowPolling:
		l.deps.Log.Info("game underway, restoring poll cadence", zap.String("code", l.code))
		l.schedulePolling(l.deps.PollInterval, false)
	}
}

func (l *Lobby) finishScoring() {
	l.pollTask.Cancel()
	l.pollTask = nil
	l.phase = PhaseFinished
	l.touch()
	l.publishInfo()

	l.broadcast(types.ServerMessage{Type: types.EvtScoreUpdate, Data: types.ScoreUpdate{
		Phase:   string(l.phase),
		Players: l.playerViews(),
		Games:   models.CloneGames(l.games),
	}})
	l.deps.Log.Info("lobby finished, scoring stopped", zap.String("code", l.code))
}

// pickedGames returns the distinct games referenced by any drafted pick.
func (l *Lobby) pickedGames() []models.Game {
	byID := make(map[string]models.Game)
	for _, p := range l.players {
		for _, pick := range p.Roster {
			if _, ok := byID[pick.Athlete.GameID]; ok {
				continue
			}
			for _, g := range l.games {
				if g.ID == pick.Athlete.GameID {
					byID[g.ID] = g
					break
				}
			}
		}
	}
	out := make([]models.Game, 0, len(byID))
	for _, g := range byID {
		out = append(out, g)
	}
	return out
}

func (l *Lobby) allPickedGamesFinal() bool {
	games := l.pickedGames()
	if len(games) == 0 {
		return false
	}
	for _, g := range games {
		if !g.Terminal() {
			return false
		}
	}
	return true
}
