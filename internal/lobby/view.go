package lobby

import (
	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/types"
)

func (l *Lobby) playerViews() []types.PlayerView {
	views := make([]types.PlayerView, 0, len(l.players))
	for _, p := range l.players {
		roster := make([]models.Pick, 0, len(p.Roster))
		for _, pick := range p.Roster {
			roster = append(roster, pick.Clone())
		}
		views = append(views, types.PlayerView{
			ID:           p.ID,
			Name:         p.Name,
			Host:         p.Host,
			Disconnected: p.Disconnected,
			Score:        p.Score,
			Roster:       roster,
		})
	}
	return views
}

func (l *Lobby) roomState() types.RoomState {
	return types.RoomState{
		Code:       l.code,
		Phase:      string(l.phase),
		Public:     l.public,
		MaxPlayers: l.maxPlayers,
		Settings:   l.settings.Clone(),
		Players:    l.playerViews(),
	}
}

// rejoinState builds the phase-appropriate snapshot a reconnecting client
// needs to resume seamlessly.
func (l *Lobby) rejoinState(p *Player) types.RejoinState {
	state := types.RejoinState{
		Phase:    string(l.phase),
		Room:     l.roomState(),
		PlayerID: p.ID,
	}
	switch l.phase {
	case PhaseDrafting:
		state.Pool = models.CloneAthletes(l.avail)
		state.Order = append([]string(nil), l.order...)
		state.PickIndex = l.current
		state.Current = l.order[l.current]
		state.Games = models.CloneGames(l.games)
		// Remaining time reflects how long the current turn has actually
		// been running, not a fresh timer.
		elapsed := l.deps.Sched.Clock().Since(l.pickStarted)
		remaining := l.settings.TimePerPickSec - int(elapsed.Seconds())
		if remaining < 0 {
			remaining = 0
		}
		state.RemainingSec = remaining
	case PhaseLive, PhaseFinished:
		state.Games = models.CloneGames(l.games)
	}
	return state
}

// View is a test-only reflection of loop-owned state, fetched through the
// inbox so reads never race the loop.
type View struct {
	Phase       Phase
	NumClients  int
	Players     []types.PlayerView
	Order       []string
	Current     int
	AvailCount  int
	Games       []models.Game
	SlowPolling bool
}

func (l *Lobby) view() View {
	return View{
		Phase:       l.phase,
		NumClients:  len(l.clients),
		Players:     l.playerViews(),
		Order:       append([]string(nil), l.order...),
		Current:     l.current,
		AvailCount:  len(l.avail),
		Games:       models.CloneGames(l.games),
		SlowPolling: l.slowPolling,
	}
}
