package lobby

import (
	"time"

	"github.com/draftnight/draftnight-server/internal/draft"
	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/pool"
	"github.com/draftnight/draftnight-server/internal/types"
	"go.uber.org/zap"
)

func (l *Lobby) handleUpdateSettings(msg UpdateSettings) {
	p := l.playerBySession(msg.SessionID)
	if p == nil || l.phase != PhaseWaiting || l.loading {
		return
	}
	if !p.Host {
		l.sendError(msg.SessionID, ErrNotHost)
		return
	}
	l.applySettingsPatch(msg.Patch)
	l.touch()
	l.broadcast(types.ServerMessage{Type: types.EvtRoomUpdated, Data: l.roomState()})
}

func (l *Lobby) handleStartDraft(msg StartDraft) {
	p := l.playerBySession(msg.SessionID)
	if p == nil {
		return
	}
	if l.phase != PhaseWaiting || l.loading {
		l.sendError(msg.SessionID, ErrDraftStarted)
		return
	}
	if !p.Host {
		l.sendError(msg.SessionID, ErrNotHost)
		return
	}

	l.applySettingsPatch(msg.Patch)
	if l.settings.RosterSize() == 0 {
		l.sendError(msg.SessionID, ErrNoRosterSlots)
		return
	}
	l.loading = true
	l.touch()
	l.broadcast(types.ServerMessage{Type: types.EvtDraftLoading})

	// Pool construction can take a while on a cold date; fetch off-loop and
	// post the result back in.
	go func(date, sessionID string) {
		snap, err := l.deps.Pools.Pool(l.ctx, date)
		select {
		case l.inbox <- poolReady{sessionID: sessionID, snap: snap, err: err}:
		case <-l.ctx.Done():
		}
	}(l.settings.Date, msg.SessionID)
}

func (l *Lobby) handlePoolReady(msg poolReady) {
	l.loading = false
	l.broadcast(types.ServerMessage{Type: types.EvtDraftLoadingDone})

	if msg.err != nil {
		l.deps.Log.Error("pool build failed, draft not started",
			zap.String("code", l.code),
			zap.String("date", l.settings.Date),
			zap.Error(msg.err))
		l.sendError(msg.sessionID, msg.err)
		return
	}
	if l.phase != PhaseWaiting {
		return
	}

	l.avail, l.games = l.filterToLeagues(msg.snap)
	l.order = draft.GenerateOrder(l.shuffledPlayerIDs(), l.settings.RosterSize(), l.settings.DraftType)
	l.current = 0
	l.phase = PhaseDrafting
	l.touch()
	l.publishInfo()

	// Payloads must not alias loop-owned slices: the writer goroutine
	// marshals them while later picks mutate l.avail and l.games in place.
	l.broadcast(types.ServerMessage{Type: types.EvtDraftStarted, Data: types.DraftStarted{
		Pool:    models.CloneAthletes(l.avail),
		Order:   append([]string(nil), l.order...),
		Games:   models.CloneGames(l.games),
		Current: l.order[0],
		TimeSec: l.settings.TimePerPickSec,
		Room:    l.roomState(),
	}})
	l.startPickTimer()
}

// filterToLeagues keeps only the pool slice relevant to this room's league
// selection; the shared snapshot always carries both leagues.
func (l *Lobby) filterToLeagues(snap *pool.Snapshot) ([]models.Athlete, []models.Game) {
	selected := make(map[models.League]bool, len(l.settings.Leagues))
	for _, league := range l.settings.Leagues {
		selected[league] = true
	}
	var athletes []models.Athlete
	for _, a := range snap.Players {
		if selected[a.League] {
			athletes = append(athletes, a)
		}
	}
	var games []models.Game
	for _, g := range snap.Games {
		if selected[g.League] {
			games = append(games, g)
		}
	}
	return athletes, games
}

func (l *Lobby) applySettingsPatch(patch *types.SettingsPatch) {
	if patch == nil {
		return
	}
	if patch.DraftType != nil {
		l.settings.DraftType = models.DraftType(*patch.DraftType)
	}
	if patch.TimePerPickSec != nil && *patch.TimePerPickSec > 0 {
		l.settings.TimePerPickSec = *patch.TimePerPickSec
	}
	if patch.Date != nil {
		l.settings.Date = *patch.Date
	}
	if len(patch.Leagues) > 0 {
		leagues := make([]models.League, 0, len(patch.Leagues))
		for _, s := range patch.Leagues {
			leagues = append(leagues, models.League(s))
		}
		l.settings.Leagues = leagues
	}
	for league, slots := range patch.SlotsPerLeague {
		if slots >= 0 {
			l.settings.SlotsPerLeague[models.League(league)] = slots
		}
	}
}

func (l *Lobby) handlePick(sessionID, athleteID string) {
	if l.phase != PhaseDrafting {
		l.sendError(sessionID, ErrNoDraft)
		return
	}
	p := l.playerBySession(sessionID)
	if p == nil {
		return
	}
	if l.order[l.current] != p.ID {
		l.sendError(sessionID, ErrNotYourTurn)
		return
	}

	idx := l.availIndex(athleteID)
	if idx < 0 {
		l.sendError(sessionID, ErrUnknownAthlete)
		return
	}
	athlete := l.avail[idx]
	if l.leagueCount(p, athlete.League) >= l.settings.SlotsPerLeague[athlete.League] {
		l.sendError(sessionID, ErrRosterSlotFull)
		return
	}

	l.applyPick(p, idx, false)
}

// handleTimeout fires when the per-pick timer expires. The pick index
// carried by the timer is the concurrency guard: if a manual pick already
// advanced the turn, the stale index makes this a no-op.
func (l *Lobby) handleTimeout(pickIndex int) {
	if l.phase != PhaseDrafting || pickIndex != l.current {
		return
	}
	p := l.playerByID(l.order[l.current])
	if p == nil {
		return
	}

	idx := l.autoPickIndex(p)
	if idx < 0 {
		// Pool exhausted with picks outstanding; end the draft early.
		l.completeDraft()
		return
	}
	l.deps.Log.Info("auto-pick",
		zap.String("code", l.code),
		zap.String("player", p.Name),
		zap.String("athlete", l.avail[idx].Name))
	l.applyPick(p, idx, true)
}

// autoPickIndex walks the pool in projection order and takes the first
// athlete whose league still has space on the drafter's roster. When nothing
// fits it falls back to the very first athlete, even if that overflows a
// league's slots.
func (l *Lobby) autoPickIndex(p *Player) int {
	if len(l.avail) == 0 {
		return -1
	}
	for i, a := range l.avail {
		if l.leagueCount(p, a.League) < l.settings.SlotsPerLeague[a.League] {
			return i
		}
	}
	return 0
}

func (l *Lobby) applyPick(p *Player, availIndex int, auto bool) {
	l.pickTimer.Cancel()
	l.pickTimer = nil

	athlete := l.avail[availIndex]
	l.avail = append(l.avail[:availIndex], l.avail[availIndex+1:]...)

	pick := models.NewPick(athlete)
	pick.Score = 0
	p.Roster = append(p.Roster, pick)
	l.current++
	l.touch()

	l.broadcast(types.ServerMessage{Type: types.EvtPickMade, Data: types.PickMade{
		Picker:   p.ID,
		Athlete:  athlete.Clone(),
		Auto:     auto,
		PoolLeft: len(l.avail),
		Players:  l.playerViews(),
	}})

	if l.current >= len(l.order) || len(l.avail) == 0 {
		l.completeDraft()
		return
	}

	l.broadcast(types.ServerMessage{Type: types.EvtNextTurn, Data: types.NextTurn{
		Current:      l.order[l.current],
		PickIndex:    l.current,
		RemainingSec: l.settings.TimePerPickSec,
	}})
	l.startPickTimer()
}

func (l *Lobby) startPickTimer() {
	l.pickStarted = l.deps.Sched.Clock().Now()
	pickIndex := l.current
	l.pickTimer = l.deps.Sched.After(time.Duration(l.settings.TimePerPickSec)*time.Second, func() {
		select {
		case l.inbox <- timerExpired{pickIndex: pickIndex}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) leagueCount(p *Player, league models.League) int {
	count := 0
	for _, pick := range p.Roster {
		if pick.Athlete.League == league {
			count++
		}
	}
	return count
}

func (l *Lobby) availIndex(athleteID string) int {
	for i, a := range l.avail {
		if a.ID == athleteID {
			return i
		}
	}
	return -1
}

func (l *Lobby) completeDraft() {
	l.pickTimer.Cancel()
	l.pickTimer = nil
	l.phase = PhaseLive
	l.touch()
	l.publishInfo()

	l.broadcast(types.ServerMessage{Type: types.EvtDraftComplete, Data: types.ScoreUpdate{
		Phase:   string(l.phase),
		Players: l.playerViews(),
		Games:   models.CloneGames(l.games),
	}})
	l.startLive()
}
