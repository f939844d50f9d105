package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/pool"
	"github.com/draftnight/draftnight-server/internal/provider/providertest"
	"github.com/draftnight/draftnight-server/internal/sched"
	"github.com/draftnight/draftnight-server/internal/scoring"
	"github.com/draftnight/draftnight-server/internal/types"
)

const testDate = "2030-03-14"

// helpers: receive with a timeout so a wedged lobby fails fast instead of
// hanging the suite.

func waitEvt(t *testing.T, ch <-chan types.ServerMessage, evt string) types.ServerMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-ch:
			if msg.Type == evt {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", evt)
			return types.ServerMessage{}
		}
	}
}

func getView(t *testing.T, l *Lobby) View {
	t.Helper()
	reply := make(chan View, 1)
	l.Inbox() <- GetView{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for view")
		return View{}
	}
}

func waitNoTasks(t *testing.T, s *sched.Scheduler) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Outstanding() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("scheduler still has %d outstanding tasks", s.Outstanding())
}

func nbaLine(points float64) models.StatLine {
	return models.StatLine{
		League: models.LeagueNBA,
		Role:   models.RoleNBA,
		NBA:    &models.NBAStats{Points: points},
	}
}

func skaterLine(goals float64) models.StatLine {
	return models.StatLine{
		League: models.LeagueNHL,
		Role:   models.RoleSkater,
		Skater: &models.SkaterStats{Goals: goals},
	}
}

// nbaFake scripts one scheduled NBA game with six athletes whose projections
// descend a1 > a2 > ... > a6.
func nbaFake() *providertest.Fake {
	f := &providertest.Fake{
		Rosters:   map[string][]models.Athlete{"g1": nil},
		Averages:  map[string]models.StatLine{},
		BoxScores: map[string]map[string]models.StatLine{"g1": {}},
	}
	f.SetGames(models.LeagueNBA, testDate, []models.Game{{
		ID: "g1", League: models.LeagueNBA,
		HomeCode: "BOS", AwayCode: "NYK",
		State: models.GameScheduled, Status: "7:00 PM ET",
	}})
	teams := []string{"BOS", "NYK"}
	ids := []string{"a1", "a2", "a3", "a4", "a5", "a6"}
	for i, id := range ids {
		f.Rosters["g1"] = append(f.Rosters["g1"], models.Athlete{
			ID: id, League: models.LeagueNBA, Name: "Player " + id,
			Team: teams[i%2], Position: "F", GameID: "g1",
		})
		f.Averages[id] = nbaLine(float64(30 - 5*i))
		f.BoxScores["g1"][id] = nbaLine(float64(20 - 2*i))
	}
	return f
}

func nbaSettings(slots int) models.Settings {
	return models.Settings{
		DraftType:      models.DraftSnake,
		TimePerPickSec: 30,
		Leagues:        []models.League{models.LeagueNBA},
		SlotsPerLeague: map[models.League]int{models.LeagueNBA: slots},
		Date:           testDate,
	}
}

type env struct {
	clock    *clockwork.FakeClock
	sched    *sched.Scheduler
	fake     *providertest.Fake
	lobby    *Lobby
	hostOut  chan types.ServerMessage
	sessions map[string]string // public player id -> session id
}

const hostSession = "sess-host"

func newTestLobby(t *testing.T, f *providertest.Fake, settings models.Settings, hooks ...func(*Deps)) *env {
	t.Helper()
	clock := clockwork.NewFakeClock()
	scheduler := sched.New(clock)
	log := zaptest.NewLogger(t)
	deps := Deps{
		Log:              log,
		Sched:            scheduler,
		Pools:            pool.New(f, scoring.DefaultRules(), clock, log, pool.Config{BatchSize: 4}),
		Provider:         f,
		Rules:            scoring.DefaultRules(),
		PollInterval:     30 * time.Second,
		SlowPollInterval: 5 * time.Minute,
	}
	for _, h := range hooks {
		h(&deps)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hostOut := make(chan types.ServerMessage, 64)
	l := New(ctx, "ROOM01", false, 4, settings, Host{
		SessionID: hostSession, Name: "Ana", Outbox: hostOut,
	}, deps)
	return &env{
		clock: clock, sched: scheduler, fake: f, lobby: l, hostOut: hostOut,
		sessions: map[string]string{l.HostPlayerID(): hostSession},
	}
}

func (e *env) join(t *testing.T, session, name string) (string, chan types.ServerMessage) {
	t.Helper()
	out := make(chan types.ServerMessage, 64)
	reply := make(chan JoinResult, 1)
	e.lobby.Inbox() <- Join{SessionID: session, Name: name, Outbox: out, Reply: reply}
	select {
	case res := <-reply:
		require.NoError(t, res.Err)
		e.sessions[res.PlayerID] = session
		return res.PlayerID, out
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out joining as %s", name)
		return "", nil
	}
}

func (e *env) startDraft(t *testing.T) types.DraftStarted {
	t.Helper()
	e.lobby.Inbox() <- StartDraft{SessionID: hostSession}
	msg := waitEvt(t, e.hostOut, types.EvtDraftStarted)
	return msg.Data.(types.DraftStarted)
}

func TestDraftFullFlowIntoLiveScoring(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	_, joinOut := e.join(t, "sess-b", "Ben")

	started := e.startDraft(t)
	require.Len(t, started.Order, 4, "2 players x 2 slots")
	require.Len(t, started.Pool, 6)
	assert.Equal(t, started.Order[0], started.Current)
	// Snake: the second round mirrors the first.
	assert.Equal(t, started.Order[0], started.Order[3])
	assert.Equal(t, started.Order[1], started.Order[2])
	waitEvt(t, joinOut, types.EvtDraftStarted)

	// Each picker takes the best remaining athlete; a1..a6 are projection
	// sorted so pick i is athlete i.
	for i, playerID := range started.Order {
		e.lobby.Inbox() <- PickAthlete{SessionID: e.sessions[playerID], AthleteID: started.Pool[i].ID}
		made := waitEvt(t, e.hostOut, types.EvtPickMade).Data.(types.PickMade)
		assert.Equal(t, playerID, made.Picker)
		assert.Equal(t, started.Pool[i].ID, made.Athlete.ID)
		assert.False(t, made.Auto)
	}

	waitEvt(t, e.hostOut, types.EvtDraftComplete)

	// The completion poll runs immediately and lands box scores on every pick.
	update := waitEvt(t, e.hostOut, types.EvtScoreUpdate).Data.(types.ScoreUpdate)
	assert.Equal(t, string(PhaseLive), update.Phase)
	rules := scoring.DefaultRules()
	for _, p := range update.Players {
		require.Len(t, p.Roster, 2)
		total := 0.0
		for _, pick := range p.Roster {
			want := scoring.Score(rules, e.fake.BoxScores["g1"][pick.Athlete.ID])
			assert.Equal(t, want, pick.Score, "pick %s", pick.Athlete.ID)
			total += pick.Score
		}
		assert.Equal(t, scoring.Round1(total), p.Score)
	}

	// Nothing has tipped off, so polling drops to the pre-game cadence.
	assert.True(t, getView(t, e.lobby).SlowPolling)
}

func TestEmittedPayloadsAreStableAfterLaterPicks(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	e.join(t, "sess-b", "Ben")

	started := e.startDraft(t)
	wantPool := make([]string, len(started.Pool))
	for i, a := range started.Pool {
		wantPool[i] = a.ID
	}

	e.lobby.Inbox() <- PickAthlete{SessionID: e.sessions[started.Order[0]], AthleteID: "a1"}
	waitEvt(t, e.hostOut, types.EvtPickMade)

	// The delivered payload is a snapshot; the pick that shifted the live
	// pool must not reach through it.
	for i, a := range started.Pool {
		assert.Equal(t, wantPool[i], a.ID)
	}
}

func TestRoomStatePayloadDoesNotTrackSettingsEdits(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	_, joinOut := e.join(t, "sess-b", "Ben")
	first := waitEvt(t, joinOut, types.EvtRoomUpdated).Data.(types.RoomState)
	require.Equal(t, 2, first.Settings.SlotsPerLeague[models.LeagueNBA])

	e.lobby.Inbox() <- UpdateSettings{SessionID: hostSession, Patch: &types.SettingsPatch{
		SlotsPerLeague: map[string]int{string(models.LeagueNBA): 1},
	}}
	updated := waitEvt(t, joinOut, types.EvtRoomUpdated).Data.(types.RoomState)
	assert.Equal(t, 1, updated.Settings.SlotsPerLeague[models.LeagueNBA])
	assert.Equal(t, 2, first.Settings.SlotsPerLeague[models.LeagueNBA],
		"the earlier payload keeps its snapshot")
}

func TestTimeoutAutoPicksBestAvailable(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	e.join(t, "sess-b", "Ben")

	started := e.startDraft(t)
	getView(t, e.lobby) // round-trip: the pick timer is armed

	e.clock.Advance(31 * time.Second)
	made := waitEvt(t, e.hostOut, types.EvtPickMade).Data.(types.PickMade)
	assert.True(t, made.Auto)
	assert.Equal(t, started.Order[0], made.Picker)
	assert.Equal(t, "a1", made.Athlete.ID, "auto-pick takes the top projection")

	next := waitEvt(t, e.hostOut, types.EvtNextTurn).Data.(types.NextTurn)
	assert.Equal(t, 1, next.PickIndex)
	assert.Equal(t, started.Order[1], next.Current)
}

func TestTimeoutAutoPickRespectsLeagueSlots(t *testing.T) {
	f := nbaFake()
	f.SetGames(models.LeagueNHL, testDate, []models.Game{{
		ID: "g2", League: models.LeagueNHL,
		HomeCode: "TOR", AwayCode: "MTL",
		State: models.GameScheduled,
	}})
	f.Rosters["g2"] = []models.Athlete{{
		ID: "n1", League: models.LeagueNHL, Name: "Player n1",
		Team: "TOR", Position: "C", GameID: "g2",
	}}
	f.Averages["n1"] = skaterLine(2)

	settings := models.Settings{
		DraftType:      models.DraftSnake,
		TimePerPickSec: 30,
		Leagues:        []models.League{models.LeagueNBA, models.LeagueNHL},
		SlotsPerLeague: map[models.League]int{models.LeagueNBA: 1, models.LeagueNHL: 1},
		Date:           testDate,
	}
	e := newTestLobby(t, f, settings)

	e.startDraft(t)
	getView(t, e.lobby)

	e.clock.Advance(31 * time.Second)
	first := waitEvt(t, e.hostOut, types.EvtPickMade).Data.(types.PickMade)
	assert.Equal(t, "a1", first.Athlete.ID)

	getView(t, e.lobby)
	e.clock.Advance(31 * time.Second)
	second := waitEvt(t, e.hostOut, types.EvtPickMade).Data.(types.PickMade)
	assert.Equal(t, "n1", second.Athlete.ID,
		"NBA slot is full, so auto-pick skips better NBA projections")
}

func TestTimeoutAutoPickOverflowsWhenNothingFits(t *testing.T) {
	// Settings reserve an NHL slot, but the night's pool is NBA only.
	settings := models.Settings{
		DraftType:      models.DraftSnake,
		TimePerPickSec: 30,
		Leagues:        []models.League{models.LeagueNBA, models.LeagueNHL},
		SlotsPerLeague: map[models.League]int{models.LeagueNBA: 1, models.LeagueNHL: 1},
		Date:           testDate,
	}
	e := newTestLobby(t, nbaFake(), settings)

	e.startDraft(t)
	getView(t, e.lobby)
	e.clock.Advance(31 * time.Second)
	first := waitEvt(t, e.hostOut, types.EvtPickMade).Data.(types.PickMade)
	assert.Equal(t, "a1", first.Athlete.ID)

	// NBA is full and nothing can fill the NHL slot, so the fallback drafts
	// the top of the pool past the cap instead of stalling the turn.
	getView(t, e.lobby)
	e.clock.Advance(31 * time.Second)
	second := waitEvt(t, e.hostOut, types.EvtPickMade).Data.(types.PickMade)
	assert.True(t, second.Auto)
	assert.Equal(t, "a2", second.Athlete.ID)

	waitEvt(t, e.hostOut, types.EvtDraftComplete)
	assert.Equal(t, PhaseLive, getView(t, e.lobby).Phase)
}

func TestStartDraftRejectedWhenNoRosterSlots(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))

	e.lobby.Inbox() <- UpdateSettings{SessionID: hostSession, Patch: &types.SettingsPatch{
		SlotsPerLeague: map[string]int{string(models.LeagueNBA): 0},
	}}
	waitEvt(t, e.hostOut, types.EvtRoomUpdated)

	e.lobby.Inbox() <- StartDraft{SessionID: hostSession}
	errMsg := waitEvt(t, e.hostOut, types.EvtError)
	assert.Equal(t, ErrNoRosterSlots.Error(), errMsg.Error)
	assert.Equal(t, PhaseWaiting, getView(t, e.lobby).Phase)

	// Restoring a slot makes the room startable again.
	e.lobby.Inbox() <- UpdateSettings{SessionID: hostSession, Patch: &types.SettingsPatch{
		SlotsPerLeague: map[string]int{string(models.LeagueNBA): 1},
	}}
	e.startDraft(t)
	assert.Equal(t, PhaseDrafting, getView(t, e.lobby).Phase)
}

func TestStaleTimerFireIsIgnored(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	e.join(t, "sess-b", "Ben")

	started := e.startDraft(t)
	e.lobby.Inbox() <- PickAthlete{SessionID: e.sessions[started.Order[0]], AthleteID: "a3"}
	waitEvt(t, e.hostOut, types.EvtPickMade)

	// A fire armed for pick 0 arriving after the manual pick must not
	// advance the turn again.
	e.lobby.Inbox() <- timerExpired{pickIndex: 0}
	view := getView(t, e.lobby)
	assert.Equal(t, 1, view.Current)
	assert.Equal(t, 5, view.AvailCount)
}

func TestPickValidation(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	_, joinOut := e.join(t, "sess-b", "Ben")

	started := e.startDraft(t)
	waitEvt(t, joinOut, types.EvtDraftStarted)

	turnSession := e.sessions[started.Order[0]]
	var offSession string
	var offOut chan types.ServerMessage
	if turnSession == hostSession {
		offSession, offOut = "sess-b", joinOut
	} else {
		offSession, offOut = hostSession, e.hostOut
	}

	e.lobby.Inbox() <- PickAthlete{SessionID: offSession, AthleteID: "a1"}
	errMsg := waitEvt(t, offOut, types.EvtError)
	assert.Equal(t, ErrNotYourTurn.Error(), errMsg.Error)

	turnOut := e.hostOut
	if turnSession != hostSession {
		turnOut = joinOut
	}
	e.lobby.Inbox() <- PickAthlete{SessionID: turnSession, AthleteID: "nope"}
	errMsg = waitEvt(t, turnOut, types.EvtError)
	assert.Equal(t, ErrUnknownAthlete.Error(), errMsg.Error)

	view := getView(t, e.lobby)
	assert.Equal(t, 0, view.Current, "rejected picks do not advance the turn")
}

func TestPoolExhaustionEndsDraftEarly(t *testing.T) {
	f := nbaFake()
	f.Rosters["g1"] = f.Rosters["g1"][:1] // a single draftable athlete
	e := newTestLobby(t, f, nbaSettings(3))

	started := e.startDraft(t)
	require.Len(t, started.Order, 3)
	require.Len(t, started.Pool, 1)

	e.lobby.Inbox() <- PickAthlete{SessionID: hostSession, AthleteID: "a1"}
	waitEvt(t, e.hostOut, types.EvtPickMade)
	waitEvt(t, e.hostOut, types.EvtDraftComplete)
	assert.Equal(t, PhaseLive, getView(t, e.lobby).Phase)
}

func TestFinalGamesFinishScoring(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(1))

	e.startDraft(t)
	e.lobby.Inbox() <- PickAthlete{SessionID: hostSession, AthleteID: "a1"}
	waitEvt(t, e.hostOut, types.EvtDraftComplete)

	live := waitEvt(t, e.hostOut, types.EvtScoreUpdate).Data.(types.ScoreUpdate)
	require.Equal(t, string(PhaseLive), live.Phase)
	getView(t, e.lobby) // cadence settled before we advance the clock

	e.fake.SetGames(models.LeagueNBA, testDate, []models.Game{{
		ID: "g1", League: models.LeagueNBA,
		HomeCode: "BOS", AwayCode: "NYK",
		State: models.GameFinal, Status: "Final",
	}})
	e.clock.Advance(6 * time.Minute)

	final := waitEvt(t, e.hostOut, types.EvtScoreUpdate).Data.(types.ScoreUpdate)
	assert.Equal(t, string(PhaseFinished), final.Phase)
	require.Len(t, final.Games, 1)
	assert.Equal(t, models.GameFinal, final.Games[0].State)
	require.Len(t, live.Games, 1)
	assert.Equal(t, models.GameScheduled, live.Games[0].State,
		"the live update keeps the state it was emitted with")

	assert.Equal(t, PhaseFinished, getView(t, e.lobby).Phase)
	waitNoTasks(t, e.sched)
}

func TestRejoinMidDraftCarriesRemainingTime(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	joinID, _ := e.join(t, "sess-b", "Ben")

	started := e.startDraft(t)
	getView(t, e.lobby)
	e.clock.Advance(10 * time.Second)

	e.lobby.Inbox() <- Disconnect{SessionID: "sess-b"}
	waitEvt(t, e.hostOut, types.EvtPlayerDisconnected)

	fresh := make(chan types.ServerMessage, 64)
	reply := make(chan error, 1)
	e.lobby.Inbox() <- Rejoin{SessionID: "sess-b", Outbox: fresh, Reply: reply}
	require.NoError(t, <-reply)

	state := waitEvt(t, fresh, types.EvtRejoinState).Data.(types.RejoinState)
	assert.Equal(t, string(PhaseDrafting), state.Phase)
	assert.Equal(t, joinID, state.PlayerID)
	assert.Equal(t, started.Order, state.Order)
	assert.Len(t, state.Pool, 6)
	assert.Equal(t, 20, state.RemainingSec)

	waitEvt(t, e.hostOut, types.EvtPlayerReconnected)
}

func TestHostOnlyControls(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	_, joinOut := e.join(t, "sess-b", "Ben")
	waitEvt(t, joinOut, types.EvtRoomUpdated) // drain the join broadcast

	e.lobby.Inbox() <- StartDraft{SessionID: "sess-b"}
	errMsg := waitEvt(t, joinOut, types.EvtError)
	assert.Equal(t, ErrNotHost.Error(), errMsg.Error)

	e.lobby.Inbox() <- UpdateSettings{SessionID: "sess-b", Patch: &types.SettingsPatch{}}
	errMsg = waitEvt(t, joinOut, types.EvtError)
	assert.Equal(t, ErrNotHost.Error(), errMsg.Error)

	secs := 10
	e.lobby.Inbox() <- UpdateSettings{SessionID: hostSession, Patch: &types.SettingsPatch{TimePerPickSec: &secs}}
	updated := waitEvt(t, joinOut, types.EvtRoomUpdated).Data.(types.RoomState)
	assert.Equal(t, 10, updated.Settings.TimePerPickSec)
}

func TestJoinRejections(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	e.join(t, "sess-b", "Ben")
	e.join(t, "sess-c", "Cam")
	e.join(t, "sess-d", "Dee")

	// Room is at its 4-player cap now.
	reply := make(chan JoinResult, 1)
	e.lobby.Inbox() <- Join{SessionID: "sess-e", Name: "Eva", Outbox: make(chan types.ServerMessage, 4), Reply: reply}
	require.ErrorIs(t, (<-reply).Err, ErrRoomFull)

	e.startDraft(t)
	reply = make(chan JoinResult, 1)
	e.lobby.Inbox() <- Join{SessionID: "sess-f", Name: "Fay", Outbox: make(chan types.ServerMessage, 4), Reply: reply}
	require.ErrorIs(t, (<-reply).Err, ErrDraftStarted)
}

func TestLeaveWhileWaitingHandsOffHost(t *testing.T) {
	left := make(chan string, 1)
	e := newTestLobby(t, nbaFake(), nbaSettings(2), func(d *Deps) {
		d.OnLeft = func(sessionID string) { left <- sessionID }
	})
	joinID, joinOut := e.join(t, "sess-b", "Ben")
	waitEvt(t, joinOut, types.EvtRoomUpdated) // drain the join broadcast

	e.lobby.Inbox() <- Leave{SessionID: hostSession}
	updated := waitEvt(t, joinOut, types.EvtRoomUpdated).Data.(types.RoomState)
	require.Len(t, updated.Players, 1)
	assert.Equal(t, joinID, updated.Players[0].ID)
	assert.True(t, updated.Players[0].Host, "host role hands off to the next player")

	select {
	case id := <-left:
		assert.Equal(t, hostSession, id)
	case <-time.After(2 * time.Second):
		t.Fatal("OnLeft never fired")
	}
}

func TestShutdownCancelsTimersAndNotifies(t *testing.T) {
	closed := make(chan []string, 1)
	e := newTestLobby(t, nbaFake(), nbaSettings(2), func(d *Deps) {
		d.OnClosed = func(_ string, sessionIDs []string) { closed <- sessionIDs }
	})
	e.join(t, "sess-b", "Ben")
	e.startDraft(t) // arms a pick timer

	e.lobby.Inbox() <- Shutdown{}
	waitEvt(t, e.hostOut, types.EvtRoomClosed)

	select {
	case sessions := <-closed:
		assert.ElementsMatch(t, []string{hostSession, "sess-b"}, sessions)
	case <-time.After(2 * time.Second):
		t.Fatal("OnClosed never fired")
	}
	waitNoTasks(t, e.sched)

	// Stragglers still get an answer instead of blocking forever.
	reply := make(chan JoinResult, 1)
	e.lobby.Inbox() <- Join{SessionID: "sess-z", Name: "Zoe", Outbox: make(chan types.ServerMessage, 4), Reply: reply}
	select {
	case res := <-reply:
		require.ErrorIs(t, res.Err, ErrLobbyClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("post-teardown join never answered")
	}
}

func TestIdleAbandonedRoomTearsDown(t *testing.T) {
	closed := make(chan string, 1)
	e := newTestLobby(t, nbaFake(), nbaSettings(2), func(d *Deps) {
		d.OnClosed = func(code string, _ []string) { closed <- code }
	})
	e.join(t, "sess-b", "Ben")

	e.lobby.Inbox() <- Disconnect{SessionID: hostSession}
	e.lobby.Inbox() <- Disconnect{SessionID: "sess-b"}
	getView(t, e.lobby)
	e.clock.Advance(31 * time.Minute)

	e.lobby.Inbox() <- CheckIdle{IdleAfter: 30 * time.Minute}
	select {
	case code := <-closed:
		assert.Equal(t, "ROOM01", code)
	case <-time.After(2 * time.Second):
		t.Fatal("idle room never tore down")
	}
	waitNoTasks(t, e.sched)
}

func TestChatBroadcasts(t *testing.T) {
	e := newTestLobby(t, nbaFake(), nbaSettings(2))
	_, joinOut := e.join(t, "sess-b", "Ben")

	e.lobby.Inbox() <- Chat{SessionID: hostSession, Text: "glhf"}
	msg := waitEvt(t, joinOut, types.EvtChat).Data.(types.ChatBroadcast)
	assert.Equal(t, "Ana", msg.From)
	assert.Equal(t, "glhf", msg.Text)
}
