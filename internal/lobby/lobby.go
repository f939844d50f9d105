// Package lobby owns one room's full lifecycle: waiting -> drafting -> live
// -> finished. A single goroutine drains the inbox, so every mutation of
// lobby state is serialized; timers and provider fetches run outside the
// loop and post their results back in as messages.
package lobby

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/pool"
	"github.com/draftnight/draftnight-server/internal/provider"
	"github.com/draftnight/draftnight-server/internal/sched"
	"github.com/draftnight/draftnight-server/internal/scoring"
	"github.com/draftnight/draftnight-server/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseDrafting Phase = "drafting"
	PhaseLive     Phase = "live"
	PhaseFinished Phase = "finished"
)

var (
	ErrRoomFull       = errors.New("room is full")
	ErrDraftStarted   = errors.New("draft already started")
	ErrNoDraft        = errors.New("no draft in progress")
	ErrNotHost        = errors.New("only the host can start the draft")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrUnknownAthlete = errors.New("athlete not in pool")
	ErrRosterSlotFull = errors.New("no roster slots left for that league")
	ErrNoRosterSlots  = errors.New("settings leave no roster slots to draft")
	ErrPlayerGone     = errors.New("player no longer in lobby")
	ErrLobbyClosed    = errors.New("lobby closed")
)

type Msg interface{ isLobbyMsg() }

type Join struct {
	SessionID string
	Name      string
	Outbox    chan types.ServerMessage
	Reply     chan JoinResult
}

// JoinResult carries the seated player's public id back to the hub.
type JoinResult struct {
	PlayerID string
	Err      error
}

type Rejoin struct {
	SessionID string
	Outbox    chan types.ServerMessage
	Reply     chan error
}

// Leave is an explicit leave-room action. In the waiting phase it removes
// the player entirely; later phases treat it like a disconnect so the seat
// survives for a rejoin.
type Leave struct{ SessionID string }

// Disconnect is a transport-level drop.
type Disconnect struct{ SessionID string }

type StartDraft struct {
	SessionID string
	Patch     *types.SettingsPatch
}

// UpdateSettings lets the host adjust settings while the room is waiting.
type UpdateSettings struct {
	SessionID string
	Patch     *types.SettingsPatch
}

type PickAthlete struct {
	SessionID string
	AthleteID string
}

type Chat struct {
	SessionID string
	Text      string
}

// CheckIdle asks the lobby to tear itself down if it has been abandoned.
type CheckIdle struct{ IdleAfter time.Duration }

type GetView struct{ Reply chan View }

type Shutdown struct{}

// internal messages

type timerExpired struct{ pickIndex int }

type poolReady struct {
	sessionID string // who asked for the draft to start
	snap      *pool.Snapshot
	err       error
}

type pollTick struct{}

type statsUpdate struct {
	stats map[string]models.StatLine
	games map[string]models.Game
}

func (Join) isLobbyMsg()           {}
func (Rejoin) isLobbyMsg()         {}
func (Leave) isLobbyMsg()          {}
func (Disconnect) isLobbyMsg()     {}
func (StartDraft) isLobbyMsg()     {}
func (UpdateSettings) isLobbyMsg() {}
func (PickAthlete) isLobbyMsg()    {}
func (Chat) isLobbyMsg()           {}
func (CheckIdle) isLobbyMsg()      {}
func (GetView) isLobbyMsg()        {}
func (Shutdown) isLobbyMsg()       {}
func (timerExpired) isLobbyMsg()   {}
func (poolReady) isLobbyMsg()      {}
func (pollTick) isLobbyMsg()       {}
func (statsUpdate) isLobbyMsg()    {}

// Player is one seat in the room.
type Player struct {
	ID           string // public id, safe to broadcast
	SessionID    string // rejoin credential, never broadcast
	Name         string
	Host         bool
	Disconnected bool
	Roster       []*models.Pick
	Score        float64
}

// Deps are the collaborators a lobby needs. Provider must be the cached
// decorator: Schedule reads stay cheap while LiveBoxScore passes through.
type Deps struct {
	Log      *zap.Logger
	Sched    *sched.Scheduler
	Pools    *pool.Builder
	Provider provider.Provider
	Rules    scoring.Rules

	PollInterval     time.Duration
	SlowPollInterval time.Duration

	// OnClosed runs after teardown with every session the lobby owned.
	OnClosed func(code string, sessionIDs []string)
	// OnLeft runs when a waiting-phase player is removed.
	OnLeft func(sessionID string)
}

// Info is the lock-free summary the hub reads for public-room listings.
type Info struct {
	Code        string `json:"code"`
	Public      bool   `json:"public"`
	Phase       string `json:"phase"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	HostName    string `json:"hostName"`
}

type Lobby struct {
	code       string
	public     bool
	maxPlayers int
	deps       Deps

	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	info   atomic.Value // Info
	hostID string       // creating player's public id, set before the loop starts

	phase    Phase
	settings models.Settings
	players  []*Player
	clients  map[string]chan types.ServerMessage // sessionID -> outbox

	loading     bool
	order       []string // public player ids, one per pick
	current     int
	avail       []models.Athlete
	games       []models.Game
	pickTimer   *sched.Task
	pickStarted time.Time
	pollTask    *sched.Task
	slowPolling bool
	lastActive  time.Time
}

// Host describes the creating player, seated before the loop starts so the
// first snapshot already includes them.
type Host struct {
	SessionID string
	Name      string
	Outbox    chan types.ServerMessage
}

func New(parent context.Context, code string, public bool, maxPlayers int, settings models.Settings, host Host, deps Deps) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	l := &Lobby{
		code:       code,
		public:     public,
		maxPlayers: maxPlayers,
		deps:       deps,
		inbox:      make(chan Msg, 64),
		ctx:        ctx,
		cancel:     cancel,
		phase:      PhaseWaiting,
		settings:   settings.Clone(),
		clients:    make(map[string]chan types.ServerMessage),
		lastActive: deps.Sched.Clock().Now(),
	}

	hostPlayer := &Player{
		ID:        uuid.NewString()[:8],
		SessionID: host.SessionID,
		Name:      host.Name,
		Host:      true,
	}
	l.players = append(l.players, hostPlayer)
	l.clients[host.SessionID] = host.Outbox
	l.hostID = hostPlayer.ID
	l.publishInfo()

	go l.loop()
	return l
}

// Inbox exposes the message channel to the hub, the ws layer and tests.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Code() string { return l.code }

// Info returns the latest published summary without touching the loop.
func (l *Lobby) Info() Info { return l.info.Load().(Info) }

// HostPlayerID is the creating player's public id. It is written once in New
// and never changes, even if the host role is later handed off.
func (l *Lobby) HostPlayerID() string { return l.hostID }

func (l *Lobby) playerBySession(sessionID string) *Player {
	for _, p := range l.players {
		if p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

func (l *Lobby) playerByID(id string) *Player {
	for _, p := range l.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.teardown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- l.handleJoin(msg)
			case Rejoin:
				msg.Reply <- l.handleRejoin(msg)
			case Leave:
				l.handleLeave(msg.SessionID)
			case Disconnect:
				l.handleDisconnect(msg.SessionID)
			case StartDraft:
				l.handleStartDraft(msg)
			case UpdateSettings:
				l.handleUpdateSettings(msg)
			case poolReady:
				l.handlePoolReady(msg)
			case PickAthlete:
				l.handlePick(msg.SessionID, msg.AthleteID)
			case timerExpired:
				l.handleTimeout(msg.pickIndex)
			case pollTick:
				l.startPoll()
			case statsUpdate:
				l.applyStats(msg)
			case Chat:
				l.handleChat(msg)
			case CheckIdle:
				if l.idle(msg.IdleAfter) {
					l.teardown()
					return
				}
			case GetView:
				msg.Reply <- l.view()
			case Shutdown:
				l.teardown()
				return
			}
		}
	}
}

func (l *Lobby) handleJoin(msg Join) JoinResult {
	if l.phase != PhaseWaiting {
		return JoinResult{Err: ErrDraftStarted}
	}
	if len(l.players) >= l.maxPlayers {
		return JoinResult{Err: ErrRoomFull}
	}

	p := &Player{
		ID:        uuid.NewString()[:8],
		SessionID: msg.SessionID,
		Name:      msg.Name,
	}
	l.players = append(l.players, p)
	l.clients[msg.SessionID] = msg.Outbox
	l.touch()
	l.publishInfo()
	l.broadcast(types.ServerMessage{Type: types.EvtRoomUpdated, Data: l.roomState()})
	return JoinResult{PlayerID: p.ID}
}

func (l *Lobby) handleRejoin(msg Rejoin) error {
	p := l.playerBySession(msg.SessionID)
	if p == nil {
		return ErrPlayerGone
	}

	l.clients[msg.SessionID] = msg.Outbox
	p.Disconnected = false
	l.touch()
	l.publishInfo()

	msg.Outbox <- types.ServerMessage{Type: types.EvtRejoinState, Data: l.rejoinState(p)}
	l.broadcastExcept(msg.SessionID, types.ServerMessage{
		Type: types.EvtPlayerReconnected,
		Data: types.PlayerPresence{PlayerID: p.ID, Name: p.Name},
	})
	return nil
}

func (l *Lobby) handleLeave(sessionID string) {
	p := l.playerBySession(sessionID)
	if p == nil {
		return
	}
	if l.phase != PhaseWaiting {
		l.handleDisconnect(sessionID)
		return
	}

	delete(l.clients, sessionID)
	for i, q := range l.players {
		if q == p {
			l.players = append(l.players[:i], l.players[i+1:]...)
			break
		}
	}
	if l.deps.OnLeft != nil {
		l.deps.OnLeft(sessionID)
	}
	if len(l.players) == 0 {
		l.teardown()
		return
	}
	if p.Host {
		l.players[0].Host = true
	}
	l.touch()
	l.publishInfo()
	l.broadcast(types.ServerMessage{Type: types.EvtRoomUpdated, Data: l.roomState()})
}

func (l *Lobby) handleDisconnect(sessionID string) {
	p := l.playerBySession(sessionID)
	if p == nil {
		return
	}
	delete(l.clients, sessionID)
	p.Disconnected = true
	l.publishInfo()
	l.broadcast(types.ServerMessage{
		Type: types.EvtPlayerDisconnected,
		Data: types.PlayerPresence{PlayerID: p.ID, Name: p.Name},
	})
}

func (l *Lobby) handleChat(msg Chat) {
	p := l.playerBySession(msg.SessionID)
	if p == nil || msg.Text == "" {
		return
	}
	l.touch()
	l.broadcast(types.ServerMessage{
		Type: types.EvtChat,
		Data: types.ChatBroadcast{From: p.Name, Text: msg.Text},
	})
}

func (l *Lobby) idle(after time.Duration) bool {
	if l.deps.Sched.Clock().Since(l.lastActive) < after {
		return false
	}
	if len(l.players) == 0 || l.phase == PhaseFinished {
		return true
	}
	for _, p := range l.players {
		if !p.Disconnected {
			return false
		}
	}
	return true
}

func (l *Lobby) touch() { l.lastActive = l.deps.Sched.Clock().Now() }

// teardown cancels all scheduled work, tells every client the room is gone
// and detaches them. Channels are not closed: the ws layer also writes to
// them, so ownership stays with the connection.
func (l *Lobby) teardown() {
	l.pickTimer.Cancel()
	l.pollTask.Cancel()
	l.pickTimer = nil
	l.pollTask = nil

	l.broadcast(types.ServerMessage{Type: types.EvtRoomClosed})
	clear(l.clients)
	l.cancel()

	if l.deps.OnClosed != nil {
		sessions := make([]string, 0, len(l.players))
		for _, p := range l.players {
			sessions = append(sessions, p.SessionID)
		}
		onClosed := l.deps.OnClosed
		l.deps.OnClosed = nil // fire once
		onClosed(l.code, sessions)
	}

	// Answer stragglers already holding a reference; the hub unlists the
	// lobby promptly, so a short grace window is enough.
	go l.drainInbox(30 * time.Second)
}

// drainInbox runs after the loop has exited, failing any late requests so
// their senders never block on a dead lobby.
func (l *Lobby) drainInbox(grace time.Duration) {
	deadline := time.After(grace)
	for {
		select {
		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- JoinResult{Err: ErrLobbyClosed}
			case Rejoin:
				msg.Reply <- ErrLobbyClosed
			case GetView:
				msg.Reply <- View{Phase: l.phase}
			}
		case <-deadline:
			return
		}
	}
}

func (l *Lobby) broadcast(msg types.ServerMessage) {
	l.broadcastExcept("", msg)
}

func (l *Lobby) broadcastExcept(skipSession string, msg types.ServerMessage) {
	for id, ch := range l.clients {
		if id == skipSession {
			continue
		}
		select {
		case ch <- msg:
		default:
			// Slow client: detach the channel, keep the seat for rejoin.
			delete(l.clients, id)
			if p := l.playerBySession(id); p != nil {
				p.Disconnected = true
			}
		}
	}
}

// sendTo delivers a message to one client only, e.g. a validation error.
func (l *Lobby) sendTo(sessionID string, msg types.ServerMessage) {
	ch, ok := l.clients[sessionID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

func (l *Lobby) sendError(sessionID string, err error) {
	l.sendTo(sessionID, types.ServerMessage{Type: types.EvtError, Error: err.Error()})
}

func (l *Lobby) publishInfo() {
	host := ""
	for _, p := range l.players {
		if p.Host {
			host = p.Name
			break
		}
	}
	l.info.Store(Info{
		Code:        l.code,
		Public:      l.public,
		Phase:       string(l.phase),
		PlayerCount: len(l.players),
		MaxPlayers:  l.maxPlayers,
		HostName:    host,
	})
}

// shufflePlayers returns the public ids in random order; the order generator
// itself is deterministic.
func (l *Lobby) shuffledPlayerIDs() []string {
	ids := make([]string, len(l.players))
	for i, p := range l.players {
		ids[i] = p.ID
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}
