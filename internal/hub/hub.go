// Package hub owns the process-wide lobby table and the session registry.
// A single goroutine drains the inbox, mirroring the lobby actor pattern, so
// the two maps need no locks.
package hub

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/draftnight/draftnight-server/internal/lobby"
	"github.com/draftnight/draftnight-server/internal/models"
	"github.com/draftnight/draftnight-server/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrLobbyGone       = errors.New("lobby no longer exists")
	ErrNoPublicRooms   = errors.New("no public rooms available")
)

// Session maps a durable client identity to its current room.
type Session struct {
	LobbyCode string
	Name      string
	CreatedAt time.Time
}

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Name       string
	MaxPlayers int
	Public     bool
	Settings   *types.SettingsPatch
	Outbox     chan types.ServerMessage
	Reply      chan RoomResult
}

type JoinRoom struct {
	Code   string
	Name   string
	Outbox chan types.ServerMessage
	Reply  chan RoomResult
}

type RejoinRoom struct {
	SessionID string
	Outbox    chan types.ServerMessage
	Reply     chan RoomResult
}

// FindPublicRoom seats the caller in the first joinable public room, so the
// find and the join cannot race another client filling the room.
type FindPublicRoom struct {
	Name   string
	Outbox chan types.ServerMessage
	Reply  chan RoomResult
}

// ListPublicRooms serves the read-only HTTP listing.
type ListPublicRooms struct {
	Reply chan []lobby.Info
}

// lobbyClosed is posted by a lobby's OnClosed hook.
type lobbyClosed struct {
	Code     string
	Sessions []string
}

// sessionLeft is posted when a waiting-phase player leaves a lobby.
type sessionLeft struct{ SessionID string }

type sweepIdle struct{}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()      {}
func (JoinRoom) isHubMsg()        {}
func (RejoinRoom) isHubMsg()      {}
func (FindPublicRoom) isHubMsg()  {}
func (ListPublicRooms) isHubMsg() {}
func (lobbyClosed) isHubMsg()     {}
func (sessionLeft) isHubMsg()     {}
func (sweepIdle) isHubMsg()       {}
func (ShutdownHub) isHubMsg()     {}

// RoomResult answers every room-entry request. Lobby is nil when Err is set.
type RoomResult struct {
	Code      string
	SessionID string
	PlayerID  string
	Lobby     *lobby.Lobby
	Err       error
}

// Config tunes hub housekeeping.
type Config struct {
	MaxPlayersCap int
	DefaultMax    int
	IdleAfter     time.Duration
	SweepEvery    time.Duration
}

type Hub struct {
	inbox    chan HubMsg
	lobbies  map[string]*lobby.Lobby
	sessions map[string]*Session
	deps     lobby.Deps
	cfg      Config
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, deps lobby.Deps, cfg Config, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.MaxPlayersCap <= 0 {
		cfg.MaxPlayersCap = 8
	}
	if cfg.DefaultMax <= 0 {
		cfg.DefaultMax = 6
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		lobbies:  make(map[string]*lobby.Lobby),
		sessions: make(map[string]*Session),
		deps:     deps,
		cfg:      cfg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}

	// Lobby teardown and waiting-phase leaves feed back in as messages; the
	// goroutine hop avoids a lobby-loop -> hub-loop deadlock.
	h.deps.OnClosed = func(code string, sessions []string) {
		go func() { h.inbox <- lobbyClosed{Code: code, Sessions: sessions} }()
	}
	h.deps.OnLeft = func(sessionID string) {
		go func() { h.inbox <- sessionLeft{SessionID: sessionID} }()
	}

	if cfg.SweepEvery > 0 {
		deps.Sched.Every(cfg.SweepEvery, func() {
			select {
			case h.inbox <- sweepIdle{}:
			case <-ctx.Done():
			}
		})
	}

	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.createRoom(msg)
			case JoinRoom:
				msg.Reply <- h.joinRoom(msg)
			case RejoinRoom:
				msg.Reply <- h.rejoin(msg)
			case FindPublicRoom:
				msg.Reply <- h.findPublic(msg)
			case ListPublicRooms:
				msg.Reply <- h.publicRooms()
			case lobbyClosed:
				delete(h.lobbies, msg.Code)
				for _, sid := range msg.Sessions {
					delete(h.sessions, sid)
				}
				h.log.Info("lobby removed", zap.String("code", msg.Code))
			case sessionLeft:
				delete(h.sessions, msg.SessionID)
			case sweepIdle:
				for _, lb := range h.lobbies {
					lb.Inbox() <- lobby.CheckIdle{IdleAfter: h.cfg.IdleAfter}
				}
			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) createRoom(msg CreateRoom) RoomResult {
	code, err := h.uniqueCode()
	if err != nil {
		return RoomResult{Err: err}
	}

	maxPlayers := msg.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = h.cfg.DefaultMax
	}
	if maxPlayers > h.cfg.MaxPlayersCap {
		maxPlayers = h.cfg.MaxPlayersCap
	}

	sessionID := uuid.NewString()
	settings := models.DefaultSettings(h.deps.Sched.Clock().Now().Format("2006-01-02"))

	lb := lobby.New(h.ctx, code, msg.Public, maxPlayers, settings, lobby.Host{
		SessionID: sessionID,
		Name:      msg.Name,
		Outbox:    msg.Outbox,
	}, h.deps)
	if msg.Settings != nil {
		lb.Inbox() <- lobby.UpdateSettings{SessionID: sessionID, Patch: msg.Settings}
	}

	h.lobbies[code] = lb
	h.sessions[sessionID] = &Session{LobbyCode: code, Name: msg.Name, CreatedAt: h.deps.Sched.Clock().Now()}
	h.log.Info("room created", zap.String("code", code), zap.String("host", msg.Name))
	return RoomResult{Code: code, SessionID: sessionID, PlayerID: lb.HostPlayerID(), Lobby: lb}
}

func (h *Hub) joinRoom(msg JoinRoom) RoomResult {
	lb := h.lobbies[msg.Code]
	if lb == nil {
		return RoomResult{Err: ErrRoomNotFound}
	}

	sessionID := uuid.NewString()
	reply := make(chan lobby.JoinResult, 1)
	lb.Inbox() <- lobby.Join{SessionID: sessionID, Name: msg.Name, Outbox: msg.Outbox, Reply: reply}
	res := <-reply
	if res.Err != nil {
		return RoomResult{Err: res.Err}
	}

	h.sessions[sessionID] = &Session{LobbyCode: msg.Code, Name: msg.Name, CreatedAt: h.deps.Sched.Clock().Now()}
	return RoomResult{Code: msg.Code, SessionID: sessionID, PlayerID: res.PlayerID, Lobby: lb}
}

// rejoin distinguishes the three failure modes (unknown session, lobby gone,
// player gone) even though the client treats them all as "start fresh".
func (h *Hub) rejoin(msg RejoinRoom) RoomResult {
	sess := h.sessions[msg.SessionID]
	if sess == nil {
		return RoomResult{Err: ErrSessionNotFound}
	}
	lb := h.lobbies[sess.LobbyCode]
	if lb == nil {
		delete(h.sessions, msg.SessionID)
		return RoomResult{Err: ErrLobbyGone}
	}

	reply := make(chan error, 1)
	lb.Inbox() <- lobby.Rejoin{SessionID: msg.SessionID, Outbox: msg.Outbox, Reply: reply}
	if err := <-reply; err != nil {
		delete(h.sessions, msg.SessionID)
		return RoomResult{Err: err}
	}
	return RoomResult{Code: sess.LobbyCode, SessionID: msg.SessionID, Lobby: lb}
}

func (h *Hub) findPublic(msg FindPublicRoom) RoomResult {
	for code, lb := range h.lobbies {
		info := lb.Info()
		if !info.Public || info.Phase != string(lobby.PhaseWaiting) || info.PlayerCount >= info.MaxPlayers {
			continue
		}
		// The lobby may still refuse (it races its own state); try the next
		// candidate instead of failing the whole search.
		res := h.joinRoom(JoinRoom{Code: code, Name: msg.Name, Outbox: msg.Outbox})
		if res.Err == nil {
			return res
		}
	}
	return RoomResult{Err: ErrNoPublicRooms}
}

func (h *Hub) publicRooms() []lobby.Info {
	out := make([]lobby.Info, 0)
	for _, lb := range h.lobbies {
		info := lb.Info()
		if info.Public && info.Phase == string(lobby.PhaseWaiting) {
			out = append(out, info)
		}
	}
	return out
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Inbox() <- lobby.Shutdown{}
	}
	clear(h.lobbies)
	clear(h.sessions)
	h.cancel()
}

func (h *Hub) uniqueCode() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		if h.lobbies[code] == nil {
			return code, nil
		}
		h.log.Warn("room code collision, regenerating", zap.String("code", code))
	}
	return "", errors.New("could not allocate a room code")
}

// generateCode returns a 6-char human-typeable room code.
func generateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
