// Package ws is the websocket edge: it translates wire messages into hub and
// lobby messages and drains each client's outbox back onto the socket.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/draftnight/draftnight-server/internal/hub"
	"github.com/draftnight/draftnight-server/internal/lobby"
	"github.com/draftnight/draftnight-server/internal/types"
	"go.uber.org/zap"
)

const (
	writeTimeout = 3 * time.Second
	outboxSize   = 32
)

// client is one connection's mutable binding to a room.
type client struct {
	sessionID string
	lobby     *lobby.Lobby
}

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan types.ServerMessage, outboxSize)
		var c client

		// On any exit, tell the lobby the transport dropped.
		defer func() {
			if c.lobby != nil {
				sendLobby(c.lobby, lobby.Disconnect{SessionID: c.sessionID})
			}
		}()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go writer(writeCtx, conn, out)

		for {
			var cm types.ClientMessage
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			if err := json.Unmarshal(data, &cm); err != nil {
				out <- types.ServerMessage{Type: types.EvtError, Error: "bad json"}
				continue
			}
			if done := dispatch(h, &c, out, cm, log); done {
				return
			}
		}
	}
}

// writer drains the outbox onto the socket until the connection context
// ends. The channel is never closed; both the lobby and this package write
// to it.
func writer(ctx context.Context, conn *websocket.Conn, out <-chan types.ServerMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-out:
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			_ = conn.Write(wctx, websocket.MessageText, payload)
			cancel()
		}
	}
}

// dispatch routes one client message. Returns true when the connection
// should close.
func dispatch(h *hub.Hub, c *client, out chan types.ServerMessage, cm types.ClientMessage, log *zap.Logger) bool {
	switch cm.Type {
	case types.MsgCreateRoom:
		if c.lobby != nil {
			out <- types.ServerMessage{Type: types.EvtError, Error: "already in a game"}
			return false
		}
		reply := make(chan hub.RoomResult, 1)
		h.Inbox() <- hub.CreateRoom{
			Name:       cm.Name,
			MaxPlayers: cm.MaxPlayers,
			Public:     cm.Public,
			Settings:   cm.Settings,
			Outbox:     out,
			Reply:      reply,
		}
		res := <-reply
		if res.Err != nil {
			out <- types.ServerMessage{Type: types.EvtError, Error: res.Err.Error()}
			return false
		}
		c.sessionID, c.lobby = res.SessionID, res.Lobby
		out <- types.ServerMessage{Type: types.EvtRoomCreated, Data: types.RoomCreated{
			Code: res.Code, SessionID: res.SessionID, PlayerID: res.PlayerID,
		}}

	case types.MsgJoinRoom:
		if c.lobby != nil {
			out <- types.ServerMessage{Type: types.EvtError, Error: "already in a game"}
			return false
		}
		reply := make(chan hub.RoomResult, 1)
		h.Inbox() <- hub.JoinRoom{Code: cm.Code, Name: cm.Name, Outbox: out, Reply: reply}
		res := <-reply
		if res.Err != nil {
			out <- types.ServerMessage{Type: types.EvtError, Error: res.Err.Error()}
			return false
		}
		c.sessionID, c.lobby = res.SessionID, res.Lobby
		out <- types.ServerMessage{Type: types.EvtRoomJoined, Data: types.RoomJoined{
			Code: res.Code, SessionID: res.SessionID, PlayerID: res.PlayerID,
		}}

	case types.MsgRejoin:
		if c.lobby != nil {
			out <- types.ServerMessage{Type: types.EvtError, Error: "already in a game"}
			return false
		}
		reply := make(chan hub.RoomResult, 1)
		h.Inbox() <- hub.RejoinRoom{SessionID: cm.SessionID, Outbox: out, Reply: reply}
		res := <-reply
		if res.Err != nil {
			// All rejoin failures collapse to "start fresh" on the client.
			out <- types.ServerMessage{Type: types.EvtRejoinFailed, Data: types.RejoinFailed{Reason: res.Err.Error()}}
			return false
		}
		c.sessionID, c.lobby = res.SessionID, res.Lobby

	case types.MsgFindPublicRoom:
		if c.lobby != nil {
			out <- types.ServerMessage{Type: types.EvtError, Error: "already in a game"}
			return false
		}
		reply := make(chan hub.RoomResult, 1)
		h.Inbox() <- hub.FindPublicRoom{Name: cm.Name, Outbox: out, Reply: reply}
		res := <-reply
		if res.Err != nil {
			out <- types.ServerMessage{Type: types.EvtError, Error: res.Err.Error()}
			return false
		}
		c.sessionID, c.lobby = res.SessionID, res.Lobby
		out <- types.ServerMessage{Type: types.EvtPublicRoomFound, Data: types.PublicRoomFound{Code: res.Code}}
		out <- types.ServerMessage{Type: types.EvtRoomJoined, Data: types.RoomJoined{
			Code: res.Code, SessionID: res.SessionID, PlayerID: res.PlayerID,
		}}

	case types.MsgStartDraft:
		if !requireRoom(c, out) {
			return false
		}
		sendLobby(c.lobby, lobby.StartDraft{SessionID: c.sessionID, Patch: cm.Settings})

	case types.MsgUpdateSettings:
		if !requireRoom(c, out) {
			return false
		}
		sendLobby(c.lobby, lobby.UpdateSettings{SessionID: c.sessionID, Patch: cm.Settings})

	case types.MsgDraftPick:
		if !requireRoom(c, out) {
			return false
		}
		sendLobby(c.lobby, lobby.PickAthlete{SessionID: c.sessionID, AthleteID: cm.AthleteID})

	case types.MsgChat:
		if !requireRoom(c, out) {
			return false
		}
		sendLobby(c.lobby, lobby.Chat{SessionID: c.sessionID, Text: cm.Text})

	case types.MsgLeaveRoom:
		if !requireRoom(c, out) {
			return false
		}
		sendLobby(c.lobby, lobby.Leave{SessionID: c.sessionID})
		c.sessionID, c.lobby = "", nil

	default:
		log.Debug("unknown message type", zap.String("type", cm.Type))
		out <- types.ServerMessage{Type: types.EvtError, Error: "unknown type"}
	}
	return false
}

// sendLobby never blocks the reader: a full inbox (a lobby mid-teardown or
// badly behind) drops the command instead of wedging the connection.
func sendLobby(lb *lobby.Lobby, msg lobby.Msg) {
	select {
	case lb.Inbox() <- msg:
	default:
	}
}

func requireRoom(c *client, out chan types.ServerMessage) bool {
	if c.lobby == nil {
		out <- types.ServerMessage{Type: types.EvtError, Error: "not in a room"}
		return false
	}
	return true
}
