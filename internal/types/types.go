// Package types holds the websocket wire protocol shared by the edge and the
// lobby engine.
package types

import (
	"github.com/draftnight/draftnight-server/internal/models"
)

// Client -> server message types.
const (
	MsgCreateRoom     = "create_room"
	MsgJoinRoom       = "join_room"
	MsgRejoin         = "rejoin"
	MsgFindPublicRoom = "find_public_room"
	MsgStartDraft     = "start_draft"
	MsgUpdateSettings = "update_settings"
	MsgDraftPick      = "draft_pick"
	MsgLeaveRoom      = "leave_room"
	MsgChat           = "chat"
)

// Server -> client message types.
const (
	EvtRoomCreated        = "room_created"
	EvtRoomJoined         = "room_joined"
	EvtRoomUpdated        = "room_updated"
	EvtRejoinState        = "rejoin_state"
	EvtRejoinFailed       = "rejoin_failed"
	EvtPublicRoomFound    = "public_room_found"
	EvtDraftLoading       = "draft_loading"
	EvtDraftLoadingDone   = "draft_loading_done"
	EvtDraftStarted       = "draft_started"
	EvtPickMade           = "pick_made"
	EvtNextTurn           = "next_turn"
	EvtDraftComplete      = "draft_complete"
	EvtScoreUpdate        = "score_update"
	EvtPlayerDisconnected = "player_disconnected"
	EvtPlayerReconnected  = "player_reconnected"
	EvtChat               = "chat"
	EvtRoomClosed         = "room_closed"
	EvtError              = "error"
)

type ClientMessage struct {
	Type       string         `json:"type"`
	Name       string         `json:"name,omitempty"`
	Code       string         `json:"code,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	MaxPlayers int            `json:"max_players,omitempty"`
	Public     bool           `json:"public,omitempty"`
	AthleteID  string         `json:"athlete_id,omitempty"`
	Text       string         `json:"text,omitempty"`
	Settings   *SettingsPatch `json:"settings,omitempty"`
}

// SettingsPatch carries host overrides; nil fields keep current values.
type SettingsPatch struct {
	DraftType      *string        `json:"draft_type,omitempty"`
	TimePerPickSec *int           `json:"time_per_pick_sec,omitempty"`
	Leagues        []string       `json:"leagues,omitempty"`
	SlotsPerLeague map[string]int `json:"slots_per_league,omitempty"`
	Date           *string        `json:"date,omitempty"`
}

type ServerMessage struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// PlayerView is how one lobby player appears on the wire.
type PlayerView struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Host         bool          `json:"host"`
	Disconnected bool          `json:"disconnected"`
	Score        float64       `json:"score"`
	Roster       []models.Pick `json:"roster"`
}

type RoomState struct {
	Code       string          `json:"code"`
	Phase      string          `json:"phase"`
	Public     bool            `json:"public"`
	MaxPlayers int             `json:"maxPlayers"`
	Settings   models.Settings `json:"settings"`
	Players    []PlayerView    `json:"players"`
}

type RoomCreated struct {
	Code      string `json:"code"`
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

type RoomJoined struct {
	Code      string `json:"code"`
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

type DraftStarted struct {
	Pool    []models.Athlete `json:"pool"`
	Order   []string         `json:"order"`
	Games   []models.Game    `json:"games"`
	Current string           `json:"current"`
	TimeSec int              `json:"timeSec"`
	Room    RoomState        `json:"room"`
}

type PickMade struct {
	Picker   string         `json:"picker"`
	Athlete  models.Athlete `json:"athlete"`
	Auto     bool           `json:"auto"`
	PoolLeft int            `json:"poolLeft"`
	Players  []PlayerView   `json:"players"`
}

type NextTurn struct {
	Current      string `json:"current"`
	PickIndex    int    `json:"pickIndex"`
	RemainingSec int    `json:"remainingSec"`
}

type RejoinState struct {
	Phase        string           `json:"phase"`
	Room         RoomState        `json:"room"`
	PlayerID     string           `json:"playerId"`
	Pool         []models.Athlete `json:"pool,omitempty"`
	Order        []string         `json:"order,omitempty"`
	PickIndex    int              `json:"pickIndex,omitempty"`
	Current      string           `json:"current,omitempty"`
	RemainingSec int              `json:"remainingSec,omitempty"`
	Games        []models.Game    `json:"games,omitempty"`
}

type RejoinFailed struct {
	Reason string `json:"reason"`
}

type PublicRoomFound struct {
	Code string `json:"code"`
}

type ScoreUpdate struct {
	Phase   string        `json:"phase"`
	Players []PlayerView  `json:"players"`
	Games   []models.Game `json:"games"`
}

type ChatBroadcast struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type PlayerPresence struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}
