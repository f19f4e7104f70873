package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/vmihailenco/msgpack/v5"
)

// Client -> Server control message types (JSON text frames)
const (
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth"
	MsgCreate   = "create" // create session
	MsgList     = "list"   // list sessions
	MsgJoin     = "join"
	MsgLeave    = "leave"
)

// Server -> Client control message types
const (
	MsgWelcome     = "welcome"
	MsgJoined      = "joined"
	MsgCreated     = "created" // session created, client should join
	MsgSessions    = "sessions"
	MsgError       = "error"
	MsgAuthOK      = "auth_ok"
	MsgFault       = "fault" // an action of this player was rejected
	MsgAchievement = "achievement"
)

// Binary frame kinds (first byte of every binary frame)
const (
	FrameAction byte = 0x01
	FrameState  byte = 0x02
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when a player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	Team      Team   `json:"team"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	SessionName string `json:"sname"`
}

type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AchievementMsg announces a newly unlocked achievement
type AchievementMsg struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"desc"`
}

type AuthMsg struct {
	Token string `json:"token"`
}

type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// WelcomeMsg tells a joined player who it is
type WelcomeMsg struct {
	ID        PlayerID `json:"id"`
	Team      Team     `json:"team"`
	Unit      UnitID   `json:"unit"`
	ChunkSize int      `json:"chunk"`    // unit ids per commandUnits packet
	MaxLine   int      `json:"max_line"` // points per placement drag
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// FaultMsg reports a rejected action to the acting player
type FaultMsg struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
}

// Packet is one replicated action call
type Packet struct {
	Action ActionID           `msgpack:"a"`
	Player PlayerID           `msgpack:"p"`
	Data   msgpack.RawMessage `msgpack:"d"`
}

// EncodeAction builds a binary action frame
func EncodeAction(id ActionID, player PlayerID, args any) ([]byte, error) {
	data, err := msgpack.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode args of action %d: %w", id, err)
	}
	return encodeFrame(FrameAction, Packet{Action: id, Player: player, Data: data})
}

func encodeFrame(kind byte, body any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(kind)
	if err := msgpack.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFrame splits a binary frame into its kind and body
func DecodeFrame(frame []byte) (byte, []byte, error) {
	if len(frame) < 2 {
		return 0, nil, fmt.Errorf("frame of %d bytes: %w", len(frame), ErrBadArgs)
	}
	return frame[0], frame[1:], nil
}

// DecodePacket decodes the body of an action frame
func DecodePacket(body []byte) (Packet, error) {
	var p Packet
	if err := strictDecode(body, &p); err != nil {
		return p, fmt.Errorf("decode packet: %w", err)
	}
	return p, nil
}

// decodeArgs decodes action arguments; unknown fields are an error
func decodeArgs(raw []byte, v any) error {
	if err := strictDecode(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	return nil
}

func strictDecode(raw []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields(true)
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}

// PlayerState is broadcast per player
type PlayerState struct {
	ID    PlayerID `msgpack:"id"`
	Name  string   `msgpack:"n"`
	Team  Team     `msgpack:"t"`
	Admin bool     `msgpack:"ad,omitempty"`
	Unit  UnitID   `msgpack:"u,omitempty"`
}

// UnitState is broadcast per unit
type UnitState struct {
	ID       UnitID    `msgpack:"id"`
	Type     string    `msgpack:"ty"`
	Team     Team      `msgpack:"t"`
	Pos      Vec2      `msgpack:"p"`
	Command  string    `msgpack:"c,omitempty"`
	Stances  []string  `msgpack:"s,omitempty"`
	Target   *Vec2     `msgpack:"tg,omitempty"`
	Queued   int       `msgpack:"q,omitempty"`
	Stack    ItemStack `msgpack:"it"`
	Payloads int       `msgpack:"pl,omitempty"`
	Player   PlayerID  `msgpack:"pc,omitempty"`
}

// BuildingState is broadcast per building
type BuildingState struct {
	Pos        int32          `msgpack:"pos"`
	Block      string         `msgpack:"b"`
	Team       Team           `msgpack:"t"`
	Rotation   int            `msgpack:"r"`
	Config     any            `msgpack:"c,omitempty"`
	Items      map[string]int `msgpack:"i,omitempty"`
	CommandPos *Vec2          `msgpack:"cp,omitempty"`
}

// GameState is the periodic snapshot broadcast in FrameState frames
type GameState struct {
	Tick      uint64          `msgpack:"tick"`
	Players   []PlayerState   `msgpack:"p"`
	Units     []UnitState     `msgpack:"u"`
	Buildings []BuildingState `msgpack:"b"`
}

// unitState converts a unit to its snapshot form
func unitState(u *Unit) UnitState {
	s := UnitState{
		ID:       u.ID,
		Type:     u.Type.Name,
		Team:     u.Team,
		Pos:      u.Pos,
		Stack:    u.Stack,
		Payloads: len(u.Payloads),
	}
	if u.Controller.Player != nil {
		s.Player = u.Controller.Player.ID
	}
	if ai := u.AI(); ai != nil {
		s.Command = ai.CurrentCommand().Name
		for _, st := range ai.Stances.Stances() {
			s.Stances = append(s.Stances, st.Name)
		}
		if t, ok := u.FormationTarget(); ok {
			s.Target = &t
		}
		s.Queued = len(ai.Queue)
	}
	return s
}

// buildingState copies what it shares so the snapshot can leave the
// simulation goroutine
func buildingState(b *Building) BuildingState {
	s := BuildingState{
		Pos:      b.Pos(),
		Block:    b.Block.Name,
		Team:     b.Team,
		Rotation: b.Rotation,
		Config:   b.Config,
		Items:    maps.Clone(b.Items),
	}
	if b.CommandPos != nil {
		cp := *b.CommandPos
		s.CommandPos = &cp
	}
	return s
}
