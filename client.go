package main

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 16384
	sendBufSize       = 256
	maxMessagesPerSec = 60
	maxNameLen        = 16
	maxSessionNameLen = 30
)

// outMsg is one queued websocket write
type outMsg struct {
	binary bool
	data   []byte
}

// Client represents a WebSocket connection. It is the Peer of its player.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan outMsg
	remoteAddr string
	limiter    *rate.Limiter
	log        *logrus.Entry

	mu        sync.Mutex
	closed    bool
	sessionID string
	player    *Player

	// Auth state, only touched by the read goroutine
	authPlayerID int64  // 0 = unauthenticated/guest
	authUsername string // "" = unauthenticated
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan outMsg, sendBufSize),
		remoteAddr: remoteAddr,
		limiter:    rate.NewLimiter(maxMessagesPerSec, maxMessagesPerSec*2),
		log:        componentLog("client").WithField("addr", remoteAddr),
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Release(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("ws error")
			}
			break
		}

		if !c.limiter.Allow() {
			c.log.Warn("rate limit exceeded, disconnecting")
			break
		}

		if msgType == websocket.BinaryMessage {
			c.handleFrame(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if msg.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, msg.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue reports false when the buffer is full or the client is gone
func (c *Client) enqueue(msg outMsg) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend stops the write pump; later sends are dropped
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.WithError(err).Error("marshal")
		return
	}
	if !c.enqueue(outMsg{data: data}) {
		c.dropSlow()
	}
}

// Send delivers a binary frame. A reliable frame that cannot be queued
// disconnects the client, since its view of the world would diverge.
func (c *Client) Send(ch Channel, frame []byte) {
	if c.enqueue(outMsg{binary: true, data: frame}) || ch == Unreliable {
		return
	}
	c.dropSlow()
}

func (c *Client) dropSlow() {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if !closed {
		c.log.Warn("client too slow, disconnecting")
		// ReadPump fails and unregisters the client
		c.conn.Close()
	}
}

// session returns the joined session and player, if any
func (c *Client) session() (string, PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player == nil {
		return "", 0
	}
	return c.sessionID, c.player.ID
}

func (c *Client) setSession(sid string, p *Player) {
	c.mu.Lock()
	c.sessionID = sid
	c.player = p
	c.mu.Unlock()
}

// handleFrame passes an action frame to the joined session
func (c *Client) handleFrame(frame []byte) {
	c.mu.Lock()
	sid, p := c.sessionID, c.player
	c.mu.Unlock()
	if p == nil {
		return
	}
	sess := c.hub.sessions.GetSession(sid)
	if sess == nil {
		return
	}
	sess.Sim.HandleFrame(p, frame)
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.WithError(err).Debug("unmarshal")
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		s = s[:n]
	}
	return s
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := truncate(msg.SessionName, maxSessionNameLen)
	if sname == "" {
		sname = "Skirmish"
	}

	sess := c.hub.sessions.CreateSession(sname)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := truncate(msg.Name, maxNameLen)
	if name == "" {
		name = c.authUsername
	}
	if name == "" {
		name = GenerateGuestName()
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	c.handleLeave()

	admin := c.hub.auth != nil && c.authPlayerID != 0 && c.hub.auth.IsAdmin(c.authPlayerID)
	// Joined goes out before the welcome the session sends
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	player, err := sess.Sim.Join(name, msg.Team, c, c.authPlayerID, admin)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.setSession(sess.ID, player)
	c.log.WithFields(logrus.Fields{"session": sess.ID, "player": player.ID, "name": name}).Info("joined")
}

func (c *Client) handleLeave() {
	sid, pid := c.session()
	if sid == "" {
		return
	}
	c.setSession("", nil)
	c.hub.sessions.RemovePlayer(sid, pid)
}

func (c *Client) authenticated(id int64, username, token string) {
	if !c.hub.ClaimAccount(id, c) {
		c.sendError("account already online")
		return
	}
	if c.authPlayerID != 0 && c.authPlayerID != id {
		c.hub.ReleaseAccount(c.authPlayerID, c)
	}
	c.authPlayerID = id
	c.authUsername = username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: username,
		PlayerID: id,
	}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(id, strings.TrimSpace(msg.Username), token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(id, msg.Username, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	c.authenticated(id, username, msg.Token)
}
