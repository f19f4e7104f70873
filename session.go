package main

import (
	"sync"

	"github.com/google/uuid"
)

const maxSessions = 100

// Session is a running world players can join
type Session struct {
	ID   string
	Name string
	Sim  *Sim
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
	content  *Content
	onCreate func(sessionID string, n *Net) // attaches journals and audit sinks
}

// NewSessionManager creates a SessionManager whose sessions share cfg and content
func NewSessionManager(cfg Config, content *Content) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		content:  content,
	}
}

// OnCreate sets a hook run for the Net of every new session
func (sm *SessionManager) OnCreate(fn func(sessionID string, n *Net)) { sm.onCreate = fn }

// newPolicy builds the host policy from configuration
func (sm *SessionManager) newPolicy() Policy {
	var adminOnly []ActionType
	for _, name := range sm.cfg.AdminOnlyActions {
		if t, ok := ActionTypeByName(name); ok {
			adminOnly = append(adminOnly, t)
		}
	}
	return NewAdminPolicy(sm.cfg.ActionRate, sm.cfg.ActionBurst, adminOnly...)
}

// CreateSession creates and starts a session. Returns nil if limit reached.
func (sm *SessionManager) CreateSession(name string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	sim := NewSim(sm.cfg, sm.content, sm.newPolicy())
	sess := &Session{
		ID:   uuid.NewString(),
		Name: name,
		Sim:  sim,
	}
	if sm.onCreate != nil {
		sm.onCreate(sess.ID, sim.Net)
	}
	sm.sessions[sess.ID] = sess
	go sim.Run()
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemovePlayer removes a player from a session and stops the session
// once its last player left
func (sm *SessionManager) RemovePlayer(sessionID string, playerID PlayerID) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.Sim.Leave(playerID)

	if sess.Sim.PlayerCount() == 0 {
		sess.Sim.Stop()
		sm.mu.Lock()
		delete(sm.sessions, sessionID)
		sm.mu.Unlock()
	}
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Sim.PlayerCount(),
		})
	}
	return list
}

// StopAll stops every session; used at shutdown
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		sess.Sim.Stop()
		delete(sm.sessions, id)
	}
}
