package main

import "sync"

// Connection caps used when the configuration leaves them unset
const (
	defaultMaxConns      = 1000
	defaultMaxConnsPerIP = 5
)

// Hub owns every websocket client. It admits connections, tracks which
// accounts are signed in and detaches leaving clients from their session.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager

	// admission, reserved before the upgrade
	connMu     sync.Mutex
	maxConns   int
	maxPerIP   int
	ipConns    map[string]int
	totalConns int

	db   *DB
	auth *Auth

	// account id -> the one client signed in as it
	accountMu sync.Mutex
	accounts  map[int64]*Client
}

// NewHub creates a Hub whose connection caps come from the sessions'
// config. db may be nil, which disables accounts.
func NewHub(db *DB, sessions *SessionManager) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		sessions:   sessions,
		maxConns:   orDefault(sessions.cfg.MaxConns, defaultMaxConns),
		maxPerIP:   orDefault(sessions.cfg.MaxConnsPerIP, defaultMaxConnsPerIP),
		ipConns:    make(map[string]int),
		db:         db,
		accounts:   make(map[int64]*Client),
	}
	if db != nil {
		h.auth = NewAuth(db)
	}
	return h
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Admit reserves a connection slot for ip. The caller must Release it
// once the connection ends or fails to upgrade.
func (h *Hub) Admit(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.maxConns || h.ipConns[ip] >= h.maxPerIP {
		return false
	}
	h.ipConns[ip]++
	h.totalConns++
	return true
}

// Release frees a slot taken by Admit
func (h *Hub) Release(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.ipConns[ip] <= 0 {
		return
	}
	if h.ipConns[ip]--; h.ipConns[ip] == 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run registers new clients and tears down leaving ones: the account is
// released and the player leaves its session.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			if client.authPlayerID != 0 {
				h.ReleaseAccount(client.authPlayerID, client)
			}
			if sid, pid := client.session(); sid != "" {
				h.sessions.RemovePlayer(sid, pid)
			}
		}
	}
}

// ClaimAccount signs client in as account id. It fails while another
// connection holds the account.
func (h *Hub) ClaimAccount(id int64, client *Client) bool {
	h.accountMu.Lock()
	defer h.accountMu.Unlock()
	if other, ok := h.accounts[id]; ok && other != client {
		return false
	}
	h.accounts[id] = client
	return true
}

// ReleaseAccount signs client out of account id; a claim held by another
// client is left alone.
func (h *Hub) ReleaseAccount(id int64, client *Client) {
	h.accountMu.Lock()
	defer h.accountMu.Unlock()
	if h.accounts[id] == client {
		delete(h.accounts, id)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the number of admitted connections
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
