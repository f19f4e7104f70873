package main

import (
	"sync"

	"golang.org/x/time/rate"
)

// Policy decides whether a player may perform an action. It is only
// consulted on the authoritative host.
type Policy interface {
	AllowAction(desc *ActionDesc) bool
}

// PolicyFunc adapts a function to Policy
type PolicyFunc func(desc *ActionDesc) bool

func (f PolicyFunc) AllowAction(desc *ActionDesc) bool { return f(desc) }

// AllowAll accepts everything
var AllowAll Policy = PolicyFunc(func(*ActionDesc) bool { return true })

type limitKey struct {
	player PlayerID
	action ActionType
}

// AdminPolicy is the default host policy: banned players and admin-only
// action types are refused, every (player, action type) pair is rate
// limited, then extra filters run in order. Admins bypass all checks.
type AdminPolicy struct {
	mu        sync.Mutex
	banned    map[string]bool
	adminOnly map[ActionType]bool
	limiters  map[limitKey]*rate.Limiter
	limit     rate.Limit
	burst     int
	filters   []Policy
}

// NewAdminPolicy creates a policy allowing perSecond actions of each type
// per player with the given burst. perSecond <= 0 disables rate limiting.
func NewAdminPolicy(perSecond float64, burst int, adminOnly ...ActionType) *AdminPolicy {
	p := &AdminPolicy{
		banned:    make(map[string]bool),
		adminOnly: make(map[ActionType]bool),
		limiters:  make(map[limitKey]*rate.Limiter),
		limit:     rate.Inf,
		burst:     max(burst, 1),
	}
	if perSecond > 0 {
		p.limit = rate.Limit(perSecond)
	}
	for _, t := range adminOnly {
		p.adminOnly[t] = true
	}
	return p
}

// Ban refuses every action of players with this name
func (p *AdminPolicy) Ban(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.banned[name] = true
}

func (p *AdminPolicy) Unban(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.banned, name)
}

// AddFilter appends a policy that must also accept the action
func (p *AdminPolicy) AddFilter(f Policy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filters = append(p.filters, f)
}

// Forget drops the rate limiters of a player that left
func (p *AdminPolicy) Forget(id PlayerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.limiters {
		if k.player == id {
			delete(p.limiters, k)
		}
	}
}

func (p *AdminPolicy) AllowAction(desc *ActionDesc) bool {
	pl := desc.Player
	if pl == nil || pl.Admin {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.banned[pl.Name] || p.adminOnly[desc.Type] {
		return false
	}
	key := limitKey{pl.ID, desc.Type}
	lim, ok := p.limiters[key]
	if !ok {
		lim = rate.NewLimiter(p.limit, p.burst)
		p.limiters[key] = lim
	}
	if !lim.Allow() {
		return false
	}
	for _, f := range p.filters {
		if !f.AllowAction(desc) {
			return false
		}
	}
	return true
}
