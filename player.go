package main

import (
	"time"

	"golang.org/x/time/rate"
)

// PlayerID identifies a connected player within one session
type PlayerID int32

// Player is a participant. A player acts through the unit it controls.
type Player struct {
	ID     PlayerID
	Name   string
	Team   Team
	Admin  bool
	Local  bool  // the host's own player; has no connection
	AuthID int64 // 0 = guest
	Con    Peer

	unit        *Unit
	depositRate *rate.Limiter
}

// NewPlayer creates a player. Deposits are throttled to two per two
// cooldown periods so packets bunched by the network are not rejected.
func NewPlayer(id PlayerID, name string, team Team, depositCooldown time.Duration) *Player {
	if depositCooldown <= 0 {
		depositCooldown = DefaultRules().ItemDepositCooldown
	}
	return &Player{
		ID:          id,
		Name:        name,
		Team:        team,
		depositRate: rate.NewLimiter(rate.Every(depositCooldown), 2),
	}
}

// Unit returns the controlled unit, or nil when the player is dead
func (p *Player) Unit() *Unit {
	if !p.unit.Valid() {
		return nil
	}
	return p.unit
}

func (p *Player) Dead() bool { return p.Unit() == nil }

// Pos is the position of the controlled unit
func (p *Player) Pos() Vec2 {
	if u := p.Unit(); u != nil {
		return u.Pos
	}
	return Vec2{}
}

// Within reports whether the player's unit is alive and within r of pos
func (p *Player) Within(pos Vec2, r float64) bool {
	u := p.Unit()
	return u != nil && u.Pos.Within(pos, r)
}

// AllowDeposit consumes one deposit token
func (p *Player) AllowDeposit() bool { return p.depositRate.Allow() }

// SetUnit hands control of u to the player, returning the previous unit
// to its default AI.
func (p *Player) SetUnit(u *Unit) {
	if p.unit == u {
		return
	}
	p.ClearUnit()
	p.unit = u
	if u != nil {
		u.Controller = PlayerController(p)
	}
}

// ClearUnit releases the controlled unit back to AI control
func (p *Player) ClearUnit() {
	if u := p.unit; u.Valid() && u.Controller.Player == p {
		u.Controller = AIController(NewCommandAI(u.Type))
	}
	p.unit = nil
}

// Respawn spawns the core unit type at the nearest core of the player's team
func (p *Player) Respawn(w *World) *Unit {
	core := w.ClosestCore(p.Team, p.Pos())
	if core == nil {
		return nil
	}
	t := w.Content.UnitType(core.Block.UnitType)
	if t == nil {
		return nil
	}
	u := w.AddUnit(t, p.Team, core.Center())
	u.SpawnedByCore = true
	p.SetUnit(u)
	return u
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	s := PlayerState{ID: p.ID, Name: p.Name, Team: p.Team, Admin: p.Admin}
	if u := p.Unit(); u != nil {
		s.Unit = u.ID
	}
	return s
}
