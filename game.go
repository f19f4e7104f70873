package main

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxPlayersPerSession = 20
	opsBufSize           = 1024
)

var ErrSessionFull = errors.New("session full")

// Sim runs one session. Its goroutine is the only one that touches the
// world, the command batches, the spatial index and the handlers; other
// goroutines hand work over with Submit and it runs in receipt order at
// the start of the next tick.
type Sim struct {
	Net   *Net
	World *World

	cfg            Config
	policy         Policy
	ops            chan func()
	stop           chan struct{}
	stopOnce       sync.Once
	running        atomic.Bool
	snapshot       atomic.Pointer[GameState]
	playerCount    atomic.Int32
	nextPlayer     PlayerID
	broadcastEvery uint64
	log            *logrus.Entry
}

// NewSim creates a session host with a fresh world: one core for each
// of the two playing teams.
func NewSim(cfg Config, content *Content, policy Policy) *Sim {
	w := NewWorld(cfg.WorldWidth, cfg.WorldHeight, content, cfg.Rules)
	n := NewNet(RoleServer, w, DefaultRegistry(), policy)
	n.Commands = NewCommandQueue(cfg.BatchExpiryTicks)
	if cfg.CommandChunkSize > 0 {
		n.Commands.ChunkSize = cfg.CommandChunkSize
	}
	s := &Sim{
		Net:            n,
		World:          w,
		cfg:            cfg,
		policy:         policy,
		ops:            make(chan func(), opsBufSize),
		stop:           make(chan struct{}),
		broadcastEvery: uint64(max(cfg.TickRate/max(cfg.BroadcastRate, 1), 1)),
		log:            componentLog("sim"),
	}
	s.seedCores()
	n.Index.Rebuild(w)
	return s
}

func (s *Sim) seedCores() {
	core := s.World.Content.Block("core-shard")
	if core == nil {
		return
	}
	y := s.World.Height / 2
	margin := core.Size + 2
	for _, spot := range []struct {
		team Team
		x    int
	}{{TeamSharded, margin}, {TeamCrux, s.World.Width - 1 - margin}} {
		if _, err := s.World.Place(core, spot.team, spot.x, y, 0); err != nil {
			s.log.WithError(err).WithField("team", spot.team).Warn("no room for core")
		}
	}
}

// Run ticks the simulation until Stop
func (s *Sim) Run() {
	s.running.Store(true)
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-s.stop:
			return
		}
	}
}

// Stop terminates the loop; pending work is dropped
func (s *Sim) Stop() {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		close(s.stop)
	})
}

// Submit queues fn for the simulation goroutine. It blocks while the
// queue is full and returns false once the sim has stopped.
func (s *Sim) Submit(fn func()) bool {
	select {
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.ops <- fn:
		return true
	case <-s.stop:
		return false
	}
}

// Do runs fn on the simulation goroutine and waits for it
func (s *Sim) Do(fn func()) bool {
	done := make(chan struct{})
	if !s.Submit(func() { fn(); close(done) }) {
		return false
	}
	select {
	case <-done:
		return true
	case <-s.stop:
		return false
	}
}

// Tick runs queued work, advances the clock, rebuilds the spatial index,
// reaps abandoned batches and periodically broadcasts a snapshot.
func (s *Sim) Tick() {
	for n := len(s.ops); n > 0; n-- {
		(<-s.ops)()
	}
	w := s.World
	w.Tick++
	s.Net.UpdateOrders()
	s.Net.Index.Rebuild(w)
	s.Net.Commands.Reap(w.Tick)
	if w.Tick%s.broadcastEvery == 0 {
		s.broadcastState()
	}
}

// Join adds a player and spawns its unit at the team core. A team outside
// the playing teams is replaced by the smaller one.
func (s *Sim) Join(name string, team Team, con Peer, authID int64, admin bool) (*Player, error) {
	var (
		p   *Player
		err error
	)
	ok := s.Do(func() {
		if len(s.Net.players) >= maxPlayersPerSession {
			err = ErrSessionFull
			return
		}
		if team != TeamSharded && team != TeamCrux {
			team = s.smallerTeam()
		}
		s.nextPlayer++
		p = NewPlayer(s.nextPlayer, name, team, s.World.Rules.ItemDepositCooldown)
		p.Con = con
		p.AuthID = authID
		p.Admin = admin
		s.Net.AddPlayer(p)
		p.Respawn(s.World)
		s.playerCount.Add(1)
		if con != nil {
			welcome := WelcomeMsg{
				ID:        p.ID,
				Team:      p.Team,
				ChunkSize: s.cfg.CommandChunkSize,
				MaxLine:   s.cfg.MaxLineLength,
			}
			if u := p.Unit(); u != nil {
				welcome.Unit = u.ID
			}
			con.SendJSON(Envelope{T: MsgWelcome, Data: welcome})
		}
	})
	if !ok {
		return nil, errors.New("session stopped")
	}
	return p, err
}

func (s *Sim) smallerTeam() Team {
	counts := map[Team]int{}
	for _, p := range s.Net.players {
		counts[p.Team]++
	}
	if counts[TeamCrux] < counts[TeamSharded] {
		return TeamCrux
	}
	return TeamSharded
}

// Leave removes a player and waits for it; its unit returns to AI control
func (s *Sim) Leave(id PlayerID) {
	s.Do(func() {
		if s.Net.Player(id) == nil {
			return
		}
		s.Net.RemovePlayer(id)
		if f, ok := s.policy.(interface{ Forget(PlayerID) }); ok {
			f.Forget(id)
		}
		s.playerCount.Add(-1)
	})
}

// HandleFrame queues an action frame received from p
func (s *Sim) HandleFrame(p *Player, frame []byte) {
	s.Submit(func() {
		err := s.Net.Receive(p, frame)
		var fault *ValidationFault
		if err != nil && !errors.As(err, &fault) {
			s.log.WithError(err).WithField("player", p.Name).Warn("bad action frame")
		}
	})
}

// Reset clears batches, the index and every unit's orders
func (s *Sim) Reset() bool {
	return s.Do(s.Net.Reset)
}

// PlayerCount is safe to call from any goroutine
func (s *Sim) PlayerCount() int { return int(s.playerCount.Load()) }

// Commander returns a command issuer for p using the session's chunk size.
// Like every Net call it must run on the simulation goroutine.
func (s *Sim) Commander(p *Player) *Commander {
	return NewCommander(s.Net, p, s.cfg.CommandChunkSize)
}

// Snapshot returns the last broadcast state; nil before the first one.
// It must be treated as read-only.
func (s *Sim) Snapshot() *GameState { return s.snapshot.Load() }

func (s *Sim) buildState() *GameState {
	w := s.World
	players := s.Net.Players()
	state := &GameState{
		Tick:      w.Tick,
		Players:   make([]PlayerState, 0, len(players)),
		Units:     make([]UnitState, 0, len(w.Units())),
		Buildings: make([]BuildingState, 0, len(w.Buildings())),
	}
	for _, p := range players {
		state.Players = append(state.Players, p.ToState())
	}
	for _, u := range w.Units() {
		state.Units = append(state.Units, unitState(u))
	}
	for _, b := range w.Buildings() {
		state.Buildings = append(state.Buildings, buildingState(b))
	}
	return state
}

// broadcastState sends the current state to every connected player
func (s *Sim) broadcastState() {
	state := s.buildState()
	s.snapshot.Store(state)

	frame, err := encodeFrame(FrameState, state)
	if err != nil {
		s.log.WithError(err).Error("encode state")
		return
	}
	for _, p := range s.Net.Players() {
		if p.Con != nil {
			p.Con.Send(Unreliable, frame)
		}
	}
}
