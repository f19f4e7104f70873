package main

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/sirupsen/logrus"
)

// Broadcaster sends JSON control messages
type Broadcaster interface {
	SendJSON(msg interface{})
}

// Peer is the far end of a connection. Reliable frames are never dropped
// silently; unreliable frames may be.
type Peer interface {
	Broadcaster
	Send(ch Channel, frame []byte)
}

// Role is where this process sits in the topology
type Role uint8

const (
	RoleLocal  Role = iota // single player, no network
	RoleServer             // authoritative host
	RoleClient             // predicts, defers to the host
)

// Authoritative reports whether this side validates and owns the truth
func (r Role) Authoritative() bool { return r != RoleClient }

// ActionRecorder receives every action accepted by the host
type ActionRecorder interface {
	RecordAction(tick uint64, player *Player, spec *ActionSpec, args any)
}

// FaultRecorder receives every validation fault raised on the host
type FaultRecorder interface {
	RecordFault(tick uint64, f *ValidationFault)
}

// Net applies replicated actions: authority check, apply, forward, notify.
// All methods run on the simulation goroutine.
type Net struct {
	Role     Role
	World    *World
	Index    *SpatialIndex
	Commands *CommandQueue
	Events   *EventBus

	registry *ActionRegistry
	policy   Policy
	players  map[PlayerID]*Player
	host     Peer
	actions  []ActionRecorder
	faults   []FaultRecorder
	log      *logrus.Entry
}

// NewNet creates the replication layer for w. A nil policy allows everything.
func NewNet(role Role, w *World, reg *ActionRegistry, policy Policy) *Net {
	if policy == nil {
		policy = AllowAll
	}
	n := &Net{
		Role:     role,
		World:    w,
		Index:    NewSpatialIndex(),
		Commands: NewCommandQueue(DefaultBatchExpiryTicks),
		Events:   NewEventBus(),
		registry: reg,
		policy:   policy,
		players:  make(map[PlayerID]*Player),
		log:      componentLog("net"),
	}
	n.Index.Clear(w.Bounds())
	return n
}

// SetHost sets the connection a client sends its calls over
func (n *Net) SetHost(p Peer) { n.host = p }

func (n *Net) AddActionRecorder(r ActionRecorder) { n.actions = append(n.actions, r) }
func (n *Net) AddFaultRecorder(r FaultRecorder)   { n.faults = append(n.faults, r) }

func (n *Net) AddPlayer(p *Player) { n.players[p.ID] = p }

// RemovePlayer drops the player and releases its unit
func (n *Net) RemovePlayer(id PlayerID) {
	if p, ok := n.players[id]; ok {
		p.ClearUnit()
		delete(n.players, id)
	}
}

func (n *Net) Player(id PlayerID) *Player { return n.players[id] }

// Players returns connected players ordered by id
func (n *Net) Players() []*Player {
	list := make([]*Player, 0, len(n.players))
	for _, p := range n.players {
		list = append(list, p)
	}
	slices.SortFunc(list, func(a, b *Player) int { return cmp.Compare(a.ID, b.ID) })
	return list
}

// Call performs an action on behalf of a player on this side. On the host
// it is applied and forwarded. A client applies it first when the action
// is predicted locally, then sends it to the host.
func (n *Net) Call(player *Player, id ActionID, args any) error {
	spec, err := n.registry.Spec(id)
	if err != nil {
		return err
	}
	if reflect.TypeOf(args) != spec.Handler.argType {
		return fmt.Errorf("%s: args of type %T: %w", spec.Name, args, ErrBadArgs)
	}
	if n.Role.Authoritative() {
		return n.invoke(spec, player, args, nil)
	}
	if spec.HostOnly {
		return fmt.Errorf("%s: %w", spec.Name, ErrActionNotAccepted)
	}
	if spec.Local {
		if err := n.invoke(spec, player, args, nil); err != nil {
			return err
		}
	}
	if n.host == nil {
		return fmt.Errorf("%s: not connected", spec.Name)
	}
	frame, err := EncodeAction(id, playerID(player), args)
	if err != nil {
		return err
	}
	n.host.Send(spec.Channel, frame)
	return nil
}

// Receive applies an action frame. On the host, from is the connection's
// player and the only identity trusted; on a client the frame came from
// the host and from is ignored.
func (n *Net) Receive(from *Player, frame []byte) error {
	kind, body, err := DecodeFrame(frame)
	if err != nil {
		return err
	}
	if kind != FrameAction {
		return fmt.Errorf("frame kind %#x: %w", kind, ErrBadArgs)
	}
	pkt, err := DecodePacket(body)
	if err != nil {
		return err
	}
	spec, err := n.registry.Spec(pkt.Action)
	if err != nil {
		return err
	}
	args, err := spec.Handler.decode(pkt.Data)
	if err != nil {
		return fmt.Errorf("%s: %w", spec.Name, err)
	}

	if !n.Role.Authoritative() {
		return n.invoke(spec, n.players[pkt.Player], args, nil)
	}
	if spec.HostOnly {
		return fmt.Errorf("%s: %w", spec.Name, ErrActionNotAccepted)
	}
	var origin *Player
	if spec.Local {
		// the caller already applied it
		origin = from
	}
	return n.invoke(spec, from, args, origin)
}

func (n *Net) invoke(spec *ActionSpec, player *Player, args any, origin *Player) error {
	hc := &HandlerContext{Net: n, Player: player, Spec: spec}
	if err := spec.Handler.run(hc, args); err != nil {
		var fault *ValidationFault
		if errors.As(err, &fault) {
			n.reject(spec, fault)
		}
		return err
	}
	if hc.ignored {
		return nil
	}
	for _, e := range hc.events {
		n.Events.Publish(e)
	}
	if !n.Role.Authoritative() {
		return nil
	}
	if spec.Forward || spec.HostOnly {
		n.forward(spec, player, args, origin)
	}
	for _, r := range n.actions {
		r.RecordAction(n.World.Tick, player, spec, args)
	}
	for _, em := range hc.emits {
		if err := n.invoke(em.spec, nil, em.args, nil); err != nil {
			n.log.WithError(err).WithField("action", em.spec.Name).Error("follow-up action failed")
		}
	}
	return nil
}

// forward re-broadcasts an applied action to every peer except origin
func (n *Net) forward(spec *ActionSpec, player *Player, args any, origin *Player) {
	if n.Role != RoleServer {
		return
	}
	frame, err := EncodeAction(spec.ID, playerID(player), args)
	if err != nil {
		n.log.WithError(err).WithField("action", spec.Name).Error("encode forward")
		return
	}
	for _, p := range n.Players() {
		if p == origin || p.Con == nil {
			continue
		}
		p.Con.Send(spec.Channel, frame)
	}
}

func (n *Net) reject(spec *ActionSpec, f *ValidationFault) {
	name := ""
	if f.Player != nil {
		name = f.Player.Name
	}
	n.log.WithFields(logrus.Fields{
		"player": name,
		"action": spec.Name,
		"type":   f.Action.String(),
		"reason": f.Reason,
	}).Warn("action rejected")
	for _, r := range n.faults {
		r.RecordFault(n.World.Tick, f)
	}
	if p := f.Player; p != nil && !p.Local && p.Con != nil {
		p.Con.SendJSON(Envelope{T: MsgFault, Data: FaultMsg{Action: spec.Name, Reason: f.Reason}})
	}
}

// Reset drops all pending batches, empties the spatial index and clears
// the orders and stances of every unit. Called on world load.
func (n *Net) Reset() {
	n.Commands.Reset()
	n.Index.Clear(n.World.Bounds())
	for _, u := range n.World.Units() {
		if ai := u.AI(); ai != nil {
			ai.Reset()
		}
	}
}

// UpdateOrders retires orders against removed targets. It returns how
// many units moved on.
func (n *Net) UpdateOrders() int {
	changed := 0
	for _, u := range n.World.Units() {
		if ai := u.AI(); ai != nil && ai.DropStaleTarget(n.World) {
			changed++
		}
	}
	return changed
}

func playerID(p *Player) PlayerID {
	if p == nil {
		return 0
	}
	return p.ID
}

type emitted struct {
	spec *ActionSpec
	args any
}

// HandlerContext is what a handler sees of one action invocation. Events
// and follow-up actions are held back until the handler succeeds.
type HandlerContext struct {
	*Net
	Player *Player // nil for host-originated actions
	Spec   *ActionSpec

	events  []Event
	emits   []emitted
	ignored bool
}

// Authoritative reports whether this invocation runs on the host
func (hc *HandlerContext) Authoritative() bool { return hc.Role.Authoritative() }

// Remote reports whether the acting player is on another machine
func (hc *HandlerContext) Remote() bool { return hc.Player != nil && !hc.Player.Local }

// Check asks the policy about desc. Only the host checks; it returns a
// *ValidationFault on refusal and nil otherwise.
func (hc *HandlerContext) Check(desc *ActionDesc) error {
	if !hc.Authoritative() || hc.policy.AllowAction(desc) {
		return nil
	}
	return &ValidationFault{Player: desc.Player, Action: desc.Type, Reason: "not allowed by policy"}
}

// Fault builds a validation fault for the acting player
func (hc *HandlerContext) Fault(t ActionType, reason string) error {
	return &ValidationFault{Player: hc.Player, Action: t, Reason: reason}
}

// Notify queues an event for publication once the action is applied
func (hc *HandlerContext) Notify(e Event) { hc.events = append(hc.events, e) }

// Emit schedules a host-originated follow-up action. It runs after the
// current handler succeeds and is broadcast to every client. Clients
// never emit.
func (hc *HandlerContext) Emit(id ActionID, args any) {
	if !hc.Authoritative() {
		return
	}
	spec, err := hc.registry.Spec(id)
	if err != nil {
		hc.log.WithError(err).Error("emit")
		return
	}
	hc.emits = append(hc.emits, emitted{spec: spec, args: args})
}

// Ignore ends the invocation without effects: no events, no forward.
func (hc *HandlerContext) Ignore() { hc.ignored = true }

// Undo sends the acting player the authoritative config of b, reverting
// a prediction the host refused.
func (hc *HandlerContext) Undo(b *Building) {
	if hc.Player == nil || hc.Player.Con == nil {
		return
	}
	frame, err := EncodeAction(ActTileConfig, 0, TileConfigArgs{Build: b.Pos(), Value: b.Config})
	if err != nil {
		hc.log.WithError(err).Error("encode undo")
		return
	}
	hc.Player.Con.Send(Reliable, frame)
}
