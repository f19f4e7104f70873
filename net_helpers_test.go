package main

import (
	"sync"
	"testing"
)

// recordingPeer captures everything sent to a player
type recordingPeer struct {
	mu       sync.Mutex
	messages []interface{}
	frames   [][]byte
	channels []Channel
}

func (r *recordingPeer) SendJSON(msg interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingPeer) Send(ch Channel, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	r.channels = append(r.channels, ch)
}

func (r *recordingPeer) frameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// faultsOf returns the fault messages received so far
func (r *recordingPeer) faultsOf() []FaultMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []FaultMsg
	for _, m := range r.messages {
		if env, ok := m.(Envelope); ok && env.T == MsgFault {
			out = append(out, env.Data.(FaultMsg))
		}
	}
	return out
}

// packets decodes the action frames received so far
func (r *recordingPeer) packets(t *testing.T) []Packet {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Packet
	for _, f := range r.frames {
		kind, body, err := DecodeFrame(f)
		if err != nil || kind != FrameAction {
			continue
		}
		pkt, err := DecodePacket(body)
		if err != nil {
			t.Fatalf("decode packet: %v", err)
		}
		out = append(out, pkt)
	}
	return out
}

type recordingFaults struct {
	faults []*ValidationFault
}

func (r *recordingFaults) RecordFault(tick uint64, f *ValidationFault) {
	r.faults = append(r.faults, f)
}

type recordingActions struct {
	names []string
}

func (r *recordingActions) RecordAction(tick uint64, player *Player, spec *ActionSpec, args any) {
	r.names = append(r.names, spec.Name)
}

// testHost is an authoritative Net over a 64x64 world with recorders attached
type testHost struct {
	*Net
	faults  *recordingFaults
	actions *recordingActions
	events  []Event
}

func newTestHost(t *testing.T, policy Policy) *testHost {
	t.Helper()
	w := NewWorld(64, 64, DefaultContent(), DefaultRules())
	h := &testHost{
		Net:     NewNet(RoleServer, w, DefaultRegistry(), policy),
		faults:  &recordingFaults{},
		actions: &recordingActions{},
	}
	h.AddFaultRecorder(h.faults)
	h.AddActionRecorder(h.actions)
	h.Events.SubscribeAll(func(e Event) { h.events = append(h.events, e) })
	return h
}

// join adds a remote player with a recording connection
func (h *testHost) join(id PlayerID, name string, team Team) (*Player, *recordingPeer) {
	peer := &recordingPeer{}
	p := NewPlayer(id, name, team, 0)
	p.Con = peer
	h.AddPlayer(p)
	return p, peer
}

func (h *testHost) spawn(t *testing.T, typeName string, team Team, pos Vec2) *Unit {
	t.Helper()
	ut := h.World.Content.UnitType(typeName)
	if ut == nil {
		t.Fatalf("unknown unit type %s", typeName)
	}
	return h.World.AddUnit(ut, team, pos)
}

func (h *testHost) place(t *testing.T, blockName string, team Team, x, y, rotation int) *Building {
	t.Helper()
	b, err := h.World.Place(h.World.Content.Block(blockName), team, x, y, rotation)
	if err != nil {
		t.Fatalf("place %s: %v", blockName, err)
	}
	return b
}

// receive encodes args as p's frame and hands it to the host
func (h *testHost) receive(t *testing.T, p *Player, id ActionID, args any) error {
	t.Helper()
	frame, err := EncodeAction(id, p.ID, args)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return h.Receive(p, frame)
}

func (h *testHost) eventsOf(kind EventType) []Event {
	var out []Event
	for _, e := range h.events {
		if e.Type() == kind {
			out = append(out, e)
		}
	}
	return out
}
