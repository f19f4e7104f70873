package main

import (
	"errors"
	"strings"
	"testing"
)

func expectPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", what)
		}
	}()
	fn()
}

func noop(hc *HandlerContext, args TileTapArgs) error { return nil }

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewActionRegistry()
	r.Register(ActionSpec{ID: 1, Name: "tap", Handler: On(noop)})

	expectPanic(t, "duplicate id", func() {
		r.Register(ActionSpec{ID: 1, Name: "other", Handler: On(noop)})
	})
	expectPanic(t, "duplicate name", func() {
		r.Register(ActionSpec{ID: 2, Name: "tap", Handler: On(noop)})
	})
	expectPanic(t, "missing handler", func() {
		r.Register(ActionSpec{ID: 3, Name: "empty"})
	})
	if _, ok := r.Lookup("tap"); !ok {
		t.Error("registered action not found")
	}
	if _, err := r.Spec(9); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestSchemaOf(t *testing.T) {
	spec, ok := DefaultRegistry().Lookup("commandUnits")
	if !ok {
		t.Fatal("commandUnits not registered")
	}
	got := spec.Schema().String()
	want := "(u:list<int>, b:optional<int>, t:optional<int>, p:optional<vec2>, q:bool, f:bool)"
	if got != want {
		t.Errorf("schema %s, want %s", got, want)
	}

	type untagged struct{ X int }
	expectPanic(t, "untagged field", func() {
		On(func(hc *HandlerContext, args untagged) error { return nil })
	})
	type nested struct {
		M map[string]int `msgpack:"m"`
	}
	expectPanic(t, "unsupported field", func() {
		On(func(hc *HandlerContext, args nested) error { return nil })
	})
}

func TestDefaultRegistryIsComplete(t *testing.T) {
	r := DefaultRegistry()
	for id := ActCommandUnits; id <= ActBuildingControlSelect; id++ {
		spec, err := r.Spec(id)
		if err != nil {
			t.Errorf("action %d: %v", id, err)
			continue
		}
		if spec.HostOnly && spec.Local {
			t.Errorf("%s cannot be both host-only and predicted", spec.Name)
		}
		if spec.HostOnly && spec.Forward {
			t.Errorf("%s: host-only actions are always broadcast", spec.Name)
		}
	}
	rotate, _ := r.Lookup("rotateBlock")
	if rotate.Channel != Reliable {
		t.Error("rotateBlock must be reliable")
	}
}

func TestCallWithWrongArgs(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	err := h.Call(a, ActRotateBlock, TileTapArgs{})
	if !errors.Is(err, ErrBadArgs) || !strings.Contains(err.Error(), "rotateBlock") {
		t.Errorf("expected ErrBadArgs naming the action, got %v", err)
	}
	if err := h.Call(a, ActionID(99), TileTapArgs{}); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestClientCall(t *testing.T) {
	w := NewWorld(32, 32, DefaultContent(), DefaultRules())
	n := NewNet(RoleClient, w, DefaultRegistry(), nil)
	p := NewPlayer(1, "alice", TeamSharded, 0)
	p.Local = true
	n.AddPlayer(p)
	sorter, _ := w.Place(w.Content.Block("sorter"), TeamSharded, 4, 4, 0)

	if err := n.Call(p, ActTileConfig, TileConfigArgs{Build: sorter.Pos(), Value: "lead"}); err == nil {
		t.Error("call without a host should fail")
	}
	host := &recordingPeer{}
	n.SetHost(host)

	if err := n.Call(p, ActTileConfig, TileConfigArgs{Build: sorter.Pos(), Value: "copper"}); err != nil {
		t.Fatal(err)
	}
	if sorter.Config != "copper" {
		t.Errorf("predicted config not applied: %v", sorter.Config)
	}
	if host.frameCount() != 1 {
		t.Errorf("expected the call sent to the host, got %d frames", host.frameCount())
	}

	// rotations wait for the host
	conv, _ := w.Place(w.Content.Block("conveyor"), TeamSharded, 8, 8, 0)
	if err := n.Call(p, ActRotateBlock, RotateBlockArgs{Build: conv.Pos(), Direction: true}); err != nil {
		t.Fatal(err)
	}
	if conv.Rotation != 0 {
		t.Error("unpredicted action applied locally")
	}
	if err := n.Call(p, ActTakeItems, TakeItemsArgs{}); !errors.Is(err, ErrActionNotAccepted) {
		t.Errorf("client sent a host-only action: %v", err)
	}

	// what the host forwards is applied as is
	frame, _ := EncodeAction(ActRotateBlock, 2, RotateBlockArgs{Build: conv.Pos(), Direction: true})
	if err := n.Receive(nil, frame); err != nil {
		t.Fatal(err)
	}
	if conv.Rotation != 1 {
		t.Errorf("forwarded rotation not applied: %d", conv.Rotation)
	}
}
