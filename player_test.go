package main

import (
	"testing"
	"time"
)

func TestNewPlayer(t *testing.T) {
	p := NewPlayer(3, "TestPilot", TeamCrux, 0)
	if p.ID != 3 || p.Name != "TestPilot" || p.Team != TeamCrux {
		t.Errorf("unexpected player %+v", p)
	}
	if !p.Dead() || p.Unit() != nil {
		t.Error("a new player has no unit")
	}
	if p.Within(Vec2{}, 1000) {
		t.Error("a dead player is never in range")
	}
}

func TestPlayerSetUnit(t *testing.T) {
	w := NewWorld(32, 32, DefaultContent(), DefaultRules())
	dagger := w.Content.UnitType("dagger")
	a := w.AddUnit(dagger, TeamSharded, Vec2{10, 10})
	b := w.AddUnit(dagger, TeamSharded, Vec2{50, 10})
	p := NewPlayer(1, "p", TeamSharded, time.Second)

	p.SetUnit(a)
	if !a.IsPlayer() || a.AI() != nil || a.Controller.Player != p {
		t.Fatal("unit not player controlled")
	}
	if p.Pos() != a.Pos {
		t.Errorf("player pos %v", p.Pos())
	}

	p.SetUnit(b)
	if a.IsPlayer() || a.AI() == nil {
		t.Error("previous unit should return to AI")
	}
	if p.Unit() != b {
		t.Error("new unit not controlled")
	}

	w.RemoveUnit(b)
	if !p.Dead() {
		t.Error("player of a removed unit is dead")
	}
}

func TestPlayerRespawn(t *testing.T) {
	w := NewWorld(32, 32, DefaultContent(), DefaultRules())
	p := NewPlayer(1, "p", TeamSharded, 0)
	if p.Respawn(w) != nil {
		t.Fatal("respawned without a core")
	}

	core, err := w.Place(w.Content.Block("core-shard"), TeamSharded, 10, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	u := p.Respawn(w)
	if u == nil || u.Type.Name != "alpha" || !u.SpawnedByCore {
		t.Fatalf("bad core unit %+v", u)
	}
	if u.Pos != core.Center() || p.Unit() != u {
		t.Error("unit should spawn at the core under player control")
	}
	if st := p.ToState(); st.Unit != u.ID || st.Team != TeamSharded {
		t.Errorf("state %+v", st)
	}
}

func TestPlayerDepositThrottle(t *testing.T) {
	p := NewPlayer(1, "p", TeamSharded, time.Hour)
	if !p.AllowDeposit() || !p.AllowDeposit() {
		t.Fatal("two quick deposits should pass")
	}
	if p.AllowDeposit() {
		t.Error("third deposit inside the cooldown should fail")
	}
}
