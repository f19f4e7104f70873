package main

import "testing"

func TestRingSlots(t *testing.T) {
	slots := ringSlots(7, 10)
	if len(slots) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(slots))
	}
	if slots[0] != (Vec2{}) {
		t.Errorf("slot 0 should be the anchor, got %v", slots[0])
	}
	for i, s := range slots[1:] {
		if l := s.Len(); l < 9.99 || l > 10.01 {
			t.Errorf("slot %d at radius %f", i+1, l)
		}
	}
	if len(ringSlots(0, 10)) != 0 {
		t.Error("no units, no slots")
	}
	if got := len(ringSlots(20, 10)); got != 20 {
		t.Errorf("expected 20 slots, got %d", got)
	}
}

func TestAssignFormationsByLayer(t *testing.T) {
	w := NewWorld(64, 64, DefaultContent(), DefaultRules())
	dagger := w.Content.UnitType("dagger")
	anchor := Vec2{200, 200}
	far := w.AddUnit(dagger, TeamSharded, Vec2{20, 20})
	near := w.AddUnit(dagger, TeamSharded, Vec2{190, 190})
	mid := w.AddUnit(dagger, TeamSharded, Vec2{100, 100})
	atrax := w.AddUnit(w.Content.UnitType("atrax"), TeamSharded, Vec2{150, 150})
	for _, u := range []*Unit{far, near, mid, atrax} {
		u.AI().CommandPosition(anchor)
	}

	groups := AssignFormations(w, anchor, []UnitID{far.ID, near.ID, mid.ID, atrax.ID})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Layer != 0 || len(g.Units) != 3 {
		t.Fatalf("group layer %d with %d units", g.Layer, len(g.Units))
	}
	if g.Units[0] != near.ID || g.Units[2] != far.ID {
		t.Errorf("slots should go nearest first, got %v", g.Units)
	}
	if near.AI().GroupIndex != 0 || near.AI().Group != g {
		t.Error("nearest unit should hold the centre slot")
	}
	if atrax.AI().Group != nil {
		t.Error("a lone layer member should not be grouped")
	}
	if pos, _ := near.FormationTarget(); pos != anchor {
		t.Errorf("centre slot at %v", pos)
	}
}

func TestAssignFormationsSkipsFollowers(t *testing.T) {
	w := NewWorld(64, 64, DefaultContent(), DefaultRules())
	dagger := w.Content.UnitType("dagger")
	a := w.AddUnit(dagger, TeamSharded, Vec2{10, 10})
	b := w.AddUnit(dagger, TeamSharded, Vec2{20, 10})
	b.AI().CommandPosition(Vec2{50, 50})
	b.AI().Enqueue(PositionTarget(Vec2{80, 80}))

	if groups := AssignFormations(w, Vec2{50, 50}, []UnitID{a.ID, b.ID, 4242}); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}
