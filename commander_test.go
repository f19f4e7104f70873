package main

import "testing"

func TestChunkUnitIDs(t *testing.T) {
	ids := make([]UnitID, 450)
	for i := range ids {
		ids[i] = UnitID(i + 1)
	}
	chunks := ChunkUnitIDs(ids, 200)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 200 || len(chunks[1]) != 200 || len(chunks[2]) != 50 {
		t.Errorf("chunk sizes %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if chunks[1][0] != 201 || chunks[2][49] != 450 {
		t.Error("chunks out of order")
	}

	if got := ChunkUnitIDs(nil, 200); len(got) != 0 {
		t.Errorf("empty selection gave %d chunks", len(got))
	}
	if got := ChunkUnitIDs(ids[:10], 0); len(got) != 1 {
		t.Errorf("default size gave %d chunks", len(got))
	}
}

func TestCommanderSelection(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	u1 := h.spawn(t, "dagger", TeamSharded, Vec2{40, 40})
	u2 := h.spawn(t, "dagger", TeamSharded, Vec2{60, 40})
	h.spawn(t, "dagger", TeamCrux, Vec2{50, 40})
	h.Index.Rebuild(h.World)

	c := NewCommander(h.Net, a, 0)
	c.SelectRect(RectFromCorners(30, 30, 70, 50))
	if len(c.Selected) != 2 {
		t.Fatalf("expected 2 selected, got %v", c.Selected)
	}
	c.SelectAt(Vec2{41, 40})
	if len(c.Selected) != 1 || c.Selected[0] != u1.ID {
		t.Fatalf("point select got %v", c.Selected)
	}

	c.Selected = []UnitID{u1.ID, u2.ID}
	if err := c.CommandAt(Vec2{300, 300}, false); err != nil {
		t.Fatal(err)
	}
	if p := u2.AI().TargetPos; p == nil || *p != (Vec2{300, 300}) {
		t.Errorf("move order %v", p)
	}
}

func TestCommanderAttacksEnemyUnderCursor(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	u := h.spawn(t, "dagger", TeamSharded, Vec2{40, 40})
	enemy := h.spawn(t, "dagger", TeamCrux, Vec2{200, 200})
	h.Index.Rebuild(h.World)

	c := NewCommander(h.Net, a, 0)
	c.Selected = []UnitID{u.ID}
	if err := c.CommandAt(Vec2{201, 200}, false); err != nil {
		t.Fatal(err)
	}
	at := u.AI().Attack
	if at == nil || at.Kind != TargetUnit || at.Unit != enemy.ID {
		t.Errorf("expected attack on %d, got %+v", enemy.ID, at)
	}
}
