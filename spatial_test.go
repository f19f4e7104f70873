package main

import "testing"

type testBox struct{ r Rect }

func (b *testBox) Bounds() Rect { return b.r }

func boxAt(x, y, size float64) *testBox {
	return &testBox{RectCentered(x, y, size, size)}
}

func TestQuadTreeInsertAndQuery(t *testing.T) {
	q := NewQuadTree[*testBox](Rect{W: 1000, H: 1000})
	a := boxAt(100, 100, 10)
	b := boxAt(900, 900, 10)
	if !q.Insert(a) || !q.Insert(b) {
		t.Fatal("insert failed")
	}
	if q.Insert(a) {
		t.Error("duplicate insert accepted")
	}
	if q.Insert(boxAt(2000, 10, 4)) {
		t.Error("out of bounds insert accepted")
	}
	if q.Len() != 2 {
		t.Errorf("expected 2 items, got %d", q.Len())
	}

	hits := q.QueryRect(Rect{X: 50, Y: 50, W: 100, H: 100})
	if len(hits) != 1 || hits[0] != a {
		t.Errorf("query near a: %v", hits)
	}
	if hits := q.QueryRect(Rect{X: 400, Y: 400, W: 10, H: 10}); len(hits) != 0 {
		t.Errorf("empty area returned %d", len(hits))
	}
}

func TestQuadTreeSplitKeepsOrder(t *testing.T) {
	q := NewQuadTree[*testBox](Rect{W: 1000, H: 1000})
	var all []*testBox
	for i := 0; i < 100; i++ {
		b := boxAt(float64(5+i*9), float64(5+(i*37)%990), 4)
		all = append(all, b)
		q.Insert(b)
	}
	hits := q.QueryRect(Rect{W: 1000, H: 1000})
	if len(hits) != len(all) {
		t.Fatalf("expected %d hits, got %d", len(all), len(hits))
	}
	for i := range hits {
		if hits[i] != all[i] {
			t.Fatalf("hit %d out of insertion order", i)
		}
	}

	n := 0
	for range q.Intersect(Rect{W: 500, H: 1000}) {
		n++
	}
	if n == 0 || n == len(all) {
		t.Errorf("half query found %d", n)
	}
}

func TestQuadTreeRemoveAndClear(t *testing.T) {
	q := NewQuadTree[*testBox](Rect{W: 100, H: 100})
	a := boxAt(10, 10, 2)
	q.Insert(a)
	if !q.Remove(a) || q.Remove(a) {
		t.Error("remove should succeed once")
	}
	if len(q.QueryRect(Rect{W: 100, H: 100})) != 0 {
		t.Error("removed item still found")
	}

	q.Insert(a)
	q.Clear(Rect{W: 50, H: 50})
	if q.Len() != 0 || q.Bounds().W != 50 {
		t.Error("clear should empty the tree and reset bounds")
	}
}

func TestQuadTreeNearest(t *testing.T) {
	q := NewQuadTree[*testBox](Rect{W: 1000, H: 1000})
	small := boxAt(100, 100, 2)
	big := boxAt(130, 100, 40)
	far := boxAt(800, 800, 2)
	for _, b := range []*testBox{small, big, far} {
		q.Insert(b)
	}

	// the big box's edge is closer than the small box's centre
	got, ok := q.Nearest(Vec2{112, 100}, nil)
	if !ok || got != big {
		t.Errorf("expected big box, got %+v", got)
	}
	got, ok = q.Nearest(Vec2{112, 100}, func(b *testBox) bool { return b != big })
	if !ok || got != small {
		t.Errorf("filtered nearest: %+v", got)
	}
	if _, ok := NewQuadTree[*testBox](Rect{W: 10, H: 10}).Nearest(Vec2{}, nil); ok {
		t.Error("empty tree has no nearest")
	}
}

func TestSpatialIndexRebuild(t *testing.T) {
	w := NewWorld(64, 64, DefaultContent(), DefaultRules())
	dagger := w.Content.UnitType("dagger")
	w.AddUnit(dagger, TeamSharded, Vec2{40, 40})
	w.AddUnit(dagger, TeamCrux, Vec2{44, 40})
	w.Place(w.Content.Block("router"), TeamSharded, 5, 5, 0)

	idx := NewSpatialIndex()
	idx.Rebuild(w)
	if idx.Units(TeamSharded).Len() != 1 || idx.Units(TeamCrux).Len() != 1 {
		t.Error("units not bucketed per team")
	}
	if idx.Buildings(TeamSharded).Len() != 1 || idx.Buildings(TeamCrux).Len() != 0 {
		t.Error("buildings not bucketed per team")
	}
	if teams := idx.UnitTeams(); len(teams) != 2 || teams[0] != TeamSharded {
		t.Errorf("unit teams %v", teams)
	}

	w.RemoveUnit(w.Units()[0])
	idx.Rebuild(w)
	if idx.Units(TeamSharded).Len() != 0 {
		t.Error("rebuild kept a removed unit")
	}
}

func TestQuadTreeNearestTieAcrossNodes(t *testing.T) {
	q := NewQuadTree[*testBox](Rect{W: 1000, H: 1000})
	first := boxAt(580, 100, 2)
	second := boxAt(380, 100, 2)
	q.Insert(first)
	q.Insert(second)
	for i := 0; i < 6; i++ {
		q.Insert(boxAt(float64(700+i*40), 900, 2))
	}
	if q.root.children == nil || q.where[first] == q.where[second] {
		t.Fatal("setup: the two boxes should sit in different child nodes")
	}

	// second's node is searched first; both are 99 away
	got, ok := q.Nearest(Vec2{480, 100}, nil)
	if !ok || got != first {
		t.Errorf("tie should go to the first inserted box, got %+v", got)
	}
}
