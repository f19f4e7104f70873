package main

import (
	"cmp"
	"math"
	"slices"
)

// formationPadding is added to the largest hit size to get slot spacing
const formationPadding = 2.0

// UnitGroup is a formation: members share an anchor and each owns one slot
type UnitGroup struct {
	Units     []UnitID
	Positions []Vec2 // anchor-relative slot of Units[i]
	Anchor    Vec2
	Layer     int
}

// ringSlots lays out n slot offsets in concentric rings. Slot 0 is the
// anchor itself; ring k holds as many slots as fit on its circumference.
func ringSlots(n int, spacing float64) []Vec2 {
	slots := make([]Vec2, 0, n)
	if n == 0 {
		return slots
	}
	slots = append(slots, Vec2{})
	for ring := 1; len(slots) < n; ring++ {
		radius := float64(ring) * spacing
		count := int(2 * math.Pi * float64(ring))
		count = min(count, n-len(slots))
		for i := 0; i < count; i++ {
			a := 2 * math.Pi * float64(i) / float64(count)
			slots = append(slots, Vec2{math.Cos(a) * radius, math.Sin(a) * radius})
		}
	}
	return slots
}

// CalculateFormation computes member slots around anchor. Inner slots go
// to the members closest to the anchor so nobody crosses the formation.
func (g *UnitGroup) CalculateFormation(w *World, anchor Vec2, layer int) {
	g.Anchor = anchor
	g.Layer = layer

	units := make([]*Unit, 0, len(g.Units))
	spacing := 0.0
	for _, id := range g.Units {
		if u := w.Unit(id); u != nil {
			units = append(units, u)
			spacing = max(spacing, u.HitSize())
		}
	}
	spacing += formationPadding
	slices.SortStableFunc(units, func(a, b *Unit) int {
		if c := cmp.Compare(a.Pos.Dst(anchor), b.Pos.Dst(anchor)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	g.Units = g.Units[:0]
	g.Positions = ringSlots(len(units), spacing)
	for i, u := range units {
		g.Units = append(g.Units, u.ID)
		if ai := u.AI(); ai != nil {
			ai.Group = g
			ai.GroupIndex = i
		}
	}
}

// AssignFormations buckets a finalized batch by collision layer and gives
// every bucket with more than one idle member a shared group. Units that
// vanished, stopped taking orders, or still follow a queue are skipped.
func AssignFormations(w *World, anchor Vec2, ids []UnitID) []*UnitGroup {
	var buckets [PhysicsLayers][]UnitID
	for _, id := range ids {
		u := w.Unit(id)
		if u == nil {
			continue
		}
		ai := u.AI()
		if ai == nil || ai.Following() {
			continue
		}
		layer := u.CollisionLayer()
		if layer < 0 || layer >= PhysicsLayers {
			layer = 0
		}
		buckets[layer] = append(buckets[layer], id)
	}

	var groups []*UnitGroup
	for layer, members := range buckets {
		if len(members) <= 1 {
			continue
		}
		g := &UnitGroup{Units: members}
		g.CalculateFormation(w, anchor, layer)
		groups = append(groups, g)
	}
	return groups
}
