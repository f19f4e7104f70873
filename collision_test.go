package main

import "testing"

func TestRectOverlapsAndContains(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	if !a.Overlaps(Rect{X: 5, Y: 5, W: 10, H: 10}) {
		t.Error("rects should overlap")
	}
	if a.Overlaps(Rect{X: 11, Y: 0, W: 2, H: 2}) {
		t.Error("rects should not overlap")
	}
	if !a.ContainsRect(Rect{X: 1, Y: 1, W: 2, H: 2}) {
		t.Error("inner rect should be contained")
	}
	if a.ContainsRect(Rect{X: 9, Y: 9, W: 2, H: 2}) {
		t.Error("straddling rect should not be contained")
	}
	if d := a.DistanceTo(Vec2{13, 14}); d != 5 {
		t.Errorf("expected distance 5, got %v", d)
	}
}

func TestRectFromCornersNormalizes(t *testing.T) {
	r := RectFromCorners(10, 2, 4, 8)
	if r.X != 4 || r.Y != 2 || r.W != 6 || r.H != 6 {
		t.Errorf("unexpected rect %+v", r)
	}
}

func TestTileRectOverlap(t *testing.T) {
	a := TileRect{X: 0, Y: 0, W: 2, H: 2}
	if a.Overlaps(TileRect{X: 2, Y: 0, W: 1, H: 1}) {
		t.Error("adjacent footprints must not overlap")
	}
	if !a.Overlaps(TileRect{X: 1, Y: 1, W: 2, H: 2}) {
		t.Error("footprints sharing tile (1,1) should overlap")
	}
	if !a.Contains(1, 1) || a.Contains(2, 2) {
		t.Error("contains mismatch")
	}
}
