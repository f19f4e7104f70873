package main

// Rect is an axis-aligned box in world units; (X, Y) is the lower-left corner
type Rect struct {
	X, Y, W, H float64
}

// RectCentered builds a rect of size w*h around (cx, cy)
func RectCentered(cx, cy, w, h float64) Rect {
	return Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}
}

// RectFromCorners builds the rect spanned by two arbitrary corners
func RectFromCorners(x1, y1, x2, y2 float64) Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func (r Rect) Center() Vec2 { return Vec2{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether the point lies inside r (edges inclusive)
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// ContainsRect reports whether o lies entirely inside r
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// Overlaps reports whether the two rects intersect (touching edges count)
func (r Rect) Overlaps(o Rect) bool {
	return r.X <= o.X+o.W && o.X <= r.X+r.W && r.Y <= o.Y+o.H && o.Y <= r.Y+r.H
}

// Grow pads every side by amount
func (r Rect) Grow(amount float64) Rect {
	return Rect{X: r.X - amount, Y: r.Y - amount, W: r.W + amount*2, H: r.H + amount*2}
}

// DistanceTo is the distance from a point to the nearest point of r (0 inside)
func (r Rect) DistanceTo(p Vec2) float64 {
	dx := max(r.X-p.X, 0, p.X-(r.X+r.W))
	dy := max(r.Y-p.Y, 0, p.Y-(r.Y+r.H))
	return Distance(0, 0, dx, dy)
}

// TileRect is a block footprint in tile coordinates
type TileRect struct {
	X, Y, W, H int
}

// Overlaps reports whether two footprints share at least one tile
func (t TileRect) Overlaps(o TileRect) bool {
	return t.X < o.X+o.W && o.X < t.X+t.W && t.Y < o.Y+o.H && o.Y < t.Y+t.H
}

// Contains reports whether the tile lies inside the footprint
func (t TileRect) Contains(x, y int) bool {
	return x >= t.X && x < t.X+t.W && y >= t.Y && y < t.Y+t.H
}

// World converts the footprint to world units
func (t TileRect) World() Rect {
	return Rect{
		X: float64(t.X)*TileSize - TileSize/2,
		Y: float64(t.Y)*TileSize - TileSize/2,
		W: float64(t.W) * TileSize,
		H: float64(t.H) * TileSize,
	}
}
