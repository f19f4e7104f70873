package main

import "math"

// TileSize is the width of one tile in world units
const TileSize = 8.0

// ClampInt restricts v to [min, max]
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Sign returns -1, 0 or 1
func Sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Mod is a modulo that never returns a negative result
func Mod(v, m int) int {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}

// Vec2 is a world-space position. It is comparable and used as a map key.
type Vec2 struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Finite reports whether neither component is NaN or infinite
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Dst returns the distance between two points
func (v Vec2) Dst(o Vec2) float64 { return Distance(v.X, v.Y, o.X, o.Y) }

// Within reports whether o is at most r away
func (v Vec2) Within(o Vec2, r float64) bool {
	dx, dy := o.X-v.X, o.Y-v.Y
	return dx*dx+dy*dy <= r*r
}

// Limit shortens v to at most max length
func (v Vec2) Limit(max float64) Vec2 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// Trns returns a vector of length l pointing at angle degrees
func Trns(angle, l float64) Vec2 {
	rad := angle * math.Pi / 180
	return Vec2{math.Cos(rad) * l, math.Sin(rad) * l}
}

// Distance returns the distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// PackPos packs tile coordinates into one int32 (x high, y low)
func PackPos(x, y int) int32 {
	return int32(x)<<16 | int32(y)&0xFFFF
}

// UnpackPos is the inverse of PackPos
func UnpackPos(pos int32) (int, int) {
	return int(int16(pos >> 16)), int(int16(pos & 0xFFFF))
}

// Rotation values: 0 east, 1 north, 2 west, 3 south.
var rotationDirs = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// RotationDir returns the unit tile step for a rotation
func RotationDir(rotation int) (int, int) {
	d := rotationDirs[Mod(rotation, 4)]
	return d[0], d[1]
}

// QuantizeDirection maps a tile delta to the nearest cardinal rotation.
// Exact diagonals round counter-clockwise (45° is north).
func QuantizeDirection(dx, dy int) int {
	ax, ay := abs(dx), abs(dy)
	switch {
	case dx == 0 && dy == 0:
		return -1
	case ax > ay:
		if dx > 0 {
			return 0
		}
		return 2
	case ay > ax:
		if dy > 0 {
			return 1
		}
		return 3
	}
	// exact diagonal
	switch {
	case dx > 0 && dy > 0:
		return 1
	case dx < 0 && dy > 0:
		return 2
	case dx < 0 && dy < 0:
		return 3
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RelativeTo returns the rotation from one tile to an adjacent tile, or -1
func RelativeTo(x, y, x2, y2 int) int {
	switch {
	case x2 == x+1 && y2 == y:
		return 0
	case x2 == x && y2 == y+1:
		return 1
	case x2 == x-1 && y2 == y:
		return 2
	case x2 == x && y2 == y-1:
		return 3
	}
	return -1
}
