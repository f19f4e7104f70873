package main

import (
	"container/heap"
	"iter"
)

// DefaultMaxLineLength caps the number of points one drag can produce
const DefaultMaxLineLength = 100

// astarMargin is how far outside the drag box the conveyor search may wander
const astarMargin = 10

// PlacementInput carries the active block and modifier state of a drag
type PlacementInput struct {
	Block               *Block
	Rotation            int
	OverrideRotation    bool // pin every point to Rotation unless placing diagonally
	DiagonalHeld        bool
	SwapDiagonal        bool // mobile setting that inverts the diagonal key
	ConveyorPathfinding bool
	MaxLength           int
}

// PlaceLine is one emitted placement point
type PlaceLine struct {
	X, Y     int
	Rotation int
	Last     bool
}

type point struct{ X, Y int }

// Diagonal reports whether the drag uses diagonal placement
func (in PlacementInput) Diagonal() bool {
	d := in.DiagonalHeld != in.SwapDiagonal
	if in.Block != nil && in.Block.SwapDiagonal {
		d = !d
	}
	return d
}

// PlacementPath lazily yields the placement points for a drag from
// (x1, y1) to (x2, y2). The world may be nil, in which case it is treated
// as empty.
func PlacementPath(w *World, in PlacementInput, x1, y1, x2, y2 int) iter.Seq[PlaceLine] {
	return func(yield func(PlaceLine) bool) {
		block := in.Block
		if block == nil {
			return
		}
		diagonal := in.Diagonal()
		start, end := buildAt(w, x1, y1), buildAt(w, x2, y2)

		var points []point
		switch {
		case diagonal && block.AllowDiagonal:
			if start != nil && end != nil && start.Block.Chained && end.Block.Chained &&
				block.CanReplace(start.Block) && block.CanReplace(end.Block) {
				points = upgradeLine(w, block, in.ConveyorPathfinding, x1, y1, x2, y2)
			} else {
				points = pathfindLine(w, block, block.ConveyorPlacement && in.ConveyorPathfinding, x1, y1, x2, y2)
			}
		case block.AllowRectangle:
			points = normalizeRectangle(x1, y1, x2, y2, block.Size)
		default:
			points = normalizeLine(x1, y1, x2, y2)
		}

		maxLen := in.MaxLength
		if maxLen <= 0 {
			maxLen = DefaultMaxLineLength
		}
		if len(points) > maxLen {
			points = points[:maxLen]
		}

		endRotation := -1
		if len(points) > 1 && end != nil && end.Block.Chained {
			stl := points[len(points)-2]
			if b := buildAt(w, stl.X, stl.Y); b == nil || !b.Block.Chained {
				endRotation = end.Rotation
			}
		}

		perSegment := !in.OverrideRotation || diagonal
		baseRotation := in.Rotation
		if perSegment && (x1 != x2 || y1 != y2) {
			baseRotation = QuantizeDirection(x2-x1, y2-y1)
		}

		// points overlapping the previously kept footprint are dropped
		keep := make([]bool, len(points))
		lastKept := -1
		var last *TileRect
		for i, p := range points {
			fp := block.Footprint(p.X, p.Y)
			if last != nil && fp.Overlaps(*last) {
				continue
			}
			keep[i], lastKept, last = true, i, &fp
		}

		for i, p := range points {
			if !keep[i] {
				continue
			}
			var next *point
			if i < len(points)-1 {
				next = &points[i+1]
			}
			line := PlaceLine{X: p.X, Y: p.Y, Rotation: in.Rotation, Last: i == lastKept}
			if perSegment {
				r := baseRotation
				switch {
				case next != nil:
					r = stepRotation(p, *next)
				case endRotation != -1:
					r = endRotation
				case block.ConveyorPlacement && i > 0:
					r = stepRotation(points[i-1], p)
				}
				if r != -1 {
					line.Rotation = r
				}
			}
			if !yield(line) {
				return
			}
		}
	}
}

// stepRotation is the rotation facing from a to b
func stepRotation(a, b point) int {
	if r := RelativeTo(a.X, a.Y, b.X, b.Y); r != -1 {
		return r
	}
	return QuantizeDirection(b.X-a.X, b.Y-a.Y)
}

// LinePlans materializes a placement path into build plans
func LinePlans(w *World, in PlacementInput, x1, y1, x2, y2 int) []*BuildPlan {
	var plans []*BuildPlan
	for l := range PlacementPath(w, in, x1, y1, x2, y2) {
		plans = append(plans, &BuildPlan{
			X:           l.X,
			Y:           l.Y,
			Rotation:    l.Rotation,
			Block:       in.Block,
			CachedValid: ValidPlace(w, in.Block, l.X, l.Y, l.Rotation),
		})
	}
	return plans
}

// ValidPlace reports whether block fits at (x, y): every tile is free or
// the only building there has the same footprint and can be replaced.
func ValidPlace(w *World, block *Block, x, y, rotation int) bool {
	if w == nil {
		return true
	}
	fp := block.Footprint(x, y)
	for ty := fp.Y; ty < fp.Y+fp.H; ty++ {
		for tx := fp.X; tx < fp.X+fp.W; tx++ {
			if !w.InBounds(tx, ty) {
				return false
			}
			b := w.Build(tx, ty)
			if b == nil {
				continue
			}
			if b.X != x || b.Y != y || b.Block.Size != block.Size {
				return false
			}
			rotate := b.Block == block && block.Rotate && Mod(rotation, 4) != b.Rotation
			if !rotate && !block.CanReplace(b.Block) {
				return false
			}
		}
	}
	return true
}

// NormalizeArea clamps a drag box so neither side exceeds maxLength tiles
func NormalizeArea(x1, y1, x2, y2, maxLength int) TileRect {
	if abs(x2-x1) >= maxLength {
		x2 = x1 + Sign(x2-x1)*(maxLength-1)
	}
	if abs(y2-y1) >= maxLength {
		y2 = y1 + Sign(y2-y1)*(maxLength-1)
	}
	return TileRect{X: min(x1, x2), Y: min(y1, y2), W: abs(x2-x1) + 1, H: abs(y2-y1) + 1}
}

func buildAt(w *World, x, y int) *Building {
	if w == nil {
		return nil
	}
	return w.Build(x, y)
}

// normalizeLine is a straight 4-connected line along the dominant axis
func normalizeLine(x1, y1, x2, y2 int) []point {
	var points []point
	if abs(x2-x1) > abs(y2-y1) {
		for i := 0; i <= abs(x2-x1); i++ {
			points = append(points, point{x1 + i*Sign(x2-x1), y1})
		}
	} else {
		for i := 0; i <= abs(y2-y1); i++ {
			points = append(points, point{x1, y1 + i*Sign(y2-y1)})
		}
	}
	return points
}

// normalizeRectangle fills the box between two corners, stepping by size
func normalizeRectangle(x1, y1, x2, y2, size int) []point {
	size = max(size, 1)
	var points []point
	for dy := 0; dy <= abs(y2-y1); dy += size {
		for dx := 0; dx <= abs(x2-x1); dx += size {
			points = append(points, point{x1 + dx*Sign(x2-x1), y1 + dy*Sign(y2-y1)})
		}
	}
	return points
}

// bresenham walks the 8-connected line between two tiles; it never
// visits a tile twice
func bresenham(x1, y1, x2, y2 int) []point {
	dx, dy := abs(x2-x1), -abs(y2-y1)
	sx, sy := Sign(x2-x1), Sign(y2-y1)
	e := dx + dy
	points := []point{{x1, y1}}
	for x1 != x2 || y1 != y2 {
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x1 += sx
		}
		if e2 <= dx {
			e += dx
			y1 += sy
		}
		points = append(points, point{x1, y1})
	}
	return points
}

// upgradeLine follows an existing chain from start to end. A broken chain
// falls back to a fresh conveyor path.
func upgradeLine(w *World, block *Block, pathfinding bool, x1, y1, x2, y2 int) []point {
	b := w.Build(x1, y1)
	points := []point{{b.X, b.Y}}
	closed := map[*Building]bool{b: true}
	for b.Block.Chained && (b.X != x2 || b.Y != y2) {
		next := b.Next()
		if next == nil || closed[next] {
			if next == nil {
				return pathfindLine(w, block, pathfinding, x1, y1, x2, y2)
			}
			break
		}
		closed[next] = true
		b = next
		points = append(points, point{b.X, b.Y})
	}
	return points
}

// pathfindLine returns a conveyor path around obstacles when astar is set,
// otherwise a Bresenham line
func pathfindLine(w *World, block *Block, astar bool, x1, y1, x2, y2 int) []point {
	if astar && w != nil {
		if path := conveyorPath(w, block, x1, y1, x2, y2); path != nil {
			return path
		}
		return normalizeLine(x1, y1, x2, y2)
	}
	return bresenham(x1, y1, x2, y2)
}

type pathNode struct {
	x, y, dir int
}

type pathItem struct {
	node pathNode
	f, g int
	seq  int
}

type pathQueue []pathItem

func (q pathQueue) Len() int { return len(q) }
func (q pathQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *pathQueue) Push(x any)   { *q = append(*q, x.(pathItem)) }
func (q *pathQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// conveyorPath is a 4-connected A* over (tile, heading) states. Turning
// costs an extra step so straight runs are preferred. Tiles holding a
// building the block cannot replace are impassable, except the endpoints.
func conveyorPath(w *World, block *Block, x1, y1, x2, y2 int) []point {
	area := TileRect{
		X: min(x1, x2) - astarMargin,
		Y: min(y1, y2) - astarMargin,
		W: abs(x2-x1) + 1 + astarMargin*2,
		H: abs(y2-y1) + 1 + astarMargin*2,
	}
	passable := func(x, y int) bool {
		if !w.InBounds(x, y) || !area.Contains(x, y) {
			return false
		}
		if (x == x1 && y == y1) || (x == x2 && y == y2) {
			return true
		}
		b := w.Build(x, y)
		return b == nil || !b.Block.Solid || b.Block == block || block.CanReplace(b.Block)
	}
	h := func(x, y int) int { return abs(x2-x) + abs(y2-y) }

	start := pathNode{x1, y1, -1}
	cost := map[pathNode]int{start: 0}
	parent := map[pathNode]pathNode{}
	q := &pathQueue{{node: start, f: h(x1, y1)}}
	seq := 0
	for q.Len() > 0 {
		cur := heap.Pop(q).(pathItem)
		n := cur.node
		if cur.g > cost[n] {
			continue
		}
		if n.x == x2 && n.y == y2 {
			var rev []point
			for {
				rev = append(rev, point{n.x, n.y})
				p, ok := parent[n]
				if !ok {
					break
				}
				n = p
			}
			path := make([]point, len(rev))
			for i, p := range rev {
				path[len(rev)-1-i] = p
			}
			return path
		}
		for dir := 0; dir < 4; dir++ {
			dx, dy := RotationDir(dir)
			nx, ny := n.x+dx, n.y+dy
			if !passable(nx, ny) {
				continue
			}
			step := 1
			if n.dir != -1 && n.dir != dir {
				step = 2
			}
			next := pathNode{nx, ny, dir}
			g := cur.g + step
			if old, seen := cost[next]; seen && old <= g {
				continue
			}
			cost[next] = g
			parent[next] = n
			seq++
			heap.Push(q, pathItem{node: next, f: g + h(nx, ny), g: g, seq: seq})
		}
	}
	return nil
}
