package main

import (
	"cmp"
	"iter"
	"math"
	"slices"
)

const (
	quadMaxItems = 5 // items per node before it splits
	quadMaxDepth = 8
)

// Boxed is anything the quadtree can hold
type Boxed interface {
	comparable
	Bounds() Rect
}

type quadItem[T Boxed] struct {
	v   T
	box Rect
	seq uint64
}

type quadNode[T Boxed] struct {
	bounds   Rect
	depth    int
	items    []quadItem[T]
	children *[4]*quadNode[T]
}

// QuadTree is a fixed-bounds region quadtree. Items live in the deepest node
// that fully contains their box; items straddling a split stay in the parent.
type QuadTree[T Boxed] struct {
	root    *quadNode[T]
	where   map[T]*quadNode[T]
	seq     uint64
	maxHalf float64
}

// NewQuadTree returns an empty tree covering bounds
func NewQuadTree[T Boxed](bounds Rect) *QuadTree[T] {
	q := &QuadTree[T]{}
	q.Clear(bounds)
	return q
}

// Clear resets the tree to an empty one covering bounds
func (q *QuadTree[T]) Clear(bounds Rect) {
	q.root = &quadNode[T]{bounds: bounds}
	if q.where == nil {
		q.where = make(map[T]*quadNode[T])
	} else {
		clear(q.where)
	}
	q.seq = 0
	q.maxHalf = 0
}

// Bounds returns the area covered by the tree
func (q *QuadTree[T]) Bounds() Rect { return q.root.bounds }

// Len returns the number of items
func (q *QuadTree[T]) Len() int { return len(q.where) }

// Insert adds v. It returns false when the centre of v lies outside the
// tree bounds or v is already present; the tree never grows.
func (q *QuadTree[T]) Insert(v T) bool {
	if _, ok := q.where[v]; ok {
		return false
	}
	box := v.Bounds()
	c := box.Center()
	if !q.root.bounds.Contains(c.X, c.Y) {
		return false
	}
	q.seq++
	it := quadItem[T]{v: v, box: box, seq: q.seq}
	q.maxHalf = max(q.maxHalf, box.W/2, box.H/2)
	q.insert(q.root, it)
	return true
}

func (q *QuadTree[T]) insert(n *quadNode[T], it quadItem[T]) {
	for {
		if n.children == nil {
			n.items = append(n.items, it)
			q.where[it.v] = n
			if len(n.items) > quadMaxItems && n.depth < quadMaxDepth {
				q.split(n)
			}
			return
		}
		child := n.childFor(it.box)
		if child == nil {
			n.items = append(n.items, it)
			q.where[it.v] = n
			return
		}
		n = child
	}
}

func (q *QuadTree[T]) split(n *quadNode[T]) {
	hw, hh := n.bounds.W/2, n.bounds.H/2
	b := n.bounds
	n.children = &[4]*quadNode[T]{
		{bounds: Rect{b.X, b.Y, hw, hh}, depth: n.depth + 1},
		{bounds: Rect{b.X + hw, b.Y, hw, hh}, depth: n.depth + 1},
		{bounds: Rect{b.X, b.Y + hh, hw, hh}, depth: n.depth + 1},
		{bounds: Rect{b.X + hw, b.Y + hh, hw, hh}, depth: n.depth + 1},
	}
	items := n.items
	n.items = nil
	for _, it := range items {
		q.insert(n, it)
	}
}

func (n *quadNode[T]) childFor(box Rect) *quadNode[T] {
	for _, c := range n.children {
		if c.bounds.ContainsRect(box) {
			return c
		}
	}
	return nil
}

// Remove deletes v and reports whether it was present
func (q *QuadTree[T]) Remove(v T) bool {
	n, ok := q.where[v]
	if !ok {
		return false
	}
	delete(q.where, v)
	n.items = slices.DeleteFunc(n.items, func(it quadItem[T]) bool { return it.v == v })
	return true
}

// Intersect yields every item whose bounds intersect r, in no particular order
func (q *QuadTree[T]) Intersect(r Rect) iter.Seq[T] {
	return func(yield func(T) bool) {
		q.visit(q.root, r, func(it quadItem[T]) bool { return yield(it.v) })
	}
}

func (q *QuadTree[T]) visit(n *quadNode[T], r Rect, fn func(quadItem[T]) bool) bool {
	for _, it := range n.items {
		if it.box.Overlaps(r) && !fn(it) {
			return false
		}
	}
	if n.children == nil {
		return true
	}
	for _, c := range n.children {
		// items never extend past their node unless stored at the root
		if c.bounds.Overlaps(r) && !q.visit(c, r, fn) {
			return false
		}
	}
	return true
}

// QueryRect returns every item intersecting r in insertion order
func (q *QuadTree[T]) QueryRect(r Rect) []T {
	var hits []quadItem[T]
	q.visit(q.root, r, func(it quadItem[T]) bool {
		hits = append(hits, it)
		return true
	})
	slices.SortFunc(hits, func(a, b quadItem[T]) int { return cmp.Compare(a.seq, b.seq) })
	out := make([]T, len(hits))
	for i, it := range hits {
		out[i] = it.v
	}
	return out
}

// Nearest returns the item minimizing distance(p, centre) - halfSize among
// items accepted by pred. Ties go to the earliest inserted item.
func (q *QuadTree[T]) Nearest(p Vec2, pred func(T) bool) (T, bool) {
	var (
		best     T
		bestCost = math.Inf(1)
		bestSeq  uint64
		found    bool
	)
	var walk func(n *quadNode[T])
	walk = func(n *quadNode[T]) {
		if n.bounds.DistanceTo(p)-q.maxHalf > bestCost && n != q.root {
			return
		}
		for _, it := range n.items {
			c := it.box.Center()
			cost := p.Dst(c) - max(it.box.W, it.box.H)/2
			if cost > bestCost || (cost == bestCost && it.seq > bestSeq) {
				continue
			}
			if pred != nil && !pred(it.v) {
				continue
			}
			best, bestCost, bestSeq, found = it.v, cost, it.seq, true
		}
		if n.children == nil {
			return
		}
		order := *n.children
		slices.SortStableFunc(order[:], func(a, b *quadNode[T]) int {
			return cmp.Compare(a.bounds.DistanceTo(p), b.bounds.DistanceTo(p))
		})
		for _, c := range order {
			walk(c)
		}
	}
	walk(q.root)
	return best, found
}

// SpatialIndex holds one unit tree and one building tree per team. It is
// rebuilt from scratch once per tick; queries between rebuilds see one snapshot.
type SpatialIndex struct {
	bounds Rect
	units  map[Team]*QuadTree[*Unit]
	builds map[Team]*QuadTree[*Building]
}

// NewSpatialIndex returns an empty index
func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		units:  make(map[Team]*QuadTree[*Unit]),
		builds: make(map[Team]*QuadTree[*Building]),
	}
}

// Clear empties every tree and sets the covered area (keeps allocated trees)
func (s *SpatialIndex) Clear(bounds Rect) {
	s.bounds = bounds
	for _, t := range s.units {
		t.Clear(bounds)
	}
	for _, t := range s.builds {
		t.Clear(bounds)
	}
}

// Rebuild clears the index and inserts every live unit and building of w
func (s *SpatialIndex) Rebuild(w *World) {
	s.Clear(w.Bounds())
	for _, u := range w.Units() {
		s.tree(u.Team).Insert(u)
	}
	for _, b := range w.Buildings() {
		s.buildTree(b.Team).Insert(b)
	}
}

func (s *SpatialIndex) tree(team Team) *QuadTree[*Unit] {
	t, ok := s.units[team]
	if !ok {
		t = NewQuadTree[*Unit](s.bounds)
		s.units[team] = t
	}
	return t
}

func (s *SpatialIndex) buildTree(team Team) *QuadTree[*Building] {
	t, ok := s.builds[team]
	if !ok {
		t = NewQuadTree[*Building](s.bounds)
		s.builds[team] = t
	}
	return t
}

// Units returns the unit tree of a team; a team with no units gets an empty tree
func (s *SpatialIndex) Units(team Team) *QuadTree[*Unit] { return s.tree(team) }

// Buildings returns the building tree of a team
func (s *SpatialIndex) Buildings(team Team) *QuadTree[*Building] { return s.buildTree(team) }

// UnitTeams returns the teams that have a unit tree, in ascending order
func (s *SpatialIndex) UnitTeams() []Team {
	teams := make([]Team, 0, len(s.units))
	for t := range s.units {
		teams = append(teams, t)
	}
	slices.Sort(teams)
	return teams
}
