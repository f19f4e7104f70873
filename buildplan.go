package main

import "math"

// BuildPlan is a queued intent to place or break one block
type BuildPlan struct {
	X, Y        int
	Rotation    int
	Block       *Block
	Config      any
	Breaking    bool
	Removed     bool
	CachedValid bool
}

// Footprint returns the tiles the plan covers
func (p *BuildPlan) Footprint() TileRect { return p.Block.Footprint(p.X, p.Y) }

// Bounds is the footprint shrunk by a fraction of a tile so that
// neighbouring footprints do not register as intersecting
func (p *BuildPlan) Bounds() Rect { return p.Footprint().World().Grow(-0.5) }

// sameFootprint reports whether both plans cover exactly the same tiles
func (p *BuildPlan) sameFootprint(o *BuildPlan) bool {
	return p.X == o.X && p.Y == o.Y && p.Block.Size == o.Block.Size
}

// PlanSet is an ordered plan list that keeps non-breaking plans from
// overlapping. A plan with an identical footprint replaces the old one in place.
type PlanSet struct {
	plans []*BuildPlan
	index *QuadTree[*BuildPlan]
}

// NewPlanSet creates an empty set whose plans must lie within bounds
func NewPlanSet(bounds Rect) *PlanSet {
	return &PlanSet{index: NewQuadTree[*BuildPlan](bounds)}
}

func (s *PlanSet) Len() int { return len(s.plans) }

// All returns the plans in queue order
func (s *PlanSet) All() []*BuildPlan { return s.plans }

// First returns the head of the queue, or nil
func (s *PlanSet) First() *BuildPlan {
	if len(s.plans) == 0 {
		return nil
	}
	return s.plans[0]
}

// Overlapping returns non-breaking plans sharing a tile with fp
func (s *PlanSet) Overlapping(fp TileRect) []*BuildPlan {
	var out []*BuildPlan
	for p := range s.index.Intersect(fp.World().Grow(-0.5)) {
		if p.Footprint().Overlaps(fp) {
			out = append(out, p)
		}
	}
	return out
}

// Add queues p. It returns the plan p replaced, if any, and false when p
// was rejected because it overlaps a plan with a different footprint.
func (s *PlanSet) Add(p *BuildPlan) (*BuildPlan, bool) {
	if p.Breaking {
		old := s.At(p.X, p.Y)
		if old != nil {
			s.replace(old, p)
			return old, true
		}
		s.plans = append(s.plans, p)
		return nil, true
	}
	var same *BuildPlan
	for _, o := range s.Overlapping(p.Footprint()) {
		if !o.sameFootprint(p) {
			return nil, false
		}
		same = o
	}
	if same == nil {
		// a breaking plan on the origin tile is superseded
		if old := s.At(p.X, p.Y); old != nil && old.Breaking {
			same = old
		}
	}
	if same != nil {
		s.replace(same, p)
		return same, true
	}
	if !s.index.Insert(p) {
		return nil, false
	}
	s.plans = append(s.plans, p)
	return nil, true
}

func (s *PlanSet) replace(old, p *BuildPlan) {
	if !old.Breaking {
		s.index.Remove(old)
	}
	if !p.Breaking {
		s.index.Insert(p)
	}
	for i, o := range s.plans {
		if o == old {
			s.plans[i] = p
			return
		}
	}
}

// At returns the plan whose origin is (x, y)
func (s *PlanSet) At(x, y int) *BuildPlan {
	for _, p := range s.plans {
		if p.X == x && p.Y == y {
			return p
		}
	}
	return nil
}

// Remove drops p from the set
func (s *PlanSet) Remove(p *BuildPlan) bool {
	for i, o := range s.plans {
		if o == p {
			s.plans = append(s.plans[:i], s.plans[i+1:]...)
			if !p.Breaking {
				s.index.Remove(p)
			}
			p.Removed = true
			return true
		}
	}
	return false
}

// RemoveArea drops every non-breaking plan overlapping area and returns them
func (s *PlanSet) RemoveArea(area TileRect) []*BuildPlan {
	hits := s.Overlapping(area)
	for _, p := range hits {
		s.Remove(p)
	}
	return hits
}

// Clear empties the set
func (s *PlanSet) Clear() {
	s.plans = nil
	s.index.Clear(s.index.Bounds())
}

// toTile rounds a world coordinate to the nearest tile index
func toTile(v float64) int { return int(math.Round(v / TileSize)) }

// RotatePlans turns plans a quarter turn around tile (ox, oy);
// direction >= 0 is counter-clockwise. Breaking plans stay put.
func RotatePlans(plans []*BuildPlan, ox, oy, direction int) {
	for _, p := range plans {
		if p.Breaking {
			continue
		}
		off := p.Block.Offset()
		wx := float64(p.X-ox)*TileSize + off
		wy := float64(p.Y-oy)*TileSize + off
		step := 1
		if direction >= 0 {
			wx, wy = -wy, wx
		} else {
			wx, wy = wy, -wx
			step = -1
		}
		p.X = toTile(wx-off) + ox
		p.Y = toTile(wy-off) + oy
		if p.Block.Rotate {
			p.Rotation = Mod(p.Rotation+step, 4)
		}
	}
}

// FlipPlans mirrors plans across the column ox (flipX) or the row oy
func FlipPlans(plans []*BuildPlan, ox, oy int, flipX bool) {
	origin := float64(oy) * TileSize
	if flipX {
		origin = float64(ox) * TileSize
	}
	for _, p := range plans {
		if p.Breaking {
			continue
		}
		off := p.Block.Offset()
		if flipX {
			v := -(float64(p.X)*TileSize - origin + off) + origin
			p.X = toTile(v - off)
		} else {
			v := -(float64(p.Y)*TileSize - origin + off) + origin
			p.Y = toTile(v - off)
		}
		p.Rotation = p.Block.FlipRotation(p.Rotation, flipX)
	}
}

// RemoveSelection drops the unit's plans overlapping area and returns the
// packed positions of the team's rebuild plans inside it, which the caller
// removes through deletePlans.
func RemoveSelection(u *Unit, td *TeamData, area TileRect) []int32 {
	if u != nil && u.Plans != nil {
		u.Plans.RemoveArea(area)
	}
	var positions []int32
	if td == nil {
		return nil
	}
	for _, p := range td.Plans {
		if p.Block.Footprint(p.X, p.Y).Overlaps(area) {
			positions = append(positions, PackPos(p.X, p.Y))
		}
	}
	return positions
}
