package main

import (
	"errors"
	"fmt"
)

// Team identifies a side. Derelict buildings can be interacted with by anyone.
type Team uint8

const (
	TeamDerelict Team = iota
	TeamSharded
	TeamCrux
	TeamMalis
)

var (
	ErrOutsideWorld = errors.New("position outside world")
	ErrOccupied     = errors.New("tile occupied")
)

// CanInteract reports whether members of team may use buildings of other
func (t Team) CanInteract(other Team) bool {
	return t == other || other == TeamDerelict
}

// BlockPlan is a rebuild ghost kept in team data after a building is lost
type BlockPlan struct {
	X, Y     int
	Rotation int
	Block    *Block
	Config   any
	Removed  bool
}

// TeamData holds per-team state shared by all of its players
type TeamData struct {
	Team  Team
	Plans []*BlockPlan
}

// World is the in-memory tile grid with building and unit arenas.
// Entities are addressed by id; lookups return nil for anything removed.
type World struct {
	Width, Height int
	Tick          uint64
	Content       *Content
	Rules         Rules

	tiles      []*Building
	builds     map[int32]*Building
	buildOrder []*Building
	units      map[UnitID]*Unit
	unitOrder  []*Unit
	nextUnit   UnitID
	teams      map[Team]*TeamData
}

// NewWorld creates an empty world of width*height tiles
func NewWorld(width, height int, content *Content, rules Rules) *World {
	return &World{
		Width:   width,
		Height:  height,
		Content: content,
		Rules:   rules,
		tiles:   make([]*Building, width*height),
		builds:  make(map[int32]*Building),
		units:   make(map[UnitID]*Unit),
		teams:   make(map[Team]*TeamData),
	}
}

// Bounds returns the world area in world units
func (w *World) Bounds() Rect {
	return TileRect{X: 0, Y: 0, W: w.Width, H: w.Height}.World()
}

// InBounds reports whether the tile exists
func (w *World) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < w.Width && y < w.Height
}

// Build returns the building covering tile (x, y), or nil
func (w *World) Build(x, y int) *Building {
	if !w.InBounds(x, y) {
		return nil
	}
	return w.tiles[y*w.Width+x]
}

// BuildAt returns the building whose origin tile packs to pos, or nil
func (w *World) BuildAt(pos int32) *Building {
	b := w.builds[pos]
	if b == nil || b.removed {
		return nil
	}
	return b
}

// BuildOn returns the building covering a packed tile position
func (w *World) BuildOn(pos int32) *Building {
	x, y := UnpackPos(pos)
	return w.Build(x, y)
}

// Place creates a building of block at (x, y)
func (w *World) Place(block *Block, team Team, x, y, rotation int) (*Building, error) {
	b := &Building{
		Block:    block,
		Team:     team,
		Rotation: Mod(rotation, 4),
		Items:    make(map[string]int),
		world:    w,
	}
	if !block.Rotate {
		b.Rotation = 0
	}
	if err := w.PlaceBuilding(b, x, y); err != nil {
		return nil, err
	}
	return b, nil
}

// PlaceBuilding puts an existing building, new or previously removed, on
// the grid with its origin at (x, y).
func (w *World) PlaceBuilding(b *Building, x, y int) error {
	fp := b.Block.Footprint(x, y)
	for ty := fp.Y; ty < fp.Y+fp.H; ty++ {
		for tx := fp.X; tx < fp.X+fp.W; tx++ {
			if !w.InBounds(tx, ty) {
				return fmt.Errorf("place %s at %d,%d: %w", b.Block.Name, x, y, ErrOutsideWorld)
			}
			if w.tiles[ty*w.Width+tx] != nil {
				return fmt.Errorf("place %s at %d,%d: %w", b.Block.Name, x, y, ErrOccupied)
			}
		}
	}
	b.X, b.Y = x, y
	b.world = w
	b.removed = false
	w.setTiles(fp, b)
	w.builds[b.Pos()] = b
	w.buildOrder = append(w.buildOrder, b)
	return nil
}

func (w *World) setTiles(fp TileRect, b *Building) {
	for ty := fp.Y; ty < fp.Y+fp.H; ty++ {
		for tx := fp.X; tx < fp.X+fp.W; tx++ {
			w.tiles[ty*w.Width+tx] = b
		}
	}
}

// RemoveBuild takes b off the grid. With rebuild set, a ghost plan is kept for its team.
func (w *World) RemoveBuild(b *Building, rebuild bool) {
	if b == nil || b.removed {
		return
	}
	b.removed = true
	w.setTiles(b.Footprint(), nil)
	delete(w.builds, b.Pos())
	for i, o := range w.buildOrder {
		if o == b {
			w.buildOrder = append(w.buildOrder[:i], w.buildOrder[i+1:]...)
			break
		}
	}
	if rebuild {
		td := w.Team(b.Team)
		td.Plans = append(td.Plans, &BlockPlan{X: b.X, Y: b.Y, Rotation: b.Rotation, Block: b.Block, Config: b.Config})
	}
}

// Buildings returns live buildings in placement order
func (w *World) Buildings() []*Building { return w.buildOrder }

// AddUnit spawns a unit controlled by a fresh command AI
func (w *World) AddUnit(t *UnitType, team Team, pos Vec2) *Unit {
	w.nextUnit++
	u := &Unit{
		ID:         w.nextUnit,
		Type:       t,
		Team:       team,
		Pos:        pos,
		Controller: AIController(NewCommandAI(t)),
	}
	w.units[u.ID] = u
	w.unitOrder = append(w.unitOrder, u)
	return u
}

// Unit returns the live unit with id, or nil
func (w *World) Unit(id UnitID) *Unit {
	u := w.units[id]
	if !u.Valid() {
		return nil
	}
	return u
}

// RemoveUnit takes u out of the world. Ids are never reused.
func (w *World) RemoveUnit(u *Unit) {
	if !u.Valid() {
		return
	}
	u.dead = true
	delete(w.units, u.ID)
	for i, o := range w.unitOrder {
		if o == u {
			w.unitOrder = append(w.unitOrder[:i], w.unitOrder[i+1:]...)
			break
		}
	}
}

// readdUnit puts a previously removed unit back (payload drop)
func (w *World) readdUnit(u *Unit) {
	u.dead = false
	w.units[u.ID] = u
	w.unitOrder = append(w.unitOrder, u)
}

// Units returns live units in spawn order
func (w *World) Units() []*Unit { return w.unitOrder }

// Team returns the data of a team, creating it on first use
func (w *World) Team(t Team) *TeamData {
	td, ok := w.teams[t]
	if !ok {
		td = &TeamData{Team: t}
		w.teams[t] = td
	}
	return td
}

// ClosestCore returns the nearest core building of team, or nil
func (w *World) ClosestCore(team Team, p Vec2) *Building {
	var best *Building
	bestDst := 0.0
	for _, b := range w.buildOrder {
		if b.Team != team || !b.Block.Core {
			continue
		}
		if d := p.Dst(b.Center()); best == nil || d < bestDst {
			best, bestDst = b, d
		}
	}
	return best
}
