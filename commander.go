package main

import (
	"cmp"
	"fmt"
	"slices"
)

// DefaultCommandChunkSize is the number of unit ids per commandUnits packet
const DefaultCommandChunkSize = 200

// selectionRadius pads point and box selections
const selectionRadius = 4.0

// ChunkUnitIDs splits ids into consecutive chunks of at most size ids
func ChunkUnitIDs(ids []UnitID, size int) [][]UnitID {
	if size <= 0 {
		size = DefaultCommandChunkSize
	}
	chunks := make([][]UnitID, 0, (len(ids)+size-1)/size)
	for chunk := range slices.Chunk(ids, size) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Commander turns a player's selections into command actions. It is the
// issuing side; all it does is build packets and pass them to Net.
type Commander struct {
	net       *Net
	player    *Player
	chunkSize int

	Selected []UnitID
}

func NewCommander(n *Net, p *Player, chunkSize int) *Commander {
	if chunkSize <= 0 {
		chunkSize = DefaultCommandChunkSize
	}
	return &Commander{net: n, player: p, chunkSize: chunkSize}
}

// CommandUnits orders ids toward a target in chunks. Exactly one of build,
// unit and pos should describe the target; pos is also sent as the
// fallback position. Only the last chunk is flagged final.
func (c *Commander) CommandUnits(ids []UnitID, build *Building, unit *Unit, pos Vec2, queue bool) error {
	chunks := ChunkUnitIDs(ids, c.chunkSize)
	for i, chunk := range chunks {
		args := CommandUnitsArgs{
			UnitIDs:    chunk,
			PosTarget:  &pos,
			Queue:      queue,
			FinalBatch: i == len(chunks)-1,
		}
		if build != nil {
			b := build.Pos()
			args.BuildTarget = &b
		}
		if unit != nil {
			id := unit.ID
			args.UnitTarget = &id
		}
		if err := c.net.Call(c.player, ActCommandUnits, args); err != nil {
			return fmt.Errorf("command chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

// CommandAt issues the order a right click at pos would: attack an enemy
// unit or building there, else move.
func (c *Commander) CommandAt(pos Vec2, queue bool) error {
	if len(c.Selected) == 0 {
		return nil
	}
	var build *Building
	unit := c.selectedEnemyUnit(pos)
	if unit == nil {
		if b := c.buildingAt(pos); b != nil && b.Team != c.player.Team {
			build = b
		}
	}
	return c.CommandUnits(c.Selected, build, unit, pos, queue)
}

// SetCommand switches the command of the selected units
func (c *Commander) SetCommand(cmd *UnitCommand) error {
	return c.net.Call(c.player, ActSetUnitCommand, SetUnitCommandArgs{UnitIDs: c.Selected, Command: cmd.ID})
}

// SetStance switches a stance of the selected units
func (c *Commander) SetStance(s *UnitStance, enable bool) error {
	return c.net.Call(c.player, ActSetUnitStance, SetUnitStanceArgs{UnitIDs: c.Selected, Stance: s.ID, Enable: enable})
}

// CommandBuildings sets the command position of the buildings in rect
func (c *Commander) CommandBuildings(rect Rect, target Vec2) error {
	builds := c.selectedCommandBuildings(rect)
	if len(builds) == 0 {
		return nil
	}
	positions := make([]int32, len(builds))
	for i, b := range builds {
		positions[i] = b.Pos()
	}
	return c.net.Call(c.player, ActCommandBuilding, CommandBuildingArgs{Buildings: positions, Target: target})
}

// SelectAt replaces the selection with the commandable unit at pos
func (c *Commander) SelectAt(pos Vec2) {
	c.Selected = c.Selected[:0]
	if u := c.selectedCommandUnit(pos); u != nil {
		c.Selected = append(c.Selected, u.ID)
	}
}

// SelectRect replaces the selection with the commandable units in rect
func (c *Commander) SelectRect(rect Rect) {
	c.Selected = c.Selected[:0]
	for _, u := range c.selectedCommandUnits(rect, nil) {
		c.Selected = append(c.Selected, u.ID)
	}
}

func selectionBox(p Vec2) Rect {
	return RectCentered(p.X, p.Y, selectionRadius, selectionRadius)
}

// closestTo returns the unit minimizing distance to p minus half its size
func closestTo(units []*Unit, p Vec2) *Unit {
	if len(units) == 0 {
		return nil
	}
	return slices.MinFunc(units, func(a, b *Unit) int {
		return cmp.Compare(a.Pos.Dst(p)-a.HitSize()/2, b.Pos.Dst(p)-b.HitSize()/2)
	})
}

func (c *Commander) selectedCommandUnit(p Vec2) *Unit {
	hits := c.net.Index.Units(c.player.Team).QueryRect(selectionBox(p))
	hits = slices.DeleteFunc(hits, func(u *Unit) bool { return u.AI() == nil })
	return closestTo(hits, p)
}

func (c *Commander) selectedEnemyUnit(p Vec2) *Unit {
	var hits []*Unit
	for _, team := range c.net.Index.UnitTeams() {
		if team != c.player.Team {
			hits = append(hits, c.net.Index.Units(team).QueryRect(selectionBox(p))...)
		}
	}
	return closestTo(hits, p)
}

// selectedCommandUnits returns commandable units of the player's team in
// rect, optionally filtered by pred
func (c *Commander) selectedCommandUnits(rect Rect, pred func(*Unit) bool) []*Unit {
	rect = rect.Grow(selectionRadius)
	return slices.DeleteFunc(c.net.Index.Units(c.player.Team).QueryRect(rect), func(u *Unit) bool {
		return u.AI() == nil || (pred != nil && !pred(u))
	})
}

func (c *Commander) selectedCommandBuildings(rect Rect) []*Building {
	rect = rect.Grow(selectionRadius)
	return slices.DeleteFunc(c.net.Index.Buildings(c.player.Team).QueryRect(rect), func(b *Building) bool {
		return !b.Commandable()
	})
}

func (c *Commander) buildingAt(p Vec2) *Building {
	return c.net.World.Build(toTile(p.X), toTile(p.Y))
}
