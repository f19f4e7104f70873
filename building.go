package main

// Building is a placed block instance
type Building struct {
	X, Y         int
	Block        *Block
	Team         Team
	Rotation     int
	Config       any
	Items        map[string]int
	CommandPos   *Vec2
	Payload      *Payload
	LastAccessed string

	world   *World
	removed bool
}

// Pos is the packed origin tile, the building's identity on the wire
func (b *Building) Pos() int32 { return PackPos(b.X, b.Y) }

// Valid reports whether b is non-nil and still placed
func (b *Building) Valid() bool { return b != nil && !b.removed }

func (b *Building) Bounds() Rect        { return b.Block.Bounds(b.X, b.Y) }
func (b *Building) Center() Vec2        { return b.Bounds().Center() }
func (b *Building) Footprint() TileRect { return b.Block.Footprint(b.X, b.Y) }

// Front returns the building directly in front of b's rotation
func (b *Building) Front() *Building {
	dx, dy := RotationDir(b.Rotation)
	trns := b.Block.Size/2 + 1
	return b.world.Build(b.X+dx*trns, b.Y+dy*trns)
}

// Next returns the chained building b feeds into, or nil
func (b *Building) Next() *Building {
	if !b.Block.Chained {
		return nil
	}
	f := b.Front()
	if f == nil || f == b || !f.Block.Chained || f.Team != b.Team {
		return nil
	}
	return f
}

// Interactable reports whether a member of team may use b
func (b *Building) Interactable(team Team) bool { return team.CanInteract(b.Team) }

// HasItems reports whether b stores items at all
func (b *Building) HasItems() bool { return b.Block.ItemCapacity > 0 }

// AcceptStack returns how many of amount b would take
func (b *Building) AcceptStack(item string, amount int) int {
	if !b.HasItems() || amount <= 0 {
		return 0
	}
	have := b.Items[item]
	if b.Block.Core {
		have = 0
		for _, n := range b.Items {
			have += n
		}
	}
	return ClampInt(b.Block.ItemCapacity-have, 0, amount)
}

// SetItem sets the stored amount of item
func (b *Building) SetItem(item string, amount int) {
	if amount <= 0 {
		delete(b.Items, item)
		return
	}
	b.Items[item] = amount
}

// Commandable reports whether the building takes a command position
func (b *Building) Commandable() bool { return b.Block.Commandable }

// OnCommand stores the target for units the building produces
func (b *Building) OnCommand(target Vec2) { b.CommandPos = &target }

// Configured applies a configuration value
func (b *Building) Configured(value any) { b.Config = value }

func (b *Building) UpdateLastAccess(p *Player) {
	if p != nil {
		b.LastAccessed = p.Name
	}
}

// CanPickup reports whether the building itself can be lifted as payload
func (b *Building) CanPickup() bool { return b.Block.Pickupable && !b.Block.Hidden }

// AcceptPayload reports whether b has room for p
func (b *Building) AcceptPayload(p Payload) bool {
	return b.Block.AcceptsPayload && b.Payload == nil && p.Size() <= float64(b.Block.Size)*TileSize
}

func (b *Building) HandlePayload(p Payload) { b.Payload = &p }

// TakePayload removes and returns the stored payload
func (b *Building) TakePayload() *Payload {
	p := b.Payload
	b.Payload = nil
	return p
}

// CanControlSelect reports whether u may enter b to control it
func (b *Building) CanControlSelect(u *Unit) bool {
	return b.Block.ControlSelect && b.Payload == nil && u.Valid() && !u.Type.Flying &&
		u.Type.HitSize <= float64(b.Block.Size)*TileSize
}

// Payload is something carried by a unit or held by a building
type Payload struct {
	Unit  *Unit
	Build *Building
}

// Size is the payload's footprint edge in world units
func (p Payload) Size() float64 {
	if p.Unit != nil {
		return p.Unit.Type.HitSize
	}
	if p.Build != nil {
		return float64(p.Build.Block.Size) * TileSize
	}
	return 0
}
