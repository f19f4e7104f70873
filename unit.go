package main

// PhysicsLayers is the number of collision layers units are bucketed into
const PhysicsLayers = 4

// UnitID is a unit's arena id. Ids are never reused within a world.
type UnitID int32

// ItemStack is a single carried item type with its amount
type ItemStack struct {
	Item   string `msgpack:"i" json:"item"`
	Amount int    `msgpack:"n" json:"amount"`
}

// ControllerKind enumerates who drives a unit
type ControllerKind uint8

const (
	ControllerNone     ControllerKind = iota
	ControllerCommand                 // AI that follows player orders
	ControllerScripted                // wave or logic AI, ignores orders
	ControllerPlayer
)

var controllerCaps = [...]struct{ ai, commandable bool }{
	ControllerNone:     {},
	ControllerCommand:  {ai: true, commandable: true},
	ControllerScripted: {ai: true},
	ControllerPlayer:   {},
}

// Controller is a tagged variant over controller kinds. AI is set for
// ControllerCommand, Player for ControllerPlayer.
type Controller struct {
	Kind   ControllerKind
	AI     *CommandAI
	Player *Player
}

func AIController(ai *CommandAI) Controller { return Controller{Kind: ControllerCommand, AI: ai} }
func ScriptedController() Controller         { return Controller{Kind: ControllerScripted} }
func PlayerController(p *Player) Controller  { return Controller{Kind: ControllerPlayer, Player: p} }

func (c Controller) IsAI() bool { return controllerCaps[c.Kind].ai }

// Commandable reports whether the controller accepts unit commands
func (c Controller) Commandable() bool { return controllerCaps[c.Kind].commandable && c.AI != nil }

// Unit is a mobile entity
type Unit struct {
	ID            UnitID
	Type          *UnitType
	Team          Team
	Pos           Vec2
	Rotation      float64
	Stack         ItemStack
	Controller    Controller
	Plans         *PlanSet
	Payloads      []Payload
	SpawnedByCore bool
	DockedType    *UnitType
	LastCommanded string

	dead bool
}

// Valid reports whether u is non-nil and alive
func (u *Unit) Valid() bool { return u != nil && !u.dead }

func (u *Unit) HitSize() float64 { return u.Type.HitSize }

func (u *Unit) Bounds() Rect {
	return RectCentered(u.Pos.X, u.Pos.Y, u.Type.HitSize, u.Type.HitSize)
}

// CollisionLayer is -1 for units outside the physics layers
func (u *Unit) CollisionLayer() int { return u.Type.CollisionLayer }

// AI returns the command AI, or nil when the unit does not take orders
func (u *Unit) AI() *CommandAI {
	if !u.Controller.Commandable() {
		return nil
	}
	return u.Controller.AI
}

func (u *Unit) IsAI() bool     { return u.Controller.IsAI() }
func (u *Unit) IsPlayer() bool { return u.Controller.Kind == ControllerPlayer }
func (u *Unit) Grounded() bool { return !u.Type.Flying }

// CanTarget reports whether u's weapons can reach other
func (u *Unit) CanTarget(other *Unit) bool {
	if other.Type.Flying {
		return u.Type.TargetAir
	}
	return u.Type.TargetGround
}

// MaxAccepted is how many of item the unit can still carry
func (u *Unit) MaxAccepted(item string) int {
	if u.Stack.Amount > 0 && u.Stack.Item != item {
		return 0
	}
	return max(u.Type.ItemCapacity-u.Stack.Amount, 0)
}

func (u *Unit) ClearItem() { u.Stack = ItemStack{} }

// SetStack replaces the carried stack, clamped to capacity
func (u *Unit) SetStack(item string, amount int) {
	amount = min(amount, u.Type.ItemCapacity)
	if amount <= 0 {
		u.ClearItem()
		return
	}
	u.Stack = ItemStack{Item: item, Amount: amount}
}

// payloadUsed is the payload area in use, in world units squared
func (u *Unit) payloadUsed() float64 {
	used := 0.0
	for _, p := range u.Payloads {
		s := p.Size()
		used += s * s
	}
	return used
}

// CanPickupPayload reports whether p fits in the remaining payload capacity
func (u *Unit) CanPickupPayload(p Payload) bool {
	s := p.Size()
	return u.Type.PayloadCapacity > 0 && u.payloadUsed()+s*s <= u.Type.PayloadCapacity
}

// CanPickup reports whether other fits as a unit payload
func (u *Unit) CanPickup(other *Unit) bool {
	return other != u && u.CanPickupPayload(Payload{Unit: other})
}

// CanPickupBuild reports whether b fits as a building payload
func (u *Unit) CanPickupBuild(b *Building) bool {
	return u.CanPickupPayload(Payload{Build: b})
}

// FormationTarget is where a grouped unit heads: the anchor plus its slot.
// Without a group it is the plain command position.
func (u *Unit) FormationTarget() (Vec2, bool) {
	ai := u.AI()
	if ai == nil || ai.TargetPos == nil {
		return Vec2{}, false
	}
	if g := ai.Group; g != nil && ai.GroupIndex < len(g.Positions) {
		return g.Anchor.Add(g.Positions[ai.GroupIndex]), true
	}
	return *ai.TargetPos, true
}
