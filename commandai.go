package main

import "slices"

// MaxQueuedCommands caps a unit's follow-up order queue
const MaxQueuedCommands = 50

// TargetKind tags a CommandTarget
type TargetKind uint8

const (
	TargetPosition TargetKind = iota
	TargetUnit
	TargetBuilding
)

// CommandTarget is a position, a unit or a building
type CommandTarget struct {
	Kind  TargetKind `msgpack:"k"`
	Pos   Vec2       `msgpack:"p"`
	Unit  UnitID     `msgpack:"u"`
	Build int32      `msgpack:"b"`
}

func PositionTarget(p Vec2) CommandTarget { return CommandTarget{Kind: TargetPosition, Pos: p} }
func UnitTarget(u *Unit) CommandTarget    { return CommandTarget{Kind: TargetUnit, Unit: u.ID} }
func BuildingTarget(b *Building) CommandTarget {
	return CommandTarget{Kind: TargetBuilding, Build: b.Pos()}
}

// Resolve returns the target's current world position; ok is false when
// the referenced entity no longer exists.
func (t CommandTarget) Resolve(w *World) (Vec2, bool) {
	switch t.Kind {
	case TargetUnit:
		if u := w.Unit(t.Unit); u != nil {
			return u.Pos, true
		}
		return Vec2{}, false
	case TargetBuilding:
		if b := w.BuildAt(t.Build); b != nil {
			return b.Center(), true
		}
		return Vec2{}, false
	}
	return t.Pos, true
}

// CommandAI is the order state of a commandable unit
type CommandAI struct {
	Command    *UnitCommand
	TargetPos  *Vec2
	Attack     *CommandTarget
	Queue      []CommandTarget
	Stances    StanceSet
	Group      *UnitGroup
	GroupIndex int
}

// NewCommandAI returns order state starting on the type's default command
func NewCommandAI(t *UnitType) *CommandAI {
	return &CommandAI{Command: t.DefaultCommand()}
}

// CurrentCommand never returns nil
func (ai *CommandAI) CurrentCommand() *UnitCommand {
	if ai.Command == nil {
		return CmdMove
	}
	return ai.Command
}

func (ai *CommandAI) SetCommand(c *UnitCommand) { ai.Command = c }

// CommandPosition replaces the current order with a move to p
func (ai *CommandAI) CommandPosition(p Vec2) {
	ai.TargetPos = &p
	ai.Attack = nil
}

// CommandTarget replaces the current order with t
func (ai *CommandAI) CommandTarget(t CommandTarget) {
	if t.Kind == TargetPosition {
		ai.CommandPosition(t.Pos)
		return
	}
	ai.Attack = &t
	ai.TargetPos = nil
}

func (ai *CommandAI) HasTarget() bool { return ai.TargetPos != nil || ai.Attack != nil }

// Enqueue appends t behind the current order. An idle unit takes t at once;
// a full queue or an already queued t is ignored.
func (ai *CommandAI) Enqueue(t CommandTarget) {
	if !ai.HasTarget() {
		ai.CommandTarget(t)
		return
	}
	if len(ai.Queue) >= MaxQueuedCommands || slices.Contains(ai.Queue, t) {
		return
	}
	ai.Queue = append(ai.Queue, t)
}

// Advance moves the head of the queue into the current order. It returns
// false when the queue was empty.
func (ai *CommandAI) Advance() bool {
	if len(ai.Queue) == 0 {
		return false
	}
	next := ai.Queue[0]
	ai.Queue = ai.Queue[1:]
	ai.CommandTarget(next)
	return true
}

// DropStaleTarget ends an attack order whose target no longer exists and
// moves on to the next queued order that still resolves. It reports
// whether the current order changed.
func (ai *CommandAI) DropStaleTarget(w *World) bool {
	if ai.Attack == nil {
		return false
	}
	if _, ok := ai.Attack.Resolve(w); ok {
		return false
	}
	ai.Attack = nil
	for ai.Advance() {
		if ai.Attack == nil {
			break
		}
		if _, ok := ai.Attack.Resolve(w); ok {
			break
		}
		ai.Attack = nil
	}
	if !ai.Following() {
		ai.Group = nil
	}
	return true
}

// Following reports whether queued orders remain
func (ai *CommandAI) Following() bool { return len(ai.Queue) > 0 }

// ClearCommands drops the current order, the queue and the formation
func (ai *CommandAI) ClearCommands() {
	ai.Queue = nil
	ai.TargetPos = nil
	ai.Attack = nil
	ai.Group = nil
	ai.GroupIndex = 0
}

func (ai *CommandAI) HasStance(s *UnitStance) bool { return ai.Stances.Has(s) }

// SetStance switches s. Enabling a non-toggle stance turns off the other
// non-toggle stances.
func (ai *CommandAI) SetStance(s *UnitStance, enable bool) {
	if enable && !s.Toggle {
		for _, other := range ai.Stances.Stances() {
			if !other.Toggle {
				ai.Stances = ai.Stances.With(other, false)
			}
		}
	}
	ai.Stances = ai.Stances.With(s, enable)
}

// Reset clears all orders and stances
func (ai *CommandAI) Reset() {
	ai.ClearCommands()
	ai.Stances = 0
}
