package main

import "fmt"

// handleCommandUnits orders units toward a target. Units of one gesture
// arrive in chunks that share a batch key; the chunk flagged final
// assigns formations over everything registered under that key.
func handleCommandUnits(hc *HandlerContext, args CommandUnitsArgs) error {
	p := hc.Player
	if p == nil || args.UnitIDs == nil {
		hc.Ignore()
		return nil
	}
	if args.PosTarget != nil && !args.PosTarget.Finite() {
		hc.Ignore()
		return nil
	}
	if hc.Authoritative() && len(args.UnitIDs) > hc.Commands.ChunkSize {
		return hc.Fault(ActionCommandUnits, fmt.Sprintf("%d unit ids in one packet, at most %d allowed",
			len(args.UnitIDs), hc.Commands.ChunkSize))
	}
	desc := newDesc(ActionCommandUnits, p)
	desc.Units = args.UnitIDs
	if err := hc.Check(desc); err != nil {
		return err
	}

	w := hc.World
	var build *Building
	var target *Unit
	if args.BuildTarget != nil {
		build = w.BuildAt(*args.BuildTarget)
	}
	if args.UnitTarget != nil {
		target = w.Unit(*args.UnitTarget)
	}

	// the entity position wins over the clicked position
	var key Vec2
	var hostile *Team
	switch {
	case build != nil:
		key = build.Center()
		hostile = &build.Team
	case target != nil:
		key = target.Pos
		hostile = &target.Team
	case args.PosTarget != nil:
		key = *args.PosTarget
	default:
		hc.Ignore()
		return nil
	}
	if hostile != nil && *hostile == p.Team {
		hostile = nil
	}

	commanded := make([]UnitID, 0, len(args.UnitIDs))
	for _, id := range args.UnitIDs {
		u := w.Unit(id)
		if u == nil || u.Team != p.Team {
			continue
		}
		ai := u.AI()
		if ai == nil {
			continue
		}
		if ai.Command == nil || ai.Command.SwitchToMove {
			ai.SetCommand(CmdMove)
		}

		var order *CommandTarget
		switch {
		case hostile != nil && build != nil && u.Type.TargetGround:
			t := BuildingTarget(build)
			order = &t
		case hostile != nil && target != nil && u.CanTarget(target):
			t := UnitTarget(target)
			order = &t
		case args.PosTarget != nil:
			t := PositionTarget(*args.PosTarget)
			order = &t
		case hostile == nil:
			t := PositionTarget(key)
			order = &t
		}
		if order != nil {
			if args.Queue {
				ai.Enqueue(*order)
			} else {
				ai.Queue = nil
				ai.CommandTarget(*order)
			}
		}

		u.LastCommanded = p.Name
		if !ai.Following() {
			ai.Group = nil
		}
		hc.Commands.Register(key, id, w.Tick)
		commanded = append(commanded, id)
	}

	hc.Notify(&UnitsCommandedEvent{
		BaseEvent: BaseEvent{Kind: EventUnitsCommanded, Player: p},
		Units:     commanded,
		Target:    PositionTarget(key),
		Queued:    args.Queue,
	})

	if args.FinalBatch {
		ids := hc.Commands.Finalize(key)
		if groups := AssignFormations(w, key, ids); len(groups) > 0 {
			hc.Notify(&FormationEvent{
				BaseEvent: BaseEvent{Kind: EventFormation, Player: p},
				Anchor:    key,
				Groups:    groups,
			})
		}
	}
	return nil
}

func handleSetUnitCommand(hc *HandlerContext, args SetUnitCommandArgs) error {
	p := hc.Player
	cmd := UnitCommandByID(args.Command)
	if p == nil || args.UnitIDs == nil || cmd == nil {
		hc.Ignore()
		return nil
	}
	desc := newDesc(ActionCommandUnits, p)
	desc.Units = args.UnitIDs
	if err := hc.Check(desc); err != nil {
		return err
	}

	var changed []UnitID
	for _, id := range args.UnitIDs {
		u := hc.World.Unit(id)
		if u == nil || u.Team != p.Team || !u.Type.AllowCommand(cmd) {
			continue
		}
		ai := u.AI()
		if ai == nil {
			continue
		}
		reset := cmd.ResetTarget || ai.CurrentCommand().ResetTarget
		ai.SetCommand(cmd)
		if reset {
			ai.TargetPos = nil
			ai.Attack = nil
		}
		u.LastCommanded = p.Name

		for _, st := range ai.Stances.Stances() {
			if !u.Type.AllowStance(st) {
				ai.SetStance(st, false)
			}
		}
		changed = append(changed, id)
	}
	hc.Notify(&CommandChangedEvent{
		BaseEvent: BaseEvent{Kind: EventCommandChanged, Player: p},
		Units:     changed,
		Command:   cmd,
	})
	return nil
}

// handleSetUnitStance switches a stance. The stop pseudo-stance cancels
// all orders instead.
func handleSetUnitStance(hc *HandlerContext, args SetUnitStanceArgs) error {
	p := hc.Player
	stance := UnitStanceByID(args.Stance)
	if p == nil || args.UnitIDs == nil || stance == nil {
		hc.Ignore()
		return nil
	}
	desc := newDesc(ActionCommandUnits, p)
	desc.Units = args.UnitIDs
	if err := hc.Check(desc); err != nil {
		return err
	}

	enable := !stance.Toggle || args.Enable
	var changed []UnitID
	for _, id := range args.UnitIDs {
		u := hc.World.Unit(id)
		if u == nil || u.Team != p.Team {
			continue
		}
		ai := u.AI()
		if ai == nil {
			continue
		}
		if stance == StanceStop {
			ai.ClearCommands()
		} else if u.Type.AllowStance(stance) {
			ai.SetStance(stance, enable)
		}
		u.LastCommanded = p.Name
		changed = append(changed, id)
	}
	hc.Notify(&CommandChangedEvent{
		BaseEvent: BaseEvent{Kind: EventStanceChanged, Player: p},
		Units:     changed,
		Stance:    stance,
		Enabled:   enable,
	})
	return nil
}

func handleCommandBuilding(hc *HandlerContext, args CommandBuildingArgs) error {
	p := hc.Player
	if p == nil || !args.Target.Finite() {
		hc.Ignore()
		return nil
	}
	desc := newDesc(ActionCommandBuilding, p)
	desc.Buildings = args.Buildings
	if err := hc.Check(desc); err != nil {
		return err
	}

	for _, pos := range args.Buildings {
		b := hc.World.BuildAt(pos)
		if b == nil || b.Team != p.Team || !b.Commandable() {
			continue
		}
		b.OnCommand(args.Target)
		b.UpdateLastAccess(p)
		hc.Notify(&BuildingEvent{
			BaseEvent: BaseEvent{Kind: EventBuildingCommand, Player: p},
			Build:     b,
			Value:     args.Target,
		})
	}
	return nil
}
