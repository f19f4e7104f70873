package main

// despawnCoreUnit removes a core-spawned unit nobody controls any more
func despawnCoreUnit(w *World, u *Unit) {
	if u.Valid() && u.SpawnedByCore && !u.IsPlayer() {
		w.RemoveUnit(u)
	}
}

// handleUnitControl possesses an AI unit, or releases the current one when
// no unit is given.
func handleUnitControl(hc *HandlerContext, args UnitControlArgs) error {
	p := hc.Player
	if p == nil {
		hc.Ignore()
		return nil
	}
	w := hc.World
	var target *Unit
	if args.Unit != nil {
		if target = w.Unit(*args.Unit); target == nil {
			hc.Ignore()
			return nil
		}
	}
	if hc.Authoritative() {
		if !w.Rules.PossessionAllowed {
			return hc.Fault(ActionControl, "possession is disabled")
		}
		desc := newDesc(ActionControl, p)
		desc.Unit = target
		if err := hc.Check(desc); err != nil {
			return err
		}
	}

	switch {
	case args.Unit == nil:
		p.ClearUnit()
	case target != nil && target.IsAI() && target.Team == p.Team && target.Type.PlayerControllable:
		before := p.Unit()
		p.SetUnit(target)
		if before != nil {
			if before.SpawnedByCore {
				target.DockedType = before.Type
			} else if before.DockedType != nil && before.DockedType.CoreUnitDock {
				target.DockedType = before.DockedType
			}
			despawnCoreUnit(w, before)
		}
	case hc.Authoritative():
		return hc.Fault(ActionControl, "cannot control this unit")
	default:
		hc.Ignore()
		return nil
	}

	hc.Notify(&UnitControlEvent{
		BaseEvent: BaseEvent{Kind: EventUnitControl, Player: p},
		Unit:      target,
	})
	return nil
}

// handleUnitClear gives up the current unit. A possessed unit docks back
// into the core unit type it came from; otherwise the player respawns.
func handleUnitClear(hc *HandlerContext, args UnitClearArgs) error {
	p := hc.Player
	if p == nil {
		hc.Ignore()
		return nil
	}
	if err := hc.Check(newDesc(ActionRespawn, p)); err != nil {
		return err
	}
	w := hc.World

	if u := p.Unit(); u != nil && !u.SpawnedByCore {
		docked := u.DockedType
		if docked == nil {
			if core := w.ClosestCore(p.Team, u.Pos); core != nil {
				docked = w.Content.UnitType(core.Block.UnitType)
			}
		}
		if docked != nil && docked.CoreUnitDock {
			if hc.Authoritative() {
				pos := u.Pos
				if u.Type.Flying && docked.Flying {
					// spawn behind so the two do not overlap
					pos = pos.Add(Trns(u.Rotation+180, u.HitSize()/2+docked.HitSize/2))
				}
				nu := w.AddUnit(docked, p.Team, pos)
				nu.Rotation = u.Rotation
				nu.SpawnedByCore = true
				p.SetUnit(nu)
			}
			hc.Notify(&UnitControlEvent{
				BaseEvent: BaseEvent{Kind: EventUnitControl, Player: p},
				Unit:      p.Unit(),
			})
			return nil
		}
	}

	before := p.Unit()
	p.ClearUnit()
	if before != nil {
		despawnCoreUnit(w, before)
	}
	if hc.Authoritative() {
		p.Respawn(w)
	}
	hc.Notify(&UnitControlEvent{
		BaseEvent: BaseEvent{Kind: EventUnitControl, Player: p},
		Unit:      p.Unit(),
	})
	return nil
}

// handleBuildingControlSelect moves the player's unit into a building that
// can be controlled from inside. A core-spawned unit despawns instead.
func handleBuildingControlSelect(hc *HandlerContext, args BuildingControlSelectArgs) error {
	p := hc.Player
	b := hc.World.BuildAt(args.Build)
	if p == nil || b == nil || p.Dead() {
		hc.Ignore()
		return nil
	}
	desc := newDesc(ActionBuildSelect, p)
	desc.Tile = b.Pos()
	if err := hc.Check(desc); err != nil {
		return err
	}

	before := p.Unit()
	if p.Team != b.Team || !b.CanControlSelect(before) {
		hc.Ignore()
		return nil
	}
	w := hc.World
	p.ClearUnit()
	if before.SpawnedByCore {
		despawnCoreUnit(w, before)
	} else {
		w.RemoveUnit(before)
		b.HandlePayload(Payload{Unit: before})
	}
	b.UpdateLastAccess(p)
	hc.Notify(&UnitControlEvent{
		BaseEvent: BaseEvent{Kind: EventBuildingSelected, Player: p},
		Unit:      before,
		Build:     b,
	})
	return nil
}
