package main

// canInteract reports whether p may touch b. Host-originated calls have
// no player and may touch anything.
func canInteract(p *Player, b *Building) bool {
	return p == nil || p.Team.CanInteract(b.Team)
}

// handleTileConfig applies a configuration value. Clients predict it, so a
// refusal on the host sends the authoritative value back to the caller.
func handleTileConfig(hc *HandlerContext, args TileConfigArgs) error {
	b := hc.World.BuildAt(args.Build)
	if b == nil {
		hc.Ignore()
		return nil
	}
	p := hc.Player
	if hc.Authoritative() && p != nil {
		desc := newDesc(ActionConfigure, p)
		desc.Tile = b.Pos()
		desc.Config = args.Value
		err := hc.Check(desc)
		if err == nil && !canInteract(p, b) {
			err = hc.Fault(ActionConfigure, "cannot configure a building of another team")
		}
		if err != nil {
			hc.Undo(b)
			if p.Local {
				hc.Ignore()
				return nil
			}
			return err
		}
	}

	b.Configured(args.Value)
	hc.Notify(&BuildingEvent{
		BaseEvent: BaseEvent{Kind: EventConfig, Player: p},
		Build:     b,
		Value:     args.Value,
	})
	return nil
}

func handleRotateBlock(hc *HandlerContext, args RotateBlockArgs) error {
	b := hc.World.BuildAt(args.Build)
	if b == nil || !b.Block.Rotate {
		hc.Ignore()
		return nil
	}
	p := hc.Player
	step := -1
	if args.Direction {
		step = 1
	}
	rotation := Mod(b.Rotation+step, 4)

	if hc.Authoritative() && p != nil {
		if !canInteract(p, b) {
			return hc.Fault(ActionRotate, "cannot rotate a building of another team")
		}
		desc := newDesc(ActionRotate, p)
		desc.Tile = b.Pos()
		desc.Rotation = rotation
		if err := hc.Check(desc); err != nil {
			return err
		}
	}

	b.UpdateLastAccess(p)
	previous := b.Rotation
	b.Rotation = rotation
	hc.Notify(&BuildingEvent{
		BaseEvent: BaseEvent{Kind: EventRotate, Player: p},
		Build:     b,
		Rotation:  previous,
	})
	return nil
}

// handleTileTap only reports the tap to observers
func handleTileTap(hc *HandlerContext, args TileTapArgs) error {
	x, y := UnpackPos(args.Tile)
	if !hc.World.InBounds(x, y) {
		hc.Ignore()
		return nil
	}
	hc.Notify(&TapEvent{
		BaseEvent: BaseEvent{Kind: EventTap, Player: hc.Player},
		Tile:      args.Tile,
	})
	return nil
}

// handleDeletePlans removes team rebuild plans at the given origins
func handleDeletePlans(hc *HandlerContext, args DeletePlansArgs) error {
	p := hc.Player
	if p == nil {
		hc.Ignore()
		return nil
	}
	desc := newDesc(ActionRemovePlanned, p)
	desc.Plans = args.Positions
	if err := hc.Check(desc); err != nil {
		return err
	}

	want := make(map[int32]bool, len(args.Positions))
	for _, pos := range args.Positions {
		want[pos] = true
	}
	td := hc.World.Team(p.Team)
	kept := td.Plans[:0]
	var removed []int32
	for _, plan := range td.Plans {
		pos := PackPos(plan.X, plan.Y)
		if want[pos] {
			plan.Removed = true
			removed = append(removed, pos)
			continue
		}
		kept = append(kept, plan)
	}
	clear(td.Plans[len(kept):])
	td.Plans = kept

	hc.Notify(&PlansDeletedEvent{
		BaseEvent: BaseEvent{Kind: EventPlansDeleted, Player: p},
		Positions: removed,
	})
	return nil
}
