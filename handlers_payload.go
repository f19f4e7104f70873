package main

// payloadDropRange is how far from the carrier a drop may land
const payloadDropRange = TileSize * 4

// carrier returns the acting player's unit when it can hold payloads
func carrier(p *Player) *Unit {
	if p == nil {
		return nil
	}
	u := p.Unit()
	if u == nil || u.Type.PayloadCapacity <= 0 {
		return nil
	}
	return u
}

func handleRequestUnitPayload(hc *HandlerContext, args RequestUnitPayloadArgs) error {
	u := carrier(hc.Player)
	target := hc.World.Unit(args.Target)
	if u == nil || target == nil {
		hc.Ignore()
		return nil
	}
	reach := u.HitSize()*2 + target.HitSize()*2
	if !target.IsAI() || !target.Grounded() || target.Team != u.Team || !u.CanPickup(target) ||
		!target.Pos.Within(u.Pos, reach) {
		hc.Ignore()
		return nil
	}
	hc.Emit(ActPickedUnitPayload, PickedUnitPayloadArgs{Unit: u.ID, Target: target.ID})
	return nil
}

// handleRequestBuildPayload lifts either the payload a building holds or,
// when it fits, the building itself.
func handleRequestBuildPayload(hc *HandlerContext, args RequestBuildPayloadArgs) error {
	p := hc.Player
	u := carrier(p)
	b := hc.World.BuildAt(args.Build)
	if u == nil || b == nil {
		hc.Ignore()
		return nil
	}
	reach := TileSize*float64(b.Block.Size)*1.2 + TileSize*5
	if !u.Pos.Within(b.Center(), reach) {
		hc.Ignore()
		return nil
	}
	desc := newDesc(ActionPickupBlock, p)
	desc.Tile = b.Pos()
	desc.Unit = u
	if err := hc.Check(desc); err != nil {
		return err
	}

	if !u.Team.CanInteract(b.Team) {
		hc.Ignore()
		return nil
	}
	switch {
	case b.Payload != nil && u.CanPickupPayload(*b.Payload):
		hc.Emit(ActPickedBuildPayload, PickedBuildPayloadArgs{Unit: u.ID, Build: b.Pos()})
	case b.CanPickup() && u.CanPickupBuild(b):
		hc.Emit(ActPickedBuildPayload, PickedBuildPayloadArgs{Unit: u.ID, Build: b.Pos(), OnGround: true})
	default:
		hc.Ignore()
	}
	return nil
}

func handlePickedUnitPayload(hc *HandlerContext, args PickedUnitPayloadArgs) error {
	w := hc.World
	u := w.Unit(args.Unit)
	target := w.Unit(args.Target)
	if target == nil {
		hc.Ignore()
		return nil
	}
	w.RemoveUnit(target)
	if u == nil || u.Type.PayloadCapacity <= 0 {
		return nil
	}
	u.Payloads = append(u.Payloads, Payload{Unit: target})
	hc.Notify(&PayloadEvent{
		BaseEvent: BaseEvent{Kind: EventPayloadPickup},
		Carrier:   u,
		Payload:   Payload{Unit: target},
		At:        target.Pos,
	})
	return nil
}

func handlePickedBuildPayload(hc *HandlerContext, args PickedBuildPayloadArgs) error {
	w := hc.World
	u := w.Unit(args.Unit)
	b := w.BuildAt(args.Build)
	if b == nil {
		hc.Ignore()
		return nil
	}
	at := b.Center()
	if u == nil || u.Type.PayloadCapacity <= 0 {
		if args.OnGround {
			w.RemoveBuild(b, false)
		}
		return nil
	}

	var taken Payload
	if args.OnGround {
		w.RemoveBuild(b, false)
		if !b.CanPickup() || !u.CanPickupBuild(b) {
			return nil
		}
		taken = Payload{Build: b}
	} else {
		if b.Payload == nil || !u.CanPickupPayload(*b.Payload) {
			hc.Ignore()
			return nil
		}
		taken = *b.TakePayload()
	}
	u.Payloads = append(u.Payloads, taken)
	hc.Notify(&PayloadEvent{
		BaseEvent: BaseEvent{Kind: EventPayloadPickup},
		Carrier:   u,
		Payload:   taken,
		At:        at,
	})
	return nil
}

func handleRequestDropPayload(hc *HandlerContext, args RequestDropPayloadArgs) error {
	p := hc.Player
	if !hc.Authoritative() || p == nil || p.Dead() || !args.At.Finite() {
		hc.Ignore()
		return nil
	}
	u := p.Unit()
	if len(u.Payloads) == 0 {
		hc.Ignore()
		return nil
	}
	x, y := int(u.Pos.X/TileSize), int(u.Pos.Y/TileSize)
	desc := newDesc(ActionDropPayload, p)
	desc.Tile = PackPos(x, y)
	desc.Unit = u
	if err := hc.Check(desc); err != nil {
		return err
	}

	at := args.At.Sub(u.Pos).Limit(payloadDropRange).Add(u.Pos)
	hc.Emit(ActPayloadDropped, PayloadDroppedArgs{Unit: u.ID, At: at})
	return nil
}

// handlePayloadDropped puts the carrier's last payload down at At
func handlePayloadDropped(hc *HandlerContext, args PayloadDroppedArgs) error {
	u := hc.World.Unit(args.Unit)
	if u == nil || len(u.Payloads) == 0 {
		hc.Ignore()
		return nil
	}
	last := u.Payloads[len(u.Payloads)-1]
	if !dropPayload(hc.World, last, args.At) {
		hc.Ignore()
		return nil
	}
	u.Payloads = u.Payloads[:len(u.Payloads)-1]
	hc.Notify(&PayloadEvent{
		BaseEvent: BaseEvent{Kind: EventPayloadDrop},
		Carrier:   u,
		Payload:   last,
		At:        args.At,
	})
	return nil
}

// dropPayload returns p to the world at at. A building only lands on
// free tiles; false means p stays where it is.
func dropPayload(w *World, p Payload, at Vec2) bool {
	switch {
	case p.Unit != nil:
		p.Unit.Pos = at
		w.readdUnit(p.Unit)
		return true
	case p.Build != nil:
		off := p.Build.Block.Offset()
		x, y := toTile(at.X-off), toTile(at.Y-off)
		return w.PlaceBuilding(p.Build, x, y) == nil
	}
	return false
}

// handleUnitEnteredPayload moves a unit into a payload-accepting building
// of its team, resetting an enter-payload order.
func handleUnitEnteredPayload(hc *HandlerContext, args UnitEnteredPayloadArgs) error {
	w := hc.World
	u := w.Unit(args.Unit)
	b := w.BuildAt(args.Build)
	if u == nil || b == nil || u.Team != b.Team {
		hc.Ignore()
		return nil
	}
	w.RemoveUnit(u)
	if ai := u.AI(); ai != nil && ai.Command == CmdEnterPayload {
		ai.ClearCommands()
		ai.SetCommand(CmdMove)
	}
	if p := (Payload{Unit: u}); b.AcceptPayload(p) {
		b.HandlePayload(p)
	}
	hc.Notify(&PayloadEvent{
		BaseEvent: BaseEvent{Kind: EventPayloadPickup},
		Payload:   Payload{Unit: u},
		At:        b.Center(),
	})
	return nil
}
