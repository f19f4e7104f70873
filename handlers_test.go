package main

import (
	"errors"
	"testing"
)

func denyType(t ActionType) Policy {
	return PolicyFunc(func(d *ActionDesc) bool { return d.Type != t })
}

func TestRejectedActionHasNoEffects(t *testing.T) {
	h := newTestHost(t, denyType(ActionRotate))
	a, peerA := h.join(1, "alice", TeamSharded)
	_, peerB := h.join(2, "bob", TeamSharded)
	conv := h.place(t, "conveyor", TeamSharded, 10, 10, 0)

	err := h.receive(t, a, ActRotateBlock, RotateBlockArgs{Build: conv.Pos(), Direction: true})
	var fault *ValidationFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected validation fault, got %v", err)
	}
	if fault.Player != a || fault.Action != ActionRotate {
		t.Errorf("fault blames %v/%s", fault.Player, fault.Action)
	}
	if conv.Rotation != 0 {
		t.Errorf("rotation changed to %d", conv.Rotation)
	}
	if len(h.faults.faults) != 1 {
		t.Errorf("expected 1 recorded fault, got %d", len(h.faults.faults))
	}
	if n := peerB.frameCount(); n != 0 {
		t.Errorf("rejected action forwarded %d times", n)
	}
	if n := peerA.frameCount(); n != 0 {
		t.Errorf("caller got %d frames", n)
	}
	if len(h.events) != 0 {
		t.Errorf("rejected action published %d events", len(h.events))
	}
	if len(h.actions.names) != 0 {
		t.Errorf("rejected action recorded: %v", h.actions.names)
	}
	if got := peerA.faultsOf(); len(got) != 1 || got[0].Action != "rotateBlock" {
		t.Errorf("caller fault messages: %+v", got)
	}
}

func TestRotateBlockForwardsToEveryone(t *testing.T) {
	h := newTestHost(t, nil)
	a, peerA := h.join(1, "alice", TeamSharded)
	_, peerB := h.join(2, "bob", TeamCrux)
	conv := h.place(t, "conveyor", TeamSharded, 10, 10, 3)

	if err := h.receive(t, a, ActRotateBlock, RotateBlockArgs{Build: conv.Pos(), Direction: true}); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if conv.Rotation != 0 {
		t.Errorf("expected rotation to wrap to 0, got %d", conv.Rotation)
	}
	if conv.LastAccessed != "alice" {
		t.Errorf("last accessed %q", conv.LastAccessed)
	}
	if peerA.frameCount() != 1 || peerB.frameCount() != 1 {
		t.Errorf("expected one forward each, got %d and %d", peerA.frameCount(), peerB.frameCount())
	}
	ev := h.eventsOf(EventRotate)
	if len(ev) != 1 || ev[0].(*BuildingEvent).Rotation != 3 {
		t.Errorf("rotate event should carry previous rotation: %+v", ev)
	}
}

func TestRotateBlockOfOtherTeam(t *testing.T) {
	h := newTestHost(t, nil)
	_, _ = h.join(1, "alice", TeamSharded)
	b, _ := h.join(2, "bob", TeamCrux)
	conv := h.place(t, "conveyor", TeamSharded, 10, 10, 0)

	err := h.receive(t, b, ActRotateBlock, RotateBlockArgs{Build: conv.Pos()})
	var fault *ValidationFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected fault, got %v", err)
	}
	if conv.Rotation != 0 {
		t.Error("foreign rotate applied")
	}
}

func TestTileConfigIsIdempotent(t *testing.T) {
	h := newTestHost(t, nil)
	a, peerA := h.join(1, "alice", TeamSharded)
	_, peerB := h.join(2, "bob", TeamSharded)
	sorter := h.place(t, "sorter", TeamSharded, 12, 12, 0)

	for i := 0; i < 2; i++ {
		if err := h.receive(t, a, ActTileConfig, TileConfigArgs{Build: sorter.Pos(), Value: "copper"}); err != nil {
			t.Fatalf("config %d: %v", i, err)
		}
		if sorter.Config != "copper" {
			t.Fatalf("config %d: got %v", i, sorter.Config)
		}
	}
	if n := len(h.eventsOf(EventConfig)); n != 2 {
		t.Errorf("expected 2 config events, got %d", n)
	}
	// the caller predicted it, so only the other peer hears about it
	if peerA.frameCount() != 0 {
		t.Errorf("caller got %d forwards", peerA.frameCount())
	}
	if peerB.frameCount() != 2 {
		t.Errorf("expected 2 forwards, got %d", peerB.frameCount())
	}
}

func TestTileConfigRefusedIsUndone(t *testing.T) {
	h := newTestHost(t, nil)
	_, _ = h.join(1, "alice", TeamSharded)
	b, peerB := h.join(2, "bob", TeamCrux)
	sorter := h.place(t, "sorter", TeamSharded, 12, 12, 0)
	sorter.Configured("lead")

	err := h.receive(t, b, ActTileConfig, TileConfigArgs{Build: sorter.Pos(), Value: "copper"})
	var fault *ValidationFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected fault, got %v", err)
	}
	if sorter.Config != "lead" {
		t.Errorf("config changed to %v", sorter.Config)
	}
	pkts := peerB.packets(t)
	if len(pkts) != 1 || pkts[0].Action != ActTileConfig || peerB.channels[0] != Reliable {
		t.Fatalf("expected one reliable undo, got %+v", pkts)
	}
	var undo TileConfigArgs
	if err := decodeArgs(pkts[0].Data, &undo); err != nil {
		t.Fatal(err)
	}
	if undo.Value != "lead" || undo.Build != sorter.Pos() {
		t.Errorf("undo carries %+v", undo)
	}
}

func TestLocalPlayerRefusalIsSilent(t *testing.T) {
	h := newTestHost(t, denyType(ActionConfigure))
	host := NewPlayer(1, "host", TeamSharded, 0)
	host.Local = true
	h.AddPlayer(host)
	sorter := h.place(t, "sorter", TeamSharded, 12, 12, 0)

	if err := h.Call(host, ActTileConfig, TileConfigArgs{Build: sorter.Pos(), Value: "copper"}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if sorter.Config != nil {
		t.Errorf("refused config applied: %v", sorter.Config)
	}
	if len(h.faults.faults) != 0 || len(h.events) != 0 {
		t.Errorf("expected silence, got %d faults and %d events", len(h.faults.faults), len(h.events))
	}
}

func TestHostOnlyActionFromClient(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	err := h.receive(t, a, ActTakeItems, TakeItemsArgs{Item: "copper", Amount: 5})
	if !errors.Is(err, ErrActionNotAccepted) {
		t.Errorf("expected ErrActionNotAccepted, got %v", err)
	}
}

func TestMalformedFrames(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)

	if err := h.receive(t, a, ActRotateBlock, map[string]any{"zz": 1}); !errors.Is(err, ErrBadArgs) {
		t.Errorf("unknown field: expected ErrBadArgs, got %v", err)
	}
	if err := h.receive(t, a, ActionID(200), RotateBlockArgs{}); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("unknown id: expected ErrUnknownAction, got %v", err)
	}
	if err := h.Receive(a, []byte{FrameAction}); !errors.Is(err, ErrBadArgs) {
		t.Errorf("short frame: expected ErrBadArgs, got %v", err)
	}
}

func TestDeletePlans(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	router := h.World.Content.Block("router")
	td := h.World.Team(TeamSharded)
	first := &BlockPlan{X: 3, Y: 3, Block: router}
	td.Plans = append(td.Plans, first, &BlockPlan{X: 5, Y: 5, Block: router})

	if err := h.receive(t, a, ActDeletePlans, DeletePlansArgs{Positions: []int32{PackPos(3, 3)}}); err != nil {
		t.Fatal(err)
	}
	if len(td.Plans) != 1 || td.Plans[0].X != 5 {
		t.Fatalf("plans left: %+v", td.Plans)
	}
	if !first.Removed {
		t.Error("deleted plan not flagged removed")
	}
	ev := h.eventsOf(EventPlansDeleted)
	if len(ev) != 1 || len(ev[0].(*PlansDeletedEvent).Positions) != 1 {
		t.Errorf("plans deleted event: %+v", ev)
	}
}

func TestSetUnitStance(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	u := h.spawn(t, "dagger", TeamSharded, Vec2{40, 40})
	ids := []UnitID{u.ID}
	set := func(s *UnitStance, enable bool) {
		t.Helper()
		if err := h.receive(t, a, ActSetUnitStance, SetUnitStanceArgs{UnitIDs: ids, Stance: s.ID, Enable: enable}); err != nil {
			t.Fatal(err)
		}
	}
	ai := u.AI()

	set(StancePursueTarget, true)
	set(StancePatrol, true)
	if ai.HasStance(StancePursueTarget) || !ai.HasStance(StancePatrol) {
		t.Error("non-toggle stances should exclude each other")
	}
	set(StanceHoldFire, true)
	if !ai.HasStance(StanceHoldFire) || !ai.HasStance(StancePatrol) {
		t.Error("toggle stance should combine")
	}
	set(StanceHoldFire, false)
	if ai.HasStance(StanceHoldFire) {
		t.Error("toggle stance should switch off")
	}
	set(StanceRam, true) // daggers cannot ram
	if ai.HasStance(StanceRam) {
		t.Error("unsupported stance applied")
	}

	ai.CommandPosition(Vec2{1, 1})
	set(StanceStop, true)
	if ai.HasTarget() {
		t.Error("stop should clear orders")
	}
}

func TestSetUnitCommand(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	dagger := h.spawn(t, "dagger", TeamSharded, Vec2{40, 40})
	mega := h.spawn(t, "mega", TeamSharded, Vec2{60, 40})
	mega.AI().SetStance(StanceHoldFire, true)

	err := h.receive(t, a, ActSetUnitCommand, SetUnitCommandArgs{UnitIDs: []UnitID{dagger.ID, mega.ID}, Command: CmdRebuild.ID})
	if err != nil {
		t.Fatal(err)
	}
	if dagger.AI().CurrentCommand() != CmdMove {
		t.Errorf("dagger took unsupported command %s", dagger.AI().CurrentCommand().Name)
	}
	if mega.AI().CurrentCommand() != CmdRebuild {
		t.Errorf("mega command %s", mega.AI().CurrentCommand().Name)
	}
	if mega.LastCommanded != "alice" {
		t.Errorf("last commanded %q", mega.LastCommanded)
	}
	ev := h.eventsOf(EventCommandChanged)
	if len(ev) != 1 || len(ev[0].(*CommandChangedEvent).Units) != 1 {
		t.Errorf("command changed event: %+v", ev)
	}
}

func TestCommandBuilding(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	factory := h.place(t, "ground-factory", TeamSharded, 20, 20, 0)
	router := h.place(t, "router", TeamSharded, 30, 30, 0)
	target := Vec2{100, 120}

	args := CommandBuildingArgs{Buildings: []int32{factory.Pos(), router.Pos()}, Target: target}
	if err := h.receive(t, a, ActCommandBuilding, args); err != nil {
		t.Fatal(err)
	}
	if factory.CommandPos == nil || *factory.CommandPos != target {
		t.Errorf("factory command pos %v", factory.CommandPos)
	}
	if router.CommandPos != nil {
		t.Error("router is not commandable")
	}
}

func TestRequestItem(t *testing.T) {
	h := newTestHost(t, nil)
	a, peerA := h.join(1, "alice", TeamSharded)
	box := h.place(t, "container", TeamSharded, 20, 20, 0)
	box.SetItem("copper", 50)
	u := h.spawn(t, "alpha", TeamSharded, box.Center())
	a.SetUnit(u)

	if err := h.receive(t, a, ActRequestItem, RequestItemArgs{Build: box.Pos(), Item: "copper", Amount: 10}); err != nil {
		t.Fatal(err)
	}
	if u.Stack != (ItemStack{Item: "copper", Amount: 10}) {
		t.Errorf("unit stack %+v", u.Stack)
	}
	if box.Items["copper"] != 40 {
		t.Errorf("container holds %d", box.Items["copper"])
	}
	var got []ActionID
	for _, p := range peerA.packets(t) {
		got = append(got, p.Action)
	}
	if len(got) != 2 || got[0] != ActTakeItems || got[1] != ActTransferItemEffect {
		t.Errorf("expected takeItems then transferItemEffect, got %v", got)
	}
	if len(h.eventsOf(EventWithdraw)) != 1 {
		t.Error("missing withdraw event")
	}
}

func TestItemTransfersSurviveDuplicateDelivery(t *testing.T) {
	w := NewWorld(64, 64, DefaultContent(), DefaultRules())
	n := NewNet(RoleClient, w, DefaultRegistry(), nil)
	box, _ := w.Place(w.Content.Block("container"), TeamSharded, 20, 20, 0)
	box.SetItem("copper", 20)
	u := w.AddUnit(w.Content.UnitType("alpha"), TeamSharded, box.Center())

	take, _ := EncodeAction(ActTakeItems, 0, TakeItemsArgs{
		Build: box.Pos(), Item: "copper", Amount: 5, To: u.ID, BuildAmount: 15, UnitAmount: 5,
	})
	for i := 0; i < 2; i++ {
		if err := n.Receive(nil, take); err != nil {
			t.Fatalf("takeItems delivery %d: %v", i, err)
		}
		if u.Stack.Amount != 5 || box.Items["copper"] != 15 {
			t.Fatalf("after delivery %d: unit=%d build=%d", i, u.Stack.Amount, box.Items["copper"])
		}
	}

	deposit, _ := EncodeAction(ActTransferItemTo, 0, TransferItemToArgs{
		Unit: u.ID, Item: "copper", Amount: 5, Build: box.Pos(), BuildAmount: 20, UnitAmount: 0,
	})
	for i := 0; i < 2; i++ {
		if err := n.Receive(nil, deposit); err != nil {
			t.Fatalf("transferItemTo delivery %d: %v", i, err)
		}
		if u.Stack.Amount != 0 || box.Items["copper"] != 20 {
			t.Fatalf("after deposit %d: unit=%d build=%d", i, u.Stack.Amount, box.Items["copper"])
		}
	}
}

func TestRequestItemSendsResultingCounts(t *testing.T) {
	h := newTestHost(t, nil)
	a, peerA := h.join(1, "alice", TeamSharded)
	box := h.place(t, "container", TeamSharded, 20, 20, 0)
	box.SetItem("copper", 50)
	u := h.spawn(t, "alpha", TeamSharded, box.Center())
	u.SetStack("copper", 25)
	a.SetUnit(u)

	if err := h.receive(t, a, ActRequestItem, RequestItemArgs{Build: box.Pos(), Item: "copper", Amount: 10}); err != nil {
		t.Fatal(err)
	}
	pkts := peerA.packets(t)
	if len(pkts) == 0 || pkts[0].Action != ActTakeItems {
		t.Fatalf("expected takeItems first, got %+v", pkts)
	}
	var args TakeItemsArgs
	if err := decodeArgs(pkts[0].Data, &args); err != nil {
		t.Fatal(err)
	}
	// alpha carries at most 30, so only 5 fit
	if args.Amount != 5 || args.BuildAmount != 45 || args.UnitAmount != 30 {
		t.Errorf("takeItems args %+v", args)
	}
	if u.Stack.Amount != 30 || box.Items["copper"] != 45 {
		t.Errorf("host state: unit=%d build=%d", u.Stack.Amount, box.Items["copper"])
	}
}

func TestTransferInventoryThrottled(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	core := h.place(t, "core-shard", TeamSharded, 40, 40, 0)
	u := h.spawn(t, "alpha", TeamSharded, core.Center())
	a.SetUnit(u)

	deposit := func() error {
		u.Stack = ItemStack{Item: "copper", Amount: 10}
		return h.receive(t, a, ActTransferInventory, TransferInventoryArgs{Build: core.Pos()})
	}
	for i := 0; i < 2; i++ {
		if err := deposit(); err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
		if u.Stack.Amount != 0 {
			t.Errorf("deposit %d left %d items", i, u.Stack.Amount)
		}
	}
	if core.Items["copper"] != 20 {
		t.Errorf("core holds %d copper", core.Items["copper"])
	}

	var fault *ValidationFault
	if err := deposit(); !errors.As(err, &fault) {
		t.Fatalf("third deposit: expected fault, got %v", err)
	}
	if u.Stack.Amount != 10 || core.Items["copper"] != 20 {
		t.Error("throttled deposit changed state")
	}
}

func TestDropItem(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	u := h.spawn(t, "alpha", TeamSharded, Vec2{50, 50})
	a.SetUnit(u)

	var fault *ValidationFault
	if err := h.receive(t, a, ActDropItem, DropItemArgs{}); !errors.As(err, &fault) {
		t.Errorf("empty drop: expected fault, got %v", err)
	}
	u.SetStack("lead", 7)
	if err := h.receive(t, a, ActDropItem, DropItemArgs{Angle: 90}); err != nil {
		t.Fatal(err)
	}
	if u.Stack.Amount != 0 {
		t.Errorf("stack after drop %+v", u.Stack)
	}
}

func TestUnitPayloadPickupAndDrop(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	mega := h.spawn(t, "mega", TeamSharded, Vec2{100, 100})
	dagger := h.spawn(t, "dagger", TeamSharded, Vec2{110, 100})
	a.SetUnit(mega)

	if err := h.receive(t, a, ActRequestUnitPayload, RequestUnitPayloadArgs{Target: dagger.ID}); err != nil {
		t.Fatal(err)
	}
	if h.World.Unit(dagger.ID) != nil || len(mega.Payloads) != 1 {
		t.Fatalf("dagger not picked up: payloads %d", len(mega.Payloads))
	}

	if err := h.receive(t, a, ActRequestDropPayload, RequestDropPayloadArgs{At: Vec2{300, 100}}); err != nil {
		t.Fatal(err)
	}
	if h.World.Unit(dagger.ID) == nil {
		t.Fatal("dagger not dropped")
	}
	if want := (Vec2{100 + payloadDropRange, 100}); dagger.Pos != want {
		t.Errorf("drop clamped to %v, want %v", dagger.Pos, want)
	}
	if len(mega.Payloads) != 0 {
		t.Error("payload still carried")
	}
}

func TestUnitControlAndClear(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	h.place(t, "core-shard", TeamSharded, 10, 10, 0)
	alpha := a.Respawn(h.World)
	if alpha == nil {
		t.Fatal("no core unit spawned")
	}
	dagger := h.spawn(t, "dagger", TeamSharded, Vec2{150, 150})
	id := dagger.ID

	if err := h.receive(t, a, ActUnitControl, UnitControlArgs{Unit: &id}); err != nil {
		t.Fatal(err)
	}
	if a.Unit() != dagger {
		t.Fatal("dagger not possessed")
	}
	if h.World.Unit(alpha.ID) != nil {
		t.Error("core unit should despawn")
	}
	if dagger.DockedType == nil || dagger.DockedType.Name != "alpha" {
		t.Errorf("docked type %v", dagger.DockedType)
	}

	if err := h.receive(t, a, ActUnitClear, UnitClearArgs{}); err != nil {
		t.Fatal(err)
	}
	u := a.Unit()
	if u == nil || u.Type.Name != "alpha" || !u.SpawnedByCore {
		t.Fatalf("expected a fresh core unit, got %+v", u)
	}
	if u.Pos != dagger.Pos {
		t.Errorf("docked unit at %v, want %v", u.Pos, dagger.Pos)
	}
	if dagger.AI() == nil {
		t.Error("released dagger should return to AI control")
	}
}

func TestUnitControlOfEnemy(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	enemy := h.spawn(t, "dagger", TeamCrux, Vec2{150, 150})
	id := enemy.ID

	var fault *ValidationFault
	if err := h.receive(t, a, ActUnitControl, UnitControlArgs{Unit: &id}); !errors.As(err, &fault) {
		t.Fatalf("expected fault, got %v", err)
	}
	if a.Unit() != nil {
		t.Error("enemy possessed")
	}
}

func TestUnitControlOfRemovedUnitIsIgnored(t *testing.T) {
	h := newTestHost(t, nil)
	a, peer := h.join(1, "alice", TeamSharded)
	own := h.spawn(t, "dagger", TeamSharded, Vec2{100, 100})
	a.SetUnit(own)
	gone := h.spawn(t, "dagger", TeamSharded, Vec2{150, 150})
	id := gone.ID
	h.World.RemoveUnit(gone)

	if err := h.receive(t, a, ActUnitControl, UnitControlArgs{Unit: &id}); err != nil {
		t.Fatalf("stale unit should be a no-op, got %v", err)
	}
	if len(h.faults.faults) != 0 || len(peer.faultsOf()) != 0 {
		t.Errorf("stale unit raised faults: %d recorded, %d sent", len(h.faults.faults), len(peer.faultsOf()))
	}
	if a.Unit() != own {
		t.Error("player lost its unit")
	}
	if len(h.eventsOf(EventUnitControl)) != 0 || peer.frameCount() != 0 {
		t.Error("ignored control should not notify or forward")
	}
}

func TestBuildingControlSelect(t *testing.T) {
	h := newTestHost(t, nil)
	a, _ := h.join(1, "alice", TeamSharded)
	turret := h.place(t, "control-turret", TeamSharded, 30, 30, 0)
	dagger := h.spawn(t, "dagger", TeamSharded, turret.Center())
	a.SetUnit(dagger)

	if err := h.receive(t, a, ActBuildingControlSelect, BuildingControlSelectArgs{Build: turret.Pos()}); err != nil {
		t.Fatal(err)
	}
	if a.Unit() != nil {
		t.Error("player should have left the unit")
	}
	if turret.Payload == nil || turret.Payload.Unit != dagger {
		t.Error("unit should be stored in the building")
	}
	if h.World.Unit(dagger.ID) != nil {
		t.Error("stored unit still in the world")
	}
}
