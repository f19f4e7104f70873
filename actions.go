package main

import (
	"errors"
	"fmt"
)

// ActionID is the stable wire id of a replicated action
type ActionID uint8

const (
	ActCommandUnits ActionID = iota + 1
	ActSetUnitCommand
	ActSetUnitStance
	ActCommandBuilding
	ActTileConfig
	ActRotateBlock
	ActTileTap
	ActDeletePlans
	ActRequestItem
	ActTakeItems
	ActTransferInventory
	ActTransferItemTo
	ActTransferItemEffect
	ActDropItem
	ActRequestUnitPayload
	ActPickedUnitPayload
	ActRequestBuildPayload
	ActPickedBuildPayload
	ActRequestDropPayload
	ActPayloadDropped
	ActUnitEnteredPayload
	ActUnitControl
	ActUnitClear
	ActBuildingControlSelect
)

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrActionNotAccepted = errors.New("action not accepted from this peer")
	ErrBadArgs           = errors.New("malformed action arguments")
)

// ActionType is the permission category a policy decides on
type ActionType uint8

const (
	ActionCommandUnits ActionType = iota
	ActionCommandBuilding
	ActionConfigure
	ActionRotate
	ActionRemovePlanned
	ActionWithdrawItem
	ActionDepositItem
	ActionDropItem
	ActionPickupBlock
	ActionDropPayload
	ActionControl
	ActionRespawn
	ActionBuildSelect
)

var actionTypeNames = [...]string{
	ActionCommandUnits:    "commandUnits",
	ActionCommandBuilding: "commandBuilding",
	ActionConfigure:       "configure",
	ActionRotate:          "rotate",
	ActionRemovePlanned:   "removePlanned",
	ActionWithdrawItem:    "withdrawItem",
	ActionDepositItem:     "depositItem",
	ActionDropItem:        "dropItem",
	ActionPickupBlock:     "pickupBlock",
	ActionDropPayload:     "dropPayload",
	ActionControl:         "control",
	ActionRespawn:         "respawn",
	ActionBuildSelect:     "buildSelect",
}

func (t ActionType) String() string {
	if int(t) < len(actionTypeNames) {
		return actionTypeNames[t]
	}
	return fmt.Sprintf("action(%d)", uint8(t))
}

// ActionTypeByName resolves a category name, as used in configuration
func ActionTypeByName(name string) (ActionType, bool) {
	for i, n := range actionTypeNames {
		if n == name {
			return ActionType(i), true
		}
	}
	return 0, false
}

// ActionDesc describes an attempted action to the permission policy.
// Only the fields relevant to Type are set.
type ActionDesc struct {
	Type      ActionType
	Player    *Player
	Tile      int32 // packed position, -1 when not tile bound
	Units     []UnitID
	Buildings []int32
	Unit      *Unit
	Item      string
	Amount    int
	Config    any
	Rotation  int
	Plans     []int32
}

func newDesc(t ActionType, p *Player) *ActionDesc {
	return &ActionDesc{Type: t, Player: p, Tile: -1}
}

// ValidationFault is raised on the host when the policy or a host-side
// rule rejects an action. It aborts that action only.
type ValidationFault struct {
	Player *Player
	Action ActionType
	Reason string
}

func (f *ValidationFault) Error() string {
	name := "<server>"
	if f.Player != nil {
		name = f.Player.Name
	}
	return fmt.Sprintf("validation fault: player %s, action %s: %s", name, f.Action, f.Reason)
}

// Action arguments. Every struct is the fixed argument list of one action;
// the player travels in the packet header, not here.

type CommandUnitsArgs struct {
	UnitIDs     []UnitID `msgpack:"u"`
	BuildTarget *int32   `msgpack:"b"`
	UnitTarget  *UnitID  `msgpack:"t"`
	PosTarget   *Vec2    `msgpack:"p"`
	Queue       bool     `msgpack:"q"`
	FinalBatch  bool     `msgpack:"f"`
}

type SetUnitCommandArgs struct {
	UnitIDs []UnitID `msgpack:"u"`
	Command uint8    `msgpack:"c"`
}

type SetUnitStanceArgs struct {
	UnitIDs []UnitID `msgpack:"u"`
	Stance  uint8    `msgpack:"s"`
	Enable  bool     `msgpack:"e"`
}

type CommandBuildingArgs struct {
	Buildings []int32 `msgpack:"b"`
	Target    Vec2    `msgpack:"t"`
}

type TileConfigArgs struct {
	Build int32 `msgpack:"b"`
	Value any   `msgpack:"v"`
}

type RotateBlockArgs struct {
	Build     int32 `msgpack:"b"`
	Direction bool  `msgpack:"d"` // true = counter-clockwise
}

type TileTapArgs struct {
	Tile int32 `msgpack:"t"`
}

type DeletePlansArgs struct {
	Positions []int32 `msgpack:"p"`
}

type RequestItemArgs struct {
	Build  int32  `msgpack:"b"`
	Item   string `msgpack:"i"`
	Amount int    `msgpack:"n"`
}

// TakeItemsArgs carries the resulting counts of both sides, so applying
// a duplicate is a no-op.
type TakeItemsArgs struct {
	Build       int32  `msgpack:"b"`
	Item        string `msgpack:"i"`
	Amount      int    `msgpack:"n"`
	To          UnitID `msgpack:"u"`
	BuildAmount int    `msgpack:"bn"` // items of this kind left in the building
	UnitAmount  int    `msgpack:"un"` // the unit's stack afterwards
}

type TransferInventoryArgs struct {
	Build int32 `msgpack:"b"`
}

// TransferItemToArgs carries resulting counts like TakeItemsArgs
type TransferItemToArgs struct {
	Unit        UnitID `msgpack:"u"` // 0 = no source unit
	Item        string `msgpack:"i"`
	Amount      int    `msgpack:"n"`
	From        Vec2   `msgpack:"f"`
	Build       int32  `msgpack:"b"`
	BuildAmount int    `msgpack:"bn"`
	UnitAmount  int    `msgpack:"un"`
}

type TransferItemEffectArgs struct {
	Item string `msgpack:"i"`
	From Vec2   `msgpack:"f"`
	To   UnitID `msgpack:"u"`
}

type DropItemArgs struct {
	Angle float64 `msgpack:"a"`
}

type RequestUnitPayloadArgs struct {
	Target UnitID `msgpack:"t"`
}

type PickedUnitPayloadArgs struct {
	Unit   UnitID `msgpack:"u"`
	Target UnitID `msgpack:"t"`
}

type RequestBuildPayloadArgs struct {
	Build int32 `msgpack:"b"`
}

type PickedBuildPayloadArgs struct {
	Unit     UnitID `msgpack:"u"`
	Build    int32  `msgpack:"b"`
	OnGround bool   `msgpack:"g"`
}

type RequestDropPayloadArgs struct {
	At Vec2 `msgpack:"p"`
}

type PayloadDroppedArgs struct {
	Unit UnitID `msgpack:"u"`
	At   Vec2   `msgpack:"p"`
}

type UnitEnteredPayloadArgs struct {
	Unit  UnitID `msgpack:"u"`
	Build int32  `msgpack:"b"`
}

type UnitControlArgs struct {
	Unit *UnitID `msgpack:"u"` // nil releases the current unit
}

type UnitClearArgs struct{}

type BuildingControlSelectArgs struct {
	Build int32 `msgpack:"b"`
}
