package main

// RegisterActions fills r with every replicated action. Ids are wire
// constants; channels and forwarding follow what each action changes.
func RegisterActions(r *ActionRegistry) {
	for _, spec := range []ActionSpec{
		{ID: ActCommandUnits, Name: "commandUnits", Channel: Reliable, Forward: true, Handler: On(handleCommandUnits)},
		{ID: ActSetUnitCommand, Name: "setUnitCommand", Channel: Reliable, Forward: true, Handler: On(handleSetUnitCommand)},
		{ID: ActSetUnitStance, Name: "setUnitStance", Channel: Reliable, Forward: true, Handler: On(handleSetUnitStance)},
		{ID: ActCommandBuilding, Name: "commandBuilding", Channel: Reliable, Forward: true, Handler: On(handleCommandBuilding)},
		{ID: ActTileConfig, Name: "tileConfig", Channel: Reliable, Forward: true, Local: true, Handler: On(handleTileConfig)},
		{ID: ActRotateBlock, Name: "rotateBlock", Channel: Reliable, Forward: true, Handler: On(handleRotateBlock)},
		{ID: ActTileTap, Name: "tileTap", Channel: Unreliable, Local: true, Handler: On(handleTileTap)},
		{ID: ActDeletePlans, Name: "deletePlans", Channel: Reliable, Forward: true, Local: true, Handler: On(handleDeletePlans)},

		{ID: ActRequestItem, Name: "requestItem", Channel: Reliable, Handler: On(handleRequestItem)},
		{ID: ActTakeItems, Name: "takeItems", Channel: Unreliable, HostOnly: true, Handler: On(handleTakeItems)},
		{ID: ActTransferInventory, Name: "transferInventory", Channel: Reliable, Handler: On(handleTransferInventory)},
		{ID: ActTransferItemTo, Name: "transferItemTo", Channel: Unreliable, HostOnly: true, Handler: On(handleTransferItemTo)},
		{ID: ActTransferItemEffect, Name: "transferItemEffect", Channel: Unreliable, HostOnly: true, Handler: On(handleTransferItemEffect)},
		{ID: ActDropItem, Name: "dropItem", Channel: Reliable, Handler: On(handleDropItem)},

		{ID: ActRequestUnitPayload, Name: "requestUnitPayload", Channel: Reliable, Handler: On(handleRequestUnitPayload)},
		{ID: ActPickedUnitPayload, Name: "pickedUnitPayload", Channel: Reliable, HostOnly: true, Handler: On(handlePickedUnitPayload)},
		{ID: ActRequestBuildPayload, Name: "requestBuildPayload", Channel: Reliable, Handler: On(handleRequestBuildPayload)},
		{ID: ActPickedBuildPayload, Name: "pickedBuildPayload", Channel: Reliable, HostOnly: true, Handler: On(handlePickedBuildPayload)},
		{ID: ActRequestDropPayload, Name: "requestDropPayload", Channel: Reliable, Handler: On(handleRequestDropPayload)},
		{ID: ActPayloadDropped, Name: "payloadDropped", Channel: Reliable, HostOnly: true, Handler: On(handlePayloadDropped)},
		{ID: ActUnitEnteredPayload, Name: "unitEnteredPayload", Channel: Reliable, HostOnly: true, Handler: On(handleUnitEnteredPayload)},

		{ID: ActUnitControl, Name: "unitControl", Channel: Reliable, Forward: true, Local: true, Handler: On(handleUnitControl)},
		{ID: ActUnitClear, Name: "unitClear", Channel: Reliable, Forward: true, Handler: On(handleUnitClear)},
		{ID: ActBuildingControlSelect, Name: "buildingControlSelect", Channel: Reliable, Forward: true, Handler: On(handleBuildingControlSelect)},
	} {
		r.Register(spec)
	}
}

// DefaultRegistry returns a registry with every action registered
func DefaultRegistry() *ActionRegistry {
	r := NewActionRegistry()
	RegisterActions(r)
	return r
}
