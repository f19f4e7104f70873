package main

// UnitCommand is an order kind a command AI can follow
type UnitCommand struct {
	ID           uint8
	Name         string
	SwitchToMove bool // issuing a position order switches the unit back to move
	ResetTarget  bool // entering or leaving this command drops current targets
	DrawTarget   bool
}

var (
	CmdMove          = &UnitCommand{ID: 0, Name: "move", DrawTarget: true}
	CmdRepair        = &UnitCommand{ID: 1, Name: "repair", SwitchToMove: true}
	CmdRebuild       = &UnitCommand{ID: 2, Name: "rebuild", SwitchToMove: true}
	CmdAssist        = &UnitCommand{ID: 3, Name: "assist", SwitchToMove: true}
	CmdMine          = &UnitCommand{ID: 4, Name: "mine", SwitchToMove: true}
	CmdBoost         = &UnitCommand{ID: 5, Name: "boost", DrawTarget: true}
	CmdEnterPayload  = &UnitCommand{ID: 6, Name: "enterPayload", DrawTarget: true}
	CmdLoadUnits     = &UnitCommand{ID: 7, Name: "loadUnits"}
	CmdLoadBlocks    = &UnitCommand{ID: 8, Name: "loadBlocks"}
	CmdUnloadPayload = &UnitCommand{ID: 9, Name: "unloadPayload", DrawTarget: true}
	CmdLoopPayload   = &UnitCommand{ID: 10, Name: "loopPayload", ResetTarget: true}
)

// unitCommands is indexed by ID
var unitCommands = []*UnitCommand{
	CmdMove, CmdRepair, CmdRebuild, CmdAssist, CmdMine, CmdBoost,
	CmdEnterPayload, CmdLoadUnits, CmdLoadBlocks, CmdUnloadPayload, CmdLoopPayload,
}

// UnitCommandByID returns the command with id, or nil
func UnitCommandByID(id uint8) *UnitCommand {
	if int(id) >= len(unitCommands) {
		return nil
	}
	return unitCommands[id]
}

func UnitCommandByName(name string) *UnitCommand {
	for _, c := range unitCommands {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// UnitStance modifies how a unit behaves while following a command.
// Toggle stances can be switched on and off independently; the others
// exclude each other.
type UnitStance struct {
	ID     uint8
	Name   string
	Toggle bool
}

var (
	StanceStop         = &UnitStance{ID: 0, Name: "stop"}
	StanceHoldFire     = &UnitStance{ID: 1, Name: "holdFire", Toggle: true}
	StancePursueTarget = &UnitStance{ID: 2, Name: "pursueTarget"}
	StancePatrol       = &UnitStance{ID: 3, Name: "patrol"}
	StanceRam          = &UnitStance{ID: 4, Name: "ram"}
	StanceHoldPosition = &UnitStance{ID: 5, Name: "holdPosition", Toggle: true}
)

var unitStances = []*UnitStance{
	StanceStop, StanceHoldFire, StancePursueTarget, StancePatrol, StanceRam, StanceHoldPosition,
}

func UnitStanceByID(id uint8) *UnitStance {
	if int(id) >= len(unitStances) {
		return nil
	}
	return unitStances[id]
}

func UnitStanceByName(name string) *UnitStance {
	for _, s := range unitStances {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// StanceSet is a bit set indexed by stance ID
type StanceSet uint32

func (s StanceSet) Has(st *UnitStance) bool { return s&(1<<st.ID) != 0 }

func (s StanceSet) With(st *UnitStance, on bool) StanceSet {
	if on {
		return s | 1<<st.ID
	}
	return s &^ (1 << st.ID)
}

// Stances lists the stances in the set in ID order
func (s StanceSet) Stances() []*UnitStance {
	var out []*UnitStance
	for _, st := range unitStances {
		if s.Has(st) {
			out = append(out, st)
		}
	}
	return out
}
