package main

// EventType names a domain event
type EventType string

const (
	EventUnitsCommanded   EventType = "units_commanded"
	EventCommandChanged   EventType = "command_changed"
	EventStanceChanged    EventType = "stance_changed"
	EventFormation        EventType = "formation"
	EventBuildingCommand  EventType = "building_command"
	EventConfig           EventType = "config"
	EventRotate           EventType = "rotate"
	EventTap              EventType = "tap"
	EventPlansDeleted     EventType = "plans_deleted"
	EventWithdraw         EventType = "withdraw"
	EventDeposit          EventType = "deposit"
	EventPayloadPickup    EventType = "payload_pickup"
	EventPayloadDrop      EventType = "payload_drop"
	EventUnitControl      EventType = "unit_control"
	EventBuildingSelected EventType = "building_selected"
)

// Event is published after an action has been applied
type Event interface {
	Type() EventType
	Actor() *Player // nil for host-originated events
}

// BaseEvent carries the fields every event has
type BaseEvent struct {
	Kind   EventType
	Player *Player
}

func (e *BaseEvent) Type() EventType { return e.Kind }
func (e *BaseEvent) Actor() *Player  { return e.Player }

// UnitsCommandedEvent fires once per commandUnits packet
type UnitsCommandedEvent struct {
	BaseEvent
	Units  []UnitID
	Target CommandTarget
	Queued bool
}

// CommandChangedEvent fires when units switch command or stance
type CommandChangedEvent struct {
	BaseEvent
	Units   []UnitID
	Command *UnitCommand
	Stance  *UnitStance
	Enabled bool
}

// FormationEvent fires when a finalized batch forms groups
type FormationEvent struct {
	BaseEvent
	Anchor Vec2
	Groups []*UnitGroup
}

// BuildingEvent covers events about one building
type BuildingEvent struct {
	BaseEvent
	Build    *Building
	Value    any // config value, or the commanded position for building commands
	Rotation int
}

// TapEvent fires on tileTap
type TapEvent struct {
	BaseEvent
	Tile int32
}

// PlansDeletedEvent fires when team rebuild plans are removed
type PlansDeletedEvent struct {
	BaseEvent
	Positions []int32
}

// ItemEvent covers item withdraws and deposits
type ItemEvent struct {
	BaseEvent
	Build  *Building
	Unit   *Unit
	Item   string
	Amount int
}

// PayloadEvent covers payload pickups and drops
type PayloadEvent struct {
	BaseEvent
	Carrier *Unit
	Payload Payload
	At      Vec2
}

// UnitControlEvent fires when a player takes or releases a unit
type UnitControlEvent struct {
	BaseEvent
	Unit  *Unit // nil when released
	Build *Building
}

// EventHandler receives published events
type EventHandler func(e Event)

// EventBus dispatches events to subscribers synchronously, on the
// simulation goroutine, in subscription order.
type EventBus struct {
	handlers map[EventType][]EventHandler
	all      []EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]EventHandler)}
}

// Subscribe registers fn for one event type
func (b *EventBus) Subscribe(t EventType, fn EventHandler) {
	b.handlers[t] = append(b.handlers[t], fn)
}

// SubscribeAll registers fn for every event
func (b *EventBus) SubscribeAll(fn EventHandler) {
	b.all = append(b.all, fn)
}

func (b *EventBus) Publish(e Event) {
	for _, fn := range b.handlers[e.Type()] {
		fn(e)
	}
	for _, fn := range b.all {
		fn(e)
	}
}
