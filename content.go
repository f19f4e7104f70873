package main

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContentYAML []byte

// Block is a placeable structure type
type Block struct {
	Name              string `yaml:"name"`
	Size              int    `yaml:"size"`
	Rotate            bool   `yaml:"rotate"`
	Solid             bool   `yaml:"solid"`
	Chained           bool   `yaml:"chained"`
	Group             string `yaml:"group"`
	AllowDiagonal     bool   `yaml:"allow_diagonal"`
	SwapDiagonal      bool   `yaml:"swap_diagonal"`
	AllowRectangle    bool   `yaml:"allow_rectangle"`
	ConveyorPlacement bool   `yaml:"conveyor_placement"`
	Configurable      bool   `yaml:"configurable"`
	Commandable       bool   `yaml:"commandable"`
	ControlSelect     bool   `yaml:"control_select"`
	ItemCapacity      int    `yaml:"item_capacity"`
	Pickupable        bool   `yaml:"pickupable"`
	AcceptsPayload    bool   `yaml:"accepts_payload"`
	Core              bool   `yaml:"core"`
	Hidden            bool   `yaml:"hidden"`
	UnitType          string `yaml:"unit_type"`
}

// Offset is the world-space shift of the block centre from its origin tile
func (b *Block) Offset() float64 {
	if b.Size%2 == 0 {
		return TileSize / 2
	}
	return 0
}

// Footprint returns the tiles covered when the block sits at (x, y)
func (b *Block) Footprint(x, y int) TileRect {
	lo := (b.Size - 1) / 2
	return TileRect{X: x - lo, Y: y - lo, W: b.Size, H: b.Size}
}

// Bounds returns the world-space rectangle covered at (x, y)
func (b *Block) Bounds(x, y int) Rect {
	s := float64(b.Size) * TileSize
	return RectCentered(float64(x)*TileSize+b.Offset(), float64(y)*TileSize+b.Offset(), s, s)
}

// CanReplace reports whether this block may be placed over other as an upgrade
func (b *Block) CanReplace(other *Block) bool {
	return other != nil && other != b && b.Group != "" && b.Group == other.Group && b.Size == other.Size
}

// FlipRotation mirrors a rotation across the x or y axis
func (b *Block) FlipRotation(rotation int, flipX bool) int {
	if !b.Rotate {
		return rotation
	}
	if (flipX && rotation%2 == 0) || (!flipX && rotation%2 == 1) {
		return Mod(rotation+2, 4)
	}
	return rotation
}

// UnitType describes a class of unit
type UnitType struct {
	Name               string   `yaml:"name"`
	HitSize            float64  `yaml:"hit_size"`
	Flying             bool     `yaml:"flying"`
	CollisionLayer     int      `yaml:"collision_layer"` // -1 = no physics layer
	TargetGround       bool     `yaml:"target_ground"`
	TargetAir          bool     `yaml:"target_air"`
	ItemCapacity       int      `yaml:"item_capacity"`
	PayloadCapacity    float64  `yaml:"payload_capacity"`
	PlayerControllable bool     `yaml:"player_controllable"`
	CoreUnitDock       bool     `yaml:"core_unit_dock"`
	CommandNames       []string `yaml:"commands"`
	StanceNames        []string `yaml:"stances"`

	commands []*UnitCommand
	stances  []*UnitStance
}

// AllowCommand reports whether units of this type accept c
func (t *UnitType) AllowCommand(c *UnitCommand) bool {
	for _, own := range t.commands {
		if own == c {
			return true
		}
	}
	return false
}

// AllowStance reports whether units of this type accept s. Stop is always allowed.
func (t *UnitType) AllowStance(s *UnitStance) bool {
	if s == StanceStop {
		return true
	}
	for _, own := range t.stances {
		if own == s {
			return true
		}
	}
	return false
}

// DefaultCommand is the first listed command
func (t *UnitType) DefaultCommand() *UnitCommand {
	if len(t.commands) == 0 {
		return CmdMove
	}
	return t.commands[0]
}

// Content is the loaded catalog of items, blocks and unit types
type Content struct {
	Items  []string    `yaml:"items"`
	Blocks []*Block    `yaml:"blocks"`
	Units  []*UnitType `yaml:"units"`

	items  map[string]bool
	blocks map[string]*Block
	units  map[string]*UnitType
}

// ParseContent decodes and validates a YAML catalog
func ParseContent(raw []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("content yaml: %w", err)
	}
	if err := c.resolve(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadContent reads a catalog from path, or the embedded default when path is empty
func LoadContent(path string) (*Content, error) {
	if path == "" {
		return ParseContent(defaultContentYAML)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseContent(raw)
}

// DefaultContent returns the embedded catalog
func DefaultContent() *Content {
	c, err := ParseContent(defaultContentYAML)
	if err != nil {
		panic("embedded content: " + err.Error())
	}
	return c
}

func (c *Content) resolve() error {
	c.items = make(map[string]bool, len(c.Items))
	for _, it := range c.Items {
		c.items[it] = true
	}
	c.blocks = make(map[string]*Block, len(c.Blocks))
	for _, b := range c.Blocks {
		if b.Name == "" {
			return fmt.Errorf("block without name")
		}
		if _, dup := c.blocks[b.Name]; dup {
			return fmt.Errorf("duplicate block %q", b.Name)
		}
		if b.Size == 0 {
			b.Size = 1
		}
		if b.Size < 0 {
			return fmt.Errorf("block %q: invalid size %d", b.Name, b.Size)
		}
		c.blocks[b.Name] = b
	}
	c.units = make(map[string]*UnitType, len(c.Units))
	for _, u := range c.Units {
		if _, dup := c.units[u.Name]; dup {
			return fmt.Errorf("duplicate unit type %q", u.Name)
		}
		if u.CollisionLayer >= PhysicsLayers || u.CollisionLayer < -1 {
			return fmt.Errorf("unit %q: collision layer %d out of range", u.Name, u.CollisionLayer)
		}
		u.commands = u.commands[:0]
		for _, name := range u.CommandNames {
			cmd := UnitCommandByName(name)
			if cmd == nil {
				return fmt.Errorf("unit %q: unknown command %q", u.Name, name)
			}
			u.commands = append(u.commands, cmd)
		}
		u.stances = u.stances[:0]
		for _, name := range u.StanceNames {
			st := UnitStanceByName(name)
			if st == nil || st == StanceStop {
				return fmt.Errorf("unit %q: unknown stance %q", u.Name, name)
			}
			u.stances = append(u.stances, st)
		}
		c.units[u.Name] = u
	}
	for _, b := range c.Blocks {
		if b.UnitType != "" && c.units[b.UnitType] == nil {
			return fmt.Errorf("block %q: unknown unit type %q", b.Name, b.UnitType)
		}
	}
	return nil
}

// Block looks up a block by name
func (c *Content) Block(name string) *Block { return c.blocks[name] }

// UnitType looks up a unit type by name
func (c *Content) UnitType(name string) *UnitType { return c.units[name] }

// HasItem reports whether name is a known item
func (c *Content) HasItem(name string) bool { return c.items[name] }
