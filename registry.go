package main

import (
	"fmt"
	"reflect"
	"strings"
)

// Channel selects delivery guarantees for an action
type Channel uint8

const (
	Reliable   Channel = iota // ordered, never dropped
	Unreliable                // best effort, may drop or duplicate
)

func (c Channel) String() string {
	if c == Unreliable {
		return "unreliable"
	}
	return "reliable"
}

// FieldKind is the wire shape of one argument
type FieldKind uint8

const (
	KindBool FieldKind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindVec2
	KindList
	KindOptional
	KindAny
)

var kindNames = [...]string{"bool", "int", "uint", "float", "string", "vec2", "list", "optional", "any"}

// FieldSchema describes one argument; Elem is set for lists and optionals
type FieldSchema struct {
	Name string
	Kind FieldKind
	Elem FieldKind
}

// ArgSchema is the fixed argument list of an action
type ArgSchema []FieldSchema

func (s ArgSchema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		k := kindNames[f.Kind]
		if f.Kind == KindList || f.Kind == KindOptional {
			k += "<" + kindNames[f.Elem] + ">"
		}
		parts[i] = f.Name + ":" + k
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var vec2Type = reflect.TypeOf(Vec2{})

func scalarKind(t reflect.Type) (FieldKind, bool) {
	if t == vec2Type {
		return KindVec2, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBool, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt, true
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindUint, true
	case reflect.Float32, reflect.Float64:
		return KindFloat, true
	case reflect.String:
		return KindString, true
	}
	return 0, false
}

// schemaOf derives the argument schema of an args struct. Every field must
// be exported, carry a unique msgpack tag and have a supported shape.
func schemaOf(t reflect.Type) (ArgSchema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("args must be a struct, got %s", t)
	}
	schema := make(ArgSchema, 0, t.NumField())
	seen := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			return nil, fmt.Errorf("field %s is unexported", f.Name)
		}
		name, _, _ := strings.Cut(f.Tag.Get("msgpack"), ",")
		if name == "" || name == "-" {
			return nil, fmt.Errorf("field %s has no msgpack name", f.Name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate msgpack name %q", name)
		}
		seen[name] = true

		fs := FieldSchema{Name: name}
		switch {
		case f.Type.Kind() == reflect.Slice:
			elem, ok := scalarKind(f.Type.Elem())
			if !ok {
				return nil, fmt.Errorf("field %s: unsupported list element %s", f.Name, f.Type.Elem())
			}
			fs.Kind, fs.Elem = KindList, elem
		case f.Type.Kind() == reflect.Pointer:
			elem, ok := scalarKind(f.Type.Elem())
			if !ok {
				return nil, fmt.Errorf("field %s: unsupported optional %s", f.Name, f.Type.Elem())
			}
			fs.Kind, fs.Elem = KindOptional, elem
		case f.Type.Kind() == reflect.Interface && f.Type.NumMethod() == 0:
			fs.Kind = KindAny
		default:
			k, ok := scalarKind(f.Type)
			if !ok {
				return nil, fmt.Errorf("field %s: unsupported type %s", f.Name, f.Type)
			}
			fs.Kind = k
		}
		schema = append(schema, fs)
	}
	return schema, nil
}

// Handler is a typed action handler with its argument schema
type Handler struct {
	argType reflect.Type
	schema  ArgSchema
	decode  func(raw []byte) (any, error)
	run     func(hc *HandlerContext, args any) error
}

// On wraps a typed handler. The schema of T is derived here, once; an
// unsupported argument struct panics.
func On[T any](fn func(hc *HandlerContext, args T) error) Handler {
	t := reflect.TypeFor[T]()
	schema, err := schemaOf(t)
	if err != nil {
		panic(fmt.Sprintf("handler args %s: %v", t, err))
	}
	return Handler{
		argType: t,
		schema:  schema,
		decode: func(raw []byte) (any, error) {
			var args T
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return args, nil
		},
		run: func(hc *HandlerContext, args any) error {
			return fn(hc, args.(T))
		},
	}
}

// ActionSpec binds an action id to its handler and delivery rules
type ActionSpec struct {
	ID       ActionID
	Name     string
	Channel  Channel
	Forward  bool // the host re-broadcasts accepted calls to every other peer
	Local    bool // a client applies its own call before sending it
	HostOnly bool // only the host originates it; clients never send it
	Handler  Handler
}

// Schema returns the argument list declared for the action
func (s *ActionSpec) Schema() ArgSchema { return s.Handler.schema }

// ActionRegistry maps action ids to specs. It is filled at startup and
// read-only afterwards.
type ActionRegistry struct {
	specs  map[ActionID]*ActionSpec
	byName map[string]*ActionSpec
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{
		specs:  make(map[ActionID]*ActionSpec),
		byName: make(map[string]*ActionSpec),
	}
}

// Register adds spec. Duplicate ids or names and missing handlers panic.
func (r *ActionRegistry) Register(spec ActionSpec) {
	if spec.Handler.run == nil {
		panic(fmt.Sprintf("action %s: no handler", spec.Name))
	}
	if _, dup := r.specs[spec.ID]; dup {
		panic(fmt.Sprintf("action id %d registered twice", spec.ID))
	}
	if _, dup := r.byName[spec.Name]; dup {
		panic(fmt.Sprintf("action %s registered twice", spec.Name))
	}
	s := spec
	r.specs[spec.ID] = &s
	r.byName[spec.Name] = &s
}

// Spec returns the spec for id
func (r *ActionRegistry) Spec(id ActionID) (*ActionSpec, error) {
	s, ok := r.specs[id]
	if !ok {
		return nil, fmt.Errorf("action %d: %w", id, ErrUnknownAction)
	}
	return s, nil
}

// Lookup returns the spec registered under name
func (r *ActionRegistry) Lookup(name string) (*ActionSpec, bool) {
	s, ok := r.byName[name]
	return s, ok
}
