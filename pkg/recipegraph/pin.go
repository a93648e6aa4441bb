package recipegraph

import (
	"github.com/zclconf/go-cty/cty"
)

// Direction is the data flow direction of a pin.
type Direction int

const (
	// Input pins consume a value. At most one link may end at an input pin.
	Input Direction = iota
	// Output pins produce a value. Any number of links may start at an output pin.
	Output
)

// String returns "input" or "output".
func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// Untyped is the type handle of a pin whose type has not been declared.
// Links can never be made to or from an untyped pin.
var Untyped = cty.NilType

// Pin is a typed, named connection point on a node.
//
// Pins are created by their node's initialization and are owned by that node.
// The produced value is transient: it is only meaningful after the owning
// node (or, for inputs, the upstream node) executed in the current run.
type Pin struct {
	id        ID
	name      string
	tooltip   string
	direction Direction
	typ       cty.Type
	def       cty.Value
	value     cty.Value
}

func newPin(id ID, name string, dir Direction, typ cty.Type) *Pin {
	return &Pin{
		id:        id,
		name:      name,
		direction: dir,
		typ:       typ,
		def:       cty.NilVal,
		value:     cty.NilVal,
	}
}

// ID returns the pin identifier.
func (p *Pin) ID() ID { return p.id }

// Name returns the human-readable pin name.
func (p *Pin) Name() string { return p.name }

// Tooltip returns the pin's descriptive text.
func (p *Pin) Tooltip() string { return p.tooltip }

// Direction returns whether the pin is an input or an output.
func (p *Pin) Direction() Direction { return p.direction }

// Type returns the declared type handle. Untyped if none was declared.
func (p *Pin) Type() cty.Type { return p.typ }

// Default returns the value used when an input is left unlinked,
// or cty.NilVal if the pin has no default.
func (p *Pin) Default() cty.Value { return p.def }

// Value returns the value most recently produced on (or propagated to) the pin.
// Returns cty.NilVal if nothing has been produced yet.
func (p *Pin) Value() cty.Value { return p.value }

// IsTyped reports whether the pin carries a declared type.
func (p *Pin) IsTyped() bool {
	return p.typ != cty.NilType
}

func isAbsent(v cty.Value) bool {
	return v.Type() == cty.NilType
}
