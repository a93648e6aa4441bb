package recipegraph

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Kind enumerates the closed set of node variants.
type Kind int

const (
	KindConstant Kind = iota
	KindConstructor
	KindFunction
	KindAcceptor
)

// String returns the kind name used in persisted documents.
func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindConstructor:
		return "constructor"
	case KindFunction:
		return "function"
	case KindAcceptor:
		return "acceptor"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindConstant; k <= KindAcceptor; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Node is a graph vertex: an ordered set of input pins, an ordered set of
// output pins, and a variant-specific construction step.
//
// The variant set is closed; switch on the concrete type (*Constant,
// *Constructor, *Function, *Acceptor) or on Kind.
type Node interface {
	// ID returns the node identifier, or 0 before the node is added to a graph.
	ID() ID
	// Kind returns the node variant.
	Kind() Kind
	// Name returns the display name.
	Name() string
	// Tag returns the user-editable label.
	Tag() string
	// SetTag replaces the user-editable label.
	SetTag(tag string)
	// Inputs returns the input pins in declared order.
	Inputs() []*Pin
	// Outputs returns the output pins in declared order.
	Outputs() []*Pin
	// Executed reports whether the node ran (or was planned) in the current pass.
	Executed() bool

	base() *nodeBase
	// layout returns the pin specification the node currently wants.
	layout() []pinSpec
	// execute performs the variant's effect. args holds one value per input,
	// already resolved from links or defaults.
	execute(ctx context.Context, args []cty.Value) ([]cty.Value, error)
}

// pinSpec declares one pin for a node to lay out.
type pinSpec struct {
	name      string
	tooltip   string
	direction Direction
	typ       cty.Type
	def       cty.Value
}

// nodeBase holds the state shared by every variant.
type nodeBase struct {
	id       ID
	name     string
	tag      string
	inputs   []*Pin
	outputs  []*Pin
	executed bool
	ready    bool
}

func (b *nodeBase) ID() ID            { return b.id }
func (b *nodeBase) Name() string      { return b.name }
func (b *nodeBase) Tag() string       { return b.tag }
func (b *nodeBase) SetTag(tag string) { b.tag = tag }
func (b *nodeBase) Inputs() []*Pin    { return b.inputs }
func (b *nodeBase) Outputs() []*Pin   { return b.outputs }
func (b *nodeBase) Executed() bool    { return b.executed }
func (b *nodeBase) base() *nodeBase   { return b }

// pins returns inputs followed by outputs.
func (b *nodeBase) pins() []*Pin {
	all := make([]*Pin, 0, len(b.inputs)+len(b.outputs))
	all = append(all, b.inputs...)
	return append(all, b.outputs...)
}

// maxID returns the largest id held by the node or its pins.
func (b *nodeBase) maxID() ID {
	m := b.id
	for _, p := range b.pins() {
		m = max(m, p.id)
	}
	return m
}

// initialize allocates the node id and lays out pins from n's specification.
// Pin ids are allocated in declaration order: inputs first, then outputs.
func initialize(n Node, ids *Allocator) {
	b := n.base()
	b.id = ids.Next()
	layoutPins(n, ids)
	b.ready = true
}

// layoutPins replaces n's pins with freshly allocated ones.
func layoutPins(n Node, ids *Allocator) {
	b := n.base()
	b.inputs = nil
	b.outputs = nil
	for _, spec := range n.layout() {
		p := newPin(ids.Next(), spec.name, spec.direction, spec.typ)
		p.tooltip = spec.tooltip
		if spec.def.Type() != cty.NilType {
			p.def = spec.def
		}
		if spec.direction == Input {
			b.inputs = append(b.inputs, p)
		} else {
			b.outputs = append(b.outputs, p)
		}
	}
}
