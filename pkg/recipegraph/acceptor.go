package recipegraph

import (
	"context"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Well-known acceptor slots consumed by the surrounding system.
const (
	SlotAgent       = "agent"
	SlotEnvironment = "environment"
	SlotMethod      = "method"
)

// Acceptor is a terminal node: one input, no outputs. It names a slot in the
// consuming system and keeps the value most recently propagated into it.
//
// Result may be read from another goroutine while the owning goroutine runs
// recipes; everything else on a node belongs to the owning goroutine.
type Acceptor struct {
	nodeBase
	slot   string
	accept cty.Type

	mu     sync.Mutex
	result cty.Value
}

var _ Node = (*Acceptor)(nil)

// NewAcceptor creates an acceptor for slot whose input accepts values
// assignable to accept. Pass cty.DynamicPseudoType to accept anything.
func NewAcceptor(slot string, accept cty.Type) *Acceptor {
	return &Acceptor{
		nodeBase: nodeBase{name: slot},
		slot:     slot,
		accept:   accept,
		result:   cty.NilVal,
	}
}

// Kind returns KindAcceptor.
func (a *Acceptor) Kind() Kind { return KindAcceptor }

// Slot returns the slot name.
func (a *Acceptor) Slot() string { return a.slot }

// Accepts returns the type of the input pin.
func (a *Acceptor) Accepts() cty.Type { return a.accept }

// Result returns the last value delivered to the acceptor, or cty.NilVal.
// The value is only meaningful if the last run of its recipe succeeded.
func (a *Acceptor) Result() cty.Value {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

func (a *Acceptor) setResult(v cty.Value) {
	a.mu.Lock()
	a.result = v
	a.mu.Unlock()
}

func (a *Acceptor) layout() []pinSpec {
	return []pinSpec{{
		name:      a.slot,
		tooltip:   "value delivered to the " + a.slot + " slot",
		direction: Input,
		typ:       a.accept,
		def:       cty.NilVal,
	}}
}

func (a *Acceptor) execute(_ context.Context, args []cty.Value) ([]cty.Value, error) {
	v := cty.NilVal
	if len(args) > 0 {
		v = args[0]
	}
	a.setResult(v)
	return nil, nil
}
