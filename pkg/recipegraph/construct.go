package recipegraph

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Constructor is a node bound to a Factory. Its inputs mirror the factory's
// parameters and its single output carries the constructed product.
type Constructor struct {
	nodeBase
	factory Factory
}

var _ Node = (*Constructor)(nil)

// NewConstructor creates a constructor node for f, named after the factory.
func NewConstructor(f Factory) *Constructor {
	return &Constructor{
		nodeBase: nodeBase{name: f.Name()},
		factory:  f,
	}
}

// Kind returns KindConstructor.
func (c *Constructor) Kind() Kind { return KindConstructor }

// Factory returns the bound factory.
func (c *Constructor) Factory() Factory { return c.factory }

func (c *Constructor) layout() []pinSpec {
	return factoryLayout(c.factory)
}

func (c *Constructor) execute(ctx context.Context, args []cty.Value) ([]cty.Value, error) {
	out, err := c.factory.Invoke(ctx, args)
	if err != nil {
		return nil, err
	}
	return []cty.Value{out}, nil
}

// FunctionMode selects what a Function node produces.
type FunctionMode int

const (
	// ModeInvoke calls the function and outputs its result.
	ModeInvoke FunctionMode = iota
	// ModeReference outputs the function itself as a callable value.
	ModeReference
)

// String returns the mode name used in persisted documents.
func (m FunctionMode) String() string {
	switch m {
	case ModeInvoke:
		return "invoke"
	case ModeReference:
		return "reference"
	default:
		return "unknown"
	}
}

// ParseFunctionMode is the inverse of FunctionMode.String.
func ParseFunctionMode(s string) (FunctionMode, bool) {
	switch s {
	case "invoke":
		return ModeInvoke, true
	case "reference":
		return ModeReference, true
	}
	return 0, false
}

// Function is a node bound to a callable. In ModeInvoke it behaves like a
// Constructor; in ModeReference it has no inputs and outputs a CallableType
// value wrapping the callable, for consumers that invoke it themselves.
type Function struct {
	nodeBase
	factory Factory
	mode    FunctionMode
}

var _ Node = (*Function)(nil)

// NewFunction creates a function node for f in the given mode.
func NewFunction(f Factory, mode FunctionMode) *Function {
	return &Function{
		nodeBase: nodeBase{name: f.Name()},
		factory:  f,
		mode:     mode,
	}
}

// Kind returns KindFunction.
func (f *Function) Kind() Kind { return KindFunction }

// Factory returns the bound callable.
func (f *Function) Factory() Factory { return f.factory }

// Mode returns the current mode. Use Graph.SetFunctionMode to change it on a
// node that belongs to a graph.
func (f *Function) Mode() FunctionMode { return f.mode }

func (f *Function) layout() []pinSpec {
	if f.mode == ModeReference {
		return []pinSpec{{
			name:      "callable",
			tooltip:   "reference to " + f.factory.Name(),
			direction: Output,
			typ:       CallableType,
			def:       cty.NilVal,
		}}
	}
	return factoryLayout(f.factory)
}

func (f *Function) execute(ctx context.Context, args []cty.Value) ([]cty.Value, error) {
	switch f.mode {
	case ModeReference:
		return []cty.Value{CallableVal(f.factory)}, nil
	case ModeInvoke:
		out, err := f.factory.Invoke(ctx, args)
		if err != nil {
			return nil, err
		}
		return []cty.Value{out}, nil
	default:
		return nil, fmt.Errorf("unknown function mode %d", f.mode)
	}
}

// factoryLayout lays out one input per parameter and one product output.
func factoryLayout(f Factory) []pinSpec {
	params := f.Parameters()
	specs := make([]pinSpec, 0, len(params)+1)
	for _, p := range params {
		specs = append(specs, pinSpec{
			name:      p.Name,
			tooltip:   p.Tooltip,
			direction: Input,
			typ:       p.Type,
			def:       p.Default,
		})
	}
	return append(specs, pinSpec{
		name:      "product",
		tooltip:   f.Name() + " result",
		direction: Output,
		typ:       f.Product(),
		def:       cty.NilVal,
	})
}
