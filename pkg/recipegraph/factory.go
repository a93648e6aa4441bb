package recipegraph

import (
	"context"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Parameter describes one positional argument of a Factory.
type Parameter struct {
	Name    string
	Type    cty.Type
	Tooltip string
	// Default is used when the corresponding input pin is unlinked.
	// cty.NilVal means the parameter has no default.
	Default cty.Value
}

// Factory constructs a value from positional arguments.
//
// Factories are supplied by the embedding runtime. The graph only relies on
// the declared parameter list (to lay out input pins) and the product type
// (to type the output pin); Invoke is called during recipe execution.
type Factory interface {
	// Name identifies the factory in a catalog and in persisted documents.
	Name() string

	// Parameters returns the ordered parameter list.
	Parameters() []Parameter

	// Product returns the type of the value Invoke produces.
	Product() cty.Type

	// Invoke constructs a value. args has one entry per parameter, in order;
	// an absent argument is cty.NilVal.
	Invoke(ctx context.Context, args []cty.Value) (cty.Value, error)
}

// FactoryResolver looks factories up by name. Restoring a persisted graph
// needs one to rebuild constructor and function nodes.
type FactoryResolver interface {
	Factory(name string) (Factory, bool)
}

// CallableType is the output type of a function node in reference mode.
// Values of this type encapsulate a *Factory.
var CallableType = cty.Capsule("callable", reflect.TypeOf((*Factory)(nil)).Elem())

// CallableVal wraps f as a value of CallableType.
func CallableVal(f Factory) cty.Value {
	return cty.CapsuleVal(CallableType, &f)
}

// CallableFrom extracts the Factory wrapped by a CallableType value.
func CallableFrom(v cty.Value) (Factory, bool) {
	if isAbsent(v) || v.IsNull() || !v.Type().Equals(CallableType) {
		return nil, false
	}
	f, ok := v.EncapsulatedValue().(*Factory)
	if !ok || f == nil {
		return nil, false
	}
	return *f, true
}

// TypeOracle answers whether a value of type src may flow into a pin of type dst.
type TypeOracle interface {
	IsAssignable(dst, src cty.Type) bool
}

// OracleFunc adapts a function to the TypeOracle interface.
type OracleFunc func(dst, src cty.Type) bool

// IsAssignable calls f(dst, src).
func (f OracleFunc) IsAssignable(dst, src cty.Type) bool {
	return f(dst, src)
}

// ConversionOracle treats src as assignable to dst when cty has a safe
// conversion between them: exact matches, dynamic ("any") destinations,
// number to string, and element-wise collection conversions.
type ConversionOracle struct{}

// IsAssignable implements TypeOracle.
func (ConversionOracle) IsAssignable(dst, src cty.Type) bool {
	if dst == cty.NilType || src == cty.NilType {
		return false
	}
	// GetConversion returns nil for equal types since nothing needs converting.
	return dst.Equals(src) || convert.GetConversion(src, dst) != nil
}
