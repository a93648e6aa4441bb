package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/randalmurphal/recipegraph/pkg/recipegraph"
	"github.com/zclconf/go-cty/cty"
)

// ErrNotBound indicates a declared factory was invoked before an
// implementation was bound to it.
var ErrNotBound = errors.New("factory has no implementation bound")

// InvokeFunc is the implementation behind a Func.
type InvokeFunc func(ctx context.Context, args []cty.Value) (cty.Value, error)

// Func is a Factory built from a parameter list and a plain function.
type Func struct {
	name    string
	product cty.Type
	params  []recipegraph.Parameter
	fn      InvokeFunc
}

var _ recipegraph.Factory = (*Func)(nil)

// NewFunc creates a factory. A nil fn yields a declared-only factory whose
// Invoke fails with ErrNotBound.
func NewFunc(name string, product cty.Type, params []recipegraph.Parameter, fn InvokeFunc) *Func {
	return &Func{
		name:    name,
		product: product,
		params:  slices.Clone(params),
		fn:      fn,
	}
}

// Name implements recipegraph.Factory.
func (f *Func) Name() string { return f.name }

// Parameters implements recipegraph.Factory.
func (f *Func) Parameters() []recipegraph.Parameter { return slices.Clone(f.params) }

// Product implements recipegraph.Factory.
func (f *Func) Product() cty.Type { return f.product }

// Bound reports whether the factory has an implementation.
func (f *Func) Bound() bool { return f.fn != nil }

// Invoke implements recipegraph.Factory.
func (f *Func) Invoke(ctx context.Context, args []cty.Value) (cty.Value, error) {
	if f.fn == nil {
		return cty.NilVal, fmt.Errorf("%s: %w", f.name, ErrNotBound)
	}
	return f.fn(ctx, args)
}

// withImpl returns a copy of f bound to fn.
func (f *Func) withImpl(fn InvokeFunc) *Func {
	cp := *f
	cp.fn = fn
	return &cp
}
