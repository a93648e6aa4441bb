package catalog

import (
	"fmt"
	"reflect"

	"github.com/randalmurphal/recipegraph/pkg/recipegraph"
	"github.com/zclconf/go-cty/cty"
)

// anyType is the native type of capsules declared without a Go type.
var anyType = reflect.TypeOf((*any)(nil)).Elem()

// Catalog holds factories and named capsule types.
type Catalog struct {
	factories *registry[string, recipegraph.Factory]
	types     *registry[string, cty.Type]
}

var _ recipegraph.Resolver = (*Catalog)(nil)

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		factories: newRegistry[string, recipegraph.Factory](),
		types:     newRegistry[string, cty.Type](),
	}
}

// Register adds or replaces a factory under its own name.
func (c *Catalog) Register(f recipegraph.Factory) {
	c.factories.set(f.Name(), f)
}

// Remove deletes a factory.
func (c *Catalog) Remove(name string) {
	c.factories.remove(name)
}

// Factory implements recipegraph.FactoryResolver.
func (c *Catalog) Factory(name string) (recipegraph.Factory, bool) {
	return c.factories.get(name)
}

// Names returns every factory name, sorted.
func (c *Catalog) Names() []string {
	return c.factories.keys()
}

// Len returns the number of factories.
func (c *Catalog) Len() int {
	return c.factories.len()
}

// Bind attaches an implementation to a factory registered with NewFunc,
// typically one loaded from declarations.
func (c *Catalog) Bind(name string, fn InvokeFunc) error {
	if fn == nil {
		return fmt.Errorf("bind %q: nil implementation", name)
	}
	found, err := c.factories.update(name, func(f recipegraph.Factory) (recipegraph.Factory, error) {
		decl, ok := f.(*Func)
		if !ok {
			return nil, fmt.Errorf("bind %q: factory is %T, not a declared function", name, f)
		}
		return decl.withImpl(fn), nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("bind %q: %w", name, recipegraph.ErrUnknownFactory)
	}
	return nil
}

// DefineType returns the capsule type registered under name, creating it
// around native on first use. A nil native wraps arbitrary Go values.
// Defining a name twice returns the first type, whatever native is.
func (c *Catalog) DefineType(name string, native reflect.Type) cty.Type {
	if native == nil {
		native = anyType
	}
	return c.types.getOrCreate(name, func() cty.Type {
		return cty.Capsule(name, native)
	})
}

// Type implements recipegraph.Resolver.
func (c *Catalog) Type(name string) (cty.Type, bool) {
	return c.types.get(name)
}

// TypeNames returns every defined type name, sorted.
func (c *Catalog) TypeNames() []string {
	return c.types.keys()
}

// ParseType parses a type expression, resolving bare names against the
// catalog's defined types.
func (c *Catalog) ParseType(expr string) (cty.Type, error) {
	return recipegraph.ParseType(expr, c.Type)
}

// Wrap encapsulates v in a capsule type. v must be assignable to the
// capsule's native type.
func Wrap(t cty.Type, v any) (cty.Value, error) {
	if !t.IsCapsuleType() {
		return cty.NilVal, fmt.Errorf("wrap: %s is not a capsule type", t.FriendlyName())
	}
	native := t.EncapsulatedType()
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return cty.NullVal(t), nil
	}
	if !rv.Type().AssignableTo(native) {
		return cty.NilVal, fmt.Errorf("wrap: %T is not assignable to %s", v, native)
	}
	ptr := reflect.New(native)
	ptr.Elem().Set(rv)
	return cty.CapsuleVal(t, ptr.Interface()), nil
}

// Unwrap returns the Go value inside a capsule value.
func Unwrap(v cty.Value) (any, bool) {
	if v.Type() == cty.NilType || !v.Type().IsCapsuleType() || v.IsNull() || !v.IsKnown() {
		return nil, false
	}
	return reflect.ValueOf(v.EncapsulatedValue()).Elem().Interface(), true
}
