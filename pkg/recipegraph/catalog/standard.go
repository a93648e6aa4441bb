package catalog

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/randalmurphal/recipegraph/pkg/recipegraph"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Standard returns a catalog of small numeric and string factories that need
// no external runtime.
func Standard() *Catalog {
	c := New()
	for _, f := range standardFuncs() {
		c.Register(f)
	}
	return c
}

func standardFuncs() []*Func {
	number := func(name string) recipegraph.Parameter {
		return recipegraph.Parameter{Name: name, Type: cty.Number}
	}
	return []*Func{
		NewFunc("add", cty.Number, []recipegraph.Parameter{number("a"), number("b")}, arith(func(a, b *big.Float) (*big.Float, error) {
			return new(big.Float).Add(a, b), nil
		})),
		NewFunc("multiply", cty.Number, []recipegraph.Parameter{number("a"), number("b")}, arith(func(a, b *big.Float) (*big.Float, error) {
			return new(big.Float).Mul(a, b), nil
		})),
		NewFunc("divide", cty.Number, []recipegraph.Parameter{number("a"), number("b")}, arith(func(a, b *big.Float) (*big.Float, error) {
			if b.Sign() == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return new(big.Float).Quo(a, b), nil
		})),
		NewFunc("concat", cty.String, []recipegraph.Parameter{
			{Name: "a", Type: cty.String},
			{Name: "b", Type: cty.String},
			{Name: "separator", Type: cty.String, Default: cty.StringVal("")},
		}, concat),
		NewFunc("join_path", cty.String, []recipegraph.Parameter{
			{Name: "dir", Type: cty.String},
			{Name: "file", Type: cty.String},
		}, joinPath),
		NewFunc("repeat", cty.List(cty.String), []recipegraph.Parameter{
			{Name: "value", Type: cty.String},
			{Name: "count", Type: cty.Number, Default: cty.NumberIntVal(1)},
		}, repeat),
	}
}

func arith(op func(a, b *big.Float) (*big.Float, error)) InvokeFunc {
	return func(_ context.Context, args []cty.Value) (cty.Value, error) {
		a, b, err := twoNumbers(args)
		if err != nil {
			return cty.NilVal, err
		}
		r, err := op(a, b)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberVal(r), nil
	}
}

func twoNumbers(args []cty.Value) (*big.Float, *big.Float, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	if err := requireArgs(args, "a", "b"); err != nil {
		return nil, nil, err
	}
	var a, b big.Float
	if err := gocty.FromCtyValue(args[0], &a); err != nil {
		return nil, nil, fmt.Errorf("argument a: %w", err)
	}
	if err := gocty.FromCtyValue(args[1], &b); err != nil {
		return nil, nil, fmt.Errorf("argument b: %w", err)
	}
	return &a, &b, nil
}

func stringArgs(args []cty.Value, names ...string) ([]string, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(names), len(args))
	}
	if err := requireArgs(args, names...); err != nil {
		return nil, err
	}
	out := make([]string, len(args))
	for i, v := range args {
		if err := gocty.FromCtyValue(v, &out[i]); err != nil {
			return nil, fmt.Errorf("argument %s: %w", names[i], err)
		}
	}
	return out, nil
}

func concat(_ context.Context, args []cty.Value) (cty.Value, error) {
	s, err := stringArgs(args, "a", "b", "separator")
	if err != nil {
		return cty.NilVal, err
	}
	return cty.StringVal(s[0] + s[2] + s[1]), nil
}

func joinPath(_ context.Context, args []cty.Value) (cty.Value, error) {
	s, err := stringArgs(args, "dir", "file")
	if err != nil {
		return cty.NilVal, err
	}
	return cty.StringVal(filepath.Join(s[0], s[1])), nil
}

// maxRepeat bounds the list built by repeat.
const maxRepeat = 10_000

func repeat(_ context.Context, args []cty.Value) (cty.Value, error) {
	if len(args) != 2 {
		return cty.NilVal, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	if err := requireArgs(args, "value", "count"); err != nil {
		return cty.NilVal, err
	}
	var value string
	var count int
	if err := gocty.FromCtyValue(args[0], &value); err != nil {
		return cty.NilVal, fmt.Errorf("argument value: %w", err)
	}
	if err := gocty.FromCtyValue(args[1], &count); err != nil {
		return cty.NilVal, fmt.Errorf("argument count: %w", err)
	}
	if count < 0 || count > maxRepeat {
		return cty.NilVal, fmt.Errorf("count must be between 0 and %d, got %d", maxRepeat, count)
	}
	items := make([]string, count)
	for i := range items {
		items[i] = value
	}
	return gocty.ToCtyValue(items, cty.List(cty.String))
}

// requireArgs fails on any argument that was not supplied.
func requireArgs(args []cty.Value, names ...string) error {
	for i, v := range args {
		if v.Type() == cty.NilType || v.IsNull() {
			return fmt.Errorf("argument %s is missing", names[i])
		}
	}
	return nil
}
