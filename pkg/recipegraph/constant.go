package recipegraph

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ConstantKind is the primitive type held by a Constant node.
type ConstantKind int

const (
	ConstantInteger ConstantKind = iota
	ConstantFloat
	ConstantString
	// ConstantPath is a string naming a file.
	ConstantPath
)

// String returns the constant kind name used in persisted documents.
func (k ConstantKind) String() string {
	switch k {
	case ConstantInteger:
		return "integer"
	case ConstantFloat:
		return "float"
	case ConstantString:
		return "string"
	case ConstantPath:
		return "path"
	default:
		return "unknown"
	}
}

// ParseConstantKind is the inverse of ConstantKind.String.
func ParseConstantKind(s string) (ConstantKind, bool) {
	for k := ConstantInteger; k <= ConstantPath; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Type returns the cty type of the kind's values.
func (k ConstantKind) Type() cty.Type {
	if k == ConstantInteger || k == ConstantFloat {
		return cty.Number
	}
	return cty.String
}

// Constant is a node with no inputs and one output holding a literal.
type Constant struct {
	nodeBase
	valueKind ConstantKind
	value     cty.Value
	lo, hi    *float64
	choices   []string
}

var _ Node = (*Constant)(nil)

// NewConstant creates a constant of the given kind holding the kind's zero value.
func NewConstant(name string, kind ConstantKind) *Constant {
	c := &Constant{
		nodeBase:  nodeBase{name: name},
		valueKind: kind,
	}
	if kind.Type() == cty.Number {
		c.value = cty.Zero
	} else {
		c.value = cty.StringVal("")
	}
	return c
}

// Kind returns KindConstant.
func (c *Constant) Kind() Kind { return KindConstant }

// ValueKind returns the primitive kind of the literal.
func (c *Constant) ValueKind() ConstantKind { return c.valueKind }

// Value returns the literal.
func (c *Constant) Value() cty.Value { return c.value }

// Bounds returns the inclusive numeric bounds, nil where unbounded.
func (c *Constant) Bounds() (lo, hi *float64) { return c.lo, c.hi }

// Choices returns the allowed string values, or nil if any value is allowed.
func (c *Constant) Choices() []string { return slices.Clone(c.choices) }

// WithBounds restricts numeric values to [lo, hi] and clamps the current value.
// Integer constants narrow the bounds to the integers they contain; if there
// are none the range collapses to ceil(lo).
func (c *Constant) WithBounds(lo, hi float64) *Constant {
	if c.valueKind == ConstantInteger {
		lo, hi = math.Ceil(lo), math.Floor(hi)
		if hi < lo {
			hi = lo
		}
	}
	c.lo, c.hi = &lo, &hi
	if f, ok := c.float(); ok {
		if f < lo {
			c.value = cty.NumberFloatVal(lo)
		} else if f > hi {
			c.value = cty.NumberFloatVal(hi)
		}
	}
	return c
}

// WithChoices restricts string values to the given set. If the current value
// is not one of them it becomes the first choice.
func (c *Constant) WithChoices(choices ...string) *Constant {
	c.choices = slices.Clone(choices)
	if len(choices) > 0 && c.value.Type() == cty.String && !slices.Contains(choices, c.value.AsString()) {
		c.value = cty.StringVal(choices[0])
	}
	return c
}

// Set replaces the literal. The value is converted to the kind's type and
// checked against integrality, bounds and choices.
func (c *Constant) Set(v cty.Value) error {
	if isAbsent(v) || v.IsNull() || !v.IsKnown() {
		return fmt.Errorf("%w: value must be known and non-null", ErrInvalidValue)
	}
	conv, err := convert.Convert(v, c.valueKind.Type())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	switch c.valueKind {
	case ConstantInteger, ConstantFloat:
		bf := conv.AsBigFloat()
		if c.valueKind == ConstantInteger && !bf.IsInt() {
			return fmt.Errorf("%w: %s is not an integer", ErrInvalidValue, bf.String())
		}
		f, _ := bf.Float64()
		if c.lo != nil && f < *c.lo {
			return fmt.Errorf("%w: %v is below minimum %v", ErrInvalidValue, f, *c.lo)
		}
		if c.hi != nil && f > *c.hi {
			return fmt.Errorf("%w: %v is above maximum %v", ErrInvalidValue, f, *c.hi)
		}
	default:
		if len(c.choices) > 0 && !slices.Contains(c.choices, conv.AsString()) {
			return fmt.Errorf("%w: %q is not one of %v", ErrInvalidValue, conv.AsString(), c.choices)
		}
	}

	c.value = conv
	return nil
}

// SetInt is shorthand for Set(cty.NumberIntVal(v)).
func (c *Constant) SetInt(v int64) error { return c.Set(cty.NumberIntVal(v)) }

// SetFloat is shorthand for Set(cty.NumberFloatVal(v)).
func (c *Constant) SetFloat(v float64) error { return c.Set(cty.NumberFloatVal(v)) }

// SetString is shorthand for Set(cty.StringVal(v)).
func (c *Constant) SetString(v string) error { return c.Set(cty.StringVal(v)) }

func (c *Constant) float() (float64, bool) {
	if c.value.Type() != cty.Number {
		return 0, false
	}
	f, _ := c.value.AsBigFloat().Float64()
	return f, true
}

func (c *Constant) layout() []pinSpec {
	return []pinSpec{{
		name:      "value",
		tooltip:   c.valueKind.String() + " literal",
		direction: Output,
		typ:       c.valueKind.Type(),
		def:       cty.NilVal,
	}}
}

func (c *Constant) execute(_ context.Context, _ []cty.Value) ([]cty.Value, error) {
	return []cty.Value{c.value}, nil
}
