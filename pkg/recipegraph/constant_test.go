package recipegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestConstant_ZeroValues(t *testing.T) {
	assert.True(t, NewConstant("i", ConstantInteger).Value().RawEquals(cty.Zero))
	assert.True(t, NewConstant("f", ConstantFloat).Value().RawEquals(cty.Zero))
	assert.Equal(t, cty.StringVal(""), NewConstant("s", ConstantString).Value())
	assert.Equal(t, cty.StringVal(""), NewConstant("p", ConstantPath).Value())
}

func TestConstant_Layout(t *testing.T) {
	g, _ := newTestGraph()
	c := NewConstant("path", ConstantPath)
	mustAdd(t, g, c)

	assert.Empty(t, c.Inputs())
	require.Len(t, c.Outputs(), 1)
	out := c.Outputs()[0]
	assert.Equal(t, Output, out.Direction())
	assert.True(t, out.Type().Equals(cty.String))
	assert.Equal(t, "path literal", out.Tooltip())
}

func TestConstant_Set(t *testing.T) {
	tests := []struct {
		name    string
		kind    ConstantKind
		value   cty.Value
		want    cty.Value
		wantErr bool
	}{
		{name: "integer", kind: ConstantInteger, value: cty.NumberIntVal(7), want: cty.NumberIntVal(7)},
		{name: "integer from string", kind: ConstantInteger, value: cty.StringVal("12"), want: cty.NumberIntVal(12)},
		{name: "fractional integer", kind: ConstantInteger, value: cty.NumberFloatVal(1.5), wantErr: true},
		{name: "float", kind: ConstantFloat, value: cty.NumberFloatVal(0.25), want: cty.NumberFloatVal(0.25)},
		{name: "float from garbage", kind: ConstantFloat, value: cty.StringVal("fast"), wantErr: true},
		{name: "string from number", kind: ConstantString, value: cty.NumberIntVal(3), want: cty.StringVal("3")},
		{name: "null", kind: ConstantString, value: cty.NullVal(cty.String), wantErr: true},
		{name: "unknown", kind: ConstantFloat, value: cty.UnknownVal(cty.Number), wantErr: true},
		{name: "absent", kind: ConstantPath, value: cty.NilVal, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConstant("c", tt.kind)
			before := c.Value()
			err := c.Set(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				assert.True(t, before.RawEquals(c.Value()), "value unchanged on error")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equals(c.Value()).True(), "got %#v", c.Value())
		})
	}
}

func TestConstant_Bounds(t *testing.T) {
	c := NewConstant("gamma", ConstantFloat).WithBounds(0.5, 1)
	f, _ := c.Value().AsBigFloat().Float64()
	assert.Equal(t, 0.5, f, "zero clamps up to the lower bound")

	require.NoError(t, c.SetFloat(0.9))
	assert.ErrorIs(t, c.SetFloat(1.5), ErrInvalidValue)
	assert.ErrorIs(t, c.SetFloat(0.1), ErrInvalidValue)
	f, _ = c.Value().AsBigFloat().Float64()
	assert.Equal(t, 0.9, f)

	c.WithBounds(0, 0.5)
	f, _ = c.Value().AsBigFloat().Float64()
	assert.Equal(t, 0.5, f, "clamped down to the new upper bound")

	lo, hi := c.Bounds()
	assert.Equal(t, 0.0, *lo)
	assert.Equal(t, 0.5, *hi)
}

func TestConstant_IntegerBounds(t *testing.T) {
	tests := []struct {
		name           string
		lo, hi         float64
		wantLo, wantHi float64
		want           int64
	}{
		{"fractional bounds narrow to integers", 0.5, 3.7, 1, 3, 1},
		{"integral bounds are kept", -2, 2, -2, 2, 0},
		{"upper bound below zero", -9.5, -4.2, -9, -5, -5},
		{"no integer in range", 0.2, 0.8, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConstant("episodes", ConstantInteger).WithBounds(tt.lo, tt.hi)
			lo, hi := c.Bounds()
			assert.Equal(t, tt.wantLo, *lo)
			assert.Equal(t, tt.wantHi, *hi)

			bf := c.Value().AsBigFloat()
			require.True(t, bf.IsInt(), "clamped value stays integral")
			v, _ := bf.Int64()
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestConstant_Choices(t *testing.T) {
	c := NewConstant("algorithm", ConstantString).WithChoices("ppo", "dqn", "a2c")
	assert.Equal(t, cty.StringVal("ppo"), c.Value(), "empty value replaced by the first choice")

	require.NoError(t, c.SetString("dqn"))
	err := c.SetString("sac")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, cty.StringVal("dqn"), c.Value())

	choices := c.Choices()
	choices[0] = "mutated"
	assert.Equal(t, []string{"ppo", "dqn", "a2c"}, c.Choices())
}

func TestConstantKind_Names(t *testing.T) {
	for _, k := range []ConstantKind{ConstantInteger, ConstantFloat, ConstantString, ConstantPath} {
		parsed, ok := ParseConstantKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, parsed)
	}
	_, ok := ParseConstantKind("complex")
	assert.False(t, ok)
	assert.Equal(t, "unknown", ConstantKind(42).String())
}
