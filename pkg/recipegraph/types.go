package recipegraph

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// TypeLookup resolves a bare type name that is not a primitive keyword,
// such as the name of a capsule type.
type TypeLookup func(name string) (cty.Type, bool)

// ParseType parses a type expression such as "number", "list(string)" or
// "Agent". Bare names other than string, number, bool and any are passed to
// lookup, which may be nil.
func ParseType(expr string, lookup TypeLookup) (cty.Type, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return cty.NilType, nil
	}
	parsed, diags := hclsyntax.ParseExpression([]byte(expr), "type", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilType, fmt.Errorf("parse type %q: %s", expr, diags.Error())
	}
	return typeFromExpr(parsed, lookup)
}

func typeFromExpr(expr hclsyntax.Expression, lookup TypeLookup) (cty.Type, error) {
	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		if len(v.Args) != 1 {
			return cty.NilType, fmt.Errorf("type constructor %s takes exactly one argument, got %d", v.Name, len(v.Args))
		}
		elem, err := typeFromExpr(v.Args[0], lookup)
		if err != nil {
			return cty.NilType, err
		}
		switch v.Name {
		case "list":
			return cty.List(elem), nil
		case "map":
			return cty.Map(elem), nil
		case "set":
			return cty.Set(elem), nil
		default:
			return cty.NilType, fmt.Errorf("unknown type constructor %q", v.Name)
		}

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return cty.NilType, fmt.Errorf("invalid type name at %s", v.SrcRange)
		}
		name := v.Traversal.RootName()
		switch name {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool":
			return cty.Bool, nil
		case "any":
			return cty.DynamicPseudoType, nil
		case CallableType.FriendlyName():
			return CallableType, nil
		}
		if lookup != nil {
			if t, ok := lookup(name); ok {
				return t, nil
			}
		}
		return cty.NilType, fmt.Errorf("unknown type %q", name)

	default:
		return cty.NilType, fmt.Errorf("unsupported type expression %T", v)
	}
}

// FormatType renders t in the syntax accepted by ParseType. Capsule types are
// written by name. Untyped renders as the empty string.
func FormatType(t cty.Type) (string, error) {
	switch {
	case t == cty.NilType:
		return "", nil
	case t.Equals(cty.DynamicPseudoType):
		return "any", nil
	case t.Equals(cty.String):
		return "string", nil
	case t.Equals(cty.Number):
		return "number", nil
	case t.Equals(cty.Bool):
		return "bool", nil
	case t.IsCapsuleType():
		return t.FriendlyName(), nil
	case t.IsListType(), t.IsMapType(), t.IsSetType():
		elem, err := FormatType(t.ElementType())
		if err != nil {
			return "", err
		}
		ctor := "list"
		if t.IsMapType() {
			ctor = "map"
		} else if t.IsSetType() {
			ctor = "set"
		}
		return ctor + "(" + elem + ")", nil
	default:
		return "", fmt.Errorf("type %s has no expression form", t.FriendlyName())
	}
}
