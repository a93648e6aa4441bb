package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/randalmurphal/recipegraph/pkg/recipegraph"
	"github.com/randalmurphal/recipegraph/pkg/recipegraph/catalog"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// formatValue renders an acceptor result for the terminal.
func formatValue(v cty.Value) string {
	switch {
	case v.Type() == cty.NilType:
		return "<none>"
	case !v.IsKnown():
		return "<unknown>"
	case v.IsNull():
		return "null"
	case v.Type().IsCapsuleType():
		if f, ok := recipegraph.CallableFrom(v); ok {
			return "callable " + f.Name()
		}
		if native, ok := catalog.Unwrap(v); ok {
			return fmt.Sprintf("%s(%v)", v.Type().FriendlyName(), native)
		}
		return v.Type().FriendlyName()
	}
	data, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(data)
}

// nodeLabel names a node by tag, falling back to its name.
func nodeLabel(g *recipegraph.Graph, id recipegraph.ID) string {
	n, ok := g.Node(id)
	if !ok {
		return fmt.Sprintf("#%d", id)
	}
	if n.Tag() != "" {
		return fmt.Sprintf("%s#%d", n.Tag(), id)
	}
	return fmt.Sprintf("%s#%d", n.Name(), id)
}

func recipeLabel(g *recipegraph.Graph, r *recipegraph.Recipe) string {
	return fmt.Sprintf("%s -> %s", nodeLabel(g, r.Acceptor()), r.Slot())
}

func printRecipe(w io.Writer, g *recipegraph.Graph, r *recipegraph.Recipe) {
	fmt.Fprintf(w, "recipe %s (%d steps)\n", recipeLabel(g, r), r.Len())
	for i, layer := range r.Layers() {
		names := make([]string, len(layer))
		for j, id := range layer {
			names[j] = nodeLabel(g, id)
		}
		fmt.Fprintf(w, "  layer %d: %s\n", i, strings.Join(names, ", "))
	}
}
