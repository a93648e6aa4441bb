package recipegraph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/recipegraph/pkg/recipegraph/observability"
)

// CompileFrom orders the transitive dependencies of an acceptor into a recipe.
//
// Compilation proceeds in four steps:
//  1. Collect every node reachable backwards from the acceptor's input,
//     in depth-first discovery order.
//  2. Clear the executed flag on the collected nodes.
//  3. Peel the collected set in layers: the first layer is every node whose
//     linked inputs are all satisfied; each following layer is the not yet
//     planned successors of the previous layer that have become satisfied.
//     Planned nodes are flagged executed.
//  4. If any collected node was never planned, the set contains a cycle and
//     compilation fails without a recipe.
//
// The acceptor itself is not part of the plan; it is the recipe's target.
// Within a layer, nodes keep the order in which they were discovered, so a
// fixed edit history always yields the same plan.
func (g *Graph) CompileFrom(acceptor ID) (*Recipe, error) {
	start := time.Now()
	r, err := g.compileFrom(acceptor)
	durationMs := float64(time.Since(start).Milliseconds())

	g.cfg.metrics.RecordCompile(context.Background(), err == nil, time.Since(start))
	if err != nil {
		observability.LogCompileError(g.logger, int64(acceptor), err)
		return nil, err
	}
	observability.LogCompileComplete(g.logger, int64(acceptor), r.tag, len(r.plan), len(r.layers), durationMs)
	return r, nil
}

func (g *Graph) compileFrom(acceptorID ID) (*Recipe, error) {
	n, ok := g.nodes[acceptorID]
	if !ok {
		return nil, &CompileError{Acceptor: acceptorID, Err: ErrNodeNotFound}
	}
	acceptor, ok := n.(*Acceptor)
	if !ok {
		return nil, &CompileError{Acceptor: acceptorID, Tag: n.Tag(), Err: ErrNotAcceptor}
	}

	deps := g.collectDependencies(acceptor)
	inSet := make(map[ID]bool, len(deps))
	for _, d := range deps {
		inSet[d.ID()] = true
		d.base().executed = false
	}

	var ready []Node
	for _, d := range deps {
		if g.canExecute(d) {
			ready = append(ready, d)
		}
	}

	plan := make([]ID, 0, len(deps))
	var layers [][]ID
	for len(ready) > 0 {
		layer := make([]ID, 0, len(ready))
		for _, r := range ready {
			r.base().executed = true
			layer = append(layer, r.ID())
		}
		plan = append(plan, layer...)
		layers = append(layers, layer)
		ready = g.nextLayer(ready, inSet)
	}

	var unresolved []ID
	for _, d := range deps {
		if !d.Executed() {
			unresolved = append(unresolved, d.ID())
		}
	}
	if len(unresolved) > 0 {
		return nil, &CompileError{
			Acceptor:   acceptorID,
			Tag:        acceptor.Tag(),
			Unresolved: unresolved,
			Err:        ErrCycle,
		}
	}

	return &Recipe{
		acceptor: acceptorID,
		tag:      acceptor.Tag(),
		slot:     acceptor.Slot(),
		plan:     plan,
		layers:   layers,
	}, nil
}

// collectDependencies walks backwards from the acceptor across links and
// returns every upstream node once, in pre-order discovery order.
func (g *Graph) collectDependencies(acceptor *Acceptor) []Node {
	visited := map[ID]bool{acceptor.ID(): true}
	var order []Node

	var visit func(n Node)
	visit = func(n Node) {
		for _, in := range n.Inputs() {
			src, linked := g.sourceOf(in.id)
			if !linked || visited[src.ID()] {
				continue
			}
			visited[src.ID()] = true
			order = append(order, src)
			visit(src)
		}
	}
	visit(acceptor)
	return order
}

// nextLayer returns the unplanned members of the set that are fed by the
// given layer and are now satisfied, in first-seen order.
func (g *Graph) nextLayer(layer []Node, inSet map[ID]bool) []Node {
	seen := make(map[ID]bool)
	var next []Node
	for _, n := range layer {
		for _, out := range n.Outputs() {
			for _, linkID := range g.linksFrom[out.id] {
				dst, ok := g.PinOwner(g.links[linkID].input)
				if !ok || !inSet[dst.ID()] || dst.Executed() || seen[dst.ID()] {
					continue
				}
				seen[dst.ID()] = true
				if g.canExecute(dst) {
					next = append(next, dst)
				}
			}
		}
	}
	return next
}

// CompileAll compiles a recipe for every acceptor, in id order.
//
// A failing acceptor is reported to the diagnostics sink and skipped; it
// never prevents the others from compiling. The returned recipes are the
// ones that compiled, even when the returned error (which joins every
// failure) is non-nil.
func (g *Graph) CompileAll() ([]*Recipe, error) {
	var recipes []*Recipe
	var errs []error
	for _, n := range g.Nodes() {
		if n.Kind() != KindAcceptor {
			continue
		}
		r, err := g.CompileFrom(n.ID())
		if err != nil {
			g.sink.Log(LevelError, fmt.Sprintf("recipe for %s skipped: %v", labelOf(n.ID(), n.Tag()), err))
			errs = append(errs, err)
			continue
		}
		recipes = append(recipes, r)
	}
	return recipes, errors.Join(errs...)
}
