package recipegraph

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/recipegraph/pkg/recipegraph/observability"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

const opExecute = "execute"

// Recipe is a compiled execution order for one acceptor's dependencies.
//
// A Recipe is derived from the graph at compile time and never changes.
// Editing the graph does not update existing recipes; recompile instead.
type Recipe struct {
	acceptor ID
	tag      string
	slot     string
	plan     []ID
	layers   [][]ID
}

// Acceptor returns the acceptor the recipe delivers to.
func (r *Recipe) Acceptor() ID { return r.acceptor }

// Tag returns the acceptor's label at compile time.
func (r *Recipe) Tag() string { return r.tag }

// Slot returns the acceptor's slot name.
func (r *Recipe) Slot() string { return r.slot }

// Plan returns the node ids to execute, in order. The acceptor is not included.
func (r *Recipe) Plan() []ID { return slices.Clone(r.plan) }

// Layers returns the plan grouped into the layers it was compiled in.
// Nodes within a layer do not depend on one another.
func (r *Recipe) Layers() [][]ID {
	layers := make([][]ID, len(r.layers))
	for i, l := range r.layers {
		layers[i] = slices.Clone(l)
	}
	return layers
}

// Len returns the number of planned nodes.
func (r *Recipe) Len() int { return len(r.plan) }

// Position returns the index of a node in the plan, or -1.
func (r *Recipe) Position(id ID) int { return slices.Index(r.plan, id) }

// Execute runs a recipe: every planned node in order, then the acceptor.
// Values are recomputed on every run; nothing is reused from compilation.
//
// Execution stops at the first node that fails. Nodes after it keep whatever
// values they had, and the acceptor result is not updated. On success the
// acceptor's new result is returned.
func (g *Graph) Execute(ctx context.Context, r *Recipe, opts ...RunOption) (result cty.Value, runErr error) {
	cfg := runConfig{logger: g.logger}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.New().String()
	}

	logger := observability.EnrichLogger(cfg.logger, cfg.runID, r.tag)
	observability.LogRecipeStart(cfg.logger, cfg.runID, r.tag)
	start := time.Now()

	ctx, span := g.cfg.spans.StartRecipeSpan(ctx, r.slot, cfg.runID)
	defer func() {
		g.cfg.spans.EndSpanWithError(span, runErr)
		duration := time.Since(start)
		g.cfg.metrics.RecordRecipeRun(ctx, runErr == nil, duration)
		durationMs := float64(duration.Milliseconds())
		if runErr != nil {
			observability.LogRecipeError(cfg.logger, cfg.runID, runErr, durationMs)
			g.sink.Log(LevelError, fmt.Sprintf("recipe for %s halted: %v", labelOf(r.acceptor, r.tag), runErr))
		} else {
			observability.LogRecipeComplete(cfg.logger, cfg.runID, durationMs, len(r.plan)+1)
		}
	}()

	n, ok := g.nodes[r.acceptor]
	if !ok {
		return cty.NilVal, &NodeError{NodeID: r.acceptor, Tag: r.tag, Op: "lookup", Err: ErrStaleRecipe}
	}
	acceptor, ok := n.(*Acceptor)
	if !ok {
		return cty.NilVal, &NodeError{NodeID: r.acceptor, Tag: r.tag, Op: "lookup", Err: ErrStaleRecipe}
	}

	steps := append(slices.Clone(r.plan), r.acceptor)
	for _, id := range steps {
		if n, ok := g.nodes[id]; ok {
			n.base().executed = false
		}
	}

	for _, id := range steps {
		n, ok := g.nodes[id]
		if !ok {
			return cty.NilVal, &NodeError{NodeID: id, Op: "lookup", Err: ErrStaleRecipe}
		}
		if !g.canExecute(n) {
			return cty.NilVal, &NodeError{NodeID: id, Tag: n.Tag(), Op: "schedule", Err: ErrStaleRecipe}
		}
		if err := g.runNode(ctx, n, logger); err != nil {
			return cty.NilVal, err
		}
	}

	return acceptor.Result(), nil
}

// runNode resolves a node's inputs, executes it and publishes its outputs.
// Outputs are only written, and the node only flagged executed, on success.
func (g *Graph) runNode(ctx context.Context, n Node, logger *slog.Logger) (err error) {
	id := int64(n.ID())
	observability.LogNodeStart(logger, id, n.Name())
	nodeCtx, span := g.cfg.spans.StartNodeSpan(ctx, id, n.Name())
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		g.cfg.metrics.RecordNodeExecution(nodeCtx, n.Kind().String(), duration, err)
		g.cfg.spans.EndSpanWithError(span, err)
		if err != nil {
			observability.LogNodeError(logger, id, n.Name(), err)
		} else {
			observability.LogNodeComplete(logger, id, n.Name(), float64(duration.Milliseconds()))
		}
	}()

	args := make([]cty.Value, len(n.Inputs()))
	for i, in := range n.Inputs() {
		args[i] = g.resolveInput(n, in)
	}

	outs, err := g.invoke(nodeCtx, n, args)
	if err != nil {
		return &NodeError{NodeID: n.ID(), Tag: n.Tag(), Op: opExecute, Err: err}
	}
	if len(outs) != len(n.Outputs()) {
		return &NodeError{
			NodeID: n.ID(),
			Tag:    n.Tag(),
			Op:     opExecute,
			Err:    fmt.Errorf("produced %d values for %d outputs", len(outs), len(n.Outputs())),
		}
	}

	for i, out := range n.Outputs() {
		out.value = outs[i]
	}
	n.base().executed = true
	return nil
}

// resolveInput propagates the value feeding an input pin: the upstream
// output's value when linked, else the pin default. An unlinked input with
// no default gets no value, which is reported as a warning.
func (g *Graph) resolveInput(n Node, in *Pin) cty.Value {
	v := cty.NilVal
	if linkID, linked := g.linkInto[in.id]; linked {
		if src, ok := g.Pin(g.links[linkID].output); ok {
			v = src.value
		}
	} else if !isAbsent(in.def) {
		v = in.def
	} else {
		g.sink.Log(LevelWarning, fmt.Sprintf("node %s: input %q is not linked, passing no value",
			labelOf(n.ID(), n.Tag()), in.name))
	}

	if !isAbsent(v) && in.IsTyped() && convert.GetConversionUnsafe(v.Type(), in.typ) != nil {
		if conv, err := convert.Convert(v, in.typ); err == nil {
			v = conv
		}
	}
	in.value = v
	return v
}

// invoke calls the node's construction step, converting panics into errors.
func (g *Graph) invoke(ctx context.Context, n Node, args []cty.Value) (outs []cty.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			outs = nil
			err = &PanicError{
				NodeID: n.ID(),
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	return n.execute(ctx, args)
}
