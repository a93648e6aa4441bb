/*
Package recipegraph provides a typed node graph that compiles into ordered
construction recipes.

# Overview

A Graph holds nodes whose typed pins are connected by links. Each link
carries a value from an output pin into exactly one input pin. Terminal
Acceptor nodes name slots in a consuming system (an agent, an environment,
a method). Compiling an acceptor orders its transitive dependencies into a
Recipe; executing the recipe runs each node's construction step in that
order and hands the final value to the acceptor.

Node variants:
  - Constant: a literal integer, float, string or path, with optional
    bounds or choices
  - Constructor: invokes a Factory with one input per parameter
  - Function: invokes a Factory, or in reference mode outputs the factory
    itself as a CallableType value
  - Acceptor: one input, no outputs; keeps the last delivered value

# Basic Usage

	g := recipegraph.New()
	lr := recipegraph.NewConstant("lr", recipegraph.ConstantFloat)
	agent := recipegraph.NewConstructor(dqn)
	slot := recipegraph.NewAcceptor(recipegraph.SlotAgent, agentType)
	for _, n := range []recipegraph.Node{lr, agent, slot} {
	    g.AddNode(n)
	}
	g.AddLink(agent.Inputs()[0].ID(), lr.Outputs()[0].ID())
	g.AddLink(slot.Inputs()[0].ID(), agent.Outputs()[0].ID())

	recipe, err := g.CompileFrom(slot.ID())
	if err != nil {
	    log.Fatal(err)
	}
	result, err := g.Execute(ctx, recipe)

# Types

Pin types are cty types. Objects produced by the embedding runtime are
capsule types; the catalog package defines them by name. Whether a value
of one type may flow into a pin of another is decided by a TypeOracle. The
default ConversionOracle accepts exact matches, "any" destinations and
cty's safe conversions. A pin with no type (Untyped) can never be linked.

Rejected links are reported to the graph's Sink. Type rejections for the
same pair of pins are reported at most once per repeat interval.

# Persistence

Document captures the graph structure with every id, and Restore rebuilds
it, so recipes compiled before and after a save refer to the same nodes.
Documents encode as JSON or YAML (WriteFile, ReadFile) and can be kept as
labelled snapshots in a snapshot.Store (SaveSnapshot, LoadSnapshot).

# Error Handling

Errors wrap sentinels (ErrCycle, ErrIncompatibleTypes, ...) in typed
errors (LinkError, CompileError, NodeError, PanicError, RestoreError) and
can be grouped with Classify:

	if recipegraph.Classify(err) == recipegraph.ClassExternal {
	    // a factory failed; the graph is unchanged
	}

# Observability

WithLogger, WithMetrics and WithTracing enable slog logging and
OpenTelemetry metrics and spans for compilation and execution.

# Concurrency

A Graph is not safe for concurrent use. Acceptor.Result is the one method
that may be called from another goroutine.
*/
package recipegraph
