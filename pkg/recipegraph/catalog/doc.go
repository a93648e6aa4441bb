// Package catalog collects the factories and named types a graph is built
// from.
//
// A Catalog maps factory names to recipegraph.Factory implementations and
// type names to cty capsule types. It implements recipegraph.Resolver, so a
// persisted graph can be restored against it.
//
// # Basic Usage
//
//	cat := catalog.New()
//	agent := cat.DefineType("Agent", reflect.TypeOf(DQN{}))
//	cat.Register(catalog.NewFunc("dqn", agent, []recipegraph.Parameter{
//	    {Name: "learning_rate", Type: cty.Number, Default: cty.NumberFloatVal(1e-3)},
//	}, newDQN))
//
//	f, ok := cat.Factory("dqn")
//
// # Declarations
//
// Factories can also be declared in YAML ahead of their implementation.
// Declared factories lay out pins like any other but fail with ErrNotBound
// when invoked, until Bind attaches a function:
//
//	types: [Agent]
//	factories:
//	  - name: dqn
//	    product: Agent
//	    params:
//	      - name: learning_rate
//	        type: number
//	        default: 0.001
//
// # Thread Safety
//
// All Catalog methods are safe for concurrent use.
package catalog
