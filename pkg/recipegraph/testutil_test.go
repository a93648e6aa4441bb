package recipegraph

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// Capsule types standing in for objects built by the embedding runtime.
var (
	agentType = cty.Capsule("Agent", reflect.TypeOf(""))
	envType   = cty.Capsule("Environment", reflect.TypeOf(""))
)

// capsule wraps s in one of the test capsule types.
func capsule(t cty.Type, s string) cty.Value {
	return cty.CapsuleVal(t, &s)
}

// uncapsule returns the string inside a test capsule value.
func uncapsule(v cty.Value) string {
	return *(v.EncapsulatedValue().(*string))
}

// testFactory is a Factory whose behaviour is supplied by the test.
type testFactory struct {
	name    string
	params  []Parameter
	product cty.Type
	fn      func(args []cty.Value) (cty.Value, error)

	mu    sync.Mutex
	calls [][]cty.Value
}

func newFactory(name string, product cty.Type, params ...Parameter) *testFactory {
	return &testFactory{name: name, product: product, params: params}
}

// returning sets the factory's implementation.
func (f *testFactory) returning(fn func(args []cty.Value) (cty.Value, error)) *testFactory {
	f.fn = fn
	return f
}

func (f *testFactory) Name() string            { return f.name }
func (f *testFactory) Parameters() []Parameter { return f.params }
func (f *testFactory) Product() cty.Type       { return f.product }

func (f *testFactory) Invoke(_ context.Context, args []cty.Value) (cty.Value, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	if f.fn == nil {
		return cty.NullVal(f.product), nil
	}
	return f.fn(args)
}

func (f *testFactory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// testResolver resolves factories and capsule types from maps.
type testResolver struct {
	factories map[string]Factory
	types     map[string]cty.Type
}

func newResolver(factories ...Factory) *testResolver {
	r := &testResolver{
		factories: make(map[string]Factory),
		types: map[string]cty.Type{
			"Agent":       agentType,
			"Environment": envType,
		},
	}
	for _, f := range factories {
		r.factories[f.Name()] = f
	}
	return r
}

func (r *testResolver) Factory(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

func (r *testResolver) Type(name string) (cty.Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

type diagnostic struct {
	level Level
	msg   string
}

// recordingSink captures diagnostics.
type recordingSink struct {
	mu      sync.Mutex
	entries []diagnostic
}

func (s *recordingSink) Log(level Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, diagnostic{level: level, msg: msg})
}

func (s *recordingSink) count(level Level) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

func (s *recordingSink) contains(level Level, substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.level == level && strings.Contains(e.msg, substr) {
			return true
		}
	}
	return false
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestGraph returns a graph wired to a recording sink and a silent logger.
func newTestGraph(opts ...Option) (*Graph, *recordingSink) {
	sink := &recordingSink{}
	base := []Option{WithSink(sink), WithLogger(discardLogger())}
	return New(append(base, opts...)...), sink
}

func mustAdd(t *testing.T, g *Graph, n Node) ID {
	t.Helper()
	id, err := g.AddNode(n)
	require.NoError(t, err)
	return id
}

// mustLink links out's first output to in's input at slot.
func mustLink(t *testing.T, g *Graph, in Node, slot int, out Node) ID {
	t.Helper()
	id, err := g.AddLink(in.Inputs()[slot].ID(), out.Outputs()[0].ID())
	require.NoError(t, err)
	return id
}

// trainingGraph builds constant(lr) -> dqn(lr, env) <- cartpole, dqn -> agent slot.
type trainingGraph struct {
	g        *Graph
	sink     *recordingSink
	lr       *Constant
	cartpole *Constructor
	dqn      *Constructor
	slot     *Acceptor

	dqnFactory *testFactory
	envFactory *testFactory
}

func newTrainingGraph(t *testing.T, opts ...Option) *trainingGraph {
	t.Helper()
	g, sink := newTestGraph(opts...)

	envFactory := newFactory("cartpole", envType).returning(func([]cty.Value) (cty.Value, error) {
		return capsule(envType, "CartPole-v1"), nil
	})
	dqnFactory := newFactory("dqn", agentType,
		Parameter{Name: "learning_rate", Type: cty.Number},
		Parameter{Name: "env", Type: envType},
		Parameter{Name: "gamma", Type: cty.Number, Default: cty.NumberFloatVal(0.99)},
	).returning(func(args []cty.Value) (cty.Value, error) {
		lr, _ := args[0].AsBigFloat().Float64()
		gamma, _ := args[2].AsBigFloat().Float64()
		return capsule(agentType, "dqn("+uncapsule(args[1])+","+formatFloat(lr)+","+formatFloat(gamma)+")"), nil
	})

	tg := &trainingGraph{
		g:          g,
		sink:       sink,
		lr:         NewConstant("learning_rate", ConstantFloat),
		cartpole:   NewConstructor(envFactory),
		dqn:        NewConstructor(dqnFactory),
		slot:       NewAcceptor(SlotAgent, agentType),
		dqnFactory: dqnFactory,
		envFactory: envFactory,
	}
	require.NoError(t, tg.lr.SetFloat(0.5))
	for _, n := range []Node{tg.lr, tg.cartpole, tg.dqn, tg.slot} {
		mustAdd(t, g, n)
	}
	mustLink(t, g, tg.dqn, 0, tg.lr)
	mustLink(t, g, tg.dqn, 1, tg.cartpole)
	mustLink(t, g, tg.slot, 0, tg.dqn)
	return tg
}

func formatFloat(f float64) string {
	return cty.NumberFloatVal(f).AsBigFloat().Text('g', -1)
}
