package recipegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestCompileFrom_ConstantConstructorAcceptor(t *testing.T) {
	g, _ := newTestGraph()
	four := NewConstant("four", ConstantInteger)
	require.NoError(t, four.SetInt(4))
	ctor := NewConstructor(newFactory("square", cty.Number, Parameter{Name: "x", Type: cty.Number}))
	slot := NewAcceptor(SlotMethod, cty.Number)
	slot.SetTag("main")
	for _, n := range []Node{four, ctor, slot} {
		mustAdd(t, g, n)
	}
	mustLink(t, g, ctor, 0, four)
	mustLink(t, g, slot, 0, ctor)

	r, err := g.CompileFrom(slot.ID())
	require.NoError(t, err)

	assert.Equal(t, []ID{four.ID(), ctor.ID()}, r.Plan())
	assert.Equal(t, [][]ID{{four.ID()}, {ctor.ID()}}, r.Layers())
	assert.Equal(t, slot.ID(), r.Acceptor())
	assert.Equal(t, "main", r.Tag())
	assert.Equal(t, SlotMethod, r.Slot())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.Position(ctor.ID()))
	assert.Equal(t, -1, r.Position(slot.ID()))

	assert.True(t, four.Executed(), "planned nodes are flagged executed")
	assert.True(t, ctor.Executed())
}

func TestCompileFrom_TrainingGraph(t *testing.T) {
	tg := newTrainingGraph(t)
	r, err := tg.g.CompileFrom(tg.slot.ID())
	require.NoError(t, err)

	// dqn's inputs are walked in declared order: lr first, then cartpole.
	assert.Equal(t, []ID{tg.lr.ID(), tg.cartpole.ID(), tg.dqn.ID()}, r.Plan())
	assert.Equal(t, [][]ID{{tg.lr.ID(), tg.cartpole.ID()}, {tg.dqn.ID()}}, r.Layers())
}

func TestCompileFrom_OrderIsTopological(t *testing.T) {
	// a feeds b and c; b and c feed d; d feeds the acceptor.
	g, _ := newTestGraph()
	num := Parameter{Type: cty.Number}
	a := NewConstant("a", ConstantFloat)
	b := NewConstructor(newFactory("b", cty.Number, named(num, "x")))
	c := NewConstructor(newFactory("c", cty.Number, named(num, "x")))
	d := NewConstructor(newFactory("d", cty.Number, named(num, "l"), named(num, "r")))
	slot := NewAcceptor("result", cty.Number)
	for _, n := range []Node{slot, d, c, b, a} {
		mustAdd(t, g, n)
	}
	mustLink(t, g, b, 0, a)
	mustLink(t, g, c, 0, a)
	mustLink(t, g, d, 0, b)
	mustLink(t, g, d, 1, c)
	mustLink(t, g, slot, 0, d)

	r, err := g.CompileFrom(slot.ID())
	require.NoError(t, err)
	plan := r.Plan()
	require.Len(t, plan, 4)

	assertBefore := func(src, dst Node) {
		t.Helper()
		assert.Less(t, r.Position(src.ID()), r.Position(dst.ID()), "%s before %s", src.Name(), dst.Name())
	}
	assertBefore(a, b)
	assertBefore(a, c)
	assertBefore(b, d)
	assertBefore(c, d)
	assert.Equal(t, [][]ID{{a.ID()}, {b.ID(), c.ID()}, {d.ID()}}, r.Layers())

	t.Run("deterministic", func(t *testing.T) {
		again, err := g.CompileFrom(slot.ID())
		require.NoError(t, err)
		assert.Equal(t, plan, again.Plan())
	})
}

func TestCompileFrom_OnlyDependencies(t *testing.T) {
	tg := newTrainingGraph(t)
	stray := NewConstant("unused", ConstantString)
	mustAdd(t, tg.g, stray)

	r, err := tg.g.CompileFrom(tg.slot.ID())
	require.NoError(t, err)
	assert.Equal(t, -1, r.Position(stray.ID()))
}

func TestCompileFrom_UnlinkedAcceptor(t *testing.T) {
	g, _ := newTestGraph()
	slot := NewAcceptor(SlotAgent, agentType)
	mustAdd(t, g, slot)

	r, err := g.CompileFrom(slot.ID())
	require.NoError(t, err)
	assert.Empty(t, r.Plan())
	assert.Empty(t, r.Layers())
}

func TestCompileFrom_Cycle(t *testing.T) {
	g, sink := newTestGraph()
	num := Parameter{Type: cty.Number}
	a := NewConstructor(newFactory("a", cty.Number, named(num, "in")))
	b := NewConstructor(newFactory("b", cty.Number, named(num, "in")))
	seed := NewConstant("seed", ConstantFloat)
	c := NewConstructor(newFactory("c", cty.Number, named(num, "x"), named(num, "y")))
	slot := NewAcceptor("result", cty.Number)
	slot.SetTag("looping")
	for _, n := range []Node{a, b, seed, c, slot} {
		mustAdd(t, g, n)
	}
	mustLink(t, g, a, 0, b)
	mustLink(t, g, b, 0, a)
	mustLink(t, g, c, 0, seed)
	mustLink(t, g, c, 1, a)
	mustLink(t, g, slot, 0, c)

	r, err := g.CompileFrom(slot.ID())
	require.Error(t, err)
	assert.Nil(t, r, "no partial recipe")
	assert.ErrorIs(t, err, ErrCycle)
	assert.Equal(t, ClassCyclic, Classify(err))

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, slot.ID(), compileErr.Acceptor)
	assert.Equal(t, "looping", compileErr.Tag)
	assert.ElementsMatch(t, []ID{a.ID(), b.ID(), c.ID()}, compileErr.Unresolved)
	assert.Contains(t, err.Error(), `"looping"`)
	assert.Zero(t, sink.count(LevelError), "CompileFrom reports through its error")
}

func TestCompileFrom_SelfLoop(t *testing.T) {
	g, _ := newTestGraph()
	f := NewConstructor(newFactory("self", cty.Number, Parameter{Name: "x", Type: cty.Number}))
	slot := NewAcceptor("result", cty.Number)
	mustAdd(t, g, f)
	mustAdd(t, g, slot)
	mustLink(t, g, f, 0, f)
	mustLink(t, g, slot, 0, f)

	_, err := g.CompileFrom(slot.ID())
	assert.ErrorIs(t, err, ErrCycle)
}

func TestCompileFrom_NotAnAcceptor(t *testing.T) {
	tg := newTrainingGraph(t)

	_, err := tg.g.CompileFrom(tg.dqn.ID())
	assert.ErrorIs(t, err, ErrNotAcceptor)
	assert.Equal(t, ClassStructural, Classify(err))

	_, err = tg.g.CompileFrom(9999)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCompileAll(t *testing.T) {
	tg := newTrainingGraph(t)
	g := tg.g

	// A second acceptor whose dependencies loop.
	num := Parameter{Type: cty.Number}
	a := NewConstructor(newFactory("a", cty.Number, named(num, "in")))
	b := NewConstructor(newFactory("b", cty.Number, named(num, "in")))
	broken := NewAcceptor(SlotMethod, cty.Number)
	broken.SetTag("broken")
	envSlot := NewAcceptor(SlotEnvironment, envType)
	for _, n := range []Node{a, b, broken, envSlot} {
		mustAdd(t, g, n)
	}
	mustLink(t, g, a, 0, b)
	mustLink(t, g, b, 0, a)
	mustLink(t, g, broken, 0, a)
	mustLink(t, g, envSlot, 0, tg.cartpole)

	recipes, err := g.CompileAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycle)

	require.Len(t, recipes, 2, "the failing acceptor is skipped")
	assert.Equal(t, tg.slot.ID(), recipes[0].Acceptor())
	assert.Equal(t, envSlot.ID(), recipes[1].Acceptor())
	assert.Equal(t, []ID{tg.cartpole.ID()}, recipes[1].Plan())
	assert.True(t, tg.sink.contains(LevelError, `"broken"`))
}

func TestCompileAll_NoAcceptors(t *testing.T) {
	g, _ := newTestGraph()
	mustAdd(t, g, NewConstant("k", ConstantInteger))

	recipes, err := g.CompileAll()
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestRecipe_IsACopy(t *testing.T) {
	tg := newTrainingGraph(t)
	r, err := tg.g.CompileFrom(tg.slot.ID())
	require.NoError(t, err)

	plan := r.Plan()
	plan[0] = 9999
	layers := r.Layers()
	layers[0][0] = 9999
	assert.Equal(t, tg.lr.ID(), r.Plan()[0])
	assert.Equal(t, tg.lr.ID(), r.Layers()[0][0])
}

func named(p Parameter, name string) Parameter {
	p.Name = name
	return p
}
