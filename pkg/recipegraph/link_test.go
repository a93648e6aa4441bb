package recipegraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// linkFixture is an agent constructor whose env input can be offered
// several sources.
type linkFixture struct {
	g     *Graph
	sink  *recordingSink
	env   *Constructor
	agent *Constructor
	num   *Constant
	text  *Constant
}

func newLinkFixture(t *testing.T, opts ...Option) *linkFixture {
	t.Helper()
	g, sink := newTestGraph(opts...)
	f := &linkFixture{
		g:    g,
		sink: sink,
		env:  NewConstructor(newFactory("cartpole", envType)),
		agent: NewConstructor(newFactory("dqn", agentType,
			Parameter{Name: "env", Type: envType},
			Parameter{Name: "lr", Type: cty.Number},
			Parameter{Name: "name", Type: cty.String},
		)),
		num:  NewConstant("n", ConstantFloat),
		text: NewConstant("s", ConstantString),
	}
	for _, n := range []Node{f.env, f.agent, f.num, f.text} {
		mustAdd(t, g, n)
	}
	return f
}

func (f *linkFixture) in(slot int) ID { return f.agent.Inputs()[slot].ID() }

func TestAddLink(t *testing.T) {
	t.Run("connects and indexes", func(t *testing.T) {
		f := newLinkFixture(t)
		out := f.env.Outputs()[0].ID()
		id, err := f.g.AddLink(f.in(0), out)
		require.NoError(t, err)

		l, ok := f.g.Link(id)
		require.True(t, ok)
		assert.Equal(t, out, l.Output())
		assert.Equal(t, f.in(0), l.Input())

		into, ok := f.g.LinkInto(f.in(0))
		require.True(t, ok)
		assert.Equal(t, id, into.ID())
		assert.Equal(t, []Link{l}, f.g.LinksFrom(out))
		assert.Equal(t, []Link{l}, f.g.Links())
	})

	t.Run("an output may feed many inputs", func(t *testing.T) {
		f := newLinkFixture(t)
		other := NewAcceptor(SlotEnvironment, envType)
		mustAdd(t, f.g, other)
		out := f.env.Outputs()[0].ID()

		first, err := f.g.AddLink(f.in(0), out)
		require.NoError(t, err)
		second, err := f.g.AddLink(other.Inputs()[0].ID(), out)
		require.NoError(t, err)

		links := f.g.LinksFrom(out)
		require.Len(t, links, 2)
		assert.Equal(t, first, links[0].ID())
		assert.Equal(t, second, links[1].ID())
	})

	t.Run("numbers convert into strings", func(t *testing.T) {
		f := newLinkFixture(t)
		_, err := f.g.AddLink(f.in(2), f.num.Outputs()[0].ID())
		assert.NoError(t, err)
	})
}

func TestAddLink_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		link  func(f *linkFixture) (input, output ID)
		want  error
		level Level
	}{
		{
			name:  "unknown input pin",
			link:  func(f *linkFixture) (ID, ID) { return 9999, f.env.Outputs()[0].ID() },
			want:  ErrPinNotFound,
			level: LevelWarning,
		},
		{
			name:  "unknown output pin",
			link:  func(f *linkFixture) (ID, ID) { return f.in(0), 9999 },
			want:  ErrPinNotFound,
			level: LevelWarning,
		},
		{
			name:  "swapped direction",
			link:  func(f *linkFixture) (ID, ID) { return f.env.Outputs()[0].ID(), f.in(0) },
			want:  ErrDirectionMismatch,
			level: LevelWarning,
		},
		{
			name:  "input to input",
			link:  func(f *linkFixture) (ID, ID) { return f.in(0), f.in(1) },
			want:  ErrDirectionMismatch,
			level: LevelWarning,
		},
		{
			name:  "incompatible capsule types",
			link:  func(f *linkFixture) (ID, ID) { return f.in(0), f.agent.Outputs()[0].ID() },
			want:  ErrIncompatibleTypes,
			level: LevelError,
		},
		{
			name:  "string into number",
			link:  func(f *linkFixture) (ID, ID) { return f.in(1), f.text.Outputs()[0].ID() },
			want:  ErrIncompatibleTypes,
			level: LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLinkFixture(t)
			nodes, links := f.g.NodeCount(), f.g.LinkCount()
			into, from := len(f.g.linkInto), len(f.g.linksFrom)

			input, output := tt.link(f)
			_, err := f.g.AddLink(input, output)
			require.ErrorIs(t, err, tt.want)

			var linkErr *LinkError
			require.ErrorAs(t, err, &linkErr)
			assert.Equal(t, input, linkErr.Input)
			assert.Equal(t, output, linkErr.Output)

			assert.Equal(t, nodes, f.g.NodeCount())
			assert.Equal(t, links, f.g.LinkCount())
			assert.Equal(t, into, len(f.g.linkInto))
			assert.Equal(t, from, len(f.g.linksFrom))
			assert.Equal(t, 1, f.sink.count(tt.level))
		})
	}
}

func TestAddLink_SingleWriter(t *testing.T) {
	f := newLinkFixture(t)
	other := NewConstructor(newFactory("pendulum", envType))
	mustAdd(t, f.g, other)

	first, err := f.g.AddLink(f.in(0), f.env.Outputs()[0].ID())
	require.NoError(t, err)

	_, err = f.g.AddLink(f.in(0), other.Outputs()[0].ID())
	assert.ErrorIs(t, err, ErrInputOccupied)
	assert.Equal(t, 1, f.g.LinkCount())

	kept, ok := f.g.LinkInto(f.in(0))
	require.True(t, ok)
	assert.Equal(t, first, kept.ID(), "the existing link is kept")
	assert.Empty(t, f.g.LinksFrom(other.Outputs()[0].ID()))
}

func TestAddLink_IncompatibleMessageNamesBothTypes(t *testing.T) {
	f := newLinkFixture(t)
	_, err := f.g.AddLink(f.in(0), f.agent.Outputs()[0].ID())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Agent")
	assert.Contains(t, err.Error(), "Environment")
	assert.True(t, f.sink.contains(LevelError, "Agent is not assignable to Environment"))
}

func TestAddLink_Untyped(t *testing.T) {
	g, sink := newTestGraph()
	loose := NewConstructor(newFactory("loose", cty.NilType, Parameter{Name: "x", Type: Untyped}))
	src := NewConstant("n", ConstantFloat)
	mustAdd(t, g, loose)
	mustAdd(t, g, src)

	_, err := g.AddLink(loose.Inputs()[0].ID(), src.Outputs()[0].ID())
	assert.ErrorIs(t, err, ErrUntypedPin)
	assert.Equal(t, 1, sink.count(LevelWarning))
	assert.Equal(t, 0, sink.count(LevelError))
	assert.Equal(t, 0, g.LinkCount())
	assert.Equal(t, ClassType, Classify(err))
}

func TestAddLink_DiagnosticsAreRateLimited(t *testing.T) {
	t.Run("same pair is reported once per interval", func(t *testing.T) {
		f := newLinkFixture(t, WithRepeatInterval(time.Hour))
		for i := 0; i < 10; i++ {
			_, err := f.g.AddLink(f.in(0), f.agent.Outputs()[0].ID())
			require.ErrorIs(t, err, ErrIncompatibleTypes)
		}
		assert.Equal(t, 1, f.sink.count(LevelError))
	})

	t.Run("distinct pairs are reported separately", func(t *testing.T) {
		f := newLinkFixture(t, WithRepeatInterval(time.Hour))
		_, _ = f.g.AddLink(f.in(0), f.agent.Outputs()[0].ID())
		_, _ = f.g.AddLink(f.in(1), f.text.Outputs()[0].ID())
		_, _ = f.g.AddLink(f.in(0), f.agent.Outputs()[0].ID())
		assert.Equal(t, 2, f.sink.count(LevelError))
	})

	t.Run("reported again after the interval", func(t *testing.T) {
		f := newLinkFixture(t, WithRepeatInterval(20*time.Millisecond))
		_, _ = f.g.AddLink(f.in(0), f.agent.Outputs()[0].ID())
		time.Sleep(40 * time.Millisecond)
		_, _ = f.g.AddLink(f.in(0), f.agent.Outputs()[0].ID())
		assert.Equal(t, 2, f.sink.count(LevelError))
	})

	t.Run("zero interval disables suppression", func(t *testing.T) {
		f := newLinkFixture(t, WithRepeatInterval(0))
		for i := 0; i < 3; i++ {
			_, _ = f.g.AddLink(f.in(0), f.agent.Outputs()[0].ID())
		}
		assert.Equal(t, 3, f.sink.count(LevelError))
	})
}

func TestRemoveLink(t *testing.T) {
	f := newLinkFixture(t)
	out := f.env.Outputs()[0].ID()
	id, err := f.g.AddLink(f.in(0), out)
	require.NoError(t, err)

	require.NoError(t, f.g.RemoveLink(id))
	assert.Equal(t, 0, f.g.LinkCount())
	_, ok := f.g.LinkInto(f.in(0))
	assert.False(t, ok)
	assert.Empty(t, f.g.LinksFrom(out))
	assert.NotContains(t, f.g.linksFrom, out)

	assert.ErrorIs(t, f.g.RemoveLink(id), ErrLinkNotFound)

	t.Run("input is free again", func(t *testing.T) {
		_, err := f.g.AddLink(f.in(0), out)
		assert.NoError(t, err)
	})
}
