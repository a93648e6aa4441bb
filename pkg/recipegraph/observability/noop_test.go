package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordCompile(ctx, false, time.Second)
		m.RecordLinkRejected(ctx, "untyped")
		m.RecordNodeExecution(ctx, "constant", 0, errors.New("x"))
		m.RecordRecipeRun(ctx, true, 0)
	})
}

func TestNoopSpanManager(t *testing.T) {
	m := NoopSpanManager{}

	t.Run("returns the same context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ctxKey{}, "v")
		got, span := m.StartRecipeSpan(ctx, "agent", "run")
		assert.Equal(t, ctx, got)
		assert.False(t, span.IsRecording())

		got, span = m.StartNodeSpan(ctx, 1, "n")
		assert.Equal(t, ctx, got)
		assert.False(t, span.IsRecording())
	})

	t.Run("end does not panic", func(t *testing.T) {
		_, span := m.StartNodeSpan(context.Background(), 1, "n")
		assert.NotPanics(t, func() { m.EndSpanWithError(span, errors.New("x")) })
	})
}

type ctxKey struct{}
