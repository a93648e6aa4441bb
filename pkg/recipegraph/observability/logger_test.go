package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records as JSON lines.
type testHandler struct {
	buf   *bytes.Buffer
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{buf: &bytes.Buffer{}}
}

func (h *testHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &testHandler{buf: h.buf, attrs: merged}
}

func (h *testHandler) WithGroup(string) slog.Handler { return h }

// records decodes every captured line.
func (h *testHandler) records(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(h.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds run context", func(t *testing.T) {
		h := newTestHandler()
		EnrichLogger(slog.New(h), "run-1", "main agent").Info("hello")

		recs := h.records(t)
		require.Len(t, recs, 1)
		assert.Equal(t, "run-1", recs[0]["run_id"])
		assert.Equal(t, "main agent", recs[0]["acceptor"])
	})

	t.Run("nil logger stays nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "run", "acc"))
	})
}

func TestLogHelpers(t *testing.T) {
	h := newTestHandler()
	logger := slog.New(h)

	LogCompileComplete(logger, 7, "agent", 3, 2, 1.5)
	LogCompileError(logger, 7, errors.New("cycle"))
	LogRecipeStart(logger, "run-1", "agent")
	LogNodeStart(logger, 3, "dqn")
	LogNodeComplete(logger, 3, "dqn", 0.5)
	LogNodeError(logger, 4, "env", errors.New("boom"))
	LogRecipeComplete(logger, "run-1", 2, 4)
	LogRecipeError(logger, "run-2", errors.New("halted"), 1)
	LogSnapshot(logger, "proj", "v1", 128)
	LogSnapshotError(logger, "proj", "save", errors.New("disk full"))

	recs := h.records(t)
	require.Len(t, recs, 10)

	assert.Equal(t, "recipe compiled", recs[0]["msg"])
	assert.Equal(t, "DEBUG", recs[0]["level"])
	assert.EqualValues(t, 3, recs[0]["plan_len"])

	assert.Equal(t, "WARN", recs[1]["level"])
	assert.Equal(t, "cycle", recs[1]["error"])

	assert.Equal(t, "recipe run starting", recs[2]["msg"])
	assert.Equal(t, "node failed", recs[5]["msg"])
	assert.Equal(t, "ERROR", recs[5]["level"])
	assert.EqualValues(t, 4, recs[6]["nodes_executed"])
	assert.Equal(t, "halted", recs[7]["error"])
	assert.EqualValues(t, 128, recs[8]["size_bytes"])
	assert.Equal(t, "save", recs[9]["operation"])
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogCompileComplete(nil, 1, "", 0, 0, 0)
		LogCompileError(nil, 1, errors.New("x"))
		LogRecipeStart(nil, "", "")
		LogRecipeComplete(nil, "", 0, 0)
		LogRecipeError(nil, "", errors.New("x"), 0)
		LogNodeStart(nil, 1, "")
		LogNodeComplete(nil, 1, "", 0)
		LogNodeError(nil, 1, "", errors.New("x"))
		LogSnapshot(nil, "", "", 0)
		LogSnapshotError(nil, "", "", errors.New("x"))
	})
}
