package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValues(t *testing.T) {
	v := NewValues(map[string]any{
		"name":    "graph",
		"enabled": true,
		"wait":    "3s",
		"secs":    4,
		"frac":    0.5,
		"bad":     []int{1},
		"nested":  map[string]any{"driver": "memory"},
	})

	assert.Equal(t, "graph", v.String("name", "x"))
	assert.Equal(t, "x", v.String("enabled", "x"))
	assert.True(t, v.Bool("enabled", false))
	assert.False(t, v.Bool("name", false))
	assert.Equal(t, 3*time.Second, v.Duration("wait", 0))
	assert.Equal(t, 4*time.Second, v.Duration("secs", 0))
	assert.Equal(t, 500*time.Millisecond, v.Duration("frac", 0))
	assert.Equal(t, time.Minute, v.Duration("bad", time.Minute))
	assert.Equal(t, "memory", v.Section("nested").String("driver", ""))
	assert.False(t, v.Section("name").Has("driver"))
	assert.True(t, v.Has("bad"))
	assert.False(t, v.Has("missing"))

	empty := NewValues(nil)
	assert.Equal(t, "d", empty.String("k", "d"))
}
