package recipegraph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Level is the severity of a diagnostic message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	// LevelMessage is user-facing output that is neither a problem nor
	// routine chatter, e.g. an acceptor result summary.
	LevelMessage
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Sink receives diagnostics about graph edits, compilation and execution.
// The graph never aborts on a reported error; it reports and continues.
type Sink interface {
	Log(level Level, msg string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(level Level, msg string)

// Log calls f(level, msg).
func (f SinkFunc) Log(level Level, msg string) {
	f(level, msg)
}

// logSink forwards diagnostics to a slog.Logger.
type logSink struct {
	logger *slog.Logger
}

// NewLogSink returns a Sink that writes to logger. Messages are logged at
// INFO with a "diagnostic" attribute carrying the original level, except
// warnings and errors which map onto WARN and ERROR.
func NewLogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSink{logger: logger}
}

func (s *logSink) Log(level Level, msg string) {
	var sl slog.Level
	switch level {
	case LevelWarning:
		sl = slog.LevelWarn
	case LevelError:
		sl = slog.LevelError
	default:
		sl = slog.LevelInfo
	}
	s.logger.Log(context.Background(), sl, msg, slog.String("diagnostic", level.String()))
}

// pinPair keys repeated link diagnostics.
type pinPair struct {
	output ID
	input  ID
}

// repeatLimiter suppresses identical diagnostics that would otherwise be
// emitted on every tick while a user hovers a bad connection.
type repeatLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	seen     map[pinPair]*rate.Sometimes
}

func newRepeatLimiter(interval time.Duration) *repeatLimiter {
	return &repeatLimiter{
		interval: interval,
		seen:     make(map[pinPair]*rate.Sometimes),
	}
}

// do runs fn unless fn already ran for key within the interval.
// A non-positive interval disables suppression.
func (r *repeatLimiter) do(key pinPair, fn func()) {
	if r.interval <= 0 {
		fn()
		return
	}
	r.mu.Lock()
	s, ok := r.seen[key]
	if !ok {
		s = &rate.Sometimes{First: 1, Interval: r.interval}
		r.seen[key] = s
	}
	r.mu.Unlock()
	s.Do(fn)
}
