package recipegraph

import (
	"math"
	"sync/atomic"
)

// ID identifies a node, pin, or link. All three share one namespace per graph,
// so an ID is unique across element kinds and can be used as a map key
// without tagging it with the kind.
//
// The zero ID is never issued.
type ID int64

// Allocator issues strictly increasing IDs.
//
// An Allocator may be restored from a persisted high-water mark, after which
// it resumes above that mark. It never moves backwards.
type Allocator struct {
	last atomic.Int64
}

// NewAllocator returns an allocator whose first ID is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns an ID greater than every ID previously returned.
//
// Panics if the ID space is exhausted.
func (a *Allocator) Next() ID {
	n := a.last.Add(1)
	if n <= 0 || n == math.MaxInt64 {
		panic("recipegraph: id space exhausted")
	}
	return ID(n)
}

// Peek returns the ID the next call to Next will return.
func (a *Allocator) Peek() ID {
	return ID(a.last.Load() + 1)
}

// Restore raises the allocator so that the next ID is at least next.
// Restoring to a lower value than the current position is a no-op.
func (a *Allocator) Restore(next ID) {
	target := int64(next) - 1
	for {
		cur := a.last.Load()
		if cur >= target {
			return
		}
		if a.last.CompareAndSwap(cur, target) {
			return
		}
	}
}
