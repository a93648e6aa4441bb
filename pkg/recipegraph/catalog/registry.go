package catalog

import (
	"cmp"
	"slices"
	"sync"
)

// registry is a thread-safe map for read-heavy lookups.
type registry[K cmp.Ordered, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

func newRegistry[K cmp.Ordered, V any]() *registry[K, V] {
	return &registry[K, V]{entries: make(map[K]V)}
}

// set adds or replaces a value.
func (r *registry[K, V]) set(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

func (r *registry[K, V]) get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

func (r *registry[K, V]) remove(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// keys returns every key in sorted order.
func (r *registry[K, V]) keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (r *registry[K, V]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// getOrCreate returns the value for key, calling create at most once per key
// even under concurrent access.
func (r *registry[K, V]) getOrCreate(key K, create func() V) V {
	r.mu.RLock()
	v, ok := r.entries[key]
	r.mu.RUnlock()
	if ok {
		return v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.entries[key]; ok {
		return v
	}
	v = create()
	r.entries[key] = v
	return v
}

// update replaces the value for key with fn's result under the write lock.
// It reports false if the key is missing.
func (r *registry[K, V]) update(key K, fn func(V) (V, error)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[key]
	if !ok {
		return false, nil
	}
	nv, err := fn(v)
	if err != nil {
		return true, err
	}
	r.entries[key] = nv
	return true, nil
}
