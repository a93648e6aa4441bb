package snapshot

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	byProj map[string]map[string]Snapshot // project -> label -> snapshot
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byProj: make(map[string]map[string]Snapshot),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(s *Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}

	labels := m.byProj[s.Project]
	if labels == nil {
		labels = make(map[string]Snapshot)
		m.byProj[s.Project] = labels
	}
	s.Sequence = 1
	for _, prev := range labels {
		s.Sequence = max(s.Sequence, prev.Sequence+1)
	}
	s.SavedAt = time.Now().UTC()

	kept := *s
	kept.Document = slices.Clone(s.Document)
	labels[s.Label] = kept
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(project, label string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	s, ok := m.byProj[project][label]
	if !ok {
		return nil, ErrNotFound
	}
	s.Document = slices.Clone(s.Document)
	return &s, nil
}

// List implements Store.
func (m *MemoryStore) List(project string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	return m.sorted(project), nil
}

// sorted returns a project's snapshots in sequence order. Callers hold mu.
func (m *MemoryStore) sorted(project string) []Info {
	infos := make([]Info, 0, len(m.byProj[project]))
	for _, s := range m.byProj[project] {
		infos = append(infos, s.Info())
	}
	slices.SortFunc(infos, func(a, b Info) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	return infos
}

// Prune implements Store.
func (m *MemoryStore) Prune(project string, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrStoreClosed
	}

	infos := m.sorted(project)
	stale := len(infos) - max(keep, 0)
	for i := 0; i < stale; i++ {
		delete(m.byProj[project], infos[i].Label)
	}
	return max(stale, 0), nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(project, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.byProj[project], label)
	return nil
}

// DeleteProject implements Store.
func (m *MemoryStore) DeleteProject(project string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.byProj, project)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.byProj = nil
	return nil
}

// Len returns the number of snapshots across all projects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, labels := range m.byProj {
		n += len(labels)
	}
	return n
}
