// Package snapshot stores labelled graph documents per project.
package snapshot

import (
	"errors"
	"time"
)

// Store persists graph snapshots.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores s under (s.Project, s.Label), replacing any snapshot with
	// that label. The store assigns s.Sequence, one past the project's
	// highest, and s.SavedAt.
	Save(s *Snapshot) error

	// Load retrieves a snapshot.
	// Returns ErrNotFound if the snapshot doesn't exist.
	Load(project, label string) (*Snapshot, error)

	// List describes every snapshot of a project, oldest sequence first.
	// A project with no snapshots yields an empty slice.
	List(project string) ([]Info, error)

	// Prune keeps the newest keep snapshots of a project and deletes the
	// rest, returning how many were deleted.
	Prune(project string, keep int) (int, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(project, label string) error

	// DeleteProject removes every snapshot of a project.
	DeleteProject(project string) error

	Close() error
}

// Info describes a stored snapshot without its document.
type Info struct {
	Project  string
	Label    string
	Sequence int
	SavedAt  time.Time
	Nodes    int
	Links    int
	NextID   int64
	Size     int64 // document bytes
}

var (
	ErrNotFound    = errors.New("snapshot not found")
	ErrStoreClosed = errors.New("snapshot store closed")
)

// Latest returns the most recently saved snapshot of a project.
// Returns ErrNotFound if the project has none.
func Latest(s Store, project string) (Info, error) {
	infos, err := s.List(project)
	if err != nil {
		return Info{}, err
	}
	if len(infos) == 0 {
		return Info{}, ErrNotFound
	}
	return infos[len(infos)-1], nil
}
