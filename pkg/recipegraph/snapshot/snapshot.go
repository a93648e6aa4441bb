package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Version is the current snapshot format version.
const Version = 1

// ErrUnsupportedVersion is returned for snapshots written by another format version.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

var validate = validator.New()

// Snapshot is a JSON graph document together with the figures a listing
// shows without decoding it.
type Snapshot struct {
	Project  string `validate:"required"`
	Label    string `validate:"required"`
	Version  int    `validate:"required"`
	Nodes    int    `validate:"gte=0"`
	Links    int    `validate:"gte=0"`
	NextID   int64  `validate:"gte=0"` // allocator position when saved
	Document []byte `validate:"required,min=1"`

	// Set by Store.Save.
	Sequence int
	SavedAt  time.Time
}

// New creates a snapshot of an encoded graph document.
func New(project, label string, document []byte) *Snapshot {
	return &Snapshot{
		Project:  project,
		Label:    label,
		Version:  Version,
		Document: document,
	}
}

// WithCounts records the graph's node and link counts.
func (s *Snapshot) WithCounts(nodes, links int) *Snapshot {
	s.Nodes = nodes
	s.Links = links
	return s
}

// WithNextID records the graph's id allocator position.
func (s *Snapshot) WithNextID(next int64) *Snapshot {
	s.NextID = next
	return s
}

// Info describes s without its document.
func (s *Snapshot) Info() Info {
	return Info{
		Project:  s.Project,
		Label:    s.Label,
		Sequence: s.Sequence,
		SavedAt:  s.SavedAt,
		Nodes:    s.Nodes,
		Links:    s.Links,
		NextID:   s.NextID,
		Size:     int64(len(s.Document)),
	}
}

// Validate checks the fields a store needs before saving.
func (s *Snapshot) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}
	return checkVersion(s.Version)
}

func checkVersion(v int) error {
	if v != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return nil
}
