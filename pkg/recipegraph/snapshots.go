package recipegraph

import (
	"github.com/randalmurphal/recipegraph/pkg/recipegraph/observability"
	"github.com/randalmurphal/recipegraph/pkg/recipegraph/snapshot"
)

// SaveSnapshot stores the graph's document in store under (project, label).
func (g *Graph) SaveSnapshot(store snapshot.Store, project, label string) error {
	doc, err := g.Document()
	if err != nil {
		observability.LogSnapshotError(g.logger, project, "save", err)
		return err
	}
	body, err := EncodeDocument(doc, FormatJSON)
	if err != nil {
		observability.LogSnapshotError(g.logger, project, "save", err)
		return err
	}
	snap := snapshot.New(project, label, body).
		WithCounts(len(doc.Nodes), len(doc.Links)).
		WithNextID(int64(doc.NextID))
	if err := store.Save(snap); err != nil {
		observability.LogSnapshotError(g.logger, project, "save", err)
		return err
	}
	observability.LogSnapshot(g.logger, project, label, len(body))
	return nil
}

// LoadSnapshot restores the graph from a stored snapshot. An empty label
// loads the project's most recent snapshot. The graph must be empty.
func (g *Graph) LoadSnapshot(store snapshot.Store, project, label string, resolver Resolver) error {
	if label == "" {
		latest, err := snapshot.Latest(store, project)
		if err != nil {
			observability.LogSnapshotError(g.logger, project, "load", err)
			return err
		}
		label = latest.Label
	}

	snap, err := store.Load(project, label)
	if err != nil {
		observability.LogSnapshotError(g.logger, project, "load", err)
		return err
	}
	doc, err := DecodeDocument(snap.Document, FormatJSON)
	if err != nil {
		observability.LogSnapshotError(g.logger, project, "load", err)
		return err
	}
	if err := g.Restore(doc, resolver); err != nil {
		observability.LogSnapshotError(g.logger, project, "load", err)
		return err
	}
	return nil
}
