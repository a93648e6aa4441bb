package recipegraph

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Graph owns a set of nodes and the links between their pins, together with
// the lookup indices derived from them.
//
// A Graph is driven from a single goroutine: edits, compilation and
// execution are synchronous and unsynchronized. Only Acceptor.Result may be
// read concurrently. Independent graphs share nothing.
type Graph struct {
	ids     *Allocator
	cfg     graphConfig
	sink    Sink
	logger  *slog.Logger
	repeats *repeatLimiter

	nodes    map[ID]Node
	pinOwner map[ID]ID
	pinSlot  map[ID]int

	links     map[ID]Link
	linkInto  map[ID]ID   // input pin -> link
	linksFrom map[ID][]ID // output pin -> links, in creation order
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	cfg := defaultGraphConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	sink := cfg.sink
	if sink == nil {
		sink = NewLogSink(cfg.logger)
	}

	g := &Graph{
		ids:     NewAllocator(),
		cfg:     cfg,
		sink:    sink,
		logger:  cfg.logger,
		repeats: newRepeatLimiter(cfg.repeatInterval),
	}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.nodes = make(map[ID]Node)
	g.pinOwner = make(map[ID]ID)
	g.pinSlot = make(map[ID]int)
	g.links = make(map[ID]Link)
	g.linkInto = make(map[ID]ID)
	g.linksFrom = make(map[ID][]ID)
}

// Allocator returns the graph's id allocator.
func (g *Graph) Allocator() *Allocator {
	return g.ids
}

// AddNode takes ownership of n and indexes its pins. A node that has not been
// initialized yet gets its id and pins allocated here. An initialized node
// keeps its ids and the allocator is raised above them. On error the graph is
// unchanged and a node initialized by this call is returned to its
// uninitialized state.
func (g *Graph) AddNode(n Node) (ID, error) {
	if n == nil {
		return 0, errors.New("recipegraph: nil node")
	}
	b := n.base()
	fresh := !b.ready
	if fresh {
		initialize(n, g.ids)
	}

	if err := g.checkNodeIDs(b); err != nil {
		if fresh {
			b.id = 0
			b.inputs, b.outputs = nil, nil
			b.ready = false
		}
		return 0, err
	}
	g.ids.Restore(b.maxID() + 1)

	g.nodes[b.id] = n
	g.indexPins(n)

	g.logger.Debug("node added",
		slog.Int64("node_id", int64(b.id)),
		slog.String("kind", n.Kind().String()),
		slog.String("name", b.name),
	)
	return b.id, nil
}

// checkNodeIDs reports whether b's node and pin ids are distinct from each
// other and from every live element.
func (g *Graph) checkNodeIDs(b *nodeBase) error {
	if g.idInUse(b.id) {
		return fmt.Errorf("%w: node %d", ErrDuplicateID, b.id)
	}
	seen := map[ID]bool{b.id: true}
	for _, p := range b.pins() {
		if g.idInUse(p.id) || seen[p.id] {
			return fmt.Errorf("%w: pin %d", ErrDuplicateID, p.id)
		}
		seen[p.id] = true
	}
	return nil
}

// RemoveNode removes every link touching the node's pins, then the node and
// its pin index entries.
func (g *Graph) RemoveNode(id ID) error {
	n, ok := g.nodes[id]
	if !ok {
		err := fmt.Errorf("remove node %d: %w", id, ErrNodeNotFound)
		g.sink.Log(LevelError, err.Error())
		return err
	}

	g.clearLinks(n)
	g.unindexPins(n)
	delete(g.nodes, id)

	g.logger.Debug("node removed", slog.Int64("node_id", int64(id)))
	return nil
}

// ClearNode removes every link touching the node's pins, leaving the node
// and its pins in place.
func (g *Graph) ClearNode(id ID) error {
	n, ok := g.nodes[id]
	if !ok {
		err := fmt.Errorf("clear node %d: %w", id, ErrNodeNotFound)
		g.sink.Log(LevelError, err.Error())
		return err
	}
	g.clearLinks(n)
	return nil
}

// SetFunctionMode switches a function node between invoking its callable and
// producing a reference to it. The node's links are cleared and its pins are
// rebuilt with fresh ids.
func (g *Graph) SetFunctionMode(id ID, mode FunctionMode) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("set mode of node %d: %w", id, ErrNodeNotFound)
	}
	f, ok := n.(*Function)
	if !ok {
		return fmt.Errorf("set mode of node %d: %w: %s is not a function", id, ErrWrongKind, n.Kind())
	}
	if f.mode == mode {
		return nil
	}

	g.clearLinks(f)
	g.unindexPins(f)
	f.mode = mode
	layoutPins(f, g.ids)
	g.indexPins(f)
	return nil
}

// Clear removes every node and link. The id allocator keeps its position.
func (g *Graph) Clear() {
	g.reset()
}

// Node returns the node with the given id.
func (g *Graph) Node(id ID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in id order, which is creation order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b Node) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return nodes
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Pin returns the pin with the given id.
func (g *Graph) Pin(id ID) (*Pin, bool) {
	owner, ok := g.pinOwner[id]
	if !ok {
		return nil, false
	}
	n := g.nodes[owner]
	slot := g.pinSlot[id]
	for _, p := range [][]*Pin{n.Inputs(), n.Outputs()} {
		if slot < len(p) && p[slot].id == id {
			return p[slot], true
		}
	}
	return nil, false
}

// PinOwner returns the node that owns the pin.
func (g *Graph) PinOwner(pin ID) (Node, bool) {
	owner, ok := g.pinOwner[pin]
	if !ok {
		return nil, false
	}
	return g.nodes[owner], true
}

// PinSlot returns the pin's position among its node's inputs or outputs.
func (g *Graph) PinSlot(pin ID) (int, bool) {
	slot, ok := g.pinSlot[pin]
	return slot, ok
}

// CanExecute reports whether every linked input of the node is fed by a node
// that has already executed. Unlinked inputs are satisfied vacuously.
func (g *Graph) CanExecute(id ID) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	return g.canExecute(n)
}

func (g *Graph) canExecute(n Node) bool {
	for _, in := range n.Inputs() {
		src, linked := g.sourceOf(in.id)
		if !linked {
			continue
		}
		if !src.Executed() {
			return false
		}
	}
	return true
}

// idInUse reports whether id names a live node, pin or link.
func (g *Graph) idInUse(id ID) bool {
	if _, ok := g.nodes[id]; ok {
		return true
	}
	if _, ok := g.pinOwner[id]; ok {
		return true
	}
	_, ok := g.links[id]
	return ok
}

// sourceOf returns the node feeding an input pin.
func (g *Graph) sourceOf(input ID) (Node, bool) {
	linkID, ok := g.linkInto[input]
	if !ok {
		return nil, false
	}
	owner, ok := g.pinOwner[g.links[linkID].output]
	if !ok {
		return nil, false
	}
	return g.nodes[owner], true
}

func (g *Graph) indexPins(n Node) {
	id := n.ID()
	for i, p := range n.Inputs() {
		g.pinOwner[p.id] = id
		g.pinSlot[p.id] = i
	}
	for i, p := range n.Outputs() {
		g.pinOwner[p.id] = id
		g.pinSlot[p.id] = i
	}
}

func (g *Graph) unindexPins(n Node) {
	for _, p := range n.base().pins() {
		delete(g.pinOwner, p.id)
		delete(g.pinSlot, p.id)
	}
}

// clearLinks removes every link touching n, one RemoveLink at a time.
func (g *Graph) clearLinks(n Node) {
	for _, in := range n.Inputs() {
		if linkID, ok := g.linkInto[in.id]; ok {
			_ = g.RemoveLink(linkID)
		}
	}
	for _, out := range n.Outputs() {
		for _, linkID := range slices.Clone(g.linksFrom[out.id]) {
			_ = g.RemoveLink(linkID)
		}
	}
}
