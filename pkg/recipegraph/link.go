package recipegraph

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// Link is a directed data dependency from an output pin to an input pin.
type Link struct {
	id     ID
	output ID
	input  ID
}

// ID returns the link identifier.
func (l Link) ID() ID { return l.id }

// Output returns the source pin.
func (l Link) Output() ID { return l.output }

// Input returns the destination pin.
func (l Link) Input() ID { return l.input }

// AddLink connects output to input and returns the new link's id.
//
// The proposal is rejected, leaving the graph unchanged, if:
//   - either pin does not exist
//   - output is not an output pin or input is not an input pin
//   - input already has a link (the existing link is kept)
//   - either pin is untyped
//   - the oracle does not consider the output type assignable to the input type
//
// Type rejections are reported to the diagnostics sink at most once per
// repeat interval for the same pair of pins.
func (g *Graph) AddLink(input, output ID) (ID, error) {
	return g.connect(input, output, 0)
}

// connect validates and records a link. A zero id allocates a fresh one.
func (g *Graph) connect(input, output, id ID) (ID, error) {
	in, ok := g.Pin(input)
	if !ok {
		return 0, g.rejectLink(input, output, ErrPinNotFound, "unresolved")
	}
	out, ok := g.Pin(output)
	if !ok {
		return 0, g.rejectLink(input, output, ErrPinNotFound, "unresolved")
	}

	if out.direction != Output || in.direction != Input {
		return 0, g.rejectLink(input, output, ErrDirectionMismatch, "direction")
	}

	if _, occupied := g.linkInto[input]; occupied {
		return 0, g.rejectLink(input, output, ErrInputOccupied, "occupied")
	}

	if !in.IsTyped() || !out.IsTyped() {
		err := &LinkError{Input: input, Output: output, InputType: in.typ, OutputType: out.typ, Err: ErrUntypedPin}
		g.cfg.metrics.RecordLinkRejected(context.Background(), "untyped")
		g.repeats.do(pinPair{output: output, input: input}, func() {
			g.sink.Log(LevelWarning, err.Error())
		})
		return 0, err
	}

	if !g.cfg.oracle.IsAssignable(in.typ, out.typ) {
		err := &LinkError{Input: input, Output: output, InputType: in.typ, OutputType: out.typ, Err: ErrIncompatibleTypes}
		g.cfg.metrics.RecordLinkRejected(context.Background(), "incompatible")
		g.repeats.do(pinPair{output: output, input: input}, func() {
			g.sink.Log(LevelError, err.Error())
		})
		return 0, err
	}

	if id == 0 {
		id = g.ids.Next()
	} else if g.idInUse(id) {
		return 0, fmt.Errorf("%w: link %d", ErrDuplicateID, id)
	}

	l := Link{id: id, output: output, input: input}
	g.links[l.id] = l
	g.linkInto[input] = l.id
	g.linksFrom[output] = append(g.linksFrom[output], l.id)

	g.logger.Debug("link added",
		slog.Int64("link_id", int64(l.id)),
		slog.Int64("output", int64(output)),
		slog.Int64("input", int64(input)),
	)
	return l.id, nil
}

func (g *Graph) rejectLink(input, output ID, reason error, label string) error {
	err := &LinkError{Input: input, Output: output, Err: reason}
	g.cfg.metrics.RecordLinkRejected(context.Background(), label)
	g.sink.Log(LevelWarning, err.Error())
	return err
}

// RemoveLink deletes a link and its entries in both pin indices.
func (g *Graph) RemoveLink(id ID) error {
	l, ok := g.links[id]
	if !ok {
		return fmt.Errorf("remove link %d: %w", id, ErrLinkNotFound)
	}

	if g.linkInto[l.input] == id {
		delete(g.linkInto, l.input)
	}

	from := g.linksFrom[l.output]
	if i := slices.Index(from, id); i >= 0 {
		from = slices.Delete(from, i, i+1)
	}
	if len(from) == 0 {
		delete(g.linksFrom, l.output)
	} else {
		g.linksFrom[l.output] = from
	}

	delete(g.links, id)
	g.logger.Debug("link removed", slog.Int64("link_id", int64(id)))
	return nil
}

// Link returns the link with the given id.
func (g *Graph) Link(id ID) (Link, bool) {
	l, ok := g.links[id]
	return l, ok
}

// Links returns all links in id order.
func (g *Graph) Links() []Link {
	links := make([]Link, 0, len(g.links))
	for _, l := range g.links {
		links = append(links, l)
	}
	slices.SortFunc(links, func(a, b Link) int {
		return cmp.Compare(a.id, b.id)
	})
	return links
}

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int {
	return len(g.links)
}

// LinkInto returns the link ending at an input pin.
func (g *Graph) LinkInto(input ID) (Link, bool) {
	id, ok := g.linkInto[input]
	if !ok {
		return Link{}, false
	}
	return g.links[id], true
}

// LinksFrom returns the links starting at an output pin, in creation order.
func (g *Graph) LinksFrom(output ID) []Link {
	ids := g.linksFrom[output]
	links := make([]Link, len(ids))
	for i, id := range ids {
		links[i] = g.links[id]
	}
	return links
}
