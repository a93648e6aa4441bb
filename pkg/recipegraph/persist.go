package recipegraph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// DocumentVersion is the current persisted graph format version.
// Increment when making breaking changes to Document.
const DocumentVersion = 1

// documentValidate checks the structural tags on Document.
var documentValidate = validator.New()

// Document is the persisted form of a graph: every node with its variant
// payload and pin ids, every link, and the id allocator's position.
type Document struct {
	Version int          `json:"version" yaml:"version" validate:"required,gt=0"`
	NextID  ID           `json:"next_id" yaml:"next_id" validate:"gte=0"`
	Nodes   []NodeRecord `json:"nodes" yaml:"nodes" validate:"dive"`
	Links   []LinkRecord `json:"links,omitempty" yaml:"links,omitempty" validate:"dive"`
}

// NodeRecord is one persisted node.
type NodeRecord struct {
	ID      ID     `json:"id" yaml:"id" validate:"required,gt=0"`
	Kind    string `json:"kind" yaml:"kind" validate:"required,oneof=constant constructor function acceptor"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Tag     string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Inputs  []ID   `json:"inputs,omitempty" yaml:"inputs,omitempty" validate:"dive,gt=0"`
	Outputs []ID   `json:"outputs,omitempty" yaml:"outputs,omitempty" validate:"dive,gt=0"`

	// Constructor and function nodes.
	Factory string `json:"factory,omitempty" yaml:"factory,omitempty" validate:"required_if=Kind constructor,required_if=Kind function"`
	Mode    string `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=invoke reference"`

	// Acceptor nodes.
	Slot    string `json:"slot,omitempty" yaml:"slot,omitempty" validate:"required_if=Kind acceptor"`
	Accepts string `json:"accepts,omitempty" yaml:"accepts,omitempty"`

	Constant *ConstantRecord `json:"constant,omitempty" yaml:"constant,omitempty" validate:"required_if=Kind constant"`
}

// ConstantRecord is the payload of a constant node.
type ConstantRecord struct {
	Kind    string   `json:"kind" yaml:"kind" validate:"required,oneof=integer float string path"`
	Value   string   `json:"value" yaml:"value"`
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty" validate:"required_with=Max"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty" validate:"required_with=Min"`
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// LinkRecord is one persisted link.
type LinkRecord struct {
	ID     ID `json:"id" yaml:"id" validate:"required,gt=0"`
	Output ID `json:"output" yaml:"output" validate:"required,gt=0"`
	Input  ID `json:"input" yaml:"input" validate:"required,gt=0"`
}

// Resolver supplies what a Document cannot carry: factory implementations
// and named (capsule) types.
type Resolver interface {
	FactoryResolver
	// Type resolves a bare type name written in a Document.
	Type(name string) (cty.Type, bool)
}

// Validate checks the document's structure. It does not resolve factories
// or check links; Restore does that.
func (d *Document) Validate() error {
	if err := documentValidate.Struct(d); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	if d.Version != DocumentVersion {
		return fmt.Errorf("%w: %d", ErrDocumentVersion, d.Version)
	}
	return nil
}

// maxID returns the largest id mentioned anywhere in the document.
func (d *Document) maxID() ID {
	var hi ID
	bump := func(id ID) {
		if id > hi {
			hi = id
		}
	}
	for _, n := range d.Nodes {
		bump(n.ID)
		for _, p := range n.Inputs {
			bump(p)
		}
		for _, p := range n.Outputs {
			bump(p)
		}
	}
	for _, l := range d.Links {
		bump(l.ID)
	}
	return hi
}

// Document captures the graph's current structure. Pin values and executed
// flags are transient and not included.
func (g *Graph) Document() (*Document, error) {
	doc := &Document{
		Version: DocumentVersion,
		NextID:  g.ids.Peek(),
	}
	for _, n := range g.Nodes() {
		rec, err := recordOf(n)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", labelOf(n.ID(), n.Tag()), err)
		}
		doc.Nodes = append(doc.Nodes, rec)
	}
	for _, l := range g.Links() {
		doc.Links = append(doc.Links, LinkRecord{ID: l.id, Output: l.output, Input: l.input})
	}
	return doc, nil
}

func recordOf(n Node) (NodeRecord, error) {
	rec := NodeRecord{
		ID:   n.ID(),
		Kind: n.Kind().String(),
		Name: n.Name(),
		Tag:  n.Tag(),
	}
	for _, p := range n.Inputs() {
		rec.Inputs = append(rec.Inputs, p.id)
	}
	for _, p := range n.Outputs() {
		rec.Outputs = append(rec.Outputs, p.id)
	}

	switch v := n.(type) {
	case *Constant:
		rec.Constant = &ConstantRecord{
			Kind:    v.valueKind.String(),
			Value:   formatLiteral(v.value),
			Min:     v.lo,
			Max:     v.hi,
			Choices: v.Choices(),
		}
	case *Constructor:
		rec.Factory = v.factory.Name()
	case *Function:
		rec.Factory = v.factory.Name()
		rec.Mode = v.mode.String()
	case *Acceptor:
		accepts, err := FormatType(v.accept)
		if err != nil {
			return NodeRecord{}, err
		}
		rec.Slot = v.slot
		rec.Accepts = accepts
	}
	return rec, nil
}

func formatLiteral(v cty.Value) string {
	if v.Type() == cty.Number {
		return v.AsBigFloat().Text('g', -1)
	}
	return v.AsString()
}

// Restore rebuilds a graph from a document. The graph must be empty.
//
// The allocator is raised above every persisted id before anything is
// allocated. Each node is then initialized normally, which lays out its pins
// with fresh ids, and only afterwards takes its persisted node and pin ids.
// Links are re-validated as they are re-added, so a document whose types no
// longer line up with the resolver's factories fails to restore.
//
// On failure the graph is left empty.
func (g *Graph) Restore(doc *Document, resolver Resolver) (err error) {
	if len(g.nodes) > 0 || len(g.links) > 0 {
		return ErrGraphNotEmpty
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	next := doc.NextID
	if hi := doc.maxID() + 1; hi > next {
		next = hi
	}
	g.ids.Restore(next)

	defer func() {
		if err != nil {
			g.reset()
		}
	}()

	for _, rec := range doc.Nodes {
		n, err := g.nodeFromRecord(rec, resolver)
		if err != nil {
			return &RestoreError{Element: rec.ID, Err: err}
		}
		if _, err := g.AddNode(n); err != nil {
			return &RestoreError{Element: rec.ID, Err: err}
		}
	}
	for _, rec := range doc.Links {
		if _, err := g.connect(rec.Input, rec.Output, rec.ID); err != nil {
			return &RestoreError{Element: rec.ID, Err: err}
		}
	}

	g.logger.Debug("graph restored",
		slog.Int("nodes", len(doc.Nodes)),
		slog.Int("links", len(doc.Links)),
		slog.Int64("next_id", int64(g.ids.Peek())),
	)
	return nil
}

func (g *Graph) nodeFromRecord(rec NodeRecord, resolver Resolver) (Node, error) {
	kind, ok := ParseKind(rec.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown node kind %q", rec.Kind)
	}

	var n Node
	switch kind {
	case KindConstant:
		c, err := constantFromRecord(rec)
		if err != nil {
			return nil, err
		}
		n = c
	case KindConstructor:
		f, err := resolveFactory(resolver, rec.Factory)
		if err != nil {
			return nil, err
		}
		n = NewConstructor(f)
	case KindFunction:
		f, err := resolveFactory(resolver, rec.Factory)
		if err != nil {
			return nil, err
		}
		mode := ModeInvoke
		if rec.Mode != "" {
			if mode, ok = ParseFunctionMode(rec.Mode); !ok {
				return nil, fmt.Errorf("unknown function mode %q", rec.Mode)
			}
		}
		n = NewFunction(f, mode)
	case KindAcceptor:
		var lookup TypeLookup
		if resolver != nil {
			lookup = resolver.Type
		}
		accepts, err := ParseType(rec.Accepts, lookup)
		if err != nil {
			return nil, err
		}
		n = NewAcceptor(rec.Slot, accepts)
	}

	b := n.base()
	if rec.Name != "" {
		b.name = rec.Name
	}
	b.tag = rec.Tag

	initialize(n, g.ids)
	if len(b.inputs) != len(rec.Inputs) || len(b.outputs) != len(rec.Outputs) {
		return nil, fmt.Errorf("%w: node has %d inputs and %d outputs, document has %d and %d",
			ErrPinLayout, len(b.inputs), len(b.outputs), len(rec.Inputs), len(rec.Outputs))
	}
	b.id = rec.ID
	for i, p := range b.inputs {
		p.id = rec.Inputs[i]
	}
	for i, p := range b.outputs {
		p.id = rec.Outputs[i]
	}
	return n, nil
}

func resolveFactory(resolver Resolver, name string) (Factory, error) {
	if resolver == nil {
		return nil, fmt.Errorf("%w: %q (no resolver)", ErrUnknownFactory, name)
	}
	f, ok := resolver.Factory(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFactory, name)
	}
	return f, nil
}

func constantFromRecord(rec NodeRecord) (*Constant, error) {
	cr := rec.Constant
	kind, ok := ParseConstantKind(cr.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown constant kind %q", cr.Kind)
	}
	c := NewConstant(rec.Name, kind)
	if cr.Min != nil && cr.Max != nil {
		c.WithBounds(*cr.Min, *cr.Max)
	}
	if len(cr.Choices) > 0 {
		c.WithChoices(cr.Choices...)
	}

	var v cty.Value
	if kind.Type() == cty.Number {
		if cr.Value == "" {
			return c, nil
		}
		f, _, err := big.ParseFloat(cr.Value, 10, 512, big.ToNearestEven)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, cr.Value)
		}
		v = cty.NumberVal(f)
	} else {
		v = cty.StringVal(cr.Value)
	}
	if err := c.Set(v); err != nil {
		return nil, err
	}
	return c, nil
}

// Format selects a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the encoding from a file extension: .yaml and .yml are
// YAML, everything else is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// EncodeDocument serializes a document.
func EncodeDocument(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return data, nil
	}
}

// DecodeDocument parses and validates a document.
func DecodeDocument(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteFile saves the graph's document to path, encoded by extension.
func (g *Graph) WriteFile(path string) error {
	doc, err := g.Document()
	if err != nil {
		return err
	}
	data, err := EncodeDocument(doc, FormatForPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}

// ReadFile restores the graph from a document file, decoded by extension.
func (g *Graph) ReadFile(path string, resolver Resolver) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("graph file not found: %s", path)
		}
		return fmt.Errorf("read graph: %w", err)
	}
	doc, err := DecodeDocument(data, FormatForPath(path))
	if err != nil {
		return err
	}
	return g.Restore(doc, resolver)
}
