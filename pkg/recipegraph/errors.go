package recipegraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Sentinel errors for graph structure.
var (
	// ErrNodeNotFound indicates an ID that does not name a live node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrPinNotFound indicates an ID that does not name a live pin.
	ErrPinNotFound = errors.New("pin not found")

	// ErrLinkNotFound indicates an ID that does not name a live link.
	ErrLinkNotFound = errors.New("link not found")

	// ErrDuplicateID indicates a node or pin whose ID is already in use.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrDirectionMismatch indicates a link proposed from a non-output pin
	// or into a non-input pin.
	ErrDirectionMismatch = errors.New("pin direction mismatch")

	// ErrInputOccupied indicates a link proposed into an input that already has one.
	ErrInputOccupied = errors.New("input pin already linked")

	// ErrWrongKind indicates an operation applied to the wrong node variant.
	ErrWrongKind = errors.New("wrong node kind")
)

// Sentinel errors for link typing.
var (
	// ErrUntypedPin indicates a link endpoint with no declared type.
	ErrUntypedPin = errors.New("pin has no declared type")

	// ErrIncompatibleTypes indicates the oracle rejected the source type for the destination.
	ErrIncompatibleTypes = errors.New("incompatible pin types")
)

// Sentinel errors for compilation and execution.
var (
	// ErrNotAcceptor indicates compilation was requested from a non-acceptor node.
	ErrNotAcceptor = errors.New("node is not an acceptor")

	// ErrCycle indicates the dependency set of an acceptor could not be fully ordered.
	ErrCycle = errors.New("dependency cycle or unresolved dependency")

	// ErrStaleRecipe indicates the graph changed after the recipe was compiled.
	ErrStaleRecipe = errors.New("recipe no longer matches graph")

	// ErrInvalidValue indicates a constant value outside its kind, bounds, or choices.
	ErrInvalidValue = errors.New("invalid constant value")
)

// Sentinel errors for persistence.
var (
	// ErrGraphNotEmpty indicates Restore was called on a graph that has nodes.
	ErrGraphNotEmpty = errors.New("graph is not empty")

	// ErrUnknownFactory indicates a persisted node names a factory the resolver lacks.
	ErrUnknownFactory = errors.New("unknown factory")

	// ErrPinLayout indicates persisted pin ids do not match the node's current pin layout.
	ErrPinLayout = errors.New("pin layout mismatch")

	// ErrDocumentVersion indicates an unsupported document version.
	ErrDocumentVersion = errors.New("unsupported document version")
)

// LinkError describes a rejected link proposal.
type LinkError struct {
	// Input is the proposed destination pin.
	Input ID
	// Output is the proposed source pin.
	Output ID
	// InputType and OutputType are set for type rejections.
	InputType  cty.Type
	OutputType cty.Type
	// Err is the reason, one of the sentinel errors.
	Err error
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	if errors.Is(e.Err, ErrIncompatibleTypes) {
		return fmt.Sprintf("link %d -> %d: %v: %s is not assignable to %s",
			e.Output, e.Input, e.Err, typeName(e.OutputType), typeName(e.InputType))
	}
	return fmt.Sprintf("link %d -> %d: %v", e.Output, e.Input, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *LinkError) Unwrap() error {
	return e.Err
}

// CompileError reports an acceptor whose dependencies could not be ordered.
type CompileError struct {
	// Acceptor is the acceptor being compiled.
	Acceptor ID
	// Tag is the acceptor's user label at the time of failure.
	Tag string
	// Unresolved lists the nodes that never became ready, in discovery order.
	Unresolved []ID
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if len(e.Unresolved) == 0 {
		return fmt.Sprintf("compile %s: %v", labelOf(e.Acceptor, e.Tag), e.Err)
	}
	ids := make([]string, len(e.Unresolved))
	for i, id := range e.Unresolved {
		ids[i] = fmt.Sprint(int64(id))
	}
	return fmt.Sprintf("compile %s: %v (unresolved nodes: %s)",
		labelOf(e.Acceptor, e.Tag), e.Err, strings.Join(ids, ", "))
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// NodeError wraps an error with node context.
type NodeError struct {
	// NodeID is the node that failed.
	NodeID ID
	// Tag is the node's user label.
	Tag string
	// Op is the operation that failed (e.g., "execute").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", labelOf(e.NodeID, e.Tag), e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised by a factory during execution.
type PanicError struct {
	// NodeID is the node whose factory panicked.
	NodeID ID
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %d panicked: %v", e.NodeID, e.Value)
}

// RestoreError reports a persisted element that could not be rebuilt.
type RestoreError struct {
	// Element is the persisted node or link id.
	Element ID
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore element %d: %v", e.Element, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RestoreError) Unwrap() error {
	return e.Err
}

// Class groups errors by how a user recovers from them.
type Class int

const (
	// ClassUnknown is any error not produced by this package.
	ClassUnknown Class = iota
	// ClassStructural covers unresolved ids, direction mismatches and double writes.
	ClassStructural
	// ClassType covers incompatible or undeclared pin types.
	ClassType
	// ClassCyclic covers acceptors whose dependencies cannot be ordered.
	ClassCyclic
	// ClassExternal covers failures raised by factories during execution.
	ClassExternal
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassStructural:
		return "structural"
	case ClassType:
		return "type"
	case ClassCyclic:
		return "cyclic"
	case ClassExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Classify maps err onto the error taxonomy.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	switch {
	case errors.Is(err, ErrUntypedPin), errors.Is(err, ErrIncompatibleTypes):
		return ClassType
	case errors.Is(err, ErrCycle):
		return ClassCyclic
	case errors.Is(err, ErrNodeNotFound), errors.Is(err, ErrPinNotFound),
		errors.Is(err, ErrLinkNotFound), errors.Is(err, ErrDuplicateID),
		errors.Is(err, ErrDirectionMismatch), errors.Is(err, ErrInputOccupied),
		errors.Is(err, ErrWrongKind),
		errors.Is(err, ErrNotAcceptor), errors.Is(err, ErrStaleRecipe):
		return ClassStructural
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return ClassExternal
	}
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) && nodeErr.Op == opExecute {
		return ClassExternal
	}
	return ClassUnknown
}

func labelOf(id ID, tag string) string {
	if tag == "" {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("%q (#%d)", tag, id)
}

func typeName(t cty.Type) string {
	if t == cty.NilType {
		return "untyped"
	}
	return t.FriendlyName()
}
