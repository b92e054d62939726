package pyre

import (
	"fmt"
	"reflect"
)

// Guard is a predicate over a source node's output. An edge carrying a
// guard fires only when the guard accepts the output; an edge without a
// guard always fires.
type Guard func(output any) bool

// InvokeFunc is the type-erased invocable held by a NodeType. The typed
// constructors below wrap user functions so that inputs are checked once
// at the boundary and node bodies stay fully typed.
type InvokeFunc func(ctx Context, input any) (any, error)

// nodeKind selects the routing rule applied to a node's output.
type nodeKind int

const (
	// kindPlain fans out on every accepting outgoing edge.
	kindPlain nodeKind = iota
	// kindMatch selects exactly one outgoing edge by match value.
	kindMatch
	// kindResult routes non-nil errors along err-labeled edges.
	kindResult
)

// NodeType is a named unit of logic with declared input and output types.
// Values are created with NewNodeType, NewMatcherType, or NewResultType
// and are immutable once registered.
type NodeType struct {
	id         string
	kind       nodeKind
	inputType  reflect.Type
	outputType reflect.Type
	invoke     InvokeFunc
}

// ID returns the type identifier.
func (nt NodeType) ID() string { return nt.id }

// InputType returns the declared input type descriptor.
func (nt NodeType) InputType() reflect.Type { return nt.inputType }

// OutputType returns the declared output type descriptor. For matcher
// types this is the inner output type that flows to successors, not the
// match value.
func (nt NodeType) OutputType() reflect.Type { return nt.outputType }

// matched carries a matcher node's selector value alongside the output
// that flows downstream.
type matched struct {
	value  string
	output any
}

// NewNodeType creates a plain node type from a typed function. When an
// instance of the type completes, every unconditional (or guard-accepted)
// outgoing edge fires with the output, each successor running
// concurrently.
func NewNodeType[I, O any](id string, fn func(ctx Context, in I) (O, error)) NodeType {
	return NodeType{
		id:         id,
		kind:       kindPlain,
		inputType:  typeOf[I](),
		outputType: typeOf[O](),
		invoke: func(ctx Context, input any) (any, error) {
			in, err := coerceInput[I](id, input)
			if err != nil {
				return nil, err
			}
			return fn(ctx, in)
		},
	}
}

// NewMatcherType creates a matcher node type. The function's first return
// value selects among outgoing edges: the edge declared with an equal
// match value fires, or the first unlabeled edge as the default. Exactly
// one edge fires; if nothing matches the execution path ends. The second
// return value is what flows to the selected successor.
func NewMatcherType[I, O any](id string, fn func(ctx Context, in I) (string, O, error)) NodeType {
	return NodeType{
		id:         id,
		kind:       kindMatch,
		inputType:  typeOf[I](),
		outputType: typeOf[O](),
		invoke: func(ctx Context, input any) (any, error) {
			in, err := coerceInput[I](id, input)
			if err != nil {
				return nil, err
			}
			value, out, err := fn(ctx, in)
			if err != nil {
				return nil, err
			}
			return matched{value: value, output: out}, nil
		},
	}
}

// NewResultType creates a result node type. A nil error routes the output
// along the node's ordinary outgoing edges; a non-nil error is not a
// failure but is routed, as a value, along the edges declared with
// OnError. An error with no err-labeled edges ends the execution path.
func NewResultType[I, O any](id string, fn func(ctx Context, in I) (O, error)) NodeType {
	return NodeType{
		id:         id,
		kind:       kindResult,
		inputType:  typeOf[I](),
		outputType: typeOf[O](),
		invoke: func(ctx Context, input any) (any, error) {
			in, err := coerceInput[I](id, input)
			if err != nil {
				return nil, err
			}
			return fn(ctx, in)
		},
	}
}

// typeOf returns the reflect.Type for T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// coerceInput converts a routed value to the node's input type. A nil
// input yields the zero value, which lets niladic-style start nodes be
// seeded without an initial input.
func coerceInput[I any](typeID string, input any) (I, error) {
	if input == nil {
		var zero I
		return zero, nil
	}
	in, ok := input.(I)
	if !ok {
		var zero I
		return zero, fmt.Errorf("%w: node type %s expects %v, got %T",
			ErrTypeMismatch, typeID, typeOf[I](), input)
	}
	return in, nil
}
