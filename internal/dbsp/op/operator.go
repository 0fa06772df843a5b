// Package op implements the operator IR: the typed dataflow nodes that
// make up a Circuit, and the Circuit container itself.
package op

import (
	"fmt"

	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/types"
)

// Kind tags the variant of an Operator. All variants are shapes of the
// same entity: a node with an operation tag, an optional payload
// expression, an output type, a unique output binding name, and an
// ordered list of inputs.
type Kind int

const (
	KindSource Kind = iota
	KindSink
	KindRelProject
	KindFilter
	KindSum
	KindNegate
	KindDistinct
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindSink:
		return "inspect"
	case KindRelProject:
		return "map_keys"
	case KindFilter:
		return "filter_keys"
	case KindSum:
		return "sum"
	case KindNegate:
		return "neg"
	case KindDistinct:
		return "distinct"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Operator is a single dataflow node: a polymorphic entity carrying the
// has-name and has-type capabilities the design notes describe as small
// explicit accessors rather than duck-typed interfaces.
type Operator struct {
	Kind   Kind
	Origin ir.Origin
	ID     int64

	// Name is the operator's unique output binding name, generated
	// fresh at construction unless explicitly supplied.
	Name string

	// Type is the operator's externally visible stream element type —
	// typically a ZSet of a tuple.
	Type types.Type

	// Function is the optional payload expression rendered into the
	// operator's function slot (Filter's predicate, RelProject's
	// row-closure). Empty (nil) for Source, Sink, Sum, Negate, Distinct.
	Function *ir.Expression

	// Indexes holds RelProject's referenced column positions, in order.
	Indexes []int

	// Inputs is the ordered list of input operators. Order is
	// significant: the first input is the pipeline carrier; subsequent
	// inputs are additional data sources (e.g. Sum's extra operands).
	// These are non-owning references into the Circuit's arena.
	Inputs []*Operator
}

// HasName reports the operator's output binding name (all variants have
// one).
func (o *Operator) HasName() string { return o.Name }

// HasType reports the operator's output Type (all variants have one).
func (o *Operator) HasType() types.Type { return o.Type }

// AddInput appends op to the receiver's input list. Order is significant.
func (o *Operator) AddInput(input *Operator) {
	o.Inputs = append(o.Inputs, input)
}

// nameFor returns name if non-empty, otherwise a fresh collision-free name
// derived from id.
func nameFor(id int64, name string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("stream%d", id)
}

// newOperator builds the common shape of an Operator; callers then attach
// variant-specific fields.
func newOperator(gen *ir.IDGen, origin ir.Origin, kind Kind, fn *ir.Expression, outType types.Type, name string) *Operator {
	id := gen.Next()
	return &Operator{
		Kind:     kind,
		Origin:   origin,
		ID:       id,
		Name:     nameFor(id, name),
		Type:     outType,
		Function: fn,
	}
}

// NewSource builds a Source operator exposing an external input as a
// stream. Its output type is conventionally ZSet(TupleOf(table columns)).
func NewSource(gen *ir.IDGen, origin ir.Origin, outType types.Type, name string) *Operator {
	return newOperator(gen, origin, KindSource, nil, outType, name)
}

// NewSink builds a Sink operator: a terminal observer of its single input,
// used to expose a named view's result.
func NewSink(gen *ir.IDGen, origin ir.Origin, input *Operator, outType types.Type, name string) *Operator {
	op := newOperator(gen, origin, KindSink, nil, outType, name)
	op.AddInput(input)
	return op
}

// NewRelProject builds a RelProject operator performing the element-wise
// projection t -> (t.i1, ..., t.ik); weights are preserved.
func NewRelProject(gen *ir.IDGen, origin ir.Origin, input *Operator, indexes []int, fn *ir.Expression, outType types.Type) *Operator {
	op := newOperator(gen, origin, KindRelProject, fn, outType, "")
	op.Indexes = append([]int(nil), indexes...)
	op.AddInput(input)
	return op
}

// NewFilter builds a Filter operator keeping elements where predicate
// t -> bool holds; weights are preserved.
func NewFilter(gen *ir.IDGen, origin ir.Origin, input *Operator, predicate *ir.Expression) *Operator {
	op := newOperator(gen, origin, KindFilter, predicate, input.Type, "")
	op.AddInput(input)
	return op
}

// NewSum builds a Sum operator: multiset union of N inputs (pointwise
// addition of weights). At least one input is required.
func NewSum(gen *ir.IDGen, origin ir.Origin, inputs []*Operator) *Operator {
	op := newOperator(gen, origin, KindSum, nil, inputs[0].Type, "")
	op.Inputs = append(op.Inputs, inputs...)
	return op
}

// NewNegate builds a Negate operator: unary negation of all weights.
func NewNegate(gen *ir.IDGen, origin ir.Origin, input *Operator) *Operator {
	op := newOperator(gen, origin, KindNegate, nil, input.Type, "")
	op.AddInput(input)
	return op
}

// NewDistinct builds a Distinct operator: squashes each positive-weight
// element to weight 1 and drops non-positive rows.
func NewDistinct(gen *ir.IDGen, origin ir.Origin, input *Operator) *Operator {
	op := newOperator(gen, origin, KindDistinct, nil, input.Type, "")
	op.AddInput(input)
	return op
}
