package lower

import (
	"github.com/ariyn/dbsp/internal/dbsp/dbspexc"
	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/op"
	"github.com/ariyn/dbsp/internal/dbsp/types"
)

// frame records a (parent, ordinal) pair on the visitor's stack, kept
// purely for diagnostics while a node's children are being visited.
type frame struct {
	parent  *RelNode
	ordinal int
}

// Visitor runs the post-order lowering walk described in spec §4.4,
// synthesizing operators bottom-up into a single Circuit.
type Visitor struct {
	Circuit *op.Circuit
	Gen     *ir.IDGen

	stack []frame
}

// NewVisitor returns a Visitor that lowers relational trees into c using
// gen as the shared id generator.
func NewVisitor(c *op.Circuit, gen *ir.IDGen) *Visitor {
	return &Visitor{Circuit: c, Gen: gen}
}

// Lower walks node and every node reachable from it, registering one
// operator per relational node in the Circuit, and returns the operator
// registered for node itself.
func (v *Visitor) Lower(node *RelNode) (*op.Operator, error) {
	return v.lower(node, nil, 0)
}

func (v *Visitor) lower(node *RelNode, parent *RelNode, ordinal int) (*op.Operator, error) {
	if node == nil {
		return nil, dbspexc.NewIRInvariant("cannot lower a nil relational node")
	}
	v.stack = append(v.stack, frame{parent: parent, ordinal: ordinal})
	defer func() { v.stack = v.stack[:len(v.stack)-1] }()

	switch node.Kind {
	case RelTableScan:
		return v.lowerTableScan(node)
	case RelProject:
		if _, err := v.lower(node.Input, node, 0); err != nil {
			return nil, err
		}
		return v.lowerProject(node)
	case RelUnion:
		for i, child := range node.Inputs {
			if _, err := v.lower(child, node, i); err != nil {
				return nil, err
			}
		}
		return v.lowerUnion(node)
	case RelMinus:
		for i, child := range node.Inputs {
			if _, err := v.lower(child, node, i); err != nil {
				return nil, err
			}
		}
		return v.lowerMinus(node)
	case RelFilter:
		if _, err := v.lower(node.Input, node, 0); err != nil {
			return nil, err
		}
		return v.lowerFilter(node)
	default:
		return nil, dbspexc.NewUnimplemented("relational node kind", node)
	}
}

// lowerTableScan looks up the source operator previously registered under
// the last component of the qualified table name and installs it as this
// node's operator. It never synthesizes a new operator.
func (v *Visitor) lowerTableScan(node *RelNode) (*op.Operator, error) {
	name := lastComponent(node.TableName)
	src, ok := v.Circuit.EndpointOperator(name)
	if !ok {
		return nil, dbspexc.NewIRInvariant("no source registered for table %q", name)
	}
	if err := v.Circuit.RegisterNode(node, src); err != nil {
		return nil, err
	}
	return src, nil
}

// lowerProject accepts only pure column references in the projection
// list; any non-reference raises Unimplemented. It produces a RelProject
// operator whose indexes are the referenced column positions, piped
// through a Distinct (set semantics). The registered operator is the
// Distinct.
func (v *Visitor) lowerProject(node *RelNode) (*op.Operator, error) {
	childOp, err := v.Circuit.OperatorForNode(node.Input)
	if err != nil {
		return nil, err
	}
	inputRow := rowArityFromZSet(childOp.Type)

	indexes := make([]int, len(node.ProjectExprs))
	for i, e := range node.ProjectExprs {
		if e.Kind != ir.RelInputRef {
			return nil, dbspexc.NewUnimplemented("non-column projection target", e)
		}
		if e.InputRefIndex < 0 || e.InputRefIndex >= len(inputRow.ColumnTypes) {
			return nil, dbspexc.NewIRInvariant("projection index %d out of range for arity %d", e.InputRefIndex, len(inputRow.ColumnTypes))
		}
		indexes[i] = e.InputRefIndex
	}

	outCols := make([]types.Type, len(indexes))
	for i, idx := range indexes {
		outCols[i] = inputRow.ColumnTypes[idx]
	}
	outType := types.MakeZSet(types.NewTuple(outCols...))

	proj := op.NewRelProject(v.Gen, ir.NewOrigin(node.Origin), childOp, indexes, nil, outType)
	v.Circuit.AddOperator(proj)

	dist := op.NewDistinct(v.Gen, ir.NewOrigin(node.Origin), proj)
	v.Circuit.AddOperator(dist)

	if err := v.Circuit.RegisterNode(node, dist); err != nil {
		return nil, err
	}
	return dist, nil
}

// lowerUnion builds a Sum of all child operators. If ALL is true, the Sum
// is registered; otherwise a trailing Distinct is registered instead.
func (v *Visitor) lowerUnion(node *RelNode) (*op.Operator, error) {
	if len(node.Inputs) == 0 {
		return nil, dbspexc.NewIRInvariant("union requires at least one input")
	}
	inputs := make([]*op.Operator, len(node.Inputs))
	for i, child := range node.Inputs {
		childOp, err := v.Circuit.OperatorForNode(child)
		if err != nil {
			return nil, err
		}
		inputs[i] = childOp
	}
	sum := op.NewSum(v.Gen, ir.NewOrigin(node.Origin), inputs)
	v.Circuit.AddOperator(sum)

	result := sum
	if !node.All {
		dist := op.NewDistinct(v.Gen, ir.NewOrigin(node.Origin), sum)
		v.Circuit.AddOperator(dist)
		result = dist
	}
	if err := v.Circuit.RegisterNode(node, result); err != nil {
		return nil, err
	}
	return result, nil
}

// lowerMinus builds a Sum where the first child is added unchanged and
// each subsequent child first runs through a Negate. The multiset union
// of positive and negated weights gives multiset difference; with ALL
// false, a trailing Distinct enforces set semantics.
func (v *Visitor) lowerMinus(node *RelNode) (*op.Operator, error) {
	if len(node.Inputs) == 0 {
		return nil, dbspexc.NewIRInvariant("minus requires at least one input")
	}
	firstOp, err := v.Circuit.OperatorForNode(node.Inputs[0])
	if err != nil {
		return nil, err
	}
	sumInputs := []*op.Operator{firstOp}
	for _, child := range node.Inputs[1:] {
		childOp, err := v.Circuit.OperatorForNode(child)
		if err != nil {
			return nil, err
		}
		neg := op.NewNegate(v.Gen, ir.NewOrigin(node.Origin), childOp)
		v.Circuit.AddOperator(neg)
		sumInputs = append(sumInputs, neg)
	}
	sum := op.NewSum(v.Gen, ir.NewOrigin(node.Origin), sumInputs)
	v.Circuit.AddOperator(sum)

	result := sum
	if !node.All {
		dist := op.NewDistinct(v.Gen, ir.NewOrigin(node.Origin), sum)
		v.Circuit.AddOperator(dist)
		result = dist
	}
	if err := v.Circuit.RegisterNode(node, result); err != nil {
		return nil, err
	}
	return result, nil
}

// lowerFilter compiles the predicate via the expression compiler and
// registers a Filter operator over the single child.
func (v *Visitor) lowerFilter(node *RelNode) (*op.Operator, error) {
	childOp, err := v.Circuit.OperatorForNode(node.Input)
	if err != nil {
		return nil, err
	}
	row := rowArityFromZSet(childOp.Type)
	predicate, err := ir.Compile(v.Gen, node.Predicate, row)
	if err != nil {
		return nil, err
	}
	f := op.NewFilter(v.Gen, ir.NewOrigin(node.Origin), childOp, predicate)
	v.Circuit.AddOperator(f)

	if err := v.Circuit.RegisterNode(node, f); err != nil {
		return nil, err
	}
	return f, nil
}

// rowArityFromZSet extracts the row shape from a ZSet(Tuple, Weight) (or,
// for an arity-1 tuple already simplified to its sole element, from the
// element type directly).
func rowArityFromZSet(t types.Type) ir.RowArity {
	key := t.KeyType()
	if key.Kind == types.Tuple {
		return ir.RowArity{ColumnTypes: append([]types.Type(nil), key.Elements...)}
	}
	return ir.RowArity{ColumnTypes: []types.Type{key}}
}

// lastComponent returns the final '.'-separated component of a possibly-
// qualified name (e.g. "db.schema.t" -> "t").
func lastComponent(qualified string) string {
	last := qualified
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' {
			last = qualified[i+1:]
			break
		}
	}
	return last
}
