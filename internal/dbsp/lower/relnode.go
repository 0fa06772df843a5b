// Package lower implements the lowering visitor: a post-order walk of a
// relational-algebra tree that synthesizes dataflow operators bottom-up.
package lower

import (
	"github.com/ariyn/dbsp/internal/dbsp/ir"
)

// RelNodeKind tags the variant of a RelNode: the grammar of already-
// validated relational-algebra trees the visitor walks, standing in for
// the out-of-scope SQL front end's logical-plan representation.
type RelNodeKind int

const (
	RelTableScan RelNodeKind = iota
	RelProject
	RelUnion
	RelMinus
	RelFilter
)

// RelNode is a relational-algebra tree node. Each node is allocated once
// and its pointer identity is used as the key into the circuit's
// node-to-operator map, so two logically-equal nodes built separately
// never alias each other's registered operator.
type RelNode struct {
	Kind RelNodeKind

	// TableName is valid for RelTableScan: the (possibly-qualified)
	// table or view name; only its last component is used to resolve
	// the registered Source/Sink operator.
	TableName string

	// ProjectExprs is valid for RelProject: the projection target list.
	// Every entry must be a pure RelInputRef; anything else is rejected.
	ProjectExprs []ir.RelExpr
	Input        *RelNode

	// Inputs is valid for RelUnion and RelMinus: the child branches, in
	// order. RelMinus treats Inputs[0] as the minuend and every
	// subsequent input as a subtrahend.
	Inputs []*RelNode
	// All is RelUnion/RelMinus's ALL qualifier: true keeps bag (multiset)
	// semantics, false enforces set semantics via a trailing Distinct.
	All bool

	// Predicate is valid for RelFilter: the WHERE condition compiled by
	// the expression compiler.
	Predicate ir.RelExpr

	// Origin is an opaque back-reference for diagnostics, e.g. the
	// parse-tree node this RelNode was built from.
	Origin any
}
