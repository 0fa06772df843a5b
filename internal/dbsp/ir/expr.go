// Package ir implements the expression IR used as operator payloads, and
// the relational-expression input shape the lowering visitor's front end
// compiles from.
package ir

import (
	"github.com/ariyn/dbsp/internal/dbsp/dbspexc"
	"github.com/ariyn/dbsp/internal/dbsp/types"
)

// ExprKind tags the variant of an Expression.
type ExprKind int

const (
	ExprField ExprKind = iota
	ExprLiteral
	ExprUnary
	ExprBinary
	ExprClosure
)

// UnaryOp names a unary operator rendered into an UnaryExpression.
type UnaryOp string

const (
	OpNot   UnaryOp = "!"
	OpPlus  UnaryOp = "+"
	OpMinus UnaryOp = "-"
)

// BinaryOp names a binary operator rendered into a BinaryExpression.
type BinaryOp string

const (
	OpMul    BinaryOp = "*"
	OpDiv    BinaryOp = "/"
	OpMod    BinaryOp = "%"
	OpAdd    BinaryOp = "+"
	OpSub    BinaryOp = "-"
	OpLt     BinaryOp = "<"
	OpGt     BinaryOp = ">"
	OpLe     BinaryOp = "<="
	OpGe     BinaryOp = ">="
	OpEq     BinaryOp = "=="
	OpNe     BinaryOp = "!="
	OpAnd    BinaryOp = "&&"
	OpOr     BinaryOp = "||"
	OpDot    BinaryOp = "."
	OpBitAnd BinaryOp = "&"
	OpBitOr  BinaryOp = "|"
	OpBitXor BinaryOp = "^"
)

// Expression is every expression-IR node as a single tagged value, in the
// style the design notes prescribe for the whole IR: one sum type plus a
// tag-dispatched emission/eval path, with shared attributes (Origin, ID,
// result Type) as plain fields.
//
// An expression tree is a strict tree: no sharing, no cycles. Closures own
// their bodies. Exactly one Closure wraps each top-level compiled
// expression, and closures never nest.
type Expression struct {
	Kind   ExprKind
	Origin Origin
	ID     int64
	Type   types.Type

	// FieldIndex is valid for ExprField: the column index into the
	// implicit row t.
	FieldIndex int

	// Literal is valid for ExprLiteral: the literal's opaque textual
	// rendering. The core never interprets it.
	Literal string

	// UOp/BOp and Operand/Left/Right are valid for their respective
	// kinds.
	UOp     UnaryOp
	BOp     BinaryOp
	Operand *Expression
	Left    *Expression
	Right   *Expression

	// Body is valid for ExprClosure: the expression the row variable t is
	// bound in scope of.
	Body *Expression
}

// NewField builds a FieldExpression referencing column index into a row
// of the given arity. It raises IRInvariant if index is out of range.
func NewField(gen *IDGen, origin Origin, index int, arity int, t types.Type) (*Expression, error) {
	if index < 0 || index >= arity {
		return nil, dbspexc.NewIRInvariant("field index %d out of range for row arity %d", index, arity)
	}
	return &Expression{Kind: ExprField, Origin: origin, ID: gen.Next(), Type: t, FieldIndex: index}, nil
}

// NewLiteral builds a LiteralExpression from its opaque textual rendering.
func NewLiteral(gen *IDGen, origin Origin, text string, t types.Type) *Expression {
	return &Expression{Kind: ExprLiteral, Origin: origin, ID: gen.Next(), Type: t, Literal: text}
}

// NewUnary builds a UnaryExpression. Operand must be non-nil.
func NewUnary(gen *IDGen, origin Origin, op UnaryOp, operand *Expression, t types.Type) (*Expression, error) {
	if operand == nil {
		return nil, dbspexc.NewIRInvariant("unary expression %q has nil operand", op)
	}
	return &Expression{Kind: ExprUnary, Origin: origin, ID: gen.Next(), Type: t, UOp: op, Operand: operand}, nil
}

// NewBinary builds a BinaryExpression. Left and right must be non-nil.
func NewBinary(gen *IDGen, origin Origin, op BinaryOp, left, right *Expression, t types.Type) (*Expression, error) {
	if left == nil || right == nil {
		return nil, dbspexc.NewIRInvariant("binary expression %q has nil operand", op)
	}
	return &Expression{Kind: ExprBinary, Origin: origin, ID: gen.Next(), Type: t, BOp: op, Left: left, Right: right}, nil
}

// NewClosure wraps body in a ClosureExpression binding the implicit row
// variable t. Raises UnsupportedConstruct if body is itself a closure —
// closures never nest.
func NewClosure(gen *IDGen, origin Origin, body *Expression) (*Expression, error) {
	if body == nil {
		return nil, dbspexc.NewIRInvariant("closure body is nil")
	}
	if body.Kind == ExprClosure {
		return nil, dbspexc.NewUnsupportedConstruct("nested closure", body)
	}
	return &Expression{Kind: ExprClosure, Origin: origin, ID: gen.Next(), Type: body.Type, Body: body}, nil
}
