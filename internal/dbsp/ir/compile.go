package ir

import (
	"github.com/ariyn/dbsp/internal/dbsp/dbspexc"
	"github.com/ariyn/dbsp/internal/dbsp/types"
)

// RelExprKind tags the variant of a RelExpr: the grammar of relational
// expression trees the lowering visitor's front end hands the expression
// compiler. It stands in for the out-of-scope SQL front end's own
// already-validated expression representation.
type RelExprKind int

const (
	RelInputRef RelExprKind = iota
	RelLiteralExpr
	RelCall
)

// CallKind names a RelCall's operator. Direct arithmetic/comparison/
// logical/bitwise mappings are handled by the expression compiler; every
// other kind raises Unimplemented.
type CallKind string

const (
	CallMul       CallKind = "*"
	CallDiv       CallKind = "/"
	CallMod       CallKind = "%"
	CallAdd       CallKind = "+"
	CallSub       CallKind = "-"
	CallLt        CallKind = "<"
	CallGt        CallKind = ">"
	CallLe        CallKind = "<="
	CallGe        CallKind = ">="
	CallEq        CallKind = "=="
	CallNe        CallKind = "!="
	CallAnd       CallKind = "&&"
	CallOr        CallKind = "||"
	CallDot       CallKind = "."
	CallNot       CallKind = "!"
	CallUnaryPlus CallKind = "unary+"
	CallUnaryNeg  CallKind = "unary-"
	CallBitAnd    CallKind = "BIT_AND"
	CallBitOr     CallKind = "BIT_OR"
	CallBitXor    CallKind = "BIT_XOR"
	CallIsTrue    CallKind = "IS TRUE"
	CallIsNotFalse CallKind = "IS NOT FALSE"
	CallIsNull    CallKind = "IS NULL"
	CallIsNotNull CallKind = "IS NOT NULL"
	CallCast      CallKind = "CAST"
	CallFloor     CallKind = "FLOOR"
	CallCeil      CallKind = "CEIL"
)

var binaryCallOps = map[CallKind]BinaryOp{
	CallMul: OpMul, CallDiv: OpDiv, CallMod: OpMod, CallAdd: OpAdd, CallSub: OpSub,
	CallLt: OpLt, CallGt: OpGt, CallLe: OpLe, CallGe: OpGe, CallEq: OpEq, CallNe: OpNe,
	CallAnd: OpAnd, CallOr: OpOr, CallDot: OpDot,
	CallBitAnd: OpBitAnd, CallBitOr: OpBitOr, CallBitXor: OpBitXor,
}

var unaryCallOps = map[CallKind]UnaryOp{
	CallNot: OpNot, CallUnaryPlus: OpPlus, CallUnaryNeg: OpMinus,
}

// RelExpr is a relational-algebra expression tree node: a column
// reference, a literal, or a call. This is the input shape the
// expression compiler's Compile walks.
type RelExpr struct {
	Kind RelExprKind

	// InputRefIndex is valid for RelInputRef.
	InputRefIndex int

	// LiteralText/LiteralType are valid for RelLiteralExpr.
	LiteralText string
	LiteralType types.SQLType

	// CallKind/Operands are valid for RelCall.
	CallKind CallKind
	Operands []RelExpr

	// Origin is an opaque back-reference for diagnostics.
	Origin any
}

// RowArity describes the implicit row t's shape: its column count and the
// already-converted dataflow type of each column, used to resolve a
// RelInputRef's result type.
type RowArity struct {
	ColumnTypes []types.Type
}

// Arity returns the number of columns in the row.
func (r RowArity) Arity() int { return len(r.ColumnTypes) }

// compileVisitor carries the shared id generator and row shape across one
// post-order visit of a relational expression tree.
type compileVisitor struct {
	gen *IDGen
	row RowArity
}

// compileRel recursively compiles a single RelExpr (not yet wrapped in a
// closure) into an Expression.
func (v *compileVisitor) compileRel(e RelExpr) (*Expression, error) {
	origin := NewOrigin(e.Origin)
	switch e.Kind {
	case RelInputRef:
		if e.InputRefIndex < 0 || e.InputRefIndex >= v.row.Arity() {
			return nil, dbspexc.NewIRInvariant("field index %d out of range for row arity %d", e.InputRefIndex, v.row.Arity())
		}
		return NewField(v.gen, origin, e.InputRefIndex, v.row.Arity(), v.row.ColumnTypes[e.InputRefIndex])

	case RelLiteralExpr:
		lt, err := types.Convert(e.LiteralType)
		if err != nil {
			return nil, err
		}
		return NewLiteral(v.gen, origin, e.LiteralText, lt), nil

	case RelCall:
		return v.compileCall(origin, e)

	default:
		return nil, dbspexc.NewUnimplemented("relational expression kind", e)
	}
}

func (v *compileVisitor) compileCall(origin Origin, e RelExpr) (*Expression, error) {
	switch e.CallKind {
	case CallIsTrue, CallIsNotFalse:
		if len(e.Operands) != 1 {
			return nil, dbspexc.NewIRInvariant("%s expects exactly one operand, got %d", e.CallKind, len(e.Operands))
		}
		operand, err := v.compileRel(e.Operands[0])
		if err != nil {
			return nil, err
		}
		// For a non-nullable operand, IS TRUE and IS NOT FALSE both
		// reduce to the operand's own value. A nullable operand needs
		// NULL folded to false, which the IR has no node for yet.
		if operand.Type.Nullable {
			return nil, dbspexc.NewUnimplemented(string(e.CallKind)+" on a nullable operand", e)
		}
		return operand, nil

	case CallNot, CallUnaryPlus, CallUnaryNeg:
		if len(e.Operands) != 1 {
			return nil, dbspexc.NewIRInvariant("%s expects exactly one operand, got %d", e.CallKind, len(e.Operands))
		}
		operand, err := v.compileRel(e.Operands[0])
		if err != nil {
			return nil, err
		}
		return NewUnary(v.gen, origin, unaryCallOps[e.CallKind], operand, operand.Type)
	}

	if bop, ok := binaryCallOps[e.CallKind]; ok {
		if len(e.Operands) != 2 {
			return nil, dbspexc.NewIRInvariant("%s expects exactly two operands, got %d", e.CallKind, len(e.Operands))
		}
		left, err := v.compileRel(e.Operands[0])
		if err != nil {
			return nil, err
		}
		right, err := v.compileRel(e.Operands[1])
		if err != nil {
			return nil, err
		}
		return NewBinary(v.gen, origin, bop, left, right, binaryResultType(e.CallKind, left.Type))
	}

	// IS NULL, IS NOT NULL, CAST, FLOOR, CEIL, and any unlisted call kind.
	return nil, dbspexc.NewUnimplemented("call kind "+string(e.CallKind), e)
}

func binaryResultType(k CallKind, operandType types.Type) types.Type {
	switch k {
	case CallLt, CallGt, CallLe, CallGe, CallEq, CallNe, CallAnd, CallOr:
		return types.NewBool(operandType.Nullable)
	default:
		return operandType
	}
}

// Compile compiles a top-level relational expression into an Expression
// IR tree wrapped in exactly one ClosureExpression over the implicit row
// variable t. gen is the shared id generator for the compilation unit.
func Compile(gen *IDGen, e RelExpr, row RowArity) (*Expression, error) {
	v := &compileVisitor{gen: gen, row: row}
	body, err := v.compileRel(e)
	if err != nil {
		return nil, err
	}
	return NewClosure(gen, NoOrigin(), body)
}
