// Package dbspexc defines the taxonomy of errors the compiler raises.
//
// Every error the core produces is one of these kinds; none is recovered
// internally. A compilation unit either lowers entirely or aborts with one
// of these wrapped in the outermost call's return value.
package dbspexc

import (
	"errors"
	"fmt"
)

// Unimplemented marks a construct the core recognizes but does not lower:
// most SQL types beyond the primitives, most call kinds beyond arithmetic,
// comparison, logical and bitwise operators, and anything touching joins
// or aggregation.
type Unimplemented struct {
	// What names the construct (e.g. "sql type DATE", "call kind CAST").
	What string
	// Node carries the offending node for diagnostics; may be nil.
	Node any
}

func (e *Unimplemented) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("unimplemented: %s", e.What)
	}
	return fmt.Sprintf("unimplemented: %s (node: %v)", e.What, e.Node)
}

// NewUnimplemented builds an Unimplemented error carrying an offending node.
func NewUnimplemented(what string, node any) error {
	return &Unimplemented{What: what, Node: node}
}

// UnsupportedConstruct marks a construct the core explicitly rejects, such
// as a top-level ORDER BY on a view or a nested closure.
type UnsupportedConstruct struct {
	Construct string
	Node      any
}

func (e *UnsupportedConstruct) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("unsupported construct: %s", e.Construct)
	}
	return fmt.Sprintf("unsupported construct: %s (node: %v)", e.Construct, e.Node)
}

// NewUnsupportedConstruct builds an UnsupportedConstruct error.
func NewUnsupportedConstruct(construct string, node any) error {
	return &UnsupportedConstruct{Construct: construct, Node: node}
}

// IRInvariant marks an assertion failure: a programmer error rather than
// an input error. Null operand, wrong operand arity, duplicate key in a
// uniqueness-carrying map, invalid field index, negative indent, no such
// operator registered for a relational node.
type IRInvariant struct {
	Msg string
}

func (e *IRInvariant) Error() string {
	return fmt.Sprintf("IR invariant violated: %s", e.Msg)
}

// NewIRInvariant builds an IRInvariant error with a formatted message.
func NewIRInvariant(format string, args ...any) error {
	return &IRInvariant{Msg: fmt.Sprintf(format, args...)}
}

// IsUnimplemented reports whether err (or something it wraps) is an
// Unimplemented error.
func IsUnimplemented(err error) bool {
	var u *Unimplemented
	return errors.As(err, &u)
}

// IsUnsupportedConstruct reports whether err is an UnsupportedConstruct error.
func IsUnsupportedConstruct(err error) bool {
	_, ok := err.(*UnsupportedConstruct)
	return ok
}

// IsIRInvariant reports whether err is an IRInvariant error.
func IsIRInvariant(err error) bool {
	_, ok := err.(*IRInvariant)
	return ok
}
