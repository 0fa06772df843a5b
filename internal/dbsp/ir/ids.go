package ir

// Origin is an opaque, nullable back-reference to the front-end node that
// produced an IR node. The core never interprets it; it exists purely for
// diagnostics, so the stored value is untyped.
type Origin struct {
	v  any
	ok bool
}

// NoOrigin is the zero Origin: an IR node with no known front-end source.
func NoOrigin() Origin { return Origin{} }

// NewOrigin wraps a front-end node as an Origin.
func NewOrigin(v any) Origin { return Origin{v: v, ok: true} }

// Value returns the wrapped front-end node, or nil if there is none.
func (o Origin) Value() any { return o.v }

// IsNil reports whether this Origin carries no front-end node.
func (o Origin) IsNil() bool { return !o.ok }

// IDGen allocates dense, monotonically increasing ids for IR nodes. A
// single generator is shared across one compilation unit so that ids (and
// the variable names derived from them) stay unique across the whole
// circuit, not just within one operator kind.
type IDGen struct {
	next int64
}

// NewIDGen returns a generator whose first allocated id is 1.
func NewIDGen() *IDGen {
	return &IDGen{}
}

// Next returns the next id in the sequence.
func (g *IDGen) Next() int64 {
	g.next++
	return g.next
}
