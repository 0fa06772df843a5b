package op

import (
	"github.com/ariyn/dbsp/internal/dbsp/dbspexc"
)

// Circuit is a named container holding the ordered lists of sources,
// sinks, and internal operators, plus lookup maps from relational-node
// identity to its synthesized operator and from endpoint name to
// operator. Operators are owned by the Circuit; cross-operator edges
// (Operator.Inputs) are non-owning references into this arena.
type Circuit struct {
	Name string

	Sources  []*Operator
	Sinks    []*Operator
	Internal []*Operator

	// nodeOps maps a relational-tree node's identity (see the lower
	// package) to the operator registered for it.
	nodeOps map[any]*Operator

	// endpoints maps an external endpoint name (table name for a
	// Source, view name for a Sink) to its operator.
	endpoints map[string]*Operator
}

// NewCircuit returns an empty, named Circuit.
func NewCircuit(name string) *Circuit {
	return &Circuit{
		Name:      name,
		nodeOps:   make(map[any]*Operator),
		endpoints: make(map[string]*Operator),
	}
}

// AddOperator routes op into the Sources, Sinks, or Internal list
// according to its Kind, and returns it for chaining.
func (c *Circuit) AddOperator(op *Operator) *Operator {
	switch op.Kind {
	case KindSource:
		c.Sources = append(c.Sources, op)
	case KindSink:
		c.Sinks = append(c.Sinks, op)
	default:
		c.Internal = append(c.Internal, op)
	}
	return op
}

// RegisterNode records that relational node key's synthesized operator is
// op, so a later visit of a parent node can look it up. putNew semantics:
// fails with IRInvariant if key is already registered.
func (c *Circuit) RegisterNode(key any, op *Operator) error {
	if _, ok := c.nodeOps[key]; ok {
		return dbspexc.NewIRInvariant("node %v already has a registered operator", key)
	}
	c.nodeOps[key] = op
	return nil
}

// OperatorForNode returns the operator registered for relational node key,
// or an IRInvariant error if none was registered.
func (c *Circuit) OperatorForNode(key any) (*Operator, error) {
	op, ok := c.nodeOps[key]
	if !ok {
		return nil, dbspexc.NewIRInvariant("no operator registered for node %v", key)
	}
	return op, nil
}

// RegisterEndpoint records op as the operator for the external endpoint
// name (a table name for a Source, a view name for a Sink). Fails with
// IRInvariant if name is already registered.
func (c *Circuit) RegisterEndpoint(name string, op *Operator) error {
	if _, ok := c.endpoints[name]; ok {
		return dbspexc.NewIRInvariant("endpoint %q already registered", name)
	}
	c.endpoints[name] = op
	return nil
}

// EndpointOperator returns the operator registered under endpoint name,
// and whether one was found.
func (c *Circuit) EndpointOperator(name string) (*Operator, bool) {
	op, ok := c.endpoints[name]
	return op, ok
}

// AllOperators returns every operator in the circuit, sources first, then
// sinks, then internal operators in insertion order.
func (c *Circuit) AllOperators() []*Operator {
	all := make([]*Operator, 0, len(c.Sources)+len(c.Sinks)+len(c.Internal))
	all = append(all, c.Sources...)
	all = append(all, c.Sinks...)
	all = append(all, c.Internal...)
	return all
}

// CheckUniqueNames reports an IRInvariant error if any two operators in
// the circuit share an output binding name.
func (c *Circuit) CheckUniqueNames() error {
	seen := make(map[string]struct{})
	for _, op := range c.AllOperators() {
		if _, ok := seen[op.Name]; ok {
			return dbspexc.NewIRInvariant("duplicate operator output name %q", op.Name)
		}
		seen[op.Name] = struct{}{}
	}
	return nil
}
