package op

import (
	"testing"

	"github.com/ariyn/dbsp/internal/dbsp/dbspexc"
	"github.com/ariyn/dbsp/internal/dbsp/ir"
)

func TestAddOperatorRoutesByKind(t *testing.T) {
	gen := ir.NewIDGen()
	c := NewCircuit("v")
	src := NewSource(gen, ir.NoOrigin(), tupleZSet(), "t")
	c.AddOperator(src)
	dist := NewDistinct(gen, ir.NoOrigin(), src)
	c.AddOperator(dist)
	sink := NewSink(gen, ir.NoOrigin(), dist, dist.Type, "v")
	c.AddOperator(sink)

	if len(c.Sources) != 1 || c.Sources[0] != src {
		t.Fatalf("expected source routed to Sources")
	}
	if len(c.Sinks) != 1 || c.Sinks[0] != sink {
		t.Fatalf("expected sink routed to Sinks")
	}
	if len(c.Internal) != 1 || c.Internal[0] != dist {
		t.Fatalf("expected distinct routed to Internal")
	}
}

func TestRegisterNodeRejectsDuplicateKey(t *testing.T) {
	gen := ir.NewIDGen()
	c := NewCircuit("v")
	src := NewSource(gen, ir.NoOrigin(), tupleZSet(), "t")
	key := "node-1"
	if err := c.RegisterNode(key, src); err != nil {
		t.Fatalf("first RegisterNode: %v", err)
	}
	err := c.RegisterNode(key, src)
	if !dbspexc.IsIRInvariant(err) {
		t.Fatalf("expected IRInvariant on duplicate key, got %v", err)
	}
}

func TestOperatorForNodeMissing(t *testing.T) {
	c := NewCircuit("v")
	_, err := c.OperatorForNode("missing")
	if !dbspexc.IsIRInvariant(err) {
		t.Fatalf("expected IRInvariant for missing node, got %v", err)
	}
}

func TestCheckUniqueNamesDetectsCollision(t *testing.T) {
	gen := ir.NewIDGen()
	c := NewCircuit("v")
	a := NewSource(gen, ir.NoOrigin(), tupleZSet(), "dup")
	b := NewSource(gen, ir.NoOrigin(), tupleZSet(), "dup")
	c.AddOperator(a)
	c.AddOperator(b)
	if err := c.CheckUniqueNames(); !dbspexc.IsIRInvariant(err) {
		t.Fatalf("expected IRInvariant for duplicate names, got %v", err)
	}
}

func TestAllOperatorsOrdering(t *testing.T) {
	gen := ir.NewIDGen()
	c := NewCircuit("v")
	src := NewSource(gen, ir.NoOrigin(), tupleZSet(), "t")
	c.AddOperator(src)
	dist := NewDistinct(gen, ir.NoOrigin(), src)
	c.AddOperator(dist)
	sink := NewSink(gen, ir.NoOrigin(), dist, dist.Type, "v")
	c.AddOperator(sink)

	all := c.AllOperators()
	if len(all) != 3 || all[0] != src || all[1] != sink || all[2] != dist {
		t.Fatalf("expected [source, sink, internal] ordering, got %+v", all)
	}
}
