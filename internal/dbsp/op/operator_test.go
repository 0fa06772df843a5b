package op

import (
	"testing"

	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/types"
)

func tupleZSet() types.Type {
	return types.MakeZSet(types.NewTuple(types.NewSignedInt(32, true), types.NewBool(true)))
}

func TestNewSourceAllocatesFreshName(t *testing.T) {
	gen := ir.NewIDGen()
	s1 := NewSource(gen, ir.NoOrigin(), tupleZSet(), "")
	s2 := NewSource(gen, ir.NoOrigin(), tupleZSet(), "")
	if s1.Name == "" || s2.Name == "" {
		t.Fatalf("expected non-empty generated names")
	}
	if s1.Name == s2.Name {
		t.Fatalf("expected distinct generated names, got %q twice", s1.Name)
	}
}

func TestNewSourceExplicitName(t *testing.T) {
	gen := ir.NewIDGen()
	s := NewSource(gen, ir.NoOrigin(), tupleZSet(), "orders")
	if s.Name != "orders" {
		t.Fatalf("expected explicit name to be kept, got %q", s.Name)
	}
}

func TestAddInputOrderSignificant(t *testing.T) {
	gen := ir.NewIDGen()
	a := NewSource(gen, ir.NoOrigin(), tupleZSet(), "a")
	b := NewSource(gen, ir.NoOrigin(), tupleZSet(), "b")
	sum := NewSum(gen, ir.NoOrigin(), []*Operator{a})
	sum.AddInput(b)
	if len(sum.Inputs) != 2 || sum.Inputs[0] != a || sum.Inputs[1] != b {
		t.Fatalf("expected inputs in order [a, b], got %+v", sum.Inputs)
	}
}

func TestKindRenderingNames(t *testing.T) {
	cases := map[Kind]string{
		KindSource:     "source",
		KindSink:       "inspect",
		KindRelProject: "map_keys",
		KindFilter:     "filter_keys",
		KindSum:        "sum",
		KindNegate:     "neg",
		KindDistinct:   "distinct",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestFilterPreservesInputType(t *testing.T) {
	gen := ir.NewIDGen()
	src := NewSource(gen, ir.NoOrigin(), tupleZSet(), "t")
	f := NewFilter(gen, ir.NoOrigin(), src, nil)
	if !types.Same(f.Type, src.Type) {
		t.Fatalf("expected Filter to preserve input type")
	}
}

func TestSinkHasSingleInput(t *testing.T) {
	gen := ir.NewIDGen()
	src := NewSource(gen, ir.NoOrigin(), tupleZSet(), "t")
	sink := NewSink(gen, ir.NoOrigin(), src, src.Type, "v")
	if len(sink.Inputs) != 1 || sink.Inputs[0] != src {
		t.Fatalf("expected sink to wrap exactly its source input")
	}
}
