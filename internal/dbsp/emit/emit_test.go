package emit

import (
	"strings"
	"testing"

	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/lower"
	"github.com/ariyn/dbsp/internal/dbsp/op"
	"github.com/ariyn/dbsp/internal/dbsp/types"
)

func tableT() lower.TableDecl {
	return lower.TableDecl{
		Name: "T",
		Columns: []lower.ColumnDecl{
			{Name: "COL1", SQLType: types.SQLType{Kind: types.SQLInteger, Nullable: true}},
			{Name: "COL2", SQLType: types.SQLType{Kind: types.SQLFloat, Nullable: true}},
			{Name: "COL3", SQLType: types.SQLType{Kind: types.SQLBoolean, Nullable: true}},
		},
	}
}

func TestCircuitSchemaOnlyEmitsSourceAndEmptyDriver(t *testing.T) {
	gen := ir.NewIDGen()
	c, err := lower.BuildCircuit(gen, "unit", []lower.TableDecl{tableT()}, nil)
	if err != nil {
		t.Fatalf("BuildCircuit: %v", err)
	}
	out, err := Circuit(c)
	if err != nil {
		t.Fatalf("Circuit: %v", err)
	}
	if !strings.Contains(out, "pub fn unit(") {
		t.Fatalf("expected generator function named after the circuit, got:\n%s", out)
	}
	if !strings.Contains(out, "add_source") {
		t.Fatalf("expected a Source binding, got:\n%s", out)
	}
	if strings.Contains(out, "inspect") {
		t.Fatalf("expected no Sink bindings with zero views, got:\n%s", out)
	}
}

func TestCircuitProjectEmitsMapKeysAndDistinct(t *testing.T) {
	gen := ir.NewIDGen()
	root := &lower.RelNode{
		Kind:         lower.RelProject,
		ProjectExprs: []ir.RelExpr{{Kind: ir.RelInputRef, InputRefIndex: 2}},
		Input:        &lower.RelNode{Kind: lower.RelTableScan, TableName: "T"},
	}
	c, err := lower.BuildCircuit(gen, "v2", []lower.TableDecl{tableT()}, []lower.ViewDecl{{Name: "V", Root: root}})
	if err != nil {
		t.Fatalf("BuildCircuit: %v", err)
	}
	out, err := Circuit(c)
	if err != nil {
		t.Fatalf("Circuit: %v", err)
	}
	if !strings.Contains(out, ".map_keys(move |t| t.2.clone())") {
		t.Fatalf("expected single-column projection to collapse to t.2, got:\n%s", out)
	}
	if !strings.Contains(out, ".distinct()") {
		t.Fatalf("expected a distinct() call after the projection, got:\n%s", out)
	}
	if !strings.Contains(out, "V_cell") {
		t.Fatalf("expected a sink cell named after the view, got:\n%s", out)
	}
}

func TestCircuitFilterEmitsClosureOverField(t *testing.T) {
	gen := ir.NewIDGen()
	root := &lower.RelNode{
		Kind:      lower.RelFilter,
		Predicate: ir.RelExpr{Kind: ir.RelInputRef, InputRefIndex: 2},
		Input:     &lower.RelNode{Kind: lower.RelTableScan, TableName: "T"},
	}
	c, err := lower.BuildCircuit(gen, "v", []lower.TableDecl{tableT()}, []lower.ViewDecl{{Name: "V", Root: root}})
	if err != nil {
		t.Fatalf("BuildCircuit: %v", err)
	}
	out, err := Circuit(c)
	if err != nil {
		t.Fatalf("Circuit: %v", err)
	}
	if !strings.Contains(out, ".filter_keys(move |t| t.2)") {
		t.Fatalf("expected filter_keys over field 2, got:\n%s", out)
	}
}

func TestCircuitUnionAllEmitsSumOverTrailingInputs(t *testing.T) {
	gen := ir.NewIDGen()
	root := &lower.RelNode{
		Kind: lower.RelUnion,
		All:  true,
		Inputs: []*lower.RelNode{
			{Kind: lower.RelTableScan, TableName: "T"},
			{Kind: lower.RelTableScan, TableName: "T"},
		},
	}
	c, err := lower.BuildCircuit(gen, "v", []lower.TableDecl{tableT()}, []lower.ViewDecl{{Name: "V", Root: root}})
	if err != nil {
		t.Fatalf("BuildCircuit: %v", err)
	}
	out, err := Circuit(c)
	if err != nil {
		t.Fatalf("Circuit: %v", err)
	}
	if !strings.Contains(out, ".sum(&[T])") {
		t.Fatalf("expected T.sum(&[T]) over the two shared-source branches, got:\n%s", out)
	}
}

func TestCircuitRejectsDuplicateOperatorNames(t *testing.T) {
	gen := ir.NewIDGen()
	c := op.NewCircuit("dup")
	src := op.NewSource(gen, ir.NoOrigin(), types.MakeZSet(types.NewSignedInt(32, false)), "same")
	sink := op.NewSink(gen, ir.NoOrigin(), src, src.Type, "same")
	c.AddOperator(src)
	c.AddOperator(sink)
	if _, err := Circuit(c); err == nil {
		t.Fatalf("expected duplicate-name error")
	}
}

func TestRenderTypeNullablePrimitivesWrapInOption(t *testing.T) {
	got := renderType(types.NewSignedInt(32, true))
	if got != "Option<i32>" {
		t.Fatalf("expected Option<i32>, got %s", got)
	}
	got = renderType(types.NewSignedInt(32, false))
	if got != "i32" {
		t.Fatalf("expected i32, got %s", got)
	}
}

func TestRenderTypeZSetShape(t *testing.T) {
	zt := types.MakeZSet(types.NewTuple(types.NewBool(false), types.NewSignedInt(64, true)))
	got := renderType(zt)
	if !strings.HasPrefix(got, "ZSetHashMap<(bool, Option<i64>), ") {
		t.Fatalf("unexpected ZSet rendering: %s", got)
	}
}

func TestRenderTypeArityOneTupleCollapses(t *testing.T) {
	got := renderType(types.NewTuple(types.NewBool(true)))
	if got != "Option<bool>" {
		t.Fatalf("expected arity-1 tuple to collapse to its sole element, got %s", got)
	}
}

func TestSanitizeIdentReplacesNonAlnum(t *testing.T) {
	if got := sanitizeIdent("My View-1"); got != "my_view_1" {
		t.Fatalf("unexpected sanitized identifier: %s", got)
	}
	if got := sanitizeIdent(""); got != "circuit" {
		t.Fatalf("expected fallback name for empty input, got %s", got)
	}
}
