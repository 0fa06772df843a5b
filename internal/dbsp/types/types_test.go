package types

import (
	"testing"

	"github.com/ariyn/dbsp/internal/dbsp/dbspexc"
)

func TestSetNullableIdempotent(t *testing.T) {
	cases := []Type{
		NewBool(false),
		NewSignedInt(32, true),
		NewFloat(false),
		NewDouble(true),
		NewString(false),
		NewTuple(NewBool(true), NewSignedInt(64, false)),
		NewStruct("point", Field{"x", NewFloat(false)}, Field{"y", NewFloat(false)}),
		NewStream(NewBool(false)),
		MakeZSet(NewTuple(NewBool(false))),
	}
	for _, tc := range cases {
		once := tc.SetNullable(true)
		twice := once.SetNullable(true)
		if !Same(once, twice) {
			t.Errorf("SetNullable(true) not idempotent for %v: %v vs %v", tc.Kind, once, twice)
		}
	}
}

func TestSetNullableBaseTypesFlip(t *testing.T) {
	b := NewBool(false)
	if !b.SetNullable(true).Nullable {
		t.Fatalf("expected nullable bit set")
	}
	if b.SetNullable(true).SetNullable(false).Nullable {
		t.Fatalf("expected nullable bit cleared")
	}
}

func TestSetNullableNoopOnCompositeKinds(t *testing.T) {
	tup := NewTuple(NewBool(false))
	if !Same(tup, tup.SetNullable(true)) {
		t.Fatalf("Tuple must never become nullable")
	}
	st := NewStruct("s", Field{"a", NewBool(false)})
	if !Same(st, st.SetNullable(true)) {
		t.Fatalf("Struct must never become nullable")
	}
	strm := NewStream(NewBool(false))
	if !Same(strm, strm.SetNullable(true)) {
		t.Fatalf("Stream must never become nullable")
	}
	zs := MakeZSet(NewBool(false))
	if !Same(zs, zs.SetNullable(true)) {
		t.Fatalf("ZSet must never become nullable")
	}
}

func TestSameIgnoresNothingButStructure(t *testing.T) {
	a := NewTuple(NewBool(false), NewSignedInt(32, true))
	b := NewTuple(NewBool(false), NewSignedInt(32, true))
	if !Same(a, b) {
		t.Fatalf("expected structurally equal tuples to be Same")
	}
	c := NewTuple(NewBool(false), NewSignedInt(64, true))
	if Same(a, c) {
		t.Fatalf("expected tuples with different widths to differ")
	}
}

func TestMakeZSetDefaultsWeight(t *testing.T) {
	elem := NewTuple(NewBool(false))
	z := MakeZSet(elem)
	if z.Kind != ZSet {
		t.Fatalf("expected ZSet kind")
	}
	if !Same(z.KeyType(), elem) {
		t.Fatalf("expected key type to be the element type")
	}
	if !Same(z.WeightType(), Weight) {
		t.Fatalf("expected weight type to default to Weight")
	}
}

func TestConvertPrimitives(t *testing.T) {
	cases := []struct {
		name string
		in   SQLType
		want Type
	}{
		{"bool", SQLType{Kind: SQLBoolean, Nullable: true}, NewBool(true)},
		{"tinyint", SQLType{Kind: SQLTinyInt, Nullable: true}, NewSignedInt(8, true)},
		{"smallint", SQLType{Kind: SQLSmallInt, Nullable: true}, NewSignedInt(16, true)},
		{"integer", SQLType{Kind: SQLInteger, Nullable: false}, NewSignedInt(32, false)},
		{"bigint", SQLType{Kind: SQLBigInt, Nullable: true}, NewSignedInt(64, true)},
		{"decimal", SQLType{Kind: SQLDecimal, Nullable: true}, NewSignedInt(64, true)},
		{"float", SQLType{Kind: SQLFloat, Nullable: true}, NewFloat(true)},
		{"real", SQLType{Kind: SQLReal, Nullable: true}, NewFloat(true)},
		{"double", SQLType{Kind: SQLDouble, Nullable: true}, NewDouble(true)},
		{"char", SQLType{Kind: SQLChar, Nullable: true}, NewString(true)},
		{"varchar", SQLType{Kind: SQLVarchar, Nullable: false}, NewString(false)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(tc.in)
			if err != nil {
				t.Fatalf("Convert(%v): %v", tc.in, err)
			}
			if !Same(got, tc.want) {
				t.Fatalf("Convert(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestConvertStruct(t *testing.T) {
	in := SQLType{
		Kind: SQLStruct,
		Fields: []SQLField{
			{Name: "a", Type: SQLType{Kind: SQLInteger, Nullable: true}},
			{Name: "b", Type: SQLType{Kind: SQLVarchar, Nullable: false}},
		},
	}
	got, err := Convert(in)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := NewTuple(NewSignedInt(32, true), NewString(false))
	if !Same(got, want) {
		t.Fatalf("Convert(struct) = %v, want %v", got, want)
	}
	if got.Nullable {
		t.Fatalf("expected struct-derived Tuple to be non-nullable")
	}
}

func TestConvertUnimplementedKinds(t *testing.T) {
	kinds := []SQLKind{
		SQLBinary, SQLDate, SQLTime, SQLTimestamp, SQLInterval,
		SQLArray, SQLMap, SQLRow, SQLCursor, SQLGeometry, SQLSarg,
	}
	for _, k := range kinds {
		_, err := Convert(SQLType{Kind: k})
		if !dbspexc.IsUnimplemented(err) {
			t.Errorf("Convert(kind=%v) = %v, want Unimplemented", k, err)
		}
	}
}

func TestCheckStructDuplicateField(t *testing.T) {
	st := NewStruct("s", Field{"a", NewBool(false)}, Field{"a", NewBool(false)})
	if err := CheckStruct(st); err == nil {
		t.Fatalf("expected duplicate field name to be rejected")
	}
}
