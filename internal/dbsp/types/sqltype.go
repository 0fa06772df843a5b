package types

import "github.com/ariyn/dbsp/internal/dbsp/dbspexc"

// SQLKind tags the variant of a SQLType: the subset of SQL column types
// the DDL catalog hands the type compiler, standing in for the front
// end's own type descriptor.
type SQLKind int

const (
	SQLBoolean SQLKind = iota
	SQLTinyInt
	SQLSmallInt
	SQLInteger
	SQLBigInt
	SQLDecimal
	SQLFloat
	SQLReal
	SQLDouble
	SQLChar
	SQLVarchar
	SQLStruct

	// The following are recognized but never lowered; convert always
	// raises Unimplemented for them.
	SQLBinary
	SQLDate
	SQLTime
	SQLTimestamp
	SQLInterval
	SQLArray
	SQLMap
	SQLRow
	SQLCursor
	SQLGeometry
	SQLSarg
)

// SQLField names a struct-typed column's member, mirroring Field in the
// dataflow lattice (types.go).
type SQLField struct {
	Name string
	Type SQLType
}

// SQLType is the column-type descriptor a table or struct-typed column
// declaration carries: a kind tag, a nullability bit, and (for SQLStruct)
// an ordered list of named fields, each with its own SQLType.
type SQLType struct {
	Kind     SQLKind
	Nullable bool
	Fields   []SQLField
}

// Convert is the pure function from a SQL type descriptor to a dataflow
// Type. A struct SQL type lowers to a non-nullable Tuple whose elements
// are the recursively converted field types; every other SQL type beyond
// the primitives listed in the table raises Unimplemented.
func Convert(t SQLType) (Type, error) {
	switch t.Kind {
	case SQLBoolean:
		return NewBool(t.Nullable), nil
	case SQLTinyInt:
		return NewSignedInt(8, t.Nullable), nil
	case SQLSmallInt:
		return NewSignedInt(16, t.Nullable), nil
	case SQLInteger:
		return NewSignedInt(32, t.Nullable), nil
	case SQLBigInt:
		return NewSignedInt(64, t.Nullable), nil
	case SQLDecimal:
		// DECIMAL discards scale and maps to a 64-bit signed integer; see
		// the design notes on this being a faithfully-preserved source
		// limitation, not a bug introduced here.
		return NewSignedInt(64, t.Nullable), nil
	case SQLFloat, SQLReal:
		return NewFloat(t.Nullable), nil
	case SQLDouble:
		return NewDouble(t.Nullable), nil
	case SQLChar, SQLVarchar:
		return NewString(t.Nullable), nil
	case SQLStruct:
		elements := make([]Type, len(t.Fields))
		for i, f := range t.Fields {
			et, err := Convert(f.Type)
			if err != nil {
				return Type{}, err
			}
			elements[i] = et
		}
		return NewTuple(elements...), nil
	default:
		return Type{}, dbspexc.NewUnimplemented("sql type "+sqlKindName(t.Kind), t)
	}
}

// String returns the SQL keyword spelling of k, e.g. "INTEGER" or
// "VARCHAR".
func (k SQLKind) String() string {
	return sqlKindName(k)
}

func sqlKindName(k SQLKind) string {
	switch k {
	case SQLBoolean:
		return "BOOLEAN"
	case SQLTinyInt:
		return "TINYINT"
	case SQLSmallInt:
		return "SMALLINT"
	case SQLInteger:
		return "INTEGER"
	case SQLBigInt:
		return "BIGINT"
	case SQLDecimal:
		return "DECIMAL"
	case SQLFloat:
		return "FLOAT"
	case SQLReal:
		return "REAL"
	case SQLDouble:
		return "DOUBLE"
	case SQLChar:
		return "CHAR"
	case SQLVarchar:
		return "VARCHAR"
	case SQLStruct:
		return "ROW"
	case SQLBinary:
		return "BINARY"
	case SQLDate:
		return "DATE"
	case SQLTime:
		return "TIME"
	case SQLTimestamp:
		return "TIMESTAMP"
	case SQLInterval:
		return "INTERVAL"
	case SQLArray:
		return "ARRAY"
	case SQLMap:
		return "MAP"
	case SQLRow:
		return "ROW"
	case SQLCursor:
		return "CURSOR"
	case SQLGeometry:
		return "GEOMETRY"
	case SQLSarg:
		return "SARG"
	default:
		return "UNKNOWN"
	}
}
