package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"

	"github.com/ariyn/dbsp/internal/dbsp/sql"
)

// dumpSchema writes every table and view column the catalog has compiled
// so far to a parquet file at path, one row per column, so a downstream
// consumer can inspect a compiled circuit's shape without re-parsing SQL.
// Column type information is only available for tables, whose SQLType is
// recorded directly by the catalog; a view's rows carry an empty
// column_type, since recovering it would mean re-running the type
// compiler outside of circuit assembly.
func dumpSchema(catalog *sqlconv.Catalog, path string) error {
	prog := catalog.GetProgram()

	entityType := make([]string, 0, 64)
	entityName := make([]string, 0, 64)
	columnName := make([]string, 0, 64)
	columnType := make([]string, 0, 64)
	nullable := make([]bool, 0, 64)
	ordinal := make([]int32, 0, 64)

	for _, tbl := range prog.Tables {
		for i, col := range tbl.Columns {
			entityType = append(entityType, "table")
			entityName = append(entityName, tbl.Name)
			columnName = append(columnName, col.Name)
			columnType = append(columnType, col.SQLType.Kind.String())
			nullable = append(nullable, col.SQLType.Nullable)
			ordinal = append(ordinal, int32(i))
		}
	}
	for _, view := range prog.Views {
		cols, err := catalog.ColumnNames(view.Name)
		if err != nil {
			return err
		}
		for i, name := range cols {
			entityType = append(entityType, "view")
			entityName = append(entityName, view.Name)
			columnName = append(columnName, name)
			columnType = append(columnType, "")
			nullable = append(nullable, true)
			ordinal = append(ordinal, int32(i))
		}
	}

	return writeSchemaParquet(path, entityType, entityName, columnName, columnType, nullable, ordinal)
}

func writeSchemaParquet(path string, entityType, entityName, columnName, columnType []string, nullable []bool, ordinal []int32) error {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "entity_type", Type: arrow.BinaryTypes.String},
		{Name: "entity_name", Type: arrow.BinaryTypes.String},
		{Name: "column_name", Type: arrow.BinaryTypes.String},
		{Name: "column_type", Type: arrow.BinaryTypes.String},
		{Name: "nullable", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "ordinal", Type: arrow.PrimitiveTypes.Int32},
	}, nil)

	mem := memory.NewGoAllocator()
	entityTypeB := array.NewStringBuilder(mem)
	entityNameB := array.NewStringBuilder(mem)
	columnNameB := array.NewStringBuilder(mem)
	columnTypeB := array.NewStringBuilder(mem)
	nullableB := array.NewBooleanBuilder(mem)
	ordinalB := array.NewInt32Builder(mem)

	for i := range entityType {
		entityTypeB.Append(entityType[i])
		entityNameB.Append(entityName[i])
		columnNameB.Append(columnName[i])
		columnTypeB.Append(columnType[i])
		nullableB.Append(nullable[i])
		ordinalB.Append(ordinal[i])
	}

	cols := []arrow.Array{
		entityTypeB.NewArray(),
		entityNameB.NewArray(),
		columnNameB.NewArray(),
		columnTypeB.NewArray(),
		nullableB.NewArray(),
		ordinalB.NewArray(),
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	rec := array.NewRecord(schema, cols, int64(len(entityType)))
	defer rec.Release()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mkdir schema dump dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open schema dump file %s: %w", path, err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Zstd))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	w, err := pqarrow.NewFileWriter(schema, f, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return fmt.Errorf("write schema record: %w", err)
	}
	return w.Close()
}
