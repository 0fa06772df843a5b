// Package sqlconv implements the DDL catalog: the compilation unit that
// accumulates CREATE TABLE and CREATE VIEW AS SELECT statements and
// assembles them, in declaration order, into a Circuit.
package sqlconv

import (
	"strings"

	"github.com/ariyn/dbsp/internal/dbsp/dbspexc"
	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/lower"
	"github.com/ariyn/dbsp/internal/dbsp/op"
	"github.com/ariyn/dbsp/internal/dbsp/types"
	"github.com/xwb1989/sqlparser"
)

// Program is the fully-compiled catalog contents: every declared table
// and view, in declaration order, ready to be assembled into a Circuit.
type Program struct {
	Tables []lower.TableDecl
	Views  []lower.ViewDecl
}

// Catalog accumulates DDL statements one at a time. It is not safe for
// concurrent use; a caller compiling several units concurrently should
// use one Catalog per unit, matching one compilation-unit-per-goroutine.
type Catalog struct {
	tables      map[string]lower.TableDecl
	tableOrder  []string
	views       map[string]lower.ViewDecl
	viewOrder   []string
	viewColumns map[string][]string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables:      make(map[string]lower.TableDecl),
		views:       make(map[string]lower.ViewDecl),
		viewColumns: make(map[string][]string),
	}
}

// Compile accepts one DDL statement — CREATE TABLE or CREATE VIEW ... AS
// SELECT — and records it. Anything else, including a bare SELECT or DML
// statement submitted at the top level, is rejected: this catalog only
// ever compiles schema, never runs a query.
func (c *Catalog) Compile(stmt string) error {
	trimmed := strings.TrimSpace(stmt)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "CREATE VIEW"):
		return c.compileCreateView(trimmed)
	case strings.HasPrefix(upper, "CREATE TABLE"):
		return c.compileCreateTable(trimmed)
	default:
		return dbspexc.NewUnsupportedConstruct("non-DDL statement at top level", stmt)
	}
}

// GetProgram returns every table and view compiled so far, in declaration
// order.
func (c *Catalog) GetProgram() Program {
	tables := make([]lower.TableDecl, len(c.tableOrder))
	for i, name := range c.tableOrder {
		tables[i] = c.tables[name]
	}
	views := make([]lower.ViewDecl, len(c.viewOrder))
	for i, name := range c.viewOrder {
		views[i] = c.views[name]
	}
	return Program{Tables: tables, Views: views}
}

// BuildCircuit assembles every table and view compiled so far into a
// Circuit named circuitName.
func (c *Catalog) BuildCircuit(gen *ir.IDGen, circuitName string) (*op.Circuit, error) {
	prog := c.GetProgram()
	return lower.BuildCircuit(gen, circuitName, prog.Tables, prog.Views)
}

func (c *Catalog) compileCreateTable(stmt string) error {
	parsed, err := sqlparser.Parse(stmt)
	if err != nil {
		return dbspexc.NewUnsupportedConstruct("malformed CREATE TABLE", stmt)
	}
	ddl, ok := parsed.(*sqlparser.DDL)
	if !ok || ddl.Action != sqlparser.CreateStr || ddl.TableSpec == nil {
		return dbspexc.NewUnsupportedConstruct("CREATE TABLE shape", stmt)
	}

	name := ddl.NewName.Name.String()
	if _, exists := c.tables[name]; exists {
		return dbspexc.NewIRInvariant("table %q already declared", name)
	}

	cols := make([]lower.ColumnDecl, len(ddl.TableSpec.Columns))
	colNames := make([]string, len(ddl.TableSpec.Columns))
	for i, col := range ddl.TableSpec.Columns {
		sqlType, err := columnTypeToSQL(col.Type)
		if err != nil {
			return err
		}
		cols[i] = lower.ColumnDecl{Name: col.Name.String(), SQLType: sqlType}
		colNames[i] = col.Name.String()
	}

	c.tables[name] = lower.TableDecl{Name: name, Columns: cols}
	c.tableOrder = append(c.tableOrder, name)
	c.viewColumns[name] = colNames
	return nil
}

func (c *Catalog) compileCreateView(stmt string) error {
	name, selectText, err := splitCreateViewAsSelect(stmt)
	if err != nil {
		return err
	}
	if _, exists := c.views[name]; exists {
		return dbspexc.NewIRInvariant("view %q already declared", name)
	}

	root, err := c.parseQueryText(selectText)
	if err != nil {
		return err
	}
	outCols, err := c.outputColumnsOfText(selectText)
	if err != nil {
		return err
	}

	c.views[name] = lower.ViewDecl{Name: name, Root: root}
	c.viewOrder = append(c.viewOrder, name)
	c.viewColumns[name] = outCols
	return nil
}

// columnNames resolves the ordered column names of a previously declared
// table or view.
func (c *Catalog) columnNames(name string) ([]string, error) {
	cols, ok := c.viewColumns[lastComponent(name)]
	if !ok {
		return nil, dbspexc.NewIRInvariant("no table or view named %q", name)
	}
	return cols, nil
}

// ColumnNames is the exported form of columnNames, for callers outside
// this package that need a view's resolved output column names (e.g. a
// schema-dump tool) without re-deriving them from the view's query text.
func (c *Catalog) ColumnNames(name string) ([]string, error) {
	return c.columnNames(name)
}

func lastComponent(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// columnTypeToSQL translates a parsed column type descriptor into the
// catalog's own SQLType. Anything outside the primitive set spec.md
// names raises Unimplemented, matching the type compiler's own
// treatment of unsupported SQL types.
func columnTypeToSQL(ct sqlparser.ColumnType) (types.SQLType, error) {
	nullable := !bool(ct.NotNull)
	switch strings.ToLower(ct.Type) {
	case "boolean", "bool":
		return types.SQLType{Kind: types.SQLBoolean, Nullable: nullable}, nil
	case "tinyint":
		return types.SQLType{Kind: types.SQLTinyInt, Nullable: nullable}, nil
	case "smallint":
		return types.SQLType{Kind: types.SQLSmallInt, Nullable: nullable}, nil
	case "int", "integer":
		return types.SQLType{Kind: types.SQLInteger, Nullable: nullable}, nil
	case "bigint":
		return types.SQLType{Kind: types.SQLBigInt, Nullable: nullable}, nil
	case "decimal", "numeric":
		return types.SQLType{Kind: types.SQLDecimal, Nullable: nullable}, nil
	case "float":
		return types.SQLType{Kind: types.SQLFloat, Nullable: nullable}, nil
	case "real":
		return types.SQLType{Kind: types.SQLReal, Nullable: nullable}, nil
	case "double":
		return types.SQLType{Kind: types.SQLDouble, Nullable: nullable}, nil
	case "char":
		return types.SQLType{Kind: types.SQLChar, Nullable: nullable}, nil
	case "varchar", "text":
		return types.SQLType{Kind: types.SQLVarchar, Nullable: nullable}, nil
	default:
		return types.SQLType{}, dbspexc.NewUnimplemented("sql column type "+ct.Type, ct)
	}
}

// splitCreateViewAsSelect extracts the view name and query text from
// "CREATE VIEW <name> AS <select>". xwb1989/sqlparser's DDL grammar does
// not carry a view's body, so this pre-processing step, not the parser
// library, is what recovers it — the same trick this catalog uses for
// EXCEPT in parser.go and that the original SQL front end used for window
// functions its parser could not shape either.
func splitCreateViewAsSelect(stmt string) (name, selectText string, err error) {
	afterView := strings.TrimSpace(stmt[len("CREATE VIEW"):])
	upperAfterView := strings.ToUpper(afterView)

	asIdx := strings.Index(upperAfterView, " AS ")
	if asIdx < 0 {
		return "", "", dbspexc.NewUnsupportedConstruct("CREATE VIEW without AS", stmt)
	}
	name = strings.TrimSpace(afterView[:asIdx])
	selectText = strings.TrimSpace(afterView[asIdx+len(" AS "):])
	if selectText == "" {
		return "", "", dbspexc.NewUnsupportedConstruct("CREATE VIEW with empty body", stmt)
	}
	return name, selectText, nil
}
