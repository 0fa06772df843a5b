package lower

import (
	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/op"
	"github.com/ariyn/dbsp/internal/dbsp/types"
)

// ColumnDecl is one table column's name and SQL type, as declared by a
// validated CREATE TABLE descriptor.
type ColumnDecl struct {
	Name    string
	SQLType types.SQLType
}

// TableDecl is a validated CREATE TABLE descriptor: a name and its
// ordered column declarations.
type TableDecl struct {
	Name    string
	Columns []ColumnDecl
}

// ViewDecl is a validated CREATE VIEW descriptor: a name and the
// relational tree rooted at Root.
type ViewDecl struct {
	Name string
	Root *RelNode
}

// BuildCircuit assembles a Circuit from a set of table and view
// declarations, in the order §4.4 and §5 require: one Source per table
// (registered in declaration order), then one Sink per view (also in
// declaration order), each preceded by lowering that view's relational
// tree. A later view may reference an earlier view's Sink as a
// TableScan source, since both tables and prior views share the same
// endpoint-name registry.
func BuildCircuit(gen *ir.IDGen, circuitName string, tables []TableDecl, views []ViewDecl) (*op.Circuit, error) {
	c := op.NewCircuit(circuitName)

	for _, tbl := range tables {
		cols := make([]types.Type, len(tbl.Columns))
		for i, col := range tbl.Columns {
			ct, err := types.Convert(col.SQLType)
			if err != nil {
				return nil, err
			}
			cols[i] = ct
		}
		zsetType := types.MakeZSet(types.NewTuple(cols...))
		src := op.NewSource(gen, ir.NewOrigin(tbl), zsetType, tbl.Name)
		c.AddOperator(src)
		if err := c.RegisterEndpoint(tbl.Name, src); err != nil {
			return nil, err
		}
	}

	for _, view := range views {
		visitor := NewVisitor(c, gen)
		rootOp, err := visitor.Lower(view.Root)
		if err != nil {
			return nil, err
		}
		sink := op.NewSink(gen, ir.NewOrigin(view), rootOp, rootOp.Type, view.Name)
		c.AddOperator(sink)
		if err := c.RegisterEndpoint(view.Name, sink); err != nil {
			return nil, err
		}
	}

	if err := c.CheckUniqueNames(); err != nil {
		return nil, err
	}
	return c, nil
}
