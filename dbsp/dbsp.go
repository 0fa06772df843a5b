// Package dbsp is the top-level facade over the SQL-to-circuit compiler:
// one Compiler per compilation unit, accepting DDL statements one at a
// time and producing the emitted circuit text on demand.
package dbsp

import (
	"github.com/ariyn/dbsp/internal/dbsp/emit"
	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/op"
	"github.com/ariyn/dbsp/internal/dbsp/sql"
)

// CalciteProgram is every table and view a Compiler has accepted so far,
// in declaration order — the shape getProgram() returns per the external
// interface.
type CalciteProgram = sqlconv.Program

// Compiler accumulates DDL statements for one compilation unit and
// assembles them into a Circuit on request. It is not safe for
// concurrent use.
type Compiler struct {
	catalog *sqlconv.Catalog
	gen     *ir.IDGen
}

// NewCompiler returns an empty compilation unit.
func NewCompiler() *Compiler {
	return &Compiler{
		catalog: sqlconv.NewCatalog(),
		gen:     ir.NewIDGen(),
	}
}

// Compile accepts one DDL statement — CREATE TABLE or CREATE VIEW ... AS
// SELECT. DDL statements update the catalog; a CREATE VIEW additionally
// builds and registers its relational plan. Anything else is rejected.
func (c *Compiler) Compile(stmt string) error {
	return c.catalog.Compile(stmt)
}

// GetProgram returns every table and view compiled so far, in
// declaration order.
func (c *Compiler) GetProgram() CalciteProgram {
	return c.catalog.GetProgram()
}

// BuildCircuit assembles every table and view compiled so far into a
// named Circuit, ready for Emit.
func (c *Compiler) BuildCircuit(circuitName string) (*op.Circuit, error) {
	return c.catalog.BuildCircuit(c.gen, circuitName)
}

// Emit compiles the current program into a Circuit named circuitName and
// renders it to host source text in one call.
func (c *Compiler) Emit(circuitName string) (string, error) {
	circuit, err := c.BuildCircuit(circuitName)
	if err != nil {
		return "", err
	}
	return emit.Circuit(circuit)
}
