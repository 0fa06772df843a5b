package sqlconv

import (
	"strconv"
	"strings"

	"github.com/ariyn/dbsp/internal/dbsp/dbspexc"
	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/lower"
	"github.com/ariyn/dbsp/internal/dbsp/types"
	"github.com/xwb1989/sqlparser"
)

// parseQueryText lowers one query's text into a RelNode tree. EXCEPT
// (and its MINUS synonym) is handled by this function directly, via a
// parenthesis-aware top-level split, before the text ever reaches
// sqlparser.Parse: xwb1989/sqlparser's grammar is MySQL's, which has no
// EXCEPT, the same gap the original front end's LAG/OVER handling
// worked around by string matching instead of fighting the grammar.
func (c *Catalog) parseQueryText(text string) (*lower.RelNode, error) {
	if left, right, all, ok := splitTopLevelExcept(text); ok {
		leftNode, err := c.parseQueryText(left)
		if err != nil {
			return nil, err
		}
		rightNode, err := c.parseQueryText(right)
		if err != nil {
			return nil, err
		}
		return &lower.RelNode{
			Kind:   lower.RelMinus,
			All:    all,
			Inputs: []*lower.RelNode{leftNode, rightNode},
		}, nil
	}

	parsed, err := sqlparser.Parse(text)
	if err != nil {
		return nil, dbspexc.NewUnsupportedConstruct("malformed query", text)
	}
	selStmt, ok := parsed.(sqlparser.SelectStatement)
	if !ok {
		return nil, dbspexc.NewUnimplemented("top-level statement shape", parsed)
	}
	return c.parseSelectStatement(selStmt)
}

// parseSelectStatement lowers an already-parsed SELECT/UNION AST node.
func (c *Catalog) parseSelectStatement(stmt sqlparser.SelectStatement) (*lower.RelNode, error) {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		return c.parseSelect(s)
	case *sqlparser.Union:
		return c.parseUnion(s)
	case *sqlparser.ParenSelect:
		return c.parseSelectStatement(s.Select)
	default:
		return nil, dbspexc.NewUnimplemented("top-level select shape", stmt)
	}
}

func (c *Catalog) parseUnion(u *sqlparser.Union) (*lower.RelNode, error) {
	if len(u.OrderBy) > 0 {
		return nil, dbspexc.NewUnsupportedConstruct("ORDER BY", u)
	}
	left, err := c.parseSelectStatement(u.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.parseSelectStatement(u.Right)
	if err != nil {
		return nil, err
	}
	all := u.Type == sqlparser.UnionAllStr
	return &lower.RelNode{Kind: lower.RelUnion, All: all, Inputs: []*lower.RelNode{left, right}}, nil
}

func (c *Catalog) parseSelect(sel *sqlparser.Select) (*lower.RelNode, error) {
	if len(sel.OrderBy) > 0 {
		return nil, dbspexc.NewUnsupportedConstruct("ORDER BY", sel)
	}
	if len(sel.GroupBy) > 0 {
		return nil, dbspexc.NewUnimplemented("GROUP BY", sel)
	}
	if len(sel.From) != 1 {
		return nil, dbspexc.NewUnimplemented("multi-table FROM", sel)
	}

	tableName, err := tableNameFromExpr(sel.From[0])
	if err != nil {
		return nil, err
	}
	cols, err := c.columnNames(tableName)
	if err != nil {
		return nil, err
	}

	node := &lower.RelNode{Kind: lower.RelTableScan, TableName: tableName}

	if sel.Where != nil {
		pred, err := exprToRelExpr(sel.Where.Expr, cols)
		if err != nil {
			return nil, err
		}
		node = &lower.RelNode{Kind: lower.RelFilter, Predicate: pred, Input: node}
	}

	if !isStarSelect(sel.SelectExprs) {
		exprs := make([]ir.RelExpr, len(sel.SelectExprs))
		for i, se := range sel.SelectExprs {
			ae, ok := se.(*sqlparser.AliasedExpr)
			if !ok {
				return nil, dbspexc.NewUnimplemented("non-column select item", se)
			}
			e, err := exprToRelExpr(ae.Expr, cols)
			if err != nil {
				return nil, err
			}
			exprs[i] = e
		}
		node = &lower.RelNode{Kind: lower.RelProject, ProjectExprs: exprs, Input: node}
	}

	return node, nil
}

// outputColumnsOfText computes the declared output column names of a
// query's text, mirroring parseQueryText's own EXCEPT-aware structure: an
// EXCEPT/MINUS or UNION's output columns are its left branch's.
func (c *Catalog) outputColumnsOfText(text string) ([]string, error) {
	if left, _, _, ok := splitTopLevelExcept(text); ok {
		return c.outputColumnsOfText(left)
	}
	parsed, err := sqlparser.Parse(text)
	if err != nil {
		return nil, dbspexc.NewUnsupportedConstruct("malformed query", text)
	}
	selStmt, ok := parsed.(sqlparser.SelectStatement)
	if !ok {
		return nil, dbspexc.NewUnimplemented("top-level statement shape", parsed)
	}
	return c.selectOutputColumns(selStmt)
}

func (c *Catalog) selectOutputColumns(stmt sqlparser.SelectStatement) ([]string, error) {
	switch s := stmt.(type) {
	case *sqlparser.Union:
		return c.selectOutputColumns(s.Left)
	case *sqlparser.ParenSelect:
		return c.selectOutputColumns(s.Select)
	case *sqlparser.Select:
		if len(s.From) != 1 {
			return nil, dbspexc.NewUnimplemented("multi-table FROM", s)
		}
		tableName, err := tableNameFromExpr(s.From[0])
		if err != nil {
			return nil, err
		}
		baseCols, err := c.columnNames(tableName)
		if err != nil {
			return nil, err
		}
		if isStarSelect(s.SelectExprs) {
			return baseCols, nil
		}
		out := make([]string, len(s.SelectExprs))
		for i, se := range s.SelectExprs {
			ae, ok := se.(*sqlparser.AliasedExpr)
			if !ok {
				return nil, dbspexc.NewUnimplemented("non-column select item", se)
			}
			if !ae.As.IsEmpty() {
				out[i] = ae.As.String()
				continue
			}
			col, ok := ae.Expr.(*sqlparser.ColName)
			if !ok {
				return nil, dbspexc.NewUnimplemented("unaliased computed select item", se)
			}
			out[i] = col.Name.String()
		}
		return out, nil
	default:
		return nil, dbspexc.NewUnimplemented("top-level select shape", stmt)
	}
}

func tableNameFromExpr(te sqlparser.TableExpr) (string, error) {
	aliased, ok := te.(*sqlparser.AliasedTableExpr)
	if !ok {
		return "", dbspexc.NewUnimplemented("non-aliased table expression", te)
	}
	tn, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return "", dbspexc.NewUnimplemented("subquery in FROM", aliased.Expr)
	}
	return tn.Name.String(), nil
}

func isStarSelect(exprs sqlparser.SelectExprs) bool {
	if len(exprs) != 1 {
		return false
	}
	_, ok := exprs[0].(*sqlparser.StarExpr)
	return ok
}

// exprToRelExpr translates a parsed scalar SQL expression into the
// lowering visitor's RelExpr input shape, resolving column references
// against cols (the current row's in-scope column names, by position).
func exprToRelExpr(expr sqlparser.Expr, cols []string) (ir.RelExpr, error) {
	switch e := expr.(type) {
	case *sqlparser.ColName:
		idx, err := columnIndex(cols, e.Name.String())
		if err != nil {
			return ir.RelExpr{}, err
		}
		return ir.RelExpr{Kind: ir.RelInputRef, InputRefIndex: idx, Origin: e}, nil

	case *sqlparser.SQLVal:
		return sqlValToRelExpr(e)

	case *sqlparser.ParenExpr:
		return exprToRelExpr(e.Expr, cols)

	case *sqlparser.AndExpr:
		return binaryRelExpr(ir.CallAnd, e.Left, e.Right, cols, e)
	case *sqlparser.OrExpr:
		return binaryRelExpr(ir.CallOr, e.Left, e.Right, cols, e)
	case *sqlparser.NotExpr:
		return unaryRelExpr(ir.CallNot, e.Expr, cols, e)

	case *sqlparser.ComparisonExpr:
		kind, err := comparisonCallKind(e.Operator)
		if err != nil {
			return ir.RelExpr{}, err
		}
		return binaryRelExpr(kind, e.Left, e.Right, cols, e)

	case *sqlparser.BinaryExpr:
		kind, err := binaryCallKind(e.Operator)
		if err != nil {
			return ir.RelExpr{}, err
		}
		return binaryRelExpr(kind, e.Left, e.Right, cols, e)

	case *sqlparser.UnaryExpr:
		switch e.Operator {
		case sqlparser.UPlusStr:
			return unaryRelExpr(ir.CallUnaryPlus, e.Expr, cols, e)
		case sqlparser.UMinusStr:
			return unaryRelExpr(ir.CallUnaryNeg, e.Expr, cols, e)
		default:
			return ir.RelExpr{}, dbspexc.NewUnimplemented("unary operator "+e.Operator, e)
		}

	default:
		return ir.RelExpr{}, dbspexc.NewUnimplemented("expression shape", expr)
	}
}

func binaryRelExpr(kind ir.CallKind, left, right sqlparser.Expr, cols []string, origin any) (ir.RelExpr, error) {
	l, err := exprToRelExpr(left, cols)
	if err != nil {
		return ir.RelExpr{}, err
	}
	r, err := exprToRelExpr(right, cols)
	if err != nil {
		return ir.RelExpr{}, err
	}
	return ir.RelExpr{Kind: ir.RelCall, CallKind: kind, Operands: []ir.RelExpr{l, r}, Origin: origin}, nil
}

func unaryRelExpr(kind ir.CallKind, operand sqlparser.Expr, cols []string, origin any) (ir.RelExpr, error) {
	o, err := exprToRelExpr(operand, cols)
	if err != nil {
		return ir.RelExpr{}, err
	}
	return ir.RelExpr{Kind: ir.RelCall, CallKind: kind, Operands: []ir.RelExpr{o}, Origin: origin}, nil
}

func comparisonCallKind(op string) (ir.CallKind, error) {
	switch op {
	case sqlparser.EqualStr:
		return ir.CallEq, nil
	case sqlparser.LessThanStr:
		return ir.CallLt, nil
	case sqlparser.GreaterThanStr:
		return ir.CallGt, nil
	case sqlparser.LessEqualStr:
		return ir.CallLe, nil
	case sqlparser.GreaterEqualStr:
		return ir.CallGe, nil
	case sqlparser.NotEqualStr:
		return ir.CallNe, nil
	default:
		return "", dbspexc.NewUnimplemented("comparison operator "+op, op)
	}
}

func binaryCallKind(op string) (ir.CallKind, error) {
	switch op {
	case sqlparser.PlusStr:
		return ir.CallAdd, nil
	case sqlparser.MinusStr:
		return ir.CallSub, nil
	case sqlparser.MultStr:
		return ir.CallMul, nil
	case sqlparser.DivStr:
		return ir.CallDiv, nil
	case sqlparser.ModStr:
		return ir.CallMod, nil
	case sqlparser.BitAndStr:
		return ir.CallBitAnd, nil
	case sqlparser.BitOrStr:
		return ir.CallBitOr, nil
	case sqlparser.BitXorStr:
		return ir.CallBitXor, nil
	default:
		return "", dbspexc.NewUnimplemented("binary operator "+op, op)
	}
}

func sqlValToRelExpr(v *sqlparser.SQLVal) (ir.RelExpr, error) {
	switch v.Type {
	case sqlparser.IntVal:
		return ir.RelExpr{Kind: ir.RelLiteralExpr, LiteralText: string(v.Val), LiteralType: types.SQLType{Kind: types.SQLBigInt}, Origin: v}, nil
	case sqlparser.FloatVal:
		return ir.RelExpr{Kind: ir.RelLiteralExpr, LiteralText: string(v.Val), LiteralType: types.SQLType{Kind: types.SQLDouble}, Origin: v}, nil
	case sqlparser.StrVal:
		return ir.RelExpr{Kind: ir.RelLiteralExpr, LiteralText: strconv.Quote(string(v.Val)), LiteralType: types.SQLType{Kind: types.SQLVarchar}, Origin: v}, nil
	default:
		return ir.RelExpr{}, dbspexc.NewUnimplemented("literal shape", v)
	}
}

func columnIndex(cols []string, name string) (int, error) {
	for i, c := range cols {
		if strings.EqualFold(c, name) {
			return i, nil
		}
	}
	return 0, dbspexc.NewIRInvariant("unknown column %q", name)
}

// splitTopLevelExcept scans text for a top-level EXCEPT or MINUS keyword
// — one that appears outside any parenthesized subexpression and
// outside any quoted string literal — and, if found, returns the text
// to either side of it and whether ALL followed.
func splitTopLevelExcept(text string) (left, right string, all bool, ok bool) {
	depth := 0
	inQuote := byte(0)
	upper := strings.ToUpper(text)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inQuote != 0 {
			if ch == inQuote {
				inQuote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			inQuote = ch
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth != 0 || inQuote != 0 {
			continue
		}
		if matched, kwLen := matchKeyword(upper, i, "EXCEPT"); matched {
			end := i + kwLen
			rest := upper[end:]
			trimmedRest := strings.TrimLeft(rest, " \t\n")
			if strings.HasPrefix(trimmedRest, "ALL") {
				if m, allLen := matchKeyword(trimmedRest, 0, "ALL"); m {
					all = true
					end += len(rest) - len(trimmedRest) + allLen
				}
			}
			return strings.TrimSpace(text[:i]), strings.TrimSpace(text[end:]), all, true
		}
		if matched, kwLen := matchKeyword(upper, i, "MINUS"); matched {
			return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+kwLen:]), false, true
		}
	}
	return "", "", false, false
}

// matchKeyword reports whether upper has keyword as a standalone word
// starting at position i (word-boundary checked on both sides).
func matchKeyword(upper string, i int, keyword string) (bool, int) {
	if !strings.HasPrefix(upper[i:], keyword) {
		return false, 0
	}
	if i > 0 && isWordByte(upper[i-1]) {
		return false, 0
	}
	end := i + len(keyword)
	if end < len(upper) && isWordByte(upper[end]) {
		return false, 0
	}
	return true, len(keyword)
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
