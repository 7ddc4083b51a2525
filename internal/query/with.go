package query

import (
	"github.com/roach88/structq/internal/ir"
)

// CTE is one named subquery of a WITH clause. Read from it with a table
// renamed to the CTE's name, schema.Table.Renamed.
type CTE struct {
	Name    string
	Columns []string
	Query   Statement
}

// As names q for use in a WITH clause.
func As(name string, q Statement, columns ...string) CTE {
	return CTE{Name: name, Columns: columns, Query: q}
}

func (c CTE) fragment() ir.Fragment {
	body := ir.Empty()
	if c.Query != nil {
		body = c.Query.Fragment()
	}
	if body.IsEmpty() {
		return noOp("common table expression " + ir.QuoteIdent(c.Name))
	}
	head := ir.Ident(c.Name)
	if len(c.Columns) > 0 {
		head = head.Append(ir.SQL(" "), ir.Parens(idents(c.Columns)))
	}
	return head.Append(ir.SQL(" AS "), ir.Parens(body))
}

// With is a statement preceded by common table expressions.
type With struct {
	ctes      []CTE
	recursive bool
	main      Statement
}

// NewWith starts a WITH clause.
func NewWith(ctes ...CTE) With {
	return With{ctes: add([]CTE(nil), ctes...)}
}

// And appends more common table expressions.
func (w With) And(ctes ...CTE) With {
	w.ctes = add(w.ctes, ctes...)
	return w
}

// Recursive renders WITH RECURSIVE.
func (w With) Recursive() With {
	w.recursive = true
	return w
}

// Statement sets the statement the expressions are visible to.
func (w With) Statement(main Statement) With {
	w.main = main
	return w
}

// Fragment renders the statement. When the main statement renders empty the
// whole statement is empty; when every expression renders empty the main
// statement renders alone.
func (w With) Fragment() ir.Fragment {
	if w.main == nil {
		return noOp("WITH without a statement")
	}
	main := w.main.Fragment()
	if main.IsEmpty() {
		return main
	}
	frags := make([]ir.Fragment, len(w.ctes))
	for i, c := range w.ctes {
		frags[i] = c.fragment()
	}
	defs := ir.Join(frags, ir.SQL(", "))
	if defs.IsEmpty() {
		return main.WithDiagnostic(defs.Diagnostics()...)
	}
	keyword := "WITH"
	if w.recursive {
		keyword = "WITH RECURSIVE"
	}
	return clauses(clause(keyword, defs), main)
}
