package query

import (
	"github.com/roach88/structq/internal/ir"
)

// View is a CREATE TEMPORARY VIEW statement. Its query cannot carry bound
// parameters, so bindings are inlined as literals.
type View struct {
	name        string
	columns     []string
	query       Statement
	ifNotExists bool
}

// CreateTemporaryView defines name as q, with the given column names.
func CreateTemporaryView(name string, q Statement, columns ...string) View {
	return View{name: name, columns: add([]string(nil), columns...), query: q}
}

// ViewOf defines name as q. When q selects the table's default columns the
// view takes their names, so the table renamed to the view decodes its rows.
func ViewOf[R any](name string, q Select[R]) View {
	var cols []string
	if q.columns == nil {
		cols = q.table.Columns().Names()
	}
	return CreateTemporaryView(name, q, cols...)
}

// IfNotExists renders CREATE TEMPORARY VIEW IF NOT EXISTS.
func (v View) IfNotExists() View {
	v.ifNotExists = true
	return v
}

// Name is the view name.
func (v View) Name() string { return v.name }

// Fragment renders the statement. A view over an empty query renders as the
// empty fragment.
func (v View) Fragment() ir.Fragment {
	body := ir.Empty()
	if v.query != nil {
		body = v.query.Fragment()
	}
	if body.IsEmpty() {
		return noOp("view " + ir.QuoteIdent(v.name) + " over an empty query").WithDiagnostic(body.Diagnostics()...)
	}
	head := "CREATE TEMPORARY VIEW "
	if v.ifNotExists {
		head += "IF NOT EXISTS "
	}
	f := ir.SQL(head).Append(ir.Ident(v.name))
	if len(v.columns) > 0 {
		f = f.Append(ir.SQL(" "), ir.Parens(idents(v.columns)))
	}
	return clauses(f.Append(ir.SQL(" AS")), body.Compiled(ir.ContextView))
}

// Drop is the statement removing the view.
func (v View) Drop() Drop {
	return Drop{kind: "VIEW", name: ir.QuoteIdent(v.name)}
}
