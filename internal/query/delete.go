package query

import (
	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

// Delete is a DELETE statement on the table of R.
type Delete[R any] struct {
	table     *schema.Table[R]
	none      bool
	where     []expr.Expr[bool]
	returning returning
}

// NewDelete starts a DELETE of every row of t, ignoring its default scope.
func NewDelete[R any](t *schema.Table[R]) Delete[R] {
	return Delete[R]{table: t}
}

// Where narrows the delete with more predicates, ANDed together.
func (d Delete[R]) Where(preds ...expr.Expr[bool]) Delete[R] {
	d.where = add(d.where, preds...)
	return d
}

// Returning adds a RETURNING clause.
func (d Delete[R]) Returning(cols ...Selection) Delete[R] {
	d.returning = add(d.returning, cols...)
	return d
}

// ReturningAll returns every column of the deleted rows.
func (d Delete[R]) ReturningAll() Delete[R] {
	return d.Returning(d.table.Columns())
}

// Fragment renders the statement.
func (d Delete[R]) Fragment() ir.Fragment {
	if d.none {
		return ir.Empty()
	}
	return d.table.Localize(clauses(
		ir.SQL("DELETE FROM ").Append(d.table.Declaration()),
		clause("WHERE", predicate(d.where)),
		d.returning.fragment(),
	))
}
