package query

import (
	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

// Where accumulates the filter of a query over rows of R. It renders as a
// SELECT of every column, and converts to an UPDATE or DELETE with the same
// filter.
type Where[R any] struct {
	table *schema.Table[R]
	preds []expr.Expr[bool]
	none  bool
}

// All is the default query of t: every row its scope admits.
func All[R any](t *schema.Table[R]) Where[R] {
	w := Where[R]{table: t}
	if scope := t.Scope(); !scope.IsEmpty() {
		w.preds = []expr.Expr[bool]{scope}
	}
	return w
}

// Unscoped queries every row of t, ignoring its default scope.
func Unscoped[R any](t *schema.Table[R]) Where[R] {
	return Where[R]{table: t}
}

// None matches no row. Statements built from it render as the empty
// fragment, so no SQL is ever sent for them.
func None[R any](t *schema.Table[R]) Where[R] {
	return Where[R]{table: t, none: true}
}

// Where narrows the query with more predicates, ANDed together.
func (w Where[R]) Where(preds ...expr.Expr[bool]) Where[R] {
	w.preds = add(w.preds, preds...)
	return w
}

// Predicate is the accumulated filter; empty when there is none.
func (w Where[R]) Predicate() expr.Term[bool] {
	return expr.And(w.preds...)
}

// IsNone reports whether the query was built from None.
func (w Where[R]) IsNone() bool { return w.none }

// Select turns the filter into a SELECT. Without columns it selects every
// column of the table.
func (w Where[R]) Select(cols ...Selection) Select[R] {
	return Select[R]{
		table:   w.table,
		none:    w.none,
		columns: add([]Selection(nil), cols...),
		where:   add([]expr.Expr[bool](nil), w.preds...),
	}
}

// Count selects the number of matching rows.
func (w Where[R]) Count() Select[R] {
	return w.Select().Count()
}

// Update turns the filter into an UPDATE with the given assignments.
func (w Where[R]) Update(assignments ...expr.Assignment) Update[R] {
	return Update[R]{
		table: w.table,
		none:  w.none,
		sets:  add([]expr.Assignment(nil), assignments...),
		where: add([]expr.Expr[bool](nil), w.preds...),
	}
}

// Delete turns the filter into a DELETE.
func (w Where[R]) Delete() Delete[R] {
	return Delete[R]{
		table: w.table,
		none:  w.none,
		where: add([]expr.Expr[bool](nil), w.preds...),
	}
}

// Fragment renders the query as a SELECT of every column.
func (w Where[R]) Fragment() ir.Fragment {
	return w.Select().Fragment()
}

func (w Where[R]) upsertSource() ir.Fragment {
	return w.Select().upsertSource()
}

// Filterable is a statement that accepts more WHERE predicates.
type Filterable[S any] interface {
	Where(preds ...expr.Expr[bool]) S
}

// FindIn narrows stmt to the rows of k with the given keys, rendering
// WHERE "pk" IN (k1, k2, ...). It works on Where, Select, Update and Delete.
func FindIn[S Filterable[S], R any, K comparable](stmt S, k *schema.Keyed[R, K], keys ...K) S {
	return stmt.Where(k.Find(keys...))
}

// Find is the default query of k narrowed to the given keys.
func Find[R any, K comparable](k *schema.Keyed[R, K], keys ...K) Where[R] {
	return All(k.Table).Where(k.Find(keys...))
}
