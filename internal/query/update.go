package query

import (
	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

// Update is an UPDATE statement on the table of R.
//
// Assignments render in the order they were added. Assigning the same column
// twice renders both assignments; which one the database applies is up to
// the database.
type Update[R any] struct {
	table     *schema.Table[R]
	none      bool
	or        Resolution
	sets      []expr.Assignment
	where     []expr.Expr[bool]
	returning returning
}

// NewUpdate starts an UPDATE of every row of t, ignoring its default scope.
func NewUpdate[R any](t *schema.Table[R], assignments ...expr.Assignment) Update[R] {
	return Update[R]{table: t, sets: add([]expr.Assignment(nil), assignments...)}
}

// Or sets the conflict resolution, rendering UPDATE OR <resolution>.
func (u Update[R]) Or(res Resolution) Update[R] {
	u.or = res
	return u
}

// Set appends assignments.
func (u Update[R]) Set(assignments ...expr.Assignment) Update[R] {
	u.sets = add(u.sets, assignments...)
	return u
}

// Updates collects assignments inside an Apply callback.
type Updates struct {
	sets []expr.Assignment
}

// Add appends assignments.
func (s *Updates) Add(assignments ...expr.Assignment) {
	s.sets = append(s.sets, assignments...)
}

// Len is the number of collected assignments.
func (s *Updates) Len() int { return len(s.sets) }

// Apply lets fn add assignments through an Updates accumulator owned by
// the call.
func (u Update[R]) Apply(fn func(*Updates)) Update[R] {
	var acc Updates
	fn(&acc)
	return u.Set(acc.sets...)
}

// Where narrows the update with more predicates, ANDed together.
func (u Update[R]) Where(preds ...expr.Expr[bool]) Update[R] {
	u.where = add(u.where, preds...)
	return u
}

// Returning adds a RETURNING clause.
func (u Update[R]) Returning(cols ...Selection) Update[R] {
	u.returning = add(u.returning, cols...)
	return u
}

// ReturningAll returns every column of the updated rows.
func (u Update[R]) ReturningAll() Update[R] {
	return u.Returning(u.table.Columns())
}

// Fragment renders the statement. An UPDATE without assignments renders as
// the empty fragment.
func (u Update[R]) Fragment() ir.Fragment {
	if u.none {
		return ir.Empty()
	}
	if len(u.sets) == 0 {
		return noOp("UPDATE without assignments")
	}
	sets := make([]ir.Fragment, len(u.sets))
	for i, a := range u.sets {
		sets[i] = a.Fragment()
	}
	return u.table.Localize(clauses(
		ir.SQL(verb("UPDATE", u.or)+" ").Append(u.table.Declaration()),
		clause("SET", ir.Join(sets, ir.SQL(", "))),
		clause("WHERE", predicate(u.where)),
		u.returning.fragment(),
	))
}
