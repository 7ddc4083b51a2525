package query

import (
	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

// Select is a SELECT statement reading from rows of R.
//
// The select list defaults to every column of the table, in registration
// order, so the result decodes with the table's Decoder. Joined tables add
// their columns with Also and decode with decode.Tuple2 or Tuple3; an outer
// joined table decodes with its OptionalDecoder.
type Select[R any] struct {
	table    *schema.Table[R]
	none     bool
	distinct bool
	columns  []Selection
	joins    []ir.Fragment
	where    []expr.Expr[bool]
	groupBy  []Selection
	having   []expr.Expr[bool]
	orderBy  []expr.Ordering
	limit    *int64
	offset   *int64
}

// NewSelect selects every column of every row of t, ignoring its default
// scope. Use All(t).Select() to apply the scope.
func NewSelect[R any](t *schema.Table[R]) Select[R] {
	return Select[R]{table: t}
}

// Table is the table the statement reads from.
func (s Select[R]) Table() *schema.Table[R] { return s.table }

// Distinct removes duplicate result rows.
func (s Select[R]) Distinct() Select[R] {
	s.distinct = true
	return s
}

// Columns replaces the select list. No columns restores the default.
func (s Select[R]) Columns(cols ...Selection) Select[R] {
	s.columns = add([]Selection(nil), cols...)
	return s
}

// Also appends to the select list.
func (s Select[R]) Also(cols ...Selection) Select[R] {
	base := s.columns
	if base == nil {
		base = []Selection{s.table.Columns()}
	}
	s.columns = add(base, cols...)
	return s
}

// Count replaces the select list with COUNT(*). It counts every matching
// row: ordering, LIMIT and OFFSET are cleared.
func (s Select[R]) Count() Select[R] {
	s.columns = []Selection{expr.CountAll()}
	s.orderBy = nil
	s.limit = nil
	s.offset = nil
	return s
}

// Join adds an inner join with src on the given condition.
func (s Select[R]) Join(src schema.Source, on expr.Expr[bool]) Select[R] {
	return s.join("JOIN", src, on)
}

// LeftJoin adds a left outer join. Columns of src may come back NULL.
func (s Select[R]) LeftJoin(src schema.Source, on expr.Expr[bool]) Select[R] {
	return s.join("LEFT JOIN", src, on)
}

// RightJoin adds a right outer join.
func (s Select[R]) RightJoin(src schema.Source, on expr.Expr[bool]) Select[R] {
	return s.join("RIGHT JOIN", src, on)
}

// FullJoin adds a full outer join.
func (s Select[R]) FullJoin(src schema.Source, on expr.Expr[bool]) Select[R] {
	return s.join("FULL JOIN", src, on)
}

func (s Select[R]) join(kind string, src schema.Source, on expr.Expr[bool]) Select[R] {
	f := ir.SQL(kind + " ").Append(src.Declaration())
	if on != nil {
		f = f.Append(clause(" ON", on.Fragment()))
	}
	s.joins = add(s.joins, f)
	return s
}

// Where narrows the query with more predicates, ANDed together.
func (s Select[R]) Where(preds ...expr.Expr[bool]) Select[R] {
	s.where = add(s.where, preds...)
	return s
}

// GroupBy adds grouping terms.
func (s Select[R]) GroupBy(terms ...Selection) Select[R] {
	s.groupBy = add(s.groupBy, terms...)
	return s
}

// Having filters groups.
func (s Select[R]) Having(preds ...expr.Expr[bool]) Select[R] {
	s.having = add(s.having, preds...)
	return s
}

// OrderBy adds ordering terms.
func (s Select[R]) OrderBy(terms ...expr.Ordering) Select[R] {
	s.orderBy = add(s.orderBy, terms...)
	return s
}

// Limit caps the number of rows.
func (s Select[R]) Limit(n int64) Select[R] {
	s.limit = &n
	return s
}

// Offset skips rows. Without a limit it renders LIMIT -1.
func (s Select[R]) Offset(n int64) Select[R] {
	s.offset = &n
	return s
}

// IsNone reports whether the query was built from None.
func (s Select[R]) IsNone() bool { return s.none }

func (s Select[R]) selectList() ir.Fragment {
	if s.columns == nil {
		return s.table.Columns().Fragment()
	}
	return list(s.columns)
}

func (s Select[R]) limitClause() ir.Fragment {
	if s.limit == nil && s.offset == nil {
		return ir.Empty()
	}
	n := ir.SQL("-1")
	if s.limit != nil {
		n = ir.Bind(ir.Int(*s.limit))
	}
	f := ir.SQL("LIMIT ").Append(n)
	if s.offset != nil {
		f = f.Append(ir.SQL(" OFFSET "), ir.Bind(ir.Int(*s.offset)))
	}
	return f
}

// Fragment renders the statement.
func (s Select[R]) Fragment() ir.Fragment {
	if s.none {
		return ir.Empty()
	}
	keyword := "SELECT"
	if s.distinct {
		keyword = "SELECT DISTINCT"
	}
	parts := make([]ir.Fragment, 0, 8+len(s.joins))
	parts = append(parts,
		clause(keyword, s.selectList()),
		clause("FROM", s.table.Declaration()),
	)
	parts = append(parts, s.joins...)
	parts = append(parts,
		clause("WHERE", predicate(s.where)),
		clause("GROUP BY", list(s.groupBy)),
		clause("HAVING", predicate(s.having)),
		clause("ORDER BY", list(s.orderBy)),
		s.limitClause(),
	)
	return s.table.Localize(clauses(parts...))
}

// upsertSource renders the statement as the source of an INSERT with an
// ON CONFLICT clause. SQLite cannot tell the conflict clause from a join
// constraint unless the SELECT has a WHERE clause, so one is added.
func (s Select[R]) upsertSource() ir.Fragment {
	if predicate(s.where).IsEmpty() {
		s.where = []expr.Expr[bool]{expr.True()}
	}
	return s.Fragment()
}
