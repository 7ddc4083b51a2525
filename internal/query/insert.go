package query

import (
	"slices"
	"strings"

	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

type insertSource uint8

const (
	sourceValues insertSource = iota
	sourceDefault
	sourceSelect
)

// upsertSourcer is implemented by queries that can feed an INSERT carrying
// an ON CONFLICT clause.
type upsertSourcer interface {
	upsertSource() ir.Fragment
}

// Insert is an INSERT statement into the table of R.
type Insert[R any] struct {
	table   *schema.Table[R]
	or      Resolution
	columns schema.ColumnSet
	source  insertSource
	rows    [][]ir.Fragment
	query   Statement

	conflict     bool
	targets      []string
	targetFilter []expr.Expr[bool]
	doUpdate     bool
	updates      []expr.Assignment
	updateFilter []expr.Expr[bool]
	returning    returning
	diags        []ir.Diagnostic
}

// InsertInto starts an INSERT into t with no rows.
func InsertInto[R any](t *schema.Table[R]) Insert[R] {
	return Insert[R]{table: t}
}

// InsertRows inserts rows into the writable columns of t.
func InsertRows[R any](t *schema.Table[R], rows ...R) Insert[R] {
	return InsertInto(t).Values(rows...)
}

// Or sets the conflict resolution, rendering INSERT OR <resolution>.
func (i Insert[R]) Or(res Resolution) Insert[R] {
	i.or = res
	return i
}

// Values appends rows, binding their writable columns. Rows added after
// Encoded or InsertDrafts narrowed the column list would not line up with
// it; they are dropped and reported as a diagnostic.
func (i Insert[R]) Values(rows ...R) Insert[R] {
	writable := i.table.WritableColumns()
	if i.source != sourceValues || i.columns == nil {
		i.source = sourceValues
		i.columns = writable
		i.rows = nil
	}
	if !slices.Equal(i.columns.Names(), writable.Names()) {
		if len(rows) > 0 {
			i.diags = add(i.diags, ir.Diagnosef(ir.CodeRowsDropped,
				"rows bound to every writable column were dropped: the INSERT lists only "+joinNames(i.columns.Names())))
		}
		return i
	}
	out := make([][]ir.Fragment, 0, len(rows))
	for _, row := range rows {
		out = append(out, bindRow(i.table.EncodeWritable(row)))
	}
	i.rows = add(i.rows, out...)
	return i
}

// Encoded appends rows already bound against cols. Every row must have one
// binding per column.
func (i Insert[R]) Encoded(cols schema.ColumnSet, rows ...[]ir.Binding) Insert[R] {
	i.source = sourceValues
	i.columns = cols
	out := make([][]ir.Fragment, 0, len(rows))
	for _, row := range rows {
		out = append(out, bindRow(row))
	}
	i.rows = add([][]ir.Fragment(nil), out...)
	return i
}

func bindRow(row []ir.Binding) []ir.Fragment {
	frags := make([]ir.Fragment, len(row))
	for j, b := range row {
		frags[j] = ir.Bind(b)
	}
	return frags
}

// DefaultValues inserts one row made of the column defaults.
func (i Insert[R]) DefaultValues() Insert[R] {
	i.source = sourceDefault
	i.columns = nil
	i.rows = nil
	return i
}

// FromSelect inserts the rows of q into cols. No columns means every
// writable column.
func (i Insert[R]) FromSelect(q Statement, cols ...schema.ColumnInfo) Insert[R] {
	i.source = sourceSelect
	i.columns = schema.ColumnSet(cols)
	if len(cols) == 0 {
		i.columns = i.table.WritableColumns()
	}
	i.query = q
	i.rows = nil
	return i
}

// OnConflict adds an ON CONFLICT clause with the given target columns. The
// action defaults to DO NOTHING.
func (i Insert[R]) OnConflict(targets ...Named) Insert[R] {
	i.conflict = true
	i.targets = namesOf(targets)
	return i
}

// OnConflictWhere filters the conflict target, for partial unique indexes.
func (i Insert[R]) OnConflictWhere(preds ...expr.Expr[bool]) Insert[R] {
	i.conflict = true
	i.targetFilter = add(i.targetFilter, preds...)
	return i
}

// DoNothing ignores conflicting rows.
func (i Insert[R]) DoNothing() Insert[R] {
	i.conflict = true
	i.doUpdate = false
	i.updates = nil
	return i
}

// DoUpdate updates the conflicting row with the given assignments. Refer
// to the proposed row with schema.Excluded.
func (i Insert[R]) DoUpdate(assignments ...expr.Assignment) Insert[R] {
	i.conflict = true
	i.doUpdate = true
	i.updates = add(i.updates, assignments...)
	return i
}

// DoUpdateWhere filters the update of conflicting rows. Without a DO UPDATE
// action the filter is dropped and reported as a diagnostic.
func (i Insert[R]) DoUpdateWhere(preds ...expr.Expr[bool]) Insert[R] {
	i.updateFilter = add(i.updateFilter, preds...)
	return i
}

// Returning adds a RETURNING clause.
func (i Insert[R]) Returning(cols ...Selection) Insert[R] {
	i.returning = add(i.returning, cols...)
	return i
}

// ReturningAll returns every column of the inserted rows, in the order the
// table's Decoder reads them.
func (i Insert[R]) ReturningAll() Insert[R] {
	return i.Returning(i.table.Columns())
}

// IsEmpty reports whether the statement has no rows to insert.
func (i Insert[R]) IsEmpty() bool {
	switch i.source {
	case sourceDefault:
		return false
	case sourceSelect:
		return i.query == nil || i.query.Fragment().IsEmpty()
	default:
		return len(i.rows) == 0
	}
}

func (i Insert[R]) head() ir.Fragment {
	f := ir.SQL(verb("INSERT", i.or) + " INTO ").Append(i.table.Declaration())
	if len(i.columns) > 0 {
		f = f.Append(ir.SQL(" "), ir.Parens(i.columns.Idents()))
	}
	return f
}

func (i Insert[R]) body() ir.Fragment {
	switch i.source {
	case sourceDefault:
		return ir.SQL("DEFAULT VALUES")
	case sourceSelect:
		if !i.conflict {
			return i.query.Fragment()
		}
		if u, ok := i.query.(upsertSourcer); ok {
			return u.upsertSource()
		}
		return ir.SQL("SELECT * FROM ").Append(ir.Parens(i.query.Fragment()), ir.SQL(" WHERE 1"))
	}
	tuples := make([]ir.Fragment, len(i.rows))
	for j, row := range i.rows {
		tuples[j] = ir.Parens(ir.Join(row, ir.SQL(", ")))
	}
	return clause("VALUES", ir.Join(tuples, ir.SQL(", ")))
}

func (i Insert[R]) upsert() ir.Fragment {
	if !i.conflict {
		return dropped(ir.Empty(), "update filter without ON CONFLICT", i.updateFilter)
	}
	if !i.doUpdate || len(i.updates) == 0 {
		f := clauses(i.onConflict(), ir.SQL("DO NOTHING"))
		return dropped(f, "update filter without DO UPDATE", i.updateFilter)
	}
	sets := make([]ir.Fragment, len(i.updates))
	for j, a := range i.updates {
		sets[j] = a.Fragment()
	}
	return clauses(
		i.onConflict(),
		clause("DO UPDATE SET", ir.Join(sets, ir.SQL(", "))),
		clause("WHERE", predicate(i.updateFilter)),
	)
}

// onConflict renders ON CONFLICT with its parenthesized targets and their
// filter. A target filter needs targets; without them it is dropped.
func (i Insert[R]) onConflict() ir.Fragment {
	f := ir.SQL("ON CONFLICT")
	if len(i.targets) == 0 {
		return dropped(f, "conflict target filter without target columns", i.targetFilter)
	}
	return f.Append(
		ir.SQL(" "),
		ir.Parens(idents(i.targets)),
		clause(" WHERE", predicate(i.targetFilter)),
	)
}

// dropped attaches a diagnostic to f when preds would have rendered SQL
// that the statement has no place for.
func dropped(f ir.Fragment, what string, preds []expr.Expr[bool]) ir.Fragment {
	filter := predicate(preds)
	if filter.IsEmpty() {
		return f
	}
	return f.WithDiagnostic(ir.Diagnosef(ir.CodeFilterDropped, what+" was dropped: "+filter.String()))
}

// Fragment renders the statement. An INSERT without rows renders as the
// empty fragment.
func (i Insert[R]) Fragment() ir.Fragment {
	if i.IsEmpty() {
		return noOp("INSERT without rows").WithDiagnostic(i.diags...)
	}
	return i.table.Localize(clauses(
		i.head(),
		i.body(),
		i.upsert(),
		i.returning.fragment(),
	)).WithDiagnostic(i.diags...)
}

func joinNames(names []string) string {
	quoted := make([]string, len(names))
	for j, n := range names {
		quoted[j] = ir.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
