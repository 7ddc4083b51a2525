// Package query assembles SQL statements from table metadata.
//
// Every builder is an immutable value: methods return modified copies and
// never touch the receiver, so one statement can be shared and rendered any
// number of times. Rendering is a pure function from a statement to an
// ir.Fragment; Prepare turns that into SQL text plus ordered bindings.
//
// Clauses always render in SQL order. A clause that was never set leaves no
// trace in the output, and a statement that would do nothing (an INSERT
// without rows, an UPDATE without assignments, a query built from None)
// renders as the empty fragment, which executors skip without contacting
// the database.
package query

import (
	"slices"

	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
)

// Statement is anything that renders to SQL.
type Statement interface {
	Fragment() ir.Fragment
}

// Prepare renders s with template numbering its placeholders.
func Prepare(s Statement, template ir.Template) (string, []ir.Binding) {
	return s.Fragment().Prepare(template)
}

// Selection is one item of a select or RETURNING list: a column, a column
// set, or any expression.
type Selection interface {
	Fragment() ir.Fragment
}

// Named is a column identified by name, as conflict targets and UPDATE OF
// lists need.
type Named interface {
	Name() string
}

// Resolution is the conflict resolution of INSERT OR ... and UPDATE OR ....
type Resolution string

const (
	Abort    Resolution = "ABORT"
	Fail     Resolution = "FAIL"
	Ignore   Resolution = "IGNORE"
	Replace  Resolution = "REPLACE"
	Rollback Resolution = "ROLLBACK"
)

// verb renders a statement keyword with its optional resolution, e.g.
// "INSERT OR IGNORE".
func verb(keyword string, or Resolution) string {
	if or == "" {
		return keyword
	}
	return keyword + " OR " + string(or)
}

// clauses joins the non-empty clauses of a statement.
func clauses(parts ...ir.Fragment) ir.Fragment {
	return ir.Join(parts, ir.SQL(ir.ClauseBreak()))
}

// clause prefixes body with keyword; an empty body yields an empty clause.
func clause(keyword string, body ir.Fragment) ir.Fragment {
	if body.IsEmpty() {
		return body
	}
	return ir.SQL(keyword + " ").Append(body)
}

// list joins items with commas.
func list[S Selection](items []S) ir.Fragment {
	frags := make([]ir.Fragment, len(items))
	for i, s := range items {
		frags[i] = s.Fragment()
	}
	return ir.Join(frags, ir.SQL(", "))
}

func idents(names []string) ir.Fragment {
	frags := make([]ir.Fragment, len(names))
	for i, n := range names {
		frags[i] = ir.Ident(n)
	}
	return ir.Join(frags, ir.SQL(", "))
}

func namesOf(cols []Named) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name()
	}
	return out
}

// predicate ANDs the accumulated filters.
func predicate(preds []expr.Expr[bool]) ir.Fragment {
	return expr.And(preds...).Fragment()
}

// add appends to a copy of s, leaving the original backing array alone.
func add[T any](s []T, items ...T) []T {
	return append(slices.Clip(s), items...)
}

// noOp is the empty fragment carrying a diagnostic naming what was skipped.
func noOp(what string) ir.Fragment {
	return ir.Empty().WithDiagnostic(ir.Diagnosef(ir.CodeNoOp, what+" renders no SQL"))
}

// returning is a RETURNING list shared by INSERT, UPDATE and DELETE.
type returning []Selection

func (r returning) fragment() ir.Fragment {
	return clause("RETURNING", list([]Selection(r)))
}
