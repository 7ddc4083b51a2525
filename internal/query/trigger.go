package query

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

// Timing is when a trigger fires relative to its event.
type Timing string

const (
	Before    Timing = "BEFORE"
	After     Timing = "AFTER"
	InsteadOf Timing = "INSTEAD OF"
)

// Event is the kind of change a trigger fires on.
type Event string

const (
	OnInsert Event = "INSERT"
	OnUpdate Event = "UPDATE"
	OnDelete Event = "DELETE"
)

// CallSite is a source position, used to name triggers deterministically.
type CallSite struct {
	File string
	Line int
}

// Caller returns the call site skip frames above the caller of Caller.
func Caller(skip int) CallSite {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return CallSite{File: "unknown"}
	}
	return CallSite{File: filepath.Base(file), Line: line}
}

func (c CallSite) String() string {
	return fmt.Sprintf("%s:%d", c.File, c.Line)
}

// Trigger is a CREATE TEMPORARY TRIGGER statement on the table of R.
//
// The WHEN condition and the body statements cannot carry bound parameters,
// so their bindings are inlined as literals when the trigger renders.
// Reference the changed rows with schema.Old and schema.New.
type Trigger[R any] struct {
	table       *schema.Table[R]
	name        string
	site        CallSite
	ifNotExists bool
	timing      Timing
	event       Event
	of          []string
	when        expr.Expr[bool]
	body        []Statement
}

func newTrigger[R any](t *schema.Table[R], timing Timing, event Event, site CallSite, body []Statement) Trigger[R] {
	return Trigger[R]{
		table:  t,
		site:   site,
		timing: timing,
		event:  event,
		body:   add([]Statement(nil), body...),
	}
}

// CreateTrigger builds a trigger running body when event happens on t.
// Unless renamed with Named, the trigger is named after the call site.
func CreateTrigger[R any](t *schema.Table[R], timing Timing, event Event, body ...Statement) Trigger[R] {
	return newTrigger(t, timing, event, Caller(1), body)
}

// AfterInsert builds a trigger running body after each insert into t.
func AfterInsert[R any](t *schema.Table[R], body ...Statement) Trigger[R] {
	return newTrigger(t, After, OnInsert, Caller(1), body)
}

// AfterUpdate builds a trigger running body after each update of t.
func AfterUpdate[R any](t *schema.Table[R], body ...Statement) Trigger[R] {
	return newTrigger(t, After, OnUpdate, Caller(1), body)
}

// AfterDelete builds a trigger running body after each delete from t.
func AfterDelete[R any](t *schema.Table[R], body ...Statement) Trigger[R] {
	return newTrigger(t, After, OnDelete, Caller(1), body)
}

// BeforeInsert builds a trigger running body before each insert into t.
func BeforeInsert[R any](t *schema.Table[R], body ...Statement) Trigger[R] {
	return newTrigger(t, Before, OnInsert, Caller(1), body)
}

// BeforeUpdate builds a trigger running body before each update of t.
func BeforeUpdate[R any](t *schema.Table[R], body ...Statement) Trigger[R] {
	return newTrigger(t, Before, OnUpdate, Caller(1), body)
}

// BeforeDelete builds a trigger running body before each delete from t.
func BeforeDelete[R any](t *schema.Table[R], body ...Statement) Trigger[R] {
	return newTrigger(t, Before, OnDelete, Caller(1), body)
}

// Named sets the trigger name.
func (t Trigger[R]) Named(name string) Trigger[R] {
	t.name = name
	return t
}

// At overrides the call site the default name is built from.
func (t Trigger[R]) At(site CallSite) Trigger[R] {
	t.site = site
	return t
}

// IfNotExists renders CREATE TEMPORARY TRIGGER IF NOT EXISTS.
func (t Trigger[R]) IfNotExists() Trigger[R] {
	t.ifNotExists = true
	return t
}

// When adds a condition on the changed row.
func (t Trigger[R]) When(pred expr.Expr[bool]) Trigger[R] {
	t.when = pred
	return t
}

// UpdateOf restricts an update trigger to changes of the given columns.
func (t Trigger[R]) UpdateOf(cols ...Named) Trigger[R] {
	t.event = OnUpdate
	t.of = namesOf(cols)
	return t
}

// Then appends statements to the body.
func (t Trigger[R]) Then(body ...Statement) Trigger[R] {
	t.body = add(t.body, body...)
	return t
}

// Name is the trigger name: the one set with Named, or
// {timing}_{event}_on_{table}@{file}:{line}. The call site has no column
// part because runtime.Caller reports lines only.
func (t Trigger[R]) Name() string {
	if t.name != "" {
		return t.name
	}
	timing := strings.ToLower(strings.ReplaceAll(string(t.timing), " ", "_"))
	event := strings.ToLower(string(t.event))
	return fmt.Sprintf("%s_%s_on_%s@%s", timing, event, t.table.Name(), t.site)
}

func (t Trigger[R]) eventClause() ir.Fragment {
	f := ir.SQL(string(t.timing) + " " + string(t.event))
	if t.event == OnUpdate && len(t.of) > 0 {
		f = f.Append(ir.SQL(" OF "), idents(t.of))
	}
	return f.Append(ir.SQL(" ON "), t.table.Target())
}

// Fragment renders the statement. A trigger whose body renders nothing
// renders as the empty fragment.
func (t Trigger[R]) Fragment() ir.Fragment {
	stmts := make([]ir.Fragment, 0, len(t.body))
	var skipped []ir.Diagnostic
	for _, s := range t.body {
		f := s.Fragment()
		if f.IsEmpty() {
			skipped = append(skipped, f.Diagnostics()...)
			continue
		}
		stmts = append(stmts, f.Compiled(ir.ContextTrigger).Append(ir.SQL(";")))
	}
	if len(stmts) == 0 {
		return noOp("trigger " + ir.QuoteIdent(t.Name()) + " without statements").WithDiagnostic(skipped...)
	}
	head := "CREATE TEMPORARY TRIGGER "
	if t.ifNotExists {
		head += "IF NOT EXISTS "
	}
	when := ir.Empty()
	if t.when != nil {
		when = t.when.Fragment().Compiled(ir.ContextTrigger)
	}
	parts := []ir.Fragment{
		ir.SQL(head).Append(ir.Ident(t.Name())),
		t.eventClause(),
		ir.SQL("FOR EACH ROW"),
		clause("WHEN", when),
		ir.SQL("BEGIN"),
	}
	parts = append(parts, stmts...)
	parts = append(parts, ir.SQL("END"))
	return clauses(parts...).WithDiagnostic(skipped...)
}

// Drop is the statement removing the trigger.
func (t Trigger[R]) Drop() Drop {
	return Drop{kind: "TRIGGER", name: ir.QuoteIdent(t.Name())}
}

// Drop is a DROP TRIGGER, DROP VIEW or DROP TABLE statement. name is the
// quoted object name.
type Drop struct {
	kind     string
	name     string
	ifExists bool
}

// IfExists renders DROP ... IF EXISTS.
func (d Drop) IfExists() Drop {
	d.ifExists = true
	return d
}

// Fragment renders the statement.
func (d Drop) Fragment() ir.Fragment {
	head := "DROP " + d.kind + " "
	if d.ifExists {
		head += "IF EXISTS "
	}
	return ir.SQL(head + d.name)
}
