package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/structq/internal/compiler"
	"github.com/roach88/structq/internal/decode"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/query"
	"github.com/roach88/structq/internal/schema"
	"github.com/roach88/structq/internal/store"
)

// Harness runs one scenario against one database.
type Harness struct {
	store  *store.Store
	tables map[string]*compiler.Table
	logger *slog.Logger
}

// Options configures Run. The zero value uses the pure-Go driver and
// discards logs.
type Options struct {
	Driver string
	Logger *slog.Logger
}

// Run executes a test scenario against tables and returns the result.
//
// Each scenario runs in a fresh in-memory database:
//  1. Create every table, referenced tables first
//  2. Execute setup steps, stopping at the first failure
//  3. Execute flow steps, checking their expect clauses
//  4. Evaluate assertions against the trace and the tables
func Run(ctx context.Context, scenario *Scenario, tables []*compiler.Table, opts Options) (*Result, error) {
	if opts.Driver == "" {
		opts.Driver = store.DriverPure
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	st, err := store.Open(":memory:", store.Options{
		Driver:   opts.Driver,
		Template: ir.QuestionMark,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		tables: make(map[string]*compiler.Table, len(tables)),
		logger: opts.Logger,
	}
	if err := h.createTables(ctx, tables); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Setup {
		event := h.execute(ctx, "setup", step)
		result.AddTrace(event)
		if event.Error != "" {
			return nil, fmt.Errorf("setup step %d: %s", i, event.Error)
		}
	}

	for i, step := range scenario.Flow {
		event := h.execute(ctx, "flow", step)
		result.AddTrace(event)
		for _, msg := range checkExpect(step, event) {
			result.AddError(fmt.Sprintf("flow[%d] %s %s: %s", i, step.Kind, step.Table, msg))
		}
	}

	actx := &AssertionContext{
		Store:  st,
		Ctx:    ctx,
		Tables: h.tables,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// createTables creates tables in reference order as a single migration.
func (h *Harness) createTables(ctx context.Context, tables []*compiler.Table) error {
	specs := make([]*compiler.TableSpec, 0, len(tables))
	for _, t := range tables {
		if _, dup := h.tables[t.Spec.Name]; dup {
			return fmt.Errorf("table %s defined twice", t.Spec.Name)
		}
		h.tables[t.Spec.Name] = t
		specs = append(specs, t.Spec)
	}

	ordered, _ := compiler.CreationOrder(specs)
	m := make(store.Migration, len(ordered))
	for i, spec := range ordered {
		m[i] = query.CreateTable(h.tables[spec.Name].Table)
	}
	if err := h.store.Migrate(ctx, m); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// execute builds, renders and runs one step. Failures are recorded on the
// event rather than returned.
func (h *Harness) execute(ctx context.Context, phase string, step Step) TraceEvent {
	event := TraceEvent{Phase: phase, Table: step.Table, Statement: step.Kind}

	t, ok := h.tables[step.Table]
	if !ok {
		event.Error = fmt.Sprintf("unknown table %q", step.Table)
		return event
	}
	st, err := t.Statement(step.Request)
	if err != nil {
		event.Error = err.Error()
		return event
	}

	for _, d := range st.Fragment().Diagnostics() {
		event.Diagnostics = append(event.Diagnostics, d.String())
	}
	text, bindings, ok := store.Prepare(h.logger, st, ir.QuestionMark)
	if !ok {
		return event
	}
	event.SQL = text
	for _, b := range bindings {
		event.Bindings = append(event.Bindings, b.String())
	}

	switch {
	case step.Kind == "count":
		n, err := store.FetchOne(ctx, h.store, st, decode.Required(decode.Int64, "integer"))
		if err != nil {
			event.Error = err.Error()
			return event
		}
		event.Count = &n

	case step.Reads():
		rows, err := store.Fetch(ctx, h.store, st, t.Decoder())
		if err != nil {
			event.Error = err.Error()
			return event
		}
		event.Rows = plainRows(t, rows)
		if step.Returning {
			event.Changed = int64(len(rows))
		}

	default:
		n, err := h.store.Exec(ctx, st)
		if err != nil {
			event.Error = err.Error()
			return event
		}
		event.Changed = n
	}
	return event
}

func plainRows(t *compiler.Table, rows []schema.Record) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, rec := range rows {
		out[i] = t.PlainMap(rec)
	}
	return out
}

// checkExpect compares a flow step's outcome with its expect clause.
func checkExpect(step Step, event TraceEvent) []string {
	expect := step.Expect
	if expect == nil {
		if event.Error != "" {
			return []string{"unexpected error: " + event.Error}
		}
		return nil
	}

	if expect.Error != "" {
		switch {
		case event.Error == "":
			return []string{fmt.Sprintf("expected error containing %q, got success", expect.Error)}
		case !strings.Contains(event.Error, expect.Error):
			return []string{fmt.Sprintf("expected error containing %q, got %q", expect.Error, event.Error)}
		}
		return nil
	}
	if event.Error != "" {
		return []string{"unexpected error: " + event.Error}
	}

	var msgs []string
	if expect.SQL != nil && *expect.SQL != event.SQL {
		msgs = append(msgs, fmt.Sprintf("expected SQL %q, got %q", *expect.SQL, event.SQL))
	}
	if expect.Changed != nil && *expect.Changed != event.Changed {
		msgs = append(msgs, fmt.Sprintf("expected %d changed row(s), got %d", *expect.Changed, event.Changed))
	}
	if expect.Rows != nil && *expect.Rows != len(event.Rows) {
		msgs = append(msgs, fmt.Sprintf("expected %d row(s), got %d", *expect.Rows, len(event.Rows)))
	}
	if expect.Count != nil {
		switch {
		case event.Count == nil:
			msgs = append(msgs, fmt.Sprintf("expected count %d, step is not a count", *expect.Count))
		case *expect.Count != *event.Count:
			msgs = append(msgs, fmt.Sprintf("expected count %d, got %d", *expect.Count, *event.Count))
		}
	}
	return msgs
}
