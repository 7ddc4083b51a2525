package harness

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/structq/internal/compiler"
	"github.com/roach88/structq/internal/decode"
	"github.com/roach88/structq/internal/query"
	"github.com/roach88/structq/internal/schema"
	"github.com/roach88/structq/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s: %s\n", event.Seq, event.Statement, event.Table, eventSummary(event))
		}
	}

	return buf.String()
}

func eventSummary(event TraceEvent) string {
	switch {
	case event.Error != "":
		return "error: " + event.Error
	case event.SQL == "":
		return "(empty statement)"
	}
	return event.SQL
}

func matchesTable(event TraceEvent, table string) bool {
	return table == "" || event.Table == table
}

// assertTraceContains checks if some step rendered SQL containing the
// assertion's text.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matchesTable(event, assertion.Table) && strings.Contains(event.SQL, assertion.SQL) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("SQL containing %q", assertion.SQL),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that steps of the listed kinds ran in order.
// Steps don't need to be consecutive: each listed kind matches the first
// step of that kind after the previous match.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next == len(assertion.Statements) {
			break
		}
		if matchesTable(event, assertion.Table) && event.Statement == assertion.Statements[next] {
			next++
		}
	}

	if next < len(assertion.Statements) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("statements in order: %v", assertion.Statements),
			Actual:   fmt.Sprintf("no %s after %v", assertion.Statements[next], assertion.Statements[:next]),
			Trace:    trace,
		}
	}

	return nil
}

// assertTraceCount checks if the statement kind ran exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matchesTable(event, assertion.Table) && event.Statement == assertion.Statement {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s statement(s)", assertion.Count, assertion.Statement),
			Actual:   fmt.Sprintf("%d statement(s)", count),
			Trace:    trace,
		}
	}

	return nil
}

// stateQuery is the query a state assertion reads through: the table's
// default scope unless the assertion is unscoped, narrowed by Where.
func stateQuery(t *compiler.Table, assertion Assertion) (query.Where[schema.Record], error) {
	preds, err := t.Filters(assertion.Where)
	if err != nil {
		return query.Where[schema.Record]{}, err
	}
	q := query.All(t.Table)
	if assertion.Unscoped {
		q = query.Unscoped(t.Table)
	}
	return q.Where(preds...), nil
}

// assertRowCount counts the rows matching the assertion.
func assertRowCount(ctx context.Context, actx *AssertionContext, assertion Assertion) error {
	t, ok := actx.Tables[assertion.Table]
	if !ok {
		return fmt.Errorf("row_count: unknown table %q", assertion.Table)
	}
	q, err := stateQuery(t, assertion)
	if err != nil {
		return fmt.Errorf("row_count: %w", err)
	}

	n, err := store.FetchOne(ctx, actx.Store, q.Count(), decode.Required(decode.Int64, "integer"))
	if err != nil {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("count rows of %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if n != int64(assertion.Count) {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d row(s) in %s where %s", assertion.Count, assertion.Table, formatWhere(assertion.Where)),
			Actual:   fmt.Sprintf("%d row(s)", n),
		}
	}
	return nil
}

// assertFinalState checks that exactly one row matches the assertion and
// holds the expected values. Columns not listed in Expect are ignored.
func assertFinalState(ctx context.Context, actx *AssertionContext, assertion Assertion) error {
	t, ok := actx.Tables[assertion.Table]
	if !ok {
		return fmt.Errorf("final_state: unknown table %q", assertion.Table)
	}
	q, err := stateQuery(t, assertion)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}

	// Two rows are enough to tell an ambiguous assertion.
	rows, err := store.Fetch(ctx, actx.Store, q.Select().Limit(2), t.Decoder())
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	whereDesc := formatWhere(assertion.Where)
	switch len(rows) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := t.PlainMap(rows[0])
	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in columns: %v", key, t.Columns().Names()),
			}
		}

		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// formatWhere creates a human-readable description of the filters.
func formatWhere(where []string) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	return strings.Join(where, " AND ")
}

// stateValuesEqual compares a value from scenario YAML with one read back
// from a table. SQLite keeps booleans as integers and YAML decodes numbers
// as int or float64, so numeric kinds compare by value.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	switch exp := expected.(type) {
	case string:
		act, ok := actual.(string)
		return ok && exp == act
	case bool:
		switch act := actual.(type) {
		case bool:
			return exp == act
		case int64:
			return exp == (act != 0)
		}
		return false
	case int:
		return numberEqual(float64(exp), actual)
	case int64:
		return numberEqual(float64(exp), actual)
	case float64:
		return numberEqual(exp, actual)
	}

	return reflect.DeepEqual(expected, actual)
}

func numberEqual(exp float64, actual any) bool {
	switch act := actual.(type) {
	case int64:
		return exp == float64(act)
	case uint64:
		return exp == float64(act)
	case float64:
		return exp == act || (math.IsNaN(exp) && math.IsNaN(act))
	}
	return false
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store  *store.Store
	Ctx    context.Context
	Tables map[string]*compiler.Table
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for row_count and
// final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertRowCount, AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
				break
			}
			ctx := actx.Ctx
			if ctx == nil {
				ctx = context.Background()
			}
			if assertion.Type == AssertRowCount {
				err = assertRowCount(ctx, actx, assertion)
			} else {
				err = assertFinalState(ctx, actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
