package harness

import (
	"context"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structq/internal/compiler"
	"github.com/roach88/structq/internal/testutil"
)

const testSchema = `
table: lists: {
	primary_key: "id"
	soft_delete: "deletedAt"
	columns: {
		id:        int
		title:     {type: string, default: ""}
		deletedAt: string | null
	}
}

table: tags: {
	primary_key: "id"
	columns: {
		id:    int
		title: string
	}
}
`

// testTables compiles the tables under table: in src.
func testTables(t *testing.T, src string) []*compiler.Table {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())

	iter, err := v.LookupPath(cue.ParsePath("table")).Fields()
	require.NoError(t, err)

	var tables []*compiler.Table
	for iter.Next() {
		spec, err := compiler.CompileTable(iter.Value())
		require.NoError(t, err)
		tbl, err := compiler.Build(spec)
		require.NoError(t, err)
		tables = append(tables, tbl)
	}
	return tables
}

func run(t *testing.T, scenario *Scenario) *Result {
	t.Helper()
	result, err := Run(context.Background(), scenario, testTables(t, testSchema), Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func step(table, kind string, set ...string) Step {
	return Step{Table: table, Request: compiler.Request{Kind: kind, Set: set}}
}

func TestRun_MinimalScenario(t *testing.T) {
	result := run(t, &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Flow:        []Step{step("tags", "insert", "id=1", "title=car")},
		Assertions:  []Assertion{{Type: AssertTraceContains, SQL: `INSERT INTO "tags"`}},
	})

	assert.True(t, result.Pass, result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	event := result.Trace[0]
	assert.Equal(t, 1, event.Seq)
	assert.Equal(t, "flow", event.Phase)
	assert.Equal(t, `INSERT INTO "tags" ("id", "title") VALUES (?, ?)`, event.SQL)
	assert.Equal(t, []string{"1", "'car'"}, event.Bindings)
	assert.Equal(t, int64(1), event.Changed)
}

func TestRun_WithSetup(t *testing.T) {
	result := run(t, &Scenario{
		Name:        "with_setup",
		Description: "Test scenario with setup steps",
		Setup: []Step{
			step("tags", "insert", "id=1", "title=car"),
			step("tags", "insert", "id=2", "title=kids"),
		},
		Flow:       []Step{{Table: "tags", Request: compiler.Request{Kind: "select"}}},
		Assertions: []Assertion{{Type: AssertRowCount, Table: "tags", Count: 2}},
	})

	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 3)
	assert.Equal(t, "setup", result.Trace[0].Phase)
	assert.Equal(t, 3, result.Trace[2].Seq)

	rows := result.Trace[2].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"id": int64(1), "title": "car"}, rows[0])
}

func TestRun_SetupFailureStops(t *testing.T) {
	_, err := Run(context.Background(), &Scenario{
		Name:        "bad_setup",
		Description: "Setup referencing an unknown table",
		Setup:       []Step{step("missing", "insert", "id=1")},
		Flow:        []Step{step("tags", "select")},
		Assertions:  []Assertion{{Type: AssertRowCount, Table: "tags"}},
	}, testTables(t, testSchema), Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `setup step 0: unknown table "missing"`)
}

func TestRun_ExpectClauses(t *testing.T) {
	sql := `SELECT COUNT(*) FROM "lists" WHERE "lists"."deletedAt" IS NULL`
	one := int64(1)
	two := 2

	result := run(t, &Scenario{
		Name:        "expect",
		Description: "Every expect field is checked",
		Setup: []Step{
			step("lists", "insert", "id=1", "title=Home"),
			step("lists", "insert", "id=2", "title=Work", "deletedAt=2024-01-01"),
		},
		Flow: []Step{
			{Table: "lists", Request: compiler.Request{Kind: "count"}, Expect: &ExpectClause{SQL: &sql, Count: &one}},
			{Table: "lists", Request: compiler.Request{Kind: "select"}, Expect: &ExpectClause{Rows: &two}},
			{Table: "tags", Request: compiler.Request{Kind: "insert", Set: []string{"color=red"}}, Expect: &ExpectClause{Error: `no column "color"`}},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Statement: "count", Count: 1}},
	})

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "flow[1] select lists: expected 2 row(s), got 1", result.Errors[0])
}

func TestRun_UnexpectedError(t *testing.T) {
	result := run(t, &Scenario{
		Name:        "duplicate",
		Description: "A failing step without an expected error fails the scenario",
		Setup:       []Step{step("tags", "insert", "id=1", "title=car")},
		Flow:        []Step{step("tags", "insert", "id=1", "title=dup")},
		Assertions:  []Assertion{{Type: AssertRowCount, Table: "tags", Count: 1}},
	})

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "flow[0] insert tags: unexpected error:")
	assert.Contains(t, result.Errors[0], "UNIQUE constraint failed")
	assert.NotEmpty(t, result.Trace[1].Error)
}

func TestRun_ExpectedErrorThatDoesNotHappen(t *testing.T) {
	result := run(t, &Scenario{
		Name:        "no_error",
		Description: "An expected error must happen",
		Flow: []Step{{
			Table:   "tags",
			Request: compiler.Request{Kind: "insert", Set: []string{"id=1", "title=car"}},
			Expect:  &ExpectClause{Error: "constraint"},
		}},
		Assertions: []Assertion{{Type: AssertRowCount, Table: "tags", Count: 1}},
	})

	assert.False(t, result.Pass)
	assert.Equal(t, []string{`flow[0] insert tags: expected error containing "constraint", got success`}, result.Errors)
}

func TestRun_EmptyStatementSendsNothing(t *testing.T) {
	empty := ""
	zero := int64(0)

	result := run(t, &Scenario{
		Name:        "empty_update",
		Description: "An update without assignments renders no SQL",
		Flow: []Step{{
			Table:   "tags",
			Request: compiler.Request{Kind: "update"},
			Expect:  &ExpectClause{SQL: &empty, Changed: &zero},
		}},
		Assertions: []Assertion{{Type: AssertTraceCount, Statement: "update", Count: 1}},
	})

	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace[0].Diagnostics, 1)
	assert.Contains(t, result.Trace[0].Diagnostics[0], "UPDATE without assignments")
}

func TestRun_ReturningCountsRows(t *testing.T) {
	result := run(t, &Scenario{
		Name:        "returning",
		Description: "RETURNING reads the changed rows",
		Setup:       []Step{step("tags", "insert", "id=1", "title=car")},
		Flow: []Step{{
			Table:   "tags",
			Request: compiler.Request{Kind: "update", Set: []string{"title=bus"}, Returning: true},
		}},
		Assertions: []Assertion{{Type: AssertFinalState, Table: "tags", Where: []string{"id=1"}, Expect: map[string]any{"title": "bus"}}},
	})

	assert.True(t, result.Pass, result.Errors)
	event := result.Trace[1]
	assert.Equal(t, int64(1), event.Changed)
	require.Len(t, event.Rows, 1)
	assert.Equal(t, "bus", event.Rows[0]["title"])
}

func TestRun_DuplicateTable(t *testing.T) {
	tables := testTables(t, testSchema)
	_, err := Run(context.Background(), &Scenario{}, append(tables, tables[0]), Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "table lists defined twice")
}

func TestRun_CreatesReferencedTablesFirst(t *testing.T) {
	src := `
table: reminders: {
	primary_key: "id"
	columns: {
		id:     int
		listID: {type: int, references: "lists.id"}
	}
}

table: lists: {
	primary_key: "id"
	columns: id: int
}
`
	result, err := Run(context.Background(), &Scenario{
		Name:        "references",
		Description: "Referenced rows must exist",
		Setup: []Step{
			{Table: "lists", Request: compiler.Request{Kind: "insert", Set: []string{"id=1"}}},
		},
		Flow: []Step{
			{Table: "reminders", Request: compiler.Request{Kind: "insert", Set: []string{"id=1", "listID=1"}}},
			{Table: "reminders", Request: compiler.Request{Kind: "insert", Set: []string{"id=2", "listID=9"}}, Expect: &ExpectClause{Error: "FOREIGN KEY constraint failed"}},
		},
		Assertions: []Assertion{{Type: AssertRowCount, Table: "reminders", Count: 1}},
	}, testTables(t, src), Options{})

	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}
