package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/structq/internal/query"
	"github.com/roach88/structq/internal/testutil"
)

func TestSnapshot(t *testing.T) {
	ins := query.InsertRows(testutil.Tags.Table, testutil.Tag{ID: 1, Title: "car"})

	assert.Equal(t, "INSERT INTO \"tags\" (\"id\", \"title\") VALUES (?, ?)\n-- 1: 1\n-- 2: 'car'\n", string(Snapshot(ins)))
}

func TestSnapshot_EmptyStatement(t *testing.T) {
	upd := query.All(testutil.Tags.Table).Update()

	got := string(Snapshot(upd))
	assert.Contains(t, got, "-- empty statement\n")
	assert.Contains(t, got, "UPDATE without assignments")
}

func TestTraceSnapshot(t *testing.T) {
	count := int64(2)
	result := &Result{Trace: []TraceEvent{
		{Seq: 1, Phase: "setup", Table: "tags", Statement: "insert", SQL: `INSERT INTO "tags" ("title") VALUES (?)`, Bindings: []string{"'car'"}, Changed: 1},
		{Seq: 2, Phase: "flow", Table: "tags", Statement: "count", SQL: `SELECT COUNT(*) FROM "tags"`, Count: &count},
		{Seq: 3, Phase: "flow", Table: "tags", Statement: "select", SQL: `SELECT "tags"."id" FROM "tags"`, Rows: []map[string]any{}},
		{Seq: 4, Phase: "flow", Table: "tags", Statement: "update", Diagnostics: []string{"D005: UPDATE without assignments renders no SQL"}},
		{Seq: 5, Phase: "flow", Table: "tags", Statement: "insert", SQL: `INSERT INTO "tags" DEFAULT VALUES`, Error: "exec: constraint failed"},
	}}

	assert.Equal(t, `[1] setup insert tags
INSERT INTO "tags" ("title") VALUES (?)
-- 1: 'car'
-- changed 1
[2] flow count tags
SELECT COUNT(*) FROM "tags"
-- count 2
[3] flow select tags
SELECT "tags"."id" FROM "tags"
-- 0 row(s)
[4] flow update tags
-- empty statement
-- D005: UPDATE without assignments renders no SQL
[5] flow insert tags
INSERT INTO "tags" DEFAULT VALUES
-- error: exec: constraint failed
`, string(TraceSnapshot(result)))
}
