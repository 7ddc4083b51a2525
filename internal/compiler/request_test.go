package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structq/internal/ir"
)

func TestStatementFromRequest(t *testing.T) {
	lists := buildFixture(t, "table.remindersLists")

	tests := []struct {
		name string
		req  Request
		sql  string
	}{
		{
			name: "select scoped",
			req:  Request{Kind: "select", Where: []string{"title=home"}},
			sql:  `SELECT "remindersLists"."id", "remindersLists"."title", "remindersLists"."position", "remindersLists"."deletedAt" FROM "remindersLists" WHERE "remindersLists"."deletedAt" IS NULL AND "remindersLists"."title" = 'home'`,
		},
		{
			name: "count by key",
			req:  Request{Kind: "count", Keys: []string{"1", "2"}},
			sql:  `SELECT COUNT(*) FROM "remindersLists" WHERE "remindersLists"."deletedAt" IS NULL AND "remindersLists"."id" IN (1, 2)`,
		},
		{
			name: "insert defaults the rest",
			req:  Request{Kind: "insert", Set: []string{"title=home"}},
			sql:  `INSERT INTO "remindersLists" ("title") VALUES ('home')`,
		},
		{
			name: "soft delete is an update",
			req:  Request{Kind: "update", Set: []string{"deletedAt=2024-01-01"}, Keys: []string{"3"}},
			sql:  `UPDATE "remindersLists" SET "deletedAt" = '2024-01-01' WHERE "remindersLists"."deletedAt" IS NULL AND "remindersLists"."id" IN (3)`,
		},
		{
			name: "create",
			req:  Request{Kind: "create"},
			sql:  `CREATE TABLE IF NOT EXISTS "remindersLists" ("id" INTEGER PRIMARY KEY, "title" TEXT NOT NULL DEFAULT (''), "position" INTEGER NOT NULL DEFAULT (0), "deletedAt" TEXT)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := lists.Statement(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, st.Fragment().String())
		})
	}
}

func TestStatementFromRequestErrors(t *testing.T) {
	keyless, err := Build(&TableSpec{Name: "events", Columns: []ColumnSpec{{Name: "name", Type: "TEXT"}}})
	require.NoError(t, err)
	lists := buildFixture(t, "table.remindersLists")

	tests := []struct {
		name  string
		table *Table
		req   Request
		want  string
	}{
		{"keys without primary key", keyless, Request{Kind: "select", Keys: []string{"1"}}, "keys need a primary key"},
		{"upsert without primary key", keyless, Request{Kind: "upsert", Set: []string{"name=a"}}, "upsert needs a primary key"},
		{"trigger without primary key", keyless, Request{Kind: "trigger"}, "trigger needs a primary key"},
		{"find without keys", lists, Request{Kind: "find"}, "find needs at least one key"},
		{"unknown insert column", lists, Request{Kind: "insert", Set: []string{"color=red"}}, `no column "color"`},
		{"bad pair", lists, Request{Kind: "select", Where: []string{"=1"}}, "expected column=value"},
		{"unknown kind", lists, Request{Kind: "truncate"}, `unknown statement "truncate"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.table.Statement(tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRequestReads(t *testing.T) {
	assert.True(t, Request{Kind: "select"}.Reads())
	assert.True(t, Request{Kind: "find"}.Reads())
	assert.True(t, Request{Kind: "delete", Returning: true}.Reads())
	assert.False(t, Request{Kind: "delete"}.Reads())
	assert.False(t, Request{Kind: "create"}.Reads())
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"", ""},
		{"5", 5},
		{"true", true},
		{"null", nil},
		{"car", "car"},
		{"'5'", "5"},
		{"1.5", 1.5},
		{"[1, 2]", "[1, 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseValue(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlain(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Nil(t, Plain(ir.Null{}))
	assert.Equal(t, int64(3), Plain(ir.Int(3)))
	assert.Equal(t, true, Plain(ir.Bool(true)))
	assert.Equal(t, "car", Plain(ir.Text("car")))
	assert.Equal(t, 1.5, Plain(ir.Double(1.5)))
	assert.Equal(t, at, Plain(ir.NewDate(at)))
}
