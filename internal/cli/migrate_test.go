package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structq/internal/compiler"
	"github.com/roach88/structq/internal/config"
	"github.com/roach88/structq/internal/store"
)

// dbOptions are root options pointing at a fresh database file.
func dbOptions(t *testing.T, format string) (*RootOptions, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	return &RootOptions{
		Format: format,
		Config: &config.Config{
			Placeholder: "question",
			Driver:      store.DriverPure,
			Database:    path,
			Format:      format,
		},
	}, path
}

func TestMigrateCommand(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})
	opts, path := dbOptions(t, "text")

	out, _, err := runCommand(t, NewMigrateCommand(opts), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Migrated "+path+" to version 1 (2 table(s))")

	s, err := store.Open(path, store.Options{Driver: store.DriverPure})
	require.NoError(t, err)
	defer s.Close()

	var names []string
	rows, err := s.DB().Query(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"reminders", "tags"}, names)
}

func TestMigrateCommandIsIdempotent(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})
	opts, _ := dbOptions(t, "json")

	_, _, err := runCommand(t, NewMigrateCommand(opts), dir)
	require.NoError(t, err)
	out, _, err := runCommand(t, NewMigrateCommand(opts), dir)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   MigrateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Version)
	assert.Equal(t, []string{"tags", "reminders"}, resp.Data.Tables)
}

func TestMigrateCommandErrors(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})

	_, _, err := runCommand(t, NewMigrateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeDatabase)
	assert.Contains(t, err.Error(), "no database")

	bad := writeSchema(t, map[string]string{"bad.cue": `
package schema

table: tags: {
	primary_key: "uuid"
	columns: id: int
}
`})
	opts, _ := dbOptions(t, "text")
	_, _, err = runCommand(t, NewMigrateCommand(opts), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E106")
}

func TestFetchCommand(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})
	opts, path := dbOptions(t, "json")
	_, _, err := runCommand(t, NewMigrateCommand(opts), dir)
	require.NoError(t, err)

	reminders := loadTable(t, "reminders")
	s, err := store.Open(path, store.Options{Driver: store.DriverPure})
	require.NoError(t, err)
	for _, set := range [][]string{
		{"id=1", "title=walk"},
		{"id=2", "title=read", "isCompleted=true"},
		{"id=3", "title=old", "deletedAt=2024-01-01"},
	} {
		st, err := reminders.Statement(compiler.Request{Kind: "insert", Set: set})
		require.NoError(t, err)
		_, err = s.Exec(context.Background(), st)
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	fetch := func(args ...string) FetchResult {
		t.Helper()
		out, _, err := runCommand(t, NewFetchCommand(opts), append([]string{dir, "reminders"}, args...)...)
		require.NoError(t, err)
		var resp struct {
			Status string      `json:"status"`
			Data   FetchResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data
	}

	all := fetch()
	assert.Equal(t, []string{"id", "title", "isCompleted", "tagID", "deletedAt"}, all.Columns)
	require.Len(t, all.Rows, 2)
	assert.Equal(t, "walk", all.Rows[0]["title"])
	assert.Nil(t, all.Rows[0]["tagID"])

	assert.Len(t, fetch("--unscoped").Rows, 3)
	assert.Len(t, fetch("--limit", "1").Rows, 1)

	done := fetch("--where", "isCompleted=true")
	require.Len(t, done.Rows, 1)
	assert.Equal(t, "read", done.Rows[0]["title"])
}

func TestFetchCommandText(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})
	opts, _ := dbOptions(t, "text")
	_, _, err := runCommand(t, NewMigrateCommand(opts), dir)
	require.NoError(t, err)

	out, _, err := runCommand(t, NewFetchCommand(opts), dir, "tags")
	require.NoError(t, err)
	assert.Regexp(t, `^id\s+title\n\(0 row\(s\)\)\n$`, out)
}

func TestFetchCommandErrors(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})
	opts, _ := dbOptions(t, "text")

	_, _, err := runCommand(t, NewFetchCommand(opts), dir, "tags", "--where", "color=red")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeBadArgument)

	// The database exists but was never migrated.
	_, _, err = runCommand(t, NewFetchCommand(opts), dir, "tags")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeDatabase)
	assert.Contains(t, err.Error(), "no such table")
}
