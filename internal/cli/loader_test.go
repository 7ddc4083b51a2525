package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tagsSchema = `
package schema

table: tags: {
	primary_key: "id"
	columns: {
		id:    int
		title: string
	}
}

table: reminders: {
	primary_key: "id"
	soft_delete: "deletedAt"
	columns: {
		id:          int
		title:       {type: string, default: ""}
		isCompleted: {type: bool, default: false}
		tagID:       {type: int, nullable: true, references: "tags.id"}
		deletedAt:   string | null
	}
}
`

// writeSchema writes files into a fresh directory and returns it.
func writeSchema(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadTables(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})

	result, errs := LoadTables(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Specs, 2)
	assert.Equal(t, 1, result.FileCount)

	assert.Equal(t, "tags", result.Specs[0].Name)
	assert.Equal(t, "reminders", result.Specs[1].Name)

	spec, ok := result.Spec("reminders")
	require.True(t, ok)
	assert.Equal(t, "deletedAt", spec.SoftDelete)
	assert.Equal(t, "schema.cue", filepath.Base(spec.Pos.Filename()))
}

func TestLoadResultTable(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})
	result, errs := LoadTables(dir, LoadModeFailFast)
	require.Empty(t, errs)

	tags, err := result.Table("tags")
	require.NoError(t, err)
	require.NotNil(t, tags.Keyed)
	assert.Equal(t, []string{"id", "title"}, tags.Columns().Names())

	_, err = result.Table("missing")
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeUnknownTable, loadErr.Code)
}

func TestLoadTablesErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		code  string
	}{
		{"no files", nil, ErrCodeNoFiles},
		{"no tables", map[string]string{"empty.cue": "package schema\n\nother: 1\n"}, ErrCodeGeneric},
		{"bad cue", map[string]string{"bad.cue": "package schema\n\ntable: {\n"}, ErrCodeLoadFailed},
		{"bad type", map[string]string{"bad.cue": "package schema\n\ntable: t: columns: x: _\n"}, ErrCodeInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := LoadTables(writeSchema(t, tt.files), LoadModeFailFast)
			require.NotEmpty(t, errs)

			var loadErr *LoadError
			require.ErrorAs(t, errs[0], &loadErr)
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestLoadTablesMissingDirectory(t *testing.T) {
	result, errs := LoadTables(filepath.Join(t.TempDir(), "absent"), LoadModeCollectAll)
	assert.Nil(t, result)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "schema directory not found")
}

func TestLoadTablesCollectAll(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": `
package schema

table: a: columns: x: _
table: b: columns: y: _
table: c: columns: z: int
`})

	result, errs := LoadTables(dir, LoadModeCollectAll)
	require.NotNil(t, result)
	assert.Len(t, errs, 2)
	require.Len(t, result.Specs, 1)
	assert.Equal(t, "c", result.Specs[0].Name)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"columns", ErrCodeNoColumns},
		{"type", ErrCodeInvalidType},
		{"default", ErrCodeInvalidField},
		{"unknown", ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}
