package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structq/internal/ir"
)

const remindersSchema = `
	table: remindersLists: {
		primary_key: "id"
		soft_delete: "deletedAt"
		columns: {
			id: int
			title: {type: string, default: ""}
			position: {type: int, default: 0}
			deletedAt: string | null
		}
	}

	table: reminders: {
		primary_key: "id"
		columns: {
			id: int
			remindersListID: {type: int, references: "remindersLists.id"}
			title: string
			notes: string | null
			priority: {type: string, default: "low"}
			isCompleted: {type: bool, default: false}
			ratio: float
			photo: bytes | null
			tags: [...string]
			amount: {sql: "numeric"}
			search: {type: string, generated: true, expression: "lower(title)"}
		}
	}
`

func compileFixture(t *testing.T, src, path string) *TableSpec {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())

	spec, err := CompileTable(v.LookupPath(cue.ParsePath(path)))
	require.NoError(t, err)
	return spec
}

func TestCompileTableBasic(t *testing.T) {
	spec := compileFixture(t, remindersSchema, "table.remindersLists")

	assert.Equal(t, "remindersLists", spec.Name)
	assert.Equal(t, "id", spec.PrimaryKey)
	assert.Equal(t, "deletedAt", spec.SoftDelete)
	require.Len(t, spec.Columns, 4)

	assert.Equal(t, ColumnSpec{Name: "id", Type: "INTEGER", Pos: spec.Columns[0].Pos}, spec.Columns[0])
	assert.Equal(t, ir.Text(""), spec.Columns[1].Default)
	assert.Equal(t, ir.Int(0), spec.Columns[2].Default)
	assert.True(t, spec.Columns[3].Nullable)
	assert.Equal(t, "TEXT", spec.Columns[3].Type)
}

func TestCompileTableKeepsDeclarationOrder(t *testing.T) {
	spec := compileFixture(t, remindersSchema, "table.reminders")

	var names []string
	for _, c := range spec.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"id", "remindersListID", "title", "notes", "priority", "isCompleted",
		"ratio", "photo", "tags", "amount", "search",
	}, names)
}

func TestCompileTableTypes(t *testing.T) {
	spec := compileFixture(t, remindersSchema, "table.reminders")

	tests := []struct {
		column   string
		sqlType  string
		nullable bool
	}{
		{"id", "INTEGER", false},
		{"title", "TEXT", false},
		{"notes", "TEXT", true},
		{"isCompleted", "BOOLEAN", false},
		{"ratio", "REAL", false},
		{"photo", "BLOB", true},
		{"tags", "TEXT", false},
		{"amount", "NUMERIC", false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			c, ok := spec.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.sqlType, c.Type)
			assert.Equal(t, tt.nullable, c.Nullable)
		})
	}
}

func TestCompileTableColumnDetails(t *testing.T) {
	spec := compileFixture(t, remindersSchema, "table.reminders")

	fk, _ := spec.Column("remindersListID")
	assert.Equal(t, "remindersLists.id", fk.References)

	priority, _ := spec.Column("priority")
	assert.Equal(t, ir.Text("low"), priority.Default)

	done, _ := spec.Column("isCompleted")
	assert.Equal(t, ir.Bool(false), done.Default)

	search, _ := spec.Column("search")
	assert.True(t, search.Generated)
	assert.Equal(t, "lower(title)", search.Expression)
	assert.Nil(t, search.Default)
}

func TestCompileTableNameOverrideAndSchema(t *testing.T) {
	spec := compileFixture(t, `
		table: t: {
			name: "tags"
			schema: "aux"
			columns: { id: int }
		}
	`, "table.t")

	assert.Equal(t, "tags", spec.Name)
	assert.Equal(t, "aux", spec.Schema)
	assert.Empty(t, spec.PrimaryKey)
}

func TestCompileTableNormalizesNames(t *testing.T) {
	spec := compileFixture(t, "table: t: columns: { \"cafe\u0301\": string }", "table.t")

	require.Len(t, spec.Columns, 1)
	assert.Equal(t, "caf\u00e9", spec.Columns[0].Name)
}

func TestCompileTableNoColumns(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`table: empty: { primary_key: "id" }`)
	require.NoError(t, v.Err())

	_, err := CompileTable(v.LookupPath(cue.ParsePath("table.empty")))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "columns", compileErr.Field)
}

func TestCompileTableUnsupportedType(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`table: t: columns: { anything: _ }`, cue.Filename("schema.cue"))
	require.NoError(t, v.Err())

	_, err := CompileTable(v.LookupPath(cue.ParsePath("table.t")))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "type", compileErr.Field)
	assert.Contains(t, err.Error(), "unsupported type kind")
}

func TestCompileTableNonConcreteDefault(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`table: t: columns: { n: {type: int, default: int} }`)
	require.NoError(t, v.Err())

	_, err := CompileTable(v.LookupPath(cue.ParsePath("table.t")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default must be a concrete value")
}

func TestCompileTableWrongFieldType(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`table: t: { primary_key: 1, columns: { id: int } }`)
	require.NoError(t, v.Err())

	_, err := CompileTable(v.LookupPath(cue.ParsePath("table.t")))
	require.Error(t, err)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "columns", Message: "at least one column is required"}
	assert.Equal(t, "columns: at least one column is required", err.Error())
}
