package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(name string, refs ...string) *TableSpec {
	spec := &TableSpec{Name: name, Columns: []ColumnSpec{{Name: "id", Type: "INTEGER"}}}
	for _, r := range refs {
		spec.Columns = append(spec.Columns, ColumnSpec{Name: r + "ID", Type: "INTEGER", References: r + ".id"})
	}
	return spec
}

func names(specs []*TableSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}

// TestCreationOrder_Empty tests that empty input produces no tables.
func TestCreationOrder_Empty(t *testing.T) {
	ordered, warnings := CreationOrder(nil)
	assert.Empty(t, ordered)
	assert.Empty(t, warnings)
}

// TestCreationOrder_Independent keeps declaration order.
func TestCreationOrder_Independent(t *testing.T) {
	ordered, warnings := CreationOrder([]*TableSpec{table("tags"), table("lists"), table("items")})
	assert.Equal(t, []string{"tags", "lists", "items"}, names(ordered))
	assert.Empty(t, warnings)
}

// TestCreationOrder_DAG puts referenced tables first.
func TestCreationOrder_DAG(t *testing.T) {
	specs := []*TableSpec{
		table("reminderTags", "reminders", "tags"),
		table("reminders", "remindersLists"),
		table("tags"),
		table("remindersLists"),
	}

	ordered, warnings := CreationOrder(specs)
	assert.Equal(t, []string{"remindersLists", "reminders", "tags", "reminderTags"}, names(ordered))
	assert.Empty(t, warnings)
}

// TestCreationOrder_SelfReference is informational.
func TestCreationOrder_SelfReference(t *testing.T) {
	ordered, warnings := CreationOrder([]*TableSpec{table("reminders", "reminders")})

	assert.Equal(t, []string{"reminders"}, names(ordered))
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"reminders", "reminders"}, warnings[0].Path)
	assert.Equal(t, "info", warnings[0].Level)
}

// TestCreationOrder_Cycle reports mutually referencing tables.
func TestCreationOrder_Cycle(t *testing.T) {
	specs := []*TableSpec{table("a", "b"), table("b", "a"), table("c", "a")}

	ordered, warnings := CreationOrder(specs)
	require.Len(t, ordered, 3)
	assert.Equal(t, "c", ordered[2].Name)

	require.Len(t, warnings, 1)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Len(t, warnings[0].Path, 3)
	assert.Equal(t, warnings[0].Path[0], warnings[0].Path[2])
	assert.Contains(t, warnings[0].Message, "Reference cycle detected")
}

// TestCreationOrder_UnknownReference ignores tables outside the set.
func TestCreationOrder_UnknownReference(t *testing.T) {
	ordered, warnings := CreationOrder([]*TableSpec{table("reminders", "users")})
	assert.Equal(t, []string{"reminders"}, names(ordered))
	assert.Empty(t, warnings)
}
