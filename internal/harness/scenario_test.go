package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `
name: upsert_tags
description: Upserts replace titles
setup:
  - table: tags
    statement: insert
    set: [id=1, title=car]
flow:
  - table: tags
    statement: upsert
    set: [id=1, title=kids]
    returning: true
    expect:
      changed: 1
      sql: 'INSERT INTO "tags" ("id", "title") VALUES (?, ?)'
  - table: tags
    statement: find
    keys: ["1", "2"]
    expect:
      rows: 1
assertions:
  - type: trace_order
    statements: [insert, upsert]
  - type: final_state
    table: tags
    where: [id=1]
    expect:
      title: kids
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "upsert_tags", s.Name)
	require.Len(t, s.Setup, 1)
	assert.Equal(t, "tags", s.Setup[0].Table)
	assert.Equal(t, "insert", s.Setup[0].Kind)
	assert.Equal(t, []string{"id=1", "title=car"}, s.Setup[0].Set)

	require.Len(t, s.Flow, 2)
	upsert := s.Flow[0]
	assert.True(t, upsert.Returning)
	require.NotNil(t, upsert.Expect)
	require.NotNil(t, upsert.Expect.Changed)
	assert.Equal(t, int64(1), *upsert.Expect.Changed)
	require.NotNil(t, upsert.Expect.SQL)
	assert.Nil(t, upsert.Expect.Rows)
	assert.Equal(t, []string{"1", "2"}, s.Flow[1].Keys)

	require.Len(t, s.Assertions, 2)
	assert.Equal(t, []string{"insert", "upsert"}, s.Assertions[0].Statements)
	assert.Equal(t, map[string]any{"title": "kids"}, s.Assertions[1].Expect)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "upsert_tags", s.Name)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: misspelled key
flow:
  - table: tags
    statment: select
assertions:
  - type: row_count
    table: tags
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
	assert.Contains(t, err.Error(), "statment")
}

func TestParseScenario_Validation(t *testing.T) {
	const flow = `
flow:
  - table: tags
    statement: select
`
	const assertions = `
assertions:
  - type: row_count
    table: tags
`
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "description: d" + flow + assertions, "name is required"},
		{"missing description", "name: n" + flow + assertions, "description is required"},
		{"missing flow", "name: n\ndescription: d" + assertions, "flow list is required"},
		{"missing assertions", "name: n\ndescription: d" + flow, "assertions list is required"},
		{
			"step without table",
			"name: n\ndescription: d\nflow:\n  - statement: select" + assertions,
			"flow[0]: table is required",
		},
		{
			"step without statement",
			"name: n\ndescription: d\nflow:\n  - table: tags" + assertions,
			"flow[0]: statement is required",
		},
		{
			"unknown statement",
			"name: n\ndescription: d\nflow:\n  - table: tags\n    statement: truncate" + assertions,
			`flow[0]: unknown statement "truncate"`,
		},
		{
			"expect in setup",
			"name: n\ndescription: d\nsetup:\n  - table: tags\n    statement: select\n    expect: {rows: 1}" + flow + assertions,
			"setup[0]: expect is only allowed in flow steps",
		},
		{
			"assertion without type",
			"name: n\ndescription: d" + flow + "\nassertions:\n  - table: tags",
			"assertions[0]: type is required",
		},
		{
			"unknown assertion",
			"name: n\ndescription: d" + flow + "\nassertions:\n  - type: trace_exists",
			`unknown assertion type "trace_exists"`,
		},
		{
			"trace_contains without sql",
			"name: n\ndescription: d" + flow + "\nassertions:\n  - type: trace_contains",
			"sql is required for trace_contains",
		},
		{
			"trace_order without statements",
			"name: n\ndescription: d" + flow + "\nassertions:\n  - type: trace_order",
			"statements list is required for trace_order",
		},
		{
			"trace_count without statement",
			"name: n\ndescription: d" + flow + "\nassertions:\n  - type: trace_count\n    count: 1",
			"statement is required for trace_count",
		},
		{
			"negative row_count",
			"name: n\ndescription: d" + flow + "\nassertions:\n  - type: row_count\n    table: tags\n    count: -1",
			"count must be non-negative for row_count",
		},
		{
			"final_state without expect",
			"name: n\ndescription: d" + flow + "\nassertions:\n  - type: final_state\n    table: tags",
			"expect is required for final_state",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
