package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structq/internal/config"
	"github.com/roach88/structq/internal/store"
)

const (
	projectSchema    = "../../testdata/schema"
	projectScenarios = "../../testdata/scenarios"
)

func testOptions(format string) *RootOptions {
	return &RootOptions{
		Format: format,
		Config: &config.Config{Placeholder: "question", Driver: store.DriverPure, Format: format},
	}
}

const failingScenario = `
name: failing
description: Expects a row that is never inserted
flow:
  - table: tags
    statement: select
    expect:
      rows: 1
assertions:
  - type: row_count
    table: tags
    count: 0
`

func TestTestCommand(t *testing.T) {
	out, _, err := runCommand(t, NewTestCommand(testOptions("text")), projectSchema, projectScenarios)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ soft_delete_lists")
	assert.Contains(t, out, "✓ upsert_tags")
	assert.Contains(t, out, "✓ reminders_defaults")
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := runCommand(t, NewTestCommand(testOptions("json")), projectSchema, projectScenarios, "--filter", "upsert_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "upsert_tags", resp.Data.Scenarios[0].Name)
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failing.yaml"), []byte(failingScenario), 0o644))

	out, _, err := runCommand(t, NewTestCommand(testOptions("text")), projectSchema, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "flow[0] select tags: expected 1 row(s), got 0")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")

	out, _, err = runCommand(t, NewTestCommand(testOptions("json")), projectSchema, dir)
	require.Error(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	scenario, err := os.ReadFile(filepath.Join(projectScenarios, "upsert_tags.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "upsert_tags.yaml"), scenario, 0o644))

	out, _, err := runCommand(t, NewTestCommand(testOptions("text")), projectSchema, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ upsert_tags")

	goldenPath := filepath.Join(dir, "golden", "upsert_tags.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), "[1] setup upsert tags\n")
	assert.Contains(t, string(golden), "-- error: ")

	_, _, err = runCommand(t, NewTestCommand(testOptions("text")), projectSchema, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("stale\n"), 0o644))
	out, _, err = runCommand(t, NewTestCommand(testOptions("text")), projectSchema, dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandErrors(t *testing.T) {
	_, _, err := runCommand(t, NewTestCommand(testOptions("text")), projectSchema, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")

	out, _, err := runCommand(t, NewTestCommand(testOptions("text")), projectSchema, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))
	out, _, err = runCommand(t, NewTestCommand(testOptions("text")), projectSchema, dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
