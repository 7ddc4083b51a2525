package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/structq/internal/compiler"
)

// runCommand executes cmd with args and returns what it wrote.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidateValidSchema(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})

	out, _, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema valid (2 table(s))")
}

func TestValidateValidSchemaJSON(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})

	out, _, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(2), data["tables"])
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, _, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E005") // ErrCodeNotFound
	assert.Contains(t, out, "not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, _, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateInvalidSchema(t *testing.T) {
	dir := writeSchema(t, map[string]string{"bad.cue": `
package schema

table: tags: {
	primary_key: "uuid"
	columns: id: int
}
`})

	out, _, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, compiler.ErrInvalidPrimaryKey)
	assert.Contains(t, out, "uuid")
}

func TestValidateInvalidSchemaYAML(t *testing.T) {
	dir := writeSchema(t, map[string]string{"bad.cue": `
package schema

table: reminders: columns: {
	id:    int
	tagID: {type: int, references: "tags.id"}
}
`})

	out, _, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "yaml"}), dir)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, compiler.ErrInvalidReference, resp.Error.Code)
}

func TestValidateCollectsEveryError(t *testing.T) {
	dir := writeSchema(t, map[string]string{
		"a.cue": "package schema\n\ntable: a: columns: x: _\n",
		"b.cue": "package schema\n\ntable: b: {\n\tsoft_delete: \"gone\"\n\tcolumns: id: int\n}\n",
	})

	result, errs := ValidateSchemaDir(dir)
	require.Empty(t, errs)
	require.NotNil(t, result)
	assert.False(t, result.Valid)
	assert.Equal(t, 1, result.Tables)
	require.Len(t, result.Errors, 2)

	codes := []string{result.Errors[0].Code, result.Errors[1].Code}
	assert.Contains(t, codes, ErrCodeInvalidType)
	assert.Contains(t, codes, compiler.ErrInvalidSoftDelete)
}

func TestValidateReportsCycleWarnings(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": `
package schema

table: nodes: {
	primary_key: "id"
	columns: {
		id:       int
		parentID: {type: int, nullable: true, references: "nodes.id"}
	}
}
`})

	result, errs := ValidateSchemaDir(dir)
	require.Empty(t, errs)
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "info", result.Warnings[0].Level)

	out, _, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Self-referencing table: nodes → nodes")
}

func TestValidateVerboseOutput(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})

	_, stderr, err := runCommand(t, NewValidateCommand(&RootOptions{Format: "text", Verbose: true}), dir)
	require.NoError(t, err)

	// Verbose logs go to stderr to avoid corrupting JSON output
	assert.Contains(t, stderr, "Validated 2 table(s)")
}

func TestValidateSchemaDirMissing(t *testing.T) {
	result, errs := ValidateSchemaDir("/nonexistent/directory")
	assert.Nil(t, result)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "not found")
}
