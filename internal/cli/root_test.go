package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structq/internal/config"
	"github.com/roach88/structq/internal/ir"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "structq", cmd.Use)
	assert.Equal(t, ir.Version, cmd.Version)
	assert.Contains(t, cmd.Long, "structq.yaml")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "describe", "render", "migrate", "fetch", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "placeholder", "pretty", "db", "driver"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRenderCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	renderCmd, _, err := cmd.Find([]string{"render"})
	require.NoError(t, err)

	statementFlag := renderCmd.Flags().Lookup("statement")
	require.NotNil(t, statementFlag)
	assert.Equal(t, "s", statementFlag.Shorthand)
	assert.Equal(t, "select", statementFlag.DefValue)

	for _, name := range []string{"set", "where", "key", "returning", "view", "event"} {
		assert.NotNil(t, renderCmd.Flags().Lookup(name), name)
	}
}

func TestFetchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	fetchCmd, _, err := cmd.Find([]string{"fetch"})
	require.NoError(t, err)

	limitFlag := fetchCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "0", limitFlag.DefValue)
	assert.NotNil(t, fetchCmd.Flags().Lookup("unscoped"))
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.True(t, isValidFormat("yaml"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := NewRootCommand()
	_, _, err := runCommand(t, cmd, "--format", "invalid", "validate", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommandPlaceholderFromConfig(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(config.FileName, []byte("placeholder: dollar\n"), 0o644))

	out, _, err := runCommand(t, NewRootCommand(), "render", dir, "tags", "--key", "1", "--key", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `WHERE "tags"."id" IN ($1, $2)`)

	out, _, err = runCommand(t, NewRootCommand(), "render", dir, "tags", "--key", "1", "--placeholder", "colon")
	require.NoError(t, err)
	assert.Contains(t, out, `IN (:1)`)
}

func TestRootCommandMigrateAndFetch(t *testing.T) {
	dir := writeSchema(t, map[string]string{"schema.cue": tagsSchema})
	db := filepath.Join(t.TempDir(), "app.db")
	t.Chdir(t.TempDir())
	t.Setenv("STRUCTQ_DRIVER", "sqlite")

	_, _, err := runCommand(t, NewRootCommand(), "migrate", dir, "--db", db)
	require.NoError(t, err)

	out, _, err := runCommand(t, NewRootCommand(), "--format", "yaml", "fetch", dir, "tags", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "status: ok")
	assert.Contains(t, out, "table: tags")
}
