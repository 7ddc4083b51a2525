package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/structq/internal/compiler"
	"github.com/roach88/structq/internal/config"
	"github.com/roach88/structq/internal/query"
	"github.com/roach88/structq/internal/store"
)

// MigrateResult is the migrate output.
type MigrateResult struct {
	Database string   `json:"database" yaml:"database"`
	Tables   []string `json:"tables" yaml:"tables"`
	Version  int      `json:"version" yaml:"version"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <schema-dir>",
		Short: "Create the schema's tables in a database",
		Long: `Create every table of a schema directory in a SQLite database, each after
the tables it references.

The tables are created by one migration tracked in PRAGMA user_version, so
running migrate again on the same database does nothing.`,
		Example: `  structq migrate schema --db app.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runMigrate(ctx context.Context, opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if ctx == nil {
		ctx = context.Background()
	}

	loadResult, errs := LoadTables(schemaDir, LoadModeFailFast)
	if len(errs) > 0 {
		return outputLoadError(formatter, errs[0])
	}
	if errs := compiler.ValidateSchema(loadResult.Specs); len(errs) > 0 {
		return outputCommandError(formatter, errs[0].Code, errs[0].Field+": "+errs[0].Message, nil)
	}

	s, err := openStore(opts)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error(), nil)
	}
	defer s.Close()

	ordered, _ := compiler.CreationOrder(loadResult.Specs)
	result := &MigrateResult{Database: opts.settings().Database}
	var migration store.Migration
	for _, spec := range ordered {
		t, err := compiler.Build(spec)
		if err != nil {
			return outputLoadError(formatter, convertCompileError(err, "table."+spec.Name))
		}
		migration = append(migration, query.CreateTable(t.Table).IfNotExists())
		result.Tables = append(result.Tables, spec.Name)
	}

	if err := s.Migrate(ctx, migration); err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error(), nil)
	}
	if err := s.DB().QueryRowContext(ctx, "PRAGMA user_version").Scan(&result.Version); err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error(), nil)
	}
	formatter.VerboseLog("Database %s at version %d", result.Database, result.Version)

	if formatter.Format != "text" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Migrated %s to version %d (%d table(s))\n", result.Database, result.Version, len(result.Tables))
	return nil
}

// openStore opens the configured database.
func openStore(opts *RootOptions) (*store.Store, error) {
	cfg := opts.settings()
	if cfg.Database == "" {
		return nil, fmt.Errorf("no database: pass --db or set database in %s", config.FileName)
	}
	return store.Open(cfg.Database, store.Options{
		Driver:   cfg.Driver,
		Template: cfg.Template(),
		Logger:   opts.logger(),
	})
}
