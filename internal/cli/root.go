package cli

import (
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/structq/internal/config"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigFile string

	// Config is loaded before any subcommand runs. Commands built without
	// the root command fall back to config.Defaults plus Verbose and Format.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = config.Formats

// settings returns the loaded config, or defaults when none was loaded.
func (o *RootOptions) settings() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return &config.Config{
		Placeholder: "question",
		Driver:      store.DriverCGO,
		Verbose:     o.Verbose,
		Format:      o.Format,
	}
}

// logger returns the command logger, discarding output when none was set.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// NewRootCommand creates the root command for the structq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "structq",
		Version: ir.Version,
		Short:   "structq - typed SQL statements from table schemas",
		Long: `Describe, validate and render SQL statements for tables defined in CUE.

Settings come from structq.yaml, STRUCTQ_ environment variables and flags,
in increasing order of precedence.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Verbose = cfg.Verbose
			opts.Format = cfg.Format

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			if !ir.Configure(cfg.RenderOptions()) {
				opts.Logger.Debug("rendering options already configured", "pretty", ir.CurrentOptions().Pretty)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./structq.yaml)")
	cmd.PersistentFlags().String("placeholder", "question", "placeholder style (question|numbered|dollar|colon)")
	cmd.PersistentFlags().Bool("pretty", false, "break statement clauses onto separate lines")
	cmd.PersistentFlags().String("db", "", "SQLite database path for migrate and fetch")
	cmd.PersistentFlags().String("driver", store.DriverCGO, "SQLite driver (sqlite3|sqlite)")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
