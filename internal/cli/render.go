package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/structq/internal/compiler"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/query"
	"github.com/roach88/structq/internal/store"
)

// RenderResult is the render output.
type RenderResult struct {
	SQL         string   `json:"sql" yaml:"sql"`
	Fingerprint string   `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Bindings    []string `json:"bindings,omitempty" yaml:"bindings,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	req := compiler.Request{}

	cmd := &cobra.Command{
		Use:   "render <schema-dir> <table>",
		Short: "Render a statement on a table",
		Long: `Render a SQL statement on a table defined in a schema directory.

Values given to --set, --where and --key are read as YAML scalars, so 5 is
an integer, true a boolean, null is NULL and 'text' is always text.

Statements: ` + strings.Join(compiler.Statements, ", "),
		Example: `  structq render schema reminders --where isCompleted=false
  structq render schema tags --statement upsert --set id=1 --set title=car
  structq render schema tags --statement find --key 1 --key 2 --placeholder dollar`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, args[0], args[1], req, cmd)
		},
	}

	cmd.Flags().StringVarP(&req.Kind, "statement", "s", "select", "statement to render")
	cmd.Flags().StringArrayVar(&req.Set, "set", nil, "column=value to insert or assign (repeatable)")
	cmd.Flags().StringArrayVar(&req.Where, "where", nil, "column=value filter (repeatable)")
	cmd.Flags().StringArrayVar(&req.Keys, "key", nil, "primary key value to narrow to (repeatable)")
	cmd.Flags().BoolVar(&req.Returning, "returning", false, "add RETURNING with every column")
	cmd.Flags().StringVar(&req.View, "view", "", "view name (default <table>View)")
	cmd.Flags().StringVar(&req.Event, "event", "update", "trigger event (insert|update|delete)")

	return cmd
}

func runRender(opts *RootOptions, schemaDir, tableName string, req compiler.Request, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, errs := LoadTables(schemaDir, LoadModeFailFast)
	if len(errs) > 0 {
		return outputLoadError(formatter, errs[0])
	}
	t, err := loadResult.Table(tableName)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	st, err := t.Statement(req)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadArgument, err.Error(), nil)
	}

	result := Render(opts, st)
	if formatter.Format != "text" {
		return formatter.Success(result)
	}

	if result.SQL == "" {
		fmt.Fprintln(formatter.Writer, "-- empty statement")
	} else {
		fmt.Fprintln(formatter.Writer, result.SQL)
	}
	for i, b := range result.Bindings {
		fmt.Fprintf(formatter.Writer, "-- %d: %s\n", i+1, b)
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintf(formatter.Writer, "-- %s\n", d)
	}
	return nil
}

// Render prepares st with the configured placeholder template. Diagnostics
// are logged and returned with the result.
func Render(opts *RootOptions, st query.Statement) RenderResult {
	var result RenderResult
	for _, d := range st.Fragment().Diagnostics() {
		result.Diagnostics = append(result.Diagnostics, d.String())
	}
	text, bindings, ok := store.Prepare(opts.logger(), st, opts.settings().Template())
	if !ok {
		return result
	}
	result.SQL = text
	result.Fingerprint = ir.Fingerprint(st.Fragment())
	for _, b := range bindings {
		result.Bindings = append(result.Bindings, b.String())
	}
	return result
}
