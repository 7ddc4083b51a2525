package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/structq/internal/query"
	"github.com/roach88/structq/internal/store"
)

// FetchResult is the fetch output: the rows of one table.
type FetchResult struct {
	Table   string           `json:"table" yaml:"table"`
	Columns []string         `json:"columns" yaml:"columns"`
	Rows    []map[string]any `json:"rows" yaml:"rows"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		where    []string
		limit    int64
		unscoped bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <schema-dir> <table>",
		Short: "Select rows from a table",
		Long: `Select the rows of a table from a SQLite database and decode them
against the table's columns.

Soft-deleted rows are left out unless --unscoped is given.`,
		Example: `  structq fetch schema reminders --db app.db --where isCompleted=false`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), rootOpts, args[0], args[1], where, limit, unscoped, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&where, "where", nil, "column=value filter (repeatable)")
	cmd.Flags().Int64Var(&limit, "limit", 0, "maximum number of rows (0 for all)")
	cmd.Flags().BoolVar(&unscoped, "unscoped", false, "include soft-deleted rows")

	return cmd
}

func runFetch(ctx context.Context, opts *RootOptions, schemaDir, tableName string, where []string, limit int64, unscoped bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if ctx == nil {
		ctx = context.Background()
	}

	loadResult, errs := LoadTables(schemaDir, LoadModeFailFast)
	if len(errs) > 0 {
		return outputLoadError(formatter, errs[0])
	}
	t, err := loadResult.Table(tableName)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	preds, err := t.Filters(where)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadArgument, err.Error(), nil)
	}

	q := query.All(t.Table)
	if unscoped {
		q = query.Unscoped(t.Table)
	}
	sel := q.Where(preds...).Select()
	if limit > 0 {
		sel = sel.Limit(limit)
	}

	s, err := openStore(opts)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error(), nil)
	}
	defer s.Close()

	records, err := store.Fetch(ctx, s, sel, t.Decoder())
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error(), nil)
	}
	formatter.VerboseLog("Fetched %d row(s) from %s", len(records), tableName)

	columns := t.Columns().Names()
	if formatter.Format != "text" {
		result := FetchResult{Table: tableName, Columns: columns, Rows: make([]map[string]any, len(records))}
		for i, rec := range records {
			result.Rows[i] = t.PlainMap(rec)
		}
		return formatter.Success(result)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, rec := range records {
		cells := make([]string, len(rec.Values))
		for i, b := range rec.Values {
			cells[i] = b.String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(tw, "(%d row(s))\n", len(records))
	return tw.Flush()
}
