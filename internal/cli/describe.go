package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/structq/internal/compiler"
	"github.com/roach88/structq/internal/query"
	"github.com/roach88/structq/internal/schema"
)

// TableDescription is the describe output for one table.
type TableDescription struct {
	Name       string           `json:"name" yaml:"name"`
	Schema     string           `json:"schema,omitempty" yaml:"schema,omitempty"`
	PrimaryKey string           `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	SoftDelete string           `json:"soft_delete,omitempty" yaml:"soft_delete,omitempty"`
	Columns    schema.ColumnSet `json:"columns" yaml:"columns"`
	DDL        string           `json:"ddl" yaml:"ddl"`
}

// Description is the describe output: tables in creation order.
type Description struct {
	Tables   []TableDescription      `json:"tables" yaml:"tables"`
	Warnings []compiler.CycleWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <schema-dir> [table...]",
		Short: "Describe table schemas",
		Long: `Describe the tables defined in a schema directory: their flattened
columns, keys and CREATE TABLE statements.

Tables are listed so that each follows the tables it references. Name tables
to describe only those.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runDescribe(opts *RootOptions, schemaDir string, only []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	desc, err := DescribeSchema(schemaDir, only...)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Described %d table(s) from %s", len(desc.Tables), schemaDir)

	if formatter.Format != "text" {
		return formatter.Success(desc)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	for i, t := range desc.Tables {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, tableHeading(t))
		for _, c := range t.Columns {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Name, c.SQLType, columnNotes(c))
		}
		fmt.Fprintf(tw, "  %s\n", t.DDL)
	}
	for _, w := range desc.Warnings {
		fmt.Fprintf(tw, "%s: %s\n", w.Level, w.Message)
	}
	return tw.Flush()
}

// DescribeSchema loads the schema directory and describes its tables, or
// only the named ones.
func DescribeSchema(schemaDir string, only ...string) (*Description, error) {
	loadResult, errs := LoadTables(schemaDir, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	for _, name := range only {
		if _, ok := loadResult.Spec(name); !ok {
			return nil, &LoadError{Code: ErrCodeUnknownTable, Message: fmt.Sprintf("no table named %q", name)}
		}
	}

	ordered, warnings := compiler.CreationOrder(loadResult.Specs)
	desc := &Description{Warnings: warnings}
	for _, spec := range ordered {
		if len(only) > 0 && !slices.Contains(only, spec.Name) {
			continue
		}
		t, err := compiler.Build(spec)
		if err != nil {
			return nil, convertCompileError(err, "table."+spec.Name)
		}
		desc.Tables = append(desc.Tables, TableDescription{
			Name:       spec.Name,
			Schema:     spec.Schema,
			PrimaryKey: spec.PrimaryKey,
			SoftDelete: spec.SoftDelete,
			Columns:    t.Columns(),
			DDL:        query.CreateTable(t.Table).Fragment().String(),
		})
	}
	return desc, nil
}

func tableHeading(t TableDescription) string {
	name := t.Name
	if t.Schema != "" {
		name = t.Schema + "." + name
	}
	var notes []string
	if t.PrimaryKey != "" {
		notes = append(notes, "primary key "+t.PrimaryKey)
	}
	if t.SoftDelete != "" {
		notes = append(notes, "soft delete "+t.SoftDelete)
	}
	if len(notes) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(notes, ", "))
}

func columnNotes(c schema.ColumnInfo) string {
	var notes []string
	switch {
	case c.PrimaryKey:
		notes = append(notes, "primary key")
	case c.Nullable:
		notes = append(notes, "null")
	default:
		notes = append(notes, "not null")
	}
	if c.Generated {
		notes = append(notes, "generated")
	}
	if !c.Default.IsEmpty() && !c.Generated {
		notes = append(notes, "default "+c.Default.String())
	}
	if fk := c.References; fk != nil {
		notes = append(notes, "references "+fk.Table+"."+fk.Column)
	}
	return strings.Join(notes, ", ")
}
