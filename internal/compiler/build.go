package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

// Table is a table whose columns come from a TableSpec. Rows are
// schema.Records holding one binding per column.
type Table struct {
	*schema.Table[schema.Record]

	// Keyed is nil when the table declares no primary key.
	Keyed *schema.Keyed[schema.Record, ir.Binding]

	Spec    *TableSpec
	columns []schema.Column[schema.Record, ir.Binding]
}

// Build turns a validated spec into table metadata. A soft-delete column
// becomes the table's default scope, which hides rows where it is set.
func Build(spec *TableSpec) (*Table, error) {
	if errs := Validate(spec); len(errs) > 0 {
		return nil, errs[0]
	}

	t := schema.NewTable[schema.Record](spec.Name)
	if spec.Schema != "" {
		t = t.WithSchema(spec.Schema)
	}

	cols := make([]schema.Column[schema.Record, ir.Binding], len(spec.Columns))
	key := -1
	for i, c := range spec.Columns {
		var opts []schema.ColumnOption
		if c.Name == spec.PrimaryKey {
			opts = append(opts, schema.PrimaryKey())
			key = i
		}
		if c.Generated {
			opts = append(opts, schema.Generated())
		}
		switch {
		case c.Expression != "":
			opts = append(opts, schema.Default(ir.SQL(c.Expression)))
		case c.Default != nil:
			opts = append(opts, schema.Default(ir.Bind(c.Default)))
		}
		if c.References != "" {
			table, column, _ := strings.Cut(c.References, ".")
			opts = append(opts, schema.References(table, column))
		}
		cols[i] = schema.AddRecordColumn(t, c.Name, c.Type, c.Nullable, opts...)
	}

	out := &Table{Spec: spec, columns: cols}
	if spec.SoftDelete != "" {
		for i, c := range spec.Columns {
			if c.Name == spec.SoftDelete {
				t = t.WithScope(cols[i].IsNull())
			}
		}
	}
	out.Table = t
	if key >= 0 {
		out.Keyed = schema.WithPrimaryKey(t, cols[key])
	}
	return out, nil
}

// Column returns the column named name.
func (t *Table) Column(name string) (schema.Column[schema.Record, ir.Binding], bool) {
	for _, c := range t.columns {
		if c.Name() == name {
			return c, true
		}
	}
	return schema.Column[schema.Record, ir.Binding]{}, false
}

// Record builds a row from named values. Values convert as ir.Of does;
// columns without a value are NULL.
func (t *Table) Record(values map[string]any) (schema.Record, error) {
	rec := schema.Record{Values: make([]ir.Binding, len(t.columns))}
	for i := range rec.Values {
		rec.Values[i] = ir.Null{}
	}
	for name, v := range values {
		found := false
		for i, c := range t.columns {
			if c.Name() == name {
				rec.Values[i] = ir.Of(v)
				found = true
				break
			}
		}
		if !found {
			return schema.Record{}, fmt.Errorf("table %s has no column %q", t.Spec.Name, name)
		}
	}
	return rec, nil
}

// Map is the inverse of Record: the row's values keyed by column name.
func (t *Table) Map(rec schema.Record) map[string]ir.Binding {
	out := make(map[string]ir.Binding, len(t.columns))
	for i, c := range t.columns {
		out[c.Name()] = rec.Get(i)
	}
	return out
}
