package query

import (
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

// TableDefinition is a CREATE TABLE statement derived from table metadata.
// Column defaults are inlined as literals.
type TableDefinition[R any] struct {
	table       *schema.Table[R]
	ifNotExists bool
}

// CreateTable defines t with one column per flattened column, in order.
func CreateTable[R any](t *schema.Table[R]) TableDefinition[R] {
	return TableDefinition[R]{table: t}
}

// IfNotExists renders CREATE TABLE IF NOT EXISTS.
func (d TableDefinition[R]) IfNotExists() TableDefinition[R] {
	d.ifNotExists = true
	return d
}

// Fragment renders the statement.
func (d TableDefinition[R]) Fragment() ir.Fragment {
	head := "CREATE TABLE "
	if d.ifNotExists {
		head += "IF NOT EXISTS "
	}
	cols := d.table.Columns()
	defs := make([]ir.Fragment, len(cols))
	for i, c := range cols {
		defs[i] = columnDefinition(c)
	}
	return ir.SQL(head).Append(
		d.table.Target(),
		ir.SQL(" "),
		ir.Parens(ir.Join(defs, ir.SQL(", "))),
	)
}

func columnDefinition(c schema.ColumnInfo) ir.Fragment {
	f := ir.Ident(c.Name).Append(ir.SQL(" " + c.SQLType))
	switch {
	case c.PrimaryKey:
		f = f.Append(ir.SQL(" PRIMARY KEY"))
		if c.SQLType != "INTEGER" {
			f = f.Append(ir.SQL(" NOT NULL"))
		}
	case !c.Nullable:
		f = f.Append(ir.SQL(" NOT NULL"))
	}
	if !c.Default.IsEmpty() {
		def := ir.Parens(c.Default.Compiled(ir.ContextDDL))
		if c.Generated {
			f = f.Append(ir.SQL(" GENERATED ALWAYS AS "), def)
		} else {
			f = f.Append(ir.SQL(" DEFAULT "), def)
		}
	}
	if fk := c.References; fk != nil {
		f = f.Append(ir.SQL(" REFERENCES "), ir.Ident(fk.Table), ir.SQL(" "), ir.Parens(ir.Ident(fk.Column)))
	}
	return f
}

// DropTable is the statement removing t.
func DropTable[R any](t *schema.Table[R]) Drop {
	return Drop{kind: "TABLE", name: t.Target().String()}
}
