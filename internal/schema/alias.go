package schema

import (
	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
)

// Source is anything a statement can read columns from: a table, an aliased
// table, or a pseudo-row such as "excluded".
type Source interface {
	// Ref is the reference the source renders as.
	Ref() ir.TableRef
	// BaseRef is the reference its column expressions are built against.
	BaseRef() ir.TableRef
	// Declaration renders the source in a FROM or JOIN clause.
	Declaration() ir.Fragment
}

// Alias is a renamed view of a table's columns. It stores nothing: column
// expressions are retargeted from the base table to the alias when
// qualified with it.
type Alias struct {
	base ir.TableRef
	ref  ir.TableRef
}

// NewAlias renames the table behind src to name.
func NewAlias(src Source, name string) Alias {
	base := src.BaseRef()
	return Alias{base: base, ref: base.WithAlias(name)}
}

// Ref renders as the alias name.
func (a Alias) Ref() ir.TableRef { return a.ref }

// BaseRef is the table the alias renames.
func (a Alias) BaseRef() ir.TableRef { return a.base }

// Declaration renders "table" AS "alias".
func (a Alias) Declaration() ir.Fragment { return ir.SQL(a.ref.Declaration()) }

// Name is the alias name.
func (a Alias) Name() string {
	if a.ref.Alias != "" {
		return a.ref.Alias
	}
	return a.ref.Name
}

// pseudo returns an alias rendered as a bare name with no declaration, as
// the rows SQLite binds implicitly are.
func pseudo(src Source, name string) Alias {
	return Alias{base: src.BaseRef(), ref: ir.TableRef{Name: name}}
}

// Excluded names the row proposed for insertion inside an upsert's
// DO UPDATE clause.
func Excluded(src Source) Alias { return pseudo(src, "excluded") }

// Old names the row before the change inside a trigger.
func Old(src Source) Alias { return pseudo(src, "old") }

// New names the row after the change inside a trigger.
func New(src Source) Alias { return pseudo(src, "new") }

// Qualify rewrites e so references to the table behind src render as src.
func Qualify[V any](src Source, e expr.Expr[V]) expr.Term[V] {
	return expr.Retarget(e, src.BaseRef(), src.Ref())
}

// QualifyColumns retargets columns to src.
func QualifyColumns(src Source, cols ColumnSet) ColumnSet {
	out := make(ColumnSet, 0, len(cols))
	for _, c := range cols {
		if c.Table == src.BaseRef() {
			c.Table = src.Ref()
		}
		out = append(out, c)
	}
	return out
}
