package schema

import (
	"github.com/roach88/structq/internal/codec"
	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
)

// ColumnInfo is the type-erased description of one flattened column.
type ColumnInfo struct {
	Name       string      `json:"name" yaml:"name"`
	Table      ir.TableRef `json:"-" yaml:"-"`
	SQLType    string      `json:"type" yaml:"type"`
	Nullable   bool        `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Generated  bool        `json:"generated,omitempty" yaml:"generated,omitempty"`
	PrimaryKey bool        `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Default    ir.Fragment `json:"-" yaml:"-"`
	References *ForeignKey `json:"references,omitempty" yaml:"references,omitempty"`
}

// ForeignKey is the column another column references.
type ForeignKey struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// Fragment renders the table-qualified column, e.g. "tags"."title".
func (c ColumnInfo) Fragment() ir.Fragment {
	return ir.Concat(ir.Ref(c.Table), ir.SQL("."), ir.Ident(c.Name))
}

// Ident renders the bare quoted column name, as INSERT column lists and SET
// clauses need it.
func (c ColumnInfo) Ident() ir.Fragment {
	return ir.Ident(c.Name)
}

// Writable reports whether statements may assign the column.
func (c ColumnInfo) Writable() bool {
	return !c.Generated
}

// ColumnSet is an ordered list of flattened columns.
type ColumnSet []ColumnInfo

// Fragment renders the qualified columns separated by commas.
func (s ColumnSet) Fragment() ir.Fragment {
	frags := make([]ir.Fragment, len(s))
	for i, c := range s {
		frags[i] = c.Fragment()
	}
	return ir.Join(frags, ir.SQL(", "))
}

// Idents renders the bare column names separated by commas.
func (s ColumnSet) Idents() ir.Fragment {
	frags := make([]ir.Fragment, len(s))
	for i, c := range s {
		frags[i] = c.Ident()
	}
	return ir.Join(frags, ir.SQL(", "))
}

// Width is the number of columns.
func (s ColumnSet) Width() int {
	return len(s)
}

// Names returns the column names in order.
func (s ColumnSet) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Retarget points every column at ref.
func (s ColumnSet) Retarget(ref ir.TableRef) ColumnSet {
	out := make(ColumnSet, len(s))
	for i, c := range s {
		c.Table = ref
		out[i] = c
	}
	return out
}

// ColumnOption configures a column at registration.
type ColumnOption func(*ColumnInfo)

// Generated marks a column computed by the database. Generated columns are
// read-only: inserts and updates skip them.
func Generated() ColumnOption {
	return func(c *ColumnInfo) { c.Generated = true }
}

// PrimaryKey marks the primary key column.
func PrimaryKey() ColumnOption {
	return func(c *ColumnInfo) { c.PrimaryKey = true }
}

// Default sets the SQL default of a column, used in table definitions.
func Default(f ir.Fragment) ColumnOption {
	return func(c *ColumnInfo) { c.Default = f }
}

// References declares a foreign key to column of table.
func References(table, column string) ColumnOption {
	return func(c *ColumnInfo) { c.References = &ForeignKey{Table: table, Column: column} }
}

// Column is a typed accessor for one column of rows of type R.
//
// A column is an expression of type V, so it can be used directly in
// predicates and select lists. Its lens into R reads and writes the native
// value, and the codec converts it to and from its binding.
type Column[R, V any] struct {
	expr.Term[V]
	info  ColumnInfo
	get   func(*R) V
	set   func(*R, V)
	codec codec.Codec[V]
}

func newColumn[R, V any](info ColumnInfo, c codec.Codec[V], get func(*R) V, set func(*R, V)) Column[R, V] {
	return Column[R, V]{
		Term:  expr.Atom[V](info.Fragment()),
		info:  info,
		get:   get,
		set:   set,
		codec: c,
	}
}

// Name is the column name.
func (c Column[R, V]) Name() string { return c.info.Name }

// Info returns the type-erased description of the column.
func (c Column[R, V]) Info() ColumnInfo { return c.info }

// Default is the SQL default of the column; empty when there is none.
func (c Column[R, V]) Default() ir.Fragment { return c.info.Default }

// Codec returns the column's codec.
func (c Column[R, V]) Codec() codec.Codec[V] { return c.codec }

// Get reads the column's native value from row.
func (c Column[R, V]) Get(row *R) V { return c.get(row) }

// Set writes v into row.
func (c Column[R, V]) Set(row *R, v V) { c.set(row, v) }

// Value binds v as a parameter of the column's type.
func (c Column[R, V]) Value(v V) expr.Term[V] { return expr.Bind(c.codec, v) }

// Eq renders column = v.
func (c Column[R, V]) Eq(v V) expr.Term[bool] { return expr.Eq[V](c, c.Value(v)) }

// Neq renders column <> v.
func (c Column[R, V]) Neq(v V) expr.Term[bool] { return expr.Neq[V](c, c.Value(v)) }

// Lt renders column < v.
func (c Column[R, V]) Lt(v V) expr.Term[bool] { return expr.Lt[V](c, c.Value(v)) }

// Lte renders column <= v.
func (c Column[R, V]) Lte(v V) expr.Term[bool] { return expr.Lte[V](c, c.Value(v)) }

// Gt renders column > v.
func (c Column[R, V]) Gt(v V) expr.Term[bool] { return expr.Gt[V](c, c.Value(v)) }

// Gte renders column >= v.
func (c Column[R, V]) Gte(v V) expr.Term[bool] { return expr.Gte[V](c, c.Value(v)) }

// Is renders column IS v. Unlike Eq it matches NULL against NULL.
func (c Column[R, V]) Is(v V) expr.Term[bool] { return expr.Is[V](c, c.Value(v)) }

// IsNull renders column IS NULL.
func (c Column[R, V]) IsNull() expr.Term[bool] { return expr.IsNull[V](c) }

// IsNotNull renders column IS NOT NULL.
func (c Column[R, V]) IsNotNull() expr.Term[bool] { return expr.IsNotNull[V](c) }

// In renders column IN (v1, v2, ...).
func (c Column[R, V]) In(values ...V) expr.Term[bool] {
	items := make([]expr.Expr[V], len(values))
	for i, v := range values {
		items[i] = c.Value(v)
	}
	return expr.In[V](c, items...)
}

// EqExpr renders column = e.
func (c Column[R, V]) EqExpr(e expr.Expr[V]) expr.Term[bool] { return expr.Eq[V](c, e) }

// To assigns v to the column in an UPDATE or upsert.
func (c Column[R, V]) To(v V) expr.Assignment {
	return expr.Assign[V](c.info.Name, c.Value(v))
}

// ToExpr assigns the value of e to the column.
func (c Column[R, V]) ToExpr(e expr.Expr[V]) expr.Assignment {
	return expr.Assign[V](c.info.Name, e)
}

// Asc orders by the column ascending.
func (c Column[R, V]) Asc() expr.Ordering { return expr.Asc[V](c) }

// Desc orders by the column descending.
func (c Column[R, V]) Desc() expr.Ordering { return expr.Desc[V](c) }

// Of qualifies the column with src, for aliased tables and pseudo-rows.
func (c Column[R, V]) Of(src Source) expr.Term[V] {
	return Qualify[V](src, c)
}
