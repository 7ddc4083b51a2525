// Package schema describes persisted row types as tables of typed columns.
//
// A Table[R] is built once, at package initialization, by registering its
// columns in order. The registry is static and name-unique; statements bind
// and decode rows positionally in registration order, so the order is part of
// the table's contract. After registration a table is never mutated: As,
// WithScope and WithSchema return modified copies.
package schema

import (
	"fmt"

	"github.com/roach88/structq/internal/codec"
	"github.com/roach88/structq/internal/decode"
	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
)

// field is one registered member of R spanning one or more columns.
type field[R any] struct {
	columns ColumnSet
	encode  func(*R) []ir.Binding
	decode  func(decode.Decoder, *R) error
}

// Table describes the rows of type R stored in one table.
type Table[R any] struct {
	// registered is the reference column fragments are built against.
	registered ir.TableRef
	ref        ir.TableRef
	fields     []field[R]
	columns    ColumnSet
	names      map[string]struct{}
	scope      expr.Term[bool]
}

// NewTable starts the registration of a table.
func NewTable[R any](name string) *Table[R] {
	ref := ir.TableRef{Name: name}
	return &Table[R]{
		registered: ref,
		ref:        ref,
		names:      make(map[string]struct{}),
	}
}

func (t *Table[R]) register(f field[R]) {
	for _, c := range f.columns {
		if _, dup := t.names[c.Name]; dup {
			panic(fmt.Sprintf("schema: duplicate column %q in table %q", c.Name, t.registered.Name))
		}
		t.names[c.Name] = struct{}{}
	}
	t.fields = append(t.fields, f)
	t.columns = append(t.columns, f.columns...)
}

// AddColumn registers a column of R at the end of t and returns its typed
// accessor. access must return a pointer into the row it is given. A
// duplicate column name panics.
func AddColumn[R, V any](t *Table[R], name string, c codec.Codec[V], access func(*R) *V, opts ...ColumnOption) Column[R, V] {
	info := ColumnInfo{
		Name:     name,
		Table:    t.registered,
		SQLType:  c.SQLType(),
		Nullable: codec.IsNullable(c),
	}
	for _, opt := range opts {
		opt(&info)
	}
	col := newColumn(info, c,
		func(r *R) V { return *access(r) },
		func(r *R, v V) { *access(r) = v },
	)
	t.register(field[R]{
		columns: ColumnSet{info},
		encode: func(r *R) []ir.Binding {
			return []ir.Binding{c.Encode(*access(r))}
		},
		decode: func(d decode.Decoder, r *R) error {
			v, err := c.Decode(d)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", t.registered.Name, name, err)
			}
			*access(r) = v
			return nil
		},
	})
	return col
}

// Name is the table name.
func (t *Table[R]) Name() string { return t.ref.Name }

// Alias is the table alias; empty when the table is not aliased.
func (t *Table[R]) Alias() string { return t.ref.Alias }

// SchemaName is the schema the table lives in; empty for the default.
func (t *Table[R]) SchemaName() string { return t.ref.Schema }

// Ref is the reference statements render for the table.
func (t *Table[R]) Ref() ir.TableRef { return t.ref }

// BaseRef is the reference column expressions of t are built against.
func (t *Table[R]) BaseRef() ir.TableRef { return t.registered }

// Declaration renders the table as it appears in a FROM clause.
func (t *Table[R]) Declaration() ir.Fragment { return ir.SQL(t.ref.Declaration()) }

// Target renders the table as the target of INSERT, UPDATE or DELETE,
// which never carries an alias.
func (t *Table[R]) Target() ir.Fragment { return ir.SQL(t.ref.Qualified()) }

// Columns returns every flattened column in registration order.
func (t *Table[R]) Columns() ColumnSet {
	return t.columns.Retarget(t.ref)
}

// WritableColumns returns the columns inserts and updates may assign.
func (t *Table[R]) WritableColumns() ColumnSet {
	var out ColumnSet
	for _, c := range t.Columns() {
		if c.Writable() {
			out = append(out, c)
		}
	}
	return out
}

// Width is the number of flattened columns.
func (t *Table[R]) Width() int { return len(t.columns) }

// Scope is the default predicate applied by query.All; empty when the table
// has none.
func (t *Table[R]) Scope() expr.Term[bool] { return t.scope }

// Localize rewrites references to the table's registered name so they point
// at its current reference (alias or schema). References to other aliases
// are left alone.
func (t *Table[R]) Localize(f ir.Fragment) ir.Fragment {
	return f.Retarget(t.registered, t.ref)
}

func (t *Table[R]) clone() *Table[R] {
	c := *t
	return &c
}

// WithScope returns a copy of t whose default scope is pred.
func (t *Table[R]) WithScope(pred expr.Expr[bool]) *Table[R] {
	c := t.clone()
	if pred == nil {
		c.scope = expr.Term[bool]{}
	} else {
		c.scope = expr.Of(pred)
	}
	return c
}

// WithSchema returns a copy of t qualified with the schema name.
func (t *Table[R]) WithSchema(name string) *Table[R] {
	c := t.clone()
	c.ref.Schema = name
	return c
}

// As returns a copy of t renamed to alias. Statements on the copy qualify
// the table's own columns with the alias.
func (t *Table[R]) As(alias string) *Table[R] {
	c := t.clone()
	c.ref.Alias = alias
	return c
}

// Renamed returns a copy of t that reads the same columns from the named
// relation, such as a common table expression or a view.
func (t *Table[R]) Renamed(name string) *Table[R] {
	c := t.clone()
	c.ref = ir.TableRef{Name: name}
	c.scope = expr.Term[bool]{}
	return c
}

// Encode binds every column of row in column order.
func (t *Table[R]) Encode(row R) []ir.Binding {
	out := make([]ir.Binding, 0, len(t.columns))
	for _, f := range t.fields {
		out = append(out, f.encode(&row)...)
	}
	return out
}

// EncodeWritable binds the writable columns of row in column order.
func (t *Table[R]) EncodeWritable(row R) []ir.Binding {
	all := t.Encode(row)
	out := make([]ir.Binding, 0, len(all))
	for i, c := range t.columns {
		if c.Writable() {
			out = append(out, all[i])
		}
	}
	return out
}

// Decode reads one row of R, consuming exactly Width columns.
func (t *Table[R]) Decode(d decode.Decoder) (R, error) {
	var row R
	for _, f := range t.fields {
		if err := f.decode(d, &row); err != nil {
			return row, err
		}
	}
	return row, nil
}

// Decoder returns Decode as a decode function.
func (t *Table[R]) Decoder() decode.Func[R] {
	return t.Decode
}

// OptionalDecoder decodes a row that may be absent, as an outer-joined
// table's row is, yielding nil for it.
func (t *Table[R]) OptionalDecoder() decode.Func[*R] {
	return decode.Optional(t.Width(), t.Decode)
}
