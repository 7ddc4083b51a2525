package schema

import (
	"github.com/roach88/structq/internal/codec"
	"github.com/roach88/structq/internal/ir"
)

// Record is a row of a table whose columns are only known at run time.
// Values holds one binding per column, in column order.
type Record struct {
	Values []ir.Binding
}

// Field returns a pointer to the i-th value, growing the record as needed.
func (r *Record) Field(i int) *ir.Binding {
	for len(r.Values) <= i {
		r.Values = append(r.Values, ir.Null{})
	}
	return &r.Values[i]
}

// Get returns the i-th value, or NULL when the record is shorter.
func (r Record) Get(i int) ir.Binding {
	if i < len(r.Values) && r.Values[i] != nil {
		return r.Values[i]
	}
	return ir.Null{}
}

// AddRecordColumn registers the next dynamic column of t. Its value lives at
// the record index equal to the column's position.
func AddRecordColumn(t *Table[Record], name, affinity string, nullable bool, opts ...ColumnOption) Column[Record, ir.Binding] {
	i := t.Width()
	return AddColumn(t, name, codec.Dynamic(affinity, nullable),
		func(r *Record) *ir.Binding { return r.Field(i) }, opts...)
}
