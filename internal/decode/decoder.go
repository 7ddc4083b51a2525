// Package decode maps result rows back into typed values.
//
// A row is consumed positionally through a Decoder: each typed decode
// consumes exactly the columns it spans, in the order the statement selected
// them. Executors own the row iteration and call Cursor.Next between rows.
package decode

import (
	"errors"
	"fmt"

	"github.com/roach88/structq/internal/ir"
)

// Sentinel errors for errors.Is.
var (
	// ErrMissingRequiredColumn is returned when a non-optional value decodes
	// from NULL. Optional catches it to yield nil for absent joined rows.
	ErrMissingRequiredColumn = errors.New("missing required column")

	// ErrTypeMismatch is returned when a stored value cannot be converted to
	// the requested type.
	ErrTypeMismatch = errors.New("stored value has unexpected type")

	// ErrNoColumn is returned when decoding past the end of a row.
	ErrNoColumn = errors.New("no column left in row")
)

// Error reports a column that failed to decode.
type Error struct {
	Column int        // Zero-based column index
	Want   string     // Requested type
	Got    ir.Binding // Stored value, nil past the end of the row
	Err    error
}

func (e *Error) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("column %d (%s): %v", e.Column, e.Want, e.Err)
	}
	return fmt.Sprintf("column %d (%s): %v: got %s %s", e.Column, e.Want, e.Err, e.Got.Kind(), e.Got)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Decoder is a sequential column cursor over one result row.
type Decoder interface {
	// Decode consumes and returns the next column.
	Decode() (ir.Binding, error)
	// Index is the zero-based index of the next column Decode will consume.
	Index() int
	// Seek moves the cursor so the next column consumed is i.
	Seek(i int) error
}

// Cursor implements Decoder over a row of bindings.
//
// The zero value is a cursor over an empty row.
type Cursor struct {
	row []ir.Binding
	pos int
}

// NewCursor returns a cursor positioned at the first column of row.
func NewCursor(row []ir.Binding) *Cursor {
	return &Cursor{row: row}
}

// Next replaces the current row and rewinds to its first column.
func (c *Cursor) Next(row []ir.Binding) {
	c.row = row
	c.pos = 0
}

func (c *Cursor) Decode() (ir.Binding, error) {
	if c.pos >= len(c.row) {
		return nil, &Error{Column: c.pos, Want: "column", Err: ErrNoColumn}
	}
	b := c.row[c.pos]
	c.pos++
	if b == nil {
		return ir.Null{}, nil
	}
	return b, nil
}

func (c *Cursor) Index() int {
	return c.pos
}

func (c *Cursor) Seek(i int) error {
	if i < 0 || i > len(c.row) {
		return &Error{Column: i, Want: "column", Err: ErrNoColumn}
	}
	c.pos = i
	return nil
}

// Remaining reports how many columns are left in the row.
func (c *Cursor) Remaining() int {
	return len(c.row) - c.pos
}

// Func decodes one value from the columns at the cursor.
type Func[T any] func(Decoder) (T, error)

// Column decodes a single nullable column; ok is false for NULL.
type Column[T any] func(Decoder) (v T, ok bool, err error)

// Required turns NULL into ErrMissingRequiredColumn.
func Required[T any](col Column[T], want string) Func[T] {
	return func(d Decoder) (T, error) {
		idx := d.Index()
		v, ok, err := col(d)
		if err != nil {
			return v, err
		}
		if !ok {
			var zero T
			return zero, &Error{Column: idx, Want: want, Got: ir.Null{}, Err: ErrMissingRequiredColumn}
		}
		return v, nil
	}
}

// Nullable decodes a column that may hold NULL, yielding nil for it.
func Nullable[T any](col Column[T]) Func[*T] {
	return func(d Decoder) (*T, error) {
		v, ok, err := col(d)
		if err != nil || !ok {
			return nil, err
		}
		return &v, nil
	}
}

// Optional decodes a value spanning width columns that may be absent, as the
// columns of an outer-joined table are. When f fails with
// ErrMissingRequiredColumn the cursor skips to exactly width columns past
// where f started and the result is nil.
func Optional[T any](width int, f Func[T]) Func[*T] {
	return func(d Decoder) (*T, error) {
		start := d.Index()
		v, err := f(d)
		if errors.Is(err, ErrMissingRequiredColumn) {
			if serr := d.Seek(start + width); serr != nil {
				return nil, serr
			}
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
}

// Pair is a decoded two-element tuple.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple is a decoded three-element tuple.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Tuple2 decodes a then b, each consuming its own columns.
func Tuple2[A, B any](a Func[A], b Func[B]) Func[Pair[A, B]] {
	return func(d Decoder) (Pair[A, B], error) {
		var p Pair[A, B]
		var err error
		if p.First, err = a(d); err != nil {
			return p, err
		}
		if p.Second, err = b(d); err != nil {
			return p, err
		}
		return p, nil
	}
}

// Tuple3 decodes a, b then c.
func Tuple3[A, B, C any](a Func[A], b Func[B], c Func[C]) Func[Triple[A, B, C]] {
	return func(d Decoder) (Triple[A, B, C], error) {
		var t Triple[A, B, C]
		var err error
		if t.First, err = a(d); err != nil {
			return t, err
		}
		if t.Second, err = b(d); err != nil {
			return t, err
		}
		if t.Third, err = c(d); err != nil {
			return t, err
		}
		return t, nil
	}
}

// Rows decodes every row with f, reusing one cursor. The first error stops
// decoding and reports the row index.
func Rows[T any](rows [][]ir.Binding, f Func[T]) ([]T, error) {
	out := make([]T, 0, len(rows))
	cur := &Cursor{}
	for i, row := range rows {
		cur.Next(row)
		v, err := f(cur)
		if err != nil {
			return out, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
