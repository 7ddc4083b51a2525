// Package codec bridges native Go values and statement bindings.
//
// A Codec is the lens a column uses: Encode turns the native value into the
// binding a statement carries, and Decode reads it back from a result row.
// For every value in a codec's supported domain Decode(Encode(v)) == v.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/structq/internal/decode"
	"github.com/roach88/structq/internal/ir"
)

// Codec converts between a native value V and its storage binding.
type Codec[V any] interface {
	Encode(v V) ir.Binding
	Decode(d decode.Decoder) (V, error)
	// SQLType is the column type declared for V, e.g. "INTEGER".
	SQLType() string
}

// Nullable is implemented by codecs whose storage column admits NULL.
type Nullable interface {
	Nullable() bool
}

// IsNullable reports whether c stores NULL for some native value.
func IsNullable(c any) bool {
	n, ok := c.(Nullable)
	return ok && n.Nullable()
}

type int64Codec struct{}

func (int64Codec) Encode(v int64) ir.Binding { return ir.Int(v) }
func (int64Codec) Decode(d decode.Decoder) (int64, error) {
	return decode.Required(decode.Int64, "int")(d)
}
func (int64Codec) SQLType() string { return "INTEGER" }

type intCodec struct{}

func (intCodec) Encode(v int) ir.Binding { return ir.Int(v) }
func (intCodec) Decode(d decode.Decoder) (int, error) {
	v, err := decode.Required(decode.Int64, "int")(d)
	return int(v), err
}
func (intCodec) SQLType() string { return "INTEGER" }

type uint64Codec struct{}

func (uint64Codec) Encode(v uint64) ir.Binding { return ir.Uint(v) }
func (uint64Codec) Decode(d decode.Decoder) (uint64, error) {
	return decode.Required(decode.Uint64, "uint")(d)
}
func (uint64Codec) SQLType() string { return "INTEGER" }

type float64Codec struct{}

func (float64Codec) Encode(v float64) ir.Binding { return ir.Double(v) }
func (float64Codec) Decode(d decode.Decoder) (float64, error) {
	return decode.Required(decode.Double, "double")(d)
}
func (float64Codec) SQLType() string { return "REAL" }

type boolCodec struct{}

func (boolCodec) Encode(v bool) ir.Binding { return ir.Bool(v) }
func (boolCodec) Decode(d decode.Decoder) (bool, error) {
	return decode.Required(decode.Bool, "bool")(d)
}
func (boolCodec) SQLType() string { return "BOOLEAN" }

type textCodec struct{}

func (textCodec) Encode(v string) ir.Binding { return ir.Text(v) }
func (textCodec) Decode(d decode.Decoder) (string, error) {
	return decode.Required(decode.Text, "text")(d)
}
func (textCodec) SQLType() string { return "TEXT" }

type blobCodec struct{}

func (blobCodec) Encode(v []byte) ir.Binding {
	if v == nil {
		return ir.Null{}
	}
	return ir.NewBlob(v)
}
func (blobCodec) Decode(d decode.Decoder) ([]byte, error) {
	return decode.Required(decode.Blob, "blob")(d)
}
func (blobCodec) SQLType() string { return "BLOB" }

type dateCodec struct{}

func (dateCodec) Encode(v time.Time) ir.Binding { return ir.NewDate(v) }
func (dateCodec) Decode(d decode.Decoder) (time.Time, error) {
	return decode.Required(decode.Date, "date")(d)
}
func (dateCodec) SQLType() string { return "TEXT" }

type unixTimeCodec struct{}

func (unixTimeCodec) Encode(v time.Time) ir.Binding { return ir.Int(v.Unix()) }
func (unixTimeCodec) Decode(d decode.Decoder) (time.Time, error) {
	sec, err := decode.Required(decode.Int64, "unix time")(d)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}
func (unixTimeCodec) SQLType() string { return "INTEGER" }

type uuidCodec struct{}

func (uuidCodec) Encode(v uuid.UUID) ir.Binding { return ir.NewUUID(v) }
func (uuidCodec) Decode(d decode.Decoder) (uuid.UUID, error) {
	return decode.Required(decode.UUID, "uuid")(d)
}
func (uuidCodec) SQLType() string { return "TEXT" }

// Codecs for the primitive storage types.
var (
	Int64   Codec[int64]     = int64Codec{}
	Int     Codec[int]       = intCodec{}
	Uint64  Codec[uint64]    = uint64Codec{}
	Float64 Codec[float64]   = float64Codec{}
	Bool    Codec[bool]      = boolCodec{}
	Text    Codec[string]    = textCodec{}
	Blob    Codec[[]byte]    = blobCodec{}
	UUID    Codec[uuid.UUID] = uuidCodec{}

	// Date stores instants as sortable UTC text with millisecond precision.
	Date Codec[time.Time] = dateCodec{}
	// UnixTime stores instants as integer seconds since the epoch.
	UnixTime Codec[time.Time] = unixTimeCodec{}
)

type stringCodec[S ~string] struct{}

func (stringCodec[S]) Encode(v S) ir.Binding { return ir.Text(v) }
func (stringCodec[S]) Decode(d decode.Decoder) (S, error) {
	s, err := decode.Required(decode.Text, "text")(d)
	return S(s), err
}
func (stringCodec[S]) SQLType() string { return "TEXT" }

// String stores a string-kinded type, such as an enum, as text.
func String[S ~string]() Codec[S] {
	return stringCodec[S]{}
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Encode(v T) ir.Binding {
	data, err := json.Marshal(v)
	if err != nil {
		return ir.Invalid{Err: fmt.Errorf("encode json: %w", err)}
	}
	return ir.Text(data)
}

func (jsonCodec[T]) Decode(d decode.Decoder) (T, error) {
	var v T
	idx := d.Index()
	s, err := decode.Required(decode.Text, "json")(d)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return v, &decode.Error{Column: idx, Want: "json", Got: ir.Text(s), Err: err}
	}
	return v, nil
}

func (jsonCodec[T]) SQLType() string { return "TEXT" }

// JSON stores T as its JSON text. Values that fail to marshal encode as an
// invalid binding, which fails when bound instead of when built.
func JSON[T any]() Codec[T] {
	return jsonCodec[T]{}
}

type optionalCodec[V any] struct {
	inner Codec[V]
}

func (c optionalCodec[V]) Encode(v *V) ir.Binding {
	if v == nil {
		return ir.Null{}
	}
	return c.inner.Encode(*v)
}

func (c optionalCodec[V]) Decode(d decode.Decoder) (*V, error) {
	return decode.Optional(1, c.inner.Decode)(d)
}

func (c optionalCodec[V]) SQLType() string { return c.inner.SQLType() }

func (optionalCodec[V]) Nullable() bool { return true }

// Optional widens c to a nullable column: nil encodes as NULL and NULL
// decodes as nil.
func Optional[V any](c Codec[V]) Codec[*V] {
	return optionalCodec[V]{inner: c}
}

type dynamicCodec struct {
	affinity string
	nullable bool
}

func (c dynamicCodec) Encode(v ir.Binding) ir.Binding {
	if v == nil {
		return ir.Null{}
	}
	return v
}

func (c dynamicCodec) Decode(d decode.Decoder) (ir.Binding, error) {
	idx := d.Index()
	b, ok, err := decode.Any(d)
	if err != nil {
		return nil, err
	}
	if !ok && !c.nullable {
		return nil, &decode.Error{Column: idx, Want: strings.ToLower(c.affinity), Got: b, Err: decode.ErrMissingRequiredColumn}
	}
	return b, nil
}

func (c dynamicCodec) SQLType() string { return c.affinity }

func (c dynamicCodec) Nullable() bool { return c.nullable }

// Dynamic passes bindings through unchanged. Tables whose columns are only
// known at run time, such as those compiled from schema files, use it.
func Dynamic(affinity string, nullable bool) Codec[ir.Binding] {
	return dynamicCodec{affinity: strings.ToUpper(affinity), nullable: nullable}
}
