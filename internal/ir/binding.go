package ir

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUintOverflow is returned when a Uint binding does not fit the signed
// 64-bit integer range every supported driver binds integers as.
var ErrUintOverflow = errors.New("uint64 binding overflows int64")

// DateLayout is the textual form dates take when they must be written as text
// (inlined literals, SQLite parameters). It sorts lexicographically.
const DateLayout = "2006-01-02 15:04:05.000"

// Kind identifies the variant of a Binding.
type Kind uint8

const (
	KindBlob Kind = iota
	KindBool
	KindDouble
	KindDate
	KindInt
	KindNull
	KindText
	KindUUID
	KindUint
	KindInvalid
)

var kindNames = [...]string{
	KindBlob:    "blob",
	KindBool:    "bool",
	KindDouble:  "double",
	KindDate:    "date",
	KindInt:     "int",
	KindNull:    "null",
	KindText:    "text",
	KindUUID:    "uuid",
	KindUint:    "uint",
	KindInvalid: "invalid",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Binding is one out-of-band statement parameter.
//
// This is a sealed interface: only the variants in this package implement it,
// so executors can switch over the closed set exhaustively. Every variant is
// comparable, which makes bindings usable as map keys and with ==.
//
// String returns the debug form, which is also the SQL literal form used when
// a binding is inlined.
type Binding interface {
	Kind() Kind
	String() string
	binding() // Sealed
}

// Blob holds raw bytes. The bytes are stored as a string so the binding stays
// immutable and comparable; use NewBlob and Bytes to convert.
type Blob string

// Bool is a boolean parameter. SQLite stores it as 0 or 1.
type Bool bool

// Double is a 64-bit floating point parameter.
type Double float64

// Date is an instant in time, normalized to UTC without a monotonic reading.
// Construct it with NewDate so equal instants compare equal.
type Date time.Time

// Int is a signed 64-bit integer parameter.
type Int int64

// Null is the SQL NULL parameter.
type Null struct{}

// Text is a string parameter.
type Text string

// UUID is a 128-bit identifier parameter.
type UUID uuid.UUID

// Uint is an unsigned 64-bit integer parameter. Values above math.MaxInt64 are
// kept intact; the overflow is reported by Int64 at bind or render time.
type Uint uint64

// Invalid carries an error raised while encoding a value. Statement
// construction never fails; the error surfaces when the binding is bound.
type Invalid struct {
	Err error
}

func (Blob) binding()    {}
func (Bool) binding()    {}
func (Double) binding()  {}
func (Date) binding()    {}
func (Int) binding()     {}
func (Null) binding()    {}
func (Text) binding()    {}
func (UUID) binding()    {}
func (Uint) binding()    {}
func (Invalid) binding() {}

func (Blob) Kind() Kind    { return KindBlob }
func (Bool) Kind() Kind    { return KindBool }
func (Double) Kind() Kind  { return KindDouble }
func (Date) Kind() Kind    { return KindDate }
func (Int) Kind() Kind     { return KindInt }
func (Null) Kind() Kind    { return KindNull }
func (Text) Kind() Kind    { return KindText }
func (UUID) Kind() Kind    { return KindUUID }
func (Uint) Kind() Kind    { return KindUint }
func (Invalid) Kind() Kind { return KindInvalid }

// NewBlob copies b into a Blob binding.
func NewBlob(b []byte) Blob {
	return Blob(string(b))
}

// Bytes returns a fresh copy of the blob's bytes.
func (b Blob) Bytes() []byte {
	return []byte(string(b))
}

func (b Blob) String() string {
	return "X'" + strings.ToUpper(hex.EncodeToString([]byte(b))) + "'"
}

func (b Bool) String() string {
	if b {
		return "1"
	}
	return "0"
}

func (d Double) String() string {
	f := float64(d)
	switch {
	case math.IsInf(f, 1):
		return "9e999"
	case math.IsInf(f, -1):
		return "-9e999"
	case math.IsNaN(f):
		return "NULL"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// NewDate normalizes t to UTC and strips its monotonic clock reading.
func NewDate(t time.Time) Date {
	return Date(t.Round(0).UTC())
}

// Time returns the date as a time.Time in UTC.
func (d Date) Time() time.Time {
	return time.Time(d)
}

func (d Date) String() string {
	return QuoteText(d.Time().Format(DateLayout))
}

func (i Int) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (Null) String() string {
	return "NULL"
}

func (t Text) String() string {
	return QuoteText(string(t))
}

// NewUUID wraps u.
func NewUUID(u uuid.UUID) UUID {
	return UUID(u)
}

// UUID returns the wrapped identifier.
func (u UUID) UUID() uuid.UUID {
	return uuid.UUID(u)
}

func (u UUID) String() string {
	return QuoteText(uuid.UUID(u).String())
}

// Int64 converts u to int64, failing with ErrUintOverflow instead of
// truncating when u exceeds math.MaxInt64.
func (u Uint) Int64() (int64, error) {
	if uint64(u) > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrUintOverflow, uint64(u))
	}
	return int64(u), nil
}

func (u Uint) String() string {
	return strconv.FormatUint(uint64(u), 10)
}

// Unwrap exposes the encoding error to errors.Is and errors.As.
func (i Invalid) Unwrap() error {
	return i.Err
}

// Error implements error so an Invalid binding can be returned directly.
func (i Invalid) Error() string {
	if i.Err == nil {
		return "invalid binding"
	}
	return "invalid binding: " + i.Err.Error()
}

func (i Invalid) String() string {
	return "<" + i.Error() + ">"
}

// Of converts a plain Go value into a Binding. It accepts the native types
// drivers commonly produce (int64, float64, string, []byte, bool, time.Time,
// nil) plus the other fixed-size integers and uuid.UUID. Unsupported types
// become Invalid bindings rather than errors.
func Of(v any) Binding {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Binding:
		return val
	case []byte:
		if val == nil {
			return Null{}
		}
		return NewBlob(val)
	case bool:
		return Bool(val)
	case float64:
		return Double(val)
	case float32:
		return Double(val)
	case time.Time:
		return NewDate(val)
	case int64:
		return Int(val)
	case int:
		return Int(val)
	case int32:
		return Int(val)
	case int16:
		return Int(val)
	case int8:
		return Int(val)
	case uint64:
		return Uint(val)
	case uint:
		return Uint(val)
	case uint32:
		return Int(val)
	case uint16:
		return Int(val)
	case uint8:
		return Int(val)
	case string:
		return Text(val)
	case uuid.UUID:
		return UUID(val)
	default:
		return Invalid{Err: fmt.Errorf("unsupported binding type %T", v)}
	}
}
