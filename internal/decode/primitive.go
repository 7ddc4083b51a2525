package decode

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/structq/internal/ir"
)

// Column decoders for the primitive storage types. Each consumes one column,
// reports NULL with ok=false, and converts between storage kinds the way
// SQLite's type affinity does.

func mismatch(d Decoder, want string, got ir.Binding) *Error {
	return &Error{Column: d.Index() - 1, Want: want, Got: got, Err: ErrTypeMismatch}
}

// Int64 accepts integers, in-range unsigned integers and booleans.
func Int64(d Decoder) (int64, bool, error) {
	b, err := d.Decode()
	if err != nil {
		return 0, false, err
	}
	switch v := b.(type) {
	case ir.Null:
		return 0, false, nil
	case ir.Int:
		return int64(v), true, nil
	case ir.Uint:
		n, err := v.Int64()
		if err != nil {
			return 0, false, &Error{Column: d.Index() - 1, Want: "int", Got: b, Err: err}
		}
		return n, true, nil
	case ir.Bool:
		if v {
			return 1, true, nil
		}
		return 0, true, nil
	}
	return 0, false, mismatch(d, "int", b)
}

// Uint64 accepts unsigned and non-negative signed integers.
func Uint64(d Decoder) (uint64, bool, error) {
	b, err := d.Decode()
	if err != nil {
		return 0, false, err
	}
	switch v := b.(type) {
	case ir.Null:
		return 0, false, nil
	case ir.Uint:
		return uint64(v), true, nil
	case ir.Int:
		if v >= 0 {
			return uint64(v), true, nil
		}
	}
	return 0, false, mismatch(d, "uint", b)
}

// Double accepts floats and integers.
func Double(d Decoder) (float64, bool, error) {
	b, err := d.Decode()
	if err != nil {
		return 0, false, err
	}
	switch v := b.(type) {
	case ir.Null:
		return 0, false, nil
	case ir.Double:
		return float64(v), true, nil
	case ir.Int:
		return float64(v), true, nil
	}
	return 0, false, mismatch(d, "double", b)
}

// Bool accepts booleans and integers, treating non-zero as true.
func Bool(d Decoder) (bool, bool, error) {
	b, err := d.Decode()
	if err != nil {
		return false, false, err
	}
	switch v := b.(type) {
	case ir.Null:
		return false, false, nil
	case ir.Bool:
		return bool(v), true, nil
	case ir.Int:
		return v != 0, true, nil
	}
	return false, false, mismatch(d, "bool", b)
}

// Text accepts text and blobs.
func Text(d Decoder) (string, bool, error) {
	b, err := d.Decode()
	if err != nil {
		return "", false, err
	}
	switch v := b.(type) {
	case ir.Null:
		return "", false, nil
	case ir.Text:
		return string(v), true, nil
	case ir.Blob:
		return string(v), true, nil
	}
	return "", false, mismatch(d, "text", b)
}

// Blob accepts blobs and text.
func Blob(d Decoder) ([]byte, bool, error) {
	b, err := d.Decode()
	if err != nil {
		return nil, false, err
	}
	switch v := b.(type) {
	case ir.Null:
		return nil, false, nil
	case ir.Blob:
		return v.Bytes(), true, nil
	case ir.Text:
		return []byte(v), true, nil
	}
	return nil, false, mismatch(d, "blob", b)
}

// dateLayouts are the text forms Date parses, most specific first.
var dateLayouts = []string{
	ir.DateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Date accepts dates, text in one of the SQLite date formats, integer unix
// seconds and real unix seconds. Results are always UTC.
func Date(d Decoder) (time.Time, bool, error) {
	b, err := d.Decode()
	if err != nil {
		return time.Time{}, false, err
	}
	switch v := b.(type) {
	case ir.Null:
		return time.Time{}, false, nil
	case ir.Date:
		return v.Time(), true, nil
	case ir.Int:
		return time.Unix(int64(v), 0).UTC(), true, nil
	case ir.Double:
		sec, frac := math.Modf(float64(v))
		return time.Unix(int64(sec), int64(frac*1e9)).UTC().Round(time.Millisecond), true, nil
	case ir.Text:
		s := strings.TrimSpace(string(v))
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true, nil
			}
		}
	}
	return time.Time{}, false, mismatch(d, "date", b)
}

// UUID accepts UUIDs, their text form and 16-byte blobs.
func UUID(d Decoder) (uuid.UUID, bool, error) {
	b, err := d.Decode()
	if err != nil {
		return uuid.Nil, false, err
	}
	switch v := b.(type) {
	case ir.Null:
		return uuid.Nil, false, nil
	case ir.UUID:
		return v.UUID(), true, nil
	case ir.Text:
		u, err := uuid.Parse(string(v))
		if err != nil {
			return uuid.Nil, false, &Error{Column: d.Index() - 1, Want: "uuid", Got: b, Err: err}
		}
		return u, true, nil
	case ir.Blob:
		u, err := uuid.FromBytes(v.Bytes())
		if err != nil {
			return uuid.Nil, false, &Error{Column: d.Index() - 1, Want: "uuid", Got: b, Err: err}
		}
		return u, true, nil
	}
	return uuid.Nil, false, mismatch(d, "uuid", b)
}

// Any returns the stored binding as is; NULL reports ok=false.
func Any(d Decoder) (ir.Binding, bool, error) {
	b, err := d.Decode()
	if err != nil {
		return nil, false, err
	}
	if _, null := b.(ir.Null); null {
		return b, false, nil
	}
	return b, true, nil
}
