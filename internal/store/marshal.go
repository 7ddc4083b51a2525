package store

import (
	"errors"
	"fmt"

	"github.com/roach88/structq/internal/ir"
)

// ErrUnsupportedBinding is returned for a binding kind the driver has no
// argument form for.
var ErrUnsupportedBinding = errors.New("unsupported binding")

// BindError reports a binding that could not be converted to a driver
// argument. No SQL is sent when one occurs.
type BindError struct {
	Position int // 1-based placeholder position
	Binding  ir.Binding
	Err      error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind parameter %d (%s): %v", e.Position, e.Binding.Kind(), e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Arg converts one binding to its database/sql argument. Dates become text
// in ir.DateLayout and UUIDs their canonical text, matching the literal
// forms inlined into triggers and views.
func Arg(b ir.Binding) (any, error) {
	switch v := b.(type) {
	case ir.Blob:
		return v.Bytes(), nil
	case ir.Bool:
		return bool(v), nil
	case ir.Double:
		return float64(v), nil
	case ir.Date:
		return v.Time().UTC().Format(ir.DateLayout), nil
	case ir.Int:
		return int64(v), nil
	case ir.Null:
		return nil, nil
	case ir.Text:
		return string(v), nil
	case ir.UUID:
		return v.UUID().String(), nil
	case ir.Uint:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return n, nil
	case ir.Invalid:
		return nil, v
	}
	return nil, fmt.Errorf("%w %T", ErrUnsupportedBinding, b)
}

// Args converts bindings in placeholder order.
func Args(bindings []ir.Binding) ([]any, error) {
	args := make([]any, len(bindings))
	for i, b := range bindings {
		v, err := Arg(b)
		if err != nil {
			return nil, &BindError{Position: i + 1, Binding: b, Err: err}
		}
		args[i] = v
	}
	return args, nil
}

// Row converts the values scanned from one result row to bindings.
func Row(values []any) []ir.Binding {
	row := make([]ir.Binding, len(values))
	for i, v := range values {
		row[i] = ir.Of(v)
	}
	return row
}
