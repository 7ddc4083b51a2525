package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/structq/internal/ir"
)

// TableSpec is a table definition read from CUE, before it is built into
// schema metadata.
type TableSpec struct {
	Name       string       `json:"name" yaml:"name"`
	Schema     string       `json:"schema,omitempty" yaml:"schema,omitempty"`
	PrimaryKey string       `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	SoftDelete string       `json:"soft_delete,omitempty" yaml:"soft_delete,omitempty"`
	Columns    []ColumnSpec `json:"columns" yaml:"columns"`

	Pos token.Pos `json:"-" yaml:"-"`
}

// ColumnSpec is one column of a TableSpec.
type ColumnSpec struct {
	Name       string     `json:"name" yaml:"name"`
	Type       string     `json:"type" yaml:"type"`
	Nullable   bool       `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Generated  bool       `json:"generated,omitempty" yaml:"generated,omitempty"`
	Default    ir.Binding `json:"-" yaml:"-"`
	Expression string     `json:"expression,omitempty" yaml:"expression,omitempty"`
	References string     `json:"references,omitempty" yaml:"references,omitempty"`

	Pos token.Pos `json:"-" yaml:"-"`
}

// Column returns the column named name.
func (s *TableSpec) Column(name string) (ColumnSpec, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// CompileTable parses a CUE value into a TableSpec.
//
// The value is the table struct itself. Columns keep their declaration order
// and their names are normalized to NFC:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`table: tags: { primary_key: "id", columns: { id: int, title: string } }`)
//	spec, err := CompileTable(v.LookupPath(cue.ParsePath("table.tags")))
//
// A column is either a bare type (string, int, float, bool, bytes, or a
// struct or list stored as JSON text), optionally joined with null, or a
// struct with a type or sql field plus any of nullable, default, generated,
// expression and references.
func CompileTable(v cue.Value) (*TableSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &TableSpec{Pos: v.Pos()}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labelName(labels[len(labels)-1])
	}
	var err error
	if spec.Name, err = optionalString(v, "name", spec.Name); err != nil {
		return nil, err
	}
	spec.Name = norm.NFC.String(spec.Name)

	if spec.Schema, err = optionalString(v, "schema", ""); err != nil {
		return nil, err
	}
	if spec.PrimaryKey, err = optionalString(v, "primary_key", ""); err != nil {
		return nil, err
	}
	spec.PrimaryKey = norm.NFC.String(spec.PrimaryKey)
	if spec.SoftDelete, err = optionalString(v, "soft_delete", ""); err != nil {
		return nil, err
	}
	spec.SoftDelete = norm.NFC.String(spec.SoftDelete)

	spec.Columns, err = parseColumns(v)
	if err != nil {
		return nil, err
	}
	if len(spec.Columns) == 0 {
		return nil, &CompileError{
			Field:   "columns",
			Message: "at least one column is required",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// parseColumns extracts column definitions in declaration order.
func parseColumns(v cue.Value) ([]ColumnSpec, error) {
	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, nil
	}

	iter, err := colsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cols []ColumnSpec
	for iter.Next() {
		col, err := parseColumn(norm.NFC.String(iter.Label()), iter.Value())
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func parseColumn(name string, v cue.Value) (ColumnSpec, error) {
	col := ColumnSpec{Name: name, Pos: v.Pos()}

	if !isDetailed(v) {
		sqlType, nullable, err := extractTypeName(v)
		if err != nil {
			return col, err
		}
		col.Type, col.Nullable = sqlType, nullable
		return col, nil
	}

	if sqlVal := v.LookupPath(cue.ParsePath("sql")); sqlVal.Exists() {
		s, err := sqlVal.String()
		if err != nil {
			return col, formatCUEError(err)
		}
		col.Type = strings.ToUpper(strings.TrimSpace(s))
	} else {
		sqlType, nullable, err := extractTypeName(v.LookupPath(cue.ParsePath("type")))
		if err != nil {
			return col, err
		}
		col.Type, col.Nullable = sqlType, nullable
	}

	if n := v.LookupPath(cue.ParsePath("nullable")); n.Exists() {
		b, err := n.Bool()
		if err != nil {
			return col, formatCUEError(err)
		}
		col.Nullable = b
	}

	if g := v.LookupPath(cue.ParsePath("generated")); g.Exists() {
		b, err := g.Bool()
		if err != nil {
			return col, formatCUEError(err)
		}
		col.Generated = b
	}

	var err error
	if col.Expression, err = optionalString(v, "expression", ""); err != nil {
		return col, err
	}
	if col.References, err = optionalString(v, "references", ""); err != nil {
		return col, err
	}

	if d := v.LookupPath(cue.ParsePath("default")); d.Exists() {
		col.Default, err = extractLiteral(d)
		if err != nil {
			return col, err
		}
	}

	return col, nil
}

// isDetailed reports whether a column value is a definition struct rather
// than a bare JSON object type.
func isDetailed(v cue.Value) bool {
	if v.IncompleteKind() != cue.StructKind {
		return false
	}
	return v.LookupPath(cue.ParsePath("type")).Exists() || v.LookupPath(cue.ParsePath("sql")).Exists()
}

// extractTypeName maps a CUE type to a SQLite column affinity. A
// disjunction with null makes the column nullable.
func extractTypeName(v cue.Value) (string, bool, error) {
	kind := v.IncompleteKind()
	nullable := kind&cue.NullKind != 0
	if nullable && kind != cue.NullKind {
		kind &^= cue.NullKind
	}

	switch kind {
	case cue.StringKind:
		return "TEXT", nullable, nil
	case cue.IntKind:
		return "INTEGER", nullable, nil
	case cue.FloatKind, cue.NumberKind:
		return "REAL", nullable, nil
	case cue.BoolKind:
		return "BOOLEAN", nullable, nil
	case cue.BytesKind:
		return "BLOB", nullable, nil
	case cue.ListKind, cue.StructKind:
		return "TEXT", nullable, nil
	default:
		return "", false, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// extractLiteral converts a concrete CUE value into the binding used as a
// column default.
func extractLiteral(v cue.Value) (ir.Binding, error) {
	if !v.IsConcrete() {
		return nil, &CompileError{
			Field:   "default",
			Message: "default must be a concrete value",
			Pos:     v.Pos(),
		}
	}
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(i), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Double(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Text(s), nil
	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.NewBlob(b), nil
	default:
		return nil, &CompileError{
			Field:   "default",
			Message: fmt.Sprintf("unsupported default kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func labelName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

func optionalString(v cue.Value, field, fallback string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return fallback, nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
