package compiler

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Validation error codes (E100-E199)
const (
	// Table errors (E101-E109)
	ErrTableNameEmpty     = "E101" // table name is required
	ErrTableNoColumns     = "E102" // at least one column required
	ErrInvalidColumnName  = "E103" // empty or invalid UTF-8 column name
	ErrInvalidColumnType  = "E104" // unknown SQL type
	ErrDuplicateName      = "E105" // duplicate column or table name
	ErrInvalidPrimaryKey  = "E106" // primary key names no column
	ErrInvalidSoftDelete  = "E107" // soft-delete column missing or not nullable
	ErrGeneratedDefault   = "E108" // generated column with a literal default
	ErrInvalidReference   = "E109" // foreign key names no table or column
	ErrReferenceMalformed = "E110" // reference is not table.column
)

// validTypes are the column types table definitions may declare.
var validTypes = []string{"INTEGER", "REAL", "TEXT", "BLOB", "BOOLEAN", "NUMERIC", "ANY"}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
	Code    string `json:"code" yaml:"code"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks one table definition.
// Returns all errors found (does not fail-fast).
func Validate(spec *TableSpec) []ValidationError {
	var errs []ValidationError
	line := spec.Pos.Line()

	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "table name is required and must be non-empty",
			Code:    ErrTableNameEmpty,
			Line:    line,
		})
	}

	if len(spec.Columns) == 0 {
		errs = append(errs, ValidationError{
			Field:   "columns",
			Message: "at least one column is required",
			Code:    ErrTableNoColumns,
			Line:    line,
		})
	}

	seen := make(map[string]bool)
	for i, c := range spec.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		colLine := c.Pos.Line()

		if strings.TrimSpace(c.Name) == "" || !utf8.ValidString(c.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid column name: %q", c.Name),
				Code:    ErrInvalidColumnName,
				Line:    colLine,
			})
		}

		// Names are NFC-normalized at compile time, so canonically
		// equivalent spellings collide here.
		if seen[c.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate column name: %q", c.Name),
				Code:    ErrDuplicateName,
				Line:    colLine,
			})
		}
		seen[c.Name] = true

		if !slices.Contains(validTypes, c.Type) {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("invalid type %q (valid: %s)", c.Type, strings.Join(validTypes, ", ")),
				Code:    ErrInvalidColumnType,
				Line:    colLine,
			})
		}

		if c.Generated && c.Default != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".default",
				Message: fmt.Sprintf("generated column %q takes an expression, not a default", c.Name),
				Code:    ErrGeneratedDefault,
				Line:    colLine,
			})
		}

		if c.References != "" {
			table, column, ok := strings.Cut(c.References, ".")
			if !ok || table == "" || column == "" {
				errs = append(errs, ValidationError{
					Field:   field + ".references",
					Message: fmt.Sprintf("reference %q must have the form table.column", c.References),
					Code:    ErrReferenceMalformed,
					Line:    colLine,
				})
			}
		}
	}

	if spec.PrimaryKey != "" {
		if _, ok := spec.Column(spec.PrimaryKey); !ok {
			errs = append(errs, ValidationError{
				Field:   "primary_key",
				Message: fmt.Sprintf("primary key %q is not a column", spec.PrimaryKey),
				Code:    ErrInvalidPrimaryKey,
				Line:    line,
			})
		}
	}

	if spec.SoftDelete != "" {
		c, ok := spec.Column(spec.SoftDelete)
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Field:   "soft_delete",
				Message: fmt.Sprintf("soft-delete column %q is not a column", spec.SoftDelete),
				Code:    ErrInvalidSoftDelete,
				Line:    line,
			})
		case !c.Nullable:
			errs = append(errs, ValidationError{
				Field:   "soft_delete",
				Message: fmt.Sprintf("soft-delete column %q must be nullable", spec.SoftDelete),
				Code:    ErrInvalidSoftDelete,
				Line:    line,
			})
		}
	}

	return errs
}

// ValidateSchema checks every table and the references between them.
func ValidateSchema(specs []*TableSpec) []ValidationError {
	var errs []ValidationError
	byName := make(map[string]*TableSpec, len(specs))
	for _, s := range specs {
		errs = append(errs, Validate(s)...)
		if _, dup := byName[s.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   "table",
				Message: fmt.Sprintf("duplicate table name: %q", s.Name),
				Code:    ErrDuplicateName,
				Line:    s.Pos.Line(),
			})
			continue
		}
		byName[s.Name] = s
	}

	for _, s := range specs {
		for i, c := range s.Columns {
			table, column, ok := strings.Cut(c.References, ".")
			if !ok {
				continue
			}
			target, found := byName[table]
			if found {
				_, found = target.Column(column)
			}
			if !found {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.columns[%d].references", s.Name, i),
					Message: fmt.Sprintf("reference %q names no known column", c.References),
					Code:    ErrInvalidReference,
					Line:    c.Pos.Line(),
				})
			}
		}
	}
	return errs
}
