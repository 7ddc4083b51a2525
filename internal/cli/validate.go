package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/structq/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid" yaml:"valid"`
	Tables   int                        `json:"tables" yaml:"tables"`
	Errors   []compiler.ValidationError `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate table schemas",
		Long: `Validate the CUE table definitions in a directory.

Reports every problem at once: malformed columns, unknown types, primary and
soft-delete keys that name no column, and foreign keys that name no table.
Reference cycles between tables are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result, errs := ValidateSchemaDir(schemaDir)
	if result == nil {
		return outputLoadError(formatter, errs[0])
	}
	formatter.VerboseLog("Validated %d table(s) in %s", result.Tables, schemaDir)

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateSchemaDir validates all tables in a directory. The result is nil
// when the directory could not be loaded at all; errs then holds the cause.
func ValidateSchemaDir(schemaDir string) (*ValidationResult, []error) {
	loadResult, loadErrors := LoadTables(schemaDir, LoadModeCollectAll)
	if loadResult == nil {
		return nil, loadErrors
	}

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOf(loadErr),
			})
		}
	}
	validationErrors = append(validationErrors, compiler.ValidateSchema(loadResult.Specs)...)
	_, warnings := compiler.CreationOrder(loadResult.Specs)

	return &ValidationResult{
		Valid:    len(validationErrors) == 0,
		Tables:   len(loadResult.Specs),
		Errors:   validationErrors,
		Warnings: warnings,
	}, nil
}

func lineOf(err *LoadError) int {
	if err.Pos.IsValid() {
		return err.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format != "text" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema valid (%d table(s))\n", result.Tables)
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", w.Level, w.Message)
	}
	return nil
}

// outputLoadError reports an error that stopped a schema from loading.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return outputCommandError(formatter, loadErr.Code, loadErr.Message, nil)
	}
	return outputCommandError(formatter, ErrCodeGeneric, err.Error(), nil)
}

// outputCommandError outputs a single command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result *ValidationResult) error {
	errs := result.Errors
	if wrote, err := formatter.Failure(errs[0].Code, errs[0].Message, result); wrote {
		if err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
