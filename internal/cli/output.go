package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Process exit codes of structq.
const (
	ExitSuccess      = 0 // statements rendered, schema valid, scenarios passed
	ExitFailure      = 1 // invalid schema, failed scenario, or a statement error
	ExitCommandError = 2 // bad arguments, missing schema directory, unreadable database
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text, or as a JSON or YAML
// envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose messages; Writer when nil
	Verbose   bool
}

// CLIResponse is the envelope of structured output.
type CLIResponse struct {
	Status string      `json:"status" yaml:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty" yaml:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty" yaml:"error,omitempty"`
}

// CLIError is the error part of the envelope. Code is one of the E0xx
// constants in loader.go.
type CLIError struct {
	Code    string      `json:"code" yaml:"code"`
	Message string      `json:"message" yaml:"message"`
	Details interface{} `json:"details,omitempty" yaml:"details,omitempty"`
}

func (f *OutputFormatter) structured() bool {
	return f.Format == "json" || f.Format == "yaml"
}

// encode writes resp as JSON or YAML; ok is false for text output.
func (f *OutputFormatter) encode(resp CLIResponse) (ok bool, err error) {
	switch f.Format {
	case "json":
		return true, json.NewEncoder(f.Writer).Encode(resp)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

// Success writes data. Text output prints it with fmt.
func (f *OutputFormatter) Success(data interface{}) error {
	if ok, err := f.encode(CLIResponse{Status: "ok", Data: data}); ok {
		return err
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a failed command's code and message.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	resp := CLIResponse{
		Status: "error",
		Error:  &CLIError{Code: code, Message: message, Details: details},
	}
	if ok, err := f.encode(resp); ok {
		return err
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Failure writes an error envelope that still carries the command's
// result, such as the per-scenario outcome of a failed test run. It writes
// nothing for text output, where commands print their own report, and
// reports whether it wrote.
func (f *OutputFormatter) Failure(code, message string, data interface{}) (bool, error) {
	if !f.structured() {
		return false, nil
	}
	return f.encode(CLIResponse{
		Status: "error",
		Data:   data,
		Error:  &CLIError{Code: code, Message: message},
	})
}

// VerboseLog prints a progress line with --verbose. It goes to ErrWriter so
// that JSON and YAML output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
