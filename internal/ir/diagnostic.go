package ir

import (
	"context"
	"log/slog"
)

// Code identifies a class of diagnostic.
type Code string

// Diagnostic codes. Diagnostics never stop rendering; they flag statements
// that were rendered best-effort.
const (
	// CodeFilterDropped: a filter the statement has no place for, such as an
	// upsert update filter without a DO UPDATE clause.
	CodeFilterDropped Code = "D001"
	// CodeRiskyLiteral: a date, uuid or blob binding inlined as a literal.
	CodeRiskyLiteral Code = "D002"
	// CodeInvalidBinding: an invalid binding inlined as NULL.
	CodeInvalidBinding Code = "D003"
	// CodeUintOverflow: a uint binding above the int64 range was inlined.
	CodeUintOverflow Code = "D004"
	// CodeNoOp: a clause or statement that renders nothing.
	CodeNoOp Code = "D005"
	// CodeRowsDropped: INSERT rows that do not match its column list.
	CodeRowsDropped Code = "D006"
)

// Diagnostic is a non-fatal report attached to a fragment.
type Diagnostic struct {
	Code    Code
	Message string
}

// Diagnosef builds a diagnostic.
func Diagnosef(code Code, message string) Diagnostic {
	return Diagnostic{Code: code, Message: message}
}

func (d Diagnostic) String() string {
	return string(d.Code) + ": " + d.Message
}

// Report logs every diagnostic of f at warn level. A nil logger uses
// slog.Default.
func Report(logger *slog.Logger, f Fragment) int {
	if len(f.diags) == 0 {
		return 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	sql, _ := f.Prepare(QuestionMark)
	for _, d := range f.diags {
		logger.LogAttrs(context.Background(), slog.LevelWarn, "statement diagnostic",
			slog.String("code", string(d.Code)),
			slog.String("message", d.Message),
			slog.String("sql", sql),
		)
	}
	return len(f.diags)
}
