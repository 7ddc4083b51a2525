package ir

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompiledInlinesSafeLiterals(t *testing.T) {
	f := Concat(
		SQL("UPDATE "), Ref(tags), SQL(" SET "), Ident("title"), SQL(" = "), Bind(Text("it's")),
		SQL(", "), Ident("count"), SQL(" = "), Bind(Int(3)),
		SQL(", "), Ident("done"), SQL(" = "), Bind(Bool(true)),
		SQL(", "), Ident("score"), SQL(" = "), Bind(Double(0.5)),
		SQL(", "), Ident("notes"), SQL(" = "), Bind(Null{}),
	)

	got := f.Compiled(ContextTrigger)

	sql, bindings := got.Prepare(QuestionMark)
	assert.Equal(t, `UPDATE "tags" SET "title" = 'it''s', "count" = 3, "done" = 1, "score" = 0.5, "notes" = NULL`, sql)
	assert.Empty(t, bindings)
	assert.Empty(t, got.Diagnostics())
}

func TestCompiledRiskyLiteralsRaiseDiagnostics(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		binding Binding
		sql     string
		code    Code
	}{
		{"date", NewDate(at), "'2024-01-01 00:00:00.000'", CodeRiskyLiteral},
		{"uuid", NewUUID(id), "'00000000-0000-0000-0000-000000000001'", CodeRiskyLiteral},
		{"blob", NewBlob([]byte{0x01}), "X'01'", CodeRiskyLiteral},
		{"invalid", Invalid{Err: errors.New("bad json")}, "NULL", CodeInvalidBinding},
		{"uint overflow", Uint(math.MaxUint64), "18446744073709551615", CodeUintOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bind(tt.binding).Compiled(ContextView)

			sql, bindings := got.Prepare(QuestionMark)
			assert.Equal(t, tt.sql, sql)
			assert.Empty(t, bindings)

			diags := got.Diagnostics()
			require.Len(t, diags, 1)
			assert.Equal(t, tt.code, diags[0].Code)
			assert.Contains(t, diags[0].Message, "view")
		})
	}
}

func TestCompiledKeepsExistingDiagnostics(t *testing.T) {
	f := Bind(NewBlob(nil)).WithDiagnostic(Diagnosef(CodeNoOp, "earlier"))

	got := f.Compiled(ContextDDL)

	diags := got.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, CodeNoOp, diags[0].Code)
	assert.Equal(t, CodeRiskyLiteral, diags[1].Code)
}

func TestCompiledUintInRangeIsSilent(t *testing.T) {
	got := Bind(Uint(12)).Compiled(ContextTrigger)

	assert.Equal(t, "12", got.String())
	assert.Empty(t, got.Diagnostics())
}

func TestContextString(t *testing.T) {
	assert.Equal(t, "trigger", ContextTrigger.String())
	assert.Equal(t, "view", ContextView.String())
	assert.Equal(t, "ddl", ContextDDL.String())
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	f := Bind(NewBlob([]byte{0xff})).Compiled(ContextTrigger)
	n := Report(logger, f)

	assert.Equal(t, 1, n)
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "code=D002")
	assert.Contains(t, out, "X'FF'")
}

func TestReportWithoutDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	assert.Zero(t, Report(logger, SQL("SELECT 1")))
	assert.Empty(t, buf.String())
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnosef(CodeFilterDropped, "dropped")
	assert.Equal(t, "D001: dropped", d.String())
}
