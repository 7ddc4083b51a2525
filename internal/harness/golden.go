package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/structq/internal/ir"
)

// Statement is anything that renders to SQL.
type Statement interface {
	Fragment() ir.Fragment
}

// Snapshot renders a statement as golden-file text: the SQL with ?
// placeholders, then one comment line per binding in placeholder order and
// one per diagnostic. An empty statement renders as "-- empty statement".
//
//	INSERT INTO "tags" ("title") VALUES (?)
//	-- 1: 'car'
func Snapshot(s Statement) []byte {
	f := s.Fragment()
	var sb strings.Builder
	if f.IsEmpty() {
		sb.WriteString("-- empty statement\n")
	} else {
		sql, bindings := f.Prepare(ir.QuestionMark)
		sb.WriteString(sql)
		sb.WriteByte('\n')
		for i, b := range bindings {
			fmt.Fprintf(&sb, "-- %d: %s\n", i+1, b)
		}
	}
	for _, d := range f.Diagnostics() {
		fmt.Fprintf(&sb, "-- %s\n", d)
	}
	return []byte(sb.String())
}

// TraceSnapshot renders a scenario trace as golden-file text: one header
// line per step, then its SQL and bindings as in Snapshot and what the
// database reported.
//
//	[1] setup insert tags
//	INSERT INTO "tags" ("title") VALUES (?)
//	-- 1: 'car'
//	-- changed 1
func TraceSnapshot(result *Result) []byte {
	var sb strings.Builder
	for _, event := range result.Trace {
		fmt.Fprintf(&sb, "[%d] %s %s %s\n", event.Seq, event.Phase, event.Statement, event.Table)
		if event.SQL == "" && event.Error == "" {
			sb.WriteString("-- empty statement\n")
		}
		if event.SQL != "" {
			sb.WriteString(event.SQL)
			sb.WriteByte('\n')
		}
		for i, b := range event.Bindings {
			fmt.Fprintf(&sb, "-- %d: %s\n", i+1, b)
		}
		for _, d := range event.Diagnostics {
			fmt.Fprintf(&sb, "-- %s\n", d)
		}
		switch {
		case event.Error != "":
			fmt.Fprintf(&sb, "-- error: %s\n", event.Error)
		case event.Count != nil:
			fmt.Fprintf(&sb, "-- count %d\n", *event.Count)
		case event.Rows != nil:
			fmt.Fprintf(&sb, "-- %d row(s)\n", len(event.Rows))
		case event.SQL != "":
			fmt.Fprintf(&sb, "-- changed %d\n", event.Changed)
		}
	}
	return []byte(sb.String())
}

// AssertGolden compares the snapshot of s against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/query -update
func AssertGolden(t *testing.T, name string, s Statement) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(s))
}

// AssertTraceGolden compares the trace snapshot of result against
// testdata/golden/{name}.golden.
func AssertTraceGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, TraceSnapshot(result))
}
