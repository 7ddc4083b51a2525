// Package harness runs statement scenarios against a fresh database and
// snapshots rendered statements for golden-file tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: soft_delete
//	description: "Deleted lists drop out of the default scope"
//	setup:
//	  - table: lists
//	    statement: insert
//	    set: [id=1, title=home]
//	flow:
//	  - table: lists
//	    statement: update
//	    set: [deletedAt=2024-01-01]
//	    keys: ["1"]
//	    expect:
//	      changed: 1
//	  - table: lists
//	    statement: select
//	    expect:
//	      rows: 0
//	assertions:
//	  - type: trace_count
//	    statement: update
//	    count: 1
//	  - type: final_state
//	    table: lists
//	    where: [id=1]
//	    unscoped: true
//	    expect: { deletedAt: "2024-01-01" }
//
// Steps take the same fields as the render command's flags. Values are
// read as YAML scalars, so quote a number to store it as text.
//
// # Assertion Types
//
//   - trace_contains: some step rendered SQL containing the given text
//   - trace_order: statement kinds ran in the given order
//   - trace_count: a statement kind ran exactly N times
//   - row_count: a table holds N rows matching the filters
//   - final_state: exactly one row matches and holds the expected values
//
// # Determinism
//
// Every scenario gets its own in-memory SQLite database and renders with
// ? placeholders, so the same scenario always produces the same trace.
// TraceSnapshot turns that trace into golden-file text.
package harness
