package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/structq/internal/compiler"
)

// Scenario defines a test scenario: statements run against a fresh
// database built from a schema, then assertions on the resulting trace and
// table contents.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup contains statements run before the main flow.
	// Setup statements must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the statements under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, row_count,
	// final_state
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one statement on one table, written the way the render command
// takes it:
//
//	- table: tags
//	  statement: upsert
//	  set: [id=1, title=car]
type Step struct {
	Table string `yaml:"table"`

	compiler.Request `yaml:",inline"`

	// Expect checks the step's outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a flow step. Unset fields
// are not checked.
type ExpectClause struct {
	// SQL is the exact text with ? placeholders.
	SQL *string `yaml:"sql,omitempty"`

	// Changed is the number of rows a write changed.
	Changed *int64 `yaml:"changed,omitempty"`

	// Rows is the number of rows a read returned.
	Rows *int `yaml:"rows,omitempty"`

	// Count is the result of a count statement.
	Count *int64 `yaml:"count,omitempty"`

	// Error is a substring of the error the step must fail with.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": some step rendered SQL containing SQL
	// - "trace_order": steps of the listed statement kinds ran in order
	// - "trace_count": Table saw Statement exactly Count times
	// - "row_count": Table holds Count rows matching Where
	// - "final_state": exactly one row matches Where and has Expect's values
	Type string `yaml:"type"`

	// SQL is a substring of a step's rendered text (trace_contains).
	SQL string `yaml:"sql,omitempty"`

	// Table narrows trace assertions and names the table for state ones.
	Table string `yaml:"table,omitempty"`

	// Statement is a statement kind (trace_count).
	Statement string `yaml:"statement,omitempty"`

	// Statements is the expected order of statement kinds (trace_order).
	Statements []string `yaml:"statements,omitempty"`

	// Where holds column=value filters (row_count, final_state).
	Where []string `yaml:"where,omitempty"`

	// Unscoped includes rows the table's default scope hides.
	Unscoped bool `yaml:"unscoped,omitempty"`

	// Expect contains expected column values (final_state).
	// Subset match: only the listed columns are checked.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of steps or rows.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertRowCount      = "row_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict fields catch typos like "assertion:" for "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(fmt.Sprintf("setup[%d]", i), step); err != nil {
			return err
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is only allowed in flow steps", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(fmt.Sprintf("flow[%d]", i), step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(where string, step Step) error {
	if step.Table == "" {
		return fmt.Errorf("%s: table is required", where)
	}
	if step.Kind == "" {
		return fmt.Errorf("%s: statement is required", where)
	}
	if !slices.Contains(compiler.Statements, step.Kind) {
		return fmt.Errorf("%s: unknown statement %q", where, step.Kind)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.SQL == "" {
			return fmt.Errorf("assertions[%d]: sql is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Statements) == 0 {
			return fmt.Errorf("assertions[%d]: statements list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Statement == "" {
			return fmt.Errorf("assertions[%d]: statement is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
