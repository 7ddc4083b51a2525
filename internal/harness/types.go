package harness

// TraceEvent records one executed step: the statement it built, the SQL it
// rendered and what the database did with it.
type TraceEvent struct {
	Seq       int    `json:"seq" yaml:"seq"`
	Phase     string `json:"phase" yaml:"phase"` // "setup" or "flow"
	Table     string `json:"table" yaml:"table"`
	Statement string `json:"statement" yaml:"statement"`

	// SQL is empty when the statement rendered nothing.
	SQL         string   `json:"sql,omitempty" yaml:"sql,omitempty"`
	Bindings    []string `json:"bindings,omitempty" yaml:"bindings,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`

	// Changed counts the rows a write changed. Statements with RETURNING
	// report the rows they returned.
	Changed int64 `json:"changed,omitempty" yaml:"changed,omitempty"`

	// Count is the result of a count statement.
	Count *int64 `json:"count,omitempty" yaml:"count,omitempty"`

	// Rows holds the decoded rows of reads, keyed by column name.
	Rows []map[string]any `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Error is set when building or executing the statement failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every executed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event, numbering it after the previous one.
func (r *Result) AddTrace(event TraceEvent) {
	event.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, event)
}
