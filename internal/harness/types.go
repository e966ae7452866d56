package harness

// Snapshot is the observable state of the scenario variant after a step.
type Snapshot struct {
	// Step is the 1-based step index. The snapshot taken on open is step 0.
	Step int `json:"step"`

	// Op is the operation that produced the snapshot.
	Op string `json:"op"`

	// Error is the error the step returned, if any.
	Error string `json:"error,omitempty"`

	// State is the materialization state name.
	State string `json:"state"`

	// Fields maps each property path to its value in document encoding.
	// Fields the codec cannot encode are left out.
	Fields map[string]any `json:"fields"`

	// Overrides lists the overridden paths in recording order.
	Overrides []string `json:"overrides"`

	// Patch is the blob as last persisted.
	Patch string `json:"patch"`

	StaleCount int  `json:"stale_count"`
	Malformed  bool `json:"malformed"`

	// Diagnostics holds the diagnostic codes of the latest materialization.
	Diagnostics []string `json:"diagnostics"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace holds one snapshot per step, preceded by the snapshot on open.
	Trace []Snapshot `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Writes counts the artifact writes made during the scenario.
	Writes int `json:"writes"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []Snapshot{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Final returns the last snapshot taken.
func (r *Result) Final() Snapshot {
	if len(r.Trace) == 0 {
		return Snapshot{}
	}
	return r.Trace[len(r.Trace)-1]
}

// toMap converts a snapshot to plain values for ir and expr.
func (s Snapshot) toMap() map[string]any {
	overrides := make([]any, len(s.Overrides))
	for i, p := range s.Overrides {
		overrides[i] = p
	}
	diagnostics := make([]any, len(s.Diagnostics))
	for i, d := range s.Diagnostics {
		diagnostics[i] = d
	}
	fields := s.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	m := map[string]any{
		"step":        s.Step,
		"op":          s.Op,
		"state":       s.State,
		"fields":      fields,
		"overrides":   overrides,
		"patch":       s.Patch,
		"stale_count": s.StaleCount,
		"malformed":   s.Malformed,
		"diagnostics": diagnostics,
	}
	if s.Error != "" {
		m["error"] = s.Error
	}
	return m
}
