package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/assetvariant/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string     `json:"scenario_name"`
	Trace        []Snapshot `json:"trace"`
	Writes       int        `json:"writes"`
}

// Marshal renders the snapshot as indented canonical JSON: keys sorted,
// numbers in one spelling, a trailing newline.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	trace := make([]any, len(s.Trace))
	for i, snap := range s.Trace {
		trace[i] = snap.toMap()
	}
	doc, err := ir.FromAny(map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"writes":        s.Writes,
	})
	if err != nil {
		return nil, err
	}
	data, err := ir.MarshalCanonical(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Writes:       result.Writes,
	}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
