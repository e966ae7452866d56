package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"override_tracks_origin", "stale_and_missing_origin"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestTraceSnapshotMarshal(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "tiny",
		Trace: []Snapshot{{
			Op:     OpOpen,
			State:  "fallback",
			Fields: map[string]any{},
		}},
	}
	data, err := snap.Marshal()
	require.NoError(t, err)

	want := `{
  "scenario_name": "tiny",
  "trace": [
    {
      "diagnostics": [],
      "fields": {},
      "malformed": false,
      "op": "open",
      "overrides": [],
      "patch": "",
      "stale_count": 0,
      "state": "fallback",
      "step": 0
    }
  ],
  "writes": 0
}
`
	assert.Equal(t, want, string(data))
}

func TestTraceSnapshotMarshal_Deterministic(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "lists_and_references.yaml"))
	require.NoError(t, err)

	var outputs []string
	for range 3 {
		result, err := Run(s)
		require.NoError(t, err)
		data, err := (&TraceSnapshot{ScenarioName: s.Name, Trace: result.Trace, Writes: result.Writes}).Marshal()
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}
