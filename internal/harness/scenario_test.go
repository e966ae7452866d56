package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "Smallest valid scenario"
types: |
  types: Enemy: {speed: "float"}
origin:
  type: Enemy
steps:
  - record: {path: speed, value: 2}
assertions:
  - expr: 'fields.speed == 2'
`

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "Enemy", s.Origin.Type)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, OpRecord, s.Steps[0].Op())
	assert.Equal(t, "speed", s.Steps[0].Record.Path)
	assert.Equal(t, 2, s.Steps[0].Record.Value)
	assert.Len(t, s.Assertions, 1)
}

func TestLoadScenario_ResolvesSchemaRelativeToFile(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "lists_and_references.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "schema"), s.Schema)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\ntypes: x\norigin: {type: T}\nassertions: [{expr: 'true'}]",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\ntypes: x\norigin: {type: T}\nassertions: [{expr: 'true'}]",
			want: "description is required",
		},
		{
			name: "no types",
			yaml: "name: n\ndescription: d\norigin: {type: T}\nassertions: [{expr: 'true'}]",
			want: "one of types or schema is required",
		},
		{
			name: "both types and schema",
			yaml: "name: n\ndescription: d\ntypes: x\nschema: dir\norigin: {type: T}\nassertions: [{expr: 'true'}]",
			want: "mutually exclusive",
		},
		{
			name: "missing origin type",
			yaml: "name: n\ndescription: d\ntypes: x\nassertions: [{expr: 'true'}]",
			want: "origin.type is required",
		},
		{
			name: "reserved object id",
			yaml: "name: n\ndescription: d\ntypes: x\norigin: {type: T}\nobjects: {origin: {type: T}}\nassertions: [{expr: 'true'}]",
			want: "reserved",
		},
		{
			name: "empty step",
			yaml: "name: n\ndescription: d\ntypes: x\norigin: {type: T}\nsteps: [{expect_error: any}]\nassertions: [{expr: 'true'}]",
			want: "steps[0]: no operation given",
		},
		{
			name: "two operations",
			yaml: "name: n\ndescription: d\ntypes: x\norigin: {type: T}\nsteps: [{refresh: true, revert: speed}]\nassertions: [{expr: 'true'}]",
			want: "exactly one operation",
		},
		{
			name: "record without path",
			yaml: "name: n\ndescription: d\ntypes: x\norigin: {type: T}\nsteps: [{record: {value: 1}}]\nassertions: [{expr: 'true'}]",
			want: "record.path is required",
		},
		{
			name: "no assertions",
			yaml: "name: n\ndescription: d\ntypes: x\norigin: {type: T}",
			want: "assertions list is required",
		},
		{
			name: "empty expression",
			yaml: "name: n\ndescription: d\ntypes: x\norigin: {type: T}\nassertions: [{message: m}]",
			want: "assertions[0]: expr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStepOp(t *testing.T) {
	patch := `{"v":1,"o":{}}`
	assert.Equal(t, OpRevert, Step{Revert: "speed"}.Op())
	assert.Equal(t, OpMutateOrigin, Step{MutateOrigin: &FieldValue{Path: "speed"}}.Op())
	assert.Equal(t, OpDeleteOrigin, Step{DeleteOrigin: true}.Op())
	assert.Equal(t, OpRestoreOrigin, Step{RestoreOrigin: true}.Op())
	assert.Equal(t, OpSetPatch, Step{SetPatch: &patch}.Op())
	assert.Equal(t, OpRefresh, Step{Refresh: true}.Op())
	assert.Equal(t, "", Step{}.Op())
	assert.Equal(t, "ambiguous", Step{Refresh: true, DeleteOrigin: true}.Op())
}
