package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(s.Steps)+1)
		})
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	result, err := Run(parse(t, minimalScenario))
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, OpOpen, result.Trace[0].Op)
	assert.Equal(t, OpRecord, result.Trace[1].Op)
	assert.Equal(t, []string{"speed"}, result.Final().Overrides)
	assert.Equal(t, `{"v":1,"o":{"speed":2}}`, result.Final().Patch)
	assert.Equal(t, 1, result.Writes)
}

func TestRun_UnexpectedStepError(t *testing.T) {
	result, err := Run(parse(t, `
name: bad_path
description: "Recording an unknown path fails the step"
types: |
  types: Enemy: {speed: "float"}
origin: {type: Enemy}
steps:
  - record: {path: armor, value: 1}
assertions:
  - expr: 'len(overrides) == 0'
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "step 1 (record): unexpected error")
	assert.NotEmpty(t, result.Trace[1].Error)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	result, err := Run(parse(t, `
name: no_error
description: "A step expected to fail succeeds"
types: |
  types: Enemy: {speed: "float"}
origin: {type: Enemy}
steps:
  - record: {path: speed, value: 1}
    expect_error: UNSUPPORTED_FIELD_KIND
assertions:
  - expr: 'true'
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error UNSUPPORTED_FIELD_KIND, step succeeded")
}

func TestRun_WrongErrorCode(t *testing.T) {
	result, err := Run(parse(t, `
name: wrong_code
description: "A step fails with another code than expected"
types: |
  types: Enemy: {speed: "float"}
origin: {type: Enemy}
steps:
  - delete_origin: true
  - record: {path: speed, value: 1}
    expect_error: STALE_OVERRIDE_PATH
assertions:
  - expr: 'state == "fallback"'
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error STALE_OVERRIDE_PATH, got: UNRESOLVED_ORIGIN")
}

func TestRun_FailingAssertion(t *testing.T) {
	result, err := Run(parse(t, `
name: failing
description: "Assertion failures are collected"
types: |
  types: Enemy: {speed: "float"}
origin: {type: Enemy, fields: {speed: 5}}
assertions:
  - expr: 'fields.speed == 6'
    message: "speed should be six"
  - expr: 'fields.speed == 5'
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertion 1")
	assert.Contains(t, result.Errors[0], "speed should be six")
}

func TestRun_OrphanVariant(t *testing.T) {
	result, err := Run(parse(t, `
name: orphan
description: "A variant without an origin identifier falls back"
types: |
  types: Enemy: {speed: "float"}
origin: {type: Enemy}
variant:
  name: Lost
  patch: '{"v":1,"o":{"speed":3}}'
  orphan: true
assertions:
  - expr: 'state == "fallback"'
  - expr: 'diagnostics == ["UNRESOLVED_ORIGIN"]'
  - expr: 'overridden("speed")'
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_SetupErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown type",
			yaml: "name: n\ndescription: d\ntypes: 'types: Enemy: {speed: \"float\"}'\norigin: {type: Boss}\nassertions: [{expr: 'true'}]",
			want: `unknown type "Boss"`,
		},
		{
			name: "bad field value",
			yaml: "name: n\ndescription: d\ntypes: 'types: Enemy: {speed: \"float\"}'\norigin: {type: Enemy, fields: {speed: fast}}\nassertions: [{expr: 'true'}]",
			want: "origin",
		},
		{
			name: "bad schema",
			yaml: "name: n\ndescription: d\ntypes: 'types: Enemy: {speed: \"quaternionic\"}'\norigin: {type: Enemy}\nassertions: [{expr: 'true'}]",
			want: "unknown field kind",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(parse(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
