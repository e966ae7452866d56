// Package harness runs variant conformance scenarios.
//
// A scenario declares object types, an origin object and a persisted
// variant of it, then applies a sequence of steps through a variant session
// and checks the result with boolean expressions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: override_tracks_origin
//	description: "Non-overridden fields follow origin edits"
//	types: |
//	  types: Enemy: {speed: "float", label: "string"}
//	origin:
//	  type: Enemy
//	  name: Goblin
//	  fields: {speed: 5, label: base}
//	variant:
//	  patch: '{"v":1,"o":{}}'
//	steps:
//	  - record: {path: speed, value: 9.5}
//	  - mutate_origin: {path: label, value: changed}
//	assertions:
//	  - expr: 'fields.speed == 9.5'
//	  - expr: 'fields.label == "changed"'
//	  - expr: 'overridden("speed")'
//
// Types come from inline CUE (types) or a directory of CUE files (schema).
// Field values use the document encoding of their kind: numbers, strings,
// objects such as {x: 1, y: 2, z: 3}, and identifiers for references.
//
// # Steps
//
//   - record: set a field on the variant and record the override
//   - revert: remove the override at a path
//   - mutate_origin: change a field of the origin
//   - delete_origin, restore_origin: remove the origin and bring it back
//   - set_patch: replace the persisted blob as an outside editor would
//   - refresh: rematerialize
//
// A step that should fail names the diagnostic code in expect_error, or
// "any".
//
// # Assertions
//
// Assertions are expr-lang expressions evaluated against the final state:
// state, fields, overrides, patch, stale_count, malformed, diagnostics,
// origin (the origin's fields, nil once deleted), writes and trace (one
// entry per step, each with the same keys as the final state).
//
// # Golden Snapshots
//
// RunWithGolden compares the trace against testdata/golden/<name>.golden.
// Every run uses a fresh in-memory database and fixed identifiers, so traces
// are identical across runs.
package harness
