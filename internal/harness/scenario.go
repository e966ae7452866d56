package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OriginID is the identifier the scenario origin is registered under.
const OriginID = "origin"

// Scenario defines a variant conformance scenario: an origin object, a
// variant of it and a sequence of edits, checked by assertions over the
// materialized result.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Types is inline CUE declaring the object types.
	Types string `yaml:"types,omitempty"`

	// Schema is a directory of CUE files declaring the object types.
	// Relative paths are resolved against the scenario file.
	Schema string `yaml:"schema,omitempty"`

	// Origin is the object the variant derives from.
	Origin ObjectDef `yaml:"origin"`

	// Objects are additional objects, keyed by identifier, that references
	// can point at.
	Objects map[string]ObjectDef `yaml:"objects,omitempty"`

	// Variant describes the persisted variant the session opens.
	Variant VariantDef `yaml:"variant,omitempty"`

	// Steps are applied in order after the session opens.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the state after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// ObjectDef declares an object by type and field values. Field values use
// the document encoding of their kind and are keyed by property path.
type ObjectDef struct {
	Type   string         `yaml:"type"`
	Name   string         `yaml:"name,omitempty"`
	Fields map[string]any `yaml:"fields,omitempty"`
}

// VariantDef is the initial artifact of the scenario variant.
type VariantDef struct {
	// Name is the variant display name. Defaults to "<origin name> (Variant)".
	Name string `yaml:"name,omitempty"`

	// Patch is the persisted override blob. Empty is an empty store.
	Patch string `yaml:"patch,omitempty"`

	// Orphan opens the variant with no origin identifier.
	Orphan bool `yaml:"orphan,omitempty"`
}

// Step is a single scenario operation. Exactly one operation field is set.
type Step struct {
	// Record sets a field on the session and records the override.
	Record *FieldValue `yaml:"record,omitempty"`

	// Revert removes the override at a path.
	Revert string `yaml:"revert,omitempty"`

	// MutateOrigin edits the origin and announces the change.
	MutateOrigin *FieldValue `yaml:"mutate_origin,omitempty"`

	// DeleteOrigin removes the origin and announces the change.
	DeleteOrigin bool `yaml:"delete_origin,omitempty"`

	// RestoreOrigin registers the origin again after DeleteOrigin.
	RestoreOrigin bool `yaml:"restore_origin,omitempty"`

	// SetPatch replaces the persisted blob as an outside editor would.
	SetPatch *string `yaml:"set_patch,omitempty"`

	// Refresh rematerializes the variant.
	Refresh bool `yaml:"refresh,omitempty"`

	// ExpectError is the diagnostic code the step must fail with, or "any".
	ExpectError string `yaml:"expect_error,omitempty"`
}

// FieldValue is a property path and its value in document encoding.
type FieldValue struct {
	Path  string `yaml:"path"`
	Value any    `yaml:"value"`
}

// Assertion is a boolean expr-lang expression over the final state.
type Assertion struct {
	Expr    string `yaml:"expr"`
	Message string `yaml:"message,omitempty"`
}

// Step operation names, as recorded in the trace.
const (
	OpOpen          = "open"
	OpRecord        = "record"
	OpRevert        = "revert"
	OpMutateOrigin  = "mutate_origin"
	OpDeleteOrigin  = "delete_origin"
	OpRestoreOrigin = "restore_origin"
	OpSetPatch      = "set_patch"
	OpRefresh       = "refresh"
)

// Op returns the name of the step's operation. It is empty when no
// operation field is set and "ambiguous" when more than one is.
func (s Step) Op() string {
	var ops []string
	if s.Record != nil {
		ops = append(ops, OpRecord)
	}
	if s.Revert != "" {
		ops = append(ops, OpRevert)
	}
	if s.MutateOrigin != nil {
		ops = append(ops, OpMutateOrigin)
	}
	if s.DeleteOrigin {
		ops = append(ops, OpDeleteOrigin)
	}
	if s.RestoreOrigin {
		ops = append(ops, OpRestoreOrigin)
	}
	if s.SetPatch != nil {
		ops = append(ops, OpSetPatch)
	}
	if s.Refresh {
		ops = append(ops, OpRefresh)
	}
	switch len(ops) {
	case 0:
		return ""
	case 1:
		return ops[0]
	}
	return "ambiguous"
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Schema != "" && !filepath.IsAbs(s.Schema) {
		s.Schema = filepath.Join(filepath.Dir(path), s.Schema)
	}
	return s, nil
}

// ParseScenario parses scenario YAML. Schema paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
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
	switch {
	case s.Types == "" && s.Schema == "":
		return fmt.Errorf("one of types or schema is required")
	case s.Types != "" && s.Schema != "":
		return fmt.Errorf("types and schema are mutually exclusive")
	}
	if s.Origin.Type == "" {
		return fmt.Errorf("origin.type is required")
	}
	if _, dup := s.Objects[OriginID]; dup {
		return fmt.Errorf("objects: %q is reserved for the origin", OriginID)
	}
	for id, obj := range s.Objects {
		if obj.Type == "" {
			return fmt.Errorf("objects[%s]: type is required", id)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if a.Expr == "" {
			return fmt.Errorf("assertions[%d]: expr is required", i)
		}
	}
	return nil
}

func validateStep(s Step) error {
	switch op := s.Op(); op {
	case "":
		return fmt.Errorf("no operation given")
	case "ambiguous":
		return fmt.Errorf("exactly one operation per step")
	case OpRecord:
		if s.Record.Path == "" {
			return fmt.Errorf("record.path is required")
		}
	case OpMutateOrigin:
		if s.MutateOrigin.Path == "" {
			return fmt.Errorf("mutate_origin.path is required")
		}
	}
	return nil
}
