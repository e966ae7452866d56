package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/variant"
)

// EditResult reports the overrides of a variant after an edit.
type EditResult struct {
	Variant   string   `json:"variant"`
	Path      string   `json:"path"`
	Removed   *bool    `json:"removed,omitempty"`
	Overrides []string `json:"overrides"`
	Patch     string   `json:"patch"`
}

func (r EditResult) String() string {
	var b strings.Builder
	switch {
	case r.Removed == nil:
		fmt.Fprintf(&b, "Recorded %s on %s\n", r.Path, r.Variant)
	case *r.Removed:
		fmt.Fprintf(&b, "Reverted %s on %s\n", r.Path, r.Variant)
	default:
		fmt.Fprintf(&b, "%s has no override at %s\n", r.Variant, r.Path)
	}
	fmt.Fprintf(&b, "  overrides: %s\n", strings.Join(r.Overrides, ", "))
	return b.String()
}

// NewSetCommand creates the set command.
func NewSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <variant> <path> <value>",
		Short: "Override a field of a variant",
		Long: `Set a field on a variant and record it as an override. The value is read
as YAML in the field's document form: numbers, strings, {x: 1, y: 2, z: 3}
for vectors, an asset GUID or path for references, null for no reference.

Exit codes:
  0 - Override recorded
  1 - The variant cannot be edited or the field cannot be stored
  2 - Command error (unknown asset or field, bad value, etc.)

Examples:
  assetvariant set "Goblin (Variant).assetvariant" speed 9.5
  assetvariant set "Goblin (Variant).assetvariant" stats.hp 60
  assetvariant set "Goblin (Variant).assetvariant" "waypoints.Array.data[0]" "{x: 1, y: 2, z: 0}"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, opts, args[0], args[1], args[2])
		},
	}
}

func runSet(cmd *cobra.Command, opts *RootOptions, ref, path, text string) error {
	ctx := cmd.Context()
	f := newFormatter(cmd, opts)
	ws, err := openWorkspace(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer ws.Close()

	s, rec, err := ws.openSession(ctx, ref)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := editable(s); err != nil {
		return err
	}

	v, err := nativeValue(s.Object(), path, text, resolver{ws})
	if err != nil {
		return variantError("invalid value", err)
	}
	if err := s.RecordChange(ctx, path, v); err != nil {
		return variantError("change not recorded", err)
	}
	return f.Success(EditResult{
		Variant:   rec.Path,
		Path:      path,
		Overrides: s.ListOverriddenPaths(),
		Patch:     s.Artifact().Patch,
	})
}

// NewRevertCommand creates the revert command.
func NewRevertCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revert <variant> <path>",
		Short: "Remove an override from a variant",
		Long: `Remove the override recorded at exactly path. The field takes the origin's
value again. Reverting a path with no override changes nothing.

Examples:
  assetvariant revert "Goblin (Variant).assetvariant" speed`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRevert(cmd, opts, args[0], args[1])
		},
	}
}

func runRevert(cmd *cobra.Command, opts *RootOptions, ref, path string) error {
	ctx := cmd.Context()
	f := newFormatter(cmd, opts)
	ws, err := openWorkspace(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer ws.Close()

	s, rec, err := ws.openSession(ctx, ref)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := editable(s); err != nil {
		return err
	}

	removed, err := s.Revert(ctx, path)
	if err != nil {
		return variantError("revert failed", err)
	}
	return f.Success(EditResult{
		Variant:   rec.Path,
		Path:      path,
		Removed:   &removed,
		Overrides: s.ListOverriddenPaths(),
		Patch:     s.Artifact().Patch,
	})
}

// OverrideView is one recorded override.
type OverrideView struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// OverridesResult lists the overrides of a variant in insertion order.
type OverridesResult struct {
	Variant   string         `json:"variant"`
	Overrides []OverrideView `json:"overrides"`
	Malformed bool           `json:"malformed,omitempty"`
}

func (r OverridesResult) String() string {
	var b strings.Builder
	if len(r.Overrides) == 0 {
		fmt.Fprintf(&b, "%s has no overrides\n", r.Variant)
		return b.String()
	}
	for _, o := range r.Overrides {
		fmt.Fprintf(&b, "%s = %s\n", o.Path, valueText(o.Value))
	}
	return b.String()
}

// NewOverridesCommand creates the overrides command.
func NewOverridesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "overrides <variant>",
		Short: "List the overrides of a variant",
		Long: `List the recorded overrides of a variant with their portable values, in
the order they were first recorded. Stale entries are not listed.

Examples:
  assetvariant overrides "Goblin (Variant).assetvariant"
  assetvariant overrides "Goblin (Variant).assetvariant" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrides(cmd, opts, args[0])
		},
	}
}

func runOverrides(cmd *cobra.Command, opts *RootOptions, ref string) error {
	ctx := cmd.Context()
	f := newFormatter(cmd, opts)
	ws, err := openWorkspace(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer ws.Close()

	s, rec, err := ws.openSession(ctx, ref)
	if err != nil {
		return err
	}
	defer s.Close()

	result := OverridesResult{
		Variant:   rec.Path,
		Overrides: []OverrideView{},
		Malformed: s.Result().Malformed,
	}
	for path, v := range s.Store().All() {
		result.Overrides = append(result.Overrides, OverrideView{Path: path, Value: ir.ToAny(v)})
	}
	var warnings []string
	if result.Malformed {
		warnings = append(warnings, "patch is malformed; it is kept as is until the variant is edited")
	}
	return f.SuccessWithWarnings(result, warnings)
}

func editable(s *variant.Session) error {
	res := s.Result()
	if res.State == variant.Materialized {
		return nil
	}
	msg := fmt.Sprintf("%s is %s and cannot be edited", s.Object().Name(), res.State)
	if len(res.Diagnostics) > 0 {
		return WrapExitError(ExitFailure, msg, res.Diagnostics[0])
	}
	return NewExitError(ExitFailure, msg)
}

// variantError maps pipeline diagnostics to ExitFailure. Other errors are
// passed through so their own exit code applies.
func variantError(msg string, err error) error {
	if _, ok := diag.CodeOf(err); ok {
		return WrapExitError(ExitFailure, msg, err)
	}
	return err
}
