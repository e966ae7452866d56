package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/assetvariant/internal/object"
	"github.com/roach88/assetvariant/internal/store"
	"github.com/roach88/assetvariant/internal/variant"
)

// ShowResult is an asset or variant with its field values.
type ShowResult struct {
	GUID   string      `json:"guid"`
	Path   string      `json:"path"`
	Kind   store.Kind  `json:"kind"`
	Name   string      `json:"name"`
	Type   string      `json:"type,omitempty"`
	Origin string      `json:"origin,omitempty"`
	State  string      `json:"state,omitempty"`
	Fields []FieldView `json:"fields"`

	Overrides   []string `json:"overrides,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

func (r ShowResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  (%s)\n", r.Name, r.Path)
	fmt.Fprintf(&b, "  guid:  %s\n", r.GUID)
	if r.Type != "" {
		fmt.Fprintf(&b, "  type:  %s\n", r.Type)
	}
	if r.Kind == store.KindVariant {
		fmt.Fprintf(&b, "  origin: %s\n", r.Origin)
		fmt.Fprintf(&b, "  state: %s\n", r.State)
	}
	if r.State == variant.Fallback.String() {
		fmt.Fprintf(&b, "\n  %s\n", variant.FallbackMessage)
	}
	if len(r.Fields) > 0 {
		b.WriteString("\n")
		writeFields(&b, r.Fields)
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "  ! %s\n", d)
	}
	return b.String()
}

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <asset>",
		Short: "Print an asset or variant",
		Long: `Print the fields of a plain asset, or the materialized fields of a variant.
Overridden fields of a variant are marked with *. Showing a variant never
writes to it.

Examples:
  assetvariant show "enemies/Goblin (Variant).assetvariant"
  assetvariant show enemies/Goblin.asset --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, args[0])
		},
	}
}

func runShow(cmd *cobra.Command, opts *RootOptions, ref string) error {
	ctx := cmd.Context()
	f := newFormatter(cmd, opts)
	ws, err := openWorkspace(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer ws.Close()

	rec, err := ws.lookup(ctx, ref)
	if err != nil {
		return err
	}
	if rec.Kind == store.KindAsset {
		result, err := ws.showAsset(ctx, rec)
		if err != nil {
			return err
		}
		return f.Success(result)
	}
	result, err := ws.showVariant(ctx, rec)
	if err != nil {
		return err
	}
	return f.Success(result)
}

func (w *workspace) showAsset(ctx context.Context, rec store.Asset) (ShowResult, error) {
	obj, err := w.project.LoadAsset(ctx, rec.GUID)
	if err != nil {
		return ShowResult{}, WrapExitError(ExitFailure, "failed to load asset", err)
	}
	defer obj.Release()
	return ShowResult{
		GUID:   rec.GUID,
		Path:   rec.Path,
		Kind:   rec.Kind,
		Name:   obj.Name(),
		Type:   obj.Type().Name,
		Fields: fieldViews(obj, w.project, nil),
	}, nil
}

func (w *workspace) showVariant(ctx context.Context, rec store.Asset) (ShowResult, error) {
	a, err := w.project.ReadArtifact(ctx, rec.GUID)
	if err != nil {
		return ShowResult{}, WrapExitError(ExitFailure, "failed to read variant", err)
	}
	res := w.project.Materializer().MaterializeArtifact(ctx, variant.DisplayName(rec.Path), a)
	defer res.Release()

	result := ShowResult{
		GUID:        rec.GUID,
		Path:        rec.Path,
		Kind:        rec.Kind,
		Name:        res.Object.Name(),
		Origin:      a.Origin,
		State:       res.State.String(),
		Fields:      fieldViews(res.Object, w.project, res.Store.Has),
		Overrides:   res.Store.Paths(),
		Diagnostics: diagnosticStrings(res.Diagnostics),
	}
	if obj, ok := res.Object.(*object.Object); ok {
		result.Type = obj.Type().Name
	}
	if origin, err := w.index.AssetByGUID(ctx, a.Origin); err == nil {
		result.Origin = origin.Path
	}
	return result, nil
}
