package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/spf13/cobra"

	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/object"
	"github.com/roach88/assetvariant/internal/variant"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Lines bool // print a line diff of the documents instead of the merge patch
}

// DiffResult compares a variant with its origin.
type DiffResult struct {
	Variant string `json:"variant"`
	Origin  string `json:"origin"`

	// MergePatch is the RFC 7386 merge patch that turns the origin's
	// document into the variant's.
	MergePatch json.RawMessage `json:"merge_patch"`

	// Overrides lists the recorded override paths.
	Overrides []string `json:"overrides"`

	text string
}

func (r DiffResult) String() string { return r.text }

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <variant>",
		Short: "Compare a variant with its origin",
		Long: `Compare the materialized variant with its current origin. The difference
is printed as a JSON merge patch (RFC 7386) over the field documents, or as
a line diff with --lines.

Exit codes:
  0 - Diff printed
  1 - The origin is missing, so there is nothing to compare against
  2 - Command error (unknown asset, not a variant, etc.)

Examples:
  assetvariant diff "Goblin (Variant).assetvariant"
  assetvariant diff "Goblin (Variant).assetvariant" --lines`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Lines, "lines", false, "print a line diff of the field documents")
	return cmd
}

func runDiff(cmd *cobra.Command, opts *DiffOptions, ref string) error {
	ctx := cmd.Context()
	f := newFormatter(cmd, opts.RootOptions)
	ws, err := openWorkspace(ctx, cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer ws.Close()

	rec, err := ws.lookupVariant(ctx, ref)
	if err != nil {
		return err
	}
	a, err := ws.project.ReadArtifact(ctx, rec.GUID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read variant", err)
	}
	res := ws.project.Materializer().MaterializeArtifact(ctx, variant.DisplayName(rec.Path), a)
	defer res.Release()
	if res.State != variant.Materialized {
		msg := fmt.Sprintf("%s is %s: nothing to compare against", rec.Path, res.State)
		if len(res.Diagnostics) > 0 {
			return WrapExitError(ExitFailure, msg, res.Diagnostics[0])
		}
		return NewExitError(ExitFailure, msg)
	}

	origin, err := ws.project.ResolveOrigin(ctx, a.Origin)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load origin", err)
	}
	from, err := ws.documentJSON(origin)
	if err != nil {
		return err
	}
	to, err := ws.documentJSON(res.Object)
	if err != nil {
		return err
	}
	mergePatch, err := jsonpatch.CreateMergePatch(from, to)
	if err != nil {
		return fmt.Errorf("failed to compute merge patch: %w", err)
	}

	result := DiffResult{
		Variant:    rec.Path,
		Origin:     a.Origin,
		MergePatch: mergePatch,
		Overrides:  res.Store.Paths(),
	}
	if o, err := ws.index.AssetByGUID(ctx, a.Origin); err == nil {
		result.Origin = o.Path
	}
	if opts.Lines {
		result.text = f.lineDiff(indentJSON(from), indentJSON(to))
		if result.text == "" {
			result.text = "No differences\n"
		}
	} else {
		result.text = indentJSON(mergePatch)
	}
	return f.Success(result)
}

// documentJSON renders obj's field document as canonical JSON.
func (w *workspace) documentJSON(obj host.Object) ([]byte, error) {
	o, ok := obj.(*object.Object)
	if !ok {
		return nil, NewExitError(ExitFailure, fmt.Sprintf("%s has no fields", obj.Name()))
	}
	doc, skipped := o.Document(w.project)
	for _, d := range skipped {
		w.log.Debug("field left out of diff", "object", o.Name(), "error", d)
	}
	return ir.Marshal(doc)
}

func indentJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n"
}

