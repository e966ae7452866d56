package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/assetvariant/internal/store"
	"github.com/roach88/assetvariant/internal/variant"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	History bool // print the import log instead of importing
}

// ImportView is one entry of the import log.
type ImportView struct {
	Seq        int64    `json:"seq"`
	GUID       string   `json:"guid"`
	Path       string   `json:"path"`
	State      string   `json:"state"`
	StaleCount int      `json:"stale_count,omitempty"`
	Malformed  bool     `json:"malformed,omitempty"`
	Rewritten  bool     `json:"rewritten,omitempty"`
	Messages   []string `json:"messages,omitempty"`
}

// ImportSummary is the output of the import command.
type ImportSummary struct {
	Imports []ImportView `json:"imports"`
}

func (s ImportSummary) String() string {
	var b strings.Builder
	if len(s.Imports) == 0 {
		b.WriteString("No variants imported\n")
		return b.String()
	}
	for _, imp := range s.Imports {
		fmt.Fprintf(&b, "#%d %s: %s", imp.Seq, imp.Path, imp.State)
		if imp.StaleCount > 0 {
			fmt.Fprintf(&b, ", %d stale pruned", imp.StaleCount)
		}
		if imp.Rewritten {
			b.WriteString(", rewritten")
		}
		if imp.Malformed {
			b.WriteString(", malformed patch")
		}
		b.WriteString("\n")
		for _, m := range imp.Messages {
			fmt.Fprintf(&b, "    %s\n", m)
		}
	}
	return b.String()
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import [variant...]",
		Short: "Rebuild variants from their origins",
		Long: `Materialize variants from their current origins. Overrides that no longer
apply are pruned and the variant file is rewritten. A variant whose patch
cannot be read is imported with no overrides and its file is left alone.
Every import is appended to the import log.

Without arguments every variant in the project is imported.

Exit codes:
  0 - Every variant was materialized
  1 - Some variants fell back because their origin is missing
  2 - Command error (unknown asset, not a variant, etc.)

Examples:
  assetvariant import
  assetvariant import "Goblin (Variant).assetvariant"
  assetvariant import "Goblin (Variant).assetvariant" --history`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.History, "history", false, "print the import log of the given variants")
	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions, refs []string) error {
	ctx := cmd.Context()
	f := newFormatter(cmd, opts.RootOptions)
	ws, err := openWorkspace(ctx, cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer ws.Close()

	targets, err := ws.importTargets(ctx, refs)
	if err != nil {
		return err
	}

	summary := ImportSummary{Imports: []ImportView{}}
	if opts.History {
		for _, rec := range targets {
			log, err := ws.index.ImportHistory(ctx, rec.GUID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read import log", err)
			}
			for _, imp := range log {
				summary.Imports = append(summary.Imports, importView(rec.Path, imp))
			}
		}
		return f.Success(summary)
	}

	var warnings []string
	fellBack := 0
	for _, rec := range targets {
		res, err := ws.project.Import(ctx, rec.GUID)
		if err != nil {
			return WrapExitError(ExitFailure, "import failed", err)
		}
		res.Release()
		view := importView(res.Path, res.Record)
		summary.Imports = append(summary.Imports, view)

		switch {
		case res.Malformed:
			warnings = append(warnings, fmt.Sprintf("%s: patch is malformed and was ignored", view.Path))
		case view.StaleCount > 0:
			warnings = append(warnings, fmt.Sprintf("%s: %d stale override(s) pruned", view.Path, view.StaleCount))
		}
		if view.State != variant.Materialized.String() {
			fellBack++
		}
	}
	if err := f.SuccessWithWarnings(summary, warnings); err != nil {
		return err
	}
	if fellBack > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d variant(s) could not be materialized", fellBack))
	}
	return nil
}

// importTargets resolves refs to variants, or lists every variant when refs
// is empty.
func (w *workspace) importTargets(ctx context.Context, refs []string) ([]store.Asset, error) {
	if len(refs) == 0 {
		all, err := w.index.ListAssets(ctx, store.KindVariant)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to list variants", err)
		}
		return all, nil
	}
	out := make([]store.Asset, 0, len(refs))
	for _, ref := range refs {
		rec, err := w.lookupVariant(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func importView(path string, imp store.Import) ImportView {
	return ImportView{
		Seq:        imp.Seq,
		GUID:       imp.GUID,
		Path:       path,
		State:      imp.State,
		StaleCount: imp.StaleCount,
		Malformed:  imp.Malformed,
		Rewritten:  imp.Rewritten,
		Messages:   imp.Messages,
	}
}
