package assetdb

import (
	"context"
	"fmt"

	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/object"
	"github.com/roach88/assetvariant/internal/store"
	"github.com/roach88/assetvariant/internal/variant"
)

// ImportResult is the outcome of importing one variant.
type ImportResult struct {
	*variant.ArtifactResult
	GUID   string
	Path   string
	Record store.Import
}

// Import materializes the variant guid, rewrites its file if stale entries
// were pruned and appends the outcome to the import log. The caller owns the
// returned object and releases it through Release.
func (p *Project) Import(ctx context.Context, guid string) (*ImportResult, error) {
	rec, err := p.variantRecord(ctx, guid)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", guid, err)
	}
	a, err := p.ReadArtifact(ctx, guid)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", guid, err)
	}

	res := p.materializer.MaterializeArtifact(ctx, variant.DisplayName(rec.Path), a)
	log := p.log.With("variant", rec.Path)

	rewritten := false
	if res.NeedsRewrite {
		if err := p.WriteArtifact(ctx, guid, res.Artifact); err != nil {
			res.Release()
			return nil, fmt.Errorf("import %s: %w", guid, err)
		}
		rewritten = true
	}

	imp := store.Import{
		GUID:       guid,
		State:      res.State.String(),
		StaleCount: res.StaleCount(),
		Malformed:  res.Malformed,
		Rewritten:  rewritten,
		Messages:   make([]string, 0, len(res.Diagnostics)),
	}
	for _, d := range res.Diagnostics {
		imp.Messages = append(imp.Messages, d.Error())
	}
	if obj, ok := res.Object.(*object.Object); ok {
		doc, _ := obj.Document(p)
		if data, err := ir.Marshal(doc); err == nil {
			imp.Fingerprint = ir.FingerprintBytes(ir.DomainSnapshot, data)
		}
	}
	if imp.Seq, err = p.index.RecordImport(ctx, imp); err != nil {
		res.Release()
		return nil, fmt.Errorf("import %s: %w", guid, err)
	}

	log.Info("variant imported",
		"state", imp.State,
		"stale", imp.StaleCount,
		"rewritten", rewritten)
	return &ImportResult{ArtifactResult: res, GUID: guid, Path: rec.Path, Record: imp}, nil
}

// ImportAll imports every indexed variant in path order. Results are
// released before returning; only the log records are kept.
func (p *Project) ImportAll(ctx context.Context) ([]store.Import, error) {
	variants, err := p.index.ListAssets(ctx, store.KindVariant)
	if err != nil {
		return nil, err
	}
	out := make([]store.Import, 0, len(variants))
	for _, v := range variants {
		res, err := p.Import(ctx, v.GUID)
		if err != nil {
			return out, err
		}
		res.Release()
		out = append(out, res.Record)
	}
	return out, nil
}
