package variant

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/roach88/assetvariant/internal/codec"
	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/overrides"
	"github.com/roach88/assetvariant/internal/patch"
)

// Materializer turns variant identities into objects.
type Materializer struct {
	DB     host.Database
	Refs   codec.References
	Logger *slog.Logger
}

// NewMaterializer returns a materializer over db. refs may be nil.
func NewMaterializer(db host.Database, refs codec.References, logger *slog.Logger) *Materializer {
	return &Materializer{DB: db, Refs: refs, Logger: logger}
}

// Materialize clones the origin of id, applies its overrides and names the
// clone after id. Running it twice with the same origin and store yields
// identical objects.
func (m *Materializer) Materialize(ctx context.Context, id Identity) *Result {
	store := id.Store
	if store == nil {
		store = overrides.New()
	}
	log := m.logger().With("variant", id.Name, "origin", id.Origin)

	if id.State() == Unresolved {
		return m.fallback(log, id, store, diag.Unresolved("", id.Name+" has no origin", nil))
	}

	origin, err := m.DB.ResolveOrigin(ctx, id.Origin)
	if err != nil {
		msg := FallbackMessage
		if !errors.Is(err, host.ErrNotFound) {
			msg = "origin could not be loaded"
		}
		return m.fallback(log, id, store, diag.Unresolved(id.Origin, msg, err))
	}

	obj := m.DB.Clone(origin)
	obj.SetName(id.Name)
	applied := (&patch.Applicator{Refs: m.Refs, Logger: log}).Apply(obj, store)

	log.Debug("variant materialized",
		"applied", len(applied.Applied),
		"stale", applied.StaleCount())

	return &Result{
		State:       Materialized,
		Object:      obj,
		Store:       applied.Store,
		Applied:     applied.Applied,
		Stale:       applied.Stale,
		Diagnostics: slices.Clone(applied.Stale),
	}
}

func (m *Materializer) fallback(log *slog.Logger, id Identity, store *overrides.Store, cause *diag.Error) *Result {
	log.Warn("variant origin unresolved", "error", cause.Error())
	return &Result{
		State:       Fallback,
		Object:      NewPlaceholder(id.Name, id.Origin),
		Store:       store,
		Diagnostics: []*diag.Error{cause},
	}
}

// ArtifactResult is the outcome of materializing a persisted artifact.
type ArtifactResult struct {
	*Result

	// Artifact is the artifact to persist if NeedsRewrite is set.
	Artifact Artifact

	// NeedsRewrite is set when stale entries were pruned and the artifact
	// should be written back. A malformed patch is never rewritten.
	NeedsRewrite bool
}

// MaterializeArtifact parses the artifact's patch and materializes it. An
// unreadable patch is treated as empty and reported as MALFORMED_PATCH.
func (m *Materializer) MaterializeArtifact(ctx context.Context, name string, a Artifact) *ArtifactResult {
	store, perr := overrides.Deserialize(a.Patch)
	res := m.Materialize(ctx, Identity{Name: name, Origin: a.Origin, Store: store})

	out := &ArtifactResult{Result: res, Artifact: a}
	var de *diag.Error
	if errors.As(perr, &de) {
		m.logger().Warn("variant patch malformed", "variant", name, "error", de.Error())
		res.Malformed = true
		res.Diagnostics = append([]*diag.Error{de}, res.Diagnostics...)
		return out
	}
	if res.Pruned() {
		text, err := res.Store.Serialize()
		if err == nil {
			out.Artifact.Patch = text
			out.NeedsRewrite = true
		}
	}
	return out
}

func (m *Materializer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
