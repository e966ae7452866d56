package watch

import (
	"context"
	"log/slog"

	"github.com/roach88/assetvariant/internal/assetdb"
	"github.com/roach88/assetvariant/internal/events"
)

// ReimportSource tags the origin changes a Reimporter announces for the
// variants it re-imported.
const ReimportSource = "reimport"

// Reimporter re-imports variants when they or their origins change, so that
// stale overrides are pruned from disk as soon as a schema or origin edit
// makes them stale. An origin change reaches every variant derived from it,
// including variants of variants.
type Reimporter struct {
	Project *assetdb.Project
	Logger  *slog.Logger

	// OnImport, if set, receives every import result before it is released.
	OnImport func(*assetdb.ImportResult)

	bus *events.Bus
}

// Attach subscribes r to bus and returns a function that detaches it.
func (r *Reimporter) Attach(bus *events.Bus) (detach func()) {
	r.bus = bus
	offPatch := bus.Subscribe(events.PatchChanged, r.onPatchChanged)
	offOrigin := bus.Subscribe(events.OriginChanged, r.onOriginChanged)
	return func() {
		offPatch()
		offOrigin()
	}
}

func (r *Reimporter) onPatchChanged(e events.Event) {
	if e.Deleted {
		return
	}
	r.importOne(context.Background(), e.ID)
}

func (r *Reimporter) onOriginChanged(e events.Event) {
	if e.Source == ReimportSource {
		return
	}
	r.cascade(context.Background(), e.ID, map[string]bool{e.ID: true})
}

// cascade re-imports the variants of guid and then theirs. Each re-imported
// variant is announced as a changed origin so that open sessions further down
// the chain refresh. seen stops cycles.
func (r *Reimporter) cascade(ctx context.Context, guid string, seen map[string]bool) {
	dependents, err := r.Project.Index().VariantsOf(ctx, guid)
	if err != nil {
		r.logger().Warn("list dependents failed", "origin", guid, "error", err)
		return
	}
	for _, v := range dependents {
		if seen[v.GUID] {
			continue
		}
		seen[v.GUID] = true
		r.importOne(ctx, v.GUID)
		if r.bus != nil {
			r.bus.Publish(events.Event{Topic: events.OriginChanged, ID: v.GUID, Path: v.Path, Source: ReimportSource})
		}
		r.cascade(ctx, v.GUID, seen)
	}
}

func (r *Reimporter) importOne(ctx context.Context, guid string) {
	res, err := r.Project.Import(ctx, guid)
	if err != nil {
		r.logger().Warn("reimport failed", "guid", guid, "error", err)
		return
	}
	defer res.Release()
	if r.OnImport != nil {
		r.OnImport(res)
	}
}

func (r *Reimporter) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
