package variant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/memdb"
	"github.com/roach88/assetvariant/internal/native"
	"github.com/roach88/assetvariant/internal/object"
	"github.com/roach88/assetvariant/internal/overrides"
	"github.com/roach88/assetvariant/internal/patch"
)

var unitType = &object.Type{
	Name: "Unit",
	Fields: []object.FieldDef{
		object.Leaf("speed", native.KindFloat),
		object.Leaf("label", native.KindString),
		object.Leaf("weapon", native.KindObjectReference),
		object.List("waypoints", object.Leaf("", native.KindVector3)),
	},
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture registers the scenario origin {speed: 5.0, label: "base"} as "origin-id".
func fixture(t *testing.T) (*memdb.DB, *object.Object, *Materializer) {
	t.Helper()
	db := memdb.New()
	origin := object.New(unitType, "Scout")
	require.NoError(t, origin.Write("speed", float32(5)))
	require.NoError(t, origin.Write("label", "base"))
	db.Put("origin-id", origin)
	return db, origin, NewMaterializer(db, db, quiet())
}

func values(t *testing.T, obj host.Object) map[string]any {
	t.Helper()
	out := make(map[string]any)
	for _, f := range obj.Fields() {
		v, err := obj.Read(f.Path)
		require.NoError(t, err)
		out[f.Path] = v
	}
	return out
}

func TestScenarioA_EmptyStoreMatchesOrigin(t *testing.T) {
	_, origin, m := fixture(t)
	ctx := context.Background()

	res := m.Materialize(ctx, Identity{Name: "Scout (Variant)", Origin: "origin-id"})
	require.Equal(t, Materialized, res.State)
	assert.Equal(t, values(t, origin), values(t, res.Object))
	assert.Equal(t, "Scout (Variant)", res.Object.Name())

	store, err := patch.RecordChange(res.Store, "speed", native.KindFloat, float32(9.5), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"speed"}, store.Paths())

	res = m.Materialize(ctx, Identity{Name: "Scout (Variant)", Origin: "origin-id", Store: store})
	got := values(t, res.Object)
	assert.Equal(t, float32(9.5), got["speed"])
	assert.Equal(t, "base", got["label"])
}

func TestScenarioB_NonOverriddenFieldsTrackOrigin(t *testing.T) {
	_, origin, m := fixture(t)
	ctx := context.Background()

	store, err := patch.RecordChange(nil, "speed", native.KindFloat, float32(9.5), nil)
	require.NoError(t, err)
	id := Identity{Name: "Scout (Variant)", Origin: "origin-id", Store: store}

	first := m.Materialize(ctx, id)
	require.NoError(t, origin.Write("label", "changed"))

	// Already materialized objects are disconnected from the origin.
	label, _ := first.Object.Read("label")
	assert.Equal(t, "base", label)

	second := m.Materialize(ctx, id)
	got := values(t, second.Object)
	assert.Equal(t, float32(9.5), got["speed"])
	assert.Equal(t, "changed", got["label"])
}

func TestScenarioC_MissingOriginFallsBack(t *testing.T) {
	_, _, m := fixture(t)

	res := m.Materialize(context.Background(), Identity{Name: "Orphan", Origin: "missing-id"})
	require.Equal(t, Fallback, res.State)

	ph, ok := res.Object.(*Placeholder)
	require.True(t, ok)
	assert.Equal(t, "Orphan", ph.Name())
	assert.Equal(t, FallbackMessage, ph.Message)
	assert.Equal(t, "missing-id", ph.Origin)
	assert.Empty(t, ph.Fields())

	require.Len(t, res.Diagnostics, 1)
	assert.True(t, diag.IsUnresolved(res.Diagnostics[0]))
	assert.ErrorIs(t, res.Diagnostics[0], host.ErrNotFound)
	assert.Equal(t, "missing-id", res.Diagnostics[0].Origin)
}

func TestNoOriginFallsBack(t *testing.T) {
	_, _, m := fixture(t)
	id := Identity{Name: "Blank"}
	assert.Equal(t, Unresolved, id.State())

	res := m.Materialize(context.Background(), id)
	assert.Equal(t, Fallback, res.State)
	assert.True(t, diag.IsUnresolved(res.Diagnostics[0]))
}

type brokenDB struct{ host.Database }

func (brokenDB) ResolveOrigin(context.Context, string) (host.Object, error) {
	return nil, errors.New("disk on fire")
}

func TestResolutionFailureFallsBack(t *testing.T) {
	m := NewMaterializer(brokenDB{}, nil, quiet())
	res := m.Materialize(context.Background(), Identity{Name: "V", Origin: "x"})
	assert.Equal(t, Fallback, res.State)
	assert.Contains(t, res.Diagnostics[0].Error(), "disk on fire")
}

func TestIdempotentMaterialization(t *testing.T) {
	db, _, m := fixture(t)
	ctx := context.Background()
	sword := object.New(unitType, "Sword")
	db.Put("sword", sword)

	store := overrides.New()
	var err error
	store, err = patch.RecordChange(store, "waypoints.Array.size", native.KindArraySize, int32(2), db)
	require.NoError(t, err)
	store, err = patch.RecordChange(store, "waypoints.Array.data[1]", native.KindVector3, native.Vector3{X: 1, Y: 2, Z: 3}, db)
	require.NoError(t, err)
	store, err = patch.RecordChange(store, "weapon", native.KindObjectReference, sword, db)
	require.NoError(t, err)
	id := Identity{Name: "V", Origin: "origin-id", Store: store}

	a := m.Materialize(ctx, id)
	b := m.Materialize(ctx, id)
	require.Equal(t, Materialized, a.State)
	assert.Equal(t, values(t, a.Object), values(t, b.Object))

	// References are shared, not cloned.
	w, _ := a.Object.Read("weapon")
	assert.Same(t, sword, w)
}

func TestMaterializePrunesStaleEntries(t *testing.T) {
	_, origin, m := fixture(t)
	store := overrides.New()
	store.Set("speed", ir.Float32(1))
	store.Set("armor", ir.Int(3))

	res := m.Materialize(context.Background(), Identity{Name: "V", Origin: "origin-id", Store: store})
	assert.True(t, res.Pruned())
	assert.Equal(t, 1, res.StaleCount())
	assert.Equal(t, []string{"speed"}, res.Store.Paths())
	assert.True(t, store.Has("armor"))

	speed, _ := origin.Read("speed")
	assert.Equal(t, float32(5), speed, "origin must not change")
}

func TestMaterializeArtifact(t *testing.T) {
	_, _, m := fixture(t)
	ctx := context.Background()

	t.Run("clean", func(t *testing.T) {
		res := m.MaterializeArtifact(ctx, "V", Artifact{Origin: "origin-id", Patch: `{"v":1,"o":{"speed":2}}`})
		assert.Equal(t, Materialized, res.State)
		assert.False(t, res.NeedsRewrite)
		speed, _ := res.Object.Read("speed")
		assert.Equal(t, float32(2), speed)
	})

	t.Run("stale entries request a rewrite", func(t *testing.T) {
		res := m.MaterializeArtifact(ctx, "V", Artifact{Origin: "origin-id", Patch: `{"o":{"speed":2,"gone":1}}`})
		assert.True(t, res.NeedsRewrite)
		assert.Equal(t, `{"v":1,"o":{"speed":2}}`, res.Artifact.Patch)
		assert.Equal(t, "origin-id", res.Artifact.Origin)
	})

	t.Run("malformed patch is treated as empty", func(t *testing.T) {
		res := m.MaterializeArtifact(ctx, "V", Artifact{Origin: "origin-id", Patch: `{"o":{"speed":`})
		assert.Equal(t, Materialized, res.State)
		assert.True(t, res.Malformed)
		assert.False(t, res.NeedsRewrite)
		require.NotEmpty(t, res.Diagnostics)
		assert.True(t, diag.IsMalformed(res.Diagnostics[0]))
		speed, _ := res.Object.Read("speed")
		assert.Equal(t, float32(5), speed)
	})

	t.Run("empty artifact", func(t *testing.T) {
		res := m.MaterializeArtifact(ctx, "V", Artifact{})
		assert.Equal(t, Fallback, res.State)
	})
}

func TestResultRelease(t *testing.T) {
	_, _, m := fixture(t)
	res := m.Materialize(context.Background(), Identity{Name: "V", Origin: "origin-id"})
	res.Release()
	assert.True(t, res.Object.(*object.Object).Released())

	// Placeholders hold nothing to release.
	(&Result{Object: NewPlaceholder("p", "")}).Release()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "materialized", Materialized.String())
	assert.Equal(t, "fallback", Fallback.String())
	assert.Equal(t, "unknown", State(99).String())
}
