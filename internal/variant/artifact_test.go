package variant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNamespace struct {
	taken   map[string]bool
	created map[string]Artifact
}

func (n *fakeNamespace) Exists(path string) bool { return n.taken[path] }

func (n *fakeNamespace) CreateArtifact(_ context.Context, path string, a Artifact) (string, error) {
	n.taken[path] = true
	n.created[path] = a
	return "id:" + path, nil
}

func TestVariantPath(t *testing.T) {
	never := func(string) bool { return false }
	got, err := VariantPath("enemies/Goblin.asset", never)
	require.NoError(t, err)
	assert.Equal(t, "enemies/Goblin (Variant).assetvariant", got)

	taken := map[string]bool{
		"enemies/Goblin (Variant).assetvariant":           true,
		"enemies/Goblin (Variant) (Variant).assetvariant": true,
	}
	got, err = VariantPath("enemies/Goblin.asset", func(p string) bool { return taken[p] })
	require.NoError(t, err)
	assert.Equal(t, "enemies/Goblin (Variant) (Variant) (Variant).assetvariant", got)

	_, err = VariantPath("x.asset", func(string) bool { return true })
	assert.ErrorIs(t, err, ErrNoFreeName)
}

func TestVariantOfVariant(t *testing.T) {
	got, err := VariantPath("Goblin (Variant).assetvariant", func(string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "Goblin (Variant) (Variant).assetvariant", got)
}

func TestCreate(t *testing.T) {
	ns := &fakeNamespace{taken: map[string]bool{}, created: map[string]Artifact{}}
	ctx := context.Background()

	id, path, err := Create(ctx, ns, "guid-goblin", "Goblin.asset")
	require.NoError(t, err)
	assert.Equal(t, "Goblin (Variant).assetvariant", path)
	assert.Equal(t, "id:"+path, id)
	assert.Equal(t, Artifact{Origin: "guid-goblin"}, ns.created[path])

	_, path, err = Create(ctx, ns, "guid-goblin", "Goblin.asset")
	require.NoError(t, err)
	assert.Equal(t, "Goblin (Variant) (Variant).assetvariant", path)

	_, _, err = Create(ctx, ns, "", "Goblin.asset")
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Goblin (Variant)", DisplayName("assets/enemies/Goblin (Variant).assetvariant"))
}
