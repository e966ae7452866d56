package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestUpsertAsset_InsertAndRead(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.UpsertAsset(ctx, testAsset("g1", "enemies/Goblin.asset"))
	if err != nil {
		t.Fatalf("UpsertAsset() failed: %v", err)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}

	got, err := s.AssetByGUID(ctx, "g1")
	if err != nil {
		t.Fatalf("AssetByGUID() failed: %v", err)
	}
	want := testAsset("g1", "enemies/Goblin.asset")
	want.Seq = 1
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AssetByGUID() = %+v, want %+v", got, want)
	}

	byPath, err := s.AssetByPath(ctx, "enemies/Goblin.asset")
	if err != nil {
		t.Fatalf("AssetByPath() failed: %v", err)
	}
	if byPath.GUID != "g1" {
		t.Errorf("AssetByPath().GUID = %q, want g1", byPath.GUID)
	}
}

func TestUpsertAsset_UpdateBumpsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertAsset(ctx, testAsset("g1", "a.asset")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertAsset(ctx, testAsset("g2", "b.asset")); err != nil {
		t.Fatal(err)
	}

	moved := testAsset("g1", "moved/a.asset")
	moved.Fingerprint = "fp-new"
	seq, err := s.UpsertAsset(ctx, moved)
	if err != nil {
		t.Fatalf("UpsertAsset() update failed: %v", err)
	}
	if seq != 3 {
		t.Errorf("seq = %d, want 3", seq)
	}

	got, err := s.AssetByGUID(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != "moved/a.asset" || got.Fingerprint != "fp-new" {
		t.Errorf("update not applied: %+v", got)
	}
	if _, err := s.AssetByPath(ctx, "a.asset"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old path still indexed: %v", err)
	}
}

func TestUpsertAsset_PathConflict(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertAsset(ctx, testAsset("g1", "a.asset")); err != nil {
		t.Fatal(err)
	}
	_, err := s.UpsertAsset(ctx, testAsset("g2", "a.asset"))
	if !errors.Is(err, ErrPathConflict) {
		t.Errorf("UpsertAsset() error = %v, want ErrPathConflict", err)
	}
}

func TestUpsertAsset_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		asset Asset
	}{
		{"missing guid", Asset{Path: "a.asset", Kind: KindAsset}},
		{"missing path", Asset{GUID: "g", Kind: KindAsset}},
		{"bad kind", Asset{GUID: "g", Path: "a", Kind: "texture"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.UpsertAsset(ctx, tt.asset); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestAssetByGUID_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.AssetByGUID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListAssets(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, a := range []Asset{
		testAsset("g2", "b.asset"),
		testVariant("v1", "b (Variant).assetvariant", "g2"),
		testAsset("g1", "a.asset"),
		testVariant("v2", "a (Variant).assetvariant", "g1"),
		testVariant("v3", "b (Variant) (Variant).assetvariant", "g2"),
	} {
		if _, err := s.UpsertAsset(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListAssets(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := paths(all); !reflect.DeepEqual(got, []string{
		"a (Variant).assetvariant",
		"a.asset",
		"b (Variant) (Variant).assetvariant",
		"b (Variant).assetvariant",
		"b.asset",
	}) {
		t.Errorf("ListAssets(\"\") paths = %v", got)
	}

	assets, err := s.ListAssets(ctx, KindAsset)
	if err != nil {
		t.Fatal(err)
	}
	if got := paths(assets); !reflect.DeepEqual(got, []string{"a.asset", "b.asset"}) {
		t.Errorf("ListAssets(asset) paths = %v", got)
	}

	variants, err := s.VariantsOf(ctx, "g2")
	if err != nil {
		t.Fatal(err)
	}
	if got := paths(variants); !reflect.DeepEqual(got, []string{
		"b (Variant) (Variant).assetvariant",
		"b (Variant).assetvariant",
	}) {
		t.Errorf("VariantsOf(g2) paths = %v", got)
	}
}

func TestListAssets_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	assets, err := s.ListAssets(context.Background(), KindVariant)
	if err != nil {
		t.Fatal(err)
	}
	if assets == nil {
		t.Error("ListAssets() returned nil, want empty slice")
	}
}

func TestDeleteAsset(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertAsset(ctx, testAsset("g1", "a.asset")); err != nil {
		t.Fatal(err)
	}
	existed, err := s.DeleteAsset(ctx, "g1")
	if err != nil || !existed {
		t.Fatalf("DeleteAsset() = %v, %v; want true, nil", existed, err)
	}
	existed, err = s.DeleteAsset(ctx, "g1")
	if err != nil || existed {
		t.Errorf("second DeleteAsset() = %v, %v; want false, nil", existed, err)
	}
}

func TestImports(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := Import{
		GUID:       "v1",
		State:      "materialized",
		StaleCount: 1,
		Rewritten:  true,
		Messages:   []string{"armor no longer exists in Goblin (Variant)"},
	}
	seq1, err := s.RecordImport(ctx, first)
	if err != nil {
		t.Fatalf("RecordImport() failed: %v", err)
	}
	seq2, err := s.RecordImport(ctx, Import{GUID: "v1", State: "fallback", Malformed: true})
	if err != nil {
		t.Fatal(err)
	}
	if seq2 <= seq1 {
		t.Errorf("seq not increasing: %d then %d", seq1, seq2)
	}

	history, err := s.ImportHistory(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	first.Seq = seq1
	if !reflect.DeepEqual(history[0], first) {
		t.Errorf("history[0] = %+v, want %+v", history[0], first)
	}
	if history[1].Messages == nil || len(history[1].Messages) != 0 {
		t.Errorf("history[1].Messages = %#v, want empty slice", history[1].Messages)
	}

	latest, err := s.LatestImport(ctx, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Seq != seq2 || latest.State != "fallback" || !latest.Malformed {
		t.Errorf("LatestImport() = %+v", latest)
	}

	if _, err := s.LatestImport(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestImport(other) error = %v, want ErrNotFound", err)
	}
	if _, err := s.RecordImport(ctx, Import{GUID: "v1"}); err == nil {
		t.Error("expected error for missing state")
	}
}

func TestReset(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertAsset(ctx, testAsset("g1", "a.asset")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordImport(ctx, Import{GUID: "g1", State: "materialized"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	all, _ := s.ListAssets(ctx, "")
	history, _ := s.ImportHistory(ctx, "g1")
	if len(all) != 0 || len(history) != 0 {
		t.Errorf("Reset() left %d assets and %d imports", len(all), len(history))
	}
}

func paths(assets []Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Path
	}
	return out
}
