package assetdb

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/object"
	"github.com/roach88/assetvariant/internal/store"
	"github.com/roach88/assetvariant/internal/variant"
)

// ReadArtifact reads the variant file indexed under guid.
func (p *Project) ReadArtifact(ctx context.Context, guid string) (variant.Artifact, error) {
	rec, err := p.variantRecord(ctx, guid)
	if err != nil {
		return variant.Artifact{}, err
	}
	data, err := os.ReadFile(p.Abs(rec.Path))
	if err != nil {
		return variant.Artifact{}, fmt.Errorf("read variant %s: %w", rec.Path, err)
	}
	f, err := parseArtifactFile(data)
	if err != nil {
		return variant.Artifact{}, fmt.Errorf("%s: %w", rec.Path, err)
	}
	return f.artifact(), nil
}

// WriteArtifact rewrites the variant file indexed under guid and refreshes
// its index row.
func (p *Project) WriteArtifact(ctx context.Context, guid string, a variant.Artifact) error {
	rec, err := p.variantRecord(ctx, guid)
	if err != nil {
		return err
	}
	data, err := writeArtifactFile(p.Abs(rec.Path), &artifactFile{GUID: guid, Origin: a.Origin, Patch: a.Patch})
	if err != nil {
		return err
	}
	rec.Origin = a.Origin
	rec.Fingerprint = fingerprint(data)
	if _, err := p.index.UpsertAsset(ctx, rec); err != nil {
		return err
	}
	p.Invalidate(guid)
	return nil
}

func (p *Project) variantRecord(ctx context.Context, guid string) (store.Asset, error) {
	rec, err := p.index.AssetByGUID(ctx, guid)
	if err != nil {
		return store.Asset{}, err
	}
	if rec.Kind != store.KindVariant {
		return store.Asset{}, fmt.Errorf("%s (%s) is not a variant", guid, rec.Path)
	}
	return rec, nil
}

// Exists reports whether a project-relative path is taken on disk or in the index.
func (p *Project) Exists(rel string) bool {
	if _, err := os.Stat(p.Abs(rel)); !errors.Is(err, os.ErrNotExist) {
		return true
	}
	_, err := p.index.AssetByPath(context.Background(), rel)
	return err == nil
}

// CreateArtifact writes a new variant file at rel and indexes it under a
// fresh GUID.
func (p *Project) CreateArtifact(ctx context.Context, rel string, a variant.Artifact) (string, error) {
	guid := p.newID()
	data, err := marshalYAML(&artifactFile{GUID: guid, Origin: a.Origin, Patch: a.Patch})
	if err != nil {
		return "", err
	}
	if err := createFileExclusive(p.Abs(rel), data); err != nil {
		return "", err
	}
	_, err = p.index.UpsertAsset(ctx, store.Asset{
		GUID:        guid,
		Path:        rel,
		Kind:        store.KindVariant,
		Origin:      a.Origin,
		Fingerprint: fingerprint(data),
	})
	if err != nil {
		os.Remove(p.Abs(rel))
		return "", err
	}
	p.log.Info("variant created", "path", rel, "guid", guid, "origin", a.Origin)
	return guid, nil
}

// CreateVariant creates an empty variant next to the asset or variant
// origin, named after it with " (Variant)" appended.
func (p *Project) CreateVariant(ctx context.Context, origin string) (guid, rel string, err error) {
	rec, err := p.index.AssetByGUID(ctx, origin)
	if err != nil {
		return "", "", fmt.Errorf("create variant: %w", err)
	}
	return variant.Create(ctx, p, rec.GUID, rec.Path)
}

// CreateAsset writes a new plain asset of the named type with zero-valued
// fields at rel.
func (p *Project) CreateAsset(ctx context.Context, rel, typeName string) (string, error) {
	typ, ok := p.types.Lookup(typeName)
	if !ok {
		return "", fmt.Errorf("create asset: unknown type %q", typeName)
	}
	if p.Exists(rel) {
		return "", fmt.Errorf("create asset: %s: %w", rel, os.ErrExist)
	}
	guid := p.newID()
	if err := p.writeAsset(ctx, guid, rel, object.New(typ, variant.DisplayName(rel)), false); err != nil {
		return "", err
	}
	return guid, nil
}

// SaveAsset writes obj's field values to the plain asset guid.
func (p *Project) SaveAsset(ctx context.Context, guid string, obj *object.Object) error {
	rec, err := p.index.AssetByGUID(ctx, guid)
	if err != nil {
		return err
	}
	if rec.Kind != store.KindAsset {
		return fmt.Errorf("%s (%s) is not a plain asset", guid, rec.Path)
	}
	return p.writeAsset(ctx, guid, rec.Path, obj, true)
}

func (p *Project) writeAsset(ctx context.Context, guid, rel string, obj *object.Object, replace bool) error {
	doc, skipped := obj.Document(p)
	for _, d := range skipped {
		p.log.Warn("field not saved", "path", rel, "error", d)
	}
	fields, _ := ir.ToAny(doc).(map[string]any)
	f := &AssetFile{GUID: guid, Type: obj.Type().Name, Fields: fields}
	if obj.Name() != variant.DisplayName(rel) {
		f.Name = obj.Name()
	}

	var data []byte
	var err error
	if replace {
		data, err = WriteAssetFile(p.Abs(rel), f)
	} else {
		data, err = marshalYAML(f)
		if err == nil {
			err = createFileExclusive(p.Abs(rel), data)
		}
	}
	if err != nil {
		return err
	}
	_, err = p.index.UpsertAsset(ctx, store.Asset{
		GUID:        guid,
		Path:        rel,
		Kind:        store.KindAsset,
		Type:        f.Type,
		Fingerprint: fingerprint(data),
	})
	if err != nil {
		return err
	}
	p.Invalidate(guid)
	return nil
}
