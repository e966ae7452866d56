package patch

import (
	"fmt"

	"github.com/roach88/assetvariant/internal/codec"
	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/native"
	"github.com/roach88/assetvariant/internal/overrides"
)

// RecordChange returns a copy of store with value recorded for path.
// If the kind cannot be encoded, store is returned unchanged together with an
// UNSUPPORTED_FIELD_KIND error; the live edit stands but will not survive a
// reimport.
func RecordChange(store *overrides.Store, path string, kind native.Kind, value any, refs codec.References) (*overrides.Store, error) {
	if store == nil {
		store = overrides.New()
	}
	p, err := codec.Encode(kind, value, refs)
	if err != nil {
		if diag.IsUnsupported(err) {
			return store, diag.At(err, path)
		}
		return store, fmt.Errorf("record %s: %w", path, err)
	}
	next := store.Clone()
	next.Set(path, codec.ToDocument(p))
	return next, nil
}

// RecordField reads the current value at path from obj and records it.
func RecordField(store *overrides.Store, obj host.Object, path string, refs codec.References) (*overrides.Store, error) {
	kind, err := obj.Kind(path)
	if err != nil {
		return store, fmt.Errorf("record %s: %w", path, err)
	}
	v, err := obj.Read(path)
	if err != nil {
		return store, fmt.Errorf("record %s: %w", path, err)
	}
	return RecordChange(store, path, kind, v, refs)
}

// Revert returns a copy of store without path and whether an entry was removed.
// Restoring the live value from the origin is left to the caller.
func Revert(store *overrides.Store, path string) (*overrides.Store, bool) {
	if store == nil || !store.Has(path) {
		return store, false
	}
	next := store.Clone()
	next.Remove(path)
	return next, true
}

// Prune returns a copy of store without the entries whose path obj no longer
// resolves, and the removed paths. Shrinking an array leaves such entries
// behind for the elements it dropped.
func Prune(store *overrides.Store, obj host.Object) (*overrides.Store, []string) {
	if store == nil {
		return store, nil
	}
	var removed []string
	for path := range store.All() {
		if _, err := obj.Kind(path); err != nil {
			removed = append(removed, path)
		}
	}
	if len(removed) == 0 {
		return store, nil
	}
	next := store.Clone()
	for _, path := range removed {
		next.Remove(path)
	}
	return next, removed
}

// Extract compares edited against base field by field and returns a store
// holding every field of edited whose encoding differs from base, including
// fields base does not have. Fields that cannot be encoded are reported and
// left out.
func Extract(base, edited host.Object, refs codec.References) (*overrides.Store, []*diag.Error) {
	store := overrides.New()
	var skipped []*diag.Error
	for _, f := range edited.Fields() {
		want, err := encodeField(edited, f, refs)
		if err != nil {
			skipped = append(skipped, asDiag(err, f))
			continue
		}
		if kind, err := base.Kind(f.Path); err == nil && kind == f.Kind {
			if have, err := encodeField(base, f, refs); err == nil && ir.Equal(have, want) {
				continue
			}
		}
		store.Set(f.Path, want)
	}
	return store, skipped
}

func encodeField(obj host.Object, f host.Field, refs codec.References) (ir.Value, error) {
	v, err := obj.Read(f.Path)
	if err != nil {
		return nil, err
	}
	p, err := codec.Encode(f.Kind, v, refs)
	if err != nil {
		return nil, err
	}
	return codec.ToDocument(p), nil
}

func asDiag(err error, f host.Field) *diag.Error {
	if de, ok := diag.At(err, f.Path).(*diag.Error); ok {
		return de
	}
	return diag.Unsupported(f.Path, f.Kind, err.Error())
}
