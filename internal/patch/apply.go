// Package patch applies override stores onto objects and records edits back
// into override stores.
package patch

import (
	"errors"
	"log/slog"

	"github.com/roach88/assetvariant/internal/codec"
	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/native"
	"github.com/roach88/assetvariant/internal/overrides"
)

// Applicator writes override entries onto objects.
type Applicator struct {
	// Refs resolves object reference identifiers. May be nil.
	Refs codec.References

	// Logger receives one warning per skipped entry. Nil uses slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of one Apply call.
type Result struct {
	// Applied lists the paths written, in application order.
	Applied []string

	// Stale holds one path-qualified error per skipped entry.
	Stale []*diag.Error

	// Store is a copy of the input store with the skipped entries pruned.
	Store *overrides.Store
}

// StaleCount returns the number of entries that were skipped and pruned.
func (r *Result) StaleCount() int { return len(r.Stale) }

// Pruned reports whether Store differs from the store passed to Apply.
func (r *Result) Pruned() bool { return len(r.Stale) > 0 }

// Apply writes every entry of store onto obj. Entries whose path no longer
// resolves, whose kind is unsupported, or whose document no longer matches the
// field kind are skipped and pruned from Result.Store. One bad entry never
// aborts the batch. The store argument is not modified.
//
// Entries whose path does not resolve are retried once after the pass if an
// array size was applied, since growing an array creates new element paths.
// Element entries applied before an array shrank are pruned as stale.
func (a *Applicator) Apply(obj host.Object, store *overrides.Store) *Result {
	if store == nil {
		store = overrides.New()
	}
	res := &Result{Store: store.Clone()}

	var deferred []string
	resized := false
	for path, doc := range store.All() {
		kind, err := a.apply(obj, path, doc)
		switch {
		case err == nil:
			res.Applied = append(res.Applied, path)
			resized = resized || kind == native.KindArraySize
		case errors.Is(err, host.ErrNoField):
			deferred = append(deferred, path)
		default:
			a.skip(res, obj, path, err)
		}
	}

	for _, path := range deferred {
		err := host.ErrNoField
		if resized {
			doc, _ := store.Get(path)
			_, err = a.apply(obj, path, doc)
		}
		if err != nil {
			a.skip(res, obj, path, err)
			continue
		}
		res.Applied = append(res.Applied, path)
	}

	if resized {
		a.dropTruncated(res, obj)
	}
	return res
}

// dropTruncated prunes applied entries that a later array size removed again.
func (a *Applicator) dropTruncated(res *Result, obj host.Object) {
	kept := res.Applied[:0]
	for _, path := range res.Applied {
		if _, err := obj.Kind(path); err != nil {
			a.skip(res, obj, path, err)
			continue
		}
		kept = append(kept, path)
	}
	res.Applied = kept
}

func (a *Applicator) apply(obj host.Object, path string, doc ir.Value) (native.Kind, error) {
	kind, err := obj.Kind(path)
	if err != nil {
		return native.KindInvalid, err
	}
	p, err := codec.FromDocument(kind, doc)
	if err != nil {
		return kind, err
	}
	v, err := codec.Decode(kind, p, a.Refs)
	if err != nil {
		return kind, err
	}
	return kind, obj.Write(path, v)
}

func (a *Applicator) skip(res *Result, obj host.Object, path string, cause error) {
	var de *diag.Error
	if !errors.As(diag.At(cause, path), &de) {
		de = diag.Stale(path, obj.Name(), cause)
	}
	res.Stale = append(res.Stale, de)
	res.Store.Remove(path)

	a.logger().Warn("override skipped",
		"path", path,
		"object", obj.Name(),
		"code", de.Code,
		"error", de.Error())
}

func (a *Applicator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
