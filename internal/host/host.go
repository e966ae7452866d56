// Package host declares what the variant pipeline needs from the system that
// owns the assets: structured objects with addressable fields, and a database
// that resolves origin identifiers and clones objects.
package host

import (
	"context"
	"errors"

	"github.com/roach88/assetvariant/internal/native"
)

// ErrNotFound is returned by Database.ResolveOrigin when no object answers to an identifier.
var ErrNotFound = errors.New("origin not found")

// ErrNoField is returned by Object methods for a path the object does not have.
var ErrNoField = errors.New("no such field")

// Field is one leaf (or array size) of an object, in schema order.
type Field struct {
	Path string
	Kind native.Kind
}

// Object is a structured record addressed by property paths such as
// "stats.hp", "tags.Array.size" or "loot.Array.data[0].weight".
type Object interface {
	Name() string
	SetName(name string)

	// Fields enumerates every addressable field in schema order.
	Fields() []Field

	// Kind resolves a path. It returns ErrNoField when the path does not exist.
	Kind(path string) (native.Kind, error)

	Read(path string) (any, error)
	Write(path string, value any) error
}

// Releaser is implemented by objects that hold host resources.
type Releaser interface {
	Release()
}

// Database resolves origins and clones objects.
type Database interface {
	// ResolveOrigin loads the object identified by id. It returns an error
	// wrapping ErrNotFound when the identifier does not resolve.
	ResolveOrigin(ctx context.Context, id string) (Object, error)

	// Clone returns a deep copy of obj owned by the caller.
	Clone(obj Object) Object
}

// Release frees obj if it holds host resources.
func Release(obj Object) {
	if r, ok := obj.(Releaser); ok {
		r.Release()
	}
}
