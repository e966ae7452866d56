// Package memdb is an in-memory host database.
//
// Objects are registered under identifiers and double as reference targets:
// a registered *object.Object can be stored in another object's reference
// field and is identified by its registration id.
package memdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/assetvariant/internal/codec"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/native"
	"github.com/roach88/assetvariant/internal/object"
)

// Cloner is implemented by objects that know how to deep-copy themselves.
type Cloner interface {
	CloneObject() host.Object
}

// DB maps identifiers to objects.
type DB struct {
	mu      sync.RWMutex
	objects map[string]host.Object
	ids     map[native.Handle]string
}

var (
	_ host.Database    = (*DB)(nil)
	_ codec.References = (*DB)(nil)
)

// New returns an empty database.
func New() *DB {
	return &DB{
		objects: make(map[string]host.Object),
		ids:     make(map[native.Handle]string),
	}
}

// Put registers obj under id, replacing any previous object.
func (d *DB) Put(id string, obj host.Object) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.objects[id]; ok {
		if h, ok := prev.(native.Handle); ok {
			delete(d.ids, h)
		}
	}
	d.objects[id] = obj
	if h, ok := obj.(native.Handle); ok {
		d.ids[h] = id
	}
}

// Delete removes the object registered under id.
func (d *DB) Delete(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if obj, ok := d.objects[id]; ok {
		if h, ok := obj.(native.Handle); ok {
			delete(d.ids, h)
		}
		delete(d.objects, id)
	}
}

// Get returns the registered object without cloning it.
func (d *DB) Get(id string) (host.Object, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	obj, ok := d.objects[id]
	return obj, ok
}

// ResolveOrigin returns the object registered under id. The database keeps
// ownership: callers clone before mutating.
func (d *DB) ResolveOrigin(ctx context.Context, id string) (host.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obj, ok := d.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", host.ErrNotFound, id)
	}
	return obj, nil
}

// Clone deep-copies obj. It panics for object types it cannot copy.
func (d *DB) Clone(obj host.Object) host.Object {
	switch o := obj.(type) {
	case *object.Object:
		return o.Clone()
	case Cloner:
		return o.CloneObject()
	}
	panic(fmt.Sprintf("memdb: cannot clone %T", obj))
}

// Identify returns the id h was registered under.
func (d *DB) Identify(h native.Handle) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.ids[h]
	return id, ok
}

// Resolve returns the object registered under id as a reference target.
func (d *DB) Resolve(id string) (native.Handle, bool) {
	obj, ok := d.Get(id)
	if !ok {
		return nil, false
	}
	h, ok := obj.(native.Handle)
	return h, ok
}
