// Package variant builds derived objects from an origin and an override store.
//
// Materialization clones the origin, applies the variant's overrides to the
// clone and names the result after the variant. It never fails: a variant
// whose origin is missing or cannot be loaded yields a Placeholder object and
// an UNRESOLVED_ORIGIN diagnostic.
package variant

import (
	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/native"
	"github.com/roach88/assetvariant/internal/overrides"
)

// FallbackMessage is shown in place of a variant whose origin cannot be found.
const FallbackMessage = "The original asset this variant depends on has been deleted!"

// State is the materialization state of a variant.
type State int

const (
	// Unresolved: the variant has no origin identifier.
	Unresolved State = iota
	// Resolving: the origin identifier is set and is being looked up.
	Resolving
	// Materialized: the origin resolved and the overrides were applied.
	Materialized
	// Fallback: resolution failed; the result is a Placeholder.
	Fallback
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Materialized:
		return "materialized"
	case Fallback:
		return "fallback"
	}
	return "unknown"
}

// Identity is everything needed to materialize a variant.
type Identity struct {
	// Name is the variant's display name.
	Name string

	// Origin identifies the object the variant derives from. Empty means unresolved.
	Origin string

	// Store holds the overrides. Nil is an empty store.
	Store *overrides.Store
}

// State returns the state the identity starts materialization in.
func (id Identity) State() State {
	if id.Origin == "" {
		return Unresolved
	}
	return Resolving
}

// Result is the outcome of a materialization. The caller owns Object and
// must call Release when it is no longer displayed.
type Result struct {
	State State

	// Object is the materialized object, or a *Placeholder in Fallback.
	Object host.Object

	// Store is the override store after pruning stale entries.
	Store *overrides.Store

	// Applied lists the override paths written onto Object.
	Applied []string

	// Stale holds the entries skipped and pruned from Store.
	Stale []*diag.Error

	// Diagnostics holds every problem found, Stale entries included.
	Diagnostics []*diag.Error

	// Malformed is set when the persisted patch could not be parsed.
	Malformed bool
}

// Pruned reports whether stale entries were removed from the store.
func (r *Result) Pruned() bool { return len(r.Stale) > 0 }

// StaleCount returns the number of pruned entries.
func (r *Result) StaleCount() int { return len(r.Stale) }

// Release frees the result's object.
func (r *Result) Release() {
	if r.Object != nil {
		host.Release(r.Object)
	}
}

// Placeholder stands in for a variant whose origin could not be resolved.
// It has no fields.
type Placeholder struct {
	name    string
	Origin  string
	Message string
}

var _ host.Object = (*Placeholder)(nil)

// NewPlaceholder returns a placeholder named name for the given origin.
func NewPlaceholder(name, origin string) *Placeholder {
	return &Placeholder{name: name, Origin: origin, Message: FallbackMessage}
}

func (p *Placeholder) Name() string        { return p.name }
func (p *Placeholder) SetName(name string) { p.name = name }
func (p *Placeholder) Fields() []host.Field {
	return nil
}

func (p *Placeholder) Kind(path string) (native.Kind, error) {
	return native.KindInvalid, host.ErrNoField
}

func (p *Placeholder) Read(path string) (any, error) {
	return nil, host.ErrNoField
}

func (p *Placeholder) Write(path string, value any) error {
	return host.ErrNoField
}
