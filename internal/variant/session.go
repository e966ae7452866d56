package variant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/events"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/native"
	"github.com/roach88/assetvariant/internal/overrides"
	"github.com/roach88/assetvariant/internal/patch"
)

// ErrSessionClosed is returned by Session methods after Close.
var ErrSessionClosed = errors.New("session closed")

// SessionConfig wires a Session to its collaborators. Bus and Logger are optional.
type SessionConfig struct {
	Materializer *Materializer
	Artifacts    ArtifactStore
	Bus          *events.Bus
	Logger       *slog.Logger
}

// Session edits one variant. It keeps a working materialization that edits
// are applied to live, records each edit as an override, and persists the
// artifact after every change.
//
// A Session is not safe for concurrent use. Event handlers run on the
// publisher's goroutine.
type Session struct {
	cfg    SessionConfig
	id     string
	name   string
	source string
	log    *slog.Logger

	artifact Artifact
	store    *overrides.Store
	result   *Result

	unsubscribe []func()
	closed      bool
}

// OpenSession loads the variant identified by id and materializes it.
// Entries pruned during loading are written back immediately.
func OpenSession(ctx context.Context, cfg SessionConfig, id, name string) (*Session, error) {
	if cfg.Materializer == nil || cfg.Artifacts == nil {
		return nil, errors.New("open session: materializer and artifacts are required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		cfg:    cfg,
		id:     id,
		name:   name,
		source: "session-" + uuid.NewString(),
		log:    log.With("variant", name),
	}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	if cfg.Bus != nil {
		s.unsubscribe = append(s.unsubscribe,
			cfg.Bus.Subscribe(events.OriginChanged, s.onOriginChanged),
			cfg.Bus.Subscribe(events.PatchChanged, s.onPatchChanged),
		)
	}
	return s, nil
}

// ID returns the variant identifier.
func (s *Session) ID() string { return s.id }

// Object returns the working object. It is replaced on every refresh.
func (s *Session) Object() host.Object { return s.result.Object }

// Result returns the current working materialization.
func (s *Session) Result() *Result { return s.result }

// Artifact returns the artifact as last persisted.
func (s *Session) Artifact() Artifact { return s.artifact }

// Store returns a copy of the current overrides.
func (s *Session) Store() *overrides.Store { return s.store.Clone() }

// ListOverriddenPaths returns the overridden paths in the order they were first recorded.
func (s *Session) ListOverriddenPaths() []string { return s.store.Paths() }

// HasOverride reports whether path is overridden.
func (s *Session) HasOverride(path string) bool { return s.store.Has(path) }

// RecordChange writes value at path on the working object and records it as
// an override. If the field kind cannot be stored the live edit stands, the
// store is left unchanged and an UNSUPPORTED_FIELD_KIND error is returned.
func (s *Session) RecordChange(ctx context.Context, path string, value any) error {
	if err := s.editable(); err != nil {
		return err
	}
	obj := s.result.Object
	kind, err := obj.Kind(path)
	if err != nil {
		return fmt.Errorf("record %s: %w", path, err)
	}
	if err := obj.Write(path, value); err != nil {
		return fmt.Errorf("record %s: %w", path, err)
	}
	next, err := patch.RecordChange(s.store, path, kind, value, s.cfg.Materializer.Refs)
	if err != nil {
		if diag.IsUnsupported(err) {
			s.log.Warn("change not recorded", "path", path, "error", err)
		}
		return err
	}
	if kind == native.KindArraySize {
		var dropped []string
		if next, dropped = patch.Prune(next, obj); len(dropped) > 0 {
			s.log.Debug("overrides dropped with array elements", "path", path, "dropped", dropped)
		}
	}
	s.store = next
	return s.persist(ctx)
}

// Revert removes the override for path and restores the origin's value at
// path on the working object. It reports whether an override was removed.
func (s *Session) Revert(ctx context.Context, path string) (bool, error) {
	if err := s.editable(); err != nil {
		return false, err
	}
	next, removed := patch.Revert(s.store, path)
	if !removed {
		return false, nil
	}
	s.store = next
	if err := s.persist(ctx); err != nil {
		return true, err
	}
	return true, s.restoreFromOrigin(ctx, path)
}

// Refresh rebuilds the working materialization from the current origin and overrides.
func (s *Session) Refresh(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.rematerialize(ctx)
	if s.result.Pruned() {
		return s.persist(ctx)
	}
	return nil
}

// Close unsubscribes from events and releases the working object.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
	if s.result != nil {
		s.result.Release()
	}
	return nil
}

func (s *Session) editable() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.result.State != Materialized {
		return diag.Unresolved(s.artifact.Origin, "variant cannot be edited while its origin is missing", nil)
	}
	return nil
}

// reload reads the artifact and rebuilds everything from it.
func (s *Session) reload(ctx context.Context) error {
	a, err := s.cfg.Artifacts.ReadArtifact(ctx, s.id)
	if err != nil {
		return fmt.Errorf("read variant %s: %w", s.id, err)
	}
	res := s.cfg.Materializer.MaterializeArtifact(ctx, s.name, a)
	s.replace(res.Result)
	s.artifact = a
	s.store = res.Store
	if res.NeedsRewrite {
		return s.persist(ctx)
	}
	return nil
}

func (s *Session) rematerialize(ctx context.Context) {
	res := s.cfg.Materializer.Materialize(ctx, Identity{Name: s.name, Origin: s.artifact.Origin, Store: s.store})
	s.replace(res)
	s.store = res.Store
}

func (s *Session) replace(res *Result) {
	if s.result != nil {
		s.result.Release()
	}
	s.result = res
}

func (s *Session) persist(ctx context.Context) error {
	text, err := s.store.Serialize()
	if err != nil {
		return fmt.Errorf("serialize overrides: %w", err)
	}
	a := Artifact{Origin: s.artifact.Origin, Patch: text}
	if err := s.cfg.Artifacts.WriteArtifact(ctx, s.id, a); err != nil {
		return fmt.Errorf("write variant %s: %w", s.id, err)
	}
	s.artifact = a
	if s.cfg.Bus != nil {
		s.cfg.Bus.Publish(events.Event{Topic: events.PatchChanged, ID: s.id, Source: s.source})
	}
	return nil
}

func (s *Session) restoreFromOrigin(ctx context.Context, path string) error {
	origin, err := s.cfg.Materializer.DB.ResolveOrigin(ctx, s.artifact.Origin)
	if err != nil {
		return diag.Unresolved(s.artifact.Origin, "origin could not be loaded to revert "+path, err)
	}
	v, err := origin.Read(path)
	if err != nil {
		// The origin no longer has the field; the working value stays.
		s.log.Debug("revert target missing from origin", "path", path, "error", err)
		return nil
	}
	if err := s.result.Object.Write(path, v); err != nil {
		return fmt.Errorf("revert %s: %w", path, err)
	}

	// A reverted list size also restores the elements it brings back.
	list, ok := strings.CutSuffix(path, ".Array.size")
	if !ok {
		return nil
	}
	prefix := list + ".Array.data["
	for _, f := range origin.Fields() {
		if !strings.HasPrefix(f.Path, prefix) || s.store.Has(f.Path) {
			continue
		}
		if ev, err := origin.Read(f.Path); err == nil {
			_ = s.result.Object.Write(f.Path, ev)
		}
	}
	return nil
}

func (s *Session) onOriginChanged(e events.Event) {
	if s.closed || e.ID == "" || e.ID != s.artifact.Origin {
		return
	}
	s.log.Debug("origin changed, refreshing", "origin", e.ID)
	if err := s.Refresh(context.Background()); err != nil {
		s.log.Warn("refresh after origin change failed", "error", err)
	}
}

func (s *Session) onPatchChanged(e events.Event) {
	if s.closed || e.ID != s.id || e.Source == s.source {
		return
	}
	s.log.Debug("variant changed externally, reloading")
	if err := s.reload(context.Background()); err != nil {
		s.log.Warn("reload after external change failed", "error", err)
	}
}
