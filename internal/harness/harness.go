package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/assetvariant/internal/codec"
	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/events"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/ir"
	"github.com/roach88/assetvariant/internal/memdb"
	"github.com/roach88/assetvariant/internal/object"
	"github.com/roach88/assetvariant/internal/schema"
	"github.com/roach88/assetvariant/internal/variant"
)

// Source is the event source of changes the harness makes on behalf of
// outside editors.
const Source = "harness"

const variantID = "variant"

// ExpectAnyError matches any step error.
const ExpectAnyError = "any"

// Run executes a scenario with logging discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunContext executes a scenario and evaluates its assertions.
//
// Each scenario runs against its own in-memory database: the origin is
// registered under OriginID, the variant artifact lives in memory and a
// variant session applies the steps. A snapshot is taken on open and after
// every step.
//
// An error is returned only when the scenario cannot be set up. Step and
// assertion failures are reported in the Result.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r, err := newRunner(scenario, logger)
	if err != nil {
		return nil, err
	}
	if err := r.open(ctx); err != nil {
		return nil, err
	}
	defer r.session.Close()

	for i, step := range scenario.Steps {
		err := r.apply(ctx, step)
		if msg := checkStepError(step.ExpectError, err); msg != "" {
			r.result.AddError(fmt.Sprintf("step %d (%s): %s", i+1, step.Op(), msg))
		}
		r.result.Trace = append(r.result.Trace, r.snapshot(i+1, step.Op(), err))
	}

	r.result.Writes = r.artifacts.writes
	for _, msg := range EvaluateAssertions(scenario.Assertions, r.env()) {
		r.result.AddError(msg)
	}
	return r.result, nil
}

type runner struct {
	scenario *Scenario
	log      *slog.Logger

	types     *schema.Registry
	db        *memdb.DB
	origin    *object.Object
	bus       *events.Bus
	artifacts *artifactMap
	session   *variant.Session
	result    *Result
}

func newRunner(s *Scenario, logger *slog.Logger) (*runner, error) {
	types, err := compileTypes(s)
	if err != nil {
		return nil, err
	}
	r := &runner{
		scenario:  s,
		log:       logger.With("scenario", s.Name),
		types:     types,
		db:        memdb.New(),
		bus:       events.NewBus(),
		artifacts: &artifactMap{items: make(map[string]variant.Artifact)},
		result:    NewResult(),
	}

	// Register every object before loading any so that references between
	// them resolve.
	defs := map[string]ObjectDef{OriginID: s.Origin}
	maps.Copy(defs, s.Objects)
	objs := make(map[string]*object.Object, len(defs))
	for _, id := range slices.Sorted(maps.Keys(defs)) {
		obj, err := r.newObject(id, defs[id])
		if err != nil {
			return nil, err
		}
		objs[id] = obj
		r.db.Put(id, obj)
	}
	for _, id := range slices.Sorted(maps.Keys(defs)) {
		if err := r.load(objs[id], defs[id]); err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
	}
	r.origin = objs[OriginID]
	return r, nil
}

func compileTypes(s *Scenario) (*schema.Registry, error) {
	if s.Schema != "" {
		return schema.LoadDir(s.Schema)
	}
	return schema.CompileString(s.Types)
}

func (r *runner) newObject(id string, def ObjectDef) (*object.Object, error) {
	t, ok := r.types.Lookup(def.Type)
	if !ok {
		return nil, fmt.Errorf("%s: unknown type %q", id, def.Type)
	}
	name := def.Name
	if name == "" {
		name = def.Type
	}
	return object.New(t, name), nil
}

func (r *runner) load(obj *object.Object, def ObjectDef) error {
	if len(def.Fields) == 0 {
		return nil
	}
	doc, err := ir.FromAny(def.Fields)
	if err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	return obj.Load(doc.(ir.Object), r.db)
}

func (r *runner) open(ctx context.Context) error {
	v := r.scenario.Variant
	a := variant.Artifact{Origin: OriginID, Patch: v.Patch}
	if v.Orphan {
		a.Origin = ""
	}
	r.artifacts.items[variantID] = a

	name := v.Name
	if name == "" {
		name = r.origin.Name() + " (Variant)"
	}
	session, err := variant.OpenSession(ctx, variant.SessionConfig{
		Materializer: variant.NewMaterializer(r.db, r.db, r.log),
		Artifacts:    r.artifacts,
		Bus:          r.bus,
		Logger:       r.log,
	}, variantID, name)
	if err != nil {
		return fmt.Errorf("open variant: %w", err)
	}
	r.session = session
	r.result.Trace = append(r.result.Trace, r.snapshot(0, OpOpen, nil))
	return nil
}

func (r *runner) apply(ctx context.Context, step Step) error {
	switch step.Op() {
	case OpRecord:
		if r.session.Result().State != variant.Materialized {
			// The session reports why the variant is not editable.
			return r.session.RecordChange(ctx, step.Record.Path, nil)
		}
		v, err := nativeValue(r.session.Object(), step.Record.Path, step.Record.Value, r.db)
		if err != nil {
			return err
		}
		return r.session.RecordChange(ctx, step.Record.Path, v)

	case OpRevert:
		_, err := r.session.Revert(ctx, step.Revert)
		return err

	case OpMutateOrigin:
		if _, ok := r.db.Get(OriginID); !ok {
			return diag.Unresolved(OriginID, "origin was deleted", host.ErrNotFound)
		}
		v, err := nativeValue(r.origin, step.MutateOrigin.Path, step.MutateOrigin.Value, r.db)
		if err != nil {
			return err
		}
		if err := r.origin.Write(step.MutateOrigin.Path, v); err != nil {
			return fmt.Errorf("mutate origin %s: %w", step.MutateOrigin.Path, err)
		}
		r.publish(events.OriginChanged, OriginID, false)

	case OpDeleteOrigin:
		r.db.Delete(OriginID)
		r.publish(events.OriginChanged, OriginID, true)

	case OpRestoreOrigin:
		r.db.Put(OriginID, r.origin)
		r.publish(events.OriginChanged, OriginID, false)

	case OpSetPatch:
		a := r.artifacts.items[variantID]
		a.Patch = *step.SetPatch
		r.artifacts.items[variantID] = a
		r.publish(events.PatchChanged, variantID, false)

	case OpRefresh:
		return r.session.Refresh(ctx)

	default:
		return fmt.Errorf("unknown step operation %q", step.Op())
	}
	return nil
}

func (r *runner) publish(topic events.Topic, id string, deleted bool) {
	r.bus.Publish(events.Event{Topic: topic, ID: id, Deleted: deleted, Source: Source})
}

func (r *runner) snapshot(step int, op string, stepErr error) Snapshot {
	res := r.session.Result()
	snap := Snapshot{
		Step:        step,
		Op:          op,
		State:       res.State.String(),
		Fields:      fieldValues(r.session.Object(), r.db),
		Overrides:   r.session.ListOverriddenPaths(),
		Patch:       r.session.Artifact().Patch,
		StaleCount:  res.StaleCount(),
		Malformed:   res.Malformed,
		Diagnostics: make([]string, 0, len(res.Diagnostics)),
	}
	for _, d := range res.Diagnostics {
		snap.Diagnostics = append(snap.Diagnostics, string(d.Code))
	}
	if stepErr != nil {
		snap.Error = stepErr.Error()
	}
	return snap
}

// env is the assertion environment: the final snapshot's values, the full
// trace, the origin's current fields (nil once deleted) and the write count.
func (r *runner) env() map[string]any {
	env := r.result.Final().toMap()
	trace := make([]any, len(r.result.Trace))
	for i, snap := range r.result.Trace {
		trace[i] = snap.toMap()
	}
	env["trace"] = trace
	env["writes"] = r.artifacts.writes
	env["origin"] = nil
	if origin, ok := r.db.Get(OriginID); ok {
		env["origin"] = fieldValues(origin, r.db)
	}
	return env
}

func checkStepError(expect string, err error) string {
	switch {
	case expect == "" && err != nil:
		return fmt.Sprintf("unexpected error: %v", err)
	case expect == "":
		return ""
	case err == nil:
		return fmt.Sprintf("expected error %s, step succeeded", expect)
	case expect == ExpectAnyError:
		return ""
	}
	code, ok := diag.CodeOf(err)
	if !ok || string(code) != expect {
		return fmt.Sprintf("expected error %s, got: %v", expect, err)
	}
	return ""
}

// nativeValue converts a scenario value in document encoding to the native
// value of the field at path.
func nativeValue(obj host.Object, path string, raw any, refs codec.References) (any, error) {
	kind, err := obj.Kind(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc, err := ir.FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	v, err := codec.DecodeDocument(kind, doc, refs)
	if err != nil {
		return nil, diag.At(err, path)
	}
	return v, nil
}

// fieldValues returns every encodable field of obj in document encoding.
func fieldValues(obj host.Object, refs codec.References) map[string]any {
	out := make(map[string]any)
	for _, f := range obj.Fields() {
		v, err := obj.Read(f.Path)
		if err != nil {
			continue
		}
		doc, err := codec.EncodeDocument(f.Kind, v, refs)
		if err != nil {
			continue
		}
		out[f.Path] = ir.ToAny(doc)
	}
	return out
}

// artifactMap is the in-memory artifact store of a scenario run.
type artifactMap struct {
	items  map[string]variant.Artifact
	writes int
}

func (m *artifactMap) ReadArtifact(_ context.Context, id string) (variant.Artifact, error) {
	a, ok := m.items[id]
	if !ok {
		return variant.Artifact{}, errors.New("no variant " + id)
	}
	return a, nil
}

func (m *artifactMap) WriteArtifact(_ context.Context, id string, a variant.Artifact) error {
	m.items[id] = a
	m.writes++
	return nil
}
