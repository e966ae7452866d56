package assetdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/assetvariant/internal/codec"
	"github.com/roach88/assetvariant/internal/diag"
	"github.com/roach88/assetvariant/internal/host"
	"github.com/roach88/assetvariant/internal/native"
	"github.com/roach88/assetvariant/internal/object"
	"github.com/roach88/assetvariant/internal/schema"
	"github.com/roach88/assetvariant/internal/store"
	"github.com/roach88/assetvariant/internal/variant"
)

// Options configures a Project.
type Options struct {
	// Root is the directory holding asset and variant files.
	Root string

	Types *schema.Registry
	Index *store.Store

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// NewID generates GUIDs for new files. Defaults to uuid.NewString.
	NewID func() string
}

// Project serves the assets under one root directory.
type Project struct {
	root  string
	types *schema.Registry
	index *store.Store
	log   *slog.Logger
	newID func() string

	materializer *variant.Materializer

	mu      sync.Mutex
	cache   map[string]*cached
	handles map[native.Handle]string
}

// cached is a resolved origin owned by the project.
type cached struct {
	obj host.Object
	// fingerprint of the file the object was loaded from. Empty for
	// materialized variants, which are rebuilt on every resolve.
	fingerprint string
}

var (
	_ host.Database         = (*Project)(nil)
	_ codec.References      = (*Project)(nil)
	_ variant.ArtifactStore = (*Project)(nil)
	_ variant.Namespace     = (*Project)(nil)
)

// Open returns a project over opts.Root. The index is not scanned.
func Open(opts Options) (*Project, error) {
	if opts.Types == nil || opts.Index == nil {
		return nil, errors.New("open project: types and index are required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open project: %s is not a directory", root)
	}

	p := &Project{
		root:    root,
		types:   opts.Types,
		index:   opts.Index,
		log:     opts.Logger,
		newID:   opts.NewID,
		cache:   make(map[string]*cached),
		handles: make(map[native.Handle]string),
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	p.materializer = variant.NewMaterializer(p, p, p.log)
	return p, nil
}

// Root returns the absolute asset root.
func (p *Project) Root() string { return p.root }

// Types returns the schema registry.
func (p *Project) Types() *schema.Registry { return p.types }

// Index returns the SQLite index.
func (p *Project) Index() *store.Store { return p.index }

// Materializer returns the materializer bound to this project.
func (p *Project) Materializer() *variant.Materializer { return p.materializer }

// Abs converts a project-relative slash path to an absolute path.
func (p *Project) Abs(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

// Rel converts a path to a project-relative slash path. It fails for paths
// outside the root.
func (p *Project) Rel(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.root, path)
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project", path)
	}
	return filepath.ToSlash(rel), nil
}

// Lookup finds an indexed asset by GUID or project-relative path.
func (p *Project) Lookup(ctx context.Context, ref string) (store.Asset, error) {
	a, err := p.index.AssetByGUID(ctx, ref)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return a, err
	}
	if rel, relErr := p.Rel(ref); relErr == nil {
		return p.index.AssetByPath(ctx, rel)
	}
	return store.Asset{}, err
}

// resolvingKey carries the chain of variants being resolved.
type resolvingKey struct{}

// ResolveOrigin loads the asset or variant identified by guid. The returned
// object belongs to the project: callers clone it and never release it.
func (p *Project) ResolveOrigin(ctx context.Context, guid string) (host.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := p.index.AssetByGUID(ctx, guid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", guid, host.ErrNotFound)
		}
		return nil, err
	}
	switch rec.Kind {
	case store.KindAsset:
		return p.loadAsset(rec)
	case store.KindVariant:
		return p.resolveVariant(ctx, rec)
	}
	return nil, fmt.Errorf("%s: unknown kind %q", guid, rec.Kind)
}

// LoadAsset returns a caller-owned copy of the plain asset guid.
func (p *Project) LoadAsset(ctx context.Context, guid string) (*object.Object, error) {
	obj, err := p.ResolveOrigin(ctx, guid)
	if err != nil {
		return nil, err
	}
	o, ok := obj.(*object.Object)
	if !ok {
		return nil, fmt.Errorf("%s is not a plain asset", guid)
	}
	return o.Clone(), nil
}

func (p *Project) loadAsset(rec store.Asset) (host.Object, error) {
	data, err := os.ReadFile(p.Abs(rec.Path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s (%s): %w", rec.GUID, rec.Path, host.ErrNotFound)
		}
		return nil, fmt.Errorf("read asset %s: %w", rec.Path, err)
	}
	fp := fingerprint(data)

	p.mu.Lock()
	if c, ok := p.cache[rec.GUID]; ok && c.fingerprint == fp {
		p.mu.Unlock()
		return c.obj, nil
	}
	p.mu.Unlock()

	obj, err := p.decodeAsset(rec.Path, data)
	if err != nil {
		return nil, err
	}
	p.remember(rec.GUID, obj, fp)
	return obj, nil
}

// decodeAsset builds an object from an asset file. Fields that fail to load
// keep their zero value and are logged.
func (p *Project) decodeAsset(path string, data []byte) (*object.Object, error) {
	f, err := ParseAssetFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	typ, ok := p.types.Lookup(f.Type)
	if !ok {
		return nil, fmt.Errorf("%s: unknown type %q", path, f.Type)
	}
	name := f.Name
	if name == "" {
		name = variant.DisplayName(path)
	}
	doc, err := f.Document()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	obj := object.New(typ, name)
	if err := obj.Load(doc, p); err != nil {
		p.log.Warn("asset loaded with errors", "path", path, "error", err)
	}
	return obj, nil
}

func (p *Project) resolveVariant(ctx context.Context, rec store.Asset) (host.Object, error) {
	chain, _ := ctx.Value(resolvingKey{}).([]string)
	for _, g := range chain {
		if g == rec.GUID {
			return nil, diag.Unresolved(rec.GUID,
				fmt.Sprintf("variant chain %s cycles back to %s", strings.Join(append(chain, rec.GUID), " -> "), rec.Path), nil)
		}
	}
	ctx = context.WithValue(ctx, resolvingKey{}, append(chain[:len(chain):len(chain)], rec.GUID))

	a, err := p.ReadArtifact(ctx, rec.GUID)
	if err != nil {
		return nil, err
	}
	res := p.materializer.MaterializeArtifact(ctx, variant.DisplayName(rec.Path), a)
	if res.State != variant.Materialized {
		res.Release()
		if len(res.Diagnostics) > 0 {
			return nil, res.Diagnostics[len(res.Diagnostics)-1]
		}
		return nil, fmt.Errorf("%s: %w", rec.GUID, host.ErrNotFound)
	}
	p.remember(rec.GUID, res.Object, "")
	return res.Object, nil
}

// remember caches obj as the resolved form of guid, releasing the previous one.
func (p *Project) remember(guid string, obj host.Object, fp string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.cache[guid]; ok {
		if h, ok := prev.obj.(native.Handle); ok {
			delete(p.handles, h)
		}
		host.Release(prev.obj)
	}
	p.cache[guid] = &cached{obj: obj, fingerprint: fp}
	if h, ok := obj.(native.Handle); ok {
		p.handles[h] = guid
	}
}

// Invalidate drops the cached form of guid.
func (p *Project) Invalidate(guid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.cache[guid]; ok {
		if h, ok := prev.obj.(native.Handle); ok {
			delete(p.handles, h)
		}
		host.Release(prev.obj)
		delete(p.cache, guid)
	}
}

// Clone deep-copies project objects.
func (p *Project) Clone(obj host.Object) host.Object {
	if o, ok := obj.(*object.Object); ok {
		return o.Clone()
	}
	panic(fmt.Sprintf("assetdb: cannot clone %T", obj))
}

// Ref points at an indexed asset or variant without loading it.
type Ref struct {
	GUID string
	Path string
}

// HandleName returns the referenced file's display name.
func (r Ref) HandleName() string { return variant.DisplayName(r.Path) }

// Identify returns the GUID of a reference target.
func (p *Project) Identify(h native.Handle) (string, bool) {
	if r, ok := h.(Ref); ok {
		return r.GUID, r.GUID != ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	guid, ok := p.handles[h]
	return guid, ok
}

// Resolve returns a Ref for an indexed GUID.
func (p *Project) Resolve(guid string) (native.Handle, bool) {
	rec, err := p.index.AssetByGUID(context.Background(), guid)
	if err != nil {
		return nil, false
	}
	return Ref{GUID: rec.GUID, Path: rec.Path}, true
}
