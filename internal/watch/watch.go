// Package watch turns file system changes under a project root into bus events.
//
// Changes are debounced: bursts of writes to the same file produce one
// refresh. A modified plain asset publishes OriginChanged. A modified variant
// publishes PatchChanged followed by OriginChanged, since variants can be
// origins of other variants. Writes the project made itself are already
// indexed and publish nothing.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/assetvariant/internal/assetdb"
	"github.com/roach88/assetvariant/internal/events"
	"github.com/roach88/assetvariant/internal/store"
	"github.com/roach88/assetvariant/internal/variant"
)

// Source tags events published by the watcher.
const Source = "watcher"

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// Config wires a Watcher.
type Config struct {
	Project  *assetdb.Project
	Bus      *events.Bus
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher observes a project root. Run owns the event loop; every event is
// published from that goroutine.
type Watcher struct {
	cfg     Config
	log     *slog.Logger
	fs      *fsnotify.Watcher
	pending map[string]struct{}
}

// New creates a watcher over every non-hidden directory of the project root.
func New(cfg Config) (*Watcher, error) {
	if cfg.Project == nil || cfg.Bus == nil {
		return nil, errors.New("watch: project and bus are required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := newWatcher(cfg)
	w.fs = fw
	if err := w.addTree(cfg.Project.Root()); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func newWatcher(cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{cfg: cfg, log: log, pending: make(map[string]struct{})}
}

// Close stops watching.
func (w *Watcher) Close() error {
	if w.fs == nil {
		return nil
	}
	return w.fs.Close()
}

// Run processes file system events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if rel, ok := w.handleFsEvent(ev); ok {
				w.pending[rel] = struct{}{}
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handleFsEvent maps a raw event to the project-relative file it concerns.
// New directories are added to the watch list.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) (string, bool) {
	if ev.Op == fsnotify.Chmod {
		return "", false
	}
	name := filepath.Base(ev.Name)
	if name == "" || name[0] == '.' {
		return "", false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.fs != nil {
				if err := w.addTree(ev.Name); err != nil {
					w.log.Warn("cannot watch new directory", "path", ev.Name, "error", err)
				}
			}
			return "", false
		}
	}
	switch filepath.Ext(name) {
	case assetdb.AssetExtension, variant.Extension:
	default:
		return "", false
	}
	rel, err := w.cfg.Project.Rel(ev.Name)
	if err != nil {
		return "", false
	}
	return rel, true
}

// flush refreshes every pending file in path order and publishes the result.
func (w *Watcher) flush(ctx context.Context) {
	paths := make([]string, 0, len(w.pending))
	for rel := range w.pending {
		paths = append(paths, rel)
	}
	clear(w.pending)
	slices.Sort(paths)

	for _, rel := range paths {
		change, err := w.cfg.Project.Refresh(ctx, rel)
		if err != nil {
			w.log.Warn("refresh failed", "path", rel, "error", err)
			continue
		}
		if !change.Modified {
			continue
		}
		w.publish(rel, change)
	}
}

func (w *Watcher) publish(rel string, change assetdb.Change) {
	e := events.Event{ID: change.Asset.GUID, Path: rel, Deleted: change.Deleted, Source: Source}
	w.log.Debug("file changed", "path", rel, "guid", e.ID, "kind", change.Asset.Kind, "deleted", e.Deleted)

	if change.Asset.Kind == store.KindVariant {
		e.Topic = events.PatchChanged
		w.cfg.Bus.Publish(e)
	}
	e.Topic = events.OriginChanged
	w.cfg.Bus.Publish(e)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
