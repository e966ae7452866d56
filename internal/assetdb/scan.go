package assetdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/assetvariant/internal/store"
)

// ScanReport summarizes a full scan.
type ScanReport struct {
	Assets   int
	Variants int
	// Assigned lists files that had no GUID and were given one.
	Assigned []string
	// Removed lists GUIDs dropped because their files are gone.
	Removed []string
	// Problems holds files that could not be indexed.
	Problems []error
}

// Scan walks the asset root and brings the index in line with the files on
// disk. Hidden files and directories are skipped.
func (p *Project) Scan(ctx context.Context) (*ScanReport, error) {
	report := &ScanReport{}
	seen := make(map[string]string) // guid -> path

	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != p.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := fileKind(path); !ok {
			return nil
		}
		rel, err := p.Rel(path)
		if err != nil {
			return err
		}

		rec, assigned, err := p.indexFile(ctx, rel, seen)
		if err != nil {
			report.Problems = append(report.Problems, err)
			p.log.Warn("file not indexed", "path", rel, "error", err)
			return nil
		}
		if assigned {
			report.Assigned = append(report.Assigned, rel)
		}
		switch rec.Kind {
		case store.KindAsset:
			report.Assets++
		case store.KindVariant:
			report.Variants++
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("scan %s: %w", p.root, err)
	}

	all, err := p.index.ListAssets(ctx, "")
	if err != nil {
		return report, err
	}
	for _, rec := range all {
		if path, ok := seen[rec.GUID]; ok && path == rec.Path {
			continue
		}
		if _, err := p.index.DeleteAsset(ctx, rec.GUID); err != nil {
			return report, err
		}
		p.Invalidate(rec.GUID)
		report.Removed = append(report.Removed, rec.GUID)
	}

	p.log.Info("scan complete",
		"assets", report.Assets,
		"variants", report.Variants,
		"removed", len(report.Removed),
		"problems", len(report.Problems))
	return report, nil
}

// Change describes what Refresh found for one file.
type Change struct {
	Asset   store.Asset
	Deleted bool
	// Modified is false when the file matches its index row.
	Modified bool
}

// Refresh re-indexes a single project-relative file after it changed on disk.
func (p *Project) Refresh(ctx context.Context, rel string) (Change, error) {
	prev, prevErr := p.index.AssetByPath(ctx, rel)
	if prevErr != nil && !errors.Is(prevErr, store.ErrNotFound) {
		return Change{}, prevErr
	}
	indexed := prevErr == nil

	if _, err := os.Stat(p.Abs(rel)); errors.Is(err, os.ErrNotExist) {
		if !indexed {
			return Change{}, nil
		}
		if _, err := p.index.DeleteAsset(ctx, prev.GUID); err != nil {
			return Change{}, err
		}
		p.Invalidate(prev.GUID)
		return Change{Asset: prev, Deleted: true, Modified: true}, nil
	}

	rec, _, err := p.indexFile(ctx, rel, nil)
	if err != nil {
		return Change{}, err
	}
	if indexed && prev.GUID != rec.GUID {
		p.Invalidate(prev.GUID)
	}
	modified := !indexed || prev.Fingerprint != rec.Fingerprint || prev.GUID != rec.GUID
	if modified {
		p.Invalidate(rec.GUID)
	}
	return Change{Asset: rec, Modified: modified}, nil
}

// indexFile reads the header of one file and upserts its row. Files without
// a GUID are assigned one and rewritten. seen, when non-nil, detects GUIDs
// claimed by two files in one scan.
func (p *Project) indexFile(ctx context.Context, rel string, seen map[string]string) (store.Asset, bool, error) {
	abs := p.Abs(rel)
	data, err := os.ReadFile(abs)
	if err != nil {
		return store.Asset{}, false, fmt.Errorf("%s: %w", rel, err)
	}

	rec := store.Asset{Path: rel}
	assigned := false
	ext, _ := fileKind(rel)
	if ext == AssetExtension {
		f, err := ParseAssetFile(data)
		if err != nil {
			return store.Asset{}, false, fmt.Errorf("%s: %w", rel, err)
		}
		if _, ok := p.types.Lookup(f.Type); !ok {
			return store.Asset{}, false, fmt.Errorf("%s: unknown type %q", rel, f.Type)
		}
		if f.GUID == "" {
			f.GUID = p.newID()
			if data, err = WriteAssetFile(abs, f); err != nil {
				return store.Asset{}, false, err
			}
			assigned = true
		}
		rec.GUID, rec.Kind, rec.Type = f.GUID, store.KindAsset, f.Type
	} else {
		f, err := parseArtifactFile(data)
		if err != nil {
			return store.Asset{}, false, fmt.Errorf("%s: %w", rel, err)
		}
		if f.GUID == "" {
			f.GUID = p.newID()
			if data, err = writeArtifactFile(abs, f); err != nil {
				return store.Asset{}, false, err
			}
			assigned = true
		}
		rec.GUID, rec.Kind, rec.Origin = f.GUID, store.KindVariant, f.Origin
	}
	rec.Fingerprint = fingerprint(data)

	if seen != nil {
		if other, dup := seen[rec.GUID]; dup {
			return store.Asset{}, false, fmt.Errorf("%s: guid %s already used by %s", rel, rec.GUID, other)
		}
		seen[rec.GUID] = rel
	}

	rec.Seq, err = p.index.UpsertAsset(ctx, rec)
	if errors.Is(err, store.ErrPathConflict) {
		// The file was re-keyed since the last scan; drop the old row.
		old, lookupErr := p.index.AssetByPath(ctx, rel)
		if lookupErr != nil {
			return store.Asset{}, false, lookupErr
		}
		if _, err := p.index.DeleteAsset(ctx, old.GUID); err != nil {
			return store.Asset{}, false, err
		}
		p.Invalidate(old.GUID)
		rec.Seq, err = p.index.UpsertAsset(ctx, rec)
	}
	if err != nil {
		return store.Asset{}, false, err
	}
	return rec, assigned, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
