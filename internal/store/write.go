package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrPathConflict is returned when a path is already indexed under another GUID.
var ErrPathConflict = errors.New("path already indexed under another guid")

// UpsertAsset inserts or replaces the row for a.GUID and assigns it the next
// seq. It returns the assigned seq.
func (s *Store) UpsertAsset(ctx context.Context, a Asset) (int64, error) {
	if a.GUID == "" || a.Path == "" {
		return 0, fmt.Errorf("upsert asset: guid and path are required")
	}
	if a.Kind != KindAsset && a.Kind != KindVariant {
		return 0, fmt.Errorf("upsert asset %s: invalid kind %q", a.GUID, a.Kind)
	}

	var seq int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO assets (guid, path, kind, type_name, origin, fingerprint, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM assets))
		ON CONFLICT(guid) DO UPDATE SET
			path = excluded.path,
			kind = excluded.kind,
			type_name = excluded.type_name,
			origin = excluded.origin,
			fingerprint = excluded.fingerprint,
			seq = excluded.seq
		RETURNING seq
	`, a.GUID, a.Path, string(a.Kind), a.Type, a.Origin, a.Fingerprint).Scan(&seq)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, fmt.Errorf("upsert asset %s at %s: %w", a.GUID, a.Path, ErrPathConflict)
		}
		return 0, fmt.Errorf("upsert asset %s: %w", a.GUID, err)
	}
	return seq, nil
}

// DeleteAsset removes the row for guid. It reports whether a row existed.
// The import log is kept.
func (s *Store) DeleteAsset(ctx context.Context, guid string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE guid = ?`, guid)
	if err != nil {
		return false, fmt.Errorf("delete asset %s: %w", guid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete asset %s: %w", guid, err)
	}
	return n > 0, nil
}

// RecordImport appends an import log entry and returns its seq.
// The Seq field of imp is ignored.
func (s *Store) RecordImport(ctx context.Context, imp Import) (int64, error) {
	if imp.GUID == "" || imp.State == "" {
		return 0, fmt.Errorf("record import: guid and state are required")
	}
	msgs, err := marshalMessages(imp.Messages)
	if err != nil {
		return 0, fmt.Errorf("record import %s: %w", imp.GUID, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO imports (guid, state, stale_count, malformed, rewritten, fingerprint, messages)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		imp.GUID,
		imp.State,
		imp.StaleCount,
		boolInt(imp.Malformed),
		boolInt(imp.Rewritten),
		imp.Fingerprint,
		msgs,
	)
	if err != nil {
		return 0, fmt.Errorf("record import %s: %w", imp.GUID, err)
	}
	return res.LastInsertId()
}
