package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const assetColumns = `guid, path, kind, type_name, origin, fingerprint, seq`

// AssetByGUID returns the row for guid, or ErrNotFound.
func (s *Store) AssetByGUID(ctx context.Context, guid string) (Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE guid = ?`, guid)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, fmt.Errorf("%s: %w", guid, ErrNotFound)
	}
	return a, err
}

// AssetByPath returns the row for a project-relative path, or ErrNotFound.
func (s *Store) AssetByPath(ctx context.Context, path string) (Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE path = ?`, path)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return a, err
}

// ListAssets returns every row of the given kind ordered by path. An empty
// kind lists everything.
//
// Returns an empty slice (not nil) if nothing is indexed.
func (s *Store) ListAssets(ctx context.Context, kind Kind) ([]Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY path COLLATE BINARY ASC`
	return s.queryAssets(ctx, query, args...)
}

// VariantsOf returns the variants whose origin is guid, ordered by path.
func (s *Store) VariantsOf(ctx context.Context, guid string) ([]Asset, error) {
	return s.queryAssets(ctx, `
		SELECT `+assetColumns+` FROM assets
		WHERE kind = 'variant' AND origin = ?
		ORDER BY path COLLATE BINARY ASC
	`, guid)
}

func (s *Store) queryAssets(ctx context.Context, query string, args ...any) ([]Asset, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	assets := []Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

// LatestImport returns the most recent import of guid, or ErrNotFound.
func (s *Store) LatestImport(ctx context.Context, guid string) (Import, error) {
	rows, err := s.queryImports(ctx, `
		SELECT seq, guid, state, stale_count, malformed, rewritten, fingerprint, messages
		FROM imports WHERE guid = ?
		ORDER BY seq DESC LIMIT 1
	`, guid)
	if err != nil {
		return Import{}, err
	}
	if len(rows) == 0 {
		return Import{}, fmt.Errorf("no imports for %s: %w", guid, ErrNotFound)
	}
	return rows[0], nil
}

// ImportHistory returns every import of guid, oldest first.
func (s *Store) ImportHistory(ctx context.Context, guid string) ([]Import, error) {
	return s.queryImports(ctx, `
		SELECT seq, guid, state, stale_count, malformed, rewritten, fingerprint, messages
		FROM imports WHERE guid = ?
		ORDER BY seq ASC
	`, guid)
}

func (s *Store) queryImports(ctx context.Context, query string, args ...any) ([]Import, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	imports := []Import{}
	for rows.Next() {
		var (
			imp                  Import
			malformed, rewritten int
			msgs                 string
		)
		if err := rows.Scan(&imp.Seq, &imp.GUID, &imp.State, &imp.StaleCount,
			&malformed, &rewritten, &imp.Fingerprint, &msgs); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imp.Malformed = malformed != 0
		imp.Rewritten = rewritten != 0
		if imp.Messages, err = unmarshalMessages(msgs); err != nil {
			return nil, err
		}
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}
	return imports, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (Asset, error) {
	var (
		a    Asset
		kind string
	)
	if err := row.Scan(&a.GUID, &a.Path, &kind, &a.Type, &a.Origin, &a.Fingerprint, &a.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Asset{}, err
		}
		return Asset{}, fmt.Errorf("scan asset: %w", err)
	}
	a.Kind = Kind(kind)
	return a, nil
}
