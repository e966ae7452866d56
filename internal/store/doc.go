// Package store provides the SQLite index of a project's assets and variants.
//
// The index maps asset GUIDs to project-relative paths, records the origin of
// every variant, and keeps an append-only log of variant imports. Files on
// disk remain the source of truth: the index can be dropped and rebuilt by a
// scan at any time.
//
// # Ordering
//
//   - Every asset row carries seq, a logical clock bumped on each upsert.
//     Wall-clock timestamps are never stored.
//   - Listing queries order by path COLLATE BINARY so results are stable.
//   - Import history orders by seq ASC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
