// Package queue persists install queue items and profiles in SQLite and
// exposes the conditional state transitions the scheduler drives.
//
// The Store owns the database connection, schema initialization, the
// monotonic install_order counter, and every state-changing operation.
// install_order values come from a dedicated single-row sequence table so
// they stay strictly increasing and are never reused, even after deletions.
// Conditional transitions (UPDATE guarded by the expected current state)
// are the only way items move between states; a lost race surfaces as
// ErrConflict and the caller re-reads.
//
// Treat this package as the single source of truth for queue semantics; when
// you add new states or metadata fields, update schema.sql and bump
// schemaVersion.
package queue
