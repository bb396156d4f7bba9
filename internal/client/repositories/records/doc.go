// Package records is the SQLite persistence layer for synchronised records.
//
// Rows are keyed by (collection, id). Every content write (insert, payload
// update, tombstone, remote apply) bumps the row revision; sync bookkeeping
// such as MarkSynced leaves it untouched so that compare-and-swap callers
// only lose against real edits. Timestamps are stored as Unix microseconds,
// last_sync_time is NULL until the first sync.
//
// The repository runs over dbx.DBTX, so the same code serves a *sql.DB and a
// *sql.Tx opened with dbx.WithTx.
package records
