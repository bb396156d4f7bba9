package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/dbx"
	"github.com/dmitrijs2005/keepsync/internal/timex"
)

const selectColumns = `collection, id, remote_id, payload, deleted, is_synced, revision, last_sync_time, updated_at`

var _ Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.Record, error) {
	var (
		rec      models.Record
		payload  []byte
		synced   bool
		lastSync sql.NullInt64
		updated  int64
	)
	if err := s.Scan(&rec.Collection, &rec.ID, &rec.RemoteID, &payload, &rec.Deleted, &synced,
		&rec.Revision, &lastSync, &updated); err != nil {
		return nil, err
	}
	rec.Payload = json.RawMessage(payload)
	rec.Dirty = !synced
	if lastSync.Valid {
		rec.LastSyncTime = timex.FromMicros(lastSync.Int64)
	}
	rec.UpdatedAt = timex.FromMicros(updated)
	return &rec, nil
}

func nullMicros(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: timex.ToMicros(t), Valid: true}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO records (collection, id, remote_id, payload, deleted, is_synced, revision, last_sync_time, updated_at)
		VALUES (?, ?, '', ?, 0, 0, 1, NULL, ?)`,
		rec.Collection, rec.ID, []byte(rec.Payload), timex.ToMicros(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert record %s/%s: %w", rec.Collection, rec.ID, err)
	}
	rec.Dirty = true
	rec.Deleted = false
	rec.Revision = 1
	rec.RemoteID = ""
	rec.LastSyncTime = time.Time{}
	return nil
}

func (r *SQLiteRepository) InsertSynced(ctx context.Context, rec *models.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO records (collection, id, remote_id, payload, deleted, is_synced, revision, last_sync_time, updated_at)
		VALUES (?, ?, ?, ?, 0, 1, 1, ?, ?)`,
		rec.Collection, rec.ID, rec.RemoteID, []byte(rec.Payload), nullMicros(rec.LastSyncTime), timex.ToMicros(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert synced record %s/%s: %w", rec.Collection, rec.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, collection, id string, withDeleted bool) (*models.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM records WHERE collection = ? AND id = ?`
	if !withDeleted {
		query += ` AND deleted = 0`
	}

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) List(ctx context.Context, collection string) ([]*models.Record, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM records
		WHERE collection = ? AND deleted = 0 ORDER BY id`, collection)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context, collection string) ([]*models.Record, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM records
		WHERE collection = ? AND is_synced = 0 ORDER BY id`, collection)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) CountUnsynced(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT collection, COUNT(*) FROM records WHERE is_synced = 0 GROUP BY collection`)
	if err != nil {
		return nil, fmt.Errorf("failed to count unsynced records: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var (
			collection string
			n          int
		)
		if err := rows.Scan(&collection, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		result[collection] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) UpdatePayload(ctx context.Context, collection, id string, payload json.RawMessage, at time.Time) error {
	n, err := dbx.ExecAffected(ctx, r.db, `
		UPDATE records SET payload = ?, is_synced = 0, revision = revision + 1, updated_at = ?
		WHERE collection = ? AND id = ? AND deleted = 0`,
		[]byte(payload), timex.ToMicros(at), collection, id)
	if err != nil {
		return fmt.Errorf("failed to update record %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Tombstone(ctx context.Context, collection, id string, at time.Time) error {
	n, err := dbx.ExecAffected(ctx, r.db, `
		UPDATE records SET deleted = 1, is_synced = 0, revision = revision + 1, updated_at = ?
		WHERE collection = ? AND id = ? AND deleted = 0`,
		timex.ToMicros(at), collection, id)
	if err != nil {
		return fmt.Errorf("failed to tombstone record %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, collection, id string) error {
	n, err := dbx.ExecAffected(ctx, r.db, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to remove record %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, collection, id string, ts time.Time) error {
	n, err := dbx.ExecAffected(ctx, r.db, `
		UPDATE records SET is_synced = 1, last_sync_time = MAX(COALESCE(last_sync_time, 0), ?)
		WHERE collection = ? AND id = ?`,
		timex.ToMicros(ts), collection, id)
	if err != nil {
		return fmt.Errorf("failed to mark record %s/%s synced: %w", collection, id, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncedIf(ctx context.Context, collection, id string, revision int64, remoteID string, ts time.Time) error {
	n, err := dbx.ExecAffected(ctx, r.db, `
		UPDATE records SET is_synced = 1,
			last_sync_time = MAX(COALESCE(last_sync_time, 0), ?),
			remote_id = CASE WHEN ? = '' THEN remote_id ELSE ? END
		WHERE collection = ? AND id = ? AND revision = ?`,
		timex.ToMicros(ts), remoteID, remoteID, collection, id, revision)
	if err != nil {
		return fmt.Errorf("failed to mark record %s/%s synced: %w", collection, id, err)
	}
	if n == 0 {
		return r.missOrStale(ctx, collection, id)
	}
	return nil
}

func (r *SQLiteRepository) AdoptRemoteID(ctx context.Context, collection, id, remoteID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE records SET remote_id = ?
		WHERE collection = ? AND id = ? AND remote_id = ''`,
		remoteID, collection, id)
	if err != nil {
		return fmt.Errorf("failed to store remote id of %s/%s: %w", collection, id, err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveIf(ctx context.Context, collection, id string, revision int64) error {
	n, err := dbx.ExecAffected(ctx, r.db, `DELETE FROM records WHERE collection = ? AND id = ? AND revision = ?`,
		collection, id, revision)
	if err != nil {
		return fmt.Errorf("failed to remove record %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return r.missOrStale(ctx, collection, id)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceSyncedIf(ctx context.Context, rec *models.Record, revision int64) error {
	n, err := dbx.ExecAffected(ctx, r.db, `
		UPDATE records SET remote_id = ?, payload = ?, deleted = 0, is_synced = 1,
			revision = revision + 1, last_sync_time = ?, updated_at = ?
		WHERE collection = ? AND id = ? AND revision = ?`,
		rec.RemoteID, []byte(rec.Payload), nullMicros(rec.LastSyncTime), timex.ToMicros(rec.UpdatedAt),
		rec.Collection, rec.ID, revision)
	if err != nil {
		return fmt.Errorf("failed to replace record %s/%s: %w", rec.Collection, rec.ID, err)
	}
	if n == 0 {
		return r.missOrStale(ctx, rec.Collection, rec.ID)
	}
	return nil
}

// missOrStale explains why a revision-guarded statement touched no row.
func (r *SQLiteRepository) missOrStale(ctx context.Context, collection, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM records WHERE collection = ? AND id = ?`, collection, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrorNotFound
	case err != nil:
		return fmt.Errorf("failed to check record %s/%s: %w", collection, id, err)
	default:
		return common.ErrStaleRevision
	}
}
