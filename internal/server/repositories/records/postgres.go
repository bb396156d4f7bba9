package records

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/keepsync/internal/dbx"
	"github.com/dmitrijs2005/keepsync/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.Record) error {
	query := `
		INSERT INTO records (server_id, collection, client_id, payload, deleted, server_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (collection, client_id)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			deleted = EXCLUDED.deleted,
			server_time = EXCLUDED.server_time
		RETURNING server_id;
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		rec.ServerID, rec.Collection, rec.ClientID, nullJSON(rec.Payload), rec.Deleted, rec.ServerTime).Scan(&id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rec.ServerID = id
	return nil
}

func (r *PostgresRepository) SelectSince(ctx context.Context, collection string, since int64, limit int) ([]*models.Record, error) {
	query := `
		SELECT server_id, collection, client_id, payload, deleted, server_time FROM records
		WHERE collection = $1 AND server_time > $2
		ORDER BY server_time
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, collection, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		var item models.Record
		if err := rows.Scan(&item.ServerID, &item.Collection, &item.ClientID, &item.Payload,
			&item.Deleted, &item.ServerTime); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MaxServerTime(ctx context.Context) (int64, error) {
	var t int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(server_time), 0) FROM records`).Scan(&t); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
