// Package records provides the server record repositories: PostgreSQL for
// deployments and an in-memory map for development and tests.
package records

import (
	"context"

	"github.com/dmitrijs2005/keepsync/internal/server/models"
)

// Repository stores the latest state of every record.
type Repository interface {
	// Upsert stores rec under (Collection, ClientID). A new row takes
	// rec.ServerID; an existing row keeps its id, which is written back to
	// rec.ServerID.
	Upsert(ctx context.Context, rec *models.Record) error
	// SelectSince returns up to limit records of collection with
	// ServerTime > since, ascending by ServerTime.
	SelectSince(ctx context.Context, collection string, since int64, limit int) ([]*models.Record, error)
	// MaxServerTime returns the highest ServerTime stored, 0 when empty.
	MaxServerTime(ctx context.Context) (int64, error)
}
