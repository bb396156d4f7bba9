package records

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/models"
)

// Repository describes the row-level operations the local store is built on.
type Repository interface {
	// Insert creates rec as a new dirty row at revision 1.
	Insert(ctx context.Context, rec *models.Record) error
	// InsertSynced creates a clean row received from the remote.
	InsertSynced(ctx context.Context, rec *models.Record) error

	// Get returns the row, or common.ErrorNotFound. Tombstones are returned
	// only when withDeleted is set.
	Get(ctx context.Context, collection, id string, withDeleted bool) (*models.Record, error)
	// List returns live rows ordered by id.
	List(ctx context.Context, collection string) ([]*models.Record, error)
	// ListUnsynced returns dirty rows, tombstones included, ordered by id.
	ListUnsynced(ctx context.Context, collection string) ([]*models.Record, error)
	// CountUnsynced returns the number of dirty rows per collection.
	CountUnsynced(ctx context.Context) (map[string]int, error)

	// UpdatePayload replaces the payload of a live row and marks it dirty.
	UpdatePayload(ctx context.Context, collection, id string, payload json.RawMessage, at time.Time) error
	// Tombstone turns a live row into a dirty tombstone.
	Tombstone(ctx context.Context, collection, id string, at time.Time) error
	// Remove hard-deletes the row whatever its state.
	Remove(ctx context.Context, collection, id string) error

	MarkSynced(ctx context.Context, collection, id string, ts time.Time) error
	// MarkSyncedIf is MarkSynced guarded by the row revision; it also records
	// remoteID when non-empty. A changed revision yields common.ErrStaleRevision.
	MarkSyncedIf(ctx context.Context, collection, id string, revision int64, remoteID string, ts time.Time) error
	// AdoptRemoteID stores remoteID on a row that has none yet, regardless of
	// its revision. Rows that already carry an identity are left alone.
	AdoptRemoteID(ctx context.Context, collection, id, remoteID string) error
	// RemoveIf hard-deletes the row if its revision still matches.
	RemoveIf(ctx context.Context, collection, id string, revision int64) error
	// ReplaceSyncedIf overwrites the row with a clean remote state if its
	// revision still matches.
	ReplaceSyncedIf(ctx context.Context, rec *models.Record, revision int64) error
}
