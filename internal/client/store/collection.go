package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/live"
	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/keepsync/internal/client/repositories/records"
	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/dbx"
)

const hwmKeyPrefix = "hwm:"

func hwmKey(collection string) string {
	return hwmKeyPrefix + collection
}

func collectionFromHWMKey(key string) (string, bool) {
	return strings.CutPrefix(key, hwmKeyPrefix)
}

// Collection is a view of one collection in the store.
type Collection struct {
	s    *Store
	name string
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) repo(db dbx.DBTX) records.Repository {
	return records.NewSQLiteRepository(db)
}

// mutate runs fn in a transaction and notifies subscribers once it commits.
func (c *Collection) mutate(ctx context.Context, op string, fn func(ctx context.Context, repo records.Repository) error) error {
	err := c.s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, c.repo(tx))
	})
	if err != nil {
		return wrapErr(op, err)
	}
	c.s.hub.Notify(c.name)
	return nil
}

func (c *Collection) prepareNew(rec *models.Record) error {
	if rec.Collection != "" && rec.Collection != c.name {
		return fmt.Errorf("%w: record belongs to %q, not %q", common.ErrValidation, rec.Collection, c.name)
	}
	if !json.Valid(rec.Payload) {
		return fmt.Errorf("%w: payload is not valid JSON", common.ErrValidation)
	}
	if rec.ID == "" {
		id, err := c.s.newID()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		rec.ID = id
	}
	rec.Collection = c.name
	rec.UpdatedAt = c.s.now()
	return nil
}

// Insert creates rec locally as dirty, assigning an ID when it has none.
func (c *Collection) Insert(ctx context.Context, rec *models.Record) error {
	return c.InsertBatch(ctx, []*models.Record{rec})
}

// InsertBatch creates all recs or none.
func (c *Collection) InsertBatch(ctx context.Context, recs []*models.Record) error {
	for _, rec := range recs {
		if err := c.prepareNew(rec); err != nil {
			return wrapErr("insert", err)
		}
	}
	return c.mutate(ctx, "insert", func(ctx context.Context, repo records.Repository) error {
		for _, rec := range recs {
			if err := repo.Insert(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update replaces the payload of rec.ID, marks it dirty and refreshes rec
// from the stored row. Missing and deleted records yield common.ErrorNotFound.
func (c *Collection) Update(ctx context.Context, rec *models.Record) error {
	return c.UpdateBatch(ctx, []*models.Record{rec})
}

// UpdateBatch updates all recs or none.
func (c *Collection) UpdateBatch(ctx context.Context, recs []*models.Record) error {
	for _, rec := range recs {
		if !json.Valid(rec.Payload) {
			return fmt.Errorf("%w: payload of %s is not valid JSON", common.ErrValidation, rec.ID)
		}
	}
	now := c.s.now()
	return c.mutate(ctx, "update", func(ctx context.Context, repo records.Repository) error {
		for _, rec := range recs {
			if err := repo.UpdatePayload(ctx, c.name, rec.ID, rec.Payload, now); err != nil {
				return err
			}
			stored, err := repo.Get(ctx, c.name, rec.ID, false)
			if err != nil {
				return err
			}
			*rec = *stored
		}
		return nil
	})
}

// Delete removes a live record. Records the remote has seen become dirty
// tombstones that sync will push; never pushed records are removed at once.
func (c *Collection) Delete(ctx context.Context, id string) error {
	return c.DeleteBatch(ctx, []string{id})
}

// DeleteBatch deletes all ids or none.
func (c *Collection) DeleteBatch(ctx context.Context, ids []string) error {
	now := c.s.now()
	return c.mutate(ctx, "delete", func(ctx context.Context, repo records.Repository) error {
		for _, id := range ids {
			cur, err := repo.Get(ctx, c.name, id, false)
			if err != nil {
				return err
			}
			if cur.NeverPushed() {
				err = repo.Remove(ctx, c.name, id)
			} else {
				err = repo.Tombstone(ctx, c.name, id, now)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID returns a live record; tombstones are not found.
func (c *Collection) GetByID(ctx context.Context, id string) (*models.Record, error) {
	rec, err := c.repo(c.s.db).Get(ctx, c.name, id, false)
	return rec, wrapErr("get", err)
}

// Lookup returns the record including tombstones.
func (c *Collection) Lookup(ctx context.Context, id string) (*models.Record, error) {
	rec, err := c.repo(c.s.db).Get(ctx, c.name, id, true)
	return rec, wrapErr("lookup", err)
}

// GetAll returns live records ordered by ID.
func (c *Collection) GetAll(ctx context.Context) ([]*models.Record, error) {
	recs, err := c.repo(c.s.db).List(ctx, c.name)
	return recs, wrapErr("list", err)
}

// GetUnsynced returns exactly the dirty records, tombstones included, in
// ascending ID order.
func (c *Collection) GetUnsynced(ctx context.Context) ([]*models.Record, error) {
	recs, err := c.repo(c.s.db).ListUnsynced(ctx, c.name)
	return recs, wrapErr("list unsynced", err)
}

// MarkSynced clears the dirty flag and raises LastSyncTime to at least ts.
func (c *Collection) MarkSynced(ctx context.Context, id string, ts time.Time) error {
	return c.mutate(ctx, "mark synced", func(ctx context.Context, repo records.Repository) error {
		return repo.MarkSynced(ctx, c.name, id, ts)
	})
}

// MarkSyncedIf is MarkSynced applied only while the record is still at
// revision; otherwise it returns common.ErrStaleRevision and leaves the row dirty.
func (c *Collection) MarkSyncedIf(ctx context.Context, id string, revision int64, remoteID string, ts time.Time) error {
	return c.mutate(ctx, "mark synced", func(ctx context.Context, repo records.Repository) error {
		return repo.MarkSyncedIf(ctx, c.name, id, revision, remoteID, ts)
	})
}

// AdoptRemoteID records the identity the remote assigned to id, even when the
// row changed while it was being pushed. Once set, deleting the record leaves
// a tombstone for sync instead of removing it outright.
func (c *Collection) AdoptRemoteID(ctx context.Context, id, remoteID string) error {
	return c.mutate(ctx, "adopt remote id", func(ctx context.Context, repo records.Repository) error {
		return repo.AdoptRemoteID(ctx, c.name, id, remoteID)
	})
}

// PurgeIf removes an acknowledged tombstone unless it changed meanwhile.
func (c *Collection) PurgeIf(ctx context.Context, id string, revision int64) error {
	return c.mutate(ctx, "purge", func(ctx context.Context, repo records.Repository) error {
		return repo.RemoveIf(ctx, c.name, id, revision)
	})
}

// ApplyRemote stores a pulled change as synced at its server time, or removes
// the row for a remote tombstone. base is the local state the decision was
// made on (nil = expected absent); if the row moved on since, nothing is
// written and common.ErrStaleRevision is returned.
func (c *Collection) ApplyRemote(ctx context.Context, change models.RemoteChange, base *models.Record) error {
	rec := &models.Record{
		ID:           change.ID,
		Collection:   c.name,
		RemoteID:     change.RemoteID,
		Payload:      change.Payload,
		LastSyncTime: change.ServerTime,
		UpdatedAt:    c.s.now(),
	}
	if !change.Deleted && !json.Valid(rec.Payload) {
		return fmt.Errorf("%w: remote payload of %s is not valid JSON", common.ErrValidation, change.ID)
	}

	return c.mutate(ctx, "apply remote", func(ctx context.Context, repo records.Repository) error {
		if base == nil {
			_, err := repo.Get(ctx, c.name, change.ID, true)
			switch {
			case err == nil:
				return common.ErrStaleRevision
			case !errors.Is(err, common.ErrorNotFound):
				return err
			}
			if change.Deleted {
				return nil
			}
			return repo.InsertSynced(ctx, rec)
		}

		var err error
		if change.Deleted {
			err = repo.RemoveIf(ctx, c.name, change.ID, base.Revision)
		} else {
			err = repo.ReplaceSyncedIf(ctx, rec, base.Revision)
		}
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrStaleRevision
		}
		return err
	})
}

// HighWaterMark returns the server time up to which remote changes have been
// applied; zero before the first pull.
func (c *Collection) HighWaterMark(ctx context.Context) (time.Time, error) {
	us, err := metadata.NewSQLiteRepository(c.s.db).GetInt64(ctx, hwmKey(c.name))
	if err != nil {
		return time.Time{}, wrapErr("read high-water mark", err)
	}
	if us == 0 {
		return time.Time{}, nil
	}
	return time.UnixMicro(us).UTC(), nil
}

// AdvanceHighWaterMark moves the mark to ts unless it is already later, and
// returns the stored mark.
func (c *Collection) AdvanceHighWaterMark(ctx context.Context, ts time.Time) (time.Time, error) {
	var stored int64
	err := c.s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		stored, err = metadata.NewSQLiteRepository(tx).SetMaxInt64(ctx, hwmKey(c.name), ts.UnixMicro())
		return err
	})
	if err != nil {
		return time.Time{}, wrapErr("advance high-water mark", err)
	}
	return time.UnixMicro(stored).UTC(), nil
}

// Watch is a live query over GetAll.
func (c *Collection) Watch(ctx context.Context) *live.Subscription[[]*models.Record] {
	return live.Watch[[]*models.Record](ctx, c.s.hub, c.name, c.GetAll)
}

// WatchUnsynced is a live query over GetUnsynced.
func (c *Collection) WatchUnsynced(ctx context.Context) *live.Subscription[[]*models.Record] {
	return live.Watch[[]*models.Record](ctx, c.s.hub, c.name, c.GetUnsynced)
}
