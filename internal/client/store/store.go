// Package store is the client's local source of records.
//
// A Store owns one SQLite handle. Collection returns a per-collection view
// with transactional CRUD, the sync-side compare-and-swap operations, the pull
// high-water mark and live queries. Every committed mutation notifies the
// collection's live subscribers after commit.
//
// Errors are either common.ErrorNotFound, common.ErrStaleRevision,
// common.ErrValidation, or wrap common.ErrLocalStore.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/live"
	"github.com/dmitrijs2005/keepsync/internal/client/migrations"
	"github.com/dmitrijs2005/keepsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/keepsync/internal/client/repositories/records"
	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/dbx"
	"github.com/dmitrijs2005/keepsync/internal/logging"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const busyTimeoutMs = 5000

// Store is the handle to the local database. It is safe for concurrent use.
type Store struct {
	db    *sql.DB
	hub   *live.Hub
	log   logging.Logger
	now   func() time.Time
	newID func() (string, error)
}

type Option func(*Store)

// WithClock overrides the wall clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the local id source (UUIDv7 by default).
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Store) { s.newID = fn }
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Open opens (creating if needed) the SQLite database at dsn and migrates it.
func Open(ctx context.Context, dsn string, logger logging.Logger, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrLocalStore, dsn, err)
	}
	// One connection: transactions serialise and :memory: databases stay single.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMs)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: pragma: %w", common.ErrLocalStore, err)
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", common.ErrLocalStore, err)
	}

	return New(db, logger, opts...), nil
}

// New wraps an already migrated database.
func New(db *sql.DB, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		db:    db,
		hub:   live.NewHub(),
		log:   logger.With("module", "store"),
		now:   func() time.Time { return time.Now().UTC() },
		newID: newUUIDv7,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Hub exposes the change notifier, mostly for tests and diagnostics.
func (s *Store) Hub() *live.Hub {
	return s.hub
}

// Collection returns a view of one collection.
func (s *Store) Collection(name string) (*Collection, error) {
	if !common.ValidCollectionName(name) {
		return nil, fmt.Errorf("%w: invalid collection name %q", common.ErrValidation, name)
	}
	return &Collection{s: s, name: name}, nil
}

// Pending returns the number of dirty records per collection.
func (s *Store) Pending(ctx context.Context) (map[string]int, error) {
	counts, err := records.NewSQLiteRepository(s.db).CountUnsynced(ctx)
	if err != nil {
		return nil, wrapErr("count pending", err)
	}
	return counts, nil
}

// HighWaterMarks returns the stored pull position of every collection that
// has pulled at least once.
func (s *Store) HighWaterMarks(ctx context.Context) (map[string]time.Time, error) {
	repo := metadata.NewSQLiteRepository(s.db)
	all, err := repo.List(ctx)
	if err != nil {
		return nil, wrapErr("list metadata", err)
	}
	result := make(map[string]time.Time)
	for key := range all {
		name, ok := collectionFromHWMKey(key)
		if !ok {
			continue
		}
		us, err := repo.GetInt64(ctx, key)
		if err != nil {
			return nil, wrapErr("read high-water mark", err)
		}
		result[name] = time.UnixMicro(us).UTC()
	}
	return result, nil
}

func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// wrapErr keeps the sentinels callers branch on and tags everything else as
// a local store failure.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrStaleRevision),
		errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrLocalStore):
		return err
	default:
		return fmt.Errorf("%w: %s: %w", common.ErrLocalStore, op, err)
	}
}
