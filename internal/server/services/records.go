// Package services holds the server business logic behind the gRPC handlers.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/logging"
	"github.com/dmitrijs2005/keepsync/internal/server/models"
	"github.com/dmitrijs2005/keepsync/internal/server/repositories/records"
	"github.com/google/uuid"
)

// PushInput is one client record state offered to the server.
type PushInput struct {
	ClientID   string
	Collection string
	RemoteID   string
	Payload    []byte
	Deleted    bool
}

// PullPage is one page of changes.
type PullPage struct {
	Changes []*models.Record
	HasMore bool
}

type RecordService struct {
	repo       records.Repository
	logger     logging.Logger
	maxPayload int
	pageSize   int
	now        func() time.Time

	// mu serialises stamping and storing so that server times become
	// visible to pulls in increasing order.
	mu   sync.Mutex
	last int64
}

type Option func(*RecordService)

func WithClock(now func() time.Time) Option {
	return func(s *RecordService) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *RecordService) { s.logger = l.With("module", "records") }
}

// NewRecordService seeds the server clock from the repository so times keep
// increasing across restarts.
func NewRecordService(ctx context.Context, repo records.Repository, maxPayload, pageSize int, opts ...Option) (*RecordService, error) {
	s := &RecordService{
		repo:       repo,
		logger:     logging.Nop(),
		maxPayload: maxPayload,
		pageSize:   pageSize,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	last, err := repo.MaxServerTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("load server clock: %w", err)
	}
	s.last = last
	return s, nil
}

// tick returns the next server time. Callers hold mu.
func (s *RecordService) tick() int64 {
	t := s.now().UnixMicro()
	if t <= s.last {
		t = s.last + 1
	}
	s.last = t
	return t
}

func (s *RecordService) validate(in *PushInput) error {
	if !common.ValidCollectionName(in.Collection) {
		return fmt.Errorf("%w: invalid collection %q", common.ErrValidation, in.Collection)
	}
	if in.ClientID == "" {
		return fmt.Errorf("%w: record id is required", common.ErrValidation)
	}
	if in.Deleted {
		return nil
	}
	if len(in.Payload) > s.maxPayload {
		return fmt.Errorf("%w: payload is %d bytes, limit %d", common.ErrValidation, len(in.Payload), s.maxPayload)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(in.Payload, &obj); err != nil || obj == nil {
		return fmt.Errorf("%w: payload must be a JSON object", common.ErrValidation)
	}
	return nil
}

// Push stores the offered state and returns the stored record with its
// server id and server time. Tombstones keep no payload.
func (s *RecordService) Push(ctx context.Context, in *PushInput) (*models.Record, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	rec := &models.Record{
		ServerID:   in.RemoteID,
		Collection: in.Collection,
		ClientID:   in.ClientID,
		Deleted:    in.Deleted,
	}
	if rec.ServerID == "" {
		rec.ServerID = uuid.NewString()
	}
	if !in.Deleted {
		var buf bytes.Buffer
		if err := json.Compact(&buf, in.Payload); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		rec.Payload = buf.Bytes()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ServerTime = s.tick()
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("store record %s/%s: %w", rec.Collection, rec.ClientID, err)
	}

	s.logger.Debug(ctx, "record stored", "collection", rec.Collection, "id", rec.ClientID,
		"server_id", rec.ServerID, "deleted", rec.Deleted, "server_time", rec.ServerTime)
	return rec, nil
}

// Pull returns changes of collection newer than since, oldest first. A
// non-positive or oversized limit is clamped to the page size.
func (s *RecordService) Pull(ctx context.Context, collection string, since int64, limit int) (*PullPage, error) {
	if !common.ValidCollectionName(collection) {
		return nil, fmt.Errorf("%w: invalid collection %q", common.ErrValidation, collection)
	}
	if since < 0 {
		return nil, fmt.Errorf("%w: negative since", common.ErrValidation)
	}
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}

	recs, err := s.repo.SelectSince(ctx, collection, since, limit+1)
	if err != nil {
		return nil, fmt.Errorf("select changes of %s: %w", collection, err)
	}

	page := &PullPage{Changes: recs}
	if len(recs) > limit {
		page.Changes = recs[:limit]
		page.HasMore = true
	}
	return page, nil
}
