package records

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/keepsync/internal/server/models"
)

type key struct {
	collection string
	clientID   string
}

// MemoryRepository keeps records in process memory. Contents are lost on
// restart.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[key]*models.Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[key]*models.Record)}
}

func clone(rec *models.Record) *models.Record {
	c := *rec
	c.Payload = slices.Clone(rec.Payload)
	return &c
}

func (r *MemoryRepository) Upsert(_ context.Context, rec *models.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{rec.Collection, rec.ClientID}
	if old, ok := r.records[k]; ok {
		rec.ServerID = old.ServerID
	}
	r.records[k] = clone(rec)
	return nil
}

func (r *MemoryRepository) SelectSince(_ context.Context, collection string, since int64, limit int) ([]*models.Record, error) {
	r.mu.RLock()
	var out []*models.Record
	for k, rec := range r.records {
		if k.collection == collection && rec.ServerTime > since {
			out = append(out, clone(rec))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.Record) int {
		switch {
		case a.ServerTime < b.ServerTime:
			return -1
		case a.ServerTime > b.ServerTime:
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) MaxServerTime(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var t int64
	for _, rec := range r.records {
		t = max(t, rec.ServerTime)
	}
	return t, nil
}
