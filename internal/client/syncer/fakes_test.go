package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/client"
	"github.com/dmitrijs2005/keepsync/internal/client/models"
)

// fakeGateway is an in-memory remote with a strictly increasing clock.
type fakeGateway struct {
	client.Gateway

	mu      sync.Mutex
	last    time.Time
	objects map[string]models.RemoteChange
	pushed  []string
	pulls   int
	pullErr error

	// lookback makes Pull also return changes up to this far before since.
	lookback time.Duration

	// onPush runs before a push is accepted; a non-nil error rejects it.
	onPush func(rec *models.Record) error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{objects: make(map[string]models.RemoteChange)}
}

func (g *fakeGateway) tick() time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(g.last) {
		now = g.last.Add(time.Microsecond)
	}
	g.last = now
	return now
}

func (g *fakeGateway) Ping(context.Context) error { return nil }

func (g *fakeGateway) Push(_ context.Context, rec *models.Record) (models.PushResult, error) {
	g.mu.Lock()
	g.pushed = append(g.pushed, rec.ID)
	hook := g.onPush
	g.mu.Unlock()

	if hook != nil {
		if err := hook(rec); err != nil {
			return models.PushResult{}, err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := rec.Collection + "/" + rec.ID
	serverID := g.objects[key].RemoteID
	if serverID == "" {
		serverID = "srv-" + rec.ID
	}
	ts := g.tick()
	g.objects[key] = models.RemoteChange{
		ID:         rec.ID,
		Collection: rec.Collection,
		RemoteID:   serverID,
		Payload:    rec.Payload,
		Deleted:    rec.Deleted,
		ServerTime: ts,
	}
	return models.PushResult{ServerID: serverID, ServerTime: ts}, nil
}

func (g *fakeGateway) Pull(_ context.Context, collection string, since time.Time) ([]models.RemoteChange, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pulls++
	if g.pullErr != nil {
		return nil, g.pullErr
	}
	var out []models.RemoteChange
	for _, ch := range g.objects {
		if ch.Collection == collection && ch.ServerTime.After(since.Add(-g.lookback)) {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServerTime.Before(out[j].ServerTime) })
	return out, nil
}

// seed stores a change made by another device.
func (g *fakeGateway) seed(collection, id, name string) models.RemoteChange {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := models.RemoteChange{
		ID:         id,
		Collection: collection,
		RemoteID:   "srv-" + id,
		Payload:    json.RawMessage(fmt.Sprintf(`{"name":%q}`, name)),
		ServerTime: g.tick(),
	}
	g.objects[collection+"/"+id] = ch
	return ch
}

func (g *fakeGateway) object(collection, id string) (models.RemoteChange, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.objects[collection+"/"+id]
	return ch, ok
}

func (g *fakeGateway) pushCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pushed)
}

func (g *fakeGateway) pullCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pulls
}

// spyCollection counts store access and can fail selected calls.
type spyCollection struct {
	CollectionStore

	mu          sync.Mutex
	calls       int
	unsyncedErr error
	applyErr    map[string]error
}

func (s *spyCollection) hit() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *spyCollection) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *spyCollection) GetUnsynced(ctx context.Context) ([]*models.Record, error) {
	s.hit()
	if s.unsyncedErr != nil {
		return nil, s.unsyncedErr
	}
	return s.CollectionStore.GetUnsynced(ctx)
}

func (s *spyCollection) HighWaterMark(ctx context.Context) (time.Time, error) {
	s.hit()
	return s.CollectionStore.HighWaterMark(ctx)
}

func (s *spyCollection) ApplyRemote(ctx context.Context, change models.RemoteChange, base *models.Record) error {
	s.hit()
	s.mu.Lock()
	err := s.applyErr[change.ID]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.CollectionStore.ApplyRemote(ctx, change, base)
}
