// Package syncer reconciles local collections with the remote: dirty records
// are pushed, remote changes since the high-water mark are pulled, and every
// record's outcome is reported.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/client"
	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/client/netmon"
	"github.com/dmitrijs2005/keepsync/internal/client/scheduler"
	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultJobName is the scheduler name of the periodic sync.
const DefaultJobName = "keepsync.periodic-sync"

// CollectionStore is the part of a local collection the coordinator needs.
// *store.Collection implements it.
type CollectionStore interface {
	Name() string
	GetUnsynced(ctx context.Context) ([]*models.Record, error)
	Lookup(ctx context.Context, id string) (*models.Record, error)
	MarkSyncedIf(ctx context.Context, id string, revision int64, remoteID string, ts time.Time) error
	AdoptRemoteID(ctx context.Context, id, remoteID string) error
	PurgeIf(ctx context.Context, id string, revision int64) error
	ApplyRemote(ctx context.Context, change models.RemoteChange, base *models.Record) error
	HighWaterMark(ctx context.Context) (time.Time, error)
	AdvanceHighWaterMark(ctx context.Context, ts time.Time) (time.Time, error)
}

// Scheduler is where the periodic sync is registered. *scheduler.Scheduler
// implements it.
type Scheduler interface {
	Register(spec scheduler.JobSpec, fn scheduler.JobFunc) (bool, error)
	Cancel(name string) bool
}

var ErrNoScheduler = errors.New("no scheduler configured")

// Result is delivered once per RequestSync.
type Result struct {
	Report *Report
	Err    error
}

type Coordinator struct {
	collections []CollectionStore
	gateway     client.Gateway
	monitor     netmon.Monitor
	resolver    Resolver
	scheduler   Scheduler
	jobName     string
	limit       int
	now         func() time.Time
	log         logging.Logger

	flight singleflight.Group
}

type Option func(*Coordinator)

func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) { c.log = l.With("module", "syncer") }
}

func WithResolver(r Resolver) Option {
	return func(c *Coordinator) { c.resolver = r }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.scheduler = s }
}

func WithJobName(name string) Option {
	return func(c *Coordinator) { c.jobName = name }
}

// WithConcurrency bounds how many collections are synced at once.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) { c.limit = n }
}

func New(collections []CollectionStore, gateway client.Gateway, monitor netmon.Monitor, opts ...Option) *Coordinator {
	c := &Coordinator{
		collections: collections,
		gateway:     gateway,
		monitor:     monitor,
		resolver:    RemoteWins,
		jobName:     DefaultJobName,
		limit:       4,
		now:         time.Now,
		log:         logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.limit <= 0 {
		c.limit = 1
	}
	return c
}

func offlineErr() error {
	return fmt.Errorf("sync: %w", common.ErrNetworkUnavailable)
}

// RequestSync starts a pass over every collection and returns a channel that
// receives its result. While offline the result is ErrNetworkUnavailable and
// nothing is touched. Cancelling ctx only stops the wait; passes already
// started run to completion.
func (c *Coordinator) RequestSync(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)

	if !c.monitor.Online() {
		out <- Result{Err: offlineErr()}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		rep, err := c.syncAll(ctx)
		out <- Result{Report: rep, Err: err}
	}()
	return out
}

// Sync runs RequestSync and waits for it. The error is the request-level
// failure, if any, joined with the collection-level errors.
func (c *Coordinator) Sync(ctx context.Context) (*Report, error) {
	res := <-c.RequestSync(ctx)
	return res.Report, res.Err
}

// SyncCollection syncs a single collection.
func (c *Coordinator) SyncCollection(ctx context.Context, name string) (*CollectionReport, error) {
	var coll CollectionStore
	for _, cs := range c.collections {
		if cs.Name() == name {
			coll = cs
			break
		}
	}
	if coll == nil {
		return nil, fmt.Errorf("%w: unknown collection %q", common.ErrValidation, name)
	}
	if !c.monitor.Online() {
		return nil, offlineErr()
	}

	rep, err := c.syncOne(ctx, coll)
	if err != nil {
		return nil, err
	}
	return rep, rep.Err
}

// SyncNow requests a pass without waiting for it; the outcome is logged.
func (c *Coordinator) SyncNow() {
	ch := c.RequestSync(context.Background())
	go func() {
		res := <-ch
		ctx := context.Background()
		if res.Err != nil {
			c.log.Warn(ctx, "sync failed", "error", res.Err)
			return
		}
		c.log.Info(ctx, "sync finished", summary(res.Report)...)
	}()
}

// SchedulePeriodic registers the periodic sync job. Registering again while
// the job exists is a no-op that returns false.
func (c *Coordinator) SchedulePeriodic(interval time.Duration) (bool, error) {
	if c.scheduler == nil {
		return false, ErrNoScheduler
	}
	return c.scheduler.Register(scheduler.JobSpec{
		Name:            c.jobName,
		Interval:        interval,
		RequiresNetwork: true,
		Policy:          scheduler.KeepExisting,
	}, c.Job())
}

// JobName is the scheduler name of the periodic sync.
func (c *Coordinator) JobName() string { return c.jobName }

func (c *Coordinator) CancelPeriodic() bool {
	if c.scheduler == nil {
		return false
	}
	return c.scheduler.Cancel(c.jobName)
}

// Job adapts a full sync pass to the scheduler.
func (c *Coordinator) Job() scheduler.JobFunc {
	return func(ctx context.Context) (scheduler.Result, error) {
		rep, err := c.Sync(ctx)
		if err == nil {
			err = rep.Failures()
		}
		return Classify(rep, err), err
	}
}

// Classify maps a pass to a job result. A collection that could not be read
// or written locally is a permanent failure; a single record that failed to be
// marked is not, it stays dirty for the next pass. Network and transient
// remote failures are worth retrying, and records the remote rejected are
// left for the next regular pass.
func Classify(rep *Report, err error) scheduler.Result {
	if rep != nil {
		for _, cr := range rep.Collections {
			if errors.Is(cr.Err, common.ErrLocalStore) {
				return scheduler.PermanentFailure
			}
		}
	}
	switch {
	case errors.Is(err, common.ErrNetworkUnavailable), errors.Is(err, common.ErrTransientIO):
		return scheduler.RetryableFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return scheduler.RetryableFailure
	case rep == nil && errors.Is(err, common.ErrLocalStore):
		return scheduler.PermanentFailure
	}
	return scheduler.Success
}

func (c *Coordinator) syncAll(ctx context.Context) (*Report, error) {
	rep := &Report{Started: c.now()}
	reps := make([]*CollectionReport, len(c.collections))

	var g errgroup.Group
	g.SetLimit(c.limit)
	for i, coll := range c.collections {
		g.Go(func() error {
			r, err := c.syncOne(ctx, coll)
			reps[i] = r
			return err
		})
	}
	waitErr := g.Wait()

	for _, r := range reps {
		if r != nil {
			rep.Collections = append(rep.Collections, r)
		}
	}
	rep.Duration = c.now().Sub(rep.Started)

	if waitErr != nil {
		return rep, waitErr
	}
	return rep, rep.Err()
}

// syncOne joins the pass in flight for coll or starts one. The pass is
// detached from ctx; only the wait honours it.
func (c *Coordinator) syncOne(ctx context.Context, coll CollectionStore) (*CollectionReport, error) {
	passCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(coll.Name(), func() (any, error) {
		return c.pass(passCtx, coll), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		rep := *res.Val.(*CollectionReport)
		rep.Shared = res.Shared
		return &rep, nil
	}
}

func summary(rep *Report) []any {
	if rep == nil {
		return nil
	}
	var pushed, pushFailed, pulled, pullFailed int
	for _, c := range rep.Collections {
		pushed += c.Pushed
		pushFailed += c.PushFailed
		pulled += c.Pulled
		pullFailed += c.PullFailed
	}
	return []any{
		"collections", len(rep.Collections),
		"pushed", pushed,
		"push_failed", pushFailed,
		"pulled", pulled,
		"pull_failed", pullFailed,
		"duration", rep.Duration,
	}
}
