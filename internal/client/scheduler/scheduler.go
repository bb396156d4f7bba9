// Package scheduler runs uniquely named recurring jobs on a bounded worker
// pool, gated on connectivity, with bounded exponential retry.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/netmon"
	"github.com/dmitrijs2005/keepsync/internal/logging"
	"github.com/sethvargo/go-retry"
)

const defaultWorkers = 2

type Scheduler struct {
	monitor netmon.Monitor
	workers int
	backoff Backoff
	log     logging.Logger

	mu      sync.Mutex
	jobs    map[string]*job
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool

	work   chan task
	loops  sync.WaitGroup
	poolWG sync.WaitGroup
}

type job struct {
	spec   JobSpec
	fn     JobFunc
	cancel context.CancelFunc
	status JobStatus
}

type outcome struct {
	res Result
	err error
}

type task struct {
	ctx  context.Context
	fn   JobFunc
	done chan outcome
}

type Option func(*Scheduler)

func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.log = l.With("module", "scheduler") }
}

// WithDefaultBackoff sets the backoff for jobs registered without one.
func WithDefaultBackoff(b Backoff) Option {
	return func(s *Scheduler) { s.backoff = b }
}

func New(monitor netmon.Monitor, opts ...Option) *Scheduler {
	s := &Scheduler{
		monitor: monitor,
		workers: defaultWorkers,
		backoff: DefaultBackoff,
		log:     logging.Nop(),
		jobs:    make(map[string]*job),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start launches the worker pool and the loops of jobs registered so far.
// Calling it again has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.work = make(chan task)

	s.poolWG.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go s.worker()
	}
	for _, j := range s.jobs {
		s.launch(j)
	}
	s.log.Info(s.ctx, "scheduler started", "workers", s.workers, "jobs", len(s.jobs))
}

// Stop ends every job loop, waits for in-flight runs and shuts the pool down.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	if started {
		s.cancel()
	}
	s.mu.Unlock()

	if !started {
		return
	}
	s.loops.Wait()
	close(s.work)
	s.poolWG.Wait()
	s.log.Info(context.Background(), "scheduler stopped")
}

// Register schedules fn under spec.Name and reports whether anything was
// (re)scheduled. With KeepExisting a taken name is a no-op returning false.
func (s *Scheduler) Register(spec JobSpec, fn JobFunc) (bool, error) {
	if err := spec.validate(fn); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false, ErrStopped
	}

	if old, ok := s.jobs[spec.Name]; ok {
		if spec.Policy == KeepExisting {
			return false, nil
		}
		if old.cancel != nil {
			old.cancel()
		}
		s.log.Info(context.Background(), "job replaced", "job", spec.Name)
	}

	j := &job{spec: spec, fn: fn, status: JobStatus{Name: spec.Name}}
	s.jobs[spec.Name] = j
	if s.started {
		s.launch(j)
	}
	return true, nil
}

// Cancel removes the job from future scheduling. A run in progress finishes.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return false
	}
	delete(s.jobs, name)
	if j.cancel != nil {
		j.cancel()
	}
	return true
}

// Jobs returns the registered job names in order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Status(name string) (JobStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return JobStatus{}, false
	}
	return j.status, true
}

// launch must be called with s.mu held.
func (s *Scheduler) launch(j *job) {
	ctx, cancel := context.WithCancel(s.ctx)
	j.cancel = cancel
	s.loops.Add(1)
	go func() {
		defer s.loops.Done()
		s.loop(ctx, j)
	}()
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	log := s.log.With("job", j.spec.Name)

	delay := j.spec.InitialDelay
	if delay <= 0 {
		delay = j.spec.Interval
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	s.setNextRun(j, time.Now().Add(delay))

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := s.runWithRetry(ctx, j); err != nil && ctx.Err() == nil {
			log.Warn(ctx, "job gave up until next interval", "error", err)
		}

		timer.Reset(j.spec.Interval)
		s.setNextRun(j, time.Now().Add(j.spec.Interval))
	}
}

func (s *Scheduler) newBackoff(j *job) retry.Backoff {
	bo := s.backoff
	if j.spec.Backoff != nil {
		bo = *j.spec.Backoff
	}
	b := retry.NewExponential(bo.Base)
	if bo.JitterPercent > 0 {
		b = retry.WithJitterPercent(bo.JitterPercent, b)
	}
	if bo.Max > 0 {
		b = retry.WithCappedDuration(bo.Max, b)
	}
	return retry.WithMaxRetries(bo.MaxRetries, b)
}

var errRetryable = errors.New("job asked for retry")

// runWithRetry performs one scheduled firing: the first attempt plus any
// retries a RetryableFailure earns.
func (s *Scheduler) runWithRetry(ctx context.Context, j *job) error {
	log := s.log.With("job", j.spec.Name)

	return retry.Do(ctx, s.newBackoff(j), func(ctx context.Context) error {
		if j.spec.RequiresNetwork {
			if err := netmon.WaitOnline(ctx, s.monitor); err != nil {
				return err
			}
		}

		res, err := s.dispatch(ctx, j)
		switch res {
		case Success:
			return nil
		case RetryableFailure:
			log.Info(ctx, "job run failed, will retry", "error", err)
			if err == nil {
				err = errRetryable
			}
			return retry.RetryableError(err)
		default:
			log.Error(ctx, "job run failed permanently", "error", err)
			return nil
		}
	})
}

// dispatch hands one run to the pool and waits for its outcome. Once a worker
// has it, the run completes even if the job is cancelled meanwhile.
func (s *Scheduler) dispatch(ctx context.Context, j *job) (Result, error) {
	t := task{ctx: context.WithoutCancel(ctx), fn: j.fn, done: make(chan outcome, 1)}

	select {
	case s.work <- t:
	case <-ctx.Done():
		return PermanentFailure, ctx.Err()
	}

	s.mu.Lock()
	j.status.Running = true
	s.mu.Unlock()

	o := <-t.done

	s.mu.Lock()
	j.status.Running = false
	j.status.Runs++
	j.status.LastRun = time.Now()
	j.status.LastResult = o.res
	j.status.LastError = o.err
	s.mu.Unlock()

	return o.res, o.err
}

func (s *Scheduler) setNextRun(j *job, at time.Time) {
	s.mu.Lock()
	j.status.NextRun = at
	s.mu.Unlock()
}

func (s *Scheduler) worker() {
	defer s.poolWG.Done()
	for t := range s.work {
		t.done <- runSafely(t)
	}
}

func runSafely(t task) (o outcome) {
	defer func() {
		if p := recover(); p != nil {
			o = outcome{res: PermanentFailure, err: fmt.Errorf("job panicked: %v", p)}
		}
	}()
	res, err := t.fn(t.ctx)
	return outcome{res: res, err: err}
}
