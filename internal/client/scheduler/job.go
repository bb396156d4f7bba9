package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Result is what a job run reports back to the scheduler.
type Result int

const (
	Success Result = iota
	// RetryableFailure asks for another attempt after a backoff delay.
	RetryableFailure
	// PermanentFailure is logged; the job waits for its next interval.
	PermanentFailure
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case RetryableFailure:
		return "retryable_failure"
	case PermanentFailure:
		return "permanent_failure"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// JobFunc is one run of a job. The context is not cancelled when the job is
// cancelled; only Stop's shutdown of the scheduler interrupts waiting for it.
type JobFunc func(ctx context.Context) (Result, error)

// Policy decides what Register does when the name is taken.
type Policy int

const (
	// KeepExisting leaves the registered job untouched.
	KeepExisting Policy = iota
	// ReplaceExisting cancels the registered job and schedules the new one.
	ReplaceExisting
)

// Backoff bounds the retries of a RetryableFailure.
type Backoff struct {
	Base          time.Duration
	Max           time.Duration
	MaxRetries    uint64
	JitterPercent uint64
}

// DefaultBackoff is 1s doubling up to 1m, at most 5 retries, 10% jitter.
var DefaultBackoff = Backoff{
	Base:          time.Second,
	Max:           time.Minute,
	MaxRetries:    5,
	JitterPercent: 10,
}

type JobSpec struct {
	Name     string
	Interval time.Duration
	// InitialDelay is the wait before the first run; zero means Interval.
	InitialDelay    time.Duration
	RequiresNetwork bool
	Policy          Policy
	// Backoff overrides the scheduler default when set.
	Backoff *Backoff
}

var (
	ErrEmptyName       = errors.New("job name is empty")
	ErrInvalidInterval = errors.New("job interval must be positive")
	ErrNilJob          = errors.New("job func is nil")
	ErrStopped         = errors.New("scheduler stopped")
)

func (s JobSpec) validate(fn JobFunc) error {
	switch {
	case s.Name == "":
		return ErrEmptyName
	case s.Interval <= 0:
		return ErrInvalidInterval
	case fn == nil:
		return ErrNilJob
	}
	return nil
}

// JobStatus is a snapshot of a registered job.
type JobStatus struct {
	Name string
	// Runs counts attempts, retries included.
	Runs       int
	Running    bool
	LastResult Result
	LastError  error
	LastRun    time.Time
	NextRun    time.Time
}
