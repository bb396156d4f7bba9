package syncer

import (
	"errors"
	"time"
)

type Phase string

const (
	PhasePush Phase = "push"
	PhasePull Phase = "pull"
)

type Status string

const (
	StatusPushed     Status = "pushed"
	StatusPurged     Status = "purged"
	StatusPushFailed Status = "push_failed"
	// StatusStale means the record changed while it was being synced; it stays dirty.
	StatusStale Status = "stale"
	// StatusRetracted means the record was deleted locally while its first push
	// was in flight and the remote copy was tombstoned again.
	StatusRetracted  Status = "retracted"
	StatusPulled     Status = "pulled"
	StatusSkipped    Status = "skipped"
	StatusKept       Status = "kept"
	StatusPullFailed Status = "pull_failed"
)

// Outcome is what happened to one record during a pass.
type Outcome struct {
	RecordID string
	Phase    Phase
	Status   Status
	Err      error
}

// CollectionReport summarises one pass over a collection. Per-record
// failures are listed in Outcomes and never fail the pass.
type CollectionReport struct {
	Collection string

	Pushed     int
	PushFailed int
	Stale      int
	Pulled     int
	Skipped    int
	PullFailed int

	HighWaterMark time.Time
	// PullErr is set when the pull call itself failed.
	PullErr error
	// Err is set when the pass could not run, e.g. the local store failed.
	Err error

	Duration time.Duration
	// Shared is true when the pass was coalesced with a concurrent request.
	Shared bool

	Outcomes []Outcome
}

func (r *CollectionReport) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusPushed, StatusPurged, StatusRetracted:
		r.Pushed++
	case StatusPushFailed:
		r.PushFailed++
	case StatusStale:
		r.Stale++
	case StatusPulled:
		r.Pulled++
	case StatusSkipped, StatusKept:
		r.Skipped++
	case StatusPullFailed:
		r.PullFailed++
	}
}

// Failures joins the pull error and every per-record error of the pass.
func (r *CollectionReport) Failures() error {
	errs := []error{r.PullErr}
	for _, o := range r.Outcomes {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// Report is the result of a pass over every collection.
type Report struct {
	Started     time.Time
	Duration    time.Duration
	Collections []*CollectionReport
}

func (r *Report) Collection(name string) *CollectionReport {
	if r == nil {
		return nil
	}
	for _, c := range r.Collections {
		if c.Collection == name {
			return c
		}
	}
	return nil
}

// Err joins the collection-level errors.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, c := range r.Collections {
		errs = append(errs, c.Err)
	}
	return errors.Join(errs...)
}

// Failures joins the record and pull failures of every collection.
func (r *Report) Failures() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, c := range r.Collections {
		errs = append(errs, c.Failures())
	}
	return errors.Join(errs...)
}
