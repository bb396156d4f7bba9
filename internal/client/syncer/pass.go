package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/logging"
)

func localErr(name, op string, err error) error {
	if errors.Is(err, common.ErrLocalStore) {
		return fmt.Errorf("%s %s: %w", op, name, err)
	}
	return fmt.Errorf("%w: %s %s: %w", common.ErrLocalStore, op, name, err)
}

// pass pushes then pulls one collection.
func (c *Coordinator) pass(ctx context.Context, coll CollectionStore) *CollectionReport {
	name := coll.Name()
	log := c.log.With("collection", name)
	started := c.now()
	rep := &CollectionReport{Collection: name}
	defer func() { rep.Duration = c.now().Sub(started) }()

	if !c.monitor.Online() {
		rep.Err = fmt.Errorf("sync %s: %w", name, common.ErrNetworkUnavailable)
		return rep
	}

	dirty, err := coll.GetUnsynced(ctx)
	if err != nil {
		rep.Err = localErr(name, "list unsynced", err)
		log.Error(ctx, "sync pass aborted", "error", rep.Err)
		return rep
	}
	// acked holds the server time of every push the remote accepted in this
	// pass, so their echoes are not pulled back over newer local edits.
	acked := make(map[string]time.Time, len(dirty))
	for _, rec := range dirty {
		out, at := c.push(ctx, log, coll, rec)
		rep.add(out)
		if !at.IsZero() {
			acked[rec.ID] = at
		}
	}

	if err := c.pull(ctx, log, coll, rep, acked); err != nil {
		rep.Err = err
		log.Error(ctx, "pull aborted", "error", err)
	}

	log.Info(ctx, "sync pass finished",
		"pushed", rep.Pushed, "push_failed", rep.PushFailed, "stale", rep.Stale,
		"pulled", rep.Pulled, "skipped", rep.Skipped, "pull_failed", rep.PullFailed)
	return rep
}

// push sends one record and reports the server time of the accepted state,
// zero when the push failed.
func (c *Coordinator) push(ctx context.Context, log logging.Logger, coll CollectionStore, rec *models.Record) (Outcome, time.Time) {
	out := Outcome{RecordID: rec.ID, Phase: PhasePush}

	res, err := c.gateway.Push(ctx, rec)
	if err != nil {
		log.Warn(ctx, "push failed", "id", rec.ID, "error", err)
		out.Status, out.Err = StatusPushFailed, err
		return out, time.Time{}
	}

	if rec.Deleted {
		err = coll.PurgeIf(ctx, rec.ID, rec.Revision)
	} else {
		err = coll.MarkSyncedIf(ctx, rec.ID, rec.Revision, res.ServerID, res.ServerTime)
	}

	switch {
	case err == nil:
		out.Status = StatusPushed
		if rec.Deleted {
			out.Status = StatusPurged
		}
	case errors.Is(err, common.ErrStaleRevision):
		log.Debug(ctx, "record changed during push", "id", rec.ID)
		out.Status = StatusStale
		if !rec.Deleted && rec.RemoteID == "" && res.ServerID != "" {
			if err := coll.AdoptRemoteID(ctx, rec.ID, res.ServerID); err != nil {
				log.Error(ctx, "failed to store remote id", "id", rec.ID, "error", err)
				out.Err = localErr(coll.Name(), "adopt remote id", err)
			}
		}
	case errors.Is(err, common.ErrorNotFound) && rec.Deleted:
		out.Status = StatusPurged
	case errors.Is(err, common.ErrorNotFound):
		return c.retract(ctx, log, rec, res)
	default:
		log.Error(ctx, "failed to record push", "id", rec.ID, "error", err)
		out.Status, out.Err = StatusPushFailed, localErr(coll.Name(), "mark synced", err)
	}
	log.Debug(ctx, "pushed", "id", rec.ID, "status", out.Status)
	return out, res.ServerTime
}

// retract tombstones the remote copy of a record that was removed locally
// while its first push was in flight.
func (c *Coordinator) retract(ctx context.Context, log logging.Logger, rec *models.Record, res models.PushResult) (Outcome, time.Time) {
	out := Outcome{RecordID: rec.ID, Phase: PhasePush}

	tomb := *rec
	tomb.Deleted = true
	tomb.Payload = nil
	tomb.RemoteID = res.ServerID

	ack, err := c.gateway.Push(ctx, &tomb)
	if err != nil {
		log.Warn(ctx, "failed to retract deleted record", "id", rec.ID, "error", err)
		out.Status, out.Err = StatusPushFailed, err
		return out, res.ServerTime
	}
	out.Status = StatusRetracted
	return out, ack.ServerTime
}

// pull applies remote changes newer than the high-water mark and advances the
// mark to the last change handled before the first failure.
func (c *Coordinator) pull(ctx context.Context, log logging.Logger, coll CollectionStore, rep *CollectionReport, acked map[string]time.Time) error {
	name := coll.Name()

	since, err := coll.HighWaterMark(ctx)
	if err != nil {
		return localErr(name, "read high-water mark", err)
	}
	rep.HighWaterMark = since

	changes, err := c.gateway.Pull(ctx, name, since)
	if err != nil {
		log.Warn(ctx, "pull failed", "error", err)
		rep.PullErr = err
		return nil
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].ServerTime.Before(changes[j].ServerTime)
	})

	mark := since
	blocked := false
	for _, ch := range changes {
		out := c.apply(ctx, coll, ch, acked[ch.ID])
		rep.add(out)
		if out.Err != nil || out.Status == StatusStale {
			blocked = true
			continue
		}
		if !blocked && ch.ServerTime.After(mark) {
			mark = ch.ServerTime
		}
	}

	if mark.After(since) {
		stored, err := coll.AdvanceHighWaterMark(ctx, mark)
		if err != nil {
			return localErr(name, "advance high-water mark", err)
		}
		rep.HighWaterMark = stored
	}
	return nil
}

func (c *Coordinator) apply(ctx context.Context, coll CollectionStore, ch models.RemoteChange, acked time.Time) Outcome {
	out := Outcome{RecordID: ch.ID, Phase: PhasePull}

	if !acked.IsZero() && !ch.ServerTime.After(acked) {
		out.Status = StatusSkipped
		return out
	}

	local, err := coll.Lookup(ctx, ch.ID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		local = nil
	case err != nil:
		out.Status, out.Err = StatusPullFailed, localErr(coll.Name(), "lookup", err)
		return out
	}

	if (local == nil && ch.Deleted) || (local != nil && !ch.ServerTime.After(local.LastSyncTime)) {
		out.Status = StatusSkipped
		return out
	}

	if c.resolver.Resolve(local, ch) == KeepLocal {
		out.Status = StatusKept
		return out
	}

	err = coll.ApplyRemote(ctx, ch, local)
	switch {
	case err == nil:
		out.Status = StatusPulled
	case errors.Is(err, common.ErrStaleRevision):
		out.Status = StatusStale
	default:
		out.Status, out.Err = StatusPullFailed, localErr(coll.Name(), "apply remote", err)
	}
	return out
}

