package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/client/services"
	"github.com/dmitrijs2005/keepsync/internal/client/syncer"
	"github.com/dmitrijs2005/keepsync/internal/common"
)

// promptPayload asks for the fields of a collection's payload. Fields of
// current are offered as defaults.
func (a *App) promptPayload(collection string, current models.Payload) (any, error) {
	switch collection {
	case models.CollectionArticles:
		art := &models.Article{}
		if cur, ok := current.(*models.Article); ok {
			*art = *cur
		}
		var err error
		if art.Title, err = GetDefaultText(a.reader, "Title", art.Title, a.out); err != nil {
			return nil, err
		}
		body, err := GetMultiline(a.reader, "Body", a.out)
		if err != nil {
			return nil, err
		}
		if body != "" {
			art.Body = body
		}
		if art.CategoryID, err = GetDefaultText(a.reader, "Category id (optional)", art.CategoryID, a.out); err != nil {
			return nil, err
		}
		tags, err := GetList(a.reader, "Tag ids, comma separated (optional)", a.out)
		if err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			art.TagIDs = tags
		}
		return art, nil

	case models.CollectionCategories:
		cat := &models.Category{}
		if cur, ok := current.(*models.Category); ok {
			*cat = *cur
		}
		var err error
		cat.Name, err = GetDefaultText(a.reader, "Name", cat.Name, a.out)
		return cat, err

	case models.CollectionTags:
		tag := &models.Tag{}
		if cur, ok := current.(*models.Tag); ok {
			*tag = *cur
		}
		var err error
		tag.Name, err = GetDefaultText(a.reader, "Name", tag.Name, a.out)
		return tag, err

	default:
		raw, err := GetSimpleText(a.reader, "JSON payload", a.out)
		return json.RawMessage(raw), err
	}
}

func (a *App) Add(ctx context.Context, collection string) error {
	payload, err := a.promptPayload(collection, nil)
	if err != nil {
		return err
	}
	id, err := a.records.Add(ctx, collection, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s/%s\n", collection, id)
	return nil
}

func (a *App) Edit(ctx context.Context, collection, id string) error {
	cur, err := a.records.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	payload, err := a.promptPayload(collection, cur.Payload)
	if err != nil {
		return err
	}
	if err := a.records.Edit(ctx, collection, id, payload); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s/%s\n", collection, id)
	return nil
}

func (a *App) Delete(ctx context.Context, collection, id string) error {
	if err := a.records.Delete(ctx, collection, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s/%s\n", collection, id)
	return nil
}

func syncMark(v services.RecordView) string {
	if v.Dirty {
		return "*"
	}
	return " "
}

func (a *App) printViews(views []services.RecordView) {
	if len(views) == 0 {
		fmt.Fprintln(a.out, "(no records)")
		return
	}
	for _, v := range views {
		fmt.Fprintf(a.out, "%s %s  %s\n", syncMark(v), v.ID, v.Title)
	}
}

func (a *App) List(ctx context.Context, collection string) error {
	views, err := a.records.List(ctx, collection)
	if err != nil {
		return err
	}
	a.printViews(views)
	return nil
}

func (a *App) Show(ctx context.Context, collection, id string) error {
	v, err := a.records.Get(ctx, collection, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "ID:        %s\n", v.ID)
	fmt.Fprintf(a.out, "Remote ID: %s\n", v.RemoteID)
	fmt.Fprintf(a.out, "Synced:    %t\n", !v.Dirty)
	if !v.LastSyncTime.IsZero() {
		fmt.Fprintf(a.out, "Last sync: %s\n", v.LastSyncTime.Local().Format(time.RFC3339))
	}

	switch p := v.Payload.(type) {
	case *models.Article:
		fmt.Fprintf(a.out, "Title:     %s\n", p.Title)
		if p.CategoryID != "" {
			fmt.Fprintf(a.out, "Category:  %s\n", p.CategoryID)
		}
		if len(p.TagIDs) > 0 {
			fmt.Fprintf(a.out, "Tags:      %s\n", strings.Join(p.TagIDs, ", "))
		}
		if p.Body != "" {
			fmt.Fprintf(a.out, "\n%s\n", p.Body)
		}
	case *models.Category:
		fmt.Fprintf(a.out, "Name:      %s\n", p.Name)
	case *models.Tag:
		fmt.Fprintf(a.out, "Name:      %s\n", p.Name)
	}
	return nil
}

func (a *App) printPending(pending map[string]int) {
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Fprintln(a.out, "Everything is synced")
		return
	}
	for _, name := range names {
		fmt.Fprintf(a.out, "%-12s %d pending\n", name, pending[name])
	}
}

func (a *App) Pending(ctx context.Context) error {
	pending, err := a.records.Pending(ctx)
	if err != nil {
		return err
	}
	a.printPending(pending)
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	rep, err := a.syncer.Sync(ctx)
	if errors.Is(err, common.ErrNetworkUnavailable) {
		fmt.Fprintln(a.out, "Offline: sync is not possible right now")
		return nil
	}
	if rep == nil {
		return err
	}
	for _, c := range rep.Collections {
		fmt.Fprintf(a.out, "%-12s pushed %d (failed %d, stale %d), pulled %d (skipped %d, failed %d)\n",
			c.Collection, c.Pushed, c.PushFailed, c.Stale, c.Pulled, c.Skipped, c.PullFailed)
		if c.PullErr != nil {
			fmt.Fprintf(a.out, "%-12s pull failed: %v\n", "", c.PullErr)
		}
		for _, o := range c.Outcomes {
			if o.Err != nil {
				fmt.Fprintf(a.out, "%-12s %s %s: %v\n", "", o.Phase, o.RecordID, o.Err)
			}
		}
	}
	return err
}

func (a *App) Status(ctx context.Context) error {
	fmt.Fprintf(a.out, "Mode: %s\n", a.mode())

	pending, err := a.records.Pending(ctx)
	if err != nil {
		return err
	}
	a.printPending(pending)

	marks, err := a.store.HighWaterMarks(ctx)
	if err != nil {
		return err
	}
	for _, name := range models.Collections() {
		if ts, ok := marks[name]; ok {
			fmt.Fprintf(a.out, "%-12s pulled up to %s\n", name, ts.Local().Format(time.RFC3339))
		}
	}

	st, ok := a.jobs.Status(a.syncer.JobName())
	if !ok {
		fmt.Fprintln(a.out, "Periodic sync: off")
		return nil
	}
	fmt.Fprintf(a.out, "Periodic sync: every %s, %d runs", a.config.SyncInterval, st.Runs)
	if !st.LastRun.IsZero() {
		fmt.Fprintf(a.out, ", last %s (%s)", st.LastRun.Local().Format(time.Kitchen), st.LastResult)
	}
	if !st.NextRun.IsZero() {
		fmt.Fprintf(a.out, ", next %s", st.NextRun.Local().Format(time.Kitchen))
	}
	fmt.Fprintln(a.out)
	return nil
}

// Watch prints the collection every time it changes until the user presses
// Enter.
func (a *App) Watch(ctx context.Context, collection string) error {
	coll, err := a.store.Collection(collection)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Watching %s, press Enter to stop\n", collection)
	sub := coll.Watch(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for recs := range sub.C {
			fmt.Fprintf(a.out, "-- %s: %d records --\n", collection, len(recs))
			a.printViews(services.Views(recs))
		}
	}()

	_, _ = a.reader.ReadString('\n')
	sub.Close()
	<-done
	return sub.Err()
}

func (a *App) Schedule(ctx context.Context) error {
	added, err := a.syncer.SchedulePeriodic(a.config.SyncInterval)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(a.out, "Periodic sync every %s\n", a.config.SyncInterval)
	} else {
		fmt.Fprintln(a.out, "Periodic sync is already scheduled")
	}
	return nil
}

func (a *App) Unschedule(ctx context.Context) error {
	if a.syncer.CancelPeriodic() {
		fmt.Fprintln(a.out, "Periodic sync stopped")
	} else {
		fmt.Fprintln(a.out, "Periodic sync was not scheduled")
	}
	return nil
}

var _ Syncer = (*syncer.Coordinator)(nil)
