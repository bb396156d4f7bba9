package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/config"
	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/client/netmon"
	"github.com/dmitrijs2005/keepsync/internal/client/scheduler"
	"github.com/dmitrijs2005/keepsync/internal/client/services"
	"github.com/dmitrijs2005/keepsync/internal/client/store"
	"github.com/dmitrijs2005/keepsync/internal/client/syncer"
	"github.com/dmitrijs2005/keepsync/internal/common"
	"github.com/dmitrijs2005/keepsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	report    *syncer.Report
	err       error
	syncs     int
	scheduled bool
}

func (f *fakeSyncer) Sync(context.Context) (*syncer.Report, error) {
	f.syncs++
	return f.report, f.err
}

func (f *fakeSyncer) SchedulePeriodic(time.Duration) (bool, error) {
	if f.scheduled {
		return false, nil
	}
	f.scheduled = true
	return true, nil
}

func (f *fakeSyncer) CancelPeriodic() bool {
	was := f.scheduled
	f.scheduled = false
	return was
}

func (f *fakeSyncer) JobName() string { return "sync" }

type fakeJobs map[string]scheduler.JobStatus

func (f fakeJobs) Status(name string) (scheduler.JobStatus, bool) {
	st, ok := f[name]
	return st, ok
}

type testApp struct {
	*App
	out    *bytes.Buffer
	syncer *fakeSyncer
	net    *netmon.State
}

func newTestApp(t *testing.T, input ...string) *testApp {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	out := &bytes.Buffer{}
	fs := &fakeSyncer{}
	net := netmon.NewState(true)
	app := &App{
		config:  cfg,
		store:   st,
		records: services.NewRecordService(st),
		syncer:  fs,
		jobs:    fakeJobs{},
		monitor: net,
		log:     logging.Nop(),
		reader:  bufio.NewReader(strings.NewReader(strings.Join(input, "\n") + "\n")),
		out:     out,
	}
	return &testApp{App: app, out: out, syncer: fs, net: net}
}

func (a *testApp) feed(lines ...string) {
	a.reader = bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func TestAdd_PromptsForArticleFields(t *testing.T) {
	app := newTestApp(t, "Hello", "line one", "line two", "", "cat-1", "t1, t2")
	ctx := context.Background()

	require.NoError(t, app.Add(ctx, models.CollectionArticles))
	assert.Contains(t, app.out.String(), "Added articles/")

	views, err := app.records.List(ctx, models.CollectionArticles)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, &models.Article{
		Title:      "Hello",
		Body:       "line one\nline two",
		CategoryID: "cat-1",
		TagIDs:     []string{"t1", "t2"},
	}, views[0].Payload)
	assert.True(t, views[0].Dirty)
}

func TestAdd_RejectsEmptyName(t *testing.T) {
	app := newTestApp(t, "")

	err := app.Add(context.Background(), models.CollectionTags)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestEdit_KeepsFieldsLeftEmpty(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	id, err := app.records.Add(ctx, models.CollectionArticles, &models.Article{Title: "Old", Body: "body", TagIDs: []string{"x"}})
	require.NoError(t, err)

	app.feed("New", "", "", "")
	require.NoError(t, app.Edit(ctx, models.CollectionArticles, id))

	got, err := app.records.Get(ctx, models.CollectionArticles, id)
	require.NoError(t, err)
	assert.Equal(t, &models.Article{Title: "New", Body: "body", TagIDs: []string{"x"}}, got.Payload)
}

func TestListShowDelete(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	id, err := app.records.Add(ctx, models.CollectionTags, &models.Tag{Name: "golang"})
	require.NoError(t, err)

	require.NoError(t, app.List(ctx, models.CollectionTags))
	assert.Contains(t, app.out.String(), "* "+id+"  golang")

	app.out.Reset()
	require.NoError(t, app.Show(ctx, models.CollectionTags, id))
	assert.Contains(t, app.out.String(), "Name:      golang")
	assert.Contains(t, app.out.String(), "Synced:    false")

	require.NoError(t, app.Delete(ctx, models.CollectionTags, id))
	app.out.Reset()
	require.NoError(t, app.List(ctx, models.CollectionTags))
	assert.Contains(t, app.out.String(), "(no records)")

	assert.ErrorIs(t, app.Show(ctx, models.CollectionTags, id), common.ErrorNotFound)
}

func TestPending(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, app.Pending(ctx))
	assert.Contains(t, app.out.String(), "Everything is synced")

	_, err := app.records.Add(ctx, models.CollectionTags, &models.Tag{Name: "a"})
	require.NoError(t, err)

	app.out.Reset()
	require.NoError(t, app.Pending(ctx))
	assert.Contains(t, app.out.String(), "tags         1 pending")
}

func TestSync_PrintsReport(t *testing.T) {
	app := newTestApp(t)
	app.syncer.report = &syncer.Report{Collections: []*syncer.CollectionReport{{
		Collection: "tags",
		Pushed:     2,
		PushFailed: 1,
		Outcomes: []syncer.Outcome{
			{RecordID: "r2", Phase: syncer.PhasePush, Status: syncer.StatusPushFailed, Err: common.ErrRemoteRejected},
		},
	}}}

	require.NoError(t, app.Sync(context.Background()))
	out := app.out.String()
	assert.Contains(t, out, "tags         pushed 2 (failed 1, stale 0)")
	assert.Contains(t, out, "push r2: remote rejected")
}

func TestSync_Offline(t *testing.T) {
	app := newTestApp(t)
	app.syncer.err = common.ErrNetworkUnavailable

	require.NoError(t, app.Sync(context.Background()))
	assert.Contains(t, app.out.String(), "Offline")
}

func TestStatus(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	app.net.Set(false)

	require.NoError(t, app.Status(ctx))
	out := app.out.String()
	assert.Contains(t, out, "Mode: offline")
	assert.Contains(t, out, "Periodic sync: off")

	app.jobs = fakeJobs{"sync": {Name: "sync", Runs: 3, LastRun: time.Now(), LastResult: scheduler.Success}}
	app.out.Reset()
	require.NoError(t, app.Status(ctx))
	assert.Contains(t, app.out.String(), "30s, 3 runs")
	assert.Contains(t, app.out.String(), "(success)")
}

func TestScheduleAndUnschedule(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, app.Schedule(ctx))
	require.NoError(t, app.Schedule(ctx))
	require.NoError(t, app.Unschedule(ctx))
	require.NoError(t, app.Unschedule(ctx))

	out := app.out.String()
	assert.Contains(t, out, "Periodic sync every 30s")
	assert.Contains(t, out, "already scheduled")
	assert.Contains(t, out, "Periodic sync stopped")
	assert.Contains(t, out, "was not scheduled")
}

func TestWatch_PrintsCurrentState(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	_, err := app.records.Add(ctx, models.CollectionTags, &models.Tag{Name: "live"})
	require.NoError(t, err)

	app.feed("")
	require.NoError(t, app.Watch(ctx, models.CollectionTags))
	out := app.out.String()
	assert.Contains(t, out, "-- tags: 1 records --")
	assert.Contains(t, out, "live")
}

func TestGetStatus_ReflectsMonitor(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, "(online)", app.getStatus())
	app.net.Set(false)
	assert.Equal(t, "(offline)", app.getStatus())
}
