package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/client/client"
	"github.com/dmitrijs2005/keepsync/internal/client/config"
	"github.com/dmitrijs2005/keepsync/internal/client/models"
	"github.com/dmitrijs2005/keepsync/internal/client/netmon"
	"github.com/dmitrijs2005/keepsync/internal/client/scheduler"
	"github.com/dmitrijs2005/keepsync/internal/client/services"
	"github.com/dmitrijs2005/keepsync/internal/client/store"
	"github.com/dmitrijs2005/keepsync/internal/client/syncer"
	"github.com/dmitrijs2005/keepsync/internal/logging"
)

// Syncer is the sync surface the REPL drives. *syncer.Coordinator implements it.
type Syncer interface {
	Sync(ctx context.Context) (*syncer.Report, error)
	SchedulePeriodic(interval time.Duration) (bool, error)
	CancelPeriodic() bool
	JobName() string
}

// JobStatuser reports on scheduled jobs. *scheduler.Scheduler implements it.
type JobStatuser interface {
	Status(name string) (scheduler.JobStatus, bool)
}

type App struct {
	config  *config.Config
	store   *store.Store
	records services.RecordService
	syncer  Syncer
	jobs    JobStatuser
	monitor netmon.Monitor
	log     logging.Logger

	reader *bufio.Reader
	out    io.Writer

	// start runs background components; stop releases everything after the REPL exits.
	start func(ctx context.Context)
	stop  func()
}

// NewApp opens the local store, connects the configured gateway and wires
// the watcher, scheduler and coordinator. Nothing runs until Run.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	st, err := store.Open(ctx, c.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	gw, err := newGateway(ctx, c, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	colls := make([]syncer.CollectionStore, 0, len(models.Collections()))
	for _, name := range models.Collections() {
		coll, err := st.Collection(name)
		if err != nil {
			_ = st.Close()
			_ = gw.Close()
			return nil, err
		}
		colls = append(colls, coll)
	}

	watcher := netmon.NewWatcher(gw, c.OnlineCheckInterval, logger)
	sch := scheduler.New(watcher, scheduler.WithWorkers(c.Workers), scheduler.WithLogger(logger))
	coord := syncer.New(colls, gw, watcher, syncer.WithLogger(logger), syncer.WithScheduler(sch))

	a := &App{
		config:  c,
		store:   st,
		records: services.NewRecordService(st),
		syncer:  coord,
		jobs:    sch,
		monitor: watcher,
		log:     logger.With("module", "cli"),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}

	var cancel context.CancelFunc
	a.start = func(ctx context.Context) {
		ctx, cancel = context.WithCancel(ctx)
		go watcher.Run(ctx)
		sch.Start(ctx)
		if _, err := coord.SchedulePeriodic(c.SyncInterval); err != nil {
			a.log.Error(ctx, "failed to schedule periodic sync", "error", err)
		}
	}
	a.stop = func() {
		if cancel != nil {
			cancel()
		}
		sch.Stop()
		_ = gw.Close()
		_ = st.Close()
	}
	return a, nil
}

func newGateway(ctx context.Context, c *config.Config, logger logging.Logger) (client.Gateway, error) {
	switch c.Gateway {
	case config.GatewayGRPC:
		gw, err := client.NewGRPCClient(c.ServerEndpointAddr, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating grpc client: %w", err)
		}
		return gw, nil
	case config.GatewayS3:
		api, err := client.NewS3Client(ctx, client.S3Config{
			Bucket:    c.S3Bucket,
			Prefix:    c.S3Prefix,
			Endpoint:  c.S3Endpoint,
			Region:    c.S3Region,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating s3 client: %w", err)
		}
		return client.NewS3Gateway(api, c.S3Bucket, c.S3Prefix, logger, client.WithClockSkew(c.S3ClockSkew)), nil
	default:
		return nil, errors.New("unknown gateway " + c.Gateway)
	}
}

func (a *App) mode() netmon.Mode {
	return netmon.ModeOf(a.monitor.Online())
}

func (a *App) getStatus() string {
	return fmt.Sprintf("(%s)", a.mode())
}

// Run starts the background components and blocks in the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) {
	if a.start != nil {
		a.start(ctx)
	}
	if a.stop != nil {
		defer a.stop()
	}

	fmt.Fprintln(a.out, "Welcome to keepsync (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
