package netmon

import (
	"context"
	"time"

	"github.com/dmitrijs2005/keepsync/internal/logging"
)

const defaultProbeTimeout = 3 * time.Second

// Prober checks that the remote answers.
type Prober interface {
	Ping(ctx context.Context) error
}

// Watcher is a Monitor fed by probing the remote on an interval.
type Watcher struct {
	*State
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger
}

func NewWatcher(p Prober, interval time.Duration, logger logging.Logger) *Watcher {
	return &Watcher{
		State:    NewState(false),
		prober:   p,
		interval: interval,
		timeout:  defaultProbeTimeout,
		log:      logger.With("module", "netmon"),
	}
}

// Probe pings the remote once and updates the state.
func (w *Watcher) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.prober.Ping(ctx)
	cancel()

	online := err == nil
	if w.Set(online) {
		w.log.Info(ctx, "switched mode", "mode", ModeOf(online))
	}
	if err != nil {
		w.log.Debug(ctx, "probe failed", "error", err)
	}
	return online
}

// Run probes immediately and then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.Probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
