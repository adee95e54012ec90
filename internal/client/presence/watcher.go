// Package presence tracks whether the remote store is reachable.
package presence

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher pings the remote store on every tick and calls OnChange when
// reachability flips. The first result is always reported.
type Watcher struct {
	Pinger   Pinger
	Interval time.Duration
	Timeout  time.Duration
	OnChange func(online bool)
	Logger   logging.Logger
}

const (
	defaultInterval = 3 * time.Second
	defaultTimeout  = 3 * time.Second
)

// Run probes immediately, then once per Interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	log := w.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.With("module", "presence")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		known  bool
		online bool
	)
	for {
		now := w.probe(ctx)
		if ctx.Err() != nil {
			return
		}
		if !known || now != online {
			known, online = true, now
			log.Info(ctx, "remote reachability changed", "online", online)
			if w.OnChange != nil {
				w.OnChange(online)
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) probe(ctx context.Context) bool {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return w.Pinger.Ping(ctx) == nil
}
