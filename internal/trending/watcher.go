package trending

import (
	"context"
	"log/slog"
	"time"

	"moviescout/internal/domain"
)

const (
	defaultInterval = 15 * time.Second
	fetchTimeout    = 5 * time.Second
)

// Source yields the current top searched terms.
type Source interface {
	Trending(ctx context.Context) ([]domain.SearchRecord, error)
}

// Broadcaster fans a trending list out to live search sessions.
type Broadcaster interface {
	BroadcastTrending(records []domain.SearchRecord)
}

// Watcher keeps connected sessions' trending strips current by polling the
// store and broadcasting whenever the list changes. Polling instead of a
// change stream keeps a standalone mongod deployment supported.
type Watcher struct {
	source   Source
	sink     Broadcaster
	interval time.Duration
	logger   *slog.Logger

	last []domain.SearchRecord
}

func New(source Source, sink Broadcaster, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		source:   source,
		sink:     sink,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. Fetch errors are logged and the loop
// carries on; a store outage degrades trending to stale instead of stopping
// the refresher.
func (w *Watcher) Run(ctx context.Context) {
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	records, err := w.source.Trending(fetchCtx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("trending refresh failed", slog.String("error", err.Error()))
		return
	}
	if sameTrending(w.last, records) {
		return
	}
	w.last = records
	w.sink.BroadcastTrending(records)
	w.logger.Debug("trending broadcast", slog.Int("terms", len(records)))
}

func sameTrending(a, b []domain.SearchRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Term != b[i].Term || a[i].Count != b[i].Count {
			return false
		}
	}
	return true
}
