package market

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

type snapshotter interface {
	Snapshot(ctx context.Context, interval Interval) (*HistoryPoint, error)
	RefreshActivity(ctx context.Context) (*MarketData, error)
}

// Worker takes one snapshot per interval bucket and refreshes the rolling
// 24h activity once per hour
type Worker struct {
	svc      snapshotter
	interval time.Duration
	last     map[Interval]time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	now      func() time.Time
}

// NewWorker creates a new snapshot worker
func NewWorker(svc snapshotter, interval time.Duration) *Worker {
	if interval == 0 {
		interval = 15 * time.Second // sub-minute so no minute bucket is skipped
	}
	return &Worker{
		svc:      svc,
		interval: interval,
		last:     make(map[Interval]time.Time, len(Intervals)),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Dur("tick", w.interval).Msg("Starting market snapshot worker...")
	go w.loop()
}

// Stop stops the worker and waits for an in-flight tick to finish
func (w *Worker) Stop() {
	log.Info().Msg("Stopping market snapshot worker...")
	close(w.stopCh)
	<-w.doneCh
}

func (w *Worker) loop() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(w.now())

	for {
		select {
		case <-ticker.C:
			w.tick(w.now())
		case <-w.stopCh:
			return
		}
	}
}

// tick snapshots every interval whose bucket changed since the previous tick
func (w *Worker) tick(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, interval := range Intervals {
		bucket := interval.Bucket(now)
		if w.last[interval].Equal(bucket) {
			continue
		}

		if interval == IntervalHour {
			if _, err := w.svc.RefreshActivity(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to refresh rolling market activity")
			}
		}

		_, err := w.svc.Snapshot(ctx, interval)
		switch {
		case err == nil, errors.Is(err, ErrSnapshotExists):
			w.last[interval] = bucket
		default:
			log.Error().Err(err).Str("interval", string(interval)).Msg("Failed to record market snapshot")
		}
	}
}
