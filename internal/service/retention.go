package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetentionSweeper periodically deletes events older than the configured
// horizon. This is the only path that removes records from the store.
type RetentionSweeper struct {
	events   EventServiceInterface
	maxAge   time.Duration
	interval time.Duration
}

func NewRetentionSweeper(events EventServiceInterface, maxAge, interval time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		events:   events,
		maxAge:   maxAge,
		interval: interval,
	}
}

// Run sweeps on every tick until the context is cancelled. A failed sweep
// is logged and retried on the next tick.
func (w *RetentionSweeper) Run(ctx context.Context) {
	if w.maxAge <= 0 {
		log.Info("Retention sweeper disabled: no max age configured")
		return
	}

	log.WithFields(log.Fields{
		"max_age":  w.maxAge,
		"interval": w.interval,
	}).Info("Retention sweeper started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Retention sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionSweeper) sweep(ctx context.Context) {
	deleted, err := w.events.PurgeEventsOlderThan(ctx, w.maxAge)
	if err != nil {
		log.WithError(err).Error("Retention sweep failed")
		return
	}
	if deleted > 0 {
		log.WithField("deleted", deleted).Info("Retention sweep removed expired audit events")
	}
}
