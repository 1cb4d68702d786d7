package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type EventPurger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// PurgeDeliveredEvents drops event log entries older than retention that every
// consumer group has already committed.
func PurgeDeliveredEvents(purger EventPurger, retention time.Duration, log *zap.Logger) func() {
	return func() {
		log.Debug("Running job: PurgeDeliveredEvents")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		purged, err := purger.Purge(ctx, time.Now().Add(-retention))
		if err != nil {
			log.Error("error purging delivered events", zap.Error(err))
			return
		}
		if purged > 0 {
			log.Info("purged delivered events", zap.Int64("count", purged))
		}
	}
}
