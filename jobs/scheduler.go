package jobs

import (
	"fmt"
	"time"

	"github.com/anjiri1684/medical_consult/repository"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	expireOrdersSpec = "*/15 * * * *"
	purgeEventsSpec  = "@hourly"
)

// NewScheduler registers the maintenance jobs on a cron scheduler. purger may
// be nil when the event broker keeps no durable log.
func NewScheduler(payments repository.PaymentRepository, staleOrderTTL time.Duration, purger EventPurger, retention time.Duration, log *zap.Logger) (*cron.Cron, error) {
	log = log.Named("jobs")
	c := cron.New()

	if _, err := c.AddFunc(expireOrdersSpec, ExpireStaleOrders(payments, staleOrderTTL, log)); err != nil {
		return nil, fmt.Errorf("failed to schedule stale order expiry: %w", err)
	}
	if purger != nil {
		if _, err := c.AddFunc(purgeEventsSpec, PurgeDeliveredEvents(purger, retention, log)); err != nil {
			return nil, fmt.Errorf("failed to schedule event retention: %w", err)
		}
	}

	log.Info("cron jobs scheduled", zap.Int("count", len(c.Entries())))
	return c, nil
}
