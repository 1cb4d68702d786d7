package jobs

import (
	"context"
	"time"

	"github.com/anjiri1684/medical_consult/repository"
	"go.uber.org/zap"
)

// ExpireStaleOrders marks orders that were never verified within ttl as FAILED.
func ExpireStaleOrders(payments repository.PaymentRepository, ttl time.Duration, log *zap.Logger) func() {
	return func() {
		log.Debug("Running job: ExpireStaleOrders")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		expired, err := payments.ExpireStale(ctx, time.Now().Add(-ttl))
		if err != nil {
			log.Error("error expiring stale orders", zap.Error(err))
			return
		}
		if expired == 0 {
			return
		}
		log.Info("marked stale orders as failed", zap.Int64("count", expired))
	}
}
