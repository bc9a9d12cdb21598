package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gerai-erp/gerai/internal/shared"
	"github.com/gerai-erp/gerai/internal/stockcount"
)

// NewAuditRetentionHandler sweeps audit log rows older than the retention
// window. The default window applies when the task payload carries none.
func NewAuditRetentionHandler(audit *shared.AuditLogger, defaultRetention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditRetentionPayload
		if err := decodePayload(t, &payload); err != nil {
			return err
		}
		retention := defaultRetention
		if payload.RetentionHours > 0 {
			retention = time.Duration(payload.RetentionHours) * time.Hour
		}
		removed, err := audit.Cleanup(ctx, retention)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("audit retention sweep",
				slog.Int64("removed", removed),
				slog.Duration("retention", retention))
		}
		return nil
	}
}

// NewCounterCleanupHandler deletes document counter rows from previous days.
// Counters reset per UTC day, so only today's row is ever read again.
func NewCounterCleanupHandler(counters *stockcount.Counters, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		today := stockcount.DayPrefix(time.Now())
		removed, err := counters.Cleanup(ctx, today)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("counter cleanup", slog.Int64("removed", removed), slog.String("keep", today))
		}
		return nil
	}
}
