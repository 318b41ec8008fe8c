package outbox

import (
	"context"
	"time"

	"paperless-backend/internal/queue"
	"paperless-backend/internal/shared/metrics"
	"paperless-backend/internal/shared/telemetry"
)

// Dispatcher polls the outbox and publishes staged jobs to the queue.
type Dispatcher struct {
	Repo     Repo
	Queue    queue.Client
	Interval time.Duration
	Batch    int
}

// Run dispatches on a fixed interval until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	interval := d.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.DispatchOnce(ctx); err != nil {
				telemetry.Error("outbox.dispatch_failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// DispatchOnce publishes one batch of pending entries and reports how many
// were sent. Entries that fail to publish stay pending for the next tick.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	entries, err := d.Repo.PendingEntries(ctx, d.Batch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, entry := range entries {
		job, err := queue.DecodeJob(entry.Payload)
		if err != nil {
			// A payload that cannot be decoded will never publish.
			telemetry.Error("outbox.bad_payload", map[string]any{"outboxId": entry.ID, "error": err.Error()})
			if err := d.Repo.MarkSent(ctx, entry.ID); err != nil {
				return sent, err
			}
			continue
		}

		if err := d.Queue.SendJob(ctx, job); err != nil {
			telemetry.Warn("outbox.publish_failed", map[string]any{
				"outboxId":   entry.ID,
				"documentId": entry.DocumentID,
				"attempts":   entry.Attempts + 1,
				"error":      err.Error(),
			})
			if err := d.Repo.MarkAttempt(ctx, entry.ID); err != nil {
				return sent, err
			}
			continue
		}

		if err := d.Repo.MarkSent(ctx, entry.ID); err != nil {
			return sent, err
		}
		metrics.IncOCRJobsPublished()
		sent++
		telemetry.Info("outbox.published", map[string]any{
			"outboxId":      entry.ID,
			"documentId":    entry.DocumentID,
			"correlationId": job.CorrelationID,
		})
	}
	return sent, nil
}
