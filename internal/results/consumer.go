// Package results applies worker processing results back to document rows.
package results

import (
	"context"
	"errors"
	"time"

	"paperless-backend/internal/documents"
	"paperless-backend/internal/queue"
	"paperless-backend/internal/shared/metrics"
	"paperless-backend/internal/shared/telemetry"
)

// Consumer drains the result queue and updates document processing state.
type Consumer struct {
	Receiver queue.ResultReceiver
	Repo     documents.Repo
}

// Run consumes results until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		msg, ack, ok, err := c.Receiver.ReceiveResult(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			telemetry.Error("results.receive_failed", map[string]any{"error": err.Error()})
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}

		if err := c.Apply(ctx, msg); err != nil {
			// Leave the message in flight so it is retried.
			telemetry.Error("results.apply_failed", map[string]any{
				"documentId":    msg.DocumentID,
				"correlationId": msg.CorrelationID,
				"error":         err.Error(),
			})
			continue
		}

		if err := ack(ctx); err != nil {
			telemetry.Warn("results.ack_failed", map[string]any{
				"documentId": msg.DocumentID,
				"error":      err.Error(),
			})
		}
	}
}

// Apply updates the document row for one result. Results for deleted
// documents are dropped.
func (c *Consumer) Apply(ctx context.Context, msg queue.ResultMessage) error {
	var err error
	if msg.Success {
		err = c.Repo.MarkProcessed(ctx, msg.DocumentID, msg.Text, msg.Confidence)
	} else {
		err = c.Repo.MarkFailed(ctx, msg.DocumentID, msg.ErrorMessage)
	}

	if errors.Is(err, documents.ErrNotFound) {
		telemetry.Warn("results.document_gone", map[string]any{
			"documentId":    msg.DocumentID,
			"correlationId": msg.CorrelationID,
		})
		return nil
	}
	if err != nil {
		return err
	}

	metrics.IncResultsApplied()
	telemetry.Info("results.applied", map[string]any{
		"documentId":    msg.DocumentID,
		"success":       msg.Success,
		"correlationId": msg.CorrelationID,
	})
	return nil
}
