// Package worker runs OCR jobs pulled from the queue.
package worker

import (
	"context"
	"fmt"
	"io"
	"time"

	"paperless-backend/internal/ocr"
	"paperless-backend/internal/queue"
	"paperless-backend/internal/shared/metrics"
	"paperless-backend/internal/shared/storage/object"
	"paperless-backend/internal/shared/telemetry"
)

// Processor executes one OCR job: fetch the stored file, extract text, and
// build the result envelope. Failures become failure results rather than
// errors so the job is never redelivered.
type Processor struct {
	Store  object.ObjectStore
	Engine ocr.Engine
}

// Process runs the job and always returns a result to publish.
func (p *Processor) Process(ctx context.Context, job queue.JobMessage) queue.ResultMessage {
	metrics.IncOCRJobsReceived()
	started := time.Now()

	result, err := p.extract(ctx, job)
	elapsed := time.Since(started)
	metrics.ObserveOCRDurationMs(float64(elapsed.Milliseconds()))

	if err != nil {
		metrics.IncOCRJobsFailed()
		telemetry.Error("worker.job_failed", map[string]any{
			"documentId":    job.DocumentID,
			"fileName":      job.FileName,
			"correlationId": job.CorrelationID,
			"durationMs":    elapsed.Milliseconds(),
			"error":         err.Error(),
		})
		return queue.ResultMessage{
			DocumentID:     job.DocumentID,
			ProcessingType: queue.ProcessingTypeOCR,
			Success:        false,
			ErrorMessage:   err.Error(),
			ProcessedAt:    time.Now().UTC(),
			CorrelationID:  job.CorrelationID,
		}
	}

	metrics.IncOCRJobsCompleted()
	telemetry.Info("worker.job_completed", map[string]any{
		"documentId":    job.DocumentID,
		"fileName":      job.FileName,
		"correlationId": job.CorrelationID,
		"durationMs":    elapsed.Milliseconds(),
		"textLength":    len(result.Text),
		"confidence":    result.Confidence,
	})
	return queue.ResultMessage{
		DocumentID:     job.DocumentID,
		ProcessingType: queue.ProcessingTypeOCR,
		Success:        true,
		Text:           result.Text,
		Confidence:     result.Confidence,
		ProcessedAt:    time.Now().UTC(),
		CorrelationID:  job.CorrelationID,
	}
}

func (p *Processor) extract(ctx context.Context, job queue.JobMessage) (ocr.Result, error) {
	if job.DocumentID <= 0 {
		return ocr.Result{}, fmt.Errorf("invalid document id %d", job.DocumentID)
	}
	if job.StorageKey == "" {
		return ocr.Result{}, fmt.Errorf("missing storage key")
	}

	if err := p.Engine.Available(ctx); err != nil {
		return ocr.Result{}, fmt.Errorf("ocr engine unavailable: %w", err)
	}

	exists, err := p.Store.Exists(ctx, job.StorageKey)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("check stored file: %w", err)
	}
	if !exists {
		return ocr.Result{}, fmt.Errorf("stored file %s not found", job.StorageKey)
	}

	rc, err := p.Store.Open(ctx, job.StorageKey)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("open stored file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("read stored file: %w", err)
	}

	result, err := p.Engine.Extract(ctx, data, job.FileType)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("extract text: %w", err)
	}
	return result, nil
}
