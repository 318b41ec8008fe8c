package worker

import (
	"context"
	"time"

	"paperless-backend/internal/queue"
	"paperless-backend/internal/shared/telemetry"
)

const (
	connectAttempts = 30
	connectDelay    = 2 * time.Second

	defaultDrainTimeout = 30 * time.Second
)

// Runner drives the worker loop: pull a job, process it, publish the
// result, then acknowledge. Jobs are handled one at a time so a crash
// leaves at most one message in flight.
type Runner struct {
	Jobs      queue.JobReceiver
	Results   queue.Client
	Processor *Processor

	// DrainTimeout bounds how long an in-flight job may keep running
	// after shutdown is requested. Zero means defaultDrainTimeout.
	DrainTimeout time.Duration
}

// WaitForQueue retries the queue connection on a fixed schedule so the
// worker survives starting before the broker.
func WaitForQueue(ctx context.Context, ping func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		telemetry.Warn("worker.queue_unreachable", map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectDelay):
		}
	}
	return err
}

// Run polls until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, ack, ok, err := r.Jobs.ReceiveJob(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}

		r.handle(ctx, job, ack)
	}
}

// RunOnce handles at most one job. Tests and the drain path use it.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	job, ack, ok, err := r.Jobs.ReceiveJob(ctx)
	if err != nil || !ok {
		return false, err
	}
	r.handle(ctx, job, ack)
	return true, nil
}

func (r *Runner) handle(ctx context.Context, job queue.JobMessage, ack queue.AckFunc) {
	// A received job runs to completion even when shutdown is requested
	// mid-flight; the drain timeout caps how long termination waits.
	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stopDrain := context.AfterFunc(ctx, func() {
		timeout := r.DrainTimeout
		if timeout <= 0 {
			timeout = defaultDrainTimeout
		}
		select {
		case <-time.After(timeout):
			cancel()
		case <-workCtx.Done():
		}
	})
	defer stopDrain()

	result := r.Processor.Process(workCtx, job)

	if err := r.Results.SendResult(workCtx, result); err != nil {
		// Leave the job in flight so it is retried after the visibility
		// timeout rather than losing the result.
		telemetry.Error("worker.result_publish_failed", map[string]any{
			"documentId":    job.DocumentID,
			"correlationId": job.CorrelationID,
			"error":         err.Error(),
		})
		return
	}

	if err := ack(workCtx); err != nil {
		telemetry.Warn("worker.ack_failed", map[string]any{
			"documentId": job.DocumentID,
			"error":      err.Error(),
		})
	}
}
