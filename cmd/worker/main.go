package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paperless-backend/internal/bootstrap"
	"paperless-backend/internal/ocr"
	"paperless-backend/internal/queue"
	"paperless-backend/internal/shared/config"
	"paperless-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	if cfg.OCRQueueURL == "" {
		log.Fatal("PL_OCR_QUEUE_URL is required")
	}
	if cfg.ResultQueueURL == "" {
		log.Fatal("PL_RESULT_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.BuildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("build object store: %v", err)
	}

	queueClient, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.OCRQueueURL, cfg.ResultQueueURL)
	if err != nil {
		log.Fatalf("build queue client: %v", err)
	}

	if err := worker.WaitForQueue(ctx, queueClient.Ping); err != nil {
		log.Fatalf("queue unreachable: %v", err)
	}

	runner := &worker.Runner{
		Jobs:    queueClient,
		Results: queueClient,
		Processor: &worker.Processor{
			Store:  store,
			Engine: ocr.NewExtractor(cfg.OCRLanguages),
		},
		DrainTimeout: time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second,
	}

	log.Printf("worker started queue=%s", cfg.OCRQueueURL)
	runner.Run(ctx)
	log.Printf("worker stopped")
}
