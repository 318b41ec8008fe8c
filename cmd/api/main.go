package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paperless-backend/internal/bootstrap"
	"paperless-backend/internal/queue"
	"paperless-backend/internal/results"
	"paperless-backend/internal/shared/config"
	"paperless-backend/internal/shared/server"
	"paperless-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	if app.DB != nil {
		if err := db.RunMigrations(ctx, app.DB); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		defer app.DB.Close()
	}

	go app.Dispatcher.Run(ctx)

	if receiver, ok := app.Queue.(queue.ResultReceiver); ok {
		consumer := &results.Consumer{Receiver: receiver, Repo: app.DocumentsRepo}
		go consumer.Run(ctx)
	}

	addr := server.Addr(cfg.Port)
	srv := &http.Server{Addr: addr, Handler: app.Router}

	go func() {
		log.Printf("starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
