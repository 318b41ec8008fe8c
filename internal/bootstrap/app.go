// Package bootstrap assembles the application from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"paperless-backend/internal/documents"
	"paperless-backend/internal/outbox"
	"paperless-backend/internal/queue"
	"paperless-backend/internal/shared/config"
	"paperless-backend/internal/shared/server"
	"paperless-backend/internal/shared/storage/db"
	"paperless-backend/internal/shared/storage/object"
	localstore "paperless-backend/internal/shared/storage/object/local"
	s3store "paperless-backend/internal/shared/storage/object/s3"
	"paperless-backend/internal/shared/telemetry"
	"paperless-backend/internal/tags"
)

// App holds shared dependencies for the API process.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	DocumentsRepo    documents.Repo
	TagsRepo         tags.Repo
	OutboxRepo       outbox.Repo
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	TagsHandler      *tags.Handler
	Dispatcher       *outbox.Dispatcher
}

// Build prepares shared dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := BuildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		DocumentsHandler: app.DocumentsHandler,
		TagsHandler:      app.TagsHandler,
		HealthChecks:     healthChecks(app),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// BuildStore constructs the object store named by the configuration. The
// worker process uses it directly.
func BuildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:    cfg.AWSRegion,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.OCRQueueURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_queue", map[string]any{"reason": "PL_OCR_QUEUE_URL empty"})
			return queue.NewMemoryClient(), nil
		}
		return nil, fmt.Errorf("PL_OCR_QUEUE_URL is required")
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.OCRQueueURL, cfg.ResultQueueURL)
}

func buildServices(app *App) {
	var docRepo documents.Repo
	var tagRepo tags.Repo
	var outboxRepo outbox.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		tagRepo = &tags.PGRepo{DB: app.DB}
		outboxRepo = &outbox.PGRepo{DB: app.DB}
	} else {
		memTags := tags.NewMemoryRepo()
		memOutbox := outbox.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo(memTags, memOutbox)
		tagRepo = memTags
		outboxRepo = memOutbox
	}

	docSvc := &documents.Service{
		Store:             app.Store,
		Repo:              docRepo,
		MaxUploadBytes:    app.Config.MaxUploadBytes,
		AllowedExtensions: app.Config.AllowedExtensions,
	}

	app.DocumentsRepo = docRepo
	app.TagsRepo = tagRepo
	app.OutboxRepo = outboxRepo
	app.DocumentsService = docSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.TagsHandler = tags.NewHandler(tagRepo)
	app.Dispatcher = &outbox.Dispatcher{
		Repo:     outboxRepo,
		Queue:    app.Queue,
		Interval: time.Duration(app.Config.OutboxIntervalSeconds) * time.Second,
		Batch:    20,
	}
}

func healthChecks(app *App) []server.HealthCheck {
	checks := []server.HealthCheck{}

	if app.DB != nil {
		checks = append(checks, server.HealthCheck{
			Name:  "database",
			Check: func(ctx context.Context) error { return app.DB.PingContext(ctx) },
		})
	}

	if pinger, ok := app.Store.(interface {
		Ping(ctx context.Context) error
	}); ok {
		checks = append(checks, server.HealthCheck{
			Name:  "objectStore",
			Check: pinger.Ping,
		})
	}

	if pinger, ok := app.Queue.(interface {
		Ping(ctx context.Context) error
	}); ok {
		checks = append(checks, server.HealthCheck{
			Name:  "queue",
			Check: pinger.Ping,
		})
	}

	return checks
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
