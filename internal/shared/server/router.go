package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paperless-backend/internal/documents"
	"paperless-backend/internal/shared/config"
	"paperless-backend/internal/shared/metrics"
	"paperless-backend/internal/shared/server/middleware"
	"paperless-backend/internal/shared/server/respond"
	"paperless-backend/internal/tags"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterDeps carries everything NewRouter needs.
type RouterDeps struct {
	Config           config.Config
	DocumentsHandler *documents.Handler
	TagsHandler      *tags.Handler
	HealthChecks     []HealthCheck
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", healthHandler(deps.HealthChecks))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	deps.DocumentsHandler.RegisterRoutes(api)
	deps.TagsHandler.RegisterRoutes(api)

	return r
}

func healthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		detail := gin.H{}
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				detail[check.Name] = err.Error()
			} else {
				detail[check.Name] = "ok"
			}
		}

		respond.JSON(c, status, gin.H{"ok": status == http.StatusOK, "checks": detail})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
