package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"bookingwatch/internal/handler"
	"bookingwatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	SessionHandler *handler.SessionHandler
	WSHandler      *handler.WSHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		sessions := v1.Group("/sessions")
		{
			// View mounts.
			sessions.POST("/tracking", deps.SessionHandler.CreateTracking)
			sessions.POST("/list", deps.SessionHandler.CreateList)
			sessions.POST("/live", deps.SessionHandler.CreateLive)

			// State and event stream.
			sessions.GET("/:id", deps.SessionHandler.GetState)
			sessions.GET("/:id/events", deps.WSHandler.Stream)

			// Proxied booking actions.
			sessions.POST("/:id/cancel", deps.SessionHandler.Cancel)
			sessions.POST("/:id/start", deps.SessionHandler.StartRide)
			sessions.POST("/:id/complete", deps.SessionHandler.CompleteRide)
			sessions.POST("/:id/payment/complete", deps.SessionHandler.CompletePayment)
			sessions.POST("/:id/payment/failed", deps.SessionHandler.FailPayment)

			// View unmount.
			sessions.DELETE("/:id", deps.SessionHandler.Delete)
		}
	}

	return router
}
