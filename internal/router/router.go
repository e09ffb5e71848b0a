package router

import (
	"github.com/gin-gonic/gin"

	"invoiceflow/internal/config"
	"invoiceflow/internal/handler"
	"invoiceflow/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	batchH *handler.BatchHandler,
	chatH *handler.ChatHandler,
	sessionH *handler.SessionHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Batch routes
	batches := v1.Group("/batches")
	batches.POST("", batchH.Create)
	batches.GET("/:id/status", batchH.Status)
	batches.GET("/:id/results", batchH.Results)
	batches.GET("/:id/export", batchH.Export)
	batches.POST("/:id/cancel", batchH.Cancel)

	// Chat routes
	v1.POST("/chat", chatH.Ask)
	v1.GET("/chat", chatH.Transcript)
	v1.DELETE("/chat", chatH.Reset)

	// Session routes
	v1.GET("/session", sessionH.Current)
	v1.GET("/session/status", sessionH.Status)
	v1.GET("/session/stats", sessionH.Stats)
	v1.DELETE("/session", sessionH.Destroy)

	return r
}
