package router

import (
	"github.com/gin-gonic/gin"

	"github.com/leaseledger/backend/internal/interfaces/http/handler"
)

// New builds the admin HTTP engine with all routes registered
func New(billing *handler.BillingHandler, health *handler.HealthHandler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", health.Check)

	api := engine.Group("/api/v1")
	billing.RegisterRoutes(api)

	return engine
}
