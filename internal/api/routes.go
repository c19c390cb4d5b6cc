package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/handler"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/metrics"
)

func setupRoutes(router *gin.Engine, deps Deps) {
	health := handler.NewHealthHandler(deps.Version)
	router.GET("/health", health.HealthCheck)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	bbsHandler := handler.NewBBSHandler(deps.Poster, deps.Defaults)
	v1 := router.Group("/api/v1")
	v1.POST("/classify", bbsHandler.Classify)
	v1.POST("/resolve", bbsHandler.Resolve)
	v1.POST("/posts", bbsHandler.Post)
}
