package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		collect := v1.Group("/collect")
		{
			collect.POST("", handler.Collect)
			collect.POST("/batch", handler.CollectBatch)
			collect.POST("/timeseries", handler.CollectTimeSeries)
		}

		v1.GET("/results/:id", handler.GetResult)
		v1.POST("/predict", handler.Predict)

		repos := v1.Group("/repos/:owner/:repo")
		{
			repos.GET("/results", handler.ListResults)
			repos.GET("/results/latest", handler.GetLatestResult)
			repos.GET("/timeseries", handler.GetTimeSeries)
			repos.GET("/coverage", handler.GetCoverage)
		}
	}

	return router
}
