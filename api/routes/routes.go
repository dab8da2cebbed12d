package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/exam-analyzer/api/handlers"
	"github.com/feichai0017/exam-analyzer/api/middleware"
)

// SetupRoutes wires all HTTP routes.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	analysis := v1.Group("/analysis")
	{
		analysis.POST("/jobs", h.Analysis.SubmitAnalysis)
		analysis.GET("/jobs/:jobId/status", h.Analysis.GetStatus)
		analysis.GET("/jobs/:jobId/result", h.Analysis.GetResult)
	}
}
