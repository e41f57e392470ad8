package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/import/fields", handler.GetImportFields)
		v1.GET("/import/template", handler.DownloadTemplate)
		v1.POST("/import", handler.SubmitImport)
		v1.GET("/import-jobs/:job_id", handler.GetJobStatus)
		v1.GET("/items/export", handler.ExportItems)
	}
}
