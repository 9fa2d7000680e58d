package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/anonreport/incident-api/internal/middleware"
)

// RegisterReportRoutes mounts the public and staff endpoints on api.
func RegisterReportRoutes(api *gin.RouterGroup, reports *ReportHandler, analysis *AnalysisHandler, sessions middleware.SessionVerifier) {
	api.POST("/analyze-image", analysis.AnalyzeImage)

	api.POST("/reports/create", reports.Create)
	api.GET("/reports/:reportId", reports.Get)

	staff := api.Group("")
	staff.Use(middleware.Session(sessions))
	staff.PATCH("/reports/:reportId", reports.UpdateStatus)
	staff.GET("/reports", reports.List)
	staff.GET("/reports/export", reports.Export)
}

// RegisterOpsRoutes mounts health, readiness and metrics endpoints.
func RegisterOpsRoutes(r gin.IRouter, ops *MetricsHandler) {
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
}
