package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// InitRoutes registers the health check and report endpoints.
func InitRoutes(r *gin.Engine, reportCtl *ReportController) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	reports := r.Group("/reports")
	{
		// GET /reports
		reports.GET("", reportCtl.List)
		// GET /reports/:name
		reports.GET("/:name", reportCtl.Get)
	}
}

// NewEngine builds a gin engine with recovery and the report routes.
func NewEngine(reportCtl *ReportController) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	InitRoutes(r, reportCtl)
	return r
}
