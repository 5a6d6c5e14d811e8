package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dwhreports/internal/reports"

	"github.com/gin-gonic/gin"
)

type Catalogue interface {
	Names() []string
	Run(ctx context.Context, name string) (any, error)
}

// ReportController exposes each catalogue report as its own endpoint.
type ReportController struct {
	catalogue Catalogue
	now       func() time.Time
}

func NewReportController(catalogue Catalogue) *ReportController {
	return &ReportController{catalogue: catalogue, now: time.Now}
}

// List
// GET /reports
func (c *ReportController) List(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"reports": c.catalogue.Names()})
}

// Get runs one report.
// GET /reports/:name
func (c *ReportController) Get(ctx *gin.Context) {
	name := ctx.Param("name")

	rows, err := c.catalogue.Run(ctx.Request.Context(), name)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"report": name, "error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"report":       name,
		"generated_at": c.now().UTC(),
		"rows":         rows,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, reports.ErrUnknownReport):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
