package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecocheck/ecocheck/internal/pkg/statistics"
	"github.com/ecocheck/ecocheck/internal/pkg/workflow"
)

// AdminReportController serves superadmin maintenance endpoints.
type AdminReportController struct {
	engine *workflow.Engine
	stats  *statistics.Service
}

func NewAdminReportController(engine *workflow.Engine, stats *statistics.Service) *AdminReportController {
	return &AdminReportController{engine: engine, stats: stats}
}

// HandleRedactResolved handles POST /admin/reports/redact-resolved.
func (ac *AdminReportController) HandleRedactResolved(c *fiber.Ctx) error {
	result, err := ac.engine.RedactResolvedBackfill(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "PII removal from resolved reports completed",
		"total":   result.Total,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	})
}

// HandleStats handles GET /admin/stats.
func (ac *AdminReportController) HandleStats(c *fiber.Ctx) error {
	stats, err := ac.stats.ReportStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
