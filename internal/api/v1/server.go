package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// Pong is the body of GET /ping.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists every operation in openapi.yml.
type ServerInterface interface {
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// (GET /reports)
	ListReports(c *fiber.Ctx) error
	// (POST /reports)
	CreateReport(c *fiber.Ctx) error
	// (GET /reports/{id})
	GetReport(c *fiber.Ctx, id string) error
	// (PUT /reports/{id}/status)
	UpdateReportStatus(c *fiber.Ctx, id string) error
	// (PUT /reports/{id}/confirm)
	ConfirmReport(c *fiber.Ctx, id string) error
	// (PUT /reports/{id}/reject)
	RejectReport(c *fiber.Ctx, id string) error
	// (GET /notifications)
	ListNotifications(c *fiber.Ctx) error
	// (POST /admin/reports/redact-resolved)
	RedactResolvedReports(c *fiber.Ctx) error
	// (GET /admin/stats)
	GetReportStats(c *fiber.Ctx) error
}

// Middlewares guard the route groups. Auth runs on every route except
// /ping; Admin runs after Auth on /admin.
type Middlewares struct {
	Auth  []fiber.Handler
	Admin []fiber.Handler
}

// ServerInterfaceWrapper extracts path parameters before calling the server.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetReport(c *fiber.Ctx) error {
	return w.Handler.GetReport(c, c.Params("id"))
}

func (w *ServerInterfaceWrapper) UpdateReportStatus(c *fiber.Ctx) error {
	return w.Handler.UpdateReportStatus(c, c.Params("id"))
}

func (w *ServerInterfaceWrapper) ConfirmReport(c *fiber.Ctx) error {
	return w.Handler.ConfirmReport(c, c.Params("id"))
}

func (w *ServerInterfaceWrapper) RejectReport(c *fiber.Ctx) error {
	return w.Handler.RejectReport(c, c.Params("id"))
}

// RegisterHandlers mounts all operations on router.
func RegisterHandlers(router fiber.Router, si ServerInterface, mw Middlewares) {
	w := &ServerInterfaceWrapper{Handler: si}

	router.Get("/ping", si.GetPing)

	authed := router.Group("", mw.Auth...)
	authed.Get("/reports", si.ListReports)
	authed.Post("/reports", si.CreateReport)
	authed.Get("/reports/:id", w.GetReport)
	authed.Put("/reports/:id/status", w.UpdateReportStatus)
	authed.Put("/reports/:id/confirm", w.ConfirmReport)
	authed.Put("/reports/:id/reject", w.RejectReport)
	authed.Get("/notifications", si.ListNotifications)

	admin := authed.Group("/admin", mw.Admin...)
	admin.Post("/reports/redact-resolved", si.RedactResolvedReports)
	admin.Get("/stats", si.GetReportStats)
}
