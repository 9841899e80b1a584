package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to the controllers so the router and the API share one implementation
	"github.com/ecocheck/ecocheck/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (s *APIServer) ListReports(c *fiber.Ctx) error {
	return controllers.HandleReportList(c)
}

func (s *APIServer) CreateReport(c *fiber.Ctx) error {
	return controllers.HandleReportCreate(c)
}

// GetReport and the following id operations read the id from route params;
// the wrapper already resolved it.
func (s *APIServer) GetReport(c *fiber.Ctx, id string) error {
	return controllers.HandleReportGet(c)
}

func (s *APIServer) UpdateReportStatus(c *fiber.Ctx, id string) error {
	return controllers.HandleReportSetStatus(c)
}

func (s *APIServer) ConfirmReport(c *fiber.Ctx, id string) error {
	return controllers.HandleReportConfirm(c)
}

func (s *APIServer) RejectReport(c *fiber.Ctx, id string) error {
	return controllers.HandleReportReject(c)
}

func (s *APIServer) ListNotifications(c *fiber.Ctx) error {
	return controllers.HandleNotificationList(c)
}

// RedactResolvedReports is guarded by the superadmin middleware in the router.
func (s *APIServer) RedactResolvedReports(c *fiber.Ctx) error {
	return controllers.HandleAdminRedactResolved(c)
}

func (s *APIServer) GetReportStats(c *fiber.Ctx) error {
	return controllers.HandleAdminStats(c)
}
