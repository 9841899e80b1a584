package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/app/repository"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationController serves the caller's in-app inbox.
type NotificationController struct {
	notifications repository.NotificationRepository
}

func NewNotificationController(notifications repository.NotificationRepository) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// HandleList handles GET /notifications. Only the caller's own entries are
// returned, newest first.
func (nc *NotificationController) HandleList(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultNotificationLimit)
	if limit <= 0 {
		return badRequest(c, "limit must be positive")
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	items, err := nc.notifications.ListByUser(c.UserContext(), actorFrom(c).ID, limit)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return c.JSON(items)
}
