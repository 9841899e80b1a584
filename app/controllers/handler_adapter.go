package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// Global controller instances, set once at startup.
var (
	reportController       *ReportController
	adminReportController  *AdminReportController
	notificationController *NotificationController
)

// InitializeControllers installs the controllers the route adapters use.
func InitializeControllers(rc *ReportController, ac *AdminReportController, nc *NotificationController) {
	reportController = rc
	adminReportController = ac
	notificationController = nc
}

func GetReportController() *ReportController {
	if reportController == nil {
		panic("controllers: InitializeControllers was not called")
	}
	return reportController
}

func GetAdminReportController() *AdminReportController {
	if adminReportController == nil {
		panic("controllers: InitializeControllers was not called")
	}
	return adminReportController
}

func GetNotificationController() *NotificationController {
	if notificationController == nil {
		panic("controllers: InitializeControllers was not called")
	}
	return notificationController
}

// Adapter functions for the router

func HandleReportCreate(c *fiber.Ctx) error {
	return GetReportController().HandleCreate(c)
}

func HandleReportList(c *fiber.Ctx) error {
	return GetReportController().HandleList(c)
}

func HandleReportGet(c *fiber.Ctx) error {
	return GetReportController().HandleGet(c)
}

func HandleReportSetStatus(c *fiber.Ctx) error {
	return GetReportController().HandleSetStatus(c)
}

func HandleReportConfirm(c *fiber.Ctx) error {
	return GetReportController().HandleConfirm(c)
}

func HandleReportReject(c *fiber.Ctx) error {
	return GetReportController().HandleReject(c)
}

func HandleAdminRedactResolved(c *fiber.Ctx) error {
	return GetAdminReportController().HandleRedactResolved(c)
}

func HandleAdminStats(c *fiber.Ctx) error {
	return GetAdminReportController().HandleStats(c)
}

func HandleNotificationList(c *fiber.Ctx) error {
	return GetNotificationController().HandleList(c)
}
