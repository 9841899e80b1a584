package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ecocheck/ecocheck/internal/pkg/workflow"
)

// Error codes returned in the "error" field of every failure body.
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeNotFound      = "not_found"
	CodeStateConflict = "state_conflict"
	CodeInternal      = "internal_server_error"
)

func errorJSON(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return errorJSON(c, fiber.StatusBadRequest, CodeBadRequest, msg)
}

// respondError maps workflow errors to HTTP. Anything unclassified is logged
// and hidden behind a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var werr *workflow.Error
	msg := err.Error()
	if errors.As(err, &werr) {
		msg = werr.Msg
	}

	switch {
	case workflow.IsValidation(err):
		return errorJSON(c, fiber.StatusBadRequest, CodeBadRequest, msg)
	case workflow.IsNotFound(err):
		return errorJSON(c, fiber.StatusNotFound, CodeNotFound, msg)
	case workflow.IsForbidden(err):
		return errorJSON(c, fiber.StatusForbidden, CodeForbidden, msg)
	case workflow.IsStateConflict(err):
		return errorJSON(c, fiber.StatusConflict, CodeStateConflict, msg)
	default:
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
		return errorJSON(c, fiber.StatusInternalServerError, CodeInternal, "Server error")
	}
}
